// Package github stores files in a GitHub repository through the contents
// API. The blob SHA of each file is its version marker.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/adminblog/core/internal/pkg/filestore"
	gh "github.com/google/go-github/v66/github"
)

// Options configures the GitHub driver.
type Options struct {
	Token          string
	Owner          string
	Repo           string
	Branch         string
	BaseURL        string // API root, e.g. https://ghe.example.com/api/v3/
	CommitterName  string
	CommitterEmail string
	HTTPClient     *http.Client
}

// Store implements filestore.Store on top of a repository.
type Store struct {
	client    *gh.Client
	owner     string
	repo      string
	branch    string
	committer *gh.CommitAuthor
}

var _ filestore.Store = (*Store)(nil)

// New validates opts and builds the API client.
func New(opts Options) (*Store, error) {
	owner := strings.TrimSpace(opts.Owner)
	repo := strings.TrimSpace(opts.Repo)
	if owner == "" || repo == "" {
		return nil, errors.New("github store: owner and repo are required")
	}

	client := gh.NewClient(opts.HTTPClient)
	if token := strings.TrimSpace(opts.Token); token != "" {
		client = client.WithAuthToken(token)
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("github store: invalid base url %q", opts.BaseURL)
		}
		client.BaseURL = u
	}

	s := &Store{
		client: client,
		owner:  owner,
		repo:   repo,
		branch: strings.TrimSpace(opts.Branch),
	}
	if opts.CommitterName != "" && opts.CommitterEmail != "" {
		s.committer = &gh.CommitAuthor{
			Name:  gh.String(opts.CommitterName),
			Email: gh.String(opts.CommitterEmail),
		}
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, path string) (*filestore.File, error) {
	path = filestore.CleanPath(path)
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, s.getOptions())
	if err != nil {
		return nil, classify("get", path, resp, err, false)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: %s is a directory", apperr.ErrNotFound, path)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, apperr.Remote("get", path, err)
	}
	return &filestore.File{
		Path:    path,
		Content: []byte(content),
		Version: file.GetSHA(),
	}, nil
}

func (s *Store) Put(ctx context.Context, path string, content []byte, message, version string) error {
	path = filestore.CleanPath(path)
	opts := s.fileOptions(message, version)
	opts.Content = content

	var (
		resp *gh.Response
		err  error
	)
	if version == "" {
		_, resp, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	} else {
		_, resp, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	}
	if err != nil {
		return classify("put", path, resp, err, true)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, message, version string) error {
	path = filestore.CleanPath(path)
	_, resp, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, path, s.fileOptions(message, version))
	if err != nil {
		return classify("delete", path, resp, err, true)
	}
	return nil
}

func (s *Store) List(ctx context.Context, dir string) ([]filestore.Entry, error) {
	dir = filestore.CleanPath(dir)
	file, items, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, dir, s.getOptions())
	if err != nil {
		return nil, classify("list", dir, resp, err, false)
	}
	if file != nil {
		return nil, apperr.Invalid("%s is a file, not a directory", dir)
	}
	entries := make([]filestore.Entry, 0, len(items))
	for _, item := range items {
		if item.GetType() != "file" {
			continue
		}
		entries = append(entries, filestore.Entry{Name: item.GetName(), Path: item.GetPath()})
	}
	return entries, nil
}

func (s *Store) getOptions() *gh.RepositoryContentGetOptions {
	if s.branch == "" {
		return nil
	}
	return &gh.RepositoryContentGetOptions{Ref: s.branch}
}

func (s *Store) fileOptions(message, version string) *gh.RepositoryContentFileOptions {
	opts := &gh.RepositoryContentFileOptions{
		Message:   gh.String(message),
		Committer: s.committer,
	}
	if version != "" {
		opts.SHA = gh.String(version)
	}
	if s.branch != "" {
		opts.Branch = gh.String(s.branch)
	}
	return opts
}

// classify maps contents API failures onto the apperr taxonomy. GitHub answers
// a stale SHA with 409, and a create over an existing path with 422.
func classify(op, path string, resp *gh.Response, err error, write bool) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var ghErr *gh.ErrorResponse
	if status == 0 && errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s: %s", apperr.ErrConflict, path, message(err))
	case status == http.StatusUnprocessableEntity && write:
		return fmt.Errorf("%w: %s: %s", apperr.ErrConflict, path, message(err))
	default:
		return apperr.Remote(op, path, err)
	}
}

func message(err error) string {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		return ghErr.Message
	}
	return err.Error()
}
