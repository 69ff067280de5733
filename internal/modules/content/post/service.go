// Package post manages blog posts stored as front-matter markdown files in
// the remote file store, one file per slug.
package post

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/adminblog/core/internal/modules/processing/markdown"
	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/adminblog/core/internal/pkg/filestore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	fileExt         = ".md"
	listConcurrency = 4
)

type Service struct {
	store filestore.Store
	dir   string
	log   *zap.Logger
	now   func() time.Time
}

// NewService returns a post service keeping its files under dir.
func NewService(store filestore.Store, dir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store: store,
		dir:   filestore.CleanPath(dir),
		log:   logger.Named("post"),
		now:   time.Now,
	}
}

// WithClock overrides the clock used for default dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) pathOf(slug string) string {
	return path.Join(s.dir, slug+fileExt)
}

// Create writes a new post and returns its slug. The write is create-only:
// an existing post with the same slug yields ErrConflict.
func (s *Service) Create(ctx context.Context, dto CreatePostDTO) (string, error) {
	title := strings.TrimSpace(dto.Title)
	if title == "" || strings.TrimSpace(dto.Content) == "" {
		return "", apperr.Invalid("title and content are required")
	}
	slug := markdown.Slugify(title)
	if slug == "" {
		return "", apperr.Invalid("title %q has no characters usable in a slug", title)
	}
	date, err := s.resolveDate(dto.Date, "")
	if err != nil {
		return "", err
	}

	text, err := encode(map[string]any{"title": title, "date": date}, dto.Content)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, s.pathOf(slug), text, "Create post: "+title, ""); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return "", fmt.Errorf("post %q already exists: %w", slug, err)
		}
		return "", err
	}
	s.log.Info("post created", zap.String("slug", slug))
	return slug, nil
}

// Update rewrites an existing post against the version observed by a fresh
// read. A concurrent writer landing first yields ErrConflict; nothing retries.
func (s *Service) Update(ctx context.Context, dto UpdatePostDTO) error {
	slug := strings.TrimSpace(dto.Slug)
	title := strings.TrimSpace(dto.Title)
	if !markdown.ValidSlug(slug) {
		return apperr.Invalid("invalid slug %q", dto.Slug)
	}
	if title == "" || strings.TrimSpace(dto.Content) == "" {
		return apperr.Invalid("title and content are required")
	}

	p := s.pathOf(slug)
	current, err := s.store.Get(ctx, p)
	if err != nil {
		return err
	}

	meta := map[string]any{}
	if doc, err := markdown.Parse(string(current.Content)); err == nil {
		meta = doc.Meta
	} else {
		s.log.Warn("replacing unparseable post", zap.String("slug", slug), zap.Error(err))
	}

	date, err := s.resolveDate(dto.Date, markdown.AsString(meta["date"]))
	if err != nil {
		return err
	}
	meta["title"] = title
	meta["date"] = date

	text, err := encode(meta, dto.Content)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, p, text, "Update post: "+title, current.Version); err != nil {
		return err
	}
	s.log.Info("post updated", zap.String("slug", slug))
	return nil
}

// Delete removes a post against the version observed by a fresh read.
func (s *Service) Delete(ctx context.Context, slug string) error {
	slug = strings.TrimSpace(slug)
	if !markdown.ValidSlug(slug) {
		return apperr.Invalid("invalid slug %q", slug)
	}

	p := s.pathOf(slug)
	current, err := s.store.Get(ctx, p)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p, "Delete post: "+slug, current.Version); err != nil {
		return err
	}
	s.log.Info("post deleted", zap.String("slug", slug))
	return nil
}

// Get returns one post. Malformed slugs are reported as not found.
func (s *Service) Get(ctx context.Context, slug string) (*Detail, error) {
	if !markdown.ValidSlug(slug) {
		return nil, fmt.Errorf("%w: post %q", apperr.ErrNotFound, slug)
	}
	file, err := s.store.Get(ctx, s.pathOf(slug))
	if err != nil {
		return nil, err
	}
	doc, err := markdown.Parse(string(file.Content))
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", slug, err)
	}
	return newDetail(slug, doc), nil
}

// List reads every post in the directory, newest first. A missing directory
// is an empty blog; a file that does not parse is skipped.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	entries, err := s.store.List(ctx, s.dir)
	if errors.Is(err, apperr.ErrNotFound) {
		return []Summary{}, nil
	}
	if err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		if slug, ok := strings.CutSuffix(e.Name, fileExt); ok && slug != "" {
			slugs = append(slugs, slug)
		}
	}

	results := make([]*Summary, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, slug := range slugs {
		g.Go(func() error {
			file, err := s.store.Get(gctx, s.pathOf(slug))
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			doc, err := markdown.Parse(string(file.Content))
			if err != nil {
				s.log.Warn("skipping unparseable post", zap.String("slug", slug), zap.Error(err))
				return nil
			}
			d := newDetail(slug, doc)
			results[i] = &Summary{
				Title:   d.Title,
				Date:    d.Date,
				Slug:    slug,
				Excerpt: markdown.Excerpt(d.Content),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sortSummaries(out)
	return out, nil
}

// resolveDate validates a caller-supplied date, falling back to the
// previous value and then today.
func (s *Service) resolveDate(raw, previous string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if previous != "" {
			return previous, nil
		}
		return s.now().Format(markdown.DateLayout), nil
	}
	if _, ok := markdown.ParseDate(raw); !ok {
		return "", apperr.Invalid("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return raw, nil
}

func encode(meta map[string]any, content string) ([]byte, error) {
	text, err := markdown.Serialize(meta, content+"\n")
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func newDetail(slug string, doc markdown.Document) *Detail {
	title := strings.TrimSpace(markdown.AsString(doc.Meta["title"]))
	if title == "" {
		title = slug
	}
	return &Detail{
		Slug:    slug,
		Title:   title,
		Date:    markdown.AsString(doc.Meta["date"]),
		Content: strings.TrimSuffix(doc.Body, "\n"),
		Meta:    doc.Meta,
	}
}

func sortSummaries(items []Summary) {
	sort.SliceStable(items, func(i, j int) bool {
		a, aok := markdown.ParseDate(items[i].Date)
		b, bok := markdown.ParseDate(items[j].Date)
		switch {
		case aok && bok && !a.Equal(b):
			return a.After(b)
		case aok != bok:
			return aok
		case !aok && !bok && items[i].Date != items[j].Date:
			return items[i].Date > items[j].Date
		}
		return items[i].Slug < items[j].Slug
	})
}
