// Package s3 stores files as objects in an S3-compatible bucket. The object
// ETag is the version marker and writes use S3 conditional requests
// (If-None-Match for creates, If-Match for overwrites and deletes).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/adminblog/core/internal/pkg/filestore"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const commitMessageKey = "commit-message"

// Options configures the S3 driver.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	PathStyle       bool
	HTTPClient      *http.Client
}

// Store implements filestore.Store on a bucket.
type Store struct {
	client *awss3.Client
	bucket string
	prefix string
}

var _ filestore.Store = (*Store)(nil)

// New validates opts and builds the S3 client.
func New(opts Options) (*Store, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	region := strings.TrimSpace(opts.Region)
	accessKey := strings.TrimSpace(opts.AccessKeyID)
	secretKey := strings.TrimSpace(opts.SecretAccessKey)
	if bucket == "" || region == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("s3 store: bucket/region/access_key_id/secret_access_key are required")
	}

	endpoint := strings.TrimSuffix(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	client := awss3.New(awss3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: opts.PathStyle || endpoint != "",
	}, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		if opts.HTTPClient != nil {
			o.HTTPClient = opts.HTTPClient
		}
	})

	return &Store{
		client: client,
		bucket: bucket,
		prefix: filestore.CleanPath(opts.Prefix),
	}, nil
}

func (s *Store) Get(ctx context.Context, path string) (*filestore.File, error) {
	path = filestore.CleanPath(path)
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		return nil, classify("get", path, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.Remote("get", path, err)
	}
	return &filestore.File{
		Path:    path,
		Content: content,
		Version: aws.ToString(out.ETag),
	}, nil
}

func (s *Store) Put(ctx context.Context, path string, content []byte, message, version string) error {
	path = filestore.CleanPath(path)
	in := &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(path)),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType(path)),
		Metadata:    map[string]string{commitMessageKey: url.QueryEscape(message)},
	}
	if version == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(version)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return classify("put", path, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, message, version string) error {
	path = filestore.CleanPath(path)
	key := s.key(path)

	// DeleteObject succeeds on missing keys, so absence is detected up front.
	if _, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return classify("delete", path, err)
	}

	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket:  aws.String(s.bucket),
		Key:     aws.String(key),
		IfMatch: aws.String(version),
	}); err != nil {
		return classify("delete", path, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, dir string) ([]filestore.Entry, error) {
	dir = filestore.CleanPath(dir)
	prefix := s.key(dir) + "/"

	var (
		entries []filestore.Entry
		found   bool
	)
	pager := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, classify("list", dir, err)
		}
		if len(page.Contents) > 0 || len(page.CommonPrefixes) > 0 {
			found = true
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue
			}
			entries = append(entries, filestore.Entry{Name: name, Path: dir + "/" + name})
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, dir)
	}
	return entries, nil
}

func (s *Store) key(path string) string {
	if s.prefix == "" {
		return path
	}
	return s.prefix + "/" + path
}

func contentType(path string) string {
	switch {
	case strings.HasSuffix(path, ".json"):
		return "application/json"
	case strings.HasSuffix(path, ".md"):
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// classify maps SDK failures onto the apperr taxonomy.
func classify(op, path string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("%w: %s: %s", apperr.ErrConflict, path, apiErr.ErrorMessage())
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusPreconditionFailed, http.StatusConflict:
			return fmt.Errorf("%w: %s", apperr.ErrConflict, path)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
		}
	}
	return apperr.Remote(op, path, err)
}
