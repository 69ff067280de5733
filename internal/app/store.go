package app

import (
	"fmt"

	"github.com/adminblog/core/internal/config"
	"github.com/adminblog/core/internal/pkg/filestore"
	"github.com/adminblog/core/internal/pkg/filestore/github"
	"github.com/adminblog/core/internal/pkg/filestore/s3"
	"go.uber.org/zap"
)

// newFileStore builds the configured driver wrapped with the per-call
// deadline and logging.
func newFileStore(cfg config.StoreConfig, logger *zap.Logger) (filestore.Store, error) {
	var (
		store filestore.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverGitHub:
		store, err = github.New(github.Options{
			Token:          cfg.GitHub.Token,
			Owner:          cfg.GitHub.Owner,
			Repo:           cfg.GitHub.Repo,
			Branch:         cfg.GitHub.Branch,
			BaseURL:        cfg.GitHub.BaseURL,
			CommitterName:  cfg.GitHub.CommitterName,
			CommitterEmail: cfg.GitHub.CommitterEmail,
		})
	case config.DriverS3:
		store, err = s3.New(s3.Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
			PathStyle:       cfg.S3.PathStyle,
		})
	case config.DriverMemory:
		store = filestore.NewMemory()
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return filestore.Instrument(store, logger, cfg.Timeout), nil
}
