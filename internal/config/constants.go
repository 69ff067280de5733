package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort           = 2333
	defaultEnv            = "development"
	defaultLogLevel       = "info"
	defaultSiteTitle      = "Blog"
	defaultTokenTTL       = 2 * time.Hour
	defaultStoreDriver    = DriverGitHub
	defaultStoreTimeout   = 10 * time.Second
	defaultPostsDir       = "data/md"
	defaultResourcesPath  = "data/json/resources.json"
	defaultGitHubBranch   = "main"
	defaultLoginPerMinute = 10
)

// Store drivers.
const (
	DriverGitHub = "github"
	DriverS3     = "s3"
	DriverMemory = "memory"
)
