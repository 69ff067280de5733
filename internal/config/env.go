package config

import (
	"strconv"
	"strings"
)

// applyEnvOverrides layers deployment environment variables over the file.
// Secrets and store credentials are expected to arrive this way.
func applyEnvOverrides(raw *rawAppConfig, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			raw.Port = port
		}
	}
	str("ENV", &raw.Env)
	str("LOG_LEVEL", &raw.LogLevel)

	str("ACCESS_PASSWORD", &raw.Auth.Password)
	str("ACCESS_PASSWORD_HASH", &raw.Auth.PasswordHash)
	str("JWT_SECRET", &raw.Auth.JWTSecret)

	str("STORE_DRIVER", &raw.Store.Driver)
	str("GITHUB_TOKEN", &raw.Store.GitHub.Token)
	str("GITHUB_OWNER", &raw.Store.GitHub.Owner)
	str("GITHUB_REPO", &raw.Store.GitHub.Repo)
	str("GITHUB_BRANCH", &raw.Store.GitHub.Branch)

	str("S3_BUCKET", &raw.Store.S3.Bucket)
	str("S3_REGION", &raw.Store.S3.Region)
	str("S3_ENDPOINT", &raw.Store.S3.Endpoint)
	str("S3_ACCESS_KEY_ID", &raw.Store.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &raw.Store.S3.SecretAccessKey)

	str("REDIS_URL", &raw.Redis.URL)
}
