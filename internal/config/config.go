package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr   string        // ADMX_HTTP_ADDR (default ":8080")
	AuthToken  string        // ADMX_AUTH_TOKEN (optional, empty = auth disabled)
	NATSURL    string        // ADMX_NATS_URL (optional, empty = no events)
	SessionTTL time.Duration // ADMX_SESSION_TTL (default 30m; 0 = sessions never expire)

	// Sync settings
	SyncInterval   time.Duration // ADMX_SYNC_INTERVAL (default 0 = disabled)
	SyncDir        string        // ADMX_SYNC_DIR (enables local directory when set)
	SyncS3Bucket   string        // ADMX_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // ADMX_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // ADMX_SYNC_S3_REGION (default "us-east-1")
	SyncS3Prefix   string        // ADMX_SYNC_S3_PREFIX (default "admatrix")
	SyncGitRepo    string        // ADMX_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitDir     string        // ADMX_SYNC_GIT_DIR (default "matrices")
	SyncGitBranch  string        // ADMX_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:       envOrDefault("ADMX_HTTP_ADDR", ":8080"),
		AuthToken:      os.Getenv("ADMX_AUTH_TOKEN"),
		NATSURL:        os.Getenv("ADMX_NATS_URL"),
		SyncDir:        os.Getenv("ADMX_SYNC_DIR"),
		SyncS3Bucket:   os.Getenv("ADMX_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("ADMX_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("ADMX_SYNC_S3_REGION", "us-east-1"),
		SyncS3Prefix:   envOrDefault("ADMX_SYNC_S3_PREFIX", "admatrix"),
		SyncGitRepo:    os.Getenv("ADMX_SYNC_GIT_REPO"),
		SyncGitDir:     envOrDefault("ADMX_SYNC_GIT_DIR", "matrices"),
		SyncGitBranch:  envOrDefault("ADMX_SYNC_GIT_BRANCH", "main"),
	}

	var err error
	if c.SessionTTL, err = durationEnv("ADMX_SESSION_TTL", "30m"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = durationEnv("ADMX_SYNC_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if c.SessionTTL < 0 || c.SyncInterval < 0 {
		return nil, fmt.Errorf("ADMX_SESSION_TTL and ADMX_SYNC_INTERVAL must not be negative")
	}
	return c, nil
}

// SyncEnabled reports whether periodic sync has an interval and at least
// one destination.
func (c *Config) SyncEnabled() bool {
	return c.SyncInterval > 0 && (c.SyncDir != "" || c.SyncS3Bucket != "" || c.SyncGitRepo != "")
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
