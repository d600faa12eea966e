package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynasty-blog/dynasty/pkg/pagination"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BLOG_AUTH_JWT_SECRET", testSecret)

	cfg, err := LoadFrom(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"localhost", "127.0.0.1", "[::1]"}, cfg.Server.AllowedHosts)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 3, cfg.Blog.PageSize)
	assert.Equal(t, 4, cfg.Blog.SimilarLimit)
	assert.Equal(t, 5, cfg.Blog.FeedItems)
	assert.Equal(t, 30, cfg.Blog.FeedExcerptWords)
	assert.Equal(t, 0.3, cfg.Search.MinRelevance)
	assert.Equal(t, pagination.Clamp, cfg.Blog.PaginationPolicy())
	assert.Equal(t, "Europe/London", cfg.Blog.Location().String())
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, int64(50*1024*1024), cfg.Media.MaxUploadBytes())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
blog:
  page_size: 10
  page_out_of_range: error
auth:
  jwt_secret: `+testSecret+`
email:
  backend: console
`)
	t.Setenv("BLOG_BLOG_PAGE_SIZE", "7")

	cfg, err := LoadFrom(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Blog.PageSize)
	assert.Equal(t, pagination.Strict, cfg.Blog.PaginationPolicy())
	assert.Equal(t, "console", cfg.Email.Backend)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing secret", "server:\n  port: 8000\n", "auth.jwt_secret is required"},
		{"short secret", "auth:\n  jwt_secret: short\n", "at least 32 characters"},
		{"bad policy", "blog:\n  page_out_of_range: wrap\nauth:\n  jwt_secret: " + testSecret + "\n", "blog.page_out_of_range"},
		{"bad backend", "media:\n  backend: ftp\nauth:\n  jwt_secret: " + testSecret + "\n", "media.backend"},
		{"s3 without bucket", "media:\n  backend: s3\nauth:\n  jwt_secret: " + testSecret + "\n", "media.s3.endpoint"},
		{"tls and ssl", "email:\n  use_tls: true\n  use_ssl: true\nauth:\n  jwt_secret: " + testSecret + "\n", "mutually exclusive"},
		{"relative base url", "server:\n  base_url: blog.example.com\nauth:\n  jwt_secret: " + testSecret + "\n", "server.base_url"},
		{"no hosts without base url", "server:\n  allowed_hosts: []\nauth:\n  jwt_secret: " + testSecret + "\n", "server.allowed_hosts"},
		{"bad timezone", "blog:\n  timezone: Mars/Olympus\nauth:\n  jwt_secret: " + testSecret + "\n", "blog.timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(viper.New(), writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
