package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("COLLECTION_PREFIX", "")
	t.Setenv("INFINITEPAY_URLS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "infinitepay", cfg.CollectionPrefix)
	assert.Len(t, cfg.ScrapeURLs, 18)
	assert.Contains(t, cfg.ScrapeURLs, "https://www.infinitepay.io/pix")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("COLLECTION_PREFIX", "staging")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "staging", cfg.CollectionPrefix)
}

func TestGetEnvListParsing(t *testing.T) {
	t.Setenv("INFINITEPAY_URLS", " https://a.example , ,https://b.example ")

	cfg := Load()

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.ScrapeURLs)
}
