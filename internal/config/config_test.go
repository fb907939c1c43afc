package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// chdir changes the working directory for the duration of the test.
// (*testing.T).Chdir requires Go 1.24; this toolchain is older.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	// Arrange: run from a directory without a .env file.
	chdir(t, t.TempDir())

	// Act
	cfg, err := Load()

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "memory", cfg.Jobs.Store)
	assert.Equal(t, time.Hour, cfg.Jobs.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Solver.MaxTimeLimit)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9999")
	t.Setenv("JOB_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JOB_TTL", "30m")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "redis", cfg.Jobs.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Jobs.TTL)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("garbage", time.Minute))
}
