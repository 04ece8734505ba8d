package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 清掉可能从外部环境继承的变量
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "APP_PREFIX", "APP_PORT", "MONGO_URI", "MONGO_DB_NAME",
		"JWT_SECRET", "JWT_EXPIRES_IN_MINUTES", "SHOP_JWT_SECRET", "SHOP_MONGO_DRIVER",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	chdir(t, t.TempDir())
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFromLegacyEnv(t *testing.T) {
	isolate(t)
	t.Setenv("APP_PREFIX", "/api")
	t.Setenv("APP_PORT", "3000")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB_NAME", "shop")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN_MINUTES", "60")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/api", c.App.Prefix)
	assert.Equal(t, 3000, c.App.HTTP.Port)
	assert.Equal(t, "mongodb://localhost:27017", c.Mongo.URI)
	assert.Equal(t, "shop", c.Mongo.Database)
	assert.Equal(t, "s3cret", c.JWT.Secret)
	assert.Equal(t, 60, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, 20, c.Pagination.DefaultLimit)
	assert.Equal(t, 0, c.Pagination.MaxLimit)
	assert.Equal(t, 10, c.Security.BcryptCost)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	isolate(t)
	p := writeYAML(t, `
app:
  prefix: /v1
  http:
    port: 8080
  corsOrigins: ["http://localhost:5173"]
jwt:
  secret: from-file
  accessTokenTTLMin: 15
mongo:
  driver: memory
pagination:
  maxLimit: 100
`)
	t.Setenv("SHOP_JWT_SECRET", "from-env")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/v1", c.App.Prefix)
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, c.App.CORSOrigins)
	assert.Equal(t, "from-env", c.JWT.Secret)
	assert.Equal(t, "memory", c.Mongo.Driver)
	assert.Equal(t, 100, c.Pagination.MaxLimit)
}

func TestLoadFailsListingMissingKeys(t *testing.T) {
	isolate(t)
	t.Setenv("APP_PORT", "3000")

	_, err := Load("")
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "APP_PREFIX")
	assert.Contains(t, msg, "MONGO_URI")
	assert.Contains(t, msg, "MONGO_DB_NAME")
	assert.Contains(t, msg, "JWT_SECRET")
	assert.Contains(t, msg, "JWT_EXPIRES_IN_MINUTES")
	assert.NotContains(t, msg, "APP_PORT")
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	c := &Config{}
	c.App.Prefix = "/api"
	c.App.HTTP.Port = 1
	c.JWT.Secret = "x"
	c.JWT.AccessTokenTTLMin = 1
	c.Mongo.Driver = "sqlite"
	assert.Error(t, c.Validate())

	c.Mongo.Driver = "memory"
	assert.NoError(t, c.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
