package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, AuthModeHeader, cfg.Auth.Mode)
	assert.Equal(t, "/select_inventory", cfg.Redirects.SelectInventory)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "inventory", cfg.MQTT.TopicPrefix)
	assert.EqualValues(t, 1, cfg.MQTT.QoS)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invwe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
  request_timeout: 3s
database:
  host: db.internal
  database: stock
auth:
  mode: jwt
  jwt_secret: from-file
mqtt:
  enabled: true
  topic_prefix: tiendas
  broker: tcp://mqtt:1883
  qos: 0
redirects:
  sign_in: /login
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("AUTH_MODE", "")
	t.Setenv("DB_HOST", "db.override")
	t.Setenv("AUTH_JWT_SECRET", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, "stock", cfg.Database.Database)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, AuthModeJWT, cfg.Auth.Mode)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tiendas", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "tcp://mqtt:1883", cfg.MQTT.Broker)
	assert.EqualValues(t, 0, cfg.MQTT.QoS)
	assert.Equal(t, "/login", cfg.Redirects.SignIn)
	assert.Equal(t, "/pending-approval", cfg.Redirects.PendingApproval)
}

func TestLoad_ValidatesAuthMode(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTH_MODE", "session")
	t.Setenv("AUTH_IDP_BASE_URL", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("AUTH_MODE", "magic")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("AUTH_MODE", "OIDC")
	t.Setenv("AUTH_OIDC_ISSUER", "https://idp.example.com")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, AuthModeOIDC, cfg.Auth.Mode)
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_AlertStream(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("ALERT_STREAM_ENABLED", "true")
	t.Setenv("ALERT_STREAM_MAX_LEN", "500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AlertStream.Enabled)
	assert.Equal(t, "inventory:stock-alerts", cfg.AlertStream.Stream)
	assert.EqualValues(t, 500, cfg.AlertStream.MaxLen)
	assert.True(t, cfg.NeedsRedis())

	cfg.AlertStream.Enabled = false
	assert.False(t, cfg.NeedsRedis())
}

func TestLoad_AdminAPIRequiresOperators(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AUTH_MODE", "")
	t.Setenv("ADMIN_API_ENABLED", "true")
	t.Setenv("ADMIN_USER_IDS", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("ADMIN_USER_IDS", "ops-1, ops-2,")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops-1", "ops-2"}, cfg.AdminUserIDs)
}
