package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linemk/qris-shop/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123456:bot")
	t.Setenv("JWT_SECRET", "mysecret")
	t.Setenv("FEED_AUTH_TOKEN", "feed-token")
}

const minimalConfig = `
env: "local"
feed:
  url: "https://mutasi.example.com/api/v1/mutations"
  auth_username: "merchant"
products:
  "1":
    name: "VIP channel"
    price: 50000
    invite_link: "https://t.me/+vip"
`

func TestMustLoadByPath_Defaults(t *testing.T) {
	setSecrets(t)

	cfg := config.MustLoadByPath(writeConfig(t, minimalConfig))

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "123456:bot", cfg.BotToken)
	assert.Equal(t, "localhost:8080", cfg.HTTPServer.Address)
	assert.Equal(t, 4*time.Second, cfg.HTTPServer.Timeout)
	assert.Equal(t, 60, cfg.JWT.TokenTTL)

	assert.Equal(t, "feed-token", cfg.Feed.AuthToken)
	assert.Equal(t, 15*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, 20*time.Second, cfg.Feed.PollInterval)
	assert.True(t, cfg.Feed.VerifyTLS())

	assert.Equal(t, 3, cfg.Payments.UniqueDigits)
	assert.Equal(t, "OK", cfg.Payments.OrderPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Payments.PaymentWindow())

	assert.Equal(t, 10, cfg.Orders.ListLimit)
	assert.Equal(t, config.StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "orders_state.json", cfg.Storage.Path)
	assert.False(t, cfg.Kafka.Enabled())

	require.Contains(t, cfg.Products, "1")
	assert.Equal(t, int64(50000), cfg.Products["1"].Price)
	assert.Equal(t, "https://t.me/+vip", cfg.Products["1"].InviteLink)
}

func TestLoadByPath_FullConfig(t *testing.T) {
	setSecrets(t)
	t.Setenv("DB_PASSWORD", "mypassword")

	cfg, err := config.LoadByPath(writeConfig(t, `
env: "prod"
http_server:
  address: "0.0.0.0:9000"
  timeout: "5s"
  idle_timeout: "30s"
jwt:
  token_ttl: 30
feed:
  url: "https://mutasi.example.com/api"
  auth_username: "merchant"
  timeout: "5s"
  verify_ssl: false
  poll_interval: "10s"
payments:
  unique_digits: 2
  order_prefix: "QR"
  payment_window_min: 30
  qris_info: "Pay the exact amount"
  qris_image_url: "https://cdn.example.com/qris.png"
products:
  "1":
    name: "VIP channel"
    price: 50000
    invite_link: "https://t.me/+vip"
  "2":
    name: "Premium"
    price: 75000
    invite_link: "https://t.me/+premium"
storage:
  driver: "postgres"
database:
  host: "db"
  port: 5433
  user: "shop"
  name: "qris"
kafka:
  brokers: ["kafka:9092"]
  topic: "shop.orders.paid"
`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPServer.Address)
	assert.Equal(t, 30, cfg.JWT.TokenTTL)
	assert.False(t, cfg.Feed.VerifyTLS())
	assert.Equal(t, 10*time.Second, cfg.Feed.PollInterval)
	assert.Equal(t, 2, cfg.Payments.UniqueDigits)
	assert.Equal(t, 30*time.Minute, cfg.Payments.PaymentWindow())
	assert.Len(t, cfg.Products, 2)
	assert.Equal(t, config.StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://shop:mypassword@db:5433/qris?sslmode=disable", cfg.Database.DSN())
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "shop.orders.paid", cfg.Kafka.Topic)
}

func TestLoadByPath_MissingBotToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "mysecret")
	t.Setenv("FEED_AUTH_TOKEN", "feed-token")
	t.Setenv("BOT_TOKEN", "")

	_, err := config.LoadByPath(writeConfig(t, minimalConfig))
	assert.Error(t, err)
}

func TestLoadByPath_NoProducts(t *testing.T) {
	setSecrets(t)

	_, err := config.LoadByPath(writeConfig(t, `
feed:
  url: "https://mutasi.example.com/api"
  auth_username: "merchant"
`))
	assert.Error(t, err)
}

func TestLoadByPath_ProductWithoutInviteLink(t *testing.T) {
	setSecrets(t)

	_, err := config.LoadByPath(writeConfig(t, `
feed:
  url: "https://mutasi.example.com/api"
  auth_username: "merchant"
products:
  "1":
    name: "VIP channel"
    price: 50000
`))
	assert.Error(t, err)
}

func TestLoadByPath_CancelCodeReserved(t *testing.T) {
	setSecrets(t)

	_, err := config.LoadByPath(writeConfig(t, minimalConfig+`
  "0":
    name: "Broken"
    price: 1
    invite_link: "https://t.me/+x"
`))
	assert.ErrorIs(t, err, config.ErrCancelCodeProduct)
}

func TestLoadByPath_PostgresRequiresDatabase(t *testing.T) {
	setSecrets(t)
	t.Setenv("DB_PASSWORD", "")

	_, err := config.LoadByPath(writeConfig(t, minimalConfig+`
storage:
  driver: "postgres"
`))
	assert.Error(t, err)
}

func TestMustLoadByPath_FileNotFound(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoadByPath("non_existent_config.yaml")
	})
}
