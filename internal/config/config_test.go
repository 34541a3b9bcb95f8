package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validViper() *viper.Viper {
	v := viper.New()
	v.Set("JWT_SECRET", "secret")
	v.Set("GATEWAY_BASE_URL", "https://dev.khalti.com/api/v2")
	v.Set("GATEWAY_SECRET_KEY", "key")
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(validViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, int64(50), cfg.ShippingFee)
	assert.Equal(t, int64(0), cfg.TaxPercent)
	assert.Equal(t, "http://localhost:8080/api/payments/gateway/callback", cfg.GatewayReturnURL())
	assert.False(t, cfg.AdminConfigured())
}

func TestFromViperReportsAllMissingKeys(t *testing.T) {
	_, err := FromViper(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "GATEWAY_BASE_URL")
	assert.Contains(t, err.Error(), "GATEWAY_SECRET_KEY")
}

func TestFromViperRejectsRelativeGatewayURL(t *testing.T) {
	v := validViper()
	v.Set("GATEWAY_BASE_URL", "/api/v2")
	_, err := FromViper(v)
	assert.Error(t, err)
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	v := validViper()
	v.Set("DATABASE_DRIVER", "mongodb")
	_, err := FromViper(v)
	assert.Error(t, err)
}

func TestFromViperOverrides(t *testing.T) {
	v := validViper()
	v.Set("SHIPPING_FEE", 75)
	v.Set("TAX_PERCENT", 13)
	v.Set("PUBLIC_BASE_URL", "https://shop.example.com/")
	v.Set("GATEWAY_TIMEOUT", "3s")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, int64(75), cfg.ShippingFee)
	assert.Equal(t, int64(13), cfg.TaxPercent)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "https://shop.example.com/api/payments/gateway/callback", cfg.GatewayReturnURL())
}
