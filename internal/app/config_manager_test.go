package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vtryon/lensmart/config"
	"github.com/vtryon/lensmart/internal/domain"
)

func newSettingsTestApp(t *testing.T) *Application {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.SysConfig{}))

	a := NewApplication(config.DefaultAppConfig)
	a.OverrideDB(db)
	a.configManager = NewConfigManager(a)
	return a
}

func TestConfigManagerLookup(t *testing.T) {
	a := newSettingsTestApp(t)
	require.NoError(t, a.SaveSettings(map[string]interface{}{
		"checkout.GuestEnabled":    true,
		"storefront.OrdersPerPage": 25,
		"tryon.OverlayScale":       "1.12",
		"storefront.Currency":      "EUR",
	}))

	m := a.ConfigMgr()
	assert.True(t, m.GetBool("checkout", "GuestEnabled"))
	assert.Equal(t, 25, m.GetInt("storefront", "OrdersPerPage"))
	assert.Equal(t, "EUR", m.GetString("storefront", "Currency"))
	assert.Equal(t, "", m.GetString("storefront", "Missing"))
}

func TestConfigManagerSaveUpdatesExisting(t *testing.T) {
	a := newSettingsTestApp(t)
	require.NoError(t, a.SaveSettings(map[string]interface{}{"storefront.Currency": "USD"}))
	require.NoError(t, a.SaveSettings(map[string]interface{}{"storefront.Currency": "GBP"}))

	var rows []domain.SysConfig
	require.NoError(t, a.DB().Where("type = ? AND name = ?", "storefront", "Currency").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "GBP", rows[0].Value)

	assert.Equal(t, "GBP", a.GetSettingsStringValue("storefront", "Currency"))
}

func TestConfigManagerSaveRejectsBadKey(t *testing.T) {
	a := newSettingsTestApp(t)
	assert.Error(t, a.SaveSettings(map[string]interface{}{"nodot": "x"}))
}

func TestConfigManagerGetSection(t *testing.T) {
	a := newSettingsTestApp(t)
	require.NoError(t, a.SaveSettings(map[string]interface{}{
		"tryon.Enabled":        "true",
		"tryon.ModelURL":       "https://cdn.example.com/models/",
		"tryon.OverlayScale":   "1.12",
		"tryon.OverlayOffsetY": "0.18",
	}))

	var cfg struct {
		Enabled        bool    `mapstructure:"Enabled"`
		ModelURL       string  `mapstructure:"ModelURL"`
		OverlayScale   float64 `mapstructure:"OverlayScale"`
		OverlayOffsetY float64 `mapstructure:"OverlayOffsetY"`
	}
	require.NoError(t, a.ConfigMgr().GetSection("tryon", &cfg))
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://cdn.example.com/models/", cfg.ModelURL)
	assert.InDelta(t, 1.12, cfg.OverlayScale, 0.0001)
	assert.InDelta(t, 0.18, cfg.OverlayOffsetY, 0.0001)
}
