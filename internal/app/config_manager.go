package app

import (
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/vtryon/lensmart/internal/domain"
)

const settingsCacheTTL = 30 * time.Second

// ConfigManager reads runtime settings from the sys_config table with a
// short-lived in-memory cache so hot paths avoid a query per lookup.
type ConfigManager struct {
	app *Application

	mu       sync.RWMutex
	cache    map[string]string
	cachedAt time.Time
}

func NewConfigManager(app *Application) *ConfigManager {
	return &ConfigManager{app: app, cache: map[string]string{}}
}

func (m *ConfigManager) GetString(category, name string) string {
	return m.lookup(category + "." + name)
}

func (m *ConfigManager) GetInt(category, name string) int {
	return cast.ToInt(m.lookup(category + "." + name))
}

func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.lookup(category + "." + name))
}

func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.lookup(category + "." + name))
}

// GetSection decodes every setting under category into out, keyed by name
func (m *ConfigManager) GetSection(category string, out interface{}) error {
	m.refresh()
	m.mu.RLock()
	section := map[string]interface{}{}
	for key, value := range m.cache {
		if strings.HasPrefix(key, category+".") {
			section[strings.TrimPrefix(key, category+".")] = value
		}
	}
	m.mu.RUnlock()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(section)
}

// Save persists settings; keys are "category.name"
func (m *ConfigManager) Save(settings map[string]interface{}) error {
	for key, value := range settings {
		parts := strings.SplitN(key, ".", 2)
		if len(parts) != 2 {
			return errors.Errorf("invalid setting key %q", key)
		}
		strval := cast.ToString(value)
		res := m.app.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", parts[0], parts[1]).
			Updates(map[string]interface{}{"value": strval, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := m.app.gormDB.Create(&domain.SysConfig{
				Type:  parts[0],
				Name:  parts[1],
				Value: strval,
			}).Error; err != nil {
				return err
			}
		}
	}
	m.invalidate()
	return nil
}

func (m *ConfigManager) lookup(key string) string {
	m.refresh()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache[key]
}

func (m *ConfigManager) refresh() {
	m.mu.RLock()
	fresh := time.Since(m.cachedAt) < settingsCacheTTL && len(m.cache) > 0
	m.mu.RUnlock()
	if fresh {
		return
	}

	var rows []domain.SysConfig
	if err := m.app.gormDB.Find(&rows).Error; err != nil {
		zap.L().Warn("settings refresh failed", zap.Error(err))
		return
	}
	next := make(map[string]string, len(rows))
	for _, row := range rows {
		next[row.Type+"."+row.Name] = row.Value
	}

	m.mu.Lock()
	m.cache = next
	m.cachedAt = time.Now()
	m.mu.Unlock()
}

func (m *ConfigManager) invalidate() {
	m.mu.Lock()
	m.cachedAt = time.Time{}
	m.mu.Unlock()
}
