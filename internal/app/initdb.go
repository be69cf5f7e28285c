package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/auth"
	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/pkg/common"
)

func (a *Application) checkSuper() {
	const superEmail = "admin@lensmart.io"
	const defaultPassword = "lensmart"

	var admin domain.User
	err := a.gormDB.Where("email = ?", superEmail).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, herr := auth.HashPassword(defaultPassword)
		if herr != nil {
			zap.L().Error("failed to hash default admin password", zap.Error(herr))
			return
		}
		if err := a.gormDB.Create(&domain.User{
			ID:        common.UUIDint64(),
			FirstName: "Store",
			LastName:  "Admin",
			Email:     superEmail,
			Password:  hashed,
			IsAdmin:   true,
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("email", superEmail))
		}
		return
	case err != nil:
		zap.L().Error("failed to query default admin", zap.Error(err))
		return
	}

	if admin.IsAdmin && strings.TrimSpace(admin.Password) != "" {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
		"is_admin":   true,
	}
	if strings.TrimSpace(admin.Password) == "" {
		hashed, herr := auth.HashPassword(defaultPassword)
		if herr != nil {
			zap.L().Error("failed to hash default admin password", zap.Error(herr))
			return
		}
		updates["password"] = hashed
	}
	if err := a.gormDB.Model(&domain.User{}).Where("id = ?", admin.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair default admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default admin account", zap.String("email", superEmail))
}

type settingSchema struct {
	Key         string
	Default     string
	Description string
}

// defaultSettings seed the sys_config table; values are editable from the
// admin settings panel afterwards.
var defaultSettings = []settingSchema{
	{"storefront.Currency", "USD", "Display currency code"},
	{"storefront.OrdersPerPage", "20", "Admin order listing page size"},
	{"checkout.PaymentMethods", "COD,bank-transfer", "Accepted payment methods"},
	{"checkout.GuestEnabled", "true", "Allow checkout without an account"},
	{"tryon.Enabled", "true", "Enable the browser face try-on overlay"},
	{"tryon.ModelURL", "https://cdn.jsdelivr.net/npm/@vladmandic/face-api/model/", "Face landmark model asset base URL"},
	{"tryon.OverlayScale", "1.12", "Frame overlay width relative to eye distance"},
	{"tryon.OverlayOffsetY", "0.18", "Frame overlay vertical offset relative to eye line"},
	{"audit.RetentionDays", "365", "How long admin audit logs are kept"},
}

func (a *Application) checkSettings() {
	for sortid, schema := range defaultSettings {
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		category := parts[0]
		name := parts[1]

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:     0,
				Sort:   sortid,
				Type:   category,
				Name:   name,
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkCategories seeds the default catalog categories
func (a *Application) checkCategories() {
	defaultCategories := []domain.Category{
		{Name: "Sunglasses", Slug: "sunglasses", Description: "Sun protection frames"},
		{Name: "Eyeglasses", Slug: "eyeglasses", Description: "Prescription-ready frames"},
		{Name: "Accessories", Slug: "accessories", Description: "Cases, cloths and chains"},
	}

	for _, cat := range defaultCategories {
		var count int64
		a.gormDB.Model(&domain.Category{}).Where("name = ?", cat.Name).Count(&count)
		if count == 0 {
			cat.ID = common.UUIDint64()
			cat.CreatedAt = time.Now()
			cat.UpdatedAt = time.Now()
			if err := a.gormDB.Create(&cat).Error; err != nil {
				zap.L().Error("failed to create default category",
					zap.String("name", cat.Name), zap.Error(err))
			} else {
				zap.L().Info("initialized default category", zap.String("name", cat.Name))
			}
		}
	}
}
