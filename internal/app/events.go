package app

import (
	"context"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/pkg/metrics"
)

const (
	EventOrderCreated   = "order.created"
	EventProductChanged = "product.changed"
)

func (a *Application) initEvents() {
	a.bus = EventBus.New()

	if err := a.bus.SubscribeAsync(EventOrderCreated, a.onOrderCreated, false); err != nil {
		zap.L().Error("subscribe order.created failed", zap.Error(err))
	}
	if err := a.bus.SubscribeAsync(EventProductChanged, a.onProductChanged, false); err != nil {
		zap.L().Error("subscribe product.changed failed", zap.Error(err))
	}
}

// PublishOrderCreated is called after a checkout transaction commits
func (a *Application) PublishOrderCreated(orderId int64) {
	a.bus.Publish(EventOrderCreated, orderId)
}

// PublishProductChanged is called after any admin product mutation
func (a *Application) PublishProductChanged() {
	a.bus.Publish(EventProductChanged)
}

func (a *Application) onOrderCreated(orderId int64) {
	metrics.IncrCounter("orders_created_total", 1)

	var ord domain.Order
	if err := a.gormDB.Preload("Items").Where("id = ?", orderId).First(&ord).Error; err != nil {
		zap.L().Warn("order.created: load failed", zap.Int64("order_id", orderId), zap.Error(err))
		return
	}

	to := ord.Guest.Email
	if ord.UserId != nil {
		var buyer domain.User
		if err := a.gormDB.Where("id = ?", *ord.UserId).First(&buyer).Error; err == nil {
			to = buyer.Email
		}
	}
	if a.mailer != nil {
		a.mailer.SendOrderConfirmation(&ord, to)
	}
}

func (a *Application) onProductChanged() {
	if a.catalogCache != nil {
		a.catalogCache.Invalidate(context.Background())
	}
}
