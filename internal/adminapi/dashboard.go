package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
	"github.com/vtryon/lensmart/pkg/metrics"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard", dashboardOverview)
	webserver.ApiGET("/dashboard/metrics", dashboardMetrics)
}

// dashboardOverview aggregates storefront counters and revenue figures.
// Revenue counts every non-cancelled order.
func dashboardOverview(c echo.Context) error {
	db := GetDB(c)

	var userCount, productCount, orderCount, pendingCount, outOfStock int64
	db.Model(&domain.User{}).Count(&userCount)
	db.Model(&domain.Product{}).Count(&productCount)
	db.Model(&domain.Order{}).Count(&orderCount)
	db.Model(&domain.Order{}).Where("status = ?", domain.OrderStatusPending).Count(&pendingCount)
	db.Model(&domain.Product{}).Where("stock_quantity <= 0").Count(&outOfStock)

	var totals []float64
	if err := db.Model(&domain.Order{}).
		Where("status != ?", domain.OrderStatusCancelled).
		Pluck("total_amount", &totals).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query revenue", err.Error())
	}

	revenue, _ := stats.Sum(totals)
	meanOrder, _ := stats.Mean(totals)
	medianOrder, _ := stats.Median(totals)

	var recent []domain.Order
	db.Preload("Items").Order("created_at DESC").Limit(10).Find(&recent)
	recentViews := resolveOrderViews(c, recent)

	return ok(c, map[string]interface{}{
		"users":              userCount,
		"products":           productCount,
		"orders":             orderCount,
		"orders_pending":     pendingCount,
		"out_of_stock":       outOfStock,
		"revenue":            revenue,
		"mean_order_value":   meanOrder,
		"median_order_value": medianOrder,
		"recent_orders":      recentViews,
	})
}

// dashboardMetrics exposes the sampled system gauges the monitor jobs
// record. start/end are unix seconds; defaults to the last hour.
func dashboardMetrics(c echo.Context) error {
	end := time.Now().Unix()
	start := end - 3600
	if v := c.QueryParam("start"); v != "" {
		if t, err := dateparseUnix(v); err == nil {
			start = t
		}
	}
	if v := c.QueryParam("end"); v != "" {
		if t, err := dateparseUnix(v); err == nil {
			end = t
		}
	}

	names := []string{"system_cpuuse", "system_memuse", "lensmart_cpuuse",
		"lensmart_memuse", "orders_pending", "products_out_of_stock"}
	out := map[string]interface{}{}
	for _, name := range names {
		points, err := metrics.Query(name, start, end)
		if err != nil {
			continue
		}
		out[name] = points
	}
	if v, found := metrics.Latest("orders_created_total"); found {
		out["orders_created_total"] = v
	}
	return ok(c, out)
}

// dateparseUnix accepts a unix-seconds integer or any parseable timestamp
func dateparseUnix(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	t, err := dateparse.ParseLocal(v)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
