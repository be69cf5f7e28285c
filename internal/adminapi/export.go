package adminapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
)

func registerExportRoutes() {
	webserver.ApiGET("/orders/export", exportOrders)
	webserver.ApiGET("/products/export", exportProducts)
}

type orderExportRow struct {
	ID          string  `csv:"order_id"`
	Status      string  `csv:"status"`
	UserId      string  `csv:"user_id"`
	GuestEmail  string  `csv:"guest_email"`
	ItemCount   int     `csv:"item_count"`
	TotalAmount float64 `csv:"total_amount"`
	Payment     string  `csv:"payment_method"`
	City        string  `csv:"ship_city"`
	Country     string  `csv:"ship_country"`
	CreatedAt   string  `csv:"created_at"`
}

func orderExportRows(orders []domain.Order) []orderExportRow {
	rows := make([]orderExportRow, 0, len(orders))
	for _, ord := range orders {
		row := orderExportRow{
			ID:          fmt.Sprintf("%d", ord.ID),
			Status:      ord.Status,
			GuestEmail:  ord.Guest.Email,
			ItemCount:   len(ord.Items),
			TotalAmount: ord.TotalAmount,
			Payment:     ord.PaymentMethod,
			City:        ord.ShippingAddress.City,
			Country:     ord.ShippingAddress.Country,
			CreatedAt:   ord.CreatedAt.Format(time.RFC3339),
		}
		if ord.UserId != nil {
			row.UserId = fmt.Sprintf("%d", *ord.UserId)
		}
		rows = append(rows, row)
	}
	return rows
}

// exportOrders streams the filtered order list as CSV or XLSX.
// Reuses the same from/to/status filters as the listing endpoint.
func exportOrders(c echo.Context) error {
	var orders []domain.Order
	if err := ordersQuery(c).Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	rows := orderExportRows(orders)

	if c.QueryParam("format") == "xlsx" {
		f := excelize.NewFile()
		sheet := "Sheet1"
		headers := []string{"order_id", "status", "user_id", "guest_email",
			"item_count", "total_amount", "payment_method", "ship_city", "ship_country", "created_at"}
		for col, h := range headers {
			f.SetCellValue(sheet, cellAxis(col, 1), h)
		}
		for i, row := range rows {
			values := []interface{}{row.ID, row.Status, row.UserId, row.GuestEmail,
				row.ItemCount, row.TotalAmount, row.Payment, row.City, row.Country, row.CreatedAt}
			for col, v := range values {
				f.SetCellValue(sheet, cellAxis(col, i+2), v)
			}
		}
		auditLog(c, "order.export", fmt.Sprintf("%d rows", len(rows)))
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.xlsx"`)
		c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Response().WriteHeader(http.StatusOK)
		return f.Write(c.Response())
	}

	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to render CSV", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	auditLog(c, "order.export", fmt.Sprintf("%d rows", len(rows)))
	return c.Blob(http.StatusOK, "text/csv", data)
}

// cellAxis builds an A1-style axis for the first 26 columns
func cellAxis(col, row int) string {
	return fmt.Sprintf("%c%d", 'A'+col, row)
}

type productExportRow struct {
	ID       string  `csv:"product_id"`
	Title    string  `csv:"title"`
	Brand    string  `csv:"brand"`
	Category string  `csv:"category_id"`
	Price    float64 `csv:"price"`
	Stock    int     `csv:"stock_quantity"`
	Status   string  `csv:"status"`
}

func exportProducts(c echo.Context) error {
	var products []domain.Product
	if err := GetDB(c).Order("id DESC").Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	rows := make([]productExportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, productExportRow{
			ID:       fmt.Sprintf("%d", p.ID),
			Title:    p.Title,
			Brand:    p.Brand,
			Category: fmt.Sprintf("%d", p.CategoryId),
			Price:    p.EffectivePrice(),
			Stock:    p.StockQuantity,
			Status:   p.Status,
		})
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to render CSV", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	auditLog(c, "product.export", fmt.Sprintf("%d rows", len(rows)))
	return c.Blob(http.StatusOK, "text/csv", data)
}
