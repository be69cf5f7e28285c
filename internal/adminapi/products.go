package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
	"github.com/vtryon/lensmart/pkg/common"
)

type productPayload struct {
	Title         string   `json:"title"`
	Images        []string `json:"images"`
	Description   string   `json:"description"`
	Brand         string   `json:"brand"`
	CategoryId    int64    `json:"category_id,string"`
	Price         *float64 `json:"price"`
	SalePrice     *float64 `json:"sale_price"`
	StockQuantity *int     `json:"stock_quantity"`
	Status        string   `json:"status"`
	TryOn         *bool    `json:"try_on"`
}

// registerProductRoutes registers catalog product CRUD endpoints. Unlike
// the public listing, the admin listing includes drafts.
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	// Filters: q (title search), category, status
	q := strings.TrimSpace(c.QueryParam("q"))
	status := strings.TrimSpace(c.QueryParam("status"))
	categoryStr := strings.TrimSpace(c.QueryParam("category"))

	// Sorting: field and order
	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":             "id",
		"title":          "title",
		"price":          "price",
		"stock_quantity": "stock_quantity",
		"created_at":     "created_at",
		"updated_at":     "updated_at",
	}
	sortCol, okCol := allowed[sortField]
	if !okCol || sortCol == "" {
		sortCol = "created_at"
	}

	db := GetDB(c).Model(&domain.Product{})
	if q != "" {
		if db.Dialector.Name() == "postgres" {
			db = db.Where("title ILIKE ?", "%"+q+"%")
		} else {
			db = db.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if categoryStr != "" {
		if cid, err := strconv.ParseInt(categoryStr, 10, 64); err == nil {
			db = db.Where("category_id = ?", cid)
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page-1)*pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

func validateProductPayload(payload *productPayload) string {
	payload.Title = strings.TrimSpace(payload.Title)
	if payload.Title == "" {
		return "Title is required"
	}
	if payload.Price == nil || *payload.Price < 0 {
		return "Price is required and must be >= 0"
	}
	if payload.SalePrice != nil && *payload.SalePrice < 0 {
		return "Sale price must be >= 0"
	}
	if payload.StockQuantity != nil && *payload.StockQuantity < 0 {
		return "Stock quantity must be >= 0"
	}
	if payload.Status != "" &&
		payload.Status != domain.ProductStatusDraft &&
		payload.Status != domain.ProductStatusPublished {
		return "Status must be 'draft' or 'published'"
	}
	return ""
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if msg := validateProductPayload(&payload); msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}

	now := time.Now()
	stock := 0
	if payload.StockQuantity != nil {
		stock = *payload.StockQuantity
	}
	p := domain.Product{
		ID:            common.UUIDint64(),
		Title:         payload.Title,
		Images:        payload.Images,
		Description:   payload.Description,
		Brand:         payload.Brand,
		CategoryId:    payload.CategoryId,
		Price:         *payload.Price,
		SalePrice:     payload.SalePrice,
		StockQuantity: stock,
		Status:        common.IfEmptyStr(payload.Status, domain.ProductStatusPublished),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if payload.TryOn != nil {
		p.TryOn = *payload.TryOn
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	auditLog(c, "product.create", p.Title)
	webserver.App().PublishProductChanged()
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}

	// update only provided fields
	if strings.TrimSpace(payload.Title) != "" {
		p.Title = strings.TrimSpace(payload.Title)
	}
	if payload.Images != nil {
		p.Images = payload.Images
	}
	if payload.Description != "" {
		p.Description = payload.Description
	}
	if payload.Brand != "" {
		p.Brand = payload.Brand
	}
	if payload.CategoryId != 0 {
		p.CategoryId = payload.CategoryId
	}
	if payload.Price != nil {
		if *payload.Price < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Price must be >= 0", nil)
		}
		p.Price = *payload.Price
	}
	if payload.SalePrice != nil {
		if *payload.SalePrice < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Sale price must be >= 0", nil)
		}
		p.SalePrice = payload.SalePrice
	}
	if payload.StockQuantity != nil {
		if *payload.StockQuantity < 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Stock quantity must be >= 0", nil)
		}
		p.StockQuantity = *payload.StockQuantity
	}
	if payload.Status != "" {
		if payload.Status != domain.ProductStatusDraft && payload.Status != domain.ProductStatusPublished {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Status must be 'draft' or 'published'", nil)
		}
		p.Status = payload.Status
	}
	if payload.TryOn != nil {
		p.TryOn = *payload.TryOn
	}
	p.UpdatedAt = time.Now()

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	auditLog(c, "product.update", p.Title)
	webserver.App().PublishProductChanged()
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	auditLog(c, "product.delete", strconv.FormatInt(id, 10))
	webserver.App().PublishProductChanged()
	return ok(c, map[string]interface{}{"id": id})
}
