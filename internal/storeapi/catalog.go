package storeapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/catalog"
	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
)

// listingLimit caps one cached catalog page
const listingLimit = 100

func registerCatalogRoutes() {
	webserver.PubGET("/products", listProducts)
	webserver.PubGET("/products/categories/counters", categoryCounters)
	webserver.PubGET("/products/:id", getProduct)
	webserver.PubGET("/categories", listCategories)
	webserver.PubGET("/categories/:id", getCategory)
}

// listProducts serves the published catalog. Each distinct filter set is
// cached; any admin product mutation drops every cached view.
func listProducts(c echo.Context) error {
	ctx := c.Request().Context()

	var categoryId int64
	if v := c.QueryParam("category"); v != "" {
		categoryId, _ = strconv.ParseInt(v, 10, 64)
	}
	inStock := c.QueryParam("inStock") == "true"
	search := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))

	key := catalog.ListingKey(categoryId, inStock, search)
	if products, hit := webserver.App().Catalog().GetListing(ctx, key); hit {
		return ok(c, products)
	}

	query := GetDB(c).Where("status = ?", domain.ProductStatusPublished)
	if categoryId != 0 {
		query = query.Where("category_id = ?", categoryId)
	}
	if inStock {
		query = query.Where("stock_quantity > 0")
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(brand) LIKE ?", like, like)
	}

	var products []domain.Product
	if err := query.Order("created_at DESC").Limit(listingLimit).Find(&products).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products")
	}

	webserver.App().Catalog().PutListing(ctx, key, products)
	return ok(c, products)
}

func getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
	}
	var p domain.Product
	err = GetDB(c).
		Where("id = ? AND status = ?", id, domain.ProductStatusPublished).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product")
	}
	return ok(c, p)
}

func listCategories(c echo.Context) error {
	var categories []domain.Category
	if err := GetDB(c).Order("name").Find(&categories).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories")
	}
	return ok(c, categories)
}

func getCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID")
	}
	var cat domain.Category
	err = GetDB(c).Where("id = ?", id).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query category")
	}
	return ok(c, cat)
}

// categoryCounters reports how many published products each category holds
func categoryCounters(c echo.Context) error {
	type counter struct {
		CategoryId int64 `json:"category_id,string"`
		Count      int64 `json:"count"`
	}
	var counters []counter
	err := GetDB(c).Model(&domain.Product{}).
		Select("category_id, COUNT(*) as count").
		Where("status = ?", domain.ProductStatusPublished).
		Group("category_id").
		Scan(&counters).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count products")
	}
	return ok(c, counters)
}
