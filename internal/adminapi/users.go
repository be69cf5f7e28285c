package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/auth"
	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
	"github.com/vtryon/lensmart/pkg/common"
)

type userPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Dob       string `json:"dob"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	IsAdmin   *bool  `json:"is_admin"`
}

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers)
	webserver.ApiGET("/users/:id", getUser)
	webserver.ApiPOST("/users", createUser)
	webserver.ApiPUT("/users/:id", updateUser)
	webserver.ApiDELETE("/users/:id", deleteUser)
}

func listUsers(c echo.Context) error {
	page, pageSize := parsePagination(c)

	base := GetDB(c).Model(&domain.User{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		base = base.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	if admin := c.QueryParam("admin"); admin != "" {
		base = base.Where("is_admin = ?", admin == "true")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}

	var users []domain.User
	if err := base.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query users", err.Error())
	}

	views := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		views = append(views, u.PublicView())
	}
	return paged(c, views, total, page, pageSize)
}

func getUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", id).First(&u).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}
	return ok(c, u.PublicView())
}

func createUser(c echo.Context) error {
	var payload userPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user parameters", nil)
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		return fail(c, http.StatusBadRequest, "INVALID_EMAIL", "A valid email is required", nil)
	}
	if len(payload.Password) < auth.MinPasswordLen {
		return fail(c, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 6 characters", nil)
	}

	var dup domain.User
	if err := GetDB(c).Where("email = ?", email).First(&dup).Error; err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_EMAIL", "Email already registered", nil)
	}

	hashed, err := auth.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
	}

	u := domain.User{
		ID:        common.UUIDint64(),
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Dob:       payload.Dob,
		Gender:    payload.Gender,
		Email:     email,
		Phone:     payload.Phone,
		Password:  hashed,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if payload.IsAdmin != nil {
		u.IsAdmin = *payload.IsAdmin
	}
	if err := GetDB(c).Create(&u).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err.Error())
	}
	auditLog(c, "user.create", email)
	return ok(c, u.PublicView())
}

func updateUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	var payload userPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse user parameters", nil)
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", id).First(&u).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}

	updates := map[string]interface{}{}
	if payload.FirstName != "" {
		updates["first_name"] = payload.FirstName
	}
	if payload.LastName != "" {
		updates["last_name"] = payload.LastName
	}
	if payload.Dob != "" {
		updates["dob"] = payload.Dob
	}
	if payload.Gender != "" {
		updates["gender"] = payload.Gender
	}
	if payload.Phone != "" {
		updates["phone"] = payload.Phone
	}
	if payload.Password != "" {
		if len(payload.Password) < auth.MinPasswordLen {
			return fail(c, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 6 characters", nil)
		}
		hashed, err := auth.HashPassword(payload.Password)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
		}
		updates["password"] = hashed
	}
	if payload.IsAdmin != nil {
		claims := webserver.CurrentClaims(c)
		if claims != nil && claims.UserId == id && !*payload.IsAdmin {
			return fail(c, http.StatusBadRequest, "SELF_DEMOTE", "Cannot revoke your own admin role", nil)
		}
		updates["is_admin"] = *payload.IsAdmin
	}
	updates["updated_at"] = time.Now()
	if err := GetDB(c).Model(&u).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user", err.Error())
	}
	GetDB(c).Where("id = ?", id).First(&u)
	auditLog(c, "user.update", u.Email)
	return ok(c, u.PublicView())
}

func deleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID", nil)
	}
	claims := webserver.CurrentClaims(c)
	if claims != nil && claims.UserId == id {
		return fail(c, http.StatusBadRequest, "SELF_DELETE", "Cannot delete your own account", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.User{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete user", err.Error())
	}
	auditLog(c, "user.delete", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}
