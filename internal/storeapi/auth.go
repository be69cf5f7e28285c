package storeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/auth"
	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/webserver"
	"github.com/vtryon/lensmart/pkg/common"
)

func registerAuthRoutes() {
	webserver.PubPOST("/auth/register", register)
	webserver.PubPOST("/auth/login", login)
	webserver.PubPOST("/auth/forgot-password", forgotPassword)
	webserver.PubPOST("/auth/reset-password/:token", resetPassword)
	webserver.AuthGET("/auth/me", currentUser)
}

type registerPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Dob       string `json:"dob"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

func register(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse signup parameters")
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		return fail(c, http.StatusBadRequest, "INVALID_EMAIL", "A valid email is required")
	}
	if len(payload.Password) < auth.MinPasswordLen {
		return fail(c, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 6 characters")
	}

	var dup domain.User
	if err := GetDB(c).Where("email = ?", email).First(&dup).Error; err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_EMAIL", "Email already registered")
	}

	hashed, err := auth.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password")
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
		LastLogin: time.Now(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&u).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create account")
	}

	token, err := auth.IssueToken(webserver.App().Config().Web.Secret, u.ID, u.IsAdmin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token")
	}
	return ok(c, map[string]interface{}{"token": token, "user": u.PublicView()})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters")
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	var u domain.User
	err := GetDB(c).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(u.Password, payload.Password)) {
		return fail(c, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid email or password")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query account")
	}

	GetDB(c).Model(&u).Update("last_login", time.Now())

	token, err := auth.IssueToken(webserver.App().Config().Web.Secret, u.ID, u.IsAdmin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token")
	}
	return ok(c, map[string]interface{}{"token": token, "user": u.PublicView()})
}

// forgotPassword always answers 200 with the same body so the endpoint
// does not reveal which emails exist. Admin accounts never get a mailed
// reset link.
func forgotPassword(c echo.Context) error {
	var payload struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters")
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	response := map[string]interface{}{"message": "If the address exists, a reset link has been sent"}

	var u domain.User
	err := GetDB(c).Where("email = ?", email).First(&u).Error
	if err != nil || u.IsAdmin {
		return ok(c, response)
	}

	plain, hashed, err := auth.NewResetToken()
	if err != nil {
		zap.L().Error("reset token generation failed", zap.Error(err))
		return ok(c, response)
	}
	expire := time.Now().Add(auth.ResetTokenTTL)
	if err := GetDB(c).Model(&u).Updates(map[string]interface{}{
		"reset_token":        hashed,
		"reset_token_expire": expire,
	}).Error; err != nil {
		zap.L().Error("reset token persist failed", zap.Error(err))
		return ok(c, response)
	}

	webserver.App().Mailer().SendPasswordReset(u.Email, plain)
	return ok(c, response)
}

func resetPassword(c echo.Context) error {
	token := c.Param("token")
	var payload struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters")
	}
	if len(payload.Password) < auth.MinPasswordLen {
		return fail(c, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 6 characters")
	}

	hashed := auth.HashResetToken(token)
	var u domain.User
	err := GetDB(c).
		Where("reset_token = ? AND reset_token_expire > ?", hashed, time.Now()).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusBadRequest, "INVALID_TOKEN", "Reset link is invalid or expired")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query account")
	}
	if u.IsAdmin {
		return fail(c, http.StatusBadRequest, "INVALID_TOKEN", "Reset link is invalid or expired")
	}

	newHash, err := auth.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password")
	}
	if err := GetDB(c).Model(&u).Updates(map[string]interface{}{
		"password":           newHash,
		"reset_token":        "",
		"reset_token_expire": nil,
		"updated_at":         time.Now(),
	}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update password")
	}
	return ok(c, map[string]interface{}{"message": "Password updated"})
}

func currentUser(c echo.Context) error {
	claims := webserver.CurrentClaims(c)
	if claims == nil {
		return fail(c, http.StatusUnauthorized, "NOT_AUTHORIZED", "Not authorized")
	}
	var u domain.User
	if err := GetDB(c).Where("id = ?", claims.UserId).First(&u).Error; err != nil {
		return fail(c, http.StatusNotFound, "USER_NOT_FOUND", "Account not found")
	}
	return ok(c, u.PublicView())
}
