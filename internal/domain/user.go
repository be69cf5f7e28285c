package domain

import (
	"strings"
	"time"
)

// User is a storefront account. Admin accounts share the table and are
// flagged by IsAdmin; the public signup path never sets the flag.
type User struct {
	ID        int64  `gorm:"primaryKey" json:"id,string" form:"id"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Dob       string `gorm:"size:32" json:"dob" form:"dob"`
	Gender    string `gorm:"size:16" json:"gender" form:"gender"`
	Email     string `gorm:"uniqueIndex;size:255" json:"email" form:"email"`
	Phone     string `gorm:"size:64" json:"phone" form:"phone"`
	Password  string `json:"-" form:"-"`
	IsAdmin   bool   `gorm:"index" json:"is_admin"`

	// Password reset: sha256 hex of the mailed token plus its expiry.
	ResetToken       string     `gorm:"index;size:64" json:"-"`
	ResetTokenExpire *time.Time `json:"-"`

	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicView strips credential fields for API responses
func (u User) PublicView() map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"dob":        u.Dob,
		"gender":     u.Gender,
		"email":      u.Email,
		"phone":      u.Phone,
		"is_admin":   u.IsAdmin,
		"created_at": u.CreatedAt,
	}
}

// ContactView is the buyer summary attached to order responses
func (u User) ContactView() OwnerContact {
	return OwnerContact{
		Name:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		Email: u.Email,
		Phone: u.Phone,
	}
}
