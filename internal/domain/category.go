package domain

import "time"

type Category struct {
	ID          int64     `gorm:"primaryKey" json:"id,string" form:"id"`
	Name        string    `gorm:"uniqueIndex;size:200" json:"name" form:"name"`
	Slug        string    `gorm:"index;size:200" json:"slug" form:"slug"`
	Description string    `gorm:"type:text" json:"description" form:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
