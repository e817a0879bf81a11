package model

import "time"

// AdminPrompt is a per-company system-prompt override. At most one row per
// company; saving a replacement deletes the prior row in the same transaction.
type AdminPrompt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CompanyID uint      `gorm:"not null;index" json:"company_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
