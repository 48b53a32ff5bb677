package models

import "time"

// LoginHistory is one successful login of a user.
type LoginHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	IPAddress string    `json:"ip_address" gorm:"size:64"`
	Device    string    `json:"device" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
}
