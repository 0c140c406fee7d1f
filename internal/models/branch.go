package models

import "time"

type Branch struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:50"` // Opsiyonel telefon
	// Paket servis varsayılan ücreti (free_delivery promosyonu sıfırlar)
	DeliveryFee float64 `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Users  []User
	Tables []Table
}
