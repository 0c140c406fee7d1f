package models

import "time"

type TableStatus string

const (
	TableStatusFree     TableStatus = "free"
	TableStatusOccupied TableStatus = "occupied"
	TableStatusReserved TableStatus = "reserved"
)

type Table struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index;not null"`
	Branch    Branch
	Name      string      `gorm:"size:50;not null"` // "Masa 5", "Bar 2" vs.
	Zone      string      `gorm:"size:50"`          // salon, teras, bar
	Seats     int         `gorm:"not null;default:2"`
	Status    TableStatus `gorm:"size:20;not null;default:'free';index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
