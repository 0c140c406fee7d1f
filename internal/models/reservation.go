package models

import (
	"encoding/json"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationSeated    ReservationStatus = "seated"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationNoShow    ReservationStatus = "no_show"
)

type DepositStatus string

const (
	DepositNone        DepositStatus = "none"
	DepositPaid        DepositStatus = "paid"
	DepositTransferred DepositStatus = "transferred" // siparişe aktarıldı, en fazla bir kez
	DepositRefunded    DepositStatus = "refunded"
)

type Reservation struct {
	ID       uint `gorm:"primaryKey"`
	BranchID uint `gorm:"index;not null"`
	Branch   Branch

	GuestName  string `gorm:"size:100;not null"`
	GuestPhone string `gorm:"size:30"`
	CustomerID *uint  `gorm:"index"`
	Customer   *Customer

	TableIDs    string `gorm:"type:jsonb;default:'[]'"` // birden fazla masa tutulabilir
	GuestsCount int    `gorm:"not null;default:2"`
	StartsAt    time.Time `gorm:"index;not null"`
	EndsAt      time.Time `gorm:"not null"`

	DepositAmount float64       `gorm:"not null;default:0"`
	DepositStatus DepositStatus `gorm:"size:20;not null;default:'none'"`

	Status  ReservationStatus `gorm:"size:20;not null;default:'pending';index"`
	Comment string            `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Reservation) TableIDList() []uint { return parseUintList(r.TableIDs) }

func (r *Reservation) SetTableIDs(ids []uint) {
	if ids == nil {
		ids = []uint{}
	}
	b, _ := json.Marshal(ids)
	r.TableIDs = string(b)
}

func (r *Reservation) IsTerminal() bool {
	switch r.Status {
	case ReservationCompleted, ReservationCancelled, ReservationNoShow:
		return true
	}
	return false
}
