package models

import "time"

type ShiftStatus string

const (
	ShiftStatusOpen   ShiftStatus = "open"
	ShiftStatusClosed ShiftStatus = "closed"
)

// CashShift - Kasa vardiyası; ödemeler sadece aynı gün açılmış
// açık bir vardiya varken kabul edilir.
type CashShift struct {
	ID       uint `gorm:"primaryKey"`
	BranchID uint `gorm:"index;not null"`
	Branch   Branch

	Status      ShiftStatus `gorm:"size:10;not null;default:'open';index"`
	OpenedByID  uint        `gorm:"not null"`
	OpenedBy    User        `gorm:"foreignKey:OpenedByID"`
	ClosedByID  *uint
	OpenedAt    time.Time `gorm:"index;not null"`
	ClosedAt    *time.Time
	OpeningCash float64 `gorm:"not null;default:0"`

	// Ödeme yöntemi bazlı biriken toplamlar
	CashTotal    float64 `gorm:"not null;default:0"`
	CardTotal    float64 `gorm:"not null;default:0"`
	BonusTotal   float64 `gorm:"not null;default:0"`
	DepositTotal float64 `gorm:"not null;default:0"`
	RefundTotal  float64 `gorm:"not null;default:0"`
	OrdersCount  int     `gorm:"not null;default:0"`
	RefundsCount int     `gorm:"not null;default:0"`

	// Kapanışta doldurulur
	ExpectedCash float64 `gorm:"not null;default:0"`
	ActualCash   float64 `gorm:"not null;default:0"`
	Difference   float64 `gorm:"not null;default:0"`
	Notes        string  `gorm:"size:500"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type CashOperationType string

const (
	CashOpIncome     CashOperationType = "income"
	CashOpExpense    CashOperationType = "expense"
	CashOpDeposit    CashOperationType = "deposit"
	CashOpWithdrawal CashOperationType = "withdrawal"
)

type CashOperationCategory string

const (
	CashCategoryOrder         CashOperationCategory = "order"
	CashCategoryRefund        CashOperationCategory = "refund"
	CashCategoryDeposit       CashOperationCategory = "deposit"
	CashCategoryDepositRefund CashOperationCategory = "deposit_refund"
	CashCategoryWithdrawal    CashOperationCategory = "withdrawal"
	CashCategoryOther         CashOperationCategory = "other"
)

// CashOperation - Değişmez kasa defteri satırı. Notes alanı denetim için
// yapılandırılmış ürün anlık görüntüsü (JSON) taşır.
type CashOperation struct {
	ID       uint `gorm:"primaryKey"`
	BranchID uint `gorm:"index;not null"`
	ShiftID  uint `gorm:"index;not null"`
	Shift    CashShift `gorm:"foreignKey:ShiftID"`

	Type     CashOperationType     `gorm:"size:20;not null;index"`
	Category CashOperationCategory `gorm:"size:20;not null;index"`
	Amount   float64               `gorm:"not null"`
	Method   PaymentMethod         `gorm:"size:20;not null"`

	OrderID       *uint `gorm:"index"`
	ReservationID *uint `gorm:"index"`
	UserID        uint  `gorm:"not null"`
	Notes         string `gorm:"type:text"`

	CreatedAt time.Time
}
