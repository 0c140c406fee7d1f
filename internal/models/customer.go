package models

import "time"

type Customer struct {
	ID             uint `gorm:"primaryKey"`
	BranchID       uint `gorm:"index;not null"`
	Branch         Branch
	Name           string     `gorm:"size:100;not null"`
	Phone          string     `gorm:"size:30;index"`
	BirthDate      *time.Time // doğum günü indirimi için
	LoyaltyLevelID *uint      `gorm:"index"`
	LoyaltyLevel   *LoyaltyLevel
	BonusBalance   float64 `gorm:"not null;default:0"` // ledger toplamından türetilir, cache
	OrdersCount    int64   `gorm:"not null;default:0"`
	TotalSpent     float64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LoyaltyLevel - Sadakat seviyesi (otomatik yüzde indirim + cashback oranı)
type LoyaltyLevel struct {
	ID                      uint `gorm:"primaryKey"`
	BranchID                uint `gorm:"index;not null"`
	Branch                  Branch
	Name                    string  `gorm:"size:100;not null"`
	DiscountPercent         float64 `gorm:"not null;default:0"`
	CashbackPercent         float64 `gorm:"not null;default:0"` // bonus kazanım oranı override
	MinSpent                float64 `gorm:"not null;default:0"` // seviyeye geçiş eşiği
	BirthdayBonus           bool    `gorm:"not null;default:false"`
	BirthdayDiscountPercent float64 `gorm:"not null;default:0"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// LoyaltySetting - Anahtar/değer sadakat ayarları
// (birthday_days_before, birthday_days_after, levels_enabled)
type LoyaltySetting struct {
	ID        uint   `gorm:"primaryKey"`
	BranchID  uint   `gorm:"uniqueIndex:idx_loyalty_setting_key;not null"`
	Key       string `gorm:"size:50;uniqueIndex:idx_loyalty_setting_key;not null"`
	Value     string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BonusSetting - Şube bazlı bonus programı ayarları
type BonusSetting struct {
	ID            uint `gorm:"primaryKey"`
	BranchID      uint `gorm:"uniqueIndex;not null"`
	Enabled       bool    `gorm:"not null;default:false"`
	EarnRate      float64 `gorm:"not null;default:0"` // yüzde: final tutarın %'si bonus yazılır
	SpendRate     float64 `gorm:"not null;default:1"` // 1 bonus = SpendRate TL
	MinEarnAmount float64 `gorm:"not null;default:0"` // bu tutarın altında kazanım yok
	MinSpendStep  float64 `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type BonusTransactionType string

const (
	BonusTxnEarn     BonusTransactionType = "earn"
	BonusTxnSpend    BonusTransactionType = "spend"
	BonusTxnPromo    BonusTransactionType = "promo"
	BonusTxnReferral BonusTransactionType = "referral"
	BonusTxnAdjust   BonusTransactionType = "adjust"
)

// BonusTransaction - Append-only bonus defteri; bakiye satırların toplamıdır
type BonusTransaction struct {
	ID          uint `gorm:"primaryKey"`
	BranchID    uint `gorm:"index;not null"`
	CustomerID  uint `gorm:"index;not null"`
	Customer    Customer
	Type        BonusTransactionType `gorm:"size:20;not null"`
	Amount      float64              `gorm:"not null"` // işaretli: spend negatif yazılır
	OrderID     *uint                `gorm:"index"`
	Description string               `gorm:"size:255"`
	CreatedAt   time.Time
}
