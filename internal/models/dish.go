package models

import "time"

type DishCategory struct {
	ID        uint   `gorm:"primaryKey"`
	BranchID  uint   `gorm:"index;not null"`
	Branch    Branch
	Name      string `gorm:"size:100;not null"`
	SortOrder int    `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Dish struct {
	ID          uint `gorm:"primaryKey"`
	BranchID    uint `gorm:"index;not null"`
	Branch      Branch
	CategoryID  uint `gorm:"index;not null"`
	Category    DishCategory
	Name        string  `gorm:"size:150;not null"`
	Price       float64 `gorm:"not null"` // liste fiyatı (fiyat listesi override edebilir)
	Unit        string  `gorm:"size:20"`  // porsiyon, adet, gram vs.
	IsAvailable bool    `gorm:"not null;default:true"` // false = stop listede
	SortOrder   int     `gorm:"default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Modifiers []DishModifier `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE"`
}

// DishModifier - Ürüne eklenebilen opsiyon (ekstra peynir, az pişmiş vs.)
type DishModifier struct {
	ID        uint `gorm:"primaryKey"`
	DishID    uint `gorm:"index;not null"`
	Name      string  `gorm:"size:100;not null"`
	Price     float64 `gorm:"not null;default:0"` // fiyat farkı, 0 olabilir
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PriceList - Şube bazlı fiyat listesi (örn. teras, paket servis)
type PriceList struct {
	ID        uint `gorm:"primaryKey"`
	BranchID  uint `gorm:"index;not null"`
	Branch    Branch
	Name      string `gorm:"size:100;not null"`
	IsActive  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []PriceListItem `gorm:"foreignKey:PriceListID;constraint:OnDelete:CASCADE"`
}

type PriceListItem struct {
	ID          uint `gorm:"primaryKey"`
	PriceListID uint `gorm:"uniqueIndex:idx_price_list_dish;not null"`
	DishID      uint `gorm:"uniqueIndex:idx_price_list_dish;not null"`
	Price       float64 `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
