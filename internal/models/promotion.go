package models

import (
	"encoding/json"
	"time"
)

type PromotionType string

const (
	PromoDiscountPercent     PromotionType = "discount_percent"
	PromoDiscountFixed       PromotionType = "discount_fixed"
	PromoProgressiveDiscount PromotionType = "progressive_discount"
	PromoFreeDelivery        PromotionType = "free_delivery"
	PromoGift                PromotionType = "gift"
	PromoBonus               PromotionType = "bonus"
	PromoBonusMultiplier     PromotionType = "bonus_multiplier"
)

type PromotionScope string

const (
	ScopeWholeOrder PromotionScope = "whole_order"
	ScopeDishes     PromotionScope = "dishes"
	ScopeCategories PromotionScope = "categories"
)

// ProgressiveTier - Kademeli indirim basamağı (min tutar -> yüzde)
type ProgressiveTier struct {
	MinAmount       float64 `json:"min_amount"`
	DiscountPercent float64 `json:"discount_percent"`
}

type Promotion struct {
	ID       uint `gorm:"primaryKey"`
	BranchID uint `gorm:"index;not null"`
	Branch   Branch
	Name     string        `gorm:"size:150;not null"`
	Type     PromotionType `gorm:"size:30;not null"`

	// Kapsam: whole_order | dishes | categories
	Scope             PromotionScope `gorm:"size:20;not null;default:'whole_order'"`
	DishIDs           string         `gorm:"type:jsonb;default:'[]'"` // kapsam/kombo ürünleri
	CategoryIDs       string         `gorm:"type:jsonb;default:'[]'"`
	ExcludedDishIDs   string         `gorm:"type:jsonb;default:'[]'"` // whole_order için hariç tutulanlar
	RequiresAllDishes bool           `gorm:"not null;default:false"`  // kombo: tüm ürünler sepette olmalı

	// Uygunluk filtreleri
	IsActive            bool       `gorm:"not null;default:true"`
	IsAutomatic         bool       `gorm:"not null;default:true"` // false = promosyon kodu ile
	PromoCode           string     `gorm:"size:50;index"`
	StartsAt            *time.Time `gorm:"index"`
	EndsAt              *time.Time `gorm:"index"`
	MinOrderAmount      float64    `gorm:"not null;default:0"`
	MinItemsCount       int        `gorm:"not null;default:0"`
	FirstOrderOnly      bool       `gorm:"not null;default:false"`
	LoyaltyLevelIDs     string     `gorm:"type:jsonb;default:'[]'"` // boş = tüm seviyeler
	ExcludedCustomerIDs string     `gorm:"type:jsonb;default:'[]'"`
	OrderTypes          string     `gorm:"type:jsonb;default:'[]'"` // boş = tüm sipariş tipleri

	// Üst üste binme
	Stackable   bool `gorm:"not null;default:true"`
	IsExclusive bool `gorm:"not null;default:false"`
	Priority    int  `gorm:"not null;default:0"` // yüksek önce değerlendirilir
	SortOrder   int  `gorm:"not null;default:0"`

	// Kullanım limitleri (0 = limitsiz)
	UsageLimit       int `gorm:"not null;default:0"`
	PerCustomerLimit int `gorm:"not null;default:0"`

	// Tipe özel alanlar
	DiscountValue    float64 `gorm:"not null;default:0"`
	MaxDiscount      float64 `gorm:"not null;default:0"` // 0 = limitsiz
	ProgressiveTiers string  `gorm:"type:jsonb;default:'[]'"`
	GiftDishID       *uint
	BonusMultiplier  float64 `gorm:"not null;default:0"` // bonus_multiplier tipi için
	BonusAmount      float64 `gorm:"not null;default:0"` // bonus tipi için sabit bonus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// jsonb alanlar için çözümleme yardımcıları; bozuk veri boş liste sayılır

func parseUintList(s string) []uint {
	var ids []uint
	if s == "" {
		return ids
	}
	_ = json.Unmarshal([]byte(s), &ids)
	return ids
}

func parseStringList(s string) []string {
	var vals []string
	if s == "" {
		return vals
	}
	_ = json.Unmarshal([]byte(s), &vals)
	return vals
}

func (p *Promotion) DishIDList() []uint { return parseUintList(p.DishIDs) }

func (p *Promotion) CategoryIDList() []uint { return parseUintList(p.CategoryIDs) }

func (p *Promotion) ExcludedDishIDList() []uint { return parseUintList(p.ExcludedDishIDs) }

func (p *Promotion) LoyaltyLevelIDList() []uint { return parseUintList(p.LoyaltyLevelIDs) }

func (p *Promotion) ExcludedCustomerList() []uint { return parseUintList(p.ExcludedCustomerIDs) }

func (p *Promotion) OrderTypeList() []string { return parseStringList(p.OrderTypes) }

func (p *Promotion) Tiers() []ProgressiveTier {
	var tiers []ProgressiveTier
	if p.ProgressiveTiers != "" {
		_ = json.Unmarshal([]byte(p.ProgressiveTiers), &tiers)
	}
	return tiers
}

// PromotionUsage - Limit takibi için append-only kullanım kaydı
type PromotionUsage struct {
	ID             uint `gorm:"primaryKey"`
	BranchID       uint `gorm:"index;not null"`
	PromotionID    uint `gorm:"index;not null"`
	Promotion      Promotion
	CustomerID     *uint `gorm:"index"`
	OrderID        uint  `gorm:"index;not null"`
	DiscountAmount float64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
}
