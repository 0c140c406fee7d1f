package models

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed" // mutfağa ilk gönderimde
	OrderStatusCooking   OrderStatus = "cooking"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed" // tam ödeme ile
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderItemStatus string

const (
	ItemStatusPending   OrderItemStatus = "pending"
	ItemStatusSaved     OrderItemStatus = "saved" // ön sipariş
	ItemStatusCooking   OrderItemStatus = "cooking"
	ItemStatusReady     OrderItemStatus = "ready"
	ItemStatusServed    OrderItemStatus = "served"
	ItemStatusCancelled OrderItemStatus = "cancelled"
	ItemStatusVoided    OrderItemStatus = "voided"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type PaymentMethod string

const (
	PayMethodCash  PaymentMethod = "cash"
	PayMethodCard  PaymentMethod = "card"
	PayMethodMixed PaymentMethod = "mixed"
	PayMethodBonus PaymentMethod = "bonus" // depozito+bonus tutarın tamamını karşıladığında
)

// AppliedDiscount - Siparişe uygulanmış indirim kaydı.
// Tip bazlı opsiyonel alanlarla tek şekil; jsonb olarak siparişte saklanır.
type AppliedDiscount struct {
	Type        string  `json:"type"` // level | birthday | promotion | promo_code | rounding
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Percent     float64 `json:"percent,omitempty"`
	FixedAmount float64 `json:"fixed_amount,omitempty"`
	MaxDiscount float64 `json:"max_discount,omitempty"`
	Stackable   bool    `json:"stackable"`
	Exclusive   bool    `json:"exclusive"`
	PromotionID uint    `json:"promotion_id,omitempty"`
}

const (
	DiscountTypeLevel     = "level"
	DiscountTypeBirthday  = "birthday"
	DiscountTypePromotion = "promotion"
	DiscountTypePromoCode = "promo_code"
	DiscountTypeRounding  = "rounding"
)

type Order struct {
	ID       uint `gorm:"primaryKey"`
	BranchID uint `gorm:"index;not null"`
	Branch   Branch

	Type          OrderType     `gorm:"size:20;not null;default:'dine_in'"`
	Status        OrderStatus   `gorm:"size:20;not null;default:'new';index"`
	PaymentStatus PaymentStatus `gorm:"size:20;not null;default:'pending';index"`

	TableID        *uint  `gorm:"index"`
	Table          *Table `gorm:"foreignKey:TableID"`
	LinkedTableIDs string `gorm:"type:jsonb;default:'[]'"` // birden fazla masa birleştirilebilir
	GuestsCount    int    `gorm:"not null;default:1"`

	CustomerID    *uint `gorm:"index"`
	Customer      *Customer
	ReservationID *uint `gorm:"index"`

	Subtotal        float64 `gorm:"not null;default:0"`
	DiscountAmount  float64 `gorm:"not null;default:0"`
	DiscountPercent float64 `gorm:"not null;default:0"` // yüzde indirim varsa recompute için saklanır
	DeliveryFee     float64 `gorm:"not null;default:0"`
	FreeDelivery    bool    `gorm:"not null;default:false"`
	Total           float64 `gorm:"not null;default:0"`
	PaidAmount      float64 `gorm:"not null;default:0"` // misafir bazlı kısmi ödemelerin toplamı

	AppliedDiscountsJSON string `gorm:"column:applied_discounts;type:jsonb;default:'[]'"`

	PromoCode     string        `gorm:"size:50"`
	DepositUsed   float64       `gorm:"not null;default:0"`
	BonusUsed     float64       `gorm:"not null;default:0"`
	BonusEarned   float64       `gorm:"not null;default:0"` // fiyatlamada hesaplanır, ödemede deftere işlenir
	PaymentMethod PaymentMethod `gorm:"size:20"`

	Comment     string `gorm:"size:500"`
	WaiterID    *uint
	PaidAt      *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// AppliedDiscounts - jsonb alanı çözümler; bozuk veri boş liste sayılır
func (o *Order) AppliedDiscounts() []AppliedDiscount {
	var list []AppliedDiscount
	if o.AppliedDiscountsJSON != "" {
		_ = json.Unmarshal([]byte(o.AppliedDiscountsJSON), &list)
	}
	return list
}

func (o *Order) SetAppliedDiscounts(list []AppliedDiscount) {
	if list == nil {
		list = []AppliedDiscount{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		o.AppliedDiscountsJSON = "[]"
		return
	}
	o.AppliedDiscountsJSON = string(b)
}

func (o *Order) LinkedTables() []uint { return parseUintList(o.LinkedTableIDs) }

func (o *Order) SetLinkedTables(ids []uint) {
	if ids == nil {
		ids = []uint{}
	}
	b, _ := json.Marshal(ids)
	o.LinkedTableIDs = string(b)
}

func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// OrderItemModifier - Sipariş anındaki modifier anlık görüntüsü (jsonb)
type OrderItemModifier struct {
	ModifierID uint    `json:"modifier_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
}

type OrderItem struct {
	ID      uint `gorm:"primaryKey"`
	OrderID uint `gorm:"index;not null"`

	DishID   uint `gorm:"index;not null"`
	Dish     Dish
	DishName string `gorm:"size:150;not null"` // sipariş anındaki ad (denormalize)

	UnitPrice     float64 `gorm:"not null"` // katalog veya fiyat listesi fiyatı
	Quantity      int     `gorm:"not null;default:1"`
	ModifiersJSON string  `gorm:"column:modifiers;type:jsonb;default:'[]'"`
	LineTotal     float64 `gorm:"not null;default:0"`

	GuestNumber int             `gorm:"not null;default:1"` // misafir bazlı bölüşme için
	Status      OrderItemStatus `gorm:"size:20;not null;default:'pending'"`
	IsGift      bool            `gorm:"not null;default:false"` // hediye satır, tutarı 0
	IsPaid      bool            `gorm:"not null;default:false"`
	PromotionID *uint           // hediyeyi üreten promosyon
	Comment     string          `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *OrderItem) Modifiers() []OrderItemModifier {
	var list []OrderItemModifier
	if i.ModifiersJSON != "" {
		_ = json.Unmarshal([]byte(i.ModifiersJSON), &list)
	}
	return list
}

func (i *OrderItem) SetModifiers(list []OrderItemModifier) {
	if list == nil {
		list = []OrderItemModifier{}
	}
	b, _ := json.Marshal(list)
	i.ModifiersJSON = string(b)
}

func (i *OrderItem) ModifiersPrice() float64 {
	var sum float64
	for _, m := range i.Modifiers() {
		sum += m.Price
	}
	return sum
}

// ComputeLineTotal - line_total = (birim fiyat + modifier toplamı) × adet.
// Hediye satırlar her zaman 0.
func (i *OrderItem) ComputeLineTotal() float64 {
	if i.IsGift {
		return 0
	}
	return (i.UnitPrice + i.ModifiersPrice()) * float64(i.Quantity)
}

func (i *OrderItem) IsCancelled() bool {
	return i.Status == ItemStatusCancelled || i.Status == ItemStatusVoided
}

// Mutable sadece pending/saved durumundayken
func (i *OrderItem) IsEditable() bool {
	return i.Status == ItemStatusPending || i.Status == ItemStatusSaved
}
