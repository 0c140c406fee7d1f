package pricing

import (
	"fmt"
	"math"
	"time"

	"restoran-pos/internal/loyalty"
	"restoran-pos/internal/models"
	"restoran-pos/internal/promotion"

	"gorm.io/gorm"
)

// Input - Bir fiyatlama turunun girdisi. Satırlar ve subtotal sipariş
// agregasından gelir; hesaplayıcı yan etkisizdir.
type Input struct {
	Lines       []promotion.Line
	Subtotal    float64
	DeliveryFee float64
	OrderType   models.OrderType
	CustomerID  *uint
	PromoCode   string
	Now         time.Time
}

// Result - İndirim dökümü ve nihai tutarlar.
type Result struct {
	OrderTotal          float64 // indirim öncesi subtotal
	Discounts           []models.AppliedDiscount
	TotalDiscount       float64
	FinalTotal          float64 // max(0, subtotal - toplam indirim)
	PayableTotal        float64 // final + teslimat ücreti (free_delivery sıfırlar)
	BonusEarned         float64
	FreeDelivery        bool
	GiftItems           []promotion.GiftItem
	AppliedPromotionIDs []uint
	BonusMultiplier     float64
	BonusExtra          float64
	Customer            *models.Customer
}

// calcDeps - Saf çekirdeğin dışarıdan beslenen bağımlılıkları.
// Testler bunları DB'siz doldurur.
type calcDeps struct {
	Customer   *models.Customer
	Level      *models.LoyaltyLevel
	Settings   *loyalty.Settings
	Promotions []models.Promotion
	CodePromo  *models.Promotion
	UsageCount func(promotionID uint) (int64, int64)
	GiftName   func(dishID uint) string
}

// Calculate - Hesaplayıcının DB'li giriş noktası: müşteri, seviye, ayarlar
// ve promosyonları yükler, saf çekirdeği çağırır.
func Calculate(db *gorm.DB, branchID uint, in Input) (*Result, error) {
	deps := calcDeps{
		UsageCount: promotion.UsageCounter(db, in.CustomerID),
		GiftName: func(dishID uint) string {
			var d models.Dish
			if err := db.Select("name").First(&d, dishID).Error; err != nil {
				return ""
			}
			return d.Name
		},
	}

	settings, err := loyalty.LoadSettings(db, branchID)
	if err != nil {
		return nil, err
	}
	deps.Settings = settings

	if in.CustomerID != nil {
		var cu models.Customer
		if err := db.Preload("LoyaltyLevel").First(&cu, *in.CustomerID).Error; err != nil {
			return nil, fmt.Errorf("müşteri bulunamadı: %w", err)
		}
		deps.Customer = &cu
		deps.Level = cu.LoyaltyLevel
	}

	if err := db.Where("branch_id = ? AND is_active = ?", branchID, true).
		Find(&deps.Promotions).Error; err != nil {
		return nil, fmt.Errorf("promosyonlar yüklenemedi: %w", err)
	}

	if in.PromoCode != "" {
		p, err := promotion.FindByCode(db, branchID, in.PromoCode)
		if err != nil {
			return nil, err
		}
		deps.CodePromo = p
	}

	return calculate(in, deps), nil
}

// calculate - Saf çekirdek. Sıra spec gereği sabittir: seviye indirimi,
// doğum günü indirimi, otomatik promosyonlar, promosyon kodu. Seviye ve
// doğum günü indirimleri her şeyle üst üste biner; promosyon motorunun
// exclusivity kuralı onları asla filtrelemez.
func calculate(in Input, deps calcDeps) *Result {
	res := &Result{
		OrderTotal: in.Subtotal,
		Discounts:  make([]models.AppliedDiscount, 0, 4),
		GiftItems:  make([]promotion.GiftItem, 0),
		Customer:   deps.Customer,
	}

	settings := deps.Settings
	if settings == nil {
		settings = &loyalty.Settings{LevelsEnabled: true}
	}

	// 1-2. Seviye ve doğum günü indirimleri
	res.Discounts = append(res.Discounts,
		LoyaltyDiscounts(settings, deps.Customer, deps.Level, in.Subtotal, in.Now)...)

	matchIn := promotion.Input{
		Lines:      in.Lines,
		Subtotal:   in.Subtotal,
		OrderType:  in.OrderType,
		Customer:   deps.Customer,
		Now:        in.Now,
		UsageCount: deps.UsageCount,
		GiftName:   deps.GiftName,
	}
	if deps.Customer != nil {
		matchIn.CustomerOrders = deps.Customer.OrdersCount
	}

	// 3. Otomatik promosyonlar
	auto := promotion.MatchAutomatic(deps.Promotions, matchIn)
	mergeMatch(res, auto)

	// 4. Promosyon kodu; otomatiklerin exclusivity kuralı kodu bloklamaz
	if deps.CodePromo != nil {
		if coded, ok := promotion.MatchCode(deps.CodePromo, matchIn); ok {
			mergeMatch(res, coded)
		}
	}

	// 5. Toplamlar
	var sum float64
	for _, d := range res.Discounts {
		sum += d.Amount
	}
	res.TotalDiscount = round2(sum)
	res.FinalTotal = math.Max(0, round2(res.OrderTotal-res.TotalDiscount))

	res.PayableTotal = res.FinalTotal
	if in.OrderType == models.OrderTypeDelivery && !res.FreeDelivery {
		res.PayableTotal = round2(res.PayableTotal + in.DeliveryFee)
	}

	// 6. Bonus kazanımı sadece müşteri bağlıysa
	if deps.Customer != nil {
		res.BonusEarned = loyalty.EarnAmount(settings, res.FinalTotal, deps.Level, res.BonusMultiplier, res.BonusExtra)
	}

	return res
}

// LoyaltyDiscounts - Seviye ve doğum günü indirimlerini güncel müşteri
// durumundan türetir. Hem ilk hesaplamada hem her recompute'ta çağrılır;
// bu kayıtlar asla dondurulmuş halleriyle tekrar oynatılmaz.
func LoyaltyDiscounts(settings *loyalty.Settings, customer *models.Customer, level *models.LoyaltyLevel, subtotal float64, now time.Time) []models.AppliedDiscount {
	if customer == nil || level == nil {
		return nil
	}

	var out []models.AppliedDiscount

	if settings.LevelsEnabled && level.DiscountPercent > 0 {
		out = append(out, models.AppliedDiscount{
			Type:      models.DiscountTypeLevel,
			Name:      level.Name,
			Amount:    round2(subtotal * level.DiscountPercent / 100),
			Percent:   level.DiscountPercent,
			Stackable: true,
		})
	}

	if level.BirthdayBonus && level.BirthdayDiscountPercent > 0 &&
		loyalty.InBirthdayWindow(customer.BirthDate, now, settings.BirthdayDaysBefore, settings.BirthdayDaysAfter) {
		out = append(out, models.AppliedDiscount{
			Type:      models.DiscountTypeBirthday,
			Name:      "Doğum günü indirimi",
			Amount:    round2(subtotal * level.BirthdayDiscountPercent / 100),
			Percent:   level.BirthdayDiscountPercent,
			Stackable: true,
		})
	}

	return out
}

func mergeMatch(res *Result, m promotion.Result) {
	res.Discounts = append(res.Discounts, m.Discounts...)
	res.GiftItems = append(res.GiftItems, m.GiftItems...)
	res.AppliedPromotionIDs = append(res.AppliedPromotionIDs, m.AppliedPromotionIDs...)
	if m.FreeDelivery {
		res.FreeDelivery = true
	}
	if m.BonusMultiplier > res.BonusMultiplier {
		res.BonusMultiplier = m.BonusMultiplier
	}
	res.BonusExtra += m.BonusExtra
}

// RecalculateFromApplied - Sipariş kalemleri değiştikten sonra önceden
// seçilmiş indirimleri yeni subtotal üzerinde tekrar oynatır. level,
// birthday ve rounding kayıtları bilinçli olarak atlanır: bunlar her
// recompute'ta güncel müşteri/seviye durumundan taze türetilir, asla
// dondurulmuş halleriyle tekrar oynatılmaz. Bu filtreleme test edilen
// bir sözleşmedir.
func RecalculateFromApplied(applied []models.AppliedDiscount, subtotal float64) ([]models.AppliedDiscount, float64) {
	replayed := make([]models.AppliedDiscount, 0, len(applied))
	var sum float64

	for _, d := range applied {
		switch d.Type {
		case models.DiscountTypeLevel, models.DiscountTypeBirthday, models.DiscountTypeRounding:
			continue
		}

		nd := d
		switch {
		case d.Percent > 0:
			nd.Amount = round2(subtotal * d.Percent / 100)
			if d.MaxDiscount > 0 && nd.Amount > d.MaxDiscount {
				nd.Amount = d.MaxDiscount
			}
		case d.FixedAmount > 0:
			nd.Amount = round2(math.Min(d.FixedAmount, subtotal))
		default:
			// Parametresiz kayıt: tutar korunur ama subtotal'i aşamaz
			nd.Amount = round2(math.Min(d.Amount, subtotal))
		}

		replayed = append(replayed, nd)
		sum += nd.Amount
	}

	return replayed, round2(sum)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
