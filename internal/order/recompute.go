package order

import (
	"math"
	"time"

	"restoran-pos/internal/loyalty"
	"restoran-pos/internal/models"
	"restoran-pos/internal/pricing"
	"restoran-pos/internal/promotion"

	"gorm.io/gorm"
)

// RecomputeSubtotal - Satır toplamlarını tazeler ve sipariş subtotal'ını
// türetir. İptal/void satırlar toplama girmez, hediye satırlar zaten 0.
func RecomputeSubtotal(o *models.Order) {
	var subtotal float64
	for i := range o.Items {
		it := &o.Items[i]
		it.LineTotal = round2(it.ComputeLineTotal())
		if it.IsCancelled() {
			continue
		}
		subtotal += it.LineTotal
	}
	o.Subtotal = round2(subtotal)
}

// ApplyDiscounts - Mevcut promosyon kayıtlarını yeni subtotal ile tekrar
// oynatır, taze türetilen seviye/doğum günü kayıtlarını önüne ekler ve
// toplamları yazar. Aynı girdiyle iki kez çağrılması sonucu değiştirmez.
func ApplyDiscounts(o *models.Order, fresh []models.AppliedDiscount) {
	replayed, _ := pricing.RecalculateFromApplied(o.AppliedDiscounts(), o.Subtotal)

	all := make([]models.AppliedDiscount, 0, len(fresh)+len(replayed))
	all = append(all, fresh...)
	all = append(all, replayed...)

	var sum float64
	for _, d := range all {
		sum += d.Amount
	}

	o.SetAppliedDiscounts(all)
	o.DiscountAmount = round2(sum)
	o.Total = math.Max(0, round2(o.Subtotal-o.DiscountAmount))
	if o.Type == models.OrderTypeDelivery && !o.FreeDelivery {
		o.Total = round2(o.Total + o.DeliveryFee)
	}
}

// Recompute - Kalem değişikliklerinden sonra standart yeniden hesaplama:
// subtotal + dondurulmuş promosyon parametrelerinin tekrar oynatılması +
// güncel müşteri durumundan taze seviye/doğum günü indirimleri.
// Promosyon eşleştirmesi burada TEKRAR koşturulmaz; otomatikler sipariş
// oluşturulurken ve recalculate ucunda bağlanır, sonrasında yapışkandır.
func Recompute(db *gorm.DB, o *models.Order) error {
	RecomputeSubtotal(o)

	fresh, err := freshLoyaltyDiscounts(db, o)
	if err != nil {
		return err
	}
	ApplyDiscounts(o, fresh)
	return nil
}

// Reprice - Tam yeniden fiyatlama: promosyon eşleştirmesi sıfırdan koşar,
// hediye satırlar eşitlenir, toplamlar yazılır. Sipariş oluştururken ve
// recalculate ucunda kullanılır; sıradan kalem düzenlemeleri Recompute ile
// yetinir.
func Reprice(db *gorm.DB, o *models.Order) error {
	RecomputeSubtotal(o)

	res, err := pricing.Calculate(db, o.BranchID, pricing.Input{
		Lines:       pricingLines(db, o.Items),
		Subtotal:    o.Subtotal,
		DeliveryFee: o.DeliveryFee,
		OrderType:   o.Type,
		CustomerID:  o.CustomerID,
		PromoCode:   o.PromoCode,
		Now:         time.Now(),
	})
	if err != nil {
		return err
	}

	o.SetAppliedDiscounts(res.Discounts)
	o.DiscountAmount = res.TotalDiscount
	o.FreeDelivery = res.FreeDelivery
	o.Total = res.PayableTotal
	o.BonusEarned = res.BonusEarned
	syncGiftItems(o, res.GiftItems)
	return nil
}

func freshLoyaltyDiscounts(db *gorm.DB, o *models.Order) ([]models.AppliedDiscount, error) {
	if o.CustomerID == nil {
		return nil, nil
	}

	settings, err := loyalty.LoadSettings(db, o.BranchID)
	if err != nil {
		return nil, err
	}

	var cu models.Customer
	if err := db.Preload("LoyaltyLevel").First(&cu, *o.CustomerID).Error; err != nil {
		return nil, err
	}

	return pricing.LoyaltyDiscounts(settings, &cu, cu.LoyaltyLevel, o.Subtotal, time.Now()), nil
}

// pricingLines - Sipariş kalemlerini eşleştirme motorunun satır görünümüne
// çevirir. Kategori id'si kalem anındaki dish kaydından gelir.
func pricingLines(db *gorm.DB, items []models.OrderItem) []promotion.Line {
	lines := make([]promotion.Line, 0, len(items))
	for i := range items {
		it := &items[i]
		var catID uint
		var d models.Dish
		if err := db.Select("category_id").First(&d, it.DishID).Error; err == nil {
			catID = d.CategoryID
		}
		lines = append(lines, promotion.Line{
			DishID:     it.DishID,
			CategoryID: catID,
			Quantity:   it.Quantity,
			LineTotal:  it.LineTotal,
			IsGift:     it.IsGift,
			Cancelled:  it.IsCancelled(),
		})
	}
	return lines
}

// syncGiftItems - Tam yeniden fiyatlamadan sonra hediye satırları eşitler:
// artık uygulanmayan promosyonların hediyeleri iptal edilir, yeni
// hediyeler 0 TL satır olarak eklenir. Servis edilmiş hediye geri alınmaz.
func syncGiftItems(o *models.Order, gifts []promotion.GiftItem) {
	wanted := make(map[uint]promotion.GiftItem, len(gifts))
	for _, g := range gifts {
		wanted[g.PromotionID] = g
	}

	for i := range o.Items {
		it := &o.Items[i]
		if !it.IsGift || it.PromotionID == nil || it.IsCancelled() {
			continue
		}
		if _, ok := wanted[*it.PromotionID]; ok {
			delete(wanted, *it.PromotionID)
			continue
		}
		if it.IsEditable() {
			it.Status = models.ItemStatusCancelled
		}
	}

	for _, g := range gifts {
		if _, still := wanted[g.PromotionID]; !still {
			continue
		}
		pid := g.PromotionID
		o.Items = append(o.Items, models.OrderItem{
			OrderID:     o.ID,
			DishID:      g.DishID,
			DishName:    g.Name,
			UnitPrice:   0,
			Quantity:    1,
			GuestNumber: 1,
			Status:      models.ItemStatusPending,
			IsGift:      true,
			PromotionID: &pid,
		})
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
