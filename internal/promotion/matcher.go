package promotion

import (
	"math"
	"sort"
	"time"

	"restoran-pos/internal/models"
)

// Line - Eşleştirme için sipariş satırı görüntüsü. Hediye ve iptal
// satırlar promosyon tabanına girmez.
type Line struct {
	DishID     uint
	CategoryID uint
	Quantity   int
	LineTotal  float64
	IsGift     bool
	Cancelled  bool
}

type GiftItem struct {
	DishID      uint   `json:"dish_id"`
	Name        string `json:"name"`
	PromotionID uint   `json:"promotion_id"`
}

// Input - Bir hesaplama turunun sipariş bağlamı.
type Input struct {
	Lines          []Line
	Subtotal       float64
	OrderType      models.OrderType
	Customer       *models.Customer // nil = anonim sipariş
	CustomerOrders int64            // müşterinin geçmiş sipariş sayısı
	Now            time.Time

	// UsageCount - promosyonun toplam ve müşteri bazlı kullanım sayısı.
	// nil ise limit kontrolü atlanır (testler için).
	UsageCount func(promotionID uint) (total int64, byCustomer int64)

	// GiftName - hediye yemeğin adını katalogdan çözer; nil olabilir.
	GiftName func(dishID uint) string
}

// Result - Eşleşen promosyonların birikmiş etkisi.
type Result struct {
	Discounts           []models.AppliedDiscount
	GiftItems           []GiftItem
	FreeDelivery        bool
	BonusMultiplier     float64 // eşleşenlerin maksimumu, 0 = yok
	BonusExtra          float64 // sabit bonus eklemeleri
	AppliedPromotionIDs []uint
}

// MatchAutomatic - Otomatik promosyonları priority desc, sort_order asc
// sırasıyla değerlendirir. Exclusive veya stackable=false bir promosyon
// uygulandığında kalanlar atlanır; önceden uygulananlar yerinde kalır.
func MatchAutomatic(promos []models.Promotion, in Input) Result {
	ordered := make([]models.Promotion, 0, len(promos))
	for _, p := range promos {
		if p.IsAutomatic {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	var res Result
	for i := range ordered {
		p := &ordered[i]
		if !Eligible(p, in) {
			continue
		}
		if !applyOne(p, in, &res, models.DiscountTypePromotion) {
			continue
		}
		if p.IsExclusive || !p.Stackable {
			break
		}
	}
	return res
}

// MatchCode - Promosyon kodu promosyonunu uygular. Otomatik promosyonların
// exclusivity kuralı kodu asla bloklamaz; kod tam bir etki üretir.
func MatchCode(p *models.Promotion, in Input) (Result, bool) {
	var res Result
	if p == nil || p.IsAutomatic {
		return res, false
	}
	if !Eligible(p, in) {
		return res, false
	}
	if !applyOne(p, in, &res, models.DiscountTypePromoCode) {
		return res, false
	}
	return res, true
}

// Eligible - Promosyonun uygunluk filtreleri; spec'teki ret kuralları.
func Eligible(p *models.Promotion, in Input) bool {
	if !p.IsActive {
		return false
	}
	if p.StartsAt != nil && in.Now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && in.Now.After(*p.EndsAt) {
		return false
	}
	if in.Subtotal < p.MinOrderAmount {
		return false
	}
	if p.MinItemsCount > 0 && countItems(in.Lines) < p.MinItemsCount {
		return false
	}

	if in.Customer != nil {
		for _, id := range p.ExcludedCustomerList() {
			if id == in.Customer.ID {
				return false
			}
		}
	}

	if levelIDs := p.LoyaltyLevelIDList(); len(levelIDs) > 0 {
		if in.Customer == nil || in.Customer.LoyaltyLevelID == nil {
			return false
		}
		found := false
		for _, id := range levelIDs {
			if id == *in.Customer.LoyaltyLevelID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if p.FirstOrderOnly {
		// Anonim siparişte ilk sipariş olduğu doğrulanamaz
		if in.Customer == nil || in.CustomerOrders > 0 {
			return false
		}
	}

	if types := p.OrderTypeList(); len(types) > 0 {
		found := false
		for _, t := range types {
			if t == string(in.OrderType) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if in.UsageCount != nil && (p.UsageLimit > 0 || p.PerCustomerLimit > 0) {
		total, byCustomer := in.UsageCount(p.ID)
		if p.UsageLimit > 0 && total >= int64(p.UsageLimit) {
			return false
		}
		if p.PerCustomerLimit > 0 && in.Customer != nil && byCustomer >= int64(p.PerCustomerLimit) {
			return false
		}
	}

	// Kombo kuralı: tüm zorunlu yemekler sepette en az 1 adet olmalı
	if p.RequiresAllDishes && p.Scope != models.ScopeWholeOrder {
		qty := quantitiesByDish(in.Lines)
		for _, id := range p.DishIDList() {
			if qty[id] < 1 {
				return false
			}
		}
	}

	return true
}

// applyOne - Tek promosyonun etkisini res'e işler; etki üretmediyse false.
func applyOne(p *models.Promotion, in Input, res *Result, discountType string) bool {
	switch p.Type {
	case models.PromoDiscountPercent:
		base := ApplicableTotal(p, in.Lines, in.Subtotal)
		if base <= 0 || p.DiscountValue <= 0 {
			return false
		}
		amount := round2(base * p.DiscountValue / 100)
		if p.MaxDiscount > 0 && amount > p.MaxDiscount {
			amount = p.MaxDiscount
		}
		res.Discounts = append(res.Discounts, models.AppliedDiscount{
			Type:        discountType,
			Name:        p.Name,
			Amount:      amount,
			Percent:     p.DiscountValue,
			MaxDiscount: p.MaxDiscount,
			Stackable:   p.Stackable,
			Exclusive:   p.IsExclusive,
			PromotionID: p.ID,
		})

	case models.PromoDiscountFixed:
		base := ApplicableTotal(p, in.Lines, in.Subtotal)
		if base <= 0 || p.DiscountValue <= 0 {
			return false
		}
		// Sabit indirim kapsam toplamını asla aşamaz
		amount := math.Min(p.DiscountValue, base)
		res.Discounts = append(res.Discounts, models.AppliedDiscount{
			Type:        discountType,
			Name:        p.Name,
			Amount:      round2(amount),
			FixedAmount: p.DiscountValue,
			Stackable:   p.Stackable,
			Exclusive:   p.IsExclusive,
			PromotionID: p.ID,
		})

	case models.PromoProgressiveDiscount:
		tier, ok := pickTier(p.Tiers(), in.Subtotal)
		if !ok {
			return false
		}
		amount := round2(in.Subtotal * tier.DiscountPercent / 100)
		if amount <= 0 {
			return false
		}
		res.Discounts = append(res.Discounts, models.AppliedDiscount{
			Type:        discountType,
			Name:        p.Name,
			Amount:      amount,
			Percent:     tier.DiscountPercent,
			Stackable:   p.Stackable,
			Exclusive:   p.IsExclusive,
			PromotionID: p.ID,
		})

	case models.PromoFreeDelivery:
		res.FreeDelivery = true

	case models.PromoGift:
		if p.GiftDishID == nil {
			return false
		}
		name := ""
		if in.GiftName != nil {
			name = in.GiftName(*p.GiftDishID)
		}
		res.GiftItems = append(res.GiftItems, GiftItem{
			DishID:      *p.GiftDishID,
			Name:        name,
			PromotionID: p.ID,
		})

	case models.PromoBonus:
		if p.BonusAmount <= 0 {
			return false
		}
		res.BonusExtra += p.BonusAmount

	case models.PromoBonusMultiplier:
		if p.BonusMultiplier <= 0 {
			return false
		}
		if p.BonusMultiplier > res.BonusMultiplier {
			res.BonusMultiplier = p.BonusMultiplier
		}

	default:
		return false
	}

	res.AppliedPromotionIDs = append(res.AppliedPromotionIDs, p.ID)
	return true
}

// ApplicableTotal - Promosyonun kapsamına giren tutar.
// whole_order: subtotal eksi hariç tutulan yemekler.
// dishes/categories: sadece eşleşen satırların toplamı; kombo promosyonda
// tam set sayısı × set birim fiyatı.
func ApplicableTotal(p *models.Promotion, lines []Line, subtotal float64) float64 {
	switch p.Scope {
	case models.ScopeWholeOrder:
		excluded := make(map[uint]bool)
		for _, id := range p.ExcludedDishIDList() {
			excluded[id] = true
		}
		total := subtotal
		for _, l := range lines {
			if l.Cancelled || l.IsGift {
				continue
			}
			if excluded[l.DishID] {
				total -= l.LineTotal
			}
		}
		if total < 0 {
			return 0
		}
		return total

	case models.ScopeDishes:
		wanted := make(map[uint]bool)
		for _, id := range p.DishIDList() {
			wanted[id] = true
		}
		if p.RequiresAllDishes {
			return comboTotal(p.DishIDList(), lines)
		}
		var total float64
		for _, l := range lines {
			if l.Cancelled || l.IsGift {
				continue
			}
			if wanted[l.DishID] {
				total += l.LineTotal
			}
		}
		return total

	case models.ScopeCategories:
		wanted := make(map[uint]bool)
		for _, id := range p.CategoryIDList() {
			wanted[id] = true
		}
		var total float64
		for _, l := range lines {
			if l.Cancelled || l.IsGift {
				continue
			}
			if wanted[l.CategoryID] {
				total += l.LineTotal
			}
		}
		return total
	}
	return 0
}

// comboTotal - Tam set sayısı (zorunlu yemeklerin minimum adedi) çarpı
// set birim fiyatı. Naif satır toplamı değil.
func comboTotal(required []uint, lines []Line) float64 {
	if len(required) == 0 {
		return 0
	}

	qty := make(map[uint]int)
	amount := make(map[uint]float64)
	for _, l := range lines {
		if l.Cancelled || l.IsGift {
			continue
		}
		qty[l.DishID] += l.Quantity
		amount[l.DishID] += l.LineTotal
	}

	combos := math.MaxInt
	var setPrice float64
	for _, id := range required {
		q := qty[id]
		if q < 1 {
			return 0
		}
		if q < combos {
			combos = q
		}
		setPrice += amount[id] / float64(q) // yemeğin birim fiyatı
	}

	return float64(combos) * setPrice
}

func pickTier(tiers []models.ProgressiveTier, orderTotal float64) (models.ProgressiveTier, bool) {
	var best models.ProgressiveTier
	found := false
	for _, t := range tiers {
		if orderTotal >= t.MinAmount && (!found || t.MinAmount > best.MinAmount) {
			best = t
			found = true
		}
	}
	return best, found
}

func countItems(lines []Line) int {
	var n int
	for _, l := range lines {
		if l.Cancelled || l.IsGift {
			continue
		}
		n += l.Quantity
	}
	return n
}

func quantitiesByDish(lines []Line) map[uint]int {
	qty := make(map[uint]int)
	for _, l := range lines {
		if l.Cancelled || l.IsGift {
			continue
		}
		qty[l.DishID] += l.Quantity
	}
	return qty
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
