package promotion

import (
	"testing"
	"time"

	"restoran-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInput(subtotal float64, lines ...Line) Input {
	return Input{
		Lines:     lines,
		Subtotal:  subtotal,
		OrderType: models.OrderTypeDineIn,
		Now:       time.Now(),
	}
}

func TestMatchAutomatic_PercentWithMaxDiscount(t *testing.T) {
	// 1000 TL sepet, %50 indirim ama max_discount 200
	promo := models.Promotion{
		ID: 1, Name: "Yarı yarıya", Type: models.PromoDiscountPercent,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: true,
		Stackable: true, DiscountValue: 50, MaxDiscount: 200,
	}

	res := MatchAutomatic([]models.Promotion{promo}, baseInput(1000))

	require.Len(t, res.Discounts, 1)
	assert.Equal(t, 200.0, res.Discounts[0].Amount)
	assert.Equal(t, 200.0, res.Discounts[0].MaxDiscount)
}

func TestMatchAutomatic_ComboUsesCompleteSets(t *testing.T) {
	// Kombo: 3 pizza (500) + 2 kola (150). Tam set = min(3,2) = 2.
	// Taban = 2 × (500 + 150) = 1300, naif 1800 değil.
	promo := models.Promotion{
		ID: 1, Name: "Pizza+Kola", Type: models.PromoDiscountPercent,
		Scope: models.ScopeDishes, DishIDs: `[10,20]`, RequiresAllDishes: true,
		IsActive: true, IsAutomatic: true, Stackable: true, DiscountValue: 20,
	}

	lines := []Line{
		{DishID: 10, Quantity: 3, LineTotal: 1500},
		{DishID: 20, Quantity: 2, LineTotal: 300},
	}

	res := MatchAutomatic([]models.Promotion{promo}, baseInput(1800, lines...))

	require.Len(t, res.Discounts, 1)
	assert.Equal(t, 260.0, res.Discounts[0].Amount) // 1300 × %20
}

func TestMatchAutomatic_ComboRejectsIncompleteSet(t *testing.T) {
	promo := models.Promotion{
		ID: 1, Name: "Pizza+Kola", Type: models.PromoDiscountPercent,
		Scope: models.ScopeDishes, DishIDs: `[10,20]`, RequiresAllDishes: true,
		IsActive: true, IsAutomatic: true, Stackable: true, DiscountValue: 20,
	}

	lines := []Line{{DishID: 10, Quantity: 3, LineTotal: 1500}} // kola yok

	res := MatchAutomatic([]models.Promotion{promo}, baseInput(1500, lines...))
	assert.Empty(t, res.Discounts)
}

func TestMatchAutomatic_ExclusiveStopsLaterPromotions(t *testing.T) {
	exclusive := models.Promotion{
		ID: 1, Name: "Exclusive", Type: models.PromoDiscountPercent,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: true,
		IsExclusive: true, Priority: 10, DiscountValue: 15,
	}
	later := models.Promotion{
		ID: 2, Name: "Sıradan", Type: models.PromoDiscountPercent,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: true,
		Stackable: true, Priority: 5, DiscountValue: 10,
	}

	res := MatchAutomatic([]models.Promotion{later, exclusive}, baseInput(1000))

	require.Len(t, res.Discounts, 1)
	assert.Equal(t, uint(1), res.Discounts[0].PromotionID)
	assert.Equal(t, 150.0, res.Discounts[0].Amount)
}

func TestMatchAutomatic_NonStackableAlsoStops(t *testing.T) {
	first := models.Promotion{
		ID: 1, Name: "Tekil", Type: models.PromoDiscountPercent,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: true,
		Stackable: false, Priority: 10, DiscountValue: 10,
	}
	second := models.Promotion{
		ID: 2, Name: "İkinci", Type: models.PromoDiscountPercent,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: true,
		Stackable: true, Priority: 5, DiscountValue: 5,
	}

	res := MatchAutomatic([]models.Promotion{first, second}, baseInput(1000))

	require.Len(t, res.Discounts, 1)
	assert.Equal(t, uint(1), res.Discounts[0].PromotionID)
}

func TestMatchAutomatic_PriorityThenSortOrder(t *testing.T) {
	a := models.Promotion{
		ID: 1, Name: "A", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true, Priority: 5, SortOrder: 2, DiscountValue: 5,
	}
	b := models.Promotion{
		ID: 2, Name: "B", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true, Priority: 5, SortOrder: 1, DiscountValue: 5,
	}
	c := models.Promotion{
		ID: 3, Name: "C", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true, Priority: 9, SortOrder: 9, DiscountValue: 5,
	}

	res := MatchAutomatic([]models.Promotion{a, b, c}, baseInput(1000))

	require.Len(t, res.Discounts, 3)
	assert.Equal(t, uint(3), res.Discounts[0].PromotionID)
	assert.Equal(t, uint(2), res.Discounts[1].PromotionID)
	assert.Equal(t, uint(1), res.Discounts[2].PromotionID)
}

func TestEligible_Filters(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	base := models.Promotion{
		ID: 1, Name: "P", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true, DiscountValue: 10,
	}

	tests := []struct {
		name string
		mod  func(p *models.Promotion)
		in   Input
		want bool
	}{
		{"aktif ve penceresiz", func(p *models.Promotion) {}, baseInput(100), true},
		{"pasif", func(p *models.Promotion) { p.IsActive = false }, baseInput(100), false},
		{"henüz başlamadı", func(p *models.Promotion) { p.StartsAt = &future }, Input{Subtotal: 100, Now: now}, false},
		{"süresi doldu", func(p *models.Promotion) { p.EndsAt = &past }, Input{Subtotal: 100, Now: now}, false},
		{"min tutarın altında", func(p *models.Promotion) { p.MinOrderAmount = 500 }, baseInput(100), false},
		{"min tutar eşit", func(p *models.Promotion) { p.MinOrderAmount = 500 }, baseInput(500), true},
		{
			"min adet yetersiz",
			func(p *models.Promotion) { p.MinItemsCount = 3 },
			baseInput(500, Line{DishID: 1, Quantity: 2, LineTotal: 500}),
			false,
		},
		{
			"sipariş tipi uyuşmuyor",
			func(p *models.Promotion) { p.OrderTypes = `["delivery"]` },
			baseInput(500),
			false,
		},
		{
			"ilk sipariş anonimde reddedilir",
			func(p *models.Promotion) { p.FirstOrderOnly = true },
			baseInput(500),
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mod(&p)
			if tc.in.Now.IsZero() {
				tc.in.Now = now
			}
			assert.Equal(t, tc.want, Eligible(&p, tc.in))
		})
	}
}

func TestEligible_FirstOrderOnlyWithCustomer(t *testing.T) {
	p := models.Promotion{
		ID: 1, Name: "Hoşgeldin", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, FirstOrderOnly: true, DiscountValue: 10,
	}
	cu := &models.Customer{}

	in := baseInput(100)
	in.Customer = cu
	in.CustomerOrders = 0
	assert.True(t, Eligible(&p, in))

	in.CustomerOrders = 1
	assert.False(t, Eligible(&p, in))
}

func TestEligible_UsageLimits(t *testing.T) {
	p := models.Promotion{
		ID: 1, Name: "Limitli", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, DiscountValue: 10, UsageLimit: 10, PerCustomerLimit: 2,
	}
	cu := &models.Customer{}

	in := baseInput(100)
	in.Customer = cu

	in.UsageCount = func(uint) (int64, int64) { return 10, 0 }
	assert.False(t, Eligible(&p, in), "toplam limit dolu")

	in.UsageCount = func(uint) (int64, int64) { return 5, 2 }
	assert.False(t, Eligible(&p, in), "müşteri limiti dolu")

	in.UsageCount = func(uint) (int64, int64) { return 5, 1 }
	assert.True(t, Eligible(&p, in))
}

func TestEligible_LoyaltyLevelFilter(t *testing.T) {
	p := models.Promotion{
		ID: 1, Name: "Gold özel", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, DiscountValue: 10, LoyaltyLevelIDs: `[3]`,
	}

	in := baseInput(100)
	assert.False(t, Eligible(&p, in), "anonim müşteri seviye filtresini geçemez")

	lvl := uint(3)
	in.Customer = &models.Customer{LoyaltyLevelID: &lvl}
	assert.True(t, Eligible(&p, in))

	other := uint(2)
	in.Customer = &models.Customer{LoyaltyLevelID: &other}
	assert.False(t, Eligible(&p, in))
}

func TestMatchCode_IgnoresAutomaticFlag(t *testing.T) {
	auto := models.Promotion{
		ID: 1, Name: "Oto", Type: models.PromoDiscountPercent, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, DiscountValue: 10,
	}
	_, ok := MatchCode(&auto, baseInput(100))
	assert.False(t, ok, "otomatik promosyon kod olarak uygulanamaz")

	code := auto
	code.IsAutomatic = false
	res, ok := MatchCode(&code, baseInput(100))
	require.True(t, ok)
	require.Len(t, res.Discounts, 1)
	assert.Equal(t, models.DiscountTypePromoCode, res.Discounts[0].Type)
}

func TestApplyOne_ProgressiveTiers(t *testing.T) {
	p := models.Promotion{
		ID: 1, Name: "Kademeli", Type: models.PromoProgressiveDiscount, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true,
		ProgressiveTiers: `[{"min_amount":500,"discount_percent":5},{"min_amount":1000,"discount_percent":10}]`,
	}

	res := MatchAutomatic([]models.Promotion{p}, baseInput(1200))
	require.Len(t, res.Discounts, 1)
	assert.Equal(t, 120.0, res.Discounts[0].Amount) // en yüksek uygun basamak %10

	res = MatchAutomatic([]models.Promotion{p}, baseInput(700))
	require.Len(t, res.Discounts, 1)
	assert.Equal(t, 35.0, res.Discounts[0].Amount)

	res = MatchAutomatic([]models.Promotion{p}, baseInput(300))
	assert.Empty(t, res.Discounts) // basamak altı, etki yok
}

func TestApplyOne_GiftAndBonusTypes(t *testing.T) {
	dish := uint(42)
	gift := models.Promotion{
		ID: 1, Name: "Tatlı hediye", Type: models.PromoGift, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true, GiftDishID: &dish,
	}
	multiplier := models.Promotion{
		ID: 2, Name: "2x bonus", Type: models.PromoBonusMultiplier, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true, BonusMultiplier: 2,
	}
	extra := models.Promotion{
		ID: 3, Name: "+50 bonus", Type: models.PromoBonus, Scope: models.ScopeWholeOrder,
		IsActive: true, IsAutomatic: true, Stackable: true, BonusAmount: 50,
	}

	in := baseInput(1000)
	in.GiftName = func(id uint) string { return "Baklava" }

	res := MatchAutomatic([]models.Promotion{gift, multiplier, extra}, in)

	assert.Empty(t, res.Discounts) // bu tipler tutar indirimi üretmez
	require.Len(t, res.GiftItems, 1)
	assert.Equal(t, "Baklava", res.GiftItems[0].Name)
	assert.Equal(t, dish, res.GiftItems[0].DishID)
	assert.Equal(t, 2.0, res.BonusMultiplier)
	assert.Equal(t, 50.0, res.BonusExtra)
	assert.Len(t, res.AppliedPromotionIDs, 3)
}

func TestApplicableTotal_WholeOrderWithExclusions(t *testing.T) {
	p := models.Promotion{
		Scope: models.ScopeWholeOrder, ExcludedDishIDs: `[5]`,
	}
	lines := []Line{
		{DishID: 5, Quantity: 1, LineTotal: 200},
		{DishID: 6, Quantity: 2, LineTotal: 300},
	}

	assert.Equal(t, 300.0, ApplicableTotal(&p, lines, 500))
}

func TestApplicableTotal_CategoriesScope(t *testing.T) {
	p := models.Promotion{Scope: models.ScopeCategories, CategoryIDs: `[2]`}
	lines := []Line{
		{DishID: 1, CategoryID: 1, Quantity: 1, LineTotal: 100},
		{DishID: 2, CategoryID: 2, Quantity: 1, LineTotal: 250},
		{DishID: 3, CategoryID: 2, Quantity: 1, LineTotal: 150, Cancelled: true},
	}

	assert.Equal(t, 250.0, ApplicableTotal(&p, lines, 500))
}

func TestFixedDiscountClampedToScopeTotal(t *testing.T) {
	p := models.Promotion{
		ID: 1, Name: "Sabit 300", Type: models.PromoDiscountFixed,
		Scope: models.ScopeDishes, DishIDs: `[10]`,
		IsActive: true, IsAutomatic: true, Stackable: true, DiscountValue: 300,
	}
	lines := []Line{{DishID: 10, Quantity: 1, LineTotal: 180}}

	res := MatchAutomatic([]models.Promotion{p}, baseInput(180, lines...))

	require.Len(t, res.Discounts, 1)
	assert.Equal(t, 180.0, res.Discounts[0].Amount)
}
