package pricing

import (
	"testing"
	"time"

	"restoran-pos/internal/loyalty"
	"restoran-pos/internal/models"
	"restoran-pos/internal/promotion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func testSettings() *loyalty.Settings {
	return &loyalty.Settings{
		Bonus: models.BonusSetting{
			Enabled:   true,
			EarnRate:  5,
			SpendRate: 1,
		},
		BirthdayDaysBefore: 3,
		BirthdayDaysAfter:  3,
		LevelsEnabled:      true,
	}
}

func TestCalculate_LevelDiscount(t *testing.T) {
	// 1300 TL sepet, %10 Gold seviye: indirim 130, final 1170
	level := &models.LoyaltyLevel{Name: "Gold", DiscountPercent: 10}
	cu := &models.Customer{LoyaltyLevelID: uintPtr(1)}

	res := calculate(Input{
		Subtotal:  1300,
		OrderType: models.OrderTypeDineIn,
		Now:       time.Now(),
	}, calcDeps{Customer: cu, Level: level, Settings: testSettings()})

	require.Len(t, res.Discounts, 1)
	assert.Equal(t, models.DiscountTypeLevel, res.Discounts[0].Type)
	assert.Equal(t, 130.0, res.Discounts[0].Amount)
	assert.Equal(t, 130.0, res.TotalDiscount)
	assert.Equal(t, 1170.0, res.FinalTotal)
}

func TestCalculate_RoundingHalfUp(t *testing.T) {
	// 999 × %7 = 69.93; kuruşa yuvarlama half-up
	level := &models.LoyaltyLevel{Name: "Silver", DiscountPercent: 7}
	cu := &models.Customer{LoyaltyLevelID: uintPtr(1)}

	res := calculate(Input{Subtotal: 999, OrderType: models.OrderTypeDineIn, Now: time.Now()},
		calcDeps{Customer: cu, Level: level, Settings: testSettings()})

	assert.Equal(t, 69.93, res.TotalDiscount)
	assert.Equal(t, 929.07, res.FinalTotal)
}

func TestCalculate_LevelsDisabledSkipsLevelDiscount(t *testing.T) {
	level := &models.LoyaltyLevel{Name: "Gold", DiscountPercent: 10}
	cu := &models.Customer{LoyaltyLevelID: uintPtr(1)}
	s := testSettings()
	s.LevelsEnabled = false

	res := calculate(Input{Subtotal: 500, Now: time.Now()},
		calcDeps{Customer: cu, Level: level, Settings: s})

	assert.Empty(t, res.Discounts)
	assert.Equal(t, 500.0, res.FinalTotal)
}

func TestCalculate_BirthdayDiscountInWindow(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	bday := time.Date(1990, 6, 17, 0, 0, 0, 0, time.UTC) // 2 gün sonra, pencere ±3

	level := &models.LoyaltyLevel{
		Name:                    "Gold",
		DiscountPercent:         10,
		BirthdayBonus:           true,
		BirthdayDiscountPercent: 15,
	}
	cu := &models.Customer{LoyaltyLevelID: uintPtr(1), BirthDate: &bday}

	res := calculate(Input{Subtotal: 1000, Now: now},
		calcDeps{Customer: cu, Level: level, Settings: testSettings()})

	require.Len(t, res.Discounts, 2)
	assert.Equal(t, models.DiscountTypeLevel, res.Discounts[0].Type)
	assert.Equal(t, models.DiscountTypeBirthday, res.Discounts[1].Type)
	assert.Equal(t, 150.0, res.Discounts[1].Amount)
	assert.Equal(t, 250.0, res.TotalDiscount)
	assert.Equal(t, 750.0, res.FinalTotal)
}

func TestCalculate_BirthdayOutsideWindow(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	bday := time.Date(1990, 6, 25, 0, 0, 0, 0, time.UTC)

	level := &models.LoyaltyLevel{Name: "Gold", BirthdayBonus: true, BirthdayDiscountPercent: 15}
	cu := &models.Customer{LoyaltyLevelID: uintPtr(1), BirthDate: &bday}

	res := calculate(Input{Subtotal: 1000, Now: now},
		calcDeps{Customer: cu, Level: level, Settings: testSettings()})

	assert.Empty(t, res.Discounts)
}

func TestCalculate_AnonymousOrderNoLoyalty(t *testing.T) {
	res := calculate(Input{Subtotal: 800, Now: time.Now()},
		calcDeps{Settings: testSettings()})

	assert.Empty(t, res.Discounts)
	assert.Equal(t, 800.0, res.FinalTotal)
	assert.Zero(t, res.BonusEarned) // müşteri yoksa bonus kazanılmaz
}

func TestCalculate_PromoCodeNotBlockedByExclusiveAutomatic(t *testing.T) {
	auto := models.Promotion{
		ID: 1, Name: "Exclusive oto", Type: models.PromoDiscountPercent,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: true,
		IsExclusive: true, DiscountValue: 10,
	}
	code := models.Promotion{
		ID: 2, Name: "KOD10", Type: models.PromoDiscountFixed,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: false,
		PromoCode: "KOD10", DiscountValue: 50, Stackable: true,
	}

	res := calculate(Input{Subtotal: 1000, PromoCode: "KOD10", Now: time.Now()},
		calcDeps{Settings: testSettings(), Promotions: []models.Promotion{auto}, CodePromo: &code})

	require.Len(t, res.Discounts, 2)
	assert.Equal(t, models.DiscountTypePromotion, res.Discounts[0].Type)
	assert.Equal(t, models.DiscountTypePromoCode, res.Discounts[1].Type)
	assert.Equal(t, 150.0, res.TotalDiscount)
}

func TestCalculate_FinalTotalNeverNegative(t *testing.T) {
	code := models.Promotion{
		ID: 1, Name: "Dev indirim", Type: models.PromoDiscountFixed,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: false,
		PromoCode: "DEV", DiscountValue: 9999,
	}

	res := calculate(Input{Subtotal: 100, PromoCode: "DEV", Now: time.Now()},
		calcDeps{Settings: testSettings(), CodePromo: &code})

	// Sabit indirim kapsam toplamına kırpılır, final 0'ın altına inmez
	assert.Equal(t, 100.0, res.TotalDiscount)
	assert.Equal(t, 0.0, res.FinalTotal)
}

func TestCalculate_DeliveryFeeAndFreeDelivery(t *testing.T) {
	res := calculate(Input{
		Subtotal:    400,
		DeliveryFee: 30,
		OrderType:   models.OrderTypeDelivery,
		Now:         time.Now(),
	}, calcDeps{Settings: testSettings()})
	assert.Equal(t, 430.0, res.PayableTotal)

	free := models.Promotion{
		ID: 1, Name: "Ücretsiz teslimat", Type: models.PromoFreeDelivery,
		Scope: models.ScopeWholeOrder, IsActive: true, IsAutomatic: true, Stackable: true,
	}
	res = calculate(Input{
		Subtotal:    400,
		DeliveryFee: 30,
		OrderType:   models.OrderTypeDelivery,
		Now:         time.Now(),
	}, calcDeps{Settings: testSettings(), Promotions: []models.Promotion{free}})
	assert.True(t, res.FreeDelivery)
	assert.Equal(t, 400.0, res.PayableTotal)
}

func TestCalculate_BonusEarnUsesLevelCashback(t *testing.T) {
	level := &models.LoyaltyLevel{Name: "Gold", CashbackPercent: 8}
	cu := &models.Customer{LoyaltyLevelID: uintPtr(1)}

	res := calculate(Input{Subtotal: 1000, Now: time.Now()},
		calcDeps{Customer: cu, Level: level, Settings: testSettings()})

	// Seviye cashback'i global earn_rate'i ezer: 1000 × %8
	assert.Equal(t, 80.0, res.BonusEarned)
}

// -------------------------------------------------

func TestRecalculateFromApplied_DropsDerivedEntries(t *testing.T) {
	applied := []models.AppliedDiscount{
		{Type: models.DiscountTypeLevel, Amount: 100, Percent: 10},
		{Type: models.DiscountTypeBirthday, Amount: 150, Percent: 15},
		{Type: models.DiscountTypePromotion, Amount: 50, Percent: 5, PromotionID: 7},
		{Type: models.DiscountTypeRounding, Amount: 0.07},
	}

	replayed, total := RecalculateFromApplied(applied, 1000)

	require.Len(t, replayed, 1)
	assert.Equal(t, models.DiscountTypePromotion, replayed[0].Type)
	assert.Equal(t, 50.0, total)
}

func TestRecalculateFromApplied_PercentWithCap(t *testing.T) {
	applied := []models.AppliedDiscount{
		{Type: models.DiscountTypePromoCode, Amount: 200, Percent: 50, MaxDiscount: 200},
	}

	// Subtotal 1000 → 500 ama cap 200
	_, total := RecalculateFromApplied(applied, 1000)
	assert.Equal(t, 200.0, total)

	// Subtotal 300 → %50 = 150, cap devreye girmez
	_, total = RecalculateFromApplied(applied, 300)
	assert.Equal(t, 150.0, total)
}

func TestRecalculateFromApplied_FixedClampedToSubtotal(t *testing.T) {
	applied := []models.AppliedDiscount{
		{Type: models.DiscountTypePromotion, Amount: 100, FixedAmount: 100},
	}

	_, total := RecalculateFromApplied(applied, 60)
	assert.Equal(t, 60.0, total)
}

func TestRecalculateFromApplied_RoundTripStable(t *testing.T) {
	// Aynı subtotal ile tekrar oynatma promosyon tutarlarını birebir üretir
	applied := []models.AppliedDiscount{
		{Type: models.DiscountTypePromotion, Amount: 69.93, Percent: 7, PromotionID: 3},
		{Type: models.DiscountTypePromoCode, Amount: 50, FixedAmount: 50, PromotionID: 4},
	}

	replayed, total := RecalculateFromApplied(applied, 999)

	require.Len(t, replayed, 2)
	assert.Equal(t, 69.93, replayed[0].Amount)
	assert.Equal(t, 50.0, replayed[1].Amount)
	assert.Equal(t, 119.93, total)
}

// -------------------------------------------------

func TestCalculate_ScopedPromotionWithGiftLine(t *testing.T) {
	// Hediye satır promosyon tabanına girmez
	promo := models.Promotion{
		ID: 1, Name: "Pizza %20", Type: models.PromoDiscountPercent,
		Scope: models.ScopeDishes, DishIDs: `[10]`,
		IsActive: true, IsAutomatic: true, Stackable: true, DiscountValue: 20,
	}

	lines := []promotion.Line{
		{DishID: 10, CategoryID: 1, Quantity: 2, LineTotal: 600},
		{DishID: 10, CategoryID: 1, Quantity: 1, LineTotal: 0, IsGift: true},
		{DishID: 20, CategoryID: 2, Quantity: 1, LineTotal: 150},
	}

	res := calculate(Input{Lines: lines, Subtotal: 750, Now: time.Now()},
		calcDeps{Settings: testSettings(), Promotions: []models.Promotion{promo}})

	require.Len(t, res.Discounts, 1)
	assert.Equal(t, 120.0, res.Discounts[0].Amount) // 600 × %20
}
