package settlement

import (
	"testing"
	"time"

	"restoran-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePayment_PlainCash(t *testing.T) {
	r, perr := resolvePayment(500, 0, 0, 0, models.PayMethodCash)

	require.Nil(t, perr)
	assert.Equal(t, 500.0, r.Amount)
	assert.Equal(t, 500.0, r.CashDue)
	assert.Equal(t, models.PayMethodCash, r.Method)
}

func TestResolvePayment_CardKeepsRequestedMethod(t *testing.T) {
	r, perr := resolvePayment(500, 0, 0, 0, models.PayMethodCard)

	require.Nil(t, perr)
	assert.Equal(t, models.PayMethodCard, r.Method)
}

func TestResolvePayment_DepositCoversAll(t *testing.T) {
	// Depozito+bonus tutarın tamamını karşılıyorsa yöntem bonus, kasa hareketi yok
	r, perr := resolvePayment(300, 500, 0, 0, models.PayMethodCash)

	require.Nil(t, perr)
	assert.Equal(t, 300.0, r.DepositUsed) // kalan tutara kırpılır
	assert.Equal(t, 0.0, r.CashDue)
	assert.Equal(t, models.PayMethodBonus, r.Method)
}

func TestResolvePayment_PartialDepositIsMixed(t *testing.T) {
	r, perr := resolvePayment(1000, 300, 0, 0, models.PayMethodCash)

	require.Nil(t, perr)
	assert.Equal(t, 300.0, r.DepositUsed)
	assert.Equal(t, 700.0, r.CashDue)
	assert.Equal(t, models.PayMethodMixed, r.Method)
}

func TestResolvePayment_BonusClampedToNeed(t *testing.T) {
	// 200 bonus istenir ama depozito sonrası sadece 150 gerekir
	r, perr := resolvePayment(450, 300, 200, 1000, models.PayMethodCash)

	require.Nil(t, perr)
	assert.Equal(t, 300.0, r.DepositUsed)
	assert.Equal(t, 150.0, r.BonusUsed)
	assert.Equal(t, 0.0, r.CashDue)
	assert.Equal(t, models.PayMethodBonus, r.Method)
}

func TestResolvePayment_BonusInsufficient(t *testing.T) {
	_, perr := resolvePayment(500, 0, 200, 150, models.PayMethodCash)

	require.NotNil(t, perr)
	assert.Equal(t, ErrBonusInsufficient, perr.Code)
}

func TestResolvePayment_BonusPlusCashIsMixed(t *testing.T) {
	r, perr := resolvePayment(500, 0, 200, 200, models.PayMethodCash)

	require.Nil(t, perr)
	assert.Equal(t, 200.0, r.BonusUsed)
	assert.Equal(t, 300.0, r.CashDue)
	assert.Equal(t, models.PayMethodMixed, r.Method)
}

func TestResolvePayment_ZeroRemainingSettlesWithoutCash(t *testing.T) {
	// %100 indirimli sipariş: kalan sıfır olsa da ödeme geçerlidir,
	// kasa hareketi doğmadan bonus yöntemiyle kapanır
	r, perr := resolvePayment(0, 0, 0, 0, models.PayMethodCash)

	require.Nil(t, perr)
	assert.Equal(t, 0.0, r.Amount)
	assert.Equal(t, 0.0, r.CashDue)
	assert.Equal(t, models.PayMethodBonus, r.Method)
}

func TestResolvePayment_MixedKeepsRequestedMethod(t *testing.T) {
	r, perr := resolvePayment(500, 0, 0, 0, models.PayMethodMixed)

	require.Nil(t, perr)
	assert.Equal(t, 500.0, r.CashDue)
	assert.Equal(t, models.PayMethodMixed, r.Method)
}

func TestResolvePayment_CentRounding(t *testing.T) {
	r, perr := resolvePayment(929.07, 300, 100.555, 500, models.PayMethodCash)

	require.Nil(t, perr)
	assert.Equal(t, 300.0, r.DepositUsed)
	assert.Equal(t, 100.56, r.BonusUsed)
	assert.Equal(t, 528.51, r.CashDue)
}

// -------------------------------------------------

func TestBusinessDay(t *testing.T) {
	loc := time.UTC

	// Gece 02:00, iş günü 06:00'da başlıyor: önceki güne sayılır
	night := time.Date(2026, 8, 31, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc), businessDay(night, 6))

	morning := time.Date(2026, 8, 31, 9, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, loc), businessDay(morning, 6))

	// startHour 0: takvim günü ile aynı
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, loc), businessDay(night, 0))
}

func TestBusinessDay_ShiftSpansMidnight(t *testing.T) {
	loc := time.UTC
	opened := time.Date(2026, 8, 30, 18, 0, 0, 0, loc)
	payment := time.Date(2026, 8, 31, 1, 30, 0, 0, loc)

	// Vardiya 18:00'de açıldı, ödeme gece 01:30'da: aynı iş günü
	assert.True(t, businessDay(opened, 6).Equal(businessDay(payment, 6)))

	// Ertesi gün öğlen: artık bayat vardiya
	nextNoon := time.Date(2026, 8, 31, 12, 0, 0, 0, loc)
	assert.False(t, businessDay(opened, 6).Equal(businessDay(nextNoon, 6)))
}

func TestItemsSnapshot(t *testing.T) {
	items := []*models.OrderItem{
		{DishName: "Adana", Quantity: 2, LineTotal: 500},
		{DishName: "Ayran", Quantity: 2, LineTotal: 60},
	}

	s := itemsSnapshot(items)
	assert.JSONEq(t, `[{"dish":"Adana","quantity":2,"total":500},{"dish":"Ayran","quantity":2,"total":60}]`, s)
}

func TestPaymentErrorImplementsError(t *testing.T) {
	var err error = &PaymentError{Code: ErrNoOpenShift, Message: "Açık kasa vardiyası yok"}
	assert.Equal(t, "Açık kasa vardiyası yok", err.Error())
}

// -------------------------------------------------

func planOrder(total float64, lineTotals ...float64) *models.Order {
	o := &models.Order{ID: 9, Total: total}
	for i, lt := range lineTotals {
		o.Items = append(o.Items, models.OrderItem{
			ID:          uint(i + 1),
			DishName:    "Kalem",
			Quantity:    1,
			LineTotal:   lt,
			Status:      models.ItemStatusServed,
			GuestNumber: 1,
		})
	}
	return o
}

func TestPlanSettlement_DepositAndBonusCoverTotal(t *testing.T) {
	// Depozito 200 + bonus 100 toplam 300'ü kapatıyor: gelir hareketi
	// doğmaz, yöntem bonus, sipariş tamamlanır
	o := planOrder(300, 300)
	shift := &models.CashShift{ID: 5}

	p, err := planSettlement(o, PayRequest{BonusUsed: 100}, 200, 500, shift, 1, 7)

	require.NoError(t, err)
	assert.Equal(t, 200.0, p.res.DepositUsed)
	assert.Equal(t, 100.0, p.res.BonusUsed)
	assert.Equal(t, 0.0, p.res.CashDue)
	assert.Equal(t, models.PayMethodBonus, p.res.Method)
	assert.True(t, p.transferDeposit)
	assert.Empty(t, p.ops) // kasa defterine satır yazılmaz
	assert.True(t, p.completed)
	assert.Equal(t, 300.0, p.paidAmount)

	assert.Equal(t, 100.0, p.shiftUpdates["bonus_total"])
	assert.Equal(t, 200.0, p.shiftUpdates["deposit_total"])
	assert.NotContains(t, p.shiftUpdates, "cash_total")
	assert.NotContains(t, p.shiftUpdates, "card_total")
	assert.Equal(t, 1, p.shiftUpdates["orders_count"])
}

func TestPlanSettlement_DepositExcessRefundedAsExpense(t *testing.T) {
	o := planOrder(300, 300)
	shift := &models.CashShift{ID: 5}

	p, err := planSettlement(o, PayRequest{}, 500, 0, shift, 1, 7)

	require.NoError(t, err)
	assert.Equal(t, 300.0, p.res.DepositUsed)
	assert.True(t, p.transferDeposit)
	require.Len(t, p.ops, 1)
	assert.Equal(t, models.CashOpExpense, p.ops[0].Type)
	assert.Equal(t, models.CashCategoryDepositRefund, p.ops[0].Category)
	assert.Equal(t, 200.0, p.ops[0].Amount)
}

func TestPlanSettlement_DepositTransferredOnlyOnce(t *testing.T) {
	// İlk ödemede depozito aktarılır ve rezervasyon transferred olur;
	// sonraki denemede aktarılabilir depozito sıfırdır ve aktarım planlanmaz
	o := planOrder(300, 300)
	shift := &models.CashShift{ID: 5}

	first, err := planSettlement(o, PayRequest{}, 300, 0, shift, 1, 7)
	require.NoError(t, err)
	assert.True(t, first.transferDeposit)

	o.PaidAmount = first.paidAmount
	o.Items[0].IsPaid = true

	second, err := planSettlement(o, PayRequest{}, 0, 0, shift, 1, 7)
	require.NoError(t, err)
	assert.False(t, second.transferDeposit)
	assert.Empty(t, second.ops)
}

func TestPlanSettlement_MixedSplitPostsTwoOperations(t *testing.T) {
	o := planOrder(500, 500)
	shift := &models.CashShift{ID: 5}

	p, err := planSettlement(o, PayRequest{Method: "mixed", CashAmount: 200, CardAmount: 300}, 0, 0, shift, 1, 7)

	require.NoError(t, err)
	assert.Equal(t, models.PayMethodMixed, p.res.Method)
	require.Len(t, p.ops, 2)
	assert.Equal(t, models.CashOpIncome, p.ops[0].Type)
	assert.Equal(t, models.PayMethodCash, p.ops[0].Method)
	assert.Equal(t, 200.0, p.ops[0].Amount)
	assert.Equal(t, models.PayMethodCard, p.ops[1].Method)
	assert.Equal(t, 300.0, p.ops[1].Amount)

	assert.Equal(t, 200.0, p.shiftUpdates["cash_total"])
	assert.Equal(t, 300.0, p.shiftUpdates["card_total"])
	assert.True(t, p.completed)
}

func TestPlanSettlement_MixedSplitMustCoverRemainder(t *testing.T) {
	o := planOrder(500, 500)
	shift := &models.CashShift{ID: 5}

	_, err := planSettlement(o, PayRequest{Method: "mixed", CashAmount: 100, CardAmount: 100}, 0, 0, shift, 1, 7)

	var perr *PaymentError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrInsufficientFunds, perr.Code)
}

func TestPlanSettlement_ZeroTotalOrderCompletes(t *testing.T) {
	// Tamamı indirimle sıfırlanmış sipariş tahsil edilebilir olmalı
	o := planOrder(0, 0)
	shift := &models.CashShift{ID: 5}

	p, err := planSettlement(o, PayRequest{Method: "cash"}, 0, 0, shift, 1, 7)

	require.NoError(t, err)
	assert.Equal(t, models.PayMethodBonus, p.res.Method)
	assert.Empty(t, p.ops)
	assert.True(t, p.completed)
	assert.Equal(t, 0.0, p.paidAmount)
}

func TestPlanSettlement_GuestSubsetDoesNotComplete(t *testing.T) {
	o := planOrder(300, 100, 200)
	o.Items[1].GuestNumber = 2
	shift := &models.CashShift{ID: 5}

	p, err := planSettlement(o, PayRequest{GuestNumbers: []int{1}}, 0, 0, shift, 1, 7)

	require.NoError(t, err)
	require.Len(t, p.targets, 1)
	assert.Equal(t, 100.0, p.res.Amount)
	assert.False(t, p.completed)
	require.Len(t, p.ops, 1)
	assert.Equal(t, 100.0, p.ops[0].Amount)
}
