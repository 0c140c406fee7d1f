package order

import (
	"testing"

	"restoran-pos/internal/models"
	"restoran-pos/internal/promotion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeSubtotal(t *testing.T) {
	o := &models.Order{
		Items: []models.OrderItem{
			{UnitPrice: 100, Quantity: 2},
			{UnitPrice: 50, Quantity: 1, Status: models.ItemStatusCancelled},
			{UnitPrice: 80, Quantity: 1, IsGift: true}, // hediye, tutar 0
			{UnitPrice: 75.5, Quantity: 3},
		},
	}

	RecomputeSubtotal(o)

	assert.Equal(t, 200.0, o.Items[0].LineTotal)
	assert.Equal(t, 0.0, o.Items[2].LineTotal)
	assert.Equal(t, 426.5, o.Subtotal) // 200 + 226.50; iptal satır dahil değil
}

func TestRecomputeSubtotal_ModifiersInLineTotal(t *testing.T) {
	it := models.OrderItem{UnitPrice: 100, Quantity: 2}
	it.SetModifiers([]models.OrderItemModifier{
		{ModifierID: 1, Name: "Ekstra peynir", Price: 15},
	})
	o := &models.Order{Items: []models.OrderItem{it}}

	RecomputeSubtotal(o)

	assert.Equal(t, 230.0, o.Subtotal) // (100+15)×2
}

func TestApplyDiscounts_ReplaysFrozenPromotions(t *testing.T) {
	o := &models.Order{
		Items: []models.OrderItem{{UnitPrice: 500, Quantity: 2}},
	}
	o.SetAppliedDiscounts([]models.AppliedDiscount{
		{Type: models.DiscountTypeLevel, Amount: 999, Percent: 10}, // atılır, taze gelir
		{Type: models.DiscountTypePromotion, Amount: 50, Percent: 5, PromotionID: 3},
	})

	RecomputeSubtotal(o)
	fresh := []models.AppliedDiscount{
		{Type: models.DiscountTypeLevel, Name: "Gold", Amount: 100, Percent: 10, Stackable: true},
	}
	ApplyDiscounts(o, fresh)

	list := o.AppliedDiscounts()
	require.Len(t, list, 2)
	assert.Equal(t, models.DiscountTypeLevel, list[0].Type)
	assert.Equal(t, 100.0, list[0].Amount)
	assert.Equal(t, models.DiscountTypePromotion, list[1].Type)
	assert.Equal(t, 50.0, list[1].Amount) // 1000 × %5
	assert.Equal(t, 150.0, o.DiscountAmount)
	assert.Equal(t, 850.0, o.Total)
}

func TestApplyDiscounts_Idempotent(t *testing.T) {
	o := &models.Order{
		Items: []models.OrderItem{{UnitPrice: 333, Quantity: 3}},
	}
	o.SetAppliedDiscounts([]models.AppliedDiscount{
		{Type: models.DiscountTypePromotion, Amount: 69.93, Percent: 7, PromotionID: 1},
	})

	RecomputeSubtotal(o)
	ApplyDiscounts(o, nil)
	first := o.Total
	firstJSON := o.AppliedDiscountsJSON

	RecomputeSubtotal(o)
	ApplyDiscounts(o, nil)

	assert.Equal(t, first, o.Total)
	assert.Equal(t, firstJSON, o.AppliedDiscountsJSON)
	assert.Equal(t, 69.93, o.DiscountAmount) // 999 × %7
	assert.Equal(t, 929.07, o.Total)
}

func TestApplyDiscounts_DeliveryFee(t *testing.T) {
	o := &models.Order{
		Type:        models.OrderTypeDelivery,
		DeliveryFee: 30,
		Items:       []models.OrderItem{{UnitPrice: 400, Quantity: 1}},
	}

	RecomputeSubtotal(o)
	ApplyDiscounts(o, nil)
	assert.Equal(t, 430.0, o.Total)

	o.FreeDelivery = true
	RecomputeSubtotal(o)
	ApplyDiscounts(o, nil)
	assert.Equal(t, 400.0, o.Total)
}

func TestSyncGiftItems(t *testing.T) {
	pid := uint(7)
	oldPid := uint(8)
	o := &models.Order{
		ID: 1,
		Items: []models.OrderItem{
			{UnitPrice: 500, Quantity: 1},
			{DishID: 42, IsGift: true, PromotionID: &oldPid, Status: models.ItemStatusPending, Quantity: 1},
		},
	}

	syncGiftItems(o, []promotion.GiftItem{{DishID: 99, Name: "Baklava", PromotionID: pid}})

	require.Len(t, o.Items, 3)
	// Eski promosyonun hediyesi iptal edildi
	assert.Equal(t, models.ItemStatusCancelled, o.Items[1].Status)
	// Yeni hediye 0 TL satır olarak eklendi
	added := o.Items[2]
	assert.True(t, added.IsGift)
	assert.Equal(t, uint(99), added.DishID)
	assert.Equal(t, "Baklava", added.DishName)
	assert.Equal(t, 0.0, added.UnitPrice)
	require.NotNil(t, added.PromotionID)
	assert.Equal(t, pid, *added.PromotionID)
}

func TestSyncGiftItems_KeepsStillAppliedGift(t *testing.T) {
	pid := uint(7)
	o := &models.Order{
		Items: []models.OrderItem{
			{DishID: 42, IsGift: true, PromotionID: &pid, Status: models.ItemStatusServed, Quantity: 1},
		},
	}

	syncGiftItems(o, []promotion.GiftItem{{DishID: 42, Name: "Tatlı", PromotionID: pid}})

	require.Len(t, o.Items, 1)
	assert.Equal(t, models.ItemStatusServed, o.Items[0].Status)
}

func TestOrderTransitions(t *testing.T) {
	assert.True(t, orderTransitionAllowed(models.OrderStatusNew, models.OrderStatusConfirmed))
	assert.True(t, orderTransitionAllowed(models.OrderStatusCooking, models.OrderStatusReady))
	assert.True(t, orderTransitionAllowed(models.OrderStatusServed, models.OrderStatusCancelled))

	assert.False(t, orderTransitionAllowed(models.OrderStatusNew, models.OrderStatusReady))
	assert.False(t, orderTransitionAllowed(models.OrderStatusServed, models.OrderStatusCompleted))
	assert.False(t, orderTransitionAllowed(models.OrderStatusCompleted, models.OrderStatusCancelled))
	assert.False(t, orderTransitionAllowed(models.OrderStatusCancelled, models.OrderStatusNew))
}

func TestItemTransitions(t *testing.T) {
	assert.True(t, itemTransitionAllowed(models.ItemStatusSaved, models.ItemStatusPending))
	assert.True(t, itemTransitionAllowed(models.ItemStatusPending, models.ItemStatusCooking))
	assert.True(t, itemTransitionAllowed(models.ItemStatusCooking, models.ItemStatusVoided))
	assert.True(t, itemTransitionAllowed(models.ItemStatusReady, models.ItemStatusServed))

	assert.False(t, itemTransitionAllowed(models.ItemStatusPending, models.ItemStatusServed))
	assert.False(t, itemTransitionAllowed(models.ItemStatusServed, models.ItemStatusCancelled))
	assert.False(t, itemTransitionAllowed(models.ItemStatusCooking, models.ItemStatusCancelled))
}
