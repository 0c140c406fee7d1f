package promotion

import (
	"encoding/json"
	"strings"
	"time"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
)

type PromotionRequest struct {
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	Scope             string   `json:"scope"`
	DishIDs           []uint   `json:"dish_ids"`
	CategoryIDs       []uint   `json:"category_ids"`
	ExcludedDishIDs   []uint   `json:"excluded_dish_ids"`
	RequiresAllDishes bool     `json:"requires_all_dishes"`
	IsActive          *bool    `json:"is_active"`
	IsAutomatic       *bool    `json:"is_automatic"`
	PromoCode         string   `json:"promo_code"`
	StartsAt          *string  `json:"starts_at"` // "2025-12-01"
	EndsAt            *string  `json:"ends_at"`
	MinOrderAmount    float64  `json:"min_order_amount"`
	MinItemsCount     int      `json:"min_items_count"`
	FirstOrderOnly    bool     `json:"first_order_only"`
	LoyaltyLevelIDs   []uint   `json:"loyalty_level_ids"`
	ExcludedCustomers []uint   `json:"excluded_customer_ids"`
	OrderTypes        []string `json:"order_types"`
	Stackable         *bool    `json:"stackable"`
	IsExclusive       bool     `json:"is_exclusive"`
	Priority          int      `json:"priority"`
	SortOrder         int      `json:"sort_order"`
	UsageLimit        int      `json:"usage_limit"`
	PerCustomerLimit  int      `json:"per_customer_limit"`
	DiscountValue     float64  `json:"discount_value"`
	MaxDiscount       float64  `json:"max_discount"`
	ProgressiveTiers  []models.ProgressiveTier `json:"progressive_tiers"`
	GiftDishID        *uint    `json:"gift_dish_id"`
	BonusMultiplier   float64  `json:"bonus_multiplier"`
	BonusAmount       float64  `json:"bonus_amount"`
	BranchID          *uint    `json:"branch_id"`
}

func validPromotionType(t string) bool {
	switch models.PromotionType(t) {
	case models.PromoDiscountPercent, models.PromoDiscountFixed, models.PromoProgressiveDiscount,
		models.PromoFreeDelivery, models.PromoGift, models.PromoBonus, models.PromoBonusMultiplier:
		return true
	}
	return false
}

func validScope(s string) bool {
	switch models.PromotionScope(s) {
	case models.ScopeWholeOrder, models.ScopeDishes, models.ScopeCategories:
		return true
	}
	return false
}

func marshalList(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func fillPromotion(p *models.Promotion, body *PromotionRequest) error {
	p.Name = strings.TrimSpace(body.Name)
	p.Type = models.PromotionType(body.Type)
	p.Scope = models.PromotionScope(body.Scope)
	if body.Scope == "" {
		p.Scope = models.ScopeWholeOrder
	}
	p.DishIDs = marshalList(body.DishIDs)
	p.CategoryIDs = marshalList(body.CategoryIDs)
	p.ExcludedDishIDs = marshalList(body.ExcludedDishIDs)
	p.RequiresAllDishes = body.RequiresAllDishes
	if body.IsActive != nil {
		p.IsActive = *body.IsActive
	} else {
		p.IsActive = true
	}
	if body.IsAutomatic != nil {
		p.IsAutomatic = *body.IsAutomatic
	} else {
		p.IsAutomatic = true
	}
	p.PromoCode = strings.TrimSpace(body.PromoCode)
	if !p.IsAutomatic && p.PromoCode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Kod ile tetiklenen promosyon için promo_code zorunlu")
	}

	if body.StartsAt != nil && *body.StartsAt != "" {
		d, err := time.Parse("2006-01-02", *body.StartsAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "starts_at formatı 'YYYY-MM-DD' olmalı")
		}
		p.StartsAt = &d
	}
	if body.EndsAt != nil && *body.EndsAt != "" {
		d, err := time.Parse("2006-01-02", *body.EndsAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "ends_at formatı 'YYYY-MM-DD' olmalı")
		}
		// Gün sonuna kadar geçerli
		end := d.Add(24*time.Hour - time.Second)
		p.EndsAt = &end
	}

	p.MinOrderAmount = body.MinOrderAmount
	p.MinItemsCount = body.MinItemsCount
	p.FirstOrderOnly = body.FirstOrderOnly
	p.LoyaltyLevelIDs = marshalList(body.LoyaltyLevelIDs)
	p.ExcludedCustomerIDs = marshalList(body.ExcludedCustomers)
	p.OrderTypes = marshalList(body.OrderTypes)
	if body.Stackable != nil {
		p.Stackable = *body.Stackable
	} else {
		p.Stackable = true
	}
	p.IsExclusive = body.IsExclusive
	p.Priority = body.Priority
	p.SortOrder = body.SortOrder
	p.UsageLimit = body.UsageLimit
	p.PerCustomerLimit = body.PerCustomerLimit
	p.DiscountValue = body.DiscountValue
	p.MaxDiscount = body.MaxDiscount
	p.ProgressiveTiers = marshalList(body.ProgressiveTiers)
	p.GiftDishID = body.GiftDishID
	p.BonusMultiplier = body.BonusMultiplier
	p.BonusAmount = body.BonusAmount

	if p.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Promosyon adı boş olamaz")
	}
	if !validPromotionType(body.Type) {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz promosyon tipi")
	}
	if !validScope(string(p.Scope)) {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kapsam (whole_order|dishes|categories)")
	}
	if p.Type == models.PromoGift && p.GiftDishID == nil {
		return fiber.NewError(fiber.StatusBadRequest, "gift promosyonu için gift_dish_id zorunlu")
	}

	return nil
}

// POST /api/promotions
func CreatePromotionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PromotionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		p := models.Promotion{BranchID: branchID}
		if err := fillPromotion(&p, &body); err != nil {
			return err
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Promosyon oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GET /api/promotions?active=true
func ListPromotionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("branch_id = ?", branchID)
		if c.Query("active") == "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var promos []models.Promotion
		if err := dbq.Order("priority desc, sort_order asc").Find(&promos).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Promosyonlar listelenemedi")
		}
		return c.JSON(promos)
	}
}

// PUT /api/promotions/:id
func UpdatePromotionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var p models.Promotion
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Promosyon bulunamadı")
		}

		var body PromotionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if err := fillPromotion(&p, &body); err != nil {
			return err
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Promosyon güncellenemedi")
		}
		return c.JSON(p)
	}
}

// DELETE /api/promotions/:id
func DeletePromotionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var p models.Promotion
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Promosyon bulunamadı")
		}

		if err := database.DB.Delete(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Promosyon silinemedi")
		}
		return c.JSON(fiber.Map{"deleted": true})
	}
}
