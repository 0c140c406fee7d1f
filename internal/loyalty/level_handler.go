package loyalty

import (
	"strings"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
)

type LevelResponse struct {
	ID                      uint    `json:"id"`
	Name                    string  `json:"name"`
	DiscountPercent         float64 `json:"discount_percent"`
	CashbackPercent         float64 `json:"cashback_percent"`
	MinSpent                float64 `json:"min_spent"`
	BirthdayBonus           bool    `json:"birthday_bonus"`
	BirthdayDiscountPercent float64 `json:"birthday_discount_percent"`
}

type CreateLevelRequest struct {
	Name                    string  `json:"name"`
	DiscountPercent         float64 `json:"discount_percent"`
	CashbackPercent         float64 `json:"cashback_percent"`
	MinSpent                float64 `json:"min_spent"`
	BirthdayBonus           bool    `json:"birthday_bonus"`
	BirthdayDiscountPercent float64 `json:"birthday_discount_percent"`
	BranchID                *uint   `json:"branch_id"`
}

type UpdateBonusSettingRequest struct {
	Enabled       *bool    `json:"enabled"`
	EarnRate      *float64 `json:"earn_rate"`
	SpendRate     *float64 `json:"spend_rate"`
	MinEarnAmount *float64 `json:"min_earn_amount"`
	MinSpendStep  *float64 `json:"min_spend_step"`
	BranchID      *uint    `json:"branch_id"`
}

type SetLoyaltySettingRequest struct {
	Key      string `json:"key"` // birthday_days_before | birthday_days_after | levels_enabled
	Value    string `json:"value"`
	BranchID *uint  `json:"branch_id"`
}

func levelToResponse(l models.LoyaltyLevel) LevelResponse {
	return LevelResponse{
		ID:                      l.ID,
		Name:                    l.Name,
		DiscountPercent:         l.DiscountPercent,
		CashbackPercent:         l.CashbackPercent,
		MinSpent:                l.MinSpent,
		BirthdayBonus:           l.BirthdayBonus,
		BirthdayDiscountPercent: l.BirthdayDiscountPercent,
	}
}

// POST /api/loyalty-levels
func CreateLevelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateLevelRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Seviye adı boş olamaz")
		}
		if body.DiscountPercent < 0 || body.DiscountPercent > 100 {
			return fiber.NewError(fiber.StatusBadRequest, "İndirim yüzdesi 0-100 aralığında olmalı")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		lvl := models.LoyaltyLevel{
			BranchID:                branchID,
			Name:                    body.Name,
			DiscountPercent:         body.DiscountPercent,
			CashbackPercent:         body.CashbackPercent,
			MinSpent:                body.MinSpent,
			BirthdayBonus:           body.BirthdayBonus,
			BirthdayDiscountPercent: body.BirthdayDiscountPercent,
		}
		if err := database.DB.Create(&lvl).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Seviye oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(levelToResponse(lvl))
	}
}

// GET /api/loyalty-levels
func ListLevelsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var levels []models.LoyaltyLevel
		if err := database.DB.Where("branch_id = ?", branchID).
			Order("min_spent asc").Find(&levels).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Seviyeler listelenemedi")
		}

		res := make([]LevelResponse, 0, len(levels))
		for _, l := range levels {
			res = append(res, levelToResponse(l))
		}
		return c.JSON(res)
	}
}

// PUT /api/bonus-settings
func UpdateBonusSettingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateBonusSettingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		var setting models.BonusSetting
		if err := database.DB.Where("branch_id = ?", branchID).First(&setting).Error; err != nil {
			setting = models.BonusSetting{BranchID: branchID, SpendRate: 1}
		}

		if body.Enabled != nil {
			setting.Enabled = *body.Enabled
		}
		if body.EarnRate != nil {
			if *body.EarnRate < 0 || *body.EarnRate > 100 {
				return fiber.NewError(fiber.StatusBadRequest, "earn_rate 0-100 aralığında olmalı")
			}
			setting.EarnRate = *body.EarnRate
		}
		if body.SpendRate != nil {
			if *body.SpendRate <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "spend_rate 0'dan büyük olmalı")
			}
			setting.SpendRate = *body.SpendRate
		}
		if body.MinEarnAmount != nil {
			setting.MinEarnAmount = *body.MinEarnAmount
		}
		if body.MinSpendStep != nil {
			setting.MinSpendStep = *body.MinSpendStep
		}

		if err := database.DB.Save(&setting).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar kaydedilemedi")
		}

		return c.JSON(fiber.Map{
			"enabled":         setting.Enabled,
			"earn_rate":       setting.EarnRate,
			"spend_rate":      setting.SpendRate,
			"min_earn_amount": setting.MinEarnAmount,
			"min_spend_step":  setting.MinSpendStep,
		})
	}
}

// PUT /api/loyalty-settings
func SetLoyaltySettingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetLoyaltySettingRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		switch body.Key {
		case "birthday_days_before", "birthday_days_after", "levels_enabled":
			// ok
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ayar anahtarı")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		var kv models.LoyaltySetting
		err = database.DB.Where("branch_id = ? AND key = ?", branchID, body.Key).First(&kv).Error
		if err == nil {
			kv.Value = body.Value
			err = database.DB.Save(&kv).Error
		} else {
			kv = models.LoyaltySetting{BranchID: branchID, Key: body.Key, Value: body.Value}
			err = database.DB.Create(&kv).Error
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar kaydedilemedi")
		}

		return c.JSON(fiber.Map{"key": kv.Key, "value": kv.Value})
	}
}
