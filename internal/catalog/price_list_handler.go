package catalog

import (
	"strings"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreatePriceListRequest struct {
	Name     string `json:"name"`
	BranchID *uint  `json:"branch_id"`
}

type SetPriceListItemRequest struct {
	DishID uint    `json:"dish_id"`
	Price  float64 `json:"price"`
}

type PriceListResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// POST /api/price-lists
func CreatePriceListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePriceListRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat listesi adı boş olamaz")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		pl := models.PriceList{BranchID: branchID, Name: body.Name}
		if err := database.DB.Create(&pl).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat listesi oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(PriceListResponse{ID: pl.ID, Name: pl.Name, IsActive: pl.IsActive})
	}
}

// GET /api/price-lists
func ListPriceListsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var lists []models.PriceList
		if err := database.DB.Where("branch_id = ?", branchID).Order("name asc").Find(&lists).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat listeleri listelenemedi")
		}

		res := make([]PriceListResponse, 0, len(lists))
		for _, pl := range lists {
			res = append(res, PriceListResponse{ID: pl.ID, Name: pl.Name, IsActive: pl.IsActive})
		}
		return c.JSON(res)
	}
}

// PUT /api/price-lists/:id/items - dish fiyat override'ı ekler/günceller
func SetPriceListItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var pl models.PriceList
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&pl).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fiyat listesi bulunamadı")
		}

		var body SetPriceListItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
		}

		var dish models.Dish
		if err := database.DB.Where("id = ? AND branch_id = ?", body.DishID, branchID).First(&dish).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Yemek bulunamadı")
		}

		var item models.PriceListItem
		err = database.DB.Where("price_list_id = ? AND dish_id = ?", pl.ID, body.DishID).First(&item).Error
		if err == nil {
			item.Price = body.Price
			err = database.DB.Save(&item).Error
		} else {
			item = models.PriceListItem{PriceListID: pl.ID, DishID: body.DishID, Price: body.Price}
			err = database.DB.Create(&item).Error
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat kaydedilemedi")
		}

		return c.JSON(fiber.Map{"price_list_id": pl.ID, "dish_id": item.DishID, "price": item.Price})
	}
}

// POST /api/price-lists/:id/activate - tek aktif fiyat listesi kuralı
func ActivatePriceListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var pl models.PriceList
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&pl).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Fiyat listesi bulunamadı")
		}

		if err := database.DB.Model(&models.PriceList{}).
			Where("branch_id = ?", branchID).Update("is_active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat listesi aktifleştirilemedi")
		}
		pl.IsActive = true
		if err := database.DB.Save(&pl).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat listesi aktifleştirilemedi")
		}

		return c.JSON(PriceListResponse{ID: pl.ID, Name: pl.Name, IsActive: pl.IsActive})
	}
}
