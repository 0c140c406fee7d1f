package catalog

import (
	"strings"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type ModifierResponse struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type DishResponse struct {
	ID          uint               `json:"id"`
	CategoryID  uint               `json:"category_id"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	Unit        string             `json:"unit"`
	IsAvailable bool               `json:"is_available"`
	Modifiers   []ModifierResponse `json:"modifiers"`
}

type CreateCategoryRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
	BranchID  *uint  `json:"branch_id"` // super_admin için
}

type CreateDishRequest struct {
	CategoryID uint    `json:"category_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Unit       string  `json:"unit"`
	BranchID   *uint   `json:"branch_id"`
}

type UpdateDishRequest struct {
	CategoryID  *uint    `json:"category_id"`
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Unit        *string  `json:"unit"`
	IsAvailable *bool    `json:"is_available"` // false = stop liste
}

type CreateModifierRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func dishToResponse(d models.Dish) DishResponse {
	mods := make([]ModifierResponse, 0, len(d.Modifiers))
	for _, m := range d.Modifiers {
		mods = append(mods, ModifierResponse{ID: m.ID, Name: m.Name, Price: m.Price})
	}
	return DishResponse{
		ID:          d.ID,
		CategoryID:  d.CategoryID,
		Name:        d.Name,
		Price:       d.Price,
		Unit:        d.Unit,
		IsAvailable: d.IsAvailable,
		Modifiers:   mods,
	}
}

// -------------------------------------------------
// Kategori CRUD
// -------------------------------------------------

// POST /api/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori adı boş olamaz")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		cat := models.DishCategory{
			BranchID:  branchID,
			Name:      body.Name,
			SortOrder: body.SortOrder,
		}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(CategoryResponse{
			ID: cat.ID, Name: cat.Name, SortOrder: cat.SortOrder,
		})
	}
}

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var cats []models.DishCategory
		if err := database.DB.Where("branch_id = ?", branchID).
			Order("sort_order asc, name asc").Find(&cats).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		res := make([]CategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, CategoryResponse{ID: cat.ID, Name: cat.Name, SortOrder: cat.SortOrder})
		}
		return c.JSON(res)
	}
}

// -------------------------------------------------
// Yemek CRUD + stop liste
// -------------------------------------------------

// GET /api/dishes?category_id=3&available=true
func ListDishesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Preload("Modifiers").Where("branch_id = ?", branchID)

		if catStr := c.Query("category_id"); catStr != "" {
			dbq = dbq.Where("category_id = ?", catStr)
		}
		if c.Query("available") == "true" {
			dbq = dbq.Where("is_available = ?", true)
		}

		var dishes []models.Dish
		if err := dbq.Order("sort_order asc, name asc").Find(&dishes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemekler listelenemedi")
		}

		res := make([]DishResponse, 0, len(dishes))
		for _, d := range dishes {
			res = append(res, dishToResponse(d))
		}
		return c.JSON(res)
	}
}

// POST /api/dishes
func CreateDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDishRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Yemek adı boş olamaz")
		}
		if body.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		var cat models.DishCategory
		if err := database.DB.Where("id = ? AND branch_id = ?", body.CategoryID, branchID).First(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
		}

		d := models.Dish{
			BranchID:    branchID,
			CategoryID:  body.CategoryID,
			Name:        body.Name,
			Price:       body.Price,
			Unit:        strings.TrimSpace(body.Unit),
			IsAvailable: true,
		}
		if err := database.DB.Create(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(dishToResponse(d))
	}
}

// PUT /api/dishes/:id
func UpdateDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var d models.Dish
		if err := database.DB.Preload("Modifiers").
			Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}

		var body UpdateDishRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Yemek adı boş olamaz")
			}
			d.Name = name
		}
		if body.Price != nil {
			if *body.Price < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
			}
			d.Price = *body.Price
		}
		if body.Unit != nil {
			d.Unit = strings.TrimSpace(*body.Unit)
		}
		if body.CategoryID != nil {
			var cat models.DishCategory
			if err := database.DB.Where("id = ? AND branch_id = ?", *body.CategoryID, branchID).First(&cat).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			d.CategoryID = *body.CategoryID
		}
		if body.IsAvailable != nil {
			d.IsAvailable = *body.IsAvailable
		}

		if err := database.DB.Save(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek güncellenemedi")
		}

		return c.JSON(dishToResponse(d))
	}
}

// POST /api/dishes/:id/modifiers
func CreateModifierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var d models.Dish
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}

		var body CreateModifierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Modifier adı boş olamaz")
		}

		m := models.DishModifier{DishID: d.ID, Name: body.Name, Price: body.Price}
		if err := database.DB.Create(&m).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Modifier oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(ModifierResponse{ID: m.ID, Name: m.Name, Price: m.Price})
	}
}

// DELETE /api/dishes/:id
func DeleteDishHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var d models.Dish
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Yemek bulunamadı")
		}

		if err := database.DB.Delete(&d).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Yemek silinemedi")
		}

		return c.JSON(fiber.Map{"deleted": true})
	}
}
