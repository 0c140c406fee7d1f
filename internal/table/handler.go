package table

import (
	"strings"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"
	"restoran-pos/internal/notify"

	"github.com/gofiber/fiber/v2"
)

type TableRequest struct {
	Name     string `json:"name"`
	Zone     string `json:"zone"`
	Seats    int    `json:"seats"`
	BranchID *uint  `json:"branch_id"`
}

// POST /api/tables
func CreateTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Masa adı boş olamaz")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		seats := body.Seats
		if seats < 1 {
			seats = 2
		}
		t := models.Table{
			BranchID: branchID,
			Name:     body.Name,
			Zone:     strings.TrimSpace(body.Zone),
			Seats:    seats,
			Status:   models.TableStatusFree,
		}
		if err := database.DB.Create(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

// GET /api/tables?zone=&status=
func ListTablesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("branch_id = ?", branchID)
		if z := c.Query("zone"); z != "" {
			dbq = dbq.Where("zone = ?", z)
		}
		if s := c.Query("status"); s != "" {
			dbq = dbq.Where("status = ?", s)
		}

		var tables []models.Table
		if err := dbq.Order("zone, name").Find(&tables).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masalar listelenemedi")
		}
		return c.JSON(tables)
	}
}

// PUT /api/tables/:id
func UpdateTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var t models.Table
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).
			First(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}

		var body TableRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if name := strings.TrimSpace(body.Name); name != "" {
			t.Name = name
		}
		if body.Zone != "" {
			t.Zone = strings.TrimSpace(body.Zone)
		}
		if body.Seats > 0 {
			t.Seats = body.Seats
		}

		if err := database.DB.Save(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa güncellenemedi")
		}
		return c.JSON(t)
	}
}

// PATCH /api/tables/:id/status - elle sadece free/reserved yapılabilir;
// occupied durumunu sipariş akışı yönetir
func UpdateTableStatusHandler(notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		to := models.TableStatus(body.Status)
		if to != models.TableStatusFree && to != models.TableStatusReserved {
			return fiber.NewError(fiber.StatusBadRequest, "Elle sadece free veya reserved yapılabilir")
		}

		var t models.Table
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).
			First(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}
		if t.Status == models.TableStatusOccupied {
			// Masada açık sipariş varsa elle durum değiştirilemez
			var count int64
			database.DB.Model(&models.Order{}).
				Where("branch_id = ? AND table_id = ? AND status NOT IN ?", branchID, t.ID,
					[]models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
				Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Masada açık sipariş var")
			}
		}

		t.Status = to
		if err := database.DB.Save(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa durumu güncellenemedi")
		}

		if notifier != nil {
			notifier.TableStatusChanged(t.ID, string(to))
		}
		return c.JSON(t)
	}
}

// DELETE /api/tables/:id
func DeleteTableHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var t models.Table
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).
			First(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Masa bulunamadı")
		}
		if t.Status != models.TableStatusFree {
			return fiber.NewError(fiber.StatusConflict, "Sadece boş masa silinebilir")
		}

		if err := database.DB.Delete(&t).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Masa silinemedi")
		}
		return c.JSON(fiber.Map{"deleted": true})
	}
}
