package order

import (
	"strings"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/catalog"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Kalem durum makinesi; boş liste = son durum
var itemTransitions = map[models.OrderItemStatus][]models.OrderItemStatus{
	models.ItemStatusSaved:   {models.ItemStatusPending, models.ItemStatusCancelled},
	models.ItemStatusPending: {models.ItemStatusCooking, models.ItemStatusCancelled},
	models.ItemStatusCooking: {models.ItemStatusReady, models.ItemStatusVoided},
	models.ItemStatusReady:   {models.ItemStatusServed, models.ItemStatusVoided},
	models.ItemStatusServed:  {},
}

func itemTransitionAllowed(from, to models.OrderItemStatus) bool {
	for _, s := range itemTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func loadOpenOrder(c *fiber.Ctx, branchID uint) (*models.Order, error) {
	var o models.Order
	if err := database.DB.Preload("Items").
		Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&o).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
	}
	if o.IsTerminal() {
		return nil, fiber.NewError(fiber.StatusConflict, "Kapanmış sipariş düzenlenemez")
	}
	if o.PaymentStatus == models.PaymentStatusPaid {
		return nil, fiber.NewError(fiber.StatusConflict, "Ödenmiş sipariş düzenlenemez")
	}
	return &o, nil
}

func findItem(o *models.Order, c *fiber.Ctx) (*models.OrderItem, error) {
	itemID, err := c.ParamsInt("itemID")
	if err != nil || itemID <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Geçersiz kalem id")
	}
	for i := range o.Items {
		if o.Items[i].ID == uint(itemID) {
			return &o.Items[i], nil
		}
	}
	return nil, fiber.NewError(fiber.StatusNotFound, "Kalem bulunamadı")
}

// POST /api/orders/:id/items
func AddItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var body struct {
			Items []ItemRequest `json:"items"`
		}
		if err := c.BodyParser(&body); err != nil || len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir kalem gerekli")
		}

		o, err := loadOpenOrder(c, branchID)
		if err != nil {
			return err
		}

		snap, err := catalog.LoadSnapshot(database.DB, branchID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Katalog yüklenemedi")
		}
		for _, ir := range body.Items {
			it, err := buildItem(snap, ir)
			if err != nil {
				return err
			}
			it.OrderID = o.ID
			o.Items = append(o.Items, it)
		}

		if err := Recompute(database.DB, o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Toplamlar hesaplanamadı")
		}
		if err := saveOrderWithItems(database.DB, o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalemler eklenemedi")
		}
		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

// PATCH /api/orders/:id/items/:itemID - adet/misafir/not; sadece
// mutfağa gitmemiş kalemlerde
func UpdateItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var body struct {
			Quantity    *int    `json:"quantity"`
			GuestNumber *int    `json:"guest_number"`
			Comment     *string `json:"comment"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		o, err := loadOpenOrder(c, branchID)
		if err != nil {
			return err
		}
		it, err := findItem(o, c)
		if err != nil {
			return err
		}
		if !it.IsEditable() {
			return fiber.NewError(fiber.StatusConflict, "Mutfağa gönderilmiş kalem düzenlenemez")
		}
		if it.IsGift {
			return fiber.NewError(fiber.StatusConflict, "Hediye kalem düzenlenemez")
		}

		if body.Quantity != nil {
			if *body.Quantity < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "Adet en az 1 olmalı")
			}
			it.Quantity = *body.Quantity
		}
		if body.GuestNumber != nil && *body.GuestNumber >= 1 {
			it.GuestNumber = *body.GuestNumber
		}
		if body.Comment != nil {
			it.Comment = strings.TrimSpace(*body.Comment)
		}

		if err := Recompute(database.DB, o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Toplamlar hesaplanamadı")
		}
		if err := saveOrderWithItems(database.DB, o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalem güncellenemedi")
		}
		return c.JSON(o)
	}
}

// DELETE /api/orders/:id/items/:itemID - mutfağa gitmemiş kalem iptal
// edilir; gitmiş kalemi void etmek yönetici yetkisi ister
func CancelItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		o, err := loadOpenOrder(c, branchID)
		if err != nil {
			return err
		}
		it, err := findItem(o, c)
		if err != nil {
			return err
		}
		if it.IsCancelled() {
			return fiber.NewError(fiber.StatusConflict, "Kalem zaten iptal edilmiş")
		}
		if it.IsPaid {
			return fiber.NewError(fiber.StatusConflict, "Ödenmiş kalem iptal edilemez")
		}

		before := *it
		if it.IsEditable() {
			it.Status = models.ItemStatusCancelled
		} else {
			role, _ := c.Locals(auth.CtxUserRoleKey).(models.UserRole)
			if role != models.RoleBranchAdmin && role != models.RoleSuperAdmin {
				return fiber.NewError(fiber.StatusForbidden, "Mutfağa gönderilmiş kalemi sadece yönetici void edebilir")
			}
			it.Status = models.ItemStatusVoided
		}

		if err := Recompute(database.DB, o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Toplamlar hesaplanamadı")
		}
		if err := saveOrderWithItems(database.DB, o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalem iptal edilemedi")
		}

		userID, _ := auth.UserID(c)
		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			EntityType:  "order_item",
			EntityID:    it.ID,
			Action:      models.AuditActionUpdate,
			Description: "Kalem iptal: " + it.DishName,
			Before:      before,
			After:       it,
		})
		return c.JSON(o)
	}
}

// PATCH /api/orders/:id/items/:itemID/status
func UpdateItemStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil || body.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status zorunlu")
		}

		o, err := loadOpenOrder(c, branchID)
		if err != nil {
			return err
		}
		it, err := findItem(o, c)
		if err != nil {
			return err
		}

		to := models.OrderItemStatus(body.Status)
		if !itemTransitionAllowed(it.Status, to) {
			return fiber.NewError(fiber.StatusConflict,
				"Geçersiz kalem durumu geçişi: "+string(it.Status)+" -> "+string(to))
		}
		it.Status = to

		if to == models.ItemStatusCancelled || to == models.ItemStatusVoided {
			if err := Recompute(database.DB, o); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Toplamlar hesaplanamadı")
			}
		}
		if err := saveOrderWithItems(database.DB, o); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kalem durumu güncellenemedi")
		}
		return c.JSON(o)
	}
}
