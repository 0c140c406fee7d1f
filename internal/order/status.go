package order

import (
	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"
	"restoran-pos/internal/notify"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Sipariş durum makinesi. completed buraya girmez: siparişi sadece tam
// ödeme tamamlar.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusNew:       {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusCooking, models.OrderStatusCancelled},
	models.OrderStatusCooking:   {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusServed, models.OrderStatusCancelled},
	models.OrderStatusServed:    {models.OrderStatusCancelled},
}

func orderTransitionAllowed(from, to models.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PATCH /api/orders/:id/status
func UpdateOrderStatusHandler(notifier *notify.Notifier) fiber.Handler {
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
		to := models.OrderStatus(body.Status)
		if to == models.OrderStatusCompleted {
			return fiber.NewError(fiber.StatusConflict, "Sipariş sadece ödeme ile tamamlanır")
		}

		var o models.Order
		if err := database.DB.Preload("Items").
			Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&o).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if !orderTransitionAllowed(o.Status, to) {
			return fiber.NewError(fiber.StatusConflict,
				"Geçersiz durum geçişi: "+string(o.Status)+" -> "+string(to))
		}
		if to == models.OrderStatusCancelled && (o.PaymentStatus == models.PaymentStatusPaid || o.PaidAmount > 0) {
			return fiber.NewError(fiber.StatusConflict, "Ödeme alınmış sipariş iptal edilemez, iade kullanın")
		}

		before := o.Status
		o.Status = to

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if to == models.OrderStatusCancelled {
				// Açık kalemler de iptal edilir, masalar serbest kalır
				for i := range o.Items {
					if !o.Items[i].IsCancelled() && o.Items[i].Status != models.ItemStatusServed {
						o.Items[i].Status = models.ItemStatusCancelled
					}
				}
				if err := Recompute(tx, &o); err != nil {
					return err
				}
				if err := releaseTables(tx, &o); err != nil {
					return err
				}
			}
			return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&o).Error
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş durumu güncellenemedi")
		}

		userID, _ := auth.UserID(c)
		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			EntityType:  "order",
			EntityID:    o.ID,
			Action:      models.AuditActionUpdate,
			Description: "Durum: " + string(before) + " -> " + string(to),
		})
		if notifier != nil {
			notifier.OrderStatusChanged(o.ID, string(to))
			if to == models.OrderStatusCancelled && o.TableID != nil {
				notifier.TableStatusChanged(*o.TableID, string(models.TableStatusFree))
			}
		}

		return c.JSON(o)
	}
}
