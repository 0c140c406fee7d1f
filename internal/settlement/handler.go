package settlement

import (
	"errors"
	"strings"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/config"
	"restoran-pos/internal/database"
	"restoran-pos/internal/notify"

	"github.com/gofiber/fiber/v2"
)

// paymentErrorResponse - Ödeme hatalarında istemciye kod + mesaj döner;
// kasiyer ekranı koda göre dallanır.
func paymentErrorResponse(c *fiber.Ctx, perr *PaymentError) error {
	status := fiber.StatusConflict
	if perr.Code == ErrBonusInsufficient || perr.Code == ErrInsufficientFunds {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"code": perr.Code, "message": perr.Message})
}

// POST /api/orders/:id/pay
func PayOrderHandler(cfg *config.Config, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		orderID, err := c.ParamsInt("id")
		if err != nil || orderID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş id")
		}

		var req PayRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		receipt, err := Pay(database.DB, cfg, notifier, branchID, userID, uint(orderID), req)
		if err != nil {
			var perr *PaymentError
			if errors.As(err, &perr) {
				return paymentErrorResponse(c, perr)
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(receipt)
	}
}

// POST /api/orders/:id/refund
func RefundOrderHandler(cfg *config.Config, notifier *notify.Notifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		orderID, err := c.ParamsInt("id")
		if err != nil || orderID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş id")
		}

		var req RefundRequest
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İade gerekçesi zorunlu")
		}
		req.Reason = strings.TrimSpace(req.Reason)

		if err := Refund(database.DB, cfg, notifier, branchID, userID, uint(orderID), req); err != nil {
			var perr *PaymentError
			if errors.As(err, &perr) {
				return paymentErrorResponse(c, perr)
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{"refunded": true})
	}
}
