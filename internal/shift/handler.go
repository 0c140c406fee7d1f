package shift

import (
	"math"
	"strings"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"
	"restoran-pos/internal/settlement"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OpenShiftRequest struct {
	OpeningCash float64 `json:"opening_cash"`
	BranchID    *uint   `json:"branch_id"`
}

type CloseShiftRequest struct {
	ActualCash float64 `json:"actual_cash"`
	Notes      string  `json:"notes"`
	BranchID   *uint   `json:"branch_id"`
}

type WithdrawalRequest struct {
	Amount   float64 `json:"amount"`
	Notes    string  `json:"notes"`
	BranchID *uint   `json:"branch_id"`
}

// availableCash - Vardiyadaki nakit mevcut: açılış + nakit girişler
// (satış ve depozito) - çıkışlar (gider ve çekim)
func availableCash(db *gorm.DB, shift *models.CashShift) (float64, error) {
	var in, out float64

	err := db.Model(&models.CashOperation{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("shift_id = ? AND method = ? AND type IN ?", shift.ID, models.PayMethodCash,
			[]models.CashOperationType{models.CashOpIncome, models.CashOpDeposit}).
		Scan(&in).Error
	if err != nil {
		return 0, err
	}

	err = db.Model(&models.CashOperation{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("shift_id = ? AND method = ? AND type IN ?", shift.ID, models.PayMethodCash,
			[]models.CashOperationType{models.CashOpExpense, models.CashOpWithdrawal}).
		Scan(&out).Error
	if err != nil {
		return 0, err
	}

	return round2(shift.OpeningCash + in - out), nil
}

// POST /api/shifts/open
func OpenShiftHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OpenShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.OpeningCash < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Açılış tutarı negatif olamaz")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var existing models.CashShift
		if err := database.DB.Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
			First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "Şubede zaten açık bir vardiya var")
		}

		s := models.CashShift{
			BranchID:    branchID,
			Status:      models.ShiftStatusOpen,
			OpenedByID:  userID,
			OpenedAt:    time.Now(),
			OpeningCash: body.OpeningCash,
		}
		if err := database.DB.Create(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Vardiya açılamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:   &branchID,
			UserID:     userID,
			EntityType: "cash_shift",
			EntityID:   s.ID,
			Action:     models.AuditActionCreate,
			After:      s,
		})
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// POST /api/shifts/close - beklenen nakit hesaplanır, fark kaydedilir
func CloseShiftHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CloseShiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var s models.CashShift
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
				First(&s).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Açık vardiya bulunamadı")
			}

			expected, err := availableCash(tx, &s)
			if err != nil {
				return err
			}

			now := time.Now()
			s.Status = models.ShiftStatusClosed
			s.ClosedByID = &userID
			s.ClosedAt = &now
			s.ExpectedCash = expected
			s.ActualCash = body.ActualCash
			s.Difference = round2(body.ActualCash - expected)
			s.Notes = strings.TrimSpace(body.Notes)

			return tx.Save(&s).Error
		})
		if txErr != nil {
			if fe, ok := txErr.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Vardiya kapatılamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			EntityType:  "cash_shift",
			EntityID:    s.ID,
			Action:      models.AuditActionUpdate,
			Description: "Vardiya kapanışı",
			After:       s,
		})
		return c.JSON(s)
	}
}

// GET /api/shifts/current
func GetCurrentShiftHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var s models.CashShift
		if err := database.DB.Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
			Order("opened_at desc").First(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Açık vardiya yok")
		}

		cash, err := availableCash(database.DB, &s)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Nakit mevcut hesaplanamadı")
		}

		return c.JSON(fiber.Map{"shift": s, "available_cash": cash})
	}
}

// POST /api/shifts/withdrawal - kasadan nakit çekimi
func CreateWithdrawalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WithdrawalRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Tutar 0'dan büyük olmalı")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var op models.CashOperation
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			var s models.CashShift
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
				First(&s).Error; err != nil {
				return fiber.NewError(fiber.StatusConflict, "Açık vardiya yok")
			}

			cash, err := availableCash(tx, &s)
			if err != nil {
				return err
			}
			if body.Amount > cash {
				return &settlement.PaymentError{
					Code:    settlement.ErrInsufficientFunds,
					Message: "Kasada yeterli nakit yok",
				}
			}

			op = models.CashOperation{
				BranchID: branchID,
				ShiftID:  s.ID,
				Type:     models.CashOpWithdrawal,
				Category: models.CashCategoryWithdrawal,
				Amount:   body.Amount,
				Method:   models.PayMethodCash,
				UserID:   userID,
				Notes:    strings.TrimSpace(body.Notes),
			}
			return tx.Create(&op).Error
		})
		if txErr != nil {
			if fe, ok := txErr.(*fiber.Error); ok {
				return fe
			}
			if perr, ok := txErr.(*settlement.PaymentError); ok {
				return c.Status(fiber.StatusUnprocessableEntity).
					JSON(fiber.Map{"code": perr.Code, "message": perr.Message})
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Çekim kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			EntityType:  "cash_operation",
			EntityID:    op.ID,
			Action:      models.AuditActionCreate,
			Description: "Kasadan çekim",
			After:       op,
		})
		return c.Status(fiber.StatusCreated).JSON(op)
	}
}

// GET /api/shifts/:id/operations
func ListOperationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var ops []models.CashOperation
		if err := database.DB.
			Where("branch_id = ? AND shift_id = ?", branchID, c.Params("id")).
			Order("created_at asc").Find(&ops).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}
		return c.JSON(ops)
	}
}

// GET /api/shifts/summary?date=2026-08-31 - günün tip/kategori bazlı dökümü
func DaySummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		day := time.Now()
		if ds := c.Query("date"); ds != "" {
			parsed, err := time.Parse("2006-01-02", ds)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date formatı 'YYYY-MM-DD' olmalı")
			}
			day = parsed
		}
		from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		to := from.AddDate(0, 0, 1)

		type summaryRow struct {
			Type     models.CashOperationType     `json:"type"`
			Category models.CashOperationCategory `json:"category"`
			Method   models.PaymentMethod         `json:"method"`
			Total    float64                      `json:"total"`
			Count    int64                        `json:"count"`
		}

		var rows []summaryRow
		err = database.DB.Model(&models.CashOperation{}).
			Select("type, category, method, SUM(amount) as total, COUNT(*) as count").
			Where("branch_id = ? AND created_at >= ? AND created_at < ?", branchID, from, to).
			Group("type, category, method").
			Order("type, category").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		return c.JSON(fiber.Map{"date": from.Format("2006-01-02"), "rows": rows})
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
