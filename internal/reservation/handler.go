package reservation

import (
	"strconv"
	"strings"
	"time"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRequest struct {
	GuestName     string  `json:"guest_name"`
	GuestPhone    string  `json:"guest_phone"`
	CustomerID    *uint   `json:"customer_id"`
	TableIDs      []uint  `json:"table_ids"`
	GuestsCount   int     `json:"guests_count"`
	StartsAt      string  `json:"starts_at"` // RFC3339
	EndsAt        string  `json:"ends_at"`
	DepositAmount float64 `json:"deposit_amount"`
	Comment       string  `json:"comment"`
	BranchID      *uint   `json:"branch_id"`
}

// Rezervasyon durum makinesi
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationPending:   {models.ReservationConfirmed, models.ReservationCancelled},
	models.ReservationConfirmed: {models.ReservationSeated, models.ReservationCancelled, models.ReservationNoShow},
	models.ReservationSeated:    {models.ReservationCompleted, models.ReservationCancelled},
}

func transitionAllowed(from, to models.ReservationStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// POST /api/reservations
func CreateReservationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ReservationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		body.GuestName = strings.TrimSpace(body.GuestName)
		if body.GuestName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Misafir adı boş olamaz")
		}

		starts, err := time.Parse(time.RFC3339, body.StartsAt)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "starts_at RFC3339 formatında olmalı")
		}
		ends, err := time.Parse(time.RFC3339, body.EndsAt)
		if err != nil || !ends.After(starts) {
			return fiber.NewError(fiber.StatusBadRequest, "ends_at başlangıçtan sonra olmalı")
		}
		if body.DepositAmount < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Depozito negatif olamaz")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		// Aynı masaya çakışan rezervasyon kontrolü
		for _, tid := range body.TableIDs {
			var count int64
			database.DB.Model(&models.Reservation{}).
				Where("branch_id = ? AND status IN ? AND starts_at < ? AND ends_at > ? AND table_ids::jsonb @> ?",
					branchID,
					[]models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed, models.ReservationSeated},
					ends, starts, jsonArray(tid)).
				Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Masa bu saat aralığında zaten rezerve")
			}
		}

		guests := body.GuestsCount
		if guests < 1 {
			guests = 2
		}
		r := models.Reservation{
			BranchID:      branchID,
			GuestName:     body.GuestName,
			GuestPhone:    strings.TrimSpace(body.GuestPhone),
			CustomerID:    body.CustomerID,
			GuestsCount:   guests,
			StartsAt:      starts,
			EndsAt:        ends,
			DepositAmount: body.DepositAmount,
			DepositStatus: models.DepositNone,
			Status:        models.ReservationPending,
			Comment:       strings.TrimSpace(body.Comment),
		}
		r.SetTableIDs(body.TableIDs)

		if err := database.DB.Create(&r).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyon oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// GET /api/reservations?date=&status=
func ListReservationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("branch_id = ?", branchID)
		if s := c.Query("status"); s != "" {
			dbq = dbq.Where("status = ?", s)
		}
		if ds := c.Query("date"); ds != "" {
			day, err := time.Parse("2006-01-02", ds)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date formatı 'YYYY-MM-DD' olmalı")
			}
			from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
			dbq = dbq.Where("starts_at >= ? AND starts_at < ?", from, from.AddDate(0, 0, 1))
		}

		var list []models.Reservation
		if err := dbq.Order("starts_at asc").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyonlar listelenemedi")
		}
		return c.JSON(list)
	}
}

// PATCH /api/reservations/:id/status
func UpdateReservationStatusHandler() fiber.Handler {
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
		to := models.ReservationStatus(body.Status)

		var r models.Reservation
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).
			First(&r).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Rezervasyon bulunamadı")
		}
		if !transitionAllowed(r.Status, to) {
			return fiber.NewError(fiber.StatusConflict,
				"Geçersiz durum geçişi: "+string(r.Status)+" -> "+string(to))
		}

		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			switch to {
			case models.ReservationConfirmed:
				// Masalar rezerve işaretlenir
				for _, tid := range r.TableIDList() {
					if err := tx.Model(&models.Table{}).
						Where("id = ? AND status = ?", tid, models.TableStatusFree).
						Update("status", models.TableStatusReserved).Error; err != nil {
						return err
					}
				}
			case models.ReservationCancelled, models.ReservationNoShow:
				for _, tid := range r.TableIDList() {
					if err := tx.Model(&models.Table{}).
						Where("id = ? AND status = ?", tid, models.TableStatusReserved).
						Update("status", models.TableStatusFree).Error; err != nil {
						return err
					}
				}
			}
			r.Status = to
			return tx.Save(&r).Error
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rezervasyon güncellenemedi")
		}
		return c.JSON(r)
	}
}

// POST /api/reservations/:id/deposit - depozito tahsilatı kasaya işlenir
func CollectDepositHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var r models.Reservation
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND branch_id = ?", c.Params("id"), branchID).
				First(&r).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Rezervasyon bulunamadı")
			}
			if r.DepositStatus != models.DepositNone {
				return fiber.NewError(fiber.StatusConflict, "Depozito zaten tahsil edilmiş")
			}
			if r.DepositAmount <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Rezervasyonun depozito tutarı yok")
			}

			var shift models.CashShift
			if err := tx.Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
				First(&shift).Error; err != nil {
				return fiber.NewError(fiber.StatusConflict, "Depozito için açık vardiya gerekli")
			}

			op := models.CashOperation{
				BranchID:      branchID,
				ShiftID:       shift.ID,
				Type:          models.CashOpDeposit,
				Category:      models.CashCategoryDeposit,
				Amount:        r.DepositAmount,
				Method:        models.PayMethodCash,
				ReservationID: &r.ID,
				UserID:        userID,
				Notes:         "Rezervasyon depozitosu: " + r.GuestName,
			}
			if err := tx.Create(&op).Error; err != nil {
				return err
			}

			r.DepositStatus = models.DepositPaid
			return tx.Save(&r).Error
		})
		if txErr != nil {
			if fe, ok := txErr.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Depozito tahsil edilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			EntityType:  "reservation",
			EntityID:    r.ID,
			Action:      models.AuditActionPay,
			Description: "Depozito tahsilatı",
			After:       r,
		})
		return c.JSON(r)
	}
}

// POST /api/reservations/:id/deposit-refund - kullanılmamış depozito iadesi
func RefundDepositHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var r models.Reservation
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND branch_id = ?", c.Params("id"), branchID).
				First(&r).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Rezervasyon bulunamadı")
			}
			if r.DepositStatus != models.DepositPaid {
				return fiber.NewError(fiber.StatusConflict, "İade edilecek depozito yok")
			}

			var shift models.CashShift
			if err := tx.Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
				First(&shift).Error; err != nil {
				return fiber.NewError(fiber.StatusConflict, "İade için açık vardiya gerekli")
			}

			op := models.CashOperation{
				BranchID:      branchID,
				ShiftID:       shift.ID,
				Type:          models.CashOpExpense,
				Category:      models.CashCategoryDepositRefund,
				Amount:        r.DepositAmount,
				Method:        models.PayMethodCash,
				ReservationID: &r.ID,
				UserID:        userID,
				Notes:         "Depozito iadesi: " + r.GuestName,
			}
			if err := tx.Create(&op).Error; err != nil {
				return err
			}

			r.DepositStatus = models.DepositRefunded
			return tx.Save(&r).Error
		})
		if txErr != nil {
			if fe, ok := txErr.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Depozito iade edilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			BranchID:    &branchID,
			UserID:      userID,
			EntityType:  "reservation",
			EntityID:    r.ID,
			Action:      models.AuditActionRefund,
			Description: "Depozito iadesi",
			After:       r,
		})
		return c.JSON(r)
	}
}

func jsonArray(id uint) string {
	return "[" + strconv.FormatUint(uint64(id), 10) + "]"
}
