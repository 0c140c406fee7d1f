package loyalty

import (
	"strings"
	"time"

	"restoran-pos/internal/auth"
	"restoran-pos/internal/database"
	"restoran-pos/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CustomerResponse struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	BirthDate      *string `json:"birth_date"`
	LoyaltyLevelID *uint   `json:"loyalty_level_id"`
	BonusBalance   float64 `json:"bonus_balance"`
	OrdersCount    int64   `json:"orders_count"`
	TotalSpent     float64 `json:"total_spent"`
}

type CreateCustomerRequest struct {
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	BirthDate      *string `json:"birth_date"` // "1990-05-20"
	LoyaltyLevelID *uint   `json:"loyalty_level_id"`
	BranchID       *uint   `json:"branch_id"`
}

type UpdateCustomerRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	BirthDate      *string `json:"birth_date"`
	LoyaltyLevelID *uint   `json:"loyalty_level_id"`
}

func customerToResponse(cu models.Customer) CustomerResponse {
	var birth *string
	if cu.BirthDate != nil {
		b := cu.BirthDate.Format("2006-01-02")
		birth = &b
	}
	return CustomerResponse{
		ID:             cu.ID,
		Name:           cu.Name,
		Phone:          cu.Phone,
		BirthDate:      birth,
		LoyaltyLevelID: cu.LoyaltyLevelID,
		BonusBalance:   cu.BonusBalance,
		OrdersCount:    cu.OrdersCount,
		TotalSpent:     cu.TotalSpent,
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Müşteri adı boş olamaz")
		}

		branchID, err := auth.ResolveBranchID(c, body.BranchID)
		if err != nil {
			return err
		}

		cu := models.Customer{
			BranchID:       branchID,
			Name:           body.Name,
			Phone:          strings.TrimSpace(body.Phone),
			LoyaltyLevelID: body.LoyaltyLevelID,
		}

		if body.BirthDate != nil && *body.BirthDate != "" {
			d, err := time.Parse("2006-01-02", *body.BirthDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Doğum tarihi formatı 'YYYY-MM-DD' olmalı")
			}
			cu.BirthDate = &d
		}

		if cu.LoyaltyLevelID != nil {
			var lvl models.LoyaltyLevel
			if err := database.DB.Where("id = ? AND branch_id = ?", *cu.LoyaltyLevelID, branchID).First(&lvl).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Sadakat seviyesi bulunamadı")
			}
		}

		if err := database.DB.Create(&cu).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(customerToResponse(cu))
	}
}

// GET /api/customers?phone=555
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Where("branch_id = ?", branchID)
		if phone := c.Query("phone"); phone != "" {
			dbq = dbq.Where("phone LIKE ?", "%"+phone+"%")
		}

		var customers []models.Customer
		if err := dbq.Order("name asc").Limit(100).Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		res := make([]CustomerResponse, 0, len(customers))
		for _, cu := range customers {
			res = append(res, customerToResponse(cu))
		}
		return c.JSON(res)
	}
}

// GET /api/customers/:id - bakiye defterden doğrulanarak döner
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var cu models.Customer
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&cu).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		if balance, err := Balance(database.DB, cu.ID); err == nil && balance != cu.BonusBalance {
			// Cache defterden sapmışsa tazele
			cu.BonusBalance = balance
			database.DB.Model(&cu).Update("bonus_balance", balance)
		}

		return c.JSON(customerToResponse(cu))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var cu models.Customer
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&cu).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var body UpdateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Müşteri adı boş olamaz")
			}
			cu.Name = name
		}
		if body.Phone != nil {
			cu.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.BirthDate != nil {
			if *body.BirthDate == "" {
				cu.BirthDate = nil
			} else {
				d, err := time.Parse("2006-01-02", *body.BirthDate)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, "Doğum tarihi formatı 'YYYY-MM-DD' olmalı")
				}
				cu.BirthDate = &d
			}
		}
		if body.LoyaltyLevelID != nil {
			var lvl models.LoyaltyLevel
			if err := database.DB.Where("id = ? AND branch_id = ?", *body.LoyaltyLevelID, branchID).First(&lvl).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Sadakat seviyesi bulunamadı")
			}
			cu.LoyaltyLevelID = body.LoyaltyLevelID
		}

		if err := database.DB.Save(&cu).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteri güncellenemedi")
		}

		return c.JSON(customerToResponse(cu))
	}
}

// GET /api/customers/:id/bonus-transactions
func ListBonusTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := auth.ResolveBranchIDFromQuery(c)
		if err != nil {
			return err
		}

		var cu models.Customer
		if err := database.DB.Where("id = ? AND branch_id = ?", c.Params("id"), branchID).First(&cu).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var txns []models.BonusTransaction
		if err := database.DB.Where("customer_id = ?", cu.ID).
			Order("id desc").Limit(100).Find(&txns).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bonus hareketleri listelenemedi")
		}

		type txnResponse struct {
			ID          uint    `json:"id"`
			Type        string  `json:"type"`
			Amount      float64 `json:"amount"`
			OrderID     *uint   `json:"order_id"`
			Description string  `json:"description"`
			CreatedAt   string  `json:"created_at"`
		}

		res := make([]txnResponse, 0, len(txns))
		for _, t := range txns {
			res = append(res, txnResponse{
				ID:          t.ID,
				Type:        string(t.Type),
				Amount:      t.Amount,
				OrderID:     t.OrderID,
				Description: t.Description,
				CreatedAt:   t.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}
