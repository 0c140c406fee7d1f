package promotion

import (
	"fmt"
	"strings"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

// FindByCode - Promosyon kodunu büyük/küçük harf duyarsız çözer.
// Sadece kod ile tetiklenen (is_automatic=false) promosyonlar aranır.
func FindByCode(db *gorm.DB, branchID uint, code string) (*models.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("promosyon kodu boş")
	}

	var p models.Promotion
	err := db.Where("branch_id = ? AND is_automatic = ? AND LOWER(promo_code) = LOWER(?)",
		branchID, false, code).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("promosyon kodu bulunamadı: %s", code)
		}
		return nil, fmt.Errorf("promosyon kodu sorgusu başarısız: %w", err)
	}
	return &p, nil
}

// UsageCounter - Limit kontrolü için kullanım sayacı üretir.
func UsageCounter(db *gorm.DB, customerID *uint) func(promotionID uint) (int64, int64) {
	return func(promotionID uint) (int64, int64) {
		var total int64
		db.Model(&models.PromotionUsage{}).
			Where("promotion_id = ?", promotionID).Count(&total)

		var byCustomer int64
		if customerID != nil {
			db.Model(&models.PromotionUsage{}).
				Where("promotion_id = ? AND customer_id = ?", promotionID, *customerID).
				Count(&byCustomer)
		}
		return total, byCustomer
	}
}

// RecordUsage - Append-only kullanım satırı yazar (limit takibi).
func RecordUsage(db *gorm.DB, branchID, promotionID uint, customerID *uint, orderID uint, discountAmount float64) error {
	usage := models.PromotionUsage{
		BranchID:       branchID,
		PromotionID:    promotionID,
		CustomerID:     customerID,
		OrderID:        orderID,
		DiscountAmount: discountAmount,
	}
	if err := db.Create(&usage).Error; err != nil {
		return fmt.Errorf("promosyon kullanımı kaydedilemedi: %w", err)
	}
	return nil
}
