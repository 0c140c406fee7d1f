package loyalty

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"restoran-pos/internal/models"

	"gorm.io/gorm"
)

// Settings - Şubenin birleşik sadakat/bonus yapılandırması.
// Kayıt yoksa güvenli varsayılanlar döner (program kapalı).
type Settings struct {
	Bonus              models.BonusSetting
	BirthdayDaysBefore int
	BirthdayDaysAfter  int
	LevelsEnabled      bool
}

func LoadSettings(db *gorm.DB, branchID uint) (*Settings, error) {
	s := &Settings{
		BirthdayDaysBefore: 3,
		BirthdayDaysAfter:  3,
		LevelsEnabled:      true,
	}

	err := db.Where("branch_id = ?", branchID).First(&s.Bonus).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("bonus ayarları yüklenemedi: %w", err)
	}

	var kvs []models.LoyaltySetting
	if err := db.Where("branch_id = ?", branchID).Find(&kvs).Error; err != nil {
		return nil, fmt.Errorf("sadakat ayarları yüklenemedi: %w", err)
	}
	for _, kv := range kvs {
		switch kv.Key {
		case "birthday_days_before":
			if n, err := strconv.Atoi(kv.Value); err == nil && n >= 0 {
				s.BirthdayDaysBefore = n
			}
		case "birthday_days_after":
			if n, err := strconv.Atoi(kv.Value); err == nil && n >= 0 {
				s.BirthdayDaysAfter = n
			}
		case "levels_enabled":
			s.LevelsEnabled = kv.Value == "true" || kv.Value == "1"
		}
	}

	return s, nil
}

// InBirthdayWindow - Bugün, yıldan bağımsız doğum gününün
// [before gün önce, after gün sonra] penceresinde mi?
func InBirthdayWindow(birthDate *time.Time, now time.Time, daysBefore, daysAfter int) bool {
	if birthDate == nil {
		return false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Yıl sınırında pencere taşabilir; komşu yılların doğum günlerini de dene
	for offset := -1; offset <= 1; offset++ {
		bday := time.Date(now.Year()+offset, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, now.Location())
		start := bday.AddDate(0, 0, -daysBefore)
		end := bday.AddDate(0, 0, daysAfter)
		if !today.Before(start) && !today.After(end) {
			return true
		}
	}
	return false
}

// EarnAmount - final tutar üzerinden kazanılacak bonus.
// Oran: global EarnRate; müşterinin seviyesinin CashbackPercent'i varsa onu
// geçersiz kılar. multiplier bonus_multiplier promosyonundan gelir (0 = yok).
func EarnAmount(s *Settings, finalTotal float64, level *models.LoyaltyLevel, multiplier float64, extra float64) float64 {
	if !s.Bonus.Enabled || finalTotal <= 0 {
		return 0
	}
	if finalTotal < s.Bonus.MinEarnAmount {
		return round2(extra)
	}

	rate := s.Bonus.EarnRate
	if level != nil && level.CashbackPercent > 0 {
		rate = level.CashbackPercent
	}

	m := multiplier
	if m < 1 {
		m = 1
	}

	return round2(finalTotal*rate/100*m + extra)
}

// Balance - Müşterinin defter bakiyesi (satırların toplamı)
func Balance(db *gorm.DB, customerID uint) (float64, error) {
	var total float64
	err := db.Model(&models.BonusTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("customer_id = ?", customerID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("bonus bakiyesi hesaplanamadı: %w", err)
	}
	return round2(total), nil
}

// PostTransaction - Defter satırı ekler ve cache'lenmiş bakiyeyi tazeler.
// spend için amount negatif verilmelidir.
func PostTransaction(db *gorm.DB, branchID, customerID uint, txnType models.BonusTransactionType, amount float64, orderID *uint, description string) error {
	if amount == 0 {
		return nil
	}

	txn := models.BonusTransaction{
		BranchID:    branchID,
		CustomerID:  customerID,
		Type:        txnType,
		Amount:      round2(amount),
		OrderID:     orderID,
		Description: description,
	}
	if err := db.Create(&txn).Error; err != nil {
		return fmt.Errorf("bonus hareketi kaydedilemedi: %w", err)
	}

	balance, err := Balance(db, customerID)
	if err != nil {
		return err
	}
	if err := db.Model(&models.Customer{}).Where("id = ?", customerID).
		Update("bonus_balance", balance).Error; err != nil {
		return fmt.Errorf("bonus bakiyesi güncellenemedi: %w", err)
	}

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
