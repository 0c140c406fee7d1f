package database

import (
	"log"

	"restoran-pos/internal/config"
	"restoran-pos/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Branch{},
		&models.User{},
		// Katalog
		&models.DishCategory{},
		&models.Dish{},
		&models.DishModifier{},
		&models.PriceList{},
		&models.PriceListItem{},
		// Salon
		&models.Table{},
		&models.Reservation{},
		// Sadakat
		&models.Customer{},
		&models.LoyaltyLevel{},
		&models.LoyaltySetting{},
		&models.BonusSetting{},
		&models.BonusTransaction{},
		// Promosyonlar
		&models.Promotion{},
		&models.PromotionUsage{},
		// Sipariş ve kasa
		&models.Order{},
		&models.OrderItem{},
		&models.CashShift{},
		&models.CashOperation{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}
