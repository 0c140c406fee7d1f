package settlement

import (
	"fmt"
	"log"

	"restoran-pos/internal/audit"
	"restoran-pos/internal/loyalty"
	"restoran-pos/internal/models"
	"restoran-pos/internal/notify"
	"restoran-pos/internal/promotion"

	"gorm.io/gorm"
)

// postSettlement - Ödeme commit'lendikten sonra koşan işlemeler: bonus
// harcama/kazanım defter satırları, müşteri sayaçları, promosyon kullanım
// kayıtları, denetim ve bildirim. Hepsi best-effort; hata loglanır ama
// tahsilatı geri almaz.
func postSettlement(db *gorm.DB, notifier *notify.Notifier, o *models.Order, r resolution, completed bool, branchID, userID uint) {
	if o.CustomerID != nil {
		cid := *o.CustomerID

		if r.BonusUsed > 0 {
			if err := loyalty.PostTransaction(db, branchID, cid, models.BonusTxnSpend,
				-r.BonusUsed, &o.ID, fmt.Sprintf("Sipariş #%d ödemesi", o.ID)); err != nil {
				log.Printf("bonus harcama işlenemedi (sipariş %d): %v", o.ID, err)
			}
		}

		if completed {
			if o.BonusEarned > 0 {
				if err := loyalty.PostTransaction(db, branchID, cid, models.BonusTxnEarn,
					o.BonusEarned, &o.ID, fmt.Sprintf("Sipariş #%d kazanımı", o.ID)); err != nil {
					log.Printf("bonus kazanımı işlenemedi (sipariş %d): %v", o.ID, err)
				}
			}
			if err := db.Model(&models.Customer{}).Where("id = ?", cid).Updates(map[string]any{
				"orders_count": gorm.Expr("orders_count + 1"),
				"total_spent":  gorm.Expr("total_spent + ?", o.PaidAmount),
			}).Error; err != nil {
				log.Printf("müşteri sayaçları güncellenemedi (müşteri %d): %v", cid, err)
			}
		}
	}

	if completed {
		for _, d := range o.AppliedDiscounts() {
			if d.PromotionID == 0 {
				continue
			}
			if err := promotion.RecordUsage(db, branchID, d.PromotionID, o.CustomerID, o.ID, d.Amount); err != nil {
				log.Printf("promosyon kullanımı kaydedilemedi (promosyon %d): %v", d.PromotionID, err)
			}
		}
	}

	if err := audit.WriteLog(audit.LogOptions{
		BranchID:    &branchID,
		UserID:      userID,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      models.AuditActionPay,
		Description: fmt.Sprintf("Tahsilat %.2f TL (%s)", r.Amount, r.Method),
		After:       o,
	}); err != nil {
		log.Printf("denetim kaydı yazılamadı (sipariş %d): %v", o.ID, err)
	}

	if notifier != nil && completed {
		notifier.OrderPaid(o.ID, o.Total, string(o.PaymentMethod))
		if o.TableID != nil {
			notifier.TableStatusChanged(*o.TableID, string(models.TableStatusFree))
		}
	}
}

// postRefund - İade sonrası bonus hareketlerinin tersine çevrilmesi ve
// müşteri sayaçlarının düzeltilmesi; best-effort. Bonus defteri yalnızca
// kasadan tahsil edilen kısmın tamamı iade edildiğinde tersine çevrilir;
// kısmi iadede sadece harcama sayacı düşer.
func postRefund(db *gorm.DB, notifier *notify.Notifier, o *models.Order, branchID, userID uint, reason string, amount float64, full bool) {
	if o.CustomerID != nil {
		cid := *o.CustomerID

		if full && o.BonusUsed > 0 {
			if err := loyalty.PostTransaction(db, branchID, cid, models.BonusTxnAdjust,
				o.BonusUsed, &o.ID, fmt.Sprintf("Sipariş #%d iadesi: harcanan bonus geri", o.ID)); err != nil {
				log.Printf("bonus iade düzeltmesi işlenemedi (sipariş %d): %v", o.ID, err)
			}
		}
		if full && o.BonusEarned > 0 {
			if err := loyalty.PostTransaction(db, branchID, cid, models.BonusTxnAdjust,
				-o.BonusEarned, &o.ID, fmt.Sprintf("Sipariş #%d iadesi: kazanım geri alındı", o.ID)); err != nil {
				log.Printf("bonus kazanım geri alımı işlenemedi (sipariş %d): %v", o.ID, err)
			}
		}
		spent := amount
		if full {
			spent = o.PaidAmount
		}
		if err := db.Model(&models.Customer{}).Where("id = ?", cid).Updates(map[string]any{
			"total_spent": gorm.Expr("GREATEST(total_spent - ?, 0)", spent),
		}).Error; err != nil {
			log.Printf("müşteri sayaçları düzeltilemedi (müşteri %d): %v", cid, err)
		}
	}

	if err := audit.WriteLog(audit.LogOptions{
		BranchID:    &branchID,
		UserID:      userID,
		EntityType:  "order",
		EntityID:    o.ID,
		Action:      models.AuditActionRefund,
		Description: reason,
		Before:      o,
	}); err != nil {
		log.Printf("denetim kaydı yazılamadı (sipariş %d): %v", o.ID, err)
	}

	if notifier != nil {
		notifier.Publish(notify.EventOrderPaid, fmt.Sprintf("Sipariş #%d iade edildi: %.2f TL", o.ID, amount))
	}
}
