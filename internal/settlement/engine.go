package settlement

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"restoran-pos/internal/config"
	"restoran-pos/internal/loyalty"
	"restoran-pos/internal/models"
	"restoran-pos/internal/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PayRequest struct {
	Method       string  `json:"method"`      // cash | card | mixed
	CashAmount   float64 `json:"cash_amount"` // mixed: nakit dilim
	CardAmount   float64 `json:"card_amount"` // mixed: kart dilim
	BonusUsed    float64 `json:"bonus_used"`
	GuestNumbers []int   `json:"guest_numbers"` // boş = siparişin tamamı
}

type RefundRequest struct {
	Amount float64 `json:"amount"` // 0 = kasadan tahsil edilen kısmın tamamı
	Method string  `json:"method"` // boş = siparişte kayıtlı yöntem
	Reason string  `json:"reason"`
}

// Receipt - Başarılı ödemenin özeti; fiş numarası benzersizdir.
type Receipt struct {
	Number         string               `json:"number"`
	OrderID        uint                 `json:"order_id"`
	Amount         float64              `json:"amount"`
	DepositUsed    float64              `json:"deposit_used"`
	BonusUsed      float64              `json:"bonus_used"`
	CashPaid       float64              `json:"cash_paid"`
	Method         models.PaymentMethod `json:"method"`
	BonusEarned    float64              `json:"bonus_earned"`
	OrderCompleted bool                 `json:"order_completed"`
	PaidAt         time.Time            `json:"paid_at"`
}

// businessDay - startHour'dan önceki saatler bir önceki iş gününe sayılır;
// gece yarısından sonra çalışan şubelerde vardiya güncelliği buna göre
// denetlenir.
func businessDay(t time.Time, startHour int) time.Time {
	if t.Hour() < startHour {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// currentShift - Şubenin açık ve güncel iş gününe ait vardiyasını bulur.
func currentShift(tx *gorm.DB, branchID uint, startHour int, now time.Time) (*models.CashShift, *PaymentError) {
	var shift models.CashShift
	err := tx.Where("branch_id = ? AND status = ?", branchID, models.ShiftStatusOpen).
		Order("opened_at desc").First(&shift).Error
	if err != nil {
		return nil, &PaymentError{Code: ErrNoOpenShift, Message: "Açık kasa vardiyası yok"}
	}
	if !businessDay(shift.OpenedAt, startHour).Equal(businessDay(now, startHour)) {
		return nil, &PaymentError{Code: ErrShiftOutdated, Message: "Vardiya önceki iş gününe ait, kapatıp yenisini açın"}
	}
	return &shift, nil
}

// itemsSnapshot - Kasa hareketi notuna yazılan ürün dökümü (JSON)
func itemsSnapshot(items []*models.OrderItem) string {
	type row struct {
		Dish     string  `json:"dish"`
		Quantity int     `json:"quantity"`
		Total    float64 `json:"total"`
	}
	rows := make([]row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row{Dish: it.DishName, Quantity: it.Quantity, Total: it.LineTotal})
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// settlementPlan - Kilitli sipariş üzerinde hesaplanan tahsilatın tamamı:
// parasal çözümleme, yazılacak kasa hareketleri, ödenecek kalemler,
// depozito aktarımı ve vardiya toplamları. Kalıcılaştırma Pay'de yapılır.
type settlementPlan struct {
	res             resolution
	targets         []*models.OrderItem
	ops             []models.CashOperation
	transferDeposit bool
	completed       bool
	paidAmount      float64 // siparişin yeni paid_amount değeri
	bonusUsed       float64 // siparişin yeni bonus_used değeri
	shiftUpdates    map[string]any
}

// planSettlement - Ödemenin tüm sonuçlarını yan etkisiz hesaplar.
// depositAvail yalnızca aktarılabilir (deposit_status=paid) depozito için
// sıfırdan büyük geçilir; böylece aynı depozito ikinci kez aktarılamaz.
func planSettlement(o *models.Order, req PayRequest, depositAvail, bonusBalance float64, shift *models.CashShift, branchID, userID uint) (*settlementPlan, error) {
	method := models.PaymentMethod(req.Method)
	if method == "" {
		method = models.PayMethodCash
	}
	if method != models.PayMethodCash && method != models.PayMethodCard && method != models.PayMethodMixed {
		return nil, fmt.Errorf("geçersiz ödeme yöntemi: %s", req.Method)
	}
	if req.BonusUsed < 0 {
		return nil, fmt.Errorf("bonus_used negatif olamaz")
	}
	if method == models.PayMethodMixed && (req.CashAmount < 0 || req.CardAmount < 0) {
		return nil, fmt.Errorf("cash_amount ve card_amount negatif olamaz")
	}

	remaining := round2(o.Total - o.PaidAmount)

	// Ödenecek kalemler: misafir bazlı bölüşme veya tamamı
	var targets []*models.OrderItem
	amount := remaining
	if len(req.GuestNumbers) > 0 {
		guests := make(map[int]bool, len(req.GuestNumbers))
		for _, g := range req.GuestNumbers {
			guests[g] = true
		}
		var subset float64
		for i := range o.Items {
			it := &o.Items[i]
			if it.IsCancelled() || it.IsPaid || !guests[it.GuestNumber] {
				continue
			}
			subset += it.LineTotal
			targets = append(targets, it)
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("seçilen misafirlere ait ödenecek kalem yok")
		}
		// İndirimler sipariş genelinde olduğundan kalan tutarı aşamaz
		amount = round2(math.Min(subset, remaining))
	} else {
		for i := range o.Items {
			it := &o.Items[i]
			if it.IsCancelled() || it.IsPaid {
				continue
			}
			targets = append(targets, it)
		}
	}

	r, rerr := resolvePayment(amount, depositAvail, req.BonusUsed, bonusBalance, method)
	if rerr != nil {
		return nil, rerr
	}

	// Kasaya düşen dilimler; mixed istekte nakit+kart tam kalanı karşılamalı
	// ve her dilim ayrı gelir hareketi üretir
	var cashPortion, cardPortion float64
	switch {
	case r.CashDue == 0:
		// kasa hareketi doğmaz
	case method == models.PayMethodMixed:
		if round2(req.CashAmount+req.CardAmount) != r.CashDue {
			return nil, &PaymentError{
				Code:    ErrInsufficientFunds,
				Message: fmt.Sprintf("Nakit+kart dilimleri kalan tutarı karşılamalı (%.2f TL)", r.CashDue),
			}
		}
		cashPortion = round2(req.CashAmount)
		cardPortion = round2(req.CardAmount)
	case method == models.PayMethodCard:
		cardPortion = r.CashDue
	default:
		cashPortion = r.CashDue
	}

	p := &settlementPlan{
		res:             r,
		targets:         targets,
		transferDeposit: depositAvail > 0,
	}

	// Depozito fazlası ayrı gider hareketiyle iade edilir
	if p.transferDeposit {
		if excess := round2(depositAvail - r.DepositUsed); excess > 0 {
			p.ops = append(p.ops, models.CashOperation{
				BranchID:      branchID,
				ShiftID:       shift.ID,
				Type:          models.CashOpExpense,
				Category:      models.CashCategoryDepositRefund,
				Amount:        excess,
				Method:        models.PayMethodCash,
				OrderID:       &o.ID,
				ReservationID: o.ReservationID,
				UserID:        userID,
				Notes:         "Depozito fazlası iadesi",
			})
		}
	}

	snapshot := itemsSnapshot(targets)
	for _, part := range []struct {
		method models.PaymentMethod
		amount float64
	}{
		{models.PayMethodCash, cashPortion},
		{models.PayMethodCard, cardPortion},
	} {
		if part.amount <= 0 {
			continue
		}
		p.ops = append(p.ops, models.CashOperation{
			BranchID: branchID,
			ShiftID:  shift.ID,
			Type:     models.CashOpIncome,
			Category: models.CashCategoryOrder,
			Amount:   part.amount,
			Method:   part.method,
			OrderID:  &o.ID,
			UserID:   userID,
			Notes:    snapshot,
		})
	}

	p.paidAmount = round2(o.PaidAmount + r.Amount)
	p.bonusUsed = round2(o.BonusUsed + r.BonusUsed)

	// Tamamlanma: iptal edilmemiş her kalem ya ödenmiş ya bu ödemede
	allPaid := true
	for i := range o.Items {
		it := &o.Items[i]
		if it.IsCancelled() || it.IsPaid {
			continue
		}
		covered := false
		for _, tgt := range targets {
			if tgt == it {
				covered = true
				break
			}
		}
		if !covered {
			allPaid = false
			break
		}
	}
	p.completed = allPaid && p.paidAmount >= round2(o.Total-0.009)

	updates := map[string]any{
		"bonus_total":   round2(shift.BonusTotal + r.BonusUsed),
		"deposit_total": round2(shift.DepositTotal + r.DepositUsed),
	}
	if cashPortion > 0 {
		updates["cash_total"] = round2(shift.CashTotal + cashPortion)
	}
	if cardPortion > 0 {
		updates["card_total"] = round2(shift.CardTotal + cardPortion)
	}
	if p.completed {
		updates["orders_count"] = shift.OrdersCount + 1
	}
	p.shiftUpdates = updates

	return p, nil
}

// Pay - Siparişi (veya misafir bazlı bir kısmını) tahsil eder. Ön koşullar
// sırayla denetlenir: sipariş ödenmemiş olmalı, açık vardiya olmalı,
// vardiya güncel iş gününe ait olmalı. Parasal çözümleme ve tüm kayıtlar
// tek transaction içinde, sipariş satırı kilitliyken yapılır; bonus/denetim
// /bildirim işlemeleri commit sonrasında best-effort koşar.
func Pay(db *gorm.DB, cfg *config.Config, notifier *notify.Notifier, branchID, userID, orderID uint, req PayRequest) (*Receipt, error) {
	now := time.Now()
	var (
		o    models.Order
		plan *settlementPlan
	)

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND branch_id = ?", orderID, branchID).First(&o).Error; err != nil {
			return fmt.Errorf("sipariş bulunamadı")
		}
		if err := tx.Where("order_id = ?", o.ID).Find(&o.Items).Error; err != nil {
			return err
		}

		// 1. ön koşul: zaten ödenmiş mi
		if o.PaymentStatus == models.PaymentStatusPaid {
			return &PaymentError{Code: ErrAlreadyPaid, Message: "Sipariş zaten ödenmiş"}
		}
		if o.Status == models.OrderStatusCancelled {
			return fmt.Errorf("iptal edilmiş sipariş tahsil edilemez")
		}

		// 2-3. ön koşullar: açık ve güncel vardiya
		shift, perr := currentShift(tx, branchID, cfg.BusinessDayStartHour, now)
		if perr != nil {
			return perr
		}

		// Rezervasyon depozitosu; en fazla bir kez aktarılır
		var resv *models.Reservation
		var depositAvail float64
		if o.ReservationID != nil {
			var rv models.Reservation
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&rv, *o.ReservationID).Error; err == nil {
				resv = &rv
				if rv.DepositStatus == models.DepositPaid {
					depositAvail = rv.DepositAmount
				}
			}
		}

		var bonusBalance float64
		if req.BonusUsed > 0 {
			if o.CustomerID == nil {
				return &PaymentError{Code: ErrBonusInsufficient, Message: "Bonus için siparişe müşteri bağlı olmalı"}
			}
			b, err := loyalty.Balance(tx, *o.CustomerID)
			if err != nil {
				return err
			}
			bonusBalance = b
		}

		var err error
		plan, err = planSettlement(&o, req, depositAvail, bonusBalance, shift, branchID, userID)
		if err != nil {
			return err
		}

		if plan.transferDeposit && resv != nil {
			if err := tx.Model(resv).Update("deposit_status", models.DepositTransferred).Error; err != nil {
				return err
			}
			o.DepositUsed = plan.res.DepositUsed
		}

		for i := range plan.ops {
			if err := tx.Create(&plan.ops[i]).Error; err != nil {
				return err
			}
		}

		// Kalemleri ödenmiş işaretle, sipariş toplamını ilerlet
		for _, it := range plan.targets {
			it.IsPaid = true
			if err := tx.Model(&models.OrderItem{}).Where("id = ?", it.ID).
				Update("is_paid", true).Error; err != nil {
				return err
			}
		}
		o.PaidAmount = plan.paidAmount
		o.BonusUsed = plan.bonusUsed

		if plan.completed {
			o.PaymentStatus = models.PaymentStatusPaid
			o.Status = models.OrderStatusCompleted
			o.PaymentMethod = plan.res.Method
			o.PaidAt = &now
			o.CompletedAt = &now

			if err := releaseOrderTables(tx, &o); err != nil {
				return err
			}
			if resv != nil && !resv.IsTerminal() {
				if err := tx.Model(resv).Update("status", models.ReservationCompleted).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Model(shift).Updates(plan.shiftUpdates).Error; err != nil {
			return err
		}

		return tx.Omit("Items").Save(&o).Error
	})
	if txErr != nil {
		return nil, txErr
	}

	receipt := &Receipt{
		Number:         uuid.NewString(),
		OrderID:        o.ID,
		Amount:         plan.res.Amount,
		DepositUsed:    plan.res.DepositUsed,
		BonusUsed:      plan.res.BonusUsed,
		CashPaid:       plan.res.CashDue,
		Method:         plan.res.Method,
		OrderCompleted: plan.completed,
		PaidAt:         now,
	}
	if plan.completed {
		receipt.BonusEarned = o.BonusEarned
	}

	// Commit sonrası işlemeler; hata asıl ödemeyi geri almaz
	postSettlement(db, notifier, &o, plan.res, plan.completed, branchID, userID)

	return receipt, nil
}

// Refund - Ödenmiş siparişten iade: kasadan gider hareketi ve vardiya iade
// sayaçları. Sipariş durumu değişmez; tutar verilmezse kasadan tahsil edilen
// kısmın tamamı, yöntem verilmezse kayıtlı ödeme yöntemi kullanılır.
func Refund(db *gorm.DB, cfg *config.Config, notifier *notify.Notifier, branchID, userID, orderID uint, req RefundRequest) error {
	now := time.Now()
	var (
		o      models.Order
		amount float64
		full   bool
	)

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND branch_id = ?", orderID, branchID).First(&o).Error; err != nil {
			return fmt.Errorf("sipariş bulunamadı")
		}
		if o.PaymentStatus != models.PaymentStatusPaid {
			return fmt.Errorf("sadece ödenmiş sipariş iade edilebilir")
		}

		shift, perr := currentShift(tx, branchID, cfg.BusinessDayStartHour, now)
		if perr != nil {
			return perr
		}

		cashPaid := round2(o.PaidAmount - o.BonusUsed - o.DepositUsed)
		amount = round2(req.Amount)
		if amount == 0 {
			amount = cashPaid
		}
		if amount < 0 || amount > round2(o.PaidAmount) {
			return fmt.Errorf("iade tutarı geçersiz")
		}
		full = amount >= cashPaid

		method := models.PaymentMethod(req.Method)
		if method == "" {
			method = o.PaymentMethod
		}

		if amount > 0 {
			op := models.CashOperation{
				BranchID: branchID,
				ShiftID:  shift.ID,
				Type:     models.CashOpExpense,
				Category: models.CashCategoryRefund,
				Amount:   amount,
				Method:   method,
				OrderID:  &o.ID,
				UserID:   userID,
				Notes:    req.Reason,
			}
			if err := tx.Create(&op).Error; err != nil {
				return err
			}
		}

		return tx.Model(shift).Updates(map[string]any{
			"refund_total":  round2(shift.RefundTotal + amount),
			"refunds_count": shift.RefundsCount + 1,
		}).Error
	})
	if txErr != nil {
		return txErr
	}

	postRefund(db, notifier, &o, branchID, userID, req.Reason, amount, full)
	return nil
}

// releaseOrderTables - masaları serbest bırakır; aynı masada başka açık
// sipariş varsa masa dolu kalır
func releaseOrderTables(tx *gorm.DB, o *models.Order) error {
	if o.Type != models.OrderTypeDineIn || o.TableID == nil {
		return nil
	}
	tables := append([]uint{*o.TableID}, o.LinkedTables()...)
	for _, tid := range tables {
		var count int64
		tx.Model(&models.Order{}).
			Where("branch_id = ? AND table_id = ? AND id <> ? AND status NOT IN ?",
				o.BranchID, tid, o.ID,
				[]models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := tx.Model(&models.Table{}).Where("id = ?", tid).
			Update("status", models.TableStatusFree).Error; err != nil {
			return err
		}
	}
	return nil
}
