package settlement

import (
	"math"

	"restoran-pos/internal/models"
)

// PaymentError - Ödeme ön koşulu veya parasal çözümleme hatası.
// Code alanı istemci tarafında dallanma içindir, mesaj kullanıcıya gösterilir.
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string { return e.Message }

const (
	ErrAlreadyPaid       = "already_paid"
	ErrNoOpenShift       = "no_open_shift"
	ErrShiftOutdated     = "shift_outdated"
	ErrInsufficientFunds = "insufficient_funds"
	ErrBonusInsufficient = "bonus_yetersiz"
)

// resolution - Bir ödemenin parasal dökümü. Depozito önce düşer, sonra
// bonus, kalan kasaya gider.
type resolution struct {
	Amount      float64 // bu ödemeyle kapanan tutar
	DepositUsed float64
	BonusUsed   float64
	CashDue     float64              // kasaya düşen kısım (nakit veya kart)
	Method      models.PaymentMethod // efektif ödeme yöntemi
}

// resolvePayment - Saf parasal çözümleme. remaining = kapatılacak tutar,
// deposit = aktarılabilir depozito, bonusRequested = müşterinin harcamak
// istediği bonus, bonusBalance = defter bakiyesi. Ödenmişlik denetimi
// çağıranın işidir (payment_status üzerinden); remaining burada sıfır
// olabilir.
//
// Depozito+bonus tutarın tamamını karşılıyorsa efektif yöntem bonus olur
// ve kasa hareketi doğmaz. Depozito kısmi karşılıyorsa yöntem mixed'dir.
func resolvePayment(remaining, deposit, bonusRequested, bonusBalance float64, requested models.PaymentMethod) (resolution, *PaymentError) {
	var r resolution
	if remaining <= 0 {
		// Tamamı indirimle sıfırlanmış sipariş: kasa hareketi doğmadan
		// bonus yöntemiyle kapanır
		r.Method = models.PayMethodBonus
		return r, nil
	}
	r.Amount = round2(remaining)

	r.DepositUsed = round2(math.Min(deposit, remaining))
	left := round2(remaining - r.DepositUsed)

	if bonusRequested > 0 && left > 0 {
		want := round2(math.Min(bonusRequested, left))
		if want > bonusBalance {
			return resolution{}, &PaymentError{
				Code:    ErrBonusInsufficient,
				Message: "Bonus bakiyesi yetersiz",
			}
		}
		r.BonusUsed = want
		left = round2(left - want)
	}

	r.CashDue = left

	switch {
	case r.CashDue == 0:
		r.Method = models.PayMethodBonus
	case r.DepositUsed > 0 || r.BonusUsed > 0:
		r.Method = models.PayMethodMixed
	default:
		r.Method = requested
	}

	return r, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
