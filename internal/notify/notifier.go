package notify

import (
	"fmt"
	"log"

	"restoran-pos/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Olay adları; mutfak ekranı ve salon planı bu olayları dinler.
const (
	EventOrderPaid          = "order_paid"
	EventOrderStatusChanged = "order_status_changed"
	EventTableStatusChanged = "table_status_changed"
)

// Notifier - Sipariş/masa olaylarını dışarı duyurur. Her olay loglanır;
// Telegram yapılandırılmışsa personel kanalına da düşer. Gönderim hatası
// asıl işlemi asla etkilemez.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func New(cfg *config.Config) *Notifier {
	n := &Notifier{chatID: cfg.TelegramStaffChatID}

	if cfg.TelegramBotToken != "" && cfg.TelegramStaffChatID != 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("Telegram botu başlatılamadı, bildirimler sadece loglanacak: %v", err)
		} else {
			n.bot = bot
			log.Printf("Telegram bildirimleri aktif: @%s", bot.Self.UserName)
		}
	}

	return n
}

// Publish - Olayı yayınlar; best-effort.
func (n *Notifier) Publish(event string, message string) {
	log.Printf("[event] %s: %s", event, message)

	if n.bot == nil {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("[%s] %s", event, message))
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("Telegram bildirimi gönderilemedi: %v", err)
	}
}

func (n *Notifier) OrderPaid(orderID uint, total float64, method string) {
	n.Publish(EventOrderPaid, fmt.Sprintf("Sipariş #%d ödendi: %.2f TL (%s)", orderID, total, method))
}

func (n *Notifier) OrderStatusChanged(orderID uint, status string) {
	n.Publish(EventOrderStatusChanged, fmt.Sprintf("Sipariş #%d durumu: %s", orderID, status))
}

func (n *Notifier) TableStatusChanged(tableID uint, status string) {
	n.Publish(EventTableStatusChanged, fmt.Sprintf("Masa #%d durumu: %s", tableID, status))
}
