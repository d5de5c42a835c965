// Package notify pushes order events to the kitchen's Telegram chat.
// Notifications are fire-and-forget: a nil Notifier is valid and does
// nothing, so callers never branch on whether Telegram is configured.
package notify

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"food-preorder/config"
	"food-preorder/models"
	"food-preorder/services"
)

type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New connects to Telegram, or returns nil when the token or chat is
// not configured. The nil notifier is safe to use.
func New(cfg config.TelegramConfig) (*Notifier, error) {
	if cfg.Token == "" || cfg.AdminChatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	return &Notifier{api: api, chatID: cfg.AdminChatID}, nil
}

// OrderPlaced tells the kitchen chat about a submitted order. Delivery
// failures are logged, never returned: a missed notification must not
// fail the order.
func (n *Notifier) OrderPlaced(customer *models.User, res *services.SubmitResult) {
	if n == nil || res == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, OrderMessage(customer, res))
	if _, err := n.api.Send(msg); err != nil {
		logrus.WithError(err).Warn("send order notification")
	}
}

// OrderMessage renders the chat text for a submission.
func OrderMessage(customer *models.User, res *services.SubmitResult) string {
	var b strings.Builder
	if res.NewOrder {
		b.WriteString("Pesanan baru")
	} else {
		b.WriteString("Pesanan diperbarui")
	}
	b.WriteString(" untuk ")
	b.WriteString(services.FormatMenuDate(res.Order.MenuDate))
	b.WriteString("\n")
	if customer != nil && customer.Name != "" {
		b.WriteString("Pemesan: " + customer.Name)
		if customer.Phone != "" {
			b.WriteString(" (" + customer.Phone + ")")
		}
		b.WriteString("\n")
	}

	items := make([]models.OrderItem, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductName < items[j].ProductName })

	var total int64
	for _, item := range items {
		fmt.Fprintf(&b, "- %s x%d @ %s", item.ProductName, item.Quantity, services.FormatRupiah(item.UnitPrice))
		if item.Note != "" {
			b.WriteString(" (" + item.Note + ")")
		}
		b.WriteString("\n")
		total += int64(item.Quantity) * item.UnitPrice
	}
	b.WriteString("Total: " + services.FormatRupiah(total))
	return b.String()
}
