package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/example/bloomdesk/internal/models"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramService posts order events to the shop's admin chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService. An empty token or chat
// turns every notification into a no-op.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     telegramAPIBase,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Debug().Msg("telegram bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)
	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Debug().Msg("telegram admin chat not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// FormatPrice renders a đồng amount with thousand separators, e.g. 1.250.000 đ.
func FormatPrice(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	str := fmt.Sprintf("%d", amount)

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteByte('.')
		}
		result.WriteRune(digit)
	}
	return sign + result.String() + " đ"
}

// NotifyNewOrder tells the admin chat a pending order was taken.
func (s *TelegramService) NotifyNewOrder(order models.Order) error {
	voucher := "-"
	if order.VoucherCode != nil {
		voucher = fmt.Sprintf("%s (-%s)", html.EscapeString(*order.VoucherCode), FormatPrice(order.VoucherDiscount))
	}

	message := fmt.Sprintf(`<b>🌸 ĐƠN HÀNG MỚI</b>
<b>Khách:</b> %s
<b>SĐT:</b> %s
<b>Địa chỉ:</b> %s
<b>Sản phẩm:</b> %s
<b>Giá:</b> %s
<b>Voucher:</b> %s
<b>Thanh toán:</b> %s`,
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.CustomerPhone),
		html.EscapeString(order.CustomerAddress),
		html.EscapeString(order.Product),
		FormatPrice(order.Amount),
		voucher,
		FormatPrice(order.FinalAmount),
	)
	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifyDelivered tells the admin chat an order was delivered and how many
// points it earned.
func (s *TelegramService) NotifyDelivered(order models.Order, points decimal.Decimal) error {
	message := fmt.Sprintf(`<b>✅ ĐÃ GIAO</b>
<b>Khách:</b> %s
<b>Sản phẩm:</b> %s
<b>Giá:</b> %s
<b>Điểm cộng:</b> %s`,
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.Product),
		FormatPrice(order.Amount),
		points.StringFixed(2),
	)
	return s.SendToAdmin(strings.TrimSpace(message))
}
