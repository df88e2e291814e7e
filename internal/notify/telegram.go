// Package notify pushes operator alerts to a Telegram admin channel. The
// integration is one-way: the bot announces new and escalated complaints and
// never reads updates.
package notify

import (
	"fmt"
	"log"

	"civicpulse/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const sendQueue = 64

// TelegramNotifier implements complaints.Notifier over the Telegram Bot API.
// Messages are queued and sent from a single goroutine so callers never block
// on the network.
type TelegramNotifier struct {
	BotAPI *tgbotapi.BotAPI
	ChatID int64

	sendCh chan tgbotapi.Chattable
}

// NewTelegramNotifier authorizes the bot and starts its send loop. chatID is
// the admin group the alerts go to.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	n := &TelegramNotifier{
		BotAPI: bot,
		ChatID: chatID,
		sendCh: make(chan tgbotapi.Chattable, sendQueue),
	}
	go n.writePump()
	return n, nil
}

func (n *TelegramNotifier) writePump() {
	for msg := range n.sendCh {
		if _, err := n.BotAPI.Send(msg); err != nil {
			log.Printf("ERROR: Failed to send Telegram notification: %v", err)
		}
	}
}

func (n *TelegramNotifier) enqueue(text string) {
	msg := tgbotapi.NewMessage(n.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	select {
	case n.sendCh <- msg:
	default:
		// Alerts are advisory. Dropping beats blocking the request path.
		log.Printf("WARN: Telegram notification queue full, dropping alert")
	}
}

// ComplaintCreated announces a freshly filed complaint.
func (n *TelegramNotifier) ComplaintCreated(c *models.Complaint) {
	n.enqueue(fmt.Sprintf(
		"📢 *New complaint*\n*%s*\nCategory: %s\nArea: %s\nBy: %s",
		c.Title, c.Category, c.Area, c.UserName))
}

// ComplaintEscalated announces a complaint raised to critical priority.
func (n *TelegramNotifier) ComplaintEscalated(c *models.Complaint, priority models.Priority) {
	n.enqueue(fmt.Sprintf(
		"🚨 *Complaint escalated to %s*\n*%s*\nStatus: %s\nArea: %s",
		priority, c.Title, c.Status, c.Area))
}
