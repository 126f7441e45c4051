// Package notify tells operators about booking outcomes over Telegram.
package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dushyant-singh-taptalent/taptalent-calendar/internal/events"
)

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts booking events to a Telegram chat.
type Notifier struct {
	sender Sender
	chatID int64
	loc    *time.Location
	logger *zerolog.Logger
}

type attempt struct {
	ProfileID string `json:"profileId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Slot      struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"slot"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// NewTelegram connects to the bot API. endpoint may be empty for the public API.
func NewTelegram(token, endpoint string, chatID int64, loc *time.Location, logger *zerolog.Logger) (*Notifier, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return New(api, chatID, loc, logger), nil
}

// New wraps an existing sender.
func New(sender Sender, chatID int64, loc *time.Location, logger *zerolog.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Notifier{sender: sender, chatID: chatID, loc: loc, logger: logger}
}

// Handler returns an events handler sending one message per event.
func (n *Notifier) Handler() events.Handler {
	return func(e events.Event) error {
		var a attempt
		if err := e.Decode(&a); err != nil {
			return fmt.Errorf("decode %s: %w", e.Type, err)
		}
		msg := tgbotapi.NewMessage(n.chatID, n.format(e.Type, a))
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Warn().Err(err).Str("event", e.ID).Msg("telegram notify failed")
			return err
		}
		return nil
	}
}

func (n *Notifier) format(eventType string, a attempt) string {
	var b strings.Builder
	switch eventType {
	case events.BookingSucceeded:
		b.WriteString("New booking")
	default:
		b.WriteString("Booking failed")
	}
	fmt.Fprintf(&b, " for %s\n", a.ProfileID)
	fmt.Fprintf(&b, "%s <%s>\n", a.Name, a.Email)
	fmt.Fprintf(&b, "%s - %s", a.Slot.Start.In(n.loc).Format("02.01.2006 15:04"), a.Slot.End.In(n.loc).Format("15:04"))
	if a.Error != "" {
		fmt.Fprintf(&b, "\nStatus: %s\nError: %s", a.Status, a.Error)
	}
	return b.String()
}
