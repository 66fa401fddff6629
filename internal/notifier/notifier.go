package notifier

import (
	"context"
	"fmt"
	"log"

	"github.com/chartsnap/chartsnap/internal/config"
	"github.com/chartsnap/chartsnap/internal/notifier/providers"
)

// Notifier handles delivering captured screenshots and reports
type Notifier struct {
	sender Sender
}

// Sender defines the interface for screenshot delivery
type Sender interface {
	SendPhoto(ctx context.Context, path, caption string) error
	SendDocument(ctx context.Context, path, caption string) error
	SendMessage(ctx context.Context, text string) error
}

// New creates a new notifier with the given sender
func New(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// NewFromConfig creates a notifier based on configuration
func NewFromConfig(cfg config.TelegramConfig) (*Notifier, error) {
	sender, err := providers.NewTelegramSender(cfg.Token, cfg.ChatID)
	if err != nil {
		return nil, fmt.Errorf("telegram sender: %w", err)
	}
	return New(sender), nil
}

// SendCapture delivers a screenshot, trying the photo endpoint first and
// falling back to a document upload. Telegram re-encodes photos and rejects
// oversized ones; the document path keeps the image pixel-exact.
func (n *Notifier) SendCapture(ctx context.Context, path, caption string) error {
	err := n.sender.SendPhoto(ctx, path, caption)
	if err == nil {
		return nil
	}

	log.Printf("[notifier] sendPhoto failed (%v), retrying as document", err)
	if docErr := n.sender.SendDocument(ctx, path, caption); docErr != nil {
		return fmt.Errorf("photo failed (%v); document failed: %w", err, docErr)
	}
	return nil
}

// SendReport delivers a plain-text report message.
func (n *Notifier) SendReport(ctx context.Context, text string) error {
	return n.sender.SendMessage(ctx, text)
}
