package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender delivers files and messages through the Telegram Bot API
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender creates a sender for the given bot token and chat id.
// Constructing the client validates the token against the getMe endpoint.
func NewTelegramSender(token, chatID string) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	return &TelegramSender{bot: bot, chatID: id}, nil
}

// BotName returns the username of the authenticated bot.
func (s *TelegramSender) BotName() string {
	return s.bot.Self.UserName
}

// SendPhoto uploads an image via sendPhoto
func (s *TelegramSender) SendPhoto(ctx context.Context, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileReader{
		Name:   filepath.Base(path),
		Reader: f,
	})
	photo.Caption = caption

	if _, err := s.bot.Send(photo); err != nil {
		return fmt.Errorf("sendPhoto: %w", err)
	}
	return nil
}

// SendDocument uploads a file via sendDocument, preserving the original bytes
func (s *TelegramSender) SendDocument(ctx context.Context, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(s.chatID, tgbotapi.FileReader{
		Name:   filepath.Base(path),
		Reader: f,
	})
	doc.Caption = caption

	if _, err := s.bot.Send(doc); err != nil {
		return fmt.Errorf("sendDocument: %w", err)
	}
	return nil
}

// SendMessage sends a plain text message
func (s *TelegramSender) SendMessage(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}
