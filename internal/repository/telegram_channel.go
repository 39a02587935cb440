package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
)

const telegramName = "telegram"

// TelegramChannel sends reports through a bot. Recipients are numeric chat IDs or @channel names.
type TelegramChannel struct {
	bot    *tgbot.BotAPI
	chatID string
}

var _ domrepo.Channel = (*TelegramChannel)(nil)

// NewTelegramChannel verifies the token with getMe. An empty apiURL uses api.telegram.org.
func NewTelegramChannel(token, chatID, apiURL string, timeout time.Duration) (*TelegramChannel, error) {
	if token == "" {
		return nil, errors.New("telegram: token is required")
	}
	endpoint := tgbot.APIEndpoint
	if apiURL != "" {
		endpoint = strings.TrimRight(apiURL, "/") + "/bot%s/%s"
	}
	bot, err := tgbot.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (t *TelegramChannel) Name() string             { return telegramName }
func (t *TelegramChannel) DefaultRecipient() string { return t.chatID }

func (t *TelegramChannel) SendText(ctx context.Context, recipient, text string) error {
	var msg tgbot.MessageConfig
	if id, ok := chatID(recipient); ok {
		msg = tgbot.NewMessage(id, text)
	} else {
		msg = tgbot.NewMessageToChannel(recipient, text)
	}
	return t.send(ctx, recipient, msg)
}

func (t *TelegramChannel) SendImage(ctx context.Context, recipient, imagePath, caption string) error {
	file := tgbot.FilePath(imagePath)
	var photo tgbot.PhotoConfig
	if id, ok := chatID(recipient); ok {
		photo = tgbot.NewPhoto(id, file)
	} else {
		photo = tgbot.NewPhotoToChannel(recipient, file)
	}
	photo.Caption = caption
	return t.send(ctx, recipient, photo)
}

// send runs the blocking bot call so the caller's deadline still applies.
func (t *TelegramChannel) send(ctx context.Context, recipient string, c tgbot.Chattable) error {
	if recipient == "" {
		return &models.TransportError{Channel: telegramName, Err: errors.New("no recipient")}
	}
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(c)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return &models.TransportError{Channel: telegramName, Recipient: recipient, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &models.TransportError{Channel: telegramName, Recipient: recipient, Err: ctx.Err()}
	}
}

func chatID(recipient string) (int64, bool) {
	id, err := strconv.ParseInt(recipient, 10, 64)
	return id, err == nil
}
