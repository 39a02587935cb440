package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DayTrader/internal/domain/models"
	domrepo "DayTrader/internal/domain/repository"
	pkghttp "DayTrader/pkg/http"
)

const whatsappName = "whatsapp"

// WhatsAppChannel posts to a WhatsApp HTTP gateway.
// Numbers are international digits; the gateway addresses them as <number>@c.us.
type WhatsAppChannel struct {
	client   *pkghttp.Client
	baseURL  string
	token    string
	phone    string
	attempts int
}

var _ domrepo.Channel = (*WhatsAppChannel)(nil)

type waText struct {
	ChatID string `json:"chatId"`
	Text   string `json:"text"`
}

type waFile struct {
	MimeType string `json:"mimetype"`
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

type waImage struct {
	ChatID  string `json:"chatId"`
	Caption string `json:"caption,omitempty"`
	File    waFile `json:"file"`
}

func NewWhatsAppChannel(baseURL, token, phone string, attempts int, timeout time.Duration) (*WhatsAppChannel, error) {
	if baseURL == "" {
		return nil, errors.New("whatsapp: gateway url is required")
	}
	return &WhatsAppChannel{
		client:   pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		phone:    phone,
		attempts: attempts,
	}, nil
}

func (w *WhatsAppChannel) Name() string             { return whatsappName }
func (w *WhatsAppChannel) DefaultRecipient() string { return w.phone }

func (w *WhatsAppChannel) SendText(ctx context.Context, recipient, text string) error {
	return w.post(ctx, "/sendText", recipient, waText{ChatID: chatAddress(recipient), Text: text})
}

// SendImage inlines the PNG as base64; the gateway has no access to local paths.
func (w *WhatsAppChannel) SendImage(ctx context.Context, recipient, imagePath, caption string) error {
	b, err := os.ReadFile(imagePath)
	if err != nil {
		return &models.TransportError{Channel: whatsappName, Recipient: recipient, Err: fmt.Errorf("read image: %w", err)}
	}
	return w.post(ctx, "/sendImage", recipient, waImage{
		ChatID:  chatAddress(recipient),
		Caption: caption,
		File: waFile{
			MimeType: "image/png",
			Filename: filepath.Base(imagePath),
			Data:     base64.StdEncoding.EncodeToString(b),
		},
	})
}

func (w *WhatsAppChannel) post(ctx context.Context, path, recipient string, payload interface{}) error {
	if recipient == "" {
		return &models.TransportError{Channel: whatsappName, Err: errors.New("no recipient")}
	}
	headers := map[string]string{}
	if w.token != "" {
		headers["Authorization"] = "Bearer " + w.token
	}
	if err := w.client.PostJSONWithRetry(ctx, w.baseURL+path, headers, payload, nil, w.attempts); err != nil {
		return &models.TransportError{Channel: whatsappName, Recipient: recipient, Err: err}
	}
	return nil
}

func chatAddress(number string) string {
	number = strings.TrimPrefix(strings.TrimSpace(number), "+")
	if strings.Contains(number, "@") {
		return number
	}
	return number + "@c.us"
}
