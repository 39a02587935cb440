package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"DayTrader/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tgCall struct {
	Method  string
	ChatID  string
	Text    string
	Caption string
	HasFile bool
}

type fakeTelegram struct {
	mu    sync.Mutex
	calls []tgCall
	fail  bool
}

func (f *fakeTelegram) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if !assert.Len(t, parts, 2) {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "botTOKEN", parts[0])
		method := parts[1]

		w.Header().Set("Content-Type", "application/json")
		if method == "getMe" {
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"daytrader","username":"daytrader_bot"}}`)
			return
		}

		call := tgCall{Method: method, ChatID: r.FormValue("chat_id"), Text: r.FormValue("text"), Caption: r.FormValue("caption")}
		if r.MultipartForm != nil {
			_, call.HasFile = r.MultipartForm.File["photo"]
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		f.mu.Unlock()

		if f.fail {
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	}
}

func (f *fakeTelegram) Calls() []tgCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgCall(nil), f.calls...)
}

func newTelegram(t *testing.T, fake *fakeTelegram) *TelegramChannel {
	t.Helper()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	ch, err := NewTelegramChannel("TOKEN", "42", srv.URL, 5*time.Second)
	require.NoError(t, err)
	return ch
}

func TestTelegramSendText(t *testing.T) {
	fake := &fakeTelegram{}
	ch := newTelegram(t, fake)
	assert.Equal(t, "telegram", ch.Name())
	assert.Equal(t, "42", ch.DefaultRecipient())

	require.NoError(t, ch.SendText(context.Background(), "42", "hello"))
	require.NoError(t, ch.SendText(context.Background(), "@alerts", "to channel"))

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, tgCall{Method: "sendMessage", ChatID: "42", Text: "hello"}, calls[0])
	assert.Equal(t, "@alerts", calls[1].ChatID)
}

func TestTelegramSendImage(t *testing.T) {
	fake := &fakeTelegram{}
	ch := newTelegram(t, fake)

	path := filepath.Join(t.TempDir(), "BTCUSDT_4h.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0o644))

	require.NoError(t, ch.SendImage(context.Background(), "42", path, "caption here"))
	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendPhoto", calls[0].Method)
	assert.Equal(t, "42", calls[0].ChatID)
	assert.Equal(t, "caption here", calls[0].Caption)
	assert.True(t, calls[0].HasFile)
}

func TestTelegramErrorsAreTransportErrors(t *testing.T) {
	fake := &fakeTelegram{fail: true}
	ch := newTelegram(t, fake)

	err := ch.SendText(context.Background(), "42", "x")
	var terr *models.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, "telegram", terr.Channel)
	assert.Equal(t, "42", terr.Recipient)

	err = ch.SendText(context.Background(), "", "x")
	assert.True(t, errors.As(err, &terr))
}

func TestTelegramRequiresToken(t *testing.T) {
	_, err := NewTelegramChannel("", "1", "", time.Second)
	assert.Error(t, err)
}
