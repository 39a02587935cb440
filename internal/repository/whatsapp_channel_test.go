package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"DayTrader/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppSendText(t *testing.T) {
	var got waText
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendText", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch, err := NewWhatsAppChannel(srv.URL+"/", "secret", "5511999999999", 1, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", ch.Name())

	require.NoError(t, ch.SendText(context.Background(), "+5511999999999", "hi"))
	assert.Equal(t, waText{ChatID: "5511999999999@c.us", Text: "hi"}, got)
}

func TestWhatsAppSendImageInlinesFile(t *testing.T) {
	var got waImage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendImage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "EURUSD=X_15m.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	ch, err := NewWhatsAppChannel(srv.URL, "", "1", 1, time.Second)
	require.NoError(t, err)
	require.NoError(t, ch.SendImage(context.Background(), "123", path, "cap"))

	assert.Equal(t, "123@c.us", got.ChatID)
	assert.Equal(t, "cap", got.Caption)
	assert.Equal(t, "EURUSD=X_15m.png", got.File.Filename)
	data, err := base64.StdEncoding.DecodeString(got.File.Data)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestWhatsAppRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch, err := NewWhatsAppChannel(srv.URL, "", "1", 3, time.Second)
	require.NoError(t, err)
	require.NoError(t, ch.SendText(context.Background(), "1", "x"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestWhatsAppFailuresAreTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ch, err := NewWhatsAppChannel(srv.URL, "", "1", 3, time.Second)
	require.NoError(t, err)

	var terr *models.TransportError
	assert.True(t, errors.As(ch.SendText(context.Background(), "1", "x"), &terr))
	assert.True(t, errors.As(ch.SendImage(context.Background(), "1", "/does/not/exist.png", ""), &terr))
	assert.True(t, errors.As(ch.SendText(context.Background(), "", "x"), &terr))

	_, err = NewWhatsAppChannel("", "", "", 1, time.Second)
	assert.Error(t, err)
}
