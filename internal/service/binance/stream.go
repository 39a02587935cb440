package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"DayTrader/pkg/logger"
	"DayTrader/pkg/util"

	"github.com/gorilla/websocket"
)

// Stream implements repository.PriceStream on the combined miniTicker stream.
type Stream struct {
	streamURL      string
	symbols        []string
	reconnectDelay time.Duration
	readTimeout    time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream subscribes to symbols on streamURL (e.g. wss://stream.binance.com:9443/stream).
func NewStream(streamURL string, symbols []string, log *logger.Logger) *Stream {
	if log == nil {
		log = logger.Nop()
	}
	return &Stream{
		streamURL:      streamURL,
		symbols:        symbols,
		reconnectDelay: 5 * time.Second,
		readTimeout:    3 * time.Minute,
		log:            log,
	}
}

type miniTicker struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

type combinedMessage struct {
	Stream string     `json:"stream"`
	Data   miniTicker `json:"data"`
}

// URL is the combined-stream address for the configured symbols.
func (s *Stream) URL() (string, error) {
	if len(s.symbols) == 0 {
		return "", errors.New("binance stream: no symbols")
	}
	u, err := url.Parse(s.streamURL)
	if err != nil {
		return "", fmt.Errorf("binance stream url: %w", err)
	}
	names := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		names[i] = strings.ToLower(sym) + "@miniTicker"
	}
	q := u.Query()
	q.Set("streams", strings.Join(names, "/"))
	u.RawQuery = q.Encode()
	// stream names use '/' and '@' which Binance expects unescaped
	u.RawQuery = strings.NewReplacer("%2F", "/", "%40", "@").Replace(u.RawQuery)
	return u.String(), nil
}

// Run connects, reconnecting after failures, until ctx is done.
func (s *Stream) Run(ctx context.Context, onPrice func(symbol string, price float64, at time.Time)) error {
	addr, err := s.URL()
	if err != nil {
		return err
	}
	for {
		err := s.session(ctx, addr, onPrice)
		if ctx.Err() != nil {
			return nil
		}
		s.log.Warn("binance stream disconnected",
			logger.Error(err),
			logger.Duration("retry_in_ms", s.reconnectDelay),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) session(ctx context.Context, addr string, onPrice func(string, float64, time.Time)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("binance stream dial: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.log.Info("binance stream connected", logger.Int("symbols", len(s.symbols)))

	// unblock ReadMessage on shutdown
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-stop:
		}
	}()
	defer s.Close()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("binance stream read: %w", err)
		}
		var m combinedMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Data.Symbol == "" {
			continue
		}
		p, err := util.ParseFloat(m.Data.Close)
		if err != nil {
			continue
		}
		onPrice(m.Data.Symbol, p, util.FromUnix(m.Data.EventTime))
	}
}

// Close drops the current connection. Run reconnects unless its context is done.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
