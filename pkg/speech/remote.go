package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-wayfinder/pkg/protocol"
)

const (
	remoteHandshakeTimeout = 10 * time.Second
	remoteWriteTimeout     = 5 * time.Second
	reconnectBaseDelay     = 1 * time.Second
	reconnectMaxDelay      = 30 * time.Second
)

// RemoteOption configures a RemoteSynthesizer.
type RemoteOption func(*RemoteSynthesizer)

// WithRemoteLanguage sets the language tag sent with every utterance.
func WithRemoteLanguage(lang string) RemoteOption {
	return func(r *RemoteSynthesizer) {
		r.language = lang
	}
}

// WithRemoteLogger sets the structured logger.
func WithRemoteLogger(logger *slog.Logger) RemoteOption {
	return func(r *RemoteSynthesizer) {
		r.logger = logger
	}
}

// WithReconnect enables background reconnection after the link drops.
func WithReconnect(enabled bool) RemoteOption {
	return func(r *RemoteSynthesizer) {
		r.reconnect = enabled
	}
}

// RemoteSynthesizer forwards utterances to a speaker device over a
// WebSocket, as protocol speak and stop messages.
type RemoteSynthesizer struct {
	url       string
	language  string
	reconnect bool
	logger    *slog.Logger

	connMu       sync.Mutex
	conn         *websocket.Conn
	connected    bool
	reconnecting bool

	backoff time.Duration // first retry delay, doubled up to reconnectMaxDelay

	ctx     context.Context
	cancel  context.CancelFunc
	closeCh chan struct{}
	once    sync.Once
}

// NewRemoteSynthesizer creates a synthesizer for the device at url
// (ws:// or wss://). Init dials it.
func NewRemoteSynthesizer(url string, opts ...RemoteOption) (*RemoteSynthesizer, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	r := &RemoteSynthesizer{
		url:     url,
		logger:  slog.Default(),
		backoff: reconnectBaseDelay,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.logger = r.logger.With("component", "speech.remote")
	return r, nil
}

// Init dials the device and starts reading its messages. With reconnect
// enabled a failed dial is retried with backoff until ctx is done or the
// synthesizer is closed; otherwise the first failure is returned.
func (r *RemoteSynthesizer) Init(ctx context.Context) error {
	delay := r.backoff
	for {
		err := r.dial(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return WrapError("remote", "init", errors.Join(ctx.Err(), err))
		}
		if !r.reconnect {
			return WrapError("remote", "init", err)
		}

		r.logger.Warn("speaker unavailable, retrying", "error", err, "delay", delay)
		select {
		case <-ctx.Done():
			return WrapError("remote", "init", errors.Join(ctx.Err(), err))
		case <-r.ctx.Done():
			return WrapError("remote", "init", ErrShutdown)
		case <-time.After(delay):
		}
		delay = nextDelay(delay)
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > reconnectMaxDelay {
		d = reconnectMaxDelay
	}
	return d
}

// dial establishes the WebSocket connection.
func (r *RemoteSynthesizer) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: remoteHandshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	r.connMu.Lock()
	if r.ctx.Err() != nil {
		r.connMu.Unlock()
		conn.Close()
		return ErrShutdown
	}
	r.conn = conn
	r.connected = true
	r.connMu.Unlock()

	r.logger.Info("speaker connected", "url", r.url)
	go r.readLoop(conn)
	return nil
}

// Speak sends a flushing speak message.
func (r *RemoteSynthesizer) Speak(text, utteranceID string) error {
	msg, err := protocol.NewSpeakMessage(utteranceID, text, r.language)
	if err != nil {
		return WrapError("remote", "speak", err)
	}
	return WrapError("remote", "speak", r.send(msg))
}

// Stop sends a stop message.
func (r *RemoteSynthesizer) Stop() error {
	msg, err := protocol.NewStopMessage()
	if err != nil {
		return WrapError("remote", "stop", err)
	}
	err = r.send(msg)
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return WrapError("remote", "stop", err)
}

func (r *RemoteSynthesizer) send(msg *protocol.Message) error {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	if !r.connected || r.conn == nil {
		return ErrNotConnected
	}
	_ = r.conn.SetWriteDeadline(time.Now().Add(remoteWriteTimeout))
	if err := r.conn.WriteJSON(msg); err != nil {
		go r.handleDisconnect(r.conn)
		return err
	}
	return nil
}

// readLoop answers pings and watches for disconnects.
func (r *RemoteSynthesizer) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-r.closeCh:
				return
			default:
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn("speaker read error", "error", err)
			}
			r.handleDisconnect(conn)
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			r.logger.Debug("ignoring malformed message", "error", err)
			continue
		}
		switch msg.Type {
		case protocol.TypePing:
			ping, err := msg.GetPingData()
			if err != nil {
				continue
			}
			pong, err := protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())
			if err == nil {
				_ = r.send(pong)
			}
		case protocol.TypeError:
			if e, err := msg.GetErrorData(); err == nil {
				r.logger.Warn("speaker reported error", "message", e.Message)
			}
		}
	}
}

// handleDisconnect drops conn and, if enabled, starts reconnecting. A
// connection that was already replaced is left alone.
func (r *RemoteSynthesizer) handleDisconnect(conn *websocket.Conn) {
	r.connMu.Lock()
	if r.conn != conn {
		r.connMu.Unlock()
		return
	}
	r.conn.Close()
	r.conn = nil
	r.connected = false
	wasReconnecting := r.reconnecting
	start := r.reconnect && !wasReconnecting
	if start {
		r.reconnecting = true
	}
	r.connMu.Unlock()

	if start {
		go r.reconnectLoop()
	}
}

// reconnectLoop attempts to reconnect with exponential backoff.
func (r *RemoteSynthesizer) reconnectLoop() {
	delay := r.backoff
	defer func() {
		r.connMu.Lock()
		r.reconnecting = false
		r.connMu.Unlock()
	}()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(delay):
		}

		if err := r.dial(r.ctx); err != nil {
			r.logger.Warn("reconnect failed", "error", err, "delay", delay)
			delay = nextDelay(delay)
			continue
		}
		r.logger.Info("reconnected")
		return
	}
}

// IsConnected returns true if the WebSocket is connected.
func (r *RemoteSynthesizer) IsConnected() bool {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	return r.connected
}

// Close terminates the WebSocket connection.
func (r *RemoteSynthesizer) Close() error {
	r.once.Do(func() {
		r.cancel()
		close(r.closeCh)
	})

	r.connMu.Lock()
	defer r.connMu.Unlock()

	if r.conn != nil {
		_ = r.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		r.conn.Close()
		r.conn = nil
	}
	r.connected = false
	return nil
}

var _ Synthesizer = (*RemoteSynthesizer)(nil)
