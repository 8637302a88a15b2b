package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-wayfinder/pkg/navigation"
	"github.com/teslashibe/go-wayfinder/pkg/protocol"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

// ErrNoDevices is returned when speaking with no device connected.
var ErrNoDevices = errors.New("server: no devices connected")

// Device is a connected detector/speaker host.
type Device struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send sends a message to the device
func (d *Device) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Conn.WriteMessage(websocket.TextMessage, data)
}

func (d *Device) touch() {
	d.mu.Lock()
	d.LastSeen = time.Now()
	d.mu.Unlock()
}

// DeviceInfo contains info about a connected device
type DeviceInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"lastSeen"`
}

// DeviceHub manages device connections. Devices stream detection batches
// in and receive results back. DeviceHub also implements
// speech.Synthesizer: utterances are sent to every connected device, and
// Init blocks until the first device connects.
type DeviceHub struct {
	mu       sync.RWMutex
	devices  map[string]*Device
	nav      *navigation.Navigator
	logger   *slog.Logger
	onResult func(protocol.ProcessResult)

	firstOnce sync.Once
	first     chan struct{}

	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
}

// NewDeviceHub creates a device hub that processes batches with nav.
func NewDeviceHub(nav *navigation.Navigator, logger *slog.Logger) *DeviceHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeviceHub{
		devices: make(map[string]*Device),
		nav:     nav,
		logger:  logger.With("component", "server.devices"),
		first:   make(chan struct{}),
	}
}

// OnResult sets the callback for every processed batch
func (h *DeviceHub) OnResult(callback func(protocol.ProcessResult)) {
	h.mu.Lock()
	h.onResult = callback
	h.mu.Unlock()
}

// RegisterRoutes registers the device WebSocket routes on a Fiber app.
// The /ws upgrade guard is installed by the server.
func (h *DeviceHub) RegisterRoutes(app *fiber.App) {
	app.Get("/ws/device", websocket.New(h.handleDevice))
	app.Get("/ws/device/:id", websocket.New(h.handleDevice))
}

// handleDevice handles a device WebSocket connection
func (h *DeviceHub) handleDevice(c *websocket.Conn) {
	deviceID := c.Params("id")
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	now := time.Now()
	device := &Device{ID: deviceID, Conn: c, Connected: now, LastSeen: now}

	h.mu.Lock()
	if old, ok := h.devices[deviceID]; ok {
		old.Conn.Close()
	}
	h.devices[deviceID] = device
	count := len(h.devices)
	h.mu.Unlock()

	h.firstOnce.Do(func() { close(h.first) })
	h.logger.Info("device connected", "device_id", deviceID, "devices", count)

	defer func() {
		h.mu.Lock()
		if h.devices[deviceID] == device {
			delete(h.devices, deviceID)
		}
		count := len(h.devices)
		h.mu.Unlock()
		h.logger.Info("device disconnected", "device_id", deviceID, "devices", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("device read error", "device_id", deviceID, "error", err)
			}
			return
		}
		device.touch()
		h.messagesReceived.Add(1)
		h.handleMessage(device, data)
	}
}

// handleMessage processes an incoming message from a device
func (h *DeviceHub) handleMessage(device *Device, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.logger.Debug("parse error", "device_id", device.ID, "error", err)
		h.reply(device, messageOrNil(protocol.NewErrorMessage("", err.Error())))
		return
	}

	switch msg.Type {
	case protocol.TypeDetections:
		req, err := msg.GetProcessRequest()
		if err != nil {
			h.reply(device, messageOrNil(protocol.NewErrorMessage("", err.Error())))
			return
		}
		h.process(device, req)

	case protocol.TypeReset:
		h.nav.Reset()

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return
		}
		h.reply(device, messageOrNil(protocol.NewPongMessage(ping.ID, ping.Timestamp, time.Now().UnixMilli())))

	case protocol.TypePong:
		// LastSeen already updated

	default:
		h.logger.Debug("ignoring message", "device_id", device.ID, "type", msg.Type)
	}
}

func (h *DeviceHub) process(device *Device, req *protocol.ProcessRequest) {
	requestID := uuid.NewString()

	res, err := h.nav.Process(req.Input())
	if err != nil {
		h.reply(device, messageOrNil(protocol.NewErrorMessage(requestID, err.Error())))
		return
	}

	out := protocol.NewProcessResult(requestID, res)
	h.reply(device, messageOrNil(protocol.NewMessage(protocol.TypeResult, out)))

	h.mu.RLock()
	cb := h.onResult
	h.mu.RUnlock()
	if cb != nil {
		cb(out)
	}
}

func (h *DeviceHub) reply(device *Device, msg *protocol.Message) {
	if msg == nil {
		return
	}
	h.messagesSent.Add(1)
	if err := device.Send(msg); err != nil {
		h.logger.Debug("send failed", "device_id", device.ID, "error", err)
	}
}

// Broadcast sends a message to all connected devices and returns how many
// received it.
func (h *DeviceHub) Broadcast(msg *protocol.Message) int {
	h.mu.RLock()
	devices := make([]*Device, 0, len(h.devices))
	for _, d := range h.devices {
		devices = append(devices, d)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, d := range devices {
		h.messagesSent.Add(1)
		if err := d.Send(msg); err != nil {
			h.logger.Debug("broadcast error", "device_id", d.ID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// DeviceCount returns the number of connected devices
func (h *DeviceHub) DeviceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.devices)
}

// DeviceInfos returns info about all connected devices
func (h *DeviceHub) DeviceInfos() []DeviceInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]DeviceInfo, 0, len(h.devices))
	for _, d := range h.devices {
		d.mu.Lock()
		infos = append(infos, DeviceInfo{ID: d.ID, Connected: d.Connected, LastSeen: d.LastSeen})
		d.mu.Unlock()
	}
	return infos
}

// Init blocks until the first device connects.
func (h *DeviceHub) Init(ctx context.Context) error {
	select {
	case <-h.first:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Speak sends a flushing speak message to every connected device.
func (h *DeviceHub) Speak(text, utteranceID string) error {
	msg, err := protocol.NewSpeakMessage(utteranceID, text, h.nav.Config().Phrases.Language)
	if err != nil {
		return err
	}
	if h.Broadcast(msg) == 0 {
		return ErrNoDevices
	}
	return nil
}

// Stop interrupts speech on every connected device.
func (h *DeviceHub) Stop() error {
	msg, err := protocol.NewStopMessage()
	if err != nil {
		return err
	}
	h.Broadcast(msg)
	return nil
}

// Close disconnects all devices.
func (h *DeviceHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.devices {
		d.Conn.Close()
	}
	return nil
}

func messageOrNil(msg *protocol.Message, err error) *protocol.Message {
	if err != nil {
		return nil
	}
	return msg
}

var _ speech.Synthesizer = (*DeviceHub)(nil)
