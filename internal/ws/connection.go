package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chargehub/internal/ocpp"
)

// CallProcessor handles charge-point initiated CALL frames.
type CallProcessor interface {
	ProcessCall(ctx context.Context, chargeBoxID string, frame *ocpp.Frame, raw []byte) ([]byte, error)
}

// ResultFunc receives the outcome of one central-system initiated call.
// Invoked exactly once: either with the CALLRESULT payload, or with an error
// covering CALLERROR, timeout and connection loss.
type ResultFunc func(payload json.RawMessage, err error)

// Connection represents an active charge box WebSocket connection.
type Connection struct {
	chargeBoxID  string
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	processor    CallProcessor
	writeTimeout time.Duration
	callTimeout  time.Duration
	onClose      func(chargeBoxID string)

	pendingMu sync.Mutex
	pending   map[string]ResultFunc
	closed    bool
}

// NewConnection builds connection wrapper.
func NewConnection(chargeBoxID string, ws *websocket.Conn, processor CallProcessor, writeTimeout, callTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Connection {
	return &Connection{
		chargeBoxID:  chargeBoxID,
		ws:           ws,
		send:         make(chan []byte, 16),
		logger:       logger,
		processor:    processor,
		writeTimeout: writeTimeout,
		callTimeout:  callTimeout,
		onClose:      onClose,
		pending:      make(map[string]ResultFunc),
	}
}

// ChargeBoxID returns identifier.
func (c *Connection) ChargeBoxID() string {
	return c.chargeBoxID
}

// SendCall issues a CALL to the charge box. The callback is registered before
// the frame is handed to the write pump, so a fast response cannot race past
// an unregistered callback. Registration and enqueue happen under pendingMu,
// which orders the enqueue against cleanup closing the channel.
func (c *Connection) SendCall(action string, payload interface{}, onResult ResultFunc) error {
	uniqueID := uuid.NewString()
	frame, err := ocpp.BuildCall(uniqueID, action, payload)
	if err != nil {
		return err
	}

	c.pendingMu.Lock()
	if c.closed {
		c.pendingMu.Unlock()
		return fmt.Errorf("ws: connection to %s closed", c.chargeBoxID)
	}
	c.pending[uniqueID] = onResult
	select {
	case c.send <- frame:
	default:
		delete(c.pending, uniqueID)
		c.pendingMu.Unlock()
		return fmt.Errorf("ws: send buffer to %s full", c.chargeBoxID)
	}
	c.pendingMu.Unlock()

	if c.callTimeout > 0 {
		time.AfterFunc(c.callTimeout, func() {
			c.resolve(uniqueID, nil, fmt.Errorf("ws: call %s timed out after %s", action, c.callTimeout))
		})
	}
	return nil
}

// resolve fires a pending callback at most once.
func (c *Connection) resolve(uniqueID string, payload json.RawMessage, err error) {
	c.pendingMu.Lock()
	cb, ok := c.pending[uniqueID]
	if ok {
		delete(c.pending, uniqueID)
	}
	c.pendingMu.Unlock()

	if ok && (payload != nil || err != nil) {
		cb(payload, err)
	}
}

// Start launches read/write pumps.
func (c *Connection) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Connection) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(1024 * 1024)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Info("connection read closed", zap.String("charge_box_id", c.chargeBoxID), zap.Error(err))
			return
		}

		c.handleFrame(ctx, message)
	}
}

func (c *Connection) handleFrame(ctx context.Context, raw []byte) {
	frame, err := ocpp.ParseFrame(raw)
	if err != nil {
		c.logger.Warn("dropping malformed frame", zap.String("charge_box_id", c.chargeBoxID), zap.Error(err))
		return
	}

	switch frame.MessageType {
	case ocpp.MessageTypeCall:
		response, err := c.processor.ProcessCall(ctx, c.chargeBoxID, frame, raw)
		if err != nil {
			c.logger.Warn("failed to process call", zap.String("charge_box_id", c.chargeBoxID), zap.Error(err))
			return
		}
		if response != nil {
			c.Send(response)
		}
	case ocpp.MessageTypeCallResult:
		c.resolve(frame.UniqueID, frame.Payload, nil)
	case ocpp.MessageTypeCallError:
		c.resolve(frame.UniqueID, nil, fmt.Errorf("ws: device error %s: %s", frame.ErrorCode, frame.ErrorDescription))
	}
}

func (c *Connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message for writing.
func (c *Connection) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("attempted to send on closed channel", zap.String("charge_box_id", c.chargeBoxID))
		}
	}()
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping outgoing message, buffer full", zap.String("charge_box_id", c.chargeBoxID))
	}
}

// Ping sends ping.
func (c *Connection) Ping() error {
	return c.write(websocket.PingMessage, []byte("ping"))
}

func (c *Connection) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Connection) cleanup() {
	c.pendingMu.Lock()
	c.closed = true
	orphaned := c.pending
	c.pending = make(map[string]ResultFunc)
	c.pendingMu.Unlock()

	for _, cb := range orphaned {
		cb(nil, fmt.Errorf("ws: connection to %s closed", c.chargeBoxID))
	}

	close(c.send)
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c.chargeBoxID)
	}
}
