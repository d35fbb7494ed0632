package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chargehub/internal/presence"
)

// Server upgrades HTTP connections to WebSockets for OCPP-J charge points.
type Server struct {
	manager      *Manager
	processor    CallProcessor
	presence     *presence.Store
	logger       *zap.Logger
	writeTimeout time.Duration
	callTimeout  time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(manager *Manager, processor CallProcessor, presenceStore *presence.Store, writeTimeout, callTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		manager:      manager,
		processor:    processor,
		presence:     presenceStore,
		logger:       logger,
		writeTimeout: writeTimeout,
		callTimeout:  callTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{"ocpp1.6"},
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is the HTTP handler for /ocpp/{chargeBoxId}.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	chargeBoxID := strings.TrimPrefix(r.URL.Path, "/ocpp/")
	if chargeBoxID == "" || strings.Contains(chargeBoxID, "/") {
		http.Error(w, "charge box id is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	connection := NewConnection(chargeBoxID, conn, s.processor, s.writeTimeout, s.callTimeout, s.logger, func(id string) {
		s.manager.Remove(id)
		_ = s.presence.MarkOffline(context.Background(), id)
		cancel()
	})
	s.manager.Add(connection)
	_ = s.presence.MarkOnline(ctx, chargeBoxID, conn.Subprotocol())

	go connection.Start(ctx)
	s.logger.Info("charge point connected",
		zap.String("charge_box_id", chargeBoxID),
		zap.String("subprotocol", conn.Subprotocol()))
}
