package ocpp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// HandlerFunc processes an inbound CALL payload and returns the response body.
type HandlerFunc func(ctx context.Context, chargeBoxID string, payload json.RawMessage) (interface{}, error)

// Router dispatches inbound OCPP actions to handlers.
type Router struct {
	handlers map[string]HandlerFunc
}

// NewRouter returns router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Register attaches handler to action.
func (r *Router) Register(action string, handler HandlerFunc) {
	r.handlers[action] = handler
}

// Route executes the handler for an inbound CALL frame.
func (r *Router) Route(ctx context.Context, chargeBoxID string, frame *Frame) (interface{}, error) {
	handler, ok := r.handlers[frame.Action]
	if !ok {
		return nil, fmt.Errorf("ocpp: unsupported action %s", frame.Action)
	}
	return handler(ctx, chargeBoxID, frame.Payload)
}

// LogRepository records raw frames for audit.
type LogRepository interface {
	Save(ctx context.Context, chargeBoxID, direction, action string, payload []byte) error
}

// Processor ties together frame parsing, routing, and response encoding for
// charge-point initiated CALLs.
type Processor struct {
	router  *Router
	logRepo LogRepository
	logger  *zap.Logger
}

// NewProcessor builds Processor.
func NewProcessor(router *Router, logRepo LogRepository, logger *zap.Logger) *Processor {
	return &Processor{
		router:  router,
		logRepo: logRepo,
		logger:  logger,
	}
}

// ProcessCall handles an inbound CALL frame and returns the response frame bytes.
func (p *Processor) ProcessCall(ctx context.Context, chargeBoxID string, frame *Frame, raw []byte) ([]byte, error) {
	if p.logRepo != nil {
		_ = p.logRepo.Save(ctx, chargeBoxID, "incoming", frame.Action, raw)
	}

	responsePayload, err := p.router.Route(ctx, chargeBoxID, frame)
	if err != nil {
		p.logger.Warn("ocpp handler failed",
			zap.String("charge_box_id", chargeBoxID),
			zap.String("action", frame.Action),
			zap.Error(err))
		return BuildCallError(frame.UniqueID, "InternalError", err.Error())
	}

	if responsePayload == nil {
		responsePayload = struct{}{}
	}

	respBytes, err := BuildCallResult(frame.UniqueID, responsePayload)
	if err != nil {
		p.logger.Error("encode ocpp response failed", zap.Error(err))
		return nil, err
	}

	if p.logRepo != nil {
		_ = p.logRepo.Save(ctx, chargeBoxID, "outgoing", frame.Action, respBytes)
	}

	return respBytes, nil
}
