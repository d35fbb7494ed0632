package ocpp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType values as per OCPP-J.
const (
	MessageTypeCall       = 2
	MessageTypeCallResult = 3
	MessageTypeCallError  = 4
)

// Frame represents a parsed OCPP-J frame of any direction.
type Frame struct {
	MessageType      int
	UniqueID         string
	Action           string
	Payload          json.RawMessage
	ErrorCode        string
	ErrorDescription string
}

// ParseFrame decodes a raw OCPP-J array into a Frame. CALL frames carry an
// action and payload; CALLRESULT carries only a payload; CALLERROR carries a
// code and description.
func ParseFrame(data []byte) (*Frame, error) {
	var array []json.RawMessage
	if err := json.Unmarshal(data, &array); err != nil {
		return nil, err
	}

	if len(array) < 3 {
		return nil, errors.New("ocpp: malformed frame")
	}

	var msgType int
	if err := json.Unmarshal(array[0], &msgType); err != nil {
		return nil, err
	}

	frame := &Frame{MessageType: msgType}
	if err := json.Unmarshal(array[1], &frame.UniqueID); err != nil {
		return nil, fmt.Errorf("ocpp: read unique id: %w", err)
	}

	switch msgType {
	case MessageTypeCall:
		if len(array) < 4 {
			return nil, errors.New("ocpp: incomplete CALL frame")
		}
		if err := json.Unmarshal(array[2], &frame.Action); err != nil {
			return nil, fmt.Errorf("ocpp: read action: %w", err)
		}
		frame.Payload = array[3]
	case MessageTypeCallResult:
		frame.Payload = array[2]
	case MessageTypeCallError:
		if err := json.Unmarshal(array[2], &frame.ErrorCode); err != nil {
			return nil, fmt.Errorf("ocpp: read error code: %w", err)
		}
		if len(array) > 3 {
			if err := json.Unmarshal(array[3], &frame.ErrorDescription); err != nil {
				return nil, fmt.Errorf("ocpp: read error description: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("ocpp: unsupported message type %d", msgType)
	}

	return frame, nil
}

// BuildCall builds a CALL frame for a central-system initiated request.
func BuildCall(uniqueID, action string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	frame := []interface{}{MessageTypeCall, uniqueID, action, json.RawMessage(body)}
	return json.Marshal(frame)
}

// BuildCallResult builds a CALLRESULT frame answering an inbound CALL.
func BuildCallResult(uniqueID string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	frame := []interface{}{MessageTypeCallResult, uniqueID, json.RawMessage(body)}
	return json.Marshal(frame)
}

// BuildCallError builds a CALLERROR frame.
func BuildCallError(uniqueID, code, description string) ([]byte, error) {
	frame := []interface{}{MessageTypeCallError, uniqueID, code, description, map[string]string{}}
	return json.Marshal(frame)
}

// Decode convenience helper for handlers.
func Decode[T any](payload json.RawMessage) (T, error) {
	var target T
	if err := json.Unmarshal(payload, &target); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}
