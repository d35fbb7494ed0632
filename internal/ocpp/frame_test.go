package ocpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameCall(t *testing.T) {
	raw := []byte(`[2,"19223201","BootNotification",{"chargePointVendor":"VendorX","chargePointModel":"SingleSocketCharger"}]`)

	frame, err := ParseFrame(raw)
	require.NoError(t, err)

	assert.Equal(t, MessageTypeCall, frame.MessageType)
	assert.Equal(t, "19223201", frame.UniqueID)
	assert.Equal(t, "BootNotification", frame.Action)
	assert.JSONEq(t, `{"chargePointVendor":"VendorX","chargePointModel":"SingleSocketCharger"}`, string(frame.Payload))
}

func TestParseFrameCallResult(t *testing.T) {
	raw := []byte(`[3,"19223201",{"status":"Accepted"}]`)

	frame, err := ParseFrame(raw)
	require.NoError(t, err)

	assert.Equal(t, MessageTypeCallResult, frame.MessageType)
	assert.Equal(t, "19223201", frame.UniqueID)
	assert.Empty(t, frame.Action)
	assert.JSONEq(t, `{"status":"Accepted"}`, string(frame.Payload))
}

func TestParseFrameCallError(t *testing.T) {
	raw := []byte(`[4,"19223201","NotImplemented","Requested Action is not known",{}]`)

	frame, err := ParseFrame(raw)
	require.NoError(t, err)

	assert.Equal(t, MessageTypeCallError, frame.MessageType)
	assert.Equal(t, "NotImplemented", frame.ErrorCode)
	assert.Equal(t, "Requested Action is not known", frame.ErrorDescription)
}

func TestParseFrameRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"not json":          `garbage`,
		"not an array":      `{"messageTypeId":2}`,
		"too short":         `[2,"id"]`,
		"call w/o payload":  `[2,"id","Heartbeat"]`,
		"unknown type":      `[9,"id",{}]`,
		"non-string id":     `[2,42,"Heartbeat",{}]`,
		"non-string action": `[2,"id",13,{}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFrame([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestBuildCallRoundTrip(t *testing.T) {
	raw, err := BuildCall("uid-1", "RemoteStartTransaction", map[string]interface{}{"idTag": "TAG-1"})
	require.NoError(t, err)

	frame, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeCall, frame.MessageType)
	assert.Equal(t, "uid-1", frame.UniqueID)
	assert.Equal(t, "RemoteStartTransaction", frame.Action)

	payload, err := Decode[map[string]string](frame.Payload)
	require.NoError(t, err)
	assert.Equal(t, "TAG-1", payload["idTag"])
}

func TestBuildCallResultRoundTrip(t *testing.T) {
	raw, err := BuildCallResult("uid-2", map[string]string{"status": "Accepted"})
	require.NoError(t, err)

	frame, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeCallResult, frame.MessageType)
	assert.JSONEq(t, `{"status":"Accepted"}`, string(frame.Payload))
}

func TestBuildCallErrorRoundTrip(t *testing.T) {
	raw, err := BuildCallError("uid-3", "InternalError", "boom")
	require.NoError(t, err)

	frame, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeCallError, frame.MessageType)
	assert.Equal(t, "InternalError", frame.ErrorCode)
	assert.Equal(t, "boom", frame.ErrorDescription)
}
