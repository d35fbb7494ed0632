package ocpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocol(t *testing.T) {
	cases := []struct {
		in        string
		version   Version
		transport Transport
	}{
		{"OCPP1.6J", V16, TransportJSON},
		{"ocpp1.6j", V16, TransportJSON},
		{"OCPP1.6S", V16, TransportSOAP},
		{"OCPP1.5S", V15, TransportSOAP},
		{"OCPP1.5", V15, TransportSOAP},
		{"OCPP1.2", V12, TransportSOAP},
		{" ocpp1.6J ", V16, TransportJSON},
	}
	for _, c := range cases {
		p, err := ParseProtocol(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.version, p.Version, c.in)
		assert.Equal(t, c.transport, p.Transport, c.in)
	}

	for _, in := range []string{"", "OCPP2.0.1", "http", "1.7J"} {
		_, err := ParseProtocol(in)
		assert.Error(t, err, in)
	}
}

func TestSupportsSmartCharging(t *testing.T) {
	assert.True(t, V16.SupportsSmartCharging())
	assert.False(t, V15.SupportsSmartCharging())
	assert.False(t, V12.SupportsSmartCharging())
}

func TestProtocolString(t *testing.T) {
	assert.Equal(t, "OCPP1.6J", Protocol{Version: V16, Transport: TransportJSON}.String())
	assert.Equal(t, "OCPP1.5S", Protocol{Version: V15, Transport: TransportSOAP}.String())
}
