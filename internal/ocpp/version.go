package ocpp

import (
	"fmt"
	"strings"
)

// Version of the OCPP protocol spoken by a charge point.
type Version string

const (
	V12 Version = "1.2"
	V15 Version = "1.5"
	V16 Version = "1.6"
)

// Transport encoding of the protocol.
type Transport string

const (
	TransportJSON Transport = "J"
	TransportSOAP Transport = "S"
)

// Protocol combines version and wire encoding, e.g. OCPP1.6J.
type Protocol struct {
	Version   Version
	Transport Transport
}

// ParseProtocol interprets stored protocol strings such as "OCPP1.6J",
// "ocpp1.5S" or the bare "OCPP1.2" (which is always SOAP).
func ParseProtocol(s string) (Protocol, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.TrimPrefix(normalized, "OCPP")

	transport := TransportSOAP
	switch {
	case strings.HasSuffix(normalized, "J"):
		transport = TransportJSON
		normalized = strings.TrimSuffix(normalized, "J")
	case strings.HasSuffix(normalized, "S"):
		normalized = strings.TrimSuffix(normalized, "S")
	}

	switch Version(normalized) {
	case V12:
		return Protocol{Version: V12, Transport: TransportSOAP}, nil
	case V15:
		return Protocol{Version: V15, Transport: transport}, nil
	case V16:
		return Protocol{Version: V16, Transport: transport}, nil
	default:
		return Protocol{}, fmt.Errorf("ocpp: unknown protocol %q", s)
	}
}

// SupportsSmartCharging reports whether the version carries the smart charging
// feature profile (charging profiles, composite schedules). Only 1.6 does.
func (v Version) SupportsSmartCharging() bool {
	return v == V16
}

func (p Protocol) String() string {
	return "OCPP" + string(p.Version) + string(p.Transport)
}
