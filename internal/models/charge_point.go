package models

import "time"

// ChargePoint is the stored metadata for a charging station.
type ChargePoint struct {
	ChargeBoxID     string
	OcppProtocol    string
	Endpoint        string
	Vendor          string
	Model           string
	FirmwareVersion string
	LastHeartbeat   time.Time
}

// ChargePointSelect is the addressing information needed to dispatch a
// command to one charge box: its identity, stored protocol string and, for
// SOAP stations, the callback endpoint.
type ChargePointSelect struct {
	ChargeBoxID  string
	OcppProtocol string
	Endpoint     string
}
