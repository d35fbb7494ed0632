package v16

import "time"

// IdTagInfo authorization result.
type IdTagInfo struct {
	Status      string     `json:"status"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	ParentIdTag *string    `json:"parentIdTag,omitempty"`
}

// RemoteStartTransactionRequest asks a charge point to start charging.
type RemoteStartTransactionRequest struct {
	ConnectorID     *int             `json:"connectorId,omitempty"`
	IdTag           string           `json:"idTag"`
	ChargingProfile *ChargingProfile `json:"chargingProfile,omitempty"`
}

// RemoteStartTransactionResponse carries the device decision.
type RemoteStartTransactionResponse struct {
	Status string `json:"status"`
}

// RemoteStopTransactionRequest asks a charge point to stop a transaction.
type RemoteStopTransactionRequest struct {
	TransactionID int `json:"transactionId"`
}

// RemoteStopTransactionResponse carries the device decision.
type RemoteStopTransactionResponse struct {
	Status string `json:"status"`
}

// BootNotificationRequest announces a charge point after (re)boot.
type BootNotificationRequest struct {
	ChargePointVendor       string `json:"chargePointVendor"`
	ChargePointModel        string `json:"chargePointModel"`
	ChargePointSerialNumber string `json:"chargePointSerialNumber,omitempty"`
	ChargeBoxSerialNumber   string `json:"chargeBoxSerialNumber,omitempty"`
	FirmwareVersion         string `json:"firmwareVersion,omitempty"`
}

// BootNotificationResponse acknowledges registration.
type BootNotificationResponse struct {
	Status      string    `json:"status"`
	CurrentTime time.Time `json:"currentTime"`
	Interval    int       `json:"interval"`
}

// HeartbeatRequest is empty.
type HeartbeatRequest struct{}

// HeartbeatResponse returns server time.
type HeartbeatResponse struct {
	CurrentTime time.Time `json:"currentTime"`
}

// StatusNotificationRequest reports a connector status change.
type StatusNotificationRequest struct {
	ConnectorID int        `json:"connectorId"`
	ErrorCode   string     `json:"errorCode"`
	Status      string     `json:"status"`
	Info        string     `json:"info,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	VendorID    string     `json:"vendorId,omitempty"`
}

// StatusNotificationResponse is an empty ack.
type StatusNotificationResponse struct{}

// StartTransactionRequest opens a charging session.
type StartTransactionRequest struct {
	ConnectorID   int       `json:"connectorId"`
	IdTag         string    `json:"idTag"`
	MeterStart    int       `json:"meterStart"`
	ReservationID *int      `json:"reservationId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// StartTransactionResponse assigns the transaction id.
type StartTransactionResponse struct {
	TransactionID int       `json:"transactionId"`
	IdTagInfo     IdTagInfo `json:"idTagInfo"`
}

// StopTransactionRequest closes a charging session.
type StopTransactionRequest struct {
	TransactionID   int          `json:"transactionId"`
	IdTag           string       `json:"idTag,omitempty"`
	MeterStop       int          `json:"meterStop"`
	Timestamp       time.Time    `json:"timestamp"`
	Reason          string       `json:"reason,omitempty"`
	TransactionData []MeterValue `json:"transactionData,omitempty"`
}

// StopTransactionResponse acknowledges the stop.
type StopTransactionResponse struct {
	IdTagInfo *IdTagInfo `json:"idTagInfo,omitempty"`
}

// SampledValue is one measurement inside a MeterValues entry.
type SampledValue struct {
	Value     string  `json:"value"`
	Context   *string `json:"context,omitempty"`
	Format    *string `json:"format,omitempty"`
	Measurand *string `json:"measurand,omitempty"`
	Phase     *string `json:"phase,omitempty"`
	Location  *string `json:"location,omitempty"`
	Unit      *string `json:"unit,omitempty"`
}

// MeterValue groups sampled values taken at one instant.
type MeterValue struct {
	Timestamp    time.Time      `json:"timestamp"`
	SampledValue []SampledValue `json:"sampledValue"`
}

// MeterValuesRequest reports sampled meter readings.
type MeterValuesRequest struct {
	ConnectorID   int          `json:"connectorId"`
	TransactionID *int         `json:"transactionId,omitempty"`
	MeterValue    []MeterValue `json:"meterValue"`
}

// MeterValuesResponse is an empty ack.
type MeterValuesResponse struct{}
