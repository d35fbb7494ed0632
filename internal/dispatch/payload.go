package dispatch

import "chargehub/internal/models"

// SetChargingProfilePayload carries the domain request for installing a
// profile. The profile is referenced by its loaded details, not copied into a
// wire shape: the version adapter builds the wire request at dispatch time.
type SetChargingProfilePayload struct {
	Details       models.ChargingProfileDetails
	ConnectorID   int
	TransactionID *int
}

// ClearChargingProfilePayload carries the clear filter.
type ClearChargingProfilePayload struct {
	Filter models.ClearChargingProfileFilter
}

// GetCompositeSchedulePayload carries the composite schedule query.
type GetCompositeSchedulePayload struct {
	ConnectorID     int
	DurationSeconds int
	RateUnit        *models.ChargingRateUnit
}

// RemoteStartPayload carries a remote start request.
type RemoteStartPayload struct {
	ConnectorID *int
	IDTag       string
}

// RemoteStopPayload carries a remote stop request.
type RemoteStopPayload struct {
	TransactionID int
}
