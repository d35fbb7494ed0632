package v16

// Central-system initiated actions.
const (
	ActionSetChargingProfile     = "SetChargingProfile"
	ActionClearChargingProfile   = "ClearChargingProfile"
	ActionGetCompositeSchedule   = "GetCompositeSchedule"
	ActionRemoteStartTransaction = "RemoteStartTransaction"
	ActionRemoteStopTransaction  = "RemoteStopTransaction"
)

// Charge-point initiated actions.
const (
	ActionBootNotification   = "BootNotification"
	ActionHeartbeat          = "Heartbeat"
	ActionStatusNotification = "StatusNotification"
	ActionStartTransaction   = "StartTransaction"
	ActionStopTransaction    = "StopTransaction"
	ActionMeterValues        = "MeterValues"
)

// Common status values.
const (
	StatusAccepted = "Accepted"
	StatusRejected = "Rejected"
)
