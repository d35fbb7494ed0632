package handlers

import (
	"go.uber.org/zap"

	"chargehub/internal/ocpp"
	"chargehub/internal/ocpp/v16"
	"chargehub/internal/presence"
	"chargehub/internal/repository"
)

// Dependencies holds everything the inbound handlers need.
type Dependencies struct {
	ChargePoints    *repository.ChargePointRepository
	ConnectorStatus *repository.ConnectorStatusRepository
	Transactions    *repository.TransactionRepository
	MeterValues     *repository.MeterValueRepository
	Online          *presence.Store
	Logger          *zap.Logger
}

// Register attaches all charge-point initiated actions to the router.
func Register(router *ocpp.Router, deps Dependencies) {
	router.Register(v16.ActionBootNotification, NewBootNotificationHandler(deps.ChargePoints, deps.Logger))
	router.Register(v16.ActionHeartbeat, NewHeartbeatHandler(deps.ChargePoints, deps.Online, deps.Logger))
	router.Register(v16.ActionStatusNotification, NewStatusNotificationHandler(deps.ConnectorStatus, deps.Logger))
	router.Register(v16.ActionStartTransaction, NewStartTransactionHandler(deps.Transactions, deps.Logger))
	router.Register(v16.ActionStopTransaction, NewStopTransactionHandler(deps.Transactions, deps.MeterValues, deps.Logger))
	router.Register(v16.ActionMeterValues, NewMeterValuesHandler(deps.MeterValues, deps.Logger))
}
