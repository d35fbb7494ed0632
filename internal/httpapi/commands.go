package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"chargehub/internal/dispatch"
	"chargehub/internal/models"
	"chargehub/internal/repository"
	"chargehub/internal/schedule"
	"chargehub/internal/service"
)

type taskStartedResponse struct {
	TaskID int `json:"taskId"`
}

// writeCommandError maps command service failures onto HTTP statuses.
func writeCommandError(w http.ResponseWriter, err error) {
	var validationErr *schedule.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, dispatch.ErrUnsupportedVersion):
		writeError(w, http.StatusBadRequest, "operation not supported by charge point protocol version")
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to dispatch command")
	}
}

// NewSetChargingProfileHandler handles POST /api/v1/commands/set-charging-profile.
func NewSetChargingProfileHandler(commands *service.CommandService) http.HandlerFunc {
	type request struct {
		ChargeBoxID       string `json:"chargeBoxId"`
		ChargingProfilePk int    `json:"chargingProfilePk"`
		ConnectorID       int    `json:"connectorId"`
		TransactionID     *int   `json:"transactionId,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.ChargeBoxID == "" || req.ChargingProfilePk == 0 {
			writeError(w, http.StatusBadRequest, "chargeBoxId and chargingProfilePk are required")
			return
		}

		taskID, err := commands.SetChargingProfile(r.Context(), req.ChargeBoxID, req.ChargingProfilePk, req.ConnectorID, req.TransactionID, CallerFromContext(r.Context()))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, taskStartedResponse{TaskID: taskID})
	}
}

// NewClearChargingProfileHandler handles POST /api/v1/commands/clear-charging-profile.
func NewClearChargingProfileHandler(commands *service.CommandService) http.HandlerFunc {
	type request struct {
		ChargeBoxID       string  `json:"chargeBoxId"`
		ChargingProfilePk *int    `json:"chargingProfilePk,omitempty"`
		ConnectorID       *int    `json:"connectorId,omitempty"`
		Purpose           *string `json:"chargingProfilePurpose,omitempty"`
		StackLevel        *int    `json:"stackLevel,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.ChargeBoxID == "" {
			writeError(w, http.StatusBadRequest, "chargeBoxId is required")
			return
		}

		filter := models.ClearChargingProfileFilter{
			ChargingProfilePk: req.ChargingProfilePk,
			ConnectorID:       req.ConnectorID,
			StackLevel:        req.StackLevel,
		}
		if req.Purpose != nil {
			purpose := models.ChargingProfilePurpose(*req.Purpose)
			filter.Purpose = &purpose
		}

		taskID, err := commands.ClearChargingProfile(r.Context(), req.ChargeBoxID, filter, CallerFromContext(r.Context()))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, taskStartedResponse{TaskID: taskID})
	}
}

// NewGetCompositeScheduleHandler handles POST /api/v1/commands/get-composite-schedule.
func NewGetCompositeScheduleHandler(commands *service.CommandService) http.HandlerFunc {
	type request struct {
		ChargeBoxID      string  `json:"chargeBoxId"`
		ConnectorID      int     `json:"connectorId"`
		DurationSeconds  int     `json:"durationInSeconds"`
		ChargingRateUnit *string `json:"chargingRateUnit,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.ChargeBoxID == "" || req.DurationSeconds <= 0 {
			writeError(w, http.StatusBadRequest, "chargeBoxId and a positive durationInSeconds are required")
			return
		}

		var rateUnit *models.ChargingRateUnit
		if req.ChargingRateUnit != nil {
			u := models.ChargingRateUnit(*req.ChargingRateUnit)
			rateUnit = &u
		}

		taskID, err := commands.GetCompositeSchedule(r.Context(), req.ChargeBoxID, req.ConnectorID, req.DurationSeconds, rateUnit, CallerFromContext(r.Context()))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, taskStartedResponse{TaskID: taskID})
	}
}

// NewRemoteStartHandler handles POST /api/v1/commands/remote-start.
func NewRemoteStartHandler(commands *service.CommandService) http.HandlerFunc {
	type request struct {
		ChargeBoxIDs []string `json:"chargeBoxIds"`
		ConnectorID  *int     `json:"connectorId,omitempty"`
		IDTag        string   `json:"idTag"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(req.ChargeBoxIDs) == 0 || req.IDTag == "" {
			writeError(w, http.StatusBadRequest, "chargeBoxIds and idTag are required")
			return
		}

		taskID, err := commands.RemoteStartTransaction(r.Context(), req.ChargeBoxIDs, req.ConnectorID, req.IDTag, CallerFromContext(r.Context()))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, taskStartedResponse{TaskID: taskID})
	}
}

// NewRemoteStopHandler handles POST /api/v1/commands/remote-stop.
func NewRemoteStopHandler(commands *service.CommandService) http.HandlerFunc {
	type request struct {
		ChargeBoxID   string `json:"chargeBoxId"`
		TransactionID int    `json:"transactionId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.ChargeBoxID == "" || req.TransactionID == 0 {
			writeError(w, http.StatusBadRequest, "chargeBoxId and transactionId are required")
			return
		}

		taskID, err := commands.RemoteStopTransaction(r.Context(), req.ChargeBoxID, req.TransactionID, CallerFromContext(r.Context()))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, taskStartedResponse{TaskID: taskID})
	}
}
