package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"chargehub/internal/models"
	"chargehub/internal/reconcile"
	"chargehub/internal/repository"
)

type transactionResponse struct {
	TransactionPk  int        `json:"transactionPk"`
	ChargeBoxID    string     `json:"chargeBoxId"`
	ConnectorID    int        `json:"connectorId"`
	IDTag          string     `json:"idTag"`
	StartTimestamp time.Time  `json:"startTimestamp"`
	StartValue     string     `json:"startValue"`
	StopTimestamp  *time.Time `json:"stopTimestamp,omitempty"`
	StopValue      *string    `json:"stopValue,omitempty"`
	StopReason     *string    `json:"stopReason,omitempty"`
	Open           bool       `json:"open"`
}

type meterValueResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Value     string    `json:"value"`
	Measurand *string   `json:"measurand,omitempty"`
	Unit      *string   `json:"unit,omitempty"`
	Phase     *string   `json:"phase,omitempty"`
	Context   *string   `json:"readingContext,omitempty"`
}

type transactionDetailsResponse struct {
	Transaction          transactionResponse  `json:"transaction"`
	MeterValues          []meterValueResponse `json:"meterValues"`
	NextTransactionStart *time.Time           `json:"nextTransactionStart,omitempty"`
}

// NewTransactionDetailsHandler handles GET /api/v1/transactions/{pk}. The
// optional energyOnly query flag restricts readings to energy measurements.
func NewTransactionDetailsHandler(reconciler *reconcile.Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pk, err := strconv.Atoi(pathVar(r, "pk"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction pk")
			return
		}
		energyOnly := r.URL.Query().Get("energyOnly") == "true"

		details, err := reconciler.TransactionDetails(r.Context(), pk, energyOnly)
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load transaction")
			return
		}

		writeJSON(w, http.StatusOK, toTransactionDetailsResponse(details))
	}
}

func toTransactionDetailsResponse(details models.TransactionDetails) transactionDetailsResponse {
	tx := details.Transaction
	out := transactionDetailsResponse{
		Transaction: transactionResponse{
			TransactionPk:  tx.TransactionPk,
			ChargeBoxID:    tx.ChargeBoxID,
			ConnectorID:    tx.ConnectorID,
			IDTag:          tx.IDTag,
			StartTimestamp: tx.StartTimestamp,
			StartValue:     tx.StartValue,
			StopTimestamp:  tx.StopTimestamp,
			StopValue:      tx.StopValue,
			StopReason:     tx.StopReason,
			Open:           tx.Open(),
		},
		MeterValues:          make([]meterValueResponse, 0, len(details.MeterValues)),
		NextTransactionStart: details.NextTransactionStart,
	}
	for _, v := range details.MeterValues {
		out.MeterValues = append(out.MeterValues, meterValueResponse{
			Timestamp: v.ValueTimestamp,
			Value:     v.Value,
			Measurand: v.Measurand,
			Unit:      v.Unit,
			Phase:     v.Phase,
			Context:   v.ReadingContext,
		})
	}
	return out
}
