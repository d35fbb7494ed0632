package models

import "time"

// Transaction is one charging session on a connector. A transaction with both
// stop fields unset is open; it may turn out to be a zombie if a later
// transaction starts on the same connector without a stop event arriving.
type Transaction struct {
	TransactionPk  int
	ChargeBoxID    string
	ConnectorID    int
	IDTag          string
	StartTimestamp time.Time
	StartValue     string
	StopTimestamp  *time.Time
	StopValue      *string
	StopReason     *string
	StopEventActor *string
}

// Open reports whether no stop event has been recorded yet.
func (t Transaction) Open() bool {
	return t.StopTimestamp == nil && t.StopValue == nil
}

// MeterValue is a single sampled reading reported by a charge point. The
// transaction association is weak: either the device tagged the reading with a
// transaction id, or the reading is attributed later by time window.
type MeterValue struct {
	ValueTimestamp time.Time
	Value          string
	ReadingContext *string
	Format         *string
	Measurand      *string
	Location       *string
	Unit           *string
	Phase          *string
	TransactionPk  *int
}

// TransactionDetails is a transaction together with the meter readings that
// belong to it, plus the start of the next transaction on the same connector
// when that start was used to bound an open transaction's readings.
type TransactionDetails struct {
	Transaction          Transaction
	MeterValues          []MeterValue
	NextTransactionStart *time.Time
}
