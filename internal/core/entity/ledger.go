// Package entity provides core domain entities.
package entity

import (
	"time"

	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// TransactionType defines the kind of stock ledger posting.
// The quantity column is always stored positive; the sign of the
// stock effect is derived from the type, never from a sign bit.
type TransactionType string

const (
	// TxTypeInitial records opening stock for a material.
	TxTypeInitial TransactionType = "initial"
	// TxTypeConsumption records raw material consumed by a batch (decrease).
	TxTypeConsumption TransactionType = "consumption"
	// TxTypeProductionIn records finished product created by a batch (increase).
	TxTypeProductionIn TransactionType = "production_in"
	// TxTypeReversalIn re-credits raw material when a batch is cancelled (increase).
	TxTypeReversalIn TransactionType = "reversal_in"
	// TxTypeProductionOutReversal removes finished product when a batch is cancelled (decrease).
	TxTypeProductionOutReversal TransactionType = "production_out_reversal"
)

// LedgerEntry is one posting in the stock ledger.
// Entries are immutable - they are never updated or deleted. Balances are
// reconstructed by summing signed quantities per material.
type LedgerEntry struct {
	// LineID is unique identifier for this entry (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// MaterialID references a raw material or a finished product
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// TxType determines the sign of the stock effect
	TxType TransactionType `db:"tx_type" json:"txType"`

	// Quantity is always positive; see SignedQuantity
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is the cost per unit at posting time
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// TotalValue = Quantity * UnitCost, signed like the quantity
	TotalValue types.Money `db:"total_value" json:"totalValue"`

	// BatchID is the bottling batch that caused this entry
	BatchID id.ID `db:"batch_id" json:"batchId"`

	// CreatedBy is the operator who triggered the posting
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`

	// CreatedAt is when the entry was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewLedgerEntry creates a ledger entry with generated LineID.
// TotalValue is derived from quantity and unit cost.
func NewLedgerEntry(batchID, materialID id.ID, txType TransactionType, quantity types.Quantity, unitCost types.Money, createdBy string) LedgerEntry {
	return LedgerEntry{
		LineID:     id.New(),
		MaterialID: materialID,
		TxType:     txType,
		Quantity:   quantity,
		UnitCost:   unitCost,
		TotalValue: unitCost.Mul(quantity.Decimal()),
		BatchID:    batchID,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
	}
}

// Decreases reports whether the transaction type reduces stock.
func (t TransactionType) Decreases() bool {
	return t == TxTypeConsumption || t == TxTypeProductionOutReversal
}

// SignedQuantity returns quantity with sign derived from the type.
func (e *LedgerEntry) SignedQuantity() types.Quantity {
	if e.TxType.Decreases() {
		return e.Quantity.Neg()
	}
	return e.Quantity
}

// SignedValue returns total value with sign derived from the type.
func (e *LedgerEntry) SignedValue() types.Money {
	if e.TxType.Decreases() {
		return e.TotalValue.Neg()
	}
	return e.TotalValue
}
