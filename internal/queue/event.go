// Package queue defines message payloads exchanged over the message broker.
package queue

// LoanCreatedEvent is published when a loan record is successfully
// created. It carries enough information for downstream consumers to
// build an audit trail without querying the primary database.
type LoanCreatedEvent struct {
    LoanID     string  `json:"loan_id"`
    LenderID   string  `json:"lender_id"`
    BorrowerID string  `json:"borrower_id"`
    Amount     float64 `json:"amount"`
    Currency   string  `json:"currency"`
    LoanDate   string  `json:"loan_date"`
    CreatedAt  string  `json:"created_at"`
}
