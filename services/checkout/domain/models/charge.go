package models

// ChargeRequest asks the payment gateway to capture Amount from Source.
// Requests sharing an IdempotencyKey produce at most one charge.
type ChargeRequest struct {
	Amount         int64
	Currency       string
	Source         string // opaque payment token from the client
	IdempotencyKey string
}

// Charge is a captured payment, owned by the gateway.
type Charge struct {
	ID       string
	Amount   int64
	Currency string
}
