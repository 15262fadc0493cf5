package offers

import "time"

// Status of an offer. Expiry is implicit: an active offer past its expiry
// can no longer be accepted, only cancelled.
type Status string

const (
	StatusActive    Status = "active"
	StatusAccepted  Status = "accepted"
	StatusCancelled Status = "cancelled"
)

// Offer is a buyer-initiated, fully escrowed bid for a specific certificate,
// awaiting acceptance by whoever holds it.
type Offer struct {
	ID            int64     `json:"id"`
	Offerer       string    `json:"offerer"`
	CertificateID int64     `json:"certificate_id"`
	Quantity      int64     `json:"quantity"`
	UnitPrice     int64     `json:"unit_price"`
	Total         int64     `json:"total"`
	Asset         string    `json:"asset"`
	EscrowID      int64     `json:"escrow_id"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Active reports whether the offer is still open.
func (o *Offer) Active() bool {
	return o.Status == StatusActive
}
