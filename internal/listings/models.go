package listings

import "time"

// Status of a listing. A partially filled listing stays active.
type Status string

const (
	StatusActive    Status = "active"
	StatusFilled    Status = "filled"
	StatusCancelled Status = "cancelled"
)

// Listing is a seller's standing fixed-price offer to sell a certificate.
type Listing struct {
	ID            int64     `json:"id"`
	Seller        string    `json:"seller"`
	CertificateID int64     `json:"certificate_id"`
	UnitPrice     int64     `json:"unit_price"`
	Quantity      int64     `json:"quantity"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Active reports whether the listing can still be bought from (expiry is
// checked separately, at the next operation attempt).
func (l *Listing) Active() bool {
	return l.Status == StatusActive
}
