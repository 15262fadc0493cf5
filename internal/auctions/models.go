package auctions

import "time"

// Status of an auction.
type Status string

const (
	StatusOpen      Status = "open"
	StatusSold      Status = "sold"
	StatusUnsold    Status = "unsold"
	StatusCancelled Status = "cancelled"
)

// Auction is a seller's time-boxed competitive-bid offer on a certificate.
// CurrentBidder is empty until the first bid lands; EscrowID tracks the
// highest bidder's pledge.
type Auction struct {
	ID            int64     `json:"id"`
	Seller        string    `json:"seller"`
	CertificateID int64     `json:"certificate_id"`
	Quantity      int64     `json:"quantity"`
	StartingPrice int64     `json:"starting_price"`
	CurrentBid    int64     `json:"current_bid"`
	CurrentBidder string    `json:"current_bidder,omitempty"`
	Asset         string    `json:"asset,omitempty"`
	EscrowID      int64     `json:"escrow_id,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        Status    `json:"status"`
}

// Ended reports whether the auction has reached a terminal state.
func (a *Auction) Ended() bool {
	return a.Status != StatusOpen
}
