package registry

import "time"

// Certificate is one carbon-reduction unit record. Amount is fixed for the
// lifetime of the certificate; marketplace quantities live on listings,
// auctions, and offers, not here.
type Certificate struct {
	ID               int64      `json:"id"`
	Amount           int64      `json:"amount"`
	IssuedAt         time.Time  `json:"issued_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ProjectType      string     `json:"project_type"`
	Location         string     `json:"location"`
	Methodology      string     `json:"methodology"`
	VerificationBody string     `json:"verification_body"`
	Issuer           string     `json:"issuer"`
	Holder           string     `json:"holder"`
	Verified         bool       `json:"verified"`
	Transferable     bool       `json:"transferable"`
	MetadataRef      string     `json:"metadata_ref,omitempty"`

	approvals map[string]bool
}

// IssueRequest carries the fields needed to mint a certificate.
type IssueRequest struct {
	Issuer           string     `json:"issuer"`
	Recipient        string     `json:"recipient"`
	Amount           int64      `json:"amount"`
	ProjectType      string     `json:"project_type"`
	Location         string     `json:"location"`
	Methodology      string     `json:"methodology"`
	VerificationBody string     `json:"verification_body"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	MetadataRef      string     `json:"metadata_ref,omitempty"`
}
