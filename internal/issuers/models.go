package issuers

import "time"

// Issuer is an identity that can mint certificates once the platform has
// verified it. The verified flag mirrors the external KYC gate's decision
// and is set only through the owner-level admin operation.
type Issuer struct {
	Identity     string    `json:"identity"`
	Name         string    `json:"name"`
	Metadata     string    `json:"metadata,omitempty"`
	Verified     bool      `json:"verified"`
	Active       bool      `json:"active"`
	IssuedTons   int64     `json:"issued_tons"`
	ProjectCount int64     `json:"project_count"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Project caps how much a verified issuer may mint. IssuedTons is the
// running balance drawn against the verified actual reduction; issuance
// stops once the remainder is exhausted, across calls, not per call.
type Project struct {
	ID                     int64     `json:"id"`
	Issuer                 string    `json:"issuer"`
	Name                   string    `json:"name"`
	ProjectType            string    `json:"project_type"`
	Location               string    `json:"location"`
	Methodology            string    `json:"methodology"`
	EstimatedReductionTons int64     `json:"estimated_reduction_tons"`
	ActualReductionTons    int64     `json:"actual_reduction_tons"`
	IssuedTons             int64     `json:"issued_tons"`
	Verified               bool      `json:"verified"`
	DocumentRefs           []string  `json:"document_refs,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// Remaining returns the unissued balance of the project.
func (p *Project) Remaining() int64 {
	return p.ActualReductionTons - p.IssuedTons
}
