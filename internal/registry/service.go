// Package registry owns certificate records and enforces the issuance,
// verification, expiry, transfer, and burn rules. Market components never
// touch certificate state directly; they go through this service.
package registry

import (
	"fmt"

	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/events"
)

type Service struct {
	ledger *core.Ledger
	events events.Emitter
	logger *zap.Logger

	certs map[int64]*Certificate
	// Holder and issuer indexes are unordered id sets kept as slices with
	// swap-with-last removal. Callers must not rely on order.
	byHolder map[string][]int64
	byIssuer map[string][]int64
}

func NewService(ledger *core.Ledger, emitter events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		ledger:   ledger,
		events:   emitter,
		logger:   logger,
		certs:    make(map[int64]*Certificate),
		byHolder: make(map[string][]int64),
		byIssuer: make(map[string][]int64),
	}
}

// Issue mints a certificate to the recipient. Certificates start unverified
// and transferable.
func (s *Service) Issue(req IssueRequest) (int64, error) {
	var id int64
	err := s.ledger.Run(func() error {
		var err error
		id, err = s.IssueLocked(req)
		return err
	})
	return id, err
}

// IssueLocked is Issue for callers already holding the operation guard
// (the issuers service composes it with project balance accounting).
func (s *Service) IssueLocked(req IssueRequest) (int64, error) {
	if req.Recipient == "" {
		return 0, core.ErrInvalidRecipient
	}
	if req.Amount <= 0 {
		return 0, core.ErrInvalidAmount
	}
	for _, field := range []string{req.Issuer, req.ProjectType, req.Location, req.Methodology, req.VerificationBody} {
		if field == "" {
			return 0, core.ErrInvalidField
		}
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.ledger.Now()) {
		return 0, core.ErrInvalidExpiry
	}

	id := s.ledger.NextID(core.EntityCertificate)
	cert := &Certificate{
		ID:               id,
		Amount:           req.Amount,
		IssuedAt:         s.ledger.Now(),
		ExpiresAt:        req.ExpiresAt,
		ProjectType:      req.ProjectType,
		Location:         req.Location,
		Methodology:      req.Methodology,
		VerificationBody: req.VerificationBody,
		Issuer:           req.Issuer,
		Holder:           req.Recipient,
		Verified:         false,
		Transferable:     true,
		MetadataRef:      req.MetadataRef,
		approvals:        make(map[string]bool),
	}
	s.certs[id] = cert
	s.byHolder[req.Recipient] = append(s.byHolder[req.Recipient], id)
	s.byIssuer[req.Issuer] = append(s.byIssuer[req.Issuer], id)

	s.events.Emit(events.Stamp(events.Event{
		Operation: "certificate.issued",
		Entity:    "certificate",
		EntityID:  id,
		Actors:    map[string]string{"issuer": req.Issuer, "recipient": req.Recipient},
		Amounts:   map[string]int64{"amount": req.Amount},
	}, s.ledger.Now()))
	return id, nil
}

// Verify sets the verification flag. Issuer-only; re-setting the same value
// is legal.
func (s *Service) Verify(caller string, id int64, verified bool) error {
	return s.ledger.Run(func() error {
		cert, err := s.get(id)
		if err != nil {
			return err
		}
		if caller != cert.Issuer {
			return core.ErrNotIssuer
		}
		cert.Verified = verified
		s.events.Emit(events.Stamp(events.Event{
			Operation: "certificate.verified",
			Entity:    "certificate",
			EntityID:  id,
			Actors:    map[string]string{"issuer": caller},
			Amounts:   map[string]int64{"verified": boolToInt(verified)},
		}, s.ledger.Now()))
		return nil
	})
}

// SetTransferable toggles the transfer gate. Issuer-only.
func (s *Service) SetTransferable(caller string, id int64, transferable bool) error {
	return s.ledger.Run(func() error {
		cert, err := s.get(id)
		if err != nil {
			return err
		}
		if caller != cert.Issuer {
			return core.ErrNotIssuer
		}
		cert.Transferable = transferable
		s.events.Emit(events.Stamp(events.Event{
			Operation: "certificate.transferable_set",
			Entity:    "certificate",
			EntityID:  id,
			Actors:    map[string]string{"issuer": caller},
			Amounts:   map[string]int64{"transferable": boolToInt(transferable)},
		}, s.ledger.Now()))
		return nil
	})
}

// SetApproval grants or revokes an operator's capability to transfer the
// certificate on the holder's behalf. Markets require this before listing.
func (s *Service) SetApproval(caller string, id int64, operator string, approved bool) error {
	return s.ledger.Run(func() error {
		cert, err := s.get(id)
		if err != nil {
			return err
		}
		if caller != cert.Holder {
			return core.ErrNotHolder
		}
		if operator == "" {
			return core.ErrInvalidField
		}
		cert.approvals[operator] = approved
		return nil
	})
}

// IsApproved reports whether the operator may move the certificate.
func (s *Service) IsApproved(id int64, operator string) bool {
	var approved bool
	s.ledger.View(func() { approved = s.IsApprovedLocked(id, operator) })
	return approved
}

// IsApprovedLocked is IsApproved for callers already holding the operation
// guard.
func (s *Service) IsApprovedLocked(id int64, operator string) bool {
	cert, ok := s.certs[id]
	return ok && cert.approvals[operator]
}

// CanTransfer checks every transfer gate without mutating anything. Market
// settlement runs it before moving funds so a doomed transfer aborts the
// operation while nothing has changed yet. Caller must hold the operation
// guard.
func (s *Service) CanTransfer(id int64, from, operator string) error {
	cert, err := s.get(id)
	if err != nil {
		return err
	}
	if !cert.Verified {
		return core.ErrNotVerified
	}
	if cert.ExpiresAt != nil && s.ledger.Now().After(*cert.ExpiresAt) {
		return fmt.Errorf("%w: certificate %d", core.ErrExpired, id)
	}
	if !cert.Transferable {
		return core.ErrNotTransferable
	}
	if from != cert.Holder {
		return core.ErrNotHolder
	}
	if operator != from && !cert.approvals[operator] {
		return core.ErrNotApproved
	}
	return nil
}

// Transfer moves the certificate from its current holder to another identity.
// The operator is the caller: the holder itself or an approved market.
func (s *Service) Transfer(id int64, from, to, operator string) error {
	return s.ledger.Run(func() error {
		return s.TransferLocked(id, from, to, operator)
	})
}

// TransferLocked is Transfer for settlement paths already holding the
// operation guard.
func (s *Service) TransferLocked(id int64, from, to, operator string) error {
	if to == "" {
		return core.ErrInvalidRecipient
	}
	if err := s.CanTransfer(id, from, operator); err != nil {
		return err
	}
	cert := s.certs[id]
	s.removeFromIndex(s.byHolder, from, id)
	s.byHolder[to] = append(s.byHolder[to], id)
	cert.Holder = to
	// Approvals are holder-scoped; a new holder starts with none.
	cert.approvals = make(map[string]bool)

	s.events.Emit(events.Stamp(events.Event{
		Operation: "certificate.transferred",
		Entity:    "certificate",
		EntityID:  id,
		Actors:    map[string]string{"from": from, "to": to, "operator": operator},
		Amounts:   map[string]int64{"amount": cert.Amount},
	}, s.ledger.Now()))
	return nil
}

// Burn retires a certificate. Holder-only. The record ceases to exist;
// subsequent lookups fail ErrNotFound. The retired snapshot is returned so
// the caller can produce a retirement document.
func (s *Service) Burn(caller string, id int64) (Certificate, error) {
	var retired Certificate
	err := s.ledger.Run(func() error {
		cert, err := s.get(id)
		if err != nil {
			return err
		}
		if caller != cert.Holder {
			return core.ErrNotHolder
		}
		s.removeFromIndex(s.byHolder, cert.Holder, id)
		s.removeFromIndex(s.byIssuer, cert.Issuer, id)
		retired = *cert
		delete(s.certs, id)

		s.events.Emit(events.Stamp(events.Event{
			Operation: "certificate.burned",
			Entity:    "certificate",
			EntityID:  id,
			Actors:    map[string]string{"holder": caller, "issuer": cert.Issuer},
			Amounts:   map[string]int64{"amount": cert.Amount},
		}, s.ledger.Now()))
		return nil
	})
	return retired, err
}

// Get returns a copy of a certificate.
func (s *Service) Get(id int64) (Certificate, error) {
	var cert Certificate
	var err error
	s.ledger.View(func() { cert, err = s.GetLocked(id) })
	return cert, err
}

// GetLocked is Get for callers already holding the operation guard.
func (s *Service) GetLocked(id int64) (Certificate, error) {
	cert, err := s.get(id)
	if err != nil {
		return Certificate{}, err
	}
	return *cert, nil
}

// ListByHolder returns the ids currently held by an identity, in no
// particular order.
func (s *Service) ListByHolder(holder string) []int64 {
	var ids []int64
	s.ledger.View(func() {
		ids = append([]int64(nil), s.byHolder[holder]...)
	})
	return ids
}

// ListByIssuer returns the ids issued by an identity, in no particular order.
func (s *Service) ListByIssuer(issuer string) []int64 {
	var ids []int64
	s.ledger.View(func() {
		ids = append([]int64(nil), s.byIssuer[issuer]...)
	})
	return ids
}

// ActiveAmount sums the amounts of the holder's non-expired certificates.
func (s *Service) ActiveAmount(holder string) int64 {
	var sum int64
	s.ledger.View(func() {
		now := s.ledger.Now()
		for _, id := range s.byHolder[holder] {
			cert := s.certs[id]
			if cert.ExpiresAt != nil && now.After(*cert.ExpiresAt) {
				continue
			}
			sum += cert.Amount
		}
	})
	return sum
}

// IsExpired reports whether the certificate has passed its expiry.
func (s *Service) IsExpired(id int64) (bool, error) {
	var expired bool
	var err error
	s.ledger.View(func() {
		var cert *Certificate
		cert, err = s.get(id)
		if err != nil {
			return
		}
		expired = cert.ExpiresAt != nil && s.ledger.Now().After(*cert.ExpiresAt)
	})
	return expired, err
}

func (s *Service) get(id int64) (*Certificate, error) {
	cert, ok := s.certs[id]
	if !ok {
		return nil, fmt.Errorf("%w: certificate %d", core.ErrNotFound, id)
	}
	return cert, nil
}

// removeFromIndex drops an id with swap-with-last-and-truncate. Index order
// is not preserved; the indexes are unordered sets.
func (s *Service) removeFromIndex(index map[string][]int64, key string, id int64) {
	ids := index[key]
	for i, existing := range ids {
		if existing == id {
			ids[i] = ids[len(ids)-1]
			index[key] = ids[:len(ids)-1]
			return
		}
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
