// Package offers implements the reverse listing: a prospective buyer escrows
// the full payment up front and waits for the certificate holder to accept.
package offers

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/escrow"
	"carbonmark/marketplace-backend/internal/events"
	"carbonmark/marketplace-backend/internal/platform"
	"carbonmark/marketplace-backend/internal/registry"
)

type Service struct {
	ledger   *core.Ledger
	registry *registry.Service
	escrow   *escrow.Ledger
	platform *platform.Config
	events   events.Emitter
	logger   *zap.Logger

	offers map[int64]*Offer
}

func NewService(ledger *core.Ledger, reg *registry.Service, esc *escrow.Ledger, cfg *platform.Config, emitter events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		ledger:   ledger,
		registry: reg,
		escrow:   esc,
		platform: cfg,
		events:   emitter,
		logger:   logger,
		offers:   make(map[int64]*Offer),
	}
}

// Create escrows unitPrice*quantity from the offerer immediately and opens
// the offer.
func (s *Service) Create(offerer string, certificateID, quantity, unitPrice int64, expiresAt time.Time, asset string) (int64, error) {
	var id int64
	err := s.ledger.Run(func() error {
		if err := s.platform.CheckTrade(asset); err != nil {
			return err
		}
		if _, err := s.registry.GetLocked(certificateID); err != nil {
			return err
		}
		if quantity <= 0 {
			return core.ErrInvalidQuantity
		}
		if unitPrice <= 0 {
			return core.ErrInvalidPrice
		}
		now := s.ledger.Now()
		if !expiresAt.After(now) {
			return core.ErrInvalidExpiry
		}
		total, err := core.MulQuantity(unitPrice, quantity)
		if err != nil {
			return err
		}
		escrowID, err := s.escrow.Deposit(offerer, total, asset)
		if err != nil {
			return err
		}
		id = s.ledger.NextID(core.EntityOffer)
		s.offers[id] = &Offer{
			ID:            id,
			Offerer:       offerer,
			CertificateID: certificateID,
			Quantity:      quantity,
			UnitPrice:     unitPrice,
			Total:         total,
			Asset:         asset,
			EscrowID:      escrowID,
			Status:        StatusActive,
			CreatedAt:     now,
			ExpiresAt:     expiresAt,
		}
		s.events.Emit(events.Stamp(events.Event{
			Operation: "offer.created",
			Entity:    "offer",
			EntityID:  id,
			Actors:    map[string]string{"offerer": offerer},
			Amounts:   map[string]int64{"certificate_id": certificateID, "quantity": quantity, "unit_price": unitPrice, "total": total},
			Asset:     asset,
		}, now))
		return nil
	})
	return id, err
}

// Accept settles an offer. Only the certificate's current holder may accept;
// the escrow splits to the holder and the fee recipient and the certificate
// moves to the offerer, all in one operation.
func (s *Service) Accept(caller string, offerID int64) error {
	return s.ledger.Run(func() error {
		if s.platform.PausedLocked() {
			return core.ErrPaused
		}
		offer, err := s.get(offerID)
		if err != nil {
			return err
		}
		if !offer.Active() {
			return core.ErrNotActive
		}
		if !s.ledger.Now().Before(offer.ExpiresAt) {
			return core.ErrOfferExpired
		}
		cert, err := s.registry.GetLocked(offer.CertificateID)
		if err != nil {
			return err
		}
		if caller != cert.Holder {
			return core.ErrNotHolder
		}
		// The holder is the caller, so the transfer needs no market
		// approval; the verification/expiry/transferable gates still apply.
		if err := s.registry.CanTransfer(offer.CertificateID, caller, caller); err != nil {
			return err
		}
		fee, sellerAmount := core.FeeSplit(offer.Total, s.platform.FeeBpsLocked())
		splits := []escrow.Split{{Recipient: caller, Amount: sellerAmount}}
		if fee > 0 {
			splits = append(splits, escrow.Split{Recipient: s.platform.FeeRecipientLocked(), Amount: fee})
		}
		if err := s.escrow.Release(offer.EscrowID, splits); err != nil {
			return err
		}
		if err := s.registry.TransferLocked(offer.CertificateID, caller, offer.Offerer, caller); err != nil {
			return err
		}
		offer.Status = StatusAccepted
		s.events.Emit(events.Stamp(events.Event{
			Operation: "offer.accepted",
			Entity:    "offer",
			EntityID:  offerID,
			Actors:    map[string]string{"offerer": offer.Offerer, "holder": caller},
			Amounts: map[string]int64{
				"certificate_id": offer.CertificateID,
				"total":          offer.Total,
				"fee":            fee,
				"seller_amount":  sellerAmount,
			},
			Asset: offer.Asset,
		}, s.ledger.Now()))
		return nil
	})
}

// Cancel withdraws an offer and refunds the full escrow. Offerer-only.
func (s *Service) Cancel(caller string, offerID int64) error {
	return s.ledger.Run(func() error {
		offer, err := s.get(offerID)
		if err != nil {
			return err
		}
		if caller != offer.Offerer {
			return core.ErrNotOwner
		}
		if !offer.Active() {
			return core.ErrNotActive
		}
		if err := s.escrow.Refund(offer.EscrowID); err != nil {
			return err
		}
		offer.Status = StatusCancelled
		s.events.Emit(events.Stamp(events.Event{
			Operation: "offer.cancelled",
			Entity:    "offer",
			EntityID:  offerID,
			Actors:    map[string]string{"offerer": caller},
			Amounts:   map[string]int64{"refunded": offer.Total},
			Asset:     offer.Asset,
		}, s.ledger.Now()))
		return nil
	})
}

// Get returns a copy of an offer.
func (s *Service) Get(offerID int64) (Offer, error) {
	var offer Offer
	var err error
	s.ledger.View(func() {
		var stored *Offer
		if stored, err = s.get(offerID); err == nil {
			offer = *stored
		}
	})
	return offer, err
}

func (s *Service) get(id int64) (*Offer, error) {
	offer, ok := s.offers[id]
	if !ok {
		return nil, fmt.Errorf("%w: offer %d", core.ErrNotFound, id)
	}
	return offer, nil
}
