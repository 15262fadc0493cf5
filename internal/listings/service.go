// Package listings implements the fixed-price sale market. Trades settle
// synchronously: the buyer's payment is escrowed, split, and released in the
// same operation that moves the certificate.
package listings

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

// Operator is the approval capability sellers grant this market.
const Operator = "market:listings"

// MaxDuration bounds how far out a listing may expire.
const MaxDuration = 365 * 24 * time.Hour

type Service struct {
	ledger   *core.Ledger
	registry *registry.Service
	escrow   *escrow.Ledger
	platform *platform.Config
	events   events.Emitter
	logger   *zap.Logger

	listings map[int64]*Listing
}

func NewService(ledger *core.Ledger, reg *registry.Service, esc *escrow.Ledger, cfg *platform.Config, emitter events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		ledger:   ledger,
		registry: reg,
		escrow:   esc,
		platform: cfg,
		events:   emitter,
		logger:   logger,
		listings: make(map[int64]*Listing),
	}
}

// Create lists a certificate at a fixed unit price. The seller must hold the
// certificate and must have approved this market to transfer it.
func (s *Service) Create(seller string, certificateID, unitPrice, quantity int64, expiresAt time.Time) (int64, error) {
	var id int64
	err := s.ledger.Run(func() error {
		if s.platform.PausedLocked() {
			return core.ErrPaused
		}
		cert, err := s.registry.GetLocked(certificateID)
		if err != nil {
			return err
		}
		if cert.Holder != seller {
			return core.ErrNotOwner
		}
		if !s.registry.IsApprovedLocked(certificateID, Operator) {
			return core.ErrNotApproved
		}
		if unitPrice <= 0 {
			return core.ErrInvalidPrice
		}
		if quantity <= 0 {
			return core.ErrInvalidQuantity
		}
		now := s.ledger.Now()
		if !expiresAt.After(now) || expiresAt.After(now.Add(MaxDuration)) {
			return core.ErrInvalidExpiry
		}
		id = s.ledger.NextID(core.EntityListing)
		s.listings[id] = &Listing{
			ID:            id,
			Seller:        seller,
			CertificateID: certificateID,
			UnitPrice:     unitPrice,
			Quantity:      quantity,
			Status:        StatusActive,
			CreatedAt:     now,
			ExpiresAt:     expiresAt,
		}
		s.events.Emit(events.Stamp(events.Event{
			Operation: "listing.created",
			Entity:    "listing",
			EntityID:  id,
			Actors:    map[string]string{"seller": seller},
			Amounts:   map[string]int64{"certificate_id": certificateID, "unit_price": unitPrice, "quantity": quantity},
		}, now))
		return nil
	})
	return id, err
}

// Buy purchases quantity units from a listing. payment is the amount the
// buyer commits; anything beyond the computed total is returned. The fee
// split, the seller payout, and the certificate transfer apply together or
// not at all.
func (s *Service) Buy(buyer string, listingID, quantity int64, asset string, payment int64) error {
	return s.ledger.Run(func() error {
		if err := s.platform.CheckTrade(asset); err != nil {
			return err
		}
		listing, err := s.get(listingID)
		if err != nil {
			return err
		}
		if !listing.Active() {
			return core.ErrNotActive
		}
		if s.ledger.Now().After(listing.ExpiresAt) {
			return fmt.Errorf("%w: listing %d", core.ErrExpired, listingID)
		}
		if quantity <= 0 {
			return core.ErrInvalidQuantity
		}
		if quantity > listing.Quantity {
			return core.ErrInsufficientQuantity
		}
		total, err := core.MulQuantity(listing.UnitPrice, quantity)
		if err != nil {
			return err
		}
		if payment < total {
			return fmt.Errorf("%w: need %d, got %d", core.ErrInsufficientPayment, total, payment)
		}
		// Every gate on the certificate transfer is checked before funds
		// move, so the settlement below cannot fail halfway.
		if err := s.registry.CanTransfer(listing.CertificateID, listing.Seller, Operator); err != nil {
			return err
		}
		fee, sellerAmount := core.FeeSplit(total, s.platform.FeeBpsLocked())
		escrowID, err := s.escrow.Deposit(buyer, payment, asset)
		if err != nil {
			return err
		}
		splits := []escrow.Split{{Recipient: listing.Seller, Amount: sellerAmount}}
		if fee > 0 {
			splits = append(splits, escrow.Split{Recipient: s.platform.FeeRecipientLocked(), Amount: fee})
		}
		if over := payment - total; over > 0 {
			splits = append(splits, escrow.Split{Recipient: buyer, Amount: over})
		}
		if err := s.escrow.Release(escrowID, splits); err != nil {
			// The deposit happened in this same operation; undo it so the
			// failed settlement leaves funds exactly as before the call.
			_ = s.escrow.Refund(escrowID)
			return err
		}
		if err := s.registry.TransferLocked(listing.CertificateID, listing.Seller, buyer, Operator); err != nil {
			return err
		}
		listing.Quantity -= quantity
		if listing.Quantity == 0 {
			listing.Status = StatusFilled
		}
		s.events.Emit(events.Stamp(events.Event{
			Operation: "listing.purchased",
			Entity:    "listing",
			EntityID:  listingID,
			Actors:    map[string]string{"buyer": buyer, "seller": listing.Seller},
			Amounts: map[string]int64{
				"certificate_id": listing.CertificateID,
				"quantity":       quantity,
				"total":          total,
				"fee":            fee,
				"seller_amount":  sellerAmount,
				"remaining":      listing.Quantity,
			},
			Asset: asset,
		}, s.ledger.Now()))
		return nil
	})
}

// Cancel deactivates a listing. Seller-only. No funds are escrowed at listing
// time, so there is nothing to refund.
func (s *Service) Cancel(caller string, listingID int64) error {
	return s.ledger.Run(func() error {
		listing, err := s.get(listingID)
		if err != nil {
			return err
		}
		if caller != listing.Seller {
			return core.ErrNotOwner
		}
		if !listing.Active() {
			return core.ErrNotActive
		}
		listing.Status = StatusCancelled
		s.events.Emit(events.Stamp(events.Event{
			Operation: "listing.cancelled",
			Entity:    "listing",
			EntityID:  listingID,
			Actors:    map[string]string{"seller": caller},
		}, s.ledger.Now()))
		return nil
	})
}

// UpdatePrice changes the unit price. Seller-only.
func (s *Service) UpdatePrice(caller string, listingID, newPrice int64) error {
	return s.ledger.Run(func() error {
		listing, err := s.get(listingID)
		if err != nil {
			return err
		}
		if caller != listing.Seller {
			return core.ErrNotOwner
		}
		if !listing.Active() {
			return core.ErrNotActive
		}
		if newPrice <= 0 {
			return core.ErrInvalidPrice
		}
		listing.UnitPrice = newPrice
		s.events.Emit(events.Stamp(events.Event{
			Operation: "listing.price_updated",
			Entity:    "listing",
			EntityID:  listingID,
			Actors:    map[string]string{"seller": caller},
			Amounts:   map[string]int64{"unit_price": newPrice},
		}, s.ledger.Now()))
		return nil
	})
}

// Get returns a copy of a listing.
func (s *Service) Get(listingID int64) (Listing, error) {
	var listing Listing
	var err error
	s.ledger.View(func() {
		var stored *Listing
		if stored, err = s.get(listingID); err == nil {
			listing = *stored
		}
	})
	return listing, err
}

func (s *Service) get(id int64) (*Listing, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: listing %d", core.ErrNotFound, id)
	}
	return listing, nil
}
