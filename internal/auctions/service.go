// Package auctions implements the time-boxed competitive-bid market. A new
// highest bid refunds the previous bidder in the same operation that accepts
// it; a refund that cannot apply aborts the bid and the previous bidder
// stays highest.
package auctions

import (
	"errors"
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
const Operator = "market:auctions"

// Duration bounds for an auction.
const (
	MinDuration = time.Hour
	MaxDuration = 30 * 24 * time.Hour
)

type Service struct {
	ledger   *core.Ledger
	registry *registry.Service
	escrow   *escrow.Ledger
	treasury BalanceReader
	platform *platform.Config
	events   events.Emitter
	logger   *zap.Logger

	auctions map[int64]*Auction
}

// BalanceReader reports available funds; the bid path pre-checks the new
// bidder's balance so the refund-then-accept sequence cannot fail midway.
type BalanceReader interface {
	BalanceLocked(identity, asset string) int64
}

func NewService(ledger *core.Ledger, reg *registry.Service, esc *escrow.Ledger, balances BalanceReader, cfg *platform.Config, emitter events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		ledger:   ledger,
		registry: reg,
		escrow:   esc,
		treasury: balances,
		platform: cfg,
		events:   emitter,
		logger:   logger,
		auctions: make(map[int64]*Auction),
	}
}

// Create opens an auction. The seller must hold the certificate and must
// have approved this market to transfer it.
func (s *Service) Create(seller string, certificateID, quantity, startingPrice int64, duration time.Duration) (int64, error) {
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
		if quantity <= 0 {
			return core.ErrInvalidQuantity
		}
		if startingPrice <= 0 {
			return core.ErrInvalidPrice
		}
		if duration < MinDuration || duration > MaxDuration {
			return core.ErrInvalidDuration
		}
		now := s.ledger.Now()
		id = s.ledger.NextID(core.EntityAuction)
		s.auctions[id] = &Auction{
			ID:            id,
			Seller:        seller,
			CertificateID: certificateID,
			Quantity:      quantity,
			StartingPrice: startingPrice,
			StartTime:     now,
			EndTime:       now.Add(duration),
			Status:        StatusOpen,
		}
		s.events.Emit(events.Stamp(events.Event{
			Operation: "auction.created",
			Entity:    "auction",
			EntityID:  id,
			Actors:    map[string]string{"seller": seller},
			Amounts:   map[string]int64{"certificate_id": certificateID, "quantity": quantity, "starting_price": startingPrice},
		}, now))
		return nil
	})
	return id, err
}

// Bid places a new highest bid. Each accepted bid must strictly exceed the
// current one and at least match the starting price. The previous bidder's
// escrow is refunded before the new pledge is recorded, inside one guarded
// operation.
func (s *Service) Bid(bidder string, auctionID, amount int64, asset string) error {
	return s.ledger.Run(func() error {
		if err := s.platform.CheckTrade(asset); err != nil {
			return err
		}
		auction, err := s.get(auctionID)
		if err != nil {
			return err
		}
		if auction.Ended() || !s.ledger.Now().Before(auction.EndTime) {
			return core.ErrAuctionClosed
		}
		if amount < auction.StartingPrice {
			return core.ErrBelowStartingPrice
		}
		if amount <= auction.CurrentBid {
			return core.ErrBidTooLow
		}
		// Pre-check the new bidder's funds: once the previous refund has
		// applied, nothing below may fail.
		if s.treasury.BalanceLocked(bidder, asset) < amount {
			return fmt.Errorf("%w: bid of %d %s", core.ErrInsufficientFunds, amount, asset)
		}
		if auction.CurrentBidder != "" {
			if err := s.escrow.Refund(auction.EscrowID); err != nil {
				return fmt.Errorf("refunding previous bid: %w", err)
			}
		}
		escrowID, err := s.escrow.Deposit(bidder, amount, asset)
		if err != nil {
			return err
		}
		auction.CurrentBid = amount
		auction.CurrentBidder = bidder
		auction.Asset = asset
		auction.EscrowID = escrowID
		s.events.Emit(events.Stamp(events.Event{
			Operation: "auction.bid",
			Entity:    "auction",
			EntityID:  auctionID,
			Actors:    map[string]string{"bidder": bidder, "seller": auction.Seller},
			Amounts:   map[string]int64{"amount": amount},
			Asset:     asset,
		}, s.ledger.Now()))
		return nil
	})
}

// End settles an auction. Anyone may end it once the end time has passed;
// the seller may end it early. With a bidder, the escrow splits to seller
// and fee recipient and the certificate moves to the bidder; without one,
// the auction ends unsold and nothing moves.
func (s *Service) End(caller string, auctionID int64) error {
	return s.ledger.Run(func() error {
		if s.platform.PausedLocked() {
			return core.ErrPaused
		}
		auction, err := s.get(auctionID)
		if err != nil {
			return err
		}
		if auction.Ended() {
			return core.ErrAlreadySettled
		}
		if caller != auction.Seller && s.ledger.Now().Before(auction.EndTime) {
			return core.ErrAuctionClosed
		}
		if auction.CurrentBidder == "" {
			auction.Status = StatusUnsold
			s.events.Emit(events.Stamp(events.Event{
				Operation: "auction.ended_unsold",
				Entity:    "auction",
				EntityID:  auctionID,
				Actors:    map[string]string{"seller": auction.Seller},
			}, s.ledger.Now()))
			return nil
		}
		if err := s.registry.CanTransfer(auction.CertificateID, auction.Seller, Operator); err != nil {
			// Expiry and burn can never be lifted. Unwind instead of leaving
			// the winning pledge stranded; the issuer can lift the other
			// gates, so for those the auction stays open.
			if errors.Is(err, core.ErrExpired) || errors.Is(err, core.ErrNotFound) {
				if rerr := s.escrow.Refund(auction.EscrowID); rerr != nil {
					return rerr
				}
				auction.Status = StatusUnsold
				s.events.Emit(events.Stamp(events.Event{
					Operation: "auction.ended_unsold",
					Entity:    "auction",
					EntityID:  auctionID,
					Actors:    map[string]string{"seller": auction.Seller, "refunded": auction.CurrentBidder},
					Amounts:   map[string]int64{"refunded": auction.CurrentBid},
					Asset:     auction.Asset,
				}, s.ledger.Now()))
				return nil
			}
			return err
		}
		fee, sellerAmount := core.FeeSplit(auction.CurrentBid, s.platform.FeeBpsLocked())
		splits := []escrow.Split{{Recipient: auction.Seller, Amount: sellerAmount}}
		if fee > 0 {
			splits = append(splits, escrow.Split{Recipient: s.platform.FeeRecipientLocked(), Amount: fee})
		}
		if err := s.escrow.Release(auction.EscrowID, splits); err != nil {
			return err
		}
		if err := s.registry.TransferLocked(auction.CertificateID, auction.Seller, auction.CurrentBidder, Operator); err != nil {
			return err
		}
		auction.Status = StatusSold
		s.events.Emit(events.Stamp(events.Event{
			Operation: "auction.ended_sold",
			Entity:    "auction",
			EntityID:  auctionID,
			Actors:    map[string]string{"seller": auction.Seller, "winner": auction.CurrentBidder},
			Amounts: map[string]int64{
				"certificate_id": auction.CertificateID,
				"winning_bid":    auction.CurrentBid,
				"fee":            fee,
				"seller_amount":  sellerAmount,
			},
			Asset: auction.Asset,
		}, s.ledger.Now()))
		return nil
	})
}

// Cancel withdraws an auction before any bid has been placed. Seller-only.
func (s *Service) Cancel(caller string, auctionID int64) error {
	return s.ledger.Run(func() error {
		auction, err := s.get(auctionID)
		if err != nil {
			return err
		}
		if caller != auction.Seller {
			return core.ErrNotOwner
		}
		if auction.Ended() {
			return core.ErrAlreadySettled
		}
		if auction.CurrentBidder != "" {
			return core.ErrHasBids
		}
		auction.Status = StatusCancelled
		s.events.Emit(events.Stamp(events.Event{
			Operation: "auction.cancelled",
			Entity:    "auction",
			EntityID:  auctionID,
			Actors:    map[string]string{"seller": caller},
		}, s.ledger.Now()))
		return nil
	})
}

// Get returns a copy of an auction.
func (s *Service) Get(auctionID int64) (Auction, error) {
	var auction Auction
	var err error
	s.ledger.View(func() {
		var stored *Auction
		if stored, err = s.get(auctionID); err == nil {
			auction = *stored
		}
	})
	return auction, err
}

func (s *Service) get(id int64) (*Auction, error) {
	auction, ok := s.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: auction %d", core.ErrNotFound, id)
	}
	return auction, nil
}
