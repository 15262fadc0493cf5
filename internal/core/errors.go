package core

import "errors"

// Validation errors: bad input shape or range, rejected before any mutation.
var (
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidField     = errors.New("required field is empty")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidExpiry    = errors.New("invalid expiry")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrFeeTooHigh       = errors.New("fee exceeds maximum basis points")
)

// Authorization errors: the caller is not the required identity.
var (
	ErrNotIssuer = errors.New("caller is not the issuer")
	ErrNotHolder = errors.New("caller is not the holder")
	ErrNotOwner  = errors.New("caller is not the owner")
)

// State errors: the entity is in the wrong lifecycle state.
var (
	ErrNotFound             = errors.New("not found")
	ErrNotVerified          = errors.New("certificate is not verified")
	ErrExpired              = errors.New("expired")
	ErrNotTransferable      = errors.New("certificate is not transferable")
	ErrNotApproved          = errors.New("market is not approved for this certificate")
	ErrNotActive            = errors.New("not active")
	ErrAlreadySettled       = errors.New("already settled")
	ErrAuctionClosed        = errors.New("auction is closed")
	ErrBidTooLow            = errors.New("bid does not exceed current bid")
	ErrBelowStartingPrice   = errors.New("bid is below starting price")
	ErrHasBids              = errors.New("auction already has bids")
	ErrOfferExpired         = errors.New("offer has expired")
	ErrInsufficientQuantity = errors.New("insufficient remaining quantity")
	ErrPaused               = errors.New("marketplace is paused")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrNotPlatformVerified  = errors.New("issuer is not platform-verified")
	ErrProjectNotVerified   = errors.New("project is not verified")
	ErrProjectExhausted     = errors.New("project issuance balance exhausted")
)

// Settlement errors: a fund-movement invariant would be violated. The whole
// operation aborts with funds and ownership untouched.
var (
	ErrSplitMismatch       = errors.New("release splits do not sum to escrowed amount")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrUnsupportedAsset    = errors.New("unsupported payment asset")
	ErrReentrantCall       = errors.New("reentrant call rejected")
	ErrStalePrice          = errors.New("price data is stale")
)
