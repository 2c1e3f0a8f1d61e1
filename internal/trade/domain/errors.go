package domain

import "errors"

var (
	ErrNotPendingSignature = errors.New("trade: not in PENDING_SIGNATURE status")
	ErrAlreadySigned       = errors.New("trade: side already signed")
	ErrNotPendingAddress   = errors.New("trade: not in PENDING_ADDRESS_SELECTION status")
	ErrIncompleteTerms     = errors.New("trade: terms incomplete")
	ErrImmutable           = errors.New("trade: contract is immutable once active")
)
