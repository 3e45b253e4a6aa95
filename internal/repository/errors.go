package repository

import "errors"

// Business-rule rejections raised inside a ledger transaction. Both cause a
// full rollback; the caller must change the request, retrying is pointless.
var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
)
