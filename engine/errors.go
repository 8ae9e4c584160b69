package engine

import "errors"

var (
	// ErrAssetMismatch is returned when the callback's asset is not the
	// configured base asset.
	ErrAssetMismatch = errors.New("borrowed asset is not the base asset")

	// ErrUntrustedCaller is returned when the callback is invoked by
	// anything other than the configured lending pool.
	ErrUntrustedCaller = errors.New("callback caller is not the lending pool")

	// ErrDeadlineExceeded is returned when the request deadline has
	// passed at callback entry.
	ErrDeadlineExceeded = errors.New("request deadline exceeded")

	// ErrInvalidToken is returned when the target token's decimals probe
	// fails or returns a degenerate value.
	ErrInvalidToken = errors.New("target token failed validation")

	// ErrInsufficientRepayment is returned when the final balance cannot
	// cover the loan plus premium.
	ErrInsufficientRepayment = errors.New("final balance below amount owed")

	// ErrInsufficientProfit is returned when the final balance covers
	// repayment but not the configured profit floor.
	ErrInsufficientProfit = errors.New("profit below configured minimum")
)
