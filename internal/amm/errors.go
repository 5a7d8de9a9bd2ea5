package amm

import (
	"errors"

	"ammScope/internal/ledger"
)

var (
	ErrZeroAmount          = ledger.ErrZeroAmount
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	ErrOverflow            = ledger.ErrOverflow

	ErrInsufficientShare  = errors.New("insufficient lp shares")
	ErrEmptyPool          = errors.New("pool is empty")
	ErrInsufficientOutput = errors.New("insufficient output amount")
	ErrInvalidToken       = errors.New("token not in pool")
	ErrInvalidPool        = errors.New("invalid pool config")
	ErrLedgerMismatch     = errors.New("pools do not share a ledger")
)
