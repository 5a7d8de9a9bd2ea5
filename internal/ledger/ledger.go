package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrInsufficientBalance is returned when an account cannot cover a debit.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrZeroAmount is returned for movements of nothing.
	ErrZeroAmount = errors.New("zero amount")
	// ErrOverflow is returned when a credit would exceed 2^256-1.
	ErrOverflow = errors.New("balance overflow")
	// ErrInvalidOp is returned for an op that neither debits nor credits an account.
	ErrInvalidOp = errors.New("invalid ledger op")
)

// Op is a single balance movement. A zero From mints, a zero To burns.
type Op struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *uint256.Int
}

// Move builds a transfer op.
func Move(token, from, to common.Address, amount *uint256.Int) Op {
	return Op{Token: token, From: from, To: to, Amount: amount}
}

type balanceKey struct {
	token   common.Address
	account common.Address
}

// Ledger tracks fungible balances and total supply per token.
type Ledger struct {
	mu       sync.RWMutex
	balances map[balanceKey]*uint256.Int
	supply   map[common.Address]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[balanceKey]*uint256.Int),
		supply:   make(map[common.Address]*uint256.Int),
	}
}

// BalanceOf returns a copy of the account balance for token.
func (l *Ledger) BalanceOf(token, account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[balanceKey{token, account}]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

// TotalSupply returns a copy of the tracked supply for token.
func (l *Ledger) TotalSupply(token common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.supply[token]; ok {
		return s.Clone()
	}
	return uint256.NewInt(0)
}

// Mint credits account with newly created units of token.
func (l *Ledger) Mint(token, account common.Address, amount *uint256.Int) error {
	return l.Apply(Op{Token: token, To: account, Amount: amount})
}

// Burn destroys units of token held by account.
func (l *Ledger) Burn(token, account common.Address, amount *uint256.Int) error {
	return l.Apply(Op{Token: token, From: account, Amount: amount})
}

// Transfer moves amount of token between two accounts.
func (l *Ledger) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrInvalidOp
	}
	return l.Apply(Move(token, from, to, amount))
}

// Apply executes ops in order against running balances. Either every op is
// applied or none is.
func (l *Ledger) Apply(ops ...Op) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	staged := make(map[balanceKey]*uint256.Int)
	stagedSupply := make(map[common.Address]*uint256.Int)

	balance := func(key balanceKey) *uint256.Int {
		if bal, ok := staged[key]; ok {
			return bal
		}
		if bal, ok := l.balances[key]; ok {
			return bal.Clone()
		}
		return uint256.NewInt(0)
	}
	supply := func(token common.Address) *uint256.Int {
		if s, ok := stagedSupply[token]; ok {
			return s
		}
		if s, ok := l.supply[token]; ok {
			return s.Clone()
		}
		return uint256.NewInt(0)
	}

	for i, op := range ops {
		if op.Amount == nil || op.Amount.IsZero() {
			return fmt.Errorf("op %d: %w", i, ErrZeroAmount)
		}
		mint := op.From == (common.Address{})
		burn := op.To == (common.Address{})
		if mint && burn {
			return fmt.Errorf("op %d: %w", i, ErrInvalidOp)
		}

		if mint {
			next, overflow := new(uint256.Int).AddOverflow(supply(op.Token), op.Amount)
			if overflow {
				return fmt.Errorf("op %d mint %s: %w", i, op.Token.Hex(), ErrOverflow)
			}
			stagedSupply[op.Token] = next
		} else {
			fromKey := balanceKey{op.Token, op.From}
			bal := balance(fromKey)
			if bal.Lt(op.Amount) {
				return fmt.Errorf("op %d: account %s token %s has %s, needs %s: %w",
					i, op.From.Hex(), op.Token.Hex(), bal.Dec(), op.Amount.Dec(), ErrInsufficientBalance)
			}
			staged[fromKey] = new(uint256.Int).Sub(bal, op.Amount)
		}

		if burn {
			stagedSupply[op.Token] = new(uint256.Int).Sub(supply(op.Token), op.Amount)
		} else {
			toKey := balanceKey{op.Token, op.To}
			next, overflow := new(uint256.Int).AddOverflow(balance(toKey), op.Amount)
			if overflow {
				return fmt.Errorf("op %d credit %s: %w", i, op.To.Hex(), ErrOverflow)
			}
			staged[toKey] = next
		}
	}

	for key, bal := range staged {
		if bal.IsZero() {
			delete(l.balances, key)
			continue
		}
		l.balances[key] = bal
	}
	for token, s := range stagedSupply {
		l.supply[token] = s
	}
	return nil
}

// Holders returns the accounts holding a non-zero balance of token.
func (l *Ledger) Holders(token common.Address) []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]common.Address, 0)
	for key := range l.balances {
		if key.token == token {
			out = append(out, key.account)
		}
	}
	return out
}
