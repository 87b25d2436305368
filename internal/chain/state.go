package chain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/safemath"
)

// txn is the state of one transaction in flight. Every frame of the
// transaction shares it; nothing reaches the database outside tx.
type txn struct {
	ctx      context.Context
	tx       *sqlx.Tx
	chain    *Chain
	readOnly bool
	now      time.Time

	events    []Event
	created   []createdContract
	destroyed int
}

type createdContract struct {
	Address common.Address
	Kind    string
}

func (t *txn) q(query string) string { return t.tx.Rebind(query) }

func (t *txn) ensureAccount(addr common.Address) error {
	var n int
	if err := t.tx.GetContext(t.ctx, &n, t.q(`SELECT COUNT(*) FROM accounts WHERE address = ?`), addr.Hex()); err != nil {
		return fmt.Errorf("count account: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err := t.tx.ExecContext(t.ctx, t.q(`INSERT INTO accounts (address, balance, nonce) VALUES (?, '0', 0)`), addr.Hex())
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (t *txn) balance(addr common.Address) (*uint256.Int, error) {
	var raw string
	err := t.tx.GetContext(t.ctx, &raw, t.q(`SELECT balance FROM accounts WHERE address = ?`), addr.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select balance: %w", err)
	}
	v, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("parse balance of %s: %w", addr.Hex(), err)
	}
	return v, nil
}

func (t *txn) setBalance(addr common.Address, v *uint256.Int) error {
	if err := t.ensureAccount(addr); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx, t.q(`UPDATE accounts SET balance = ? WHERE address = ?`), v.Dec(), addr.Hex())
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

// transfer moves amount of the native currency from one account to another.
func (t *txn) transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	fromBal, err := t.balance(from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return fault.ErrInsufficientBalance
	}
	if err := t.setBalance(from, new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := t.balance(to)
	if err != nil {
		return err
	}
	sum, err := safemath.Add(toBal, amount)
	if err != nil {
		return err
	}
	return t.setBalance(to, sum)
}

// mint credits amount to addr out of thin air.
func (t *txn) mint(addr common.Address, amount *uint256.Int) error {
	bal, err := t.balance(addr)
	if err != nil {
		return err
	}
	sum, err := safemath.Add(bal, amount)
	if err != nil {
		return err
	}
	return t.setBalance(addr, sum)
}

// nextNonce returns the current nonce of addr and increments it.
func (t *txn) nextNonce(addr common.Address) (uint64, error) {
	if err := t.ensureAccount(addr); err != nil {
		return 0, err
	}
	var nonce uint64
	if err := t.tx.GetContext(t.ctx, &nonce, t.q(`SELECT nonce FROM accounts WHERE address = ?`), addr.Hex()); err != nil {
		return 0, fmt.Errorf("select nonce: %w", err)
	}
	if _, err := t.tx.ExecContext(t.ctx, t.q(`UPDATE accounts SET nonce = ? WHERE address = ?`), nonce+1, addr.Hex()); err != nil {
		return 0, fmt.Errorf("update nonce: %w", err)
	}
	return nonce, nil
}

type contractRow struct {
	Kind      string `db:"kind"`
	Version   string `db:"version"`
	Destroyed int    `db:"destroyed"`
}

// codeAt returns the code deployed at addr, or fault.ErrNoCode when the
// address holds no live contract.
func (t *txn) codeAt(addr common.Address) (Code, error) {
	var row contractRow
	err := t.tx.GetContext(t.ctx, &row, t.q(`SELECT kind, version, destroyed FROM contracts WHERE address = ?`), addr.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return Code{}, fmt.Errorf("%s: %w", addr.Hex(), fault.ErrNoCode)
	}
	if err != nil {
		return Code{}, fmt.Errorf("select contract: %w", err)
	}
	if row.Destroyed != 0 {
		return Code{}, fmt.Errorf("%s destroyed: %w", addr.Hex(), fault.ErrNoCode)
	}
	code, ok := t.chain.code(row.Kind, row.Version)
	if !ok {
		return Code{}, fmt.Errorf("%s: unregistered code %s/%s", addr.Hex(), row.Kind, row.Version)
	}
	return code, nil
}

// install records a new contract of the given code at addr.
func (t *txn) install(addr, creator common.Address, code Code) error {
	if err := t.ensureAccount(addr); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		t.q(`INSERT INTO contracts (address, kind, version, creator, destroyed, created_at) VALUES (?, ?, ?, ?, 0, ?)`),
		addr.Hex(), code.Kind, code.Version, creator.Hex(), t.now)
	if err != nil {
		return fmt.Errorf("insert contract: %w", err)
	}
	t.created = append(t.created, createdContract{Address: addr, Kind: code.Kind})
	return nil
}

// destroy removes the code and every stored word of the contract at addr.
func (t *txn) destroy(addr common.Address, code Code) error {
	if _, err := t.tx.ExecContext(t.ctx, t.q(`UPDATE contracts SET destroyed = 1 WHERE address = ?`), addr.Hex()); err != nil {
		return fmt.Errorf("mark destroyed: %w", err)
	}
	if _, err := t.tx.ExecContext(t.ctx, t.q(`DELETE FROM storage WHERE contract = ?`), addr.Hex()); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	for _, table := range code.Tables {
		if _, err := t.tx.ExecContext(t.ctx, t.q(`DELETE FROM `+table+` WHERE contract = ?`), addr.Hex()); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	t.destroyed++
	return nil
}

func (t *txn) load(contract common.Address, slot common.Hash) (common.Hash, error) {
	var raw string
	err := t.tx.GetContext(t.ctx, &raw, t.q(`SELECT value FROM storage WHERE contract = ? AND slot = ?`), contract.Hex(), slot.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return common.Hash{}, nil
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("load slot: %w", err)
	}
	return common.HexToHash(raw), nil
}

// store writes a word. A zero word deletes the row, so an unset slot and a
// zeroed slot are indistinguishable.
func (t *txn) store(contract common.Address, slot, value common.Hash) error {
	if _, err := t.tx.ExecContext(t.ctx, t.q(`DELETE FROM storage WHERE contract = ? AND slot = ?`), contract.Hex(), slot.Hex()); err != nil {
		return fmt.Errorf("clear slot: %w", err)
	}
	if value == (common.Hash{}) {
		return nil
	}
	_, err := t.tx.ExecContext(t.ctx, t.q(`INSERT INTO storage (contract, slot, value) VALUES (?, ?, ?)`), contract.Hex(), slot.Hex(), value.Hex())
	if err != nil {
		return fmt.Errorf("store slot: %w", err)
	}
	return nil
}
