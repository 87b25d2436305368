// Package chain executes contract calls as serialized, all-or-nothing
// transactions over world state kept in SQL. Each call runs inside one
// database transaction; an error anywhere in the call tree rolls back every
// write it made.
package chain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/jmoiron/sqlx"

	"github.com/joestump/joe-market/internal/fault"
	"github.com/joestump/joe-market/internal/metrics"
)

// Logger is the logging surface the chain needs. *logger.L satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Msg is an externally submitted call.
type Msg struct {
	From   common.Address
	To     common.Address
	Value  *uint256.Int
	Method string
}

// Receipt is the record of a committed transaction.
type Receipt struct {
	ID        string         `json:"id"`
	From      common.Address `json:"from"`
	To        common.Address `json:"to"`
	Method    string         `json:"method"`
	Value     *uint256.Int   `json:"value"`
	Created   common.Address `json:"created"`
	Events    []Event        `json:"events"`
	CreatedAt time.Time      `json:"created_at"`
}

// Chain serializes every state-changing call behind one lock. Views may
// run concurrently with each other.
type Chain struct {
	db  *sqlx.DB
	log Logger
	now func() time.Time

	mu    sync.RWMutex
	codes map[string]Code
}

// New creates a Chain over db with the given contract codes registered.
// A nil log discards output.
func New(db *sqlx.DB, log Logger, codes ...Code) *Chain {
	if log == nil {
		log = nopLogger{}
	}
	c := &Chain{db: db, log: log, now: time.Now, codes: make(map[string]Code)}
	c.Register(codes...)
	return c
}

// Register adds contract codes to the registry.
func (c *Chain) Register(codes ...Code) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, code := range codes {
		c.codes[code.ID()] = code
	}
}

// code is called with c.mu held by the running transaction.
func (c *Chain) code(kind, version string) (Code, bool) {
	code, ok := c.codes[kind+"/"+version]
	return code, ok
}

// Transact runs fn against the contract at msg.To with msg.From as caller.
// The attached value moves to msg.To before fn runs. When fn returns an
// error, every change is discarded and a *RevertError is returned.
func (c *Chain) Transact(ctx context.Context, msg Msg, fn func(target any) error) (*Receipt, error) {
	return c.run(ctx, msg, func(t *txn) error {
		code, err := t.codeAt(msg.To)
		if err != nil {
			return err
		}
		if err := t.transfer(msg.From, msg.To, msg.Value); err != nil {
			return err
		}
		f := &Frame{t: t, self: msg.To, code: code, caller: msg.From, value: msg.Value}
		return fn(code.Bind(f))
	})
}

// Deploy creates a contract of the registered kind and version on behalf
// of from and runs ctor against it. The receipt's Created field holds the
// new address.
func (c *Chain) Deploy(ctx context.Context, from common.Address, kind, version string, ctor func(target any) error) (*Receipt, error) {
	msg := Msg{From: from, Method: "deploy:" + kind}
	return c.run(ctx, msg, func(t *txn) error {
		code, ok := c.code(kind, version)
		if !ok {
			return fmt.Errorf("unregistered code %s/%s", kind, version)
		}
		nonce, err := t.nextNonce(from)
		if err != nil {
			return err
		}
		addr := crypto.CreateAddress(from, nonce)
		if err := t.install(addr, from, code); err != nil {
			return err
		}
		if ctor == nil {
			return nil
		}
		f := &Frame{t: t, self: addr, code: code, caller: from}
		return ctor(code.Bind(f))
	})
}

// Mint credits amount to addr. It stands in for a genesis allocation.
func (c *Chain) Mint(ctx context.Context, addr common.Address, amount *uint256.Int) (*Receipt, error) {
	msg := Msg{To: addr, Value: amount, Method: "mint"}
	return c.run(ctx, msg, func(t *txn) error {
		if addr == (common.Address{}) {
			return fault.ErrZeroAddress
		}
		if amount == nil || amount.IsZero() {
			return fault.ErrZeroAmount
		}
		return t.mint(addr, amount)
	})
}

// View runs fn against the contract at to without persisting anything.
// The caller seen by the contract is the zero address.
func (c *Chain) View(ctx context.Context, to common.Address, fn func(target any) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin view: %w", err)
	}
	defer tx.Rollback()

	t := &txn{ctx: ctx, tx: tx, chain: c, readOnly: true, now: c.now().UTC()}
	code, err := t.codeAt(to)
	if err != nil {
		return err
	}
	return fn(code.Bind(&Frame{t: t, self: to, code: code}))
}

// Balance returns the native balance of addr.
func (c *Chain) Balance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	var bal *uint256.Int
	err := c.read(ctx, func(t *txn) error {
		var err error
		bal, err = t.balance(addr)
		return err
	})
	return bal, err
}

// CodeAt returns the live code deployed at addr.
func (c *Chain) CodeAt(ctx context.Context, addr common.Address) (Code, error) {
	var code Code
	err := c.read(ctx, func(t *txn) error {
		var err error
		code, err = t.codeAt(addr)
		return err
	})
	return code, err
}

func (c *Chain) read(ctx context.Context, fn func(t *txn) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()
	return fn(&txn{ctx: ctx, tx: tx, chain: c, readOnly: true, now: c.now().UTC()})
}

func (c *Chain) run(ctx context.Context, msg Msg, fn func(t *txn) error) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	r, err := c.execute(ctx, msg, fn)
	metrics.TransactionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues(msg.Method, "reverted").Inc()
		c.log.Debugf("%s from %s to %s reverted: %v", msg.Method, msg.From.Hex(), msg.To.Hex(), err)
		return nil, &RevertError{Method: msg.Method, Err: err}
	}
	metrics.TransactionsTotal.WithLabelValues(msg.Method, "ok").Inc()
	c.log.Debugf("%s from %s to %s committed as %s", msg.Method, msg.From.Hex(), msg.To.Hex(), r.ID)
	return r, nil
}

func (c *Chain) execute(ctx context.Context, msg Msg, fn func(t *txn) error) (*Receipt, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t := &txn{ctx: ctx, tx: tx, chain: c, now: c.now().UTC()}
	if err := fn(t); err != nil {
		return nil, err
	}

	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	r := &Receipt{
		ID:        uuid.New().String(),
		From:      msg.From,
		To:        msg.To,
		Method:    msg.Method,
		Value:     value,
		Events:    t.events,
		CreatedAt: t.now,
	}
	if len(t.created) > 0 {
		r.Created = t.created[0].Address
	}
	if r.Events == nil {
		r.Events = []Event{}
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO transactions (id, sender, target, method, value, created, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.From.Hex(), r.To.Hex(), r.Method, value.Dec(), createdHex(r.Created), r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	for i, ev := range t.events {
		fields, err := json.Marshal(ev.Fields)
		if err != nil {
			return nil, fmt.Errorf("marshal event fields: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO events (tx_id, log_index, address, name, fields) VALUES (?, ?, ?, ?, ?)`),
			r.ID, i, ev.Address.Hex(), ev.Name, string(fields))
		if err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	metrics.EventsEmittedTotal.Add(float64(len(t.events)))
	for _, cc := range t.created {
		metrics.ContractsCreatedTotal.WithLabelValues(cc.Kind).Inc()
	}
	if t.destroyed > 0 {
		metrics.ContractsDestroyedTotal.Add(float64(t.destroyed))
	}
	return r, nil
}

func createdHex(a common.Address) string {
	if a == (common.Address{}) {
		return ""
	}
	return a.Hex()
}

type txRow struct {
	ID        string    `db:"id"`
	Sender    string    `db:"sender"`
	Target    string    `db:"target"`
	Method    string    `db:"method"`
	Value     string    `db:"value"`
	Created   string    `db:"created"`
	CreatedAt time.Time `db:"created_at"`
}

type eventRow struct {
	Address string `db:"address"`
	Name    string `db:"name"`
	Fields  string `db:"fields"`
}

// Receipt looks up a committed transaction by id. Returns
// fault.ErrNotFound when no such transaction exists.
func (c *Chain) Receipt(ctx context.Context, id string) (*Receipt, error) {
	var row txRow
	err := c.db.GetContext(ctx, &row, c.db.Rebind(`SELECT id, sender, target, method, value, created, created_at FROM transactions WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select transaction: %w", err)
	}
	value, err := uint256.FromDecimal(row.Value)
	if err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}
	r := &Receipt{
		ID:        row.ID,
		From:      common.HexToAddress(row.Sender),
		To:        common.HexToAddress(row.Target),
		Method:    row.Method,
		Value:     value,
		CreatedAt: row.CreatedAt,
		Events:    []Event{},
	}
	if row.Created != "" {
		r.Created = common.HexToAddress(row.Created)
	}

	var rows []eventRow
	err = c.db.SelectContext(ctx, &rows, c.db.Rebind(`SELECT address, name, fields FROM events WHERE tx_id = ? ORDER BY log_index`), id)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	for _, er := range rows {
		ev := Event{Address: common.HexToAddress(er.Address), Name: er.Name}
		if err := json.Unmarshal([]byte(er.Fields), &ev.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal event fields: %w", err)
		}
		r.Events = append(r.Events, ev)
	}
	return r, nil
}
