package sqlite

import "fmt"

// TransactionBehavior selects the BEGIN variant a Transaction opens with.
type TransactionBehavior int

const (
	// TxDeferred defers acquiring any lock until first use (BEGIN DEFERRED).
	TxDeferred TransactionBehavior = iota
	// TxImmediate acquires a write lock immediately (BEGIN IMMEDIATE).
	TxImmediate
	// TxExclusive acquires an exclusive lock immediately (BEGIN EXCLUSIVE).
	TxExclusive
)

func (b TransactionBehavior) String() string {
	switch b {
	case TxImmediate:
		return "IMMEDIATE"
	case TxExclusive:
		return "EXCLUSIVE"
	default:
		return "DEFERRED"
	}
}

// DropBehavior controls what a Transaction or Savepoint does when it goes
// out of scope (via Finish) without an explicit Commit/Rollback call.
type DropBehavior int

const (
	// DropRollback rolls back on scope exit. This is the default,
	// matching spec.md §3's "On scope exit: ... depending on DropBehavior
	// (default rollback)" — an un-committed transaction is assumed unsafe
	// to keep.
	DropRollback DropBehavior = iota
	// DropCommit commits on scope exit.
	DropCommit
	// DropIgnore leaves the transaction/savepoint open on scope exit; the
	// caller is responsible for its disposition via the underlying
	// connection directly.
	DropIgnore
	// DropPanic panics on scope exit if neither Commit nor Rollback was
	// called, surfacing programmer error immediately instead of silently
	// rolling back.
	DropPanic
)

// Transaction is a scoped acquisition of an engine write lock (spec.md
// §3). It keeps a plain reference to its Connection; the package does not
// track how many Transactions are live on a Connection, and the engine
// rejects a BEGIN issued while another transaction is still open.
type Transaction struct {
	conn     *Connection
	done     bool
	behavior TransactionBehavior
	drop     DropBehavior
}

// Transaction begins a transaction with the given behavior. It performs
// no check of its own for an already open transaction on the connection;
// a nested BEGIN fails in the engine and that error is returned.
// Callers must call Commit, Rollback, or Finish (which applies drop) to
// end it.
func (c *Connection) Transaction(behavior TransactionBehavior) (*Transaction, error) {
	return c.beginTransaction(behavior)
}

// UncheckedTransaction is identical to Transaction: both issue the same
// BEGIN, and neither performs an exclusive-borrow check.
func (c *Connection) UncheckedTransaction(behavior TransactionBehavior) (*Transaction, error) {
	return c.beginTransaction(behavior)
}

func (c *Connection) beginTransaction(behavior TransactionBehavior) (*Transaction, error) {
	sql := "BEGIN " + behavior.String()
	if err := c.ExecuteBatch(sql); err != nil {
		return nil, err
	}
	return &Transaction{conn: c, behavior: behavior, drop: DropRollback}, nil
}

// SetDropBehavior changes what Finish does when neither Commit nor
// Rollback has been called. Default is DropRollback.
func (t *Transaction) SetDropBehavior(b DropBehavior) { t.drop = b }

// Commit ends the transaction, committing its effects. Consumes the
// Transaction: calling any method on it afterward is a no-op returning nil.
func (t *Transaction) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.conn.ExecuteBatch("COMMIT")
}

// Rollback ends the transaction, discarding its effects.
func (t *Transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.conn.ExecuteBatch("ROLLBACK")
}

// Finish applies the transaction's DropBehavior if neither Commit nor
// Rollback has already been called. Call this (typically via defer)
// instead of relying on garbage collection, since Go has no infallible
// Drop to enforce spec.md's "On scope exit" rule automatically.
func (t *Transaction) Finish() error {
	if t.done {
		return nil
	}
	switch t.drop {
	case DropCommit:
		return t.Commit()
	case DropIgnore:
		t.done = true
		return nil
	case DropPanic:
		panic("sqlite: Transaction dropped without Commit or Rollback")
	default:
		return t.Rollback()
	}
}

// Savepoint is a named, nestable sub-transaction (spec.md Glossary).
// Rolling back to a savepoint invalidates newer savepoints and leaves
// the enclosing transaction open.
type Savepoint struct {
	conn *Connection
	name string
	done bool
	drop DropBehavior
}

// Savepoint opens a new named savepoint.
func (c *Connection) Savepoint(name string) (*Savepoint, error) {
	if err := c.ExecuteBatch(fmt.Sprintf("SAVEPOINT %q", name)); err != nil {
		return nil, err
	}
	return &Savepoint{conn: c, name: name, drop: DropRollback}, nil
}

// SetDropBehavior changes Finish's default behavior (DropRollback).
func (s *Savepoint) SetDropBehavior(b DropBehavior) { s.drop = b }

// Release releases the savepoint, folding its effects into the enclosing
// transaction.
func (s *Savepoint) Release() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.conn.ExecuteBatch(fmt.Sprintf("RELEASE %q", s.name))
}

// RollbackTo rolls back to the savepoint without releasing it, undoing
// any newer, nested savepoints.
func (s *Savepoint) RollbackTo() error {
	return s.conn.ExecuteBatch(fmt.Sprintf("ROLLBACK TO %q", s.name))
}

// Finish applies the savepoint's DropBehavior if neither Release nor an
// explicit RollbackTo+Release has marked it done.
func (s *Savepoint) Finish() error {
	if s.done {
		return nil
	}
	switch s.drop {
	case DropCommit:
		return s.Release()
	case DropIgnore:
		s.done = true
		return nil
	case DropPanic:
		panic("sqlite: Savepoint dropped without Release")
	default:
		if err := s.RollbackTo(); err != nil {
			return err
		}
		s.done = true
		return s.conn.ExecuteBatch(fmt.Sprintf("RELEASE %q", s.name))
	}
}
