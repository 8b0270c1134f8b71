package sqlite

import "fmt"

// IntegrityCheck runs PRAGMA integrity_check (or quick_check, if quick is
// true) against schema ("" selects the default 'main'), checking at most
// max problems before giving up.
//
// grounded on _examples/mrdude-gosqlite/pragma.go's IntegrityCheck,
// rebased onto QueryOne/Row instead of Conn.oneValue/Stmt.Scan.
func (c *Connection) IntegrityCheck(schema string, max int, quick bool) error {
	name := "integrity_check"
	if quick {
		name = "quick_check"
	}
	var msg string
	err := c.QueryOne(pragmaStmt(schema, fmt.Sprintf("%s(%d)", name, max)), nil, func(r *Row) error {
		return r.Scan(0, &msg)
	})
	if err != nil {
		return err
	}
	if msg != "ok" {
		return fmt.Errorf("sqlite: integrity check failed on %q: %s", schema, msg)
	}
	return nil
}

// Encoding returns the text encoding used by schema ("" selects 'main').
func (c *Connection) Encoding(schema string) (string, error) {
	var encoding string
	err := c.QueryOne(pragmaStmt(schema, "encoding"), nil, func(r *Row) error {
		return r.Scan(0, &encoding)
	})
	return encoding, err
}

// SchemaVersion returns schema's PRAGMA schema_version.
func (c *Connection) SchemaVersion(schema string) (int, error) {
	var version int
	err := c.QueryOne(pragmaStmt(schema, "schema_version"), nil, func(r *Row) error {
		return r.Scan(0, &version)
	})
	return version, err
}

// SetRecursiveTriggers enables or disables recursive trigger invocation
// for schema.
func (c *Connection) SetRecursiveTriggers(schema string, on bool) error {
	_, err := c.Execute(pragmaStmt(schema, fmt.Sprintf("recursive_triggers=%t", on)))
	return err
}

// JournalMode returns schema's current journal mode.
func (c *Connection) JournalMode(schema string) (string, error) {
	var mode string
	err := c.QueryOne(pragmaStmt(schema, "journal_mode"), nil, func(r *Row) error {
		return r.Scan(0, &mode)
	})
	return mode, err
}

// SetJournalMode changes schema's journal mode, returning the mode the
// engine actually settled on (WAL mode, for example, can be refused for a
// :memory: database).
func (c *Connection) SetJournalMode(schema, mode string) (string, error) {
	var newMode string
	err := c.QueryOne(pragmaStmt(schema, fmt.Sprintf("journal_mode=%s", quoteIdent(mode))), nil, func(r *Row) error {
		return r.Scan(0, &newMode)
	})
	return newMode, err
}

// LockingMode returns schema's connection locking mode.
func (c *Connection) LockingMode(schema string) (string, error) {
	var mode string
	err := c.QueryOne(pragmaStmt(schema, "locking_mode"), nil, func(r *Row) error {
		return r.Scan(0, &mode)
	})
	return mode, err
}

// SetLockingMode changes schema's connection locking mode.
func (c *Connection) SetLockingMode(schema, mode string) (string, error) {
	var newMode string
	err := c.QueryOne(pragmaStmt(schema, fmt.Sprintf("locking_mode=%s", quoteIdent(mode))), nil, func(r *Row) error {
		return r.Scan(0, &newMode)
	})
	return newMode, err
}

// Synchronous returns schema's PRAGMA synchronous level.
func (c *Connection) Synchronous(schema string) (int, error) {
	var level int
	err := c.QueryOne(pragmaStmt(schema, "synchronous"), nil, func(r *Row) error {
		return r.Scan(0, &level)
	})
	return level, err
}

// SetSynchronous changes schema's PRAGMA synchronous level.
func (c *Connection) SetSynchronous(schema string, level int) error {
	_, err := c.Execute(pragmaStmt(schema, fmt.Sprintf("synchronous=%d", level)))
	return err
}

// FkViolation is a single row of PRAGMA foreign_key_check output.
type FkViolation struct {
	Table  string
	Rowid  int64
	Parent string
	Fkid   int
}

// ForeignKeyCheck runs PRAGMA foreign_key_check, scoped to table if
// non-empty, and returns one FkViolation per constraint violation found.
func (c *Connection) ForeignKeyCheck(schema, table string) ([]FkViolation, error) {
	stmt := "PRAGMA "
	switch {
	case schema == "" && table == "":
		stmt += "foreign_key_check"
	case schema == "":
		stmt += fmt.Sprintf("foreign_key_check(%s)", quoteIdent(table))
	case table == "":
		stmt += fmt.Sprintf("%s.foreign_key_check", quoteIdent(schema))
	default:
		stmt += fmt.Sprintf("%s.foreign_key_check(%s)", quoteIdent(schema), quoteIdent(table))
	}

	prepared, err := c.Prepare(stmt)
	if err != nil {
		return nil, err
	}
	defer prepared.Finalize()

	violations := make([]FkViolation, 0, 8)
	for {
		hasRow, err := prepared.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		row := Row{stmt: prepared}
		var v FkViolation
		if err := row.ScanAll(&v.Table, &v.Rowid, &v.Parent, &v.Fkid); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, nil
}

func pragmaStmt(schema, pragma string) string {
	if schema == "" {
		return "PRAGMA " + pragma
	}
	return fmt.Sprintf("PRAGMA %s.%s", quoteIdent(schema), pragma)
}

// quoteIdent double-quotes name as a SQL identifier, escaping embedded
// quotes, for positions (schema/table names, PRAGMA string arguments)
// that cannot be parameter-bound.
func quoteIdent(name string) string {
	return `"` + escapeIdent(name) + `"`
}
