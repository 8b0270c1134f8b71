package sqlite

// Row is a single result row produced by stepping a Statement. It is
// invalidated by the next Step call; column access goes through FromSql
// (spec.md §3).
type Row struct{ stmt *Stmt }

// ColumnCount reports the number of columns in the row.
func (r *Row) ColumnCount() int { return r.stmt.ColumnCount() }

// ColumnName returns the name of the col'th column.
func (r *Row) ColumnName(col int) string { return r.stmt.ColumnName(col) }

// Scan decodes the col'th column into dst (a pointer), via FromSql.
func (r *Row) Scan(col int, dst interface{}) error {
	if col < 0 || col >= r.stmt.ColumnCount() {
		return InvalidColumnIndex(col)
	}
	ref := r.stmt.ColumnValueRef(col)
	if err := scanInto(ref, dst); err != nil {
		return wrapFromSqlError(err, col, r.stmt.ColumnName(col), ref)
	}
	return nil
}

// Get decodes the named column (case-insensitive) into dst.
func (r *Row) Get(name string, dst interface{}) error {
	col := r.stmt.ColumnIndex(name)
	if col < 0 {
		return InvalidColumnName(name)
	}
	ref := r.stmt.ColumnValueRef(col)
	if err := scanInto(ref, dst); err != nil {
		return wrapFromSqlError(err, col, r.stmt.ColumnName(col), ref)
	}
	return nil
}

// wrapFromSqlError adds column context to a FromSqlError raised while
// decoding a row, turning it into the named top-level error spec.md §7
// documents for that failure mode; any other error (e.g. one already
// returned by a user FromSql implementor) passes through unchanged.
func wrapFromSqlError(err error, col int, name string, ref ValueRef) error {
	fe, ok := err.(*FromSqlError)
	if !ok {
		return err
	}
	switch fe.Kind {
	case FromSqlOutOfRange:
		return &IntegralValueOutOfRange{ColumnIndex: col, Value: fe.Value}
	case FromSqlInvalidType:
		return &InvalidColumnType{Index: col, Name: name, Type: ref.Type()}
	default:
		return &FromSqlConversionFailure{ColumnIndex: col, ObservedType: ref.Type(), Err: fe}
	}
}

// ScanAll decodes every column of the row into dsts, positionally.
func (r *Row) ScanAll(dsts ...interface{}) error {
	if len(dsts) != r.stmt.ColumnCount() {
		return &InvalidParameterCount{Got: len(dsts), Expected: r.stmt.ColumnCount()}
	}
	for i, dst := range dsts {
		if err := r.Scan(i, dst); err != nil {
			return err
		}
	}
	return nil
}

// Rows is the lazy sequence produced by stepping a Statement (spec.md
// §3): not restartable without re-binding, finite, and yielding Row
// references invalidated on the next step.
type Rows struct {
	stmt *Stmt
	row  Row
	err  error
	done bool
}

// Query prepares sql, binds args, and returns a Rows cursor over it. The
// caller must call Rows.Close (or exhaust Next to false) to finalize the
// underlying statement.
func (c *Connection) Query(sql string, args ...interface{}) (*Rows, error) {
	stmt, err := c.Prepare(sql)
	if err != nil {
		return nil, err
	}
	if err := stmt.bindAll(args); err != nil {
		stmt.Finalize()
		return nil, err
	}
	return &Rows{stmt: stmt, row: Row{stmt: stmt}}, nil
}

// Next advances to the next row, reporting whether one is available.
func (rs *Rows) Next() bool {
	if rs.done {
		return false
	}
	hasRow, err := rs.stmt.Step()
	if err != nil {
		rs.err = err
		rs.done = true
		_ = rs.stmt.Finalize()
		return false
	}
	if !hasRow {
		rs.done = true
		_ = rs.stmt.Finalize()
		return false
	}
	return true
}

// Row returns the current row. Valid only between a Next call that
// returned true and the following Next/Close call.
func (rs *Rows) Row() *Row { return &rs.row }

// Err returns the first error encountered while stepping, if any.
func (rs *Rows) Err() error { return rs.err }

// Close finalizes the underlying statement. Safe to call more than once.
func (rs *Rows) Close() error {
	rs.done = true
	return rs.stmt.Finalize()
}
