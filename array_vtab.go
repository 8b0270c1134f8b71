package sqlite

import "fmt"

// Array is a bound Go slice of int64 exposed to SQL as a read-only,
// single-column eponymous virtual table, so that a slice in memory can sit
// on the right-hand side of an IN operator without binding one parameter
// per element:
//
//	arr, _ := conn.CreateArray("ex1")
//	arr.Bind([]int64{1, 2, 3, 4})
//	conn.QueryRow(`SELECT * FROM t WHERE x IN ex1`, nil, scan)
//
// A single Array can be rebound any number of times, but must not be
// rebound while a statement referencing it is mid-scan. Dropping the
// connection's temp database (on Close) discards it automatically.
//
// grounded on _examples/mrdude-gosqlite/intarray.go (itself grounded on
// SQLite's ext/misc/carray.c), adapted from the teacher's reflect.SliceHeader-
// free VTab/VTabCursor vocabulary and Value (not sqlite3_value) columns.
type Array interface {
	Bind(elements []int64)
	Drop() error
}

type arrayModule struct {
	conn    *Connection
	name    string
	content []int64
}

func (m *arrayModule) Connect(conn *Connection, args []string, declare func(string) error) (VTab, error) {
	if err := declare("CREATE TABLE x(value INTEGER PRIMARY KEY)"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *arrayModule) BestIndex(*IndexInfoInput) (*IndexInfoOutput, error) {
	return &IndexInfoOutput{}, nil
}

func (m *arrayModule) Disconnect() error { return nil }
func (m *arrayModule) Destroy() error    { return nil }

func (m *arrayModule) Open() (VTabCursor, error) {
	return &arrayCursor{module: m}, nil
}

type arrayCursor struct {
	module *arrayModule
	pos    int
}

func (c *arrayCursor) Filter(int, string, ...Value) error {
	c.pos = 0
	return nil
}

func (c *arrayCursor) Next() error {
	c.pos++
	return nil
}

func (c *arrayCursor) Eof() bool { return c.pos >= len(c.module.content) }

func (c *arrayCursor) Column(ctx *Context, idx int) error {
	if idx != 0 {
		return fmt.Errorf("sqlite: array vtab has a single column, got index %d", idx)
	}
	ctx.ResultInt64(c.module.content[c.pos])
	return nil
}

func (c *arrayCursor) Rowid() (int64, error) { return int64(c.pos), nil }
func (c *arrayCursor) Close() error          { return nil }

// CreateArray registers a new Array-backed virtual table under name in the
// connection's temp database and returns a handle for binding content to
// it.
func (c *Connection) CreateArray(name string) (Array, error) {
	module := &arrayModule{conn: c, name: name}
	if err := c.CreateModule(name, module); err != nil {
		return nil, err
	}
	if err := c.ExecuteBatch(fmt.Sprintf(`CREATE VIRTUAL TABLE temp."%s" USING "%s"`, escapeIdent(name), escapeIdent(name))); err != nil {
		return nil, err
	}
	return module, nil
}

// Bind replaces the array's content. elements must not be mutated or
// reclaimed while a statement scanning this array is in progress.
func (m *arrayModule) Bind(elements []int64) { m.content = elements }

// Drop removes the backing virtual table. Implicitly done for all
// connection-scoped arrays when the connection closes.
func (m *arrayModule) Drop() error {
	if m.conn == nil {
		return nil
	}
	err := m.conn.ExecuteBatch(fmt.Sprintf(`DROP TABLE temp."%s"`, escapeIdent(m.name)))
	if err != nil {
		return err
	}
	m.conn = nil
	return nil
}

func escapeIdent(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, s[i])
	}
	return string(out)
}
