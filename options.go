package sqlite

import "time"

// Logger is the diagnostic logging seam a Connection carries. The logger
// installed with WithLogger is stored on the Connection, but no code path
// in this package writes to it: nothing is logged, on success or failure
// paths alike.
//
// grounded on maragudk-sqlite/sqlite.go's logger interface, renamed from
// Println(v ...any) to Printf(format string, v ...any) to match the
// format-string style the rest of this package's error messages use.
type Logger interface {
	Printf(format string, v ...interface{})
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

// openConfig collects the resolved state of every OpenOption.
type openConfig struct {
	flags       OpenFlags
	vfsName     string
	logger      Logger
	cacheSize   int
	busyTimeout time.Duration
}

func defaultOpenConfig() openConfig {
	return openConfig{
		flags:     DefaultOpenFlags,
		logger:    discardLogger{},
		cacheSize: defaultStatementCacheSize,
	}
}

// OpenOption configures Open/OpenFromHandle/OpenFromHandleOwned.
//
// grounded on maragudk-sqlite/sqlite.go's Options struct, rendered as
// functional options (idiomatic Go equivalent of rusqlite's OpenFlags
// builder) per SPEC_FULL.md §2.3.
type OpenOption func(*openConfig)

// WithFlags overrides DefaultOpenFlags entirely.
func WithFlags(flags OpenFlags) OpenOption {
	return func(c *openConfig) { c.flags = flags }
}

// WithVfsName selects a registered VFS by name (see vfs.go) instead of
// the engine's default.
func WithVfsName(name string) OpenOption {
	return func(c *openConfig) { c.vfsName = name }
}

// WithLogger installs a diagnostic logger. Passing nil is equivalent to
// not calling WithLogger (a discard logger remains installed).
func WithLogger(l Logger) OpenOption {
	return func(c *openConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheSize sets the statement cache's LRU capacity (default 16).
func WithCacheSize(n int) OpenOption {
	return func(c *openConfig) { c.cacheSize = n }
}

// WithBusyTimeout sets the engine's busy timeout, applied immediately
// after open via sqlite3_busy_timeout.
func WithBusyTimeout(d time.Duration) OpenOption {
	return func(c *openConfig) { c.busyTimeout = d }
}
