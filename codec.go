package sqlite

import (
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Int128 is a signed 128-bit integer stored as a 16-byte big-endian blob
// with the sign bit flipped, so lexicographic blob order equals signed
// integer order (spec.md §4.1). big.Int carries the value in Go, since
// the language has no native 128-bit integer type.
type Int128 struct{ v big.Int }

var (
	int128Min = new(big.Int).Lsh(big.NewInt(1), 127)                       // 2^127
	int128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)) // 2^127-1
)

// NewInt128 wraps v, which must fit in a signed 128-bit range.
func NewInt128(v *big.Int) (Int128, error) {
	neg := new(big.Int).Neg(int128Min)
	if v.Cmp(neg) < 0 || v.Cmp(int128Max) > 0 {
		return Int128{}, &FromSqlError{Kind: FromSqlOutOfRange}
	}
	return Int128{v: *v}, nil
}

// Big returns the decoded value as a *big.Int.
func (i Int128) Big() *big.Int { return new(big.Int).Set(&i.v) }

// ToSql encodes i as a 16-byte blob: big-endian two's complement with the
// sign bit flipped, per spec.md §4.1/§8's round-trip-order property.
func (i Int128) ToSql() (ToSqlOutput, error) {
	return ToSqlOwned(BlobValue(encodeInt128(&i.v))), nil
}

// FromSql decodes a 16-byte blob produced by ToSql back into i.
func (i *Int128) FromSql(v ValueRef) error {
	b := v.Blob()
	if len(b) != 16 {
		return &FromSqlError{Kind: FromSqlInvalidBlobSize, Expected: 16, Got: len(b)}
	}
	i.v = *decodeInt128(b)
	return nil
}

func encodeInt128(v *big.Int) []byte {
	// shift into the unsigned range [0, 2^128) by adding 2^127, which is
	// exactly "flip the sign bit" on a two's-complement 128-bit value.
	shifted := new(big.Int).Add(v, int128Min)
	buf := make([]byte, 16)
	shifted.FillBytes(buf)
	return buf
}

func decodeInt128(b []byte) *big.Int {
	shifted := new(big.Int).SetBytes(b)
	return new(big.Int).Sub(shifted, int128Min)
}

// NonZeroInt128 wraps Int128 for callers that must reject a stored zero.
// Per spec.md's resolved Open Question, decoding a zero reports
// OutOfRange(0) regardless of the fact that zero is not numerically out
// of the signed 128-bit range — this preserves the reference
// implementation's error-shape choice rather than "fixing" it.
type NonZeroInt128 struct{ Int128 }

func (n *NonZeroInt128) FromSql(v ValueRef) error {
	var i Int128
	if err := i.FromSql(v); err != nil {
		return err
	}
	if i.v.Sign() == 0 {
		return &FromSqlError{Kind: FromSqlOutOfRange, Value: 0}
	}
	n.Int128 = i
	return nil
}

// UUIDValue adapts uuid.UUID to ToSql/FromSql, storing it as a 16-byte blob.
type UUIDValue uuid.UUID

func (u UUIDValue) ToSql() (ToSqlOutput, error) {
	b := uuid.UUID(u)
	return ToSqlOwned(BlobValue(b[:])), nil
}

func (u *UUIDValue) FromSql(v ValueRef) error {
	b := v.Blob()
	if len(b) != 16 {
		return &FromSqlError{Kind: FromSqlInvalidBlobSize, Expected: 16, Got: len(b)}
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return &FromSqlError{Kind: FromSqlOther, Err: err}
	}
	*u = UUIDValue(id)
	return nil
}

// timePrimitiveLayout is the canonical storage shape for primitives that
// don't carry a UTC offset (spec.md §4.1: "store primitives as
// YYYY-MM-DD HH:MM:SS.SSS").
const timePrimitiveLayout = "2006-01-02 15:04:05.000"

// legacyTimeLayouts are accepted on decode: with/without "T", trailing
// "Z", or an explicit numeric offset — the handful of shapes SQLite's own
// ecosystem has historically emitted.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimeValue adapts time.Time to ToSql/FromSql. Offset-bearing timestamps
// are stored as RFC 3339; ToSql always emits RFC 3339 (never the bare
// primitive shape) since Go's time.Time always carries a location.
type TimeValue time.Time

func (t TimeValue) ToSql() (ToSqlOutput, error) {
	return ToSqlOwned(TextValue(time.Time(t).Format(time.RFC3339Nano))), nil
}

func (t *TimeValue) FromSql(v ValueRef) error {
	s := v.Text()
	var lastErr error
	for _, layout := range legacyTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = TimeValue(parsed)
			return nil
		} else {
			lastErr = err
		}
	}
	return &FromSqlError{Kind: FromSqlOther, Err: fmt.Errorf("sqlite: could not parse time %q: %w", s, lastErr)}
}
