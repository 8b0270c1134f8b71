package sqlite

import (
	"fmt"
	"math"
	"reflect"
)

// FromSqlErrorKind classifies why a FromSql decode failed (spec.md §4.1).
type FromSqlErrorKind int

const (
	FromSqlInvalidType FromSqlErrorKind = iota
	FromSqlOutOfRange
	FromSqlInvalidBlobSize
	FromSqlOther
)

// FromSqlError is the error FromSql decoders return on failure.
type FromSqlError struct {
	Kind      FromSqlErrorKind
	Value     int64 // populated for FromSqlOutOfRange
	Expected  int   // populated for FromSqlInvalidBlobSize
	Got       int
	Err       error // populated for FromSqlOther
	FoundType ColumnType
}

func (e *FromSqlError) Error() string {
	switch e.Kind {
	case FromSqlOutOfRange:
		return fmt.Sprintf("sqlite: value %d out of range", e.Value)
	case FromSqlInvalidBlobSize:
		return fmt.Sprintf("sqlite: invalid blob size: expected %d, got %d", e.Expected, e.Got)
	case FromSqlOther:
		return fmt.Sprintf("sqlite: %s", e.Err)
	default:
		return fmt.Sprintf("sqlite: invalid type %v", e.FoundType)
	}
}

func (e *FromSqlError) Unwrap() error { return e.Err }

// FromSql decodes a ValueRef into a user type (spec.md §4.1).
type FromSql interface {
	FromSql(ValueRef) error
}

// scanInto decodes src into dst, dst being a pointer to one of the
// provided-impl target types mirrored from ToSql's matrix, or an
// implementor of FromSql.
func scanInto(src ValueRef, dst interface{}) error {
	if fs, ok := dst.(FromSql); ok {
		return fs.FromSql(src)
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return &FromSqlError{Kind: FromSqlOther, Err: fmt.Errorf("sqlite: scan destination must be a non-nil pointer, got %T", dst)}
	}
	elem := rv.Elem()

	if src.Type() == SQLITE_NULL {
		switch elem.Kind() {
		case reflect.Ptr:
			elem.Set(reflect.Zero(elem.Type()))
			return nil
		default:
			elem.Set(reflect.Zero(elem.Type()))
			return nil
		}
	}

	if elem.Kind() == reflect.Ptr {
		newVal := reflect.New(elem.Type().Elem())
		if err := scanInto(src, newVal.Interface()); err != nil {
			return err
		}
		elem.Set(newVal)
		return nil
	}

	switch elem.Kind() {
	case reflect.Bool:
		elem.SetBool(src.Int64() != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := src.Int64()
		if overflowsInt(elem.Kind(), v) {
			return &FromSqlError{Kind: FromSqlOutOfRange, Value: v}
		}
		elem.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := src.Int64()
		if v < 0 {
			return &FromSqlError{Kind: FromSqlOutOfRange, Value: v}
		}
		elem.SetUint(uint64(v))
	case reflect.Float32, reflect.Float64:
		elem.SetFloat(src.Float())
	case reflect.String:
		elem.SetString(src.Text())
	case reflect.Slice:
		if elem.Type().Elem().Kind() == reflect.Uint8 {
			elem.SetBytes(src.Blob())
			return nil
		}
		return &FromSqlError{Kind: FromSqlInvalidType, FoundType: src.Type()}
	case reflect.Array:
		if elem.Type().Elem().Kind() != reflect.Uint8 {
			return &FromSqlError{Kind: FromSqlInvalidType, FoundType: src.Type()}
		}
		b := src.Blob()
		if len(b) != elem.Len() {
			return &FromSqlError{Kind: FromSqlInvalidBlobSize, Expected: elem.Len(), Got: len(b)}
		}
		reflect.Copy(elem, reflect.ValueOf(b))
	default:
		return &FromSqlError{Kind: FromSqlInvalidType, FoundType: src.Type()}
	}
	return nil
}

func overflowsInt(kind reflect.Kind, v int64) bool {
	switch kind {
	case reflect.Int8:
		return v < math.MinInt8 || v > math.MaxInt8
	case reflect.Int16:
		return v < math.MinInt16 || v > math.MaxInt16
	case reflect.Int32:
		return v < math.MinInt32 || v > math.MaxInt32
	default:
		return false
	}
}
