package db

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// JSON column helpers. Stored as TEXT so they work identically on SQLite and
// Postgres.

// JSONStringArray is a []string stored as a JSON array.
type JSONStringArray []string

// Scan implements sql.Scanner.
func (a *JSONStringArray) Scan(value any) error {
	return scanJSON(value, a)
}

// Value implements driver.Valuer.
func (a JSONStringArray) Value() (driver.Value, error) {
	return valueJSON(a)
}

// JSONTimeArray is a []time.Time stored as a JSON array of RFC 3339 strings.
type JSONTimeArray []time.Time

// Scan implements sql.Scanner.
func (a *JSONTimeArray) Scan(value any) error {
	return scanJSON(value, a)
}

// Value implements driver.Valuer.
func (a JSONTimeArray) Value() (driver.Value, error) {
	return valueJSON(a)
}

// JSONDocument holds a pre-serialized JSON payload verbatim.
type JSONDocument []byte

// Scan implements sql.Scanner.
func (d *JSONDocument) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case string:
		*d = []byte(v)
	case []byte:
		*d = append((*d)[:0], v...)
	default:
		return fmt.Errorf("scan JSONDocument: unsupported type %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

func scanJSON(value, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	default:
		return fmt.Errorf("scan JSON column: unsupported type %T", value)
	}
}

func valueJSON(src any) (driver.Value, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// MarshalDocument serializes v into a JSONDocument column value.
func MarshalDocument(v any) (JSONDocument, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONDocument(raw), nil
}
