package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/eslsoft/oghmai/internal/entity"
)

// Meanings stores a word's senses as a JSON text column.
type Meanings []entity.Meaning

// TestResults stores the proof window as a JSON text column.
type TestResults []bool

// Scan implements sql.Scanner
func (m *Meanings) Scan(src any) error {
	return scanJSON("Meanings", src, m)
}

// Value implements driver.Valuer
func (m Meanings) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	return valueJSON(m)
}

// Scan implements sql.Scanner
func (r *TestResults) Scan(src any) error {
	return scanJSON("TestResults", src, r)
}

// Value implements driver.Valuer
func (r TestResults) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return valueJSON(r)
}

func scanJSON(name string, src any, dest any) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(data) == 0 {
			return nil
		}
		return json.Unmarshal(data, dest)
	case string:
		if data == "" {
			return nil
		}
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("%s: unsupported src type %T", name, src)
	}
}

// valueJSON returns a string so TEXT columns accept it on every driver.
func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
