package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONBMap stores arbitrary structured side-data in a Postgres jsonb column.
type JSONBMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONBMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONBMap{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return errors.New("jsonb: unsupported scan type")
		}
	}

	if len(bytes) == 0 {
		*m = JSONBMap{}
		return nil
	}

	result := JSONBMap{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*m = result
	return nil
}
