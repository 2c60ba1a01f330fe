package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores any value in a jsonb column and serialises transparently.
type JSON[T any] struct {
	Data T
}

func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{Data: v}
}

func (j JSON[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSON[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero T
		j.Data = zero
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	return json.Unmarshal(raw, &j.Data)
}

func (j JSON[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

func (j *JSON[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &j.Data)
}
