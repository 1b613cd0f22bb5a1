package pgcustomers

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// jsonCol marshals v for a NOT NULL jsonb column. nil slices become [].
func jsonCol[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "marshal jsonb")
}

// jsonPtrCol returns nil (SQL NULL) for a nil pointer.
func jsonPtrCol[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "marshal jsonb")
}

func fromJSON(b []byte, dst any) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return errors.Wrap(json.Unmarshal(b, dst), "unmarshal jsonb")
}
