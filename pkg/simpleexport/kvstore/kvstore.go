// Package kvstore defines the key-value stores SaveStore can dump. Values
// are JSON-compatible and stored in their encoded form.
package kvstore

import (
	"context"
	"errors"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/tendant/simple-export/pkg/simpleexport"
)

// ErrNotFound indicates the key is not in the store
var ErrNotFound = errors.New("key not found")

// Store is a JSON key-value store. Get with an empty key returns every
// entry as a map[string]any.
type Store interface {
	simpleexport.KVStore

	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Encode serializes value for storage
func Encode(value any) ([]byte, error) {
	data, err := gojson.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return data, nil
}

// Decode parses a stored value
func Decode(data []byte) (any, error) {
	var v any
	if err := gojson.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// KeyError wraps ErrNotFound with the missing key
func KeyError(key string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, key)
}
