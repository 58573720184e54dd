package model

import (
	"bytes"
	"encoding/gob"
	"io"

	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Save encodes a model to w with gob. The concrete type must have been
// registered with gob.Register by its package.
func Save(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return pkgerr.Wrap(err, "model: encode")
	}
	return nil
}

// Load decodes a model from r into the given pointer.
func Load(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return pkgerr.Wrap(err, "model: decode")
	}
	return nil
}

// SaveBytes encodes a model to a byte blob suitable for storage or download.
func SaveBytes(model interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := Save(model, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadBytes decodes a model from a byte blob into the given pointer.
func LoadBytes(model interface{}, data []byte) error {
	return Load(model, bytes.NewReader(data))
}
