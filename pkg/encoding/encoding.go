// Package encoding holds the codec shared by the persistence surfaces:
// JSON wrapped in a zstd stream.
package encoding

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// EncodeCompressed writes v to w as zstd-compressed JSON.
func EncodeCompressed(w io.Writer, v any) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode: %w", err)
	}
	return zw.Close()
}

// DecodeCompressed reads zstd-compressed JSON from r into v.
func DecodeCompressed(r io.Reader, v any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()
	if err := json.NewDecoder(zr).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
