// Package livestats streams per-tick live statistics as JSON lines or as
// a sequence of MessagePack documents.
package livestats

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	FormatJSON    = "json"
	FormatMsgPack = "msgpack"
)

// Formatter encodes values onto a writer in one format. It is safe for
// concurrent use; each value is written whole.
type Formatter struct {
	format string

	mu   sync.Mutex
	json *json.Encoder
	mp   *msgpack.Encoder
}

// NewFormatter creates a formatter. An empty format means JSON.
func NewFormatter(w io.Writer, format string) (*Formatter, error) {
	f := &Formatter{format: format}
	switch format {
	case "", FormatJSON:
		f.format = FormatJSON
		f.json = json.NewEncoder(w)
	case FormatMsgPack:
		f.mp = msgpack.NewEncoder(w)
		f.mp.SetCustomStructTag("json") // Use json tags for MessagePack
	default:
		return nil, fmt.Errorf("unknown live stats format %q", format)
	}
	return f, nil
}

// Format returns the format name.
func (f *Formatter) Format() string {
	return f.format
}

// Write encodes one value. JSON values are newline terminated.
func (f *Formatter) Write(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mp != nil {
		return f.mp.Encode(data)
	}
	return f.json.Encode(data)
}

// Decoder reads back a stream written by a Formatter.
type Decoder struct {
	json *json.Decoder
	mp   *msgpack.Decoder
}

// NewDecoder creates a decoder for format. An empty format means JSON.
func NewDecoder(r io.Reader, format string) (*Decoder, error) {
	switch format {
	case "", FormatJSON:
		return &Decoder{json: json.NewDecoder(r)}, nil
	case FormatMsgPack:
		d := msgpack.NewDecoder(r)
		d.SetCustomStructTag("json")
		return &Decoder{mp: d}, nil
	}
	return nil, fmt.Errorf("unknown live stats format %q", format)
}

// Decode reads the next value into v. It returns io.EOF at the end of the
// stream.
func (d *Decoder) Decode(v any) error {
	if d.mp != nil {
		return d.mp.Decode(v)
	}
	return d.json.Decode(v)
}
