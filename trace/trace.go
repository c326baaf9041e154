// Package trace is the capture format of the bus analyzer: a CBOR
// stream of timestamped line events and decoded frames, compact
// enough for long captures and self-describing enough to diff.
package trace

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Kind classifies a captured event.
type Kind uint8

const (
	// KindEdge is a CLK transition; Value is the new bus level, 0 or
	// 1.
	KindEdge Kind = iota + 1
	// KindByte is a completed, valid frame; Value is the data byte.
	KindByte
	// KindBadFrame is a frame that failed framing or parity; Value
	// is the low byte of the raw shift register.
	KindBadFrame
)

func (k Kind) String() string {
	switch k {
	case KindEdge:
		return "edge"
	case KindByte:
		return "byte"
	case KindBadFrame:
		return "bad-frame"
	}
	return "unknown"
}

type Event struct {
	Micros int64 `cbor:"1,keyasint"`
	Kind   Kind  `cbor:"2,keyasint"`
	Value  byte  `cbor:"3,keyasint"`
}

// Capture is one recording session.
type Capture struct {
	// Protocol is "xt" or "at".
	Protocol string  `cbor:"1,keyasint"`
	Events   []Event `cbor:"2,keyasint"`
}

// Write encodes a capture.
func Write(w io.Writer, c *Capture) error {
	b, err := cbor.Marshal(c)
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// Read decodes a capture.
func Read(r io.Reader) (*Capture, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := new(Capture)
	if err := cbor.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return c, nil
}

// Bytes extracts just the decoded frame bytes of a capture, in order.
func (c *Capture) Bytes() []byte {
	var out []byte
	for _, e := range c.Events {
		if e.Kind == KindByte {
			out = append(out, e.Value)
		}
	}
	return out
}
