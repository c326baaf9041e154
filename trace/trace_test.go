package trace

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	c := &Capture{
		Protocol: "at",
		Events: []Event{
			{Micros: 10, Kind: KindEdge, Value: 0},
			{Micros: 50, Kind: KindEdge, Value: 1},
			{Micros: 900, Kind: KindByte, Value: 0x1c},
			{Micros: 2100, Kind: KindBadFrame, Value: 0x54},
			{Micros: 3000, Kind: KindByte, Value: 0xf0},
		},
	}
	var buf bytes.Buffer
	if err := Write(&buf, c); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Protocol != c.Protocol || len(got.Events) != len(c.Events) {
		t.Fatalf("got %+v", got)
	}
	for i := range c.Events {
		if got.Events[i] != c.Events[i] {
			t.Errorf("event %d: got %+v, expected %+v", i, got.Events[i], c.Events[i])
		}
	}
	if b := got.Bytes(); !bytes.Equal(b, []byte{0x1c, 0xf0}) {
		t.Errorf("Bytes() = % x", b)
	}
}

func TestReadGarbage(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef})); err == nil {
		t.Error("garbage decoded without error")
	}
}
