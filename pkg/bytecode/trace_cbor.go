package bytecode

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// traceEncMode encodes events in canonical mode so identical runs produce
// identical bytes.
var traceEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	traceEncMode = em
}

// CBORTracer writes each event as a CBOR data item, producing a stream that
// ReadTraceEvents decodes.
type CBORTracer struct {
	enc *cbor.Encoder
	err error
}

// NewCBORTracer creates a tracer writing to w.
func NewCBORTracer(w io.Writer) *CBORTracer {
	return &CBORTracer{enc: traceEncMode.NewEncoder(w)}
}

// Trace encodes ev. After the first error further events are dropped; see Err.
func (t *CBORTracer) Trace(ev *TraceEvent) {
	if t.err != nil {
		return
	}
	if err := t.enc.Encode(ev); err != nil {
		t.err = fmt.Errorf("trace: encode event at %04d: %w", ev.Offset, err)
	}
}

// Err returns the first encoding error, if any.
func (t *CBORTracer) Err() error {
	return t.err
}

// ReadTraceEvents decodes a CBOR trace stream until EOF.
func ReadTraceEvents(r io.Reader) ([]TraceEvent, error) {
	dec := cbor.NewDecoder(r)
	var events []TraceEvent
	for {
		var ev TraceEvent
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("trace: decode event %d: %w", len(events), err)
		}
		events = append(events, ev)
	}
}
