package wire

import "fmt"

// Reassembler buffers chunked frames per correlation id and surfaces a
// complete logical payload only once a frame with Continuation=false
// arrives (spec.md §4.1). It is not safe for concurrent use; callers that
// need that (the correlator) serialize access themselves.
type Reassembler struct {
	pending map[byte][][]byte
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{pending: make(map[byte][][]byte)}
}

// Feed adds one frame's payload to the buffer for its correlation id. When
// the frame is final (Continuation=false), it returns the concatenated
// payload across all chunks seen for that id and clears the buffer; ok is
// true only in that case.
func (r *Reassembler) Feed(f Frame) (payload []byte, ok bool, err error) {
	chunks := append(r.pending[f.CorrelationID], f.Payload)
	if len(chunks) > MaxChunks {
		delete(r.pending, f.CorrelationID)
		return nil, false, fmt.Errorf("wire: correlation id %d exceeded MaxChunks=%d during reassembly", f.CorrelationID, MaxChunks)
	}
	if f.Continuation {
		r.pending[f.CorrelationID] = chunks
		return nil, false, nil
	}
	delete(r.pending, f.CorrelationID)
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out, true, nil
}

// Drop discards any partial reassembly state for a correlation id, e.g.
// after a timeout or disconnect invalidates it.
func (r *Reassembler) Drop(correlationID byte) {
	delete(r.pending, correlationID)
}

// Reassemble is a convenience for tests and the chunking-equivalence
// property (spec.md §8): it feeds an ordered slice of frames through a
// scratch Reassembler and returns the final payload.
func Reassemble(frames []Frame) ([]byte, error) {
	r := NewReassembler()
	var out []byte
	for _, f := range frames {
		payload, ok, err := r.Feed(f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = payload
		}
	}
	return out, nil
}
