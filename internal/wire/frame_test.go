package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

type samplePayload struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

func TestRoundTripSmallPayload(t *testing.T) {
	v := samplePayload{Action: "discover", Params: map[string]any{"channel": 1.0, "slot": 0.0}}
	frames, err := EncodeValue(OriginClient, 42, TypeCommand, StatusOK, v)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected single frame for small payload, got %d", len(frames))
	}

	raw := frames[0].Marshal()
	decoded, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.CorrelationID != 42 || decoded.Type != TypeCommand || decoded.Status != StatusOK {
		t.Fatalf("decoded header mismatch: %+v", decoded)
	}

	var out samplePayload
	if err := DecodeValue(decoded.Payload, &out); err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if out.Action != v.Action {
		t.Fatalf("Action = %q, want %q", out.Action, v.Action)
	}
}

func TestSevenBitSafety(t *testing.T) {
	v := map[string]string{"name": strings.Repeat("x", 5000), "unicode": "ü€🎹"}
	frames, err := EncodeValue(OriginServer, 7, TypeResponse, StatusOK, v)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	for _, f := range frames {
		raw := f.Marshal()
		for i, b := range raw[2 : len(raw)-1] {
			if b > 127 {
				t.Fatalf("header/payload byte %d = 0x%02x exceeds 7 bits", i, b)
			}
		}
		if raw[0] != startByte || raw[len(raw)-1] != endByte {
			t.Fatalf("sentinels not at frame boundaries")
		}
	}
}

// TestChunkingEquivalence exercises the pure split/reassemble property from
// spec.md §8 ("for any mtu >= 1"), independent of the MaxChunks resource
// cap (covered separately by TestMaxChunksExceeded): reassemblePure never
// rejects a chunk count, unlike the production Reassembler.
func TestChunkingEquivalence(t *testing.T) {
	big := strings.Repeat("abcdefghij", 1000) // 10000 chars, encodes to >MTU
	v := map[string]string{"blob": big}

	for _, mtu := range []int{1, 50, 1800, 100000} {
		frames, err := encodeValueWithMTU(OriginClient, 5, TypeCommand, StatusOK, v, mtu)
		if err != nil {
			t.Fatalf("mtu=%d: encode: %v", mtu, err)
		}
		for i, f := range frames {
			if f.Continuation != (i != len(frames)-1) {
				t.Fatalf("mtu=%d: frame %d continuation = %v", mtu, i, f.Continuation)
			}
			if f.CorrelationID != 5 {
				t.Fatalf("mtu=%d: frame %d correlation id = %d", mtu, i, f.CorrelationID)
			}
		}
		reassembled := reassemblePure(frames)
		var out map[string]string
		if err := DecodeValue(reassembled, &out); err != nil {
			t.Fatalf("mtu=%d: decode: %v", mtu, err)
		}
		if out["blob"] != big {
			t.Fatalf("mtu=%d: payload mismatch after reassembly", mtu)
		}
	}
}

func reassemblePure(frames []Frame) []byte {
	var out []byte
	for _, f := range frames {
		out = append(out, f.Payload...)
	}
	return out
}

func TestMaxChunksExceeded(t *testing.T) {
	big := strings.Repeat("z", 200000)
	v := map[string]string{"blob": big}
	if _, err := EncodeValue(OriginClient, 1, TypeCommand, StatusOK, v); err == nil {
		t.Fatalf("expected error when chunk count exceeds MaxChunks")
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	good, _ := EncodeValue(OriginClient, 1, TypeCommand, StatusOK, map[string]int{"a": 1})
	raw := good[0].Marshal()

	cases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"too short", func(b []byte) []byte { return b[:4] }},
		{"bad start", func(b []byte) []byte { c := append([]byte(nil), b...); c[0] = 0x00; return c }},
		{"bad end", func(b []byte) []byte { c := append([]byte(nil), b...); c[len(c)-1] = 0x00; return c }},
		{"bad manufacturer", func(b []byte) []byte { c := append([]byte(nil), b...); c[1] = 0x01; return c }},
		{"bad origin", func(b []byte) []byte { c := append([]byte(nil), b...); c[2] = 0x09; return c }},
		{"bad correlation id", func(b []byte) []byte { c := append([]byte(nil), b...); c[3] = 0; return c }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unmarshal(tc.mutate(raw))
			if err == nil {
				t.Fatalf("expected malformed error")
			}
			var me *MalformedError
			if !isMalformed(err, &me) {
				t.Fatalf("expected *MalformedError, got %T: %v", err, err)
			}
		})
	}
}

func isMalformed(err error, target **MalformedError) bool {
	if me, ok := err.(*MalformedError); ok {
		*target = me
		return true
	}
	return false
}

func TestReassemblerDropDiscardsPartial(t *testing.T) {
	r := NewReassembler()
	f := Frame{CorrelationID: 9, Continuation: true, Payload: []byte("YQ==")}
	if _, ok, err := r.Feed(f); ok || err != nil {
		t.Fatalf("unexpected completion: ok=%v err=%v", ok, err)
	}
	r.Drop(9)
	final := Frame{CorrelationID: 9, Continuation: false, Payload: []byte("Yg==")}
	payload, ok, err := r.Feed(final)
	if err != nil || !ok {
		t.Fatalf("feed after drop: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(payload, []byte("Yg==")) {
		t.Fatalf("payload = %q, want only the post-drop chunk", payload)
	}
}

// encodeValueWithMTU exercises the internal splitter at arbitrary MTU sizes,
// exactly like EncodeValue but without hardcoding MaxPayloadBytes, for the
// chunking-equivalence property test (spec.md §8 requires "for any mtu >= 1").
func encodeValueWithMTU(origin Origin, correlationID byte, typ Type, status Status, v any, mtu int) ([]Frame, error) {
	js, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(js)))
	base64.StdEncoding.Encode(encoded, js)
	chunks := splitPayload(encoded, mtu)
	frames := make([]Frame, len(chunks))
	for i, c := range chunks {
		frames[i] = Frame{
			Origin:        origin,
			CorrelationID: correlationID,
			Continuation:  i != len(chunks)-1,
			Type:          typ,
			Status:        status,
			Payload:       c,
		}
	}
	return frames, nil
}
