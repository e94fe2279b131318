// Package wire implements the SysEx frame codec: a binary, 7-bit-safe,
// chunked encoding of JSON request/response payloads over a MIDI link.
//
// Frame shape (spec.md §3/§6):
//
//	start(1) | manufacturer(1) | origin(1) | correlation_id(1) | continuation(1) | type(1) | status(1) | payload(n) | end(1)
//
// start and end are real MIDI SysEx framing bytes (0xF0/0xF7), outside the
// 7-bit payload space. Every other byte, including the header fields, is
// <=0x7F. The payload is JSON, base64-encoded before byte expansion, so it
// is inherently ASCII and therefore 7-bit safe.
package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Origin distinguishes which half of the bridge produced a frame.
type Origin byte

const (
	OriginClient Origin = 0x00 // the Outer Server
	OriginServer Origin = 0x01 // the Inner Bridge
)

// Type distinguishes a command (request) frame from a response frame.
type Type byte

const (
	TypeCommand  Type = 0x01
	TypeResponse Type = 0x02
)

// Status is the frame-level success indicator. It is independent of any
// success field embedded in the JSON payload; on mismatch the frame status
// wins (spec.md §3).
type Status byte

const (
	StatusOK    Status = 0x00
	StatusError Status = 0x01
)

const (
	startByte byte = 0xF0 // MIDI SysEx start
	endByte   byte = 0xF7 // MIDI SysEx end

	// manufacturerByte is MIDI's reserved non-commercial/educational-use ID
	// (spec.md §6: "a fixed sentinel in the non-commercial range").
	manufacturerByte byte = 0x7D

	// headerLen is the number of bytes between the manufacturer byte and the
	// payload: origin, correlation_id, continuation, type, status.
	headerLen = 5

	// MaxPayloadBytes is the conservative MTU from spec.md §3: comfortably
	// under a typical MIDI receive buffer.
	MaxPayloadBytes = 1800

	// MaxChunks bounds reassembly memory (spec.md §4.1).
	MaxChunks = 64
)

// MalformedError reports a structural decode failure at a specific byte
// offset (spec.md §4.1/§7: FrameMalformed).
type MalformedError struct {
	Offset int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("wire: frame malformed at offset %d: %s", e.Offset, e.Reason)
}

// Frame is one wire-level SysEx message, already split to fit the MTU if
// required. Payload holds the 7-bit-safe (ASCII, base64) bytes only; it
// never includes the start/end sentinels.
type Frame struct {
	Origin       Origin
	CorrelationID byte // 1..127
	Continuation  bool // true = more chunks follow
	Type          Type
	Status        Status
	Payload       []byte
}

// Marshal serializes f to a complete SysEx byte sequence, start through end.
func (f Frame) Marshal() []byte {
	out := make([]byte, 0, 2+headerLen+len(f.Payload)+1)
	out = append(out, startByte, manufacturerByte)
	out = append(out, byte(f.Origin), f.CorrelationID, continuationByte(f.Continuation), byte(f.Type), byte(f.Status))
	out = append(out, f.Payload...)
	out = append(out, endByte)
	return out
}

func continuationByte(more bool) byte {
	if more {
		return 1
	}
	return 0
}

// Unmarshal validates and decodes one complete SysEx byte sequence into a
// Frame. It does not interpret the payload as JSON; see DecodeValue for that.
func Unmarshal(data []byte) (Frame, error) {
	if len(data) < 2+headerLen+1 {
		return Frame{}, &MalformedError{Offset: 0, Reason: "frame shorter than minimum header"}
	}
	if data[0] != startByte {
		return Frame{}, &MalformedError{Offset: 0, Reason: "missing start sentinel"}
	}
	if data[len(data)-1] != endByte {
		return Frame{}, &MalformedError{Offset: len(data) - 1, Reason: "missing end sentinel"}
	}
	if data[1] != manufacturerByte {
		return Frame{}, &MalformedError{Offset: 1, Reason: "unexpected manufacturer byte"}
	}

	origin := Origin(data[2])
	if origin != OriginClient && origin != OriginServer {
		return Frame{}, &MalformedError{Offset: 2, Reason: "unknown origin"}
	}
	corrID := data[3]
	if corrID < 1 || corrID > 127 {
		return Frame{}, &MalformedError{Offset: 3, Reason: "correlation id out of range"}
	}
	contByte := data[4]
	if contByte > 1 {
		return Frame{}, &MalformedError{Offset: 4, Reason: "invalid continuation flag"}
	}
	typ := Type(data[5])
	if typ != TypeCommand && typ != TypeResponse {
		return Frame{}, &MalformedError{Offset: 5, Reason: "unknown frame type"}
	}
	status := Status(data[6])
	if status != StatusOK && status != StatusError {
		return Frame{}, &MalformedError{Offset: 6, Reason: "unknown status"}
	}

	payload := data[2+headerLen : len(data)-1]
	for i, b := range payload {
		if b > 127 {
			return Frame{}, &MalformedError{Offset: 2 + headerLen + i, Reason: "payload byte not 7-bit safe"}
		}
	}

	return Frame{
		Origin:        origin,
		CorrelationID: corrID,
		Continuation:  contByte == 1,
		Type:          typ,
		Status:        status,
		Payload:       append([]byte(nil), payload...),
	}, nil
}

// EncodeValue serializes v to JSON, base64-encodes it for 7-bit safety, and
// splits it into an ordered sequence of frames sharing correlationID, all
// but the last with Continuation=true. A single small value yields exactly
// one frame.
func EncodeValue(origin Origin, correlationID byte, typ Type, status Status, v any) ([]Frame, error) {
	js, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal payload: %w", err)
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(js)))
	base64.StdEncoding.Encode(encoded, js)

	chunks := splitPayload(encoded, MaxPayloadBytes)
	if len(chunks) > MaxChunks {
		return nil, fmt.Errorf("wire: payload requires %d chunks, exceeds MaxChunks=%d", len(chunks), MaxChunks)
	}
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

func splitPayload(b []byte, mtu int) [][]byte {
	if mtu <= 0 {
		mtu = MaxPayloadBytes
	}
	if len(b) == 0 {
		return [][]byte{{}}
	}
	var out [][]byte
	for off := 0; off < len(b); off += mtu {
		end := off + mtu
		if end > len(b) {
			end = len(b)
		}
		out = append(out, b[off:end])
	}
	return out
}

// DecodeValue base64-decodes a reassembled payload and unmarshals it as JSON
// into v.
func DecodeValue(payload []byte, v any) error {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(raw, payload)
	if err != nil {
		return fmt.Errorf("wire: base64 decode payload: %w", err)
	}
	if err := json.Unmarshal(raw[:n], v); err != nil {
		return fmt.Errorf("wire: unmarshal JSON payload: %w", err)
	}
	return nil
}
