package protocol

import (
	"bytes"
	"encoding/json"
)

// Accumulator assembles command/response frames from a raw byte stream.
// The wire carries bare JSON documents with no framing, so bytes are
// buffered and a decode is attempted after every append; a partial
// document simply stays buffered until more bytes arrive.
type Accumulator struct {
	buf bytes.Buffer
}

// Append adds bytes received from the stream to the buffer.
func (a *Accumulator) Append(p []byte) {
	a.buf.Write(p)
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int {
	return a.buf.Len()
}

// Reset discards any buffered bytes.
func (a *Accumulator) Reset() {
	a.buf.Reset()
}

// Next tries to decode one complete JSON document from the buffer into v.
// It returns false when the buffered bytes do not yet form a complete
// document; the buffer is left intact so a later Append can complete it.
// On success the consumed bytes (and any trailing whitespace) are removed.
func (a *Accumulator) Next(v any) (bool, error) {
	data := a.buf.Bytes()
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		if isIncomplete(data) {
			return false, nil
		}
		// Malformed frame. Drop the buffer so the connection does not
		// wedge on bytes that can never parse.
		a.buf.Reset()
		return false, err
	}

	consumed := int(dec.InputOffset())
	rest := bytes.TrimLeft(data[consumed:], " \t\r\n")
	a.buf.Reset()
	a.buf.Write(rest)
	return true, nil
}

// isIncomplete distinguishes a truncated JSON document from a malformed
// one by walking the bytes with a depth counter. A document that is
// balanced but still fails to decode is malformed; one that ends mid
// object, array, or string just needs more bytes.
func isIncomplete(data []byte) bool {
	depth := 0
	inString := false
	escaped := false

	for _, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}

	return inString || depth > 0
}
