package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineSize bounds a single encoded record when decoding.
const maxLineSize = 10 * 1024 * 1024

// Encoder writes records as newline-delimited JSON, one record per line.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes r followed by a newline. Output is buffered until Flush.
func (e *Encoder) Encode(r *Record) error {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// Flush writes any buffered records.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Decoder reads records written by an Encoder.
type Decoder struct {
	s    *bufio.Scanner
	line int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Decoder{s: s}
}

// Decode returns the next record, or io.EOF at the end of input. Blank
// lines are skipped.
func (d *Decoder) Decode() (*Record, error) {
	for d.s.Scan() {
		d.line++
		line := bytes.TrimSpace(d.s.Bytes())
		if len(line) == 0 {
			continue
		}

		r := New()
		if err := json.Unmarshal(line, r); err != nil {
			return nil, fmt.Errorf("line %d: %w", d.line, err)
		}
		return r, nil
	}
	if err := d.s.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}
	return nil, io.EOF
}
