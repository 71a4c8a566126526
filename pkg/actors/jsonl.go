package actors

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
)

// JSONLInput emits the records stored in input-file, one JSON record per
// line, as written by jsonl-output.
type JSONLInput struct{}

// Produce implements engine.Producer.
func (JSONLInput) Produce(a *engine.Actor) error {
	path := a.RequireProperty("input-file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := record.NewDecoder(f)
	for {
		r, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		a.Emit(r)
	}
}

// JSONLOutput writes every record it receives to output-file as one JSON
// line. The file is truncated unless append is true.
type JSONLOutput struct {
	path string
	file *os.File
	enc  *record.Encoder
}

// Start implements engine.Starter.
func (o *JSONLOutput) Start(a *engine.Actor) error {
	o.path = a.RequireProperty("output-file")
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if a.BoolProperty("append", false) {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(o.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	o.file = f
	o.enc = record.NewEncoder(f)
	return nil
}

// Handle implements engine.Handler.
func (o *JSONLOutput) Handle(a *engine.Actor, r *record.Record) error {
	if err := o.enc.Encode(r); err != nil {
		return err
	}
	a.Emit(r)
	return nil
}

// Finalize implements engine.Finalizer.
func (o *JSONLOutput) Finalize(*engine.Actor) error {
	if o.file == nil {
		return nil
	}
	err := o.enc.Flush()
	if cerr := o.file.Close(); err == nil {
		err = cerr
	}
	o.file = nil
	return err
}

// Release implements engine.Releaser.
func (o *JSONLOutput) Release(*engine.Actor) error {
	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}
