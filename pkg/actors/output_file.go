package actors

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
)

// RecordSeparator starts every record written by the file sinks.
const RecordSeparator = "{---------- RECORD ----------}\n"

// RenderRecord formats r the way the file sinks write it.
func RenderRecord(r *record.Record) string {
	return RecordSeparator + r.String() + "\n"
}

// OutputFile writes every record it receives to output-file, encoded in
// character-set (UTF-8 by default). The file is truncated unless append
// is true. A write failure aborts the run.
type OutputFile struct {
	path string
	file *os.File
	w    io.Writer
}

// Start implements engine.Starter.
func (o *OutputFile) Start(a *engine.Actor) error {
	o.path = a.RequireProperty("output-file")
	charset := a.PropertyOr("character-set", "UTF-8")
	appendMode := a.BoolProperty("append", false)

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		a.Dief("invalid character set %q", charset)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(o.path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}

	o.file = f
	o.w = enc.NewEncoder().Writer(f)
	return nil
}

// Handle implements engine.Handler.
func (o *OutputFile) Handle(a *engine.Actor, r *record.Record) error {
	if _, err := io.WriteString(o.w, RenderRecord(r)); err != nil {
		a.Dief("cannot write record to %s: %v", o.path, err)
	}
	return nil
}

// Finalize implements engine.Finalizer.
func (o *OutputFile) Finalize(a *engine.Actor) error {
	if o.file == nil {
		return nil
	}
	if c, ok := o.w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			o.file.Close()
			return fmt.Errorf("flush %s: %w", o.path, err)
		}
	}
	err := o.file.Close()
	o.file = nil
	return err
}

// Release implements engine.Releaser.
func (o *OutputFile) Release(*engine.Actor) error {
	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}
