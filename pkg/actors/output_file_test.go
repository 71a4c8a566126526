package actors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
)

func TestRenderRecord(t *testing.T) {
	r := record.New(record.NewProperty("ID", "FOO"))

	want := "{---------- RECORD ----------}\n[Record [Property name='ID' value='FOO']]\n"
	if got := RenderRecord(r); got != want {
		t.Fatalf("Expected %q, got: %q", want, got)
	}
}

func TestOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	actors := []engine.ActorDefinition{
		{Type: "input", Name: "in", Properties: props("count", "2")},
		{Type: "output-file", Name: "file", Properties: props("output-file", out)},
	}

	if _, err := runChain(t, actors); err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}

	one := RenderRecord(record.New(record.NewProperty("ID", "FOO")))
	assertFile(t, out, one+one)

	// A second run truncates.
	if _, err := runChain(t, actors); err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}
	assertFile(t, out, one+one)
}

func TestOutputFileAppend(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(out, []byte("existing\n"), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	_, err := runChain(t, []engine.ActorDefinition{
		{Type: "input", Name: "in"},
		{Type: "output-file", Name: "file", Properties: props("output-file", out, "append", "true")},
	})
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}

	assertFile(t, out, "existing\n"+RenderRecord(record.New(record.NewProperty("ID", "FOO"))))
}

func TestOutputFileCharacterSet(t *testing.T) {
	out := filepath.Join(t.TempDir(), "latin1.txt")

	_, err := runChain(t, []engine.ActorDefinition{
		{Type: "input", Name: "in", Properties: props("id", "é")},
		{Type: "output-file", Name: "file", Properties: props("output-file", out, "character-set", "ISO-8859-1")},
	})
	if err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Expected output file, got: %v", err)
	}
	want := "{---------- RECORD ----------}\n[Record [Property name='ID' value='\xe9']]\n"
	if string(data) != want {
		t.Fatalf("Expected %q, got: %q", want, string(data))
	}
}

func TestOutputFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		props []engine.PropertyDefinition
		code  string
	}{
		{"missing output-file", nil, engine.ErrCodeMissingProperty},
		{"unknown character set", props("output-file", filepath.Join(dir, "a.txt"), "character-set", "NOPE-42"), engine.ErrCodeFatal},
		{"unwritable path", props("output-file", filepath.Join(dir, "missing", "a.txt")), engine.ErrCodeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runChain(t, []engine.ActorDefinition{
				{Type: "input", Name: "in"},
				{Type: "output-file", Name: "file", Properties: tt.props},
			})
			if !engine.IsFatal(err) {
				t.Fatalf("Expected fatal error, got: %v", err)
			}
			if code := engine.ErrorCode(err); code != tt.code {
				t.Fatalf("Expected code %s, got: %s", tt.code, code)
			}
		})
	}
}

func TestOutputFileFinalizeWithoutStart(t *testing.T) {
	wf := engine.New()
	o := &OutputFile{}
	if err := o.Finalize(wf.NewActor("file", "output-file", o)); err != nil {
		t.Fatalf("Expected finalize of an unstarted sink to succeed, got: %v", err)
	}
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected file %s, got: %v", path, err)
	}
	if string(data) != want {
		t.Fatalf("Expected %q, got: %q", want, string(data))
	}
}

func TestOutputFileReleasedWhenRunAborts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	def := &engine.Definition{
		Name: "aborted",
		Actors: []engine.ActorDefinition{
			{Type: "input", Name: "in"},
			{Type: "output-file", Name: "file", Properties: props("output-file", out)},
			{Type: "csv-input", Name: "broken"},
		},
		Links: []engine.LinkDefinition{{From: "in", To: "file"}, {From: "file", To: "broken"}},
	}

	wf, err := engine.Build(def, NewRegistry())
	if err != nil {
		t.Fatalf("Expected workflow to build, got: %v", err)
	}
	if err := wf.Run(context.Background()); engine.ErrorCode(err) != engine.ErrCodeMissingProperty {
		t.Fatalf("Expected missing property error, got: %v", err)
	}

	a, _ := wf.Actor("file")
	if f := a.Behavior().(*OutputFile); f.file != nil {
		t.Fatalf("Expected output file to be closed after the aborted run")
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if want := RenderRecord(record.New(record.NewProperty("ID", "FOO"))); string(data) != want {
		t.Fatalf("Expected %q, got: %q", want, string(data))
	}
}
