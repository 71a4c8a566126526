package actors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/actorflow/actorflow/pkg/engine"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return path
}

func TestCSVInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		props   []string
		want    [][]string
	}{
		{
			name:    "column names",
			content: "Anna,31\nBob,17\n",
			want:    [][]string{{"Column-0=Anna", "Column-1=31"}, {"Column-0=Bob", "Column-1=17"}},
		},
		{
			name:    "header from file",
			content: "name,age\nAnna,31\n",
			props:   []string{"has-header-row", "true"},
			want:    [][]string{{"name=Anna", "age=31"}},
		},
		{
			name:    "header property wins over file header",
			content: "name,age\nAnna,31\n",
			props:   []string{"has-header-row", "true", "header-row", "first,years"},
			want:    [][]string{{"first=Anna", "years=31"}},
		},
		{
			name:    "header property without file header",
			content: "Anna,31\n",
			props:   []string{"header-row", "name,age"},
			want:    [][]string{{"name=Anna", "age=31"}},
		},
		{
			name:    "short header falls back to column index",
			content: "Anna,31,Oslo\n",
			props:   []string{"header-row", "name"},
			want:    [][]string{{"name=Anna", "Column-1=31", "Column-2=Oslo"}},
		},
		{
			name:    "custom delimiter and quoted field",
			content: "\"Smith; Anna\";31\n",
			props:   []string{"delimiter", ";", "quote", `"`},
			want:    [][]string{{"Column-0=Smith; Anna", "Column-1=31"}},
		},
		{
			name:    "quote inside unquoted field is literal",
			content: "name,size\nTV,55\" screen\n",
			props:   []string{"has-header-row", "true"},
			want:    [][]string{{"name=TV", `size=55" screen`}},
		},
		{
			name:    "single quote as quote character",
			content: "'Smith, Anna',\"31\"\n",
			props:   []string{"quote", "'"},
			want:    [][]string{{"Column-0=Smith, Anna", `Column-1="31"`}},
		},
		{
			name:    "custom quote with double quote delimiter",
			content: "|a\"b|\"c\n",
			props:   []string{"quote", "|", "delimiter", `"`},
			want:    [][]string{{`Column-0=a"b`, "Column-1=c"}},
		},
		{
			name:    "ragged rows",
			content: "a\nb,c\n",
			want:    [][]string{{"Column-0=a"}, {"Column-0=b", "Column-1=c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			p := append([]string{"input-file", path}, tt.props...)

			c, err := runChain(t, []engine.ActorDefinition{{Type: "csv-input", Name: "csv", Properties: props(p...)}})
			if err != nil {
				t.Fatalf("Expected run to succeed, got: %v", err)
			}

			var got [][]string
			for _, r := range c.records {
				got = append(got, pairs(r))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Unexpected records (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCSVInputErrors(t *testing.T) {
	path := writeCSV(t, "a,b\n")

	tests := []struct {
		name  string
		props []engine.PropertyDefinition
		code  string
	}{
		{"missing input-file", nil, engine.ErrCodeMissingProperty},
		{"file does not exist", props("input-file", filepath.Join(t.TempDir(), "none.csv")), engine.ErrCodeFatal},
		{"multi-character quote", props("input-file", path, "quote", "''"), engine.ErrCodeFatal},
		{"quote equals delimiter", props("input-file", path, "quote", ";", "delimiter", ";"), engine.ErrCodeFatal},
		{"bad has-header-row", props("input-file", path, "has-header-row", "maybe"), engine.ErrCodeInvalidProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runChain(t, []engine.ActorDefinition{{Type: "csv-input", Name: "csv", Properties: tt.props}})
			if !engine.IsFatal(err) {
				t.Fatalf("Expected fatal error, got: %v", err)
			}
			if code := engine.ErrorCode(err); code != tt.code {
				t.Fatalf("Expected code %s, got: %s", tt.code, code)
			}
		})
	}
}

func TestCSVInputUnreadableFile(t *testing.T) {
	_, err := runChain(t, []engine.ActorDefinition{{Type: "csv-input", Name: "csv", Properties: props("input-file", t.TempDir())}})
	if !engine.IsFatal(err) {
		t.Fatalf("Expected fatal error for unreadable input, got: %v", err)
	}
}
