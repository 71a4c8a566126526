package actors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
)

// CSVInput emits one record per row of input-file. Property names come
// from header-row, the file's first row when has-header-row is true, or
// Column-<index> otherwise. Header names win for as many columns as they
// cover.
//
// The quote property may name any single character other than the
// delimiter. A quote character inside an unquoted field is kept as a
// literal, and a quoted field left open at the end of the file runs to
// the end of the file.
type CSVInput struct{}

// Produce implements engine.Producer.
func (CSVInput) Produce(a *engine.Actor) error {
	path := a.RequireProperty("input-file")
	if _, err := os.Stat(path); err != nil {
		a.Dief("input file %s does not exist", path)
	}

	delimiter := firstRune(a.PropertyOr("delimiter", ","))
	quote := '"'
	if v := a.PropertyOr("quote", ""); v != "" {
		if utf8.RuneCountInString(v) != 1 {
			a.Dief("quote must be a single character, got %q", v)
		}
		quote, _ = utf8.DecodeRuneInString(v)
	}
	if quote == delimiter {
		a.Dief("quote and delimiter must differ, both are %q", quote)
	}

	var header []string
	if v, ok := a.FirstPropertyValue("header-row"); ok && v != "" {
		r := newCSVReader(strings.NewReader(v), delimiter, quote)
		row, err := r.Read()
		if err != nil {
			a.Dief("cannot parse header row %q: %v", v, err)
		}
		header = row
	}
	hasHeaderRow := a.BoolProperty("has-header-row", false)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := newCSVReader(f, delimiter, quote)
	for rowIdx := 0; ; rowIdx++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		if hasHeaderRow && rowIdx == 0 {
			// A header-row property takes precedence over the file's own.
			if header == nil {
				header = row
			}
			continue
		}

		rec := record.New()
		for idx, value := range row {
			name := "Column-" + strconv.Itoa(idx)
			if idx < len(header) {
				name = header[idx]
			}
			rec.AddProperty(name, value)
		}
		a.Emit(rec)
	}
}

// csvReader reads rows with an arbitrary quote character. encoding/csv
// only quotes with '"', so the input stream has the configured quote and
// '"' swapped, and every field is swapped back after parsing.
type csvReader struct {
	r    *csv.Reader
	swap func(rune) rune
}

func newCSVReader(r io.Reader, delimiter, quote rune) *csvReader {
	cr := &csvReader{}
	if quote != '"' {
		cr.swap = func(c rune) rune {
			switch c {
			case quote:
				return '"'
			case '"':
				return quote
			}
			return c
		}
		r = transform.NewReader(r, runes.Map(cr.swap))
		delimiter = cr.swap(delimiter)
	}

	cr.r = csv.NewReader(r)
	cr.r.Comma = delimiter
	cr.r.FieldsPerRecord = -1
	cr.r.LazyQuotes = true
	return cr
}

func (c *csvReader) Read() ([]string, error) {
	row, err := c.r.Read()
	if err != nil || c.swap == nil {
		return row, err
	}
	for i := range row {
		row[i] = strings.Map(c.swap, row[i])
	}
	return row, nil
}

func firstRune(s string) rune {
	if s == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
