package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog"

	"github.com/actorflow/actorflow/pkg/record"
)

// Filter decides per record whether it may pass, by evaluating a boolean
// Rego query against the record.
//
// The input document is
//
//	{
//	  "record":     {"<name>": <first value>, ...},
//	  "properties": [{"name": "<name>", "value": <value>}, ...]
//	}
//
// A record passes when the query yields exactly true. An undefined query
// result means the record is dropped.
type Filter struct {
	query    string
	prepared rego.PreparedEvalQuery
	logger   zerolog.Logger
}

// NewFilter compiles modules and prepares query. An empty query defaults
// to the allow rule of the first module's package.
func NewFilter(ctx context.Context, modules []Module, query string, logger zerolog.Logger) (*Filter, error) {
	if len(modules) == 0 {
		return nil, fmt.Errorf("at least one policy module is required")
	}
	if query == "" {
		query = modules[0].Package + ".allow"
	}

	opts := []func(*rego.Rego){rego.Query(query)}
	for _, m := range modules {
		opts = append(opts, rego.Module(m.Name, m.Rego))
	}

	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query %s: %w", query, err)
	}

	logger.Debug().
		Str("query", query).
		Int("modules", len(modules)).
		Msg("Policy filter compiled")

	return &Filter{query: query, prepared: prepared, logger: logger}, nil
}

// Query returns the evaluated query.
func (f *Filter) Query() string {
	return f.query
}

// Allow evaluates the query for r.
func (f *Filter) Allow(ctx context.Context, r *record.Record) (bool, error) {
	rs, err := f.prepared.Eval(ctx, rego.EvalInput(Input(r)))
	if err != nil {
		return false, fmt.Errorf("policy evaluation error: %w", err)
	}
	return rs.Allowed(), nil
}

// Input builds the evaluation input for r.
func Input(r *record.Record) map[string]any {
	props := make([]any, 0, r.Len())
	for _, p := range r.All() {
		props = append(props, map[string]any{"name": p.Name(), "value": inputValue(p)})
	}

	first := make(map[string]any)
	for _, p := range r.All() {
		if _, ok := first[p.Name()]; !ok {
			first[p.Name()] = inputValue(p)
		}
	}

	return map[string]any{
		"record":     first,
		"properties": props,
	}
}

// inputValue keeps JSON-compatible scalars and renders anything else as
// text.
func inputValue(p *record.Property) any {
	switch v := p.Value().(type) {
	case nil, string, bool, int, int64, float64:
		return v
	default:
		return p.StringValue()
	}
}
