// Package script runs Starlark record transforms.
//
// A program is compiled once and must define a function (transform by
// default) taking one argument: a dict mapping property names to values.
// The function returns a dict to replace the record, a list of dicts to
// emit several records, or None to drop it. A property that occurs more
// than once is passed as a list; a list value in a returned dict becomes
// repeated properties.
package script

import (
	"context"
	"fmt"
	"time"

	starlarkjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/telemetry"
)

const (
	// DefaultFunction is the entry point looked up when none is given.
	DefaultFunction = "transform"

	// DefaultTimeout bounds a single call.
	DefaultTimeout = 5 * time.Second
)

// Transformer is a compiled Starlark program. It is safe for sequential
// use; each call runs on a fresh thread against frozen globals.
type Transformer struct {
	filename string
	fn       starlark.Callable
	timeout  time.Duration
	logger   *telemetry.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithTimeout bounds each call. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(t *Transformer) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger receives the program's print output.
func WithLogger(logger *telemetry.Logger) Option {
	return func(t *Transformer) { t.logger = logger }
}

// Compile executes src once and resolves the named function.
func Compile(filename, src, function string, opts ...Option) (*Transformer, error) {
	if function == "" {
		function = DefaultFunction
	}
	t := &Transformer{
		filename: filename,
		timeout:  DefaultTimeout,
		logger:   telemetry.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}

	predeclared := starlark.StringDict{
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
		"json":   starlarkjson.Module,
	}

	globals, err := starlark.ExecFile(t.newThread(), filename, src, predeclared)
	if err != nil {
		return nil, fmt.Errorf("starlark execution failed: %w", err)
	}
	globals.Freeze()

	fn, ok := globals[function].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("%s does not define a function named %s", filename, function)
	}
	t.fn = fn
	return t, nil
}

func (t *Transformer) newThread() *starlark.Thread {
	return &starlark.Thread{
		Name: t.filename,
		Print: func(_ *starlark.Thread, msg string) {
			t.logger.WithField("script", t.filename).Info(msg)
		},
	}
}

// Transform calls the function on r and returns the resulting records.
// An empty result means the record was dropped.
func (t *Transformer) Transform(ctx context.Context, r *record.Record) ([]*record.Record, error) {
	arg, err := recordToDict(r)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	thread := t.newThread()
	stop := context.AfterFunc(callCtx, func() {
		thread.Cancel(fmt.Sprintf("execution timeout after %v", t.timeout))
	})
	defer stop()

	result, err := starlark.Call(thread, t.fn, starlark.Tuple{arg}, nil)
	if err != nil {
		return nil, fmt.Errorf("starlark call failed: %w", err)
	}

	switch v := result.(type) {
	case starlark.NoneType:
		return nil, nil
	case *starlark.Dict:
		out, err := dictToRecord(v)
		if err != nil {
			return nil, err
		}
		return []*record.Record{out}, nil
	case *starlark.List:
		records := make([]*record.Record, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			d, ok := v.Index(i).(*starlark.Dict)
			if !ok {
				return nil, fmt.Errorf("list element %d is %s, want dict", i, v.Index(i).Type())
			}
			out, err := dictToRecord(d)
			if err != nil {
				return nil, err
			}
			records = append(records, out)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("transform returned %s, want dict, list or None", result.Type())
	}
}

func recordToDict(r *record.Record) (*starlark.Dict, error) {
	grouped := make(map[string][]starlark.Value)
	order := make([]string, 0)

	for _, p := range r.All() {
		v, err := toStarlarkValue(p.Value())
		if err != nil {
			v = starlark.String(p.StringValue())
		}
		if _, seen := grouped[p.Name()]; !seen {
			order = append(order, p.Name())
		}
		grouped[p.Name()] = append(grouped[p.Name()], v)
	}

	dict := starlark.NewDict(len(order))
	for _, name := range order {
		values := grouped[name]
		var v starlark.Value = values[0]
		if len(values) > 1 {
			v = starlark.NewList(values)
		}
		if err := dict.SetKey(starlark.String(name), v); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

func dictToRecord(d *starlark.Dict) (*record.Record, error) {
	out := record.New()
	for _, item := range d.Items() {
		key, ok := item[0].(starlark.String)
		if !ok {
			return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
		}
		if list, ok := item[1].(*starlark.List); ok {
			for i := 0; i < list.Len(); i++ {
				v, err := fromStarlarkValue(list.Index(i))
				if err != nil {
					return nil, fmt.Errorf("property %s: %w", key, err)
				}
				out.AddProperty(string(key), v)
			}
			continue
		}
		v, err := fromStarlarkValue(item[1])
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", key, err)
		}
		out.AddProperty(string(key), v)
	}
	return out, nil
}
