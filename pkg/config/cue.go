package config

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// workflowSchema constrains JSON and CUE documents. Definitions are
// closed, so unknown fields are rejected.
const workflowSchema = `
#Scalar: string | number | bool | null

#Property: {
	name:  string & !=""
	value: #Scalar
}

#Actor: {
	type:        string & !=""
	name:        string & !=""
	properties?: [...#Property] | {[string]: #Scalar}
	providers?:  [...string]
	consumers?:  [...string]
}

#Link: {
	from: string & !=""
	to:   string & !=""
}

#Workflow: {
	name?:        string
	description?: string
	actors:       [...#Actor]
	links?:       [...#Link]
}
`

// parseCUE evaluates a CUE (or JSON, which is valid CUE) document,
// unifies it with the workflow schema and decodes the result. The value
// is round-tripped through JSON so property order follows the source.
func parseCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(workflowSchema, cue.Filename("workflow.schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile workflow schema: %w", err)
	}

	val := ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, cueError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Workflow")).Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(err)
	}

	raw, err := val.MarshalJSON()
	if err != nil {
		return nil, cueError(err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func cueError(err error) error {
	return fmt.Errorf("%s", errors.Details(err, nil))
}
