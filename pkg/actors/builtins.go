package actors

import (
	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/registry"
)

type builtin struct {
	typeName    string
	description string
	factory     engine.Factory
}

// stateless returns a factory handing out b for every actor.
func stateless(b engine.Behavior) engine.Factory {
	return func(*engine.Workflow) (engine.Behavior, error) { return b, nil }
}

// fresh returns a factory constructing a new behavior per actor.
func fresh[T any]() engine.Factory {
	return func(*engine.Workflow) (engine.Behavior, error) { return new(T), nil }
}

var builtins = []builtin{
	{"relay", "Relays every record to its consumers unchanged", stateless(engine.Relay{})},
	{"input", "Emits a fixed number of records with an ID property", stateless(Input{})},
	{"csv-input", "Emits one record per row of a delimited text file", stateless(CSVInput{})},
	{"jsonl-input", "Emits the records stored in a JSON lines file", stateless(JSONLInput{})},
	{"print", "Logs each record's properties and relays it", fresh[Print]()},
	{"output-file", "Writes every record to a text file", fresh[OutputFile]()},
	{"jsonl-output", "Writes every record to a JSON lines file", fresh[JSONLOutput]()},
	{"starlark", "Transforms records with a Starlark function", fresh[Starlark]()},
	{"rego-filter", "Relays records accepted by a Rego policy", fresh[RegoFilter]()},
	{"sqlite-output", "Stores records as JSON in a SQLite database", fresh[SQLiteOutput]()},
	{"postgres-output", "Inserts records as JSONB rows into PostgreSQL", fresh[PostgresOutput]()},
	{"amqp-output", "Publishes records as JSON messages to an AMQP exchange", fresh[AMQPOutput]()},
	{"sftp-output", "Uploads rendered records to a remote file over SFTP", fresh[SFTPOutput]()},
}

// legacyPackage is the class prefix used by workflow documents written
// for the Java workflow engine.
const legacyPackage = "com.brightcove.opensource.workflowengine"

var builtinAliases = map[string]string{
	"passthrough": "relay",
	"log":         "print",
	"csv":         "csv-input",
	"file":        "output-file",

	legacyPackage + ".Actor":                  "relay",
	legacyPackage + ".actors.InputAdapter":    "input",
	legacyPackage + ".actors.CSVInputAdapter": "csv-input",
	legacyPackage + ".actors.PrintAdapter":    "print",
	legacyPackage + ".actors.OutputAdapter":   "output-file",
}

// RegisterBuiltins adds every built-in type and its aliases to reg.
func RegisterBuiltins(reg *registry.Registry) error {
	for _, b := range builtins {
		if err := reg.Register(b.typeName, b.description, b.factory); err != nil {
			return err
		}
	}
	for alias, typeName := range builtinAliases {
		if err := reg.Alias(alias, typeName); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in types.
func NewRegistry() *registry.Registry {
	reg := registry.New()
	if err := RegisterBuiltins(reg); err != nil {
		panic(err)
	}
	return reg
}
