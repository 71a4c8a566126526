// Package stores persists run history and sink output.
//
// SQLiteStore keeps runs, run events and records written by the
// sqlite-output node, in a schema created from embedded golang-migrate
// migrations. RunRecorder is an engine.Observer that writes a run row
// when a run starts and completes it when the run finishes.
// PostgresSink writes records as JSONB rows for the postgres-output node.
package stores
