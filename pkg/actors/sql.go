package actors

import (
	"fmt"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/stores"
)

// SQLiteOutput stores every record as JSON in the records table of a
// SQLite database, labelled with table (the actor name by default) and
// numbered in arrival order.
type SQLiteOutput struct {
	store *stores.SQLiteStore
	label string
	seq   int64
}

// Start implements engine.Starter.
func (s *SQLiteOutput) Start(a *engine.Actor) error {
	path := a.RequireProperty("database")
	s.label = a.PropertyOr("table", a.Name())

	store, err := stores.OpenSQLiteStore(a.Context(), path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	s.store = store
	return nil
}

// Handle implements engine.Handler.
func (s *SQLiteOutput) Handle(a *engine.Actor, r *record.Record) error {
	s.seq++
	if _, err := s.store.InsertRecord(a.Context(), a.Workflow().ID(), s.label, s.seq, r); err != nil {
		return err
	}
	a.Emit(r)
	return nil
}

// Finalize implements engine.Finalizer.
func (s *SQLiteOutput) Finalize(a *engine.Actor) error {
	if s.store == nil {
		return nil
	}
	a.Logger().WithField("records", s.seq).Debug("sqlite output closed")
	err := s.store.Close()
	s.store = nil
	return err
}

// Release implements engine.Releaser.
func (s *SQLiteOutput) Release(*engine.Actor) error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// PostgresOutput inserts every record as a JSONB row into table
// (actorflow_records by default), creating the table if needed.
type PostgresOutput struct {
	sink *stores.PostgresSink
}

// Start implements engine.Starter.
func (p *PostgresOutput) Start(a *engine.Actor) error {
	dsn := a.RequireProperty("dsn")
	sink, err := stores.NewPostgresSink(a.Context(), dsn, a.PropertyOr("table", stores.DefaultPostgresTable))
	if err != nil {
		return err
	}
	p.sink = sink
	return nil
}

// Handle implements engine.Handler.
func (p *PostgresOutput) Handle(a *engine.Actor, r *record.Record) error {
	if err := p.sink.Insert(a.Context(), a.Workflow().ID(), a.Name(), r); err != nil {
		return err
	}
	a.Emit(r)
	return nil
}

// Finalize implements engine.Finalizer.
func (p *PostgresOutput) Finalize(*engine.Actor) error {
	if p.sink != nil {
		p.sink.Close()
		p.sink = nil
	}
	return nil
}

// Release implements engine.Releaser.
func (p *PostgresOutput) Release(a *engine.Actor) error {
	return p.Finalize(a)
}
