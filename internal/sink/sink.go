// Package sink holds the consumers of resolved definitions: an in-memory
// recorder, the type database file (msgpack or JSON), a C header printer and
// a fan-out.
package sink

import (
	"errors"
	"io"

	"elnino/internal/fixpoint"
	"elnino/internal/target"
	"elnino/internal/types"
)

var (
	_ fixpoint.Sink = (*Memory)(nil)
	_ fixpoint.Sink = (*MultiSink)(nil)
	_ fixpoint.Sink = (*FileSink)(nil)
	_ fixpoint.Sink = (*HeaderSink)(nil)
)

// Definition is one DefineType call.
type Definition struct {
	Name string
	Kind types.Kind
	Type *types.Type
}

// Memory records every definition in call order.
type Memory struct {
	defs []Definition
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) DefineType(name string, kind types.Kind, t *types.Type) error {
	m.defs = append(m.defs, Definition{Name: name, Kind: kind, Type: t})
	return nil
}

// Definitions returns the recorded definitions. Do not modify.
func (m *Memory) Definitions() []Definition {
	return m.defs
}

// Lookup returns the first definition of name in kind's namespace.
func (m *Memory) Lookup(name string, kind types.Kind) (Definition, bool) {
	enum := kind == types.KindEnum
	for _, d := range m.defs {
		if d.Name == name && (d.Kind == types.KindEnum) == enum {
			return d, true
		}
	}
	return Definition{}, false
}

// MultiSink fans definitions out to several sinks in order.
type MultiSink struct {
	sinks []fixpoint.Sink
}

// Multi combines sinks, skipping nil ones.
func Multi(sinks ...fixpoint.Sink) *MultiSink {
	out := &MultiSink{sinks: make([]fixpoint.Sink, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			out.sinks = append(out.sinks, s)
		}
	}
	return out
}

// DefineType stops at the first failing sink.
func (m *MultiSink) DefineType(name string, kind types.Kind, t *types.Type) error {
	for _, s := range m.sinks {
		if err := s.DefineType(name, kind, t); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink that is an io.Closer and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Database builds the document FileSink would write for the recorded
// definitions.
func (m *Memory) Database(profile target.Profile) *Database {
	db := &Database{
		Schema:       SchemaVersion,
		Arch:         profile.Name,
		PointerWidth: profile.PointerWidth,
		Types:        make([]DefinitionDoc, 0, len(m.defs)),
	}
	for _, d := range m.defs {
		db.Types = append(db.Types, Document(d.Name, d.Kind, d.Type))
	}
	return db
}
