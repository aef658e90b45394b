package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"elnino/internal/records"
	"elnino/internal/target"
	"elnino/internal/types"
)

// SchemaError reports a database written by an incompatible version.
type SchemaError struct {
	Path string
	Got  uint16
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: type database schema %d, expected %d", e.Path, e.Got, SchemaVersion)
}

// FileSink collects definitions and writes them as a Database on Close.
// The encoding follows the path's extension (.json, .mp, .msgpack). The
// file is replaced atomically, so readers never see a partial database.
type FileSink struct {
	mu     sync.Mutex
	path   string
	format records.Format
	db     Database
	closed bool
}

// NewFileSink validates the path's extension; nothing is written yet.
func NewFileSink(path string, profile target.Profile) (*FileSink, error) {
	format, err := records.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		path:   path,
		format: format,
		db: Database{
			Schema:       SchemaVersion,
			Arch:         profile.Name,
			PointerWidth: profile.PointerWidth,
		},
	}, nil
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) DefineType(name string, kind types.Kind, t *types.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%s: sink already closed", s.path)
	}
	s.db.Types = append(s.db.Types, Document(name, kind, t))
	return nil
}

// Close writes the database. Calling it again is a no-op.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var buf bytes.Buffer
	switch s.format {
	case records.FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(&s.db); err != nil {
			return err
		}
	default:
		if err := msgpack.NewEncoder(&buf).Encode(&s.db); err != nil {
			return err
		}
	}
	return writeAtomic(s.path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".elnino-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// ReadDatabase loads a database written by FileSink.
func ReadDatabase(path string) (*Database, error) {
	format, err := records.FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var db Database
	switch format {
	case records.FormatJSON:
		err = json.Unmarshal(data, &db)
	default:
		err = msgpack.Unmarshal(data, &db)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if db.Schema != SchemaVersion {
		return nil, &SchemaError{Path: path, Got: db.Schema}
	}
	return &db, nil
}
