package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Tracer receives trace events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

type nopTracer struct{}

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Enabled() bool { return false }

// Nop discards everything. FromContext returns it when ctx carries no tracer.
var Nop Tracer = nopTracer{}

// StorageMode determines how events are kept.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they happen
	ModeRing                          // kept in memory, dumped on exit
	ModeBoth
)

func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a --trace-mode value.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeRing, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
	}
}

// Config describes the tracing of one command.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format        // FormatAuto picks by OutputPath extension
	Output     io.Writer     // overrides OutputPath
	OutputPath string        // "" or "-" is stderr; in ring mode the dump target
	RingSize   int           // default 4096
	Heartbeat  time.Duration // 0 disables heartbeats
}

// Session is the tracing of one command: the tracer, the ring kept for
// post-mortem dumps and the heartbeat watching the scheduler gauge.
type Session struct {
	Tracer Tracer
	Gauge  *Gauge // nil without heartbeats

	cfg  Config
	ring *RingTracer
	beat *Heartbeat
}

// Open builds the session for cfg. LevelOff yields a session around Nop.
func Open(cfg Config) (*Session, error) {
	if cfg.Format == FormatAuto {
		cfg.Format = FormatForPath(cfg.OutputPath)
	}
	s := &Session{Tracer: Nop, cfg: cfg}
	if cfg.Level == LevelOff {
		return s, nil
	}

	switch cfg.Mode {
	case ModeRing:
		s.ring = NewRingTracer(cfg.RingSize, cfg.Level)
		s.Tracer = s.ring
	case ModeStream, ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		stream := NewStreamTracer(w, cfg.Level, cfg.Format)
		s.Tracer = stream
		if cfg.Mode == ModeBoth {
			s.ring = NewRingTracer(cfg.RingSize, cfg.Level)
			s.Tracer = NewMultiTracer(cfg.Level, stream, s.ring)
		}
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}

	if cfg.Heartbeat > 0 {
		s.Gauge = NewGauge()
		s.beat = StartHeartbeat(s.Tracer, cfg.Heartbeat, s.Gauge)
	}
	return s, nil
}

// Context attaches the session's tracer and gauge to ctx.
func (s *Session) Context(ctx context.Context) context.Context {
	ctx = WithTracer(ctx, s.Tracer)
	if s.Gauge != nil {
		ctx = WithGauge(ctx, s.Gauge)
	}
	return ctx
}

// Ring returns the in-memory ring, nil in stream mode.
func (s *Session) Ring() *RingTracer {
	if s == nil {
		return nil
	}
	return s.ring
}

// Close stops the heartbeat, writes the ring out in ring mode and closes the
// tracer.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.beat.Stop()
	var errs []error
	if s.cfg.Mode == ModeRing && s.ring != nil {
		errs = append(errs, s.dump())
	}
	errs = append(errs, s.Tracer.Flush(), s.Tracer.Close())
	return errors.Join(errs...)
}

func (s *Session) dump() error {
	if s.cfg.Output != nil {
		return s.ring.Dump(s.cfg.Output, s.cfg.Format)
	}
	path := s.cfg.OutputPath
	if path == "" || path == "-" {
		return s.ring.Dump(os.Stderr, FormatText)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace dump: %w", err)
	}
	if err := s.ring.Dump(f, s.cfg.Format); err != nil {
		_ = f.Close()
		return fmt.Errorf("trace dump: %w", err)
	}
	return f.Close()
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
