package trace

import (
	"context"
	"fmt"
	"sync/atomic"
)

type (
	tracerKey struct{}
	parentKey struct{}
	gaugeKey  struct{}
)

// WithTracer attaches t to ctx. A nil tracer is stored as Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer carried by ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

// WithParent makes span id the parent of spans started from ctx.
func WithParent(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, parentKey{}, id)
}

// Parent returns the span id set by WithParent, 0 at the root.
func Parent(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(parentKey{}).(uint64)
	return id
}

// Gauge mirrors where the scheduler is. The scheduler writes it, heartbeats
// read it from their own goroutine. All methods accept a nil receiver.
type Gauge struct {
	stage   atomic.Value // string
	pass    atomic.Int64
	pending atomic.Int64
	defined atomic.Int64
}

// GaugeState is a copy of a Gauge at one instant.
type GaugeState struct {
	Stage   string
	Pass    int
	Pending int
	Defined int
}

func (s GaugeState) String() string {
	switch {
	case s.Stage == "":
		return "idle"
	case s.Pass == 0:
		return fmt.Sprintf("%s: %d pending, %d defined", s.Stage, s.Pending, s.Defined)
	default:
		return fmt.Sprintf("%s pass %d: %d pending, %d defined", s.Stage, s.Pass, s.Pending, s.Defined)
	}
}

func NewGauge() *Gauge { return &Gauge{} }

// Enter records the start of a stage (pass 0) or of an aggregate pass.
func (g *Gauge) Enter(stage string, pass, pending int) {
	if g == nil {
		return
	}
	g.stage.Store(stage)
	g.pass.Store(int64(pass))
	g.pending.Store(int64(pending))
}

// Define counts one type handed to the sink.
func (g *Gauge) Define() {
	if g == nil {
		return
	}
	g.defined.Add(1)
	if g.pending.Load() > 0 {
		g.pending.Add(-1)
	}
}

func (g *Gauge) Snapshot() GaugeState {
	if g == nil {
		return GaugeState{}
	}
	stage, _ := g.stage.Load().(string)
	return GaugeState{
		Stage:   stage,
		Pass:    int(g.pass.Load()),
		Pending: int(g.pending.Load()),
		Defined: int(g.defined.Load()),
	}
}

// WithGauge attaches g to ctx.
func WithGauge(ctx context.Context, g *Gauge) context.Context {
	return context.WithValue(ctx, gaugeKey{}, g)
}

// GaugeFrom returns the gauge carried by ctx, or nil.
func GaugeFrom(ctx context.Context) *Gauge {
	if ctx == nil {
		return nil
	}
	g, _ := ctx.Value(gaugeKey{}).(*Gauge)
	return g
}
