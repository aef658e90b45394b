// Package fixpoint drives type resolution to completion.
//
// Enums are resolved once, up front. Structs and unions are then attempted
// pass after pass in stream order; every success is registered and handed to
// the sink immediately, so later records in the same pass already see it. The
// loop stops when nothing is pending or a pass resolves nothing. Registry
// entries are never removed, so each productive pass strictly shrinks the
// pending set and the loop always terminates.
package fixpoint

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"elnino/internal/builtin"
	"elnino/internal/diag"
	"elnino/internal/records"
	"elnino/internal/registry"
	"elnino/internal/resolve"
	"elnino/internal/target"
	"elnino/internal/trace"
	"elnino/internal/types"
)

// Options configure a Run.
type Options struct {
	Profile          target.Profile
	Strict           bool
	AnonymousMarkers []string
	Sink             Sink         // may be nil
	Progress         ProgressSink // may be nil
	MaxDiagnostics   int          // 0 = unlimited
}

// Unresolved is an aggregate left pending at the fixpoint.
type Unresolved struct {
	Name    string
	Missing []resolve.Missing
}

// Result is the best-effort outcome of a run.
type Result struct {
	Profile    target.Profile
	Registry   *registry.Registry
	Bag        *diag.Bag
	Stats      Stats
	Unresolved []Unresolved
}

type scheduler struct {
	ctx      context.Context
	opts     Options
	reg      *registry.Registry
	bag      *diag.Bag
	reporter diag.Reporter
	res      *resolve.Resolver
	sink     Sink
	progress ProgressSink
	tracer   trace.Tracer
	parent   uint64
	gauge    *trace.Gauge // nil unless heartbeats watch the load
	stats    Stats
}

// Run resolves every definition in stream. The returned error is non-nil
// only for fatal conditions (unknown primitive codes, strict-mode unknown
// leaves, sink failures, cancellation); in that case the partial Result is
// still returned.
func Run(ctx context.Context, stream *records.Stream, opts Options) (*Result, error) {
	if opts.Profile.PointerWidth <= 0 {
		opts.Profile = target.X86_64()
	}
	s := &scheduler{
		ctx:      ctx,
		opts:     opts,
		reg:      registry.New(),
		bag:      diag.NewBag(opts.MaxDiagnostics),
		sink:     opts.Sink,
		progress: opts.Progress,
		tracer:   trace.FromContext(ctx),
		parent:   trace.Parent(ctx),
		gauge:    trace.GaugeFrom(ctx),
	}
	if s.sink == nil {
		s.sink = nopSink{}
	}
	if s.progress == nil {
		s.progress = nopProgress{}
	}
	// Unknown leaves are met again on every pass; report each once.
	s.reporter = diag.NewDedupReporter(diag.BagReporter{Bag: s.bag})
	s.res = resolve.New(builtin.NewDecoder(opts.Profile.PointerWidth), s.reg, resolve.Options{
		AnonymousMarkers: opts.AnonymousMarkers,
		Strict:           opts.Strict,
		Reporter:         s.reporter,
	})

	enums, aggregates := stream.Definitions()
	result := &Result{Profile: opts.Profile, Registry: s.reg, Bag: s.bag}

	err := s.enumPhase(enums)
	if err == nil {
		result.Unresolved, err = s.aggregatePhase(aggregates)
	}
	result.Stats = s.stats
	return result, err
}

func (s *scheduler) enumPhase(enums []*records.Enum) error {
	span := trace.Begin(s.tracer, trace.ScopePhase, string(StageEnums), s.parent)
	start := time.Now()
	s.stats.Enums = len(enums)
	s.gauge.Enter(string(StageEnums), 0, len(enums))
	s.progress.OnEvent(Event{Stage: StageEnums, Status: StatusWorking, Total: len(enums), Pending: len(enums)})

	for i, e := range enums {
		if s.reg.Has(registry.NamespaceEnum, e.Name) {
			s.duplicate(e.Name, span.ID())
			continue
		}
		t, fail, err := s.res.BuildEnum(e)
		if err != nil {
			s.fail(StageEnums, 0, err)
			span.End(err.Error())
			return err
		}
		if fail != nil {
			s.stats.EnumsDropped++
			diag.ReportWarning(s.reporter, fail.Code, e.Name, "enum dropped: "+fail.Detail).Emit()
			trace.Point(s.tracer, trace.ScopeRecord, "enum:"+e.Name, "dropped", span.ID())
			continue
		}
		if err := s.define(e.Name, t); err != nil {
			s.fail(StageEnums, 0, err)
			span.End(err.Error())
			return err
		}
		s.stats.EnumsParsed++
		trace.Point(s.tracer, trace.ScopeRecord, "enum:"+e.Name, "resolved", span.ID())
		s.progress.OnEvent(Event{
			Stage: StageEnums, Status: StatusDefined, Name: e.Name,
			Resolved: s.stats.EnumsParsed, Pending: len(enums) - i - 1, Total: len(enums),
		})
	}

	s.progress.OnEvent(Event{
		Stage: StageEnums, Status: StatusDone,
		Resolved: s.stats.EnumsParsed, Total: len(enums), Elapsed: time.Since(start),
	})
	span.WithExtra("parsed", strconv.Itoa(s.stats.EnumsParsed)).
		WithExtra("dropped", strconv.Itoa(s.stats.EnumsDropped)).
		End(fmt.Sprintf("%d enums", len(enums)))
	return nil
}

func (s *scheduler) aggregatePhase(pending []records.Record) ([]Unresolved, error) {
	span := trace.Begin(s.tracer, trace.ScopePhase, string(StageAggregates), s.parent)
	start := time.Now()
	total := len(pending)
	s.stats.Aggregates = total

	var missing map[records.Record][]resolve.Missing
	for len(pending) > 0 {
		if err := s.ctx.Err(); err != nil {
			s.fail(StageAggregates, s.stats.Passes, err)
			span.End("cancelled")
			return nil, err
		}
		s.stats.Passes++
		pass := s.stats.Passes
		passSpan := trace.Begin(s.tracer, trace.ScopePass, "pass#"+strconv.Itoa(pass), span.ID())
		s.gauge.Enter(string(StageAggregates), pass, len(pending))
		s.progress.OnEvent(Event{
			Stage: StageAggregates, Status: StatusWorking, Pass: pass,
			Resolved: s.stats.AggregatesParsed, Pending: len(pending), Total: total,
		})

		progress := 0
		missing = make(map[records.Record][]resolve.Missing)
		remaining := pending[:0:0]
		for _, rec := range pending {
			name := records.Name(rec)
			if s.reg.Has(registry.NamespaceAggregate, name) {
				s.duplicate(name, passSpan.ID())
				continue
			}
			agg, err := s.res.BuildAggregate(rec)
			if err != nil {
				s.fail(StageAggregates, pass, err)
				passSpan.End(err.Error())
				span.End(err.Error())
				return nil, err
			}
			if agg.Type == nil {
				missing[rec] = agg.Missing
				remaining = append(remaining, rec)
				trace.Point(s.tracer, trace.ScopeRecord, "struct:"+name, fmt.Sprintf("waiting on %d", len(agg.Missing)), passSpan.ID())
				continue
			}
			if err := s.define(name, agg.Type); err != nil {
				s.fail(StageAggregates, pass, err)
				passSpan.End(err.Error())
				span.End(err.Error())
				return nil, err
			}
			progress++
			s.stats.AggregatesParsed++
			s.stats.Inlined += len(agg.Inlined)
			trace.Point(s.tracer, trace.ScopeRecord, "struct:"+name, "resolved", passSpan.ID())
			s.progress.OnEvent(Event{
				Stage: StageAggregates, Status: StatusDefined, Pass: pass, Name: name,
				Resolved: s.stats.AggregatesParsed, Total: total,
			})
		}

		pending = remaining
		s.stats.PassProgress = append(s.stats.PassProgress, progress)
		passSpan.WithExtra("resolved", strconv.Itoa(progress)).
			End(fmt.Sprintf("%d incomplete left", len(pending)))
		if progress == 0 {
			break
		}
	}

	unresolved := make([]Unresolved, 0, len(pending))
	for _, rec := range pending {
		u := Unresolved{Name: records.Name(rec), Missing: missing[rec]}
		unresolved = append(unresolved, u)
		b := diag.ReportWarning(s.reporter, diag.ResUnresolvedAfterFixpoint, u.Name,
			fmt.Sprintf("unresolved after %d passes", s.stats.Passes))
		for _, m := range u.Missing {
			b.WithNote(m.Type, "member "+m.Member+" has no complete type")
		}
		b.Emit()
	}
	s.stats.AggregatesUnresolved = len(unresolved)

	s.progress.OnEvent(Event{
		Stage: StageAggregates, Status: StatusDone, Pass: s.stats.Passes,
		Resolved: s.stats.AggregatesParsed, Pending: len(unresolved), Total: total,
		Elapsed: time.Since(start),
	})
	span.WithExtra("passes", strconv.Itoa(s.stats.Passes)).
		WithExtra("unresolved", strconv.Itoa(len(unresolved))).
		End(fmt.Sprintf("%d aggregates", total))
	return unresolved, nil
}

// define registers t and hands it to the sink.
func (s *scheduler) define(name string, t *types.Type) error {
	s.reg.Define(registry.NamespaceFor(t.Kind), name, t)
	s.gauge.Define()
	if err := s.sink.DefineType(name, t.Kind, t); err != nil {
		return &SinkError{Name: name, Err: err}
	}
	return nil
}

func (s *scheduler) duplicate(name string, parent uint64) {
	s.stats.Duplicates++
	diag.ReportInfo(s.reporter, diag.ResDuplicateDefinition, name, "already defined, later definition ignored").Emit()
	trace.Point(s.tracer, trace.ScopeRecord, name, "duplicate", parent)
}

func (s *scheduler) fail(stage Stage, pass int, err error) {
	s.progress.OnEvent(Event{Stage: stage, Status: StatusError, Pass: pass, Err: err})
}
