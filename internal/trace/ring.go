package trace

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
)

// RingTracer keeps the most recent events in memory for dumping on exit or
// panic. Record events live in their own lane, so one long pass cannot push
// the phase and pass spans out of the buffer.
type RingTracer struct {
	mu      sync.Mutex
	level   Level
	coarse  lane // driver, phase, pass, heartbeat
	records lane
}

type lane struct {
	buf     []Event
	next    int
	n       int
	evicted uint64
}

func (l *lane) push(ev Event) {
	if l.n == len(l.buf) {
		l.evicted++
	} else {
		l.n++
	}
	l.buf[l.next] = ev
	l.next = (l.next + 1) % len(l.buf)
}

func (l *lane) appendTo(out []Event) []Event {
	start := (l.next - l.n + len(l.buf)) % len(l.buf)
	for i := range l.n {
		out = append(out, l.buf[(start+i)%len(l.buf)])
	}
	return out
}

// NewRingTracer keeps up to capacity events, three quarters of them
// reserved for record events.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	capacity = max(capacity, 2)
	records := max(capacity*3/4, 1)
	return &RingTracer{
		level:   level,
		coarse:  lane{buf: make([]Event, capacity-records)},
		records: lane{buf: make([]Event, records)},
	}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev == nil || (!t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if ev.Scope == ScopeRecord {
		t.records.push(*ev)
	} else {
		t.coarse.push(*ev)
	}
}

// Snapshot returns the kept events of both lanes in emission order.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	out := make([]Event, 0, t.coarse.n+t.records.n)
	out = t.coarse.appendTo(out)
	out = t.records.appendTo(out)
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b Event) int { return cmp.Compare(a.Seq, b.Seq) })
	return out
}

// Evicted reports how many events of scope's lane were overwritten.
func (t *RingTracer) Evicted(scope Scope) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if scope == ScopeRecord {
		return t.records.evicted
	}
	return t.coarse.evicted
}

// Dump writes the kept events. Text dumps start with a line counting the
// evicted events; NDJSON dumps hold events only.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	if format == FormatText {
		coarse, records := t.Evicted(ScopePhase), t.Evicted(ScopeRecord)
		if coarse+records > 0 {
			if _, err := fmt.Fprintf(w, "# ring: %d record and %d phase/pass events evicted\n", records, coarse); err != nil {
				return err
			}
		}
	}
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

func (t *RingTracer) Close() error { return nil }

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
