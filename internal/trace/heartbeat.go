package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a liveness event at a fixed interval while a load runs.
// Each beat carries the scheduler gauge. A beat that finds the gauge
// unchanged with types still pending is marked stalled.
type Heartbeat struct {
	tracer Tracer
	gauge  *Gauge
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval is not
// positive. g may be nil.
func StartHeartbeat(t Tracer, interval time.Duration, g *Gauge) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer: t,
		gauge:  g,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go h.loop(interval)
	return h
}

func (h *Heartbeat) loop(interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev GaugeState
	for beat := 1; ; beat++ {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			cur := h.gauge.Snapshot()
			h.tracer.Emit(beatEvent(beat, cur, prev))
			prev = cur
		}
	}
}

func beatEvent(beat int, cur, prev GaugeState) *Event {
	ev := newEvent(KindHeartbeat, ScopeDriver, "heartbeat")
	ev.Detail = cur.String()
	ev.Extra = map[string]string{"beat": strconv.Itoa(beat)}
	if cur.Stage == "" {
		return ev
	}
	ev.Extra["stage"] = cur.Stage
	ev.Extra["pass"] = strconv.Itoa(cur.Pass)
	ev.Extra["pending"] = strconv.Itoa(cur.Pending)
	if beat > 1 && cur == prev && cur.Pending > 0 {
		ev.Name = "heartbeat:stalled"
		ev.Extra["stalled"] = "true"
	}
	return ev
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil and
// safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
