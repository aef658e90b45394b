package fixpoint

import "time"

// Stage describes a scheduler phase.
type Stage string

const (
	// StageEnums is the single enum pass.
	StageEnums Stage = "enums"
	// StageAggregates is the struct/union fixpoint loop.
	StageAggregates Stage = "aggregates"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusWorking marks a running stage or pass.
	StatusWorking Status = "working"
	// StatusDefined reports one definition handed to the sink.
	StatusDefined Status = "defined"
	// StatusDone marks a finished stage.
	StatusDone Status = "done"
	// StatusError marks a stage aborted by a fatal error.
	StatusError Status = "error"
)

// Event reports scheduler progress. Name is set for StatusDefined only.
type Event struct {
	Stage    Stage
	Status   Status
	Pass     int // 1-based aggregate pass, 0 for the enum stage
	Name     string
	Resolved int // definitions so far in this stage
	Pending  int // still waiting in this stage
	Total    int // definitions the stage started with
	Err      error
	Elapsed  time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopProgress struct{}

func (nopProgress) OnEvent(Event) {}
