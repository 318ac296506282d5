package driver

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageParse covers listing, loading and parsing crate declaration files.
	StageParse Stage = "parse"
	// StageBuild covers lowering declarations into the library.
	StageBuild Stage = "build"
	// StageResolve covers export renaming and conditional pruning.
	StageResolve Stage = "resolve"
	// StageSpecialize covers generic instantiation.
	StageSpecialize Stage = "specialize"
	// StageOrder covers dependency ordering.
	StageOrder Stage = "order"
	// StageEmit covers the emission contract and C rendering.
	StageEmit Stage = "emit"
	// StageWrite covers writing the header to disk.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a crate (or for the overall pipeline when
// Crate is empty).
type Event struct {
	Crate   string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// SinkFunc adapts a function to the ProgressSink interface.
type SinkFunc func(Event)

// OnEvent implements ProgressSink.
func (f SinkFunc) OnEvent(ev Event) { f(ev) }

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

// OnEvent implements ProgressSink.
func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

func notify(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
