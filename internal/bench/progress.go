package bench

import "time"

// Stage identifies a step of a run.
type Stage string

const (
	StageRegister Stage = "register"
	StageDefine   Stage = "define"
	StageBuild    Stage = "build"
	StageInvoke   Stage = "invoke"
	StageGrow     Stage = "grow"
)

// Status is the state of a stage or worker.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event is one progress report. Worker is -1 for run-wide stage events.
type Event struct {
	Worker  int
	Stage   Stage
	Status  Status
	Done    int
	Total   int
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker
// goroutines concurrently.
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

type nopSink struct{}

func (nopSink) OnEvent(Event) {}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	progress ProgressSink
	// reports per worker over the whole run
	steps int
}

// WithProgress sends progress events to sink.
func WithProgress(sink ProgressSink) Option {
	return func(o *runOptions) {
		if sink != nil {
			o.progress = sink
		}
	}
}
