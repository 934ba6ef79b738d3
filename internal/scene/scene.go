package scene

// Scene is anything the frame pump drives once per frame while it runs.
type Scene interface {
	Name() string
	IsRunning() bool
	// OnFrame does the scene's per-frame work. It must not block.
	OnFrame()
	StartScene()
}

// State is the lifecycle position of a scene.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
