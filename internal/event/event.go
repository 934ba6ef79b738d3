package event

// Kind identifies what an Event carries.
type Kind int

const (
	KindNewBlit Kind = iota + 1
	KindSceneFinished
)

func (k Kind) String() string {
	switch k {
	case KindNewBlit:
		return "NewBlit"
	case KindSceneFinished:
		return "SceneFinished"
	default:
		return "Unknown"
	}
}

// Blit is the payload of a KindNewBlit event.
type Blit struct {
	Beat      int        // frame index in the scene's series
	Strengths [2]float64 // channel 1 and channel 2 strength
	OffsetMs  int64      // how long the marker has already been travelling
}

// Event is posted by a scene and drained by the presentation layer. Only the
// field matching Kind is meaningful.
type Event struct {
	Kind  Kind
	Scene string
	Blit  Blit
}

// NewBlit builds a KindNewBlit event.
func NewBlit(scene string, beat int, strengths [2]float64, offsetMs int64) Event {
	return Event{
		Kind:  KindNewBlit,
		Scene: scene,
		Blit:  Blit{Beat: beat, Strengths: strengths, OffsetMs: offsetMs},
	}
}

// SceneFinished builds a KindSceneFinished event.
func SceneFinished(scene string) Event {
	return Event{Kind: KindSceneFinished, Scene: scene}
}
