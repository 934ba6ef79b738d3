package event

import (
	"sync"
	"testing"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Push(NewBlit("rhythm", i, [2]float64{1, 2}, int64(i*10)))
	}
	q.Push(SceneFinished("rhythm"))
	if q.Len() != 6 {
		t.Fatalf("len = %d, want 6", q.Len())
	}

	got := q.Drain()
	if len(got) != 6 {
		t.Fatalf("drained %d events, want 6", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].Kind != KindNewBlit || got[i].Blit.Beat != i {
			t.Fatalf("event %d = %+v, want blit for beat %d", i, got[i], i)
		}
	}
	if got[5].Kind != KindSceneFinished || got[5].Scene != "rhythm" {
		t.Fatalf("last event = %+v, want SceneFinished", got[5])
	}
}

func TestQueueDrainEmpties(t *testing.T) {
	q := NewQueue()
	if got := q.Drain(); got != nil {
		t.Fatalf("empty drain = %v, want nil", got)
	}
	q.Push(SceneFinished("a"))
	q.Drain()
	if q.Len() != 0 {
		t.Fatalf("queue not empty after drain")
	}
	if got := q.Drain(); got != nil {
		t.Fatalf("second drain = %v, want nil", got)
	}
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(NewBlit("s", i, [2]float64{}, 0))
			}
		}()
	}
	wg.Wait()
	if got := len(q.Drain()); got != 400 {
		t.Fatalf("drained %d, want 400", got)
	}
}

func TestKindString(t *testing.T) {
	if KindNewBlit.String() != "NewBlit" || KindSceneFinished.String() != "SceneFinished" {
		t.Fatalf("unexpected kind names")
	}
	if Kind(0).String() != "Unknown" {
		t.Fatalf("zero kind should be Unknown")
	}
}
