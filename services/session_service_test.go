package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"poi-explorer/models"
)

// recordingAdapter logs every call in order and always accepts installs.
type recordingAdapter struct {
	mu    sync.Mutex
	calls []string
}

func (a *recordingAdapter) Clear(owner string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "clear "+owner)
}

func (a *recordingAdapter) Install(owner string, generation uint64, _ *models.DiscoveryResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, fmt.Sprintf("install %s %d", owner, generation))
	return nil
}

func (a *recordingAdapter) log() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.calls)
}

func TestSessionGenerationsIncrease(t *testing.T) {
	s := NewSessionService(&recordingAdapter{})

	first, _, cancel1 := s.Begin(context.Background(), "alice", "lake-nona-south", "parks")
	defer cancel1()
	second, _, cancel2 := s.Begin(context.Background(), "alice", "river-oaks", "grocery")
	defer cancel2()
	other, _, cancel3 := s.Begin(context.Background(), "bob", "shadyside", "parks")
	defer cancel3()

	if first.Generation != 1 || second.Generation != 2 {
		t.Errorf("generations = %d, %d; want 1, 2", first.Generation, second.Generation)
	}
	if other.Generation != 1 {
		t.Errorf("bob's generation = %d, want 1", other.Generation)
	}

	current, ok := s.Current("alice")
	if !ok || current != second {
		t.Errorf("Current = %+v, %v; want %+v", current, ok, second)
	}
}

func TestSessionBeginCancelsPrevious(t *testing.T) {
	s := NewSessionService(&recordingAdapter{})

	_, firstCtx, cancel1 := s.Begin(context.Background(), "alice", "lake-nona-south", "parks")
	defer cancel1()
	_, secondCtx, cancel2 := s.Begin(context.Background(), "alice", "lake-nona-south", "shopping")
	defer cancel2()

	select {
	case <-firstCtx.Done():
	default:
		t.Fatal("previous session context still live")
	}
	if secondCtx.Err() != nil {
		t.Fatalf("new session context already done: %v", secondCtx.Err())
	}
}

func TestSessionCommitRejectsStale(t *testing.T) {
	adapter := &recordingAdapter{}
	s := NewSessionService(adapter)

	stale, _, cancel1 := s.Begin(context.Background(), "alice", "lake-nona-south", "parks")
	defer cancel1()
	fresh, _, cancel2 := s.Begin(context.Background(), "alice", "lake-nona-south", "entertainment")
	defer cancel2()

	if err := s.Commit(stale, &models.DiscoveryResult{}); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("stale commit err = %v, want ErrStaleSession", err)
	}
	if len(adapter.log()) != 0 {
		t.Fatalf("stale commit reached the adapter: %v", adapter.log())
	}

	if err := s.Commit(fresh, &models.DiscoveryResult{}); err != nil {
		t.Fatalf("fresh commit: %v", err)
	}
	if got, want := adapter.log(), []string{"clear alice", "install alice 2"}; !slices.Equal(got, want) {
		t.Errorf("adapter calls = %v, want %v", got, want)
	}
}

func TestSessionCommitUnknownOwner(t *testing.T) {
	s := NewSessionService(&recordingAdapter{})
	err := s.Commit(models.DiscoverySession{Owner: "ghost", Generation: 1}, &models.DiscoveryResult{})
	if !errors.Is(err, ErrStaleSession) {
		t.Fatalf("err = %v, want ErrStaleSession", err)
	}
}
