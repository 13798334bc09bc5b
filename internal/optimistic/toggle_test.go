package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recorderMock はRollbackRecorderのモック。
type recorderMock struct {
	mu    sync.Mutex
	kinds []string
}

func (r *recorderMock) RecordOptimisticRollback(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *recorderMock) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.kinds)
}

func TestToggle_Flip_Success_FlipsValue(t *testing.T) {
	toggle := NewToggle("bookmark", false,
		func(ctx context.Context, target bool) error { return nil },
		nil, nil)

	if err := toggle.Flip(context.Background()); err != nil {
		t.Fatalf("Flip returned error: %v", err)
	}
	if !toggle.Value() {
		t.Error("Value() = false after successful flip, want true")
	}
	if toggle.InFlight() {
		t.Error("InFlight() = true after flip completed")
	}
}

func TestToggle_Flip_UpdatesValueBeforeNetworkCall(t *testing.T) {
	var valueDuringCommit bool
	var toggle *Toggle
	toggle = NewToggle("bookmark", false,
		func(ctx context.Context, target bool) error {
			// ネットワーク呼び出し時点で表示値は既に反転済みであること
			valueDuringCommit = toggle.Value()
			return nil
		},
		nil, nil)

	if err := toggle.Flip(context.Background()); err != nil {
		t.Fatalf("Flip returned error: %v", err)
	}
	if !valueDuringCommit {
		t.Error("value was not optimistically flipped before the network call")
	}
}

func TestToggle_Flip_Failure_RollsBack(t *testing.T) {
	recorder := &recorderMock{}
	commitErr := errors.New("server error")
	toggle := NewToggle("bookmark", true,
		func(ctx context.Context, target bool) error { return commitErr },
		nil, recorder)

	err := toggle.Flip(context.Background())
	if !errors.Is(err, commitErr) {
		t.Fatalf("Flip error = %v, want %v", err, commitErr)
	}
	if !toggle.Value() {
		t.Error("Value() = false after failed flip, want rollback to true")
	}
	if recorder.count() != 1 {
		t.Errorf("rollback recorded %d times, want 1", recorder.count())
	}
}

func TestToggle_Flip_RejectsWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	toggle := NewToggle("bookmark", false,
		func(ctx context.Context, target bool) error {
			close(started)
			<-release
			return nil
		},
		nil, nil)

	done := make(chan error, 1)
	go func() { done <- toggle.Flip(context.Background()) }()
	<-started

	// 進行中の再トグルは拒否され、進行中のリクエストには影響しない
	if err := toggle.Flip(context.Background()); !errors.Is(err, ErrToggleInFlight) {
		t.Errorf("second Flip error = %v, want ErrToggleInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Flip returned error: %v", err)
	}
	if !toggle.Value() {
		t.Error("Value() = false, want true from the first flip")
	}
}

func TestToggle_Flip_AllowsNewFlipAfterCompletion(t *testing.T) {
	var targets []bool
	toggle := NewToggle("bookmark", false,
		func(ctx context.Context, target bool) error {
			targets = append(targets, target)
			return nil
		},
		nil, nil)

	if err := toggle.Flip(context.Background()); err != nil {
		t.Fatalf("first Flip returned error: %v", err)
	}
	if err := toggle.Flip(context.Background()); err != nil {
		t.Fatalf("second Flip returned error: %v", err)
	}

	if len(targets) != 2 || targets[0] != true || targets[1] != false {
		t.Errorf("commit targets = %v, want [true false]", targets)
	}
	if toggle.Value() {
		t.Error("Value() = true after two flips, want false")
	}
}

func TestToggle_Flip_NotifiesOnChange(t *testing.T) {
	type change struct{ value, inFlight bool }
	var changes []change
	toggle := NewToggle("bookmark", false,
		func(ctx context.Context, target bool) error { return nil },
		func(value, inFlight bool) {
			changes = append(changes, change{value, inFlight})
		},
		nil)

	if err := toggle.Flip(context.Background()); err != nil {
		t.Fatalf("Flip returned error: %v", err)
	}

	want := []change{{true, true}, {true, false}}
	if len(changes) != len(want) {
		t.Fatalf("onChange called %d times, want %d", len(changes), len(want))
	}
	for i, w := range want {
		if changes[i] != w {
			t.Errorf("change[%d] = %+v, want %+v", i, changes[i], w)
		}
	}
}
