package optimistic

import (
	"context"
	"errors"
	"testing"
)

func TestOneShot_Run_Success_TransitionsToDone(t *testing.T) {
	oneShot := NewOneShot("apply", false,
		func(ctx context.Context) error { return nil },
		nil, nil)

	if err := oneShot.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := oneShot.State(); got != OneShotDone {
		t.Errorf("State() = %v, want %v", got, OneShotDone)
	}
}

func TestOneShot_Run_SubmittingBeforeNetworkCall(t *testing.T) {
	var stateDuringSubmit OneShotState
	var oneShot *OneShot
	oneShot = NewOneShot("apply", false,
		func(ctx context.Context) error {
			stateDuringSubmit = oneShot.State()
			return nil
		},
		nil, nil)

	if err := oneShot.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if stateDuringSubmit != OneShotSubmitting {
		t.Errorf("state during submit = %v, want %v", stateDuringSubmit, OneShotSubmitting)
	}
}

func TestOneShot_Run_Failure_ReturnsToIdleAndRetryable(t *testing.T) {
	recorder := &recorderMock{}
	calls := 0
	oneShot := NewOneShot("apply", false,
		func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return errors.New("server error")
			}
			return nil
		},
		nil, recorder)

	if err := oneShot.Run(context.Background()); err == nil {
		t.Fatal("first Run succeeded, want error")
	}
	if got := oneShot.State(); got != OneShotIdle {
		t.Errorf("State() after failure = %v, want %v", got, OneShotIdle)
	}
	if recorder.count() != 1 {
		t.Errorf("rollback recorded %d times, want 1", recorder.count())
	}

	// 失敗後は再試行できる
	if err := oneShot.Run(context.Background()); err != nil {
		t.Fatalf("retry Run returned error: %v", err)
	}
	if got := oneShot.State(); got != OneShotDone {
		t.Errorf("State() after retry = %v, want %v", got, OneShotDone)
	}
}

func TestOneShot_Run_AlreadyDone_Rejected(t *testing.T) {
	calls := 0
	oneShot := NewOneShot("apply", true,
		func(ctx context.Context) error {
			calls++
			return nil
		},
		nil, nil)

	if err := oneShot.Run(context.Background()); !errors.Is(err, ErrAlreadyDone) {
		t.Errorf("Run error = %v, want ErrAlreadyDone", err)
	}
	if calls != 0 {
		t.Errorf("submit called %d times for a completed action, want 0", calls)
	}
}

func TestOneShot_Run_RejectsWhileSubmitting(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	oneShot := NewOneShot("apply", false,
		func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		},
		nil, nil)

	done := make(chan error, 1)
	go func() { done <- oneShot.Run(context.Background()) }()
	<-started

	if err := oneShot.Run(context.Background()); !errors.Is(err, ErrToggleInFlight) {
		t.Errorf("second Run error = %v, want ErrToggleInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
}

func TestOneShotState_String(t *testing.T) {
	tests := []struct {
		state OneShotState
		want  string
	}{
		{OneShotIdle, "idle"},
		{OneShotSubmitting, "submitting"},
		{OneShotDone, "done"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("OneShotState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
