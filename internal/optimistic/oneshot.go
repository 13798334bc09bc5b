package optimistic

import (
	"context"
	"sync"
)

// OneShotState は一方向アクションの状態を表す。
type OneShotState int

const (
	// OneShotIdle は未実行（再試行可能）の状態。
	OneShotIdle OneShotState = iota
	// OneShotSubmitting はリクエスト進行中の状態。表示上は楽観的に「完了」として扱う。
	OneShotSubmitting
	// OneShotDone は完了済みの終端状態。
	OneShotDone
)

// String はOneShotStateの文字列表現を返す。
func (s OneShotState) String() string {
	switch s {
	case OneShotSubmitting:
		return "submitting"
	case OneShotDone:
		return "done"
	default:
		return "idle"
	}
}

// SubmitFunc は一方向アクションをサーバーへ反映するネットワーク呼び出し。
type SubmitFunc func(ctx context.Context) error

// OneShot は「実行済み」という可視の終端状態を持つ一方向アクション（応募等）。
// 成功で終端状態へ遷移し、失敗時はIdleへ戻って再試行可能のまま残る。
type OneShot struct {
	mu    sync.Mutex
	state OneShotState

	kind     string
	submit   SubmitFunc
	onChange func(state OneShotState)
	metrics  RollbackRecorder
}

// NewOneShot はOneShotを生成する。alreadyDoneはチェックAPIで再導出した現在値。
func NewOneShot(kind string, alreadyDone bool, submit SubmitFunc, onChange func(state OneShotState), metrics RollbackRecorder) *OneShot {
	state := OneShotIdle
	if alreadyDone {
		state = OneShotDone
	}
	return &OneShot{
		state:    state,
		kind:     kind,
		submit:   submit,
		onChange: onChange,
		metrics:  metrics,
	}
}

// State は現在の状態を返す。
func (o *OneShot) State() OneShotState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run はアクションを実行する。表示状態はネットワーク呼び出しの前に
// Submittingへ更新される（楽観的ステップ）。
// 完了済みの場合はErrAlreadyDone、進行中の場合はErrToggleInFlightを返す。
func (o *OneShot) Run(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case OneShotDone:
		o.mu.Unlock()
		return ErrAlreadyDone
	case OneShotSubmitting:
		o.mu.Unlock()
		return ErrToggleInFlight
	}
	o.state = OneShotSubmitting
	o.mu.Unlock()
	o.emit()

	err := o.submit(ctx)

	o.mu.Lock()
	if err != nil {
		// 失敗時はIdleへ戻し、再試行可能のまま残す
		o.state = OneShotIdle
	} else {
		o.state = OneShotDone
	}
	o.mu.Unlock()
	o.emit()

	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordOptimisticRollback(o.kind)
		}
		return err
	}
	return nil
}

// emit はonChangeコールバックへ現在状態を通知する。
func (o *OneShot) emit() {
	if o.onChange == nil {
		return
	}
	o.onChange(o.State())
}
