// Package optimistic は楽観的更新の共有プロトコルを提供する。
// ブックマークのようなブール関係のトグルと、応募のような一方向の状態遷移の両方を、
// 「現在値の捕捉 → 予測値への即時更新 → リクエスト発行 → 失敗時の巻き戻し」
// という1つの再利用可能なパターンに集約する。
// サーバーが最終的な真実であり、楽観的な値は約束ではなく予測として扱う。
package optimistic

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrToggleInFlight は同じ対象へのトグルが進行中であることを示す。
	// 進行中の2つのリクエストが互いに逆の終端状態へ競走するのを防ぐため、
	// 進行中の再トグルはクライアント側で拒否する。
	ErrToggleInFlight = errors.New("toggle request already in flight")
	// ErrAlreadyDone は完了済みの一方向アクションを再実行しようとしたことを示す。
	ErrAlreadyDone = errors.New("action already completed")
)

// RollbackRecorder は巻き戻し発生のメトリクス記録に必要なインターフェース。
type RollbackRecorder interface {
	RecordOptimisticRollback(kind string)
}

// CommitFunc はトグルの目標値をサーバーへ反映するネットワーク呼び出し。
type CommitFunc func(ctx context.Context, target bool) error

// Toggle は(ユーザー, 対象)ペアのブール関係1つに対する楽観的トグル。
// 値は現在の画面表示の間だけ保持され、画面遷移後はチェックAPIで再導出される。
type Toggle struct {
	mu       sync.Mutex
	value    bool
	inFlight bool

	kind     string
	commit   CommitFunc
	onChange func(value, inFlight bool)
	metrics  RollbackRecorder
}

// NewToggle はToggleを生成する。initialはサーバーから再導出した現在値。
// onChangeは表示更新用のコールバックで、nilでもよい。metricsもnil可。
func NewToggle(kind string, initial bool, commit CommitFunc, onChange func(value, inFlight bool), metrics RollbackRecorder) *Toggle {
	return &Toggle{
		value:    initial,
		kind:     kind,
		commit:   commit,
		onChange: onChange,
		metrics:  metrics,
	}
}

// Value は現在の表示値を返す。リクエスト進行中は楽観的な予測値。
func (t *Toggle) Value() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// InFlight はリクエストが進行中かどうかを返す。
func (t *Toggle) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Flip は値を反転する。
//
//  1. 現在値v0を捕捉する
//  2. ネットワーク呼び出しの前に表示値を!v0へ更新する
//     （リクエスト中に古い表示が残らないようにする）
//  3. リクエストを発行する
//  4. 成功時は表示の追加更新なし
//  5. 失敗時は表示値をv0へ巻き戻してエラーを返す
//
// 進行中の再呼び出しはErrToggleInFlightで拒否する。
func (t *Toggle) Flip(ctx context.Context) error {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return ErrToggleInFlight
	}
	v0 := t.value
	target := !v0
	t.value = target
	t.inFlight = true
	t.mu.Unlock()
	t.emit()

	err := t.commit(ctx, target)

	t.mu.Lock()
	t.inFlight = false
	if err != nil {
		t.value = v0
	}
	t.mu.Unlock()
	t.emit()

	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordOptimisticRollback(t.kind)
		}
		return err
	}
	return nil
}

// emit はonChangeコールバックへ現在値を通知する。
func (t *Toggle) emit() {
	if t.onChange == nil {
		return
	}
	t.mu.Lock()
	value, inFlight := t.value, t.inFlight
	t.mu.Unlock()
	t.onChange(value, inFlight)
}
