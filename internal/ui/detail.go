package ui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/internlink/internal/guard"
	"github.com/hitoshi/internlink/internal/model"
	"github.com/hitoshi/internlink/internal/optimistic"
	"github.com/hitoshi/internlink/internal/session"
)

// DetailTransport は求人詳細画面に必要なAPI呼び出しのインターフェース。
// api.Clientの部分集合として定義する。
type DetailTransport interface {
	GetInternship(ctx context.Context, id int64) (*model.Internship, error)
	CheckBookmarked(ctx context.Context, internshipID int64) (bool, error)
	CheckApplied(ctx context.Context, internshipID int64) (bool, error)
	AddBookmark(ctx context.Context, internshipID int64) error
	RemoveBookmark(ctx context.Context, internshipID int64) error
	Apply(ctx context.Context, internshipID int64) error
}

// DetailView は求人詳細画面の状態を保持する。
//
// ブックマーク・応募状態はサーバーから再導出した値を初期値として、
// 楽観的更新パターン（optimistic.Toggle / optimistic.OneShot）で管理する。
// 別の求人への遷移後に到着した古いフェッチ結果は、要求中の求人IDと
// 突き合わせて破棄する（リクエストのキャンセルは行わない）。
type DetailView struct {
	transport DetailTransport
	sess      *session.Context
	renderer  *Renderer
	logger    *slog.Logger
	metrics   optimistic.RollbackRecorder

	mu         sync.Mutex
	currentID  int64
	internship *model.Internship
	bookmark   *optimistic.Toggle
	apply      *optimistic.OneShot
}

// NewDetailView はDetailViewを生成する。metricsはnil可。
func NewDetailView(transport DetailTransport, sess *session.Context, renderer *Renderer, logger *slog.Logger, metrics optimistic.RollbackRecorder) *DetailView {
	return &DetailView{
		transport: transport,
		sess:      sess,
		renderer:  renderer,
		logger:    logger,
		metrics:   metrics,
	}
}

// Load は求人詳細と派生状態（ブックマーク済み・応募済み）を取得して表示する。
// 認証済みの場合のみチェックAPIを呼ぶ（未認証では詳細のみ表示）。
func (v *DetailView) Load(ctx context.Context, id int64) error {
	current, err := v.load(ctx, id)
	if err != nil || !current {
		return err
	}

	v.mu.Lock()
	internship := v.internship
	bookmarked := v.bookmark.Value()
	applied := v.apply.State() != optimistic.OneShotIdle
	v.mu.Unlock()

	v.renderer.InternshipDetail(internship, bookmarked, applied)
	return nil
}

// LoadState はLoadと同じ取得を行うが、画面には何も描画しない。
// bookmarkのようなトグル系コマンドが詳細表示なしに状態だけ必要なときに使う。
func (v *DetailView) LoadState(ctx context.Context, id int64) error {
	_, err := v.load(ctx, id)
	return err
}

// load は取得の本体。結果が現在表示中の求人に反映されたかどうかを返す。
func (v *DetailView) load(ctx context.Context, id int64) (bool, error) {
	v.mu.Lock()
	v.currentID = id
	v.mu.Unlock()

	internship, err := v.transport.GetInternship(ctx, id)
	if err != nil {
		return false, err
	}

	var bookmarked, applied bool
	snapshot := v.sess.Snapshot()
	if snapshot.State == session.StateAuthenticated {
		// 派生状態は永続化せず、表示のたびにサーバーから再導出する
		bookmarked, err = v.transport.CheckBookmarked(ctx, id)
		if err != nil {
			return false, err
		}
		applied, err = v.transport.CheckApplied(ctx, id)
		if err != nil {
			return false, err
		}
	}

	if !v.applyResult(id, internship, bookmarked, applied) {
		// 到着前に別の求人へ遷移済み。結果は破棄し、表示も行わない
		v.logger.Debug("stale detail response discarded",
			slog.Int64("internship_id", id),
		)
		return false, nil
	}
	return true, nil
}

// applyResult はフェッチ結果を画面状態へ反映する。
// 要求中の求人IDと一致しない（遷移済みの）結果はfalseを返して破棄する。
func (v *DetailView) applyResult(id int64, internship *model.Internship, bookmarked, applied bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.currentID != id {
		return false
	}

	v.internship = internship
	v.bookmark = optimistic.NewToggle("bookmark", bookmarked,
		func(ctx context.Context, target bool) error {
			if target {
				return v.transport.AddBookmark(ctx, id)
			}
			return v.transport.RemoveBookmark(ctx, id)
		},
		nil, v.metrics)
	v.apply = optimistic.NewOneShot("apply", applied,
		func(ctx context.Context) error {
			return v.transport.Apply(ctx, id)
		},
		nil, v.metrics)

	return true
}

// Bookmarked は現在の（楽観的な）ブックマーク表示値を返す。
func (v *DetailView) Bookmarked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bookmark != nil && v.bookmark.Value()
}

// Applied は現在の（楽観的な）応募表示値を返す。
// 進行中（Submitting）も表示上は応募済みとして扱う。
func (v *DetailView) Applied() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.apply != nil && v.apply.State() != optimistic.OneShotIdle
}

// ToggleBookmark はブックマークを楽観的に反転する。
// 失敗時は表示値が元へ巻き戻り、エラーメッセージが表示される。
func (v *DetailView) ToggleBookmark(ctx context.Context) error {
	v.mu.Lock()
	toggle := v.bookmark
	v.mu.Unlock()

	if toggle == nil {
		return session.ErrNotAuthenticated
	}

	if err := toggle.Flip(ctx); err != nil {
		v.renderer.Error(err)
		return err
	}
	return nil
}

// SubmitApplication は応募を実行する。学生のみ。自分の求人には応募できない。
func (v *DetailView) SubmitApplication(ctx context.Context) error {
	snapshot := v.sess.Snapshot()
	if d := guard.Decide(snapshot, []model.Role{model.RoleStudent}); d != guard.Allow {
		v.renderer.Message("応募は学生アカウントでログインしている場合のみ可能です。")
		return session.ErrNotAuthenticated
	}

	v.mu.Lock()
	oneShot := v.apply
	internship := v.internship
	v.mu.Unlock()

	if oneShot == nil || internship == nil {
		return session.ErrNotAuthenticated
	}
	if snapshot.Identity != nil && snapshot.Identity.ID == internship.RecruiterID {
		v.renderer.Message("自分が投稿した求人には応募できません。")
		return optimistic.ErrAlreadyDone
	}

	if err := oneShot.Run(ctx); err != nil {
		v.renderer.Error(err)
		return err
	}

	v.renderer.Message("応募を送信しました。")
	return nil
}
