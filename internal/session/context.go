// Package session はプロセス全体で唯一の「現在の本人情報」の置き場を提供する。
// トークンと本人情報への変更はすべてこのContextの遷移関数を経由する。
// 他のコンポーネントが直接クレデンシャルストアへ書き込んではならない。
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hitoshi/internlink/internal/model"
)

// State はセッションの状態を表す。
type State int

const (
	// StateUnauthenticated はトークンを保持していない状態。
	StateUnauthenticated State = iota
	// StateAuthenticating はクレデンシャル交換と本人情報取得が進行中の状態。
	StateAuthenticating
	// StateAuthenticated は本人情報を保持している状態。
	StateAuthenticated
)

// String はStateの文字列表現を返す。ログとメトリクスのラベルに使う。
func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

var (
	// ErrAuthInFlight は別のクレデンシャル交換が進行中であることを示す。
	// セッションごとの同時認証試行は常に1つまで。
	ErrAuthInFlight = errors.New("another authentication attempt is in flight")
	// ErrNotAuthenticated は未認証状態で認証が必要な操作を呼んだことを示す。
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Snapshot はある時点のセッション状態の不変コピー。
type Snapshot struct {
	State    State
	Identity *model.Identity
}

// IdentityService はセッション遷移に必要な本人情報操作のインターフェース。
// identity.Serviceの部分集合として定義する。
type IdentityService interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	FetchCurrentIdentity(ctx context.Context) (*model.Identity, error)
}

// CredentialStore はトークンと本人情報の永続ミラーのインターフェース。
// credstore.Storeの部分集合として定義する。ミラーは受動的であり、
// ロード時の内容は検証済みとは限らない。
type CredentialStore interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	ClearToken() error
	SaveIdentity(identity *model.Identity) error
	LoadIdentity() (*model.Identity, error)
	ClearIdentity() error
}

// TransitionRecorder はセッション遷移のメトリクス記録に必要なインターフェース。
type TransitionRecorder interface {
	RecordSessionTransition(to string)
}

// Listener はセッション状態の変化を受け取るコールバック。
type Listener func(Snapshot)

// Context はセッション状態機械。プロセス全体で1つだけ生成する。
type Context struct {
	identitySvc IdentityService
	store       CredentialStore
	logger      *slog.Logger
	metrics     TransitionRecorder

	mu       sync.Mutex
	state    State
	identity *model.Identity
	token    string

	// refreshDone が非nilの間はRefreshが進行中。後続の呼び出しは完了を待って
	// 結果を共有する（2回連続のRefreshが2回のフェッチにならない）。
	refreshDone chan struct{}
	refreshErr  error

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int
}

// New はContextを生成し、クレデンシャルストアから初期状態を同期的に復元する。
//
// キャッシュ済みの本人情報がトークンとともに存在する場合、バックエンドへの
// 再検証なしに楽観的にAuthenticatedで開始する。失効済みトークンは以後の
// 最初の認証エラー（HandleAuthFailure経由）で遅延検出される。
// トークンが無い場合はキャッシュ済み本人情報が残っていてもログアウト状態として扱い、
// 宙に浮いたキャッシュは削除する。
func New(identitySvc IdentityService, store CredentialStore, logger *slog.Logger, metrics TransitionRecorder) *Context {
	c := &Context{
		identitySvc: identitySvc,
		store:       store,
		logger:      logger,
		metrics:     metrics,
		state:       StateUnauthenticated,
		listeners:   make(map[int]Listener),
	}

	token, err := store.LoadToken()
	if err != nil {
		// ストレージが読めない場合はログアウト状態として振る舞う
		logger.Warn("failed to load token from credential store",
			slog.String("error", err.Error()),
		)
		return c
	}

	if token == "" {
		// トークン不在はログアウトと等価。残っている本人情報キャッシュは掃除する
		if err := store.ClearIdentity(); err != nil {
			logger.Warn("failed to clear dangling identity cache",
				slog.String("error", err.Error()),
			)
		}
		return c
	}

	identity, err := store.LoadIdentity()
	if err != nil || identity == nil {
		// トークンだけあっても本人情報なしではAuthenticatedにできない
		c.clearPersisted()
		return c
	}

	c.token = token
	c.identity = identity
	c.state = StateAuthenticated

	logger.Info("session restored from credential store",
		slog.Int64("user_id", identity.ID),
		slog.String("role", string(identity.Profile.Role)),
	)

	return c
}

// Snapshot は現在のセッション状態のコピーを返す。
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Identity: c.identity}
}

// Token は現在のアクセストークンを返す。未認証の場合は空文字列。
// api.ClientのTokenFuncとして登録される。
func (c *Context) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Subscribe はセッション状態の変化リスナーを登録し、解除関数を返す。
func (c *Context) Subscribe(l Listener) func() {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		c.listenerMu.Lock()
		defer c.listenerMu.Unlock()
		delete(c.listeners, id)
	}
}

// Login はクレデンシャル交換と本人情報取得を行い、Authenticatedへ遷移する。
//
// 遷移: Unauthenticated → Authenticating → Authenticated（成功）
//
//	→ 遷移前の状態（失敗。トークンは永続化しない）
//
// 失敗時は遷移前の状態へ戻る。未認証からの失敗は未認証のままで、
// 認証済みからの再ログインの失敗は既存のセッションを維持する。
// 別のログインが進行中の場合はErrAuthInFlightを返す。
// 失敗時のエラーメッセージはバックエンドのdetailをそのまま含む。
func (c *Context) Login(ctx context.Context, username, password string) error {
	c.mu.Lock()
	if c.state == StateAuthenticating {
		c.mu.Unlock()
		return ErrAuthInFlight
	}
	// 失敗時に復元するため、遷移前の状態を控えておく
	prevState := c.state
	prevToken := c.token
	prevIdentity := c.identity
	c.setStateLocked(StateAuthenticating)
	c.mu.Unlock()
	c.notify()

	// 1. クレデンシャル交換
	token, err := c.identitySvc.Authenticate(ctx, username, password)
	if err != nil {
		c.restore(prevState, prevToken, prevIdentity)
		return err
	}

	// 2. トークンをメモリ上に保持してから本人情報を取得する
	// （FetchCurrentIdentityのAuthorizationヘッダーにこのトークンが使われる）。
	// 永続化は本人情報の取得成功まで遅延する。
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	identity, err := c.identitySvc.FetchCurrentIdentity(ctx)
	if err != nil {
		c.restore(prevState, prevToken, prevIdentity)
		return err
	}

	// 3. トークンと本人情報をライトスルーで永続化
	if err := c.store.SaveToken(token); err != nil {
		c.logger.Warn("failed to persist token",
			slog.String("error", err.Error()),
		)
	}
	if err := c.store.SaveIdentity(identity); err != nil {
		c.logger.Warn("failed to persist identity",
			slog.String("error", err.Error()),
		)
	}

	c.mu.Lock()
	c.identity = identity
	c.setStateLocked(StateAuthenticated)
	c.mu.Unlock()
	c.notify()

	c.logger.Info("login succeeded",
		slog.Int64("user_id", identity.ID),
		slog.String("role", string(identity.Profile.Role)),
	)

	return nil
}

// restore はログイン失敗時にセッションを遷移前の状態へ戻す。
// トークン・本人情報・状態を必ずそろって戻し、
// 「Unauthenticatedなのにトークンを保持している」中間状態を作らない。
func (c *Context) restore(state State, token string, identity *model.Identity) {
	c.mu.Lock()
	c.token = token
	c.identity = identity
	c.setStateLocked(state)
	c.mu.Unlock()
	c.notify()
}

// Logout はセッションを破棄してUnauthenticatedへ遷移する。
// ネットワーク呼び出しを必要とせず同期的に完了し、決して失敗しない。
func (c *Context) Logout() {
	c.mu.Lock()
	c.token = ""
	c.identity = nil
	c.setStateLocked(StateUnauthenticated)
	c.mu.Unlock()

	c.clearPersisted()
	c.notify()

	c.logger.Info("logged out")
}

// Refresh は本人情報をバックエンドから取り直す。
//
// 遷移: Authenticated → Authenticated（成功、identityを全体置き換え）
//
//	→ Unauthenticated（失敗。永続化済みの古い値も削除する）
//
// 進行中のRefreshがある場合は新しいフェッチを発行せず、その結果を共有する。
func (c *Context) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if c.refreshDone != nil {
		done := c.refreshDone
		c.mu.Unlock()
		<-done
		return c.refreshErr
	}
	done := make(chan struct{})
	c.refreshDone = done
	c.mu.Unlock()

	err := c.doRefresh(ctx)

	c.mu.Lock()
	c.refreshErr = err
	c.refreshDone = nil
	c.mu.Unlock()
	close(done)

	return err
}

// doRefresh はRefreshの本体。single-flight管理の外側で実行される。
func (c *Context) doRefresh(ctx context.Context) error {
	identity, err := c.identitySvc.FetchCurrentIdentity(ctx)
	if err != nil {
		// トークンがサーバー側で無効化されている等。古いキャッシュを残さず降格する
		c.logger.Warn("identity refresh failed, demoting session",
			slog.String("error", err.Error()),
		)
		c.demote()
		return err
	}

	if err := c.store.SaveIdentity(identity); err != nil {
		c.logger.Warn("failed to persist refreshed identity",
			slog.String("error", err.Error()),
		)
	}

	c.mu.Lock()
	c.identity = identity
	c.setStateLocked(StateAuthenticated)
	c.mu.Unlock()
	c.notify()

	return nil
}

// HandleAuthFailure は認証済みAPI呼び出しが401/403で拒否されたときの降格処理。
// api.ClientのAuthFailureFuncとして登録され、全呼び出し箇所の認可失敗を
// 一箇所でセッション降格に変換する。冪等。
func (c *Context) HandleAuthFailure() {
	c.mu.Lock()
	alreadyOut := c.state == StateUnauthenticated && c.token == ""
	c.mu.Unlock()
	if alreadyOut {
		return
	}

	c.logger.Info("authorization failure observed, demoting session")
	c.demote()
}

// demote はトークンと本人情報をメモリ・永続化の両方から破棄する。
func (c *Context) demote() {
	c.mu.Lock()
	c.token = ""
	c.identity = nil
	c.setStateLocked(StateUnauthenticated)
	c.mu.Unlock()

	c.clearPersisted()
	c.notify()
}

// clearPersisted は永続化済みのトークンと本人情報を削除する。
// 失敗してもセッション遷移は妨げない（ミラーは信頼されないため）。
func (c *Context) clearPersisted() {
	if err := c.store.ClearToken(); err != nil {
		c.logger.Warn("failed to clear persisted token",
			slog.String("error", err.Error()),
		)
	}
	if err := c.store.ClearIdentity(); err != nil {
		c.logger.Warn("failed to clear persisted identity",
			slog.String("error", err.Error()),
		)
	}
}

// setStateLocked は状態を更新し遷移メトリクスを記録する。c.muを保持して呼ぶこと。
func (c *Context) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.metrics != nil {
		c.metrics.RecordSessionTransition(s.String())
	}
}

// notify は現在のスナップショットを全リスナーへ配る。ロックの外で呼ぶこと。
func (c *Context) notify() {
	snapshot := c.Snapshot()

	c.listenerMu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenerMu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
