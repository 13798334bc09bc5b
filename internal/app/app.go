// Package app はCLIアプリケーションの初期化・配線・サブコマンド実行を行う。
package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/internlink/internal/api"
	"github.com/hitoshi/internlink/internal/config"
	"github.com/hitoshi/internlink/internal/credstore"
	"github.com/hitoshi/internlink/internal/guard"
	"github.com/hitoshi/internlink/internal/identity"
	"github.com/hitoshi/internlink/internal/logger"
	"github.com/hitoshi/internlink/internal/metrics"
	"github.com/hitoshi/internlink/internal/model"
	"github.com/hitoshi/internlink/internal/security"
	"github.com/hitoshi/internlink/internal/session"
	"github.com/hitoshi/internlink/internal/ui"
)

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. .envファイルの読み込み（存在しない場合は無視する）
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env file")
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定されたログレベルで再セットアップする
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// application はCLIの全依存関係を保持する。
type application struct {
	cfg       *config.Config
	store     *credstore.Store
	client    *api.Client
	identity  *identity.Service
	sess      *session.Context
	sanitizer security.ContentSanitizerService
	assets    security.AssetFetcherService
	renderer  *ui.Renderer
	collector *metrics.Collector
	out       io.Writer
}

// newApplication は全コンポーネントを配線したアプリケーションを生成する。
// outには画面描画の出力先を渡す（ログとは分離する）。
func newApplication(cfg *config.Config, out io.Writer) (*application, error) {
	// 1. クレデンシャルストアを開く（マイグレーション込み）
	store, err := credstore.Open(cfg.CredentialDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	// 2. メトリクスとAPIクライアント
	collector := metrics.NewCollector()
	client := api.NewClient(
		&http.Client{Timeout: cfg.RequestTimeout},
		api.Config{
			BaseURL:         cfg.APIBaseURL,
			RateLimitPerMin: cfg.RateLimitPerMin,
			RateLimitBurst:  cfg.RateLimitBurst,
		},
		slog.Default(), collector,
	)

	// 3. 本人情報サービスとセッション
	identitySvc := identity.NewService(client, slog.Default())
	sess := session.New(identitySvc, store, slog.Default(), collector)

	// 4. APIクライアントへセッションを接続する。
	// トークンの付与とグローバルな401/403時の降格はここで一元化され、
	// 以降の画面は認証失敗を個別にハンドリングしない。
	client.SetTokenFunc(sess.Token)
	client.SetAuthFailureFunc(sess.HandleAuthFailure)

	// 5. 表示系
	sanitizer := security.NewContentSanitizer()
	assets := security.NewAssetFetcher(cfg.AssetCacheDir, cfg.AssetFetchTimeout, cfg.AssetMaxSize)
	renderer := ui.NewRenderer(out, sanitizer)

	return &application{
		cfg:       cfg,
		store:     store,
		client:    client,
		identity:  identitySvc,
		sess:      sess,
		sanitizer: sanitizer,
		assets:    assets,
		renderer:  renderer,
		collector: collector,
		out:       out,
	}, nil
}

// Close は保持しているリソースを解放する。
func (a *application) Close() error {
	return a.store.Close()
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応する画面を実行する。
// argsにはos.Args[1:]を渡す。ログはwへ、画面描画は標準出力へ書き込む。
// エラーの報告はRunが一度だけ行う。呼び出し側は戻り値で終了コードを
// 決めるだけでよく、重ねて表示してはならない。
func Run(w io.Writer, args []string) error {
	cmd, rest := ParseCommand(args)

	cfg, err := Init(w)
	if err != nil {
		slog.Error("initialization failed", slog.String("error", err.Error()))
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Debug("starting command",
		slog.String("command", string(cmd)),
		slog.String("base_url", cfg.APIBaseURL),
	)

	app, err := newApplication(cfg, os.Stdout)
	if err != nil {
		slog.Error("startup failed", slog.String("error", err.Error()))
		return err
	}
	defer app.Close()

	// メトリクスのデバッグ用リスナー（設定された場合のみ）
	if cfg.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, app.collector.Handler()); err != nil {
				slog.Error("metrics listener error", slog.String("error", err.Error()))
			}
		}()
	}

	// Ctrl-Cで進行中のリクエストをキャンセルできるようにする
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.execute(ctx, cmd, rest)
}

// execute はサブコマンドを実行し、失敗したら画面へ一度だけエラーを描画する。
func (a *application) execute(ctx context.Context, cmd Command, args []string) error {
	err := a.dispatch(ctx, cmd, args)
	if err != nil {
		a.renderer.Error(err)
	}
	return err
}

// dispatch はサブコマンドを対応する画面へ振り分ける。
func (a *application) dispatch(ctx context.Context, cmd Command, args []string) error {
	switch cmd {
	case CommandLogin:
		return a.runLogin(ctx, args)
	case CommandLogout:
		return a.runLogout(ctx)
	case CommandRegister:
		return a.runRegister(ctx, args)
	case CommandMe:
		return a.runMe(ctx, args)
	case CommandProfile:
		return a.runProfile(ctx, args)
	case CommandPasswd:
		return a.runPasswd(ctx, args)
	case CommandForgotPassword:
		return a.runForgotPassword(ctx, args)
	case CommandResetPassword:
		return a.runResetPassword(ctx, args)
	case CommandInternship:
		return a.runInternship(ctx, args)
	case CommandPost:
		return a.runPost(ctx, args)
	case CommandEdit:
		return a.runEdit(ctx, args)
	case CommandDelete:
		return a.runDelete(ctx, args)
	case CommandMine:
		return a.runMine(ctx)
	case CommandApply:
		return a.runApply(ctx, args)
	case CommandApplications:
		return a.runApplications(ctx)
	case CommandApplicants:
		return a.runApplicants(ctx, args)
	case CommandDecide:
		return a.runDecide(ctx, args)
	case CommandBookmark:
		return a.runBookmark(ctx, args)
	case CommandBookmarks:
		return a.runBookmarks(ctx)
	case CommandActivity:
		return a.runActivity(ctx, args)
	default:
		return a.runInternships(ctx, args)
	}
}

// requireRole は保護された画面の遷移判定を行う。
// 判定結果が許可以外の場合、画面相当の誘導メッセージを表示してエラーを返す。
func (a *application) requireRole(roles ...model.Role) error {
	switch guard.Decide(a.sess.Snapshot(), roles) {
	case guard.Allow:
		return nil
	case guard.RedirectToLogin:
		a.renderer.Message("ログインが必要です。`internlink login` を実行してください。")
		return model.NewUnauthenticatedError()
	default:
		a.renderer.Message("この操作を行う権限がありません。")
		return model.NewForbiddenError()
	}
}

func (a *application) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "ユーザー名")
	password := fs.String("password", "", "パスワード")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("usage: internlink login -username <name> -password <password>")
	}

	if err := a.sess.Login(ctx, *username, *password); err != nil {
		return err
	}

	snapshot := a.sess.Snapshot()
	a.renderer.Message("ログインしました: %s", snapshot.Identity.DisplayName())
	return nil
}

func (a *application) runLogout(ctx context.Context) error {
	// サーバー側のトークン無効化はベストエフォート。
	// クライアント側のログアウトはこの成否に関わらず完了する。
	if a.sess.Snapshot().State == session.StateAuthenticated {
		if err := a.client.ServerLogout(ctx); err != nil {
			slog.Warn("server-side logout failed", slog.String("error", err.Error()))
		}
	}

	a.sess.Logout()
	a.renderer.Message("ログアウトしました。")
	return nil
}

func (a *application) runRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "ユーザー名")
	email := fs.String("email", "", "メールアドレス")
	password := fs.String("password", "", "パスワード")
	role := fs.String("role", string(model.RoleStudent), "役割 (student | recruiter)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !model.Role(*role).Valid() {
		return fmt.Errorf("invalid role %q: must be student or recruiter", *role)
	}

	err := a.client.Register(ctx, api.RegisterRequest{
		Username: *username,
		Email:    *email,
		Password: *password,
		Role:     model.Role(*role),
	})
	if err != nil {
		return err
	}

	a.renderer.Message("アカウントを登録しました。`internlink login` でログインしてください。")
	return nil
}

func (a *application) runMe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("me", flag.ContinueOnError)
	downloadPicture := fs.Bool("download-picture", false, "プロフィール画像をローカルへ保存する")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireRole(); err != nil {
		return err
	}

	// 表示内容はキャッシュではなく常にサーバーの最新値
	if err := a.sess.Refresh(ctx); err != nil {
		return err
	}

	snapshot := a.sess.Snapshot()
	a.renderer.Identity(snapshot.Identity)

	if *downloadPicture && snapshot.Identity.Profile.ProfilePicture != nil {
		// バックエンドは相対メディアパスを返すことがあるため絶対URLへ解決する
		pictureURL := *snapshot.Identity.Profile.ProfilePicture
		if strings.HasPrefix(pictureURL, "/") {
			pictureURL = a.cfg.APIBaseURL + pictureURL
		}
		path, err := a.assets.FetchToFile(pictureURL)
		if err != nil {
			return fmt.Errorf("failed to download profile picture: %w", err)
		}
		a.renderer.Message("プロフィール画像を保存しました: %s", path)
	}
	return nil
}

func (a *application) runProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	firstName := fs.String("first-name", "", "名")
	lastName := fs.String("last-name", "", "姓")
	bio := fs.String("bio", "", "自己紹介")
	location := fs.String("location", "", "所在地")
	picturePath := fs.String("picture", "", "プロフィール画像のファイルパス")
	newUsername := fs.String("new-username", "", "ユーザー名の変更")
	newEmail := fs.String("new-email", "", "メールアドレスの変更")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireRole(); err != nil {
		return err
	}

	// 1. アカウント情報（username / email）の更新
	if *newUsername != "" || *newEmail != "" {
		update := api.AccountUpdate{}
		if *newUsername != "" {
			update.Username = newUsername
		}
		if *newEmail != "" {
			update.Email = newEmail
		}
		if _, err := a.identity.UpdateAccountFields(ctx, update); err != nil {
			return err
		}
	}

	// 2. プロフィールの更新（指定されたフィールドのみ送信する）
	update := api.ProfileUpdate{}
	changed := false
	for _, f := range []struct {
		value  *string
		target **string
	}{
		{firstName, &update.FirstName},
		{lastName, &update.LastName},
		{bio, &update.Bio},
		{location, &update.Location},
	} {
		if *f.value != "" {
			*f.target = f.value
			changed = true
		}
	}

	var picture *identity.ProfilePicture
	if *picturePath != "" {
		file, err := os.Open(*picturePath)
		if err != nil {
			return fmt.Errorf("failed to open picture file: %w", err)
		}
		defer file.Close()
		picture = &identity.ProfilePicture{
			FileName: filepath.Base(*picturePath),
			Reader:   file,
		}
		changed = true
	}

	if !changed && *newUsername == "" && *newEmail == "" {
		return fmt.Errorf("no fields to update: see `internlink profile -h`")
	}

	if changed {
		if _, err := a.identity.UpdateProfileFields(ctx, update, picture); err != nil {
			return err
		}
	}

	// 3. 更新後の本人情報で表示とキャッシュを揃える
	if err := a.sess.Refresh(ctx); err != nil {
		return err
	}
	a.renderer.Identity(a.sess.Snapshot().Identity)
	return nil
}

func (a *application) runPasswd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	oldPassword := fs.String("old", "", "現在のパスワード")
	newPassword := fs.String("new", "", "新しいパスワード")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireRole(); err != nil {
		return err
	}
	if *oldPassword == "" || *newPassword == "" {
		return fmt.Errorf("usage: internlink passwd -old <password> -new <password>")
	}

	if err := a.client.ChangePassword(ctx, *oldPassword, *newPassword); err != nil {
		return err
	}
	a.renderer.Message("パスワードを変更しました。")
	return nil
}

func (a *application) runForgotPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forgot-password", flag.ContinueOnError)
	email := fs.String("email", "", "登録済みメールアドレス")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("usage: internlink forgot-password -email <address>")
	}

	message, err := a.client.ForgotPassword(ctx, *email)
	if err != nil {
		return err
	}
	a.renderer.Message("%s", message)
	return nil
}

func (a *application) runResetPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	uid := fs.String("uid", "", "リセットメールに含まれるユーザーID")
	token := fs.String("token", "", "リセットメールに含まれるトークン")
	newPassword := fs.String("new", "", "新しいパスワード")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uid == "" || *token == "" || *newPassword == "" {
		return fmt.Errorf("usage: internlink reset-password -uid <uid> -token <token> -new <password>")
	}

	message, err := a.client.ResetPassword(ctx, *uid, *token, *newPassword)
	if err != nil {
		return err
	}
	a.renderer.Message("%s", message)
	return nil
}

func (a *application) runInternships(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("internships", flag.ContinueOnError)
	search := fs.String("search", "", "キーワード検索")
	location := fs.String("location", "", "勤務地の部分一致")
	internshipType := fs.String("type", "", "形態の完全一致 (remote | onsite | hybrid)")
	stipendMin := fs.Int64("stipend-min", 0, "給与の下限")
	stipendMax := fs.Int64("stipend-max", 0, "給与の上限")
	ordering := fs.String("ordering", "", "並び順 (posted_on | stipend、先頭に-で降順)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := api.InternshipFilter{
		Search:   *search,
		Location: *location,
		Type:     *internshipType,
		Ordering: *ordering,
	}
	if *stipendMin > 0 {
		filter.StipendMin = stipendMin
	}
	if *stipendMax > 0 {
		filter.StipendMax = stipendMax
	}

	internships, err := a.client.ListInternships(ctx, filter)
	if err != nil {
		return err
	}
	a.renderer.InternshipList(internships)
	return nil
}

func (a *application) runInternship(ctx context.Context, args []string) error {
	id, err := parseID(args, "internship")
	if err != nil {
		return err
	}

	view := ui.NewDetailView(a.client, a.sess, a.renderer, slog.Default(), a.collector)
	return view.Load(ctx, id)
}

// parseDraft は求人投稿・編集フラグを解析する。
func parseDraft(name string, args []string) (api.InternshipDraft, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	title := fs.String("title", "", "タイトル")
	description := fs.String("description", "", "説明（HTMLは保存時にサニタイズされて表示される）")
	company := fs.String("company", "", "会社名")
	location := fs.String("location", "", "勤務地")
	internshipType := fs.String("type", "remote", "形態 (remote | onsite | hybrid)")
	stipend := fs.Int64("stipend", 0, "給与")
	applyLink := fs.String("apply-link", "", "外部応募リンク")
	expiryDate := fs.String("expiry-date", "", "受付終了日 (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return api.InternshipDraft{}, nil, err
	}

	draft := api.InternshipDraft{
		Title:          *title,
		Description:    *description,
		Company:        *company,
		Location:       *location,
		InternshipType: *internshipType,
	}
	if *stipend > 0 {
		draft.Stipend = stipend
	}
	if *applyLink != "" {
		draft.ApplyLink = applyLink
	}
	if *expiryDate != "" {
		if _, err := time.Parse("2006-01-02", *expiryDate); err != nil {
			return api.InternshipDraft{}, nil, fmt.Errorf("invalid expiry date %q: use YYYY-MM-DD", *expiryDate)
		}
		draft.ExpiryDate = expiryDate
	}
	return draft, fs.Args(), nil
}

func (a *application) runPost(ctx context.Context, args []string) error {
	if err := a.requireRole(model.RoleRecruiter); err != nil {
		return err
	}

	draft, _, err := parseDraft("post", args)
	if err != nil {
		return err
	}

	created, err := a.client.CreateInternship(ctx, draft)
	if err != nil {
		return err
	}
	a.renderer.Message("求人を投稿しました (ID: %d)", created.ID)
	return nil
}

func (a *application) runEdit(ctx context.Context, args []string) error {
	if err := a.requireRole(model.RoleRecruiter); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: internlink edit <id> [flags]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid internship id %q", args[0])
	}

	draft, _, err := parseDraft("edit", args[1:])
	if err != nil {
		return err
	}

	updated, err := a.client.UpdateInternship(ctx, id, draft)
	if err != nil {
		return err
	}
	a.renderer.Message("求人を更新しました (ID: %d)", updated.ID)
	return nil
}

func (a *application) runDelete(ctx context.Context, args []string) error {
	if err := a.requireRole(model.RoleRecruiter); err != nil {
		return err
	}
	id, err := parseID(args, "delete")
	if err != nil {
		return err
	}

	if err := a.client.DeleteInternship(ctx, id); err != nil {
		return err
	}
	a.renderer.Message("求人を削除しました (ID: %d)", id)
	return nil
}

func (a *application) runMine(ctx context.Context) error {
	if err := a.requireRole(model.RoleRecruiter); err != nil {
		return err
	}

	internships, err := a.client.MyInternships(ctx)
	if err != nil {
		return err
	}
	a.renderer.InternshipList(internships)
	return nil
}

func (a *application) runApply(ctx context.Context, args []string) error {
	id, err := parseID(args, "apply")
	if err != nil {
		return err
	}

	// 詳細画面と同じ経路で応募する（役割と自分の求人のチェックは画面側で行う）
	view := ui.NewDetailView(a.client, a.sess, a.renderer, slog.Default(), a.collector)
	if err := view.Load(ctx, id); err != nil {
		return err
	}
	return view.SubmitApplication(ctx)
}

func (a *application) runApplications(ctx context.Context) error {
	if err := a.requireRole(model.RoleStudent); err != nil {
		return err
	}

	applications, err := a.client.MyApplications(ctx)
	if err != nil {
		return err
	}
	a.renderer.Applications(applications)
	return nil
}

func (a *application) runApplicants(ctx context.Context, args []string) error {
	if err := a.requireRole(model.RoleRecruiter); err != nil {
		return err
	}
	id, err := parseID(args, "applicants")
	if err != nil {
		return err
	}

	applicants, err := a.client.Applicants(ctx, id)
	if err != nil {
		return err
	}
	a.renderer.Applications(applicants)
	return nil
}

func (a *application) runDecide(ctx context.Context, args []string) error {
	if err := a.requireRole(model.RoleRecruiter); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: internlink decide <application-id> -status <accepted|rejected>")
	}
	applicationID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid application id %q", args[0])
	}

	fs := flag.NewFlagSet("decide", flag.ContinueOnError)
	status := fs.String("status", "", "選考結果 (accepted | rejected | pending)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	switch model.ApplicationStatus(*status) {
	case model.ApplicationAccepted, model.ApplicationRejected, model.ApplicationPending:
	default:
		return fmt.Errorf("invalid status %q: must be accepted, rejected or pending", *status)
	}

	if err := a.client.UpdateApplicationStatus(ctx, applicationID, model.ApplicationStatus(*status)); err != nil {
		return err
	}
	a.renderer.Message("応募の選考状態を更新しました (ID: %d, status: %s)", applicationID, *status)
	return nil
}

func (a *application) runBookmark(ctx context.Context, args []string) error {
	if err := a.requireRole(); err != nil {
		return err
	}
	id, err := parseID(args, "bookmark")
	if err != nil {
		return err
	}

	// 詳細画面と同じ楽観的トグルで反転する。詳細自体は表示しない
	view := ui.NewDetailView(a.client, a.sess, a.renderer, slog.Default(), a.collector)
	if err := view.LoadState(ctx, id); err != nil {
		return err
	}
	if err := view.ToggleBookmark(ctx); err != nil {
		return err
	}

	if view.Bookmarked() {
		a.renderer.Message("ブックマークしました (ID: %d)", id)
	} else {
		a.renderer.Message("ブックマークを解除しました (ID: %d)", id)
	}
	return nil
}

func (a *application) runBookmarks(ctx context.Context) error {
	if err := a.requireRole(); err != nil {
		return err
	}

	bookmarks, err := a.client.ListBookmarks(ctx)
	if err != nil {
		return err
	}
	a.renderer.Bookmarks(bookmarks)
	return nil
}

func (a *application) runActivity(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	action := fs.String("action", "", "アクション種別で絞り込む")
	startDate := fs.String("start", "", "開始日 (YYYY-MM-DD)")
	endDate := fs.String("end", "", "終了日 (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireRole(); err != nil {
		return err
	}

	filter := api.ActivityFilter{Action: model.ActivityAction(*action)}
	if *startDate != "" {
		t, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			return fmt.Errorf("invalid start date %q: use YYYY-MM-DD", *startDate)
		}
		filter.StartDate = &t
	}
	if *endDate != "" {
		t, err := time.Parse("2006-01-02", *endDate)
		if err != nil {
			return fmt.Errorf("invalid end date %q: use YYYY-MM-DD", *endDate)
		}
		filter.EndDate = &t
	}

	logs, err := a.client.ActivityLogs(ctx, filter)
	if err != nil {
		return err
	}
	a.renderer.ActivityLogs(logs)
	return nil
}

// parseID は先頭の位置引数を求人IDとして解析する。
func parseID(args []string, command string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("usage: internlink %s <id>", command)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid internship id %q", args[0])
	}
	return id, nil
}
