// Package api はInternLinkバックエンドのREST APIクライアントを提供する。
// UI層の呼び出しをHTTPリクエストへ変換する薄いステートレスな層であり、
// トークンの解釈やパスワードのハッシュ化は一切行わない。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/internlink/internal/model"
)

// TokenFunc は現在のアクセストークンを返す関数。
// 空文字列は「未認証」を意味し、Authorizationヘッダーを付与しない。
type TokenFunc func() string

// AuthFailureFunc は認証済み呼び出しが401/403で拒否されたときに呼ばれるフック。
// セッション層がここに登録することで、画面ごとの個別対応ではなく
// 一箇所でセッション降格を行う。
type AuthFailureFunc func()

// MetricsRecorder はAPI呼び出しのメトリクス記録に必要なインターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordAPIRequest(endpoint string, statusCode int, duration time.Duration)
}

// Client はInternLink APIのクライアント。
// 送信レートはクライアント側でも自己抑制する（バックエンドの制限に先回りする）。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	limiter    *rate.Limiter
	metrics    MetricsRecorder

	tokenFn       TokenFunc
	authFailureFn AuthFailureFunc
}

// Config はClientの生成パラメータ。
type Config struct {
	BaseURL         string
	RateLimitPerMin int
	RateLimitBurst  int
}

// NewClient はClientの新しいインスタンスを生成する。
// metricsはnilでもよい（記録をスキップする）。
func NewClient(httpClient *http.Client, cfg Config, logger *slog.Logger, metrics MetricsRecorder) *Client {
	limit := rate.Limit(float64(cfg.RateLimitPerMin) / 60.0)
	if cfg.RateLimitPerMin <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		logger:     logger,
		limiter:    rate.NewLimiter(limit, burst),
		metrics:    metrics,
	}
}

// SetTokenFunc はアクセストークンの取得関数を登録する。
func (c *Client) SetTokenFunc(fn TokenFunc) {
	c.tokenFn = fn
}

// SetAuthFailureFunc は認証失敗フックを登録する。
func (c *Client) SetAuthFailureFunc(fn AuthFailureFunc) {
	c.authFailureFn = fn
}

// requestOptions はリクエスト単位の挙動を制御する。
type requestOptions struct {
	// skipAuth はAuthorizationヘッダーを付与しない。
	skipAuth bool
	// skipAuthFailureHook は401/403でも認証失敗フックを呼ばない。
	// クレデンシャル交換自体の失敗はセッション降格の対象ではないため。
	skipAuthFailureHook bool
	// credentialExchange はこの呼び出しがクレデンシャル交換であることを示す。
	// 400/401はINVALID_CREDENTIALSとして扱い、バックエンドのdetailをそのまま表示する。
	credentialExchange bool
}

// doJSON はJSONリクエストを送信し、成功時レスポンスをoutへデコードする。
// bodyがnilの場合はボディなし、outがnilの場合はレスポンスボディを破棄する。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any, opts requestOptions) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, path, out, opts)
}

// send はリクエストに共通ヘッダーを付与して送信し、レスポンスを処理する。
func (c *Client) send(req *http.Request, endpoint string, out any, opts requestOptions) error {
	// 1. クライアント側レート制限（コンテキスト解約で待機も中断される）
	if err := c.limiter.Wait(req.Context()); err != nil {
		return model.NewNetworkError(err.Error())
	}

	// 2. 共通ヘッダー
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", "InternLink-CLI/1.0")
	req.Header.Set("Accept", "application/json")

	if !opts.skipAuth && c.tokenFn != nil {
		if token := c.tokenFn(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	// 3. 送信
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed",
			slog.String("endpoint", endpoint),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		if c.metrics != nil {
			c.metrics.RecordAPIRequest(endpoint, 0, time.Since(start))
		}
		return model.NewNetworkError(err.Error())
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordAPIRequest(endpoint, resp.StatusCode, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewNetworkError(fmt.Sprintf("failed to read response body: %v", err))
	}

	// 4. エラーステータスの変換
	if resp.StatusCode >= 400 {
		apiErr := c.mapError(resp.StatusCode, respBody, opts)
		c.logger.Warn("api request rejected",
			slog.String("endpoint", endpoint),
			slog.String("request_id", requestID),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)

		// 認証失敗はセッション層へ一箇所で通知する
		if !opts.skipAuthFailureHook && c.authFailureFn != nil &&
			(resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			c.authFailureFn()
		}
		return apiErr
	}

	// 5. 成功レスポンスのデコード
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return model.NewNetworkError(fmt.Sprintf("failed to decode response: %v", err))
		}
	}

	c.logger.Debug("api request completed",
		slog.String("endpoint", endpoint),
		slog.String("request_id", requestID),
		slog.Int("http_status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	return nil
}

// mapError はHTTPエラーレスポンスをAPIErrorへ変換する。
func (c *Client) mapError(statusCode int, body []byte, opts requestOptions) *model.APIError {
	if opts.credentialExchange &&
		(statusCode == http.StatusUnauthorized || statusCode == http.StatusBadRequest) {
		return model.NewInvalidCredentialsError(errorDetail(body))
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return model.NewUnauthenticatedError()
	case http.StatusForbidden:
		return model.NewForbiddenError()
	case http.StatusNotFound:
		return model.NewNotFoundError("対象のリソース")
	case http.StatusBadRequest:
		if fieldErrors := parseFieldErrors(body); len(fieldErrors) > 0 {
			return model.NewValidationError(fieldErrors)
		}
		return model.NewValidationError(nil)
	default:
		return model.NewNetworkError(fmt.Sprintf("unexpected status %d", statusCode))
	}
}

// parseFieldErrors はDRF形式のエラーボディ（フィールド名→メッセージ配列）をパースする。
// {"detail": "..."} 形式や配列以外の値も1メッセージとして取り込む。
func parseFieldErrors(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	fieldErrors := make(map[string][]string, len(raw))
	for field, value := range raw {
		var messages []string
		if err := json.Unmarshal(value, &messages); err == nil {
			fieldErrors[field] = messages
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			fieldErrors[field] = []string{single}
		}
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// errorDetail はエラーボディの detail フィールドを取り出す。無ければ空文字列。
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
