// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code        string              // エラーコード
	Message     string              // エラーメッセージ
	Category    string              // カテゴリ: auth, validation, network, system
	Action      string              // ユーザー向け対処方法
	FieldErrors map[string][]string // フィールド単位のバリデーションエラー（VALIDATION_ERRORのみ）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// JoinedFieldErrors はフィールドエラーを「field: message」形式で1つの文字列に結合する。
// フィールド名順にソートし、表示の安定性を保つ。
func (e *APIError) JoinedFieldErrors() string {
	if len(e.FieldErrors) == 0 {
		return ""
	}

	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var lines []string
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("%s: %s", f, strings.Join(e.FieldErrors[f], " ")))
	}
	return strings.Join(lines, "\n")
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNetwork            = "NETWORK_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
)

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// detailにはバックエンドが返したメッセージをそのまま渡す。空の場合は汎用メッセージを使う。
func NewInvalidCredentialsError(detail string) *APIError {
	if detail == "" {
		detail = "ユーザー名またはパスワードが正しくありません。"
	}
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  detail,
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUnauthenticatedError は認証切れエラーを生成する。
// トークンの「期限切れ」と「無効」はクライアント側では区別しない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証されていないか、セッションが無効になっています。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "アカウントの役割を確認してください。",
	}
}

// NewValidationError はフィールド単位のバリデーションエラーを生成する。
func NewValidationError(fieldErrors map[string][]string) *APIError {
	return &APIError{
		Code:        ErrCodeValidation,
		Message:     "入力内容に誤りがあります。",
		Category:    "validation",
		Action:      "各項目のエラーメッセージを確認して再送信してください。",
		FieldErrors: fieldErrors,
	}
}

// NewNetworkError は通信失敗エラーを生成する。自動リトライは行わない。
func NewNetworkError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNetwork,
		Message:  fmt.Sprintf("サーバーとの通信に失敗しました: %s", reason),
		Category: "network",
		Action:   "接続状態を確認し、しばらく待ってから再度お試しください。",
	}
}

// NewNotFoundError は対象リソースが見つからない場合のエラーを生成する。
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%sが見つかりません。", resource),
		Category: "system",
		Action:   "IDや検索条件を確認してください。",
	}
}

// IsAuthFailure はエラーが認証・認可の失敗（セッション降格の対象）かどうかを判定する。
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == ErrCodeUnauthenticated || apiErr.Code == ErrCodeForbidden
}
