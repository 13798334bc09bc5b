package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/hitoshi/internlink/internal/model"
)

// Authenticate はユーザー名とパスワードをベアラートークンに交換する。
// バックエンドに拒否された場合はINVALID_CREDENTIALSを返す（セッション降格フックは呼ばない）。
// 戻り値のトークンを呼び出し元が保持してからFetchMeを呼ぶこと。
// ログインレスポンスにはプロフィールが含まれない可能性があるため、
// 本人情報をこのレスポンスから合成してはならない。
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}

	var result struct {
		Access string `json:"access"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/token/", payload, &result, requestOptions{
		skipAuth:            true,
		skipAuthFailureHook: true,
		credentialExchange:  true,
	})
	if err != nil {
		return "", err
	}
	if result.Access == "" {
		return "", model.NewNetworkError("token missing in credential exchange response")
	}

	return result.Access, nil
}

// FetchMe は現在のトークンに対応する本人情報（プロフィール込み）を取得する。
func (c *Client) FetchMe(ctx context.Context) (*model.Identity, error) {
	var identity model.Identity
	if err := c.doJSON(ctx, http.MethodGet, "/me/", nil, &identity, requestOptions{}); err != nil {
		return nil, err
	}
	return &identity, nil
}

// RegisterRequest はアカウント登録のリクエスト。Roleは登録時のみ指定できる。
type RegisterRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// Register は新規アカウントを作成する。
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/register/", req, nil, requestOptions{skipAuth: true})
}

// ServerLogout はサーバー側のトークン無効化を依頼する。
// ベストエフォートであり、クライアント側のログアウトはこの成否に依存しない。
func (c *Client) ServerLogout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/logout/", nil, nil, requestOptions{
		skipAuthFailureHook: true,
	})
}

// AccountUpdate はユーザー名・メールアドレスの部分更新。nilのフィールドは送信しない。
type AccountUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// UpdateAccount はアカウント情報を部分更新する。
// 更新後の本人情報はFetchMeで取り直すこと（部分マージせず全体を置き換える）。
func (c *Client) UpdateAccount(ctx context.Context, update AccountUpdate) error {
	return c.doJSON(ctx, http.MethodPatch, "/me/user/", update, nil, requestOptions{})
}

// ProfileUpdate はプロフィールの部分更新。nilのフィールドは送信しない。
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Location  *string `json:"location,omitempty"`
}

// Attachment はmultipart送信する添付ファイル。
type Attachment struct {
	FieldName string
	FileName  string
	Reader    io.Reader
}

// UpdateProfile はプロフィールを部分更新し、更新後の本人情報全体を返す。
// pictureが指定された場合はmultipartで、指定されない場合はJSONで送信する。
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate, picture *Attachment) (*model.Identity, error) {
	var identity model.Identity

	if picture == nil {
		if err := c.doJSON(ctx, http.MethodPatch, "/me/profile/", update, &identity, requestOptions{}); err != nil {
			return nil, err
		}
		return &identity, nil
	}

	// multipartボディの構築
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fields := map[string]*string{
		"first_name": update.FirstName,
		"last_name":  update.LastName,
		"bio":        update.Bio,
		"location":   update.Location,
	}
	for name, value := range fields {
		if value == nil {
			continue
		}
		if err := writer.WriteField(name, *value); err != nil {
			return nil, fmt.Errorf("failed to write multipart field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile(picture.FieldName, picture.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := io.Copy(part, picture.Reader); err != nil {
		return nil, fmt.Errorf("failed to copy attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/me/profile/", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if err := c.send(req, "/me/profile/", &identity, requestOptions{}); err != nil {
		return nil, err
	}
	return &identity, nil
}

// ForgotPassword はパスワードリセットメールの送信を依頼する。
// 対象メールアドレスの存在有無によらず同じメッセージが返る。
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	payload := map[string]string{"email": email}

	var result struct {
		Message string `json:"message"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/forgot-password/", payload, &result, requestOptions{skipAuth: true})
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// ResetPassword はリセットトークンを使ってパスワードを再設定する。
func (c *Client) ResetPassword(ctx context.Context, uid, token, newPassword string) (string, error) {
	payload := map[string]string{"password": newPassword}

	var result struct {
		Message string `json:"message"`
	}
	path := fmt.Sprintf("/reset-password/%s/%s/", uid, token)
	err := c.doJSON(ctx, http.MethodPost, path, payload, &result, requestOptions{skipAuth: true})
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

// ChangePassword は認証済みユーザーのパスワードを変更する。
// 旧パスワード不一致はold_passwordフィールドのバリデーションエラーとして返る。
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	payload := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return c.doJSON(ctx, http.MethodPut, "/change-password/", payload, nil, requestOptions{})
}
