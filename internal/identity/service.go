// Package identity はクレデンシャル交換と本人情報の取得・更新を提供する。
// UI呼び出しとバックエンドエンドポイントの間の薄いステートレスな変換層であり、
// トークンの保持はセッション層、永続化はクレデンシャルストアの責務とする。
package identity

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hitoshi/internlink/internal/api"
	"github.com/hitoshi/internlink/internal/model"
)

// Transport は本人情報関連のAPI呼び出しに必要なインターフェース。
// api.Clientの部分集合として定義する。
type Transport interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	FetchMe(ctx context.Context) (*model.Identity, error)
	UpdateAccount(ctx context.Context, update api.AccountUpdate) error
	UpdateProfile(ctx context.Context, update api.ProfileUpdate, picture *api.Attachment) (*model.Identity, error)
}

// Service は本人情報サービス。
type Service struct {
	transport Transport
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(transport Transport, logger *slog.Logger) *Service {
	return &Service{
		transport: transport,
		logger:    logger,
	}
}

// Authenticate はユーザー名とパスワードをベアラートークンに交換する。
// 成功後、呼び出し元はトークンを保持してからFetchCurrentIdentityを呼ぶこと。
// ログインレスポンスから本人情報を合成してはならない（プロフィールが欠落しうる）。
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	token, err := s.transport.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}

	s.logger.Info("credential exchange succeeded",
		slog.String("username", username),
	)
	return token, nil
}

// FetchCurrentIdentity は現在のトークンに対応する本人情報を取得する。
// トークンが無い・無効な場合はUNAUTHENTICATEDが返る。
func (s *Service) FetchCurrentIdentity(ctx context.Context) (*model.Identity, error) {
	identity, err := s.transport.FetchMe(ctx)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// UpdateAccountFields はユーザー名・メールアドレスを部分更新し、更新後の本人情報を返す。
// バックエンドの更新レスポンスは更新フィールドのみのため、全体を取り直して返す。
func (s *Service) UpdateAccountFields(ctx context.Context, update api.AccountUpdate) (*model.Identity, error) {
	if err := s.transport.UpdateAccount(ctx, update); err != nil {
		return nil, err
	}

	identity, err := s.transport.FetchMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("account updated but identity refetch failed: %w", err)
	}
	return identity, nil
}

// ProfilePicture はプロフィール更新に添付する画像。
type ProfilePicture struct {
	FileName string
	Reader   io.Reader
}

// UpdateProfileFields はプロフィールを部分更新し、更新後の本人情報を返す。
// pictureが指定された場合はmultipartで送信する。役割（role）は更新対象外。
func (s *Service) UpdateProfileFields(ctx context.Context, update api.ProfileUpdate, picture *ProfilePicture) (*model.Identity, error) {
	var attachment *api.Attachment
	if picture != nil {
		attachment = &api.Attachment{
			FieldName: "profile_picture",
			FileName:  picture.FileName,
			Reader:    picture.Reader,
		}
	}

	identity, err := s.transport.UpdateProfile(ctx, update, attachment)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile updated",
		slog.Int64("user_id", identity.ID),
		slog.Bool("with_picture", picture != nil),
	)
	return identity, nil
}
