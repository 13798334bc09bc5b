package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hitoshi/internlink/internal/api"
	"github.com/hitoshi/internlink/internal/model"
)

// transportMock はTransportのモック。
type transportMock struct {
	AuthenticateFunc  func(ctx context.Context, username, password string) (string, error)
	FetchMeFunc       func(ctx context.Context) (*model.Identity, error)
	UpdateAccountFunc func(ctx context.Context, update api.AccountUpdate) error
	UpdateProfileFunc func(ctx context.Context, update api.ProfileUpdate, picture *api.Attachment) (*model.Identity, error)
}

func (m *transportMock) Authenticate(ctx context.Context, username, password string) (string, error) {
	return m.AuthenticateFunc(ctx, username, password)
}

func (m *transportMock) FetchMe(ctx context.Context) (*model.Identity, error) {
	return m.FetchMeFunc(ctx)
}

func (m *transportMock) UpdateAccount(ctx context.Context, update api.AccountUpdate) error {
	return m.UpdateAccountFunc(ctx, update)
}

func (m *transportMock) UpdateProfile(ctx context.Context, update api.ProfileUpdate, picture *api.Attachment) (*model.Identity, error) {
	return m.UpdateProfileFunc(ctx, update, picture)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Authenticate_PassesThroughToken(t *testing.T) {
	svc := NewService(&transportMock{
		AuthenticateFunc: func(ctx context.Context, username, password string) (string, error) {
			if username != "alice" || password != "secret" {
				t.Errorf("credentials = (%q, %q), want (alice, secret)", username, password)
			}
			return "token-123", nil
		},
	}, testLogger())

	token, err := svc.Authenticate(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if token != "token-123" {
		t.Errorf("token = %q, want token-123", token)
	}
}

func TestService_Authenticate_PassesThroughError(t *testing.T) {
	wantErr := model.NewInvalidCredentialsError("nope")
	svc := NewService(&transportMock{
		AuthenticateFunc: func(ctx context.Context, username, password string) (string, error) {
			return "", wantErr
		},
	}, testLogger())

	if _, err := svc.Authenticate(context.Background(), "alice", "bad"); !errors.Is(err, wantErr) {
		t.Errorf("Authenticate error = %v, want %v", err, wantErr)
	}
}

func TestService_UpdateAccountFields_RefetchesFullIdentity(t *testing.T) {
	// 更新レスポンスは部分的なため、更新後に全体を取り直す
	updated := &model.Identity{ID: 1, Username: "alice2", Email: "alice2@example.com"}
	fetches := 0
	svc := NewService(&transportMock{
		UpdateAccountFunc: func(ctx context.Context, update api.AccountUpdate) error {
			if update.Username == nil || *update.Username != "alice2" {
				t.Errorf("update.Username = %v, want alice2", update.Username)
			}
			return nil
		},
		FetchMeFunc: func(ctx context.Context) (*model.Identity, error) {
			fetches++
			return updated, nil
		},
	}, testLogger())

	username := "alice2"
	identity, err := svc.UpdateAccountFields(context.Background(), api.AccountUpdate{Username: &username})
	if err != nil {
		t.Fatalf("UpdateAccountFields returned error: %v", err)
	}
	if fetches != 1 {
		t.Errorf("identity refetched %d times, want 1", fetches)
	}
	if identity.Username != "alice2" {
		t.Errorf("identity.Username = %q, want alice2", identity.Username)
	}
}

func TestService_UpdateAccountFields_RefetchFailure_ReturnsError(t *testing.T) {
	svc := NewService(&transportMock{
		UpdateAccountFunc: func(ctx context.Context, update api.AccountUpdate) error { return nil },
		FetchMeFunc: func(ctx context.Context) (*model.Identity, error) {
			return nil, model.NewNetworkError("timeout")
		},
	}, testLogger())

	if _, err := svc.UpdateAccountFields(context.Background(), api.AccountUpdate{}); err == nil {
		t.Fatal("UpdateAccountFields succeeded despite refetch failure")
	}
}

func TestService_UpdateProfileFields_WithPicture_BuildsAttachment(t *testing.T) {
	var gotAttachment *api.Attachment
	svc := NewService(&transportMock{
		UpdateProfileFunc: func(ctx context.Context, update api.ProfileUpdate, picture *api.Attachment) (*model.Identity, error) {
			gotAttachment = picture
			return &model.Identity{ID: 1}, nil
		},
	}, testLogger())

	_, err := svc.UpdateProfileFields(context.Background(), api.ProfileUpdate{}, &ProfilePicture{
		FileName: "avatar.png",
		Reader:   strings.NewReader("png"),
	})
	if err != nil {
		t.Fatalf("UpdateProfileFields returned error: %v", err)
	}

	if gotAttachment == nil {
		t.Fatal("picture was not converted to an attachment")
	}
	if gotAttachment.FieldName != "profile_picture" {
		t.Errorf("attachment field name = %q, want profile_picture", gotAttachment.FieldName)
	}
	if gotAttachment.FileName != "avatar.png" {
		t.Errorf("attachment file name = %q, want avatar.png", gotAttachment.FileName)
	}
}

func TestService_UpdateProfileFields_WithoutPicture_NoAttachment(t *testing.T) {
	svc := NewService(&transportMock{
		UpdateProfileFunc: func(ctx context.Context, update api.ProfileUpdate, picture *api.Attachment) (*model.Identity, error) {
			if picture != nil {
				t.Errorf("attachment = %+v, want nil", picture)
			}
			return &model.Identity{ID: 1}, nil
		},
	}, testLogger())

	if _, err := svc.UpdateProfileFields(context.Background(), api.ProfileUpdate{}, nil); err != nil {
		t.Fatalf("UpdateProfileFields returned error: %v", err)
	}
}
