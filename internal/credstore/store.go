// Package credstore はアクセストークンとキャッシュ済み本人情報の永続化を提供する。
// プロセス再起動をまたいで生存する受動的なミラーであり、検証は一切行わない。
// 書き込みはすべてセッション層経由で行われることを前提とする。
package credstore

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/hitoshi/internlink/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// 保存キー。credentialsテーブルは固定キーのキー/バリュー構造。
const (
	keyAccessToken = "access_token"
	keyIdentity    = "identity"
)

// Store はsqliteファイルに裏付けられたクレデンシャルストア。
type Store struct {
	db *sql.DB
}

// Open は指定パスのsqliteファイルを開き、スキーマを最新化してStoreを返す。
// 親ディレクトリが存在しない場合は作成する。
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential store directory: %w", err)
	}

	if err := runMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveToken はアクセストークンを保存する。
func (s *Store) SaveToken(token string) error {
	return s.set(keyAccessToken, token)
}

// LoadToken は保存済みのアクセストークンを返す。
// 未保存の場合は空文字列を返す（トークン不在は「ログアウト状態」と等価）。
func (s *Store) LoadToken() (string, error) {
	return s.get(keyAccessToken)
}

// ClearToken は保存済みのアクセストークンを削除する。
func (s *Store) ClearToken() error {
	return s.delete(keyAccessToken)
}

// SaveIdentity は本人情報をJSONとして保存する。
func (s *Store) SaveIdentity(identity *model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	return s.set(keyIdentity, string(data))
}

// LoadIdentity はキャッシュ済みの本人情報を返す。未保存の場合はnilを返す。
// 壊れたキャッシュはエラーではなく「未保存」として扱う（起動を妨げない）。
func (s *Store) LoadIdentity() (*model.Identity, error) {
	data, err := s.get(keyIdentity)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, nil
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		return nil, nil
	}
	return &identity, nil
}

// ClearIdentity はキャッシュ済みの本人情報を削除する。
func (s *Store) ClearIdentity() error {
	return s.delete(keyIdentity)
}

// set はキーに対する値をUPSERTする。
func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// get はキーに対する値を返す。行が存在しない場合は空文字列を返す。
func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// delete はキーに対する行を削除する。行が存在しなくてもエラーにしない。
func (s *Store) delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

// runMigrations は埋め込みマイグレーションをすべて適用する。
// すでに最新の場合はエラーなしで返る。
func runMigrations(path string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
