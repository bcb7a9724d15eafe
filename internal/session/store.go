// Package session owns the persisted bearer credentials. The end-user and
// administrative sessions are independent scopes with independent
// lifecycles; both may be live at once. Consumers read the credential at
// call time, so clearing a scope invalidates every subsequent request.
package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/larkvale/docdeck/internal/config"
	"github.com/larkvale/docdeck/internal/observability"
)

// Scope selects one of the two independent credential slots.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

type credentialModel struct {
	Scope     string `gorm:"primaryKey"`
	Sealed    []byte
	Nonce     []byte
	UpdatedAt time.Time
}

func (credentialModel) TableName() string { return "credentials" }

type metaModel struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

func (metaModel) TableName() string { return "meta" }

// Store is a GORM-backed SQLite credential store.
type Store struct {
	db     *gorm.DB
	sealer *sealer
}

// Open opens (creating if needed) the local state database and prepares the
// sealing key.
func Open(cfg config.StateConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&credentialModel{}, &metaModel{}); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	salt, err := s.loadOrCreateSalt()
	if err != nil {
		return nil, err
	}
	s.sealer, err = newSealer(cfg.Secret, salt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetCredential persists the bearer token for a scope, replacing any
// previous value.
func (s *Store) SetCredential(ctx context.Context, scope Scope, token string) error {
	sealed, nonce, err := s.sealer.seal([]byte(token))
	if err != nil {
		return err
	}
	model := credentialModel{
		Scope:     string(scope),
		Sealed:    sealed,
		Nonce:     nonce,
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Save(&model).Error
}

// ClearCredential drops the stored token for a scope. Clearing an absent
// credential is a no-op.
func (s *Store) ClearCredential(ctx context.Context, scope Scope) error {
	return s.db.WithContext(ctx).Delete(&credentialModel{}, "scope = ?", string(scope)).Error
}

// CurrentCredential returns the stored token for a scope, or "" when none
// exists. A row that cannot be unsealed reads as no credential; the stale
// row is dropped so the next login starts clean.
func (s *Store) CurrentCredential(ctx context.Context, scope Scope) (string, error) {
	var model credentialModel
	err := s.db.WithContext(ctx).First(&model, "scope = ?", string(scope)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	token, err := s.sealer.open(model.Sealed, model.Nonce)
	if err != nil {
		observability.Logger().Warn("dropping unreadable credential", "scope", scope, "error", err)
		_ = s.ClearCredential(ctx, scope)
		return "", nil
	}
	return string(token), nil
}

// TokenFunc adapts a scope to the api client's per-call credential read.
func (s *Store) TokenFunc(scope Scope) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		return s.CurrentCredential(ctx, scope)
	}
}

func (s *Store) loadOrCreateSalt() ([]byte, error) {
	var model metaModel
	err := s.db.First(&model, "key = ?", "seal_salt").Error
	if err == nil && len(model.Value) > 0 {
		return model.Value, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	salt, err := randomSalt()
	if err != nil {
		return nil, err
	}
	model = metaModel{Key: "seal_salt", Value: salt}
	if err := s.db.Save(&model).Error; err != nil {
		return nil, err
	}
	return salt, nil
}
