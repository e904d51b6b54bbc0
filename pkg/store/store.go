// Package store persists operators and identification runs in Postgres through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shakeassets/models"
	"shakeassets/pkg/logging"
)

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and, when migrate is set, creates the schema and seeds the roles.
func Open(dsn string, migrate bool) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoDSN
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Store{db: gdb}
	if migrate {
		s.Migrate()
	}
	if err := s.SeedRoles(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle.
func New(gdb *gorm.DB) *Store { return &Store{db: gdb} }

// DB exposes the handle for tools that issue raw statements.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates tables one model at a time so a failure on one doesn't block others.
// Permission errors are logged and ignored.
func (s *Store) Migrate() {
	log := logging.L()
	// roles first so the users FK can be applied
	if err := s.db.AutoMigrate(&models.Role{}); err != nil {
		log.Warnf("migration warning (roles): %v", err)
	}
	steps := []struct {
		table string
		model any
	}{
		{"users", &models.User{}},
		{"refresh_tokens", &models.RefreshToken{}},
		{"identification_runs", &models.IdentificationRun{}},
		{"identification_records", &models.IdentificationRecord{}},
	}
	for _, st := range steps {
		if err := s.db.AutoMigrate(st.model); err != nil {
			log.Warnf("migration warning (%s): %v", st.table, err)
		}
	}
}

// SeedRoles makes sure the master roles exist.
func (s *Store) SeedRoles() error {
	for _, r := range models.DefaultRoles() {
		if err := s.db.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("ensure role %s: %w", r.Name, err)
		}
	}
	return nil
}

// CreateUser registers an operator with the given role name.
func (s *Store) CreateUser(username, password, role string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}
	if len(password) < 6 {
		return models.User{}, ErrPasswordTooShort
	}
	if role == "" {
		role = models.RoleOperator
	}
	var existing models.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return existing, ErrUserExists
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	r := models.Role{Name: role}
	if err := s.db.Where("name = ?", role).FirstOrCreate(&r).Error; err != nil {
		return models.User{}, fmt.Errorf("ensure role %s: %w", role, err)
	}
	rid := r.ID
	user := models.User{Username: username, HashedPassword: hashed, RoleID: &rid}
	if err := s.db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, err
	}
	user.Role = r
	return user, nil
}

// SetPassword replaces a user's password hash.
func (s *Store) SetPassword(username, password string) error {
	if len(password) < 6 {
		return ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res := s.db.Model(&models.User{}).Where("username = ?", strings.TrimSpace(username)).Update("hashed_password", hashed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Authenticate checks a username and password. Any failure is ErrInvalidCredentials.
func (s *Store) Authenticate(username, password string) (models.User, error) {
	var user models.User
	if err := s.db.Preload("Role").Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UserByID loads a user with its role.
func (s *Store) UserByID(id uint) (models.User, error) {
	var user models.User
	if err := s.db.Preload("Role").First(&user, id).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

// UserByName loads a user with its role.
func (s *Store) UserByName(username string) (models.User, error) {
	var user models.User
	if err := s.db.Preload("Role").Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

// SaveRefreshToken stores the hash of a refresh token.
func (s *Store) SaveRefreshToken(userID uint, hash string, ttl time.Duration) error {
	rt := models.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: time.Now().Add(ttl)}
	return s.db.Create(&rt).Error
}

// RefreshToken finds a token record by hash.
func (s *Store) RefreshToken(hash string) (models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.Where("token_hash = ?", hash).First(&rt).Error; err != nil {
		return models.RefreshToken{}, notFound(err)
	}
	return rt, nil
}

// RevokeRefreshToken marks a token as revoked.
func (s *Store) RevokeRefreshToken(id uint) error {
	return s.db.Model(&models.RefreshToken{}).Where("id = ?", id).Update("revoked", true).Error
}

// SaveRun writes a run and its records in one transaction. A zero run ID is
// replaced with a new UUID.
func (s *Store) SaveRun(ctx context.Context, run *models.IdentificationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	for i := range run.Records {
		run.Records[i].RunID = run.ID
		run.Records[i].Position = i
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("save run %s: %w", run.ID, err)
		}
		return nil
	})
}

// ListRuns returns the most recent runs without their records. A non-nil userID
// limits the list to runs saved by that user.
func (s *Store) ListRuns(ctx context.Context, userID *uint, limit int) ([]models.IdentificationRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Order("started_at desc").Limit(limit)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var runs []models.IdentificationRun
	err := q.Find(&runs).Error
	return runs, err
}

// GetRun loads one run with its records in report order.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (models.IdentificationRun, error) {
	var run models.IdentificationRun
	err := s.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&run, "id = ?", id).Error
	if err != nil {
		return models.IdentificationRun{}, notFound(err)
	}
	return run, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
