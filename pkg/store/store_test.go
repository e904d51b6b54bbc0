package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"shakeassets/models"
)

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open("  ", false); !errors.Is(err, ErrNoDSN) {
		t.Fatalf("expected ErrNoDSN, got %v", err)
	}
}

func TestIsUniqueConstraintError(t *testing.T) {
	cases := map[string]bool{
		`ERROR: duplicate key value violates unique constraint "idx_users_username"`: true,
		"relation already exists": true,
		"connection refused":      false,
	}
	for msg, want := range cases {
		if got := isUniqueConstraintError(errors.New(msg)); got != want {
			t.Fatalf("%q: got %v want %v", msg, got, want)
		}
	}
	if isUniqueConstraintError(nil) {
		t.Fatalf("nil error reported as unique violation")
	}
}

// openTestStore is opt-in like the server integration tests: set DB_DSN_TEST=1 and DB_DSN.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	s, err := Open(os.Getenv("DB_DSN"), true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsersIntegration(t *testing.T) {
	s := openTestStore(t)
	name := "op-" + uuid.NewString()[:8]

	u, err := s.CreateUser(name, "secret1", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role.Name != models.RoleOperator {
		t.Fatalf("role = %q", u.Role.Name)
	}
	if _, err := s.CreateUser(name, "secret1", ""); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := s.Authenticate(name, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := s.SetPassword(name, "secret2"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, err := s.Authenticate(name, "secret2"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestRunsIntegration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	newName, item := "oreo-delight.png", "oreo-delight"
	run := &models.IdentificationRun{
		Dir:       "renders/vegan",
		StartedAt: time.Now(),
		Threshold: 15,
		Total:     2,
		Renamed:   1,
		Records: []models.IdentificationRecord{
			{Original: "a.png", New: &newName, ItemID: &item, Score: 165},
			{Original: "b.png", Score: 4},
		},
	}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Fatalf("run id not assigned")
	}
	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Records) != 2 || got.Records[0].Original != "a.png" || got.Records[1].ItemID != nil {
		t.Fatalf("unexpected records: %+v", got.Records)
	}
	if _, err := s.GetRun(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	runs, err := s.ListRuns(ctx, nil, 10)
	if err != nil || len(runs) == 0 {
		t.Fatalf("list: %v (%d)", err, len(runs))
	}
}
