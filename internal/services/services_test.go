package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"pennywise/internal/access"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/notify"
	"pennywise/internal/storage"
)

// recordingPublisher captures notifications instead of sending them.
type recordingPublisher struct {
	sent []notify.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n notify.Notification) error {
	p.sent = append(p.sent, n)
	return nil
}

type testEnv struct {
	repo      *storage.SQLiteRepository
	policy    *access.Policy
	publisher *recordingPublisher
	logger    *log.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "pennywise.db"))
	if err != nil {
		t.Fatalf("create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return &testEnv{
		repo:      repo,
		policy:    access.NewPolicy(repo),
		publisher: &recordingPublisher{},
		logger:    log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)}),
	}
}

type testFamily struct {
	parentID    int64
	childID     int64
	parentActor core.Actor
	childActor  core.Actor
}

func (e *testEnv) seedFamily(t *testing.T, name string, balanceCents int64) testFamily {
	t.Helper()
	ctx := context.Background()

	parentUser, err := e.repo.CreateUser(ctx, name+" parent", name+".parent@example.com")
	if err != nil {
		t.Fatalf("create parent user: %v", err)
	}
	parentID, err := e.repo.CreateParent(ctx, parentUser)
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	childUser, err := e.repo.CreateUser(ctx, name+" child", name+".child@example.com")
	if err != nil {
		t.Fatalf("create child user: %v", err)
	}
	childID, err := e.repo.CreateChild(ctx, childUser, 0, core.Money{Cents: balanceCents})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if err := e.repo.LinkParentChild(ctx, parentID, childID, true); err != nil {
		t.Fatalf("link parent and child: %v", err)
	}

	return testFamily{
		parentID:    parentID,
		childID:     childID,
		parentActor: core.Actor{UserID: parentUser, Roles: []string{core.RoleParent}, ParentID: parentID},
		childActor:  core.Actor{UserID: childUser, Roles: []string{core.RoleChild}, ChildID: childID},
	}
}

func (e *testEnv) balance(t *testing.T, childID int64) int64 {
	t.Helper()
	child, err := e.repo.GetChild(context.Background(), childID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	return child.Balance.Cents
}
