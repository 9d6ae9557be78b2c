package migrate

import (
	"path/filepath"
	"testing"

	"github.com/vmshift/vmshift/internal/domain/migration"
	"github.com/vmshift/vmshift/internal/domain/resource"
)

func testContext(t *testing.T) *migration.Context {
	t.Helper()
	id, err := resource.Parse(sourceVMID)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return migration.NewContext(id, testTarget)
}

func TestRunStore_CreateAndGet(t *testing.T) {
	store, err := NewRunStore(filepath.Join(t.TempDir(), "runs.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	run, err := store.Create(testContext(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if run.ID == "" {
		t.Error("expected generated run ID")
	}
	if run.State != migration.StateStarted {
		t.Errorf("state = %s, want Started", run.State)
	}

	got, err := store.Get(run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SourceID != sourceVMID {
		t.Errorf("source = %q", got.SourceID)
	}
}

func TestRunStore_UpdateTracksContextState(t *testing.T) {
	store, err := NewRunStore(filepath.Join(t.TempDir(), "runs.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	mc := testContext(t)
	run, err := store.Create(mc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := mc.Advance(migration.StateMetadataCollected); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := store.Update(run); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.Get(run.ID)
	if got.State != migration.StateMetadataCollected {
		t.Errorf("state = %s, want MetadataCollected", got.State)
	}
}

func TestRunStore_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")

	store, err := NewRunStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	run, err := store.Create(testContext(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reloaded, err := NewRunStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, err := reloaded.Get(run.ID)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if got.Target.Region != "eastus2" {
		t.Errorf("target region = %q", got.Target.Region)
	}
}

func TestRunStore_ListOmitsContext(t *testing.T) {
	store, err := NewRunStore(filepath.Join(t.TempDir(), "runs.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Create(testContext(t)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(testContext(t)); err != nil {
		t.Fatalf("create: %v", err)
	}

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("list length = %d, want 2", len(list))
	}
	for _, run := range list {
		if run.Context != nil {
			t.Error("list summaries must not carry the full context")
		}
	}
}

func TestRunStore_Delete(t *testing.T) {
	store, err := NewRunStore(filepath.Join(t.TempDir(), "runs.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	run, err := store.Create(testContext(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Delete(run.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(run.ID); err == nil {
		t.Error("expected error getting deleted run")
	}
	if err := store.Delete("missing"); err == nil {
		t.Error("expected error deleting unknown run")
	}
}
