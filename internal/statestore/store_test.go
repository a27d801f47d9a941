package statestore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cadence-flow/cadence/internal/enforcement"
)

func TestMutateCreatesInitialState(t *testing.T) {
	store := New(t.TempDir())
	err := store.Mutate(func(state *enforcement.State) error {
		if state.Phase != enforcement.PhaseIdle {
			t.Fatalf("fresh state phase = %s, want idle", state.Phase)
		}
		return state.BeginWork("proj", time.Now())
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	var reread enforcement.State
	if err := store.View(func(s enforcement.State) error {
		reread = s
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if reread.Phase != enforcement.PhaseWorking || reread.Project != "proj" {
		t.Fatalf("persisted state = %+v", reread)
	}
}

func TestMutateErrorLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Mutate(func(state *enforcement.State) error {
		return state.BeginWork("proj", time.Now())
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(dir, enforcementFile))
	if err != nil {
		t.Fatalf("read seeded file: %v", err)
	}

	boom := errors.New("boom")
	err = store.Mutate(func(state *enforcement.State) error {
		state.Project = "other"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("mutate err = %v, want boom", err)
	}
	after, err := os.ReadFile(filepath.Join(dir, enforcementFile))
	if err != nil {
		t.Fatalf("read after failed mutate: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("failed mutate changed the on-disk state")
	}
}

func TestMutateRejectsCorruptState(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, enforcementFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	store := New(dir)
	err := store.View(func(enforcement.State) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("view over corrupt file: err = %v", err)
	}
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	store := New(t.TempDir(), WithLockTimeout(5*time.Second))
	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Mutate(func(state *enforcement.State) error {
				state.Violations++
				return nil
			})
			if err != nil {
				t.Errorf("mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	var final enforcement.State
	if err := store.View(func(s enforcement.State) error {
		final = s
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if final.Violations != writers {
		t.Fatalf("violations = %d, want %d (lost update)", final.Violations, writers)
	}
}

func TestSaveIsAtomicNoTempLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.SaveDoc("doc.json", map[string]int{"a": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "doc.json"))
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("saved doc is not valid JSON: %v", err)
	}
}

func TestDocLifecycle(t *testing.T) {
	store := New(t.TempDir())

	var missing map[string]int
	if err := store.LoadDoc("absent.json", &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load absent doc: err = %v, want ErrNotFound", err)
	}

	if err := store.SaveDoc("s.json", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	exists, err := store.HasDoc("s.json")
	if err != nil || !exists {
		t.Fatalf("has doc = %t, %v", exists, err)
	}
	if err := store.RemoveDoc("s.json"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.RemoveDoc("s.json"); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
	exists, err = store.HasDoc("s.json")
	if err != nil || exists {
		t.Fatalf("after remove, has doc = %t, %v", exists, err)
	}
}
