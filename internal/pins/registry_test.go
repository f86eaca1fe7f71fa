package pins

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPinUnpin(t *testing.T) {
	r := New(nil)
	dir := t.TempDir()

	normalized, err := r.Pin(dir)
	if err != nil {
		t.Fatalf("Pin error: %v", err)
	}
	if !r.IsPinned(dir) {
		t.Errorf("IsPinned(%q) = false after Pin", dir)
	}
	if paths := r.Paths(); len(paths) != 1 || paths[0] != normalized {
		t.Errorf("Paths = %v, want [%s]", paths, normalized)
	}

	// Pinning again is idempotent
	if _, err := r.Pin(dir); err != nil {
		t.Fatalf("second Pin error: %v", err)
	}
	if len(r.Paths()) != 1 {
		t.Errorf("duplicate pin grew the set: %v", r.Paths())
	}

	if _, err := r.Unpin(dir); err != nil {
		t.Fatalf("Unpin error: %v", err)
	}
	if r.IsPinned(dir) {
		t.Errorf("IsPinned(%q) = true after Unpin", dir)
	}
}

func TestPinNonexistentPath(t *testing.T) {
	r := New(nil)

	// The directory doesn't exist yet; pin should still succeed on the
	// cleaned absolute form.
	if _, err := r.Pin("/no/such/dir/notchlight-test"); err != nil {
		t.Fatalf("Pin error: %v", err)
	}
	if !r.IsPinned("/no/such/dir/notchlight-test") {
		t.Error("nonexistent path should be pinnable")
	}
}

func TestSymlinkNormalization(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	r := New(nil)
	if _, err := r.Pin(link); err != nil {
		t.Fatalf("Pin error: %v", err)
	}

	// Both spellings resolve to the same registry entry.
	if !r.IsPinned(real) {
		t.Error("pinning the symlink should pin the resolved path")
	}
	if len(r.Paths()) != 1 {
		t.Errorf("Paths = %v, want one entry", r.Paths())
	}
}

func TestUnpinAll(t *testing.T) {
	r := New(nil)
	for _, p := range []string{"/a", "/b", "/c"} {
		if _, err := r.Pin(p); err != nil {
			t.Fatalf("Pin(%s) error: %v", p, err)
		}
	}
	r.UnpinAll()
	if len(r.Paths()) != 0 {
		t.Errorf("Paths after UnpinAll = %v, want empty", r.Paths())
	}
}

func TestOnPinCallback(t *testing.T) {
	r := New(nil)
	calls := 0
	r.SetOnPin(func() { calls++ })

	if _, err := r.Pin("/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Pin("/a"); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("onPin calls = %d, want 2 (idempotent pin still reports activity)", calls)
	}
}

// stubPersister serves a fixed stored set and discards writes.
type stubPersister struct{ stored []string }

func (s stubPersister) LoadPins() ([]string, error) { return s.stored, nil }
func (s stubPersister) AddPin(string) error         { return nil }
func (s stubPersister) RemovePin(string) error      { return nil }
func (s stubPersister) ClearPins() error            { return nil }

func TestRestoreNormalizesStoredPins(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	// The stored spelling is the symlink; restore must keep only the
	// resolved form.
	r := New(stubPersister{stored: []string{link}})
	if paths := r.Paths(); len(paths) != 1 {
		t.Fatalf("Paths after restore = %v, want one entry", paths)
	}
	if !r.IsPinned(real) {
		t.Error("restored pin should resolve to the real path")
	}

	// Re-pinning the stored spelling must not grow the set.
	if _, err := r.Pin(link); err != nil {
		t.Fatalf("Pin error: %v", err)
	}
	if paths := r.Paths(); len(paths) != 1 {
		t.Errorf("Paths after re-pin = %v, want exactly one entry", paths)
	}
	if !r.IsPinned(real) {
		t.Error("resolved path should be pinned")
	}
}

// failingPersister always errors, to verify persistence failure is non-fatal.
type failingPersister struct{}

func (failingPersister) LoadPins() ([]string, error) { return nil, errors.New("disk gone") }
func (failingPersister) AddPin(string) error         { return errors.New("disk gone") }
func (failingPersister) RemovePin(string) error      { return errors.New("disk gone") }
func (failingPersister) ClearPins() error            { return errors.New("disk gone") }

func TestPersistFailureIsNotFatal(t *testing.T) {
	r := New(failingPersister{})

	if _, err := r.Pin("/a"); err != nil {
		t.Fatalf("Pin should succeed despite persistence failure, got %v", err)
	}
	if !r.IsPinned("/a") {
		t.Error("in-memory state should remain authoritative")
	}
}
