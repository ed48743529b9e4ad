package internal

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/iksnae/vedit-session/testutil"
)

func TestStateStore(t *testing.T) {
	path := filepath.Join(testutil.CreateTempDir(t), "sub", "state.yaml")
	store := NewStateStore(path)

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}
	if st.Session != "" {
		t.Errorf("Load() = %+v, want empty", st)
	}

	if err := store.Save(SavedState{Session: "s1", Server: "http://h"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	err = store.Update(func(st *SavedState) {
		st.SelectedAssets = []string{"a.png", "b.mp4"}
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	st, err = store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if st.Session != "s1" || st.Server != "http://h" || !reflect.DeepEqual(st.SelectedAssets, []string{"a.png", "b.mp4"}) {
		t.Errorf("Load() = %+v", st)
	}
	if st.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on missing file error = %v", err)
	}
}

func TestStateStoreFixtureAndCorruption(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "state.yaml")
	testutil.CreateStateFixture(t, path, "from-fixture")

	st, err := NewStateStore(path).Load()
	if err != nil || st.Session != "from-fixture" {
		t.Errorf("Load() = %+v, %v", st, err)
	}

	testutil.WriteFile(t, path, []byte("session: [broken\n"))
	if _, err := NewStateStore(path).Load(); err == nil {
		t.Error("Load() should fail on corrupt state")
	}
}
