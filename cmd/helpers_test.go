package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/iksnae/vedit-session/internal"
	"github.com/iksnae/vedit-session/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliEnv isolates one test: its own config dir and a fake backend
type cliEnv struct {
	dir     string
	backend *testutil.FakeBackend
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	t.Setenv("VEDIT_HOME", dir)
	for _, key := range []string{"VEDIT_SERVER", "VEDIT_API_PREFIX", "VEDIT_MODEL", "VEDIT_HISTORY", "GEMINI_MODEL"} {
		t.Setenv(key, "")
	}
	internal.SetLogOutput(&bytes.Buffer{})
	t.Cleanup(func() { internal.SetLogOutput(os.Stderr) })
	return &cliEnv{dir: dir, backend: testutil.NewFakeBackend(t)}
}

// run executes vedit against the fake backend and returns stdout
func (c *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return c.runWithInput(t, "", args...)
}

func (c *cliEnv) runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out syncBuffer
	err := execute(context.Background(), &out, input, append([]string{"--server", c.backend.URL()}, args...))
	return out.String(), err
}

func (c *cliEnv) state(t *testing.T) internal.SavedState {
	t.Helper()
	cfg, err := internal.LoadConfig(c.dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	st, err := internal.NewStateStore(cfg.StatePath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return st
}

// selectSession saves a selection without going through the backend
func (c *cliEnv) selectSession(t *testing.T, id string, assets ...string) {
	t.Helper()
	cfg, err := internal.LoadConfig(c.dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	st := internal.SavedState{Session: id, Server: c.backend.URL(), SelectedAssets: assets}
	if err := internal.NewStateStore(cfg.StatePath).Save(st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

// execute runs rootCmd once. Cobra keeps flag values and contexts between
// executions, so both are reset first.
func execute(ctx context.Context, out *syncBuffer, input string, args []string) error {
	resetCommand(ctx, rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetIn(strings.NewReader(input))
	return rootCmd.ExecuteContext(ctx)
}

func resetCommand(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCommand(ctx, sub)
	}
}

// syncBuffer is written by watch goroutines while the test reads it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func clipSession() *testutil.FakeSession {
	return &testutil.FakeSession{
		Messages: []testutil.FakeMessage{
			{Role: "human", Text: "Trim the intro"},
			{Role: "ai", Text: "Saved as clip.mp4"},
		},
		Assets: []testutil.FakeFile{
			{Name: "intro.mp4", Size: 2048000},
			{Name: "song.mp3", Size: 4096},
		},
		Outputs: []testutil.FakeFile{
			{Name: "clip.mp4", Size: 1024000, Modified: 1700000000000},
		},
		Files: map[string][]byte{
			"assets/song.mp3":  []byte("not a tagged file"),
			"outputs/clip.mp4": []byte("video"),
		},
	}
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}
