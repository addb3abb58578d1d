package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/testutil"
)

func TestMain(m *testing.M) {
	domain.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

// testCLI runs commands against a fresh database in a temp directory,
// with join-order seating and a step clock.
type testCLI struct {
	t     *testing.T
	dir   string
	clock *testutil.StepClock
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MURDER_DB", filepath.Join(dir, "murder.db"))
	t.Setenv("MURDER_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("MURDER_NOTIFY", "none")
	t.Setenv("MURDER_SECRET_KEY", "")
	return &testCLI{t: t, dir: dir, clock: testutil.NewStepClock(time.Time{}, time.Minute)}
}

func (c *testCLI) run(args ...string) (stdout, stderr string, code int) {
	c.t.Helper()
	opts := &RootOptions{Shuffler: testutil.JoinOrderShuffler{}, Now: c.clock.Now}
	var out, errOut bytes.Buffer
	code = execute(context.Background(), opts, args, &out, &errOut)
	return out.String(), errOut.String(), code
}

// mustRun runs a command and fails the test unless it succeeds.
func (c *testCLI) mustRun(args ...string) string {
	c.t.Helper()
	stdout, stderr, code := c.run(args...)
	require.Equal(c.t, ExitSuccess, code, "murder %v\nstdout: %s\nstderr: %s", args, stdout, stderr)
	return stdout
}

// runJSON runs a command with --format json and decodes the response.
func (c *testCLI) runJSON(args ...string) (CLIResponse, int) {
	c.t.Helper()
	stdout, _, code := c.run(append([]string{"--format", "json"}, args...)...)
	var resp CLIResponse
	require.NoError(c.t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
	return resp, code
}

// setupRunningGame creates game g1 with circle c1 and players A, B, C
// seated in that order, and starts it. A hunts B, B hunts C, C hunts A.
func (c *testCLI) setupRunningGame() {
	c.t.Helper()
	c.mustRun("create-game", "g1", "--password", "secret", "--title", "Test game", "--circle", "c1")
	for _, p := range []string{"A", "B", "C"} {
		c.mustRun("add-player", "g1", p, "--circle", "c1")
	}
	c.mustRun("start-game", "g1")
}
