package command

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

// runApp runs the application with args and returns what it wrote to
// stdout and stderr.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"syncx-bench"}, args...))
	return out.String(), errOut.String(), err
}

// smallRun returns global flags for a quick, quiet run against a private
// data directory.
func smallRun(t *testing.T, extra ...string) []string {
	t.Helper()
	args := []string{
		"--data-dir", t.TempDir(),
		"--workers", "2",
		"--ops", "40",
		"--mode", "free",
		"--log-level", "error",
		"-q",
	}
	return append(args, extra...)
}

// writeConfig writes a YAML configuration file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syncx.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
