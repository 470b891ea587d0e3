package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davetashner/pitcrew/internal/testable"
)

// useMockExec swaps the package executor for the test and restores it after.
func useMockExec(t *testing.T, mock *testable.MockCommandExecutor) {
	t.Helper()
	orig := Exec
	Exec = mock
	t.Cleanup(func() { Exec = orig })
}

// writeFile creates rel under root with the given content, making parent
// directories as needed.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}
