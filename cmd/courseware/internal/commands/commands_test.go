package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlearn/courseware/internal/session"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestBuildStack(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `serverUrl: https://courseware.example.com
credentialsDir: `+filepath.Join(dir, "creds")+`
`)

	stack, err := buildStack(&Globals{ConfigPath: path}, "")
	require.NoError(t, err)

	assert.Equal(t, "https://courseware.example.com", stack.cfg.ServerURL)
	assert.Equal(t, session.StateRestoring, stack.store.Snapshot().State)
	assert.DirExists(t, filepath.Join(dir, "creds"))
}

func TestBuildStack_ServerOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `serverUrl: https://courseware.example.com
credentialsDir: `+filepath.Join(dir, "creds")+`
`)

	stack, err := buildStack(&Globals{ConfigPath: path}, "https://other.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com", stack.cfg.ServerURL)
}

func TestSubmitCmd_SubmissionContent(t *testing.T) {
	t.Run("inline content wins", func(t *testing.T) {
		cmd := &SubmitCmd{Content: "my answer"}
		content, err := cmd.submissionContent()
		require.NoError(t, err)
		assert.Equal(t, "my answer", content)
	})

	t.Run("file content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "answer.txt")
		require.NoError(t, os.WriteFile(path, []byte("from a file"), 0600))

		cmd := &SubmitCmd{File: path}
		content, err := cmd.submissionContent()
		require.NoError(t, err)
		assert.Equal(t, "from a file", content)
	})

	t.Run("neither is an error", func(t *testing.T) {
		_, err := (&SubmitCmd{}).submissionContent()
		assert.Error(t, err)
	})
}
