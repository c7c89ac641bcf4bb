package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestCleanupArtifacts(t *testing.T) {
	tempDir := t.TempDir()
	workDir := t.TempDir()
	prefix := filepath.Join(tempDir, "wlfwifi")

	removed := []string{
		prefix + "-01.cap",
		prefix + "-01.csv",
		prefix + "-01.kismet.csv",
		prefix + "-01.kismet.netxml",
		filepath.Join(tempDir, "fragment-0101.xor"),
		filepath.Join(tempDir, "CHOP.XOR"),
		filepath.Join(workDir, "replay_arp-0101-120000.cap"),
		filepath.Join(workDir, "replay_dec.xor"),
	}
	kept := []string{
		prefix + "-02.cap",
		filepath.Join(tempDir, "handshake.cap"),
		filepath.Join(workDir, "hs_home.cap"),
		filepath.Join(workDir, "notes.txt"),
	}
	for _, p := range append(removed, kept...) {
		touch(t, p)
	}

	cleanupArtifacts(prefix, tempDir, workDir)

	for _, p := range removed {
		assert.NoFileExists(t, p)
	}
	for _, p := range kept {
		assert.FileExists(t, p)
	}
}

func TestCleanupArtifacts_NothingToRemove(t *testing.T) {
	dir := t.TempDir()
	assert.NotPanics(t, func() {
		cleanupArtifacts(filepath.Join(dir, "none"), filepath.Join(dir, "missing"), dir)
	})
}
