package tools

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/wlfwifi/wlfwifi/pkg/fsutil"
)

// Files airodump-ng writes next to a --write prefix.
var artifactSuffixes = []string{
	"-01.cap",
	"-01.csv",
	"-01.kismet.csv",
	"-01.kismet.netxml",
	"-01.log.csv",
}

// CleanupArtifacts removes the capture files derived from prefix, stray
// keystream (.xor) files in tempDir, and aireplay replay_*.cap and .xor
// files left in the working directory. Missing files are ignored.
func CleanupArtifacts(prefix, tempDir string) {
	cleanupArtifacts(prefix, tempDir, ".")
}

func cleanupArtifacts(prefix, tempDir, workDir string) {
	for _, suffix := range artifactSuffixes {
		fsutil.RemoveFile(prefix + suffix)
	}

	var stray []string
	if tempDir != "" {
		stray = append(stray, matchFiles(tempDir, func(name string) bool {
			return strings.HasSuffix(strings.ToLower(name), ".xor")
		})...)
	}
	stray = append(stray, matchFiles(workDir, func(name string) bool {
		lower := strings.ToLower(name)
		return strings.HasSuffix(lower, ".xor") ||
			(strings.HasPrefix(name, "replay_") && strings.HasSuffix(name, ".cap"))
	})...)

	for _, path := range stray {
		fsutil.RemoveFile(path)
	}
}

func matchFiles(dir string, keep func(name string) bool) []string {
	entries, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		log.Printf("[cleanup] listing %s: %v", dir, err)
		return nil
	}
	var out []string
	for _, path := range entries {
		if keep(filepath.Base(path)) {
			out = append(out, path)
		}
	}
	return out
}
