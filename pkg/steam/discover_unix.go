//go:build unix

package steam

import (
	"os"
	"path/filepath"
)

// Known config tree locations. Distributions disagree on which of these is
// the real directory and which are symlinks into it, so every prefix is
// probed; the first one carrying config/config.vdf wins.
var rootCandidates = []string{
	".local/share/Steam",
	".steam/steam",
	".steam/root",
	".steam",
}

func findRoot(home string) (string, error) {
	for _, rel := range rootCandidates {
		root := filepath.Join(home, rel)
		conf := filepath.Join(root, "config", "config.vdf")
		if dirInfo, err := os.Stat(root); err != nil || !dirInfo.IsDir() {
			continue
		}
		if confInfo, err := os.Stat(conf); err == nil && confInfo.Mode().IsRegular() {
			return root, nil
		}
	}
	return "", ErrNoInstallation
}

func findExe() (string, error) {
	return "steam", nil
}
