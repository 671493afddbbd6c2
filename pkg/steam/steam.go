// Package steam models the Client installation: where it lives on disk, which
// accounts it knows, and the per-account login cookies the supervisor keeps.
//
// A cookie is a bytewise snapshot of config/config.vdf taken while its account
// was the one the Client last logged in as. Restoring the snapshot and setting
// AutoLoginUser is sufficient to resume that session without credentials.
package steam

import (
	"log/slog"
	"os"
	"path/filepath"

	"acolyte.sh/internal/errx"
	"acolyte.sh/pkg/vdf"
)

// Steam is a handle on one Client installation.
type Steam struct {
	// Root is the config tree containing config/config.vdf,
	// config/loginusers.vdf and the supervisor-owned acolyte/ subtree.
	Root string
	// Exe is the launcher command.
	Exe string
	// Home is the prefix under which the Client keeps its per-user state
	// files (~/.steam). Overridable for tests and via --prefix.
	Home string

	logger *slog.Logger
}

// New locates the installation and returns a handle. Empty root, exe or home
// select platform discovery (§ findRoot/findExe). Discovery failure is an
// ErrNoInstallation.
func New(root, exe, home string, logger *slog.Logger) (*Steam, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, errx.Wrap(ErrNoInstallation, err)
		}
		home = h
	}
	if root == "" {
		r, err := findRoot(home)
		if err != nil {
			return nil, err
		}
		root = r
	}
	if exe == "" {
		e, err := findExe()
		if err != nil {
			return nil, err
		}
		exe = e
	}
	logger.Debug("steam installation", "root", root, "exe", exe)
	return &Steam{
		Root:   root,
		Exe:    exe,
		Home:   home,
		logger: logger.With("component", "steam"),
	}, nil
}

// ConfigPath returns the path of a file inside the Client's config directory.
func (s *Steam) ConfigPath(name string) string {
	return filepath.Join(s.Root, "config", name)
}

// CookiePath returns the path of the stored cookie for the given account.
func (s *Steam) CookiePath(username string) string {
	return filepath.Join(s.AcolyteDir(), username, "config.vdf")
}

// AcolyteDir returns the supervisor-owned subtree inside the Client root.
func (s *Steam) AcolyteDir() string {
	return filepath.Join(s.Root, "acolyte")
}

// ReadConfig reads a VDF file from the Client's config directory. A missing
// file yields an empty tree.
func (s *Steam) ReadConfig(name string) (*vdf.Node, error) {
	tree, err := vdf.Load(s.ConfigPath(name))
	if err != nil {
		return nil, errx.Wrap(ErrReadConfig, err)
	}
	return tree, nil
}
