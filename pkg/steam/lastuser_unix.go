//go:build unix

package steam

import (
	"path/filepath"

	"acolyte.sh/internal/errx"
	"acolyte.sh/pkg/vdf"
)

const registryKeyPath = `Registry\HKCU\Software\Valve\Steam`

// RegistryPath returns the Client's VDF registry file.
func (s *Steam) RegistryPath() string {
	return filepath.Join(s.Home, ".steam", "registry.vdf")
}

// LastUser reads AutoLoginUser from the registry file. An absent file or
// entry yields the empty account.
func (s *Steam) LastUser() (string, error) {
	tree, err := vdf.Load(s.RegistryPath())
	if err != nil {
		return "", errx.Wrap(ErrReadRegistry, err)
	}
	user, _ := vdf.SubkeyLookup(tree, registryKeyPath).String("AutoLoginUser")
	return user, nil
}

// SetLastUser rewrites AutoLoginUser and sets RememberPassword. The whole
// registry file is read, modified and written back; the lock manager excludes
// a running Client's own writes.
func (s *Steam) SetLastUser(username string) error {
	path := s.RegistryPath()
	tree, err := vdf.Load(path)
	if err != nil {
		return errx.Wrap(ErrReadRegistry, err)
	}
	entry := vdf.SubkeyLookup(tree, registryKeyPath)
	entry.SetString("AutoLoginUser", username)
	entry.SetString("RememberPassword", "1")
	if err := vdf.Save(path, tree); err != nil {
		return errx.Wrap(ErrWriteRegistry, err)
	}
	return nil
}
