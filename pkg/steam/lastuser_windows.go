//go:build windows

package steam

import (
	"golang.org/x/sys/windows/registry"

	"acolyte.sh/internal/errx"
)

// LastUser reads AutoLoginUser from the Client's HKCU key. An absent key or
// value yields the empty account.
func (s *Steam) LastUser() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, steamUserKey, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", errx.Wrap(ErrReadRegistry, err)
	}
	defer key.Close()
	user, _, err := key.GetStringValue("AutoLoginUser")
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", errx.Wrap(ErrReadRegistry, err)
	}
	return user, nil
}

// SetLastUser rewrites AutoLoginUser and sets RememberPassword under the
// Client's HKCU key, creating the key if needed.
func (s *Steam) SetLastUser(username string) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, steamUserKey, registry.SET_VALUE)
	if err != nil {
		return errx.Wrap(ErrWriteRegistry, err)
	}
	defer key.Close()
	if err := key.SetStringValue("AutoLoginUser", username); err != nil {
		return errx.Wrap(ErrWriteRegistry, err)
	}
	if err := key.SetDWordValue("RememberPassword", 1); err != nil {
		return errx.Wrap(ErrWriteRegistry, err)
	}
	return nil
}
