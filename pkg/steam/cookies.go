package steam

import (
	"os"
	"path/filepath"

	"acolyte.sh/internal/errx"
	"acolyte.sh/pkg/vdf"
)

const accountsPath = `InstallConfigStore\Software\Valve\Steam\Accounts`

// StoreLoginCookie snapshots config/config.vdf for the account currently set
// as AutoLoginUser. The snapshot is taken only while the account is still
// listed (and non-empty) in the Accounts map; if the user logged out from
// inside the Client, the previous cookie is left alone so the last known good
// credential blob survives. Returns whether a cookie was written.
//
// Must only be called while the Client lock is held.
func (s *Steam) StoreLoginCookie() (bool, error) {
	username, err := s.LastUser()
	if err != nil {
		return false, err
	}
	if username == "" {
		return false, nil
	}
	config, err := s.ReadConfig("config.vdf")
	if err != nil {
		return false, err
	}
	if !accountListed(config, username) {
		s.logger.Debug("account absent from Accounts, keeping previous cookie", "user", username)
		return false, nil
	}
	cookie := s.CookiePath(username)
	if err := os.MkdirAll(filepath.Dir(cookie), 0o755); err != nil {
		return false, errx.Wrap(ErrCookieCopy, err)
	}
	if err := copyFile(s.ConfigPath("config.vdf"), cookie); err != nil {
		return false, err
	}
	s.logger.Debug("stored login cookie", "user", username)
	return true, nil
}

// RemoveLoginCookie deletes the stored cookie for the account. A missing
// cookie is not an error.
func (s *Steam) RemoveLoginCookie(username string) error {
	err := os.Remove(s.CookiePath(username))
	if err != nil && !os.IsNotExist(err) {
		return errx.Wrap(ErrCookieCopy, err)
	}
	return nil
}

// HasCookie reports whether a cookie is stored for the account.
func (s *Steam) HasCookie(username string) bool {
	if username == "" {
		return false
	}
	info, err := os.Stat(s.CookiePath(username))
	return err == nil && info.Mode().IsRegular()
}

// SwitchUser points the Client at the given account and restores its cookie
// over config/config.vdf. An empty name selects the "new account" sentinel:
// only AutoLoginUser is rewritten and the Client presents its default login
// screen. Returns false without touching config.vdf when no cookie is stored
// for the account.
//
// Must only be called while the Client lock is held. The last-user write
// deliberately precedes the cookie restore: a crash in between leaves the
// Client pointing at a user without a restored cookie, and it falls back to
// its own login UI on next launch.
func (s *Steam) SwitchUser(username string) (bool, error) {
	if err := s.SetLastUser(username); err != nil {
		return false, err
	}
	if username == "" {
		return true, nil
	}
	if !s.HasCookie(username) {
		return false, nil
	}
	if err := copyFile(s.CookiePath(username), s.ConfigPath("config.vdf")); err != nil {
		return false, err
	}
	s.logger.Debug("switched user", "user", username)
	return true, nil
}

// RemoveUser forgets the account: its cookie, its loginusers.vdf entries and
// its key in the Accounts map. Idempotent; removing an unknown account makes
// no change.
func (s *Steam) RemoveUser(username string) error {
	if username == "" {
		return nil
	}
	if err := s.RemoveLoginCookie(username); err != nil {
		return err
	}

	login, err := vdf.Load(s.ConfigPath("loginusers.vdf"))
	if err != nil {
		return errx.Wrap(ErrReadUsers, err)
	}
	entries := vdf.SubkeyLookup(login, "users")
	for _, steamID := range entries.Keys() {
		info, ok := entries.Child(steamID)
		if !ok {
			continue
		}
		if account, _ := info.String("AccountName"); account == username {
			entries.Delete(steamID)
		}
	}
	if err := vdf.Save(s.ConfigPath("loginusers.vdf"), login); err != nil {
		return errx.Wrap(ErrWriteConfig, err)
	}

	config, err := s.ReadConfig("config.vdf")
	if err != nil {
		return err
	}
	vdf.SubkeyLookup(config, accountsPath).Delete(username)
	if err := vdf.Save(s.ConfigPath("config.vdf"), config); err != nil {
		return errx.Wrap(ErrWriteConfig, err)
	}
	return nil
}

// accountListed reports whether username has a non-empty entry in the
// Accounts map of config.vdf.
func accountListed(config *vdf.Node, username string) bool {
	accounts := vdf.SubkeyLookup(config, accountsPath)
	if child, ok := accounts.Child(username); ok {
		return child.Len() > 0
	}
	if value, ok := accounts.String(username); ok {
		return value != ""
	}
	return false
}

// copyFile copies src to dst bytewise. Cookies must be byte-identical to the
// config they snapshot.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errx.Wrap(ErrCookieCopy, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errx.Wrap(ErrCookieCopy, err)
	}
	return nil
}
