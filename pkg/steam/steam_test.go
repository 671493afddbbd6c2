//go:build unix

package steam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acolyte.sh/pkg/vdf"
)

const testLoginUsers = `"users"
{
	"76561198000000001"
	{
		"AccountName"		"alice"
		"PersonaName"		"Alice"
		"Timestamp"		"1700000001"
	}
	"76561198000000002"
	{
		"AccountName"		"bob"
		"PersonaName"		"Bob"
		"Timestamp"		"1700000002"
	}
}
`

func writeTestConfig(t *testing.T, root string, accounts ...string) {
	t.Helper()
	tree := vdf.NewNode()
	entries := vdf.SubkeyLookup(tree, accountsPath)
	for _, name := range accounts {
		acct := vdf.NewNode()
		acct.SetString("SteamID", "76561198000000001")
		entries.SetChild(name, acct)
	}
	require.NoError(t, vdf.Save(filepath.Join(root, "config", "config.vdf"), tree))
}

func newTestSteam(t *testing.T, accounts ...string) *Steam {
	t.Helper()
	home := t.TempDir()
	root := filepath.Join(home, ".local", "share", "Steam")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".steam"), 0o755))
	writeTestConfig(t, root, accounts...)
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "config", "loginusers.vdf"), []byte(testLoginUsers), 0o644))

	s, err := New(root, "steam", home, nil)
	require.NoError(t, err)
	return s
}

func TestFindRootProbesPrefixes(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, ".steam", "steam")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "config", "config.vdf"), []byte("\"InstallConfigStore\"\n{\n}\n"), 0o644))

	s, err := New("", "", home, nil)
	require.NoError(t, err)
	assert.Equal(t, root, s.Root)
	assert.Equal(t, "steam", s.Exe)
}

func TestFindRootMissing(t *testing.T) {
	_, err := New("", "", t.TempDir(), nil)
	require.ErrorIs(t, err, ErrNoInstallation)
}

func TestUsers(t *testing.T) {
	s := newTestSteam(t, "alice", "bob")
	users, err := s.Users()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].AccountName)
	assert.Equal(t, "Alice", users[0].PersonaName)
	assert.Equal(t, "76561198000000001", users[0].SteamID)
	assert.Equal(t, "1700000002", users[1].Timestamp)
}

func TestUsersMissingFile(t *testing.T) {
	s := newTestSteam(t, "alice")
	require.NoError(t, os.Remove(s.ConfigPath("loginusers.vdf")))
	users, err := s.Users()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLastUserRoundTrip(t *testing.T) {
	s := newTestSteam(t)
	user, err := s.LastUser()
	require.NoError(t, err)
	assert.Equal(t, "", user)

	require.NoError(t, s.SetLastUser("alice"))
	user, err = s.LastUser()
	require.NoError(t, err)
	assert.Equal(t, "alice", user)

	tree, err := vdf.Load(s.RegistryPath())
	require.NoError(t, err)
	remember, _ := vdf.SubkeyLookup(tree, registryKeyPath).String("RememberPassword")
	assert.Equal(t, "1", remember)
}

func TestStoreLoginCookie(t *testing.T) {
	s := newTestSteam(t, "alice")
	require.NoError(t, s.SetLastUser("alice"))

	stored, err := s.StoreLoginCookie()
	require.NoError(t, err)
	require.True(t, stored)
	require.True(t, s.HasCookie("alice"))

	config, err := os.ReadFile(s.ConfigPath("config.vdf"))
	require.NoError(t, err)
	cookie, err := os.ReadFile(s.CookiePath("alice"))
	require.NoError(t, err)
	assert.Equal(t, config, cookie)
}

func TestStoreLoginCookieAccountAbsent(t *testing.T) {
	s := newTestSteam(t, "bob")
	require.NoError(t, s.SetLastUser("alice"))

	// alice already has a cookie from an earlier session; logging out from
	// inside the Client removed her from Accounts. The old cookie survives.
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CookiePath("alice")), 0o755))
	require.NoError(t, os.WriteFile(s.CookiePath("alice"), []byte("old cookie"), 0o644))

	stored, err := s.StoreLoginCookie()
	require.NoError(t, err)
	assert.False(t, stored)
	data, err := os.ReadFile(s.CookiePath("alice"))
	require.NoError(t, err)
	assert.Equal(t, "old cookie", string(data))
}

func TestStoreLoginCookieNoLastUser(t *testing.T) {
	s := newTestSteam(t, "alice")
	stored, err := s.StoreLoginCookie()
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestSwitchUser(t *testing.T) {
	s := newTestSteam(t, "bob")
	cookie := []byte("bob's config snapshot")
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CookiePath("bob")), 0o755))
	require.NoError(t, os.WriteFile(s.CookiePath("bob"), cookie, 0o644))

	ok, err := s.SwitchUser("bob")
	require.NoError(t, err)
	require.True(t, ok)

	config, err := os.ReadFile(s.ConfigPath("config.vdf"))
	require.NoError(t, err)
	assert.Equal(t, cookie, config)

	user, err := s.LastUser()
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}

func TestSwitchUserMissingCookie(t *testing.T) {
	s := newTestSteam(t, "alice")
	before, err := os.ReadFile(s.ConfigPath("config.vdf"))
	require.NoError(t, err)

	ok, err := s.SwitchUser("carol")
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := os.ReadFile(s.ConfigPath("config.vdf"))
	require.NoError(t, err)
	assert.Equal(t, before, after, "config.vdf must stay untouched")

	// The last-user write still happened, by design.
	user, err := s.LastUser()
	require.NoError(t, err)
	assert.Equal(t, "carol", user)
}

func TestSwitchUserNewAccountSentinel(t *testing.T) {
	s := newTestSteam(t, "alice")
	ok, err := s.SwitchUser("")
	require.NoError(t, err)
	assert.True(t, ok)
	user, err := s.LastUser()
	require.NoError(t, err)
	assert.Equal(t, "", user)
}

func TestRemoveUser(t *testing.T) {
	s := newTestSteam(t, "alice", "bob")
	require.NoError(t, os.MkdirAll(filepath.Dir(s.CookiePath("alice")), 0o755))
	require.NoError(t, os.WriteFile(s.CookiePath("alice"), []byte("cookie"), 0o644))

	require.NoError(t, s.RemoveUser("alice"))

	assert.False(t, s.HasCookie("alice"))
	users, err := s.Users()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].AccountName)

	config, err := s.ReadConfig("config.vdf")
	require.NoError(t, err)
	accounts := vdf.SubkeyLookup(config, accountsPath)
	_, hasAlice := accounts.Child("alice")
	assert.False(t, hasAlice)
	_, hasBob := accounts.Child("bob")
	assert.True(t, hasBob)
}

func TestRemoveUserIdempotent(t *testing.T) {
	s := newTestSteam(t, "alice", "bob")
	require.NoError(t, s.RemoveUser("alice"))

	loginBefore, err := os.ReadFile(s.ConfigPath("loginusers.vdf"))
	require.NoError(t, err)
	configBefore, err := os.ReadFile(s.ConfigPath("config.vdf"))
	require.NoError(t, err)

	require.NoError(t, s.RemoveUser("alice"))

	loginAfter, err := os.ReadFile(s.ConfigPath("loginusers.vdf"))
	require.NoError(t, err)
	configAfter, err := os.ReadFile(s.ConfigPath("config.vdf"))
	require.NoError(t, err)
	assert.Equal(t, loginBefore, loginAfter)
	assert.Equal(t, configBefore, configAfter)
}

func TestHasCookieEmptyName(t *testing.T) {
	s := newTestSteam(t)
	assert.False(t, s.HasCookie(""))
}
