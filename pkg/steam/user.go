package steam

import (
	"acolyte.sh/internal/errx"
	"acolyte.sh/pkg/vdf"
)

// User is one account known to the Client. An empty AccountName is the
// "new account" sentinel that presents the Client's own login screen.
type User struct {
	SteamID     string
	AccountName string
	PersonaName string
	// Timestamp is the account's last login time as recorded by the
	// Client, kept as the opaque decimal string it writes.
	Timestamp string
}

// Users projects loginusers.vdf into a list of accounts. Ordering follows the
// file; presentation layers sort for display.
func (s *Steam) Users() ([]User, error) {
	tree, err := vdf.Load(s.ConfigPath("loginusers.vdf"))
	if err != nil {
		return nil, errx.Wrap(ErrReadUsers, err)
	}
	entries := vdf.SubkeyLookup(tree, "users")
	var users []User
	for _, steamID := range entries.Keys() {
		info, ok := entries.Child(steamID)
		if !ok {
			continue
		}
		account, _ := info.String("AccountName")
		persona, _ := info.String("PersonaName")
		timestamp, _ := info.String("Timestamp")
		users = append(users, User{
			SteamID:     steamID,
			AccountName: account,
			PersonaName: persona,
			Timestamp:   timestamp,
		})
	}
	return users, nil
}
