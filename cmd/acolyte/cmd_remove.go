package main

import (
	"github.com/spf13/cobra"

	"acolyte.sh/pkg/logging"
)

var logoutCmd = &cobra.Command{
	Use:   "logout <USER>",
	Short: "Delete USER's saved login cookie",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var removeCmd = &cobra.Command{
	Use:     "remove <USER>",
	Aliases: []string{"rm"},
	Short:   "Forget USER entirely: cookie, login list entry and account record",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(removeCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	primary, err := a.acquire([]string{"logout", args[0]})
	if err != nil {
		return err
	}
	if !primary {
		return nil
	}
	if err := a.steam.RemoveLoginCookie(args[0]); err != nil {
		return err
	}
	_ = a.emitter.Emit(logging.EventCookieRemoved, "deleted saved login", args[0], nil)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	primary, err := a.acquire([]string{"remove", args[0]})
	if err != nil {
		return err
	}
	if !primary {
		return nil
	}
	if err := a.steam.RemoveUser(args[0]); err != nil {
		return err
	}
	_ = a.emitter.Emit(logging.EventUserRemoved, "removed user from list", args[0], nil)
	return nil
}
