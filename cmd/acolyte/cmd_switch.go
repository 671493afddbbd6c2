package main

import (
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch <USER>",
	Short: "Rewrite the login config to USER's cookie and set auto-login",
	Args:  cobra.ExactArgs(1),
	RunE:  runSwitch,
}

func init() {
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	primary, err := a.acquire([]string{"switch", args[0]})
	if err != nil {
		return err
	}
	if !primary {
		return nil
	}
	return reportSwitchErr(a.sup.Switch(args[0]))
}
