package main

import (
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <USER>",
	Short: "Switch to USER, launch steam, and recapture the cookie on exit",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	primary, err := a.acquire([]string{"start", args[0]})
	if err != nil {
		return err
	}
	if !primary {
		return nil
	}

	// Commands forwarded while we were acquiring become spawn arguments
	// for this session.
	extra, _ := a.router.Take()
	return reportSwitchErr(a.sup.Start(args[0], extra))
}
