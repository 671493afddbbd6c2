package main

import (
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Capture the current login cookie from the live config",
	Args:  cobra.NoArgs,
	RunE:  runStore,
}

func init() {
	rootCmd.AddCommand(storeCmd)
}

func runStore(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	primary, err := a.acquire([]string{"store"})
	if err != nil {
		return err
	}
	if !primary {
		return nil
	}
	return a.sup.Store()
}
