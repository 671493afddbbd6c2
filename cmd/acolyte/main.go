package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"acolyte.sh/pkg/logging"
	"acolyte.sh/pkg/session"
	"acolyte.sh/pkg/steam"
)

var rootCmd = &cobra.Command{
	Use:   "acolyte",
	Short: "A lightweight steam account manager and switcher",
	Long: `Acolyte keeps a login cookie per steam account and switches between
them without re-entering credentials.

Run without a subcommand to stay resident: acolyte claims steam's
single-instance slot while steam is down, receives launch attempts that
would have started a second steam, and supervises sessions it starts
itself. A second acolyte invocation forwards its command line to the
resident one and exits.`,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("prefix", "", "Home prefix holding steam's runtime state (default: $HOME)")
	flags.StringP("root", "r", "", "Steam root path (default: probe known locations)")
	flags.String("exe", "", "Steam launcher command")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("logfile", "", "Append structured session events to this file")

	viper.BindPFlag("acolyte.prefix", flags.Lookup("prefix"))
	viper.BindPFlag("acolyte.root", flags.Lookup("root"))
	viper.BindPFlag("acolyte.exe", flags.Lookup("exe"))
	viper.BindPFlag("acolyte.verbose", flags.Lookup("verbose"))
	viper.BindPFlag("acolyte.logfile", flags.Lookup("logfile"))

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runRoot is the resident mode: hold the locks, mirror the user list, and
// serve forwarded commands until interrupted. The graphical front-end drives
// the same loop through the router and supervisor hooks.
func runRoot(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	primary, err := a.acquire([]string{"-foreground"})
	if err != nil {
		return err
	}
	if !primary {
		return nil
	}

	if err := a.sup.Store(); err != nil {
		a.logger.Warn("initial cookie capture", "error", err)
	}
	printUsers(a.steam, cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx, cmd)
}

// serve is the resident event loop. One Client session at a time runs on its
// own goroutine. A start forwarded mid-session is queued (latest wins) the way
// the login window queues a pending login, and the running Client is sent
// -shutdown so the queued session can follow; store and switch are ignored
// while a session runs. A quit request during a session is honored only after
// the Client exits and the cookie is captured; quitting never asks the Client
// to exit.
func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	ctxDone := ctx.Done()
	var sessionDone chan error
	exitRequested := false
	pendingStart := ""
	hasPending := false

	startSession := func(user string) {
		done := make(chan error, 1)
		sessionDone = done
		go func() { done <- a.sup.Start(user, nil) }()
	}

	for {
		select {
		case <-ctxDone:
			if sessionDone == nil {
				fmt.Println()
				return ErrUserClosed
			}
			// Finish after the running session ends; asking the
			// Client to die is its user's call, not ours.
			a.logger.Info("exit requested, waiting for the client session to end")
			exitRequested = true
			ctxDone = nil

		case err := <-sessionDone:
			sessionDone = nil
			if err != nil {
				if err := reportSwitchErr(err); err != nil {
					return err
				}
			}
			if exitRequested {
				return ErrUserClosed
			}
			if hasPending {
				user := pendingStart
				hasPending = false
				startSession(user)
				continue
			}
			printUsers(a.steam, cmd)

		case <-a.router.Notify():
			forwarded, ok := a.router.Take()
			if !ok {
				continue
			}
			a.handleCommand(cmd, forwarded, sessionDone != nil, func(user string) {
				if sessionDone != nil {
					pendingStart = user
					hasPending = true
					if err := a.sup.Stop(); err != nil {
						a.logger.Warn("shutdown request", "error", err)
					}
					return
				}
				startSession(user)
			})
		}
	}
}

// handleCommand serves one forwarded command line from a secondary
// invocation. login runs or queues a session for the named user.
func (a *app) handleCommand(cmd *cobra.Command, args []string, sessionActive bool, login func(user string)) {
	_ = a.emitter.Emit(logging.EventCommandReceived, "command forwarded by peer", "",
		&logging.CommandData{Args: args})
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "store":
		if sessionActive {
			a.logger.Warn("client running, store ignored")
			return
		}
		if err := a.sup.Store(); err != nil {
			fail(err)
		}
	case "switch":
		if len(args) < 2 {
			a.logger.Warn("switch command without user", "args", args)
			return
		}
		if sessionActive {
			a.logger.Warn("client running, switch ignored", "user", args[1])
			return
		}
		if err := reportSwitchErr(a.sup.Switch(args[1])); err != nil {
			fail(err)
		}
	case "start":
		if len(args) < 2 {
			a.logger.Warn("start command without user", "args", args)
			return
		}
		login(args[1])
	case "-foreground":
		// The front-end raises its window here; headless, re-list.
		printUsers(a.steam, cmd)
	default:
		a.logger.Debug("ignoring forwarded command", "args", args)
	}
}

// printUsers writes the account table the way the login list presents it:
// case-folded sort by persona name, then account name.
func printUsers(st *steam.Steam, cmd *cobra.Command) {
	users, err := st.Users()
	if err != nil {
		fail(err)
		return
	}
	sort.SliceStable(users, func(i, j int) bool {
		pi, pj := strings.ToLower(users[i].PersonaName), strings.ToLower(users[j].PersonaName)
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(users[i].AccountName) < strings.ToLower(users[j].AccountName)
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tPERSONA\tSTEAM ID\tCOOKIE")
	for _, u := range users {
		cookie := "-"
		if st.HasCookie(u.AccountName) {
			cookie = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.AccountName, u.PersonaName, u.SteamID, cookie)
	}
	w.Flush()
}

// reportSwitchErr maps a missing cookie to a handled, user-visible message.
// Other errors surface.
func reportSwitchErr(err error) error {
	if errors.Is(err, session.ErrNoCookie) {
		fail(err)
		return nil
	}
	return err
}
