package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagEmail     string
	flagRawOnly   bool
	flagNoRender  bool
	flagHeadless  bool
	flagNoConfirm bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <profile-url>",
	Short: "Log in, harvest a profile page and render it",
	Long: `Extract logs into LinkedIn with the given credentials, opens the profile,
expands truncated sections and saves the page text to raw_profile.txt. Unless
--raw-only is set the text is then structured and rendered.

The password is read from LINKEDIN_PASSWORD or prompted for. If LinkedIn shows
a verification challenge, solve it in the browser window and press Enter.

Examples:
  profilex extract https://www.linkedin.com/in/jane-doe --email jane@example.com
  profilex extract https://www.linkedin.com/in/jane-doe --raw-only`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVar(&flagEmail, "email", "", "LinkedIn login email (default: LINKEDIN_EMAIL)")
	extractCmd.Flags().BoolVar(&flagRawOnly, "raw-only", false, "Stop after saving raw text")
	extractCmd.Flags().BoolVar(&flagNoRender, "no-render", false, "Structure but do not render")
	extractCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Run the browser headless (challenges cannot be solved)")
	extractCmd.Flags().BoolVar(&flagNoConfirm, "no-challenge-prompt", false, "Fail instead of waiting when a challenge appears")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	defer a.Close()
	if flagHeadless {
		a.cfg.BrowserHeadless = true
	}

	// One buffer for every line read from stdin.
	stdin := bufio.NewReader(os.Stdin)
	creds, err := readCredentials(stdin)
	if err != nil {
		return err
	}

	caps := pipeline.Capabilities{Structure: !flagRawOnly, Render: !flagRawOnly && !flagNoRender}
	orch, err := a.orchestrator(ctx, caps)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		ProfileURL:  args[0],
		Credentials: creds,
		Observe: func(s pipeline.Stage) {
			fmt.Fprintf(os.Stderr, "-> %s\n", s)
		},
	}
	if !flagNoConfirm && !a.cfg.BrowserHeadless {
		req.Resolver = browser.ConsoleResolver{In: stdin, Out: os.Stderr}
	}
	return report(orch.ExtractAndRender(ctx, req))
}

func readCredentials(stdin *bufio.Reader) (browser.Credentials, error) {
	email := flagEmail
	if email == "" {
		email = os.Getenv("LINKEDIN_EMAIL")
	}
	if email == "" {
		fmt.Fprint(os.Stderr, "LinkedIn email: ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return browser.Credentials{}, fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	password := os.Getenv("LINKEDIN_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "LinkedIn password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return browser.Credentials{}, fmt.Errorf("read password: %w", err)
		}
		password = string(b)
	}

	creds := browser.Credentials{Email: email, Password: password}
	return creds, browser.ValidateCredentials(creds)
}
