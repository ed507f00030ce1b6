package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/ikusi/acta-ui/config"
	"github.com/ikusi/acta-ui/internal/dashboard"
	"github.com/ikusi/acta-ui/internal/identity"
	"github.com/ikusi/acta-ui/internal/session"
)

const hostedLoginTimeout = 5 * time.Minute

var (
	errNotSignedIn = errors.New("not signed in, run `acta login` first")
	errMemoryCache = errors.New("ACTA_TOKEN_CACHE=memory keeps no session after this command exits; use file or redis to sign in")
)

var (
	loginHosted   bool
	loginUsername string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and cache the identity token",
	Long: `Sign in against the user pool. The password is read from ACTA_PASSWORD
or prompted for. With --hosted the browser sign-in page is used instead.

In mock mode any username is accepted and no network call is made.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// the dashboard signs in on its own and may keep the session in memory
		if application.Config.Auth.TokenCache == config.TokenCacheMemory {
			return errMemoryCache
		}
		return runLogin(cmd, args)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the cached session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().BoolVar(&loginHosted, "hosted", false, "Sign in through the hosted sign-in page")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (email)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	in := bufio.NewReader(cmd.InOrStdin())

	var (
		tokens session.Tokens
		err    error
	)
	switch {
	case application.Mock:
		username, perr := valueOrPrompt(cmd, in, loginUsername, "Username: ")
		if perr != nil {
			return perr
		}
		tokens, err = identity.OfflineTokens(username, time.Hour)
	case loginHosted:
		tokens, err = hostedLogin(ctx, cmd)
	default:
		tokens, err = passwordLogin(ctx, cmd, in)
	}
	if err != nil {
		return err
	}

	if err := application.SignIn(ctx, tokens); err != nil {
		return err
	}

	who := "unknown user"
	if claims, err := session.ParseClaims(tokens.IDToken); err == nil && claims.Email != "" {
		who = claims.Email
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s until %s\n", who, tokens.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func passwordLogin(ctx context.Context, cmd *cobra.Command, in *bufio.Reader) (session.Tokens, error) {
	auth, err := application.PasswordAuthenticator(ctx)
	if err != nil {
		return session.Tokens{}, err
	}
	username, err := valueOrPrompt(cmd, in, loginUsername, "Username: ")
	if err != nil {
		return session.Tokens{}, err
	}
	password := os.Getenv("ACTA_PASSWORD")
	if password == "" {
		if password, err = promptSecret(cmd, in, "Password: "); err != nil {
			return session.Tokens{}, err
		}
	}
	return auth.SignIn(ctx, username, password)
}

func hostedLogin(ctx context.Context, cmd *cobra.Command) (session.Tokens, error) {
	hosted, err := application.HostedUI()
	if err != nil {
		return session.Tokens{}, err
	}
	state, err := identity.NewState()
	if err != nil {
		return session.Tokens{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, hostedLoginTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintln(stderr, "Opening the sign-in page. If no browser starts, visit:")
	opener := dashboard.FallbackOpener{dashboard.BrowserOpener{}, dashboard.PrintOpener{W: stderr}}
	url := hosted.AuthCodeURL(state)
	if err := opener.Open(ctx, url); err != nil {
		return session.Tokens{}, err
	}

	code, err := identity.ReceiveCode(ctx, application.Config.Auth.RedirectURL, state)
	if err != nil {
		return session.Tokens{}, err
	}
	return hosted.Exchange(ctx, code)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	token, ok := session.IDToken(cmd.Context(), application.Store)
	if !ok {
		return errNotSignedIn
	}
	claims, err := session.ParseClaims(token)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Email:    %s\n", claims.Email)
	if claims.Username != "" {
		fmt.Fprintf(out, "Username: %s\n", claims.Username)
	}
	if len(claims.Groups) > 0 {
		fmt.Fprintf(out, "Groups:   %s\n", strings.Join(claims.Groups, ", "))
	}
	if claims.ExpiresAt != nil {
		fmt.Fprintf(out, "Expires:  %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func valueOrPrompt(cmd *cobra.Command, in *bufio.Reader, value, label string) (string, error) {
	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), label)
	return readLine(in)
}

// promptSecret reads without echo when stdin is a terminal.
func promptSecret(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(f.Fd()) {
		b, err := term.ReadPassword(f.Fd())
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
