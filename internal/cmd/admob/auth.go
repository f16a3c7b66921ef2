package admob

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/admobkit/admob/internal/auth"
	"github.com/admobkit/admob/internal/cmd"
	"github.com/admobkit/admob/internal/config"
	"github.com/admobkit/admob/internal/errorsx"
	"github.com/admobkit/admob/internal/iostreams"
	"github.com/admobkit/admob/internal/log"
	"github.com/eiannone/keyboard"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
	"golang.org/x/oauth2"
)

var (
	flagAuthLoginDrive        bool
	flagAuthLoginMonetization bool
	flagAuthLoginPort         int
	flagAuthLoginNoBrowser    bool
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a Google account",
		Long: `Log in with a Google account that has access to AdMob.

The authorization page opens in your browser and redirects back to a
listener on 127.0.0.1. The resulting credentials are kept in the OS keyring,
or in a file when credentialStore is "file".`,
		Example: `  # Log in with read-only AdMob access
  admob auth login

  # Also allow uploading reports to Google Drive
  admob auth login --drive

  # Allow creating apps and ad units
  admob auth login --monetization`,
		RunE: runAuthLogin,
	}

	cmd.Flags().BoolVar(&flagAuthLoginDrive, "drive", false, "also request access to create files in Google Drive, needed by report --upload")
	cmd.Flags().BoolVar(&flagAuthLoginMonetization, "monetization", false, "also request access to create apps and ad units")
	cmd.Flags().IntVar(&flagAuthLoginPort, "port", 0, "local port for the authorization response (default from config, 8080)")
	cmd.Flags().BoolVar(&flagAuthLoginNoBrowser, "no-browser", false, "print the authorization URL instead of opening a browser")

	return cmd
}

// loginScopes adds the optional scopes to the configured ones once.
func loginScopes(scopes []string, drive, monetization bool) []string {
	result := append([]string(nil), scopes...)
	if drive && !slices.Contains(result, config.ScopeDriveFile) {
		result = append(result, config.ScopeDriveFile)
	}
	if monetization && !slices.Contains(result, config.ScopeAdMobMonetization) {
		result = append(result, config.ScopeAdMobMonetization)
	}

	return result
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE:  runAuthLogout,
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "View authentication status",
		RunE:  runAuthStatus,
	}
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token",
		RunE:  runAuthToken,
	}
}

func runAuthLogin(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		io     = iostreams.NewIOStreams()
		logger = log.NewTextLogger()
		params = flowParams(cfg, logger)
	)

	if flagAuthLoginPort != 0 {
		params.Port = flagAuthLoginPort
	}
	params.Scopes = loginScopes(params.Scopes, flagAuthLoginDrive, flagAuthLoginMonetization)

	err = auth.Login(c.Context(), auth.LoginOptions{
		Params: params,
		Store:  credentialStore(cfg),
		BeforeLogin: func(authURL string) (bool, error) {
			fmt.Fprintf(io.Stderr, "Open this URL to authorize access:\n\n  %s\n\n", authURL)

			if flagAuthLoginNoBrowser || !io.IsTerminal() {
				fmt.Fprintln(io.Stderr, "Waiting for the authorization response...")
				return true, nil
			}

			if err := io.Prompt("Press Enter to open the URL in your browser...", nil, []keyboard.Key{keyboard.KeyEnter}); err != nil {
				if errors.Is(err, iostreams.ErrAbortPrompt) {
					return false, nil
				}
				return false, err
			}

			if err := browser.OpenURL(authURL); err != nil {
				logger.Debug("error opening browser", "error", err)
				fmt.Fprintln(io.Stderr, "Could not open a browser, open the URL above manually.")
			}

			return true, nil
		},
		AfterLogin: func(tok *oauth2.Token) error {
			fmt.Fprintf(io.Stdout, "[%s] Logged in\n", successMark)
			if tok.RefreshToken == "" {
				fmt.Fprintln(io.Stderr, infoColor.Copy().SetString("No refresh token was issued, you will need to log in again when the access token expires."))
			}
			return nil
		},
	})
	if err != nil {
		logger.Debug("error logging in", "error", err)
		if errors.Is(err, auth.ErrCancelled) {
			return cmd.SilentError
		}

		return errorsx.Pretty(err)
	}

	return nil
}

func runAuthLogout(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.NewTextLogger()
	if err := auth.Logout(credentialStore(cfg)); err != nil {
		logger.Debug("error logging out", "error", err)
		if errors.Is(err, auth.ErrNoCredentials) {
			return errors.New("not logged in")
		}
		return err
	}

	fmt.Println("Logged out")
	return nil
}

func runAuthStatus(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tok, err := credentialStore(cfg).Load()
	if err != nil {
		return errorsx.Pretty(err)
	}

	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	accounts, err := clients.admob.ListAccounts(c.Context())
	if err != nil {
		fmt.Fprintf(os.Stdout, "[%s] Stored credentials for client %s are not usable\n", errorMark, cfg.OAuth.ClientID)
		return errorsx.Pretty(err)
	}

	fmt.Fprintf(os.Stdout, "[%s] Logged in with client %s\n", successMark, cfg.OAuth.ClientID)
	for _, a := range accounts {
		fmt.Fprintf(os.Stdout, "  - account %s (%s)\n", a.PublisherID, a.CurrencyCode)
	}
	if !tok.Expiry.IsZero() {
		fmt.Fprintf(os.Stdout, "  - access token expires %s\n", tok.Expiry.Local().Format(time.RFC1123))
	}
	if tok.RefreshToken == "" {
		fmt.Fprintln(os.Stdout, "  - no refresh token stored")
	}

	return nil
}

func runAuthToken(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.NewTextLogger()
	ts, err := auth.TokenSource(c.Context(), flowParams(cfg, logger), credentialStore(cfg))
	if err != nil {
		return errorsx.Pretty(err)
	}

	tok, err := ts.Token()
	if err != nil {
		logger.Debug("error refreshing token", "error", err)
		return errorsx.Pretty(err)
	}

	fmt.Println(tok.AccessToken)
	return nil
}
