package errorsx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/admobkit/admob/internal/api"
	"github.com/admobkit/admob/internal/auth"
	"golang.org/x/oauth2"
)

var (
	errNotLoggedIn    = errors.New("you are not logged in. To log in, run: `admob auth login`")
	errSessionExpired = errors.New("your session has expired or was revoked. To log in again, run: `admob auth login`")
)

// Pretty turns known errors into a message a user can act on. Unknown
// errors are returned unchanged.
func Pretty(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, auth.ErrNoCredentials) {
		return errNotLoggedIn
	}

	if e := new(auth.BindError); errors.As(err, &e) {
		return fmt.Errorf("could not listen on %s for the authorization response, is another login running? Use --port to pick another port", e.Addr)
	}

	if errors.Is(err, auth.ErrTimeout) {
		return errors.New("timed out waiting for the browser to return, run `admob auth login` to try again")
	}

	if errors.Is(err, auth.ErrStateMismatch) {
		return errors.New("the authorization response did not come from this login attempt, run `admob auth login` to try again")
	}

	if e := new(auth.MissingCodeError); errors.As(err, &e) {
		return fmt.Errorf("authorization was not granted: %s", e.Reason)
	}

	if e := new(auth.TokenExchangeError); errors.As(err, &e) {
		return fmt.Errorf("could not exchange the authorization code for a token, check the client ID and secret: %w", e.Err)
	}

	if e := new(oauth2.RetrieveError); errors.As(err, &e) {
		return errSessionExpired
	}

	if e := new(api.Error); errors.As(err, &e) {
		switch e.StatusCode {
		case http.StatusUnauthorized:
			return errSessionExpired
		case http.StatusForbidden:
			return fmt.Errorf("permission denied: %s", e.Message)
		}
	}

	return err
}
