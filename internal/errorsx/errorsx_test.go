package errorsx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/admobkit/admob/internal/api"
	"github.com/admobkit/admob/internal/auth"
	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

func Test_Pretty(t *testing.T) {
	other := errors.New("boom")

	cases := []struct {
		Name        string
		Err         error
		WantSame    bool
		WantContain string
	}{
		{
			Name: "nil",
		},
		{
			Name:        "no credentials",
			Err:         fmt.Errorf("loading: %w", auth.ErrNoCredentials),
			WantContain: "admob auth login",
		},
		{
			Name:        "bind",
			Err:         &auth.BindError{Addr: "127.0.0.1:8080", Err: errors.New("address already in use")},
			WantContain: "127.0.0.1:8080",
		},
		{
			Name:        "timeout",
			Err:         &auth.AuthorizationError{Err: auth.ErrTimeout},
			WantContain: "timed out",
		},
		{
			Name:        "state mismatch",
			Err:         &auth.AuthorizationError{Err: auth.ErrStateMismatch},
			WantContain: "did not come from this login attempt",
		},
		{
			Name:        "access denied",
			Err:         &auth.AuthorizationError{Err: &auth.MissingCodeError{Reason: "access_denied"}},
			WantContain: "access_denied",
		},
		{
			Name:        "exchange",
			Err:         &auth.TokenExchangeError{Err: &oauth2.RetrieveError{ErrorCode: "invalid_client"}},
			WantContain: "client ID and secret",
		},
		{
			Name:        "refresh rejected",
			Err:         fmt.Errorf("listing apps: %w", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}),
			WantContain: "session has expired",
		},
		{
			Name:        "forbidden",
			Err:         &api.Error{StatusCode: http.StatusForbidden, Message: "no access"},
			WantContain: "permission denied: no access",
		},
		{
			Name:     "api not found",
			Err:      &api.Error{StatusCode: http.StatusNotFound, Message: "missing"},
			WantSame: true,
		},
		{
			Name:     "unknown",
			Err:      other,
			WantSame: true,
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)

			got := Pretty(c.Err)
			switch {
			case c.Err == nil:
				assert.NoError(got)
			case c.WantSame:
				assert.Equal(c.Err, got)
			default:
				assert.ErrorContains(got, c.WantContain)
			}
		})
	}
}
