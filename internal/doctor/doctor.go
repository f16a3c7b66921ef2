package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/admobkit/admob/internal/auth"
	"github.com/admobkit/admob/internal/config"
)

// Validate runs every check against cfg. A nil cfg means the config could
// not be loaded, which is reported by the config check.
func Validate(ctx context.Context, cfg *config.Config, store auth.CredentialStore) (required []ValidationResult, optional []ValidationResult) {
	validators := []Validator{
		&configValidator{cfg: cfg},
	}
	if cfg != nil {
		validators = append(validators,
			&callbackPortValidator{port: cfg.OAuth.CallbackPort()},
			&credentialsValidator{store: store},
		)
	}

	for _, v := range validators {
		for _, r := range v.Validate(ctx) {
			switch r.Category {
			case ValidationCategoryRequired:
				required = append(required, r)
			case ValidationCategoryOptional:
				optional = append(optional, r)
			default:
				panic(fmt.Sprintf("unknown validation result category: %s", r.Category))
			}
		}
	}

	return required, optional
}

const (
	ValidationSuccess ValidationResultType = "success"
	ValidationWarning ValidationResultType = "warning"
	ValidationError   ValidationResultType = "error"
)

type ValidationResultType string

type ValidationResult struct {
	Type     ValidationResultType
	Category ValidationResultCategory
	Message  string
}

const (
	ValidationCategoryRequired ValidationResultCategory = "required"
	ValidationCategoryOptional ValidationResultCategory = "optional"
)

type ValidationResultCategory string

type Validator interface {
	Validate(context.Context) []ValidationResult
}

type configValidator struct {
	cfg *config.Config
}

func (v *configValidator) Validate(ctx context.Context) []ValidationResult {
	if v.cfg == nil {
		return []ValidationResult{{
			Type:     ValidationError,
			Category: ValidationCategoryRequired,
			Message:  "Config could not be loaded",
		}}
	}

	if err := v.cfg.Validate(); err != nil {
		lines := strings.Split(err.Error(), "\n")

		return []ValidationResult{{
			Type:     ValidationError,
			Category: ValidationCategoryRequired,
			Message:  "Config is invalid\n" + addPrefixedSpaces(lines, 4),
		}}
	}

	results := []ValidationResult{{
		Type:     ValidationSuccess,
		Category: ValidationCategoryRequired,
		Message:  fmt.Sprintf("OAuth client %s is configured", v.cfg.OAuth.ClientID),
	}}

	if v.cfg.PublisherID == "" {
		results = append(results, ValidationResult{
			Type:     ValidationWarning,
			Category: ValidationCategoryOptional,
			Message: "No default publisher ID\n" + addPrefixedSpaces([]string{
				"Commands use the only account the credentials can access, or --publisher.",
				"Set ADMOB_PUBLISHER_ID or publisherID in the config to pick a default.",
			}, 4),
		})
	}

	return results
}

type callbackPortValidator struct {
	port int
}

func (v *callbackPortValidator) Validate(ctx context.Context) []ValidationResult {
	l, err := auth.Bind(auth.ListenerOptions{Port: v.port})
	if err != nil {
		return []ValidationResult{{
			Type:     ValidationError,
			Category: ValidationCategoryRequired,
			Message: fmt.Sprintf("Port %d is not available for the authorization response\n", v.port) + addPrefixedSpaces([]string{
				"Stop the process using it or run `admob auth login --port <port>`.",
			}, 4),
		}}
	}
	_ = l.Close()

	return []ValidationResult{{
		Type:     ValidationSuccess,
		Category: ValidationCategoryRequired,
		Message:  fmt.Sprintf("Port %d is available for the authorization response", v.port),
	}}
}

type credentialsValidator struct {
	store auth.CredentialStore
}

func (v *credentialsValidator) Validate(ctx context.Context) []ValidationResult {
	tok, err := v.store.Load()
	if err != nil {
		msg := fmt.Sprintf("Credentials could not be read: %s", err)
		if errors.Is(err, auth.ErrNoCredentials) {
			msg = "Not logged in\n" + addPrefixedSpaces([]string{"Run `admob auth login` to log in."}, 4)
		}

		return []ValidationResult{{
			Type:     ValidationError,
			Category: ValidationCategoryRequired,
			Message:  msg,
		}}
	}

	results := []ValidationResult{{
		Type:     ValidationSuccess,
		Category: ValidationCategoryRequired,
		Message:  "Credentials are stored",
	}}

	if tok.RefreshToken == "" {
		results = append(results, ValidationResult{
			Type:     ValidationWarning,
			Category: ValidationCategoryOptional,
			Message:  "No refresh token is stored, you will need to log in again when the access token expires",
		})
	}

	return results
}

func addPrefixedSpaces(lines []string, spaces int) string {
	var result []string
	for _, line := range lines {
		result = append(result, fmt.Sprintf("%s%s", strings.Repeat(" ", spaces), line))
	}

	return strings.Join(result, "\n")
}
