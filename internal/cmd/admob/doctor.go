package admob

import (
	"fmt"
	"os"
	"strings"

	"github.com/admobkit/admob/internal/auth"
	"github.com/admobkit/admob/internal/config"
	"github.com/admobkit/admob/internal/doctor"
	"github.com/admobkit/admob/internal/log"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var warnMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).SetString("!")

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check your setup for potential problems",
		Long:  `Check the config, the authorization callback port and the stored credentials. Exits with a non-zero status if a required check fails.`,
		Args:  cobra.NoArgs,
		Run:   runDoctor,
	}
}

func runDoctor(c *cobra.Command, args []string) {
	var (
		lines        []string
		failureCount int
		logger       = log.NewTextLogger()
	)

	var store auth.CredentialStore
	cfg, err := config.Load()
	if err != nil {
		logger.Debug("error loading config", "error", err)
	} else {
		store = credentialStore(cfg)
	}

	required, optional := doctor.Validate(c.Context(), cfg, store)
	for _, result := range append(required, optional...) {
		var line string

		switch result.Type {
		case doctor.ValidationSuccess:
			line = fmt.Sprintf("[%s] %s", successMark, result.Message)
		case doctor.ValidationWarning:
			line = fmt.Sprintf("[%s] %s", warnMark, result.Message)
		case doctor.ValidationError:
			line = fmt.Sprintf("[%s] %s", errorMark, result.Message)
			failureCount++
		default:
			panic(fmt.Sprintf("unknown validation result type: %s", result.Type))
		}

		lines = append(lines, line)
	}

	if failureCount == 0 {
		lines = append([]string{"Your setup is ready to use admob"}, lines...)
	} else {
		lines = append([]string{"Your setup is not ready to use admob"}, lines...)
	}

	fmt.Println(strings.Join(lines, "\n"))
	if failureCount > 0 {
		os.Exit(1)
	}
}
