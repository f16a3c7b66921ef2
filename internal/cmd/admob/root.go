package admob

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/admobkit/admob"
	"github.com/admobkit/admob/internal/config"
	"github.com/admobkit/admob/internal/log"
	"github.com/admobkit/admob/internal/upgrade"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	flagDebug       bool
	flagConfigPath  string
	flagLogFile     string
	flagPublisherID string
)

var (
	successMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#008000")).SetString("✓")
	errorMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("x")
	infoColor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
)

func Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "admob",
		Short:         "AdMob API command line tool",
		Long:          `Query AdMob accounts, apps, ad units and reports from the command line.`,
		Version:       admob.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				log.SetLevel(slog.LevelDebug)
			}
			if flagLogFile != "" {
				log.SetOutputFile(flagLogFile)
			}
			if flagConfigPath != "" {
				config.SetPath(flagConfigPath)
			}

			return checkUpgrade(cmd.Context())
		},
	}

	root.AddCommand(newAuthCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newAccountsCmd())
	root.AddCommand(newAppsCmd())
	root.AddCommand(newAdUnitsCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newDoctorCmd())

	root.PersistentFlags().BoolVar(&flagDebug, "debug", os.Getenv("DEBUG") != "", "enable debug logging")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to the config file (default "+config.ConfigDir()+"/config.yml)")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also write logs to this file, rotated by size")
	root.PersistentFlags().StringVar(&flagPublisherID, "publisher", "", "publisher ID such as pub-1234567890 (default from config or ADMOB_PUBLISHER_ID)")

	return root
}

func Execute(ctx context.Context) (*cobra.Command, error) {
	return Command().ExecuteContextC(ctx)
}

func checkUpgrade(ctx context.Context) error {
	c := upgrade.NewChecker(log.NewTextLogger())
	result, err := c.Check(ctx)
	if err != nil {
		return err
	}

	if result.HasUpgrade {
		msg := fmt.Sprintf("admob %s available (%s installed), see %s", result.LatestVersion, result.CurrentVersion, upgrade.ReleaseURL(result.LatestVersion))
		fmt.Fprintln(os.Stderr, infoColor.Copy().SetString(msg))
	}

	return nil
}
