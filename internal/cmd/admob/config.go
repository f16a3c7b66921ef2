package admob

import (
	"errors"
	"fmt"
	"os"

	"github.com/admobkit/admob/internal/config"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var flagConfigImportPublisher string

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigImportCmd())
	cmd.AddCommand(newConfigViewCmd())

	return cmd
}

func newConfigImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [client_secrets.json]",
		Short: "Import OAuth client credentials",
		Long: `Import the OAuth client ID and secret from a client_secrets.json file
downloaded from the Google Cloud console.`,
		Example: `  admob config import ~/Downloads/client_secrets.json --default-publisher pub-1234567890`,
		Args:    cobra.ExactArgs(1),
		RunE:    runConfigImport,
	}

	cmd.Flags().StringVar(&flagConfigImportPublisher, "default-publisher", "", "also store a default publisher ID")

	return cmd
}

func newConfigViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigView,
	}
}

func runConfigImport(c *cobra.Command, args []string) error {
	cfg, err := config.Read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		cfg = &config.Config{}
	}

	if err := config.ImportClientSecrets(cfg, args[0]); err != nil {
		return err
	}
	if flagConfigImportPublisher != "" {
		cfg.PublisherID = flagConfigImportPublisher
	}

	if err := config.Write(*cfg); err != nil {
		return err
	}

	fmt.Printf("[%s] Imported client %s\n", successMark, cfg.OAuth.ClientID)
	return nil
}

func runConfigView(c *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.OAuth.ClientSecret != "" {
		cfg.OAuth.ClientSecret = "********"
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(b)
	return err
}
