package admob

import (
	"fmt"
	"os"
	"strings"

	svc "github.com/admobkit/admob/internal/admob"
	"github.com/admobkit/admob/internal/errorsx"
	"github.com/admobkit/admob/internal/tableprinter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagAppsCreatePlatform string
	flagAppsCreateName     string

	flagAdUnitsCreateApp     string
	flagAdUnitsCreateName    string
	flagAdUnitsCreateFormat  string
	flagAdUnitsCreateAdTypes []string
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "View AdMob publisher accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the accounts the credentials can access",
		Args:  cobra.NoArgs,
		RunE:  runAccountsList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get [publisher ID ...]",
		Short: "Get one or more accounts",
		Example: `  admob accounts get pub-1234567890
  admob accounts get pub-1234567890 pub-0987654321`,
		RunE: runAccountsGet,
	})

	return cmd
}

func runAccountsList(c *cobra.Command, args []string) error {
	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	accounts, err := clients.admob.ListAccounts(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	return printAccounts(accounts)
}

func runAccountsGet(c *cobra.Command, args []string) error {
	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	if len(args) == 0 {
		id, err := clients.publisherID(c.Context())
		if err != nil {
			return errorsx.Pretty(err)
		}
		args = []string{id}
	}

	accounts := make([]svc.Account, len(args))
	g, ctx := errgroup.WithContext(c.Context())
	g.SetLimit(4)
	for i, id := range args {
		i, id := i, id
		g.Go(func() error {
			a, err := clients.admob.GetAccount(ctx, id)
			if err != nil {
				return err
			}
			accounts[i] = *a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errorsx.Pretty(err)
	}

	return printAccounts(accounts)
}

func printAccounts(accounts []svc.Account) error {
	t := tableprinter.New(os.Stdout)
	t.HeaderRow("PUBLISHER_ID", "NAME", "CURRENCY_CODE", "REPORTING_TIME_ZONE")
	for _, a := range accounts {
		t.AddField(a.PublisherID)
		t.AddField(a.Name)
		t.AddField(a.CurrencyCode)
		t.AddField(a.ReportingTZ)
		t.EndRow()
	}

	return t.Render()
}

func newAppsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apps",
		Aliases: []string{"app"},
		Short:   "View apps of an account",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List apps",
		Args:  cobra.NoArgs,
		RunE:  runAppsList,
	})
	cmd.AddCommand(newAppsCreateCmd())

	return cmd
}

func newAppsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an app that is not yet in an app store",
		Long: `Create an app that is not yet in an app store.

Requires credentials from "admob auth login --monetization".`,
		Example: `  admob apps create --platform ANDROID --name "My App"`,
		Args:    cobra.NoArgs,
		RunE:    runAppsCreate,
	}

	cmd.Flags().StringVar(&flagAppsCreatePlatform, "platform", "", "ANDROID or IOS")
	cmd.Flags().StringVar(&flagAppsCreateName, "name", "", "display name of the app")
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runAppsCreate(c *cobra.Command, args []string) error {
	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	pub, err := clients.publisherID(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	app, err := clients.admob.CreateApp(c.Context(), pub, svc.NewApp{
		Platform:    strings.ToUpper(flagAppsCreatePlatform),
		DisplayName: flagAppsCreateName,
	})
	if err != nil {
		return errorsx.Pretty(err)
	}

	fmt.Fprintf(os.Stderr, "[%s] Created app %s\n", successMark, app.AppID)
	return nil
}

func runAppsList(c *cobra.Command, args []string) error {
	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	pub, err := clients.publisherID(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	apps, err := clients.admob.ListApps(c.Context(), pub)
	if err != nil {
		return errorsx.Pretty(err)
	}

	t := tableprinter.New(os.Stdout)
	t.HeaderRow("APP_ID", "PLATFORM", "NAME", "APP_STORE_ID")
	for _, a := range apps {
		var storeID string
		if a.Linked != nil {
			storeID = a.Linked.AppStoreID
		}

		t.AddField(a.AppID)
		t.AddField(a.Platform)
		t.AddField(a.DisplayName())
		t.AddField(storeID)
		t.EndRow()
	}

	return t.Render()
}

func newAdUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "adunits",
		Aliases: []string{"adunit", "ad-units"},
		Short:   "View ad units of an account",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List ad units",
		Args:  cobra.NoArgs,
		RunE:  runAdUnitsList,
	})
	cmd.AddCommand(newAdUnitsCreateCmd())

	return cmd
}

func newAdUnitsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an ad unit for an app",
		Long: `Create an ad unit for an app.

Requires credentials from "admob auth login --monetization".`,
		Example: `  admob adunits create --app ca-app-pub-1234567890~1234567890 --name "Home banner" --format BANNER --ad-type RICH_MEDIA,VIDEO`,
		Args:    cobra.NoArgs,
		RunE:    runAdUnitsCreate,
	}

	cmd.Flags().StringVar(&flagAdUnitsCreateApp, "app", "", "app ID the ad unit belongs to")
	cmd.Flags().StringVar(&flagAdUnitsCreateName, "name", "", "display name of the ad unit")
	cmd.Flags().StringVar(&flagAdUnitsCreateFormat, "format", "", "ad format, e.g. BANNER, INTERSTITIAL or REWARDED")
	cmd.Flags().StringSliceVar(&flagAdUnitsCreateAdTypes, "ad-type", nil, "ad types served by the unit, e.g. RICH_MEDIA,VIDEO")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("format")

	return cmd
}

func runAdUnitsCreate(c *cobra.Command, args []string) error {
	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	pub, err := clients.publisherID(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	unit, err := clients.admob.CreateAdUnit(c.Context(), pub, svc.NewAdUnit{
		AppID:       flagAdUnitsCreateApp,
		DisplayName: flagAdUnitsCreateName,
		AdFormat:    strings.ToUpper(flagAdUnitsCreateFormat),
		AdTypes:     flagAdUnitsCreateAdTypes,
	})
	if err != nil {
		return errorsx.Pretty(err)
	}

	fmt.Fprintf(os.Stderr, "[%s] Created ad unit %s\n", successMark, unit.AdUnitID)
	return nil
}

func runAdUnitsList(c *cobra.Command, args []string) error {
	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	pub, err := clients.publisherID(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	units, err := clients.admob.ListAdUnits(c.Context(), pub)
	if err != nil {
		return errorsx.Pretty(err)
	}

	t := tableprinter.New(os.Stdout)
	t.HeaderRow("AD_UNIT_ID", "DISPLAY_NAME", "AD_FORMAT", "APP_ID", "AD_TYPES")
	for _, u := range units {
		t.AddField(u.AdUnitID)
		t.AddField(u.DisplayName)
		t.AddField(u.AdFormat)
		t.AddField(u.AppID)
		t.AddField(strings.Join(u.AdTypes, ","))
		t.EndRow()
	}

	return t.Render()
}
