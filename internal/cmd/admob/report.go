package admob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/admobkit/admob/internal/cmd"
	"github.com/admobkit/admob/internal/drive"
	"github.com/admobkit/admob/internal/errorsx"
	"github.com/admobkit/admob/internal/report"
	"github.com/admobkit/admob/internal/tableprinter"
	"github.com/admobkit/admob/internal/tui/spinner"
	"github.com/spf13/cobra"
)

type reportDefaults struct {
	Short      string
	Dimensions []string
	Metrics    []string
}

var reportKinds = []report.Kind{report.KindNetwork, report.KindMediation, report.KindCampaign}

var defaultReports = map[report.Kind]reportDefaults{
	report.KindNetwork: {
		Short:      "Generate an AdMob network report",
		Dimensions: []string{"DATE", "APP", "PLATFORM", "COUNTRY"},
		Metrics:    []string{"ESTIMATED_EARNINGS", "AD_REQUESTS", "MATCHED_REQUESTS"},
	},
	report.KindMediation: {
		Short:      "Generate a mediation report",
		Dimensions: []string{"APP", "AD_SOURCE", "COUNTRY"},
		Metrics:    []string{"CLICKS", "ESTIMATED_EARNINGS"},
	},
	report.KindCampaign: {
		Short:      "Generate a campaign report",
		Dimensions: []string{"CAMPAIGN_NAME", "COUNTRY", "AD_NAME"},
		Metrics:    []string{"IMPRESSIONS", "INSTALLS", "CLICKS"},
	},
}

type reportFlags struct {
	Start      string
	End        string
	Dimensions []string
	Metrics    []string
	Sort       []string
	Filters    map[string]string
	TimeZone   string
	Language   string
	CSV        string
	Upload     bool
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate reports",
		Long: `Generate network, mediation and campaign reports.

Dimension and metric names are passed to the API as given, see
https://developers.google.com/admob/api/reference/rest for the valid values.`,
	}

	for _, kind := range reportKinds {
		cmd.AddCommand(newReportKindCmd(kind))
	}

	return cmd
}

func newReportKindCmd(kind report.Kind) *cobra.Command {
	var (
		flags    reportFlags
		defaults = defaultReports[kind]
	)

	cmd := &cobra.Command{
		Use:   string(kind),
		Short: defaults.Short,
		Example: fmt.Sprintf(`  # Last 7 days, default columns
  admob report %[1]s

  # Custom range, written to a CSV file
  admob report %[1]s --start 2024-01-01 --end 2024-01-31 --csv report.csv

  # Upload the result to Google Drive as a spreadsheet
  admob report %[1]s --upload`, kind),
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runReport(c, kind, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Start, "start", "", "first day of the report, YYYY-MM-DD (default 7 days ago)")
	cmd.Flags().StringVar(&flags.End, "end", "", "last day of the report, YYYY-MM-DD (default yesterday)")
	cmd.Flags().StringSliceVar(&flags.Dimensions, "dimension", defaults.Dimensions, "dimensions to break down by")
	cmd.Flags().StringSliceVar(&flags.Metrics, "metric", defaults.Metrics, "metrics to report")
	cmd.Flags().StringVar(&flags.Language, "language", "", "language of dimension labels, such as en-US")
	cmd.Flags().StringVar(&flags.CSV, "csv", "", "write the report as CSV to this file, - for stdout")
	cmd.Flags().BoolVar(&flags.Upload, "upload", false, "upload the report to Google Drive as a spreadsheet, needs \"admob auth login --drive\"")

	if kind != report.KindCampaign {
		cmd.Flags().StringArrayVar(&flags.Sort, "sort", nil, "sort by a dimension or metric, KEY=ASCENDING|DESCENDING, repeatable")
		cmd.Flags().StringToStringVar(&flags.Filters, "filter", nil, "keep rows whose dimension matches, DIM=VALUE or DIM=[A,B]")
		cmd.Flags().StringVar(&flags.TimeZone, "timezone", "", "report time zone such as America/Los_Angeles (default account time zone)")
	}

	return cmd
}

func buildReportSpec(flags reportFlags, now time.Time) (report.Spec, error) {
	spec := report.Spec{
		Start:        report.DaysBefore(now, 7),
		End:          report.DaysBefore(now, 1),
		Dimensions:   flags.Dimensions,
		Metrics:      flags.Metrics,
		TimeZone:     flags.TimeZone,
		LanguageCode: flags.Language,
		Filters:      cmd.ParseFilterFlag(flags.Filters),
	}

	var err error
	if flags.Start != "" {
		if spec.Start, err = report.ParseDate(flags.Start); err != nil {
			return spec, err
		}
	}
	if flags.End != "" {
		if spec.End, err = report.ParseDate(flags.End); err != nil {
			return spec, err
		}
	}

	if spec.Sort, err = cmd.ParseSortFlag(spec, flags.Sort); err != nil {
		return spec, err
	}

	return spec, nil
}

func runReport(c *cobra.Command, kind report.Kind, flags reportFlags) error {
	spec, err := buildReportSpec(flags, time.Now())
	if err != nil {
		return err
	}
	if err := spec.Validate(kind); err != nil {
		return err
	}

	clients, err := newClients(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	pub, err := clients.publisherID(c.Context())
	if err != nil {
		return errorsx.Pretty(err)
	}

	s := spinner.New(flagDebug)
	s.WithIndicator(fmt.Sprintf("Generating %s report for %s, %s to %s...", kind, pub, spec.Start, spec.End))
	s.Start()
	r, err := clients.admob.GenerateReport(c.Context(), pub, kind, spec)
	s.Stop()
	if err != nil {
		return errorsx.Pretty(err)
	}

	for _, w := range r.Warnings {
		fmt.Fprintln(os.Stderr, infoColor.Copy().SetString("warning: "+w))
	}

	switch flags.CSV {
	case "":
		if err := printReport(os.Stdout, r); err != nil {
			return err
		}
	case "-":
		if err := r.WriteCSV(os.Stdout); err != nil {
			return err
		}
	default:
		if err := writeReportFile(flags.CSV, r); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "[%s] Wrote %d rows to %s\n", successMark, len(r.Rows), flags.CSV)
	}

	if !flags.Upload {
		return nil
	}

	name := fmt.Sprintf("admob %s report %s to %s", kind, spec.Start, spec.End)
	f, err := uploadReport(c.Context(), drive.NewUploader(clients.drive), name, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[%s] Upload failed\n", errorMark)
		return errorsx.Pretty(err)
	}
	if f == nil {
		fmt.Fprintln(os.Stderr, "No rows matched, skipping upload.")
		return nil
	}

	fmt.Fprintf(os.Stderr, "[%s] Uploaded to %s\n", successMark, f.URL)
	return nil
}

// uploadReport returns a nil file without uploading when r has no rows.
func uploadReport(ctx context.Context, u *drive.Uploader, name string, r *report.Report) (*drive.File, error) {
	if len(r.Rows) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := r.WriteCSV(&buf); err != nil {
		return nil, err
	}

	return u.UploadCSV(ctx, name, &buf)
}

func printReport(w io.Writer, r *report.Report) error {
	if len(r.Rows) == 0 {
		fmt.Fprintln(os.Stderr, "No rows matched.")
		return nil
	}

	t := tableprinter.New(w)
	t.HeaderRow(r.Header()...)
	for _, row := range r.Rows {
		for _, cell := range row {
			t.AddField(cell.Value)
		}
		t.EndRow()
	}

	return t.Render()
}

func writeReportFile(path string, r *report.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return r.WriteCSV(f)
}
