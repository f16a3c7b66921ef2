package admob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/admobkit/admob/internal/api"
	"github.com/admobkit/admob/internal/config"
	"github.com/admobkit/admob/internal/drive"
	"github.com/admobkit/admob/internal/log"
	"github.com/admobkit/admob/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func Test_buildReportSpec(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		Name     string
		Flags    reportFlags
		WantSpec report.Spec
		WantErr  bool
	}{
		{
			Name: "default range",
			Flags: reportFlags{
				Dimensions: []string{"DATE"},
				Metrics:    []string{"CLICKS"},
			},
			WantSpec: report.Spec{
				Start:      report.Date{Year: 2024, Month: 3, Day: 3},
				End:        report.Date{Year: 2024, Month: 3, Day: 9},
				Dimensions: []string{"DATE"},
				Metrics:    []string{"CLICKS"},
			},
		},
		{
			Name: "explicit range with sort and filter",
			Flags: reportFlags{
				Start:      "2024-01-01",
				End:        "2024-01-31",
				Dimensions: []string{"DATE", "COUNTRY"},
				Metrics:    []string{"CLICKS"},
				Sort:       []string{"CLICKS=DESCENDING", "DATE=ASCENDING"},
				Filters:    map[string]string{"COUNTRY": "[US,CA]"},
				TimeZone:   "America/Los_Angeles",
			},
			WantSpec: report.Spec{
				Start:      report.Date{Year: 2024, Month: 1, Day: 1},
				End:        report.Date{Year: 2024, Month: 1, Day: 31},
				Dimensions: []string{"DATE", "COUNTRY"},
				Metrics:    []string{"CLICKS"},
				Sort: []report.SortCondition{
					{Metric: "CLICKS", Order: report.Descending},
					{Dimension: "DATE", Order: report.Ascending},
				},
				Filters:  []report.DimensionFilter{{Dimension: "COUNTRY", Values: []string{"US", "CA"}}},
				TimeZone: "America/Los_Angeles",
			},
		},
		{
			Name:    "bad date",
			Flags:   reportFlags{Start: "01/01/2024"},
			WantErr: true,
		},
		{
			Name:    "bad sort",
			Flags:   reportFlags{Sort: []string{"DATE=SIDEWAYS"}},
			WantErr: true,
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)

			spec, err := buildReportSpec(c.Flags, now)
			if c.WantErr {
				assert.Error(err)
				return
			}

			assert.NoError(err)
			assert.Equal(c.WantSpec, spec)
		})
	}
}

func Test_Command(t *testing.T) {
	root := Command()

	for _, path := range [][]string{
		{"auth", "login"},
		{"auth", "logout"},
		{"auth", "status"},
		{"auth", "token"},
		{"config", "import"},
		{"config", "view"},
		{"accounts", "list"},
		{"accounts", "get"},
		{"apps", "list"},
		{"apps", "create"},
		{"adunits", "list"},
		{"adunits", "create"},
		{"report", "network"},
		{"report", "mediation"},
		{"report", "campaign"},
		{"doctor"},
	} {
		c, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}

	campaign, _, err := root.Find([]string{"report", "campaign"})
	require.NoError(t, err)
	assert.Nil(t, campaign.Flags().Lookup("sort"))
	assert.Nil(t, campaign.Flags().Lookup("filter"))

	login, _, err := root.Find([]string{"auth", "login"})
	require.NoError(t, err)
	assert.NotNil(t, login.Flags().Lookup("monetization"))

	network, _, err := root.Find([]string{"report", "network"})
	require.NoError(t, err)
	assert.NotNil(t, network.Flags().Lookup("sort"))
	assert.Equal(t, "[DATE,APP,PLATFORM,COUNTRY]", network.Flags().Lookup("dimension").DefValue)
}

func Test_loginScopes(t *testing.T) {
	assert := assert.New(t)

	base := []string{config.ScopeAdMobReadonly}
	assert.Equal(base, loginScopes(base, false, false))
	assert.Equal([]string{config.ScopeAdMobReadonly, config.ScopeDriveFile, config.ScopeAdMobMonetization}, loginScopes(base, true, true))
	assert.Equal([]string{config.ScopeAdMobMonetization}, loginScopes([]string{config.ScopeAdMobMonetization}, false, true))
	assert.Equal([]string{config.ScopeAdMobReadonly}, base)
}

func Test_uploadReport(t *testing.T) {
	cases := []struct {
		Name       string
		Report     *report.Report
		WantUpload bool
	}{
		{
			Name:   "no rows",
			Report: &report.Report{},
		},
		{
			Name: "rows",
			Report: &report.Report{
				Rows: []report.Row{{{Name: "DATE", Value: "20240101"}, {Name: "CLICKS", Value: "3"}}},
			},
			WantUpload: true,
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.Name, func(t *testing.T) {
			assert := assert.New(t)

			var uploaded bool
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				uploaded = true
				fmt.Fprint(w, `{"id": "sheet-1"}`)
			}))
			defer ts.Close()

			client, err := api.NewClient(ts.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "token"}), log.NewLogger(io.Discard))
			require.NoError(t, err)

			f, err := uploadReport(context.Background(), drive.NewUploader(client), "report", c.Report)
			require.NoError(t, err)
			assert.Equal(c.WantUpload, uploaded)
			if c.WantUpload {
				assert.Equal("sheet-1", f.ID)
			} else {
				assert.Nil(f)
			}
		})
	}
}
