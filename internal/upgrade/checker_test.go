package upgrade

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/admobkit/admob/internal/config"
	"github.com/admobkit/admob/internal/log"
	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
)

func Test_Checker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/admobkit/admob/releases/latest" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintln(w, `{"tag_name": "v1.0.1"}`)
	}))
	defer ts.Close()

	url, _ := url.Parse(ts.URL + "/")
	ghClient := github.NewClient(nil)
	ghClient.BaseURL = url

	cases := []struct {
		Name               string
		CurrentVersion     string
		LastCheckTime      time.Time
		Enabled            bool
		WantHasUpgrade     bool
		WantCurrentVersion *semver.Version
		WantLatestVersion  *semver.Version
		WantWrite          bool
	}{
		{
			Name:               "has upgrade",
			CurrentVersion:     "v1.0.0",
			LastCheckTime:      time.Now().Add(-checkInterval),
			Enabled:            true,
			WantHasUpgrade:     true,
			WantCurrentVersion: semver.MustParse("1.0.0"),
			WantLatestVersion:  semver.MustParse("1.0.1"),
			WantWrite:          true,
		},
		{
			Name:               "no upgrade",
			CurrentVersion:     "v1.0.2",
			LastCheckTime:      time.Now().Add(-checkInterval),
			Enabled:            true,
			WantHasUpgrade:     false,
			WantCurrentVersion: semver.MustParse("1.0.2"),
			WantLatestVersion:  semver.MustParse("1.0.1"),
			WantWrite:          true,
		},
		{
			Name:           "unparsable current version",
			CurrentVersion: "dev",
			LastCheckTime:  time.Now().Add(-checkInterval),
			Enabled:        true,
			WantWrite:      true,
		},
		{
			Name:           "checked recently",
			CurrentVersion: "v1.0.0",
			LastCheckTime:  time.Now(),
			Enabled:        true,
		},
		{
			Name:           "disabled",
			CurrentVersion: "v1.0.0",
			LastCheckTime:  time.Now().Add(-checkInterval),
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.Name, func(t *testing.T) {
			assert := assert.New(t)

			var wrote bool
			checker := Checker{
				ghClient:       ghClient,
				logger:         log.NewLogger(io.Discard),
				currentVersion: c.CurrentVersion,
				readConfigFunc: func() (*config.Config, error) {
					return &config.Config{
						LastUpgradeCheckTime: c.LastCheckTime,
					}, nil
				},
				writeConfigFunc: func(cfg config.Config) error {
					wrote = true
					assert.WithinDuration(time.Now(), cfg.LastUpgradeCheckTime, 2*time.Second)
					return nil
				},
				enabled: c.Enabled,
			}

			result, err := checker.Check(context.TODO())
			assert.NoError(err)
			assert.Equal(c.WantHasUpgrade, result.HasUpgrade)
			assert.Equal(c.WantCurrentVersion, result.CurrentVersion)
			assert.Equal(c.WantLatestVersion, result.LatestVersion)
			assert.Equal(c.WantWrite, wrote)
		})
	}
}

func Test_ReleaseURL(t *testing.T) {
	assert.Equal(t, "https://github.com/admobkit/admob/releases/tag/v1.2.3", ReleaseURL(semver.MustParse("1.2.3")))
}
