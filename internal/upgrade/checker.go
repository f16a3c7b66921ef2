package upgrade

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/admobkit/admob"
	"github.com/admobkit/admob/internal/config"
	"github.com/admobkit/admob/internal/iostreams"
	"github.com/admobkit/admob/internal/log"
	"github.com/google/go-github/v57/github"
)

const (
	checkInterval = 24 * time.Hour

	repoOwner = "admobkit"
	repoName  = "admob"
)

func NewChecker(logger *log.Logger) *Checker {
	httpClient := &http.Client{
		Timeout: 5 * time.Second,
	}
	return &Checker{
		ghClient:        github.NewClient(httpClient),
		logger:          logger,
		currentVersion:  admob.Version,
		readConfigFunc:  config.Read,
		writeConfigFunc: config.Write,
		enabled:         shouldEnable(admob.Version),
	}
}

type CheckResult struct {
	CurrentVersion *semver.Version
	LatestVersion  *semver.Version
	HasUpgrade     bool
}

type Checker struct {
	ghClient        *github.Client
	logger          *log.Logger
	readConfigFunc  func() (*config.Config, error)
	writeConfigFunc func(c config.Config) error
	currentVersion  string
	enabled         bool
}

// Check looks up the latest GitHub release at most once per checkInterval.
// Lookup failures are logged and reported as no upgrade.
func (c *Checker) Check(ctx context.Context) (result *CheckResult, err error) {
	logger := c.logger.With("current", c.currentVersion)

	if !c.enabled {
		logger.Debug("upgrade check disabled")
		return &CheckResult{}, nil
	}

	var (
		lastCheckTime time.Time
		now           = time.Now()
	)
	cfg, err := c.readConfigFunc()
	if err == nil {
		lastCheckTime = cfg.LastUpgradeCheckTime
		cfg.LastUpgradeCheckTime = now
	} else {
		cfg = &config.Config{
			LastUpgradeCheckTime: now,
		}
	}

	nextCheckTime := lastCheckTime.Add(checkInterval)
	if now.Before(nextCheckTime) {
		logger.Debug("skip upgrade check", "last", lastCheckTime, "next", nextCheckTime)
		return &CheckResult{}, nil
	}

	defer func() {
		err = errors.Join(err, c.writeConfigFunc(*cfg))
	}()

	rel, _, err := c.ghClient.Repositories.GetLatestRelease(ctx, repoOwner, repoName)
	if err != nil {
		logger.Debug("error getting latest release", "error", err)
		return &CheckResult{}, nil
	}

	currVer, err := parseSemVer(c.currentVersion)
	if err != nil {
		logger.Debug("error parsing current version", "error", err)
		return &CheckResult{}, nil
	}

	latestVer, err := parseSemVer(rel.GetTagName())
	if err != nil {
		logger.Debug("error parsing tag name as version", "tag", rel.GetTagName(), "error", err)
		return &CheckResult{}, nil
	}

	return &CheckResult{
		HasUpgrade:     currVer.LessThan(latestVer),
		CurrentVersion: currVer,
		LatestVersion:  latestVer,
	}, nil
}

// ReleaseURL is where a release's notes and binaries live.
func ReleaseURL(v *semver.Version) string {
	return "https://github.com/" + repoOwner + "/" + repoName + "/releases/tag/v" + v.String()
}

func parseSemVer(v string) (*semver.Version, error) {
	return semver.StrictNewVersion(strings.TrimPrefix(v, "v"))
}

func shouldEnable(currentVersion string) bool {
	if os.Getenv("ADMOB_NO_UPGRADE_NOTIFIER") != "" {
		return false
	}

	if currentVersion == "dev" {
		return false
	}

	return admob.UpdaterEnabled == "true" &&
		!isCI() &&
		iostreams.IsTerminal(os.Stdout) &&
		iostreams.IsTerminal(os.Stderr)
}

// based on https://github.com/watson/ci-info/blob/HEAD/index.js
func isCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("BUILD_NUMBER") != "" ||
		os.Getenv("RUN_ID") != ""
}
