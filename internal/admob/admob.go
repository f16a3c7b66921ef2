package admob

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/admobkit/admob/internal/api"
	"github.com/admobkit/admob/internal/report"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type Account struct {
	Name         string
	PublisherID  string
	ReportingTZ  string
	CurrencyCode string
}

type App struct {
	Name     string
	AppID    string
	Platform string
	// Linked is set when the app is linked to an app store listing.
	Linked *LinkedAppInfo
	Manual *ManualAppInfo
}

type LinkedAppInfo struct {
	AppStoreID  string
	DisplayName string
}

type ManualAppInfo struct {
	DisplayName string
}

// DisplayName prefers the store listing name over the manual one.
func (a App) DisplayName() string {
	if a.Linked != nil && a.Linked.DisplayName != "" {
		return a.Linked.DisplayName
	}
	if a.Manual != nil {
		return a.Manual.DisplayName
	}

	return ""
}

type AdUnit struct {
	Name        string
	AdUnitID    string
	AppID       string
	DisplayName string
	AdFormat    string
	AdTypes     []string
}

type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// AccountName normalizes "pub-123" and "accounts/pub-123" to the latter.
func AccountName(publisherID string) string {
	if strings.HasPrefix(publisherID, "accounts/") {
		return publisherID
	}

	return "accounts/" + publisherID
}

func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := s.client.List(ctx, "v1/accounts", nil, "account", func(r gjson.Result) error {
		accounts = append(accounts, parseAccount(r))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	return accounts, nil
}

func (s *Service) GetAccount(ctx context.Context, publisherID string) (*Account, error) {
	resp, err := s.client.Get(ctx, "v1/"+AccountName(publisherID), nil)
	if err != nil {
		return nil, fmt.Errorf("getting account %s: %w", publisherID, err)
	}

	a := parseAccount(resp)
	return &a, nil
}

func (s *Service) ListApps(ctx context.Context, publisherID string) ([]App, error) {
	var apps []App
	err := s.client.List(ctx, "v1beta/"+AccountName(publisherID)+"/apps", nil, "apps", func(r gjson.Result) error {
		apps = append(apps, parseApp(r))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing apps: %w", err)
	}

	return apps, nil
}

func (s *Service) ListAdUnits(ctx context.Context, publisherID string) ([]AdUnit, error) {
	var units []AdUnit
	err := s.client.List(ctx, "v1/"+AccountName(publisherID)+"/adUnits", nil, "adUnits", func(r gjson.Result) error {
		units = append(units, parseAdUnit(r))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing ad units: %w", err)
	}

	return units, nil
}

// NewApp describes an app that is not yet listed in an app store.
type NewApp struct {
	// Platform is ANDROID or IOS.
	Platform    string
	DisplayName string
}

type NewAdUnit struct {
	AppID       string
	DisplayName string
	// AdFormat is e.g. BANNER, INTERSTITIAL or REWARDED.
	AdFormat string
	AdTypes  []string
}

// CreateApp adds a manual app to the account. App creation is only served
// by v1alpha and needs the admob.monetization scope.
func (s *Service) CreateApp(ctx context.Context, publisherID string, app NewApp) (*App, error) {
	if app.Platform == "" || app.DisplayName == "" {
		return nil, fmt.Errorf("creating app: platform and display name are required")
	}

	body, err := encode(map[string]any{
		"platform":                  app.Platform,
		"manualAppInfo.displayName": app.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	resp, err := s.client.Post(ctx, "v1alpha/"+AccountName(publisherID)+"/apps", url.Values{}, body)
	if err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	a := parseApp(resp)
	return &a, nil
}

// CreateAdUnit adds an ad unit to an app of the account. Like CreateApp it
// goes through v1alpha.
func (s *Service) CreateAdUnit(ctx context.Context, publisherID string, unit NewAdUnit) (*AdUnit, error) {
	if unit.AppID == "" || unit.DisplayName == "" || unit.AdFormat == "" {
		return nil, fmt.Errorf("creating ad unit: app ID, display name and ad format are required")
	}

	fields := map[string]any{
		"appId":       unit.AppID,
		"displayName": unit.DisplayName,
		"adFormat":    unit.AdFormat,
	}
	if len(unit.AdTypes) > 0 {
		fields["adTypes"] = unit.AdTypes
	}
	body, err := encode(fields)
	if err != nil {
		return nil, fmt.Errorf("creating ad unit: %w", err)
	}

	resp, err := s.client.Post(ctx, "v1alpha/"+AccountName(publisherID)+"/adUnits", url.Values{}, body)
	if err != nil {
		return nil, fmt.Errorf("creating ad unit: %w", err)
	}

	u := parseAdUnit(resp)
	return &u, nil
}

// GenerateReport runs a network, mediation or campaign report. Campaign
// reports are only served by v1beta.
func (s *Service) GenerateReport(ctx context.Context, publisherID string, kind report.Kind, spec report.Spec) (*report.Report, error) {
	body, err := spec.Body(kind)
	if err != nil {
		return nil, err
	}

	version := "v1"
	if kind == report.KindCampaign {
		version = "v1beta"
	}

	path := fmt.Sprintf("%s/%s/%sReport:generate", version, AccountName(publisherID), kind)
	resp, err := s.client.Post(ctx, path, url.Values{}, body)
	if err != nil {
		return nil, fmt.Errorf("generating %s report: %w", kind, err)
	}

	return report.Parse(resp), nil
}

func encode(fields map[string]any) ([]byte, error) {
	body := []byte(`{}`)
	for path, v := range fields {
		b, err := sjson.SetBytes(body, path, v)
		if err != nil {
			return nil, err
		}
		body = b
	}

	return body, nil
}

func parseAccount(r gjson.Result) Account {
	return Account{
		Name:         r.Get("name").String(),
		PublisherID:  r.Get("publisherId").String(),
		ReportingTZ:  r.Get("reportingTimeZone").String(),
		CurrencyCode: r.Get("currencyCode").String(),
	}
}

func parseApp(r gjson.Result) App {
	app := App{
		Name:     r.Get("name").String(),
		AppID:    r.Get("appId").String(),
		Platform: r.Get("platform").String(),
	}

	if l := r.Get("linkedAppInfo"); l.Exists() {
		app.Linked = &LinkedAppInfo{
			AppStoreID:  l.Get("appStoreId").String(),
			DisplayName: l.Get("displayName").String(),
		}
	}
	if m := r.Get("manualAppInfo"); m.Exists() {
		app.Manual = &ManualAppInfo{
			DisplayName: m.Get("displayName").String(),
		}
	}

	return app
}

func parseAdUnit(r gjson.Result) AdUnit {
	u := AdUnit{
		Name:        r.Get("name").String(),
		AdUnitID:    r.Get("adUnitId").String(),
		AppID:       r.Get("appId").String(),
		DisplayName: r.Get("displayName").String(),
		AdFormat:    r.Get("adFormat").String(),
	}
	for _, t := range r.Get("adTypes").Array() {
		u.AdTypes = append(u.AdTypes, t.String())
	}

	return u
}
