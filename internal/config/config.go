package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"
)

const (
	ScopeAdMobReadonly     = "https://www.googleapis.com/auth/admob.readonly"
	ScopeAdMobMonetization = "https://www.googleapis.com/auth/admob.monetization"
	ScopeDriveFile         = "https://www.googleapis.com/auth/drive.file"

	CredentialStoreKeyring = "keyring"
	CredentialStoreFile    = "file"
)

var path string

// SetPath overrides the config file location.
func SetPath(p string) {
	path = p
}

type Config struct {
	OAuth                OAuth     `json:"oauth"`
	PublisherID          string    `json:"publisherID,omitempty"`
	APIEndpoint          string    `json:"apiEndpoint,omitempty"`
	DriveEndpoint        string    `json:"driveEndpoint,omitempty"`
	CredentialStore      string    `json:"credentialStore,omitempty"`
	LastUpgradeCheckTime time.Time `json:"lastUpgradeCheckTime,omitempty"`
}

type OAuth struct {
	ClientID        string    `json:"clientID,omitempty"`
	ClientSecret    string    `json:"clientSecret,omitempty"`
	AuthURL         string    `json:"authURL,omitempty"`
	TokenURL        string    `json:"tokenURL,omitempty"`
	Scopes          []string  `json:"scopes,omitempty"`
	// Port and CallbackTimeout are pointers so an explicit 0 in the file
	// survives defaulting. Port 0 picks a free port, CallbackTimeout 0 waits
	// until the command is interrupted.
	Port            *int      `json:"port,omitempty"`
	CallbackTimeout *Duration `json:"callbackTimeout,omitempty"`
}

func (o OAuth) CallbackPort() int {
	if o.Port == nil {
		return 0
	}
	return *o.Port
}

func (o OAuth) Timeout() time.Duration {
	if o.CallbackTimeout == nil {
		return 0
	}
	return time.Duration(*o.CallbackTimeout)
}

// Duration reads and writes as a Go duration string such as "5m".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)

	return nil
}

func Default() Config {
	return Config{
		OAuth: OAuth{
			AuthURL:         "https://accounts.google.com/o/oauth2/auth",
			TokenURL:        "https://oauth2.googleapis.com/token",
			Scopes:          []string{ScopeAdMobReadonly},
			Port:            ptr(8080),
			CallbackTimeout: ptr(Duration(5 * time.Minute)),
		},
		APIEndpoint:     "https://admob.googleapis.com/",
		DriveEndpoint:   "https://www.googleapis.com/",
		CredentialStore: CredentialStoreKeyring,
	}
}

func (c Config) Validate() error {
	var result error

	if c.OAuth.ClientID == "" {
		result = errors.Join(result, errors.New("oauth client ID is required, set ADMOB_CLIENT_ID or run `admob config import`"))
	}

	for name, v := range map[string]string{
		"oauth authURL":  c.OAuth.AuthURL,
		"oauth tokenURL": c.OAuth.TokenURL,
		"apiEndpoint":    c.APIEndpoint,
		"driveEndpoint":  c.DriveEndpoint,
	} {
		if _, err := url.ParseRequestURI(v); err != nil {
			result = errors.Join(result, fmt.Errorf("invalid %s: %q", name, v))
		}
	}

	if port := c.OAuth.CallbackPort(); port < 0 || port > 65535 {
		result = errors.Join(result, fmt.Errorf("invalid oauth port: %d", port))
	}

	switch c.CredentialStore {
	case CredentialStoreKeyring, CredentialStoreFile:
	default:
		result = errors.Join(result, fmt.Errorf("unknown credential store: %q", c.CredentialStore))
	}

	return result
}

func ptr[T any](v T) *T {
	return &v
}

func Write(c Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	cf := configFile()
	if err := os.MkdirAll(filepath.Dir(cf), 0700); err != nil {
		return err
	}

	return os.WriteFile(cf, b, 0600)
}

// Read returns the config file as written, without defaults.
func Read() (*Config, error) {
	b, err := os.ReadFile(configFile())
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// Load reads the config file when present, overlays ADMOB_* environment
// variables (including those from a .env file in the working directory) and
// fills the remaining fields with defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	c, err := Read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		c = &Config{}
	}

	if err := applyEnv(c); err != nil {
		return nil, err
	}

	if err := mergo.Merge(c, Default(), mergo.WithoutDereference); err != nil {
		return nil, err
	}

	return c, nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("ADMOB_CLIENT_ID"); v != "" {
		c.OAuth.ClientID = v
	}
	if v := os.Getenv("ADMOB_CLIENT_SECRET"); v != "" {
		c.OAuth.ClientSecret = v
	}
	if v := os.Getenv("ADMOB_PUBLISHER_ID"); v != "" {
		c.PublisherID = v
	}
	if v := os.Getenv("ADMOB_CREDENTIAL_STORE"); v != "" {
		c.CredentialStore = v
	}
	if v := os.Getenv("ADMOB_OAUTH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ADMOB_OAUTH_PORT: %w", err)
		}
		c.OAuth.Port = &port
	}

	return nil
}

// ImportClientSecrets copies the client credentials and endpoints of a
// Google Cloud console client_secrets.json into c.
func ImportClientSecrets(c *Config, file string) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	if !gjson.ValidBytes(b) {
		return fmt.Errorf("%s is not valid JSON", file)
	}

	var client gjson.Result
	for _, key := range []string{"installed", "web"} {
		if r := gjson.GetBytes(b, key); r.IsObject() {
			client = r
			break
		}
	}
	if !client.Exists() {
		return fmt.Errorf("%s has no installed or web client", file)
	}

	id := client.Get("client_id").String()
	if id == "" {
		return fmt.Errorf("%s has no client_id", file)
	}

	c.OAuth.ClientID = id
	c.OAuth.ClientSecret = client.Get("client_secret").String()
	if v := client.Get("auth_uri").String(); v != "" {
		c.OAuth.AuthURL = v
	}
	if v := client.Get("token_uri").String(); v != "" {
		c.OAuth.TokenURL = v
	}

	return nil
}

// CredentialsFile is where the file credential store keeps tokens.
func CredentialsFile() string {
	return filepath.Join(ConfigDir(), "credentials.yml")
}

func configFile() string {
	if path != "" {
		return path
	}

	return filepath.Join(ConfigDir(), "config.yml")
}

func ConfigDir() string {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		panic(err.Error())
	}

	return filepath.Join(userConfigDir, "admob")
}
