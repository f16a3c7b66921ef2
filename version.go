package admob

var (
	Version = "dev"
	// UpdaterEnabled is set to "true" by release builds.
	UpdaterEnabled = "false"
)

// UserAgent identifies the tool in API requests.
func UserAgent() string {
	return "admob-cli/" + Version
}
