package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/hitsz-autonet/internal/model"
)

// Default configuration values.
// The endpoints, selectors and delays match the HITSZ srun portal.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "hitsz-autonet"

	// DefaultPortalURL is the captive-portal login page on the campus network.
	DefaultPortalURL = "http://10.248.98.2/srun_portal_pc?ac_id=1&theme=basic2"

	// DefaultCheckURL is the public site used as the connectivity oracle.
	// Plain HTTP on purpose: the portal can only intercept unencrypted traffic.
	DefaultCheckURL = "http://www.baidu.com"

	// DefaultURLMarker must appear in the final URL of a truly online probe.
	DefaultURLMarker = "baidu.com"

	// DefaultBodyMarker must appear in the body of a truly online probe.
	DefaultBodyMarker = "百度"

	// DefaultProbeTimeout bounds a single connectivity probe.
	DefaultProbeTimeout = 10 * time.Second

	// DefaultInterval is the pause between monitor iterations.
	DefaultInterval = 60 * time.Second

	// DefaultPageLoadTimeout bounds portal navigation.
	DefaultPageLoadTimeout = 30 * time.Second

	// DefaultElementTimeout bounds the wait for the username input.
	DefaultElementTimeout = 10 * time.Second

	// DefaultNavigationSettle is the wait after navigation for client-side rendering.
	DefaultNavigationSettle = 2 * time.Second

	// DefaultSubmitSettle is the wait after clicking the login button.
	DefaultSubmitSettle = 3 * time.Second

	// DefaultVerifyAttempts is the number of connectivity probes issued when
	// the portal status is inconclusive after submission.
	DefaultVerifyAttempts = 3

	// DefaultVerifyPause is the pause between those probes.
	DefaultVerifyPause = 2 * time.Second

	// DefaultUsernameSelector locates the username input.
	DefaultUsernameSelector = "#username"

	// DefaultPasswordSelector locates the password input.
	DefaultPasswordSelector = "#password"

	// DefaultSubmitSelector locates the login button.
	DefaultSubmitSelector = "#login-account"

	// DefaultUserAgent is sent by the headless browser.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultVersionMismatchMarker identifies a driver/browser version
	// mismatch in a launch failure message.
	DefaultVersionMismatchMarker = "only supports Chrome version"
)

// Config holds all configuration options for hitsz-autonet.
// It is populated from defaults, the config file and CLI flags, then passed
// down explicitly; nothing reads configuration from package state.
type Config struct {
	// Credentials is the portal account.
	Credentials model.Credentials

	// ConfigFilePath is the file the configuration was loaded from.
	// Empty when only the environment supplied credentials.
	ConfigFilePath string

	// PortalURL is the captive-portal login page.
	PortalURL string

	// CheckURL is the connectivity oracle.
	CheckURL string

	// URLMarkers are substrings of the final probe URL that prove the
	// request reached the real site.
	URLMarkers []string

	// BodyMarkers are substrings of the probe response body that prove the
	// request reached the real site.
	BodyMarkers []string

	// ProbeTimeout bounds one connectivity probe.
	ProbeTimeout time.Duration

	// Interval is the sleep between monitor iterations.
	Interval time.Duration

	// PageLoadTimeout bounds portal navigation.
	PageLoadTimeout time.Duration

	// ElementTimeout bounds the wait for the login form.
	ElementTimeout time.Duration

	// NavigationSettle is the delay after navigation.
	NavigationSettle time.Duration

	// SubmitSettle is the delay after submission.
	SubmitSettle time.Duration

	// VerifyAttempts is the number of post-submission connectivity probes.
	VerifyAttempts int

	// VerifyPause is the pause between post-submission probes.
	VerifyPause time.Duration

	// UsernameSelector, PasswordSelector and SubmitSelector locate the
	// login form elements.
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string

	// UserAgent is the headless browser user agent.
	UserAgent string

	// BrowserCacheDir is scanned for previously downloaded browser binaries.
	// Empty means the browser driver's own default download directory.
	BrowserCacheDir string

	// VersionMismatchMarker identifies a version mismatch in launch errors.
	VersionMismatchMarker string

	// Daemon marks a service-managed run. It does not fork.
	Daemon bool

	// Once runs a single monitor iteration and exits.
	Once bool

	// UpdateDriver forces a browser download and exits.
	UpdateDriver bool

	// LogFile redirects logs to a file instead of stderr.
	LogFile string

	// Verbose enables debug logging.
	Verbose bool

	// DBDir is the directory of the attempt journal.
	// Empty disables the journal.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		PortalURL:             DefaultPortalURL,
		CheckURL:              DefaultCheckURL,
		URLMarkers:            []string{DefaultURLMarker},
		BodyMarkers:           []string{DefaultBodyMarker},
		ProbeTimeout:          DefaultProbeTimeout,
		Interval:              DefaultInterval,
		PageLoadTimeout:       DefaultPageLoadTimeout,
		ElementTimeout:        DefaultElementTimeout,
		NavigationSettle:      DefaultNavigationSettle,
		SubmitSettle:          DefaultSubmitSettle,
		VerifyAttempts:        DefaultVerifyAttempts,
		VerifyPause:           DefaultVerifyPause,
		UsernameSelector:      DefaultUsernameSelector,
		PasswordSelector:      DefaultPasswordSelector,
		SubmitSelector:        DefaultSubmitSelector,
		UserAgent:             DefaultUserAgent,
		VersionMismatchMarker: DefaultVersionMismatchMarker,
		DBDir:                 XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for hitsz-autonet.
// On Linux: ~/.local/share/hitsz-autonet
// On macOS: ~/Library/Application Support/hitsz-autonet
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for hitsz-autonet.
// On Linux: ~/.config/hitsz-autonet
// On macOS: ~/Library/Application Support/hitsz-autonet
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGStateDir returns the XDG state directory for hitsz-autonet.
// Service logs are written here on Linux.
// On Linux: ~/.local/state/hitsz-autonet
// On macOS: ~/Library/Application Support/hitsz-autonet
func XDGStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// Validate checks if the configuration is valid and returns the first problem found.
// Credentials are checked separately by RequireCredentials because
// --update-driver runs without them.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}

	if c.ProbeTimeout <= 0 || c.PageLoadTimeout <= 0 || c.ElementTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if !isHTTPURL(c.PortalURL) {
		return ErrInvalidPortalURL
	}

	if !isHTTPURL(c.CheckURL) {
		return ErrInvalidCheckURL
	}

	if len(c.URLMarkers) == 0 && len(c.BodyMarkers) == 0 {
		return ErrNoMarkers
	}

	if c.VerifyAttempts <= 0 {
		return ErrInvalidVerifyAttempts
	}

	if c.NavigationSettle < 0 || c.SubmitSettle < 0 || c.VerifyPause < 0 {
		return ErrNegativeDelay
	}

	return nil
}

// RequireCredentials returns ErrMissingCredentials unless both the
// username and the password are set.
func (c *Config) RequireCredentials() error {
	if c.Credentials.Empty() {
		return ErrMissingCredentials
	}
	return nil
}

// isHTTPURL reports whether s is an absolute http or https URL with a host.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
