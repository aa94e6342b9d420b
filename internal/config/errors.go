package config

import "errors"

// Configuration errors.
// Validate returns the first one that applies; callers use errors.Is.
var (
	// ErrMissingCredentials is returned when no username or password could
	// be found in the config file or the environment. The monitor refuses
	// to start without them.
	ErrMissingCredentials = errors.New("missing credentials: set HITSZ_USERNAME and HITSZ_PASSWORD")

	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidInterval is returned when the polling interval is not positive.
	ErrInvalidInterval = errors.New("invalid interval: must be positive")

	// ErrInvalidTimeout is returned when a probe, page-load or element timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPortalURL is returned when the portal URL is not an absolute http(s) URL.
	ErrInvalidPortalURL = errors.New("invalid portal URL: must be an absolute http or https URL")

	// ErrInvalidCheckURL is returned when the connectivity check URL is not an absolute http(s) URL.
	ErrInvalidCheckURL = errors.New("invalid check URL: must be an absolute http or https URL")

	// ErrNoMarkers is returned when neither URL nor body markers are configured.
	// Without a marker every 200 response, including the portal's, would count as online.
	ErrNoMarkers = errors.New("no online markers configured: set url_markers or body_markers")

	// ErrInvalidVerifyAttempts is returned when the number of post-login
	// connectivity probes is not positive.
	ErrInvalidVerifyAttempts = errors.New("invalid verify attempts: must be positive")

	// ErrNegativeDelay is returned when a settle delay or pause is negative.
	ErrNegativeDelay = errors.New("invalid delay: must be non-negative")
)
