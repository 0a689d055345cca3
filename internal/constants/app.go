// Package constants holds tunables shared across the console.
package constants

import (
	"time"
)

// Application identity
const (
	// AppName is the binary and command name.
	AppName = "structsim-console"

	// ConfigDirName is the directory under the user config dir holding console.conf and session.
	ConfigDirName = "structsim"

	// DefaultAPIURL matches the platform's development backend.
	DefaultAPIURL = "http://localhost:5000/api"
)

// Event bus
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size accepted by NewEventBus
	EventBusMaxBuffer = 2048
)

// API request handling
const (
	// APIRequestTimeout - default per-request timeout when the config does not set one
	APIRequestTimeout = 30 * time.Second

	// APIRetryMax - retryablehttp attempts after the first one
	APIRetryMax = 3

	// APIRetryWaitMin / APIRetryWaitMax - retryablehttp backoff bounds
	APIRetryWaitMin = 500 * time.Millisecond
	APIRetryWaitMax = 5 * time.Second

	// APIMetricsWindow - how often request counts are reported at debug level
	APIMetricsWindow = 30 * time.Second

	// SessionExpiryWarning - warn when the session token expires within this window
	SessionExpiryWarning = 10 * time.Minute
)

// Store refresh after a mutation
const (
	// RefreshMaxRetries - attempts for the post-mutation list refresh
	RefreshMaxRetries = 3

	// RefreshInitialDelay / RefreshMaxDelay - backoff bounds for the refresh retry
	RefreshInitialDelay = 200 * time.Millisecond
	RefreshMaxDelay     = 2 * time.Second
)

// Entity defaults
const (
	// DefaultSort is the ordering hint given to new configuration entities.
	DefaultSort = 100
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake
	HTTPTLSHandshakeTimeout = 15 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection
	HTTPDialTimeout = 10 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPMaxIdleConnsPerHost - the console talks to a single backend
	HTTPMaxIdleConnsPerHost = 16
)
