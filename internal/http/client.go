// Package http builds the outbound HTTP client used by the API layer and
// provides the retry helpers used around store refreshes.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"
	"strings"

	"golang.org/x/net/http2"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/config"
)

// NewClient returns the HTTP client for platform API calls.
//
// It starts from ConfigureHTTPClient and enables HTTP/2 for direct
// connections. HTTP/2 is turned off whenever a proxy may be in the path,
// and DISABLE_HTTP2=true forces HTTP/1.1 for debugging.
//
// If cfg is nil the defaults of config.NewConfig are used.
func NewClient(cfg *config.Config) (*nethttp.Client, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// ntlm: the negotiator keeps its connection-bound handshake on HTTP/1.1.
		return client, nil
	}

	if proxyActive(cfg) || os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
		return client, nil
	}

	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)
	return client, nil
}

func proxyActive(cfg *config.Config) bool {
	switch strings.ToLower(cfg.Proxy.Mode) {
	case "no-proxy", "":
		return false
	case "system":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
