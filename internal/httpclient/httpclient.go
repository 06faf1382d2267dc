// Package httpclient builds the *http.Client shared by outbound integrations
// (market data, Telegram, webhooks).
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// New returns a client with an explicit transport and an overall request
// timeout. http.DefaultClient has no timeout and must not be used for
// external calls.
func New(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
