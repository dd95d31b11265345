package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
)

// ErrForbiddenAddress indicates a URL resolving to a blocked address or a host
// outside the allowlist
var ErrForbiddenAddress = errors.New("address not allowed")

// HTTPConfig options for the http(s) fetcher
type HTTPConfig struct {
	Timeout        time.Duration // Per-request timeout (default: 30s)
	RequestsPerSec float64       // Rate limit, 0 disables limiting
	Burst          int           // Limiter burst (default: 1)
	UserAgent      string        // Optional User-Agent header

	// By default loopback, private, link-local, multicast and unspecified
	// addresses are refused, including after DNS resolution and redirects.
	AllowPrivate bool
	// AllowedHosts restricts fetches to these host names when non-empty
	AllowedHosts []string
}

// HTTPFetcher fetches http(s) resources, optionally rate limited
type HTTPFetcher struct {
	client       *http.Client
	limiter      *rate.Limiter
	userAgent    string
	allowPrivate bool
	allowedHosts map[string]bool
}

// NewHTTP creates an http(s) fetcher
func NewHTTP(config HTTPConfig) *HTTPFetcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}

	f := &HTTPFetcher{
		userAgent:    config.UserAgent,
		allowPrivate: config.AllowPrivate,
	}
	if len(config.AllowedHosts) > 0 {
		f.allowedHosts = make(map[string]bool, len(config.AllowedHosts))
		for _, h := range config.AllowedHosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				f.allowedHosts[h] = true
			}
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !f.allowPrivate {
		// the proxy would otherwise be the only address checked
		transport.Proxy = nil
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   f.controlDial,
		}
		transport.DialContext = dialer.DialContext
	}
	f.client = &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return f.checkURL(req.URL)
		},
	}

	if config.RequestsPerSec > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.Burst)
	}
	return f
}

// WithClient replaces the underlying http.Client. Address checks done at
// dial time are lost unless client carries its own.
func (f *HTTPFetcher) WithClient(client *http.Client) *HTTPFetcher {
	f.client = client
	return f
}

// Fetch issues a GET for resourceURL. Non-2xx responses are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, resourceURL string) (*Resource, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: resourceURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return nil, &FetchError{URL: resourceURL, Err: err}
	}
	if err := f.checkURL(req.URL); err != nil {
		return nil, &FetchError{URL: resourceURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: resourceURL, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &FetchError{URL: resourceURL, Err: ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &FetchError{URL: resourceURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return &Resource{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

// checkURL applies the host allowlist and rejects blocked IP literals
func (f *HTTPFetcher) checkURL(u *url.URL) error {
	host := strings.ToLower(u.Hostname())
	if f.allowedHosts != nil && !f.allowedHosts[host] {
		return fmt.Errorf("%w: host %q", ErrForbiddenAddress, host)
	}
	if ip := net.ParseIP(host); ip != nil && !f.allowPrivate && blockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, ip)
	}
	return nil
}

// controlDial checks the resolved address right before connecting
func (f *HTTPFetcher) controlDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || blockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
	}
	return nil
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast()
}
