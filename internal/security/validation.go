// Package security provides input validation for untrusted sources.
package security

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

// MaxRedirects bounds the redirects followed by CheckRedirect.
const MaxRedirects = 10

// ErrBlockedAddress is returned when a URL, redirect or connection targets a
// loopback, private, link-local or unspecified address.
var ErrBlockedAddress = errors.New("blocked address")

// ValidateHTTPURL checks that a URL submitted by a remote client is safe to
// fetch: http or https, with a host that is not loopback, private or link-local.
func ValidateHTTPURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("only http and https URLs are allowed (got %q)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	host := strings.ToLower(parsed.Hostname())
	if isLocalOrPrivateHost(host) {
		return fmt.Errorf("%w: URL cannot point to local or private hosts: %s", ErrBlockedAddress, host)
	}

	return nil
}

// LimitedReader wraps an io.Reader and fails once more than the allowed
// number of bytes has been read. Used to bound decompressed payloads.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, fmt.Errorf("decompression size limit exceeded")
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}

func isLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		// Hostnames are checked after resolution by DialControl.
		return false
	}
	return IsBlockedAddr(addr)
}

// IsBlockedAddr reports whether addr is loopback, private, link-local or
// unspecified. IPv4-mapped IPv6 addresses are checked as IPv4.
func IsBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}

// DialControl is a net.Dialer Control hook that refuses connections to
// blocked addresses. It runs on the resolved address, so it also covers
// hostnames that resolve into private ranges.
func DialControl(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: cannot parse %q: %w", ErrBlockedAddress, address, err)
	}
	if IsBlockedAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ap.Addr())
	}
	return nil
}

// CheckRedirect is an http.Client CheckRedirect hook that applies
// ValidateHTTPURL to every redirect target.
func CheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= MaxRedirects {
		return fmt.Errorf("too many redirects")
	}
	if err := ValidateHTTPURL(req.URL.String()); err != nil {
		return fmt.Errorf("redirect rejected: %w", err)
	}
	return nil
}
