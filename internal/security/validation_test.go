package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{url: "https://example.com/wallpaper.png"},
		{url: "http://images.example.org/a.jpg"},
		{url: "", wantErr: true},
		{url: "ftp://example.com/a.png", wantErr: true},
		{url: "file:///etc/passwd", wantErr: true},
		{url: "https:///nohost.png", wantErr: true},
		{url: "http://localhost:8080/a.png", wantErr: true},
		{url: "http://127.0.0.1/a.png", wantErr: true},
		{url: "http://10.1.2.3/a.png", wantErr: true},
		{url: "http://192.168.0.10/a.png", wantErr: true},
		{url: "http://172.20.0.1/a.png", wantErr: true},
		{url: "http://169.254.169.254/latest/meta-data", wantErr: true},
		{url: "http://[::1]/a.png", wantErr: true},
		{url: "http://[fd00::1]/a.png", wantErr: true},
		{url: "http://0.0.0.0/a.png", wantErr: true},
		{url: "http://[::ffff:127.0.0.1]/a.png", wantErr: true},
		{url: "http://8.8.8.8/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateHTTPURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestLimitedReader(t *testing.T) {
	data, err := io.ReadAll(NewLimitedReader(strings.NewReader("hello"), 10))
	if err != nil || string(data) != "hello" {
		t.Errorf("ReadAll() = %q, %v", data, err)
	}

	_, err = io.ReadAll(NewLimitedReader(bytes.NewReader(make([]byte, 64)), 16))
	if err == nil {
		t.Error("expected size limit error")
	}
}

func TestDialControl(t *testing.T) {
	tests := []struct {
		address string
		blocked bool
	}{
		{address: "93.184.216.34:443"},
		{address: "[2606:4700::1111]:443"},
		{address: "127.0.0.1:8080", blocked: true},
		{address: "10.0.0.5:80", blocked: true},
		{address: "169.254.169.254:80", blocked: true},
		{address: "0.0.0.0:80", blocked: true},
		{address: "[::1]:443", blocked: true},
		{address: "[::ffff:192.168.1.1]:80", blocked: true},
		{address: "[fe80::1%eth0]:80", blocked: true},
		{address: "not-an-address", blocked: true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := DialControl("tcp", tt.address, nil)
			if tt.blocked {
				if !errors.Is(err, ErrBlockedAddress) {
					t.Errorf("DialControl(%q) = %v, want ErrBlockedAddress", tt.address, err)
				}
				return
			}
			if err != nil {
				t.Errorf("DialControl(%q) unexpected error: %v", tt.address, err)
			}
		})
	}
}

func TestCheckRedirect(t *testing.T) {
	req := func(url string) *http.Request {
		return httptest.NewRequest(http.MethodGet, url, nil)
	}
	via := []*http.Request{req("https://example.com/a.png")}

	if err := CheckRedirect(req("https://cdn.example.com/a.png"), via); err != nil {
		t.Errorf("public redirect rejected: %v", err)
	}
	if err := CheckRedirect(req("http://169.254.169.254/latest/meta-data"), via); !errors.Is(err, ErrBlockedAddress) {
		t.Errorf("metadata redirect error = %v, want ErrBlockedAddress", err)
	}
	if err := CheckRedirect(req("http://localhost/a.png"), via); !errors.Is(err, ErrBlockedAddress) {
		t.Errorf("localhost redirect error = %v, want ErrBlockedAddress", err)
	}

	long := make([]*http.Request, MaxRedirects)
	if err := CheckRedirect(req("https://example.com/a.png"), long); err == nil {
		t.Error("expected error after too many redirects")
	}
}
