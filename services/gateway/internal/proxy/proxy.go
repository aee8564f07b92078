package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/cinelist/pkg/logger"
)

// hopHeaders are never forwarded in either direction.
var hopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-connection":    true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

type ServiceProxy struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewServiceProxy(name, baseURL string) *ServiceProxy {
	return &ServiceProxy{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *ServiceProxy) Name() string { return p.name }

// ProxyRequest sends method pathAndQuery to the upstream with the given
// headers and body. The caller closes the response body.
func (p *ServiceProxy) ProxyRequest(ctx context.Context, method, pathAndQuery string, body io.Reader, headers http.Header) (*http.Response, error) {
	url := p.baseURL + pathAndQuery

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	CopyHeaders(req.Header, headers)

	// Add request ID for tracing
	if requestID := logger.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	req.Header.Set("X-Gateway-Forwarded", "true")

	logger.DebugContext(ctx, "Proxying request",
		"service", p.name,
		"method", method,
		"url", url,
	)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}
	return resp, nil
}

// CopyHeaders adds src to dst, skipping hop-by-hop headers.
func CopyHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopHeaders[strings.ToLower(key)] || strings.EqualFold(key, "Host") {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// ForwardHeaders returns the headers to send upstream for r. Client-supplied
// forwarding headers are dropped; X-Forwarded-For carries the peer address
// the gateway observed.
func ForwardHeaders(r *http.Request) http.Header {
	headers := r.Header.Clone()
	headers.Del("X-Forwarded-For")
	headers.Del("X-Real-IP")
	headers.Del("Forwarded")

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host != "" {
		headers.Set("X-Forwarded-For", host)
	}
	return headers
}
