package ping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// StatusError reports an HTTP response outside the 2xx/3xx range.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// HTTPPinger checks http(s) URLs with a HEAD request, retrying as GET when the
// server rejects HEAD or the HEAD request fails for a reason other than a timeout.
type HTTPPinger struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPPinger returns an HTTP checker that does not follow redirects; a 3xx
// answer already proves the endpoint is alive.
func NewHTTPPinger(version string) *HTTPPinger {
	return &HTTPPinger{
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		UserAgent: "pingtray/" + version,
	}
}

// Ping performs the HEAD/GET check against url within timeout.
func (p *HTTPPinger) Ping(ctx context.Context, url string, timeout time.Duration) Result {
	ctx, cancel := context.WithDeadline(ctx, effectiveDeadline(ctx, timeout))
	defer cancel()

	start := time.Now()
	code, err := p.do(ctx, http.MethodHead, url)
	switch {
	case err == nil && code == http.StatusMethodNotAllowed:
		code, err = p.do(ctx, http.MethodGet, url)
	case err != nil && !errors.Is(err, ErrUnavailable) && !isTimeout(err) && ctx.Err() == nil:
		code, err = p.do(ctx, http.MethodGet, url)
	}
	if err != nil {
		if isTimeout(err) || ctx.Err() != nil {
			return Result{Error: fmt.Errorf("http timeout: %w", err)}
		}
		return Result{Error: err}
	}

	rtt := time.Since(start)
	if code >= 200 && code < 400 {
		return Result{Success: true, RTT: rtt, Detail: fmt.Sprintf("HTTP %d", code)}
	}
	return Result{Error: &StatusError{Code: code}, Detail: fmt.Sprintf("HTTP %d", code)}
}

func (p *HTTPPinger) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
