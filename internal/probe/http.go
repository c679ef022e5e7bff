package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type UptimeObservation struct {
	Up           bool
	StatusCode   int
	ResponseTime *int
	ErrorMessage *string
}

type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// Uptime issues a HEAD request and measures time to response headers.
// Up means status < 400. Network failures are an observation, not an error:
// the site reads as down with the failure message captured verbatim.
func (h *HTTPProber) Uptime(ctx context.Context, url string) *UptimeObservation {
	obs := &UptimeObservation{}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		msg := err.Error()
		obs.ErrorMessage = &msg
		return obs
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("User-Agent", "domainwatch/1.0")

	start := time.Now()
	resp, err := h.client.Do(req)
	elapsed := int(time.Since(start).Milliseconds())

	if err != nil {
		msg := err.Error()
		obs.ErrorMessage = &msg
		return obs
	}
	defer resp.Body.Close()

	obs.StatusCode = resp.StatusCode
	obs.ResponseTime = &elapsed
	obs.Up = resp.StatusCode < 400

	if !obs.Up {
		msg := fmt.Sprintf("Status code: %d", resp.StatusCode)
		obs.ErrorMessage = &msg
	}
	return obs
}
