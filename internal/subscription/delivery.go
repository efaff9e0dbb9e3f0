package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/google/uuid"
)

// DeliveryIDHeader carries a unique id per delivery attempt.
const DeliveryIDHeader = "X-EPCIS-Delivery-ID"

// Report is the payload POSTed to a subscription destination. Exactly one of
// Results and Error is set.
type Report struct {
	SubscriptionID string                  `json:"subscriptionID"`
	QueryName      string                  `json:"queryName"`
	ExecutedAt     time.Time               `json:"executedAt"`
	Results        *v1.QueryResults        `json:"results,omitempty"`
	Error          *epciserr.ErrorResponse `json:"error,omitempty"`
}

// Deliverer sends reports to subscription destinations.
type Deliverer interface {
	Deliver(ctx context.Context, destination string, report *Report) error
}

// HTTPDeliverer POSTs reports as JSON. It makes a single attempt; the next
// scheduled fire is the only retry.
type HTTPDeliverer struct {
	client    *http.Client
	userAgent string
}

// NewHTTPDeliverer creates a deliverer with an overall request timeout and a
// separate dial timeout.
func NewHTTPDeliverer(timeout, connectTimeout time.Duration, userAgent string) *HTTPDeliverer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout}).DialContext

	return &HTTPDeliverer{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
	}
}

// Deliver sends one report. Any non-2xx response is a failure.
func (d *HTTPDeliverer) Deliver(ctx context.Context, destination string, report *Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DeliveryIDHeader, uuid.NewString())
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return nil
}
