package probe

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/go-resty/resty/v2"
)

// HTTP is ready when URL answers with an expected status: any 2xx unless
// ExpectStatus lists codes.
type HTTP struct {
	URL          string
	Method       string
	Headers      map[string]string
	ExpectStatus []int

	// Client defaults to a plain resty client.
	Client *resty.Client
}

var defaultHTTPClient = resty.New()

func (h *HTTP) Probe(ctx context.Context) error {
	client := h.Client
	if client == nil {
		client = defaultHTTPClient
	}
	method := h.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := client.R().
		SetContext(ctx).
		SetHeaders(h.Headers).
		Execute(method, h.URL)
	if err != nil {
		return fmt.Errorf("http probe %s %s: %w", method, h.URL, err)
	}

	code := resp.StatusCode()
	if !h.expected(code) {
		return fmt.Errorf("%w: %s %s returned %d", ErrNotReady, method, h.URL, code)
	}
	return nil
}

func (h *HTTP) expected(code int) bool {
	if len(h.ExpectStatus) == 0 {
		return code >= 200 && code < 300
	}
	return slices.Contains(h.ExpectStatus, code)
}
