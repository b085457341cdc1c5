// Package cstore is the HTTP client for the distributed content-addressed
// store. It implements redmesh.Fetcher; the only operation this system needs
// is fetching a JSON payload by its content identifier.
package cstore

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

// Client fetches content-addressed payloads from one gateway.
type Client struct {
	base string
	http *http.Client
	log  *logrus.Entry
}

// New builds a client for the gateway at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
		log:  log.WithField("component", "cstore"),
	}
}

// Fetch retrieves the raw payload behind cid. A cid the store has no data
// for yields (nil, nil); the resolver treats that as "absent", not an error.
func (c *Client) Fetch(ctx context.Context, cid string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/get?cid="+url.QueryEscape(cid), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.WithField("cid", cid).Debug("no data for cid")
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, &redmesh.APIError{Code: resp.StatusCode, Message: "content store: " + resp.Status}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

var _ redmesh.Fetcher = (*Client)(nil)
