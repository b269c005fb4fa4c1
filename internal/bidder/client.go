package bidder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"adnexus/internal/metrics"
)

// CampaignState is the payload pushed to the Crosstalk bidder hosts whenever
// a campaign changes. The bidder keeps its own copy of campaign state; this
// service only notifies it.
type CampaignState struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	DailyBudget string `json:"daily_budget"`
	Status      string `json:"status"`
}

// Client fans a state change out to every configured host, synchronously.
// There is no retry: a host that misses an update catches up on its next
// full sync from the bidder side.
type Client struct {
	hosts  []string
	client *http.Client
}

func NewClient(hosts []string) *Client {
	return &Client{
		hosts: hosts,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) Upsert(ctx context.Context, state CampaignState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return err
	}

	var errs []error
	for _, host := range c.hosts {
		err := c.do(ctx, http.MethodPost, host+"/api/campaign", bytes.NewReader(body))
		if err != nil {
			metrics.RecordBidderSync("upsert", "error")
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
			continue
		}
		metrics.RecordBidderSync("upsert", "ok")
	}

	return joinErrors(errs)
}

func (c *Client) Remove(ctx context.Context, campaignID int) error {
	var errs []error
	for _, host := range c.hosts {
		url := fmt.Sprintf("%s/api/campaign/%d", host, campaignID)
		err := c.do(ctx, http.MethodDelete, url, nil)
		if err != nil {
			metrics.RecordBidderSync("delete", "error")
			errs = append(errs, fmt.Errorf("%s: %w", host, err))
			continue
		}
		metrics.RecordBidderSync("delete", "ok")
	}

	return joinErrors(errs)
}

// Ping checks every host and returns the per-host outcome.
func (c *Client) Ping(ctx context.Context) map[string]error {
	results := make(map[string]error, len(c.hosts))
	for _, host := range c.hosts {
		err := c.do(ctx, http.MethodGet, host+"/api/ping", nil)
		if err != nil {
			metrics.RecordBidderSync("ping", "error")
		} else {
			metrics.RecordBidderSync("ping", "ok")
		}
		results[host] = err
	}
	return results
}

func (c *Client) do(ctx context.Context, method, url string, body *bytes.Reader) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return nil
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
