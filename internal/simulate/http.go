package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps http.Client with a timeout and the raid API operations.
type Client struct {
	client  *http.Client
	baseURL string
}

// newClient creates an API client for the given base URL.
func newClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// post performs a POST request with a JSON body.
func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// decode unmarshals a 2xx response into out. Any other status is parsed as
// the API error envelope and returned as a *Rejection.
func decode(resp *http.Response, wantStatus int, out interface{}) error {
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var envelope apiError
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Code != "" {
			return &Rejection{Status: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
		}
		return &Rejection{Status: resp.StatusCode, Code: "unknown", Message: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Rejection is a non-2xx answer from the engine: the request got through
// but the domain said no. Transport failures stay plain errors.
type Rejection struct {
	Status  int
	Code    string
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("engine rejected request: %d %s: %s", r.Status, r.Code, r.Message)
}

// checkHealth verifies the service is running.
func (c *Client) checkHealth(ctx context.Context) error {
	resp, err := c.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	return decode(resp, StatusOK, nil)
}

// createCharacter registers one character and returns it with its
// server-assigned id.
func (c *Client) createCharacter(ctx context.Context, ch Character) (*Character, error) {
	resp, err := c.post(ctx, "/characters", ch)
	if err != nil {
		return nil, err
	}
	var created Character
	if err := decode(resp, StatusCreated, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// startRaid opens an encounter and returns the raid record.
func (c *Client) startRaid(ctx context.Context, village string, monster Monster) (*Raid, error) {
	body := map[string]interface{}{
		"village": village,
		"monster": monster,
	}
	resp, err := c.post(ctx, "/raids", body)
	if err != nil {
		return nil, err
	}
	var raid Raid
	if err := decode(resp, StatusCreated, &raid); err != nil {
		return nil, err
	}
	return &raid, nil
}

// action posts a join/turn/leave for the given character.
func (c *Client) action(ctx context.Context, raidID, verb, characterID string, out interface{}) error {
	body := map[string]string{"character_id": characterID}
	resp, err := c.post(ctx, "/raids/"+raidID+"/"+verb, body)
	if err != nil {
		return err
	}
	return decode(resp, StatusOK, out)
}

// joinRaid adds the character to the party.
func (c *Client) joinRaid(ctx context.Context, raidID, characterID string) (*Raid, error) {
	var raid Raid
	if err := c.action(ctx, raidID, "join", characterID, &raid); err != nil {
		return nil, err
	}
	return &raid, nil
}

// takeTurn plays one attack for the character.
func (c *Client) takeTurn(ctx context.Context, raidID, characterID string) (*TurnResult, error) {
	var result TurnResult
	if err := c.action(ctx, raidID, "turn", characterID, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// getRaid fetches the current raid record.
func (c *Client) getRaid(ctx context.Context, raidID string) (*Raid, error) {
	resp, err := c.get(ctx, "/raids/"+raidID)
	if err != nil {
		return nil, err
	}
	var raid Raid
	if err := decode(resp, StatusOK, &raid); err != nil {
		return nil, err
	}
	return &raid, nil
}

// lootFailures fetches the failed deliveries recorded for the raid.
func (c *Client) lootFailures(ctx context.Context, raidID string) ([]LootFailure, error) {
	resp, err := c.get(ctx, "/raids/"+raidID+"/loot_failures")
	if err != nil {
		return nil, err
	}
	var failures []LootFailure
	if err := decode(resp, StatusOK, &failures); err != nil {
		return nil, err
	}
	return failures, nil
}

// FetchStats reads the engine's stats endpoint.
func FetchStats(ctx context.Context, baseURL string, timeout time.Duration) (map[string]interface{}, error) {
	c := newClient(baseURL, timeout)
	resp, err := c.get(ctx, "/stats")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service: %w", err)
	}
	var stats map[string]interface{}
	if err := decode(resp, StatusOK, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
