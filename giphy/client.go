package giphy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type Client struct {
	baseURL    string
	apiKey     string
	HTTPClient *http.Client
}

func NewClient(apiKey string, baseURL url.URL) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL.String(),
		HTTPClient: http.DefaultClient,
	}
}

// Random asks for one random GIF carrying the given tag.
func (c Client) Random(ctx context.Context, tag string) (*RandomResponse, error) {
	url, err := url.Parse(c.baseURL + "/gifs/random")
	if err != nil {
		return nil, err
	}
	q := url.Query()
	q.Add("api_key", c.apiKey)
	q.Add("tag", tag)
	url.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("giphy random returned status %d", resp.StatusCode)
	}

	var rr RandomResponse
	if err = json.Unmarshal(body, &rr); err != nil {
		return nil, err
	}

	return &rr, nil
}
