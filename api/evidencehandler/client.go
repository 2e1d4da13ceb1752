package evidencehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/ruteri/verichain/api"
	"github.com/ruteri/verichain/interfaces"
)

// Client talks to the evidence API.
type Client struct {
	BaseURL string
	Client  *http.Client
}

// NewClient creates a client for the server at baseURL, e.g. http://127.0.0.1:8080.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  http.DefaultClient,
	}
}

// Upload submits data as a multipart file. An empty contentType lets the
// server sniff it.
func (c *Client) Upload(ctx context.Context, filename, contentType string, data io.Reader) (*api.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		partHeader.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("could not create multipart body: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("could not read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("could not create multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/evidence", &body)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp api.UploadResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Fetch downloads the decrypted evidence and its content type.
func (c *Client) Fetch(ctx context.Context, hash interfaces.ContentHash) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/evidence/%s", c.BaseURL, hash.String()), nil)
	if err != nil {
		return nil, "", fmt.Errorf("could not initialize request: %w", err)
	}

	resp, body, err := c.do(req)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// Record returns the catalog record for hash.
func (c *Client) Record(ctx context.Context, hash interfaces.ContentHash) (*interfaces.EvidenceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/evidence/%s/record", c.BaseURL, hash.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var record interfaces.EvidenceRecord
	if err := c.doJSON(req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every catalog record, newest first.
func (c *Client) List(ctx context.Context) (*api.ListResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/evidence", nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var list api.ListResponse
	if err := c.doJSON(req, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Status returns the server status.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var status api.StatusResponse
	if err := c.doJSON(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) doJSON(req *http.Request, v any) error {
	_, body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}

// do executes req and maps error statuses back onto the interfaces sentinels.
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	if c.Client == nil {
		c.Client = http.DefaultClient
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("could not request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, nil, fmt.Errorf("%w: %s", interfaces.ErrContentNotFound, msg)
		case http.StatusUnprocessableEntity:
			return nil, nil, fmt.Errorf("%w: %s", interfaces.ErrAuthentication, msg)
		default:
			return nil, nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
		}
	}
	return resp, body, nil
}
