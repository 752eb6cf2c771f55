package qikpod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
)

// ErrRejected marks a 2xx response whose statusbool is false.
var ErrRejected = errors.New("remote rejected request")

const (
	DefaultBaseURL  = "https://staging.qikpod.com/showcase"
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
	stationTag      = "station"
	userAgent       = "ams/qikpod"
)

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the showcase storage API. It serves both feeds and the
// tray actions used by the remote robot.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *slog.Logger
}

var (
	_ ports.PartsFeed           = (*Client)(nil)
	_ ports.StationsFeed        = (*Client)(nil)
	_ ports.TrayActions         = (*Client)(nil)
	_ ports.AvailabilityChecker = (*Client)(nil)
)

func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", baseURL.Scheme)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{baseURL: baseURL, token: cfg.Token, http: client, logger: logger}, nil
}

func (c *Client) FetchStations(ctx context.Context) ([]domain.FeedStation, error) {
	query := url.Values{}
	query.Set("tags", stationTag)
	query.Set("order_by_field", "id")
	query.Set("order_by_type", "ASC")

	env, err := c.getEnvelope(ctx, "/slots", query)
	if err != nil {
		return nil, fmt.Errorf("fetch stations: %w", err)
	}

	return decodeRecords(c.logger, "slot", env.Records, slotRecord.toFeedStation), nil
}

func (c *Client) FetchParts(ctx context.Context, category string) ([]domain.FeedPart, error) {
	query := url.Values{}
	query.Set("order_by_field", "updated_at")
	query.Set("order_by_type", "ASC")
	if category = strings.TrimSpace(category); category != "" {
		query.Set("item_category", category)
	}

	env, err := c.getEnvelope(ctx, "/items", query)
	if err != nil {
		return nil, fmt.Errorf("fetch parts: %w", err)
	}

	return decodeRecords(c.logger, "item", env.Records, itemRecord.toFeedPart), nil
}

func (c *Client) FetchCategories(ctx context.Context) ([]string, error) {
	env, err := c.getEnvelope(ctx, "/items/category_list", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}

	categories := []string{}
	if len(env.Records) == 0 {
		return categories, nil
	}

	var record categoryRecord
	if err := json.Unmarshal(env.Records[0], &record); err != nil {
		return nil, fmt.Errorf("fetch categories: decode record: %w", err)
	}
	for _, category := range record.Categories {
		if category = strings.TrimSpace(category); category != "" {
			categories = append(categories, category)
		}
	}

	return categories, nil
}

// CheckTray reports whether a tray is free to be retrieved. A tray already
// present at a station is not available.
func (c *Client) CheckTray(ctx context.Context, trayID string) (domain.TrayAvailability, error) {
	if trayID == "" {
		return domain.TrayAvailability{}, domain.ErrNoTray
	}

	query := url.Values{}
	query.Set("tray_id", trayID)
	query.Set("tags", stationTag)
	query.Set("order_by_field", "updated_at")
	query.Set("order_by_type", "ASC")

	env, err := c.getEnvelope(ctx, "/slots", query)
	if err != nil {
		return domain.TrayAvailability{}, fmt.Errorf("check tray %s: %w", trayID, err)
	}

	stations := decodeRecords(c.logger, "slot", env.Records, slotRecord.toFeedStation)
	if len(stations) == 0 {
		return domain.TrayAvailability{Available: true}, nil
	}

	return domain.TrayAvailability{Available: false, StationName: stations[0].Name}, nil
}

func (c *Client) RetrieveTray(ctx context.Context, trayID string) error {
	if trayID == "" {
		return domain.ErrNoTray
	}

	query := url.Values{}
	query.Set("tray_id", trayID)
	query.Set("required_tags", stationTag)

	if _, err := c.do(ctx, http.MethodPost, "/retrieve_tray", query); err != nil {
		return fmt.Errorf("retrieve tray %s: %w", trayID, err)
	}
	return nil
}

func (c *Client) ReleaseTray(ctx context.Context, trayID string) error {
	if trayID == "" {
		return domain.ErrNoTray
	}

	query := url.Values{}
	query.Set("tray_id", trayID)

	if _, err := c.do(ctx, http.MethodPost, "/release_tray", query); err != nil {
		return fmt.Errorf("release tray %s: %w", trayID, err)
	}
	return nil
}

func (c *Client) getEnvelope(ctx context.Context, path string, query url.Values) (envelope, error) {
	body, err := c.do(ctx, http.MethodGet, path, query)
	if err != nil {
		return envelope{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Records == nil {
		env.Records = []json.RawMessage{}
	}

	return env, nil
}

// do performs one request and returns the body of a successful response. A
// response whose statusbool is false counts as a failure even with a 2xx code.
func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path
	endpoint.RawQuery = query.Encode()

	request, err := http.NewRequestWithContext(ctx, method, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		switch response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUnauthorized, response.StatusCode, message)
		case http.StatusConflict:
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrRemoteConflict, response.StatusCode, message)
		}
		return nil, fmt.Errorf("status %d: %s", response.StatusCode, message)
	}

	if len(bytes.TrimSpace(body)) > 0 {
		var status statusOnly
		if err := json.Unmarshal(body, &status); err == nil && status.StatusBool != nil && !*status.StatusBool {
			message := status.Message
			if message == "" {
				message = "remote reported failure"
			}
			return nil, fmt.Errorf("%w: %s", ErrRejected, message)
		}
	}

	return body, nil
}
