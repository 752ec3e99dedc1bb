package publicdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"npay-compare/internal/compare/model"
)

const (
	hospitalListPath = "/hospInfoServicev2/getHospBasisList"
	itemDetailPath   = "/nonPaymentDamtInfoService/getNonPaymentItemHospDtlList"

	hospitalRows = 50
)

type Config struct {
	APIKey      string
	BaseURL     string // https://apis.data.go.kr/B551182
	FallbackURL string // plain-http twin of BaseURL, tried once for the hospital list
	ProxyURL    string // optional relay: POST {ProxyURL}/proxy {"endpoint","params"}
	Rows        int
	Timeout     time.Duration
}

// Client talks to the HIRA services of the public data portal.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Rows <= 0 {
		cfg.Rows = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.FallbackURL = strings.TrimRight(cfg.FallbackURL, "/")
	cfg.ProxyURL = strings.TrimRight(cfg.ProxyURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With().Str("component", "publicdata").Logger(),
	}
}

// SearchHospitals lists hospitals filtered by region codes and, client-side, by name.
func (c *Client) SearchHospitals(ctx context.Context, q model.HospitalQuery) ([]model.Hospital, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	params := c.baseParams(hospitalRows)
	if q.Sido != "" {
		params.Set("sidoCd", q.Sido)
	}
	if q.Sggu != "" {
		params.Set("sgguCd", q.Sggu)
	}
	if q.Search != "" {
		params.Set("yadmNm", q.Search)
	}

	body, err := c.get(ctx, c.cfg.BaseURL, hospitalListPath, params)
	var ue *UpstreamError
	if errors.As(err, &ue) && c.cfg.FallbackURL != "" && c.cfg.FallbackURL != c.cfg.BaseURL {
		c.log.Warn().Int("status", ue.Status).Msg("hospital list failed on primary base, retrying fallback")
		body, err = c.get(ctx, c.cfg.FallbackURL, hospitalListPath, params)
	}
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	hospitals, err := NormalizeHospitals(env.Response.Body.Items)
	if err != nil {
		return nil, err
	}
	if q.Search != "" {
		hospitals = filterByName(hospitals, q.Search)
	}
	return hospitals, nil
}

func filterByName(hs []model.Hospital, term string) []model.Hospital {
	term = strings.ToLower(term)
	out := hs[:0]
	for _, h := range hs {
		if strings.Contains(strings.ToLower(h.Name), term) {
			out = append(out, h)
		}
	}
	return out
}

// FetchItems fetches the non-covered price list of every hospital, one request each.
// Any failure aborts the batch.
func (c *Client) FetchItems(ctx context.Context, hospitalIDs []string) ([]model.Item, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	all := make([]model.Item, 0)
	for _, id := range hospitalIDs {
		items, err := c.fetchHospitalItems(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("hospital %s: %w", id, err)
		}
		all = append(all, items...)
	}
	return all, nil
}

func (c *Client) fetchHospitalItems(ctx context.Context, ykiho string) ([]model.Item, error) {
	params := c.baseParams(c.cfg.Rows)
	params.Set("ykiho", ykiho)

	body, err := c.get(ctx, c.cfg.BaseURL, itemDetailPath, params)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	return NormalizeItems(env.Response.Body.Items, ykiho)
}

func (c *Client) baseParams(rows int) url.Values {
	v := url.Values{}
	v.Set("serviceKey", c.cfg.APIKey)
	v.Set("pageNo", "1")
	v.Set("numOfRows", fmt.Sprintf("%d", rows))
	v.Set("_type", "json")
	return v
}

type proxyRequest struct {
	Endpoint string            `json:"endpoint"`
	Params   map[string]string `json:"params"`
}

func (c *Client) get(ctx context.Context, base, path string, params url.Values) ([]byte, error) {
	endpoint := base + path

	var (
		req *http.Request
		err error
	)
	if c.cfg.ProxyURL == "" {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	} else {
		pr := proxyRequest{Endpoint: endpoint, Params: make(map[string]string, len(params))}
		for k := range params {
			pr.Params[k] = params.Get(k)
		}
		payload, mErr := json.Marshal(pr)
		if mErr != nil {
			return nil, mErr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ProxyURL+"/proxy", bytes.NewReader(payload))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", path).
		Bool("proxy", c.cfg.ProxyURL != "").
		Int("status", resp.StatusCode).
		Dur("dur", time.Since(start)).
		Msg("upstream")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &UpstreamError{Status: resp.StatusCode, Endpoint: path}
	}
	return io.ReadAll(resp.Body)
}
