// Package price fetches live PEPU market data. DexScreener is tried
// first, then GeckoTerminal; both raw response shapes are normalized into
// one Snapshot tagged with the variant that produced it.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pepu-community/pepubot/config"
)

// ErrFetch wraps every failure to obtain price data.
var ErrFetch = errors.New("price fetch failed")

const (
	VariantDexScreener   = "dexscreener"
	VariantGeckoTerminal = "geckoterminal"
)

// Snapshot is the normalized market data shape all formatting operates
// on. Fields the source variant does not report stay zero.
type Snapshot struct {
	PriceUSD       float64
	PriceChange24h float64
	MarketCap      float64
	Volume24h      float64
	Liquidity      float64
	Variant        string
}

// Fetcher is the capability the conversation engine consumes.
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

type Client struct {
	cfg        config.PriceConfig
	httpClient *http.Client

	// endpoint bases, overridable in tests
	dexScreenerBase   string
	geckoTerminalBase string
}

func NewClient(cfg config.PriceConfig) *Client {
	return &Client{
		cfg:               cfg,
		httpClient:        &http.Client{Timeout: cfg.Timeout},
		dexScreenerBase:   "https://api.dexscreener.com",
		geckoTerminalBase: "https://api.geckoterminal.com",
	}
}

// Fetch returns the current snapshot, preferring DexScreener and falling
// back to GeckoTerminal.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	snapshot, dexErr := c.fetchDexScreener(ctx)
	if dexErr == nil {
		return snapshot, nil
	}

	snapshot, geckoErr := c.fetchGeckoTerminal(ctx)
	if geckoErr == nil {
		return snapshot, nil
	}

	return Snapshot{}, fmt.Errorf("%w: dexscreener: %v; geckoterminal: %v", ErrFetch, dexErr, geckoErr)
}

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

type dexScreenerPair struct {
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	MarketCap float64 `json:"marketCap"`
	FDV       float64 `json:"fdv"`
	Volume    struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

func (c *Client) fetchDexScreener(ctx context.Context) (Snapshot, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", c.dexScreenerBase, c.cfg.TokenAddress)

	var parsed dexScreenerResponse
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		return Snapshot{}, err
	}
	if len(parsed.Pairs) == 0 {
		return Snapshot{}, fmt.Errorf("dexscreener returned no pairs")
	}

	return normalizeDexScreener(parsed.Pairs[0]), nil
}

type geckoTerminalResponse struct {
	Data struct {
		Attributes geckoTerminalAttributes `json:"attributes"`
	} `json:"data"`
}

type geckoTerminalAttributes struct {
	PriceUSD     string `json:"price_usd"`
	MarketCapUSD string `json:"market_cap_usd"`
	FDVUSD       string `json:"fdv_usd"`
	VolumeUSD    struct {
		H24 string `json:"h24"`
	} `json:"volume_usd"`
}

func (c *Client) fetchGeckoTerminal(ctx context.Context) (Snapshot, error) {
	url := fmt.Sprintf("%s/api/v2/networks/%s/tokens/%s", c.geckoTerminalBase, c.cfg.NetworkSlug, c.cfg.TokenAddress)

	var parsed geckoTerminalResponse
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		return Snapshot{}, err
	}
	if parsed.Data.Attributes.PriceUSD == "" {
		return Snapshot{}, fmt.Errorf("geckoterminal returned no price")
	}

	return normalizeGeckoTerminal(parsed.Data.Attributes), nil
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned status %s", url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// normalizeDexScreener maps one DexScreener pair onto the Snapshot shape.
// Market cap falls back to FDV when the pair carries no cap.
func normalizeDexScreener(pair dexScreenerPair) Snapshot {
	marketCap := pair.MarketCap
	if marketCap == 0 {
		marketCap = pair.FDV
	}

	return Snapshot{
		PriceUSD:       parseFloat(pair.PriceUSD),
		PriceChange24h: pair.PriceChange.H24,
		MarketCap:      marketCap,
		Volume24h:      pair.Volume.H24,
		Liquidity:      pair.Liquidity.USD,
		Variant:        VariantDexScreener,
	}
}

// normalizeGeckoTerminal maps GeckoTerminal token attributes onto the
// Snapshot shape. The token endpoint reports no 24h change or liquidity.
func normalizeGeckoTerminal(attrs geckoTerminalAttributes) Snapshot {
	marketCap := parseFloat(attrs.MarketCapUSD)
	if marketCap == 0 {
		marketCap = parseFloat(attrs.FDVUSD)
	}

	return Snapshot{
		PriceUSD:  parseFloat(attrs.PriceUSD),
		MarketCap: marketCap,
		Volume24h: parseFloat(attrs.VolumeUSD.H24),
		Variant:   VariantGeckoTerminal,
	}
}

func parseFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

var _ Fetcher = (*Client)(nil)
