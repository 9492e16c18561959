// Package trending implements domain.TrendingSource against public
// market-data providers.
package trending

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/adapters/httpx"
	"github.com/aristath/alphawallet/internal/domain"
)

// DexScreener fetches the current top boosted/trending token profiles
// per chain from the public DexScreener API.
type DexScreener struct {
	client *httpx.Client
	apiKey string
	log    zerolog.Logger
}

// NewDexScreener builds a DexScreener trending source.
func NewDexScreener(apiKey string, log zerolog.Logger) *DexScreener {
	return &DexScreener{
		client: httpx.New(10*time.Second, 2, 500*time.Millisecond),
		apiKey: apiKey,
		log:    log.With().Str("adapter", "dexscreener").Logger(),
	}
}

// Name identifies this source for the price router / health surface.
func (d *DexScreener) Name() string { return "dexscreener" }

type dexscreenerPair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
}

type dexscreenerResponse struct {
	Pairs []dexscreenerPair `json:"pairs"`
}

// TopN returns the top N trending tokens for a chain, ranked by 24h
// volume (DexScreener does not expose an explicit trending rank, so
// volume descending is used as the proxy).
func (d *DexScreener) TopN(chainID string, n int) ([]domain.SeedEntry, error) {
	url := fmt.Sprintf("https://api.dexscreener.com/latest/dex/search?q=%s", chainID)
	headers := map[string]string{}
	if d.apiKey != "" {
		headers["Authorization"] = "Bearer " + d.apiKey
	}

	body, err := d.client.GetJSON(url, headers)
	if err != nil {
		return nil, fmt.Errorf("dexscreener fetch: %w", err)
	}

	var parsed dexscreenerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("dexscreener parse: %w", err)
	}

	pairs := make([]dexscreenerPair, 0, len(parsed.Pairs))
	for _, p := range parsed.Pairs {
		if p.ChainID != chainID || p.BaseToken.Address == "" {
			continue
		}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Volume.H24 > pairs[j].Volume.H24 })
	if len(pairs) > n {
		pairs = pairs[:n]
	}

	entries := make([]domain.SeedEntry, 0, len(pairs))
	for i, p := range pairs {
		var priceUSD float64
		fmt.Sscanf(p.PriceUSD, "%f", &priceUSD)
		entries = append(entries, domain.SeedEntry{
			TokenAddress: p.BaseToken.Address,
			Symbol:       p.BaseToken.Symbol,
			Rank:         i + 1,
			Volume24h:    p.Volume.H24,
			Change24hPct: p.PriceChange.H24,
			LiquidityUSD: p.Liquidity.USD,
			PriceUSD:     priceUSD,
		})
	}
	return entries, nil
}

// Price implements domain.PriceSource by reading the best-liquidity
// pair's priceUsd for a token.
func (d *DexScreener) Price(tokenAddress, chainID string) (float64, error) {
	url := fmt.Sprintf("https://api.dexscreener.com/latest/dex/tokens/%s", tokenAddress)
	body, err := d.client.GetJSON(url, nil)
	if err != nil {
		return 0, fmt.Errorf("dexscreener price fetch: %w", err)
	}

	var parsed dexscreenerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("dexscreener price parse: %w", err)
	}

	best := -1.0
	var bestPrice float64
	for _, p := range parsed.Pairs {
		if p.ChainID != chainID {
			continue
		}
		if p.Liquidity.USD > best {
			best = p.Liquidity.USD
			fmt.Sscanf(p.PriceUSD, "%f", &bestPrice)
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("no pairs found for token %s on %s", tokenAddress, chainID)
	}
	return bestPrice, nil
}
