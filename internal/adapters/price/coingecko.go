// Package price implements domain.PriceSource against fiat
// market-data providers, the last link in the price router's fallback
// chain.
package price

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/adapters/httpx"
)

// CoinGecko fetches spot prices by contract address. It is
// intentionally last in the router's preference order: broad chain
// coverage but coarser, more heavily cached upstream data than a
// DEX-native source.
type CoinGecko struct {
	client *httpx.Client
	apiKey string
	log    zerolog.Logger
}

// NewCoinGecko builds a CoinGecko price source.
func NewCoinGecko(apiKey string, log zerolog.Logger) *CoinGecko {
	return &CoinGecko{
		client: httpx.New(10*time.Second, 2, 2*time.Second),
		apiKey: apiKey,
		log:    log.With().Str("adapter", "coingecko").Logger(),
	}
}

// Name identifies this source.
func (g *CoinGecko) Name() string { return "coingecko" }

// platformIDs maps our chain identifiers to CoinGecko's "asset
// platform" slugs.
var platformIDs = map[string]string{
	"ethereum": "ethereum",
	"base":     "base",
	"arbitrum": "arbitrum-one",
	"solana":   "solana",
}

// Price returns the CoinGecko spot price in USD for a token contract
// address on a chain.
func (g *CoinGecko) Price(tokenAddress, chainID string) (float64, error) {
	platform, ok := platformIDs[chainID]
	if !ok {
		return 0, fmt.Errorf("coingecko: unsupported chain %s", chainID)
	}

	url := fmt.Sprintf("https://api.coingecko.com/api/v3/simple/token_price/%s?contract_addresses=%s&vs_currencies=usd",
		platform, strings.ToLower(tokenAddress))
	headers := map[string]string{}
	if g.apiKey != "" {
		headers["x-cg-pro-api-key"] = g.apiKey
	}

	body, err := g.client.GetJSON(url, headers)
	if err != nil {
		return 0, fmt.Errorf("coingecko fetch: %w", err)
	}

	var parsed map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("coingecko parse: %w", err)
	}

	entry, ok := parsed[strings.ToLower(tokenAddress)]
	if !ok || entry.USD <= 0 {
		return 0, fmt.Errorf("coingecko: no price for %s on %s", tokenAddress, chainID)
	}
	return entry.USD, nil
}
