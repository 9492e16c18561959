package trending

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/alphawallet/internal/adapters/httpx"
	"github.com/aristath/alphawallet/internal/domain"
)

// Birdeye implements domain.TrendingSource and domain.PriceSource for
// Solana and a handful of EVM chains Birdeye covers directly.
type Birdeye struct {
	client *httpx.Client
	apiKey string
	log    zerolog.Logger
}

// NewBirdeye builds a Birdeye adapter.
func NewBirdeye(apiKey string, log zerolog.Logger) *Birdeye {
	return &Birdeye{
		client: httpx.New(10*time.Second, 2, 300*time.Millisecond),
		apiKey: apiKey,
		log:    log.With().Str("adapter", "birdeye").Logger(),
	}
}

// Name identifies this source.
func (b *Birdeye) Name() string { return "birdeye" }

type birdeyeTrendingToken struct {
	Address      string  `json:"address"`
	Symbol       string  `json:"symbol"`
	Rank         int     `json:"rank"`
	Volume24hUSD float64 `json:"volume24hUSD"`
	Price        float64 `json:"price"`
	Price24hPct  float64 `json:"price24hChangePercent"`
	Liquidity    float64 `json:"liquidity"`
}

type birdeyeTrendingResponse struct {
	Data struct {
		Tokens []birdeyeTrendingToken `json:"tokens"`
	} `json:"data"`
}

func (b *Birdeye) headers(chainID string) map[string]string {
	h := map[string]string{"x-chain": chainID}
	if b.apiKey != "" {
		h["X-API-KEY"] = b.apiKey
	}
	return h
}

// TopN returns Birdeye's trending list for a chain.
func (b *Birdeye) TopN(chainID string, n int) ([]domain.SeedEntry, error) {
	url := fmt.Sprintf("https://public-api.birdeye.so/defi/token_trending?sort_by=volume24hUSD&sort_type=desc&offset=0&limit=%d", n)
	body, err := b.client.GetJSON(url, b.headers(chainID))
	if err != nil {
		return nil, fmt.Errorf("birdeye fetch: %w", err)
	}

	var parsed birdeyeTrendingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("birdeye parse: %w", err)
	}

	entries := make([]domain.SeedEntry, 0, len(parsed.Data.Tokens))
	for i, t := range parsed.Data.Tokens {
		entries = append(entries, domain.SeedEntry{
			TokenAddress: t.Address,
			Symbol:       t.Symbol,
			Rank:         i + 1,
			Volume24h:    t.Volume24hUSD,
			Change24hPct: t.Price24hPct,
			LiquidityUSD: t.Liquidity,
			PriceUSD:     t.Price,
		})
	}
	return entries, nil
}

type birdeyePriceResponse struct {
	Data struct {
		Value float64 `json:"value"`
	} `json:"data"`
}

// Price returns the Birdeye-reported price for a token on a chain.
func (b *Birdeye) Price(tokenAddress, chainID string) (float64, error) {
	url := fmt.Sprintf("https://public-api.birdeye.so/defi/price?address=%s", tokenAddress)
	body, err := b.client.GetJSON(url, b.headers(chainID))
	if err != nil {
		return 0, fmt.Errorf("birdeye price fetch: %w", err)
	}

	var parsed birdeyePriceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("birdeye price parse: %w", err)
	}
	if parsed.Data.Value <= 0 {
		return 0, fmt.Errorf("birdeye returned non-positive price for %s", tokenAddress)
	}
	return parsed.Data.Value, nil
}
