package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MemeFilter holds the meme-coin classification band and the
// stable-coin/wrapped-native exclusion list, per chain. This is data,
// not code, so it lives in a yaml file next to the databases rather
// than hardcoded defaults.
type MemeFilter struct {
	MemeBand  MemeBand            `yaml:"meme_band"`
	Excluded  map[string][]string `yaml:"excluded_tokens"` // chain_id -> list of addresses (lowercase)
}

// MemeBand is the heuristic price/volume/liquidity window a token must
// fall within before the paper trader will open a position in it.
type MemeBand struct {
	MinPriceUSD     float64 `yaml:"min_price_usd"`
	MaxPriceUSD     float64 `yaml:"max_price_usd"`
	MinVolume24hUSD float64 `yaml:"min_volume_24h_usd"`
	MinLiquidityUSD float64 `yaml:"min_liquidity_usd"`
}

// defaultMemeFilter is written to disk the first time a repo boots
// without one, so the file is always present to edit afterwards.
var defaultMemeFilter = MemeFilter{
	MemeBand: MemeBand{
		MinPriceUSD:     0.0000001,
		MaxPriceUSD:     10.0,
		MinVolume24hUSD: 50000,
		MinLiquidityUSD: 20000,
	},
	Excluded: map[string][]string{
		"ethereum": {
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT (note: checksum irrelevant, stored lowercase)
			"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
		},
		"base": {
			"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", // USDC
			"0x4200000000000000000000000000000000000006", // WETH
		},
		"arbitrum": {
			"0xaf88d065e77c8cc2239327c5edb3a432268e5831", // USDC
			"0x82af49447d8a07e3bd95bd0d56f35241523fbab1", // WETH
		},
		"solana": {
			"epjfwdd5aufqssqem2qn1xzybapc8g4weggkzwytdt1v", // USDC
			"so11111111111111111111111111111111111111112", // wrapped SOL
		},
	},
}

// LoadMemeFilter reads the meme filter yaml at path, writing the
// built-in default if the file does not yet exist.
func LoadMemeFilter(path string) (*MemeFilter, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		out, mErr := yaml.Marshal(defaultMemeFilter)
		if mErr != nil {
			return nil, fmt.Errorf("marshal default meme filter: %w", mErr)
		}
		if wErr := os.WriteFile(path, out, 0644); wErr != nil {
			return nil, fmt.Errorf("write default meme filter: %w", wErr)
		}
		mf := defaultMemeFilter
		return &mf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read meme filter: %w", err)
	}

	var mf MemeFilter
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse meme filter: %w", err)
	}
	return &mf, nil
}

// IsExcluded reports whether a token address is a stable-coin or
// wrapped-native asset that should never be treated as a discovered
// alpha signal. Addresses are compared case-insensitively, so a
// checksummed address matches its lowercase list entry.
func (m *MemeFilter) IsExcluded(chainID, tokenAddress string) bool {
	for _, addr := range m.Excluded[chainID] {
		if strings.EqualFold(addr, tokenAddress) {
			return true
		}
	}
	return false
}

// InBand reports whether a token's observed price/volume/liquidity
// falls within the configured meme-coin candidate window.
func (m *MemeFilter) InBand(priceUSD, volume24hUSD, liquidityUSD float64) bool {
	b := m.MemeBand
	if priceUSD < b.MinPriceUSD || priceUSD > b.MaxPriceUSD {
		return false
	}
	if volume24hUSD < b.MinVolume24hUSD {
		return false
	}
	if liquidityUSD < b.MinLiquidityUSD {
		return false
	}
	return true
}
