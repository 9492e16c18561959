package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/alphawallet/internal/domain"
)

func TestIsBot_Contract(t *testing.T) {
	assert.True(t, IsBot(nil, true))
}

func TestIsBot_TooFewTrades(t *testing.T) {
	assert.False(t, IsBot([]domain.Trade{trade(1, domain.SideBuy, 1, 1, 0)}, false))
}

func TestIsBot_FastAverageHold(t *testing.T) {
	var trades []domain.Trade
	for i := 0; i < 12; i++ {
		side := domain.SideBuy
		if i%2 == 1 {
			side = domain.SideSell
		}
		trades = append(trades, trade(i*10, side, 1, 10, 0))
	}
	assert.True(t, IsBot(trades, false))
}

func TestIsBot_BurstTrading(t *testing.T) {
	trades := []domain.Trade{
		trade(0, domain.SideBuy, 1, 10, 0),
		trade(5, domain.SideSell, 1, 10, 0),
		trade(10, domain.SideBuy, 1, 10, 0),
	}
	assert.True(t, IsBot(trades, false))
}

func TestIsBot_OneBuyOneSellAcrossManyTokens(t *testing.T) {
	var trades []domain.Trade
	base := 0
	for i := 0; i < 5; i++ {
		buy := trade(base, domain.SideBuy, 1, 10, 0)
		buy.Token = "token" + string(rune('a'+i))
		sell := trade(base+3600, domain.SideSell, 1, 10, 0)
		sell.Token = buy.Token
		trades = append(trades, buy, sell)
		base += 7200
	}
	assert.True(t, IsBot(trades, false))
}

func TestIsBot_NormalWallet(t *testing.T) {
	trades := []domain.Trade{
		trade(0, domain.SideBuy, 1, 10, 0),
		trade(3600, domain.SideSell, 1, 10, 0),
		trade(7200, domain.SideBuy, 1, 10, 0),
		trade(10800, domain.SideBuy, 1, 10, 0),
		trade(14400, domain.SideSell, 1, 10, 0),
	}
	assert.False(t, IsBot(trades, false))
}
