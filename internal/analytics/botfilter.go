package analytics

import (
	"time"

	"github.com/aristath/alphawallet/internal/domain"
)

const (
	botMinTrades30d     = 10
	botAvgHoldThreshold = 60 * time.Second
	botBurstThreshold   = 15 * time.Second
	botBurstShareGt     = 0.5
	botOneBuyOneSellGt  = 0.7
)

// IsBot applies the four bot heuristics to one wallet's trade history
// within the rolling window already selected by the caller (typically
// 30 days). trades MUST be sorted by Timestamp ascending. Any single
// heuristic firing is sufficient; flagging is otherwise the caller's
// concern (it is sticky — see WalletRepository.MarkBot).
func IsBot(trades []domain.Trade, isContract bool) bool {
	if isContract {
		return true
	}
	if len(trades) < 2 {
		return false
	}

	if len(trades) >= botMinTrades30d {
		var totalGap time.Duration
		for i := 1; i < len(trades); i++ {
			totalGap += trades[i].Timestamp.Sub(trades[i-1].Timestamp)
		}
		avgGap := totalGap / time.Duration(len(trades)-1)
		if avgGap < botAvgHoldThreshold {
			return true
		}
	}

	burstCount := 0
	for i := 1; i < len(trades); i++ {
		if trades[i].Timestamp.Sub(trades[i-1].Timestamp) < botBurstThreshold {
			burstCount++
		}
	}
	if float64(burstCount)/float64(len(trades)-1) > botBurstShareGt {
		return true
	}

	type sideCounts struct{ buys, sells int }
	perToken := make(map[string]*sideCounts)
	for _, t := range trades {
		c, ok := perToken[t.Token]
		if !ok {
			c = &sideCounts{}
			perToken[t.Token] = c
		}
		switch t.Side {
		case domain.SideBuy:
			c.buys++
		case domain.SideSell:
			c.sells++
		}
	}
	if len(perToken) > 0 {
		oneForOne := 0
		for _, c := range perToken {
			if c.buys == 1 && c.sells == 1 {
				oneForOne++
			}
		}
		if float64(oneForOne)/float64(len(perToken)) > botOneBuyOneSellGt {
			return true
		}
	}

	return false
}
