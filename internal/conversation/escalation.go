package conversation

import (
	"strings"

	"ezyassist/pkg/match"
)

var (
	advancedTopics = []string{
		"fibonacci retracement", "elliott wave", "harmonic pattern", "divergence analysis",
		"ichimoku", "bollinger band", "rsi divergence", "macd histogram", "pivot point",
		"stochastic oscillator", "williams %r", "volume profile", "order flow",
		"position sizing", "correlation analysis", "carry trade", "hedging strategy",
		"algorithmic trading", "expert advisor", "automated trading", "backtesting",
		"forward testing", "portfolio management", "money management", "drawdown",
		"sharpe ratio", "risk-reward ratio", "stop out", "margin requirement",
		"slippage", "requote", "spread widening",
	}

	agentRequests = []string{
		"live agent", "human agent", "real person", "customer service", "support team",
		"help desk", "representative", "agent sebenar", "manusia sebenar",
		"customer support", "nak cakap dengan orang", "minta tolong staff", "agent bantuan",
	}
)

const longQuestionWords = 50

// needsAgent reports whether a message should go to a human instead of the
// generative model.
func needsAgent(normalized string) bool {
	if match.ContainsAny(normalized, agentRequests) || match.ContainsAny(normalized, advancedTopics) {
		return true
	}
	return len(strings.Fields(normalized)) > longQuestionWords
}
