package conversation

import (
	"strings"

	"ezyassist/internal/knowledge"
	"ezyassist/pkg/match"
)

const (
	persona = "You are RentungBot, the friendly forex assistant of EzyAssist, a Malaysian forex education community. "

	forexInstruction = persona +
		"Answer forex and trading questions clearly and practically, in short paragraphs suitable for a chat app. " +
		"Always mention risk management where relevant. Never promise profits and never give personalised financial advice. "

	forexBrokerInstruction = forexInstruction +
		"When brokers come up, you may refer to OctaFX, HFM, Valetax and Dollars Markets, " +
		"and remind users that Valetax and Dollars Markets are offshore-regulated with mixed user feedback. "

	generalInstruction = persona +
		"The question is not about forex. Answer briefly and politely, then gently steer the conversation back to forex and trading. "

	malayStyle   = "Reply in casual Malaysian Malay (bahasa pasar), the way a friendly trader talks on Telegram. Address the user as 'awak'."
	englishStyle = "Reply in simple, friendly English."
)

var forexRelated = []string{
	"forex", "trading", "trade", "currency", "pip", "spread", "leverage", "margin",
	"broker", "chart", "analysis", "technical", "fundamental", "support", "resistance",
	"trend", "bull", "bear", "profit", "loss", "strategy", "scalping", "swing",
	"market", "mata wang", "perdagangan", "pasaran", "analisis", "strategi",
	"keuntungan", "kerugian", "carta", "teknikal", "untung", "rugi", "gold", "xauusd",
}

// systemInstruction picks the instruction for a generative reply based on
// whether the message is about forex and whether it names a broker.
func systemInstruction(normalized string, lang knowledge.Language) string {
	var base string
	switch {
	case match.ContainsAny(normalized, forexRelated) && len(knowledge.Brokers(normalized)) > 0:
		base = forexBrokerInstruction
	case match.ContainsAny(normalized, forexRelated):
		base = forexInstruction
	default:
		base = generalInstruction
	}
	if lang == knowledge.English {
		return base + englishStyle
	}
	return base + malayStyle
}

// maxTokens scales the reply budget with the question length.
func maxTokens(message string) int32 {
	switch n := len(strings.Fields(message)); {
	case n <= 10:
		return 100
	case n <= 30:
		return 200
	default:
		return 350
	}
}
