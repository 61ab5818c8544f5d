package knowledge

import (
	"fmt"
	"strings"

	"ezyassist/pkg/match"
)

var comparisonWords = []string{
	"compare", "comparison", "versus", "vs", "banding", "bandingkan", "perbandingan",
	"beza", "difference", "better", "lagi bagus", "mana satu", "which",
}

// BrokerAnswer resolves a broker question:
//   - a recommendation sub-topic returns the scenario list
//   - one broker with a known sub-topic returns the canned answer
//   - two or more brokers with a comparison word compare the first two
//   - one broker otherwise returns its profile
//   - anything else returns the generic broker prompt
func BrokerAnswer(normalized string, lang Language) string {
	brokers := Brokers(normalized)
	topic := DetectTopic(normalized)

	if topic.IsScenario() && len(brokers) != 1 {
		return Scenario(topic, lang)
	}
	if len(brokers) == 1 && topic != TopicNone {
		if text, ok := qa[brokers[0]][topic]; ok {
			return text.In(lang)
		}
	}
	if len(brokers) >= 2 && match.ContainsAnyWord(normalized, comparisonWords) {
		return Compare(brokers[0], brokers[1], lang)
	}
	if len(brokers) == 1 {
		return ProfileSummary(brokers[0], lang)
	}
	return Prompt(lang)
}

// Prompt invites the user to ask about a specific broker.
func Prompt(lang Language) string {
	return Text{
		EN: "I can help you with information about brokers like OctaFX, HFM, Valetax, and Dollars Markets. Ask me about spreads, leverage, regulation, or compare these brokers!",
		MS: "Boleh je! Saya ada info pasal broker macam OctaFX, HFM, Valetax, dan Dollars Markets. Tanya je pasal spread, leverage, regulation, atau nak compare broker mana-mana pun!",
	}.In(lang)
}

type labels struct {
	compare, info, regulation, deposit, leverage, platforms, warnings string
}

var labelsByLang = map[Language]labels{
	English: {
		compare:    "%s vs %s Comparison:",
		info:       "%s Information:",
		regulation: "Regulation",
		deposit:    "Minimum Deposit",
		leverage:   "Maximum Leverage",
		platforms:  "Platforms",
		warnings:   "⚠️ CRITICAL WARNINGS:",
	},
	Malay: {
		compare:    "Perbandingan %s vs %s:",
		info:       "Maklumat %s:",
		regulation: "Peraturan",
		deposit:    "Deposit Minimum",
		leverage:   "Leverage Maksimum",
		platforms:  "Platform",
		warnings:   "⚠️ AMARAN PENTING:",
	},
}

func labelsFor(lang Language) labels {
	if l, ok := labelsByLang[lang]; ok {
		return l
	}
	return labelsByLang[Malay]
}

// Compare renders a side-by-side summary of two brokers in the given order.
func Compare(a, b BrokerKey, lang Language) string {
	pa, okA := profiles[a]
	pb, okB := profiles[b]
	if !okA || !okB {
		return Prompt(lang)
	}
	l := labelsFor(lang)

	var sb strings.Builder
	fmt.Fprintf(&sb, l.compare+"\n", pa.Name, pb.Name)
	section := func(title string, va, vb string) {
		fmt.Fprintf(&sb, "\n%s:\n• %s: %s\n• %s: %s\n", title, pa.Name, va, pb.Name, vb)
	}
	section(l.regulation, strings.Join(pa.Regulators, ", "), strings.Join(pb.Regulators, ", "))
	section(l.deposit, pa.MinDeposit, pb.MinDeposit)
	section(l.leverage, pa.MaxLeverage, pb.MaxLeverage)
	section(l.platforms, strings.Join(pa.Platforms, ", "), strings.Join(pb.Platforms, ", "))
	return strings.TrimRight(sb.String(), "\n")
}

// ProfileSummary renders one broker's profile, including its warnings.
func ProfileSummary(key BrokerKey, lang Language) string {
	p, ok := profiles[key]
	if !ok {
		return Prompt(lang)
	}
	l := labelsFor(lang)

	var sb strings.Builder
	fmt.Fprintf(&sb, l.info+"\n\n", p.Name)
	fmt.Fprintf(&sb, "%s: %s\n", l.regulation, strings.Join(p.Regulators, ", "))
	fmt.Fprintf(&sb, "%s: %s\n", l.deposit, p.MinDeposit)
	fmt.Fprintf(&sb, "%s: %s\n", l.leverage, p.MaxLeverage)
	fmt.Fprintf(&sb, "%s: %s", l.platforms, strings.Join(p.Platforms, ", "))
	if len(p.Warnings) > 0 {
		sb.WriteString("\n\n" + l.warnings)
		for _, w := range p.Warnings {
			sb.WriteString("\n• " + w.In(lang))
		}
	}
	return sb.String()
}

// Scenario renders the recommendation list for a scenario topic.
func Scenario(topic Topic, lang Language) string {
	sc, ok := scenarios[topic]
	if !ok {
		return Prompt(lang)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", sc.title.In(lang))
	for i, rec := range []recommendation{sc.first, sc.second} {
		medal := "🥇"
		if i == 1 {
			medal = "🥈"
		}
		fmt.Fprintf(&sb, "\n%s %s:\n", medal, rec.broker)
		for _, r := range rec.reasons {
			sb.WriteString("• " + r.In(lang) + "\n")
		}
	}
	if c := sc.consider.In(lang); c != "" {
		sb.WriteString("\n⚠️ " + c)
	}
	return strings.TrimRight(sb.String(), "\n")
}
