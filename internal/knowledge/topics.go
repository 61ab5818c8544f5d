package knowledge

import "ezyassist/pkg/match"

// Topic is the sub-topic of a broker question.
type Topic string

const (
	TopicNone         Topic = ""
	TopicSpreads      Topic = "spreads"
	TopicDeposit      Topic = "minimum_deposit"
	TopicPlatforms    Topic = "platforms"
	TopicRegulation   Topic = "regulation"
	TopicLeverage     Topic = "leverage"
	TopicWarnings     Topic = "warnings"
	TopicBeginner     Topic = "beginner"
	TopicScalping     Topic = "scalping"
	TopicProfessional Topic = "professional"
)

// IsScenario reports whether t asks for a recommendation rather than a fact
// about one broker.
func (t Topic) IsScenario() bool {
	return t == TopicBeginner || t == TopicScalping || t == TopicProfessional
}

var topicRules = []match.Rule[Topic]{
	{Result: TopicSpreads, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"spread", "eur/usd", "eurusd"}) || match.ContainsAnyWord(s, []string{"pip", "pips"})
	}},
	{Result: TopicDeposit, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"minimum deposit", "min deposit", "deposit"})
	}},
	{Result: TopicPlatforms, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"mt5", "mt4", "metatrader", "platform", "ctrader"})
	}},
	{Result: TopicRegulation, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"regulated", "regulation", "regulator", "license", "licence", "lesen", "selamat"}) ||
			match.ContainsAnyWord(s, []string{"safe", "scam"})
	}},
	{Result: TopicLeverage, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"leverage", "margin"})
	}},
	{Result: TopicWarnings, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"warning", "amaran", "problem", "masalah", "withdraw"}) ||
			match.ContainsAnyWord(s, []string{"risk", "issue", "issues"})
	}},
	{Result: TopicBeginner, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"beginner", "pemula", "newbie"}) ||
			match.ContainsAnyWord(s, []string{"new", "start", "baru"})
	}},
	{Result: TopicScalping, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"scalping", "scalp"})
	}},
	{Result: TopicProfessional, Match: func(s string) bool {
		return match.ContainsAny(s, []string{"professional", "high volume", "volume tinggi", "profesional"})
	}},
}

// DetectTopic returns the first sub-topic whose keywords appear in the
// normalized message, or TopicNone.
func DetectTopic(normalized string) Topic {
	t, _ := match.First(topicRules, normalized)
	return t
}
