// Package intent maps a free-text chat message to a routing tag using an
// ordered list of keyword rules. The first rule that matches wins.
package intent

import (
	"strings"

	"ezyassist/internal/knowledge"
	"ezyassist/pkg/match"
)

// Tag is the classification result.
type Tag string

const (
	Greeting      Tag = "greeting"
	Registration  Tag = "registration"
	FAQ           Tag = "faq"
	BrokerInquiry Tag = "broker_inquiry"
	ForexGeneral  Tag = "forex_general"
	General       Tag = "general"
)

// Rule is one predicate in the classification order.
type Rule = match.Rule[Tag]

var (
	greetingKeywords = []string{
		"hi", "hello", "hai", "hey", "helo", "hola", "yo",
		"salam", "assalamualaikum", "assalamuaalaikum",
		"selamat pagi", "selamat petang", "selamat malam", "selamat tengahari",
		"good morning", "good afternoon", "good evening",
	}

	vipKeywords = []string{
		"vip registration", "pendaftaran vip", "vip access", "akses vip",
		"vip group", "group vip", "vip channel", "channel vip",
		"group chat fighter", "fighter rentung",
	}

	actionKeywords = []string{
		"register", "daftar", "join", "sign up", "signup", "sertai", "masuk",
		"subscribe", "langgan", "apply", "mohon",
	}

	interestKeywords = []string{
		"course", "program", "interested", "berminat", "minat", "kelas", "class",
		"mentor", "signal", "membership", "member", "ahli",
	}

	brokerKeywords = []string{
		"broker", "spread", "leverage", "regulated", "regulation", "mt4", "mt5",
		"metatrader", "minimum deposit", "min deposit", "withdrawal", "account type",
		"trading platform", "fsc", "ecn",
	}

	forexTerms = []string{
		"forex", "trading", "currency", "pip", "margin", "chart", "analysis",
		"technical", "fundamental", "support", "resistance", "trend", "bullish", "bearish",
		"profit", "strategy", "scalping", "swing", "candlestick", "stop loss", "take profit",
		"mata wang", "perdagangan", "pasaran", "analisis", "strategi", "keuntungan",
		"kerugian", "carta", "teknikal", "sokongan", "rintangan", "untung", "rugi",
		"gold", "xauusd", "eurusd", "gbpusd", "usdjpy",
	}

	tradingPhrases = []string{
		"nak belajar trade", "belajar trading", "learn trade", "learn trading",
		"handle loss", "manage loss", "trading loss", "loss dalam trading",
		"how to trade", "trading tips", "risk management", "manage risk",
		"buy or sell", "entry point",
	}
)

// Classifier evaluates its rules in order.
type Classifier struct {
	rules []Rule
}

// New builds the default rule order. The FAQ rule matches when every
// important word of any key in faq appears in the message.
func New(faq *knowledge.FAQ) *Classifier {
	if faq == nil {
		faq = knowledge.DefaultFAQ()
	}
	brokerTerms := append(append([]string{}, brokerKeywords...), knowledge.BrokerNames()...)
	return NewWithRules([]Rule{
		{Result: Greeting, Match: func(s string) bool {
			return match.ContainsAnyWord(s, greetingKeywords)
		}},
		{Result: Registration, Match: isRegistration},
		{Result: FAQ, Match: faq.Matches},
		{Result: BrokerInquiry, Match: func(s string) bool {
			return match.ContainsAny(s, brokerTerms)
		}},
		{Result: ForexGeneral, Match: func(s string) bool {
			return match.ContainsAnyWord(s, forexTerms) || match.ContainsAny(s, tradingPhrases)
		}},
	})
}

// NewWithRules builds a classifier over an explicit rule order. Messages
// that match no rule are General.
func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify normalizes text and returns the tag of the first matching rule.
func (c *Classifier) Classify(text string) Tag {
	normalized := match.Normalize(text)
	if normalized == "" {
		return General
	}
	if tag, ok := match.First(c.rules, normalized); ok {
		return tag
	}
	return General
}

func isRegistration(s string) bool {
	if match.ContainsAny(s, vipKeywords) {
		return true
	}
	if !strings.Contains(s, "vip") {
		return false
	}
	return match.ContainsAny(s, actionKeywords) || match.ContainsAny(s, interestKeywords)
}
