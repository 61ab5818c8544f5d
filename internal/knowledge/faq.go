package knowledge

import (
	"strings"

	"ezyassist/pkg/match"
)

// FAQEntry is one canned answer keyed by a question phrase.
type FAQEntry struct {
	Key    string
	Answer string
}

// Stopwords are dropped from FAQ keys when deciding which words a message
// must contain for a partial match.
var Stopwords = []string{
	"what", "is", "the", "how", "to", "a", "an", "do", "does", "i", "can",
	"of", "for", "in", "on", "my", "me", "you", "are",
	"apa", "itu", "macam", "mana", "nak", "ke", "ini", "yang", "di", "dan",
	"untuk", "boleh", "saya", "awak", "ada", "ialah", "bagaimana",
}

type faqItem struct {
	entry     FAQEntry
	important []string
}

// FAQ holds one ordered table per language. Lookups walk tables in order so
// the first matching key wins.
type FAQ struct {
	tables map[Language][]faqItem
	stop   map[string]struct{}
}

// NewFAQ builds an FAQ from ordered per-language tables.
func NewFAQ(tables map[Language][]FAQEntry) *FAQ {
	f := &FAQ{tables: make(map[Language][]faqItem), stop: make(map[string]struct{})}
	for _, w := range Stopwords {
		f.stop[w] = struct{}{}
	}
	for lang, entries := range tables {
		items := make([]faqItem, 0, len(entries))
		for _, e := range entries {
			key := match.Normalize(e.Key)
			items = append(items, faqItem{
				entry:     FAQEntry{Key: key, Answer: e.Answer},
				important: f.importantWords(key),
			})
		}
		f.tables[lang] = items
	}
	return f
}

func (f *FAQ) importantWords(key string) []string {
	var out []string
	for _, w := range match.Tokens(key) {
		if _, skip := f.stop[w]; !skip {
			out = append(out, w)
		}
	}
	return out
}

// Lookup finds a canned answer for a normalized message. The primary
// language table is searched first (exact phrase, then all important words)
// before the other language's table.
func (f *FAQ) Lookup(normalized string, primary Language) (FAQEntry, bool) {
	for _, lang := range []Language{primary, primary.Other()} {
		if e, ok := f.lookupIn(f.tables[lang], normalized); ok {
			return e, true
		}
	}
	return FAQEntry{}, false
}

func (f *FAQ) lookupIn(items []faqItem, normalized string) (FAQEntry, bool) {
	for _, it := range items {
		if strings.Contains(normalized, it.entry.Key) {
			return it.entry, true
		}
	}
	tokens := match.TokenSet(normalized)
	for _, it := range items {
		if containsAll(tokens, it.important) {
			return it.entry, true
		}
	}
	return FAQEntry{}, false
}

// Matches reports whether any key in either table matches the message.
func (f *FAQ) Matches(normalized string) bool {
	_, ok := f.Lookup(normalized, Malay)
	return ok
}

func containsAll(tokens map[string]struct{}, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if _, ok := tokens[w]; !ok {
			return false
		}
	}
	return true
}

// DefaultFAQ returns the built-in question tables.
func DefaultFAQ() *FAQ {
	return NewFAQ(map[Language][]FAQEntry{
		Malay:   faqMalay,
		English: faqEnglish,
	})
}

var faqMalay = []FAQEntry{
	{
		Key:    "apa itu pip",
		Answer: "Pip ialah pergerakan harga terkecil untuk pasangan mata wang. Untuk EUR/USD, 1 pip = 0.0001. Kalau harga naik dari 1.1000 ke 1.1010, itu 10 pip.",
	},
	{
		Key:    "apa itu saiz lot",
		Answer: "Lot ialah saiz dagangan. 1 lot standard = 100,000 unit, mini lot = 10,000 unit dan micro lot = 1,000 unit. Pemula biasanya mula dengan micro lot.",
	},
	{
		Key:    "apa itu stop loss",
		Answer: "Stop loss ialah arahan untuk tutup posisi secara automatik bila harga sampai tahap kerugian yang awak tetapkan. Wajib guna untuk kawal risiko.",
	},
	{
		Key:    "apa itu margin call",
		Answer: "Margin call berlaku bila ekuiti akaun jatuh bawah paras margin yang diperlukan. Broker akan minta tambah dana atau tutup posisi awak.",
	},
	{
		Key:    "apa itu akaun demo",
		Answer: "Akaun demo guna duit maya untuk latihan. Sesuai untuk belajar platform dan strategi tanpa risiko sebelum guna akaun sebenar.",
	},
	{
		Key:    "forex halal ke",
		Answer: "Ramai ulama membenarkan forex dengan syarat akaun swap-free (Islamic account), tiada riba dan urus niaga spot. Sila rujuk pihak berautoriti agama untuk kepastian.",
	},
	{
		Key:    "macam mana nak mula trading",
		Answer: "Mula dengan belajar asas, buka akaun demo, pilih broker yang dikawal selia, dan guna modal kecil dulu. Jangan lupa pengurusan risiko!",
	},
}

var faqEnglish = []FAQEntry{
	{
		Key:    "what is a pip",
		Answer: "A pip is the smallest standard price move of a currency pair. For EUR/USD, 1 pip = 0.0001. A move from 1.1000 to 1.1010 is 10 pips.",
	},
	{
		Key:    "what is a lot size",
		Answer: "A lot is the size of a trade. One standard lot is 100,000 units, a mini lot is 10,000 units and a micro lot is 1,000 units. Beginners usually start with micro lots.",
	},
	{
		Key:    "what is a stop loss",
		Answer: "A stop loss is an order that closes your position automatically once price reaches the loss level you set. Always use one to control risk.",
	},
	{
		Key:    "what is a margin call",
		Answer: "A margin call happens when your account equity falls below the required margin. The broker will ask for more funds or close your positions.",
	},
	{
		Key:    "what is a demo account",
		Answer: "A demo account trades with virtual money. Use it to learn the platform and test strategies without risk before going live.",
	},
	{
		Key:    "is forex halal",
		Answer: "Many scholars permit forex trading on swap-free (Islamic) accounts with spot settlement and no interest. Please consult a religious authority for certainty.",
	},
	{
		Key:    "how to start trading",
		Answer: "Learn the basics, open a demo account, choose a regulated broker and start with small capital. Never skip risk management!",
	},
}
