package knowledge

import (
	"sort"
	"strings"
)

// BrokerKey identifies a broker in the profile tables.
type BrokerKey string

const (
	OctaFX         BrokerKey = "octafx"
	HFM            BrokerKey = "hfm"
	Valetax        BrokerKey = "valetax"
	DollarsMarkets BrokerKey = "dollars_markets"
)

// Profile is the summary shown for a single broker.
type Profile struct {
	Key         BrokerKey
	Name        string
	Regulators  []string
	MinDeposit  string
	MaxLeverage string
	Platforms   []string
	// Warnings are shown only for brokers flagged as high risk.
	Warnings []Text
}

type alias struct {
	phrase string
	key    BrokerKey
}

// Aliases resolve the ways users write broker names. Longer phrases come
// first so "octa fx" is not reported twice.
var aliases = []alias{
	{"dollars markets", DollarsMarkets},
	{"dollar markets", DollarsMarkets},
	{"dollars market", DollarsMarkets},
	{"dollarsmarkets", DollarsMarkets},
	{"hot forex", HFM},
	{"hotforex", HFM},
	{"valet tax", Valetax},
	{"valetax", Valetax},
	{"octa fx", OctaFX},
	{"octafx", OctaFX},
	{"octa", OctaFX},
	{"hfm", HFM},
}

// Brokers returns the brokers named in a normalized message, ordered by
// where each was first mentioned.
func Brokers(normalized string) []BrokerKey {
	first := make(map[BrokerKey]int)
	for _, a := range aliases {
		idx := strings.Index(normalized, a.phrase)
		if idx < 0 {
			continue
		}
		if prev, seen := first[a.key]; !seen || idx < prev {
			first[a.key] = idx
		}
	}
	keys := make([]BrokerKey, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return first[keys[i]] < first[keys[j]] })
	return keys
}

// BrokerNames lists every alias phrase, for intent rules.
func BrokerNames() []string {
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, a.phrase)
	}
	return out
}

var profiles = map[BrokerKey]Profile{
	OctaFX: {
		Key:         OctaFX,
		Name:        "OctaFX (Octa)",
		Regulators:  []string{"CySEC (Cyprus)", "FSC (Mauritius)", "MISA (Comoros)", "FSCA (South Africa)"},
		MinDeposit:  "$25",
		MaxLeverage: "1:1000 (international)",
		Platforms:   []string{"MetaTrader 4", "MetaTrader 5", "OctaTrader"},
	},
	HFM: {
		Key:         HFM,
		Name:        "HFM (HotForex)",
		Regulators:  []string{"FCA (UK)", "CySEC (Cyprus)", "DFSA (UAE)", "FSC (Mauritius)", "FSCA (South Africa)"},
		MinDeposit:  "$0",
		MaxLeverage: "1:2000",
		Platforms:   []string{"HFM Platform", "MetaTrader 4", "MetaTrader 5", "Web Terminal", "Multi Terminal"},
	},
	Valetax: {
		Key:         Valetax,
		Name:        "Valetax",
		Regulators:  []string{"FSC (Mauritius)", "SVG Commission"},
		MinDeposit:  "$1",
		MaxLeverage: "1:2000",
		Platforms:   []string{"MT4", "MT5"},
		Warnings: []Text{
			{EN: "Offshore regulation only, with limited client protection", MS: "Peraturan luar pesisir sahaja, perlindungan pelanggan terhad"},
			{EN: "Reports of withdrawal difficulties", MS: "Laporan kesukaran pengeluaran dana"},
		},
	},
	DollarsMarkets: {
		Key:         DollarsMarkets,
		Name:        "Dollars Markets",
		Regulators:  []string{"FSC (Mauritius)", "SVG Registration"},
		MinDeposit:  "$15 (recommended $200)",
		MaxLeverage: "1:3000",
		Platforms:   []string{"MT4", "MT5", "cTrader"},
		Warnings: []Text{
			{EN: "Multiple reports of withdrawal blocks and account suspensions", MS: "Banyak laporan pengeluaran disekat dan akaun digantung"},
			{EN: "Offshore regulation with limited client protection", MS: "Peraturan luar pesisir dengan perlindungan pelanggan terhad"},
			{EN: "Start small and test withdrawals before depositing more", MS: "Mula dengan jumlah kecil dan uji pengeluaran dahulu"},
		},
	},
}

// Lookup returns the profile for key.
func Lookup(key BrokerKey) (Profile, bool) {
	p, ok := profiles[key]
	return p, ok
}
