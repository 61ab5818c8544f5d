package knowledge

// qa holds the canned answers for a broker and sub-topic.
var qa = map[BrokerKey]map[Topic]Text{
	OctaFX: {
		TopicSpreads: {
			EN: "OctaFX offers EUR/USD spreads from 0.6 pips on average. Micro: from 0.4 pips variable or 2.0 fixed, Pro: from 0.2 pips, ECN: from 0.0 pips.",
			MS: "OctaFX ni spread EUR/USD average 0.6 pip. Micro: dari 0.4 pip (variable) atau 2.0 pip (fixed), Pro: dari 0.2 pip, ECN: dari 0.0 pip.",
		},
		TopicDeposit: {
			EN: "OctaFX requires a minimum deposit of $25 on every account type (Micro, Pro and ECN).",
			MS: "OctaFX deposit minimum USD25 je untuk semua akaun (Micro, Pro, ECN). Okay lah untuk start.",
		},
		TopicPlatforms: {
			EN: "OctaFX offers MT5 on Pro accounts, MT4 on Micro and ECN accounts, plus its own OctaTrader platform.",
			MS: "OctaFX bagi MT5 untuk Pro account, MT4 untuk Micro dan ECN, plus platform sendiri OctaTrader.",
		},
		TopicRegulation: {
			EN: "Yes, OctaFX is regulated by CySEC (Cyprus), FSC (Mauritius), MISA (Comoros) and FSCA (South Africa).",
			MS: "Confirm regulated! OctaFX ada lesen CySEC (Cyprus), FSC (Mauritius), MISA (Comoros) dan FSCA (Afrika Selatan).",
		},
		TopicLeverage: {
			EN: "OctaFX offers up to 1:500 on Micro and ECN, 1:200 on Pro, and up to 1:1000 for international clients. EU clients are limited to 1:30 on majors.",
			MS: "Leverage OctaFX sampai 1:500 untuk Micro dan ECN, 1:200 untuk Pro, dan sampai 1:1000 untuk klien antarabangsa. Klien EU terhad 1:30 untuk major pairs.",
		},
	},
	HFM: {
		TopicSpreads: {
			EN: "HFM EUR/USD spreads: Zero from 0.0 pips + $3 commission per side, Pro from 0.5 pips, Pro Plus from 0.2 pips, Cent/Premium from 1.2 pips.",
			MS: "Spread EUR/USD HFM: Zero 0.0 pip + USD3 komisen sebelah, Pro 0.5 pip, Pro Plus 0.2 pip, Cent/Premium 1.2 pip.",
		},
		TopicDeposit: {
			EN: "HFM has a $0 minimum deposit on most accounts (Cent, Zero, Pro, Pro Plus, Premium).",
			MS: "HFM deposit minimum USD0 je untuk kebanyakan akaun (Cent, Zero, Pro, Pro Plus, Premium). Sesuai untuk pemula.",
		},
		TopicPlatforms: {
			EN: "HFM offers MT5 and MT4 along with the HFM Platform, Web Terminal and Multi Terminal.",
			MS: "HFM ada MT5, MT4, HFM Platform sendiri, Web Terminal dan Multi Terminal.",
		},
		TopicRegulation: {
			EN: "Yes, HFM is regulated by FCA (UK), CySEC (Cyprus), DFSA (UAE), FSC (Mauritius) and FSCA (South Africa).",
			MS: "Ya, HFM dikawal selia oleh FCA (UK), CySEC (Cyprus), DFSA (UAE), FSC (Mauritius) dan FSCA (Afrika Selatan).",
		},
		TopicLeverage: {
			EN: "HFM offers leverage up to 1:2000 on all account types.",
			MS: "HFM tawarkan leverage sehingga 1:2000 untuk semua jenis akaun.",
		},
	},
	Valetax: {
		TopicSpreads: {
			EN: "Valetax EUR/USD spreads start at 0.0 pips on ECN (+$4 commission per lot) and 0.6 pips on PRO with no commission.",
			MS: "Spread EUR/USD Valetax dari 0.0 pip untuk ECN (+komisen $4 per lot) dan 0.6 pip untuk PRO tanpa komisen.",
		},
		TopicDeposit: {
			EN: "Valetax minimum deposits: Cent $1, Standard $10, ECN $50, PRO $500.",
			MS: "Deposit minimum Valetax: Cent $1, Standard $10, ECN $50, PRO $500.",
		},
		TopicPlatforms: {
			EN: "Valetax offers MT4 and MT5 on desktop, mobile and web.",
			MS: "Valetax ada MT4 dan MT5 untuk desktop, mobile dan web.",
		},
		TopicRegulation: {
			EN: "⚠️ WARNING: Valetax operates under offshore regulation (FSC Mauritius, SVG Commission), which gives limited client protection.",
			MS: "⚠️ AMARAN: Valetax beroperasi di bawah peraturan luar pesisir (FSC Mauritius, Suruhanjaya SVG) dengan perlindungan pelanggan terhad.",
		},
		TopicLeverage: {
			EN: "Valetax offers leverage up to 1:2000.",
			MS: "Valetax tawarkan leverage sehingga 1:2000.",
		},
		TopicWarnings: {
			EN: "⚠️ Yes, there are reports of withdrawal difficulties and regulatory concerns. Be careful and research thoroughly.",
			MS: "⚠️ Ya, ada laporan kesukaran pengeluaran dan kebimbangan kawal selia. Berhati-hati dan buat kajian dulu.",
		},
	},
	DollarsMarkets: {
		TopicSpreads: {
			EN: "Dollars Markets advertises spreads from 0.0-0.1 pips on Ultra and from 0.1 pips on Standard, but users report execution and withdrawal concerns.",
			MS: "Dollars Markets iklankan spread 0.0-0.1 pip untuk Ultra dan 0.1 pip untuk Standard, tapi ada aduan pasal execution dan pengeluaran.",
		},
		TopicDeposit: {
			EN: "Dollars Markets starts at $15 for Standard and $50 for Pro. Research the broker before depositing.",
			MS: "Dollars Markets bermula $15 untuk Standard dan $50 untuk Pro. Selidik dulu sebelum deposit.",
		},
		TopicPlatforms: {
			EN: "Dollars Markets provides MT4, MT5 and cTrader on desktop, mobile and web.",
			MS: "Dollars Markets sediakan MT4, MT5 dan cTrader untuk desktop, mobile dan web.",
		},
		TopicRegulation: {
			EN: "Dollars Markets operates under offshore jurisdictions (claimed FSC Mauritius licence and SVG registration) with limited client protection.",
			MS: "Dollars Markets beroperasi di bidang kuasa luar pesisir (lesen FSC Mauritius yang didakwa dan pendaftaran SVG) dengan perlindungan terhad.",
		},
		TopicLeverage: {
			EN: "Dollars Markets offers leverage up to 1:3000, among the highest in the industry. High leverage means high risk.",
			MS: "Dollars Markets tawarkan leverage sampai 1:3000, antara tertinggi dalam industri. Leverage tinggi, risiko pun tinggi.",
		},
		TopicWarnings: {
			EN: "⚠️ User reviews are mixed, with reports of delayed withdrawals and account access issues. Start small and test withdrawals first.",
			MS: "⚠️ Ulasan pengguna bercampur, ada laporan pengeluaran lambat dan masalah akses akaun. Mula kecil dan uji pengeluaran dulu.",
		},
	},
}

type recommendation struct {
	broker  string
	reasons []Text
}

type scenario struct {
	title    Text
	first    recommendation
	second   recommendation
	consider Text
}

var scenarios = map[Topic]scenario{
	TopicBeginner: {
		title: Text{EN: "Best Brokers for Beginner Traders", MS: "Broker Terbaik untuk Trader Pemula"},
		first: recommendation{broker: "HFM", reasons: []Text{
			{EN: "$0 minimum deposit", MS: "Deposit minimum $0"},
			{EN: "Cent account for trading small", MS: "Akaun Cent untuk trade kecil"},
			{EN: "Multiple regulatory licences", MS: "Pelbagai lesen kawal selia"},
		}},
		second: recommendation{broker: "OctaFX", reasons: []Text{
			{EN: "Low $25 minimum deposit", MS: "Deposit minimum rendah $25"},
			{EN: "Strong regulatory protection", MS: "Perlindungan kawal selia yang kuat"},
			{EN: "User-friendly platforms", MS: "Platform mesra pengguna"},
		}},
		consider: Text{
			EN: "Research Valetax and Dollars Markets thoroughly due to offshore regulation and mixed user feedback.",
			MS: "Selidik Valetax dan Dollars Markets dengan teliti kerana peraturan luar pesisir dan maklum balas bercampur.",
		},
	},
	TopicScalping: {
		title: Text{EN: "Best Brokers for Scalping", MS: "Broker Terbaik untuk Scalping"},
		first: recommendation{broker: "HFM Zero Account", reasons: []Text{
			{EN: "Spreads from 0.0 pips", MS: "Spread dari 0.0 pip"},
			{EN: "No restrictions on scalping", MS: "Tiada sekatan scalping"},
			{EN: "Fast execution", MS: "Pelaksanaan pantas"},
		}},
		second: recommendation{broker: "OctaFX ECN", reasons: []Text{
			{EN: "Zero spreads available", MS: "Spread sifar tersedia"},
			{EN: "No dealing desk", MS: "Tiada dealing desk"},
		}},
	},
	TopicProfessional: {
		title: Text{EN: "Best Brokers for High-Volume Traders", MS: "Broker Terbaik untuk Trader Volume Tinggi"},
		first: recommendation{broker: "HFM Zero Account", reasons: []Text{
			{EN: "Raw spreads from 0.0 pips", MS: "Spread mentah dari 0.0 pip"},
			{EN: "Low commission ($3 per side)", MS: "Komisen rendah ($3 sebelah)"},
			{EN: "Multiple top-tier regulators", MS: "Pelbagai pengawal selia peringkat atas"},
		}},
		second: recommendation{broker: "OctaFX ECN", reasons: []Text{
			{EN: "ECN execution model", MS: "Model pelaksanaan ECN"},
			{EN: "Reliable platform performance", MS: "Prestasi platform yang boleh dipercayai"},
		}},
	},
}
