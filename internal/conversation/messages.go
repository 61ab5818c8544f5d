package conversation

import (
	"fmt"

	"ezyassist/internal/knowledge"
)

type text = knowledge.Text

var (
	msgWelcome = text{
		MS: "Hai %s! 👋 Saya RentungBot, pembantu forex EzyAssist.\n\n" +
			"Tanya je apa-apa pasal forex, broker atau trading. " +
			"Nak join Group Chat Fighter Rentung? Taip /register 🚀",
		EN: "Hi %s! 👋 I'm RentungBot, the EzyAssist forex assistant.\n\n" +
			"Ask me anything about forex, brokers or trading. " +
			"Want to join the Fighter Rentung group chat? Type /register 🚀",
	}

	msgRegistration = text{
		MS: "🎯 Daftar Group Chat Fighter Rentung sekarang!\n\n" +
			"✅ Signal berkualiti setiap hari\n" +
			"✅ Analisis pasaran dari expert\n" +
			"✅ Komuniti trader yang aktif\n\n" +
			"Klik link di bawah untuk lengkapkan pendaftaran:\n%s\n\n" +
			"⏰ Link ini akan expired dalam %d minit.",
		EN: "🎯 Join the Fighter Rentung group chat now!\n\n" +
			"✅ Quality daily signals\n" +
			"✅ Expert market analysis\n" +
			"✅ An active trader community\n\n" +
			"Click the link below to complete your registration:\n%s\n\n" +
			"⏰ This link expires in %d minutes.",
	}

	msgRegistrationUnavailable = text{
		MS: "Untuk mendaftar, taip /register atau hubungi admin kami. Kami akan bantu awak secepat mungkin! 🙏",
		EN: "To register, type /register or contact our admin. We'll help you as soon as possible! 🙏",
	}

	msgAlreadyRegistered = text{
		MS: "Awak dah pun berdaftar! ✅ Status pendaftaran awak: %s. Admin kami akan hubungi awak.",
		EN: "You're already registered! ✅ Your registration status: %s. Our admin will be in touch.",
	}

	msgPromotion = text{
		MS: "\n\n💡 Awak ni memang active bertanya! Nak join Group Chat Fighter Rentung untuk quality signals dan expert analysis? Klik sini: %s",
		EN: "\n\n💡 You're asking great questions! Want to join the Fighter Rentung group chat for quality signals and expert analysis? Click here: %s",
	}

	msgGenerativeFailed = text{
		MS: "Maaf awak, saya ada masalah sikit sekarang nak process soalan ni. Boleh try tanya lagi ke atau tanya soalan lain?",
		EN: "Sorry, I'm having a bit of trouble processing that question right now. Could you try again or ask something else?",
	}

	msgGenerativeEmpty = text{
		MS: "Hm, saya tak sure macam mana nak jawab soalan ni dengan baik. Boleh awak tanya dengan cara lain?",
		EN: "Hm, I'm not sure how to answer that well. Could you ask it another way?",
	}

	msgEscalation = text{
		MS: "Soalan awak ni memerlukan expertise dari agent sebenar! 🧑‍💼\n\n" +
			"Sila type /agent untuk bercakap dengan agent kami yang berpengalaman.",
		EN: "Your question needs expertise from a real agent! 🧑‍💼\n\n" +
			"Please type /agent to talk to one of our experienced agents.",
	}

	msgCleared = text{
		MS: "Sejarah perbualan dah dikosongkan. Jom mula semula! 🔄",
		EN: "Conversation history cleared. Let's start fresh! 🔄",
	}

	msgAgentHandoff = text{
		MS: "Baik! Saya dah maklumkan team kami. Agent kami akan hubungi awak di sini secepat mungkin. 🙏",
		EN: "Done! I've let our team know. One of our agents will contact you here as soon as possible. 🙏",
	}

	msgCampaignUnavailable = text{
		MS: "Maaf, kempen ini sudah tamat atau tidak wujud. Taip /register untuk pendaftaran biasa.",
		EN: "Sorry, this campaign has ended or does not exist. Type /register for the regular registration.",
	}
)

func format(t text, lang knowledge.Language, args ...any) string {
	return fmt.Sprintf(t.In(lang), args...)
}

// Fallback is the apologetic reply used whenever no answer can be produced.
func Fallback(lang knowledge.Language) string {
	return msgGenerativeFailed.In(lang)
}
