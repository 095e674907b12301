package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Main menu buttons
const (
	BtnFriends  = "👥 دوستان"
	BtnIncoming = "📥 درخواست‌های دریافتی"
	BtnSent     = "📤 درخواست‌های ارسالی"
	BtnHelp     = "📖 راهنما"
)

// MainMenuKeyboard creates the main menu keyboard
func MainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnFriends),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnIncoming),
			tgbotapi.NewKeyboardButton(BtnSent),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnHelp),
		),
	)
}

// Some clients insert zero-width non-joiners into Persian button text.
func normalizeButton(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u200c", ""))
}

// buttonCommand maps a main menu button to the command it stands for.
func buttonCommand(text string) (string, bool) {
	switch normalizeButton(text) {
	case normalizeButton(BtnFriends):
		return "friends", true
	case normalizeButton(BtnIncoming):
		return "requests", true
	case normalizeButton(BtnSent):
		return "sent", true
	case normalizeButton(BtnHelp):
		return "help", true
	}
	return "", false
}
