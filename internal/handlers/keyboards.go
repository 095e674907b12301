package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes, followed by the requester's person ID
const (
	CallbackFriendAccept = "friend_accept_"
	CallbackFriendReject = "friend_reject_"
)

// FriendRequestKeyboard lets the target answer a request from requesterID
func FriendRequestKeyboard(requesterID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnAccept, fmt.Sprintf("%s%d", CallbackFriendAccept, requesterID)),
			tgbotapi.NewInlineKeyboardButtonData(BtnReject, fmt.Sprintf("%s%d", CallbackFriendReject, requesterID)),
		),
	)
}
