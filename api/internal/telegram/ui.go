package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbSubmit      = "submit"
	maxMessageLen = 3900

	textStart = "Send me a math problem: type it in LaTeX, or upload a photo of it. " +
		"Then press Submit and I'll reply with the problem type, hints, common mistakes and related topics.\n" +
		"Commands: /submit, /reset, /health"
	textReset      = "Form cleared. Send a new problem."
	textNeedInput  = "Nothing to send yet: enter LaTeX text or upload an image first."
	textProcessing = "Processing..."
	textNotImage   = "Only images can be uploaded. Send a photo or an image file."
)

// Кнопка отправки формы
func makeSubmitKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Submit", cbSubmit)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

func removeKeyboard(chatID int64, msgID int) tgbotapi.EditMessageReplyMarkupConfig {
	return tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
}
