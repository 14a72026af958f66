package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"math-feedback/api/internal/form"
	"math-feedback/api/internal/render"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	switch cb.Data {
	case cbSubmit:
		r.onSubmit(cid, cb.Message.MessageID)
	}
}

// onSubmit claims the chat's submission slot, then sends it in the background
// and replies with the rendered result. While one is in flight further presses
// do nothing.
func (r *Router) onSubmit(chatID int64, msgID int) {
	s := r.Forms.Get(chatID)
	st := s.State()
	if st.Status == form.InFlight {
		return
	}
	if !st.CanSubmit() {
		r.send(chatID, textNeedInput)
		return
	}
	run, ok := s.Start()
	if !ok {
		return
	}
	if msgID != 0 {
		_, _ = r.Bot.Send(removeKeyboard(chatID, msgID))
	}
	r.send(chatID, textProcessing)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res, ok := run()
		if !ok {
			return
		}
		r.sendMarkdown(chatID, render.Markdown(res), makeSubmitKeyboard())
	}()
}
