package telegram

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"math-feedback/api/internal/form"
)

// Bot is the part of *tgbotapi.BotAPI the router needs.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Router turns chat updates into form actions: text sets the LaTeX field,
// a photo or image document sets the file, the Submit button sends it.
type Router struct {
	Bot   Bot
	Forms *form.Registry
	Log   *slog.Logger
	HTTP  *http.Client // file downloads; nil uses a 60s client

	wg sync.WaitGroup
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	// callback-кнопки
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	msg := upd.Message

	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(msg)
	case msg.Document != nil:
		r.acceptDocument(msg)
	case strings.TrimSpace(msg.Text) != "":
		r.acceptText(msg.Chat.ID, msg.Text)
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, textStart)
	case "health":
		r.send(cid, "✅ OK")
	case "reset":
		r.Forms.Reset(cid)
		r.send(cid, textReset)
	case "submit":
		r.onSubmit(cid, 0)
	default:
		r.send(cid, "Unknown command. Try /help")
	}
}

// Wait blocks until every submission started by the router has been answered.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.Log.Warn("Send failed", "chat_id", chatID, "error", err)
	}
}

// sendMarkdown sends text in Markdown mode and, if Telegram refuses it,
// once more as plain text.
func (r *Router) sendMarkdown(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, fitMessage(text, maxMessageLen))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := r.Bot.Send(msg)
	if err == nil {
		return
	}
	r.Log.Warn("Markdown send failed, retrying as plain text", "chat_id", chatID, "error", err)
	msg.ParseMode = ""
	if _, err := r.Bot.Send(msg); err != nil {
		r.Log.Warn("Send failed", "chat_id", chatID, "error", err)
	}
}

// fitMessage cuts text to at most limit bytes plus a trailing ellipsis.
// It cuts at the last full line so Markdown markup stays balanced, and
// otherwise on a rune boundary that does not split an escape.
func fitMessage(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	n := limit
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	cut := text[:n]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	} else {
		cut = strings.TrimRight(cut, "\\")
	}
	return cut + "\n…"
}

func (r *Router) httpClient() *http.Client {
	if r.HTTP != nil {
		return r.HTTP
	}
	return &http.Client{Timeout: 60 * time.Second}
}
