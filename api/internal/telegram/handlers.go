package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"math-feedback/api/internal/analyze"
	"math-feedback/api/internal/form"
	"math-feedback/api/internal/render"
)

const maxUploadBytes = 20 << 20 // Bot API download limit

func (r *Router) acceptText(chatID int64, text string) {
	s := r.Forms.Get(chatID)
	s.SetText(text)
	r.sendMarkdown(chatID, formSummary(s.State()), makeSubmitKeyboard())
}

func (r *Router) acceptPhoto(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	// берём самое большое превью
	ph := msg.Photo[len(msg.Photo)-1]
	data, fileURL, err := r.fetchFile(ph.FileID)
	if err != nil {
		r.Log.Error("Photo download failed", "chat_id", cid, "error", err)
		r.send(cid, "Could not download the photo, please send it again.")
		return
	}
	r.attach(cid, analyze.NewUpload(path.Base(fileURL), "", data), msg.Caption)
}

func (r *Router) acceptDocument(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	// the picker only offers images; anything else is refused here, not in the client
	if doc.MimeType != "" && !strings.HasPrefix(doc.MimeType, "image/") {
		r.send(cid, textNotImage)
		return
	}
	data, _, err := r.fetchFile(doc.FileID)
	if err != nil {
		r.Log.Error("Document download failed", "chat_id", cid, "error", err)
		r.send(cid, "Could not download the file, please send it again.")
		return
	}
	up := analyze.NewUpload(doc.FileName, doc.MimeType, data)
	if !up.IsImage() {
		r.send(cid, textNotImage)
		return
	}
	r.attach(cid, up, msg.Caption)
}

func (r *Router) attach(chatID int64, up *analyze.Upload, caption string) {
	s := r.Forms.Get(chatID)
	s.SetFile(up)
	if c := strings.TrimSpace(caption); c != "" {
		s.SetText(c)
	}
	r.sendMarkdown(chatID, formSummary(s.State()), makeSubmitKeyboard())
}

func formSummary(st form.State) string {
	var b strings.Builder
	b.WriteString("*Problem (LaTeX):* ")
	if st.Input.Text != "" {
		b.WriteString("`" + strings.ReplaceAll(st.Input.Text, "`", "'") + "`")
	} else {
		b.WriteString("none")
	}
	b.WriteString("\n*Image:* ")
	if f := st.Input.File; f != nil {
		fmt.Fprintf(&b, "%s (%s, %d bytes)", render.Escape(f.Name), render.Escape(f.MIME), len(f.Data))
	} else {
		b.WriteString("none")
	}
	b.WriteString("\n\nPress Submit when ready.")
	return b.String()
}

func (r *Router) fetchFile(fileID string) ([]byte, string, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	data, err := r.download(ctx, url)
	if err != nil {
		return nil, "", err
	}
	return data, url, nil
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
}
