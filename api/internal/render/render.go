package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/samber/lo"

	"math-feedback/api/internal/analyze"
)

// Section titles, shared by every output format.
const (
	titleFeedback = "Feedback"
	titleType     = "Type of Problem:"
	titleHints    = "Hints:"
	titleMistakes = "Common Mistakes:"
	titleTopics   = "Related Topics:"
	titleError    = "Error:"
	labelDetails  = "Details: "
)

type section struct {
	title string
	items []string
}

func sections(res analyze.Result) []section {
	return []section{
		{titleHints, res.Hints},
		{titleMistakes, res.CommonMistakes},
		{titleTopics, res.RelatedTopics},
	}
}

// Text writes res for a terminal. A zero Result writes nothing.
func Text(w io.Writer, res analyze.Result, colorize bool) error {
	if res.IsZero() {
		return nil
	}
	var (
		heading = plain
		label   = plain
		bad     = plain
	)
	if colorize {
		heading = color.New(color.OpBold, color.FgCyan).Sprint
		label = color.Bold.Sprint
		bad = color.Red.Sprint
	}

	var b strings.Builder
	if res.Success {
		b.WriteString(heading(titleFeedback) + "\n\n")
		b.WriteString(label(titleType) + "\n")
		fmt.Fprintf(&b, "  %s\n", res.Type)
		for _, s := range sections(res) {
			b.WriteString("\n" + label(s.title) + "\n")
			for _, item := range s.items {
				fmt.Fprintf(&b, "  • %s\n", item)
			}
		}
	} else {
		b.WriteString(bad(label(titleError)) + "\n")
		b.WriteString(bad(res.Error) + "\n")
		if res.Details != "" {
			b.WriteString(bad(labelDetails+res.Details) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func plain(a ...any) string { return fmt.Sprint(a...) }

// Markdown renders res for Telegram's legacy Markdown parse mode.
func Markdown(res analyze.Result) string {
	if res.IsZero() {
		return ""
	}
	var b strings.Builder
	if !res.Success {
		b.WriteString("⚠️ *" + titleError + "*\n")
		b.WriteString(Escape(res.Error))
		if res.Details != "" {
			b.WriteString("\n" + labelDetails + Escape(res.Details))
		}
		return b.String()
	}

	b.WriteString("📝 *" + titleFeedback + "*\n\n")
	b.WriteString("*" + titleType + "* " + Escape(res.Type) + "\n")
	for _, s := range sections(res) {
		if len(s.items) == 0 {
			continue
		}
		b.WriteString("\n*" + s.title + "*\n")
		b.WriteString(strings.Join(lo.Map(s.items, func(item string, _ int) string {
			return "• " + Escape(item)
		}), "\n"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Escape protects user and server text from Markdown injection.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "`", "\\`")
	return s
}
