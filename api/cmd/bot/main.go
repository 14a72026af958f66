package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mama165/sdk-go/logs"

	"math-feedback/api/internal/analyze"
	"math-feedback/api/internal/config"
	"math-feedback/api/internal/form"
	"math-feedback/api/internal/httpserver"
	"math-feedback/api/internal/telegram"
)

func main() {
	cfg, err := config.LoadBot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	// Prefer platform PORT env var; fallback to cfg.Port; then to 8080
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.Port = p
	} else if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("Telegram init failed", "error", err)
		os.Exit(1)
	}
	bot.Debug = false

	client := analyze.New(cfg.AnalyzeBaseURL, cfg.AnalyzeTimeout, log)
	forms := form.NewRegistry(ctx, client, log)
	if cfg.FormIdleTTL > 0 {
		go forms.Sweep(ctx, cfg.FormIdleTTL, clampDelay(cfg.FormIdleTTL/4, time.Minute, time.Hour))
	}
	r := &telegram.Router{Bot: bot, Forms: forms, Log: log}
	log.Info("Analysis endpoint configured", "endpoint", client.Endpoint())

	addr := "0.0.0.0:" + cfg.Port

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		err = startWebhookMode(ctx, log, addr, bot, r, webhookURL)
	} else {
		err = startPollingMode(ctx, log, addr, bot, r)
	}

	forms.Close()
	r.Wait()
	if err != nil {
		log.Error("Bot stopped", "error", err)
		os.Exit(1)
	}
	log.Info("Bot stopped")
}

// ---------------- Modes -----------------

func startWebhookMode(ctx context.Context, log *slog.Logger, addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) error {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	hook := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			log.Warn("Bad webhook update", "error", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		r.HandleUpdate(*upd)
	})

	srv := &http.Server{Addr: addr, Handler: httpserver.NewRouter(nil, path, hook)}
	log.Info("Webhook listening", "addr", addr, "path", path)
	return serve(ctx, srv)
}

func startPollingMode(ctx context.Context, log *slog.Logger, addr string, bot *tgbotapi.BotAPI, r *telegram.Router) error {
	// health server, not required for polling itself
	srv := &http.Server{Addr: addr, Handler: httpserver.NewRouter(nil, "", nil)}
	go func() {
		log.Info("Health server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health server failed", "error", err)
		}
	}()
	defer shutdown(srv)

	runPolling(ctx, log, bot, r.HandleUpdate)
	return nil
}

func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdown(srv)
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return 2 * time.Second
		}
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, log *slog.Logger, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("Polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := clampDelay(retryDelayFromError(err), baseDelay, maxDelay)
			log.Warn("Polling error", "error", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func clampDelay(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	// 16-символный hex
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
