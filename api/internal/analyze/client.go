package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	analyzePath       = "/api/analyze"
	fieldCode         = "code"
	fieldFile         = "file"
	defaultUploadName = "blob"
	maxLoggedBody     = 512
)

// Client posts collected input to the analysis service.
type Client struct {
	endpoint string
	httpc    *http.Client
	log      *slog.Logger
}

// New builds a client for baseURL. timeout=0 means the request runs until the
// service answers or ctx is cancelled.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + analyzePath,
		httpc:    &http.Client{Timeout: timeout},
		log:      log,
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// Submit sends in exactly once and folds every outcome into a Result.
// Empty input short-circuits without touching the network.
func (c *Client) Submit(ctx context.Context, in Input) Result {
	log := c.log.With("submission_id", uuid.NewString())

	body, contentType, err := encodeForm(in)
	if err != nil {
		if errors.Is(err, ErrNoInput) {
			log.Debug("Submission rejected before sending", "error", err)
			return failure(KindValidation, MsgNoInput)
		}
		log.Error("Error encoding math problem", "error", err)
		return failure(KindTransport, MsgSubmitFailed)
	}

	out, err := c.post(ctx, body, contentType)
	if err != nil {
		log.Error("Error submitting math problem", "endpoint", c.endpoint, "error", err)
		return failure(KindTransport, MsgSubmitFailed)
	}

	if out.Success {
		out.Kind = KindNone
		log.Info("Analysis received", "type", out.Type, "hints", len(out.Hints))
	} else {
		out.Kind = KindDomain
		log.Info("Analysis rejected by service", "error", out.Error, "details", out.Details)
	}
	return out
}

func (c *Client) post(ctx context.Context, body *bytes.Buffer, contentType string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, snippet(raw))
	}

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return out, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm writes "code" and/or "file" parts. ErrNoInput if neither is present.
func encodeForm(in Input) (*bytes.Buffer, string, error) {
	var (
		buf    bytes.Buffer
		fields int
	)
	mw := multipart.NewWriter(&buf)

	if in.Text != "" {
		if err := mw.WriteField(fieldCode, in.Text); err != nil {
			return nil, "", fmt.Errorf("write %s: %w", fieldCode, err)
		}
		fields++
	}

	if f := in.File; f != nil {
		name := f.Name
		if name == "" {
			name = defaultUploadName
		}
		mimeType := f.MIME
		if mimeType == "" {
			mimeType = PickMIME("", f.Data)
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldFile, quoteEscaper.Replace(name)))
		h.Set("Content-Type", mimeType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create %s part: %w", fieldFile, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write %s part: %w", fieldFile, err)
		}
		fields++
	}

	if fields == 0 {
		return nil, "", ErrNoInput
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func snippet(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "…"
	}
	return string(b)
}
