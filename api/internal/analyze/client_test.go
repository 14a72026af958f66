package analyze

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method      string
	Path        string
	Fields      map[string][]string
	FileName    string
	FileMIME    string
	FileData    []byte
	HasFile     bool
	ContentType string
}

// newAnalyzeServer answers every request with status/body and records what it got.
func newAnalyzeServer(t *testing.T, status int, body string) (*httptest.Server, *int32, chan capturedRequest) {
	t.Helper()
	var calls int32
	got := make(chan capturedRequest, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		c := capturedRequest{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			c.Fields = r.MultipartForm.Value
			if fhs := r.MultipartForm.File["file"]; len(fhs) > 0 {
				c.HasFile = true
				c.FileName = fhs[0].Filename
				c.FileMIME = fhs[0].Header.Get("Content-Type")
				f, err := fhs[0].Open()
				if err == nil {
					c.FileData, _ = io.ReadAll(f)
					_ = f.Close()
				}
			}
		}
		got <- c
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, got
}

func newTestClient(url string) *Client {
	return New(url, 0, logs.GetLoggerFromLevel(slog.LevelDebug))
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func TestClient_Submit_EmptyInputNeverCallsNetwork(t *testing.T) {
	req := require.New(t)
	srv, calls, _ := newAnalyzeServer(t, http.StatusOK, `{"success":true}`)
	client := newTestClient(srv.URL)

	in := Input{}
	req.False(in.CanSubmit())

	res := client.Submit(context.Background(), in)

	req.False(res.Success)
	req.Equal(MsgNoInput, res.Error)
	req.Equal(KindValidation, res.Kind)
	req.Equal(int32(0), atomic.LoadInt32(calls))
}

func TestClient_Submit_TextOnly(t *testing.T) {
	req := require.New(t)
	srv, calls, got := newAnalyzeServer(t, http.StatusOK, `{"success":true,"type":"fractions","hints":[],"commonMistakes":[],"relatedTopics":[]}`)
	client := newTestClient(srv.URL)

	in := Input{Text: `\frac{1}{2}`}
	req.True(in.CanSubmit())

	res := client.Submit(context.Background(), in)

	req.True(res.Success)
	req.Equal(int32(1), atomic.LoadInt32(calls))
	c := <-got
	req.Equal(http.MethodPost, c.Method)
	req.Equal("/api/analyze", c.Path)
	req.Contains(c.ContentType, "multipart/form-data")
	req.Equal([]string{`\frac{1}{2}`}, c.Fields["code"])
	req.False(c.HasFile)
}

func TestClient_Submit_FileKeepsNameAndMIME(t *testing.T) {
	req := require.New(t)
	srv, calls, got := newAnalyzeServer(t, http.StatusOK, `{"success":true,"type":"geometry"}`)
	client := newTestClient(srv.URL)

	res := client.Submit(context.Background(), Input{File: &Upload{Name: "task 1.png", MIME: "image/png", Data: pngBytes}})

	req.True(res.Success)
	req.Equal(int32(1), atomic.LoadInt32(calls))
	c := <-got
	req.True(c.HasFile)
	req.Equal("task 1.png", c.FileName)
	req.Equal("image/png", c.FileMIME)
	req.Equal(pngBytes, c.FileData)
	req.Empty(c.Fields["code"])
}

func TestClient_Submit_FileWithoutMIMEIsSniffed(t *testing.T) {
	req := require.New(t)
	srv, _, got := newAnalyzeServer(t, http.StatusOK, `{"success":true}`)
	client := newTestClient(srv.URL)

	client.Submit(context.Background(), Input{File: &Upload{Data: pngBytes}})

	c := <-got
	req.Equal("blob", c.FileName)
	req.Equal("image/png", c.FileMIME)
}

func TestClient_Submit_TextAndFileTogether(t *testing.T) {
	req := require.New(t)
	srv, calls, got := newAnalyzeServer(t, http.StatusOK, `{"success":true}`)
	client := newTestClient(srv.URL)

	client.Submit(context.Background(), Input{Text: "x^2=4", File: NewUpload("eq.png", "", pngBytes)})

	req.Equal(int32(1), atomic.LoadInt32(calls))
	c := <-got
	req.Equal([]string{"x^2=4"}, c.Fields["code"])
	req.True(c.HasFile)
}

func TestClient_Submit_SuccessRoundTripKeepsOrder(t *testing.T) {
	req := require.New(t)
	want := Result{
		Success:        true,
		Type:           "Linear equation",
		Hints:          []string{"Isolate x", "Divide both sides", "Check the answer"},
		CommonMistakes: []string{"Sign error", "Dropping a term"},
		RelatedTopics:  []string{"Algebra", "Inequalities", "Functions"},
	}
	body, err := json.Marshal(want)
	req.NoError(err)
	srv, _, _ := newAnalyzeServer(t, http.StatusOK, string(body))

	res := newTestClient(srv.URL).Submit(context.Background(), Input{Text: "2x+3=7"})

	req.Equal(want, res)
}

func TestClient_Submit_Failures(t *testing.T) {
	tests := []struct {
		description string
		status      int
		body        string
		wantError   string
		wantDetails string
		wantKind    FailureKind
	}{
		{
			"Should hide server body behind the generic message on status 500",
			http.StatusInternalServerError,
			`{"success":false,"error":"database exploded","details":"stack trace"}`,
			MsgSubmitFailed, "", KindTransport,
		},
		{
			"Should treat 404 as transport failure",
			http.StatusNotFound,
			`not found`,
			MsgSubmitFailed, "", KindTransport,
		},
		{
			"Should treat undecodable body as transport failure",
			http.StatusOK,
			`<html>oops</html>`,
			MsgSubmitFailed, "", KindTransport,
		},
		{
			"Should show domain failure verbatim",
			http.StatusOK,
			`{"success":false,"error":"Invalid LaTeX","details":"line 3"}`,
			"Invalid LaTeX", "line 3", KindDomain,
		},
		{
			"Should show domain failure without details",
			http.StatusOK,
			`{"success":false,"error":"Unsupported image"}`,
			"Unsupported image", "", KindDomain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			srv, calls, _ := newAnalyzeServer(t, tt.status, tt.body)

			res := newTestClient(srv.URL).Submit(context.Background(), Input{Text: "1+1"})

			req.False(res.Success)
			req.Equal(tt.wantError, res.Error)
			req.Equal(tt.wantDetails, res.Details)
			req.Equal(tt.wantKind, res.Kind)
			req.Equal(int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestClient_Submit_UnreachableServer(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := newTestClient(url).Submit(context.Background(), Input{Text: "1+1"})

	req.False(res.Success)
	req.Equal(MsgSubmitFailed, res.Error)
	req.Equal(KindTransport, res.Kind)
}

func TestClient_Submit_CancelledContext(t *testing.T) {
	req := require.New(t)
	srv, _, _ := newAnalyzeServer(t, http.StatusOK, `{"success":true}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestClient(srv.URL).Submit(ctx, Input{Text: "1+1"})

	req.Equal(MsgSubmitFailed, res.Error)
	req.Equal(KindTransport, res.Kind)
}

func TestClient_Submit_TimeoutIsTransportFailure(t *testing.T) {
	req := require.New(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := New(srv.URL, 50*time.Millisecond, logs.GetLoggerFromLevel(slog.LevelDebug))
	start := time.Now()
	res := client.Submit(context.Background(), Input{Text: "1+1"})

	req.Less(time.Since(start), 5*time.Second)
	req.False(res.Success)
	req.Equal(MsgSubmitFailed, res.Error)
	req.Equal(KindTransport, res.Kind)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	req := require.New(t)
	client := New("http://localhost:4000/", 0, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.Equal("http://localhost:4000/api/analyze", client.Endpoint())
}
