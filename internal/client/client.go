// Package client talks to the artisan server on behalf of the upload flow.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
)

// ErrUnreachable wraps every transport failure: refused connections,
// DNS errors and timeouts.
var ErrUnreachable = errors.New("server unreachable")

// RejectedError is a 4xx answer carrying the server's message.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Message)
}

// ServerError is a 5xx answer. Its body is never shown to the user.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// MediaBase is the URL prefix under which saved files are served.
func (c *Client) MediaBase() string {
	return c.baseURL + "/uploads/"
}

// Submission is one bulk upload.
type Submission struct {
	Contact models.Contact
	Images  []media.Blob
	Audio   *media.Blob
}

// SaveArtisanData sends images, audio and contact details in one request.
func (c *Client) SaveArtisanData(ctx context.Context, sub Submission) (*models.SaveResponse, error) {
	contact, err := json.Marshal(sub.Contact)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contact: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("artisanData", string(contact)); err != nil {
		return nil, fmt.Errorf("failed to write artisan data: %w", err)
	}
	if sub.Audio != nil {
		if err := writeFile(mw, "audioFile", *sub.Audio); err != nil {
			return nil, err
		}
	}
	for _, img := range sub.Images {
		if err := writeFile(mw, "images", img); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	var resp models.SaveResponse
	if err := c.post(ctx, "/api/save_artisan_data", mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessAudio sends a recording to the story endpoint.
func (c *Client) ProcessAudio(ctx context.Context, audio media.Blob) (*models.StoryResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := writeFile(mw, "audio_file", audio); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	var resp models.StoryResult
	if err := c.post(ctx, "/process-audio-upload", mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(mw *multipart.Writer, field string, b media.Blob) error {
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(b.Name)))
	contentType := b.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)

	w, err := mw.CreatePart(hdr)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", b.Name, err)
	}
	if _, err := w.Write(b.Data); err != nil {
		return fmt.Errorf("failed to write %s: %w", b.Name, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	slog.Debug("Request finished", "path", path, "status", resp.StatusCode, "took", time.Since(start))

	switch {
	case resp.StatusCode >= 500:
		return &ServerError{StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400:
		return &RejectedError{StatusCode: resp.StatusCode, Message: rejectionMessage(resp)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &RejectedError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
		}
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// isTimeout reports whether err came from the request deadline or the
// client timeout expiring.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func rejectionMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
