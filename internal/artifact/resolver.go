// Package artifact retrieves and decodes generated media referenced by
// opaque artifact keys.
package artifact

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tottenjordan/zghost/internal/domain"
)

// ErrNotFound is returned when the artifact API reports a missing key.
var ErrNotFound = errors.New("artifact not found")

// ErrEmpty is returned when the artifact exists but carries no data.
var ErrEmpty = errors.New("artifact exists but contains no data")

// APIRetrievalURL builds the run-API path for an artifact, the URL attached
// to messages in the transcript.
func APIRetrievalURL(apiBase string, session domain.Session, key string) string {
	return fmt.Sprintf("%s/api/apps/%s/users/%s/sessions/%s/artifacts/%s",
		strings.TrimSuffix(apiBase, "/"), session.AppName, session.UserID, session.SessionID, key)
}

// ServerRetrievalURL builds the artifact-server path, which serves the file
// directly with a proper content type.
func ServerRetrievalURL(artifactBase string, session domain.Session, key string) string {
	return fmt.Sprintf("%s/artifact/%s/users/%s/sessions/%s/artifacts/%s",
		strings.TrimSuffix(artifactBase, "/"), session.AppName, session.UserID, session.SessionID, key)
}

// Media is decoded artifact content: either inline bytes with a mime type,
// or a remote file URI.
type Media struct {
	Data     []byte
	MimeType string
	FileURI  string
}

// Resolver fetches artifact content over HTTP.
type Resolver struct {
	httpClient *http.Client
}

// NewResolver creates a resolver with the given request timeout.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{httpClient: &http.Client{Timeout: timeout}}
}

// The artifact API returns either raw bytes with a content-type header, or a
// JSON envelope wrapping inline data or a file URI.
type envelope struct {
	Detail string `json:"detail"`

	InlineDataSnake *inlinePayload `json:"inline_data"`
	InlineDataCamel *inlinePayload `json:"inlineData"`
	FileDataSnake   *filePayload   `json:"file_data"`
	FileDataCamel   *filePayload   `json:"fileData"`
}

type inlinePayload struct {
	Data          json.RawMessage `json:"data"`
	MimeTypeSnake string          `json:"mime_type"`
	MimeTypeCamel string          `json:"mimeType"`
}

type filePayload struct {
	FileURISnake string `json:"file_uri"`
	FileURICamel string `json:"fileUri"`
}

// Fetch retrieves and decodes one artifact. Decode failures are returned as
// errors for the caller to contain; they are never fatal to the transcript.
func (r *Resolver) Fetch(ctx context.Context, url string, kind domain.ArtifactKind) (*Media, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact body: %w", err)
	}

	if !strings.Contains(contentType, "application/json") {
		if len(body) == 0 {
			return nil, ErrEmpty
		}
		if contentType == "" {
			contentType = defaultMimeType(kind)
		}
		return &Media{Data: body, MimeType: contentType}, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode artifact envelope: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Detail == "Artifact not found" {
		return nil, ErrNotFound
	}

	if inline := firstInline(env); inline != nil {
		mimeType := inline.MimeTypeSnake
		if mimeType == "" {
			mimeType = inline.MimeTypeCamel
		}
		if mimeType == "" {
			mimeType = defaultMimeType(kind)
		}
		data, err := decodeInlineData(inline.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode inline data: %w", err)
		}
		return &Media{Data: data, MimeType: mimeType}, nil
	}

	if file := firstFile(env); file != nil {
		uri := file.FileURISnake
		if uri == "" {
			uri = file.FileURICamel
		}
		if uri != "" {
			return &Media{FileURI: uri}, nil
		}
	}

	if strings.TrimSpace(string(body)) == "null" {
		return nil, ErrEmpty
	}
	return nil, errors.New("no media data found in artifact response")
}

func firstInline(env envelope) *inlinePayload {
	if env.InlineDataSnake != nil {
		return env.InlineDataSnake
	}
	return env.InlineDataCamel
}

func firstFile(env envelope) *filePayload {
	if env.FileDataSnake != nil {
		return env.FileDataSnake
	}
	return env.FileDataCamel
}

// decodeInlineData handles the formats the backend has been observed to
// emit: a base64 string (optionally a data URL, URL-safe alphabet, or
// missing padding) or a plain byte array.
func decodeInlineData(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decodeBase64(s)
	}

	var nums []byte
	if err := json.Unmarshal(raw, &nums); err == nil {
		return nums, nil
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err == nil {
		out := make([]byte, len(ints))
		for i, v := range ints {
			out[i] = byte(v)
		}
		return out, nil
	}

	return nil, errors.New("unknown inline data format")
}

func decodeBase64(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	if strings.HasPrefix(clean, "data:") {
		idx := strings.IndexByte(clean, ',')
		if idx < 0 {
			return nil, errors.New("malformed data URL")
		}
		clean = clean[idx+1:]
	}

	if pad := len(clean) % 4; pad != 0 {
		clean += strings.Repeat("=", 4-pad)
	}
	clean = strings.ReplaceAll(clean, "-", "+")
	clean = strings.ReplaceAll(clean, "_", "/")

	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return data, nil
}

func defaultMimeType(kind domain.ArtifactKind) string {
	switch kind {
	case domain.ArtifactKindImage:
		return "image/png"
	case domain.ArtifactKindVideo:
		return "video/mp4"
	default:
		return "application/pdf"
	}
}
