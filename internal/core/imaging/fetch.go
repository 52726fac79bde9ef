package imaging

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/markdave123-py/baboon-api/internal/core"
)

// fetch returns the raw bytes behind sourceURL. http(s) goes over the network,
// data: URLs (inline generator output) are decoded in place.
func (p *Pipeline) fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	if strings.HasPrefix(sourceURL, "data:") {
		data, err := decodeDataURL(sourceURL)
		if err != nil {
			return nil, core.FetchError("fetch", redactDataURL(sourceURL), err)
		}
		if int64(len(data)) > p.maxBytes {
			return nil, core.FetchError("fetch", redactDataURL(sourceURL), fmt.Errorf("payload exceeds %d bytes", p.maxBytes))
		}
		return data, nil
	}

	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, core.FetchError("fetch", sourceURL, fmt.Errorf("unsupported source url"))
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(sourceURL)
	if err != nil {
		return nil, core.FetchError("fetch", sourceURL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, core.FetchError("fetch", sourceURL, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	data, err := io.ReadAll(io.LimitReader(body, p.maxBytes+1))
	if err != nil {
		return nil, core.FetchError("fetch", sourceURL, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > p.maxBytes {
		return nil, core.FetchError("fetch", sourceURL, fmt.Errorf("body exceeds %d bytes", p.maxBytes))
	}
	return data, nil
}

// decodeDataURL handles "data:[<mediatype>][;base64],<payload>".
func decodeDataURL(raw string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data url")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("unescape payload: %w", err)
	}
	return []byte(s), nil
}

// redactDataURL keeps logs readable; inline payloads can be megabytes.
func redactDataURL(raw string) string {
	meta, _, _ := strings.Cut(raw, ",")
	return meta + ",..."
}

// DataURL encodes bytes as a base64 data: URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
