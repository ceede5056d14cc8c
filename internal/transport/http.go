package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const (
	// userAgent is sent with every request.
	userAgent = "acorn-install/1.0"
	// maxRedirects caps redirect chains.
	maxRedirects = 10
)

// HTTP is the builtin transport backed by net/http.
type HTTP struct {
	client *http.Client
}

// NewHTTP creates the builtin transport. No overall timeout is set; a
// transfer blocks until completion, failure, or context cancellation.
func NewHTTP() *HTTP {
	return &HTTP{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Name implements Transport.
func (h *HTTP) Name() string { return "builtin" }

// Fetch implements Transport. The body is written to dest+".tmp" first and
// renamed into place, so dest never holds a partial download.
func (h *HTTP) Fetch(ctx context.Context, dest, url string) error {
	resp, err := h.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	tmpPath := dest + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	renamed := false
	defer func() {
		tmpFile.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	renamed = true
	return nil
}

// EffectiveURL implements Transport. It issues a GET, lets the client
// follow redirects, and reports the URL of the final request, the
// net/http equivalent of curl's %{url_effective}.
func (h *HTTP) EffectiveURL(ctx context.Context, url string) (string, error) {
	resp, err := h.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// The body is not interesting here; drain a little so the
	// connection can be reused, then let Close discard the rest.
	io.CopyN(io.Discard, resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("resolve %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}

func (h *HTTP) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	return resp, nil
}
