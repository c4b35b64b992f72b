// Package provision makes sure external tool binaries (the conformance
// checker) are present locally, fetching and unpacking release artifacts on
// first use.
package provision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
)

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

// Tool describes an external binary and where to get it from. URL points at a
// compressed release archive that contains an entry named after the tool.
type Tool struct {
	Name string
	URL  string
	Dir  string
}

// Provider is the injectable artifact capability: Ensure returns the local
// path of a ready-to-run tool binary, downloading it first if needed.
type Provider interface {
	Ensure(ctx context.Context) (string, error)
}

// HTTPProvider fetches release archives over HTTP(S) with retries and caches
// the extracted binary on disk. The on-disk copy is the memo: repeated runs
// reuse it without touching the network.
type HTTPProvider struct {
	Tool   Tool
	Client *retryablehttp.Client
	Logger Logger
}

func NewHTTPProvider(tool Tool, logger Logger) *HTTPProvider {
	if logger == nil {
		logger = nullLogger{}
	}
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &HTTPProvider{Tool: tool, Client: client, Logger: logger}
}

func (p *HTTPProvider) Ensure(ctx context.Context) (string, error) {
	path := filepath.Join(p.Tool.Dir, p.Tool.Name)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		p.Logger.Printf("%s already present at %s", p.Tool.Name, path)
		return path, nil
	}

	if p.Tool.URL == "" {
		return "", fmt.Errorf("%s not found at %s and no download URL configured", p.Tool.Name, path)
	}
	if err := os.MkdirAll(p.Tool.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating tool directory %s: %w", p.Tool.Dir, err)
	}

	p.Logger.Printf("downloading %s from %s", p.Tool.Name, p.Tool.URL)
	body, err := p.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", p.Tool.URL, err)
	}
	defer body.Close()

	if err := extractTool(body, p.Tool.URL, p.Tool.Name, path); err != nil {
		return "", fmt.Errorf("extracting %s from %s: %w", p.Tool.Name, p.Tool.URL, err)
	}
	p.Logger.Printf("installed %s at %s", p.Tool.Name, path)
	return path, nil
}

func (p *HTTPProvider) fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.Tool.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
