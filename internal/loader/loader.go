// Package loader fetches BibTeX source text from files and URLs.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// maxBodySize bounds a single fetched document.
const maxBodySize = 32 << 20

// DefaultConcurrency bounds LoadAll fetches in flight.
const DefaultConcurrency = 4

// Loader returns the text stored under name.
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

// FileLoader reads from a filesystem.
type FileLoader struct {
	FS afero.Fs
}

func (l FileLoader) Load(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := afero.ReadFile(l.FS, name)
	if err != nil {
		return "", fmt.Errorf("can't read %s: %w", name, err)
	}
	return string(b), nil
}

// HTTPLoader GETs URLs.
type HTTPLoader struct {
	Client *http.Client
}

func (l HTTPLoader) Load(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("can't fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("can't fetch %s: %s", url, resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("can't read %s: %w", url, err)
	}
	return string(b), nil
}

// IsURL reports whether name is loaded over HTTP.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// Mux sends URLs to HTTP and everything else to File.
type Mux struct {
	File Loader
	HTTP Loader
}

// New returns a Mux over fs and client.
func New(fs afero.Fs, client *http.Client) *Mux {
	return &Mux{
		File: FileLoader{FS: fs},
		HTTP: HTTPLoader{Client: client},
	}
}

// NewDefault reads the OS filesystem and fetches with the given timeout.
func NewDefault(timeout time.Duration) *Mux {
	return New(afero.NewOsFs(), &http.Client{Timeout: timeout})
}

func (m *Mux) Load(ctx context.Context, name string) (string, error) {
	if IsURL(name) {
		return m.HTTP.Load(ctx, name)
	}
	return m.File.Load(ctx, name)
}

// LoadAll loads names concurrently and joins their texts in the given order,
// one newline apart. The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, l Loader, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("nothing to load")
	}
	texts := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for i, name := range names {
		g.Go(func() error {
			text, err := l.Load(gctx, name)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(texts, "\n"), nil
}
