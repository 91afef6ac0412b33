package location

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Source supplies raw location data.
type Source interface {
	Read(ctx context.Context) (string, error)
}

// FileSource reads location data from a local file.
type FileSource struct {
	Path string
}

func (s FileSource) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read location file %s: %w", s.Path, err)
	}
	return string(data), nil
}

// HTTPSource fetches location data from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Read(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch location data: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("location data request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read location data: %w", err)
	}
	return string(body), nil
}

// NewSource returns an HTTPSource for http(s) references and a FileSource otherwise.
func NewSource(ref string, client *http.Client) Source {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return HTTPSource{URL: ref, Client: client}
	}
	return FileSource{Path: ref}
}

// Load reads and parses location data from src.
func Load(ctx context.Context, src Source) ([]Location, error) {
	data, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
