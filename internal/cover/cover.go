package cover

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxCoverBytes = 5 << 20

type Image struct {
	FilePath string
	Width    int
	Height   int
}

type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{httpClient: httpClient}
}

func (fetcher *Fetcher) Fetch(ctx context.Context, coverURL string) ([]byte, error) {
	if strings.TrimSpace(coverURL) == "" {
		return nil, fmt.Errorf("cover url missing")
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building cover request: %w", err)
	}

	response, err := fetcher.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("error fetching cover: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover request failed: %s", response.Status)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading cover: %w", err)
	}
	return data, nil
}

// Store keeps decoded previews for the lifetime of one screen. Kitty reads
// images by path, so each preview is written as a PNG into a scratch
// directory that Close removes.
type Store struct {
	dir string
}

func NewStore() (*Store, error) {
	dir, err := os.MkdirTemp("", "booksearch-covers-")
	if err != nil {
		return nil, fmt.Errorf("unable to create cover scratch dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (store *Store) Dir() string { return store.dir }

func (store *Store) Close() error {
	if store == nil || store.dir == "" {
		return nil
	}
	if err := os.RemoveAll(store.dir); err != nil {
		return fmt.Errorf("unable to remove cover scratch dir: %w", err)
	}
	return nil
}

func (store *Store) Save(coverURL string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty image data")
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("unable to decode cover image: %w", err)
	}

	bounds := decoded.Bounds()
	path := filepath.Join(store.dir, fileKey(coverURL)+".png")

	if err := writeCoverPNG(path, decoded); err != nil {
		return Image{}, err
	}

	return Image{FilePath: path, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func fileKey(coverURL string) string {
	sum := sha1.Sum([]byte(coverURL))
	return hex.EncodeToString(sum[:])
}

func writeCoverPNG(path string, source image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create cover file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, source); err != nil {
		return fmt.Errorf("unable to encode cover png: %w", err)
	}

	return nil
}

func RenderKitty(filePath string, cols, rows int) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", fmt.Errorf("cover file path missing")
	}
	if cols <= 0 {
		cols = 20
	}
	if rows <= 0 {
		rows = 10
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(filePath))
	params := fmt.Sprintf("a=T,f=100,t=f,c=%d,r=%d,q=2,C=1,z=1", cols, rows)
	return fmt.Sprintf("\x1b_G%s;%s\x1b\\", params, encoded), nil
}

// SupportsKitty reports whether the terminal named by term understands the
// kitty graphics protocol.
func SupportsKitty(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(term, "ghostty") || strings.Contains(term, "kitty")
}
