package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dhowden/tag"
)

// maxArtworkSource caps how much of an audio file is read looking for tags
const maxArtworkSource = 32 << 20

// Artwork is a picture embedded in an audio file
type Artwork struct {
	MIMEType    string
	Ext         string
	Description string
	Data        []byte
}

// ArtworkFetcher looks up embedded artwork for a media URL. A nil Artwork
// with a nil error means the file has none.
type ArtworkFetcher interface {
	FetchArtwork(ctx context.Context, url string) (*Artwork, error)
}

// TagArtworkFetcher downloads audio and reads its ID3/MP4/FLAC/OGG tags
type TagArtworkFetcher struct {
	client *http.Client
}

// NewTagArtworkFetcher creates a fetcher; a nil client uses http.DefaultClient
func NewTagArtworkFetcher(client *http.Client) *TagArtworkFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &TagArtworkFetcher{client: client}
}

func (f *TagArtworkFetcher) FetchArtwork(ctx context.Context, url string) (*Artwork, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Op: "fetch artwork", URL: url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "fetch artwork", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "fetch artwork", URL: url, Status: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkSource))
	if err != nil {
		return nil, &TransportError{Op: "fetch artwork", URL: url, Err: err}
	}
	return ExtractArtwork(data)
}

// ExtractArtwork reads the embedded picture from audio bytes
func ExtractArtwork(data []byte) (*Artwork, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, nil
	}
	return &Artwork{
		MIMEType:    pic.MIMEType,
		Ext:         pic.Ext,
		Description: pic.Description,
		Data:        pic.Data,
	}, nil
}
