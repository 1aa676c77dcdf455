// Package bookinfo looks up cover art and reading metadata for a submitted
// title from the Google Books volumes API.
package bookinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable means the lookup service could not be reached or answered with an error
var ErrUnavailable = errors.New("book info service unavailable")

// Info is the optional metadata attached to a submission
type Info struct {
	CoverURL      string `json:"cover_url,omitempty"`
	ReadingLevel  string `json:"reading_level,omitempty"`
	InterestLevel string `json:"interest_level,omitempty"`
}

// Empty reports whether no metadata was found
func (i Info) Empty() bool {
	return i.CoverURL == "" && i.ReadingLevel == "" && i.InterestLevel == ""
}

// Lookuper is what the submission flow depends on
type Lookuper interface {
	Lookup(ctx context.Context, title, author string) (Info, error)
}

// Client queries the volumes endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type volumesResponse struct {
	Items []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title          string   `json:"title"`
	PageCount      *int     `json:"pageCount"`
	AverageRating  *float64 `json:"averageRating"`
	MaturityRating string   `json:"maturityRating"`
	Categories     []string `json:"categories"`
	ImageLinks     struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

// Lookup returns metadata for the best match of title and author.
// No match yields an empty Info and a nil error.
func (c *Client) Lookup(ctx context.Context, title, author string) (Info, error) {
	q := strings.TrimSpace(title + " " + author)
	endpoint := fmt.Sprintf("%s/volumes?q=%s&maxResults=1", c.baseURL, url.QueryEscape(q))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Info{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Info{}, fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}
	if len(body.Items) == 0 {
		return Info{}, nil
	}
	return mapVolume(body.Items[0].VolumeInfo), nil
}

func mapVolume(v volumeInfo) Info {
	info := Info{
		CoverURL:      strings.Replace(v.ImageLinks.Thumbnail, "http:", "https:", 1),
		InterestLevel: interestLevel(v.MaturityRating, v.Categories),
	}
	if v.AverageRating != nil && v.PageCount != nil {
		info.ReadingLevel = ReadingLevelForPages(*v.PageCount)
	}
	return info
}

func interestLevel(maturity string, categories []string) string {
	level := ""
	if maturity != "" {
		if maturity == "NOT_MATURE" {
			level = "All Ages"
		} else {
			level = "Mature"
		}
	}
	if len(categories) > 0 {
		category := strings.ToLower(categories[0])
		switch {
		case strings.Contains(category, "juvenile"), strings.Contains(category, "children"):
			level = "Ages 8-12"
		case strings.Contains(category, "young adult"):
			level = "Ages 12+"
		}
	}
	return level
}

// ReadingLevelForPages estimates a reading band from page count
func ReadingLevelForPages(pages int) string {
	switch {
	case pages < 50:
		return "Early Reader (K-2)"
	case pages < 150:
		return "Grade 3-5"
	case pages < 300:
		return "Grade 6-8"
	default:
		return "Grade 9+"
	}
}
