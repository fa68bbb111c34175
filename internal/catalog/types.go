package catalog

import "strings"

// Volume is the normalized metadata the rest of the app uses for a catalog volume.
type Volume struct {
	ID            string   `json:"volume_id"`
	Title         string   `json:"title"`
	Author        string   `json:"author,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	AverageRating float64  `json:"average_rating,omitempty"`
	RatingsCount  int      `json:"ratings_count,omitempty"`
	PageCount     int      `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// SearchResult is one page of a free-text catalog search.
type SearchResult struct {
	TotalItems int      `json:"total_items"`
	Items      []Volume `json:"items"`
}

// volumeResponse matches a single entry of the Google Books volumes API.
type volumeResponse struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		PageCount     int      `json:"pageCount"`
		Categories    []string `json:"categories"`
		AverageRating float64  `json:"averageRating"`
		RatingsCount  int      `json:"ratingsCount"`
		ImageLinks    struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

// volumeListResponse matches the search endpoint. Items is absent when nothing matched.
type volumeListResponse struct {
	TotalItems int              `json:"totalItems"`
	Items      []volumeResponse `json:"items"`
}

func (v volumeResponse) toVolume() Volume {
	info := v.VolumeInfo

	out := Volume{
		ID:            v.ID,
		Title:         info.Title,
		PageCount:     info.PageCount,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
		Categories:    info.Categories,
	}
	if len(info.Authors) > 0 {
		out.Author = info.Authors[0]
	}

	thumb := info.ImageLinks.Thumbnail
	if thumb == "" {
		thumb = info.ImageLinks.SmallThumbnail
	}
	// the API hands out http links that browsers block as mixed content
	out.Thumbnail = strings.Replace(thumb, "http://", "https://", 1)

	return out
}
