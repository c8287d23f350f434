package proc

import (
	"context"
	"regexp"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/ppalone/ytsearch"
	"github.com/raitonoberu/ytmusic"
)

var (
	videoIDRegex = regexp.MustCompile(`(?:\?|&)v=([A-Za-z0-9_-]{6,})`)
	shortIDRegex = regexp.MustCompile(`(?i)(?:youtu\.be/|/shorts/)([A-Za-z0-9_-]{6,})`)
)

// YouTubeVideoID pulls the video id out of a YouTube link, or returns "".
func YouTubeVideoID(link string) string {
	lower := strings.ToLower(link)
	if !strings.Contains(lower, "youtube.com") && !strings.Contains(lower, "youtu.be") {
		return ""
	}
	if m := videoIDRegex.FindStringSubmatch(link); len(m) > 1 {
		return m[1]
	}
	if m := shortIDRegex.FindStringSubmatch(link); len(m) > 1 {
		return m[1]
	}
	return ""
}

// YouTubeTitles looks up video titles. YouTube Music links are resolved
// against the music catalogue first so the artist is included.
type YouTubeTitles struct {
	search  *ytsearch.Client
	timeout time.Duration
}

func NewYouTubeTitles() *YouTubeTitles {
	return &YouTubeTitles{search: ytsearch.NewClient(nil), timeout: 5 * time.Second}
}

func (y *YouTubeTitles) Title(ctx context.Context, link string) (string, error) {
	id := YouTubeVideoID(link)
	if id == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	if strings.Contains(strings.ToLower(link), "music.youtube.com") {
		if title := musicTitle(id); title != "" {
			return title, nil
		}
	}

	res, err := y.search.Search(ctx, id)
	if err != nil {
		return "", errors.Wrapf(err, "searching for %s", id)
	}
	for _, v := range res.Results {
		if v.VideoID == id {
			return v.Title, nil
		}
	}
	return "", nil
}

func musicTitle(id string) string {
	r, err := ytmusic.TrackSearch(id).Next()
	if err != nil {
		return ""
	}
	for _, v := range r.Tracks {
		if v.VideoID != id {
			continue
		}
		if len(v.Artists) > 0 {
			return v.Title + " - " + v.Artists[0].Name
		}
		return v.Title
	}
	return ""
}
