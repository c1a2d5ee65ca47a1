package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Feed is a named RSS/Atom feed URL.
type Feed struct {
	Name string
	URL  string
}

// Announcements ingests the platform's sitewide announcement feeds as
// extra global-feed posts so they can compete in the discussion ranking.
// Announcements carry no like/comment counts.
type Announcements struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []Feed
	log    zerolog.Logger
}

// NewAnnouncements creates an announcements collector.
func NewAnnouncements(feeds []Feed, log zerolog.Logger) *Announcements {
	return &Announcements{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
		log:    log,
	}
}

// Posts fetches all configured feeds. A failing feed is logged and skipped;
// announcements never abort an aggregation run.
func (a *Announcements) Posts(ctx context.Context) []Post {
	var all []Post
	for _, feed := range a.feeds {
		posts, err := a.collectFeed(ctx, feed)
		if err != nil {
			a.log.Warn().Err(err).Str("feed", feed.Name).Msg("announcement feed skipped")
			continue
		}
		all = append(all, posts...)
	}
	return all
}

func (a *Announcements) collectFeed(ctx context.Context, feed Feed) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "volpulse/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := a.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.Name, err)
	}

	var posts []Post
	for _, entry := range parsed.Items {
		published := time.Now().UTC()
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			published = entry.UpdatedParsed.UTC()
		}

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}

		// Some feeds omit guid; fall back so distinct items keep
		// distinct ids.
		key := entry.GUID
		if key == "" {
			key = entry.Link
		}
		if key == "" {
			key = entry.Title
		}

		posts = append(posts, Post{
			ID:        fmt.Sprintf("announcement:%s:%s", feed.Name, key),
			ChannelID: GlobalFeed,
			Title:     entry.Title,
			Author:    author,
			CreatedAt: published,
		})
	}
	return posts, nil
}
