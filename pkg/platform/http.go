package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the volunteer platform's REST API and normalizes its
// wire shapes into the canonical types of this package.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a platform API client. timeout <= 0 falls back to 30s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

var _ API = (*Client)(nil)

func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var raw []wireEvent
	if err := c.get(ctx, "/events", &raw); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]Event, 0, len(raw))
	for _, w := range raw {
		events = append(events, w.normalize())
	}
	return events, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/users", &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (c *Client) ListRegistrations(ctx context.Context, eventID string) ([]Registration, error) {
	var regs []Registration
	path := "/events/" + url.PathEscape(eventID) + "/registrations"
	err := c.get(ctx, path, &regs)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list registrations %s: %w", eventID, err)
	}
	return regs, nil
}

func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	if err := c.get(ctx, "/channels", &channels); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

func (c *Client) ChannelByEvent(ctx context.Context, eventID string) (*Channel, error) {
	var ch Channel
	path := "/channels/by-event/" + url.PathEscape(eventID)
	err := c.get(ctx, path, &ch)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("channel by event %s: %w", eventID, err)
	}
	return &ch, nil
}

func (c *Client) ListPosts(ctx context.Context, channelID string) ([]Post, error) {
	var raw []wirePost
	path := "/channels/" + url.PathEscape(channelID) + "/posts"
	err := c.get(ctx, path, &raw)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list posts %s: %w", channelID, err)
	}
	posts := make([]Post, 0, len(raw))
	for _, w := range raw {
		posts = append(posts, w.normalize())
	}
	return posts, nil
}

// statusError carries a non-2xx response code.
type statusError struct {
	code int
	path string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.path, e.code)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "volpulse/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// wireEvent tolerates the field variants the platform has shipped over time.
type wireEvent struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	CreatedAt        time.Time `json:"createdAt"`
	Status           string    `json:"status"`
	VolunteersNeeded *int      `json:"volunteersNeeded"`
	MaxVolunteers    *int      `json:"maxVolunteers"`
	OwnerID          string    `json:"ownerId"`
	CreatedBy        string    `json:"createdBy"`
}

func (w wireEvent) normalize() Event {
	needed := 0
	if w.VolunteersNeeded != nil {
		needed = *w.VolunteersNeeded
	} else if w.MaxVolunteers != nil {
		needed = *w.MaxVolunteers
	}
	if needed < 0 {
		needed = 0
	}
	owner := w.OwnerID
	if owner == "" {
		owner = w.CreatedBy
	}
	return Event{
		ID:               w.ID,
		Title:            w.Title,
		Location:         w.Location,
		Date:             w.Date,
		CreatedAt:        w.CreatedAt,
		Status:           EventStatus(strings.ToLower(w.Status)),
		VolunteersNeeded: needed,
		OwnerID:          owner,
	}
}

// wirePost tolerates both count fields and embedded like/comment arrays.
type wirePost struct {
	ID            string            `json:"id"`
	ChannelID     string            `json:"channelId"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	AuthorName    string            `json:"authorName"`
	Author        string            `json:"author"`
	CreatedAt     time.Time         `json:"createdAt"`
	LikesCount    *int              `json:"likesCount"`
	Likes         []json.RawMessage `json:"likes"`
	CommentsCount *int              `json:"commentsCount"`
	Comments      []json.RawMessage `json:"comments"`
}

func (w wirePost) normalize() Post {
	title := w.Title
	if title == "" {
		title = w.Content
	}
	author := w.AuthorName
	if author == "" {
		author = w.Author
	}
	return Post{
		ID:        w.ID,
		ChannelID: w.ChannelID,
		Title:     title,
		Author:    author,
		CreatedAt: w.CreatedAt,
		Likes:     countOf(w.LikesCount, w.Likes),
		Comments:  countOf(w.CommentsCount, w.Comments),
	}
}

// countOf prefers a direct count field, falls back to array length, and
// never goes negative.
func countOf(count *int, arr []json.RawMessage) int {
	var n int
	switch {
	case count != nil:
		n = *count
	default:
		n = len(arr)
	}
	if n < 0 {
		return 0
	}
	return n
}
