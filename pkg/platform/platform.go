package platform

import (
	"context"
	"time"
)

// GlobalFeed is the sentinel event id marking the cross-event discussion
// channel. Exactly one channel with this event id is expected; its absence
// is tolerated and simply disables global discussion features.
const GlobalFeed = "GLOBAL_FEED"

// EventStatus is the approval state of an event.
type EventStatus string

const (
	EventPending  EventStatus = "pending"
	EventApproved EventStatus = "approved"
	EventRejected EventStatus = "rejected"
)

// RegistrationStatus is the state of a volunteer registration.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationApproved  RegistrationStatus = "approved"
	RegistrationRejected  RegistrationStatus = "rejected"
	RegistrationCompleted RegistrationStatus = "completed"
)

// Event is a volunteer event as served by the platform API. Read-only here;
// creation and approval happen upstream.
type Event struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Location         string      `json:"location"`
	Date             time.Time   `json:"date"`
	CreatedAt        time.Time   `json:"createdAt"`
	Status           EventStatus `json:"status"`
	VolunteersNeeded int         `json:"volunteersNeeded"` // 0 = unlimited
	OwnerID          string      `json:"ownerId"`
}

// Registration ties one user to one event.
type Registration struct {
	ID           string             `json:"id"`
	EventID      string             `json:"eventId"`
	UserID       string             `json:"userId"`
	RegisteredAt time.Time          `json:"registeredAt"`
	Status       RegistrationStatus `json:"status"`
}

// Channel is a discussion channel, tied to one event or to the global feed.
type Channel struct {
	ID      string `json:"id"`
	EventID string `json:"eventId"`
}

// IsGlobal reports whether the channel is the cross-event feed.
func (c Channel) IsGlobal() bool { return c.EventID == GlobalFeed }

// Post is a discussion post with normalized engagement counts. Upstream
// shapes vary (count fields vs. embedded like/comment arrays); the fetch
// layer resolves that before a Post ever reaches scoring.
type Post struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channelId"`
	Title     string    `json:"title"`
	Author    string    `json:"authorName"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     int       `json:"likesCount"`
	Comments  int       `json:"commentsCount"`
}

// User is a platform account, used only for the summary counters.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	RoleVolunteer = "volunteer"
	StatusActive  = "active"
)

// API is the read-only surface of the volunteer platform the dashboard
// aggregates over. Implementations must return empty collections (not
// errors) for per-entity not-found cases, and ChannelByEvent returns
// (nil, nil) when an event has no channel yet.
type API interface {
	// ListEvents returns all approved and pending events.
	ListEvents(ctx context.Context) ([]Event, error)
	// ListUsers returns all platform users.
	ListUsers(ctx context.Context) ([]User, error)
	// ListRegistrations returns the registrations of one event;
	// empty, not an error, when the event has none or is unknown.
	ListRegistrations(ctx context.Context, eventID string) ([]Registration, error)
	// ListChannels returns every discussion channel, including the
	// global feed channel if one exists.
	ListChannels(ctx context.Context) ([]Channel, error)
	// ChannelByEvent returns the channel of one event, or (nil, nil)
	// when the event has no channel.
	ChannelByEvent(ctx context.Context, eventID string) (*Channel, error)
	// ListPosts returns the posts of one channel.
	ListPosts(ctx context.Context, channelID string) ([]Post, error)
}
