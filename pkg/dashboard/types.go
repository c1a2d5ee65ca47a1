// Package dashboard computes the engagement dashboard of the volunteer
// platform: it joins independently fetched events, registrations, channels
// and posts, scores discussions and events, and ranks the hottest
// discussions and most attractive events into a single view model.
package dashboard

import "time"

// Summary holds the headline counters of one dashboard run.
type Summary struct {
	TotalEvents     int `json:"totalEvents"`
	UpcomingEvents  int `json:"upcomingEvents"`
	PendingEvents   int `json:"pendingEvents"`
	TotalPosts      int `json:"totalPosts"`
	NewPostsToday   int `json:"newPostsToday"`
	TotalUsers      int `json:"totalUsers"`
	TotalVolunteers int `json:"totalVolunteers"`
	ActiveUsers     int `json:"activeUsers"`
}

// PendingEvent is an event awaiting approval, surfaced as a queue entry.
// Pending events are never scored.
type PendingEvent struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
}

// DiscussionSummary is one ranked discussion: the single hottest in-window
// post of one event channel, or of the global feed.
type DiscussionSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	LatestPostTitle  string    `json:"latestPostTitle"`
	LatestPostAuthor string    `json:"latestPostAuthor"`
	LatestPostDate   time.Time `json:"latestPostDate"`
	LatestPostID     string    `json:"latestPostId"`
	HotScore         int       `json:"hotScore"`
	LikesCount       int       `json:"likesCount"`
	CommentsCount    int       `json:"commentsCount"`
	IsGlobal         bool      `json:"isGlobal"`
}

// AttractivenessEntry is one ranked approved event with its participation
// score.
type AttractivenessEntry struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Location         string    `json:"location"`
	Date             time.Time `json:"date"`
	VolunteersNeeded int       `json:"volunteersNeeded"`
	TotalVolunteers  int       `json:"totalVolunteers"`
	TotalPosts       int       `json:"totalPosts"`
	Score            int       `json:"score"`
}

// ViewModel is the complete output of one aggregation run. It is rebuilt
// from scratch on every run and never fed back into a later one.
type ViewModel struct {
	RunID               string                `json:"runId"`
	GeneratedAt         time.Time             `json:"generatedAt"`
	Scope               string                `json:"scope,omitempty"`
	Summary             Summary               `json:"summary"`
	PendingEvents       []PendingEvent        `json:"pendingEvents"`
	TopDiscussions      []DiscussionSummary   `json:"topDiscussions"`
	TopAttractiveEvents []AttractivenessEntry `json:"topAttractiveEvents"`
	MaxAttractiveScore  int                   `json:"maxAttractiveScore"`
}
