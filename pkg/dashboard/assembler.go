package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danhoran/volpulse/pkg/platform"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Scope restricts a run to one manager's events. The zero Scope is the
// admin view over all events.
type Scope struct {
	OwnerID string
}

// Builder orchestrates one dashboard run: fan-out fetches, join, scoring,
// ranking. It holds no state between runs; every Build recomputes from
// scratch.
type Builder struct {
	api platform.API
	ann Announcements
	log zerolog.Logger
}

// Announcements is the optional extra source of global-feed posts.
type Announcements interface {
	Posts(ctx context.Context) []platform.Post
}

// NewBuilder creates a Builder. ann may be nil.
func NewBuilder(api platform.API, ann Announcements, log zerolog.Logger) *Builder {
	return &Builder{api: api, ann: ann, log: log}
}

// Build runs one aggregation. Only a failed event-list fetch is fatal;
// every other failure degrades to an empty collection.
func (b *Builder) Build(ctx context.Context, scope Scope) (*ViewModel, error) {
	now := time.Now()

	// Top-level fan-out: all three settle before the join proceeds.
	var (
		wg       sync.WaitGroup
		events   result[[]platform.Event]
		users    result[[]platform.User]
		channels result[[]platform.Channel]
		extra    []platform.Post
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		v, err := b.api.ListEvents(ctx)
		events = result[[]platform.Event]{val: v, err: err}
	}()
	go func() {
		defer wg.Done()
		v, err := b.api.ListUsers(ctx)
		users = result[[]platform.User]{val: v, err: err}
	}()
	go func() {
		defer wg.Done()
		v, err := b.api.ListChannels(ctx)
		channels = result[[]platform.Channel]{val: v, err: err}
	}()
	if b.ann != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			extra = b.ann.Posts(ctx)
		}()
	}
	wg.Wait()

	if events.err != nil {
		return nil, fmt.Errorf("load events: %w", events.err)
	}

	var degraded int
	scoped := scopeEvents(events.val, scope)
	userList := orEmpty(users, b.log, "users", "all", &degraded)
	channelList := orEmpty(channels, b.log, "channels", "all", &degraded)

	j := BuildJoined(ctx, b.api, b.log, approvedByRecency(scoped), channelList)
	j.Degraded += degraded

	// Announcements join the global feed; without a global channel there
	// is no global discussion entry to attach them to.
	if j.GlobalChannel != nil && len(extra) > 0 {
		j.GlobalPosts = append(j.GlobalPosts, extra...)
		j.PostsByChannel[j.GlobalChannel.ID] = j.GlobalPosts
	}

	vm := Assemble(now, scope, scoped, userList, j)
	vm.RunID = uuid.NewString()

	b.log.Info().
		Str("run_id", vm.RunID).
		Str("scope", vm.Scope).
		Int("events", vm.Summary.TotalEvents).
		Int("degraded", j.Degraded).
		Msg("dashboard assembled")
	return vm, nil
}

// Assemble is the pure aggregation over already-fetched collections. The
// events slice must already be scoped; the Joined must have been built
// from the same events (see approvedByRecency).
func Assemble(now time.Time, scope Scope, events []platform.Event, users []platform.User, j *Joined) *ViewModel {
	approved := approvedByRecency(events)

	var pending []PendingEvent
	for _, ev := range events {
		if ev.Status == platform.EventPending {
			pending = append(pending, PendingEvent{
				ID:       ev.ID,
				Title:    ev.Title,
				Date:     ev.Date,
				Location: ev.Location,
			})
		}
	}

	topEvents, maxScore := RankAttractiveness(approved, j)

	return &ViewModel{
		GeneratedAt:         now,
		Scope:               scope.OwnerID,
		Summary:             buildSummary(now, events, users, approved, j, len(pending)),
		PendingEvents:       pending,
		TopDiscussions:      RankDiscussions(now, approved, j),
		TopAttractiveEvents: topEvents,
		MaxAttractiveScore:  maxScore,
	}
}

func buildSummary(now time.Time, events []platform.Event, users []platform.User, approved []platform.Event, j *Joined, pendingCount int) Summary {
	s := Summary{
		TotalEvents:   len(events),
		PendingEvents: pendingCount,
		TotalUsers:    len(users),
	}
	for _, ev := range events {
		if ev.Date.After(now) {
			s.UpcomingEvents++
		}
	}
	for _, u := range users {
		if u.Role == platform.RoleVolunteer {
			s.TotalVolunteers++
		}
		if u.Status == platform.StatusActive {
			s.ActiveUsers++
		}
	}

	count := func(posts []platform.Post) {
		s.TotalPosts += len(posts)
		y, m, d := now.Date()
		for _, p := range posts {
			py, pm, pd := p.CreatedAt.In(now.Location()).Date()
			if py == y && pm == m && pd == d {
				s.NewPostsToday++
			}
		}
	}
	count(j.GlobalPosts)
	for _, ev := range approved {
		count(j.EventPosts(ev.ID))
	}
	return s
}

// scopeEvents filters to the owner's events for the manager view; the
// empty scope keeps everything.
func scopeEvents(events []platform.Event, scope Scope) []platform.Event {
	if scope.OwnerID == "" {
		return events
	}
	var out []platform.Event
	for _, ev := range events {
		if ev.OwnerID == scope.OwnerID {
			out = append(out, ev)
		}
	}
	return out
}

// approvedByRecency returns the approved events sorted most recently
// created first. The attractiveness ranking's stable sort relies on this
// order for its tie-breaking.
func approvedByRecency(events []platform.Event) []platform.Event {
	var approved []platform.Event
	for _, ev := range events {
		if ev.Status == platform.EventApproved {
			approved = append(approved, ev)
		}
	}
	sort.SliceStable(approved, func(a, b int) bool {
		return approved[a].CreatedAt.After(approved[b].CreatedAt)
	})
	return approved
}
