package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danhoran/volpulse/pkg/platform"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory platform.API with per-entity failure injection.
type fakeAPI struct {
	events      []platform.Event
	eventsErr   error
	users       []platform.User
	usersErr    error
	channels    []platform.Channel
	channelsErr error

	regs       map[string][]platform.Registration
	regErr     map[string]error
	chanByEv   map[string]*platform.Channel
	chanErr    map[string]error
	posts      map[string][]platform.Post
	postErr    map[string]error
}

func (f *fakeAPI) ListEvents(ctx context.Context) ([]platform.Event, error) {
	return f.events, f.eventsErr
}

func (f *fakeAPI) ListUsers(ctx context.Context) ([]platform.User, error) {
	return f.users, f.usersErr
}

func (f *fakeAPI) ListRegistrations(ctx context.Context, eventID string) ([]platform.Registration, error) {
	if err := f.regErr[eventID]; err != nil {
		return nil, err
	}
	return f.regs[eventID], nil
}

func (f *fakeAPI) ListChannels(ctx context.Context) ([]platform.Channel, error) {
	return f.channels, f.channelsErr
}

func (f *fakeAPI) ChannelByEvent(ctx context.Context, eventID string) (*platform.Channel, error) {
	if err := f.chanErr[eventID]; err != nil {
		return nil, err
	}
	return f.chanByEv[eventID], nil
}

func (f *fakeAPI) ListPosts(ctx context.Context, channelID string) ([]platform.Post, error) {
	if err := f.postErr[channelID]; err != nil {
		return nil, err
	}
	return f.posts[channelID], nil
}

type fakeAnnouncements struct {
	posts []platform.Post
}

func (f *fakeAnnouncements) Posts(ctx context.Context) []platform.Post { return f.posts }

func testAPI(now time.Time) *fakeAPI {
	ch1 := platform.Channel{ID: "c1", EventID: "e1"}
	ch2 := platform.Channel{ID: "c2", EventID: "e2"}
	global := platform.Channel{ID: "cg", EventID: platform.GlobalFeed}
	return &fakeAPI{
		events: []platform.Event{
			{ID: "e1", Title: "Park Cleanup", Status: platform.EventApproved, OwnerID: "m1",
				Date: now.Add(48 * time.Hour), CreatedAt: now.Add(-72 * time.Hour)},
			{ID: "e2", Title: "Food Drive", Status: platform.EventApproved, OwnerID: "m2",
				Date: now.Add(-24 * time.Hour), CreatedAt: now.Add(-48 * time.Hour)},
			{ID: "e3", Title: "Book Fair", Status: platform.EventPending, OwnerID: "m1",
				Date: now.Add(96 * time.Hour), CreatedAt: now.Add(-time.Hour), Location: "Library"},
		},
		users: []platform.User{
			{ID: "u1", Role: platform.RoleVolunteer, Status: platform.StatusActive},
			{ID: "u2", Role: platform.RoleVolunteer},
			{ID: "u3", Role: "manager", Status: platform.StatusActive},
		},
		channels: []platform.Channel{ch1, ch2, global},
		regs: map[string][]platform.Registration{
			"e1": {{ID: "r1"}, {ID: "r2"}, {ID: "r3"}, {ID: "r4"}},
			"e2": {{ID: "r5"}},
		},
		chanByEv: map[string]*platform.Channel{"e1": &ch1, "e2": &ch2},
		posts: map[string][]platform.Post{
			"c1": {
				{ID: "p1", ChannelID: "c1", Title: "Bring gloves", Author: "ana",
					CreatedAt: now.Add(-2 * time.Hour), Likes: 2, Comments: 3},
				{ID: "p2", ChannelID: "c1", Title: "Meet at gate", Author: "bo",
					CreatedAt: now.Add(-40 * 24 * time.Hour), Likes: 50},
			},
			"cg": {
				{ID: "g1", ChannelID: "cg", Title: "Welcome", Author: "admin",
					CreatedAt: now, Likes: 10},
			},
		},
		regErr:  map[string]error{},
		chanErr: map[string]error{},
		postErr: map[string]error{},
	}
}

func TestBuildAssemblesViewModel(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	b := NewBuilder(api, nil, zerolog.Nop())

	vm, err := b.Build(context.Background(), Scope{})
	require.NoError(t, err)
	require.NotEmpty(t, vm.RunID)

	assert.Equal(t, 3, vm.Summary.TotalEvents)
	assert.Equal(t, 2, vm.Summary.UpcomingEvents) // e1 and pending e3
	assert.Equal(t, 1, vm.Summary.PendingEvents)
	assert.Equal(t, 3, vm.Summary.TotalPosts)
	assert.Equal(t, 3, vm.Summary.TotalUsers)
	assert.Equal(t, 2, vm.Summary.TotalVolunteers)
	assert.Equal(t, 2, vm.Summary.ActiveUsers)

	require.Len(t, vm.PendingEvents, 1)
	assert.Equal(t, "e3", vm.PendingEvents[0].ID)
	assert.Equal(t, "Library", vm.PendingEvents[0].Location)

	// Global post (hot 10) beats p1 (hot 8); stale p2 never appears.
	require.Len(t, vm.TopDiscussions, 2)
	assert.Equal(t, GlobalDiscussionID, vm.TopDiscussions[0].ID)
	assert.Equal(t, 10, vm.TopDiscussions[0].HotScore)
	assert.Equal(t, "p1", vm.TopDiscussions[1].LatestPostID)
	assert.Equal(t, 8, vm.TopDiscussions[1].HotScore)

	// e1: 4 regs, 2 posts -> 14. e2: 1 reg, 0 posts -> 3.
	require.Len(t, vm.TopAttractiveEvents, 2)
	assert.Equal(t, "e1", vm.TopAttractiveEvents[0].ID)
	assert.Equal(t, 14, vm.TopAttractiveEvents[0].Score)
	assert.Equal(t, "e2", vm.TopAttractiveEvents[1].ID)
	assert.Equal(t, 3, vm.TopAttractiveEvents[1].Score)
	assert.Equal(t, 14, vm.MaxAttractiveScore)
}

func TestBuildEventListFailureIsFatal(t *testing.T) {
	api := testAPI(time.Now())
	api.eventsErr = errors.New("upstream down")
	b := NewBuilder(api, nil, zerolog.Nop())

	_, err := b.Build(context.Background(), Scope{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load events")
}

func TestBuildToleratesPerEntityFailures(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	api.chanErr["e1"] = errors.New("channel lookup 404")
	api.regErr["e2"] = errors.New("registrations unavailable")
	api.usersErr = errors.New("users unavailable")
	b := NewBuilder(api, nil, zerolog.Nop())

	vm, err := b.Build(context.Background(), Scope{})
	require.NoError(t, err)

	// e1 lost its posts but keeps registrations: 4*3 = 12.
	// e2 lost its registrations: 0.
	require.Len(t, vm.TopAttractiveEvents, 2)
	assert.Equal(t, "e1", vm.TopAttractiveEvents[0].ID)
	assert.Equal(t, 12, vm.TopAttractiveEvents[0].Score)
	assert.Equal(t, 0, vm.TopAttractiveEvents[1].Score)
	assert.Equal(t, 12, vm.MaxAttractiveScore)

	assert.Equal(t, 0, vm.Summary.TotalUsers)
}

func TestBuildGlobalChannelAbsent(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	api.channels = api.channels[:2] // drop the global channel

	b := NewBuilder(api, nil, zerolog.Nop())
	vm, err := b.Build(context.Background(), Scope{})
	require.NoError(t, err)

	for _, d := range vm.TopDiscussions {
		assert.False(t, d.IsGlobal)
	}
}

func TestBuildManagerScope(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	b := NewBuilder(api, nil, zerolog.Nop())

	vm, err := b.Build(context.Background(), Scope{OwnerID: "m1"})
	require.NoError(t, err)

	assert.Equal(t, "m1", vm.Scope)
	assert.Equal(t, 2, vm.Summary.TotalEvents) // e1 approved + e3 pending
	require.Len(t, vm.TopAttractiveEvents, 1)
	assert.Equal(t, "e1", vm.TopAttractiveEvents[0].ID)
}

func TestBuildMergesAnnouncementsIntoGlobalFeed(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	ann := &fakeAnnouncements{posts: []platform.Post{
		{ID: "a1", ChannelID: platform.GlobalFeed, Title: "Platform update",
			Author: "staff", CreatedAt: now, Comments: 20},
	}}
	b := NewBuilder(api, ann, zerolog.Nop())

	vm, err := b.Build(context.Background(), Scope{})
	require.NoError(t, err)

	require.NotEmpty(t, vm.TopDiscussions)
	top := vm.TopDiscussions[0]
	assert.True(t, top.IsGlobal)
	assert.Equal(t, "a1", top.LatestPostID)
	assert.Equal(t, 40, top.HotScore)
	assert.Equal(t, 4, vm.Summary.TotalPosts)
}

func TestAssembleIsPureOverCollections(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	events := []platform.Event{
		{ID: "e1", Status: platform.EventApproved, CreatedAt: now.Add(-time.Hour)},
	}
	j := joinedFor(events, map[string][]platform.Post{
		"e1": {{ID: "p1", CreatedAt: now.Add(-time.Minute), Likes: 1}},
	}, nil)

	a := Assemble(now, Scope{}, events, nil, j)
	b := Assemble(now, Scope{}, events, nil, j)
	assert.Equal(t, a, b)
	assert.Equal(t, now, a.GeneratedAt)
	assert.Equal(t, 1, a.Summary.NewPostsToday)
}
