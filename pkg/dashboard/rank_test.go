package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/danhoran/volpulse/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rankNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func eventChannel(eventID string) platform.Channel {
	return platform.Channel{ID: "ch-" + eventID, EventID: eventID}
}

// joinedFor hand-builds a Joined without any fetching.
func joinedFor(events []platform.Event, postsByEvent map[string][]platform.Post, globalPosts []platform.Post) *Joined {
	j := &Joined{
		RegistrationsByEvent: make(map[string][]platform.Registration),
		ChannelByEvent:       make(map[string]platform.Channel),
		PostsByChannel:       make(map[string][]platform.Post),
	}
	for _, ev := range events {
		ch := eventChannel(ev.ID)
		j.ChannelByEvent[ev.ID] = ch
		j.PostsByChannel[ch.ID] = postsByEvent[ev.ID]
	}
	if globalPosts != nil {
		j.GlobalChannel = &platform.Channel{ID: "ch-global", EventID: platform.GlobalFeed}
		j.GlobalPosts = globalPosts
		j.PostsByChannel["ch-global"] = globalPosts
	}
	return j
}

func TestHottestPostStrictGreaterKeepsFirstOnTie(t *testing.T) {
	posts := []platform.Post{
		{ID: "a", CreatedAt: rankNow.Add(-time.Hour), Likes: 5},
		{ID: "b", CreatedAt: rankNow.Add(-time.Hour), Likes: 5},
	}
	best, score, ok := hottestPost(rankNow, posts)
	require.True(t, ok)
	assert.Equal(t, "a", best.ID)
	assert.Equal(t, 5, score)
}

func TestHottestPostIgnoresOutOfWindowPosts(t *testing.T) {
	posts := []platform.Post{
		{ID: "old", CreatedAt: rankNow.Add(-31 * 24 * time.Hour), Likes: 100},
		{ID: "new", CreatedAt: rankNow.Add(-time.Hour), Likes: 1},
	}
	best, score, ok := hottestPost(rankNow, posts)
	require.True(t, ok)
	assert.Equal(t, "new", best.ID)
	assert.Equal(t, 1, score)

	_, _, ok = hottestPost(rankNow, []platform.Post{posts[0]})
	assert.False(t, ok, "window with only stale posts yields no summary")
}

func TestRankDiscussionsOrderingAndTruncation(t *testing.T) {
	var events []platform.Event
	postsByEvent := make(map[string][]platform.Post)
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("e%d", i)
		events = append(events, platform.Event{ID: id, Title: "Event " + id, Status: platform.EventApproved})
		postsByEvent[id] = []platform.Post{
			{ID: "p-" + id, CreatedAt: rankNow.Add(-time.Duration(i) * time.Hour), Likes: i},
		}
	}
	j := joinedFor(events, postsByEvent, nil)

	got := RankDiscussions(rankNow, events, j)
	require.Len(t, got, 5)
	for i := 0; i < len(got)-1; i++ {
		a, b := got[i], got[i+1]
		ordered := a.HotScore > b.HotScore ||
			(a.HotScore == b.HotScore && !a.LatestPostDate.Before(b.LatestPostDate))
		assert.True(t, ordered, "pair %d/%d out of order", i, i+1)
	}
	assert.Equal(t, "e6", got[0].ID)
}

func TestRankDiscussionsTieBreaks(t *testing.T) {
	events := []platform.Event{
		{ID: "e1", Title: "One", Status: platform.EventApproved},
		{ID: "e2", Title: "Two", Status: platform.EventApproved},
		{ID: "e3", Title: "Three", Status: platform.EventApproved},
	}
	postsByEvent := map[string][]platform.Post{
		// Same score, e2's post is more recent.
		"e1": {{ID: "pa", CreatedAt: rankNow.Add(-2 * time.Hour), Likes: 4}},
		"e2": {{ID: "pb", CreatedAt: rankNow.Add(-1 * time.Hour), Likes: 4}},
		// Same score and timestamp as e1's: post id breaks the tie.
		"e3": {{ID: "pZ", CreatedAt: rankNow.Add(-2 * time.Hour), Likes: 4}},
	}
	j := joinedFor(events, postsByEvent, nil)

	got := RankDiscussions(rankNow, events, j)
	require.Len(t, got, 3)
	assert.Equal(t, "pb", got[0].LatestPostID, "more recent post wins the score tie")
	assert.Equal(t, "pZ", got[1].LatestPostID)
	assert.Equal(t, "pa", got[2].LatestPostID)
}

func TestRankDiscussionsIncludesGlobalFeed(t *testing.T) {
	events := []platform.Event{{ID: "e1", Title: "One", Status: platform.EventApproved}}
	postsByEvent := map[string][]platform.Post{
		"e1": {{ID: "p1", CreatedAt: rankNow.Add(-time.Hour), Likes: 1}},
	}
	global := []platform.Post{
		{ID: "g1", CreatedAt: rankNow.Add(-time.Hour), Comments: 5},
	}
	j := joinedFor(events, postsByEvent, global)

	got := RankDiscussions(rankNow, events, j)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsGlobal)
	assert.Equal(t, GlobalDiscussionID, got[0].ID)
	assert.Equal(t, 10, got[0].HotScore)
}

func TestRankDiscussionsGlobalAbsent(t *testing.T) {
	events := []platform.Event{{ID: "e1", Title: "One", Status: platform.EventApproved}}
	postsByEvent := map[string][]platform.Post{
		"e1": {{ID: "p1", CreatedAt: rankNow.Add(-time.Hour), Likes: 1}},
	}
	j := joinedFor(events, postsByEvent, nil)

	got := RankDiscussions(rankNow, events, j)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsGlobal)
}

func TestRankAttractiveness(t *testing.T) {
	events := []platform.Event{
		{ID: "e1", Title: "E1", Status: platform.EventApproved},
		{ID: "e2", Title: "E2", Status: platform.EventApproved},
	}
	j := joinedFor(events, map[string][]platform.Post{
		"e1": {{ID: "p1"}, {ID: "p2"}},
	}, nil)
	j.RegistrationsByEvent["e1"] = []platform.Registration{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}, {ID: "r4"}}
	j.RegistrationsByEvent["e2"] = []platform.Registration{{ID: "r5"}}

	entries, maxScore := RankAttractiveness(events, j)
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, 14, entries[0].Score)
	assert.Equal(t, "e2", entries[1].ID)
	assert.Equal(t, 3, entries[1].Score)
	assert.Equal(t, 14, maxScore)
}

func TestRankAttractivenessStableTiesKeepInputOrder(t *testing.T) {
	// Input pre-sorted most recently created first; equal scores must keep
	// that order.
	events := []platform.Event{
		{ID: "newer", Status: platform.EventApproved, CreatedAt: rankNow},
		{ID: "older", Status: platform.EventApproved, CreatedAt: rankNow.Add(-time.Hour)},
	}
	j := joinedFor(events, nil, nil)

	entries, maxScore := RankAttractiveness(events, j)
	require.Len(t, entries, 2)
	assert.Equal(t, "newer", entries[0].ID)
	assert.Equal(t, "older", entries[1].ID)
	assert.Equal(t, 1, maxScore, "all-zero scores floor the denominator at 1")
}

func TestRankAttractivenessTruncatesToTopN(t *testing.T) {
	var events []platform.Event
	j := &Joined{
		RegistrationsByEvent: make(map[string][]platform.Registration),
		ChannelByEvent:       make(map[string]platform.Channel),
		PostsByChannel:       make(map[string][]platform.Post),
	}
	for i := 0; i < 9; i++ {
		id := fmt.Sprintf("e%d", i)
		events = append(events, platform.Event{ID: id, Status: platform.EventApproved})
		regs := make([]platform.Registration, i)
		j.RegistrationsByEvent[id] = regs
	}

	entries, maxScore := RankAttractiveness(events, j)
	require.Len(t, entries, 5)
	assert.Equal(t, 24, maxScore) // 8 registrations * 3
	for i := 0; i < len(entries)-1; i++ {
		assert.GreaterOrEqual(t, entries[i].Score, entries[i+1].Score)
	}
}
