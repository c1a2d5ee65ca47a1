package dashboard

import (
	"sort"
	"time"

	"github.com/danhoran/volpulse/pkg/platform"
)

// LookbackWindow is the fixed period a post must fall within to be
// eligible for the discussion ranking.
const LookbackWindow = 30 * 24 * time.Hour

// TopN is the fixed length cap of both rankings.
const TopN = 5

// GlobalDiscussionID identifies the global feed's entry in the discussion
// ranking.
const GlobalDiscussionID = "global"

// GlobalDiscussionTitle is the display title of the global feed entry.
const GlobalDiscussionTitle = "Community Feed"

// hottestPost scans posts for the in-window post with the maximum hot
// score. The strict > comparison means the first post encountered wins a
// tie, preserving fetched order. ok is false when no post falls in the
// window.
func hottestPost(now time.Time, posts []platform.Post) (best platform.Post, score int, ok bool) {
	cutoff := now.Add(-LookbackWindow)
	score = -1
	for _, p := range posts {
		if p.CreatedAt.Before(cutoff) {
			continue
		}
		if s := HotScore(p); s > score {
			best, score, ok = p, s, true
		}
	}
	if !ok {
		return platform.Post{}, 0, false
	}
	return best, score, true
}

// RankDiscussions builds one DiscussionSummary per channel that has an
// in-window post (the global feed included), sorts them by hot score
// descending with more recent posts winning ties, and truncates to TopN.
// Equal score and equal timestamp fall back to post id ascending so the
// ordering is fully deterministic.
func RankDiscussions(now time.Time, approved []platform.Event, j *Joined) []DiscussionSummary {
	var summaries []DiscussionSummary

	if j.GlobalChannel != nil {
		if s, ok := summarize(now, GlobalDiscussionID, GlobalDiscussionTitle, true, j.GlobalPosts); ok {
			summaries = append(summaries, s)
		}
	}

	for _, ev := range approved {
		if s, ok := summarize(now, ev.ID, ev.Title, false, j.EventPosts(ev.ID)); ok {
			summaries = append(summaries, s)
		}
	}

	sort.Slice(summaries, func(a, b int) bool {
		x, y := summaries[a], summaries[b]
		if x.HotScore != y.HotScore {
			return x.HotScore > y.HotScore
		}
		if !x.LatestPostDate.Equal(y.LatestPostDate) {
			return x.LatestPostDate.After(y.LatestPostDate)
		}
		return x.LatestPostID < y.LatestPostID
	})

	if len(summaries) > TopN {
		summaries = summaries[:TopN]
	}
	return summaries
}

func summarize(now time.Time, id, title string, global bool, posts []platform.Post) (DiscussionSummary, bool) {
	post, score, ok := hottestPost(now, posts)
	if !ok {
		return DiscussionSummary{}, false
	}
	return DiscussionSummary{
		ID:               id,
		Title:            title,
		LatestPostTitle:  post.Title,
		LatestPostAuthor: post.Author,
		LatestPostDate:   post.CreatedAt,
		LatestPostID:     post.ID,
		HotScore:         score,
		LikesCount:       post.Likes,
		CommentsCount:    post.Comments,
		IsGlobal:         global,
	}, true
}

// RankAttractiveness scores every approved event, sorts stably by score
// descending (ties keep the incoming order, which the assembler pre-sorts
// most-recently-created first), truncates to TopN, and returns the
// normalization denominator: the maximum score among the kept entries,
// floored at 1 so progress-bar rendering never divides by zero. The global
// feed never participates here.
func RankAttractiveness(approved []platform.Event, j *Joined) ([]AttractivenessEntry, int) {
	entries := make([]AttractivenessEntry, 0, len(approved))
	for _, ev := range approved {
		regs := len(j.RegistrationsByEvent[ev.ID])
		posts := len(j.EventPosts(ev.ID))
		entries = append(entries, AttractivenessEntry{
			ID:               ev.ID,
			Title:            ev.Title,
			Location:         ev.Location,
			Date:             ev.Date,
			VolunteersNeeded: ev.VolunteersNeeded,
			TotalVolunteers:  regs,
			TotalPosts:       posts,
			Score:            Attractiveness(regs, posts),
		})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Score > entries[b].Score
	})

	if len(entries) > TopN {
		entries = entries[:TopN]
	}

	maxScore := 1
	for _, e := range entries {
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	return entries, maxScore
}
