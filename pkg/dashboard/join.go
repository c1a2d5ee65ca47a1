package dashboard

import (
	"context"
	"sync"

	"github.com/danhoran/volpulse/pkg/platform"
	"github.com/rs/zerolog"
)

// Joined is the in-memory join of one aggregation run: every approved
// event keyed to its registrations, channel and posts, plus the resolved
// global feed. Sub-fetch failures degrade to empty collections and are
// recorded in Degraded.
type Joined struct {
	RegistrationsByEvent map[string][]platform.Registration
	ChannelByEvent       map[string]platform.Channel
	PostsByChannel       map[string][]platform.Post
	GlobalChannel        *platform.Channel
	GlobalPosts          []platform.Post

	// Degraded counts the sub-fetches that failed and were substituted
	// with empty results.
	Degraded int
}

// result is the outcome of one tolerated sub-fetch.
type result[T any] struct {
	val T
	err error
}

// orEmpty logs a failed sub-fetch as degraded and returns the zero value,
// so one entity's failure never interrupts the others.
func orEmpty[T any](r result[T], log zerolog.Logger, kind, id string, degraded *int) T {
	if r.err != nil {
		*degraded++
		log.Warn().Err(r.err).Str("kind", kind).Str("id", id).Msg("sub-fetch degraded to empty")
		var zero T
		return zero
	}
	return r.val
}

// BuildJoined fans out the per-event and per-channel fetches for the given
// approved events and zips the results back by index. Requests are issued
// in the fixed order of the event slice and awaited as a batch, so index
// correspondence is exact regardless of completion order.
func BuildJoined(ctx context.Context, api platform.API, log zerolog.Logger, approved []platform.Event, channels []platform.Channel) *Joined {
	j := &Joined{
		RegistrationsByEvent: make(map[string][]platform.Registration, len(approved)),
		ChannelByEvent:       make(map[string]platform.Channel, len(approved)),
		PostsByChannel:       make(map[string][]platform.Post),
	}

	// The global feed is the first channel carrying the sentinel event id.
	// Absence is tolerated; global discussion features are skipped.
	for _, ch := range channels {
		if ch.IsGlobal() {
			g := ch
			j.GlobalChannel = &g
			break
		}
	}

	// Wave one: registrations and channel per approved event, one slot
	// per event index.
	regResults := make([]result[[]platform.Registration], len(approved))
	chResults := make([]result[*platform.Channel], len(approved))

	var wg sync.WaitGroup
	for i := range approved {
		wg.Add(2)
		go func(i int, eventID string) {
			defer wg.Done()
			regs, err := api.ListRegistrations(ctx, eventID)
			regResults[i] = result[[]platform.Registration]{val: regs, err: err}
		}(i, approved[i].ID)
		go func(i int, eventID string) {
			defer wg.Done()
			ch, err := api.ChannelByEvent(ctx, eventID)
			chResults[i] = result[*platform.Channel]{val: ch, err: err}
		}(i, approved[i].ID)
	}
	wg.Wait()

	for i, ev := range approved {
		j.RegistrationsByEvent[ev.ID] = orEmpty(regResults[i], log, "registrations", ev.ID, &j.Degraded)
		if ch := orEmpty(chResults[i], log, "channel", ev.ID, &j.Degraded); ch != nil {
			j.ChannelByEvent[ev.ID] = *ch
		}
	}

	// Wave two: posts, once per resolved channel.
	type channelRef struct {
		id     string
		global bool
	}
	var refs []channelRef
	if j.GlobalChannel != nil {
		refs = append(refs, channelRef{id: j.GlobalChannel.ID, global: true})
	}
	for _, ev := range approved {
		if ch, ok := j.ChannelByEvent[ev.ID]; ok {
			refs = append(refs, channelRef{id: ch.ID})
		}
	}

	postResults := make([]result[[]platform.Post], len(refs))
	for i := range refs {
		wg.Add(1)
		go func(i int, channelID string) {
			defer wg.Done()
			posts, err := api.ListPosts(ctx, channelID)
			postResults[i] = result[[]platform.Post]{val: posts, err: err}
		}(i, refs[i].id)
	}
	wg.Wait()

	for i, ref := range refs {
		posts := orEmpty(postResults[i], log, "posts", ref.id, &j.Degraded)
		j.PostsByChannel[ref.id] = posts
		if ref.global {
			j.GlobalPosts = posts
		}
	}

	return j
}

// EventPosts returns the posts of an event's channel, or nil when the
// event has no channel.
func (j *Joined) EventPosts(eventID string) []platform.Post {
	ch, ok := j.ChannelByEvent[eventID]
	if !ok {
		return nil
	}
	return j.PostsByChannel[ch.ID]
}
