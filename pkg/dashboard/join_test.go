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

func TestBuildJoinedZipsResultsByEvent(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	approved := []platform.Event{api.events[0], api.events[1]}

	j := BuildJoined(context.Background(), api, zerolog.Nop(), approved, api.channels)

	assert.Len(t, j.RegistrationsByEvent["e1"], 4)
	assert.Len(t, j.RegistrationsByEvent["e2"], 1)
	assert.Equal(t, "c1", j.ChannelByEvent["e1"].ID)
	assert.Equal(t, "c2", j.ChannelByEvent["e2"].ID)
	assert.Len(t, j.EventPosts("e1"), 2)
	assert.Empty(t, j.EventPosts("e2"))

	require.NotNil(t, j.GlobalChannel)
	assert.Equal(t, "cg", j.GlobalChannel.ID)
	assert.Len(t, j.GlobalPosts, 1)
	assert.Zero(t, j.Degraded)
}

func TestBuildJoinedIsolatesFailures(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	api.regErr["e1"] = errors.New("boom")
	api.postErr["cg"] = errors.New("boom")
	approved := []platform.Event{api.events[0], api.events[1]}

	j := BuildJoined(context.Background(), api, zerolog.Nop(), approved, api.channels)

	assert.Empty(t, j.RegistrationsByEvent["e1"])
	assert.Len(t, j.RegistrationsByEvent["e2"], 1, "other events unaffected")
	assert.Empty(t, j.GlobalPosts)
	assert.Len(t, j.EventPosts("e1"), 2, "other channels unaffected")
	assert.Equal(t, 2, j.Degraded)
}

func TestBuildJoinedChannellessEventContributesNoPosts(t *testing.T) {
	now := time.Now()
	api := testAPI(now)
	delete(api.chanByEv, "e2")
	approved := []platform.Event{api.events[0], api.events[1]}

	j := BuildJoined(context.Background(), api, zerolog.Nop(), approved, api.channels)

	_, ok := j.ChannelByEvent["e2"]
	assert.False(t, ok)
	assert.Nil(t, j.EventPosts("e2"))
	assert.Zero(t, j.Degraded, "a missing channel is not a failure")
}
