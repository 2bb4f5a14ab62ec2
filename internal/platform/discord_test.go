package platform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGuildID discord.Snowflake = 10

func newTestPlatform(t *testing.T, handler http.HandlerFunc) *Discord {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restInterface := discord.NewInterface(server.Client(), zerolog.Nop(), server.URL, discord.APIVersion, discord.UserAgent)
	session := discord.NewSession(context.Background(), "Bot token", restInterface)

	return NewDiscord(zerolog.Nop(), session, testGuildID)
}

func TestListRolesMarksDefaultRole(t *testing.T) {
	t.Parallel()

	platform := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v10/guilds/10/roles", r.URL.Path)

		_, _ = io.WriteString(w, `[
			{"id":"10","name":"@everyone","permissions":"67108864"},
			{"id":"11","name":"bot","permissions":"0","managed":true},
			{"id":"12","name":"team-1","permissions":"0","hoist":true,"mentionable":true}
		]`)
	})

	roles, err := platform.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)

	assert.True(t, roles[0].Default)
	assert.True(t, roles[0].Protected())
	assert.True(t, roles[1].Managed)
	assert.False(t, roles[2].Protected())
	assert.Equal(t, reconciler.RemoteRole{ID: 12, Name: "team-1", Hoist: true, Mentionable: true}, roles[2])
}

func TestCreateRole(t *testing.T) {
	t.Parallel()

	platform := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.JSONEq(t, `{"name":"staff","permissions":"1024","color":14942278,"hoist":true,"mentionable":true}`, string(body))

		_, _ = io.WriteString(w, `{"id":"20","name":"staff","permissions":"1024","color":14942278,"hoist":true,"mentionable":true}`)
	})

	role, err := platform.CreateRole(context.Background(), reconciler.RoleDefinition{
		Name:        "staff",
		Permissions: discord.PermissionViewChannel,
		Colour:      14942278,
		Hoist:       true,
		Mentionable: true,
	})
	require.NoError(t, err)

	assert.Equal(t, discord.Snowflake(20), role.ID)
	assert.Equal(t, int32(14942278), role.Colour)
}

func TestListChannelsNormalisesParent(t *testing.T) {
	t.Parallel()

	platform := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":"30","name":"team-1","type":4,"parent_id":null,"permission_overwrites":[]},
			{"id":"31","name":"text","type":0,"parent_id":"30","topic":"hello","permission_overwrites":[{"id":"12","type":0,"allow":"1024","deny":"0"}]}
		]`)
	})

	channels, err := platform.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)

	assert.Nil(t, channels[0].ParentID)
	require.NotNil(t, channels[1].ParentID)
	assert.Equal(t, discord.Snowflake(30), *channels[1].ParentID)
	assert.Equal(t, "hello", channels[1].Topic)
	assert.Equal(t, []reconciler.PermissionOverwrite{
		{Allow: discord.PermissionViewChannel, Subject: 12, Kind: discord.ChannelOverrideTypeRole},
	}, channels[1].Permissions)
}

func TestCreateChannelSendsTopicForTextOnly(t *testing.T) {
	t.Parallel()

	var bodies []string

	platform := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		bodies = append(bodies, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"40","name":"x","type":0}`)
	})

	parent := discord.Snowflake(30)

	_, err := platform.CreateChannel(context.Background(), reconciler.ChannelDefinition{
		Name:     "text",
		Kind:     discord.ChannelTypeGuildText,
		Category: &parent,
	})
	require.NoError(t, err)

	_, err = platform.CreateChannel(context.Background(), reconciler.ChannelDefinition{
		Name:     "voice",
		Kind:     discord.ChannelTypeGuildVoice,
		Category: &parent,
	})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"parent_id":"30","topic":"","name":"text","permission_overwrites":[],"type":0}`, bodies[0])
	assert.JSONEq(t, `{"parent_id":"30","name":"voice","permission_overwrites":[],"type":2}`, bodies[1])
}

func TestEditAndDeleteChannel(t *testing.T) {
	t.Parallel()

	var requests []string

	platform := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)

		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		_, _ = io.WriteString(w, `{"id":"41","name":"text","type":0,"topic":"new"}`)
	})

	channel, err := platform.EditChannel(context.Background(), 41, reconciler.ChannelDefinition{
		Name: "text",
		Kind: discord.ChannelTypeGuildText,
	})
	require.NoError(t, err)
	assert.Equal(t, "new", channel.Topic)

	require.NoError(t, platform.DeleteChannel(context.Background(), 41))

	assert.Equal(t, []string{"PATCH /api/v10/channels/41", "DELETE /api/v10/channels/41"}, requests)
}

func TestRemoteErrorsPropagate(t *testing.T) {
	t.Parallel()

	platform := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"code":50013,"message":"Missing Permissions"}`)
	})

	err := platform.DeleteRole(context.Background(), 12)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, discord.StatusCode(err))
}
