package discord_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) *discord.Session {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	restInterface := discord.NewInterface(server.Client(), zerolog.Nop(), server.URL, discord.APIVersion, discord.UserAgent)

	return discord.NewSession(context.Background(), "Bot token", restInterface)
}

func TestGetGuildRoles(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v10/guilds/10/roles", r.URL.Path)
		assert.Equal(t, "Bot token", r.Header.Get("Authorization"))

		_, _ = io.WriteString(w, `[{"id":"10","name":"@everyone","permissions":"67108864","managed":false},{"id":"11","name":"staff","permissions":"1024","color":14942278,"hoist":true,"mentionable":true}]`)
	})

	roles, err := discord.GetGuildRoles(session, 10)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	assert.Equal(t, discord.Snowflake(10), roles[0].ID)
	assert.Equal(t, discord.PermissionChangeNickname, roles[0].Permissions)
	assert.Equal(t, "staff", roles[1].Name)
	assert.Equal(t, int32(14942278), roles[1].Color)
	assert.True(t, roles[1].Hoist)
}

func TestCreateGuildChannelPayload(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v10/guilds/1/channels", r.URL.Path)
		assert.JSONEq(t, `{"parent_id":"5","name":"text","permission_overwrites":[],"type":0}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"99","name":"text","type":0,"parent_id":"5","permission_overwrites":[]}`)
	})

	parent := discord.Snowflake(5)

	channel, err := discord.CreateGuildChannel(session, 1, discord.ChannelParams{
		Name:     "text",
		Type:     discord.ChannelTypeGuildText,
		ParentID: &parent,
	})
	require.NoError(t, err)

	assert.Equal(t, discord.Snowflake(99), channel.ID)
	require.NotNil(t, channel.ParentID)
	assert.Equal(t, parent, *channel.ParentID)
}

func TestRestErrorIsReturned(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Missing Permissions","code":50013}`)
	})

	err := discord.DeleteGuildRole(session, 1, 2)
	require.Error(t, err)

	var restError *discord.RestError
	require.True(t, errors.As(err, &restError))
	assert.Equal(t, "Missing Permissions", restError.Message.Message)
	assert.Equal(t, int32(50013), restError.Message.Code)
	assert.Equal(t, http.StatusForbidden, discord.StatusCode(err))
}

func TestUnauthorized(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := discord.GetGuildChannels(session, 1)
	assert.ErrorIs(t, err, discord.ErrUnauthorized)
}

func TestExecuteWebhookURLKeepsPath(t *testing.T) {
	t.Parallel()

	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/webhooks/123/secret", r.URL.Path)
		assert.Equal(t, "wait=true", r.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	})

	err := discord.ExecuteWebhookURL(session, "https://discord.com/api/webhooks/123/secret?wait=true", discord.WebhookMessageParams{
		Content: "hello",
	})
	assert.NoError(t, err)
}

func TestPermissionAllExcludesNothing(t *testing.T) {
	t.Parallel()

	assert.True(t, discord.PermissionAll.Has(discord.PermissionAdministrator))
	assert.True(t, discord.PermissionAll.Has(discord.PermissionSendVoiceMessages))
	assert.True(t, discord.PermissionAll.Has(discord.PermissionCreateInstantInvite))
	assert.False(t, (discord.PermissionAll &^ discord.PermissionAdministrator).Has(discord.PermissionAdministrator))
}
