package bot

import (
	"context"
	"testing"
	"time"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/config"
	"github.com/ictsc/ictsc-discord-bot/internal/policy"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNow() time.Time {
	return time.Date(2024, time.March, 2, 10, 0, 0, 0, time.UTC)
}

func countPrefix(requests []string, prefix string) int {
	count := 0

	for _, request := range requests {
		if len(request) >= len(prefix) && request[:len(prefix)] == prefix {
			count++
		}
	}

	return count
}

func TestRoleDefinitions(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)

	definitions := b.RoleDefinitions()
	require.Len(t, definitions, 4)

	assert.Equal(t, reconciler.RoleDefinition{Name: reconciler.EveryoneRoleName, Permissions: policy.Everyone()}, definitions[0])
	assert.Equal(t, reconciler.RoleDefinition{
		Name:        "staff",
		Permissions: policy.Staff(),
		Colour:      config.DefaultStaffRoleColour,
		Hoist:       true,
		Mentionable: true,
	}, definitions[1])

	for _, definition := range definitions[2:] {
		assert.True(t, definition.Hoist, definition.Name)
		assert.Equal(t, policy.Team(), definition.Permissions, definition.Name)
	}
}

func TestSyncConvergesFromEmptyGuild(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)

	require.NoError(t, b.Sync(context.Background()))

	mutations := b.discord.mutations()
	assert.Equal(t, 1, countPrefix(mutations, "PATCH /guilds/1000/roles/1000"))
	assert.Equal(t, 3, countPrefix(mutations, "POST /guilds/1000/roles"))
	assert.Equal(t, 12, countPrefix(mutations, "POST /guilds/1000/channels"))
	assert.Len(t, mutations, 16)

	assert.Len(t, b.discord.channelsOfType(discord.ChannelTypeGuildCategory), 3)
	assert.Len(t, b.discord.channelsOfType(discord.ChannelTypeGuildText), 6)
	assert.Len(t, b.discord.channelsOfType(discord.ChannelTypeGuildVoice), 3)

	require.NoError(t, b.Sync(context.Background()))
	assert.Empty(t, b.discord.mutations())
}

func TestSyncRepairsDuplicatedTeamChannel(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	require.NoError(t, b.Sync(context.Background()))
	b.discord.mutations()

	var teamText discord.Channel

	for _, channel := range b.discord.channelsOfType(discord.ChannelTypeGuildText) {
		if channel.ParentID != nil && channel.Topic != "" {
			teamText = channel

			break
		}
	}

	require.NotZero(t, teamText.ID)

	teamText.ID = 0
	duplicate := b.discord.addChannel(teamText)

	require.NoError(t, b.SyncChannels(context.Background()))

	mutations := b.discord.mutations()
	assert.Equal(t, 2, countPrefix(mutations, "DELETE /channels/"))
	assert.Equal(t, 1, countPrefix(mutations, "POST /guilds/1000/channels"))
	assert.Len(t, mutations, 3)

	_, ok := b.discord.channel(duplicate.ID)
	assert.False(t, ok)
}

func TestSyncRepairsDuplicatedTeamCategory(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	require.NoError(t, b.Sync(context.Background()))
	b.discord.mutations()

	name := b.configuration.Teams[0].RoleName

	var original discord.Channel

	for _, category := range b.discord.channelsOfType(discord.ChannelTypeGuildCategory) {
		if category.Name == name {
			original = category
		}
	}

	require.NotZero(t, original.ID)

	duplicate := original
	duplicate.ID = 0
	duplicate = b.discord.addChannel(duplicate)

	require.NoError(t, b.SyncChannels(context.Background()))

	mutations := b.discord.mutations()
	assert.Equal(t, "DELETE /channels/"+original.ID.String(), mutations[0])
	assert.Equal(t, "DELETE /channels/"+duplicate.ID.String(), mutations[1])
	assert.Equal(t, 4, countPrefix(mutations, "DELETE /channels/"))
	assert.Equal(t, 3, countPrefix(mutations, "POST /guilds/1000/channels"))
	assert.Len(t, mutations, 7)

	categories := b.discord.channelsOfType(discord.ChannelTypeGuildCategory)
	assert.Len(t, categories, 3)

	var replacement discord.Channel

	for _, category := range categories {
		if category.Name == name {
			replacement = category
		}
	}

	require.NotZero(t, replacement.ID)

	children := 0

	for _, kind := range []discord.ChannelType{discord.ChannelTypeGuildText, discord.ChannelTypeGuildVoice} {
		for _, channel := range b.discord.channelsOfType(kind) {
			if channel.ParentID != nil && *channel.ParentID == replacement.ID {
				children++
			}

			if channel.ParentID != nil {
				assert.NotEqual(t, original.ID, *channel.ParentID)
				assert.NotEqual(t, duplicate.ID, *channel.ParentID)
			}
		}
	}

	assert.Equal(t, 2, children)

	require.NoError(t, b.SyncChannels(context.Background()))
	assert.Empty(t, b.discord.mutations())

	assert.Len(t, b.discord.channelsOfType(discord.ChannelTypeGuildCategory), 3)
	assert.Len(t, b.discord.channelsOfType(discord.ChannelTypeGuildText), 6)
	assert.Len(t, b.discord.channelsOfType(discord.ChannelTypeGuildVoice), 3)
}

func TestLeafChannelsNeedCategoryPass(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	require.NoError(t, b.SyncRoles(context.Background()))

	snapshot, err := b.reconciler.Cache().Snapshot()
	require.NoError(t, err)

	_, err = b.LeafChannelDefinitions(snapshot, &reconciler.CategoryIndex{})
	assert.ErrorIs(t, err, reconciler.ErrNoSuchCategory)

	_, err = b.LeafChannelDefinitions(snapshot, nil)
	assert.ErrorIs(t, err, reconciler.ErrNoSuchCategory)
}

func TestSyncChannelsWithoutRolesFails(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)

	err := b.SyncChannels(context.Background())
	assert.ErrorIs(t, err, reconciler.ErrNoSuchRole)
	assert.Empty(t, b.discord.mutations())
}

func TestDeleteRolesAndChannels(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	require.NoError(t, b.Sync(context.Background()))
	b.discord.mutations()

	require.NoError(t, b.DeleteChannels(context.Background()))
	assert.Equal(t, 12, countPrefix(b.discord.mutations(), "DELETE /channels/"))

	require.NoError(t, b.DeleteRoles(context.Background()))
	assert.Equal(t, 3, countPrefix(b.discord.mutations(), "DELETE /guilds/1000/roles/"))

	roles, err := b.reconciler.Cache().Roles()
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.True(t, roles[0].Default)
}

func TestSyncRejectsConcurrentRuns(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)
	b.syncing.Store(true)

	assert.ErrorIs(t, b.Sync(context.Background()), ErrSyncInProgress)
	assert.ErrorIs(t, b.SyncRoles(context.Background()), ErrSyncInProgress)
	assert.Empty(t, b.discord.mutations())
}

func TestTeamTopic(t *testing.T) {
	t.Parallel()

	b := newTestBot(t)

	topic, err := b.TeamTopic(config.Team{ID: "1", RoleName: "team-a", InvitationCode: "A A", UserGroupID: "group-a"})
	require.NoError(t, err)

	assert.Contains(t, topic, "ホスト名：1.bastion.ictsc.net")
	assert.Contains(t, topic, "パスワード：A A")
	assert.Contains(t, topic, "https://contest.ictsc.net/signup?invitation_code=A+A&user_group_id=group-a")
}

func TestNewRejectsBrokenTemplate(t *testing.T) {
	t.Parallel()

	configuration := testConfiguration()
	configuration.Channels.TopicTemplate = "{{ .Team.ID "

	_, err := New(Options{Configuration: configuration})
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestNewRejectsBrokenPublicKey(t *testing.T) {
	t.Parallel()

	configuration := testConfiguration()
	configuration.Discord.PublicKey = "not-hex"

	_, err := New(Options{Configuration: configuration})
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}
