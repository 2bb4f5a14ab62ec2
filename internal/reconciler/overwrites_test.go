package reconciler

import (
	"testing"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/stretchr/testify/assert"
)

func TestOverwritesEqual(t *testing.T) {
	everyone := PermissionOverwrite{Subject: 1, Kind: discord.ChannelOverrideTypeRole, Deny: discord.PermissionViewChannel}
	staff := PermissionOverwrite{Subject: 2, Kind: discord.ChannelOverrideTypeRole, Allow: discord.PermissionViewChannel}
	member := PermissionOverwrite{Subject: 2, Kind: discord.ChannelOverrideTypeMember, Allow: discord.PermissionViewChannel}

	assert.True(t, OverwritesEqual(nil, []PermissionOverwrite{}))
	assert.True(t, OverwritesEqual([]PermissionOverwrite{everyone, staff}, []PermissionOverwrite{staff, everyone}))
	assert.True(t, OverwritesEqual([]PermissionOverwrite{everyone, everyone}, []PermissionOverwrite{everyone}))

	assert.False(t, OverwritesEqual([]PermissionOverwrite{everyone}, []PermissionOverwrite{everyone, staff}))
	assert.False(t, OverwritesEqual([]PermissionOverwrite{staff}, []PermissionOverwrite{member}))

	denied := staff
	denied.Deny = discord.PermissionSendMessages
	assert.False(t, OverwritesEqual([]PermissionOverwrite{staff}, []PermissionOverwrite{denied}))
}

func TestDiscordOverwrites(t *testing.T) {
	overwrites := []PermissionOverwrite{
		{Subject: 1, Kind: discord.ChannelOverrideTypeRole, Deny: discord.PermissionViewChannel},
		{Subject: 7, Kind: discord.ChannelOverrideTypeMember, Allow: discord.PermissionSendMessages},
	}

	wire := ToDiscordOverwrites(overwrites)
	assert.Equal(t, discord.ChannelOverwrite{Type: discord.ChannelOverrideTypeMember, ID: 7, Allow: discord.PermissionSendMessages}, wire[1])
	assert.Equal(t, overwrites, FromDiscordOverwrites(wire))
}
