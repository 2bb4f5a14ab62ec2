// Package policy holds the permission policy of the event guild: the
// capabilities granted at role level and the overwrites composed for each
// kind of channel.
package policy

import (
	"fmt"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
)

const (
	// ReadOnlyChannelMember can read a public channel and react.
	ReadOnlyChannelMember = discord.PermissionViewChannel |
		discord.PermissionReadMessageHistory |
		discord.PermissionAddReactions

	// ChannelMember can also post in a public channel.
	ChannelMember = ReadOnlyChannelMember |
		discord.PermissionSendMessages |
		discord.PermissionEmbedLinks |
		discord.PermissionUseExternalEmojis |
		discord.PermissionUseExternalStickers

	// TeamChannelMember is granted to a team on its own channels.
	TeamChannelMember = ChannelMember |
		discord.PermissionVoiceStreamVideo |
		discord.PermissionAttachFiles |
		discord.PermissionVoiceConnect |
		discord.PermissionVoiceSpeak |
		discord.PermissionVoiceMuteMembers |
		discord.PermissionVoiceDeafenMembers |
		discord.PermissionVoiceUseVAD |
		discord.PermissionUseSlashCommands |
		discord.PermissionSendMessagesInThreads

	// StaffDeniedInTeamChannel keeps staff in threads and out of team voice channels.
	StaffDeniedInTeamChannel = discord.PermissionSendMessages | discord.PermissionVoiceConnect
)

// Everyone is what every member may do regardless of their roles.
func Everyone() discord.Int64 {
	return discord.PermissionChangeNickname
}

// Staff is everything but administrator.
func Staff() discord.Int64 {
	return discord.PermissionAll &^ discord.PermissionAdministrator
}

// Team grants nothing at role level. Team members only get access through
// channel overwrites.
func Team() discord.Int64 {
	return discord.PermissionNone
}

func allow(subject discord.Snowflake, permissions discord.Int64) reconciler.PermissionOverwrite {
	return reconciler.PermissionOverwrite{
		Allow:   permissions,
		Subject: subject,
		Kind:    discord.ChannelOverrideTypeRole,
	}
}

func deny(subject discord.Snowflake, permissions discord.Int64) reconciler.PermissionOverwrite {
	return reconciler.PermissionOverwrite{
		Deny:    permissions,
		Subject: subject,
		Kind:    discord.ChannelOverrideTypeRole,
	}
}

func lookupAll(snapshot *reconciler.RoleSnapshot, names []string) ([]discord.Snowflake, error) {
	ids := make([]discord.Snowflake, 0, len(names))

	for _, name := range names {
		id, err := snapshot.Lookup(name)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func grant(snapshot *reconciler.RoleSnapshot, names []string, permissions discord.Int64) ([]reconciler.PermissionOverwrite, error) {
	ids, err := lookupAll(snapshot, names)
	if err != nil {
		return nil, err
	}

	overwrites := make([]reconciler.PermissionOverwrite, 0, len(ids))
	for _, id := range ids {
		overwrites = append(overwrites, allow(id, permissions))
	}

	return overwrites, nil
}

// ReadOnlyChannel lets the named roles read a public channel.
func ReadOnlyChannel(snapshot *reconciler.RoleSnapshot, roleNames ...string) ([]reconciler.PermissionOverwrite, error) {
	return grant(snapshot, roleNames, ReadOnlyChannelMember)
}

// ReadWriteChannel lets the named roles read and post in a public channel.
func ReadWriteChannel(snapshot *reconciler.RoleSnapshot, roleNames ...string) ([]reconciler.PermissionOverwrite, error) {
	return grant(snapshot, roleNames, ChannelMember)
}

// EveryoneReadOnlyChannel opens a channel to every member of the guild.
func EveryoneReadOnlyChannel(snapshot *reconciler.RoleSnapshot) ([]reconciler.PermissionOverwrite, error) {
	everyone, err := snapshot.Everyone()
	if err != nil {
		return nil, err
	}

	return []reconciler.PermissionOverwrite{allow(everyone, ReadOnlyChannelMember)}, nil
}

// TeamChannel opens a channel to one team and keeps staff from posting or
// joining voice in it.
func TeamChannel(snapshot *reconciler.RoleSnapshot, teamRoleName, staffRoleName string) ([]reconciler.PermissionOverwrite, error) {
	staff, err := snapshot.Lookup(staffRoleName)
	if err != nil {
		return nil, fmt.Errorf("failed to compose team channel overwrites: %w", err)
	}

	team, err := snapshot.Lookup(teamRoleName)
	if err != nil {
		return nil, fmt.Errorf("failed to compose team channel overwrites: %w", err)
	}

	return []reconciler.PermissionOverwrite{
		deny(staff, StaffDeniedInTeamChannel),
		allow(team, TeamChannelMember),
	}, nil
}
