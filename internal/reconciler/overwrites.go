package reconciler

import (
	"github.com/ictsc/ictsc-discord-bot/discord"
)

// OverwritesEqual reports whether two overwrite lists describe the same set.
// Order and repetition are ignored: each list must be a subset of the other.
func OverwritesEqual(a, b []PermissionOverwrite) bool {
	return overwritesSubset(a, b) && overwritesSubset(b, a)
}

func overwritesSubset(a, b []PermissionOverwrite) bool {
	set := make(map[PermissionOverwrite]struct{}, len(b))
	for _, overwrite := range b {
		set[overwrite] = struct{}{}
	}

	for _, overwrite := range a {
		if _, ok := set[overwrite]; !ok {
			return false
		}
	}

	return true
}

// ToDiscordOverwrites converts overwrites to their wire form.
func ToDiscordOverwrites(overwrites []PermissionOverwrite) discord.ChannelOverwriteList {
	result := make(discord.ChannelOverwriteList, 0, len(overwrites))

	for _, overwrite := range overwrites {
		result = append(result, discord.ChannelOverwrite{
			Type:  overwrite.Kind,
			ID:    overwrite.Subject,
			Allow: overwrite.Allow,
			Deny:  overwrite.Deny,
		})
	}

	return result
}

// FromDiscordOverwrites converts wire overwrites to their comparable form.
func FromDiscordOverwrites(overwrites []discord.ChannelOverwrite) []PermissionOverwrite {
	result := make([]PermissionOverwrite, 0, len(overwrites))

	for _, overwrite := range overwrites {
		result = append(result, PermissionOverwrite{
			Allow:   overwrite.Allow,
			Deny:    overwrite.Deny,
			Subject: overwrite.ID,
			Kind:    overwrite.Type,
		})
	}

	return result
}
