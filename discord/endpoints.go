package discord

// endpoints.go lists the REST routes used by the bot. Values are formatted
// with snowflake strings.

const (
	EndpointGuildRoles = "/guilds/%s/roles"
	EndpointGuildRole  = "/guilds/%s/roles/%s"

	EndpointGuildChannels = "/guilds/%s/channels"
	EndpointChannel       = "/channels/%s"

	EndpointGuildMember     = "/guilds/%s/members/%s"
	EndpointGuildMemberRole = "/guilds/%s/members/%s/roles/%s"

	EndpointChannelMessages     = "/channels/%s/messages"
	EndpointMessageThreads      = "/channels/%s/messages/%s/threads"
	EndpointInteractionCallback = "/interactions/%s/%s/callback"
	EndpointOriginalResponse    = "/webhooks/%s/%s/messages/@original"
	EndpointInteractionFollowup = "/webhooks/%s/%s"
	EndpointGlobalCommands      = "/applications/%s/commands"
	EndpointGlobalCommand       = "/applications/%s/commands/%s"
	EndpointGuildCommands       = "/applications/%s/guilds/%s/commands"
	EndpointGuildCommand        = "/applications/%s/guilds/%s/commands/%s"
)
