package reconciler

import (
	"context"

	"github.com/ictsc/ictsc-discord-bot/discord"
)

// RoleClient manages the roles of a single guild.
type RoleClient interface {
	ListRoles(ctx context.Context) ([]RemoteRole, error)
	CreateRole(ctx context.Context, definition RoleDefinition) (RemoteRole, error)
	EditRole(ctx context.Context, id discord.Snowflake, definition RoleDefinition) (RemoteRole, error)
	DeleteRole(ctx context.Context, id discord.Snowflake) error
}

// ChannelClient manages the channels of a single guild.
type ChannelClient interface {
	ListChannels(ctx context.Context) ([]RemoteChannel, error)
	CreateChannel(ctx context.Context, definition ChannelDefinition) (RemoteChannel, error)
	EditChannel(ctx context.Context, id discord.Snowflake, definition ChannelDefinition) (RemoteChannel, error)
	DeleteChannel(ctx context.Context, id discord.Snowflake) error
}

// Platform is the remote side of every pass. Implementations are bound to one guild.
type Platform interface {
	RoleClient
	ChannelClient
}
