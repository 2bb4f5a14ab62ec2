// Package platform binds the reconciler to a real Discord guild.
package platform

import (
	"context"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/rs/zerolog"
)

// Discord implements reconciler.Platform over the REST API for one guild.
type Discord struct {
	logger  zerolog.Logger
	session *discord.Session
	guildID discord.Snowflake
}

var _ reconciler.Platform = (*Discord)(nil)

func NewDiscord(logger zerolog.Logger, session *discord.Session, guildID discord.Snowflake) *Discord {
	return &Discord{
		logger:  logger,
		session: session,
		guildID: guildID,
	}
}

// GuildID returns the guild this platform is bound to.
func (d *Discord) GuildID() discord.Snowflake {
	return d.guildID
}

func (d *Discord) remoteRole(role discord.Role) reconciler.RemoteRole {
	return reconciler.RemoteRole{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: role.Permissions,
		Colour:      role.Color,
		Hoist:       role.Hoist,
		Mentionable: role.Mentionable,
		Managed:     role.Managed,
		Default:     role.ID == d.guildID,
	}
}

func roleParams(definition reconciler.RoleDefinition) discord.RoleParams {
	return discord.RoleParams{
		Name:        definition.Name,
		Permissions: definition.Permissions,
		Color:       definition.Colour,
		Hoist:       definition.Hoist,
		Mentionable: definition.Mentionable,
	}
}

func (d *Discord) ListRoles(ctx context.Context) ([]reconciler.RemoteRole, error) {
	roles, err := discord.GetGuildRoles(d.session.WithContext(ctx), d.guildID)
	if err != nil {
		return nil, err
	}

	remote := make([]reconciler.RemoteRole, 0, len(roles))
	for _, role := range roles {
		remote = append(remote, d.remoteRole(role))
	}

	d.logger.Debug().Int("count", len(remote)).Msg("Listed guild roles")

	return remote, nil
}

func (d *Discord) CreateRole(ctx context.Context, definition reconciler.RoleDefinition) (reconciler.RemoteRole, error) {
	role, err := discord.CreateGuildRole(d.session.WithContext(ctx), d.guildID, roleParams(definition))
	if err != nil {
		return reconciler.RemoteRole{}, err
	}

	return d.remoteRole(*role), nil
}

func (d *Discord) EditRole(ctx context.Context, id discord.Snowflake, definition reconciler.RoleDefinition) (reconciler.RemoteRole, error) {
	role, err := discord.ModifyGuildRole(d.session.WithContext(ctx), d.guildID, id, roleParams(definition))
	if err != nil {
		return reconciler.RemoteRole{}, err
	}

	return d.remoteRole(*role), nil
}

func (d *Discord) DeleteRole(ctx context.Context, id discord.Snowflake) error {
	return discord.DeleteGuildRole(d.session.WithContext(ctx), d.guildID, id)
}

func remoteChannel(channel discord.Channel) reconciler.RemoteChannel {
	remote := reconciler.RemoteChannel{
		ID:          channel.ID,
		Name:        channel.Name,
		Kind:        channel.Type,
		Topic:       channel.Topic,
		Permissions: reconciler.FromDiscordOverwrites(channel.PermissionOverwrites),
	}

	if channel.ParentID != nil && !channel.ParentID.IsNil() {
		parentID := *channel.ParentID
		remote.ParentID = &parentID
	}

	return remote
}

// topic returns the topic to send for a definition. Text channels always
// carry one so that clearing a topic is an edit like any other.
func topic(definition reconciler.ChannelDefinition) *string {
	if definition.Kind != discord.ChannelTypeGuildText {
		return nil
	}

	var value string
	if definition.Topic != nil {
		value = *definition.Topic
	}

	return &value
}

func (d *Discord) ListChannels(ctx context.Context) ([]reconciler.RemoteChannel, error) {
	channels, err := discord.GetGuildChannels(d.session.WithContext(ctx), d.guildID)
	if err != nil {
		return nil, err
	}

	remote := make([]reconciler.RemoteChannel, 0, len(channels))
	for _, channel := range channels {
		remote = append(remote, remoteChannel(channel))
	}

	d.logger.Debug().Int("count", len(remote)).Msg("Listed guild channels")

	return remote, nil
}

func (d *Discord) CreateChannel(ctx context.Context, definition reconciler.ChannelDefinition) (reconciler.RemoteChannel, error) {
	channel, err := discord.CreateGuildChannel(d.session.WithContext(ctx), d.guildID, discord.ChannelParams{
		ParentID:             definition.Category,
		Topic:                topic(definition),
		Name:                 definition.Name,
		PermissionOverwrites: reconciler.ToDiscordOverwrites(definition.Permissions),
		Type:                 definition.Kind,
	})
	if err != nil {
		return reconciler.RemoteChannel{}, err
	}

	return remoteChannel(*channel), nil
}

func (d *Discord) EditChannel(ctx context.Context, id discord.Snowflake, definition reconciler.ChannelDefinition) (reconciler.RemoteChannel, error) {
	channel, err := discord.ModifyChannel(d.session.WithContext(ctx), id, discord.ModifyChannelParams{
		ParentID:             definition.Category,
		Topic:                topic(definition),
		Name:                 definition.Name,
		PermissionOverwrites: reconciler.ToDiscordOverwrites(definition.Permissions),
	})
	if err != nil {
		return reconciler.RemoteChannel{}, err
	}

	return remoteChannel(*channel), nil
}

func (d *Discord) DeleteChannel(ctx context.Context, id discord.Snowflake) error {
	return discord.DeleteChannel(d.session.WithContext(ctx), id)
}
