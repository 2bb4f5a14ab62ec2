package bot

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/config"
	"github.com/ictsc/ictsc-discord-bot/internal/policy"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
)

// RoleDefinitions describes @everyone, the staff role and one role per team.
//
// @everyone keeps the presentation discord gives it so that the pass stays
// idempotent; only its permissions are managed.
func (b *Bot) RoleDefinitions() []reconciler.RoleDefinition {
	staff := b.configuration.Staff

	definitions := []reconciler.RoleDefinition{
		{
			Name:        reconciler.EveryoneRoleName,
			Permissions: policy.Everyone(),
		},
		{
			Name:        staff.RoleName,
			Permissions: policy.Staff(),
			Colour:      staff.Colour,
			Hoist:       true,
			Mentionable: true,
		},
	}

	for _, team := range b.configuration.Teams {
		definitions = append(definitions, reconciler.RoleDefinition{
			Name:        team.RoleName,
			Permissions: policy.Team(),
			Hoist:       true,
			Mentionable: true,
		})
	}

	return definitions
}

// CategoryDefinitions describes the staff category and one category per team.
// Team categories carry the team channel overwrites so that new children
// inherit them.
func (b *Bot) CategoryDefinitions(snapshot *reconciler.RoleSnapshot) ([]reconciler.ChannelDefinition, error) {
	definitions := []reconciler.ChannelDefinition{
		{
			Name: b.configuration.Staff.CategoryName,
			Kind: discord.ChannelTypeGuildCategory,
		},
	}

	for _, team := range b.configuration.Teams {
		overwrites, err := policy.TeamChannel(snapshot, team.RoleName, b.configuration.Staff.RoleName)
		if err != nil {
			return nil, err
		}

		definitions = append(definitions, reconciler.ChannelDefinition{
			Name:        team.RoleName,
			Kind:        discord.ChannelTypeGuildCategory,
			Permissions: overwrites,
		})
	}

	return definitions, nil
}

func (b *Bot) teamRoleNames() []string {
	names := make([]string, 0, len(b.configuration.Teams))
	for _, team := range b.configuration.Teams {
		names = append(names, team.RoleName)
	}

	return names
}

// LeafChannelDefinitions describes the text and voice channels. Category ids
// come from index, so the category pass must have run first.
func (b *Bot) LeafChannelDefinitions(snapshot *reconciler.RoleSnapshot, index *reconciler.CategoryIndex) ([]reconciler.ChannelDefinition, error) {
	channels := b.configuration.Channels
	teams := b.teamRoleNames()

	announce, err := policy.ReadOnlyChannel(snapshot, teams...)
	if err != nil {
		return nil, err
	}

	random, err := policy.ReadWriteChannel(snapshot, teams...)
	if err != nil {
		return nil, err
	}

	help, err := policy.EveryoneReadOnlyChannel(snapshot)
	if err != nil {
		return nil, err
	}

	staffCategory, err := index.Lookup(b.configuration.Staff.CategoryName)
	if err != nil {
		return nil, err
	}

	definitions := []reconciler.ChannelDefinition{
		{Name: channels.AnnounceName, Kind: discord.ChannelTypeGuildText, Permissions: announce},
		{Name: channels.RandomName, Kind: discord.ChannelTypeGuildText, Permissions: random},
		{Name: channels.HelpName, Kind: discord.ChannelTypeGuildText, Permissions: help},
		{Name: channels.TextName, Kind: discord.ChannelTypeGuildText, Category: &staffCategory},
		{Name: channels.VoiceName, Kind: discord.ChannelTypeGuildVoice, Category: &staffCategory},
	}

	for _, team := range b.configuration.Teams {
		category, err := index.Lookup(team.RoleName)
		if err != nil {
			return nil, err
		}

		overwrites, err := policy.TeamChannel(snapshot, team.RoleName, b.configuration.Staff.RoleName)
		if err != nil {
			return nil, err
		}

		text := reconciler.ChannelDefinition{
			Name:        channels.TextName,
			Kind:        discord.ChannelTypeGuildText,
			Category:    &category,
			Permissions: overwrites,
		}

		if channels.ConfigureTopics {
			topic, err := b.TeamTopic(team)
			if err != nil {
				return nil, err
			}

			text.Topic = &topic
		}

		definitions = append(definitions, text, reconciler.ChannelDefinition{
			Name:        channels.VoiceName,
			Kind:        discord.ChannelTypeGuildVoice,
			Category:    &category,
			Permissions: overwrites,
		})
	}

	return definitions, nil
}

type topicData struct {
	Team           config.Team
	ScoreServerURL string
}

// TeamTopic renders the topic of a team's text channel.
func (b *Bot) TeamTopic(team config.Team) (string, error) {
	var buf bytes.Buffer

	err := b.topic.Execute(&buf, topicData{
		Team:           team,
		ScoreServerURL: b.configuration.Channels.ScoreServerURL,
	})
	if err != nil {
		return "", fmt.Errorf("%w: team %s: %w", ErrInvalidTemplate, team.ID, err)
	}

	return strings.TrimSpace(buf.String()), nil
}
