package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/ictsc/ictsc-discord-bot/internal/services/contestant"
	"golang.org/x/text/width"
)

func (b *Bot) handlePing(_ *discord.Interaction) (*discord.InteractionResponse, error) {
	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeChannelMessageSource,
		Data: &discord.InteractionCallbackData{
			Content: messagePong,
		},
	}, nil
}

// NormaliseInput trims a command option and folds full-width characters typed through IMEs into their ASCII forms.
func NormaliseInput(code string) string {
	return width.Fold.String(strings.TrimSpace(code))
}

// roleForInvitationCode resolves the staff password or a team invitation code to a role name.
func (b *Bot) roleForInvitationCode(code string) (string, bool) {
	if code == b.configuration.Staff.Password {
		return b.configuration.Staff.RoleName, true
	}

	team, ok := b.configuration.TeamByInvitationCode(code)
	if !ok {
		return "", false
	}

	return team.RoleName, true
}

func (b *Bot) handleJoin(interaction *discord.Interaction) (*discord.InteractionResponse, error) {
	if !interaction.InDM() {
		return nil, userError(messageDMOnly)
	}

	raw, _ := interaction.Data.StringOption("invitation_code")
	code := NormaliseInput(raw)

	roleName, ok := b.roleForInvitationCode(code)
	if !ok {
		return nil, userErrorf(nil, messageInvalidInvitationCode, raw)
	}

	user := interaction.Caller()
	if user == nil {
		return nil, fmt.Errorf("%w: interaction has no user", ErrUnknownCommand)
	}

	b.followUp(interaction, CommandJoin, func(ctx context.Context) (string, error) {
		err := b.assignRole(ctx, user.ID, roleName)
		if err != nil {
			return "", err
		}

		b.logger.Info().
			Str("user_id", user.ID.String()).
			Str("username", user.Username).
			Str("role", roleName).
			Msg("Member joined a team")

		return fmt.Sprintf(messageJoined, roleName), nil
	})

	return deferredEphemeral(), nil
}

func (b *Bot) handleSync(interaction *discord.Interaction) (*discord.InteractionResponse, error) {
	if !interaction.InDM() {
		return nil, userError(messageDMOnly)
	}

	user := interaction.Caller()
	if user == nil {
		return nil, fmt.Errorf("%w: interaction has no user", ErrUnknownCommand)
	}

	b.followUp(interaction, CommandSync, func(ctx context.Context) (string, error) {
		found, err := b.contestants.Contestant(ctx, user.ID.String())
		if errors.Is(err, contestant.ErrNotFound) {
			return "", userErrorf(err, messageTeamRoleNotFound)
		}

		if err != nil {
			return "", err
		}

		team, ok := b.configuration.TeamByID(found.Team.Code)
		if !ok {
			return "", userErrorf(fmt.Errorf("no team with id %q", found.Team.Code), messageTeamRoleNotFound)
		}

		err = b.assignRole(ctx, user.ID, team.RoleName)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf(messageSynced, team.RoleName), nil
	})

	return deferredEphemeral(), nil
}

// managedRoleIDs returns the ids of the staff and team roles. Other roles a
// member holds are never touched.
func (b *Bot) managedRoleIDs(snapshot *reconciler.RoleSnapshot) map[discord.Snowflake]string {
	ids := make(map[discord.Snowflake]string, len(b.configuration.Teams)+1)

	names := append([]string{b.configuration.Staff.RoleName}, b.teamRoleNames()...)
	for _, name := range names {
		id, err := snapshot.Lookup(name)
		if err == nil {
			ids[id] = name
		}
	}

	return ids
}

// assignRole grants roleName to the member and revokes every other staff or team role they hold.
func (b *Bot) assignRole(ctx context.Context, userID discord.Snowflake, roleName string) error {
	snapshot, err := b.roles(ctx)
	if err != nil {
		return err
	}

	target, err := snapshot.Lookup(roleName)
	if err != nil {
		return err
	}

	session := b.session.WithContext(ctx)

	member, err := discord.GetGuildMember(session, b.guildID, userID)
	if discord.StatusCode(err) == http.StatusNotFound {
		return userErrorf(err, messageNotInGuild)
	}

	if err != nil {
		return err
	}

	if !member.HasRole(target) {
		err = discord.AddGuildMemberRole(session, b.guildID, userID, target)
		if err != nil {
			return err
		}
	}

	managed := b.managedRoleIDs(snapshot)

	for _, roleID := range member.Roles {
		name, ok := managed[roleID]
		if !ok || roleID == target {
			continue
		}

		err = discord.RemoveGuildMemberRole(session, b.guildID, userID, roleID)
		if err != nil {
			return err
		}

		b.logger.Debug().
			Str("user_id", userID.String()).
			Str("role", name).
			Msg("Revoked role")
	}

	return nil
}
