package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/config"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/ictsc/ictsc-discord-bot/internal/services/redeploy"
)

const (
	customIDRedeployConfirm = "redeploy_confirm"
	customIDRedeployCancel  = "redeploy_canceled"

	// interactionTimeout keeps synchronous work within discord's three second window.
	interactionTimeout = 2 * time.Second
)

// pendingRedeploy is a /redeploy waiting for its confirm or cancel button.
type pendingRedeploy struct {
	target    redeploy.Target
	team      config.Team
	problem   config.Problem
	userID    discord.Snowflake
	expiresAt time.Time
}

func (p *pendingRedeploy) prompt() string {
	return fmt.Sprintf(messageRedeployConfirm, p.team.RoleName, p.problem.Name)
}

func redeployButtons(nonce string, disabled bool) []discord.InteractionComponent {
	confirm := discord.NewInteractionComponent(discord.InteractionComponentTypeButton).
		SetCustomID(customIDRedeployConfirm + ":" + nonce).
		SetLabel("OK").
		SetStyle(discord.InteractionComponentStyleSuccess)
	confirm.Disabled = disabled

	cancel := discord.NewInteractionComponent(discord.InteractionComponentTypeButton).
		SetCustomID(customIDRedeployCancel + ":" + nonce).
		SetLabel("キャンセル").
		SetStyle(discord.InteractionComponentStyleSecondary)
	cancel.Disabled = disabled

	row := discord.NewInteractionComponent(discord.InteractionComponentTypeActionRow).
		AddComponent(*confirm).
		AddComponent(*cancel)

	return []discord.InteractionComponent{*row}
}

// memberTeams returns the teams whose role is in roles.
func (b *Bot) memberTeams(snapshot *reconciler.RoleSnapshot, roles discord.SnowflakeList) []config.Team {
	held := make(map[discord.Snowflake]bool, len(roles))
	for _, id := range roles {
		held[id] = true
	}

	var teams []config.Team

	for _, team := range b.configuration.Teams {
		id, err := snapshot.Lookup(team.RoleName)
		if err == nil && held[id] {
			teams = append(teams, team)
		}
	}

	return teams
}

// senderTeam resolves the single team of the member who invoked interaction.
func (b *Bot) senderTeam(interaction *discord.Interaction) (config.Team, error) {
	if interaction.Member == nil {
		return config.Team{}, userError(messageGuildOnly)
	}

	ctx, cancel := context.WithTimeout(b.ctx, interactionTimeout)
	defer cancel()

	snapshot, err := b.roles(ctx)
	if err != nil {
		return config.Team{}, err
	}

	teams := b.memberTeams(snapshot, interaction.Member.Roles)
	if len(teams) != 1 {
		return config.Team{}, userErrorf(fmt.Errorf("member holds %d team roles", len(teams)), messageUnexpectedErrorContact)
	}

	return teams[0], nil
}

func (b *Bot) handleRedeploy(interaction *discord.Interaction) (*discord.InteractionResponse, error) {
	code, _ := interaction.Data.StringOption("problem_code")
	code = NormaliseInput(code)

	problem, ok := b.configuration.ProblemByCode(code)
	if !ok {
		return nil, userErrorf(nil, messageInvalidProblemCode, code)
	}

	team, err := b.senderTeam(interaction)
	if err != nil {
		return nil, err
	}

	user := interaction.Caller()
	if user == nil {
		return nil, fmt.Errorf("%w: interaction has no user", ErrUnknownCommand)
	}

	nonce := uuid.NewString()
	pending := &pendingRedeploy{
		target: redeploy.Target{
			TeamID:      team.ID,
			ProblemCode: problem.Code,
		},
		team:      team,
		problem:   problem,
		userID:    user.ID,
		expiresAt: b.now().Add(b.confirmationTimeout),
	}

	b.pending.Store(nonce, pending)

	b.spawn(func(ctx context.Context) {
		b.expireRedeploy(ctx, interaction, nonce)
	})

	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeChannelMessageSource,
		Data: &discord.InteractionCallbackData{
			Content:    pending.prompt(),
			Components: redeployButtons(nonce, false),
		},
	}, nil
}

// expireRedeploy disables the buttons once the confirmation timed out unanswered.
func (b *Bot) expireRedeploy(ctx context.Context, interaction *discord.Interaction, nonce string) {
	timer := time.NewTimer(b.confirmationTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	pending, ok := b.pending.LoadAndDelete(nonce)
	if !ok {
		return
	}

	components := redeployButtons(nonce, true)

	_, err := discord.EditOriginalInteractionResponse(b.session.WithContext(ctx), interaction.ApplicationID, interaction.Token, discord.MessageParams{
		Content:    pending.prompt(),
		Components: &components,
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("nonce", nonce).Msg("Failed to disable redeploy buttons")
	}
}

// SweepPendingRedeploys forgets confirmations whose expiry was never processed.
// Entries get one extra timeout of grace so that expireRedeploy can still
// disable their buttons.
func (b *Bot) SweepPendingRedeploys() int {
	now := b.now()

	return b.pending.DeleteFunc(func(_ string, pending *pendingRedeploy) bool {
		return now.After(pending.expiresAt.Add(b.confirmationTimeout))
	})
}

// claimRedeploy removes the confirmation for nonce when interaction may answer it.
func (b *Bot) claimRedeploy(interaction *discord.Interaction, nonce string) (*pendingRedeploy, error) {
	pending, ok := b.pending.Load(nonce)
	if !ok {
		return nil, userError(messageRedeployExpired)
	}

	if callerID(interaction) != pending.userID.String() {
		return nil, userError(messageRedeployNotYours)
	}

	pending, ok = b.pending.LoadAndDelete(nonce)
	if !ok || b.now().After(pending.expiresAt) {
		return nil, userError(messageRedeployExpired)
	}

	return pending, nil
}

func (b *Bot) handleRedeployCancel(interaction *discord.Interaction, nonce string) (*discord.InteractionResponse, error) {
	_, err := b.claimRedeploy(interaction, nonce)
	if err != nil {
		return nil, err
	}

	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeUpdateMessage,
		Data: &discord.InteractionCallbackData{
			Content:    messageRedeployCanceled,
			Components: redeployButtons(nonce, true),
		},
	}, nil
}

func (b *Bot) handleRedeployConfirm(interaction *discord.Interaction, nonce string) (*discord.InteractionResponse, error) {
	pending, err := b.claimRedeploy(interaction, nonce)
	if err != nil {
		return nil, err
	}

	b.background(func(ctx context.Context) {
		content := b.runRedeploy(ctx, pending)
		components := redeployButtons(nonce, true)

		_, err := discord.EditOriginalInteractionResponse(b.session.WithContext(ctx), interaction.ApplicationID, interaction.Token, discord.MessageParams{
			Content:    content,
			Components: &components,
		})
		if err != nil {
			b.logger.Warn().Err(err).Str("nonce", nonce).Msg("Failed to edit redeploy response")
		}
	})

	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeDeferredUpdateMessage,
	}, nil
}

// runRedeploy requests the redeploy, announces it and returns the message for the requester.
func (b *Bot) runRedeploy(ctx context.Context, pending *pendingRedeploy) string {
	job, err := b.redeploy.Redeploy(ctx, pending.target)

	recordRedeploy(pending.target.ProblemCode, err)

	notifyErr := b.notifier.Notify(ctx, pending.target, job, err)
	if notifyErr != nil {
		b.logger.Warn().Err(notifyErr).Msg("Failed to notify redeploy")
	}

	if err != nil {
		b.logger.Error().
			Err(err).
			Str("team_id", pending.target.TeamID).
			Str("problem_code", pending.target.ProblemCode).
			Msg("Failed to redeploy")

		if errors.Is(err, redeploy.ErrAnotherJobInQueue) {
			return fmt.Sprintf(messageRedeployQueued, pending.problem.Name)
		}

		return messageRedeployFailed
	}

	b.logger.Info().
		Str("job_id", job.ID).
		Str("team_id", pending.target.TeamID).
		Str("problem_code", pending.target.ProblemCode).
		Msg("Started redeploy")

	return messageRedeployStarted
}

func (b *Bot) handleStatus(interaction *discord.Interaction) (*discord.InteractionResponse, error) {
	team, err := b.senderTeam(interaction)
	if err != nil {
		return nil, err
	}

	b.followUp(interaction, CommandStatus, func(ctx context.Context) (string, error) {
		statuses, err := b.redeploy.Status(ctx, team.ID)
		if err != nil {
			return "", err
		}

		return b.renderStatus(team, statuses), nil
	})

	return deferredEphemeral(), nil
}

func (b *Bot) renderStatus(team config.Team, statuses []redeploy.Status) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(messageStatusHeader, team.RoleName))

	for _, status := range statuses {
		name := status.ProblemCode
		if problem, ok := b.configuration.ProblemByCode(status.ProblemCode); ok {
			name = problem.Name
		}

		state := messageStatusIdle
		if status.Redeploying {
			state = messageStatusRedeploying
		}

		sb.WriteString(fmt.Sprintf("\n- `%s` %s: %s", status.ProblemCode, name, state))

		switch {
		case status.LastCompletedAt != nil:
			sb.WriteString(" (" + status.LastCompletedAt.Local().Format(time.DateTime) + ")")
		case status.LastStartedAt == nil:
			sb.WriteString(" (" + messageStatusNever + ")")
		}
	}

	return sb.String()
}
