package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ictsc/ictsc-discord-bot/discord"
)

type commandHandler func(b *Bot, interaction *discord.Interaction) (*discord.InteractionResponse, error)

var commandHandlers = map[string]commandHandler{
	CommandPing:     (*Bot).handlePing,
	CommandJoin:     (*Bot).handleJoin,
	CommandSync:     (*Bot).handleSync,
	CommandAsk:      (*Bot).handleAsk,
	CommandArchive:  (*Bot).handleArchive,
	CommandRedeploy: (*Bot).handleRedeploy,
	CommandStatus:   (*Bot).handleStatus,
}

// HandleInteraction answers a single interaction. The returned response is
// written back inline; slow work continues in the background and edits it.
func (b *Bot) HandleInteraction(interaction *discord.Interaction) *discord.InteractionResponse {
	switch interaction.Type {
	case discord.InteractionTypePing:
		return &discord.InteractionResponse{Type: discord.InteractionCallbackTypePong}
	case discord.InteractionTypeApplicationCommand:
		return b.handleApplicationCommand(interaction)
	case discord.InteractionTypeMessageComponent:
		return b.handleComponent(interaction)
	default:
		b.logger.Warn().Uint16("type", uint16(interaction.Type)).Msg("Received unsupported interaction type")

		return ephemeral(messageUnexpectedError)
	}
}

func (b *Bot) handleApplicationCommand(interaction *discord.Interaction) *discord.InteractionResponse {
	if interaction.Data == nil {
		return b.respondError(interaction, "", ErrUnknownCommand)
	}

	name := interaction.Data.Name

	handler, ok := commandHandlers[name]
	if !ok || b.configuration.CommandDisabled(name) {
		return b.respondError(interaction, name, fmt.Errorf("%w: %s", ErrUnknownCommand, name))
	}

	b.logger.Debug().
		Str("command", name).
		Str("interaction_id", interaction.ID.String()).
		Str("user_id", callerID(interaction)).
		Msg("Handling command")

	response, err := handler(b, interaction)
	if err != nil {
		return b.respondError(interaction, name, err)
	}

	recordInteraction(name, "success")

	return response
}

func (b *Bot) handleComponent(interaction *discord.Interaction) *discord.InteractionResponse {
	if interaction.Data == nil {
		return b.respondError(interaction, "", ErrUnknownCommand)
	}

	action, nonce, _ := strings.Cut(interaction.Data.CustomID, ":")

	var (
		response *discord.InteractionResponse
		err      error
	)

	switch action {
	case customIDRedeployConfirm:
		response, err = b.handleRedeployConfirm(interaction, nonce)
	case customIDRedeployCancel:
		response, err = b.handleRedeployCancel(interaction, nonce)
	default:
		err = fmt.Errorf("%w: component %s", ErrUnknownCommand, interaction.Data.CustomID)
	}

	if err != nil {
		return b.respondError(interaction, action, err)
	}

	recordInteraction(action, "success")

	return response
}

// respondError turns err into an ephemeral reply. Only UserError messages reach the user.
func (b *Bot) respondError(interaction *discord.Interaction, command string, err error) *discord.InteractionResponse {
	var userErr *UserError
	if errors.As(err, &userErr) {
		recordInteraction(command, "rejected")

		b.logger.Debug().Err(err).Str("command", command).Msg("Rejected command")

		return ephemeral(userErr.Message)
	}

	recordInteraction(command, "failure")

	b.logger.Error().
		Err(err).
		Str("command", command).
		Str("interaction_id", interaction.ID.String()).
		Msg("Failed to handle interaction")

	return ephemeral(b.unexpectedError(interaction))
}

func (b *Bot) unexpectedError(interaction *discord.Interaction) string {
	return fmt.Sprintf("%s (%s)", messageUnexpectedError, interaction.ID)
}

// followUp edits the deferred response with the outcome of fn.
func (b *Bot) followUp(interaction *discord.Interaction, command string, fn func(ctx context.Context) (string, error)) {
	b.background(func(ctx context.Context) {
		content, err := fn(ctx)
		if err != nil {
			var userErr *UserError
			if errors.As(err, &userErr) {
				recordInteraction(command, "rejected")

				content = userErr.Message
			} else {
				recordInteraction(command, "failure")

				b.logger.Error().
					Err(err).
					Str("command", command).
					Str("interaction_id", interaction.ID.String()).
					Msg("Failed to complete command")

				content = b.unexpectedError(interaction)
			}
		}

		_, err = discord.EditOriginalInteractionResponse(b.session.WithContext(ctx), interaction.ApplicationID, interaction.Token, discord.MessageParams{
			Content: content,
		})
		if err != nil {
			b.logger.Warn().Err(err).Str("command", command).Msg("Failed to edit interaction response")
		}
	})
}

func callerID(interaction *discord.Interaction) string {
	user := interaction.Caller()
	if user == nil {
		return ""
	}

	return user.ID.String()
}

func ephemeral(content string) *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeChannelMessageSource,
		Data: &discord.InteractionCallbackData{
			Content: content,
			Flags:   discord.MessageFlagEphemeral,
		},
	}
}

func deferredEphemeral() *discord.InteractionResponse {
	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeDeferredChannelMessageSource,
		Data: &discord.InteractionCallbackData{
			Flags: discord.MessageFlagEphemeral,
		},
	}
}

func noMentions() *discord.MessageAllowedMentions {
	return &discord.MessageAllowedMentions{
		Parse: []discord.MessageAllowedMentionsType{},
	}
}
