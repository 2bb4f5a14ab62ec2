package bot

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ictsc/ictsc-discord-bot/discord"
)

// threadAutoArchiveMinutes archives a question thread after a day without messages.
const threadAutoArchiveMinutes = 1440

func (b *Bot) handleAsk(interaction *discord.Interaction) (*discord.InteractionResponse, error) {
	if interaction.Channel == nil || interaction.Channel.Type != discord.ChannelTypeGuildText {
		return nil, userError(messageTextOnly)
	}

	title, _ := interaction.Data.StringOption("title")
	if title == "" || utf8.RuneCountInString(title) > askTitleMaxLength {
		return nil, userError(messageTitleTooLong)
	}

	user := interaction.Caller()
	if user == nil {
		return nil, fmt.Errorf("%w: interaction has no user", ErrUnknownCommand)
	}

	b.background(func(ctx context.Context) {
		err := b.startQuestionThread(ctx, interaction, title)
		if err != nil {
			b.failLater(ctx, interaction, CommandAsk, err)
		}
	})

	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeChannelMessageSource,
		Data: &discord.InteractionCallbackData{
			Content: fmt.Sprintf(messageAskStarted, "<@"+user.ID.String()+">"),
			AllowedMentions: &discord.MessageAllowedMentions{
				Parse: []discord.MessageAllowedMentionsType{},
				Users: discord.SnowflakeList{user.ID},
			},
		},
	}, nil
}

// startQuestionThread opens a thread on the response to /ask and calls staff into it.
func (b *Bot) startQuestionThread(ctx context.Context, interaction *discord.Interaction, title string) error {
	session := b.session.WithContext(ctx)

	message, err := discord.GetOriginalInteractionResponse(session, interaction.ApplicationID, interaction.Token)
	if err != nil {
		return err
	}

	thread, err := discord.StartThreadFromMessage(session, message.ChannelID, message.ID, discord.ThreadParams{
		Name:                title,
		AutoArchiveDuration: threadAutoArchiveMinutes,
	})
	if err != nil {
		return err
	}

	snapshot, err := b.roles(ctx)
	if err != nil {
		return err
	}

	staff, err := snapshot.Lookup(b.configuration.Staff.RoleName)
	if err != nil {
		return err
	}

	_, err = discord.CreateMessage(session, thread.ID, discord.MessageParams{
		Content: fmt.Sprintf(messageAskStarted, "<@&"+staff.String()+">"),
		AllowedMentions: &discord.MessageAllowedMentions{
			Parse: []discord.MessageAllowedMentionsType{},
			Roles: discord.SnowflakeList{staff},
		},
	})
	if err != nil {
		return err
	}

	b.logger.Info().
		Str("thread_id", thread.ID.String()).
		Str("user_id", callerID(interaction)).
		Str("title", title).
		Msg("Started question thread")

	return nil
}

func (b *Bot) handleArchive(interaction *discord.Interaction) (*discord.InteractionResponse, error) {
	if interaction.Channel == nil || interaction.Channel.Type != discord.ChannelTypeGuildPublicThread {
		return nil, userError(messageQuestionThread)
	}

	threadID := interaction.Channel.ID

	b.background(func(ctx context.Context) {
		archived := true

		_, err := discord.ModifyThread(b.session.WithContext(ctx), threadID, discord.ModifyThreadParams{
			Archived: &archived,
		})
		if err != nil {
			b.failLater(ctx, interaction, CommandArchive, err)

			return
		}

		b.logger.Info().Str("thread_id", threadID.String()).Msg("Archived question thread")
	})

	return &discord.InteractionResponse{
		Type: discord.InteractionCallbackTypeChannelMessageSource,
		Data: &discord.InteractionCallbackData{
			Content: messageArchived,
		},
	}, nil
}

// failLater reports a failure that happened after the interaction was answered.
func (b *Bot) failLater(ctx context.Context, interaction *discord.Interaction, command string, err error) {
	recordInteraction(command, "failure")

	b.logger.Error().
		Err(err).
		Str("command", command).
		Str("interaction_id", interaction.ID.String()).
		Msg("Failed to complete command")

	_, err = discord.CreateFollowupMessage(b.session.WithContext(ctx), interaction.ApplicationID, interaction.Token, discord.MessageParams{
		Content:         b.unexpectedError(interaction),
		AllowedMentions: noMentions(),
		Flags:           discord.MessageFlagEphemeral,
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("command", command).Msg("Failed to send followup message")
	}
}
