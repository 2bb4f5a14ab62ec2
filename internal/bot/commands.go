package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/config"
)

const (
	CommandPing     = "ping"
	CommandJoin     = "join"
	CommandSync     = "sync"
	CommandAsk      = "ask"
	CommandArchive  = "archive"
	CommandRedeploy = "redeploy"
	CommandStatus   = "status"
)

const askTitleMaxLength = 50

func stringOption(name, description string, maxLength int32) discord.ApplicationCommandOption {
	option := discord.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discord.ApplicationCommandOptionTypeString,
		Required:    true,
	}

	if maxLength > 0 {
		option.MaxLength = &maxLength
	}

	return option
}

func chatInput(name, description string, dm bool, options ...discord.ApplicationCommandOption) discord.ApplicationCommand {
	return discord.ApplicationCommand{
		Name:         name,
		Description:  description,
		Type:         discord.ApplicationCommandTypeChatInput,
		DMPermission: &dm,
		Options:      options,
	}
}

// GlobalCommands are usable from DMs and are registered for the whole application.
func (b *Bot) GlobalCommands() []discord.ApplicationCommand {
	return b.enabled([]discord.ApplicationCommand{
		chatInput(CommandPing, "botの生存確認をします。", true),
		chatInput(CommandJoin, "チームに参加します。", true,
			stringOption("invitation_code", "招待コード", 0)),
		chatInput(CommandSync, "スコアサーバーのユーザー情報からDiscordロールを付与します。", true),
	})
}

// GuildCommands only make sense inside the event guild.
func (b *Bot) GuildCommands() []discord.ApplicationCommand {
	return b.enabled([]discord.ApplicationCommand{
		chatInput(CommandAsk, "運営への質問スレッドを開始します", false,
			stringOption("title", "質問タイトル（50文字以内）", askTitleMaxLength)),
		chatInput(CommandArchive, "運営への質問スレッドを終了します", false),
		chatInput(CommandRedeploy, "問題環境を再展開します。", false,
			stringOption("problem_code", "問題コード", 0)),
		chatInput(CommandStatus, "問題環境の再展開状況を確認します。", false),
	})
}

func (b *Bot) enabled(commands []discord.ApplicationCommand) []discord.ApplicationCommand {
	enabled := make([]discord.ApplicationCommand, 0, len(commands))

	for _, command := range commands {
		if b.configuration.CommandDisabled(command.Name) {
			b.logger.Debug().Str("command", command.Name).Msg("Command is disabled")

			continue
		}

		enabled = append(enabled, command)
	}

	return enabled
}

// RegisterCommands overwrites the global and guild command sets.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	if b.applicationID.IsNil() {
		return fmt.Errorf("discord application_id is empty: %w", config.ErrInvalidConfiguration)
	}

	session := b.session.WithContext(ctx)

	global, err := discord.BulkOverwriteGlobalApplicationCommands(session, b.applicationID, b.GlobalCommands())
	if err != nil {
		return err
	}

	guild, err := discord.BulkOverwriteGuildApplicationCommands(session, b.applicationID, b.guildID, b.GuildCommands())
	if err != nil {
		return err
	}

	b.logger.Info().
		Int("global", len(global)).
		Int("guild", len(guild)).
		Msg("Registered application commands")

	return nil
}

// DeleteCommands deletes every global and guild command of the application.
func (b *Bot) DeleteCommands(ctx context.Context) error {
	if b.applicationID.IsNil() {
		return fmt.Errorf("discord application_id is empty: %w", config.ErrInvalidConfiguration)
	}

	session := b.session.WithContext(ctx)

	global, err := discord.GetGlobalApplicationCommands(session, b.applicationID)
	if err != nil {
		return err
	}

	var errs []error

	for _, command := range global {
		if command.ID == nil {
			continue
		}

		err = discord.DeleteGlobalApplicationCommand(session, b.applicationID, *command.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("global command %s: %w", command.Name, err))

			continue
		}

		b.logger.Info().Str("command", command.Name).Msg("Deleted global command")
	}

	guild, err := discord.GetGuildApplicationCommands(session, b.applicationID, b.guildID)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}

	for _, command := range guild {
		if command.ID == nil {
			continue
		}

		err = discord.DeleteGuildApplicationCommand(session, b.applicationID, b.guildID, *command.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("guild command %s: %w", command.Name, err))

			continue
		}

		b.logger.Info().Str("command", command.Name).Msg("Deleted guild command")
	}

	return errors.Join(errs...)
}
