package discord

import (
	"fmt"
	"net/http"
)

// application.go represents application commands.

// ApplicationCommandType represents the different types of application command.
type ApplicationCommandType uint16

const (
	ApplicationCommandTypeChatInput ApplicationCommandType = 1 + iota
	ApplicationCommandTypeUser
	ApplicationCommandTypeMessage
)

// ApplicationCommandOptionType represents the different types of options.
type ApplicationCommandOptionType uint16

const (
	ApplicationCommandOptionTypeSubCommand ApplicationCommandOptionType = 1 + iota
	ApplicationCommandOptionTypeSubCommandGroup
	ApplicationCommandOptionTypeString
	ApplicationCommandOptionTypeInteger
	ApplicationCommandOptionTypeBoolean
	ApplicationCommandOptionTypeUser
	ApplicationCommandOptionTypeChannel
	ApplicationCommandOptionTypeRole
)

// ApplicationCommand represents an application's command.
type ApplicationCommand struct {
	ID           *Snowflake                 `json:"id,omitempty"`
	DMPermission *bool                      `json:"dm_permission,omitempty"`
	Name         string                     `json:"name"`
	Description  string                     `json:"description,omitempty"`
	Options      []ApplicationCommandOption `json:"options,omitempty"`
	Type         ApplicationCommandType     `json:"type,omitempty"`
}

// ApplicationCommandOption represents an option for an application command.
type ApplicationCommandOption struct {
	MaxLength   *int32                       `json:"max_length,omitempty"`
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Type        ApplicationCommandOptionType `json:"type"`
	Required    bool                         `json:"required,omitempty"`
}

func GetGlobalApplicationCommands(s *Session, applicationID Snowflake) (commands []ApplicationCommand, err error) {
	endpoint := fmt.Sprintf(EndpointGlobalCommands, applicationID.String())

	err = s.Interface.FetchJJ(s, http.MethodGet, endpoint, nil, nil, &commands)
	if err != nil {
		return nil, fmt.Errorf("failed to get global application commands: %w", err)
	}

	return commands, nil
}

func BulkOverwriteGlobalApplicationCommands(s *Session, applicationID Snowflake, commands []ApplicationCommand) (overwritten []ApplicationCommand, err error) {
	endpoint := fmt.Sprintf(EndpointGlobalCommands, applicationID.String())

	err = s.Interface.FetchJJ(s, http.MethodPut, endpoint, List[ApplicationCommand](commands), nil, &overwritten)
	if err != nil {
		return nil, fmt.Errorf("failed to overwrite global application commands: %w", err)
	}

	return overwritten, nil
}

func DeleteGlobalApplicationCommand(s *Session, applicationID, commandID Snowflake) error {
	endpoint := fmt.Sprintf(EndpointGlobalCommand, applicationID.String(), commandID.String())

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete global application command: %w", err)
	}

	return nil
}

func GetGuildApplicationCommands(s *Session, applicationID, guildID Snowflake) (commands []ApplicationCommand, err error) {
	endpoint := fmt.Sprintf(EndpointGuildCommands, applicationID.String(), guildID.String())

	err = s.Interface.FetchJJ(s, http.MethodGet, endpoint, nil, nil, &commands)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild application commands: %w", err)
	}

	return commands, nil
}

func BulkOverwriteGuildApplicationCommands(s *Session, applicationID, guildID Snowflake, commands []ApplicationCommand) (overwritten []ApplicationCommand, err error) {
	endpoint := fmt.Sprintf(EndpointGuildCommands, applicationID.String(), guildID.String())

	err = s.Interface.FetchJJ(s, http.MethodPut, endpoint, List[ApplicationCommand](commands), nil, &overwritten)
	if err != nil {
		return nil, fmt.Errorf("failed to overwrite guild application commands: %w", err)
	}

	return overwritten, nil
}

func DeleteGuildApplicationCommand(s *Session, applicationID, guildID, commandID Snowflake) error {
	endpoint := fmt.Sprintf(EndpointGuildCommand, applicationID.String(), guildID.String(), commandID.String())

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete guild application command: %w", err)
	}

	return nil
}
