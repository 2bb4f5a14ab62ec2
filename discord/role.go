package discord

import (
	"fmt"
	"net/http"
)

// role.go represents all structures for a discord guild role.

// Role represents a role on discord.
type Role struct {
	Tags        *RoleTag  `json:"tags,omitempty"`
	Name        string    `json:"name"`
	ID          Snowflake `json:"id"`
	Permissions Int64     `json:"permissions"`
	Color       int32     `json:"color"`
	Position    int32     `json:"position"`
	Hoist       bool      `json:"hoist"`
	Managed     bool      `json:"managed"`
	Mentionable bool      `json:"mentionable"`
}

// RoleTag represents extra information about a role.
type RoleTag struct {
	BotID         *Snowflake `json:"bot_id"`
	IntegrationID *Snowflake `json:"integration_id"`
}

// RoleParams represents the payload sent to create or modify a role.
type RoleParams struct {
	Name        string `json:"name"`
	Permissions Int64  `json:"permissions"`
	Color       int32  `json:"color"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
}

// GetGuildRoles returns every role of a guild, including @everyone.
func GetGuildRoles(s *Session, guildID Snowflake) (roles []Role, err error) {
	endpoint := fmt.Sprintf(EndpointGuildRoles, guildID.String())

	err = s.Interface.FetchJJ(s, http.MethodGet, endpoint, nil, nil, &roles)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild roles: %w", err)
	}

	return roles, nil
}

func CreateGuildRole(s *Session, guildID Snowflake, params RoleParams) (role *Role, err error) {
	endpoint := fmt.Sprintf(EndpointGuildRoles, guildID.String())

	err = s.Interface.FetchJJ(s, http.MethodPost, endpoint, params, nil, &role)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild role: %w", err)
	}

	return role, nil
}

func ModifyGuildRole(s *Session, guildID, roleID Snowflake, params RoleParams) (role *Role, err error) {
	endpoint := fmt.Sprintf(EndpointGuildRole, guildID.String(), roleID.String())

	err = s.Interface.FetchJJ(s, http.MethodPatch, endpoint, params, nil, &role)
	if err != nil {
		return nil, fmt.Errorf("failed to modify guild role: %w", err)
	}

	return role, nil
}

func DeleteGuildRole(s *Session, guildID, roleID Snowflake) error {
	endpoint := fmt.Sprintf(EndpointGuildRole, guildID.String(), roleID.String())

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete guild role: %w", err)
	}

	return nil
}
