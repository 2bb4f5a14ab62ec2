package discord

import (
	"fmt"
	"net/http"
)

// User represents a user on discord.
type User struct {
	GlobalName    string    `json:"global_name"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator"`
	ID            Snowflake `json:"id"`
	Bot           bool      `json:"bot"`
}

// GuildMember represents a guild member on discord.
type GuildMember struct {
	User        *User         `json:"user,omitempty"`
	Nick        string        `json:"nick,omitempty"`
	JoinedAt    Timestamp     `json:"joined_at,omitempty"`
	Roles       SnowflakeList `json:"roles"`
	Permissions Int64         `json:"permissions"`
}

// HasRole reports whether the member holds roleID.
func (m *GuildMember) HasRole(roleID Snowflake) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}

	return false
}

func GetGuildMember(s *Session, guildID, userID Snowflake) (member *GuildMember, err error) {
	endpoint := fmt.Sprintf(EndpointGuildMember, guildID.String(), userID.String())

	err = s.Interface.FetchJJ(s, http.MethodGet, endpoint, nil, nil, &member)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild member: %w", err)
	}

	return member, nil
}

func AddGuildMemberRole(s *Session, guildID, userID, roleID Snowflake) error {
	endpoint := fmt.Sprintf(EndpointGuildMemberRole, guildID.String(), userID.String(), roleID.String())

	err := s.Interface.FetchJJ(s, http.MethodPut, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to add guild member role: %w", err)
	}

	return nil
}

func RemoveGuildMemberRole(s *Session, guildID, userID, roleID Snowflake) error {
	endpoint := fmt.Sprintf(EndpointGuildMemberRole, guildID.String(), userID.String(), roleID.String())

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to remove guild member role: %w", err)
	}

	return nil
}
