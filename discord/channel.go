package discord

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
)

// channel.go contains the information relating to channels

// ChannelType represents a channel's type.
type ChannelType uint16

const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
	ChannelTypeGuildNews
	ChannelTypeGuildStore
	_
	_
	_
	ChannelTypeGuildNewsThread
	ChannelTypeGuildPublicThread
	ChannelTypeGuildPrivateThread
	ChannelTypeGuildStageVoice
)

func (t ChannelType) String() string {
	switch t {
	case ChannelTypeGuildText:
		return "text"
	case ChannelTypeDM:
		return "dm"
	case ChannelTypeGuildVoice:
		return "voice"
	case ChannelTypeGuildCategory:
		return "category"
	case ChannelTypeGuildPublicThread:
		return "public_thread"
	case ChannelTypeGuildPrivateThread:
		return "private_thread"
	default:
		return "type_" + strconv.Itoa(int(t))
	}
}

// Channel represents a Discord channel.
type Channel struct {
	GuildID              *Snowflake           `json:"guild_id,omitempty"`
	ParentID             *Snowflake           `json:"parent_id,omitempty"`
	ThreadMetadata       *ThreadMetadata      `json:"thread_metadata,omitempty"`
	Topic                string               `json:"topic"`
	Name                 string               `json:"name"`
	PermissionOverwrites ChannelOverwriteList `json:"permission_overwrites"`
	ID                   Snowflake            `json:"id"`
	Position             int32                `json:"position"`
	Type                 ChannelType          `json:"type"`
}

// ChannelOverwrite represents a permission overwrite for a channel.
type ChannelOverwrite struct {
	Type  ChannelOverrideType `json:"type"`
	ID    Snowflake           `json:"id"`
	Allow Int64               `json:"allow"`
	Deny  Int64               `json:"deny"`
}

// ChannelOverrideType represents the target of a channel override.
type ChannelOverrideType uint16

const (
	ChannelOverrideTypeRole ChannelOverrideType = iota
	ChannelOverrideTypeMember
)

func (in *ChannelOverrideType) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		return nil
	}

	// Discord will pass ChannelOverrideType as a string if it is in an audit log.
	i, err := parseQuotedInt(b)
	if err != nil {
		return err
	}

	*in = ChannelOverrideType(i)

	return nil
}

func (in ChannelOverrideType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(in))), nil
}

func (in ChannelOverrideType) String() string {
	switch in {
	case ChannelOverrideTypeRole:
		return "role"
	case ChannelOverrideTypeMember:
		return "member"
	default:
		return strconv.Itoa(int(in))
	}
}

// ThreadMetadata contains thread-specific channel fields.
type ThreadMetadata struct {
	ArchiveTimestamp    Timestamp `json:"archive_timestamp"`
	AutoArchiveDuration int32     `json:"auto_archive_duration"`
	Archived            bool      `json:"archived"`
	Locked              bool      `json:"locked"`
}

// ChannelParams represents the payload sent to create a guild channel.
// Topic is only sent when set so that voice channels and categories never carry one.
type ChannelParams struct {
	ParentID             *Snowflake           `json:"parent_id,omitempty"`
	Topic                *string              `json:"topic,omitempty"`
	Name                 string               `json:"name"`
	PermissionOverwrites ChannelOverwriteList `json:"permission_overwrites"`
	Type                 ChannelType          `json:"type"`
}

// ModifyChannelParams represents the payload sent to modify a guild channel.
// The channel type is omitted as discord can only convert between text and news channels.
type ModifyChannelParams struct {
	ParentID             *Snowflake           `json:"parent_id,omitempty"`
	Topic                *string              `json:"topic,omitempty"`
	Name                 string               `json:"name"`
	PermissionOverwrites ChannelOverwriteList `json:"permission_overwrites"`
}

// ThreadParams represents the payload used to start a thread from a message.
type ThreadParams struct {
	Name                string `json:"name"`
	AutoArchiveDuration int32  `json:"auto_archive_duration,omitempty"`
}

// ModifyThreadParams represents the payload used to modify a thread.
type ModifyThreadParams struct {
	Archived *bool `json:"archived,omitempty"`
	Locked   *bool `json:"locked,omitempty"`
}

func GetGuildChannels(s *Session, guildID Snowflake) (channels []Channel, err error) {
	endpoint := fmt.Sprintf(EndpointGuildChannels, guildID.String())

	err = s.Interface.FetchJJ(s, http.MethodGet, endpoint, nil, nil, &channels)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild channels: %w", err)
	}

	return channels, nil
}

func CreateGuildChannel(s *Session, guildID Snowflake, params ChannelParams) (channel *Channel, err error) {
	endpoint := fmt.Sprintf(EndpointGuildChannels, guildID.String())

	err = s.Interface.FetchJJ(s, http.MethodPost, endpoint, params, nil, &channel)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild channel: %w", err)
	}

	return channel, nil
}

func GetChannel(s *Session, channelID Snowflake) (channel *Channel, err error) {
	endpoint := fmt.Sprintf(EndpointChannel, channelID.String())

	err = s.Interface.FetchJJ(s, http.MethodGet, endpoint, nil, nil, &channel)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return channel, nil
}

func ModifyChannel(s *Session, channelID Snowflake, params ModifyChannelParams) (channel *Channel, err error) {
	endpoint := fmt.Sprintf(EndpointChannel, channelID.String())

	err = s.Interface.FetchJJ(s, http.MethodPatch, endpoint, params, nil, &channel)
	if err != nil {
		return nil, fmt.Errorf("failed to modify channel: %w", err)
	}

	return channel, nil
}

func DeleteChannel(s *Session, channelID Snowflake) error {
	endpoint := fmt.Sprintf(EndpointChannel, channelID.String())

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	return nil
}

// StartThreadFromMessage creates a public thread attached to an existing message.
func StartThreadFromMessage(s *Session, channelID, messageID Snowflake, params ThreadParams) (thread *Channel, err error) {
	endpoint := fmt.Sprintf(EndpointMessageThreads, channelID.String(), messageID.String())

	err = s.Interface.FetchJJ(s, http.MethodPost, endpoint, params, nil, &thread)
	if err != nil {
		return nil, fmt.Errorf("failed to start thread: %w", err)
	}

	return thread, nil
}

func ModifyThread(s *Session, threadID Snowflake, params ModifyThreadParams) (thread *Channel, err error) {
	endpoint := fmt.Sprintf(EndpointChannel, threadID.String())

	err = s.Interface.FetchJJ(s, http.MethodPatch, endpoint, params, nil, &thread)
	if err != nil {
		return nil, fmt.Errorf("failed to modify thread: %w", err)
	}

	return thread, nil
}
