package discord

import (
	"fmt"
	"net/http"
)

// message.go contains the structures that represent a discord message and its embeds.

// MessageFlags represents the extra information on a message.
type MessageFlags uint32

const (
	MessageFlagCrossposted MessageFlags = 1 << iota
	MessageFlagIsCrosspost
	MessageFlagSuppressEmbeds
	MessageFlagSourceMessageDeleted
	MessageFlagUrgent
	MessageFlagHasThread
	MessageFlagEphemeral
	MessageFlagLoading
)

// MessageAllowedMentionsType represents all the allowed mention types.
type MessageAllowedMentionsType string

const (
	MessageAllowedMentionsTypeRoles    MessageAllowedMentionsType = "roles"
	MessageAllowedMentionsTypeUsers    MessageAllowedMentionsType = "users"
	MessageAllowedMentionsTypeEveryone MessageAllowedMentionsType = "everyone"
)

// Message represents a message on discord.
type Message struct {
	Author     *User                  `json:"author,omitempty"`
	GuildID    *Snowflake             `json:"guild_id,omitempty"`
	Content    string                 `json:"content"`
	Embeds     EmbedList              `json:"embeds"`
	Components []InteractionComponent `json:"components,omitempty"`
	ID         Snowflake              `json:"id"`
	ChannelID  Snowflake              `json:"channel_id"`
}

// MessageAllowedMentions is the structure of the allowed mentions entry.
type MessageAllowedMentions struct {
	Parse []MessageAllowedMentionsType `json:"parse"`
	Roles SnowflakeList                `json:"roles,omitempty"`
	Users SnowflakeList                `json:"users,omitempty"`
}

// MessageParams represents the payload sent to create or edit a message.
type MessageParams struct {
	AllowedMentions *MessageAllowedMentions `json:"allowed_mentions,omitempty"`
	Content         string                  `json:"content,omitempty"`
	Embeds          []Embed                 `json:"embeds,omitempty"`
	Components      *[]InteractionComponent `json:"components,omitempty"`
	Flags           MessageFlags            `json:"flags,omitempty"`
}

func CreateMessage(s *Session, channelID Snowflake, params MessageParams) (message *Message, err error) {
	endpoint := fmt.Sprintf(EndpointChannelMessages, channelID.String())

	err = s.Interface.FetchJJ(s, http.MethodPost, endpoint, params, nil, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return message, nil
}

// Embed represents a message embed on discord.
type Embed struct {
	Footer      *EmbedFooter   `json:"footer,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Timestamp   Timestamp      `json:"timestamp,omitempty"`
	Fields      EmbedFieldList `json:"fields,omitempty"`
	Color       int32          `json:"color,omitempty"`
}

func NewEmbed(title string) *Embed {
	return &Embed{
		Title: title,
	}
}

func (e *Embed) SetDescription(description string) *Embed {
	e.Description = description

	return e
}

func (e *Embed) SetTimestamp(timestamp Timestamp) *Embed {
	e.Timestamp = timestamp

	return e
}

func (e *Embed) SetColor(color int32) *Embed {
	e.Color = color

	return e
}

func (e *Embed) SetFooter(text string) *Embed {
	e.Footer = &EmbedFooter{Text: text}

	return e
}

func (e *Embed) AddField(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, EmbedField{
		Name:   name,
		Value:  value,
		Inline: inline,
	})

	return e
}

// EmbedFooter represents the footer of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedField represents a field in an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// RGB packs colour components into an embed colour.
func RGB(r, g, b uint8) int32 {
	return int32(r)<<16 | int32(g)<<8 | int32(b)
}
