package discord

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ictsc/ictsc-discord-bot/botjson"
)

// interactions.go represents the interaction objects and the webhook routes used to answer them.

// InteractionType represents the type of interaction.
type InteractionType uint16

const (
	InteractionTypePing InteractionType = 1 + iota
	InteractionTypeApplicationCommand
	InteractionTypeMessageComponent
	InteractionTypeApplicationCommandAutocomplete
	InteractionTypeModalSubmit
)

// InteractionCallbackType represents the type of interaction callbacks.
type InteractionCallbackType uint16

const (
	InteractionCallbackTypePong InteractionCallbackType = 1 + iota

	_
	_

	// InteractionCallbackTypeChannelMessageSource responds to an interaction with a message.
	InteractionCallbackTypeChannelMessageSource

	// InteractionCallbackTypeDeferredChannelMessageSource acknowledges an interaction and
	// edits a response later, users see a loading state.
	InteractionCallbackTypeDeferredChannelMessageSource

	// InteractionCallbackTypeDeferredUpdateMessage acknowledges an interaction and edits
	// a response later, users do not see a loading state.
	InteractionCallbackTypeDeferredUpdateMessage

	// InteractionCallbackTypeUpdateMessage edits the message the component was attached to.
	InteractionCallbackTypeUpdateMessage
)

// InteractionComponentType represents the type of component.
type InteractionComponentType uint16

const (
	// InteractionComponentTypeActionRow is a non-interactive container for other components.
	InteractionComponentTypeActionRow InteractionComponentType = 1 + iota
	// InteractionComponentTypeButton is an interactive component that must be in an action row.
	InteractionComponentTypeButton
)

// InteractionComponentStyle represents the style of a component.
type InteractionComponentStyle uint16

const (
	InteractionComponentStylePrimary InteractionComponentStyle = 1 + iota
	InteractionComponentStyleSecondary
	InteractionComponentStyleSuccess
	InteractionComponentStyleDanger
	InteractionComponentStyleLink
)

// Interaction represents the structure of an interaction.
type Interaction struct {
	Member        *GuildMember     `json:"member,omitempty"`
	Message       *Message         `json:"message,omitempty"`
	Data          *InteractionData `json:"data,omitempty"`
	GuildID       *Snowflake       `json:"guild_id,omitempty"`
	ChannelID     *Snowflake       `json:"channel_id,omitempty"`
	Channel       *Channel         `json:"channel,omitempty"`
	User          *User            `json:"user,omitempty"`
	Token         string           `json:"token"`
	ID            Snowflake        `json:"id"`
	ApplicationID Snowflake        `json:"application_id"`
	Version       int32            `json:"version"`
	Type          InteractionType  `json:"type"`
}

// Caller returns the invoking user, which lives on Member inside guilds and on User in DMs.
func (i *Interaction) Caller() *User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}

	return i.User
}

// InDM reports whether the interaction was invoked outside of a guild.
func (i *Interaction) InDM() bool {
	return i.GuildID == nil
}

// InteractionResponse represents the interaction response object.
type InteractionResponse struct {
	Data *InteractionCallbackData `json:"data,omitempty"`
	Type InteractionCallbackType  `json:"type"`
}

// InteractionData represents the structure of interaction data.
type InteractionData struct {
	Name          string                    `json:"name"`
	CustomID      string                    `json:"custom_id,omitempty"`
	Options       []InteractionDataOption   `json:"options,omitempty"`
	ComponentType *InteractionComponentType `json:"component_type,omitempty"`
	ID            Snowflake                 `json:"id"`
	Type          ApplicationCommandType    `json:"type"`
}

// StringOption returns the string value of a top-level option.
func (d *InteractionData) StringOption(name string) (string, bool) {
	for _, option := range d.Options {
		if option.Name != name {
			continue
		}

		var value string
		if err := botjson.Unmarshal(option.Value, &value); err != nil {
			return "", false
		}

		return value, true
	}

	return "", false
}

// InteractionCallbackData represents the structure of the interaction callback data.
type InteractionCallbackData struct {
	AllowedMentions *MessageAllowedMentions `json:"allowed_mentions,omitempty"`
	Content         string                  `json:"content,omitempty"`
	Embeds          []Embed                 `json:"embeds,omitempty"`
	Components      []InteractionComponent  `json:"components,omitempty"`
	Flags           MessageFlags            `json:"flags,omitempty"`
}

// InteractionDataOption represents the structure of an interaction option.
type InteractionDataOption struct {
	Name  string                       `json:"name"`
	Value json.RawMessage              `json:"value,omitempty"`
	Type  ApplicationCommandOptionType `json:"type"`
}

// InteractionComponent represents the structure of a component.
type InteractionComponent struct {
	CustomID   string                    `json:"custom_id,omitempty"`
	Label      string                    `json:"label,omitempty"`
	Components []InteractionComponent    `json:"components,omitempty"`
	Disabled   bool                      `json:"disabled,omitempty"`
	Type       InteractionComponentType  `json:"type"`
	Style      InteractionComponentStyle `json:"style,omitempty"`
}

func NewInteractionComponent(componentType InteractionComponentType) *InteractionComponent {
	return &InteractionComponent{
		Type: componentType,
	}
}

func (ic *InteractionComponent) SetCustomID(customID string) *InteractionComponent {
	ic.CustomID = customID

	return ic
}

func (ic *InteractionComponent) SetStyle(style InteractionComponentStyle) *InteractionComponent {
	ic.Style = style

	return ic
}

func (ic *InteractionComponent) SetLabel(label string) *InteractionComponent {
	ic.Label = label

	return ic
}

func (ic *InteractionComponent) AddComponent(component InteractionComponent) *InteractionComponent {
	ic.Components = append(ic.Components, component)

	return ic
}

// CreateInteractionResponse answers an interaction through the callback route.
// The HTTP interactions endpoint answers inline instead; this is used for late acknowledgements.
func CreateInteractionResponse(s *Session, interactionID Snowflake, token string, response InteractionResponse) error {
	endpoint := fmt.Sprintf(EndpointInteractionCallback, interactionID.String(), token)

	err := s.Interface.FetchJJ(s, http.MethodPost, endpoint, response, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create interaction response: %w", err)
	}

	return nil
}

func GetOriginalInteractionResponse(s *Session, applicationID Snowflake, token string) (message *Message, err error) {
	endpoint := fmt.Sprintf(EndpointOriginalResponse, applicationID.String(), token)

	err = s.Interface.FetchJJ(s, http.MethodGet, endpoint, nil, nil, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to get original interaction response: %w", err)
	}

	return message, nil
}

func EditOriginalInteractionResponse(s *Session, applicationID Snowflake, token string, params MessageParams) (message *Message, err error) {
	endpoint := fmt.Sprintf(EndpointOriginalResponse, applicationID.String(), token)

	err = s.Interface.FetchJJ(s, http.MethodPatch, endpoint, params, nil, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to edit original interaction response: %w", err)
	}

	return message, nil
}

func CreateFollowupMessage(s *Session, applicationID Snowflake, token string, params MessageParams) (message *Message, err error) {
	endpoint := fmt.Sprintf(EndpointInteractionFollowup, applicationID.String(), token)

	err = s.Interface.FetchJJ(s, http.MethodPost, endpoint, params, nil, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to create followup message: %w", err)
	}

	return message, nil
}
