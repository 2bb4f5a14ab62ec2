// Package reconciler converges the roles and channels of a guild towards a
// declarative set of definitions.
//
// Every pass lists the observed state, matches each definition against it,
// then creates, edits or deletes remote entities until the two agree. Passes
// are not transactional: a failure aborts the pass and leaves the guild
// partially converged, and running the pass again resumes from there.
package reconciler

import (
	"github.com/ictsc/ictsc-discord-bot/discord"
)

// EveryoneRoleName is the name of the default role every member holds.
const EveryoneRoleName = "@everyone"

// ResourceType represents the kind of remote entity being reconciled.
type ResourceType string

const (
	ResourceTypeRole    ResourceType = "role"
	ResourceTypeChannel ResourceType = "channel"
)

// Operation describes what a pass did to a single remote entity.
type Operation string

const (
	OperationCreate    Operation = "create"
	OperationUpdate    Operation = "update"
	OperationDelete    Operation = "delete"
	OperationUnchanged Operation = "unchanged"
)

// RoleDefinition is the desired state of a role. Name is unique within a pass.
type RoleDefinition struct {
	Name        string
	Permissions discord.Int64
	Colour      int32
	Hoist       bool
	Mentionable bool
}

// RemoteRole is a role as observed on the platform.
type RemoteRole struct {
	ID          discord.Snowflake
	Name        string
	Permissions discord.Int64
	Colour      int32
	Hoist       bool
	Mentionable bool

	// Managed roles belong to an integration and cannot be deleted.
	Managed bool
	// Default marks the @everyone role, which shares the guild id.
	Default bool
}

// Protected reports whether the role must never be deleted by a pass.
func (r RemoteRole) Protected() bool {
	return r.Default || r.Managed
}

func (r RemoteRole) matches(definition RoleDefinition) bool {
	return r.Permissions == definition.Permissions &&
		r.Colour == definition.Colour &&
		r.Hoist == definition.Hoist &&
		r.Mentionable == definition.Mentionable
}

// PermissionOverwrite grants and revokes permissions for one subject on one channel.
type PermissionOverwrite struct {
	Allow   discord.Int64
	Deny    discord.Int64
	Subject discord.Snowflake
	Kind    discord.ChannelOverrideType
}

// ChannelDefinition is the desired state of a channel.
//
// Categories are keyed by Name alone and never have a Category. Text and
// voice channels are keyed by Name and Category together.
type ChannelDefinition struct {
	Name        string
	Kind        discord.ChannelType
	Category    *discord.Snowflake
	Topic       *string
	Permissions []PermissionOverwrite
}

// RemoteChannel is a channel as observed on the platform.
type RemoteChannel struct {
	ID          discord.Snowflake
	Name        string
	Kind        discord.ChannelType
	ParentID    *discord.Snowflake
	Topic       string
	Permissions []PermissionOverwrite
}

// KindSet restricts a channel pass to a tier.
type KindSet []discord.ChannelType

var (
	CategoryKinds = KindSet{discord.ChannelTypeGuildCategory}
	LeafKinds     = KindSet{discord.ChannelTypeGuildText, discord.ChannelTypeGuildVoice}
)

// Contains reports whether kind is part of the set.
func (s KindSet) Contains(kind discord.ChannelType) bool {
	for _, k := range s {
		if k == kind {
			return true
		}
	}

	return false
}

// Report counts what a pass did.
type Report struct {
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
}

// Mutations returns the number of mutating calls the pass issued.
func (r Report) Mutations() int {
	return r.Created + r.Updated + r.Deleted
}

func (r *Report) add(other Report) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Deleted += other.Deleted
	r.Unchanged += other.Unchanged
}

func (r *Report) record(operation Operation) {
	switch operation {
	case OperationCreate:
		r.Created++
	case OperationUpdate:
		r.Updated++
	case OperationDelete:
		r.Deleted++
	case OperationUnchanged:
		r.Unchanged++
	}
}
