package reconciler

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/ictsc/ictsc-discord-bot/discord"
)

const testGuildID discord.Snowflake = 1

var errNotFound = errors.New("not found")

type call struct {
	op   string
	id   discord.Snowflake
	name string
}

// fakePlatform is an in-memory guild that records every mutating call.
type fakePlatform struct {
	mu sync.Mutex

	nextID   discord.Snowflake
	roles    []RemoteRole
	channels []RemoteChannel
	calls    []call

	// fail lets a test inject an error for an operation on a named entity.
	fail func(op, name string) error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		nextID: 100,
		roles: []RemoteRole{
			{ID: testGuildID, Name: EveryoneRoleName, Default: true},
		},
	}
}

func (f *fakePlatform) id() discord.Snowflake {
	f.nextID++

	return f.nextID
}

func (f *fakePlatform) record(op string, id discord.Snowflake, name string) error {
	if f.fail != nil {
		if err := f.fail(op, name); err != nil {
			return err
		}
	}

	f.calls = append(f.calls, call{op: op, id: id, name: name})

	return nil
}

func (f *fakePlatform) addRole(role RemoteRole) RemoteRole {
	f.mu.Lock()
	defer f.mu.Unlock()

	if role.ID == 0 {
		role.ID = f.id()
	}

	f.roles = append(f.roles, role)

	return role
}

func (f *fakePlatform) addChannel(channel RemoteChannel) RemoteChannel {
	f.mu.Lock()
	defer f.mu.Unlock()

	if channel.ID == 0 {
		channel.ID = f.id()
	}

	f.channels = append(f.channels, channel)

	return channel
}

// mutations returns and clears the recorded calls.
func (f *fakePlatform) mutations() []call {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := f.calls
	f.calls = nil

	return calls
}

func countOps(calls []call, op string) int {
	count := 0

	for _, c := range calls {
		if c.op == op {
			count++
		}
	}

	return count
}

func (f *fakePlatform) role(name string) []RemoteRole {
	f.mu.Lock()
	defer f.mu.Unlock()

	var roles []RemoteRole

	for _, role := range f.roles {
		if role.Name == name {
			roles = append(roles, role)
		}
	}

	return roles
}

func (f *fakePlatform) channelsNamed(name string) []RemoteChannel {
	f.mu.Lock()
	defer f.mu.Unlock()

	var channels []RemoteChannel

	for _, channel := range f.channels {
		if channel.Name == name {
			channels = append(channels, channel)
		}
	}

	return channels
}

func (f *fakePlatform) ListRoles(_ context.Context) ([]RemoteRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.roles), nil
}

func (f *fakePlatform) CreateRole(_ context.Context, definition RoleDefinition) (RemoteRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	role := RemoteRole{
		ID:          f.id(),
		Name:        definition.Name,
		Permissions: definition.Permissions,
		Colour:      definition.Colour,
		Hoist:       definition.Hoist,
		Mentionable: definition.Mentionable,
	}

	if err := f.record("create_role", role.ID, role.Name); err != nil {
		return RemoteRole{}, err
	}

	f.roles = append(f.roles, role)

	return role, nil
}

func (f *fakePlatform) EditRole(_ context.Context, id discord.Snowflake, definition RoleDefinition) (RemoteRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("edit_role", id, definition.Name); err != nil {
		return RemoteRole{}, err
	}

	for i := range f.roles {
		if f.roles[i].ID != id {
			continue
		}

		f.roles[i].Name = definition.Name
		f.roles[i].Permissions = definition.Permissions
		f.roles[i].Colour = definition.Colour
		f.roles[i].Hoist = definition.Hoist
		f.roles[i].Mentionable = definition.Mentionable

		return f.roles[i], nil
	}

	return RemoteRole{}, errNotFound
}

func (f *fakePlatform) DeleteRole(_ context.Context, id discord.Snowflake) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, role := range f.roles {
		if role.ID != id {
			continue
		}

		if err := f.record("delete_role", id, role.Name); err != nil {
			return err
		}

		f.roles = slices.Delete(f.roles, i, i+1)

		return nil
	}

	return errNotFound
}

func (f *fakePlatform) ListChannels(_ context.Context) ([]RemoteChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.channels), nil
}

func (f *fakePlatform) CreateChannel(_ context.Context, definition ChannelDefinition) (RemoteChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	channel := RemoteChannel{
		ID:          f.id(),
		Name:        definition.Name,
		Kind:        definition.Kind,
		ParentID:    definition.Category,
		Permissions: slices.Clone(definition.Permissions),
	}

	if definition.Topic != nil {
		channel.Topic = *definition.Topic
	}

	if err := f.record("create_channel", channel.ID, channel.Name); err != nil {
		return RemoteChannel{}, err
	}

	f.channels = append(f.channels, channel)

	return channel, nil
}

func (f *fakePlatform) EditChannel(_ context.Context, id discord.Snowflake, definition ChannelDefinition) (RemoteChannel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("edit_channel", id, definition.Name); err != nil {
		return RemoteChannel{}, err
	}

	for i := range f.channels {
		if f.channels[i].ID != id {
			continue
		}

		f.channels[i].Name = definition.Name
		f.channels[i].ParentID = definition.Category
		f.channels[i].Permissions = slices.Clone(definition.Permissions)
		f.channels[i].Topic = ""

		if definition.Topic != nil {
			f.channels[i].Topic = *definition.Topic
		}

		return f.channels[i], nil
	}

	return RemoteChannel{}, errNotFound
}

func (f *fakePlatform) DeleteChannel(_ context.Context, id discord.Snowflake) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, channel := range f.channels {
		if channel.ID != id {
			continue
		}

		if err := f.record("delete_channel", id, channel.Name); err != nil {
			return err
		}

		f.channels = slices.Delete(f.channels, i, i+1)

		// Discord keeps the children of a deleted category at the top level.
		for j := range f.channels {
			if f.channels[j].ParentID != nil && *f.channels[j].ParentID == id {
				f.channels[j].ParentID = nil
			}
		}

		return nil
	}

	return errNotFound
}
