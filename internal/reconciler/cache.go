package reconciler

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ictsc/ictsc-discord-bot/discord"
)

// RoleCache holds the last observed role list. It is replaced wholesale on
// every refresh and handed out as immutable snapshots.
type RoleCache struct {
	client RoleClient

	mu       sync.RWMutex
	snapshot *RoleSnapshot
}

func NewRoleCache(client RoleClient) *RoleCache {
	return &RoleCache{
		client: client,
	}
}

// Refresh lists the roles of the guild and swaps them in.
func (c *RoleCache) Refresh(ctx context.Context) (*RoleSnapshot, error) {
	roles, err := c.client.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh role cache: %w", err)
	}

	snapshot := NewRoleSnapshot(roles)

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	return snapshot, nil
}

// Snapshot returns the current snapshot or ErrRoleCacheNotPopulated.
func (c *RoleCache) Snapshot() (*RoleSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return nil, ErrRoleCacheNotPopulated
	}

	return c.snapshot, nil
}

// Roles returns a copy of the cached roles or ErrRoleCacheNotPopulated.
func (c *RoleCache) Roles() ([]RemoteRole, error) {
	snapshot, err := c.Snapshot()
	if err != nil {
		return nil, err
	}

	return snapshot.All(), nil
}

// RoleSnapshot is an immutable view of the roles observed at one point of a pass.
type RoleSnapshot struct {
	roles  []RemoteRole
	byName map[string][]int
	byID   map[discord.Snowflake]int
}

func NewRoleSnapshot(roles []RemoteRole) *RoleSnapshot {
	snapshot := &RoleSnapshot{
		roles:  slices.Clone(roles),
		byName: make(map[string][]int, len(roles)),
		byID:   make(map[discord.Snowflake]int, len(roles)),
	}

	for i, role := range snapshot.roles {
		snapshot.byName[role.Name] = append(snapshot.byName[role.Name], i)
		snapshot.byID[role.ID] = i
	}

	return snapshot
}

// All returns a copy of every role in the snapshot.
func (s *RoleSnapshot) All() []RemoteRole {
	return slices.Clone(s.roles)
}

// Len returns the number of roles in the snapshot.
func (s *RoleSnapshot) Len() int {
	return len(s.roles)
}

// ByName returns every role carrying name.
func (s *RoleSnapshot) ByName(name string) []RemoteRole {
	indexes := s.byName[name]
	roles := make([]RemoteRole, 0, len(indexes))

	for _, i := range indexes {
		roles = append(roles, s.roles[i])
	}

	return roles
}

// ByID returns the role with id.
func (s *RoleSnapshot) ByID(id discord.Snowflake) (RemoteRole, bool) {
	i, ok := s.byID[id]
	if !ok {
		return RemoteRole{}, false
	}

	return s.roles[i], true
}

// Lookup resolves a role name to its id. It fails with ErrNoSuchRole when
// reconciliation did not leave a role of that name behind.
func (s *RoleSnapshot) Lookup(name string) (discord.Snowflake, error) {
	indexes := s.byName[name]
	if len(indexes) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchRole, name)
	}

	return s.roles[indexes[0]].ID, nil
}

// Everyone returns the id of the default role.
func (s *RoleSnapshot) Everyone() (discord.Snowflake, error) {
	for _, role := range s.roles {
		if role.Default {
			return role.ID, nil
		}
	}

	return s.Lookup(EveryoneRoleName)
}
