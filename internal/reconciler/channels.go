package reconciler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// channelKey identifies a channel within a tier. Categories always have a zero parent.
type channelKey struct {
	name   string
	parent discord.Snowflake
}

func (k channelKey) String() string {
	if k.parent == 0 {
		return k.name
	}

	return k.parent.String() + "/" + k.name
}

func definitionKey(definition ChannelDefinition) channelKey {
	if definition.Kind == discord.ChannelTypeGuildCategory || definition.Category == nil {
		return channelKey{name: definition.Name}
	}

	return channelKey{name: definition.Name, parent: *definition.Category}
}

func remoteKey(channel RemoteChannel) channelKey {
	if channel.Kind == discord.ChannelTypeGuildCategory || channel.ParentID == nil {
		return channelKey{name: channel.Name}
	}

	return channelKey{name: channel.Name, parent: *channel.ParentID}
}

func validateChannelDefinitions(definitions []ChannelDefinition, kinds KindSet) error {
	seen := make(map[channelKey]struct{}, len(definitions))

	for _, definition := range definitions {
		if definition.Name == "" {
			return fmt.Errorf("channel without a name: %w", ErrInvalidDefinition)
		}

		if !kinds.Contains(definition.Kind) {
			return fmt.Errorf("channel %q is a %s: %w", definition.Name, definition.Kind, ErrKindNotInSet)
		}

		if definition.Kind == discord.ChannelTypeGuildCategory && definition.Category != nil {
			return fmt.Errorf("category %q cannot have a parent: %w", definition.Name, ErrInvalidDefinition)
		}

		if definition.Topic != nil && definition.Kind != discord.ChannelTypeGuildText {
			return fmt.Errorf("%s channel %q cannot have a topic: %w", definition.Kind, definition.Name, ErrInvalidDefinition)
		}

		key := definitionKey(definition)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("channel %s: %w", key, ErrDuplicateDefinition)
		}

		seen[key] = struct{}{}
	}

	return nil
}

// channelMatches compares every attribute a definition controls.
func channelMatches(channel RemoteChannel, definition ChannelDefinition) bool {
	if channel.Kind != definition.Kind || channel.Name != definition.Name {
		return false
	}

	if definition.Kind == discord.ChannelTypeGuildCategory {
		if channel.ParentID != nil && *channel.ParentID != 0 {
			return false
		}
	} else if remoteKey(channel) != definitionKey(definition) {
		return false
	}

	if definition.Kind == discord.ChannelTypeGuildText {
		var topic string
		if definition.Topic != nil {
			topic = *definition.Topic
		}

		if channel.Topic != topic {
			return false
		}
	}

	return OverwritesEqual(channel.Permissions, definition.Permissions)
}

type channelReconciler struct {
	client      ChannelClient
	policy      AmbiguityPolicy
	logger      zerolog.Logger
	parallelism int
}

// reconcile converges the channels of one tier. observed may contain every
// channel of the guild; only kinds within the set are considered. The
// returned channels are in definition order.
func (r *channelReconciler) reconcile(ctx context.Context, observed []RemoteChannel, definitions []ChannelDefinition, kinds KindSet) ([]RemoteChannel, Report, error) {
	err := validateChannelDefinitions(definitions, kinds)
	if err != nil {
		return nil, Report{}, err
	}

	tier := make([]RemoteChannel, 0, len(observed))

	for _, channel := range observed {
		if kinds.Contains(channel.Kind) {
			tier = append(tier, channel)
		}
	}

	if r.parallelism > 1 && !kinds.Contains(discord.ChannelTypeGuildCategory) {
		return r.reconcileByCategory(ctx, tier, definitions)
	}

	return r.reconcileGroup(ctx, tier, definitions)
}

// reconcileGroup is the sequential pass over a set of channels and the
// definitions that may claim them.
func (r *channelReconciler) reconcileGroup(ctx context.Context, observed []RemoteChannel, definitions []ChannelDefinition) ([]RemoteChannel, Report, error) {
	var report Report

	byKey := make(map[channelKey][]RemoteChannel, len(observed))
	for _, channel := range observed {
		key := remoteKey(channel)
		byKey[key] = append(byKey[key], channel)
	}

	desired := make(map[channelKey]struct{}, len(definitions))
	results := make([]RemoteChannel, 0, len(definitions))

	for _, definition := range definitions {
		key := definitionKey(definition)
		desired[key] = struct{}{}

		channel, operation, err := r.reconcileOne(ctx, byKey[key], definition, &report)
		if err != nil {
			return nil, report, err
		}

		report.record(operation)
		recordOperation(ResourceTypeChannel, operation)

		results = append(results, channel)
	}

	for _, channel := range observed {
		if _, ok := desired[remoteKey(channel)]; ok {
			continue
		}

		err := r.delete(ctx, channel, &report)
		if err != nil {
			return nil, report, err
		}
	}

	return results, report, nil
}

func (r *channelReconciler) reconcileOne(ctx context.Context, matches []RemoteChannel, definition ChannelDefinition, report *Report) (RemoteChannel, Operation, error) {
	// Matches of the definition's kind go first.
	matches = slices.Clone(matches)
	slices.SortStableFunc(matches, func(a, b RemoteChannel) int {
		return kindRank(a, definition) - kindRank(b, definition)
	})

	result := resolveAmbiguousMatches(r.policy, matches, neverProtected[RemoteChannel])

	// The platform cannot convert between these kinds.
	if result.keep != nil && result.keep.Kind != definition.Kind {
		result.remove = append(result.remove, *result.keep)
		result.keep = nil
	}

	for _, channel := range result.remove {
		err := r.delete(ctx, channel, report)
		if err != nil {
			return RemoteChannel{}, "", err
		}
	}

	if result.keep == nil {
		channel, err := r.client.CreateChannel(ctx, definition)
		if err != nil {
			return RemoteChannel{}, "", fmt.Errorf("failed to create %s channel %s: %w", definition.Kind, definition.Name, err)
		}

		r.logChannel(channel, "Created channel")

		return channel, OperationCreate, nil
	}

	if channelMatches(*result.keep, definition) {
		r.logChannel(*result.keep, "Channel is up to date")

		return *result.keep, OperationUnchanged, nil
	}

	channel, err := r.client.EditChannel(ctx, result.keep.ID, definition)
	if err != nil {
		return RemoteChannel{}, "", fmt.Errorf("failed to edit %s channel %s (%s): %w", definition.Kind, definition.Name, result.keep.ID, err)
	}

	r.logChannel(channel, "Edited channel")

	return channel, OperationUpdate, nil
}

func kindRank(channel RemoteChannel, definition ChannelDefinition) int {
	if channel.Kind == definition.Kind {
		return 0
	}

	return 1
}

func (r *channelReconciler) delete(ctx context.Context, channel RemoteChannel, report *Report) error {
	err := r.client.DeleteChannel(ctx, channel.ID)
	if err != nil {
		return fmt.Errorf("failed to delete %s channel %s (%s): %w", channel.Kind, channel.Name, channel.ID, err)
	}

	r.logChannel(channel, "Deleted channel")

	report.record(OperationDelete)
	recordOperation(ResourceTypeChannel, OperationDelete)

	return nil
}

func (r *channelReconciler) logChannel(channel RemoteChannel, message string) {
	event := r.logger.Debug().
		Str("name", channel.Name).
		Str("id", channel.ID.String()).
		Stringer("kind", channel.Kind)

	if channel.ParentID != nil {
		event = event.Str("parent_id", channel.ParentID.String())
	}

	event.Msg(message)
}

type channelGroup struct {
	parent      discord.Snowflake
	definitions []ChannelDefinition
	indexes     []int
	observed    []RemoteChannel
}

// reconcileByCategory reconciles each parent's channels on its own goroutine.
// Keys include the parent so groups never share a remote channel. A failing
// group stops on its own; the others run to completion and every failure is
// returned.
func (r *channelReconciler) reconcileByCategory(ctx context.Context, observed []RemoteChannel, definitions []ChannelDefinition) ([]RemoteChannel, Report, error) {
	groups := make(map[discord.Snowflake]*channelGroup)
	order := make([]discord.Snowflake, 0)

	group := func(parent discord.Snowflake) *channelGroup {
		g, ok := groups[parent]
		if !ok {
			g = &channelGroup{parent: parent}
			groups[parent] = g
			order = append(order, parent)
		}

		return g
	}

	for i, definition := range definitions {
		g := group(definitionKey(definition).parent)
		g.definitions = append(g.definitions, definition)
		g.indexes = append(g.indexes, i)
	}

	for _, channel := range observed {
		g := group(remoteKey(channel).parent)
		g.observed = append(g.observed, channel)
	}

	var (
		eg      errgroup.Group
		mu      sync.Mutex
		report  Report
		errs    = make([]error, len(order))
		results = make([]RemoteChannel, len(definitions))
	)

	eg.SetLimit(r.parallelism)

	for i, parent := range order {
		g := groups[parent]

		eg.Go(func() error {
			channels, groupReport, err := r.reconcileGroup(ctx, g.observed, g.definitions)

			mu.Lock()
			report.add(groupReport)
			mu.Unlock()

			if err != nil {
				errs[i] = fmt.Errorf("category %s: %w", parent, err)

				return nil
			}

			for j, index := range g.indexes {
				results[index] = channels[j]
			}

			return nil
		})
	}

	_ = eg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		return nil, report, err
	}

	return results, report, nil
}
