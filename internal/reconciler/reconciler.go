package reconciler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/rs/zerolog"
)

// Options configures a Reconciler.
type Options struct {
	Logger zerolog.Logger

	// Policy resolves definitions that match zero or several remote entities.
	Policy AmbiguityPolicy

	// Parallelism bounds how many categories have their channels reconciled
	// at once. Values below 2 reconcile sequentially in definition order.
	Parallelism int

	// Lock guards Exclusive. A process-local lock is always applied first.
	Lock PassLock
}

// Reconciler runs passes against one guild.
type Reconciler struct {
	logger   zerolog.Logger
	platform Platform
	cache    *RoleCache
	roles    *roleReconciler
	channels *channelReconciler
	lock     PassLock
}

func New(platform Platform, options Options) *Reconciler {
	if options.Policy == "" {
		options.Policy = PolicyDeleteAll
	}

	var lock PassLock = NewLocalPassLock()
	if options.Lock != nil {
		lock = chainLocks{lock, options.Lock}
	}

	return &Reconciler{
		logger:   options.Logger,
		platform: platform,
		cache:    NewRoleCache(platform),
		roles: &roleReconciler{
			client: platform,
			policy: options.Policy,
			logger: options.Logger,
		},
		channels: &channelReconciler{
			client:      platform,
			policy:      options.Policy,
			logger:      options.Logger,
			parallelism: options.Parallelism,
		},
		lock: lock,
	}
}

// Cache returns the role cache shared by every pass of this reconciler.
func (r *Reconciler) Cache() *RoleCache {
	return r.cache
}

// Exclusive runs fn while holding the pass lock.
func (r *Reconciler) Exclusive(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	held, release, err := r.lock.Acquire(ctx)
	if err != nil {
		return err
	}

	defer func() {
		releaseErr := release(context.WithoutCancel(ctx))
		if releaseErr != nil {
			r.logger.Warn().Err(releaseErr).Msg("Failed to release pass lock")
		}
	}()

	err = fn(held)
	if cause := context.Cause(held); errors.Is(cause, ErrPassLockLost) {
		r.logger.Error().Err(cause).Msg("Pass lock was lost during the pass")

		return errors.Join(err, cause)
	}

	return err
}

func (r *Reconciler) observe(pass string, start time.Time, report Report, err error) {
	recordPass(pass, time.Since(start).Seconds(), err)

	if err != nil {
		r.logger.Error().
			Err(err).
			Str("pass", pass).
			Int("created", report.Created).
			Int("updated", report.Updated).
			Int("deleted", report.Deleted).
			Msg("Reconciliation pass aborted")

		return
	}

	r.logger.Info().
		Str("pass", pass).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("deleted", report.Deleted).
		Int("unchanged", report.Unchanged).
		Dur("duration", time.Since(start)).
		Msg("Reconciliation pass finished")
}

// SyncRoles refreshes the role cache, converges the guild's roles towards
// definitions and refreshes the cache again. The returned snapshot reflects
// the roles after the pass.
func (r *Reconciler) SyncRoles(ctx context.Context, definitions []RoleDefinition) (snapshot *RoleSnapshot, report Report, err error) {
	start := time.Now()
	defer func() { r.observe("roles", start, report, err) }()

	snapshot, err = r.cache.Refresh(ctx)
	if err != nil {
		return nil, report, err
	}

	report, err = r.roles.reconcile(ctx, snapshot, definitions)
	if err != nil {
		return nil, report, err
	}

	snapshot, err = r.cache.Refresh(ctx)
	if err != nil {
		return nil, report, err
	}

	return snapshot, report, nil
}

// DeleteRoles deletes every role that is not protected.
func (r *Reconciler) DeleteRoles(ctx context.Context) (Report, error) {
	_, report, err := r.SyncRoles(ctx, nil)

	return report, err
}

// CategoryIndex maps category names to the ids left behind by a category pass.
// Leaf channel definitions can only be built from one.
type CategoryIndex struct {
	byName map[string]discord.Snowflake
}

func newCategoryIndex(categories []RemoteChannel) *CategoryIndex {
	index := &CategoryIndex{
		byName: make(map[string]discord.Snowflake, len(categories)),
	}

	for _, category := range categories {
		index.byName[category.Name] = category.ID
	}

	return index
}

// Lookup resolves a category name to its id or fails with ErrNoSuchCategory.
func (i *CategoryIndex) Lookup(name string) (discord.Snowflake, error) {
	if i == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchCategory, name)
	}

	id, ok := i.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNoSuchCategory, name)
	}

	return id, nil
}

// Len returns the number of categories in the index.
func (i *CategoryIndex) Len() int {
	if i == nil {
		return 0
	}

	return len(i.byName)
}

// SyncCategories converges the guild's categories towards definitions.
func (r *Reconciler) SyncCategories(ctx context.Context, definitions []ChannelDefinition) (index *CategoryIndex, report Report, err error) {
	start := time.Now()
	defer func() { r.observe("categories", start, report, err) }()

	observed, err := r.platform.ListChannels(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("failed to list channels: %w", err)
	}

	categories, report, err := r.channels.reconcile(ctx, observed, definitions, CategoryKinds)
	if err != nil {
		return nil, report, err
	}

	return newCategoryIndex(categories), report, nil
}

// SyncLeafChannels converges the guild's text and voice channels towards definitions.
func (r *Reconciler) SyncLeafChannels(ctx context.Context, definitions []ChannelDefinition) (report Report, err error) {
	start := time.Now()
	defer func() { r.observe("channels", start, report, err) }()

	observed, err := r.platform.ListChannels(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list channels: %w", err)
	}

	_, report, err = r.channels.reconcile(ctx, observed, definitions, LeafKinds)

	return report, err
}

// DeleteChannels deletes every channel of the guild, whatever its kind.
// Children are deleted before categories.
func (r *Reconciler) DeleteChannels(ctx context.Context) (report Report, err error) {
	start := time.Now()
	defer func() { r.observe("delete_channels", start, report, err) }()

	observed, err := r.platform.ListChannels(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list channels: %w", err)
	}

	observed = slices.Clone(observed)
	slices.SortStableFunc(observed, func(a, b RemoteChannel) int {
		return categoryLast(a) - categoryLast(b)
	})

	for _, channel := range observed {
		err = r.channels.delete(ctx, channel, &report)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func categoryLast(channel RemoteChannel) int {
	if channel.Kind == discord.ChannelTypeGuildCategory {
		return 1
	}

	return 0
}
