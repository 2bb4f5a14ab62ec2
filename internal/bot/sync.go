package bot

import (
	"context"

	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
)

// exclusive runs fn unless another sync of this process or, with a shared
// pass lock, of another process is running.
func (b *Bot) exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.syncing.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer b.syncing.Store(false)

	return b.reconciler.Exclusive(ctx, fn)
}

// SyncRoles converges the guild's roles.
func (b *Bot) SyncRoles(ctx context.Context) error {
	return b.exclusive(ctx, func(ctx context.Context) error {
		_, err := b.syncRoles(ctx)

		return err
	})
}

func (b *Bot) syncRoles(ctx context.Context) (*reconciler.RoleSnapshot, error) {
	b.logger.Info().Int("teams", len(b.configuration.Teams)).Msg("Syncing roles")

	snapshot, _, err := b.reconciler.SyncRoles(ctx, b.RoleDefinitions())

	return snapshot, err
}

// DeleteRoles deletes every role but @everyone and managed roles.
func (b *Bot) DeleteRoles(ctx context.Context) error {
	return b.exclusive(ctx, func(ctx context.Context) error {
		b.logger.Info().Msg("Deleting roles")

		_, err := b.reconciler.DeleteRoles(ctx)

		return err
	})
}

// SyncChannels converges categories then text and voice channels. Roles
// must already exist.
func (b *Bot) SyncChannels(ctx context.Context) error {
	return b.exclusive(ctx, func(ctx context.Context) error {
		snapshot, err := b.reconciler.Cache().Refresh(ctx)
		if err != nil {
			return err
		}

		return b.syncChannels(ctx, snapshot)
	})
}

func (b *Bot) syncChannels(ctx context.Context, snapshot *reconciler.RoleSnapshot) error {
	b.logger.Info().Int("teams", len(b.configuration.Teams)).Msg("Syncing channels")

	categories, err := b.CategoryDefinitions(snapshot)
	if err != nil {
		return err
	}

	index, _, err := b.reconciler.SyncCategories(ctx, categories)
	if err != nil {
		return err
	}

	leaves, err := b.LeafChannelDefinitions(snapshot, index)
	if err != nil {
		return err
	}

	_, err = b.reconciler.SyncLeafChannels(ctx, leaves)

	return err
}

// DeleteChannels deletes every channel of the guild.
func (b *Bot) DeleteChannels(ctx context.Context) error {
	return b.exclusive(ctx, func(ctx context.Context) error {
		b.logger.Info().Msg("Deleting channels")

		_, err := b.reconciler.DeleteChannels(ctx)

		return err
	})
}

// Sync converges roles then channels under a single lock.
func (b *Bot) Sync(ctx context.Context) error {
	return b.exclusive(ctx, func(ctx context.Context) error {
		snapshot, err := b.syncRoles(ctx)
		if err != nil {
			return err
		}

		return b.syncChannels(ctx, snapshot)
	})
}
