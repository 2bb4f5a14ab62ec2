// Package bot ties the reconciler to the event configuration and serves the
// slash commands contestants and staff use during the contest.
package bot

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/config"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/ictsc/ictsc-discord-bot/internal/services/contestant"
	"github.com/ictsc/ictsc-discord-bot/internal/services/redeploy"
	"github.com/ictsc/ictsc-discord-bot/pkg/limiter"
	"github.com/ictsc/ictsc-discord-bot/pkg/syncmap"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// DefaultConfirmationTimeout is how long the confirm and cancel buttons of /redeploy stay valid.
const DefaultConfirmationTimeout = 60 * time.Second

// DefaultMaxFollowUps bounds the follow-ups that run at once.
const DefaultMaxFollowUps = 16

// backgroundTimeout bounds the follow-up work of a deferred interaction.
// Interaction tokens stay valid for 15 minutes.
const backgroundTimeout = 10 * time.Minute

type Options struct {
	Logger        zerolog.Logger
	Configuration *config.Configuration

	Session       *discord.Session
	ApplicationID discord.Snowflake
	GuildID       discord.Snowflake

	Reconciler *reconciler.Reconciler

	Redeploy    redeploy.Service
	Notifier    redeploy.Notifier
	Contestants contestant.Service

	// ConfirmationTimeout defaults to DefaultConfirmationTimeout.
	ConfirmationTimeout time.Duration

	// MaxFollowUps defaults to DefaultMaxFollowUps.
	MaxFollowUps int

	// Now defaults to time.Now.
	Now func() time.Time
}

type Bot struct {
	ctx    context.Context
	cancel context.CancelFunc

	logger        zerolog.Logger
	configuration *config.Configuration

	session       *discord.Session
	applicationID discord.Snowflake
	guildID       discord.Snowflake
	publicKey     ed25519.PublicKey

	reconciler *reconciler.Reconciler

	redeploy    redeploy.Service
	notifier    redeploy.Notifier
	contestants contestant.Service

	topic *template.Template
	now   func() time.Time

	confirmationTimeout time.Duration

	syncing   *atomic.Bool
	pending   *syncmap.Map[string, *pendingRedeploy]
	followUps *limiter.ConcurrencyLimiter
	tasks     sync.WaitGroup
}

func New(options Options) (*Bot, error) {
	configuration := options.Configuration

	topic, err := template.New("topic").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(configuration.Channels.TopicTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}

	var publicKey ed25519.PublicKey

	if configuration.Discord.PublicKey != "" {
		publicKey, err = hex.DecodeString(configuration.Discord.PublicKey)
		if err != nil || len(publicKey) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("discord public_key is not a hex encoded ed25519 key: %w", config.ErrInvalidConfiguration)
		}
	}

	if options.Now == nil {
		options.Now = time.Now
	}

	if options.ConfirmationTimeout <= 0 {
		options.ConfirmationTimeout = DefaultConfirmationTimeout
	}

	if options.MaxFollowUps <= 0 {
		options.MaxFollowUps = DefaultMaxFollowUps
	}

	if options.Notifier == nil {
		options.Notifier = redeploy.MultiNotifier{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Bot{
		ctx:    ctx,
		cancel: cancel,

		logger:        options.Logger,
		configuration: configuration,

		session:       options.Session,
		applicationID: options.ApplicationID,
		guildID:       options.GuildID,
		publicKey:     publicKey,

		reconciler: options.Reconciler,

		redeploy:    options.Redeploy,
		notifier:    options.Notifier,
		contestants: options.Contestants,

		topic: topic,
		now:   options.Now,

		confirmationTimeout: options.ConfirmationTimeout,

		syncing:   atomic.NewBool(false),
		pending:   &syncmap.Map[string, *pendingRedeploy]{},
		followUps: limiter.NewConcurrencyLimiter("follow-ups", options.MaxFollowUps),
	}, nil
}

// Wait blocks until every interaction follow-up has returned.
func (b *Bot) Wait() {
	b.tasks.Wait()
}

// Close cancels outstanding interaction follow-ups and waits for them to return.
func (b *Bot) Close() {
	b.cancel()
	b.tasks.Wait()
}

// background runs fn after the interaction has been acknowledged, once a
// follow-up ticket is free.
func (b *Bot) background(fn func(ctx context.Context)) {
	b.spawn(func(ctx context.Context) {
		ticket, err := b.followUps.Wait(ctx)
		if err != nil {
			b.logger.Warn().Err(err).Int32("in_progress", b.followUps.InProgress()).Msg("Dropped follow-up")

			return
		}
		defer b.followUps.FreeTicket(ticket)

		fn(ctx)
	})
}

// spawn runs fn in a goroutine tracked by Wait and Close.
func (b *Bot) spawn(fn func(ctx context.Context)) {
	b.tasks.Add(1)

	go func() {
		defer b.tasks.Done()

		ctx, cancel := context.WithTimeout(b.ctx, backgroundTimeout)
		defer cancel()

		fn(ctx)
	}()
}

// roles returns the cached role snapshot, refreshing the cache when no pass populated it yet.
func (b *Bot) roles(ctx context.Context) (*reconciler.RoleSnapshot, error) {
	snapshot, err := b.reconciler.Cache().Snapshot()
	if err == nil {
		return snapshot, nil
	}

	return b.reconciler.Cache().Refresh(ctx)
}
