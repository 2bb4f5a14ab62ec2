package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/bot"
	"github.com/ictsc/ictsc-discord-bot/internal/config"
	"github.com/ictsc/ictsc-discord-bot/internal/platform"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/ictsc/ictsc-discord-bot/internal/services/contestant"
	"github.com/ictsc/ictsc-discord-bot/internal/services/redeploy"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	restTimeout = 20 * time.Second
	lockKey     = "ictsc-discord-bot:reconcile:"
)

var (
	configurationPath string
	pretty            bool
)

func main() {
	root := &cobra.Command{
		Use:          "ictsc-discord-bot",
		Short:        "Discord bot for the ICTSC contest guild",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configurationPath, "config", "f", "config.yaml", "path to the configuration file")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "write human readable logs to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Register commands and serve interactions",
			Args:  cobra.NoArgs,
			RunE:  runStart,
		},
		oneShot("sync-roles", "Create, update and delete roles to match the configuration", (*bot.Bot).SyncRoles),
		oneShot("delete-roles", "Delete every role but @everyone and managed roles", (*bot.Bot).DeleteRoles),
		oneShot("sync-channels", "Create, update and delete channels to match the configuration", (*bot.Bot).SyncChannels),
		oneShot("delete-channels", "Delete every channel of the guild", (*bot.Bot).DeleteChannels),
		oneShot("delete-commands", "Delete every registered application command", (*bot.Bot).DeleteCommands),
	)

	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// oneShot builds a subcommand that runs a single operation and exits.
func oneShot(use, short string, run func(b *bot.Bot, ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			err = run(app.bot, ctx)
			if err != nil {
				app.logger.Error().Err(err).Str("command", use).Msg("Command failed")

				return err
			}

			app.logger.Info().Str("command", use).Msg("Command finished")

			return nil
		},
	}
}

func runStart(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	err = app.bot.RegisterCommands(ctx)
	if err != nil {
		app.logger.Error().Err(err).Msg("Failed to register commands")

		return err
	}

	scheduler, err := bot.NewScheduler(ctx, app.bot, app.configuration.Schedule.Sync)
	if err != nil {
		return err
	}

	scheduler.Start()
	defer scheduler.Stop()

	server := app.configuration.Server

	err = app.bot.Serve(ctx, server.Listen, server.InteractionPath, server.MetricsPath)
	if err != nil {
		app.logger.Error().Err(err).Msg("Server stopped")

		return err
	}

	app.logger.Info().Msg("Shutting down")

	return nil
}

// application holds everything a subcommand needs and what has to be closed afterwards.
type application struct {
	logger        zerolog.Logger
	configuration *config.Configuration
	bot           *bot.Bot

	closers []func() error
}

func (a *application) Close() {
	a.bot.Close()

	for i := len(a.closers) - 1; i >= 0; i-- {
		err := a.closers[i]()
		if err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close resource")
		}
	}
}

func newLogger(configuration config.LoggingConfiguration) (zerolog.Logger, io.Closer, error) {
	var console io.Writer = os.Stderr
	if pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	}

	writer := console

	var closer io.Closer

	if configuration.File != "" {
		file := &lumberjack.Logger{
			Filename:   configuration.File,
			MaxSize:    configuration.MaxSizeMB,
			MaxBackups: configuration.MaxBackups,
			MaxAge:     configuration.MaxAgeDays,
			Compress:   configuration.Compress,
		}

		writer = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	level, err := zerolog.ParseLevel(configuration.Level)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("invalid log level %q: %w", configuration.Level, config.ErrInvalidConfiguration)
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), closer, nil
}

func newApplication(ctx context.Context) (*application, error) {
	configuration, err := config.Load(configurationPath)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := newLogger(configuration.Logging)
	if err != nil {
		return nil, err
	}

	app := &application{
		logger:        logger,
		configuration: configuration,
	}

	if logCloser != nil {
		app.closers = append(app.closers, logCloser.Close)
	}

	guildID, err := discord.ParseSnowflake(configuration.Discord.GuildID)
	if err != nil {
		return nil, fmt.Errorf("discord guild_id: %w", config.ErrInvalidConfiguration)
	}

	var applicationID discord.Snowflake

	if configuration.Discord.ApplicationID != "" {
		applicationID, err = discord.ParseSnowflake(configuration.Discord.ApplicationID)
		if err != nil {
			return nil, fmt.Errorf("discord application_id: %w", config.ErrInvalidConfiguration)
		}
	}

	endpoint := discord.EndpointDiscord
	if configuration.Discord.ProxyURL != "" {
		endpoint = configuration.Discord.ProxyURL
	}

	restInterface := discord.NewInterface(&http.Client{Timeout: restTimeout}, logger, endpoint, discord.APIVersion, discord.UserAgent)
	restInterface.SetDebug(configuration.Discord.Debug)

	session := discord.NewSession(ctx, "Bot "+configuration.Discord.Token, restInterface)

	policy, err := reconciler.ParseAmbiguityPolicy(configuration.Reconciler.AmbiguityPolicy)
	if err != nil {
		return nil, err
	}

	reconcilerOptions := reconciler.Options{
		Logger:      logger.With().Str("component", "reconciler").Logger(),
		Policy:      policy,
		Parallelism: configuration.Reconciler.Parallelism,
	}

	if configuration.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     configuration.Redis.Address,
			Password: configuration.Redis.Password,
			DB:       configuration.Redis.DB,
		})
		app.closers = append(app.closers, client.Close)

		reconcilerOptions.Lock = reconciler.NewRedisPassLock(client, lockKey+guildID.String(), configuration.Redis.LockTTL)
	}

	notifier, err := newNotifier(app, restInterface)
	if err != nil {
		app.runClosers()

		return nil, err
	}

	app.bot, err = bot.New(bot.Options{
		Logger:        logger,
		Configuration: configuration,
		Session:       session,
		ApplicationID: applicationID,
		GuildID:       guildID,
		Reconciler:    reconciler.New(platform.NewDiscord(logger, session, guildID), reconcilerOptions),
		Redeploy:      newRedeployService(logger, configuration),
		Notifier:      notifier,
		Contestants:   newContestantService(ctx, logger, configuration),
	})
	if err != nil {
		app.runClosers()

		return nil, err
	}

	return app, nil
}

func (a *application) runClosers() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func newRedeployService(logger zerolog.Logger, configuration *config.Configuration) redeploy.Service {
	if configuration.Redeploy.Fake {
		logger.Warn().Msg("Using fake redeploy service")

		return &redeploy.Fake{}
	}

	problems := make([]string, 0, len(configuration.Problems))
	for _, problem := range configuration.Problems {
		problems = append(problems, problem.Code)
	}

	return redeploy.NewRState(logger, &http.Client{Timeout: configuration.Redeploy.Timeout}, redeploy.RStateOptions{
		BaseURL:  configuration.Redeploy.BaseURL,
		Username: configuration.Redeploy.Username,
		Password: configuration.Redeploy.Password,
		Problems: problems,
	})
}

func newContestantService(ctx context.Context, logger zerolog.Logger, configuration *config.Configuration) contestant.Service {
	contestants := configuration.Contestant

	var service contestant.Service = contestant.Fake{}

	if contestants.Fake {
		logger.Warn().Msg("Using fake contestant service")
	} else {
		service = contestant.NewRegalia(context.WithoutCancel(ctx), logger, contestants.BaseURL, contestants.Token)
	}

	return contestant.NewCachedService(service, contestants.CacheSize, contestants.CacheTTL)
}

// newNotifier connects every configured redeploy notification sink.
func newNotifier(app *application, restInterface discord.RESTInterface) (redeploy.Notifier, error) {
	notifiers := app.configuration.Notifiers

	var multi redeploy.MultiNotifier

	if len(notifiers.DiscordWebhookURLs) > 0 {
		multi = append(multi, redeploy.NewWebhookNotifier(app.logger, restInterface, notifiers.DiscordWebhookURLs))
	}

	if notifiers.NATS.Address != "" {
		conn, err := redeploy.ConnectNATS(notifiers.NATS.Address)
		if err != nil {
			return nil, err
		}

		app.closers = append(app.closers, func() error {
			conn.Close()

			return nil
		})

		multi = append(multi, redeploy.NewNATSNotifier(conn, notifiers.NATS.Subject))
	}

	if len(notifiers.Kafka.Addresses) > 0 {
		writer := redeploy.NewKafkaWriter(notifiers.Kafka.Addresses)
		app.closers = append(app.closers, writer.Close)

		multi = append(multi, redeploy.NewKafkaNotifier(writer, notifiers.Kafka.Topic))
	}

	if len(multi) == 0 {
		app.logger.Info().Msg("No redeploy notifiers configured")
	}

	return multi, nil
}
