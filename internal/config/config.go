package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	ErrReadConfigurationFailure = errors.New("failed to read configuration")
	ErrLoadConfigurationFailure = errors.New("failed to load configuration")
	ErrInvalidConfiguration     = errors.New("invalid configuration")
)

const (
	DefaultStaffRoleName     = "ICTSC2023 Staff"
	DefaultStaffCategoryName = "ICTSC2023 Staff"
	DefaultStaffRoleColour   = 14942278

	DefaultAnnounceChannelName = "announce"
	DefaultRandomChannelName   = "random"
	DefaultHelpChannelName     = "help"
	DefaultTextChannelName     = "text"
	DefaultVoiceChannelName    = "voice"

	DefaultTopicTemplate = `**__踏み台サーバ__**

ホスト名：{{ .Team.ID }}.bastion.ictsc.net
ユーザ名：user
パスワード：{{ .Team.InvitationCode }}

**__スコアサーバ__**

ユーザ登録URL：{{ .ScoreServerURL | trimSuffix "/" }}/signup?invitation_code={{ .Team.InvitationCode | urlquery }}&user_group_id={{ .Team.UserGroupID | urlquery }}`

	DefaultScoreServerURL = "https://contest.ictsc.net"

	DefaultListenAddress   = ":8080"
	DefaultMetricsPath     = "/metrics"
	DefaultInteractionPath = "/interactions"

	DefaultContestantCacheSize = 512
	DefaultContestantCacheTTL  = 5 * time.Minute
	DefaultLockTTL             = 5 * time.Minute
)

// Environment variables that take precedence over values from the file.
const (
	EnvDiscordToken     = "DISCORD_TOKEN"
	EnvStaffPassword    = "STAFF_PASSWORD"
	EnvRedeployPassword = "REDEPLOY_PASSWORD"
	EnvContestantToken  = "CONTESTANT_TOKEN"
	EnvRedisPassword    = "REDIS_PASSWORD"
)

// Configuration is the on-disk bot configuration.
type Configuration struct {
	Discord    DiscordConfiguration    `yaml:"discord"`
	Staff      StaffConfiguration      `yaml:"staff"`
	Teams      []Team                  `yaml:"teams"`
	Problems   []Problem               `yaml:"problems"`
	Channels   ChannelConfiguration    `yaml:"channels"`
	Redeploy   RedeployConfiguration   `yaml:"redeploy"`
	Notifiers  NotifierConfiguration   `yaml:"notifiers"`
	Contestant ContestantConfiguration `yaml:"contestant"`
	Redis      RedisConfiguration      `yaml:"redis"`
	Reconciler ReconcilerConfiguration `yaml:"reconciler"`
	Server     ServerConfiguration     `yaml:"server"`
	Schedule   ScheduleConfiguration   `yaml:"schedule"`
	Logging    LoggingConfiguration    `yaml:"logging"`
}

type DiscordConfiguration struct {
	Token            string   `yaml:"token"`
	ApplicationID    string   `yaml:"application_id"`
	GuildID          string   `yaml:"guild_id"`
	PublicKey        string   `yaml:"public_key"`
	// ProxyURL sends REST requests through a ratelimit proxy such as nirn instead of discord.com.
	ProxyURL         string   `yaml:"proxy_url"`
	DisabledCommands []string `yaml:"disabled_commands"`
	Debug            bool     `yaml:"debug"`
}

type StaffConfiguration struct {
	Password     string `yaml:"password"`
	RoleName     string `yaml:"role_name"`
	CategoryName string `yaml:"category_name"`
	Colour       int32  `yaml:"colour"`
}

// Team is a contestant team. RoleName names both the team role and the team category.
type Team struct {
	ID             string `yaml:"id"`
	RoleName       string `yaml:"role_name"`
	InvitationCode string `yaml:"invitation_code"`
	UserGroupID    string `yaml:"user_group_id"`
}

type Problem struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type ChannelConfiguration struct {
	AnnounceName    string `yaml:"announce_name"`
	RandomName      string `yaml:"random_name"`
	HelpName        string `yaml:"help_name"`
	TextName        string `yaml:"text_name"`
	VoiceName       string `yaml:"voice_name"`
	ConfigureTopics bool   `yaml:"configure_topics"`
	TopicTemplate   string `yaml:"topic_template"`
	ScoreServerURL  string `yaml:"score_server_url"`
}

type RedeployConfiguration struct {
	Fake     bool          `yaml:"fake"`
	BaseURL  string        `yaml:"baseurl"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type NotifierConfiguration struct {
	DiscordWebhookURLs []string           `yaml:"discord_webhook_urls"`
	NATS               NATSConfiguration  `yaml:"nats"`
	Kafka              KafkaConfiguration `yaml:"kafka"`
}

type NATSConfiguration struct {
	Address string `yaml:"address"`
	Subject string `yaml:"subject"`
}

type KafkaConfiguration struct {
	Addresses []string `yaml:"addresses"`
	Topic     string   `yaml:"topic"`
}

type ContestantConfiguration struct {
	Fake      bool          `yaml:"fake"`
	BaseURL   string        `yaml:"baseurl"`
	Token     string        `yaml:"token"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type RedisConfiguration struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type ReconcilerConfiguration struct {
	AmbiguityPolicy string `yaml:"ambiguity_policy"`
	Parallelism     int    `yaml:"parallelism"`
}

type ServerConfiguration struct {
	Listen          string `yaml:"listen"`
	InteractionPath string `yaml:"interaction_path"`
	MetricsPath     string `yaml:"metrics_path"`
}

type ScheduleConfiguration struct {
	// Sync is a cron spec for periodic full syncs. Empty disables scheduling.
	Sync string `yaml:"sync"`
}

type LoggingConfiguration struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load reads the yaml file at path, applies environment overrides from the
// process environment and an optional .env file, fills defaults and validates.
func Load(path string) (*Configuration, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadConfigurationFailure, err)
	}

	configuration, err := Parse(file)
	if err != nil {
		return nil, err
	}

	return configuration, nil
}

// Parse decodes, overlays the environment, defaults and validates a configuration document.
func Parse(data []byte) (*Configuration, error) {
	var configuration Configuration

	err := yaml.Unmarshal(data, &configuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfigurationFailure, err)
	}

	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	configuration.applyEnvironment()
	configuration.applyDefaults()

	err = configuration.Validate()
	if err != nil {
		return nil, err
	}

	return &configuration, nil
}

func (c *Configuration) applyEnvironment() {
	overrides := map[string]*string{
		EnvDiscordToken:     &c.Discord.Token,
		EnvStaffPassword:    &c.Staff.Password,
		EnvRedeployPassword: &c.Redeploy.Password,
		EnvContestantToken:  &c.Contestant.Token,
		EnvRedisPassword:    &c.Redis.Password,
	}

	for name, field := range overrides {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			*field = value
		}
	}
}

func (c *Configuration) applyDefaults() {
	setDefault(&c.Staff.RoleName, DefaultStaffRoleName)
	setDefault(&c.Staff.CategoryName, DefaultStaffCategoryName)

	if c.Staff.Colour == 0 {
		c.Staff.Colour = DefaultStaffRoleColour
	}

	setDefault(&c.Channels.AnnounceName, DefaultAnnounceChannelName)
	setDefault(&c.Channels.RandomName, DefaultRandomChannelName)
	setDefault(&c.Channels.HelpName, DefaultHelpChannelName)
	setDefault(&c.Channels.TextName, DefaultTextChannelName)
	setDefault(&c.Channels.VoiceName, DefaultVoiceChannelName)
	setDefault(&c.Channels.TopicTemplate, DefaultTopicTemplate)
	setDefault(&c.Channels.ScoreServerURL, DefaultScoreServerURL)

	setDefault(&c.Server.Listen, DefaultListenAddress)
	setDefault(&c.Server.MetricsPath, DefaultMetricsPath)
	setDefault(&c.Server.InteractionPath, DefaultInteractionPath)

	setDefault(&c.Reconciler.AmbiguityPolicy, "delete_all")
	setDefault(&c.Logging.Level, "info")
	setDefault(&c.Notifiers.NATS.Subject, "ictsc.redeploy")
	setDefault(&c.Notifiers.Kafka.Topic, "ictsc.redeploy")

	if c.Contestant.CacheSize <= 0 {
		c.Contestant.CacheSize = DefaultContestantCacheSize
	}

	if c.Contestant.CacheTTL <= 0 {
		c.Contestant.CacheTTL = DefaultContestantCacheTTL
	}

	if c.Redis.LockTTL <= 0 {
		c.Redis.LockTTL = DefaultLockTTL
	}

	if c.Redeploy.Timeout <= 0 {
		c.Redeploy.Timeout = 10 * time.Second
	}

	if c.Reconciler.Parallelism < 0 {
		c.Reconciler.Parallelism = 0
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate checks invariants the definition builders rely on.
func (c *Configuration) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is empty: %w", ErrInvalidConfiguration)
	}

	if c.Discord.GuildID == "" {
		return fmt.Errorf("discord guild_id is empty: %w", ErrInvalidConfiguration)
	}

	if c.Staff.Password == "" {
		return fmt.Errorf("staff password is empty: %w", ErrInvalidConfiguration)
	}

	roleNames := map[string]bool{c.Staff.RoleName: true}
	codes := map[string]bool{}
	ids := map[string]bool{}

	for _, team := range c.Teams {
		if team.ID == "" || team.RoleName == "" {
			return fmt.Errorf("team %q must have an id and a role_name: %w", team.ID, ErrInvalidConfiguration)
		}

		if ids[team.ID] {
			return fmt.Errorf("team id %q is duplicated: %w", team.ID, ErrInvalidConfiguration)
		}

		if roleNames[team.RoleName] {
			return fmt.Errorf("role name %q is duplicated: %w", team.RoleName, ErrInvalidConfiguration)
		}

		if team.InvitationCode == "" {
			return fmt.Errorf("team %q has no invitation code: %w", team.ID, ErrInvalidConfiguration)
		}

		if codes[team.InvitationCode] || team.InvitationCode == c.Staff.Password {
			return fmt.Errorf("invitation code of team %q is not unique: %w", team.ID, ErrInvalidConfiguration)
		}

		ids[team.ID] = true
		roleNames[team.RoleName] = true
		codes[team.InvitationCode] = true
	}

	problemCodes := map[string]bool{}

	for _, problem := range c.Problems {
		if problem.Code == "" {
			return fmt.Errorf("problem %q has no code: %w", problem.Name, ErrInvalidConfiguration)
		}

		if problemCodes[problem.Code] {
			return fmt.Errorf("problem code %q is duplicated: %w", problem.Code, ErrInvalidConfiguration)
		}

		problemCodes[problem.Code] = true
	}

	if c.Staff.CategoryName == c.Channels.AnnounceName || c.Staff.CategoryName == c.Channels.RandomName {
		return fmt.Errorf("staff category name collides with a public channel: %w", ErrInvalidConfiguration)
	}

	textNames := map[string]string{
		"announce_name": c.Channels.AnnounceName,
		"random_name":   c.Channels.RandomName,
		"help_name":     c.Channels.HelpName,
		"text_name":     c.Channels.TextName,
	}

	for field, name := range textNames {
		if !validTextChannelName(name) {
			return fmt.Errorf("channels %s %q must be lowercase without spaces: %w", field, name, ErrInvalidConfiguration)
		}
	}

	switch c.Reconciler.AmbiguityPolicy {
	case "delete_all", "keep_first":
	default:
		return fmt.Errorf("unknown ambiguity policy %q: %w", c.Reconciler.AmbiguityPolicy, ErrInvalidConfiguration)
	}

	if !c.Redeploy.Fake && c.Redeploy.BaseURL == "" && len(c.Problems) > 0 {
		return fmt.Errorf("redeploy baseurl is empty and fake is not set: %w", ErrInvalidConfiguration)
	}

	if !c.Contestant.Fake && c.Contestant.BaseURL == "" {
		return fmt.Errorf("contestant baseurl is empty and fake is not set: %w", ErrInvalidConfiguration)
	}

	return nil
}

// validTextChannelName reports whether discord keeps name unchanged for a
// text channel. Discord lowercases text channel names and replaces spaces, so
// any other name would never match the remote channel.
func validTextChannelName(name string) bool {
	return name != "" && strings.ToLower(name) == name && !strings.ContainsFunc(name, unicode.IsSpace)
}

// TeamByInvitationCode finds a team by its invitation code.
func (c *Configuration) TeamByInvitationCode(code string) (Team, bool) {
	for _, team := range c.Teams {
		if team.InvitationCode == code {
			return team, true
		}
	}

	return Team{}, false
}

// TeamByID finds a team by its id.
func (c *Configuration) TeamByID(id string) (Team, bool) {
	for _, team := range c.Teams {
		if team.ID == id {
			return team, true
		}
	}

	return Team{}, false
}

// ProblemByCode finds a problem by its code.
func (c *Configuration) ProblemByCode(code string) (Problem, bool) {
	for _, problem := range c.Problems {
		if problem.Code == code {
			return problem, true
		}
	}

	return Problem{}, false
}

// CommandDisabled reports whether name is listed in discord.disabled_commands.
func (c *Configuration) CommandDisabled(name string) bool {
	for _, disabled := range c.Discord.DisabledCommands {
		if disabled == name {
			return true
		}
	}

	return false
}
