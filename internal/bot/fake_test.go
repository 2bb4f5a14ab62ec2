package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ictsc/ictsc-discord-bot/botjson"
	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/ictsc/ictsc-discord-bot/internal/config"
	"github.com/ictsc/ictsc-discord-bot/internal/platform"
	"github.com/ictsc/ictsc-discord-bot/internal/reconciler"
	"github.com/ictsc/ictsc-discord-bot/internal/services/contestant"
	"github.com/ictsc/ictsc-discord-bot/internal/services/redeploy"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID       discord.Snowflake = 1000
	testApplicationID discord.Snowflake = 2000
	testUserID        discord.Snowflake = 3000
	testOtherUserID   discord.Snowflake = 3001
	testChannelID     discord.Snowflake = 4000
	testToken                           = "interaction-token"
)

// fakeDiscord is an in-memory guild served over the REST routes the bot uses.
// Overwrites are stored in reverse order to mimic discord reordering them.
type fakeDiscord struct {
	t *testing.T

	mu       sync.Mutex
	nextID   discord.Snowflake
	roles    []discord.Role
	channels []discord.Channel
	members  map[discord.Snowflake]*discord.GuildMember
	messages map[string]discord.MessageParams
	requests []string
	commands map[string][]discord.ApplicationCommand
}

func newFakeDiscord(t *testing.T) *fakeDiscord {
	t.Helper()

	return &fakeDiscord{
		t:      t,
		nextID: 5000,
		roles: []discord.Role{
			{ID: testGuildID, Name: reconciler.EveryoneRoleName},
		},
		members:  make(map[discord.Snowflake]*discord.GuildMember),
		messages: make(map[string]discord.MessageParams),
		commands: make(map[string][]discord.ApplicationCommand),
	}
}

func (f *fakeDiscord) id() discord.Snowflake {
	f.nextID++

	return f.nextID
}

func (f *fakeDiscord) addMember(userID discord.Snowflake, roles ...discord.Snowflake) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.members[userID] = &discord.GuildMember{
		User:  &discord.User{ID: userID, Username: "user-" + userID.String()},
		Roles: roles,
	}
}

func (f *fakeDiscord) memberRoles(userID discord.Snowflake) []discord.Snowflake {
	f.mu.Lock()
	defer f.mu.Unlock()

	member, ok := f.members[userID]
	if !ok {
		return nil
	}

	return slices.Clone(member.Roles)
}

func (f *fakeDiscord) roleID(name string) discord.Snowflake {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, role := range f.roles {
		if role.Name == name {
			return role.ID
		}
	}

	f.t.Fatalf("no role named %s", name)

	return 0
}

func (f *fakeDiscord) channel(id discord.Snowflake) (discord.Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, channel := range f.channels {
		if channel.ID == id {
			return channel, true
		}
	}

	return discord.Channel{}, false
}

func (f *fakeDiscord) addChannel(channel discord.Channel) discord.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()

	if channel.ID == 0 {
		channel.ID = f.id()
	}

	f.channels = append(f.channels, channel)

	return channel
}

func (f *fakeDiscord) channelsOfType(kind discord.ChannelType) []discord.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()

	var channels []discord.Channel

	for _, channel := range f.channels {
		if channel.Type == kind {
			channels = append(channels, channel)
		}
	}

	return channels
}

func (f *fakeDiscord) message(key string) (discord.MessageParams, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	message, ok := f.messages[key]

	return message, ok
}

// mutations returns and clears every recorded request that is not a GET.
func (f *fakeDiscord) mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var mutations []string

	for _, request := range f.requests {
		if !strings.HasPrefix(request, http.MethodGet) {
			mutations = append(mutations, request)
		}
	}

	f.requests = nil

	return mutations
}

func reversed(overwrites discord.ChannelOverwriteList) discord.ChannelOverwriteList {
	overwrites = slices.Clone(overwrites)
	slices.Reverse(overwrites)

	return overwrites
}

func (f *fakeDiscord) decode(r *http.Request, v any) {
	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)
	require.NoError(f.t, botjson.Unmarshal(body, v))
}

func (f *fakeDiscord) write(w http.ResponseWriter, v any) {
	payload, err := botjson.Marshal(v)
	require.NoError(f.t, err)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func (f *fakeDiscord) handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern string, handler func(w http.ResponseWriter, r *http.Request)) {
		method, path, _ := strings.Cut(pattern, " ")

		mux.HandleFunc(method+" /api/v10"+path, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()

			f.requests = append(f.requests, r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api/v10"))

			handler(w, r)
		})
	}

	snowflake := func(r *http.Request, name string) discord.Snowflake {
		id, err := discord.ParseSnowflake(r.PathValue(name))
		require.NoError(f.t, err)

		return id
	}

	route("GET /guilds/{guild}/roles", func(w http.ResponseWriter, _ *http.Request) {
		f.write(w, f.roles)
	})

	route("POST /guilds/{guild}/roles", func(w http.ResponseWriter, r *http.Request) {
		var params discord.RoleParams
		f.decode(r, &params)

		role := discord.Role{
			ID:          f.id(),
			Name:        params.Name,
			Permissions: params.Permissions,
			Color:       params.Color,
			Hoist:       params.Hoist,
			Mentionable: params.Mentionable,
		}
		f.roles = append(f.roles, role)

		f.write(w, role)
	})

	route("PATCH /guilds/{guild}/roles/{role}", func(w http.ResponseWriter, r *http.Request) {
		var params discord.RoleParams
		f.decode(r, &params)

		id := snowflake(r, "role")

		for i := range f.roles {
			if f.roles[i].ID == id {
				f.roles[i].Name = params.Name
				f.roles[i].Permissions = params.Permissions
				f.roles[i].Color = params.Color
				f.roles[i].Hoist = params.Hoist
				f.roles[i].Mentionable = params.Mentionable

				f.write(w, f.roles[i])

				return
			}
		}

		http.NotFound(w, r)
	})

	route("DELETE /guilds/{guild}/roles/{role}", func(w http.ResponseWriter, r *http.Request) {
		id := snowflake(r, "role")
		f.roles = slices.DeleteFunc(f.roles, func(role discord.Role) bool { return role.ID == id })

		w.WriteHeader(http.StatusNoContent)
	})

	route("GET /guilds/{guild}/channels", func(w http.ResponseWriter, _ *http.Request) {
		f.write(w, f.channels)
	})

	route("POST /guilds/{guild}/channels", func(w http.ResponseWriter, r *http.Request) {
		var params discord.ChannelParams
		f.decode(r, &params)

		channel := discord.Channel{
			ID:                   f.id(),
			Name:                 params.Name,
			Type:                 params.Type,
			ParentID:             params.ParentID,
			PermissionOverwrites: reversed(params.PermissionOverwrites),
		}

		if params.Topic != nil {
			channel.Topic = *params.Topic
		}

		f.channels = append(f.channels, channel)

		f.write(w, channel)
	})

	route("PATCH /channels/{channel}", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(f.t, err)

		var fields map[string]json.RawMessage
		require.NoError(f.t, botjson.Unmarshal(body, &fields))

		id := snowflake(r, "channel")

		for i := range f.channels {
			if f.channels[i].ID != id {
				continue
			}

			if _, ok := fields["archived"]; ok {
				var params discord.ModifyThreadParams
				require.NoError(f.t, botjson.Unmarshal(body, &params))

				f.channels[i].ThreadMetadata = &discord.ThreadMetadata{Archived: *params.Archived}
			} else {
				var params discord.ModifyChannelParams
				require.NoError(f.t, botjson.Unmarshal(body, &params))

				f.channels[i].Name = params.Name
				f.channels[i].ParentID = params.ParentID
				f.channels[i].PermissionOverwrites = reversed(params.PermissionOverwrites)
				f.channels[i].Topic = ""

				if params.Topic != nil {
					f.channels[i].Topic = *params.Topic
				}
			}

			f.write(w, f.channels[i])

			return
		}

		http.NotFound(w, r)
	})

	route("DELETE /channels/{channel}", func(w http.ResponseWriter, r *http.Request) {
		id := snowflake(r, "channel")
		f.channels = slices.DeleteFunc(f.channels, func(channel discord.Channel) bool { return channel.ID == id })

		w.WriteHeader(http.StatusNoContent)
	})

	route("GET /guilds/{guild}/members/{user}", func(w http.ResponseWriter, r *http.Request) {
		member, ok := f.members[snowflake(r, "user")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Unknown Member","code":10007}`)

			return
		}

		f.write(w, member)
	})

	route("PUT /guilds/{guild}/members/{user}/roles/{role}", func(w http.ResponseWriter, r *http.Request) {
		member := f.members[snowflake(r, "user")]
		member.Roles = append(member.Roles, snowflake(r, "role"))

		w.WriteHeader(http.StatusNoContent)
	})

	route("DELETE /guilds/{guild}/members/{user}/roles/{role}", func(w http.ResponseWriter, r *http.Request) {
		member := f.members[snowflake(r, "user")]
		role := snowflake(r, "role")
		member.Roles = slices.DeleteFunc(member.Roles, func(id discord.Snowflake) bool { return id == role })

		w.WriteHeader(http.StatusNoContent)
	})

	route("GET /webhooks/{application}/{token}/messages/@original", func(w http.ResponseWriter, _ *http.Request) {
		f.write(w, discord.Message{ID: 7000, ChannelID: testChannelID})
	})

	route("PATCH /webhooks/{application}/{token}/messages/@original", func(w http.ResponseWriter, r *http.Request) {
		var params discord.MessageParams
		f.decode(r, &params)

		f.messages["original:"+r.PathValue("token")] = params

		f.write(w, discord.Message{ID: 7000, ChannelID: testChannelID, Content: params.Content})
	})

	route("POST /webhooks/{application}/{token}", func(w http.ResponseWriter, r *http.Request) {
		var params discord.MessageParams
		f.decode(r, &params)

		f.messages["followup:"+r.PathValue("token")] = params

		f.write(w, discord.Message{ID: f.id(), Content: params.Content})
	})

	route("POST /channels/{channel}/messages/{message}/threads", func(w http.ResponseWriter, r *http.Request) {
		var params discord.ThreadParams
		f.decode(r, &params)

		parent := snowflake(r, "channel")
		thread := discord.Channel{
			ID:       f.id(),
			Name:     params.Name,
			Type:     discord.ChannelTypeGuildPublicThread,
			ParentID: &parent,
		}
		f.channels = append(f.channels, thread)

		f.write(w, thread)
	})

	route("POST /channels/{channel}/messages", func(w http.ResponseWriter, r *http.Request) {
		var params discord.MessageParams
		f.decode(r, &params)

		f.messages["channel:"+r.PathValue("channel")] = params

		f.write(w, discord.Message{ID: f.id(), Content: params.Content})
	})

	route("PUT /applications/{application}/commands", func(w http.ResponseWriter, r *http.Request) {
		var commands []discord.ApplicationCommand
		f.decode(r, &commands)

		f.commands["global"] = f.withIDs(commands)
		f.write(w, f.commands["global"])
	})

	route("PUT /applications/{application}/guilds/{guild}/commands", func(w http.ResponseWriter, r *http.Request) {
		var commands []discord.ApplicationCommand
		f.decode(r, &commands)

		f.commands["guild"] = f.withIDs(commands)
		f.write(w, f.commands["guild"])
	})

	route("GET /applications/{application}/commands", func(w http.ResponseWriter, _ *http.Request) {
		f.write(w, f.commands["global"])
	})

	route("GET /applications/{application}/guilds/{guild}/commands", func(w http.ResponseWriter, _ *http.Request) {
		f.write(w, f.commands["guild"])
	})

	route("DELETE /applications/{application}/commands/{command}", func(w http.ResponseWriter, r *http.Request) {
		f.commands["global"] = f.withoutCommand(f.commands["global"], snowflake(r, "command"))

		w.WriteHeader(http.StatusNoContent)
	})

	route("DELETE /applications/{application}/guilds/{guild}/commands/{command}", func(w http.ResponseWriter, r *http.Request) {
		f.commands["guild"] = f.withoutCommand(f.commands["guild"], snowflake(r, "command"))

		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func (f *fakeDiscord) withIDs(commands []discord.ApplicationCommand) []discord.ApplicationCommand {
	for i := range commands {
		id := f.id()
		commands[i].ID = &id
	}

	return commands
}

func (f *fakeDiscord) withoutCommand(commands []discord.ApplicationCommand, id discord.Snowflake) []discord.ApplicationCommand {
	return slices.DeleteFunc(commands, func(command discord.ApplicationCommand) bool {
		return command.ID != nil && *command.ID == id
	})
}

func testConfiguration() *config.Configuration {
	configuration, err := config.Parse([]byte(`
discord:
  token: Bot token
  application_id: "2000"
  guild_id: "1000"
staff:
  password: staff-password
  role_name: staff
  category_name: staff
teams:
  - id: "1"
    role_name: team-a
    invitation_code: AAAA
    user_group_id: group-a
  - id: "2"
    role_name: team-b
    invitation_code: BBBB
    user_group_id: group-b
problems:
  - code: abc
    name: 問題ABC
  - code: def
    name: 問題DEF
channels:
  configure_topics: true
redeploy:
  fake: true
contestant:
  fake: true
`))
	if err != nil {
		panic(err)
	}

	return configuration
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []redeploy.Event
}

func (n *recordingNotifier) Notify(_ context.Context, target redeploy.Target, job redeploy.Job, err error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, redeploy.NewEvent(target, job, err, testNow()))

	return nil
}

func (n *recordingNotifier) recorded() []redeploy.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	return slices.Clone(n.events)
}

type testBot struct {
	*Bot

	discord  *fakeDiscord
	notifier *recordingNotifier
}

type testBotOption func(options *Options)

func newTestBot(t *testing.T, configure ...testBotOption) *testBot {
	t.Helper()

	fake := newFakeDiscord(t)

	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	restInterface := discord.NewInterface(server.Client(), zerolog.Nop(), server.URL, discord.APIVersion, discord.UserAgent)
	session := discord.NewSession(context.Background(), "Bot token", restInterface)

	notifier := &recordingNotifier{}

	options := Options{
		Logger:        zerolog.Nop(),
		Configuration: testConfiguration(),
		Session:       session,
		ApplicationID: testApplicationID,
		GuildID:       testGuildID,
		Reconciler: reconciler.New(platform.NewDiscord(zerolog.Nop(), session, testGuildID), reconciler.Options{
			Logger: zerolog.Nop(),
		}),
		Redeploy:    &redeploy.Fake{Now: testNow},
		Notifier:    notifier,
		Contestants: contestant.Fake{},
		Now:         testNow,
	}

	for _, fn := range configure {
		fn(&options)
	}

	b, err := New(options)
	require.NoError(t, err)

	t.Cleanup(b.Close)

	return &testBot{Bot: b, discord: fake, notifier: notifier}
}
