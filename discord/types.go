package discord

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/ictsc/ictsc-discord-bot/botjson"
)

const (
	DiscordCreation = 1420070400000
)

var null = []byte("null")

// Snowflake is a discord id. Discord sends these as strings.
type Snowflake int64

func (s *Snowflake) IsNil() bool {
	return *s == 0
}

func parseQuotedInt(b []byte) (int64, error) {
	if len(b) >= 2 && b[0] == '"' {
		b = b[1 : len(b)-1]
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to unmarshal json: %w", err)
	}

	return i, nil
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*s = 0

		return nil
	}

	i, err := parseQuotedInt(b)
	if err != nil {
		return err
	}

	*s = Snowflake(i)

	return nil
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(s)), nil
}

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// Time returns the creation time of the Snowflake.
func (s Snowflake) Time() time.Time {
	nsec := (int64(s) >> 22) + DiscordCreation

	return time.Unix(0, nsec*1000000)
}

// ParseSnowflake parses a decimal snowflake.
func ParseSnowflake(value string) (Snowflake, error) {
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", value, err)
	}

	return Snowflake(i), nil
}

// Int64 is used for permission bitsets, which discord serialises as strings.
type Int64 int64

func (in *Int64) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*in = 0

		return nil
	}

	i, err := parseQuotedInt(b)
	if err != nil {
		return err
	}

	*in = Int64(i)

	return nil
}

func (in Int64) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(in)), nil
}

func (in Int64) String() string {
	return strconv.FormatInt(int64(in), 10)
}

func int64ToStringBytes(s int64) []byte {
	buf := make([]byte, 0, 24)

	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, s, 10)
	buf = append(buf, '"')

	return buf
}

type Timestamp string

// Time parses the timestamp, returning the zero time when it is empty or malformed.
func (t Timestamp) Time() time.Time {
	parsed, err := time.Parse(time.RFC3339, string(t))
	if err != nil {
		return time.Time{}
	}

	return parsed
}

// List marshals to [] rather than null when empty.
type List[T any] []T

func (l List[T]) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("[]"), nil
	}

	return botjson.Marshal([]T(l))
}

type (
	SnowflakeList        = List[Snowflake]
	RoleList             = List[Role]
	ChannelList          = List[Channel]
	ChannelOverwriteList = List[ChannelOverwrite]
	EmbedList            = List[Embed]
	EmbedFieldList       = List[EmbedField]
)
