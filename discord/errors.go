package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ictsc/ictsc-discord-bot/botjson"
)

var (
	ErrUnauthorized = errors.New("improper token was passed")
	ErrEmptyGuildID = errors.New("guild id must be set")
)

// RestError contains the error structure that is returned by discord.
type RestError struct {
	Request      *http.Request
	Response     *http.Response
	Message      *ErrorMessage
	ResponseBody []byte
}

// ErrorMessage represents a basic error message.
type ErrorMessage struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Code    int32           `json:"code"`
}

func NewRestError(req *http.Request, resp *http.Response, body []byte) *RestError {
	var errorMessage ErrorMessage

	_ = botjson.Unmarshal(body, &errorMessage)

	return &RestError{
		Request:      req,
		Response:     resp,
		ResponseBody: body,
		Message:      &errorMessage,
	}
}

func (r *RestError) Error() string {
	return fmt.Sprintf("%s %s: %s: %s", r.Request.Method, r.Request.URL.Path, r.Response.Status, r.Message.Message)
}

// StatusCode returns the HTTP status of a RestError anywhere in err's chain, or 0.
func StatusCode(err error) int {
	var restError *RestError
	if errors.As(err, &restError) && restError.Response != nil {
		return restError.Response.StatusCode
	}

	return 0
}
