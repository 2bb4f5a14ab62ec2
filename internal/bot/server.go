package bot

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fasthttp/router"
	"github.com/ictsc/ictsc-discord-bot/botjson"
	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gotils_strconv "github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	headerSignature = "X-Signature-Ed25519"
	headerTimestamp = "X-Signature-Timestamp"

	contentTypeJSON = "application/json"

	serverName         = "ictsc-discord-bot"
	serverReadTimeout  = 5 * time.Second
	serverWriteTimeout = 5 * time.Second
)

// VerifySignature checks the ed25519 signature discord sends with every
// interaction. The signed message is the timestamp followed by the body.
func VerifySignature(publicKey ed25519.PublicKey, signature, timestamp, body []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(timestamp) == 0 {
		return false
	}

	decoded, err := hex.DecodeString(gotils_strconv.B2S(signature))
	if err != nil || len(decoded) != ed25519.SignatureSize {
		return false
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)

	return ed25519.Verify(publicKey, message, decoded)
}

// Router serves the interactions endpoint, prometheus metrics and a health check.
func (b *Bot) Router(interactionPath, metricsPath string) *router.Router {
	r := router.New()

	r.POST(interactionPath, b.logRequest(b.HandleInteractionRequest))
	r.GET(metricsPath, fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	return r
}

func (b *Bot) logRequest(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		defer func() {
			b.logger.Debug().
				Str("remote_addr", ctx.RemoteAddr().String()).
				Str("method", gotils_strconv.B2S(ctx.Method())).
				Str("path", gotils_strconv.B2S(ctx.Path())).
				Int("status", ctx.Response.StatusCode()).
				Dur("duration", time.Since(start)).
				Msg("Handled request")
		}()

		next(ctx)
	}
}

// HandleInteractionRequest verifies, decodes and answers an interaction delivered over HTTP.
func (b *Bot) HandleInteractionRequest(ctx *fasthttp.RequestCtx) {
	body := ctx.PostBody()

	if !VerifySignature(b.publicKey, ctx.Request.Header.Peek(headerSignature), ctx.Request.Header.Peek(headerTimestamp), body) {
		b.logger.Debug().Err(ErrInvalidSignature).Msg("Rejected interaction")

		ctx.Error(ErrInvalidSignature.Error(), fasthttp.StatusUnauthorized)

		return
	}

	var interaction discord.Interaction

	err := botjson.Unmarshal(body, &interaction)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to decode interaction")

		ctx.Error("invalid interaction", fasthttp.StatusBadRequest)

		return
	}

	response := b.HandleInteraction(&interaction)

	payload, err := botjson.Marshal(response)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to encode interaction response")

		ctx.Error(fasthttp.StatusMessage(fasthttp.StatusInternalServerError), fasthttp.StatusInternalServerError)

		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType(contentTypeJSON)
	ctx.SetBody(payload)
}

// Serve listens on address until ctx is cancelled.
func (b *Bot) Serve(ctx context.Context, address, interactionPath, metricsPath string) error {
	server := &fasthttp.Server{
		Handler:      b.Router(interactionPath, metricsPath).Handler,
		Name:         serverName,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	errs := make(chan error, 1)

	go func() {
		b.logger.Info().Str("address", address).Msg("Serving interactions")

		errs <- server.ListenAndServe(address)
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("failed to serve interactions: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverWriteTimeout)
	defer cancel()

	err := server.ShutdownWithContext(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
