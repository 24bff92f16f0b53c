package httpserver

import (
	"strconv"

	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/pkg/apperr"
)

func handleCustomError(ctx *fiber.Ctx, e *apperr.Error) error {
	log.Warn().
		Str("evt.name", "http.error").
		Err(e).
		Str("method", ctx.Method()).
		Str("path", ctx.Path()).
		Msg(e.Message)

	body := fiber.Map{
		"code":    e.ErrorCode,
		"message": e.Message,
	}
	for k, v := range e.Extras {
		body[k] = v
	}

	return ctx.Status(e.StatusCode).JSON(body)
}

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return handleCustomError(ctx, e)
	}

	// *fiber.Error are raised by fiber itself, e.g. for unknown routes
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := apperr.CodeInternalError
		switch {
		case fe.Code == fiber.StatusNotFound:
			code = apperr.CodeNotFound
		case fe.Code < fiber.StatusInternalServerError:
			code = apperr.CodeInvalidRequest
		}
		return handleCustomError(ctx, apperr.New(fe.Code, code, fe.Message))
	}

	re := apperr.ErrInternalError

	log.Error().
		Stack().
		Err(err).
		Str("evt.name", "http.error.unexpected").
		Str("method", ctx.Method()).
		Str("path", ctx.Path()).
		Int("status", re.StatusCode).
		Msg("Internal Server Error")

	if hub := fibersentry.GetHubFromContext(ctx); hub != nil {
		hub.Scope().SetTag("status", strconv.Itoa(re.StatusCode))
		hub.CaptureException(err)
	}

	return handleCustomError(ctx, re)
}
