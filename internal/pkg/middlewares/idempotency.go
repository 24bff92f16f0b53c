package middlewares

import (
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/util/rekuest"
)

const idempotencyKeyLengthLimit = 128

type IdempotencyConfig struct {
	// Lifetime is the maximum lifetime of an idempotency key.
	Lifetime time.Duration

	// KeyHeader is the name of the header that contains the idempotency key.
	KeyHeader string

	// KeepResponseHeaders is a list of headers that should be kept from the original response.
	// By default, all headers are kept.
	KeepResponseHeaders []string

	// Storage is the storage backend for the idempotency key & its response data.
	Storage fiber.Storage

	RedSync *redsync.Redsync
}

type idempotencyResponse struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Idempotency replays the saved response of a request that was sent with the
// same key before. Failed requests are not saved, so they can be retried.
func Idempotency(config IdempotencyConfig) fiber.Handler {
	keep := make(map[string]struct{}, len(config.KeepResponseHeaders))
	for _, header := range config.KeepResponseHeaders {
		keep[strings.ToLower(header)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		key := c.Get(config.KeyHeader)
		if key == "" {
			return c.Next()
		}

		if err := rekuest.ValidVar(key, "max=128,alphanum"); err != nil {
			return apperr.ErrInvalidReq.Msg("invalid idempotency key: idempotency key can only be at most %d characters, consist of only alphanumeric characters", idempotencyKeyLengthLimit)
		}
		c.Locals(LocalsIdempotencyKey, key)

		if hit, err := replay(c, config.Storage, key); hit {
			return err
		}

		mutex := config.RedSync.NewMutex("mutex:idempotency-request:"+key,
			redsync.WithExpiry(time.Minute),
			redsync.WithTries(5),
			redsync.WithRetryDelay(time.Millisecond*250))

		if err := mutex.LockContext(c.UserContext()); err != nil {
			log.Warn().
				Err(err).
				Str("evt.name", "http.idempotency.lock.failed").
				Str("key", key).
				Msg("failed to lock idempotency key")
			return apperr.ErrConflict.Msg("idempotency key is locked by another request; are you sending the same request concurrently?")
		}
		defer func() {
			if _, err := mutex.Unlock(); err != nil {
				log.Error().
					Err(err).
					Str("evt.name", "http.idempotency.unlock.failed").
					Str("key", key).
					Msg("failed to unlock idempotency key")
			}
		}()

		// the request holding the lock before may have saved a response
		if hit, err := replay(c, config.Storage, key); hit {
			return err
		}

		if err := c.Next(); err != nil {
			return err
		}
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return nil
		}

		response := idempotencyResponse{
			StatusCode: c.Response().StatusCode(),
			Headers:    map[string][]string{},
			Body:       c.Response().Body(),
		}
		for header, values := range c.GetRespHeaders() {
			if _, ok := keep[strings.ToLower(header)]; ok || len(keep) == 0 {
				response.Headers[header] = values
			}
		}

		data, err := msgpack.Marshal(response)
		if err != nil {
			return err
		}
		if err := config.Storage.Set(key, data, config.Lifetime); err != nil {
			log.Error().
				Err(err).
				Str("evt.name", "http.idempotency.response.save.failed").
				Str("key", key).
				Msg("failed to save idempotency response")
			return err
		}

		c.Set(IdempotencyHeader, "saved")
		return nil
	}
}

func replay(c *fiber.Ctx, storage fiber.Storage, key string) (bool, error) {
	data, err := storage.Get(key)
	if err != nil || data == nil {
		return false, nil
	}

	var response idempotencyResponse
	if err := msgpack.Unmarshal(data, &response); err != nil {
		return true, err
	}

	log.Debug().
		Str("evt.name", "http.idempotency.hit").
		Str("key", key).
		Msg("replaying saved response")

	c.Status(response.StatusCode)
	for header, values := range response.Headers {
		for _, value := range values {
			c.Response().Header.Add(header, value)
		}
	}
	c.Set(IdempotencyHeader, "hit")
	if len(response.Body) > 0 {
		return true, c.Send(response.Body)
	}
	return true, nil
}
