package v1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"onegov.dev/electionday/internal/pkg/apperr"
)

func uuidParam(ctx *fiber.Ctx, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(key))
	if err != nil {
		return uuid.Nil, apperr.ErrInvalidReq.Msg("%s must be a valid uuid", key)
	}
	return id, nil
}

func int64Param(ctx *fiber.Ctx, key string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrInvalidReq.Msg("%s must be a positive integer", key)
	}
	return id, nil
}
