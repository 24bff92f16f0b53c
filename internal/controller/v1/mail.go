package v1

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/mailqueue"
	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/server/svr"
	"onegov.dev/electionday/internal/service"
)

type Mail struct {
	fx.In

	MailService *service.Mail
}

func RegisterMail(v1 *svr.V1, c Mail) {
	v1.Post("/mail", c.EnqueueMail)
}

// EnqueueMail only queues the message. Delivery happens in the mail worker
// or with `electionday mail deliver`.
func (c *Mail) EnqueueMail(ctx *fiber.Ctx) error {
	var msg mailqueue.Message
	if err := ctx.BodyParser(&msg); err != nil {
		return apperr.ErrInvalidReq.Msg("invalid message: %s", err.Error())
	}

	name, err := c.MailService.Enqueue(&msg)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"file": name,
	})
}
