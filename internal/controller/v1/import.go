package v1

import (
	"io"
	"mime/multipart"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/importer"
	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/pkg/cachectrl"
	"onegov.dev/electionday/internal/pkg/fiberstore"
	"onegov.dev/electionday/internal/pkg/middlewares"
	"onegov.dev/electionday/internal/server/svr"
	"onegov.dev/electionday/internal/service"
	"onegov.dev/electionday/internal/util/rekuest"
)

const (
	importIdempotencyLifetime  = time.Hour * 24
	importIdempotencyKeyPrefix = "idempotency:import:"
)

type Import struct {
	fx.In

	Redis         *redis.Client
	RedSync       *redsync.Redsync
	ImportService *service.Import
}

func RegisterImport(v1 *svr.V1, c Import) {
	v1.Post("/elections/:electionId/import/wabsti", c.ImportWabsti)
	v1.Post("/elections/:electionId/import/wabstic", middlewares.Idempotency(middlewares.IdempotencyConfig{
		Lifetime:  importIdempotencyLifetime,
		KeyHeader: middlewares.IdempotencyKeyHeader,
		KeepResponseHeaders: []string{
			fiber.HeaderContentType,
			fiber.HeaderLocation,
		},
		Storage: fiberstore.NewRedis(c.Redis, importIdempotencyKeyPrefix),
		RedSync: c.RedSync,
	}), c.QueueWabstiC)
	v1.Get("/import-tasks/:taskId", c.GetTaskStatus)
}

// uploads reads the given fields of a multipart form. Missing fields are
// left out of the returned map.
func uploads(ctx *fiber.Ctx, fields []string) (map[string]*importer.Upload, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, apperr.ErrInvalidReq.Msg("expected a multipart/form-data request")
	}

	files := make(map[string]*importer.Upload, len(fields))
	for _, field := range fields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		upload, err := readUpload(headers[0])
		if err != nil {
			return nil, err
		}
		files[field] = upload
	}
	return files, nil
}

func readUpload(header *multipart.FileHeader) (*importer.Upload, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &importer.Upload{
		Data:     data,
		Mimetype: header.Header.Get(fiber.HeaderContentType),
	}, nil
}

func (c *Import) ImportWabsti(ctx *fiber.Ctx) error {
	electionID, err := uuidParam(ctx, "electionId")
	if err != nil {
		return err
	}
	files, err := uploads(ctx, service.WabstiFields)
	if err != nil {
		return err
	}

	result, err := c.ImportService.ImportWabsti(ctx.UserContext(), electionID, files, ctx.QueryBool("force"))
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}

type QueueWabstiCRequest struct {
	Number   string `form:"number" validate:"required,max=16"`
	District string `form:"district" validate:"required,max=16"`
}

func (c *Import) QueueWabstiC(ctx *fiber.Ctx) error {
	electionID, err := uuidParam(ctx, "electionId")
	if err != nil {
		return err
	}

	var request QueueWabstiCRequest
	if err := ctx.BodyParser(&request); err != nil {
		return apperr.ErrInvalidReq.Msg("invalid form: %s", err.Error())
	}
	if err := rekuest.ValidStruct(&request); err != nil {
		return err
	}

	files, err := uploads(ctx, service.WabstiCFields)
	if err != nil {
		return err
	}

	status, err := c.ImportService.QueueWabstiC(ctx.UserContext(), electionID, request.Number, request.District, files)
	if err != nil {
		return err
	}

	ctx.Location("/api/v1/import-tasks/" + status.TaskID)
	return ctx.Status(fiber.StatusAccepted).JSON(status)
}

func (c *Import) GetTaskStatus(ctx *fiber.Ctx) error {
	taskID := ctx.Params("taskId")
	if err := rekuest.ValidVar(taskID, "required,len=26,alphanum"); err != nil {
		return err
	}

	status, err := c.ImportService.TaskStatus(ctx.UserContext(), taskID)
	if err != nil {
		return err
	}

	cachectrl.OptOut(ctx)
	return ctx.JSON(status)
}
