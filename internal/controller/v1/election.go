package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/pkg/cachectrl"
	"onegov.dev/electionday/internal/server/svr"
	"onegov.dev/electionday/internal/service"
	"onegov.dev/electionday/internal/util/rekuest"
)

type Election struct {
	fx.In

	Config          *appconfig.Config
	ElectionService *service.Election
}

func RegisterElection(v1 *svr.V1, c Election) {
	v1.Get("/elections", c.GetElections)
	v1.Post("/elections", c.CreateElection)
	v1.Get("/elections/:electionId", c.GetElection)
	v1.Get("/elections/:electionId/summary", c.GetSummary)
	v1.Get("/elections/:electionId/apportionment", c.GetApportionment)
}

type CreateElectionRequest struct {
	Title            string      `json:"title" validate:"required,max=255"`
	Shortcode        null.String `json:"shortcode" validate:"omitempty,max=32"`
	Date             string      `json:"date" validate:"required,datetime=2006-01-02"`
	Domain           string      `json:"domain" validate:"required,oneof=federation canton region district municipality none"`
	DomainSegment    string      `json:"domainSegment" validate:"required_if=Domain region,required_if=Domain district,required_if=Domain municipality"`
	HasExpats        bool        `json:"hasExpats"`
	NumberOfMandates int         `json:"numberOfMandates" validate:"required,min=1"`
}

func (c *Election) GetElections(ctx *fiber.Ctx) error {
	elections, err := c.ElectionService.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(elections)
}

func (c *Election) CreateElection(ctx *fiber.Ctx) error {
	var request CreateElectionRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", request.Date)
	if err != nil {
		return apperr.ErrInvalidReq.Msg("date must be formatted as YYYY-MM-DD")
	}

	election := &model.Election{
		Title:            request.Title,
		Shortcode:        request.Shortcode,
		Date:             date,
		Domain:           request.Domain,
		DomainSegment:    request.DomainSegment,
		HasExpats:        request.HasExpats,
		NumberOfMandates: request.NumberOfMandates,
	}
	if err := c.ElectionService.Create(ctx.UserContext(), election); err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(election)
}

func (c *Election) GetElection(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "electionId")
	if err != nil {
		return err
	}

	election, err := c.ElectionService.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(election)
}

func (c *Election) GetSummary(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "electionId")
	if err != nil {
		return err
	}

	summary, err := c.ElectionService.Summary(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	c.cache(ctx, summary.Election)
	return ctx.JSON(summary)
}

func (c *Election) GetApportionment(ctx *fiber.Ctx) error {
	id, err := uuidParam(ctx, "electionId")
	if err != nil {
		return err
	}

	apportionment, err := c.ElectionService.Apportionment(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	cachectrl.OptIn(ctx, time.Time{}, c.Config.SummaryCacheLifetime)
	return ctx.JSON(apportionment)
}

// cache lets clients keep results for as long as the summary cache does.
func (c *Election) cache(ctx *fiber.Ctx, election *model.Election) {
	var modified time.Time
	if election != nil && election.LastResultChange != nil {
		modified = *election.LastResultChange
	}
	cachectrl.OptIn(ctx, modified, c.Config.SummaryCacheLifetime)
}
