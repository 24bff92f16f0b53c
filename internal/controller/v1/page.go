package v1

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"onegov.dev/electionday/internal/server/svr"
	"onegov.dev/electionday/internal/service"
	"onegov.dev/electionday/internal/tree"
	"onegov.dev/electionday/internal/util/rekuest"
)

type Page struct {
	fx.In

	PageService *service.Page
}

func RegisterPage(v1 *svr.V1, c Page) {
	v1.Get("/pages", c.GetRoots)
	v1.Post("/pages", c.AddPage)
	v1.Get("/pages/by-path/*", c.GetPageByPath)
	v1.Get("/pages/:pageId", c.GetPage)
	v1.Get("/pages/:pageId/children", c.GetChildren)
	v1.Patch("/pages/:pageId", c.RenamePage)
	v1.Post("/pages/:pageId/move", c.MovePage)
	v1.Delete("/pages/:pageId", c.DeletePage)
}

type PageResponse struct {
	*tree.Node
	Path string `json:"path"`
}

type AddPageRequest struct {
	ParentID *int64 `json:"parentId" validate:"omitempty,min=1"`
	Title    string `json:"title" validate:"required,max=255"`
	Name     string `json:"name" validate:"omitempty,max=255,urlname"`
	Type     string `json:"type" validate:"omitempty,max=32"`
	Order    *int   `json:"order"`
}

type MovePageRequest struct {
	TargetID  int64  `json:"targetId" validate:"required,min=1"`
	Direction string `json:"direction" validate:"required,oneof=above below"`
}

type RenamePageRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

func (c *Page) render(ctx *fiber.Ctx, node *tree.Node) error {
	path, err := c.PageService.Path(ctx.UserContext(), node)
	if err != nil {
		return err
	}
	return ctx.JSON(PageResponse{Node: node, Path: path})
}

func (c *Page) GetRoots(ctx *fiber.Ctx) error {
	roots, err := c.PageService.Roots(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(roots)
}

func (c *Page) GetPage(ctx *fiber.Ctx) error {
	id, err := int64Param(ctx, "pageId")
	if err != nil {
		return err
	}

	node, err := c.PageService.Get(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return c.render(ctx, node)
}

func (c *Page) GetPageByPath(ctx *fiber.Ctx) error {
	node, err := c.PageService.ByPath(ctx.UserContext(), "/"+ctx.Params("*"))
	if err != nil {
		return err
	}
	return c.render(ctx, node)
}

func (c *Page) GetChildren(ctx *fiber.Ctx) error {
	id, err := int64Param(ctx, "pageId")
	if err != nil {
		return err
	}

	children, err := c.PageService.Children(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(children)
}

func (c *Page) AddPage(ctx *fiber.Ctx) error {
	var request AddPageRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	node, err := c.PageService.Add(ctx.UserContext(), request.ParentID, request.Title, tree.AddOptions{
		Name:  request.Name,
		Type:  request.Type,
		Order: request.Order,
	})
	if err != nil {
		return err
	}

	ctx.Status(fiber.StatusCreated)
	return c.render(ctx, node)
}

func (c *Page) RenamePage(ctx *fiber.Ctx) error {
	id, err := int64Param(ctx, "pageId")
	if err != nil {
		return err
	}
	var request RenamePageRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	node, err := c.PageService.Rename(ctx.UserContext(), id, request.Title)
	if err != nil {
		return err
	}
	return c.render(ctx, node)
}

func (c *Page) MovePage(ctx *fiber.Ctx) error {
	id, err := int64Param(ctx, "pageId")
	if err != nil {
		return err
	}
	var request MovePageRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	if err := c.PageService.Move(ctx.UserContext(), id, request.TargetID, tree.Direction(request.Direction)); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *Page) DeletePage(ctx *fiber.Ctx) error {
	id, err := int64Param(ctx, "pageId")
	if err != nil {
		return err
	}

	if err := c.PageService.Delete(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
