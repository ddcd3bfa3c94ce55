package controller

import (
	"medical-text2sql-be/internal/pkg/serverutils"
	"medical-text2sql-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Reset(ctx *fiber.Ctx) error
	Context(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Delete(":id", c.Reset)
	h.Get(":id/context", c.Context)
}

func (c *sessionController) Reset(ctx *fiber.Ctx) error {
	if err := c.service.Reset(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}

func (c *sessionController) Context(ctx *fiber.Ctx) error {
	res, err := c.service.Context(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session context", res))
}
