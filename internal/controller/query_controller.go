package controller

import (
	"strings"

	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/pkg/serverutils"
	"medical-text2sql-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
}

type queryController struct {
	service service.IQueryService
}

func NewQueryController(service service.IQueryService) IQueryController {
	return &queryController{service: service}
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	r.Post("/query", c.Query)
}

func (c *queryController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Question) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "问题不能为空")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Query(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success query", res))
}
