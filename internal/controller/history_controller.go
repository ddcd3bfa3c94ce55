package controller

import (
	"medical-text2sql-be/internal/dto"
	"medical-text2sql-be/internal/pkg/serverutils"
	"medical-text2sql-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHistoryController interface {
	RegisterRoutes(r fiber.Router)
	GetByConversation(ctx *fiber.Ctx) error
}

type historyController struct {
	service service.IHistoryService
}

func NewHistoryController(service service.IHistoryService) IHistoryController {
	return &historyController{service: service}
}

func (c *historyController) RegisterRoutes(r fiber.Router) {
	r.Get("/history/:sessionId", c.GetByConversation)
}

func (c *historyController) GetByConversation(ctx *fiber.Ctx) error {
	req := dto.GetHistoryRequest{
		ConversationId: ctx.Params("sessionId"),
		Limit:          ctx.QueryInt("limit", 0),
		Offset:         ctx.QueryInt("offset", 0),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.GetByConversation(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get query history", res))
}
