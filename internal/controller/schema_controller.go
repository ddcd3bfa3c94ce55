package controller

import (
	"io"

	"medical-text2sql-be/internal/pkg/serverutils"
	"medical-text2sql-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISchemaController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
}

type schemaController struct {
	service service.ISchemaService
}

func NewSchemaController(service service.ISchemaService) ISchemaController {
	return &schemaController{service: service}
}

func (c *schemaController) RegisterRoutes(r fiber.Router) {
	r.Post("/upload_schema", c.Upload)
}

func (c *schemaController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("schema_file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "未收到文件")
	}
	if fileHeader.Size > service.MaxSchemaBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "schema file exceeds 1MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, service.MaxSchemaBytes+1))
	if err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.UserContext(), content)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload schema", res))
}
