package controller

import (
	"ng12-assistant-be/internal/dto"
	"ng12-assistant-be/internal/pkg/serverutils"
	"ng12-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Refresh(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	ListChunks(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type adminController struct {
	service service.IAdminService
}

func NewAdminController(service service.IAdminService) IAdminController {
	return &adminController{service: service}
}

func (c *adminController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/admin/v1")
	h.Use(jwtMiddleware) // ✅ PROTECTED
	h.Post("/refresh", c.Refresh)
	h.Get("/stats", c.Stats)
	h.Get("/chunks", c.ListChunks)
	h.Get("/logs", c.GetLogs)
}

func (c *adminController) Refresh(ctx *fiber.Ctx) error {
	res, err := c.service.Refresh(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success refresh corpus", res))
}

func (c *adminController) Stats(ctx *fiber.Ctx) error {
	res, err := c.service.Stats(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get corpus stats", res))
}

func (c *adminController) ListChunks(ctx *fiber.Ctx) error {
	var req dto.ListChunksRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	res, err := c.service.ListChunks(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chunks", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.service.GetLogs(level, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}
