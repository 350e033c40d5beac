package controller

import (
	"ng12-assistant-be/internal/pkg/serverutils"
	"ng12-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssessmentController interface {
	RegisterRoutes(r fiber.Router)
	ListPatients(ctx *fiber.Ctx) error
	AssessPatient(ctx *fiber.Ctx) error
}

type assessmentController struct {
	service service.IAssessmentService
}

func NewAssessmentController(service service.IAssessmentService) IAssessmentController {
	return &assessmentController{service: service}
}

func (c *assessmentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assess/v1")
	h.Get("/patients", c.ListPatients)
	h.Post("/:patientId", c.AssessPatient)
}

func (c *assessmentController) ListPatients(ctx *fiber.Ctx) error {
	res, err := c.service.ListPatients(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all patients", res))
}

func (c *assessmentController) AssessPatient(ctx *fiber.Ctx) error {
	patientId := ctx.Params("patientId")

	res, err := c.service.AssessPatient(ctx.Context(), patientId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success assess patient", res))
}
