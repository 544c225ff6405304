package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"eventphoto-api/domain/dto"
	"eventphoto-api/domain/services"
	"eventphoto-api/infrastructure/faceapi"
	"eventphoto-api/pkg/utils"
)

type FaceHandler struct {
	faceService services.FaceService
}

func NewFaceHandler(faceService services.FaceService) *FaceHandler {
	return &FaceHandler{
		faceService: faceService,
	}
}

// SearchByFace ranks approved photos against a query embedding. The ordered
// match list is the envelope's data field, [] when nothing matches.
// POST /api/v1/photos/search-by-face
func (h *FaceHandler) SearchByFace(c *fiber.Ctx) error {
	var req dto.SearchByFaceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(&req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	matches, err := h.faceService.Search(c.UserContext(), req.Embedding, req.Threshold)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEmbedding) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "embedding array is required", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Face search failed", err)
	}

	return utils.SuccessResponse(c, "Face search completed", dto.FaceMatchesToResponses(matches))
}

// SelfieEmbed extracts a query embedding from an inline selfie
// POST /api/v1/photos/selfie-embed
func (h *FaceHandler) SelfieEmbed(c *fiber.Ctx) error {
	var req dto.SelfieEmbedRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(&req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	selfie, err := h.faceService.SelfieEmbedding(c.UserContext(), req.ImageBase64, req.DetectionOptions())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrImageRequired):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "imageBase64 is required", err)
		case errors.Is(err, services.ErrNoFacesDetected):
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "No faces found in selfie", err)
		case errors.Is(err, services.ErrFaceServiceDisabled), errors.Is(err, faceapi.ErrEmbeddingServiceUnavailable):
			return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Face embedding service unavailable", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Selfie embedding failed", err)
	}

	return utils.SuccessResponse(c, "Selfie embedded", dto.SelfieEmbedResponse{
		Embedding:  selfie.Embedding,
		FacesFound: selfie.FacesFound,
	})
}
