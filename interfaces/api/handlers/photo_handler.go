package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"eventphoto-api/domain/dto"
	"eventphoto-api/domain/services"
	"eventphoto-api/pkg/utils"
)

// PhotoHandler serves moderation and embedding maintenance
type PhotoHandler struct {
	photoService    services.PhotoService
	backfillService services.BackfillService
}

func NewPhotoHandler(photoService services.PhotoService, backfillService services.BackfillService) *PhotoHandler {
	return &PhotoHandler{
		photoService:    photoService,
		backfillService: backfillService,
	}
}

func (h *PhotoHandler) photoError(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, services.ErrPhotoNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Photo not found", err)
	}
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, message, err)
}

// Approve publishes a photo and generates its embeddings
// POST /api/v1/photos/:id/approve
func (h *PhotoHandler) Approve(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo ID", err)
	}

	photo, err := h.photoService.Approve(c.UserContext(), id, user.ID)
	if err != nil {
		return h.photoError(c, err, "Failed to approve photo")
	}

	return utils.SuccessResponse(c, "Photo approved", dto.PhotoToPhotoResponse(photo))
}

// Reject
// POST /api/v1/photos/:id/reject
func (h *PhotoHandler) Reject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid photo ID", err)
	}

	var req dto.RejectPhotoRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		}
	}
	if errs := utils.ValidateStruct(&req); errs != nil {
		return utils.ValidationErrorResponse(c, errs)
	}

	photo, err := h.photoService.Reject(c.UserContext(), id, req.Reason)
	if err != nil {
		return h.photoError(c, err, "Failed to reject photo")
	}

	return utils.SuccessResponse(c, "Photo rejected", dto.PhotoToPhotoResponse(photo))
}

// GET /api/v1/photos/pending?limit=
func (h *PhotoHandler) ListPending(c *fiber.Ctx) error {
	photos, err := h.photoService.ListPending(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list pending photos", err)
	}
	return utils.SuccessResponse(c, "Pending photos retrieved", dto.PhotosToPhotoResponses(photos))
}

// GET /api/v1/photos/embedding-stats
func (h *PhotoHandler) EmbeddingStats(c *fiber.Ctx) error {
	stats, err := h.photoService.EmbeddingStats(c.UserContext())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get embedding stats", err)
	}
	return utils.SuccessResponse(c, "Embedding stats retrieved", stats)
}

// BackfillEmbeddings embeds approved photos that have none. The
// {total, processed, noFaces, failed} counts are the envelope's data field.
// POST /api/v1/photos/backfill-embeddings?limit=
func (h *PhotoHandler) BackfillEmbeddings(c *fiber.Ctx) error {
	if h.backfillService == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Face embedding service unavailable", services.ErrFaceServiceDisabled)
	}

	result, err := h.backfillService.BackfillMissingEmbeddings(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		if errors.Is(err, services.ErrBackfillInProgress) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Backfill already running", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Backfill failed", err)
	}

	return utils.SuccessResponse(c, "Backfill completed", dto.BackfillResultToResponse(result))
}
