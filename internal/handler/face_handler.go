package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invigo/invigo-backend/internal/middleware"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// FaceHandler handles face enrollment and identity verification endpoints.
// Descriptors are computed in the browser; the server only stores vectors
// and answers match/no-match.
type FaceHandler struct {
	faceService *service.FaceService
}

// NewFaceHandler creates a new FaceHandler.
func NewFaceHandler(faceService *service.FaceService) *FaceHandler {
	return &FaceHandler{faceService: faceService}
}

// Register godoc
// POST /api/v1/student/face
// Enrolls (or replaces) the student's face descriptor.
func (h *FaceHandler) Register(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RegisterFaceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.faceService.Register(c.Request.Context(), claims.UserID, req.Descriptor); err != nil {
		if errors.Is(err, service.ErrBadDescriptor) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidFaceData)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"status": "enrolled"})
}

// Verify godoc
// POST /api/v1/student/face/verify
// Compares a live descriptor against the enrolled one. Called before an
// attempt starts and on periodic identity checks during it.
func (h *FaceHandler) Verify(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.VerifyFaceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	match, distance, err := h.faceService.Verify(c.Request.Context(), claims.UserID, req.Descriptor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadDescriptor):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidFaceData)
		case errors.Is(err, service.ErrFaceNotEnrolled):
			response.Fail(c, http.StatusNotFound, response.ErrFaceNotEnrolled)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if !match {
		response.Fail(c, http.StatusForbidden, response.ErrIdentityCheckFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"match":    true,
		"distance": distance,
	})
}
