package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/app/services"
	"github.com/yigit/schoolhub/internal/middleware"
)

// EnrollmentRequestController handles students applying for courses
type EnrollmentRequestController struct {
	requestService *services.EnrollmentRequestService
	logger         zerolog.Logger
}

// NewEnrollmentRequestController creates a new EnrollmentRequestController
func NewEnrollmentRequestController(requestService *services.EnrollmentRequestService, logger zerolog.Logger) *EnrollmentRequestController {
	return &EnrollmentRequestController{
		requestService: requestService,
		logger:         logger,
	}
}

// SubmitRequest files a request for the calling student
// @Summary Request enrollment
// @Tags enrollment-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitEnrollmentRequest true "Course to join"
// @Success 201 {object} dto.APIResponse{data=models.EnrollmentRequest}
// @Failure 400 {object} dto.ErrorResponse "Enrollment request already pending"
// @Failure 403 {object} dto.ErrorResponse
// @Router /enrollment-requests [post]
func (c *EnrollmentRequestController) SubmitRequest(ctx *gin.Context) {
	var req dto.SubmitEnrollmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	identity := middleware.CurrentIdentity(ctx)
	request, err := c.requestService.Submit(ctx.Request.Context(), identity.UserID, req.Course)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewMessageResponse("Enrollment request submitted", request))
}

// ListRequests
// @Summary List enrollment requests
// @Tags enrollment-requests
// @Produce json
// @Security BearerAuth
// @Param student query string false "Only requests of this student"
// @Success 200 {object} dto.APIResponse{data=[]models.EnrollmentRequest}
// @Router /enrollment-requests [get]
func (c *EnrollmentRequestController) ListRequests(ctx *gin.Context) {
	requests, err := c.requestService.List(ctx.Request.Context(), ctx.Query("student"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(requests))
}

// DecideRequest approves or rejects a pending request
// @Summary Decide enrollment request
// @Tags enrollment-requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body dto.DecideEnrollmentRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.EnrollmentRequest}
// @Failure 400 {object} dto.ErrorResponse "Request already decided"
// @Failure 403 {object} dto.ErrorResponse "Only the course teacher can perform this action"
// @Failure 404 {object} dto.ErrorResponse "Enrollment request not found"
// @Router /enrollment-requests/{id}/decision [post]
func (c *EnrollmentRequestController) DecideRequest(ctx *gin.Context) {
	var req dto.DecideEnrollmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	identity := middleware.CurrentIdentity(ctx)
	request, err := c.requestService.Decide(ctx.Request.Context(), ctx.Param("id"), identity.UserID, models.RequestStatus(req.Decision))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(request))
}
