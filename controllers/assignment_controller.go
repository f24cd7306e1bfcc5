package controllers

import (
	"net/http"
	"strings"

	"staff-backend/middleware"
	"staff-backend/services"
	"staff-backend/utils"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct {
	Assignments *services.AssignmentService
}

func NewAssignmentController(svc *services.AssignmentService) *AssignmentController {
	return &AssignmentController{Assignments: svc}
}

type SelfAssignPayload struct {
	TableID     *uint  `json:"tableId"`
	TableNumber string `json:"tableNumber"`
	LocationID  *uint  `json:"locationId"`
}

func (ctl *AssignmentController) SelfAssign(c *gin.Context) {
	staff, ok := middleware.StaffFromContext(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var payload SelfAssignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := ctl.Assignments.SelfAssign(staff, payload.TableID, strings.TrimSpace(payload.TableNumber), payload.LocationID)
	if err != nil {
		utils.JSONError(c, utils.HTTPStatus(err), err.Error())
		return
	}

	code := http.StatusCreated
	if result.AlreadyAssigned {
		code = http.StatusOK
	}
	utils.JSONSuccess(c, code, result)
}

// MyWork handles GET /api/assignments/mine?status=pending&onlyMine=true.
func (ctl *AssignmentController) MyWork(c *gin.Context) {
	staff, ok := middleware.StaffFromContext(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	statusFilter := strings.TrimSpace(c.Query("status"))
	onlyMine := strings.EqualFold(c.Query("onlyMine"), "true")

	view, err := ctl.Assignments.ListMyAssignmentsAndRequests(staff, statusFilter, onlyMine)
	if err != nil {
		utils.JSONError(c, utils.HTTPStatus(err), err.Error())
		return
	}

	utils.JSONSuccess(c, http.StatusOK, view)
}
