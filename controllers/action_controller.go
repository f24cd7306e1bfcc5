package controllers

import (
	"net/http"

	"staff-backend/middleware"
	"staff-backend/services"
	"staff-backend/utils"

	"github.com/gin-gonic/gin"
)

type ActionController struct {
	Actions *services.ActionService
}

func NewActionController(svc *services.ActionService) *ActionController {
	return &ActionController{Actions: svc}
}

type ActionPayload struct {
	RequestID     string `json:"requestId" binding:"required"`
	Action        string `json:"action" binding:"required"`
	Note          string `json:"note"`
	ReassignTo    *uint  `json:"reassignTo"`
	TakeoverTable bool   `json:"takeoverTable"`
	CheckOnly     bool   `json:"checkOnly"`
}

// ProcessAction handles POST /api/requests/action. The result is returned
// as-is: the needs-confirmation outcome is a 200 with needsConfirmation set,
// not an error.
func (ctl *ActionController) ProcessAction(c *gin.Context) {
	staff, ok := middleware.StaffFromContext(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var payload ActionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "requestId and action are required")
		return
	}

	action, err := services.ParseAction(payload.Action, payload.ReassignTo, payload.TakeoverTable, payload.CheckOnly)
	if err != nil {
		utils.JSONError(c, utils.HTTPStatus(err), err.Error())
		return
	}

	result, err := ctl.Actions.ProcessAction(staff, payload.RequestID, action, payload.Note)
	if err != nil {
		utils.JSONError(c, utils.HTTPStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}
