package controllers

import (
	"net/http"
	"strings"

	"staff-backend/services"
	"staff-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type RequestController struct {
	Requests *services.RequestService
}

func NewRequestController(svc *services.RequestService) *RequestController {
	return &RequestController{Requests: svc}
}

type CreateRequestPayload struct {
	LocationID  uint           `json:"locationId" binding:"required"`
	TableNumber string         `json:"tableNumber" binding:"required"`
	Type        string         `json:"type" binding:"required"`
	Note        string         `json:"note"`
	Metadata    datatypes.JSON `json:"metadata"`
}

// CreateRequest is the customer surface: no staff auth, a table QR page
// posts here.
func (ctl *RequestController) CreateRequest(c *gin.Context) {
	var payload CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "locationId, tableNumber and type are required")
		return
	}

	req, err := ctl.Requests.Create(payload.LocationID, strings.TrimSpace(payload.TableNumber), payload.Type, payload.Note, payload.Metadata)
	if err != nil {
		utils.JSONError(c, utils.HTTPStatus(err), err.Error())
		return
	}

	utils.JSONSuccess(c, http.StatusCreated, req)
}

func (ctl *RequestController) GetActionLog(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("id"))
	if requestID == "" {
		utils.JSONError(c, http.StatusBadRequest, "request id is required")
		return
	}

	logs, err := ctl.Requests.GetActionLog(requestID)
	if err != nil {
		utils.JSONError(c, utils.HTTPStatus(err), err.Error())
		return
	}

	utils.JSONSuccess(c, http.StatusOK, logs)
}
