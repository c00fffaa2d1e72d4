package tasks

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/forms"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/response"
)

type ChangeTaskStatusRequest struct {
	Status string `json:"status"`
}

type ChangeTaskStatusForm struct {
	Status domain.DefectStatus
}

func NewChangeTaskStatusForm() *ChangeTaskStatusForm {
	return &ChangeTaskStatusForm{}
}

func (f *ChangeTaskStatusForm) ParseAndValidate(c *gin.Context) (forms.Former, response.Error) {
	body, err := io.ReadAll(c.Request.Body)
	defer c.Request.Body.Close()

	if err != nil {
		log.WithError(err).Error("unable to read body")
		return nil, response.NewInternalError()
	}

	var request *ChangeTaskStatusRequest
	err = json.Unmarshal(body, &request)
	if err != nil || request == nil {
		ve := response.NewValidationError()
		ve.SetError(response.GeneralErrorKey, response.InvalidRequestStructure, "invalid request structure")

		return nil, ve
	}
	errors := make(map[string]response.ErrorMessage)
	f.validateAndSetStatus(request, errors)

	if len(errors) > 0 {
		return nil, response.NewValidationError(errors)
	}

	return f, nil
}

func (f *ChangeTaskStatusForm) ConvertToMap() map[string]interface{} {
	return map[string]interface{}{
		"status": f.Status,
	}
}

func (f *ChangeTaskStatusForm) validateAndSetStatus(request *ChangeTaskStatusRequest, errors map[string]response.ErrorMessage) {
	if request.Status == "" {
		errors["status"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "missed value",
		}
		return
	}

	status, err := domain.ParseDefectStatus(request.Status)
	if err != nil {
		errors["status"] = response.ErrorMessage{
			Code:    response.InvalidValue,
			Message: "must be one of To Do, In Progress, Done",
		}
		return
	}

	f.Status = status
}
