package defects

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/forms"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/response"
)

type CreateDefectRequest struct {
	TestSpecID  string `json:"testSpecId"`
	Title       string `json:"title"`
	AssignDevID int64  `json:"assignDevId"`
	Priority    string `json:"priority"`
	Notes       string `json:"notes"`
}

type CreateDefectForm struct {
	TestSpecID  string
	Title       string
	AssignDevID int64
	Priority    domain.Priority
	Notes       string
}

func NewCreateDefectForm() *CreateDefectForm {
	return &CreateDefectForm{}
}

func (f *CreateDefectForm) ParseAndValidate(c *gin.Context) (forms.Former, response.Error) {
	body, err := io.ReadAll(c.Request.Body)
	defer c.Request.Body.Close()

	if err != nil {
		log.WithError(err).Error("unable to read body")
		return nil, response.NewInternalError()
	}

	var request *CreateDefectRequest
	err = json.Unmarshal(body, &request)
	if err != nil || request == nil {
		ve := response.NewValidationError()
		ve.SetError(response.GeneralErrorKey, response.InvalidRequestStructure, "invalid request structure")

		return nil, ve
	}
	errors := make(map[string]response.ErrorMessage)
	f.validateAndSetTestSpecID(request, errors)
	f.validateAndSetTitle(request, errors)
	f.validateAndSetAssignDevID(request, errors)
	f.validateAndSetPriority(request, errors)

	if len(errors) > 0 {
		return nil, response.NewValidationError(errors)
	}

	f.Notes = request.Notes
	return f, nil
}

func (f *CreateDefectForm) ConvertToMap() map[string]interface{} {
	return map[string]interface{}{
		"testSpecId":  f.TestSpecID,
		"title":       f.Title,
		"assignDevId": f.AssignDevID,
		"priority":    f.Priority,
		"notes":       f.Notes,
	}
}

func (f *CreateDefectForm) validateAndSetTestSpecID(request *CreateDefectRequest, errors map[string]response.ErrorMessage) {
	if request.TestSpecID == "" {
		errors["testSpecId"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "missed value",
		}
		return
	}

	f.TestSpecID = request.TestSpecID
}

func (f *CreateDefectForm) validateAndSetTitle(request *CreateDefectRequest, errors map[string]response.ErrorMessage) {
	if request.Title == "" {
		errors["title"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "missed value",
		}
		return
	}

	f.Title = request.Title
}

func (f *CreateDefectForm) validateAndSetAssignDevID(request *CreateDefectRequest, errors map[string]response.ErrorMessage) {
	if request.AssignDevID == 0 {
		errors["assignDevId"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "missed value",
		}
		return
	}

	f.AssignDevID = request.AssignDevID
}

func (f *CreateDefectForm) validateAndSetPriority(request *CreateDefectRequest, errors map[string]response.ErrorMessage) {
	if request.Priority == "" {
		errors["priority"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "missed value",
		}
		return
	}

	priority, err := domain.ParsePriority(request.Priority)
	if err != nil {
		errors["priority"] = response.ErrorMessage{
			Code:    response.InvalidValue,
			Message: "must be one of High, Medium, Low",
		}
		return
	}

	f.Priority = priority
}
