package rerun

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/rest/forms"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/response"
)

type RerunSpecRequest struct {
	TestSpecID string `json:"testSpecId"`
	SpecPath   string `json:"specPath"`
	TestName   string `json:"testName"`
}

type RerunSpecForm struct {
	TestSpecID string
	SpecPath   string
	TestName   string
}

func NewRerunSpecForm() *RerunSpecForm {
	return &RerunSpecForm{}
}

func (f *RerunSpecForm) ParseAndValidate(c *gin.Context) (forms.Former, response.Error) {
	body, err := io.ReadAll(c.Request.Body)
	defer c.Request.Body.Close()

	if err != nil {
		log.WithError(err).Error("unable to read body")
		return nil, response.NewInternalError()
	}

	var request *RerunSpecRequest
	err = json.Unmarshal(body, &request)
	if err != nil || request == nil {
		ve := response.NewValidationError()
		ve.SetError(response.GeneralErrorKey, response.InvalidRequestStructure, "invalid request structure")

		return nil, ve
	}
	errors := make(map[string]response.ErrorMessage)
	f.validateAndSetTestSpecID(request, errors)
	f.validateAndSetSpecPath(request, errors)

	if len(errors) > 0 {
		return nil, response.NewValidationError(errors)
	}

	f.TestName = request.TestName
	return f, nil
}

func (f *RerunSpecForm) ConvertToMap() map[string]interface{} {
	return map[string]interface{}{
		"testSpecId": f.TestSpecID,
		"specPath":   f.SpecPath,
		"testName":   f.TestName,
	}
}

func (f *RerunSpecForm) validateAndSetTestSpecID(request *RerunSpecRequest, errors map[string]response.ErrorMessage) {
	if request.TestSpecID == "" {
		errors["testSpecId"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "missed value",
		}
		return
	}

	f.TestSpecID = request.TestSpecID
}

func (f *RerunSpecForm) validateAndSetSpecPath(request *RerunSpecRequest, errors map[string]response.ErrorMessage) {
	if request.SpecPath == "" {
		errors["specPath"] = response.ErrorMessage{
			Code:    response.MissedValue,
			Message: "missed value",
		}
		return
	}

	f.SpecPath = request.SpecPath
}
