package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/correction"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/offlinesync"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/shift"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

func TestHandleError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validator.ValidationErrors{{Field: "type", Message: "bad"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"not found", attendance.ErrAttendanceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped transition", fmt.Errorf("%w: approved to rejected", correction.ErrInvalidTransition), http.StatusConflict, "CONFLICT"},
		{"outside window", attendance.ErrPunchAfterShiftWindow, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"overlap", shift.ErrOverlappingAssignment, http.StatusConflict, "CONFLICT"},
		{"owner", correction.ErrNotRecordOwner, http.StatusForbidden, "FORBIDDEN"},
		{"queue full", offlinesync.ErrQueueFull, http.StatusConflict, "CONFLICT"},
		{"exporter", payroll.ErrExporterUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	var errs validator.ValidationErrors
	errs.Add("employee_id", "employee_id is required")

	rec := httptest.NewRecorder()
	HandleError(rec, fmt.Errorf("submit: %w", errs.Err()))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "employee_id is required", body.Error.Details["employee_id"])
}
