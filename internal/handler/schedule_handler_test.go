package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unisched/timetable-api/internal/dto"
	"github.com/unisched/timetable-api/internal/models"
	appErrors "github.com/unisched/timetable-api/pkg/errors"
)

type scheduleServiceMock struct {
	captured   dto.GenerateScheduleRequest
	savedReq   dto.SaveScheduleRequest
	generated  *dto.GenerateScheduleResponse
	saveErr    error
	exportData []byte
	exportErr  error
}

func (m *scheduleServiceMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	m.captured = req
	if m.generated != nil {
		return m.generated, nil
	}
	return &dto.GenerateScheduleResponse{ProposalID: "proposal-1", Success: true, Status: "EXACT"}, nil
}

func (m *scheduleServiceMock) Sample(ctx context.Context) (*dto.GenerateScheduleResponse, error) {
	return &dto.GenerateScheduleResponse{ProposalID: "sample-1", Success: true}, nil
}

func (m *scheduleServiceMock) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	m.savedReq = req
	if m.saveErr != nil {
		return "", m.saveErr
	}
	return "tt-1", nil
}

func (m *scheduleServiceMock) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	return []models.Timetable{{ID: "tt-1", Label: query.Label, Version: 1}}, nil
}

func (m *scheduleServiceMock) GetSlots(ctx context.Context, id string) ([]models.TimetableSlot, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return []models.TimetableSlot{{TimetableID: id, CourseCode: "CS101", DayOfWeek: 0, Hour: 8}}, nil
}

func (m *scheduleServiceMock) Delete(ctx context.Context, id string) error {
	if id == "missing" {
		return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return nil
}

func (m *scheduleServiceMock) ExportCSV(proposalID string) ([]byte, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	return m.exportData, nil
}

func (m *scheduleServiceMock) ExportPDF(proposalID string) ([]byte, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	return m.exportData, nil
}

func validGeneratePayload() []byte {
	payload, _ := json.Marshal(dto.GenerateScheduleRequest{
		Courses: []dto.CourseRequest{
			{Code: "CS101", Name: "Intro to CS", Teacher: "Dr. Smith", Duration: 3},
		},
	})
	return payload
}

func TestScheduleHandlerGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := &ScheduleHandler{service: mockSvc}

	req, _ := http.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewReader(validGeneratePayload()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.captured.Courses, 1)
	assert.Equal(t, "CS101", mockSvc.captured.Courses[0].Code)
	assert.Contains(t, w.Body.String(), "proposal-1")
}

func TestScheduleHandlerGenerateMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/schedule/generate", bytes.NewReader([]byte(`{"courses":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerSample(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}

	req, _ := http.NewRequest(http.MethodGet, "/examples/sample-schedule", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Sample(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sample-1")
}

func TestScheduleHandlerSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := &ScheduleHandler{service: mockSvc}

	payload, _ := json.Marshal(dto.SaveScheduleRequest{ProposalID: "proposal-1", Label: "fall-2026"})
	req, _ := http.NewRequest(http.MethodPost, "/schedule/save", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "proposal-1", mockSvc.savedReq.ProposalID)
	assert.Contains(t, w.Body.String(), "tt-1")
}

func TestScheduleHandlerSaveNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{saveErr: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")}
	handler := &ScheduleHandler{service: mockSvc}

	payload, _ := json.Marshal(dto.SaveScheduleRequest{ProposalID: "expired", Label: "fall-2026"})
	req, _ := http.NewRequest(http.MethodPost, "/schedule/save", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Save(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerListAndSlots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}
	router := gin.New()
	router.GET("/timetables", handler.List)
	router.GET("/timetables/:id/slots", handler.Slots)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetables?label=fall-2026", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fall-2026")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/timetables/tt-1/slots", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CS101")
}

func TestScheduleHandlerDeleteNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{}}
	router := gin.New()
	router.DELETE("/timetables/:id", handler.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/timetables/missing", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{exportData: []byte("Time,Monday\n08:00,CS101\n")}}
	router := gin.New()
	router.GET("/schedule/proposals/:id/export.csv", handler.ExportCSV)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedule/proposals/proposal-1/export.csv", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable-proposal-1.csv")
	assert.Contains(t, w.Body.String(), "CS101")
}

func TestScheduleHandlerExportExpiredProposal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleHandler{service: &scheduleServiceMock{exportErr: appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")}}
	router := gin.New()
	router.GET("/schedule/proposals/:id/export.pdf", handler.ExportPDF)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedule/proposals/expired/export.pdf", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
