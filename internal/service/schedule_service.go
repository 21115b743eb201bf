package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/unisched/timetable-api/internal/dto"
	"github.com/unisched/timetable-api/internal/engine"
	"github.com/unisched/timetable-api/internal/models"
	appErrors "github.com/unisched/timetable-api/pkg/errors"
	"github.com/unisched/timetable-api/pkg/export"
)

// Solver outcome labels reported in responses and metrics.
const (
	StatusExact     = "EXACT"
	StatusHeuristic = "HEURISTIC"
	StatusPartial   = "PARTIAL"
)

type timetableRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	ListByLabel(ctx context.Context, label string) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus) error
}

type timetableSlotRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
	ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleServiceOptions tunes proposal retention, result caching, and the
// wall-clock budget applied to solver runs.
type ScheduleServiceOptions struct {
	ProposalTTL  time.Duration
	ResultTTL    time.Duration
	SolveTimeout time.Duration
}

// ScheduleService runs the timetable solver, keeps generated proposals in a
// TTL store until they are saved, and persists accepted timetables.
type ScheduleService struct {
	engineCfg  engine.Config
	timetables timetableRepository
	slots      timetableSlotRepository
	tx         txProvider
	cache      *redis.Client
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	store      *proposalStore
	opts       ScheduleServiceOptions
}

// NewScheduleService wires the solver service. cache and the repositories
// may be nil; the corresponding features degrade gracefully.
func NewScheduleService(
	engineCfg engine.Config,
	timetables timetableRepository,
	slots timetableSlotRepository,
	tx txProvider,
	cache *redis.Client,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	opts ScheduleServiceOptions,
) (*ScheduleService, error) {
	if _, err := engine.New(engineCfg); err != nil {
		return nil, err
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ProposalTTL <= 0 {
		opts.ProposalTTL = 30 * time.Minute
	}
	return &ScheduleService{
		engineCfg:  engineCfg,
		timetables: timetables,
		slots:      slots,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		store:      newProposalStore(opts.ProposalTTL),
		opts:       opts,
	}, nil
}

// Generate validates the submitted courses, runs the solver, and returns a
// proposal kept in the TTL store until saved or expired.
func (s *ScheduleService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate schedule payload")
	}

	if resp, ok := s.cachedResult(ctx, req); ok {
		return resp, nil
	}

	eng, err := s.engineFor(req.SplitOrder)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "engine configuration rejected")
	}

	courses, preRejected, index := s.buildCourses(req.Courses)

	solveCtx := ctx
	if timeout := s.solveTimeout(req.TimeLimitSeconds); timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := eng.Schedule(solveCtx, courses)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "schedule generation aborted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "schedule generation failed")
	}

	resp := s.buildResponse(req, result, preRejected, index, eng)
	s.metrics.ObserveSolve(resp.Status, result.Stats)
	s.logger.Info("schedule generated",
		zap.String("proposalId", resp.ProposalID),
		zap.String("status", resp.Status),
		zap.Int("scheduled", resp.ScheduledCount),
		zap.Int("total", resp.TotalCount),
		zap.Int("exactSteps", result.Stats.ExactSteps),
		zap.Bool("fallback", result.Stats.FallbackUsed),
		zap.Duration("elapsed", result.Stats.Elapsed))

	s.store.Save(scheduleProposal{Response: *resp, RequestedAt: time.Now().UTC()})
	s.cacheResult(ctx, req, resp)
	return resp, nil
}

// Sample generates a schedule for a small built-in course roster. It backs
// the examples endpoint used by UI integrations.
func (s *ScheduleService) Sample(ctx context.Context) (*dto.GenerateScheduleResponse, error) {
	return s.Generate(ctx, dto.GenerateScheduleRequest{Courses: sampleCourses()})
}

func sampleCourses() []dto.CourseRequest {
	return []dto.CourseRequest{
		{ID: "cs101", Code: "CS101", Name: "Introduction to Computer Science", Teacher: "Dr. Smith", Duration: 3, PreferredDays: []string{"Monday", "Wednesday", "Friday"}},
		{ID: "math101", Code: "MATH101", Name: "Calculus I", Teacher: "Dr. Johnson", Duration: 4, PreferredDays: []string{"Tuesday", "Thursday"}},
		{ID: "phys101", Code: "PHYS101", Name: "Physics I", Teacher: "Dr. Brown", Duration: 3, PreferredTimes: []string{"09:00"}},
		{ID: "chem101", Code: "CHEM101", Name: "General Chemistry", Teacher: "Dr. Davis", Duration: 3},
		{ID: "bio101", Code: "BIO101", Name: "Biology I", Teacher: "Dr. Wilson", Duration: 2, PreferredDays: []string{"Friday"}},
	}
}

// Save persists a generated proposal as a versioned timetable.
func (s *ScheduleService) Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if len(proposal.Response.Placements) == 0 {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "proposal has no placements to save")
	}
	if req.Publish && !proposal.Response.Success {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot publish a timetable with unplaced courses")
	}
	if s.tx == nil || s.timetables == nil || s.slots == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "timetable persistence unavailable")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"status":         proposal.Response.Status,
		"scheduledCount": proposal.Response.ScheduledCount,
		"totalCount":     proposal.Response.TotalCount,
		"stats":          proposal.Response.Stats,
		"unplaced":       proposal.Response.Unplaced,
		"generatedAt":    proposal.RequestedAt,
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		return "", err
	}

	record := &models.Timetable{
		Label:  req.Label,
		Status: models.TimetableStatusDraft,
		Meta:   types.JSONText(metaBytes),
	}
	if err = s.timetables.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return "", err
	}

	slotModels := make([]models.TimetableSlot, 0)
	for _, placement := range proposal.Response.Placements {
		for _, slot := range placement.Slots {
			day, parseErr := engine.ParseDay(slot.Day)
			if parseErr != nil {
				err = appErrors.Wrap(parseErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored proposal is corrupt")
				return "", err
			}
			hour, parseErr := parseHourLabel(slot.Time)
			if parseErr != nil {
				err = appErrors.Wrap(parseErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored proposal is corrupt")
				return "", err
			}
			slotModels = append(slotModels, models.TimetableSlot{
				TimetableID: record.ID,
				CourseID:    placement.CourseID,
				CourseCode:  placement.CourseCode,
				CourseName:  placement.CourseName,
				Teacher:     placement.Teacher,
				DayOfWeek:   int(day),
				Hour:        hour,
				Partial:     placement.Partial,
			})
		}
	}
	if err = s.slots.UpsertBatch(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slots")
		return "", err
	}

	if req.Publish {
		if err = s.timetables.UpdateStatus(ctx, tx, record.ID, models.TimetableStatusPublished); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return "", err
	}

	s.store.Delete(req.ProposalID)
	s.logger.Info("timetable saved", zap.String("timetableId", record.ID), zap.String("label", record.Label), zap.Int("version", record.Version))
	return record.ID, nil
}

// List returns stored timetable versions for a label, newest first.
func (s *ScheduleService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	if strings.TrimSpace(query.Label) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "label is required")
	}
	if s.timetables == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "timetable persistence unavailable")
	}
	list, err := s.timetables.ListByLabel(ctx, query.Label)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, nil
}

// GetSlots returns the occupied hours of a stored timetable.
func (s *ScheduleService) GetSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	if timetableID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	if s.timetables == nil || s.slots == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "timetable persistence unavailable")
	}
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	slots, err := s.slots.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slots")
	}
	return slots, nil
}

// Delete removes a stored timetable version.
func (s *ScheduleService) Delete(ctx context.Context, timetableID string) error {
	if timetableID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	if s.timetables == nil {
		return appErrors.Clone(appErrors.ErrInternal, "timetable persistence unavailable")
	}
	if err := s.timetables.Delete(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// ExportCSV renders a proposal's weekly grid as CSV.
func (s *ScheduleService) ExportCSV(proposalID string) ([]byte, error) {
	table, err := s.exportTable(proposalID)
	if err != nil {
		return nil, err
	}
	data, err := export.NewCSVExporter().Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV export")
	}
	return data, nil
}

// ExportPDF renders a proposal's weekly grid as PDF.
func (s *ScheduleService) ExportPDF(proposalID string) ([]byte, error) {
	table, err := s.exportTable(proposalID)
	if err != nil {
		return nil, err
	}
	data, err := export.NewPDFExporter().Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF export")
	}
	return data, nil
}

func (s *ScheduleService) exportTable(proposalID string) (export.Timetable, error) {
	if proposalID == "" {
		return export.Timetable{}, appErrors.Clone(appErrors.ErrValidation, "proposal id is required")
	}
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return export.Timetable{}, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	week := proposal.Response.Week
	return export.Timetable{
		Title: fmt.Sprintf("Weekly Timetable %s", proposal.Response.ProposalID[:8]),
		Days:  week.Days,
		Hours: week.Hours,
		Cells: week.Cells,
	}, nil
}

func (s *ScheduleService) engineFor(splitOrder string) (*engine.Engine, error) {
	cfg := s.engineCfg
	if splitOrder != "" {
		cfg.SplitOrder = engine.ParseSplitOrder(splitOrder)
	}
	return engine.New(cfg)
}

func (s *ScheduleService) solveTimeout(requestedSeconds int) time.Duration {
	if requestedSeconds > 0 {
		return time.Duration(requestedSeconds) * time.Second
	}
	return s.opts.SolveTimeout
}

// buildCourses converts request records into engine courses. Records with
// unparseable day or time labels are rejected individually, mirroring the
// engine's own per-course validation.
func (s *ScheduleService) buildCourses(records []dto.CourseRequest) ([]engine.Course, []dto.UnplacedCourse, map[string]dto.CourseRequest) {
	courses := make([]engine.Course, 0, len(records))
	index := make(map[string]dto.CourseRequest, len(records))
	var rejected []dto.UnplacedCourse

	for _, record := range records {
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if _, dup := index[record.ID]; dup {
			rejected = append(rejected, dto.UnplacedCourse{
				CourseID:   record.ID,
				CourseCode: record.Code,
				Reason:     string(engine.ReasonValidation),
				Detail:     "duplicate course id",
			})
			continue
		}
		index[record.ID] = record

		course, err := courseFromRecord(record)
		if err != nil {
			rejected = append(rejected, dto.UnplacedCourse{
				CourseID:   record.ID,
				CourseCode: record.Code,
				Reason:     string(engine.ReasonValidation),
				Detail:     err.Error(),
			})
			continue
		}
		courses = append(courses, course)
	}
	return courses, rejected, index
}

func courseFromRecord(record dto.CourseRequest) (engine.Course, error) {
	course := engine.Course{
		ID:       record.ID,
		Code:     record.Code,
		Name:     record.Name,
		Teacher:  record.Teacher,
		Duration: record.Duration,
	}
	for _, label := range record.PreferredDays {
		day, err := engine.ParseDay(label)
		if err != nil {
			return engine.Course{}, err
		}
		course.PreferredDays = append(course.PreferredDays, day)
	}
	for _, label := range record.PreferredTimes {
		hour, err := parseHourLabel(label)
		if err != nil {
			return engine.Course{}, err
		}
		course.PreferredHours = append(course.PreferredHours, hour)
	}
	return course, nil
}

func (s *ScheduleService) buildResponse(req dto.GenerateScheduleRequest, result *engine.Result, preRejected []dto.UnplacedCourse, index map[string]dto.CourseRequest, eng *engine.Engine) *dto.GenerateScheduleResponse {
	placements := lo.Map(result.Placements, func(p engine.Placement, _ int) dto.PlacementResponse {
		record := index[p.CourseID]
		return dto.PlacementResponse{
			CourseID:   p.CourseID,
			CourseCode: record.Code,
			CourseName: record.Name,
			Teacher:    record.Teacher,
			Partial:    p.Partial,
			Slots: lo.Map(p.Slots, func(slot engine.Slot, _ int) dto.SlotResponse {
				return dto.SlotResponse{Day: slot.Day.String(), Time: formatHour(slot.Hour)}
			}),
		}
	})

	unplaced := append([]dto.UnplacedCourse{}, preRejected...)
	for _, u := range result.Unplaced {
		unplaced = append(unplaced, dto.UnplacedCourse{
			CourseID:   u.Course.ID,
			CourseCode: u.Course.Code,
			Reason:     string(u.Reason),
			Detail:     u.Detail,
		})
	}

	status := StatusPartial
	success := result.Success && len(preRejected) == 0
	if success {
		if result.Stats.FallbackUsed {
			status = StatusHeuristic
		} else {
			status = StatusExact
		}
	}

	return &dto.GenerateScheduleResponse{
		ProposalID:     uuid.NewString(),
		Success:        success,
		Status:         status,
		ScheduledCount: len(req.Courses) - len(unplaced),
		TotalCount:     len(req.Courses),
		Placements:     placements,
		Unplaced:       unplaced,
		Week:           weekResponse(result, index, eng),
		Stats: dto.ScheduleStats{
			ExactSteps:      result.Stats.ExactSteps,
			BudgetExhausted: result.Stats.BudgetExhausted,
			FallbackUsed:    result.Stats.FallbackUsed,
			SplitCourses:    result.Stats.SplitCourses,
			SolveTime:       result.Stats.Elapsed.Round(time.Microsecond).String(),
		},
	}
}

// weekResponse transposes the day-major grid snapshot into display rows:
// one row per operating hour, one column per day, cells carry course codes.
func weekResponse(result *engine.Result, index map[string]dto.CourseRequest, eng *engine.Engine) dto.WeekResponse {
	hoursPerDay := eng.HoursPerDay()
	startHour := eng.Config().StartHour

	days := make([]string, engine.NumDays)
	for d := 0; d < engine.NumDays; d++ {
		days[d] = engine.Day(d).String()
	}
	hours := make([]string, hoursPerDay)
	cells := make([][]string, hoursPerDay)
	for h := 0; h < hoursPerDay; h++ {
		hours[h] = formatHour(startHour + h)
		row := make([]string, engine.NumDays)
		for d := 0; d < engine.NumDays; d++ {
			if id := result.Week.CourseAt(engine.Day(d), startHour+h); id != "" {
				row[d] = index[id].Code
			}
		}
		cells[h] = row
	}
	return dto.WeekResponse{Days: days, Hours: hours, Cells: cells}
}

func parseHourLabel(label string) (int, error) {
	trimmed := strings.TrimSpace(label)
	if idx := strings.IndexByte(trimmed, ':'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	hour, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid hour label %q", label)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("hour label %q outside 00:00-23:00", label)
	}
	return hour, nil
}

func formatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// --- Result cache ---

func requestCacheKey(req dto.GenerateScheduleRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return "schedule:result:" + hex.EncodeToString(sum[:]), nil
}

func (s *ScheduleService) cachedResult(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, bool) {
	if s.cache == nil || s.opts.ResultTTL <= 0 {
		return nil, false
	}
	key, err := requestCacheKey(req)
	if err != nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("result cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
		return nil, false
	}
	var resp dto.GenerateScheduleResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.logger.Warn("result cache entry corrupt", zap.Error(err))
		s.metrics.RecordCacheLookup(false)
		return nil, false
	}
	s.metrics.RecordCacheLookup(true)

	// Re-mint the proposal so Save and the exporters keep working for the
	// cached copy.
	resp.ProposalID = uuid.NewString()
	s.store.Save(scheduleProposal{Response: resp, RequestedAt: time.Now().UTC()})
	return &resp, true
}

func (s *ScheduleService) cacheResult(ctx context.Context, req dto.GenerateScheduleRequest, resp *dto.GenerateScheduleResponse) {
	if s.cache == nil || s.opts.ResultTTL <= 0 {
		return
	}
	key, err := requestCacheKey(req)
	if err != nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.opts.ResultTTL).Err(); err != nil {
		s.logger.Warn("result cache write failed", zap.Error(err))
	}
}

// --- Proposal store ---

type scheduleProposal struct {
	Response    dto.GenerateScheduleResponse
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.Response.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
