package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unisched/timetable-api/internal/models"
)

// TimetableSlotRepository manages the occupied hours of stored timetables.
type TimetableSlotRepository struct {
	db *sqlx.DB
}

// NewTimetableSlotRepository constructs the repository.
func NewTimetableSlotRepository(db *sqlx.DB) *TimetableSlotRepository {
	return &TimetableSlotRepository{db: db}
}

func (r *TimetableSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch inserts or updates slots for a timetable.
func (r *TimetableSlotRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_slots (id, timetable_id, course_id, course_code, course_name, teacher, day_of_week, hour, partial, created_at)
VALUES (:id, :timetable_id, :course_id, :course_code, :course_name, :teacher, :day_of_week, :hour, :partial, :created_at)
ON CONFLICT (timetable_id, day_of_week, hour) DO UPDATE
SET course_id = EXCLUDED.course_id,
    course_code = EXCLUDED.course_code,
    course_name = EXCLUDED.course_name,
    teacher = EXCLUDED.teacher,
    partial = EXCLUDED.partial`

	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.CreatedAt.IsZero() {
			slot.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, slot); err != nil {
			return fmt.Errorf("upsert timetable slot: %w", err)
		}
	}
	return nil
}

// ListByTimetable returns slots ordered by day and hour.
func (r *TimetableSlotRepository) ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	const query = `SELECT id, timetable_id, course_id, course_code, course_name, teacher, day_of_week, hour, partial, created_at
FROM timetable_slots WHERE timetable_id = $1 ORDER BY day_of_week ASC, hour ASC`
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}
