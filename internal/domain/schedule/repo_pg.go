package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinq/clinq/internal/platform/apperr"
	"github.com/clinq/clinq/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const windowCols = `id, doctor_id, weekday, start_time, end_time, slot_minutes, max_per_slot, active, created_at, updated_at`

func scanWindow(row pgx.Row) (*WeeklyAvailability, error) {
	var w WeeklyAvailability
	err := row.Scan(&w.ID, &w.DoctorID, &w.Weekday, &w.StartTime, &w.EndTime,
		&w.SlotMinutes, &w.MaxPerSlot, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	return &w, err
}

const leaveCols = `id, doctor_id, date::text, status, reason, created_at, updated_at`

func scanLeave(row pgx.Row) (*LeaveRecord, error) {
	var l LeaveRecord
	err := row.Scan(&l.ID, &l.DoctorID, &l.Date, &l.Status, &l.Reason, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *repoPG) doctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM doctor WHERE id = $1)`, doctorID).Scan(&exists)
	if err != nil {
		return false, storeErr(err, "check doctor existence")
	}
	return exists, nil
}

func (r *repoPG) GetWeekly(ctx context.Context, doctorID uuid.UUID, weekday int) (*WeeklyAvailability, error) {
	w, err := scanWindow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+windowCols+` FROM weekly_availability WHERE doctor_id = $1 AND weekday = $2 AND active`,
		doctorID, weekday))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			exists, exErr := r.doctorExists(ctx, doctorID)
			if exErr != nil {
				return nil, exErr
			}
			if !exists {
				return nil, apperr.NotFound(apperr.CodeDoctorNotFound, "doctor %s does not exist", doctorID)
			}
			// No schedule for that day is a valid empty result.
			return nil, nil
		}
		return nil, storeErr(err, "get weekly availability")
	}
	return w, nil
}

func (r *repoPG) GetApprovedLeave(ctx context.Context, doctorID uuid.UUID, date string) (*LeaveRecord, error) {
	l, err := scanLeave(r.conn(ctx).QueryRow(ctx,
		`SELECT `+leaveCols+` FROM leave_record WHERE doctor_id = $1 AND date = $2::date AND status = 'approved'`,
		doctorID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(err, "get approved leave")
	}
	return l, nil
}

func (r *repoPG) CreateWindow(ctx context.Context, w *WeeklyAvailability) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO weekly_availability (id, doctor_id, weekday, start_time, end_time, slot_minutes, max_per_slot, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		w.ID, w.DoctorID, w.Weekday, w.StartTime, w.EndTime, w.SlotMinutes, w.MaxPerSlot, w.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(apperr.CodeInvalidInput, "doctor already has a window for weekday %d", w.Weekday)
		}
		if isForeignKeyViolation(err) {
			return apperr.NotFound(apperr.CodeDoctorNotFound, "doctor %s does not exist", w.DoctorID)
		}
		return storeErr(err, "create availability window")
	}
	return nil
}

func (r *repoPG) UpdateWindow(ctx context.Context, w *WeeklyAvailability) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE weekly_availability
		SET start_time=$2, end_time=$3, slot_minutes=$4, max_per_slot=$5, active=$6, updated_at=NOW()
		WHERE id = $1`,
		w.ID, w.StartTime, w.EndTime, w.SlotMinutes, w.MaxPerSlot, w.Active)
	if err != nil {
		return storeErr(err, "update availability window")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.CodeNotFound, "availability window %s not found", w.ID)
	}
	return nil
}

func (r *repoPG) GetWindow(ctx context.Context, id uuid.UUID) (*WeeklyAvailability, error) {
	w, err := scanWindow(r.conn(ctx).QueryRow(ctx,
		`SELECT `+windowCols+` FROM weekly_availability WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "availability window %s not found", id)
		}
		return nil, storeErr(err, "get availability window")
	}
	return w, nil
}

func (r *repoPG) ListWindows(ctx context.Context, doctorID uuid.UUID) ([]*WeeklyAvailability, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+windowCols+` FROM weekly_availability WHERE doctor_id = $1 ORDER BY weekday ASC`, doctorID)
	if err != nil {
		return nil, storeErr(err, "list availability windows")
	}
	defer rows.Close()

	var items []*WeeklyAvailability
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, storeErr(err, "scan availability window")
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "iterate availability windows")
	}
	return items, nil
}

func (r *repoPG) CreateLeave(ctx context.Context, l *LeaveRecord) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO leave_record (id, doctor_id, date, status, reason)
		VALUES ($1,$2,$3::date,$4,$5)`,
		l.ID, l.DoctorID, l.Date, l.Status, l.Reason)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(apperr.CodeInvalidInput, "doctor already has an approved leave on %s", l.Date)
		}
		if isForeignKeyViolation(err) {
			return apperr.NotFound(apperr.CodeDoctorNotFound, "doctor %s does not exist", l.DoctorID)
		}
		return storeErr(err, "create leave record")
	}
	return nil
}

func (r *repoPG) GetLeave(ctx context.Context, id uuid.UUID) (*LeaveRecord, error) {
	l, err := scanLeave(r.conn(ctx).QueryRow(ctx,
		`SELECT `+leaveCols+` FROM leave_record WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "leave record %s not found", id)
		}
		return nil, storeErr(err, "get leave record")
	}
	return l, nil
}

func (r *repoPG) UpdateLeaveStatus(ctx context.Context, id uuid.UUID, status string) (*LeaveRecord, error) {
	l, err := scanLeave(r.conn(ctx).QueryRow(ctx, `
		UPDATE leave_record SET status=$2, updated_at=NOW()
		WHERE id = $1
		RETURNING `+leaveCols, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "leave record %s not found", id)
		}
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(apperr.CodeInvalidInput, "doctor already has an approved leave on that date")
		}
		return nil, storeErr(err, "update leave status")
	}
	return l, nil
}

func (r *repoPG) ListLeaves(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*LeaveRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM leave_record WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, storeErr(err, "count leave records")
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+leaveCols+` FROM leave_record WHERE doctor_id = $1 ORDER BY date DESC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, storeErr(err, "list leave records")
	}
	defer rows.Close()

	var items []*LeaveRecord
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, 0, storeErr(err, "scan leave record")
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr(err, "iterate leave records")
	}
	return items, total, nil
}

func storeErr(err error, op string) error {
	return apperr.Unavailable(err, "%s", op)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
