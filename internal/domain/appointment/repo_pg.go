package appointment

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

// PGTxRunner runs booking units of work against the pool. Read committed is
// sufficient: the doctor-day advisory lock (LockDoctorDay) provides the
// explicit serialization for count-then-insert, and the unique constraints
// on (doctor_id, date, position) and appointment_no are the backstop.
type PGTxRunner struct {
	pool *pgxpool.Pool
}

func NewPGTxRunner(pool *pgxpool.Pool) *PGTxRunner { return &PGTxRunner{pool: pool} }

func (r *PGTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := db.InTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Unavailable(err, "booking transaction timed out")
	}
	return apperr.Unavailable(err, "booking transaction failed")
}

// =========== Appointment Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const apptCols = `id, appointment_no, patient_id, doctor_id, date::text, slot_time, type,
	reason, notes, status, cancellation_reason, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.AppointmentNo, &a.PatientID, &a.DoctorID, &a.Date, &a.Time, &a.Type,
		&a.Reason, &a.Notes, &a.Status, &a.CancellationReason, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) LockDoctorDay(ctx context.Context, doctorID uuid.UUID, date string) error {
	// Transaction-scoped advisory lock keyed on the doctor-day. Waiting
	// respects the request context deadline.
	_, err := r.conn(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text || '|' || $2::text, 0))`,
		doctorID.String(), date)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.Unavailable(err, "timed out waiting for booking lock")
		}
		return storeErr(err, "acquire doctor-day lock")
	}
	return nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, appointment_no, patient_id, doctor_id, date, slot_time, type,
			reason, notes, status, cancellation_reason)
		VALUES ($1,$2,$3,$4,$5::date,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.AppointmentNo, a.PatientID, a.DoctorID, a.Date, a.Time, a.Type,
		a.Reason, a.Notes, a.Status, a.CancellationReason)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict(apperr.CodeSlotFull, "appointment conflicts with an existing booking")
		}
		if isForeignKeyViolation(err) {
			return apperr.NotFound(apperr.CodeNotFound, "patient or doctor does not exist")
		}
		return storeErr(err, "create appointment")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "appointment %s not found", id)
		}
		return nil, storeErr(err, "get appointment")
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment
		SET date=$2::date, slot_time=$3, status=$4, cancellation_reason=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Date, a.Time, a.Status, a.CancellationReason, a.Notes)
	if err != nil {
		return storeErr(err, "update appointment")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.CodeNotFound, "appointment %s not found", a.ID)
	}
	return nil
}

func (r *repoPG) CountActiveAt(ctx context.Context, doctorID uuid.UUID, date, slotTime string, excludeID uuid.UUID) (int, error) {
	var excl *uuid.UUID
	if excludeID != uuid.Nil {
		excl = &excludeID
	}

	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE doctor_id = $1 AND date = $2::date AND slot_time = $3
		  AND status NOT IN ('cancelled','no_show')
		  AND ($4::uuid IS NULL OR id <> $4::uuid)`,
		doctorID, date, slotTime, excl).Scan(&count)
	if err != nil {
		return 0, storeErr(err, "count slot bookings")
	}
	return count, nil
}

func (r *repoPG) CountActiveByDay(ctx context.Context, doctorID uuid.UUID, date string) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT slot_time, COUNT(*) FROM appointment
		WHERE doctor_id = $1 AND date = $2::date
		  AND status NOT IN ('cancelled','no_show')
		GROUP BY slot_time`,
		doctorID, date)
	if err != nil {
		return nil, storeErr(err, "count day bookings")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var slotTime string
		var count int
		if err := rows.Scan(&slotTime, &count); err != nil {
			return nil, storeErr(err, "scan day count")
		}
		counts[slotTime] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "iterate day counts")
	}
	return counts, nil
}

func (r *repoPG) NextAppointmentNo(ctx context.Context, year int) (int, error) {
	var seq int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment_counter (year, counter) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET counter = appointment_counter.counter + 1
		RETURNING counter`, year).Scan(&seq)
	if err != nil {
		return 0, storeErr(err, "advance appointment counter")
	}
	return seq, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, storeErr(err, "count patient appointments")
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE patient_id = $1
		 ORDER BY date DESC, slot_time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, storeErr(err, "list patient appointments")
	}
	defer rows.Close()

	return collectAppts(rows, total)
}

func (r *repoPG) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string, status Status, limit, offset int) ([]*Appointment, int, error) {
	var st *Status
	if status != "" {
		st = &status
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointment
		WHERE doctor_id = $1 AND date = $2::date AND ($3::text IS NULL OR status = $3)`,
		doctorID, date, st).Scan(&total); err != nil {
		return nil, 0, storeErr(err, "count doctor appointments")
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE doctor_id = $1 AND date = $2::date AND ($3::text IS NULL OR status = $3)
		ORDER BY slot_time ASC LIMIT $4 OFFSET $5`,
		doctorID, date, st, limit, offset)
	if err != nil {
		return nil, 0, storeErr(err, "list doctor appointments")
	}
	defer rows.Close()

	return collectAppts(rows, total)
}

func collectAppts(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, storeErr(err, "scan appointment")
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr(err, "iterate appointments")
	}
	return items, total, nil
}

// =========== Queue Repository ===========

type queueRepoPG struct{ pool *pgxpool.Pool }

func NewQueueRepoPG(pool *pgxpool.Pool) QueueRepository { return &queueRepoPG{pool: pool} }

func (r *queueRepoPG) conn(ctx context.Context) db.Querier {
	if q := db.QuerierFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const queueCols = `id, appointment_id, patient_id, doctor_id, date::text, position, status,
	called_at, completed_at, created_at, updated_at`

func scanQueueEntry(row pgx.Row) (*QueueEntry, error) {
	var q QueueEntry
	err := row.Scan(&q.ID, &q.AppointmentID, &q.PatientID, &q.DoctorID, &q.Date, &q.Position, &q.Status,
		&q.CalledAt, &q.CompletedAt, &q.CreatedAt, &q.UpdatedAt)
	return &q, err
}

func (r *queueRepoPG) Create(ctx context.Context, q *QueueEntry) error {
	q.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO queue_entry (id, appointment_id, patient_id, doctor_id, date, position, status)
		VALUES ($1,$2,$3,$4,$5::date,$6,$7)`,
		q.ID, q.AppointmentID, q.PatientID, q.DoctorID, q.Date, q.Position, q.Status)
	if err != nil {
		if isUniqueViolation(err) {
			// Position collision: two bookings raced past the lock. The
			// caller reports this as a lost capacity race.
			return apperr.Conflict(apperr.CodeSlotFull, "queue position already taken")
		}
		return storeErr(err, "create queue entry")
	}
	return nil
}

func (r *queueRepoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*QueueEntry, error) {
	q, err := scanQueueEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+queueCols+` FROM queue_entry WHERE appointment_id = $1`, appointmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(apperr.CodeNotFound, "queue entry for appointment %s not found", appointmentID)
		}
		return nil, storeErr(err, "get queue entry")
	}
	return q, nil
}

func (r *queueRepoPG) Update(ctx context.Context, q *QueueEntry) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE queue_entry
		SET status=$2, called_at=$3, completed_at=$4, updated_at=NOW()
		WHERE id = $1`,
		q.ID, q.Status, q.CalledAt, q.CompletedAt)
	if err != nil {
		return storeErr(err, "update queue entry")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(apperr.CodeNotFound, "queue entry %s not found", q.ID)
	}
	return nil
}

func (r *queueRepoPG) MaxPosition(ctx context.Context, doctorID uuid.UUID, date string) (int, error) {
	var max int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(MAX(position), 0) FROM queue_entry
		WHERE doctor_id = $1 AND date = $2::date`,
		doctorID, date).Scan(&max)
	if err != nil {
		return 0, storeErr(err, "read max queue position")
	}
	return max, nil
}

func (r *queueRepoPG) NextWaiting(ctx context.Context, doctorID uuid.UUID, date string) (*QueueEntry, error) {
	// FOR UPDATE SKIP LOCKED: two stations calling next at once get
	// different patients instead of blocking on the same row.
	q, err := scanQueueEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+queueCols+` FROM queue_entry
		WHERE doctor_id = $1 AND date = $2::date AND status = 'waiting'
		ORDER BY position ASC LIMIT 1
		FOR UPDATE SKIP LOCKED`,
		doctorID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr(err, "pick next waiting entry")
	}
	return q, nil
}

func (r *queueRepoPG) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*QueueEntry, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+queueCols+` FROM queue_entry WHERE doctor_id = $1 AND date = $2::date ORDER BY position ASC`,
		doctorID, date)
	if err != nil {
		return nil, storeErr(err, "list queue entries")
	}
	defer rows.Close()

	var items []*QueueEntry
	for rows.Next() {
		q, err := scanQueueEntry(rows)
		if err != nil {
			return nil, storeErr(err, "scan queue entry")
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "iterate queue entries")
	}
	return items, nil
}

func storeErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Unavailable(err, "%s: timed out", op)
	}
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
