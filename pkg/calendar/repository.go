package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// EventsChannel is the LISTEN/NOTIFY channel raised by the calendar_event trigger.
const EventsChannel = "clubcal_events"

// SnapshotSource delivers the complete event set whenever it changes.
// onSnapshot is called once with the current state before Subscribe returns.
type SnapshotSource interface {
	Subscribe(ctx context.Context, onSnapshot func([]Event)) (unsubscribe func(), err error)
}

type Repository interface {
	SnapshotSource
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	// StoreEvent inserts a new event under a freshly generated id.
	StoreEvent(ctx context.Context, event Event) (string, error)
	// StoreEvents inserts events under their own ids, skipping ids that already exist.
	StoreEvents(ctx context.Context, events []Event) (int, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	db            *pgxpool.Pool
	retryInterval time.Duration
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db, retryInterval: time.Second}
}

const selectEvents = `SELECT
    			id,
    			to_char(start_date, 'YYYY-MM-DD'),
    			to_char(end_date, 'YYYY-MM-DD'),
    			title,
    			time_of_day,
    			color,
    			is_all_day,
    			is_holiday
			  FROM calendar_event`

func scanEvent(row pgx.Row) (Event, error) {
	var event Event
	var date string
	var endDate *string
	var color string
	if err := row.Scan(
		&event.ID,
		&date,
		&endDate,
		&event.Title,
		&event.Time,
		&color,
		&event.IsAllDay,
		&event.IsHoliday,
	); err != nil {
		return Event{}, err
	}
	event.Date = datekey.Key(date)
	if endDate != nil {
		event.EndDate = datekey.Key(*endDate)
	}
	event.Color = Color(color)
	return event, nil
}

func (r *RepositoryImpl) ListEvents(ctx context.Context) ([]Event, error) {
	query := selectEvents + ` ORDER BY start_date, is_all_day DESC, title, time_of_day, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan calendar event: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("could not iterate calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, id string) (Event, error) {
	event, err := scanEvent(r.db.QueryRow(ctx, selectEvents+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not get calendar event %s: %w", id, err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

const insertEvent = `INSERT INTO calendar_event (
                            id,
                            start_date,
                            end_date,
                            title,
                            time_of_day,
                            color,
                            is_all_day,
                            is_holiday
						) VALUES ($1, ($2::text)::date, ($3::text)::date, $4, $5, $6, $7, $8)`

func insertArgs(id string, event Event) []any {
	return []any{
		id,
		string(event.Date),
		nullableKey(event.EndDate),
		event.Title,
		event.Time,
		string(event.Color),
		event.IsAllDay,
		event.IsHoliday,
	}
}

func nullableKey(k datekey.Key) *string {
	if k == "" {
		return nil
	}
	s := string(k)
	return &s
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, event Event) (string, error) {
	id := uuid.NewString()
	if _, err := r.db.Exec(ctx, insertEvent, insertArgs(id, event)...); err != nil {
		err := fmt.Errorf("could not store calendar event: %w", err)
		log.Error(err)
		return "", err
	}
	return id, nil
}

func (r *RepositoryImpl) StoreEvents(ctx context.Context, events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(insertEvent+` ON CONFLICT (id) DO NOTHING`, insertArgs(event.ID, event)...)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for range events {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			err := fmt.Errorf("could not store calendar events: %w", err)
			log.Error(err)
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, event Event) error {
	query := `UPDATE calendar_event
				SET start_date = ($2::text)::date,
				    end_date = ($3::text)::date,
				    title = $4,
				    time_of_day = $5,
				    color = $6,
				    is_all_day = $7,
				    updated_at = now()
				WHERE id = $1 AND NOT is_holiday`
	tag, err := r.db.Exec(ctx, query,
		event.ID,
		string(event.Date),
		nullableKey(event.EndDate),
		event.Title,
		event.Time,
		string(event.Color),
		event.IsAllDay,
	)
	if err != nil {
		err := fmt.Errorf("could not update calendar event %s: %w", event.ID, err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM calendar_event WHERE id = $1 AND NOT is_holiday`, id)
	if err != nil {
		err := fmt.Errorf("could not delete calendar event %s: %w", id, err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// Subscribe delivers the current events and then a fresh snapshot after every change
// notified on EventsChannel. A lost connection is re-established and followed by a
// full reload, so no change is missed while disconnected.
func (r *RepositoryImpl) Subscribe(ctx context.Context, onSnapshot func([]Event)) (func(), error) {
	conn, err := r.listen(ctx)
	if err != nil {
		return nil, err
	}
	events, err := r.ListEvents(ctx)
	if err != nil {
		release(conn)
		return nil, err
	}
	onSnapshot(events)

	listenCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			err := r.waitAndReload(listenCtx, conn, onSnapshot)
			release(conn)
			if listenCtx.Err() != nil {
				return
			}
			log.Warnf("calendar event subscription interrupted, reconnecting: %v", err)
			var ok bool
			if conn, ok = r.resubscribe(listenCtx, onSnapshot); !ok {
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// resubscribe retries until it is listening again and a full reload has been delivered.
// It reports false once ctx is done.
func (r *RepositoryImpl) resubscribe(ctx context.Context, onSnapshot func([]Event)) (*pgxpool.Conn, bool) {
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(r.retryInterval):
		}
		conn, err := r.listen(ctx)
		if err != nil {
			log.Errorf("could not re-subscribe to calendar events: %v", err)
			continue
		}
		events, err := r.ListEvents(ctx)
		if err != nil {
			log.Errorf("could not reload calendar events after reconnecting: %v", err)
			release(conn)
			continue
		}
		onSnapshot(events)
		return conn, true
	}
}

func (r *RepositoryImpl) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		err := fmt.Errorf("could not acquire listener connection: %w", err)
		log.Error(err)
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+EventsChannel); err != nil {
		conn.Release()
		err := fmt.Errorf("could not listen on %s: %w", EventsChannel, err)
		log.Error(err)
		return nil, err
	}
	return conn, nil
}

func (r *RepositoryImpl) waitAndReload(ctx context.Context, conn *pgxpool.Conn, onSnapshot func([]Event)) error {
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		log.Tracef("calendar events changed (%s)", notification.Payload)
		events, err := r.ListEvents(ctx)
		if err != nil {
			return err
		}
		onSnapshot(events)
	}
}

// release hands the listener connection back to the pool without its LISTEN registration.
func release(conn *pgxpool.Conn) {
	if !conn.Conn().IsClosed() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
			log.Debugf("could not unlisten: %v", err)
		}
	}
	conn.Release()
}
