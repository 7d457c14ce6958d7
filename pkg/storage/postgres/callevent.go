package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
)

func newCallEventStore(db *sqlx.DB) *callEventStore {
	return &callEventStore{
		db: db,
	}
}

type callEventStore struct {
	db *sqlx.DB
}

type sqlDataCallEvent struct {
	ID        int64     `db:"id"`
	ChannelID int64     `db:"channel_id"`
	Phone     string    `db:"phone"`
	EventType string    `db:"event_type"`
	Time      time.Time `db:"time"`
	Duration  int       `db:"duration"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var sqlParamsCallEvent = []string{
	"id",
	"channel_id",
	"phone",
	"event_type",
	"time",
	"duration",
	"created_at",
	"updated_at",
}

func (d *sqlDataCallEvent) Scan(m *model.CallEvent) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.ChannelID = m.ChannelID
	d.Phone = m.Phone
	d.EventType = m.EventType
	d.Time = m.Time
	d.Duration = m.Duration
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataCallEvent) Model() (*model.CallEvent, error) {
	m := &model.CallEvent{
		ID:        d.ID,
		ChannelID: d.ChannelID,
		Phone:     d.Phone,
		EventType: d.EventType,
		Time:      d.Time,
		Duration:  d.Duration,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	return m, nil
}

func (s *callEventStore) FetchByChannel(channelID int64) ([]model.CallEvent, error) {
	rows := make([]sqlDataCallEvent, 0)
	models := make([]model.CallEvent, 0)

	query := "SELECT * FROM call_events WHERE channel_id=$1 ORDER BY id"
	if err := s.db.Select(&rows, query, channelID); err != nil {
		return nil, errors.Wrap(err, "failed to fetch call events")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to call event model")
		}

		models = append(models, *m)
	}

	return models, nil
}

func (s *callEventStore) Create(m *model.CallEvent) error {
	d := sqlDataCallEvent{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert call event model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsCallEvent {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO call_events (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := s.db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create call event")
	}
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}
