package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

func newSyncEventStore(db *sqlx.DB) *syncEventStore {
	return &syncEventStore{
		db: db,
	}
}

type syncEventStore struct {
	db *sqlx.DB
}

type sqlDataSyncEvent struct {
	ID            int64     `db:"id"`
	ChannelID     int64     `db:"channel_id"`
	PowerSource   string    `db:"power_source"`
	PowerStatus   string    `db:"power_status"`
	PowerLevel    int       `db:"power_level"`
	NetworkType   string    `db:"network_type"`
	PendingCount  int       `db:"pending_count"`
	RetryCount    int       `db:"retry_count"`
	IncomingCount int       `db:"incoming_count"`
	OutgoingCount int       `db:"outgoing_count"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

var sqlParamsSyncEvent = []string{
	"id",
	"channel_id",
	"power_source",
	"power_status",
	"power_level",
	"network_type",
	"pending_count",
	"retry_count",
	"incoming_count",
	"outgoing_count",
	"created_at",
	"updated_at",
}

func (d *sqlDataSyncEvent) Scan(m *model.SyncEvent) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.ChannelID = m.ChannelID
	d.PowerSource = m.PowerSource
	d.PowerStatus = m.PowerStatus
	d.PowerLevel = m.PowerLevel
	d.NetworkType = m.NetworkType
	d.PendingCount = m.PendingCount
	d.RetryCount = m.RetryCount
	d.IncomingCount = m.IncomingCount
	d.OutgoingCount = m.OutgoingCount
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataSyncEvent) Model() (*model.SyncEvent, error) {
	m := &model.SyncEvent{
		ID:            d.ID,
		ChannelID:     d.ChannelID,
		PowerSource:   d.PowerSource,
		PowerStatus:   d.PowerStatus,
		PowerLevel:    d.PowerLevel,
		NetworkType:   d.NetworkType,
		PendingCount:  d.PendingCount,
		RetryCount:    d.RetryCount,
		IncomingCount: d.IncomingCount,
		OutgoingCount: d.OutgoingCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}

	return m, nil
}

func (s *syncEventStore) FindByID(id int64) (*model.SyncEvent, error) {
	d := sqlDataSyncEvent{}
	query := "SELECT * FROM sync_events WHERE id=$1"
	if err := s.db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find sync event")
	}

	return d.Model()
}

func (s *syncEventStore) FetchByChannel(channelID int64) ([]model.SyncEvent, error) {
	rows := make([]sqlDataSyncEvent, 0)
	models := make([]model.SyncEvent, 0)

	query := "SELECT * FROM sync_events WHERE channel_id=$1 ORDER BY id"
	if err := s.db.Select(&rows, query, channelID); err != nil {
		return nil, errors.Wrap(err, "failed to fetch sync events")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to sync event model")
		}

		models = append(models, *m)
	}

	return models, nil
}

func (s *syncEventStore) Create(m *model.SyncEvent) error {
	d := sqlDataSyncEvent{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert sync event model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsSyncEvent {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO sync_events (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := s.db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create sync event")
	}
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func (s *syncEventStore) UpdateOutgoingCount(id int64, count int) error {
	query := "UPDATE sync_events SET outgoing_count=$1, updated_at=$2 WHERE id=$3"
	res, err := s.db.Exec(query, count, time.Now().Round(time.Second).UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed to update sync event outgoing count")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}
