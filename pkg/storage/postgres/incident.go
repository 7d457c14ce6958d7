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

func newIncidentStore(db *sqlx.DB) *incidentStore {
	return &incidentStore{
		db: db,
	}
}

type incidentStore struct {
	db *sqlx.DB
}

type sqlDataIncident struct {
	ID           int64        `db:"id"`
	ChannelID    int64        `db:"channel_id"`
	IncidentType string       `db:"incident_type"`
	OpenedAt     time.Time    `db:"opened_at"`
	ClosedAt     sql.NullTime `db:"closed_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

var sqlParamsIncident = []string{
	"id",
	"channel_id",
	"incident_type",
	"opened_at",
	"closed_at",
	"created_at",
	"updated_at",
}

func (d *sqlDataIncident) Scan(m *model.Incident) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.ChannelID = m.ChannelID
	d.IncidentType = m.IncidentType
	d.OpenedAt = m.OpenedAt
	d.ClosedAt = sql.NullTime{Time: m.ClosedAt, Valid: !m.ClosedAt.IsZero()}
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataIncident) Model() (*model.Incident, error) {
	m := &model.Incident{
		ID:           d.ID,
		ChannelID:    d.ChannelID,
		IncidentType: d.IncidentType,
		OpenedAt:     d.OpenedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}

	if d.ClosedAt.Valid {
		m.ClosedAt = d.ClosedAt.Time
	}

	return m, nil
}

func (s *incidentStore) FindOpen(channelID int64, incidentType string) (*model.Incident, error) {
	d := sqlDataIncident{}
	query := "SELECT * FROM incidents WHERE channel_id=$1 AND incident_type=$2 AND closed_at IS NULL"
	if err := s.db.Get(&d, query, channelID, incidentType); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find open incident")
	}

	return d.Model()
}

func (s *incidentStore) Create(m *model.Incident) error {
	if m.OpenedAt.IsZero() {
		m.OpenedAt = time.Now().Round(time.Second).UTC()
	}

	d := sqlDataIncident{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert incident model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsIncident {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO incidents (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := s.db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create incident")
	}
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func (s *incidentStore) Close(id int64, t time.Time) error {
	query := "UPDATE incidents SET closed_at=$1, updated_at=$2 WHERE id=$3"
	res, err := s.db.Exec(query, t, time.Now().Round(time.Second).UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed to close incident")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}
