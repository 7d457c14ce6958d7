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

func newMsgStore(db *sqlx.DB) *msgStore {
	return &msgStore{
		db: db,
	}
}

type msgStore struct {
	db *sqlx.DB
}

type sqlDataMsg struct {
	ID        int64        `db:"id"`
	ChannelID int64        `db:"channel_id"`
	Direction string       `db:"direction"`
	URNPath   string       `db:"urn_path"`
	Text      string       `db:"text"`
	Status    string       `db:"status"`
	QueuedOn  time.Time    `db:"queued_on"`
	SentOn    sql.NullTime `db:"sent_on"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

var sqlParamsMsg = []string{
	"id",
	"channel_id",
	"direction",
	"urn_path",
	"text",
	"status",
	"queued_on",
	"sent_on",
	"created_at",
	"updated_at",
}

func (d *sqlDataMsg) Scan(m *model.Msg) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.ChannelID = m.ChannelID
	d.Direction = string(m.Direction)
	d.URNPath = m.URNPath
	d.Text = m.Text
	d.Status = string(m.Status)
	d.QueuedOn = m.QueuedOn
	d.SentOn = sql.NullTime{Time: m.SentOn, Valid: !m.SentOn.IsZero()}
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataMsg) Model() (*model.Msg, error) {
	m := &model.Msg{
		ID:        d.ID,
		ChannelID: d.ChannelID,
		Direction: model.MsgDirection(d.Direction),
		URNPath:   d.URNPath,
		Text:      d.Text,
		Status:    model.MsgStatus(d.Status),
		QueuedOn:  d.QueuedOn,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	if d.SentOn.Valid {
		m.SentOn = d.SentOn.Time
	}

	return m, nil
}

func (s *msgStore) FindByID(id int64) (*model.Msg, error) {
	d := sqlDataMsg{}
	query := "SELECT * FROM msgs WHERE id=$1"
	if err := s.db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find msg")
	}

	return d.Model()
}

func (s *msgStore) FetchQueued(channelID int64) ([]model.Msg, error) {
	rows := make([]sqlDataMsg, 0)
	models := make([]model.Msg, 0)

	query := "SELECT * FROM msgs WHERE channel_id=$1 AND direction=$2 AND status=$3 ORDER BY queued_on, id"
	if err := s.db.Select(&rows, query, channelID, string(model.MsgDirectionOut), string(model.MsgStatusQueued)); err != nil {
		return nil, errors.Wrap(err, "failed to fetch queued msgs")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to msg model")
		}

		models = append(models, *m)
	}

	return models, nil
}

func (s *msgStore) Create(m *model.Msg) error {
	if m.Direction == "" {
		m.Direction = model.MsgDirectionOut
	}
	if m.Status == "" {
		m.Status = model.MsgStatusQueued
	}
	if m.QueuedOn.IsZero() {
		m.QueuedOn = time.Now().Round(time.Second).UTC()
	}

	d := sqlDataMsg{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert msg model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsMsg {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO msgs (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := s.db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create msg")
	}
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func (s *msgStore) UpdateStatus(id int64, status model.MsgStatus, sentOn time.Time) error {
	sentOnVal := sql.NullTime{Time: sentOn, Valid: !sentOn.IsZero()}

	query := "UPDATE msgs SET status=$1, sent_on=COALESCE($2, sent_on), updated_at=$3 WHERE id=$4"
	res, err := s.db.Exec(query, string(status), sentOnVal, time.Now().Round(time.Second).UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed to update msg status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}
