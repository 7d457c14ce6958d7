package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/storage"
)

func newChannelStore(db *sqlx.DB) *channelStore {
	return &channelStore{
		db: db,
	}
}

type channelStore struct {
	db *sqlx.DB
}

type sqlDataChannel struct {
	ID         int64         `db:"id"`
	UUID       string        `db:"uuid"`
	Address    string        `db:"address"`
	Secret     string        `db:"secret"`
	ClaimCode  string        `db:"claim_code"`
	OrgID      sql.NullInt64 `db:"org_id"`
	Config     string        `db:"config"`
	LastSeenAt sql.NullTime  `db:"last_seen_at"`
	CreatedAt  time.Time     `db:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at"`
}

var sqlParamsChannel = []string{
	"id",
	"uuid",
	"address",
	"secret",
	"claim_code",
	"org_id",
	"config",
	"last_seen_at",
	"created_at",
	"updated_at",
}

func (d *sqlDataChannel) Scan(m *model.Channel) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	cfg, err := json.Marshal(m.Config)
	if err != nil {
		return err
	}

	d.ID = m.ID
	d.UUID = m.UUID
	d.Address = m.Address
	d.Secret = m.Secret
	d.ClaimCode = m.ClaimCode
	d.OrgID = sql.NullInt64{Int64: m.OrgID, Valid: m.OrgID != 0}
	d.Config = string(cfg)
	d.LastSeenAt = sql.NullTime{Time: m.LastSeenAt, Valid: !m.LastSeenAt.IsZero()}
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataChannel) Model() (*model.Channel, error) {
	m := &model.Channel{
		ID:        d.ID,
		UUID:      d.UUID,
		Address:   d.Address,
		Secret:    d.Secret,
		ClaimCode: d.ClaimCode,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}

	if d.OrgID.Valid {
		m.OrgID = d.OrgID.Int64
	}
	if d.LastSeenAt.Valid {
		m.LastSeenAt = d.LastSeenAt.Time
	}
	if d.Config != "" {
		if err := json.Unmarshal([]byte(d.Config), &m.Config); err != nil {
			return nil, errors.Wrap(err, "failed to decode channel config")
		}
	}

	return m, nil
}

func (s *channelStore) FetchAll() (map[int64]model.Channel, error) {
	rows := make([]sqlDataChannel, 0)
	models := make(map[int64]model.Channel)

	query := "SELECT * FROM channels ORDER BY id"
	if err := s.db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all channels")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to channel model")
		}

		models[d.ID] = *m
	}

	return models, nil
}

func (s *channelStore) FindByID(id int64) (*model.Channel, error) {
	d := sqlDataChannel{}
	query := "SELECT * FROM channels WHERE id=$1"
	if err := s.db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find channel")
	}

	return d.Model()
}

func (s *channelStore) FindByDeviceUUID(uuid string) (*model.Channel, error) {
	d := sqlDataChannel{}
	query := "SELECT * FROM channels WHERE config::jsonb->>'device_uuid'=$1"
	if err := s.db.Get(&d, query, uuid); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find channel by device uuid")
	}

	return d.Model()
}

func (s *channelStore) FindByClaimCode(code string) (*model.Channel, error) {
	d := sqlDataChannel{}
	query := "SELECT * FROM channels WHERE claim_code=$1 AND claim_code!=''"
	if err := s.db.Get(&d, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find channel by claim code")
	}

	return d.Model()
}

func (s *channelStore) Create(m *model.Channel) error {
	d := sqlDataChannel{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert channel model to SQL data")
	}

	// Remove the id column because it's of SQL type serial
	sqlParamsWithoutID := make([]string, 0)
	for _, s := range sqlParamsChannel {
		if s != "id" {
			sqlParamsWithoutID = append(sqlParamsWithoutID, s)
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO channels (%s) VALUES (%s) RETURNING id",
		strings.Join(sqlParamsWithoutID, ", "),
		":"+strings.Join(sqlParamsWithoutID, ", :"),
	)
	rows, err := s.db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create channel")
	}
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func (s *channelStore) Update(m *model.Channel) error {
	if _, err := s.FindByID(m.ID); err != nil {
		return err
	}

	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	d := sqlDataChannel{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert channel model to SQL data")
	}

	var queryParams []string
	for _, param := range sqlParamsChannel {
		queryParams = append(queryParams, fmt.Sprintf("%s=:%s", param, param))
	}
	query := fmt.Sprintf("UPDATE channels SET %s WHERE id=:id", strings.Join(queryParams, ", "))
	if _, err := s.db.NamedExec(query, d); err != nil {
		return errors.Wrap(err, "failed to update channel")
	}

	return nil
}

func (s *channelStore) UpdateConfig(id int64, cfg model.ChannelConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode channel config")
	}

	query := "UPDATE channels SET config=$1, updated_at=$2 WHERE id=$3"
	res, err := s.db.Exec(query, string(data), time.Now().Round(time.Second).UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed to update channel config")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *channelStore) TouchLastSeen(id int64, t time.Time) error {
	query := "UPDATE channels SET last_seen_at=$1 WHERE id=$2"
	if _, err := s.db.Exec(query, t, id); err != nil {
		return errors.Wrap(err, "failed to touch channel last seen")
	}

	return nil
}

func (s *channelStore) Claim(id int64, orgID int64, address string) error {
	query := "UPDATE channels SET org_id=$1, address=$2, claim_code='', updated_at=$3 WHERE id=$4"
	res, err := s.db.Exec(query, orgID, address, time.Now().Round(time.Second).UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed to claim channel")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *channelStore) Release(id int64) error {
	query := "UPDATE channels SET org_id=NULL, secret='', claim_code='', config='{}', updated_at=$1 WHERE id=$2"
	res, err := s.db.Exec(query, time.Now().Round(time.Second).UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed to release channel")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}
