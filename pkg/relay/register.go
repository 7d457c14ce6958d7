package relay

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/relay/proto"
	"github.com/rapidpro/relayd/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// Ambiguous characters are left out so operators can read claim codes off
// small screens without mistaking 0 for O or 1 for I.
const claimCodeAlphabet = "23456789ACDEFGHJKLMNPQRSTUVWXYZ"
const claimCodeLength = 8

const secretAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const secretLength = 64

// Legacy GCM-only app builds cannot be supported anymore. They get a masked
// sentinel registration so they show the operator a claim screen that can
// never complete instead of crashing.
const legacyClaimCode = "*********"

var legacySecret = strings.Repeat("0", secretLength)

// Notifier publishes channel lifecycle events for downstream services.
type Notifier interface {
	ChannelRegistered(ch *model.Channel) error
	ChannelReleased(ch *model.Channel) error
}

// Registrar handles device registration and hands out channel credentials.
type Registrar struct {
	store    storage.Interface
	push     PushClient
	notifier Notifier
}

func NewRegistrar(store storage.Interface, push PushClient, notifier Notifier) *Registrar {
	return &Registrar{
		store:    store,
		push:     push,
		notifier: notifier,
	}
}

// Register processes the registration command batch and returns the reg
// command for the device. Registration is idempotent per device UUID, a
// device that registers twice gets the same channel back.
func (r *Registrar) Register(cmds []proto.Command) (proto.RegCommand, error) {
	var fcmCmd *proto.FCMCommand
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case proto.FCMCommand:
			if fcmCmd == nil {
				fcmCmd = &c
			}
		case proto.UnknownCommand:
			if c.Keyword == "gcm" {
				return proto.RegCommand{
					ClaimCode: legacyClaimCode,
					Secret:    legacySecret,
					RelayerID: -1,
				}, nil
			}
		}
	}

	if fcmCmd == nil || fcmCmd.DeviceUUID == "" {
		return proto.RegCommand{}, proto.NewSyncError(proto.ErrCodeInvalidRequest, "Missing FCM command")
	}

	if err := r.push.ValidateToken(fcmCmd.FCMID); err != nil {
		log.WithFields(log.Fields{
			"device_uuid": fcmCmd.DeviceUUID,
		}).Warn("Push token failed validation, registering anyway: ", err)
	}

	ch, err := r.store.Channels().FindByDeviceUUID(fcmCmd.DeviceUUID)
	if err == nil {
		return r.reregister(ch, fcmCmd)
	}
	if err != storage.ErrNotFound {
		return proto.RegCommand{}, errors.Wrap(err, "failed to look up channel by device UUID")
	}

	claimCode, err := randomString(claimCodeAlphabet, claimCodeLength)
	if err != nil {
		return proto.RegCommand{}, err
	}
	secret, err := randomString(secretAlphabet, secretLength)
	if err != nil {
		return proto.RegCommand{}, err
	}

	ch = &model.Channel{
		UUID:      uuid.New().String(),
		Secret:    secret,
		ClaimCode: claimCode,
		Config: model.ChannelConfig{
			FCMID:      fcmCmd.FCMID,
			DeviceUUID: fcmCmd.DeviceUUID,
		},
	}
	if err := r.store.Channels().Create(ch); err != nil {
		return proto.RegCommand{}, errors.Wrap(err, "failed to create channel")
	}

	if r.notifier != nil {
		if err := r.notifier.ChannelRegistered(ch); err != nil {
			log.Warn("Failed to publish channel registered event: ", err)
		}
	}

	return proto.RegCommand{
		ClaimCode: ch.ClaimCode,
		Secret:    ch.Secret,
		RelayerID: ch.ID,
	}, nil
}

// reregister refreshes the push token and hands the existing credentials
// back. An already claimed channel gets a fresh claim code only if it lost
// its old one, never new credentials.
func (r *Registrar) reregister(ch *model.Channel, fcmCmd *proto.FCMCommand) (proto.RegCommand, error) {
	cfg := ch.Config
	cfg.FCMID = fcmCmd.FCMID
	if cfg != ch.Config {
		if err := r.store.Channels().UpdateConfig(ch.ID, cfg); err != nil {
			return proto.RegCommand{}, errors.Wrap(err, "failed to update channel config")
		}
		ch.Config = cfg
	}

	if ch.ClaimCode == "" && !ch.Claimed() {
		claimCode, err := randomString(claimCodeAlphabet, claimCodeLength)
		if err != nil {
			return proto.RegCommand{}, err
		}

		ch.ClaimCode = claimCode
		if err := r.store.Channels().Update(ch); err != nil {
			return proto.RegCommand{}, errors.Wrap(err, "failed to update channel")
		}
	}

	return proto.RegCommand{
		ClaimCode: ch.ClaimCode,
		Secret:    ch.Secret,
		RelayerID: ch.ID,
	}, nil
}

func randomString(alphabet string, length int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate random string")
		}
		sb.WriteByte(alphabet[n.Int64()])
	}

	return sb.String(), nil
}

// TouchLastSeen refreshes the channel's last-seen timestamp when it has
// gone stale. Writing on every sync would churn the row for nothing, the
// five minute grace keeps it cheap.
func TouchLastSeen(store storage.Interface, ch *model.Channel, now time.Time) error {
	if !ch.LastSeenAt.IsZero() && now.Sub(ch.LastSeenAt) <= 5*time.Minute {
		return nil
	}

	if err := store.Channels().TouchLastSeen(ch.ID, now); err != nil {
		return errors.Wrap(err, "failed to touch channel last seen")
	}
	ch.LastSeenAt = now

	return nil
}
