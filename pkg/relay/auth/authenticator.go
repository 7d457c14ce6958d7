package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/rapidpro/relayd/pkg/model"
	"github.com/rapidpro/relayd/pkg/relay/proto"
)

// RequestWindow is how far a request timestamp may drift from server time,
// in either direction, before the request is rejected as stale.
const RequestWindow = 15 * time.Minute

// ReplayCache remembers recently accepted signatures. SeenOrStore returns
// true when the signature was already accepted within the TTL.
type ReplayCache interface {
	SeenOrStore(signature string, ttl time.Duration) (bool, error)
}

type Authenticator struct {
	window time.Duration
	replay ReplayCache
}

// NewAuthenticator creates an authenticator. The replay cache is optional,
// passing nil disables replay checking. Devices on flaky networks retry the
// same signed request legitimately, so replay checking is opt-in.
func NewAuthenticator(replay ReplayCache) *Authenticator {
	return &Authenticator{
		window: RequestWindow,
		replay: replay,
	}
}

// Authenticate validates a sync request against the channel credentials.
// The returned error is always a *proto.SyncError when validation fails.
// Claim state is checked before staleness, staleness before the signature,
// so a device with a wrong clock learns about its clock and not about a
// signature mismatch the clock caused.
func (a *Authenticator) Authenticate(ch *model.Channel, ts int64, signature string, body []byte, now time.Time) error {
	if !ch.Claimed() {
		return proto.NewSyncError(proto.ErrCodeInvalidRequest, "Can not sync unclaimed channel")
	}

	drift := now.UTC().Sub(time.Unix(ts, 0).UTC())
	if drift > a.window || drift < -a.window {
		return proto.NewStaleRequestError()
	}

	given, err := decodeSignature(signature)
	if err != nil {
		return proto.NewInvalidSignatureError()
	}

	if !hmac.Equal(given, Sign(ch.Secret, ts, body)) {
		return proto.NewInvalidSignatureError()
	}

	if a.replay != nil {
		seen, err := a.replay.SeenOrStore(signature, a.window)
		if err != nil {
			return err
		}
		if seen {
			return proto.NewSyncError(proto.ErrCodeStaleRequest, "Repeated request signature")
		}
	}

	return nil
}

// Sign computes the raw HMAC-SHA256 digest of body. The key is the channel
// secret with the decimal timestamp appended, which ties every signature to
// its request time.
func Sign(secret string, ts int64, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret+strconv.FormatInt(ts, 10)))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureFor is Sign encoded the way devices send it.
func SignatureFor(secret string, ts int64, body []byte) string {
	return base64.URLEncoding.EncodeToString(Sign(secret, ts, body))
}

// decodeSignature accepts both padded and unpadded base64url, device
// platforms disagree on which one their HTTP library produces.
func decodeSignature(signature string) ([]byte, error) {
	if raw, err := base64.URLEncoding.DecodeString(signature); err == nil {
		return raw, nil
	}
	return base64.RawURLEncoding.DecodeString(signature)
}
