package business

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
)

const (
	cursorSeparator    = "|"
	mailboxCursorTag   = "m"
	historyCursorTag   = "h"
	actorCursorTag     = "a"
	cursorSecretLength = 32
)

// CursorManager issues opaque, tamper evident pagination cursors. A cursor is
// only valid for the view (mailbox kind or file history) that issued it.
type CursorManager struct {
	secret []byte
}

// NewCursorManager signs cursors with secret. An empty secret is replaced by a
// random one, so cursors then only survive for the life of the process.
func NewCursorManager(secret string) *CursorManager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, cursorSecretLength)
		_, _ = rand.Read(key)
	}
	return &CursorManager{secret: key}
}

func (cm *CursorManager) sign(payload string) []byte {
	h := hmac.New(sha256.New, cm.secret)
	h.Write([]byte(payload))
	return h.Sum(nil)
}

func (cm *CursorManager) seal(parts ...string) string {
	payload := strings.Join(parts, cursorSeparator)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." +
		base64.RawURLEncoding.EncodeToString(cm.sign(payload))
}

func (cm *CursorManager) open(cursor string, wantParts int) ([]string, error) {
	encodedPayload, encodedMac, found := strings.Cut(cursor, ".")
	if !found {
		return nil, types.Validation("invalid cursor format")
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, types.Validation("invalid cursor format")
	}
	mac, err := base64.RawURLEncoding.DecodeString(encodedMac)
	if err != nil {
		return nil, types.Validation("invalid cursor format")
	}
	if !hmac.Equal(mac, cm.sign(string(payload))) {
		return nil, types.Validation("cursor tampering detected")
	}

	parts := strings.Split(string(payload), cursorSeparator)
	if len(parts) != wantParts {
		return nil, types.Validation("invalid cursor format")
	}
	return parts, nil
}

// EncodeMailbox returns the cursor continuing kind after key.
func (cm *CursorManager) EncodeMailbox(kind types.MailboxKind, key types.PageKey) string {
	return cm.seal(mailboxCursorTag, string(kind),
		strconv.FormatInt(key.CreatedAt.UnixNano(), 10), key.ID)
}

// DecodeMailbox returns nil for an empty cursor.
func (cm *CursorManager) DecodeMailbox(kind types.MailboxKind, cursor string) (*types.PageKey, error) {
	if cursor == "" {
		return nil, nil
	}

	parts, err := cm.open(cursor, 4)
	if err != nil {
		return nil, err
	}
	if parts[0] != mailboxCursorTag || parts[1] != string(kind) {
		return nil, types.Validation("cursor was not issued for the %s view", kind)
	}

	nanos, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, types.Validation("invalid timestamp in cursor")
	}
	return &types.PageKey{CreatedAt: time.Unix(0, nanos).UTC(), ID: parts[3]}, nil
}

// EncodeHistory returns the cursor continuing fileID's trail after sequence.
func (cm *CursorManager) EncodeHistory(fileID string, sequence int64) string {
	return cm.seal(historyCursorTag, fileID, strconv.FormatInt(sequence, 10))
}

// DecodeHistory returns 0 for an empty cursor.
func (cm *CursorManager) DecodeHistory(fileID string, cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}

	parts, err := cm.open(cursor, 3)
	if err != nil {
		return 0, err
	}
	if parts[0] != historyCursorTag || parts[1] != fileID {
		return 0, types.Validation("cursor was not issued for file %s", fileID)
	}

	sequence, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || sequence < 0 {
		return 0, types.Validation("invalid sequence in cursor")
	}
	return sequence, nil
}

// EncodeActors returns the cursor continuing the directory after actorID.
func (cm *CursorManager) EncodeActors(actorID string) string {
	return cm.seal(actorCursorTag, actorID)
}

// DecodeActors returns the empty id for an empty cursor.
func (cm *CursorManager) DecodeActors(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	parts, err := cm.open(cursor, 2)
	if err != nil {
		return "", err
	}
	if parts[0] != actorCursorTag || parts[1] == "" {
		return "", types.Validation("cursor was not issued for the actor directory")
	}
	return parts[1], nil
}

// PageLimits clamps client supplied page sizes.
type PageLimits struct {
	Default int
	Max     int
}

const (
	fallbackPageLimit    = 20
	fallbackMaxPageLimit = 100
)

func (pl PageLimits) Clamp(limit int) int {
	maxLimit := pl.Max
	if maxLimit <= 0 {
		maxLimit = fallbackMaxPageLimit
	}
	if limit <= 0 {
		limit = pl.Default
		if limit <= 0 {
			limit = fallbackPageLimit
		}
	}
	return min(limit, maxLimit)
}
