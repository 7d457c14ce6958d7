package proto

import (
	"encoding/json"
	"fmt"
)

// Error codes the device app understands. It shows the error text to the
// operator and backs off syncing when it sees a stale clock.
const (
	ErrCodeInvalidSignature = 1
	ErrCodeStaleRequest     = 3
	ErrCodeInvalidRequest   = 4
)

type SyncError struct {
	Code    int
	Message string
}

func NewSyncError(code int, message string) error {
	return &SyncError{
		Code:    code,
		Message: message,
	}
}

func NewInvalidSignatureError() error {
	return NewSyncError(ErrCodeInvalidSignature, "Invalid signature")
}

func NewStaleRequestError() error {
	return NewSyncError(ErrCodeStaleRequest, "Old Request")
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync rejected: error_id: %d: %s", e.Code, e.Message)
}

// Marshal renders the error body. The empty cmds list is deliberate, older
// app builds crash on an error response without it.
func (e *SyncError) Marshal() ([]byte, error) {
	dict := map[string]interface{}{
		"error_id": e.Code,
		"error":    e.Message,
		"cmds":     []interface{}{},
	}

	return json.Marshal(dict)
}

func IsSyncError(e error) bool {
	_, ok := e.(*SyncError)
	return ok
}
