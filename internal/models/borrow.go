package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BorrowState is the approval state of a borrow request
type BorrowState string

const (
	BorrowPending  BorrowState = "Pending"
	BorrowApproved BorrowState = "Approved"
	BorrowRejected BorrowState = "Rejected"
)

var borrowStateAliases = map[string]BorrowState{
	"pending":                BorrowPending,
	"wachten op goedkeuring": BorrowPending,
	"approved":               BorrowApproved,
	"goedgekeurd":            BorrowApproved,
	"rejected":               BorrowRejected,
	"afgewezen":              BorrowRejected,
}

// UnmarshalJSON accepts the English states and the Dutch labels of the
// catalog backend.
func (s *BorrowState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if st, ok := borrowStateAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		*s = st
		return nil
	}
	*s = BorrowState(raw)
	return nil
}

var borrowStateLabels = map[BorrowState]string{
	BorrowPending:  "Wachten op goedkeuring",
	BorrowApproved: "Goedgekeurd",
	BorrowRejected: "Afgewezen",
}

// Label returns the Dutch label shown for the state
func (s BorrowState) Label() string {
	if l, ok := borrowStateLabels[s]; ok {
		return l
	}
	return string(s)
}

// Date is a calendar timestamp that decodes the layouts the backend emits
type Date struct {
	time.Time
}

var dateDecodeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON accepts RFC 3339 timestamps, local timestamps, plain dates
// and epoch milliseconds.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '"' && !bytes.Equal(data, []byte("null")) {
		var ms json.Number
		if err := json.Unmarshal(data, &ms); err != nil {
			return err
		}
		f, err := ms.Float64()
		if err != nil {
			return fmt.Errorf("date %s: %w", data, err)
		}
		d.Time = time.UnixMilli(int64(f)).UTC()
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range dateDecodeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			d.Time = t
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON writes the date as a plain YYYY-MM-DD string
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// Display formats the date as dd-MM-yyyy
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02-01-2006")
}

// BorrowUser is the borrower attached to a request
type BorrowUser struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BorrowStatus is one user's request to borrow one device
type BorrowStatus struct {
	ID          int64       `json:"id"`
	User        BorrowUser  `json:"user"`
	Device      Device      `json:"device"`
	Status      BorrowState `json:"status"`
	BorrowDate  Date        `json:"borrowDate"`
	Description string      `json:"description"`
}

// CanApprove reports whether the request may move to Approved
func (b BorrowStatus) CanApprove() bool { return b.Status == BorrowPending }

// CanReject reports whether the request may move to Rejected
func (b BorrowStatus) CanReject() bool { return b.Status == BorrowPending }

// CanDelete reports whether the request may be hard-deleted
func (b BorrowStatus) CanDelete() bool { return b.Status == BorrowRejected }

// BorrowRequest is the body of POST /borrowedstatus
type BorrowRequest struct {
	UserName    string `json:"userName" validate:"required"`
	DeviceID    int64  `json:"deviceId" validate:"required,gt=0"`
	Description string `json:"description" validate:"required"`
}
