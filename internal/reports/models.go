package reports

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Report represents generated plan report metadata
type Report struct {
	ID        uuid.UUID
	PatientID int64
	PlanTitle string
	ObjectKey *string
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	Data      []byte // Only used in local mode
}

const (
	StatusReady  = "ready"
	StatusFailed = "failed"
)

// Errors
var (
	ErrPlanNotFound   = fmt.Errorf("plan not found")
	ErrReportNotFound = fmt.Errorf("report not found")
)
