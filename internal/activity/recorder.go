package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/enums"
	"github.com/velorashop/velora-backend/pkg/logger"
)

type activityStore interface {
	Insert(ctx context.Context, row *models.ActivityLog) error
}

// Recorder writes the audit trail for cart mutations. A failed write is
// logged and swallowed so auditing never fails the triggering request.
type Recorder struct {
	repo activityStore
	logg *logger.Logger
}

// NewRecorder builds an activity recorder.
func NewRecorder(repo activityStore, logg *logger.Logger) (*Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Recorder{repo: repo, logg: logg}, nil
}

// Record persists one audit entry.
func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, action enums.ActivityAction, detail string) {
	if userID == uuid.Nil || !action.IsValid() {
		r.logg.Warn(ctx, fmt.Sprintf("skipping malformed activity record: user=%s action=%s", userID, action))
		return
	}

	row := &models.ActivityLog{
		UserID: userID,
		Action: action,
		Detail: detail,
	}
	if err := r.repo.Insert(ctx, row); err != nil {
		r.logg.Error(ctx, "writing activity log", err)
	}
}
