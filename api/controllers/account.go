package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/velorashop/velora-backend/api/middleware"
	"github.com/velorashop/velora-backend/api/responses"
	"github.com/velorashop/velora-backend/api/validators"
	"github.com/velorashop/velora-backend/pkg/db/models"
	"github.com/velorashop/velora-backend/pkg/enums"
	pkgerrors "github.com/velorashop/velora-backend/pkg/errors"
	"github.com/velorashop/velora-backend/pkg/logger"
)

type activityLister interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityLog, error)
}

type activityEntry struct {
	Action    enums.ActivityAction `json:"action"`
	Detail    string               `json:"detail,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// AccountActivity lists the caller's recent cart activity, newest first.
func AccountActivity(repo activityLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity store unavailable"))
			return
		}
		actx, ok := middleware.AuthFromContext(r.Context())
		if !ok || actx.UserID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := repo.ListForUser(r.Context(), actx.UserID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list account activity"))
			return
		}

		entries := make([]activityEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, activityEntry{
				Action:    row.Action,
				Detail:    row.Detail,
				CreatedAt: row.CreatedAt,
			})
		}
		responses.WriteSuccess(w, "", map[string]any{"activity": entries})
	}
}
