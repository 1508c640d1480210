package activity

import (
	"context"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const defaultRecentLimit = 10

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Record(ctx context.Context, e Entry) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO activity_logs(actor_id, actor_name, actor_role, action_type, target_type, target_value, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ActorID, e.ActorName, string(e.ActorRole), e.ActionType, e.TargetType, e.TargetValue, e.Detail, e.CreatedAt,
	)
	return errors.Wrap(err, "activity: insert")
}

// Recent returns the newest entries first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, actor_id, actor_name, actor_role, action_type, target_type, target_value, detail, created_at
		FROM activity_logs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "activity: recent")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var role string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorName, &role, &e.ActionType, &e.TargetType, &e.TargetValue, &e.Detail, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "activity: scan")
		}
		e.ActorRole = Role(role)
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "activity: rows")
}
