package postgres

import (
	"context"

	"github.com/couchcryptid/quake-match/internal/domain"
)

// upsertMatchSQL inserts or overwrites the match for a detection in a single
// statement, so concurrent invocations cannot both insert. create_time is only
// written on insert. xmax is 0 for a freshly inserted tuple.
const upsertMatchSQL = `
INSERT INTO matches (detection_id, event_id, match_time, create_time)
VALUES (?, ?, ?, ?)
ON CONFLICT (detection_id) DO UPDATE
SET event_id = EXCLUDED.event_id, match_time = EXCLUDED.match_time
RETURNING (xmax = 0) AS inserted`

// UpsertMatch writes the match and reports whether a new row was created.
func (s *Store) UpsertMatch(ctx context.Context, m domain.Match) (bool, error) {
	var res struct {
		Inserted bool
	}
	err := s.db.WithContext(ctx).
		Raw(upsertMatchSQL, m.DetectionID, m.EventID, m.MatchTime.UTC(), m.CreateTime.UTC()).
		Scan(&res).Error
	if err != nil {
		return false, domain.NewError(domain.KindMatch, "upsert match", err)
	}
	return res.Inserted, nil
}
