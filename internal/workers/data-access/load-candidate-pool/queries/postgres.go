package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"

	"connector-workers/internal/models"
)

// user_type is normalised the way models.ParseRole does before matching.
const candidatePoolSQL = `
	SELECT id, name, user_type, industry, stage, country, bio,
	       interests, looking_for, can_offer
	FROM users
	WHERE id::text <> $1
	  AND is_active
	  AND LOWER(REGEXP_REPLACE(TRIM(user_type), '\s+', ' ', 'g')) = ANY($2)
	ORDER BY created_at DESC
	LIMIT $3`

func FromPostgres(ctx context.Context, db *sql.DB, q PoolQuery) (*Result, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, candidatePoolSQL, q.RequesterID, pq.Array(q.Roles), q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.UserProfile, 0, q.Limit)
	for rows.Next() {
		var id, name, userType, industry, stage, country, bio sql.NullString
		var interests, lookingFor, canOffer sql.NullString

		if err := rows.Scan(
			&id, &name, &userType, &industry, &stage, &country, &bio,
			&interests, &lookingFor, &canOffer,
		); err != nil {
			return nil, err
		}

		role, _ := models.ParseRole(userType.String)
		profiles = append(profiles, models.UserProfile{
			ID:         id.String,
			Name:       name.String,
			Role:       role,
			Industry:   industry.String,
			Stage:      stage.String,
			Country:    country.String,
			Bio:        bio.String,
			Interests:  decodeList(interests),
			LookingFor: decodeList(lookingFor),
			CanOffer:   decodeList(canOffer),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Profiles: profiles,
		Took:     time.Since(start).Milliseconds(),
	}, nil
}

// decodeList reads a list column stored as a JSON array, a JSON string, a
// Postgres array literal or comma separated text.
func decodeList(col sql.NullString) models.StringList {
	raw := strings.TrimSpace(col.String)
	if !col.Valid || raw == "" {
		return nil
	}

	if raw[0] == '[' || raw[0] == '"' {
		var list models.StringList
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list
		}
	}

	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
	var list models.StringList
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			list = append(list, part)
		}
	}
	return list
}
