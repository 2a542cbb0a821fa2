package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pecommunity/internal/models"
)

const profileColumns = `id, sub, email, full_name, COALESCE(username, ''), role, avatar_url,
	school, specialization, years_of_experience, created_at, updated_at`

func scanProfile(row pgx.Row, p *models.Profile) error {
	return row.Scan(
		&p.ID,
		&p.Sub,
		&p.Email,
		&p.FullName,
		&p.Username,
		&p.Role,
		&p.AvatarURL,
		&p.School,
		&p.Specialization,
		&p.YearsOfExperience,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// UpsertProfile creates or updates a profile based on its identity subject.
// A non-empty Role on insert sets the initial role; on conflict the role is
// only ever raised to admin, never lowered. Name and avatar edited by the
// user are kept; the identity provider only fills them when empty.
func (d *DB) UpsertProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (sub, email, full_name, avatar_url, role)
		VALUES ($1, $2, $3, $4, COALESCE($5, 'user'))
		ON CONFLICT (sub) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = CASE WHEN profiles.full_name = '' THEN EXCLUDED.full_name ELSE profiles.full_name END,
			avatar_url = CASE WHEN profiles.avatar_url = '' THEN EXCLUDED.avatar_url ELSE profiles.avatar_url END,
			role = CASE WHEN $5 = 'admin' THEN 'admin' ELSE profiles.role END,
			updated_at = NOW()
		RETURNING ` + profileColumns

	return scanProfile(d.Pool.QueryRow(ctx, query,
		p.Sub,
		p.Email,
		p.FullName,
		p.AvatarURL,
		nullIfEmpty(p.Role),
	), p)
}

// GetProfileBySub retrieves a profile by its identity subject.
func (d *DB) GetProfileBySub(ctx context.Context, sub string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE sub = $1`

	var p models.Profile
	err := scanProfile(d.Pool.QueryRow(ctx, query, sub), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileByID retrieves a profile by its UUID.
func (d *DB) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	var p models.Profile
	err := scanProfile(d.Pool.QueryRow(ctx, query, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies self-editable fields to a profile.
func (d *DB) UpdateProfile(ctx context.Context, id uuid.UUID, upd *models.ProfileUpdate) (*models.Profile, error) {
	query := `
		UPDATE profiles SET
			full_name = $2,
			username = $3,
			avatar_url = $4,
			school = $5,
			specialization = $6,
			years_of_experience = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	var p models.Profile
	err := scanProfile(d.Pool.QueryRow(ctx, query,
		id,
		upd.FullName,
		nullIfEmpty(upd.Username),
		upd.AvatarURL,
		upd.School,
		upd.Specialization,
		upd.YearsOfExperience,
	), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfileRole sets a profile's role.
func (d *DB) UpdateProfileRole(ctx context.Context, id uuid.UUID, role string) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE profiles SET role = $1, updated_at = NOW() WHERE id = $2
	`, role, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// ListProfiles returns all profiles, newest first.
func (d *DB) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// GetAdmins returns every admin profile.
func (d *DB) GetAdmins(ctx context.Context) ([]models.Profile, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE role = $1 ORDER BY created_at`, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, err
		}
		admins = append(admins, p)
	}
	return admins, rows.Err()
}

// RecordLogin upserts the profile's last_login timestamp in user_stats.
func (d *DB) RecordLogin(ctx context.Context, id uuid.UUID) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO user_stats (id, last_login) VALUES ($1, NOW())
		ON CONFLICT (id) DO UPDATE SET last_login = NOW()
	`, id)
	return err
}

// GetUserStats returns the activity counters for a profile.
func (d *DB) GetUserStats(ctx context.Context, id uuid.UUID) (*models.UserStats, error) {
	var s models.UserStats
	err := d.Pool.QueryRow(ctx, `
		SELECT id, last_login, total_content, total_requests, created_at
		FROM user_stats WHERE id = $1
	`, id).Scan(&s.ID, &s.LastLogin, &s.TotalContent, &s.TotalRequests, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.UserStats{ID: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RefreshUserStats recomputes total_content and total_requests for every profile.
// Returns the number of stats rows written.
func (d *DB) RefreshUserStats(ctx context.Context) (int64, error) {
	result, err := d.Pool.Exec(ctx, `
		INSERT INTO user_stats (id, total_content, total_requests)
		SELECT p.id,
			(SELECT COUNT(*) FROM content c WHERE c.created_by = p.id),
			(SELECT COUNT(*) FROM content_requests r WHERE r.user_id = p.id)
		FROM profiles p
		ON CONFLICT (id) DO UPDATE SET
			total_content = EXCLUDED.total_content,
			total_requests = EXCLUDED.total_requests
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
