package sqlite

import (
	"context"
	"time"

	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

const userColumns = `id, company_id, email, name, role, branch_ids, password_hash, active, created_at, updated_at`

func scanUser(s rowScanner) (*entities.User, error) {
	var (
		u         entities.User
		branchIDs string
	)
	if err := s.Scan(&u.ID, &u.CompanyID, &u.Email, &u.Name, &u.Role, &branchIDs, &u.PasswordHash,
		&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(branchIDs, &u.BranchIDs); err != nil {
		return nil, err
	}
	if u.BranchIDs == nil {
		u.BranchIDs = []string{}
	}
	return &u, nil
}

func (r *repos) CreateUser(ctx context.Context, u *entities.User) error {
	branchIDs, err := toJSON(u.BranchIDs)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.CompanyID, u.Email, u.Name, u.Role, branchIDs, u.PasswordHash, u.Active,
		utc(u.CreatedAt), utc(u.UpdatedAt))
	return translate(err, "user", u.Email)
}

func (r *repos) GetUser(ctx context.Context, companyID, id string) (*entities.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = ? AND id = ?`, companyID, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "user", id)
	}
	return u, nil
}

func (r *repos) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "user", email)
	}
	return u, nil
}

func (r *repos) UpdateUser(ctx context.Context, u *entities.User) error {
	branchIDs, err := toJSON(u.BranchIDs)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, role = ?, branch_ids = ?, password_hash = ?, active = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		u.Email, u.Name, u.Role, branchIDs, u.PasswordHash, u.Active, utc(u.UpdatedAt), u.CompanyID, u.ID)
	if err != nil {
		return translate(err, "user", u.ID)
	}
	return mustAffect(res, "user", u.ID)
}

func (r *repos) DeleteUser(ctx context.Context, companyID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE company_id = ? AND id = ?`, companyID, id)
	if err != nil {
		return translate(err, "user", id)
	}
	return mustAffect(res, "user", id)
}

func (r *repos) ListUsers(ctx context.Context, companyID string, opts repositories.ListOptions) ([]*entities.User, error) {
	query, args := page(`SELECT `+userColumns+` FROM users WHERE company_id = ? ORDER BY email`,
		[]any{companyID}, opts)
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repos) CreateSession(ctx context.Context, s *entities.Session) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, company_id, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		s.TokenHash, s.UserID, s.CompanyID, utc(s.CreatedAt), utc(s.ExpiresAt))
	return translate(err, "session", s.UserID)
}

func (r *repos) GetSession(ctx context.Context, tokenHash string) (*entities.Session, error) {
	var s entities.Session
	err := r.q.QueryRowContext(ctx,
		`SELECT token_hash, user_id, company_id, created_at, expires_at FROM sessions WHERE token_hash = ?`,
		tokenHash).Scan(&s.TokenHash, &s.UserID, &s.CompanyID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, translate(err, "session", "")
	}
	return &s, nil
}

func (r *repos) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}

func (r *repos) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *repos) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, utc(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
