package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

const userSelect = `
	SELECT u.id, u.card_id, st.id AS student_id, t.id AS teacher_id, u.role, u.name,
	u.email, u.image, u.hashed_password, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN students st ON st.user_id = u.id
	LEFT JOIN teachers t ON t.user_id = u.id
	`

const userFilter = `
	WHERE ($1::text = '' OR u.name ILIKE '%' || $1 || '%' OR u.email ILIKE '%' || $1 || '%' OR st.id ILIKE '%' || $1 || '%')
	AND ($2::text = '' OR u.role::text = $2)
	`

func (s *pgStore) ListUsers(ctx context.Context, q model.UserQuery) ([]model.User, int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*)
		FROM users u
		LEFT JOIN students st ON st.user_id = u.id
		`+userFilter, q.Search, string(q.Role))
	if err != nil {
		log.Error().Err(err).Msg("failed to count users")
		return nil, 0, err
	}

	users := []model.User{}
	err = s.db.SelectContext(ctx, &users, userSelect+userFilter+`
		ORDER BY u.updated_at DESC, u.id
		LIMIT $3 OFFSET $4
		`, q.Search, string(q.Role), q.Limit, model.Offset(q.Page, q.Limit))
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return nil, 0, err
	}
	return users, total, nil
}

func (s *pgStore) getUser(ctx context.Context, q sqlx.QueryerContext, where string, arg any) (*model.User, error) {
	var u model.User
	if err := sqlx.GetContext(ctx, q, &u, userSelect+where, arg); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *pgStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, s.db, `WHERE u.id = $1`, id)
}

func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, s.db, `WHERE lower(u.email) = lower($1)`, email)
}

func (s *pgStore) GetUserByStudentID(ctx context.Context, studentID string) (*model.User, error) {
	return s.getUser(ctx, s.db, `WHERE st.id = $1`, studentID)
}

func (s *pgStore) GetUserByCardID(ctx context.Context, cardID string) (*model.User, error) {
	return s.getUser(ctx, s.db, `WHERE u.card_id = $1`, cardID)
}

func (s *pgStore) CreateUser(ctx context.Context, nu model.NewUser, studentCode string) (*model.User, error) {
	var created *model.User
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id, `
			INSERT INTO users (card_id, role, name, email, hashed_password, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			RETURNING id
			`, nu.CardID, string(nu.Role), nu.Name, nu.Email, nu.HashedPassword)
		if err != nil {
			return err
		}

		switch nu.Role {
		case model.RoleStudent:
			_, err = tx.ExecContext(ctx, `INSERT INTO students (id, user_id) VALUES ($1, $2)`, studentCode, id)
		case model.RoleTeacher:
			_, err = tx.ExecContext(ctx, `INSERT INTO teachers (user_id) VALUES ($1)`, id)
		}
		if err != nil {
			return err
		}

		created, err = s.getUser(ctx, tx, `WHERE u.id = $1`, id)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("role", string(nu.Role)).Msg("failed to create user")
		return nil, translate(err)
	}
	return created, nil
}

func (s *pgStore) UpdateUser(ctx context.Context, id string, changes model.UserChanges) (*model.User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
		card_id = COALESCE($3, card_id),
		email = COALESCE($4, email),
		image = COALESCE($5, image),
		hashed_password = COALESCE($6, hashed_password),
		updated_at = now()
		WHERE id = $1
		`, id, changes.Name, changes.CardID, changes.Email, changes.Image, changes.HashedPassword)
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return nil, translate(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *pgStore) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s, "users", id)
}
