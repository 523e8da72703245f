package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

const roomColumns = `id, name, capacity, created_at, updated_at`

func (s *pgStore) ListRooms(ctx context.Context, q model.ListQuery) ([]model.Room, int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*)
		FROM rooms
		WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
		`, q.Search)
	if err != nil {
		log.Error().Err(err).Msg("failed to count rooms")
		return nil, 0, err
	}

	rooms := []model.Room{}
	err = s.db.SelectContext(ctx, &rooms, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY updated_at DESC, id
		LIMIT $2 OFFSET $3
		`, q.Search, q.Limit, model.Offset(q.Page, q.Limit))
	if err != nil {
		log.Error().Err(err).Msg("failed to list rooms")
		return nil, 0, err
	}
	return rooms, total, nil
}

func (s *pgStore) GetRoom(ctx context.Context, id string) (model.Room, error) {
	var room model.Room
	err := s.db.GetContext(ctx, &room, `
		SELECT `+roomColumns+`
		FROM rooms
		WHERE id = $1
		`, id)
	return room, translate(err)
}

func (s *pgStore) CreateRoom(ctx context.Context, name string, capacity int) (model.Room, error) {
	var room model.Room
	q := `
	INSERT INTO rooms (name, capacity, created_at, updated_at)
	VALUES ($1, $2, now(), now())
	RETURNING ` + roomColumns
	if err := s.db.GetContext(ctx, &room, q, name, capacity); err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to create room")
		return model.Room{}, translate(err)
	}
	return room, nil
}

func (s *pgStore) UpdateRoom(ctx context.Context, id string, changes model.RoomChanges) (model.Room, error) {
	var room model.Room
	err := s.db.GetContext(ctx, &room, `
		UPDATE rooms
		SET name = COALESCE($2, name),
		capacity = COALESCE($3, capacity),
		updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns, id, changes.Name, changes.Capacity)
	if err != nil {
		log.Error().Err(err).Str("room_id", id).Msg("failed to update room")
	}
	return room, translate(err)
}

func (s *pgStore) DeleteRoom(ctx context.Context, id string) error {
	return deleteByID(ctx, s, "rooms", id)
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
// table is always a package constant.
func deleteByID(ctx context.Context, s *pgStore, table, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Str("table", table).Str("id", id).Msg("failed to delete row")
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
