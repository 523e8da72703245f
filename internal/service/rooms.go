package service

import (
	"context"

	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

type Rooms struct {
	store db.RoomStore
	cache *cache.Cache
}

func NewRooms(store db.RoomStore, c *cache.Cache) *Rooms {
	return &Rooms{store: store, cache: c}
}

func (s *Rooms) FindMany(ctx context.Context, q model.ListQuery) (model.Page[model.Room], error) {
	return cache.Memoize(ctx, s.cache, "rooms.findMany", q, func(ctx context.Context) (model.Page[model.Room], error) {
		rooms, total, err := s.store.ListRooms(ctx, q)
		if err != nil {
			return model.Page[model.Room]{}, err
		}
		return model.NewPage(rooms, total, q.Page, q.Limit), nil
	})
}

func (s *Rooms) FindOne(ctx context.Context, id string) (model.Room, error) {
	return cache.Memoize(ctx, s.cache, "rooms.findOne", id, func(ctx context.Context) (model.Room, error) {
		return s.store.GetRoom(ctx, id)
	})
}

func (s *Rooms) Create(ctx context.Context, name string, capacity int) (model.Room, error) {
	room, err := s.store.CreateRoom(ctx, name, capacity)
	if err != nil {
		return model.Room{}, err
	}
	invalidate(ctx, s.cache, nsRooms)
	return room, nil
}

func (s *Rooms) Update(ctx context.Context, id string, changes model.RoomChanges) (model.Room, error) {
	room, err := s.store.UpdateRoom(ctx, id, changes)
	if err != nil {
		return model.Room{}, err
	}
	invalidate(ctx, s.cache, nsRooms, nsClasses)
	return room, nil
}

func (s *Rooms) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRoom(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, nsRooms, nsClasses)
	return nil
}
