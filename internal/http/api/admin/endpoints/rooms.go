package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/service"
)

// RoomsModule mounts /rooms.
func RoomsModule(rooms *service.Rooms) api.Module {
	ctl := newRoomController(rooms)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/rooms", ctl.listRooms)
		c.POST("/rooms", ctl.createRoom)
		c.GET("/rooms/:id", ctl.getRoom)
		c.PATCH("/rooms/:id", ctl.updateRoom)
		c.DELETE("/rooms/:id", ctl.deleteRoom)
	})
}

type RoomController struct {
	rooms *service.Rooms
}

func newRoomController(rooms *service.Rooms) *RoomController {
	return &RoomController{rooms: rooms}
}

// GET /api/admin/rooms
func (r *RoomController) listRooms(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.RoomListRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	page, err := r.rooms.FindMany(ctx.Request.Context(), request.Query())
	if err != nil {
		return nil, api.FromError(err, "rooms")
	}
	return page, nil
}

// GET /api/admin/rooms/:id
func (r *RoomController) getRoom(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	room, err := r.rooms.FindOne(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err, "room")
	}
	return room, nil
}

// POST /api/admin/rooms
func (r *RoomController) createRoom(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateRoomRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	room, err := r.rooms.Create(ctx.Request.Context(), request.Name, request.Capacity)
	if err != nil {
		return nil, api.FromError(err, "room")
	}
	return room, nil
}

// PATCH /api/admin/rooms/:id
func (r *RoomController) updateRoom(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UpdateRoomRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	room, err := r.rooms.Update(ctx.Request.Context(), ctx.Param("id"), model.RoomChanges{
		Name:     request.Name,
		Capacity: request.Capacity,
	})
	if err != nil {
		return nil, api.FromError(err, "room")
	}
	return room, nil
}

// DELETE /api/admin/rooms/:id
func (r *RoomController) deleteRoom(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := r.rooms.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		return nil, api.FromError(err, "room")
	}
	return packets.SuccessResponse{Success: true}, nil
}
