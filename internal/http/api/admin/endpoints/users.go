package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/service"
)

// maxImageSize bounds avatar uploads.
const maxImageSize = 5 << 20

// UsersModule mounts /users.
func UsersModule(users *service.Users) api.Module {
	ctl := &UserController{users: users}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/users", ctl.listUsers)
		c.POST("/users", ctl.createUser)
		c.GET("/users/:id", ctl.getUser)
		c.PATCH("/users/:id", ctl.updateUser)
		c.DELETE("/users/:id", ctl.deleteUser)
		c.POST("/users/:id/image", ctl.uploadImage)
	})
}

type UserController struct {
	users *service.Users
}

func (u *UserController) listUsers(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UserListRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	page, err := u.users.FindMany(ctx.Request.Context(), request.Query())
	if err != nil {
		return nil, api.FromError(err, "users")
	}
	return page, nil
}

func (u *UserController) getUser(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	user, err := u.users.FindOne(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err, "user")
	}
	return user, nil
}

func (u *UserController) createUser(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateUserRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	user, err := u.users.Create(ctx.Request.Context(), request.Input())
	if err != nil {
		return nil, api.FromError(err, "user")
	}
	return user, nil
}

func (u *UserController) updateUser(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	user, err := u.users.Update(ctx.Request.Context(), ctx.Param("id"), request.Input())
	if err != nil {
		return nil, api.FromError(err, "user")
	}
	return user, nil
}

func (u *UserController) deleteUser(ctx *gin.Context, current *model.User) (any, *api.APIError) {
	if ctx.Param("id") == current.ID {
		return nil, api.BadRequest(errors.New("cannot delete the signed in user"))
	}
	if err := u.users.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		return nil, api.FromError(err, "user")
	}
	return packets.SuccessResponse{Success: true}, nil
}

// POST /api/admin/users/:id/image (multipart field "image")
func (u *UserController) uploadImage(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	header, err := ctx.FormFile("image")
	if err != nil {
		return nil, api.BadRequest(errors.New("missing image file"))
	}
	if header.Size > maxImageSize {
		return nil, &api.APIError{Code: http.StatusRequestEntityTooLarge, Message: "image too large"}
	}

	file, err := header.Open()
	if err != nil {
		log.Error().Err(err).Msg("failed to open uploaded image")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not read image"}
	}
	defer file.Close()

	user, err := u.users.SetImage(ctx.Request.Context(), ctx.Param("id"), header.Filename, file)
	if err != nil {
		return nil, api.FromError(err, "user")
	}
	return user, nil
}
