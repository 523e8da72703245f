package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/kiriha/internal/config"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	adminapi "github.com/Nixie-Tech-LLC/kiriha/internal/http/api/admin/endpoints"
	authapi "github.com/Nixie-Tech-LLC/kiriha/internal/http/api/auth/endpoints"
	deviceapi "github.com/Nixie-Tech-LLC/kiriha/internal/http/api/device/endpoints"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/nfc"
	"github.com/Nixie-Tech-LLC/kiriha/internal/service"
)

// Services bundles the cached domain services the routes are built from.
type Services struct {
	Rooms    *service.Rooms
	Subjects *service.Subjects
	Users    *service.Users
	Classes  *service.Classes
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, store db.Store, svc Services, emitter nfc.Emitter, feed *nfc.Feed) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"X-Device-Key",
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Disposition",
		},
		AllowCredentials: false,
	}))
	r.Use(middleware.RequestLogger())

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api",
	},
		api.HealthModule(),
		authapi.AuthPublicModule(cfg.JWTSecret, svc.Users),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api",
		Middleware: []gin.HandlerFunc{middleware.DeviceKey(cfg.NFCDeviceKey)},
	},
		deviceapi.ScanModule(emitter),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     store,
	},
		// session endpoints that require auth
		authapi.AuthSessionModule(cfg.JWTSecret, svc.Users),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
		Users:     store,
		Roles:     []model.Role{model.RoleAdmin},
	},
		// control modules
		adminapi.RoomsModule(svc.Rooms),
		adminapi.SubjectsModule(svc.Subjects),
		adminapi.UsersModule(svc.Users),
		adminapi.ClassesModule(svc.Classes),
		adminapi.NFCModule(feed),
	)

	// Static content
	if !cfg.UseSpaces {
		r.Static("/uploads", cfg.UploadDir)
	}
}
