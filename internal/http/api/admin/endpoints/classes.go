package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/service"
)

// ClassesModule mounts /classes: series listing and creation, single
// sections, whole series and enrollments.
func ClassesModule(classes *service.Classes) api.Module {
	ctl := &ClassController{classes: classes}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/classes", ctl.listClasses)
		c.POST("/classes", ctl.createClass)

		c.GET("/classes/sections/:id", ctl.getSection)
		c.PATCH("/classes/sections/:id", ctl.updateSection)
		c.DELETE("/classes/sections/:id", ctl.deleteSection)
		c.GET("/classes/sections/:id/attendance", ctl.sectionAttendance)

		c.GET("/classes/series/:code", ctl.getSeries)
		c.DELETE("/classes/series/:code", ctl.deleteSeries)
		c.GET("/classes/series/:code/calendar.ics", ctl.seriesCalendar)
		c.POST("/classes/series/:code/enrollments", ctl.enroll)
		c.DELETE("/classes/series/:code/enrollments/:student_id", ctl.unenroll)
	})
}

type ClassController struct {
	classes *service.Classes
}

// GET /api/admin/classes
func (c *ClassController) listClasses(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.ClassListRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	page, err := c.classes.FindMany(ctx.Request.Context(), request.Query())
	if err != nil {
		return nil, api.FromError(err, "classes")
	}
	return page, nil
}

// POST /api/admin/classes
func (c *ClassController) createClass(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateClassRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if err := request.Validate(); err != nil {
		return nil, api.BadRequest(err)
	}
	created, err := c.classes.Create(ctx.Request.Context(), request.Input())
	if err != nil {
		return nil, api.FromError(err, "class")
	}
	return created, nil
}

func (c *ClassController) getSection(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	section, err := c.classes.FindOne(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err, "class section")
	}
	return section, nil
}

func (c *ClassController) updateSection(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UpdateSectionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	changes, err := request.Changes()
	if err != nil {
		return nil, api.BadRequest(err)
	}
	section, err := c.classes.Update(ctx.Request.Context(), ctx.Param("id"), changes)
	if err != nil {
		return nil, api.FromError(err, "class section")
	}
	return section, nil
}

func (c *ClassController) deleteSection(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := c.classes.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		return nil, api.FromError(err, "class section")
	}
	return packets.SuccessResponse{Success: true}, nil
}

func (c *ClassController) sectionAttendance(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	records, err := c.classes.Attendance(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err, "class section")
	}
	return records, nil
}

func (c *ClassController) getSeries(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	sections, err := c.classes.Series(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		return nil, api.FromError(err, "class series")
	}
	return sections, nil
}

func (c *ClassController) deleteSeries(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	code := ctx.Param("code")
	n, err := c.classes.DeleteSeries(ctx.Request.Context(), code)
	if err != nil {
		return nil, api.FromError(err, "class series")
	}
	return packets.DeletedSeriesResponse{Code: code, Deleted: n}, nil
}

// GET /api/admin/classes/series/:code/calendar.ics
func (c *ClassController) seriesCalendar(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	code := ctx.Param("code")
	body, err := c.classes.Calendar(ctx.Request.Context(), code)
	if err != nil {
		return nil, api.FromError(err, "class series")
	}
	ctx.Header("Content-Disposition", `attachment; filename="`+code+`.ics"`)
	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
	return nil, nil
}

func (c *ClassController) enroll(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.EnrollRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	code := ctx.Param("code")
	n, err := c.classes.Enroll(ctx.Request.Context(), code, request.StudentID)
	if err != nil {
		return nil, api.FromError(err, "class series")
	}
	return packets.EnrollmentResponse{Code: code, StudentID: request.StudentID, Sections: n}, nil
}

func (c *ClassController) unenroll(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	code, studentID := ctx.Param("code"), ctx.Param("student_id")
	n, err := c.classes.Unenroll(ctx.Request.Context(), code, studentID)
	if err != nil {
		return nil, api.FromError(err, "enrollment")
	}
	return packets.EnrollmentResponse{Code: code, StudentID: studentID, Sections: n}, nil
}
