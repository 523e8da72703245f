package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api"
	"github.com/Nixie-Tech-LLC/kiriha/internal/http/api/admin/packets"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/service"
)

// SubjectsModule mounts /subjects.
func SubjectsModule(subjects *service.Subjects) api.Module {
	ctl := &SubjectController{subjects: subjects}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/subjects", ctl.listSubjects)
		c.POST("/subjects", ctl.createSubject)
		c.GET("/subjects/:id", ctl.getSubject)
		c.PATCH("/subjects/:id", ctl.updateSubject)
		c.DELETE("/subjects/:id", ctl.deleteSubject)
	})
}

type SubjectController struct {
	subjects *service.Subjects
}

func (s *SubjectController) listSubjects(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.ListRequest
	if err := ctx.ShouldBindQuery(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	page, err := s.subjects.FindMany(ctx.Request.Context(), request.Query())
	if err != nil {
		return nil, api.FromError(err, "subjects")
	}
	return page, nil
}

func (s *SubjectController) getSubject(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	subject, err := s.subjects.FindOne(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		return nil, api.FromError(err, "subject")
	}
	return subject, nil
}

func (s *SubjectController) createSubject(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateSubjectRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	subject, err := s.subjects.Create(ctx.Request.Context(), request.Name, request.Credit)
	if err != nil {
		return nil, api.FromError(err, "subject")
	}
	return subject, nil
}

func (s *SubjectController) updateSubject(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.UpdateSubjectRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	subject, err := s.subjects.Update(ctx.Request.Context(), ctx.Param("id"), model.SubjectChanges{
		Name:   request.Name,
		Credit: request.Credit,
	})
	if err != nil {
		return nil, api.FromError(err, "subject")
	}
	return subject, nil
}

func (s *SubjectController) deleteSubject(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	if err := s.subjects.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		return nil, api.FromError(err, "subject")
	}
	return packets.SuccessResponse{Success: true}, nil
}
