package packets

import (
	"fmt"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
	"github.com/Nixie-Tech-LLC/kiriha/internal/service"
)

// ListRequest is the query string of the simple listings.
type ListRequest struct {
	Search string `form:"search" binding:"max=255"`
	Page   int    `form:"page,default=1"   binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1,max=100"`
}

func (r ListRequest) Query() model.ListQuery {
	return model.ListQuery{Search: r.Search, Page: r.Page, Limit: r.Limit}
}

// RoomListRequest allows larger pages so room pickers can load everything.
type RoomListRequest struct {
	Search string `form:"search" binding:"max=255"`
	Page   int    `form:"page,default=1"   binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1,max=1000"`
}

func (r RoomListRequest) Query() model.ListQuery {
	return model.ListQuery{Search: r.Search, Page: r.Page, Limit: r.Limit}
}

type UserListRequest struct {
	Search string `form:"search" binding:"max=255"`
	Role   string `form:"role"   binding:"omitempty,oneof=admin teacher student"`
	Page   int    `form:"page,default=1"   binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1,max=100"`
}

func (r UserListRequest) Query() model.UserQuery {
	return model.UserQuery{Search: r.Search, Role: model.Role(r.Role), Page: r.Page, Limit: r.Limit}
}

type ClassListRequest struct {
	RoomID    string `form:"room_id"    binding:"omitempty,uuid"`
	SubjectID string `form:"subject_id" binding:"omitempty,uuid"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
	StartDate string `form:"start_date" binding:"omitempty,isodate"`
	EndDate   string `form:"end_date"   binding:"omitempty,isodate"`
	Page      int    `form:"page,default=1"   binding:"min=1"`
	Limit     int    `form:"limit,default=10" binding:"min=1,max=100"`
}

func (r ClassListRequest) Query() model.ClassQuery {
	return model.ClassQuery{
		RoomID:    r.RoomID,
		SubjectID: r.SubjectID,
		TeacherID: r.TeacherID,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Page:      r.Page,
		Limit:     r.Limit,
	}
}

type CreateRoomRequest struct {
	Name     string `json:"name"     binding:"required,max=255"`
	Capacity int    `json:"capacity" binding:"required,min=1,max=1000"`
}

type UpdateRoomRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=1,max=255"`
	Capacity *int    `json:"capacity" binding:"omitempty,min=1,max=1000"`
}

type CreateSubjectRequest struct {
	Name   string `json:"name"   binding:"required,max=255"`
	Credit int    `json:"credit" binding:"min=0,max=20"`
}

type UpdateSubjectRequest struct {
	Name   *string `json:"name"   binding:"omitempty,min=1,max=255"`
	Credit *int    `json:"credit" binding:"omitempty,min=0,max=20"`
}

type CreateUserRequest struct {
	Name     string  `json:"name"     binding:"required,max=255"`
	Role     string  `json:"role"     binding:"required,oneof=admin teacher student"`
	CardID   *string `json:"card_id"  binding:"omitempty,min=1,max=32"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
}

func (r CreateUserRequest) Input() service.CreateUserInput {
	return service.CreateUserInput{
		Name:     r.Name,
		Role:     model.Role(r.Role),
		CardID:   r.CardID,
		Email:    r.Email,
		Password: r.Password,
	}
}

type UpdateUserRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=1,max=255"`
	CardID   *string `json:"card_id"  binding:"omitempty,min=1,max=32"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
}

func (r UpdateUserRequest) Input() service.UpdateUserInput {
	return service.UpdateUserInput{Name: r.Name, CardID: r.CardID, Email: r.Email, Password: r.Password}
}

// ScheduleRule is one weekly slot. day_of_week takes a symbol ("mon"), a
// full name ("Monday") or a number (0 = Sunday).
type ScheduleRule struct {
	DayOfWeek schedule.Weekday `json:"day_of_week" binding:"required,weekday"`
	StartTime *schedule.Clock  `json:"start_time" binding:"required"`
	EndTime   *schedule.Clock  `json:"end_time"   binding:"required"`
}

type CreateClassRequest struct {
	SubjectID string         `json:"subject_id" binding:"required,uuid"`
	TeacherID string         `json:"teacher_id" binding:"required,uuid"`
	RoomID    string         `json:"room_id"    binding:"required,uuid"`
	StartDate schedule.Date  `json:"start_date"`
	EndDate   schedule.Date  `json:"end_date"`
	Schedules []ScheduleRule `json:"schedules"  binding:"required,min=1,max=14,dive"`
}

func (r CreateClassRequest) Input() service.CreateClassInput {
	rules := make([]schedule.Rule, 0, len(r.Schedules))
	for _, s := range r.Schedules {
		rule := schedule.Rule{Day: s.DayOfWeek}
		if s.StartTime != nil {
			rule.Start = *s.StartTime
		}
		if s.EndTime != nil {
			rule.End = *s.EndTime
		}
		rules = append(rules, rule)
	}
	return service.CreateClassInput{
		SubjectID: r.SubjectID,
		TeacherID: r.TeacherID,
		RoomID:    r.RoomID,
		Request:   schedule.Request{StartDate: r.StartDate, EndDate: r.EndDate, Rules: rules},
	}
}

// Validate checks the cross-field rules the binding tags cannot express.
func (r CreateClassRequest) Validate() error {
	for i, s := range r.Schedules {
		if s.StartTime == nil || s.EndTime == nil {
			return fmt.Errorf("schedules[%d]: start_time and end_time are required", i)
		}
	}
	return r.Input().Request.Validate()
}

type UpdateSectionRequest struct {
	SubjectID *string `json:"subject_id" binding:"omitempty,uuid"`
	TeacherID *string `json:"teacher_id" binding:"omitempty,uuid"`
	RoomID    *string `json:"room_id"    binding:"omitempty,uuid"`
	Status    *string `json:"status"     binding:"omitempty,oneof=waiting locked completed cancelled"`
	Date      *string `json:"date"       binding:"omitempty,isodate"`
	StartTime *string `json:"start_time" binding:"omitempty,clock"`
	EndTime   *string `json:"end_time"   binding:"omitempty,clock"`
}

// Changes converts the request into store changes. When both times are given
// the end must come after the start.
func (r UpdateSectionRequest) Changes() (model.ClassSectionChanges, error) {
	changes := model.ClassSectionChanges{
		SubjectID: r.SubjectID,
		TeacherID: r.TeacherID,
		RoomID:    r.RoomID,
	}
	if r.Status != nil {
		status := model.ClassStatus(*r.Status)
		changes.Status = &status
	}
	if r.Date != nil {
		d, err := schedule.ParseDate(*r.Date)
		if err != nil {
			return changes, err
		}
		changes.Date = &d
	}
	if r.StartTime != nil {
		c, err := schedule.ParseClock(*r.StartTime)
		if err != nil {
			return changes, err
		}
		changes.StartTime = &c
	}
	if r.EndTime != nil {
		c, err := schedule.ParseClock(*r.EndTime)
		if err != nil {
			return changes, err
		}
		changes.EndTime = &c
	}
	if changes.StartTime != nil && changes.EndTime != nil && !changes.StartTime.Before(*changes.EndTime) {
		return changes, fmt.Errorf("end_time must be after start_time")
	}
	return changes, nil
}

type EnrollRequest struct {
	StudentID string `json:"student_id" binding:"required,max=16"`
}
