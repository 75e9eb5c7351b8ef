package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/academic"
)

type academicApi struct {
	svc      *academic.Service
	blob     core.BlobStorage
	validate *validator.Validate
}

func registerAcademicAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := academicApi{
		svc:      deps.AcademicSvc,
		blob:     deps.BlobStorage,
		validate: deps.Validate,
	}

	lg := g.Group("/levels", jwt)
	lg.POST("", api.createLevel)
	lg.GET("", api.queryLevels)
	lg.DELETE("/:id", api.destroyLevel)

	yg := g.Group("/academic-years", jwt)
	yg.POST("", api.createYear)
	yg.GET("", api.queryYears)
	yg.DELETE("/:id", api.destroyYear)

	shg := g.Group("/shifts", jwt)
	shg.POST("", api.createShift)
	shg.GET("", api.queryShifts)
	shg.DELETE("/:id", api.destroyShift)

	cg := g.Group("/courses", jwt)
	cg.POST("", api.createCourse)
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.PUT("/:id", api.updateCourse)
	cg.DELETE("/:id", api.destroyCourse)
	cg.POST("/:id/syllabus", api.uploadSyllabus)

	cyg := g.Group("/course-years", jwt)
	cyg.POST("", api.createCourseYear)
	cyg.GET("", api.queryCourseYears)
	cyg.DELETE("/:id", api.destroyCourseYear)

	tg := g.Group("/teaching-assignments", jwt)
	tg.POST("", api.createAssignment)
	tg.GET("", api.queryAssignments)
	tg.GET("/:id", api.retrieveAssignment)
	tg.DELETE("/:id", api.destroyAssignment)

	gg := g.Group("/class-groups", jwt)
	gg.POST("", api.createGroup)
	gg.GET("", api.queryGroups)
	gg.GET("/:id", api.retrieveGroup)
	gg.PUT("/:id", api.updateGroup)
	gg.DELETE("/:id", api.destroyGroup)

	slg := g.Group("/schedule-slots", jwt)
	slg.POST("", api.createSlot)
	slg.GET("", api.querySlots)
	slg.GET("/:id", api.retrieveSlot)
	slg.PUT("/:id", api.updateSlot)
	slg.DELETE("/:id", api.destroySlot)
}

// Education level handlers

func (api *academicApi) createLevel(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewEducationLevel
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEducationLevel")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.CreateLevel(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating level")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *academicApi) queryLevels(ctx echo.Context) error {
	levels, err := api.svc.QueryLevels(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying levels")
	}
	if levels == nil {
		levels = []academic.EducationLevel{}
	}
	return ctx.JSON(http.StatusOK, levels)
}

func (api *academicApi) destroyLevel(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteLevel(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting level")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Academic year handlers

func (api *academicApi) createYear(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewAcademicYear
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAcademicYear")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	y, err := api.svc.CreateYear(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating year")
	}
	return ctx.JSON(http.StatusCreated, y)
}

func (api *academicApi) queryYears(ctx echo.Context) error {
	filter := new(academic.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academic.AcademicYear{})
	}

	years, err := api.svc.QueryYears(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying years")
	}
	if years == nil {
		years = []academic.AcademicYear{}
	}
	return ctx.JSON(http.StatusOK, years)
}

func (api *academicApi) destroyYear(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteYear(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting year")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Shift handlers

func (api *academicApi) createShift(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewShift
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewShift")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateShift(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating shift")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *academicApi) queryShifts(ctx echo.Context) error {
	shifts, err := api.svc.QueryShifts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying shifts")
	}
	if shifts == nil {
		shifts = []academic.Shift{}
	}
	return ctx.JSON(http.StatusOK, shifts)
}

func (api *academicApi) destroyShift(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteShift(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting shift")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Course handlers

func (api *academicApi) createCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCourse(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *academicApi) queryCourses(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(academic.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academic.Course{})
	}
	filter.Clean()

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []academic.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *academicApi) retrieveCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.GetCourse(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *academicApi) updateCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateCourse(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *academicApi) destroyCourse(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteCourse(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *academicApi) uploadSyllabus(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	data, name, err := readUpload(ctx)
	if err != nil {
		return err
	}
	url, err := api.blob.Store(ctx.Request().Context(), data, "courses/"+id, name)
	if err != nil {
		return errors.Wrap(err, "storing uploaded file")
	}

	c, err := api.svc.SetCourseSyllabusURL(ctx.Request().Context(), actor, id, url)
	if err != nil {
		return errors.Wrap(err, "setting syllabus URL")
	}
	return ctx.JSON(http.StatusOK, c)
}

// Course-year handlers

func (api *academicApi) createCourseYear(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewCourseYearAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourseYearAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cy, err := api.svc.CreateCourseYear(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating course-year assignment")
	}
	return ctx.JSON(http.StatusCreated, cy)
}

func (api *academicApi) queryCourseYears(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(academic.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academic.CourseYearAssignment{})
	}

	assignments, err := api.svc.QueryCourseYears(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying course-year assignments")
	}
	if assignments == nil {
		assignments = []academic.CourseYearAssignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *academicApi) destroyCourseYear(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteCourseYear(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course-year assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Teaching assignment handlers

func (api *academicApi) createAssignment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewTeachingAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeachingAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ta, err := api.svc.CreateAssignment(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating teaching assignment")
	}
	return ctx.JSON(http.StatusCreated, ta)
}

func (api *academicApi) queryAssignments(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(academic.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academic.TeachingAssignment{})
	}

	assignments, err := api.svc.QueryAssignments(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying teaching assignments")
	}
	if assignments == nil {
		assignments = []academic.TeachingAssignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *academicApi) retrieveAssignment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	ta, err := api.svc.GetAssignment(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding teaching assignment by ID")
	}
	return ctx.JSON(http.StatusOK, ta)
}

func (api *academicApi) destroyAssignment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteAssignment(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teaching assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Class group handlers

func (api *academicApi) createGroup(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewClassGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cg, err := api.svc.CreateGroup(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating class group")
	}
	return ctx.JSON(http.StatusCreated, cg)
}

func (api *academicApi) queryGroups(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(academic.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academic.ClassGroup{})
	}
	filter.Clean()

	groups, err := api.svc.QueryGroups(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying class groups")
	}
	if groups == nil {
		groups = []academic.ClassGroup{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *academicApi) retrieveGroup(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	cg, err := api.svc.GetGroup(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class group by ID")
	}
	return ctx.JSON(http.StatusOK, cg)
}

func (api *academicApi) updateGroup(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.UpdateClassGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cg, err := api.svc.UpdateGroup(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class group")
	}
	return ctx.JSON(http.StatusOK, cg)
}

func (api *academicApi) destroyGroup(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteGroup(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Schedule slot handlers

func (api *academicApi) createSlot(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.NewScheduleSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScheduleSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.CreateSlot(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating schedule slot")
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *academicApi) querySlots(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(academic.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []academic.ScheduleSlot{})
	}

	slots, err := api.svc.QuerySlots(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying schedule slots")
	}
	if slots == nil {
		slots = []academic.ScheduleSlot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *academicApi) retrieveSlot(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	slot, err := api.svc.GetSlot(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding schedule slot by ID")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *academicApi) updateSlot(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data academic.UpdateScheduleSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateScheduleSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.UpdateSlot(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating schedule slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *academicApi) destroySlot(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteSlot(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting schedule slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}
