package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegia/backend/core/enrollment"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := enrollmentApi{
		svc:      deps.EnrollmentSvc,
		validate: deps.Validate,
	}

	eg := g.Group("/enrollments", jwt)
	eg.POST("", api.enroll)
	eg.GET("", api.queryEnrollments)
	eg.GET("/:id", api.retrieveEnrollment)
	eg.POST("/:id/withdraw", api.withdraw)
	eg.POST("/:id/reactivate", api.reactivate)
	eg.POST("/:id/transfer", api.transfer)
	eg.DELETE("/:id", api.destroyEnrollment)

	gg := g.Group("/grades", jwt)
	gg.POST("", api.recordGrade)
	gg.GET("", api.queryGrades)
	gg.GET("/:id", api.retrieveGrade)
	gg.DELETE("/:id", api.destroyGrade)

	ag := g.Group("/attendances", jwt)
	ag.POST("", api.recordAttendance)
	ag.GET("", api.queryAttendances)
	ag.GET("/:id", api.retrieveAttendance)
	ag.PUT("/:id", api.updateAttendance)
	ag.DELETE("/:id", api.destroyAttendance)
}

// Enrollment handlers

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *enrollmentApi) queryEnrollments(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Enrollment{})
	}
	filter.Clean()

	enrollments, err := api.svc.QueryEnrollments(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) retrieveEnrollment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	e, err := api.svc.GetEnrollment(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding enrollment by ID")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) withdraw(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	e, err := api.svc.Withdraw(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "withdrawing enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) reactivate(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	e, err := api.svc.Reactivate(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reactivating enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) transfer(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data enrollment.TransferEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.Transfer(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "transferring enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) destroyEnrollment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteEnrollment(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Grade handlers

func (api *enrollmentApi) recordGrade(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data enrollment.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grade, err := api.svc.RecordGrade(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *enrollmentApi) queryGrades(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Grade{})
	}
	filter.Clean()

	grades, err := api.svc.QueryGrades(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []enrollment.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *enrollmentApi) retrieveGrade(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	grade, err := api.svc.GetGrade(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding grade by ID")
	}
	return ctx.JSON(http.StatusOK, grade)
}

func (api *enrollmentApi) destroyGrade(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteGrade(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Attendance handlers

func (api *enrollmentApi) recordAttendance(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data enrollment.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.RecordAttendance(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *enrollmentApi) queryAttendances(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(enrollment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Attendance{})
	}
	filter.Clean()

	attendances, err := api.svc.QueryAttendances(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying attendances")
	}
	if attendances == nil {
		attendances = []enrollment.Attendance{}
	}
	return ctx.JSON(http.StatusOK, attendances)
}

func (api *enrollmentApi) retrieveAttendance(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	att, err := api.svc.GetAttendance(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding attendance by ID")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *enrollmentApi) updateAttendance(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data enrollment.UpdateAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.UpdateAttendance(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *enrollmentApi) destroyAttendance(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteAttendance(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}
