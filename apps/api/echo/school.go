package echoapi

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/school"
)

type schoolApi struct {
	svc      *school.Service
	blob     core.BlobStorage
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{
		svc:      deps.SchoolSvc,
		blob:     deps.BlobStorage,
		validate: deps.Validate,
	}

	sg := g.Group("/schools", jwt)
	sg.POST("", api.createSchool)
	sg.GET("", api.querySchools)
	sg.GET("/:id", api.retrieveSchool)
	sg.PUT("/:id", api.updateSchool)
	sg.DELETE("/:id", api.destroySchool)
	sg.POST("/:id/documents/:field", api.uploadSchoolDocument)

	cg := g.Group("/campuses", jwt)
	cg.POST("", api.createCampus)
	cg.GET("", api.queryCampuses)
	cg.GET("/:id", api.retrieveCampus)
	cg.PUT("/:id", api.updateCampus)
	cg.DELETE("/:id", api.destroyCampus)
	cg.POST("/:id/photo", api.uploadCampusPhoto)

	rg := g.Group("/classrooms", jwt)
	rg.POST("", api.createClassroom)
	rg.GET("", api.queryClassrooms)
	rg.GET("/:id", api.retrieveClassroom)
	rg.PUT("/:id", api.updateClassroom)
	rg.DELETE("/:id", api.destroyClassroom)
	rg.POST("/:id/photo", api.uploadClassroomPhoto)
}

// School handlers

func (api *schoolApi) createSchool(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateSchool(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *schoolApi) querySchools(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.School{})
	}

	schools, err := api.svc.QuerySchools(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) retrieveSchool(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	s, err := api.svc.GetSchool(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding school by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolApi) updateSchool(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.UpdateSchool(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolApi) destroySchool(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteSchool(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) uploadSchoolDocument(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	data, name, err := readUpload(ctx)
	if err != nil {
		return err
	}
	url, err := api.blob.Store(ctx.Request().Context(), data, "schools/"+id, name)
	if err != nil {
		return errors.Wrap(err, "storing uploaded file")
	}

	s, err := api.svc.SetSchoolDocumentURL(ctx.Request().Context(), actor, id, ctx.Param("field"), url)
	if err != nil {
		return errors.Wrap(err, "setting document URL")
	}
	return ctx.JSON(http.StatusOK, s)
}

// Campus handlers

func (api *schoolApi) createCampus(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data school.NewCampus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCampus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCampus(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating campus")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *schoolApi) queryCampuses(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Campus{})
	}

	campuses, err := api.svc.QueryCampuses(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying campuses")
	}
	if campuses == nil {
		campuses = []school.Campus{}
	}
	return ctx.JSON(http.StatusOK, campuses)
}

func (api *schoolApi) retrieveCampus(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	c, err := api.svc.GetCampus(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding campus by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) updateCampus(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateCampus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCampus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateCampus(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating campus")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) destroyCampus(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteCampus(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting campus")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) uploadCampusPhoto(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	data, name, err := readUpload(ctx)
	if err != nil {
		return err
	}
	url, err := api.blob.Store(ctx.Request().Context(), data, "campuses/"+id, name)
	if err != nil {
		return errors.Wrap(err, "storing uploaded file")
	}

	c, err := api.svc.SetCampusPhotoURL(ctx.Request().Context(), actor, id, url)
	if err != nil {
		return errors.Wrap(err, "setting photo URL")
	}
	return ctx.JSON(http.StatusOK, c)
}

// Classroom handlers

func (api *schoolApi) createClassroom(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data school.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.CreateClassroom(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *schoolApi) queryClassrooms(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Classroom{})
	}

	rooms, err := api.svc.QueryClassrooms(ctx.Request().Context(), actor, *filter)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if rooms == nil {
		rooms = []school.Classroom{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *schoolApi) retrieveClassroom(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	r, err := api.svc.GetClassroom(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding classroom by ID")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *schoolApi) updateClassroom(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.UpdateClassroom(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating classroom")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *schoolApi) destroyClassroom(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteClassroom(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) uploadClassroomPhoto(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	data, name, err := readUpload(ctx)
	if err != nil {
		return err
	}
	url, err := api.blob.Store(ctx.Request().Context(), data, "classrooms/"+id, name)
	if err != nil {
		return errors.Wrap(err, "storing uploaded file")
	}

	c, err := api.svc.SetClassroomPhotoURL(ctx.Request().Context(), actor, id, url)
	if err != nil {
		return errors.Wrap(err, "setting photo URL")
	}
	return ctx.JSON(http.StatusOK, c)
}

// readUpload pulls the "file" part out of a multipart form.
func readUpload(ctx echo.Context) ([]byte, string, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, "", core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", errors.Wrap(err, "reading uploaded file")
	}
	return data, fh.Filename, nil
}
