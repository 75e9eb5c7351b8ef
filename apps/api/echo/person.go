package echoapi

import (
	"net/http"
	"sort"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/colegia/backend/core"
	"github.com/colegia/backend/core/person"
)

type personApi struct {
	svc        *person.Service
	blob       core.BlobStorage
	conf       *core.Config
	validate   *validator.Validate
	translator ut.Translator
}

func registerPersonAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := personApi{
		svc:        deps.PersonSvc,
		blob:       deps.BlobStorage,
		conf:       deps.Conf,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	adminMW := roleMiddleware(person.RoleGlobalAdmin, person.RoleSchoolAdmin)

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, jwt)

	pg := g.Group("/persons", jwt)
	pg.POST("", api.register, adminMW)
	pg.GET("", api.query, adminMW)
	pg.DELETE("", api.destroyMultiple, roleMiddleware(person.RoleGlobalAdmin))
	pg.GET("/roles", api.queryRoles, adminMW)

	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, roleMiddleware(person.RoleGlobalAdmin))
	dg.POST("/documents/:field", api.uploadDocument, adminMW)
}

// Handlers

func (api *personApi) login(ctx echo.Context) error {
	var data person.Login
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Login")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	_, acct, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		if core.KindOf(err) == core.KindNotFound {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, GetAccountClaims(api.conf, acct))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *personApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *personApi) register(ctx echo.Context) error {
	var data person.Register
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Register")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	// school admins register only within their own school, and never admins
	// above their own station
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Role == person.RoleSchoolAdmin {
		if data.Role == person.RoleGlobalAdmin || data.HomeSchoolID != claims.HomeSchoolID {
			return errHttpForbidden
		}
	}

	p, acct, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering person")
	}

	return ctx.JSON(http.StatusCreated, RegisterResponse{Person: p, Account: acct})
}

func (api *personApi) query(ctx echo.Context) error {
	filter := new(person.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []person.Person{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	// school admins only see their own school's directory
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Role == person.RoleSchoolAdmin {
		filter.HomeSchoolID = claims.HomeSchoolID
	}

	persons, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying persons")
	}
	if persons == nil {
		persons = []person.Person{}
	}
	return ctx.JSON(http.StatusOK, persons)
}

func (api *personApi) retrieve(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.checkPersonAccess(ctx, id); err != nil {
		return err
	}

	p, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding person by ID")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *personApi) update(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.checkPersonAccess(ctx, id); err != nil {
		return err
	}

	var data person.UpdatePerson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePerson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating person")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *personApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")

	// Say No to Suicide! the caller cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if id == claims.PersonID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting person")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *personApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// Say No to Suicide! the caller cannot delete themselves
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, claims.PersonID); i < len(query.IDs) {
		if match := query.IDs[i]; claims.PersonID == match {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting persons")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *personApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, person.AllRoles)
}

func (api *personApi) uploadDocument(ctx echo.Context) error {
	id := ctx.Param("id")
	field := ctx.Param("field")

	if err := api.checkPersonAccess(ctx, id); err != nil {
		return err
	}

	data, name, err := readUpload(ctx)
	if err != nil {
		return err
	}
	url, err := api.blob.Store(ctx.Request().Context(), data, "persons/"+id, name)
	if err != nil {
		return errors.Wrap(err, "storing uploaded file")
	}

	p, err := api.svc.SetDocumentURL(ctx.Request().Context(), id, field, url)
	if err != nil {
		return errors.Wrap(err, "setting document URL")
	}
	return ctx.JSON(http.StatusOK, p)
}

// checkPersonAccess lets a person at their own record, a global admin at any
// record, and a school admin at records of accounts homed in their school.
// Foreign records read as not-found, not forbidden.
func (api *personApi) checkPersonAccess(ctx echo.Context, id string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	switch {
	case claims.PersonID == id:
		return nil
	case claims.Role == person.RoleGlobalAdmin:
		return nil
	case claims.Role == person.RoleSchoolAdmin:
		acct, err := api.svc.GetAccountByPersonID(ctx.Request().Context(), id)
		if err == nil && acct.HomeSchoolID == claims.HomeSchoolID {
			return nil
		}
		if err != nil && core.KindOf(err) != core.KindNotFound {
			return errors.Wrap(err, "finding account by person ID")
		}
		return errHttpNotFound
	}
	return errHttpNotFound
}

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	RegisterResponse struct {
		Person  person.Person  `json:"person"`
		Account person.Account `json:"account"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)
