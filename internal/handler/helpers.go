package handler

import (
	"errors"
	"net/http"
	"reflect"

	"distribuidora/internal/apierror"
	"distribuidora/internal/middleware"
	"distribuidora/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validar(c, req)
}

// bindQueryAndValidate is bindAndValidate for query-string filters.
func bindQueryAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros invalidos: "+err.Error()))
		return false
	}
	return validar(c, req)
}

func validar(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			for _, fe := range ve {
				fields[fe.Field()] = fe.Tag()
			}
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseUUIDParam reads a path parameter as UUID, writing 400 on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// actorOrAbort returns the caller identity built by JWTAuth.
func actorOrAbort(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return service.Actor{}, false
	}
	return actor, true
}

// responderError writes the business error with its status. Unexpected
// errors are attached to the context for ErrorHandler and answered as a
// generic 500.
func responderError(c *gin.Context, err error) {
	status := service.CodigoHTTP(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, apierror.New("Error interno del servidor"))
		return
	}
	c.JSON(status, apierror.WithCodigo(codigoError(err), err.Error()))
}

func codigoError(err error) string {
	var (
		sobrepago *service.SobrepagoError
		anulado   *service.PagoYaAnuladoError
		sinSesion *service.SinSesionError
	)
	switch {
	case errors.As(err, &sobrepago):
		return apierror.CodigoSobrepago
	case errors.As(err, &anulado):
		return apierror.CodigoPagoAnulado
	case errors.As(err, &sinSesion), errors.Is(err, service.ErrSesionNoEncontrada):
		return apierror.CodigoSinSesion
	case errors.Is(err, service.ErrMontoInvalido):
		return apierror.CodigoMontoInvalido
	case service.CodigoHTTP(err) == http.StatusNotFound:
		return apierror.CodigoNoEncontrado
	default:
		return ""
	}
}
