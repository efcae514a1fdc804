package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"distribuidora/internal/apierror"
	"distribuidora/internal/dto"
	"distribuidora/internal/handler"
	"distribuidora/internal/middleware"
	"distribuidora/internal/model"
	"distribuidora/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

// ── Fakes ─────────────────────────────────────────────────────────────────────

type conciliacionMock struct{ mock.Mock }

func (m *conciliacionMock) OnVentaCreada(ctx context.Context, v service.Venta, a service.Actor) service.ResultadoConciliacion {
	return m.Called(ctx, v, a).Get(0).(service.ResultadoConciliacion)
}

func (m *conciliacionMock) RegistrarPago(ctx context.Context, cuentaID uuid.UUID, req dto.RegistrarPagoRequest, a service.Actor) (*dto.PagoResponse, error) {
	args := m.Called(ctx, cuentaID, req, a)
	resp, _ := args.Get(0).(*dto.PagoResponse)
	return resp, args.Error(1)
}

func (m *conciliacionMock) AnularPago(ctx context.Context, pagoID uuid.UUID, motivo string, a service.Actor) (*dto.PagoResponse, error) {
	args := m.Called(ctx, pagoID, motivo, a)
	resp, _ := args.Get(0).(*dto.PagoResponse)
	return resp, args.Error(1)
}

func (m *conciliacionMock) OnPagoRegistrado(ctx context.Context, p *model.PagoCuenta, a service.Actor) service.Resultado {
	return m.Called(ctx, p, a).Get(0).(service.Resultado)
}

func (m *conciliacionMock) OnPagoAnulado(ctx context.Context, an *service.AnulacionPago, a service.Actor) {
	m.Called(ctx, an, a)
}

type creditoFake struct {
	service.CreditoService
	cuenta    *dto.CuentaResponse
	estado    *service.EstadoCredito
	err       error
	umbralRec decimal.Decimal
}

func (f *creditoFake) ObtenerCuenta(_ context.Context, _ uuid.UUID) (*dto.CuentaResponse, error) {
	return f.cuenta, f.err
}

func (f *creditoFake) VerificarCritico(_ context.Context, _ uuid.UUID, umbral decimal.Decimal) (*service.EstadoCredito, error) {
	f.umbralRec = umbral
	return f.estado, f.err
}

type cajaFake struct {
	pdvRecibido *int
	resp        *dto.SesionActivaResponse
	err         error
}

func (f *cajaFake) SesionActiva(_ context.Context, _ uuid.UUID, pdv *int) (*dto.SesionActivaResponse, error) {
	f.pdvRecibido = pdv
	return f.resp, f.err
}

func (f *cajaFake) ObtenerResumen(_ context.Context, _ uuid.UUID) (*dto.ResumenSesionResponse, error) {
	return nil, f.err
}

type auditoriaFake struct {
	service.AuditoriaService
	filtro dto.AuditoriaFilter
	err    error
}

func (f *auditoriaFake) Listar(_ context.Context, filter dto.AuditoriaFilter) (*dto.AuditoriaListResponse, error) {
	f.filtro = filter
	if f.err != nil {
		return nil, f.err
	}
	return &dto.AuditoriaListResponse{Data: []dto.RegistroAuditoriaResponse{}, Page: filter.Page, Limit: filter.Limit}, nil
}

type encoladorFake struct {
	eventos []dto.VentaCreadaEvento
	err     error
}

func (f *encoladorFake) EncolarVenta(_ context.Context, ev dto.VentaCreadaEvento) error {
	if f.err != nil {
		return f.err
	}
	f.eventos = append(f.eventos, ev)
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func signToken(t *testing.T, userID uuid.UUID, rol string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(), "username": "testuser", "rol": rol, "punto_de_venta": 1,
		"exp": time.Now().Add(time.Hour).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apierror.APIError {
	t.Helper()
	var e apierror.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func creditosRouter(conc *conciliacionMock, cred *creditoFake) *gin.Engine {
	r := newEngine()
	h := handler.NewCreditosHandler(conc, cred, decimal.NewFromInt(80))
	v1 := r.Group("/v1", middleware.JWTAuth(testSecret))
	v1.POST("/cuentas/:id/pagos", h.RegistrarPago)
	v1.POST("/pagos/:id/anular", h.AnularPago)
	v1.GET("/cuentas/:id", h.ObtenerCuenta)
	v1.GET("/clientes/:id/credito", h.EstadoCredito)
	return r
}

// ── Tests: Eventos ────────────────────────────────────────────────────────────

func ventaEvento() dto.VentaCreadaEvento {
	return dto.VentaCreadaEvento{
		VentaID:         uuid.NewString(),
		NumeroDocumento: "V-0001",
		UsuarioID:       uuid.NewString(),
		PoliticaPago:    "CONTADO",
		Total:           decimal.NewFromInt(100),
		MontoPagado:     decimal.NewFromInt(100),
	}
}

func TestVentaCreada_Encola(t *testing.T) {
	cola := &encoladorFake{}
	r := newEngine()
	r.POST("/v1/eventos/ventas", handler.NewEventosHandler(cola).VentaCreada)

	ev := ventaEvento()
	w := do(t, r, http.MethodPost, "/v1/eventos/ventas", ev, "")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, cola.eventos, 1)
	assert.Equal(t, ev.VentaID, cola.eventos[0].VentaID)
	assert.True(t, ev.Total.Equal(cola.eventos[0].Total))
}

func TestVentaCreada_ValidacionFalla(t *testing.T) {
	cola := &encoladorFake{}
	r := newEngine()
	r.POST("/v1/eventos/ventas", handler.NewEventosHandler(cola).VentaCreada)

	ev := ventaEvento()
	ev.VentaID = "no-es-uuid"
	w := do(t, r, http.MethodPost, "/v1/eventos/ventas", ev, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, cola.eventos)

	var ve apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ve))
	assert.Equal(t, "uuid", ve.Fields["VentaID"])
}

func TestVentaCreada_ColaCaidaDevuelve500(t *testing.T) {
	cola := &encoladorFake{err: errors.New("redis: connection refused")}
	r := newEngine()
	r.POST("/v1/eventos/ventas", handler.NewEventosHandler(cola).VentaCreada)

	w := do(t, r, http.MethodPost, "/v1/eventos/ventas", ventaEvento(), "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

// ── Tests: Creditos ───────────────────────────────────────────────────────────

func TestRegistrarPago_Creado(t *testing.T) {
	conc := &conciliacionMock{}
	uid := uuid.New()
	cuentaID := uuid.New()
	req := dto.RegistrarPagoRequest{Monto: decimal.NewFromInt(50), NumeroRecibo: "R-10"}

	conc.On("RegistrarPago", mock.Anything, cuentaID, mock.Anything, mock.MatchedBy(func(a service.Actor) bool {
		return a.UsuarioID == uid && a.PuntoDeVenta != nil && *a.PuntoDeVenta == 1
	})).Return(&dto.PagoResponse{ID: uuid.NewString(), CuentaID: cuentaID.String(), Estado: model.PagoRegistrado}, nil)

	r := creditosRouter(conc, &creditoFake{})
	w := do(t, r, http.MethodPost, "/v1/cuentas/"+cuentaID.String()+"/pagos", req, signToken(t, uid, middleware.RolCajero))

	assert.Equal(t, http.StatusCreated, w.Code)
	conc.AssertExpectations(t)
}

func TestRegistrarPago_Sobrepago422(t *testing.T) {
	conc := &conciliacionMock{}
	cuentaID := uuid.New()
	conc.On("RegistrarPago", mock.Anything, cuentaID, mock.Anything, mock.Anything).
		Return(nil, &service.SobrepagoError{CuentaID: cuentaID, Monto: decimal.NewFromInt(900), Saldo: decimal.NewFromInt(100)})

	r := creditosRouter(conc, &creditoFake{})
	req := dto.RegistrarPagoRequest{Monto: decimal.NewFromInt(900), NumeroRecibo: "R-11"}
	w := do(t, r, http.MethodPost, "/v1/cuentas/"+cuentaID.String()+"/pagos", req, signToken(t, uuid.New(), middleware.RolCajero))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apierror.CodigoSobrepago, decodeAPIError(t, w).Codigo)
}

func TestRegistrarPago_SinSesion422(t *testing.T) {
	conc := &conciliacionMock{}
	uid := uuid.New()
	conc.On("RegistrarPago", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &service.SinSesionError{UsuarioID: uid})

	r := creditosRouter(conc, &creditoFake{})
	req := dto.RegistrarPagoRequest{Monto: decimal.NewFromInt(10), NumeroRecibo: "R-12"}
	w := do(t, r, http.MethodPost, "/v1/cuentas/"+uuid.NewString()+"/pagos", req, signToken(t, uid, middleware.RolCajero))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apierror.CodigoSinSesion, decodeAPIError(t, w).Codigo)
}

func TestRegistrarPago_MontoCeroNoLlegaAlServicio(t *testing.T) {
	conc := &conciliacionMock{}
	r := creditosRouter(conc, &creditoFake{})
	req := dto.RegistrarPagoRequest{Monto: decimal.Zero, NumeroRecibo: "R-13"}
	w := do(t, r, http.MethodPost, "/v1/cuentas/"+uuid.NewString()+"/pagos", req, signToken(t, uuid.New(), middleware.RolCajero))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	conc.AssertNotCalled(t, "RegistrarPago", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrarPago_IDInvalido400(t *testing.T) {
	r := creditosRouter(&conciliacionMock{}, &creditoFake{})
	req := dto.RegistrarPagoRequest{Monto: decimal.NewFromInt(10), NumeroRecibo: "R-14"}
	w := do(t, r, http.MethodPost, "/v1/cuentas/xyz/pagos", req, signToken(t, uuid.New(), middleware.RolCajero))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnularPago_DobleAnulacion409(t *testing.T) {
	conc := &conciliacionMock{}
	pagoID := uuid.New()
	conc.On("AnularPago", mock.Anything, pagoID, "recibo duplicado", mock.Anything).
		Return(nil, &service.PagoYaAnuladoError{PagoID: pagoID})

	r := creditosRouter(conc, &creditoFake{})
	w := do(t, r, http.MethodPost, "/v1/pagos/"+pagoID.String()+"/anular",
		dto.AnularPagoRequest{Motivo: "recibo duplicado"}, signToken(t, uuid.New(), middleware.RolSupervisor))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apierror.CodigoPagoAnulado, decodeAPIError(t, w).Codigo)
}

func TestAnularPago_OK(t *testing.T) {
	conc := &conciliacionMock{}
	pagoID := uuid.New()
	conc.On("AnularPago", mock.Anything, pagoID, "error de carga", mock.Anything).
		Return(&dto.PagoResponse{ID: pagoID.String(), Estado: model.PagoAnulado}, nil)

	r := creditosRouter(conc, &creditoFake{})
	w := do(t, r, http.MethodPost, "/v1/pagos/"+pagoID.String()+"/anular",
		dto.AnularPagoRequest{Motivo: "error de carga"}, signToken(t, uuid.New(), middleware.RolSupervisor))

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.PagoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.PagoAnulado, resp.Estado)
}

func TestObtenerCuenta_NoEncontrada404(t *testing.T) {
	r := creditosRouter(&conciliacionMock{}, &creditoFake{err: service.ErrCuentaNoEncontrada})
	w := do(t, r, http.MethodGet, "/v1/cuentas/"+uuid.NewString(), nil, signToken(t, uuid.New(), middleware.RolCajero))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierror.CodigoNoEncontrado, decodeAPIError(t, w).Codigo)
}

func TestEstadoCredito_UsaUmbralConfigurado(t *testing.T) {
	clienteID := uuid.New()
	cred := &creditoFake{estado: &service.EstadoCredito{
		ClienteID:     clienteID,
		LimiteCredito: decimal.NewFromInt(1000),
		SaldoTotal:    decimal.NewFromInt(850),
		Porcentaje:    decimal.NewFromInt(85),
		Disponible:    decimal.NewFromInt(150),
		Umbral:        decimal.NewFromInt(80),
		Critico:       true,
	}}
	r := creditosRouter(&conciliacionMock{}, cred)
	w := do(t, r, http.MethodGet, "/v1/clientes/"+clienteID.String()+"/credito", nil, signToken(t, uuid.New(), middleware.RolCajero))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, cred.umbralRec.Equal(decimal.NewFromInt(80)))
	var resp dto.EstadoCreditoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Critico)
	assert.Equal(t, clienteID.String(), resp.ClienteID)
}

// ── Tests: Caja ───────────────────────────────────────────────────────────────

func TestSesionActiva_PuntoDeVentaDelToken(t *testing.T) {
	caja := &cajaFake{resp: &dto.SesionActivaResponse{SesionCajaID: uuid.NewString(), Estrategia: "pdv_hoy"}}
	r := newEngine()
	r.GET("/v1/caja/sesion-activa", middleware.JWTAuth(testSecret), handler.NewCajaHandler(caja).SesionActiva)

	w := do(t, r, http.MethodGet, "/v1/caja/sesion-activa", nil, signToken(t, uuid.New(), middleware.RolCajero))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, caja.pdvRecibido)
	assert.Equal(t, 1, *caja.pdvRecibido)

	w = do(t, r, http.MethodGet, "/v1/caja/sesion-activa?punto_de_venta=4", nil, signToken(t, uuid.New(), middleware.RolCajero))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, *caja.pdvRecibido)
}

func TestSesionActiva_SinSesion404(t *testing.T) {
	caja := &cajaFake{err: service.ErrSesionNoEncontrada}
	r := newEngine()
	r.GET("/v1/caja/sesion-activa", middleware.JWTAuth(testSecret), handler.NewCajaHandler(caja).SesionActiva)

	w := do(t, r, http.MethodGet, "/v1/caja/sesion-activa", nil, signToken(t, uuid.New(), middleware.RolCajero))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierror.CodigoSinSesion, decodeAPIError(t, w).Codigo)
}

// ── Tests: Auditoria ──────────────────────────────────────────────────────────

func TestAuditoria_ListarConFiltros(t *testing.T) {
	aud := &auditoriaFake{}
	r := newEngine()
	r.GET("/v1/auditoria", handler.NewAuditoriaHandler(aud).Listar)

	w := do(t, r, http.MethodGet, "/v1/auditoria?accion=INTENTO_PAGO_SIN_CAJA&exitoso=false", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.AccionIntentoPagoSinCaja, aud.filtro.Accion)
	require.NotNil(t, aud.filtro.Exitoso)
	assert.False(t, *aud.filtro.Exitoso)
	assert.Equal(t, 1, aud.filtro.Page)
	assert.Equal(t, 50, aud.filtro.Limit)
}

func TestAuditoria_LimiteExcedido422(t *testing.T) {
	r := newEngine()
	r.GET("/v1/auditoria", handler.NewAuditoriaHandler(&auditoriaFake{}).Listar)

	w := do(t, r, http.MethodGet, "/v1/auditoria?limit=500", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAuditoria_FechaInvalida400(t *testing.T) {
	aud := &auditoriaFake{err: service.ErrFiltroInvalido}
	r := newEngine()
	r.GET("/v1/auditoria", handler.NewAuditoriaHandler(aud).Listar)

	w := do(t, r, http.MethodGet, "/v1/auditoria?desde=ayer", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
