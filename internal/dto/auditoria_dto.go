package dto

// AuditoriaFilter is bound from the query string of GET /v1/auditoria.
type AuditoriaFilter struct {
	UsuarioID    string `form:"usuario_id"     validate:"omitempty,uuid"`
	SesionCajaID string `form:"sesion_caja_id" validate:"omitempty,uuid"`
	Accion       string `form:"accion"`
	Exitoso      *bool  `form:"exitoso"`
	Desde        string `form:"desde"` // YYYY-MM-DD
	Hasta        string `form:"hasta"` // YYYY-MM-DD, inclusive
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type RegistroAuditoriaResponse struct {
	ID                 string  `json:"id"`
	UsuarioID          string  `json:"usuario_id"`
	PuntoDeVenta       *int    `json:"punto_de_venta"`
	SesionCajaID       *string `json:"sesion_caja_id"`
	Accion             string  `json:"accion"`
	OperacionIntentada string  `json:"operacion_intentada"`
	TipoOperacion      string  `json:"tipo_operacion"`
	Exitoso            bool    `json:"exitoso"`
	Detalle            any     `json:"detalle"`
	CodigoResultado    int     `json:"codigo_resultado"`
	MensajeError       *string `json:"mensaje_error"`
	IP                 string  `json:"ip"`
	UserAgent          string  `json:"user_agent"`
	CreatedAt          string  `json:"created_at"`
}

type AuditoriaListResponse struct {
	Data  []RegistroAuditoriaResponse `json:"data"`
	Total int64                       `json:"total"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
}
