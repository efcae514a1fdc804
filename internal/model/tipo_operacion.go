package model

// Codigos de TipoOperacion requeridos por el libro de caja.
const (
	OperacionVenta          = "VENTA"
	OperacionCredito        = "CREDITO"
	OperacionCobroCredito   = "COBRO_CREDITO"
	OperacionAnulacionCobro = "ANULACION_COBRO"
)

// Signo de un TipoOperacion: cómo afecta el total de la sesión.
const (
	SignoIngreso = "ingreso"
	SignoEgreso  = "egreso"
	SignoNeutro  = "neutro" // crédito otorgado: no mueve efectivo
)

// TipoOperacion is reference data seeded once (see cmd/seedref).
type TipoOperacion struct {
	ID          int    `gorm:"primaryKey"`
	Codigo      string `gorm:"type:varchar(30);uniqueIndex;not null"`
	Descripcion string `gorm:"not null"`
	Signo       string `gorm:"type:varchar(10);not null;default:'ingreso'"`
}

func (TipoOperacion) TableName() string { return "tipos_operacion" }

// TiposOperacionBase lists the rows every installation needs.
func TiposOperacionBase() []TipoOperacion {
	return []TipoOperacion{
		{ID: 1, Codigo: OperacionVenta, Descripcion: "Venta cobrada en caja", Signo: SignoIngreso},
		{ID: 2, Codigo: OperacionCredito, Descripcion: "Venta a crédito", Signo: SignoNeutro},
		{ID: 3, Codigo: OperacionCobroCredito, Descripcion: "Cobro de cuenta por cobrar", Signo: SignoIngreso},
		{ID: 4, Codigo: OperacionAnulacionCobro, Descripcion: "Anulación de cobro", Signo: SignoEgreso},
	}
}
