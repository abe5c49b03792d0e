package model

// enums.go — closed enumerations for payment, register and document state.
// Every enum is a typed string with a Parse function and an exhaustive
// switch: an unknown value is an error at the boundary, never a silent
// fallthrough to a default label.

import "fmt"

// ─── Payment method ──────────────────────────────────────────────────────────

// MetodoPago is the payment method of a single Pago.
type MetodoPago string

const (
	MetodoCash     MetodoPago = "CASH"
	MetodoYape     MetodoPago = "YAPE"
	MetodoPlin     MetodoPago = "PLIN"
	MetodoCard     MetodoPago = "CARD"
	MetodoTransfer MetodoPago = "TRANSFER"
	MetodoOtros    MetodoPago = "OTROS"
)

// MetodosPago lists every method in display order.
var MetodosPago = []MetodoPago{
	MetodoCash, MetodoYape, MetodoPlin, MetodoCard, MetodoTransfer, MetodoOtros,
}

func ParseMetodoPago(s string) (MetodoPago, error) {
	switch MetodoPago(s) {
	case MetodoCash, MetodoYape, MetodoPlin, MetodoCard, MetodoTransfer, MetodoOtros:
		return MetodoPago(s), nil
	}
	return "", fmt.Errorf("método de pago desconocido: %q", s)
}

// Label returns the Spanish display name printed on tickets and reports.
func (m MetodoPago) Label() string {
	switch m {
	case MetodoCash:
		return "Efectivo"
	case MetodoYape:
		return "Yape"
	case MetodoPlin:
		return "Plin"
	case MetodoCard:
		return "Tarjeta"
	case MetodoTransfer:
		return "Transferencia"
	case MetodoOtros:
		return "Otros"
	}
	return string(m)
}

// ─── Register cash type ──────────────────────────────────────────────────────

// TipoCaja classifies a register: physical cash drawer, digital wallet
// account (Yape/Plin) or bank account.
type TipoCaja string

const (
	CajaEfectivo TipoCaja = "CASH"
	CajaDigital  TipoCaja = "DIGITAL"
	CajaBancaria TipoCaja = "BANK"
)

func ParseTipoCaja(s string) (TipoCaja, error) {
	switch TipoCaja(s) {
	case CajaEfectivo, CajaDigital, CajaBancaria:
		return TipoCaja(s), nil
	}
	return "", fmt.Errorf("tipo de caja desconocido: %q", s)
}

// ─── Transaction type / payment status ───────────────────────────────────────

type TipoTransaccion string

const (
	TransaccionIngreso TipoTransaccion = "INCOME"
	TransaccionEgreso  TipoTransaccion = "EXPENSE"
)

func ParseTipoTransaccion(s string) (TipoTransaccion, error) {
	switch TipoTransaccion(s) {
	case TransaccionIngreso, TransaccionEgreso:
		return TipoTransaccion(s), nil
	}
	return "", fmt.Errorf("tipo de transacción desconocido: %q", s)
}

type EstadoPago string

const (
	PagoPendiente EstadoPago = "PENDING"
	PagoPagado    EstadoPago = "PAID"
)

// ─── Table status ────────────────────────────────────────────────────────────

type EstadoMesa string

const (
	MesaLibre      EstadoMesa = "FREE"
	MesaOcupada    EstadoMesa = "OCCUPIED"
	MesaReservada  EstadoMesa = "RESERVED"
	MesaPorLimpiar EstadoMesa = "CLEANING"
)

// ─── Document type ───────────────────────────────────────────────────────────

// TipoComprobante is the SUNAT document type code.
type TipoComprobante string

const (
	ComprobanteFactura     TipoComprobante = "01"
	ComprobanteBoleta      TipoComprobante = "03"
	ComprobanteNotaDeVenta TipoComprobante = "80"
)

func ParseTipoComprobante(s string) (TipoComprobante, error) {
	switch TipoComprobante(s) {
	case ComprobanteFactura, ComprobanteBoleta, ComprobanteNotaDeVenta:
		return TipoComprobante(s), nil
	}
	return "", fmt.Errorf("tipo de comprobante desconocido: %q", s)
}

func (t TipoComprobante) Label() string {
	switch t {
	case ComprobanteFactura:
		return "Factura"
	case ComprobanteBoleta:
		return "Boleta de venta"
	case ComprobanteNotaDeVenta:
		return "Nota de venta"
	}
	return string(t)
}

// RequiereRUC reports whether the document type demands a client with RUC.
func (t TipoComprobante) RequiereRUC() bool { return t == ComprobanteFactura }

// ─── Person identity document ────────────────────────────────────────────────

type TipoDocIdentidad string

const (
	DocDNI       TipoDocIdentidad = "DNI"
	DocRUC       TipoDocIdentidad = "RUC"
	DocCE        TipoDocIdentidad = "CE"
	DocPasaporte TipoDocIdentidad = "PASAPORTE"
)

func ParseTipoDocIdentidad(s string) (TipoDocIdentidad, error) {
	switch TipoDocIdentidad(s) {
	case DocDNI, DocRUC, DocCE, DocPasaporte:
		return TipoDocIdentidad(s), nil
	}
	return "", fmt.Errorf("tipo de documento de identidad desconocido: %q", s)
}

// ─── Billing status state machine ────────────────────────────────────────────

// EstadoFacturacion is the lifecycle state of a fiscal document as tracked
// against SUNAT. Initial state: Processing. Terminal: Cancelled, Rejected.
type EstadoFacturacion string

const (
	FacturacionProcesando          EstadoFacturacion = "PROCESSING"
	FacturacionEnviado             EstadoFacturacion = "SENT"
	FacturacionAceptado            EstadoFacturacion = "ACCEPTED"
	FacturacionAceptadoConObs      EstadoFacturacion = "ACCEPTED_WITH_OBSERVATIONS"
	FacturacionRechazado           EstadoFacturacion = "REJECTED"
	FacturacionError               EstadoFacturacion = "ERROR"
	FacturacionProcesandoAnulacion EstadoFacturacion = "PROCESSING_CANCELLATION"
	FacturacionAnulacionPendiente  EstadoFacturacion = "CANCELLATION_PENDING"
	FacturacionAnulado             EstadoFacturacion = "CANCELLED"
	FacturacionErrorAnulacion      EstadoFacturacion = "CANCELLATION_ERROR"
)

func ParseEstadoFacturacion(s string) (EstadoFacturacion, error) {
	switch EstadoFacturacion(s) {
	case FacturacionProcesando, FacturacionEnviado, FacturacionAceptado,
		FacturacionAceptadoConObs, FacturacionRechazado, FacturacionError,
		FacturacionProcesandoAnulacion, FacturacionAnulacionPendiente,
		FacturacionAnulado, FacturacionErrorAnulacion:
		return EstadoFacturacion(s), nil
	}
	return "", fmt.Errorf("estado de facturación desconocido: %q", s)
}

// transiciones is the complete legal transition table.
var transiciones = map[EstadoFacturacion][]EstadoFacturacion{
	FacturacionProcesando: {FacturacionEnviado},
	FacturacionEnviado: {
		FacturacionAceptado, FacturacionAceptadoConObs,
		FacturacionRechazado, FacturacionError,
		FacturacionProcesandoAnulacion,
	},
	FacturacionAceptado:       {FacturacionProcesandoAnulacion},
	FacturacionAceptadoConObs: {FacturacionProcesandoAnulacion},
	FacturacionProcesandoAnulacion: {
		FacturacionAnulacionPendiente, FacturacionErrorAnulacion,
	},
	FacturacionAnulacionPendiente: {FacturacionAnulado},
	// ERROR documents can be re-sent by the retry cron.
	FacturacionError: {FacturacionEnviado},
	// Terminal states — a cancelled or rejected document never moves again;
	// supersession happens through a child document, not a state change.
	FacturacionAnulado:        {},
	FacturacionRechazado:      {},
	FacturacionErrorAnulacion: {FacturacionProcesandoAnulacion},
}

// PuedeTransicionar reports whether from → to is a legal transition.
func (from EstadoFacturacion) PuedeTransicionar(to EstadoFacturacion) bool {
	for _, next := range transiciones[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PuedeAnularse reports whether a cancellation may be requested in this state.
func (e EstadoFacturacion) PuedeAnularse() bool {
	switch e {
	case FacturacionAceptado, FacturacionEnviado, FacturacionAceptadoConObs:
		return true
	}
	return false
}

// EsTerminal reports whether the state admits no further transition of its own.
func (e EstadoFacturacion) EsTerminal() bool {
	return e == FacturacionAnulado || e == FacturacionRechazado
}

// ─── Cancellation reasons ────────────────────────────────────────────────────

// MotivoAnulacion is one of the fixed 8 cancellation reason codes.
type MotivoAnulacion string

const (
	MotivoAnulacionOperacion MotivoAnulacion = "01"
	MotivoErrorRUC           MotivoAnulacion = "02"
	MotivoErrorDescripcion   MotivoAnulacion = "03"
	MotivoDescuentoGlobal    MotivoAnulacion = "04"
	MotivoDescuentoItem      MotivoAnulacion = "05"
	MotivoDevolucionTotal    MotivoAnulacion = "06"
	MotivoDevolucionItem     MotivoAnulacion = "07"
	MotivoBonificacion       MotivoAnulacion = "08"
)

func ParseMotivoAnulacion(s string) (MotivoAnulacion, error) {
	switch MotivoAnulacion(s) {
	case MotivoAnulacionOperacion, MotivoErrorRUC, MotivoErrorDescripcion,
		MotivoDescuentoGlobal, MotivoDescuentoItem, MotivoDevolucionTotal,
		MotivoDevolucionItem, MotivoBonificacion:
		return MotivoAnulacion(s), nil
	}
	return "", fmt.Errorf("motivo de anulación desconocido: %q", s)
}

func (m MotivoAnulacion) Label() string {
	switch m {
	case MotivoAnulacionOperacion:
		return "Anulación de la operación"
	case MotivoErrorRUC:
		return "Anulación por error en el RUC"
	case MotivoErrorDescripcion:
		return "Corrección por error en la descripción"
	case MotivoDescuentoGlobal:
		return "Descuento global"
	case MotivoDescuentoItem:
		return "Descuento por ítem"
	case MotivoDevolucionTotal:
		return "Devolución total"
	case MotivoDevolucionItem:
		return "Devolución por ítem"
	case MotivoBonificacion:
		return "Bonificación"
	}
	return string(m)
}
