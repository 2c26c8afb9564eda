package console

import (
	"time"

	"github.com/tiendactl/tiendactl/internal/model"
)

// saleDraft models the sale form's reactive total derivation: total is a
// pure function of the selected product and the quantity, recomputed on
// every change of either, until the user overrides it manually. A manual
// override survives as long as product and quantity stay untouched.
type saleDraft struct {
	sale        model.Sale
	product     model.Product
	hasProduct  bool
	manualTotal bool
}

func newSaleDraft(initial model.Sale) *saleDraft {
	return &saleDraft{
		sale: initial,
		// An existing sale keeps its stored total until a relevant field
		// changes; it behaves like a manual value.
		manualTotal: initial.ID != 0,
	}
}

func (d *saleDraft) SetUsuario(id int64) {
	d.sale.UsuarioID = id
}

// SelectProduct records the product selection and recomputes the total if
// the selection actually changed.
func (d *saleDraft) SelectProduct(p model.Product) {
	changed := d.sale.ProductoID != p.ID
	d.product = p
	d.hasProduct = true
	d.sale.ProductoID = p.ID
	if changed {
		d.recompute()
	}
}

// SetProductoID records a product id that has no loaded record behind it,
// so no derivation is possible.
func (d *saleDraft) SetProductoID(id int64) {
	d.sale.ProductoID = id
	d.hasProduct = false
}

func (d *saleDraft) SetCantidad(n int) {
	changed := d.sale.Cantidad != n
	d.sale.Cantidad = n
	if changed {
		d.recompute()
	}
}

// OverrideTotal replaces the derived total with a manual value.
func (d *saleDraft) OverrideTotal(v float64) {
	d.sale.Total = v
	d.manualTotal = true
}

func (d *saleDraft) SetFecha(t time.Time) {
	d.sale.Fecha = t
}

func (d *saleDraft) Total() float64 {
	return d.sale.Total
}

func (d *saleDraft) recompute() {
	if !d.hasProduct || d.sale.Cantidad <= 0 {
		return
	}
	d.sale.Total = model.DerivedTotal(d.product, d.sale.Cantidad)
	d.manualTotal = false
}
