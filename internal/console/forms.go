package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tiendactl/tiendactl/internal/auth"
	"github.com/tiendactl/tiendactl/internal/model"
)

const cancelWord = "cancelar"

var errCancelled = errors.New("form cancelled")

// fieldErrors validates a record and flattens the result into a
// field -> message map for inline rendering.
func (c *Console) fieldErrors(v any) map[string]string {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		out := make(map[string]string)
		for _, fieldErr := range validationErrors {
			out[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		return out
	}
	return map[string]string{"_": err.Error()}
}

func (c *Console) printFieldErrors(errs map[string]string) {
	for field, msg := range errs {
		fmt.Fprintf(c.out, "  %s: %s\n", field, msg)
	}
}

// promptField reads one field value, showing the current value as default.
// Empty input keeps the default, "cancelar" aborts the form.
func (c *Console) promptField(label, def string) (string, error) {
	prompt := label
	if def != "" {
		prompt += " [" + def + "]"
	}
	input, ok := c.readLine(prompt + ": ")
	if !ok {
		return "", errQuit
	}
	if strings.EqualFold(input, cancelWord) {
		return "", errCancelled
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}

func (c *Console) promptFloat(label string, def float64) (float64, error) {
	for {
		input, err := c.promptField(label, strconv.FormatFloat(def, 'f', -1, 64))
		if err != nil {
			return 0, err
		}
		v, parseErr := strconv.ParseFloat(input, 64)
		if parseErr != nil {
			fmt.Fprintf(c.out, "  %s debe ser un número\n", label)
			continue
		}
		return v, nil
	}
}

func (c *Console) promptInt(label string, def int) (int, error) {
	for {
		input, err := c.promptField(label, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		v, parseErr := strconv.Atoi(input)
		if parseErr != nil {
			fmt.Fprintf(c.out, "  %s debe ser un número entero\n", label)
			continue
		}
		return v, nil
	}
}

// accessDenied replaces a form for non-admin users: notice plus return
// action, no fields are ever rendered.
func (c *Console) accessDenied(action, backRoute string) (string, error) {
	user := c.session.User()
	fmt.Fprintln(c.out, "\n⛔ Acceso Denegado")
	fmt.Fprintf(c.out, "Solo los administradores pueden %s.\n", action)
	fmt.Fprintf(c.out, "Tu rol actual: %s\n", user.Rol)
	if _, ok := c.readLine("(enter para volver) "); !ok {
		return "", errQuit
	}
	return backRoute, nil
}

func (c *Console) loginForm(ctx context.Context) (string, error) {
	fmt.Fprintln(c.out, "\n=== Iniciar sesión ===")
	for {
		email, ok := c.readLine("Email: ")
		if !ok {
			return "", errQuit
		}
		password, ok := c.readLine("Contraseña: ")
		if !ok {
			return "", errQuit
		}
		creds := auth.Credentials{Email: email, Password: password}
		if errs := c.fieldErrors(creds); len(errs) > 0 {
			c.printFieldErrors(errs)
			continue
		}
		if err := c.session.Login(ctx, creds); err != nil {
			c.notify("No se pudo iniciar sesión: credenciales inválidas o servicio no disponible")
			continue
		}
		// The browser original reloads the whole app after login; the
		// console equivalent is re-mounting the stores with the new token.
		c.mountStores(ctx)
		// Unauthenticated fetches before this point may have recorded a
		// redirect back to the login route; it must not override the
		// navigation home.
		c.takePending()
		return routeHome, nil
	}
}

func (c *Console) productForm(ctx context.Context, id int64) (string, error) {
	isEdit := id != 0
	if !c.session.IsAdmin() {
		return c.accessDenied("crear o editar productos", routeProductos)
	}

	initial := model.Product{}
	if isEdit {
		if found, ok := c.products.Find(id); ok {
			initial = found
		}
	}

	title := "Crear"
	if isEdit {
		title = "Editar"
	}
	fmt.Fprintf(c.out, "\n=== %s Producto ===\n", title)

	var candidate model.Product
	for {
		nombre, err := c.promptField("Nombre", initial.Nombre)
		if err != nil {
			return c.formAborted(err, routeProductos)
		}
		precio, err := c.promptFloat("Precio", initial.Precio)
		if err != nil {
			return c.formAborted(err, routeProductos)
		}
		candidate = model.Product{Nombre: strings.TrimSpace(nombre), Precio: precio}
		if errs := c.fieldErrors(candidate); len(errs) > 0 {
			c.printFieldErrors(errs)
			continue
		}
		break
	}

	var err error
	if isEdit {
		_, err = c.products.Update(ctx, id, candidate)
	} else {
		_, err = c.products.Create(ctx, candidate)
	}
	if err != nil {
		c.notify(fmt.Sprintf("Error al %s el producto", actionWord(isEdit)))
		c.products.ClearError()
		return routeProductos, nil
	}
	c.notify(fmt.Sprintf("Producto %s exitosamente", doneWord(isEdit)))
	return routeProductos, nil
}

func (c *Console) userForm(ctx context.Context, id int64) (string, error) {
	isEdit := id != 0
	if !c.session.IsAdmin() {
		return c.accessDenied("editar usuarios", routeUsuarios)
	}
	// Second gate: there is no user creation here, accounts are created
	// through self-registration.
	if !isEdit {
		fmt.Fprintln(c.out, "\nLos usuarios se registran por sí mismos en la página de registro.")
		if _, ok := c.readLine("(enter para volver) "); !ok {
			return "", errQuit
		}
		return routeUsuarios, nil
	}

	initial := model.User{Rol: model.RoleCliente}
	if found, ok := c.users.Find(id); ok {
		initial = found
	}

	fmt.Fprintln(c.out, "\n=== Editar Usuario ===")
	fmt.Fprintln(c.out, "Importante: cambiar el rol afectará los permisos del usuario.")

	var candidate model.User
	for {
		nombre, err := c.promptField("Nombre", initial.Nombre)
		if err != nil {
			return c.formAborted(err, routeUsuarios)
		}
		email, err := c.promptField("Email", initial.Email)
		if err != nil {
			return c.formAborted(err, routeUsuarios)
		}
		edad, err := c.promptInt("Edad", initial.Edad)
		if err != nil {
			return c.formAborted(err, routeUsuarios)
		}
		for _, rol := range roleOrder {
			fmt.Fprintf(c.out, "  %s: %s\n", rol, roleLabels[rol])
		}
		rol, err := c.promptField("Rol", string(initial.Rol))
		if err != nil {
			return c.formAborted(err, routeUsuarios)
		}
		candidate = model.User{
			Nombre: strings.TrimSpace(nombre),
			Email:  email,
			Edad:   edad,
			Rol:    model.Role(rol),
		}
		if errs := c.fieldErrors(candidate); len(errs) > 0 {
			c.printFieldErrors(errs)
			continue
		}
		break
	}

	if _, err := c.users.Update(ctx, id, candidate); err != nil {
		c.notify("Error al actualizar el usuario")
		c.users.ClearError()
		return routeUsuarios, nil
	}
	c.notify("Usuario actualizado exitosamente")
	return routeUsuarios, nil
}

func (c *Console) saleForm(ctx context.Context, id int64) (string, error) {
	isEdit := id != 0
	if !c.session.IsAdmin() {
		return c.accessDenied("crear o editar ventas", routeVentas)
	}

	initial := model.Sale{Cantidad: 1, Fecha: today()}
	if isEdit {
		if found, ok := c.sales.Find(id); ok {
			initial = found
		}
	}

	title := "Crear"
	if isEdit {
		title = "Editar"
	}
	fmt.Fprintf(c.out, "\n=== %s Venta ===\n", title)

	draft := newSaleDraft(initial)
	for {
		fmt.Fprintln(c.out, "Usuarios:")
		for _, u := range c.users.Items() {
			fmt.Fprintf(c.out, "  %d: %s - %s\n", u.ID, u.Nombre, u.Email)
		}
		usuarioID, err := c.promptInt("Usuario (id)", int(initial.UsuarioID))
		if err != nil {
			return c.formAborted(err, routeVentas)
		}
		draft.SetUsuario(int64(usuarioID))

		fmt.Fprintln(c.out, "Productos:")
		for _, p := range c.products.Items() {
			fmt.Fprintf(c.out, "  %d: %s - %s\n", p.ID, p.Nombre, formatCurrency(p.Precio))
		}
		productoID, err := c.promptInt("Producto (id)", int(initial.ProductoID))
		if err != nil {
			return c.formAborted(err, routeVentas)
		}
		if product, ok := c.products.Find(int64(productoID)); ok {
			draft.SelectProduct(product)
		} else {
			draft.SetProductoID(int64(productoID))
		}

		cantidad, err := c.promptInt("Cantidad", draft.sale.Cantidad)
		if err != nil {
			return c.formAborted(err, routeVentas)
		}
		draft.SetCantidad(cantidad)

		total, err := c.promptFloat("Total", draft.Total())
		if err != nil {
			return c.formAborted(err, routeVentas)
		}
		if total != draft.Total() {
			draft.OverrideTotal(total)
		}

		fechaStr, err := c.promptField("Fecha (AAAA-MM-DD)", draft.sale.Fecha.Format("2006-01-02"))
		if err != nil {
			return c.formAborted(err, routeVentas)
		}
		fecha, parseErr := parseFecha(fechaStr)
		if parseErr != nil {
			fmt.Fprintln(c.out, "  Fecha inválida")
			continue
		}
		draft.SetFecha(fecha)

		if errs := c.fieldErrors(draft.sale); len(errs) > 0 {
			c.printFieldErrors(errs)
			continue
		}
		break
	}

	var err error
	if isEdit {
		_, err = c.sales.Update(ctx, id, draft.sale)
	} else {
		_, err = c.sales.Create(ctx, draft.sale)
	}
	if err != nil {
		c.notify(fmt.Sprintf("Error al %s la venta", actionWord(isEdit)))
		c.sales.ClearError()
		return routeVentas, nil
	}
	c.notify(fmt.Sprintf("Venta %s exitosamente", doneVentaWord(isEdit)))
	return routeVentas, nil
}

// formAborted maps a form abort to the route to land on: quitting
// propagates, cancelling returns to the resource list.
func (c *Console) formAborted(err error, backRoute string) (string, error) {
	if errors.Is(err, errCancelled) {
		return backRoute, nil
	}
	return "", err
}

func actionWord(isEdit bool) string {
	if isEdit {
		return "actualizar"
	}
	return "crear"
}

func doneWord(isEdit bool) string {
	if isEdit {
		return "actualizado"
	}
	return "creado"
}

func doneVentaWord(isEdit bool) string {
	if isEdit {
		return "actualizada"
	}
	return "creada"
}

// today returns the current date truncated to midnight UTC, the default of
// the sale date field.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// parseFecha accepts the form's date-only layout and full RFC3339, and
// normalizes both to a timestamp.
func parseFecha(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
