// Package console renders the admin frontend as a route-driven terminal
// application: list views with paginated tables and forms for the three
// resources, gated by the ambient user's role.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tiendactl/tiendactl/internal/auth"
	"github.com/tiendactl/tiendactl/internal/export"
	"github.com/tiendactl/tiendactl/internal/store"
)

const (
	routeHome      = "/"
	routeLogin     = "/inicio-sesion"
	routeProductos = "/productos"
	routeUsuarios  = "/usuarios"
	routeVentas    = "/ventas"
)

// pageSize is the fixed number of rows per table page.
const pageSize = 10

// errQuit ends the route loop.
var errQuit = errors.New("quit")

// Console drives the route loop. It is also the Navigator collaborator:
// programmatic redirects (session expiry, logout) land in pending and win
// over whatever route the active screen proposed.
type Console struct {
	session  *auth.Session
	products *store.ProductStore
	users    *store.UserStore
	sales    *store.SaleStore
	exporter export.Exporter
	validate *validator.Validate
	logger   *slog.Logger

	in  *bufio.Scanner
	out io.Writer

	// pending is written by the session's navigator callback, which the
	// concurrent initial mounts may invoke.
	mu      sync.Mutex
	pending string
}

func New(session *auth.Session, products *store.ProductStore, users *store.UserStore, sales *store.SaleStore,
	exporter export.Exporter, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	return &Console{
		session:  session,
		products: products,
		users:    users,
		sales:    sales,
		exporter: exporter,
		validate: validator.New(),
		logger:   logger.With("component", "console"),
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// To records a programmatic redirect. Implements auth.Navigator.
func (c *Console) To(route string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = route
}

func (c *Console) takePending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == "" {
		return "", false
	}
	route := c.pending
	c.pending = ""
	return route, true
}

func (c *Console) hasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != ""
}

// Run restores the session, mounts the three stores and enters the route
// loop until the user quits or input ends.
func (c *Console) Run(ctx context.Context) error {
	c.session.Restore(ctx)
	c.mountStores(ctx)

	route := routeHome
	if c.session.User() == nil {
		route = routeLogin
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := c.dispatch(ctx, route)
		if errors.Is(err, errQuit) {
			fmt.Fprintln(c.out, "Hasta luego.")
			return nil
		}
		if err != nil {
			return err
		}
		if forced, ok := c.takePending(); ok {
			next = forced
		}
		route = next
	}
}

// mountStores issues the one initial list() per store, concurrently. A
// failed mount is not fatal: views render the stores' error state.
func (c *Console) mountStores(ctx context.Context) {
	if err := store.Mount(ctx, c.products.List, c.users.List, c.sales.List); err != nil {
		c.logger.Warn("Initial load incomplete", "error", err)
	}
}

func (c *Console) dispatch(ctx context.Context, route string) (string, error) {
	// Equivalent of the private-route wrapper: everything except the login
	// screen requires an authenticated user.
	if route != routeLogin && c.session.User() == nil {
		if c.session.Loading() {
			fmt.Fprintln(c.out, "Verificando autenticación...")
		}
		return routeLogin, nil
	}

	switch {
	case route == routeHome:
		return c.homeView()
	case route == routeLogin:
		return c.loginForm(ctx)
	case route == routeProductos:
		return c.productsView(ctx)
	case route == routeProductos+"/crear":
		return c.productForm(ctx, 0)
	case strings.HasPrefix(route, routeProductos+"/editar/"):
		if id, ok := c.editID(route); ok {
			return c.productForm(ctx, id)
		}
		return routeProductos, nil
	case route == routeUsuarios:
		return c.usersView(ctx)
	case route == routeUsuarios+"/crear":
		return c.userForm(ctx, 0)
	case strings.HasPrefix(route, routeUsuarios+"/editar/"):
		if id, ok := c.editID(route); ok {
			return c.userForm(ctx, id)
		}
		return routeUsuarios, nil
	case route == routeVentas:
		return c.salesView(ctx)
	case route == routeVentas+"/crear":
		return c.saleForm(ctx, 0)
	case strings.HasPrefix(route, routeVentas+"/editar/"):
		if id, ok := c.editID(route); ok {
			return c.saleForm(ctx, id)
		}
		return routeVentas, nil
	default:
		fmt.Fprintf(c.out, "Ruta desconocida: %s\n", route)
		return routeHome, nil
	}
}

// editID extracts the trailing id of an edit route. A malformed or
// non-positive id gets a notice and keeps the user on the list view.
func (c *Console) editID(route string) (int64, bool) {
	raw := route[strings.LastIndex(route, "/")+1:]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.notify("Identificador inválido: " + raw)
		return 0, false
	}
	return id, true
}

func (c *Console) homeView() (string, error) {
	user := c.session.User()
	fmt.Fprintf(c.out, "\n=== Inicio ===\n")
	fmt.Fprintf(c.out, "Bienvenido, %s (%s)\n", user.Nombre, user.Rol)
	fmt.Fprintln(c.out, "Secciones: productos | usuarios | ventas | salir")
	for {
		input, ok := c.readLine("> ")
		if !ok {
			return "", errQuit
		}
		switch input {
		case "productos":
			return routeProductos, nil
		case "usuarios":
			return routeUsuarios, nil
		case "ventas":
			return routeVentas, nil
		case "cerrar-sesion":
			c.session.Logout()
			return routeLogin, nil
		case "salir":
			return "", errQuit
		case "":
			continue
		default:
			fmt.Fprintln(c.out, "Comando desconocido. Secciones: productos | usuarios | ventas | cerrar-sesion | salir")
		}
	}
}

// readLine prints the prompt and reads one trimmed input line. ok is false
// when input ended.
func (c *Console) readLine(prompt string) (string, bool) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// notify prints a transient confirmation or failure notice.
func (c *Console) notify(msg string) {
	fmt.Fprintf(c.out, "»» %s\n", msg)
}

// alert prints a blocking alert and waits for acknowledgement, the console
// equivalent of window.alert.
func (c *Console) alert(msg string) {
	fmt.Fprintf(c.out, "¡ATENCIÓN! %s\n", msg)
	_, _ = c.readLine("(enter para continuar) ")
}

// confirm asks an interactive yes/no question; only an explicit "s" or
// "si" confirms.
func (c *Console) confirm(question string) bool {
	input, ok := c.readLine(question + " (s/N) ")
	if !ok {
		return false
	}
	switch strings.ToLower(input) {
	case "s", "si", "sí":
		return true
	default:
		return false
	}
}
