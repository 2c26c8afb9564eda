package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/tiendactl/tiendactl/internal/model"
)

// splitCommand separates a view command from its argument.
func splitCommand(input string) (string, string) {
	cmd, arg, _ := strings.Cut(input, " ")
	return cmd, strings.TrimSpace(arg)
}

// pagePage clamps page into range and returns the rows of that page plus
// the total page count.
func paginate[T any](items []T, page int) ([]T, int, int) {
	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page, totalPages
}

func formatCurrency(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// renderTable writes header and rows through a tabwriter.
func (c *Console) renderTable(header []string, rows [][]string) {
	w := tabwriter.NewWriter(c.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// renderStatus prints the store's loading and error lines above a table.
func (c *Console) renderStatus(loading bool, errMsg, resource string) {
	if loading {
		fmt.Fprintf(c.out, "Cargando %s...\n", resource)
	}
	if errMsg != "" {
		fmt.Fprintf(c.out, "Error: %s\n", errMsg)
	}
}

func (c *Console) renderRoleNotice(isAdmin bool, resource string) {
	if !isAdmin {
		fmt.Fprintf(c.out, "Información: solo los administradores pueden crear, editar y eliminar %s.\n", resource)
	}
}

func (c *Console) productsView(ctx context.Context) (string, error) {
	isAdmin := c.session.IsAdmin()
	page := 1
	for {
		products := c.products.Items()
		pageItems, current, totalPages := paginate(products, page)
		page = current

		fmt.Fprintln(c.out, "\n=== Lista de Productos ===")
		c.renderRoleNotice(isAdmin, "productos")
		c.renderStatus(c.products.Loading(), c.products.Err(), "productos")
		rows := make([][]string, 0, len(pageItems))
		for _, p := range pageItems {
			rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Nombre, formatCurrency(p.Precio)})
		}
		c.renderTable([]string{"ID", "Nombre", "Precio"}, rows)
		fmt.Fprintf(c.out, "Página %d/%d (%d productos)\n", page, totalPages, len(products))

		input, ok := c.readLine("productos> ")
		if !ok {
			return "", errQuit
		}
		cmd, arg := splitCommand(input)
		switch cmd {
		case "":
		case "crear":
			if isAdmin {
				return routeProductos + "/crear", nil
			}
			fmt.Fprintln(c.out, "Acción reservada a administradores.")
		case "editar":
			if isAdmin {
				return routeProductos + "/editar/" + arg, nil
			}
			fmt.Fprintln(c.out, "Acción reservada a administradores.")
		case "eliminar":
			if !isAdmin {
				fmt.Fprintln(c.out, "Acción reservada a administradores.")
				break
			}
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				fmt.Fprintln(c.out, "Uso: eliminar <id>")
				break
			}
			if !c.confirm("¿Estás seguro de eliminar este producto?") {
				break
			}
			if err := c.products.Delete(ctx, id); err != nil && c.products.Err() != "" {
				c.alert(c.products.Err())
			}
		case "exportar":
			rows := make([][]string, 0, len(products))
			for _, p := range products {
				rows = append(rows, []string{p.Nombre, formatCurrency(p.Precio)})
			}
			c.runExport(rows, "Productos", []string{"nombre", "precio"})
		case "pagina":
			page = parsePage(arg)
		case "volver":
			return routeHome, nil
		case "salir":
			return "", errQuit
		default:
			c.printViewHelp()
		}
		if c.hasPending() {
			return routeProductos, nil
		}
	}
}

func (c *Console) usersView(ctx context.Context) (string, error) {
	isAdmin := c.session.IsAdmin()
	page := 1
	for {
		users := c.users.Items()
		pageItems, current, totalPages := paginate(users, page)
		page = current

		fmt.Fprintln(c.out, "\n=== Lista de Usuarios ===")
		c.renderRoleNotice(isAdmin, "usuarios")
		c.renderStatus(c.users.Loading(), c.users.Err(), "usuarios")
		rows := make([][]string, 0, len(pageItems))
		for _, u := range pageItems {
			rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Nombre, u.Email, strconv.Itoa(u.Edad), string(u.Rol)})
		}
		c.renderTable([]string{"ID", "Nombre", "Email", "Edad", "Rol"}, rows)
		fmt.Fprintf(c.out, "Página %d/%d (%d usuarios)\n", page, totalPages, len(users))

		input, ok := c.readLine("usuarios> ")
		if !ok {
			return "", errQuit
		}
		cmd, arg := splitCommand(input)
		switch cmd {
		case "":
		case "editar":
			if isAdmin {
				return routeUsuarios + "/editar/" + arg, nil
			}
			fmt.Fprintln(c.out, "Acción reservada a administradores.")
		case "eliminar":
			if !isAdmin {
				fmt.Fprintln(c.out, "Acción reservada a administradores.")
				break
			}
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				fmt.Fprintln(c.out, "Uso: eliminar <id>")
				break
			}
			if !c.confirm("¿Estás seguro de eliminar este usuario?") {
				break
			}
			if err := c.users.Delete(ctx, id); err != nil && c.users.Err() != "" {
				c.alert(c.users.Err())
			}
		case "exportar":
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.Nombre, u.Email, strconv.Itoa(u.Edad), string(u.Rol)})
			}
			c.runExport(rows, "Usuarios", []string{"nombre", "email", "edad", "rol"})
		case "pagina":
			page = parsePage(arg)
		case "volver":
			return routeHome, nil
		case "salir":
			return "", errQuit
		default:
			c.printViewHelp()
		}
		if c.hasPending() {
			return routeUsuarios, nil
		}
	}
}

func (c *Console) salesView(ctx context.Context) (string, error) {
	isAdmin := c.session.IsAdmin()
	page := 1
	for {
		sales := c.sales.Items()
		pageItems, current, totalPages := paginate(sales, page)
		page = current

		fmt.Fprintln(c.out, "\n=== Lista de Ventas ===")
		c.renderRoleNotice(isAdmin, "ventas")
		c.renderStatus(c.sales.Loading(), c.sales.Err(), "ventas")
		rows := make([][]string, 0, len(pageItems))
		for _, s := range pageItems {
			rows = append(rows, []string{
				strconv.FormatInt(s.ID, 10),
				c.userName(s.UsuarioID),
				c.productName(s.ProductoID),
				strconv.Itoa(s.Cantidad),
				formatCurrency(s.Total),
				s.Fecha.Format("02/01/2006"),
			})
		}
		c.renderTable([]string{"ID", "Usuario", "Producto", "Cantidad", "Total", "Fecha"}, rows)
		fmt.Fprintf(c.out, "Página %d/%d (%d ventas)\n", page, totalPages, len(sales))

		input, ok := c.readLine("ventas> ")
		if !ok {
			return "", errQuit
		}
		cmd, arg := splitCommand(input)
		switch cmd {
		case "":
		case "crear":
			if isAdmin {
				return routeVentas + "/crear", nil
			}
			fmt.Fprintln(c.out, "Acción reservada a administradores.")
		case "editar":
			if isAdmin {
				return routeVentas + "/editar/" + arg, nil
			}
			fmt.Fprintln(c.out, "Acción reservada a administradores.")
		case "eliminar":
			if !isAdmin {
				fmt.Fprintln(c.out, "Acción reservada a administradores.")
				break
			}
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				fmt.Fprintln(c.out, "Uso: eliminar <id>")
				break
			}
			if !c.confirm("¿Estás seguro de eliminar esta venta?") {
				break
			}
			// Sales deletions surface failures inline only, no alert.
			_ = c.sales.Delete(ctx, id)
		case "exportar":
			rows := make([][]string, 0, len(sales))
			for _, s := range sales {
				rows = append(rows, []string{
					c.userName(s.UsuarioID),
					c.productName(s.ProductoID),
					strconv.Itoa(s.Cantidad),
					formatCurrency(s.Total),
					s.Fecha.Format("02/01/2006"),
				})
			}
			c.runExport(rows, "Ventas", []string{"usuario", "producto", "cantidad", "total", "fecha"})
		case "pagina":
			page = parsePage(arg)
		case "volver":
			return routeHome, nil
		case "salir":
			return "", errQuit
		default:
			c.printViewHelp()
		}
		if c.hasPending() {
			return routeVentas, nil
		}
	}
}

func (c *Console) runExport(rows [][]string, title string, fields []string) {
	path, err := c.exporter.Export(rows, title, fields)
	if err != nil {
		c.notify("No se pudo exportar: " + err.Error())
		return
	}
	c.notify("Exportado a " + path)
}

func (c *Console) printViewHelp() {
	fmt.Fprintln(c.out, "Comandos: crear | editar <id> | eliminar <id> | exportar | pagina <n> | volver | salir")
}

func parsePage(arg string) int {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// userName resolves a user id against the loaded user collection.
func (c *Console) userName(id int64) string {
	if u, ok := c.users.Find(id); ok {
		return u.Nombre
	}
	return "N/A"
}

// productName resolves a product id against the loaded product collection.
func (c *Console) productName(id int64) string {
	if p, ok := c.products.Find(id); ok {
		return p.Nombre
	}
	return "N/A"
}

// roleLabels describes each role on the user form, mirroring the badge the
// admin sees next to the role selector. roleOrder fixes the legend's
// rendering order.
var (
	roleOrder  = []model.Role{model.RoleAdmin, model.RoleModerador, model.RoleCliente}
	roleLabels = map[model.Role]string{
		model.RoleAdmin:     "acceso completo al sistema",
		model.RoleModerador: "puede ver y editar contenido",
		model.RoleCliente:   "acceso básico de cliente",
	}
)
