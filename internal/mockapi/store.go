package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tiendactl/tiendactl/internal/model"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists the mock catalogue in a sqlite database so state survives
// restarts during development. Use path ":memory:" in tests.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: sqlite has a single writer anyway, and a pooled
	// :memory: database would otherwise exist per connection.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS productos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL,
			precio REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS usuarios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			edad INTEGER NOT NULL,
			rol TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ventas (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			usuario_id INTEGER NOT NULL,
			producto_id INTEGER NOT NULL,
			cantidad INTEGER NOT NULL,
			total REAL NOT NULL,
			fecha TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Seed inserts a small demo dataset unless users already exist.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&count); err != nil {
		return fmt.Errorf("count usuarios: %w", err)
	}
	if count > 0 {
		return nil
	}

	users := []model.User{
		{Nombre: "Ana Admin", Email: "ana@tienda.local", Edad: 34, Rol: model.RoleAdmin},
		{Nombre: "Marta Moderadora", Email: "marta@tienda.local", Edad: 29, Rol: model.RoleModerador},
		{Nombre: "Carlos Cliente", Email: "carlos@tienda.local", Edad: 41, Rol: model.RoleCliente},
	}
	for _, u := range users {
		if _, err := s.CreateUser(ctx, u); err != nil {
			return err
		}
	}
	products := []model.Product{
		{Nombre: "Teclado mecánico", Precio: 95.50},
		{Nombre: "Monitor 27\"", Precio: 320},
		{Nombre: "Auriculares", Precio: 48.99},
	}
	for _, p := range products {
		if _, err := s.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nombre, precio FROM productos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select productos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Precio); err != nil {
			return nil, fmt.Errorf("scan producto: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO productos (nombre, precio) VALUES (?, ?)`, p.Nombre, p.Precio)
	if err != nil {
		return model.Product{}, fmt.Errorf("insert producto: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return model.Product{}, fmt.Errorf("last insert id: %w", err)
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, p model.Product) (model.Product, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE productos SET nombre = ?, precio = ? WHERE id = ?`, p.Nombre, p.Precio, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("update producto: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Product{}, ErrNotFound
	}
	return p.WithID(id), nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM productos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete producto: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nombre, email, edad, rol FROM usuarios ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select usuarios: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Nombre, &u.Email, &u.Edad, &u.Rol); err != nil {
			return nil, fmt.Errorf("scan usuario: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nombre, email, edad, rol FROM usuarios WHERE email = ?`, email).
		Scan(&u.ID, &u.Nombre, &u.Email, &u.Edad, &u.Rol)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("select usuario by email: %w", err)
	}
	return u, nil
}

func (s *Store) FindUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nombre, email, edad, rol FROM usuarios WHERE id = ?`, id).
		Scan(&u.ID, &u.Nombre, &u.Email, &u.Edad, &u.Rol)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("select usuario: %w", err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO usuarios (nombre, email, edad, rol) VALUES (?, ?, ?, ?)`,
		u.Nombre, u.Email, u.Edad, u.Rol)
	if err != nil {
		return model.User{}, fmt.Errorf("insert usuario: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("last insert id: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, u model.User) (model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE usuarios SET nombre = ?, email = ?, edad = ?, rol = ? WHERE id = ?`,
		u.Nombre, u.Email, u.Edad, u.Rol, id)
	if err != nil {
		return model.User{}, fmt.Errorf("update usuario: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.User{}, ErrNotFound
	}
	return u.WithID(id), nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM usuarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete usuario: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListSales(ctx context.Context) ([]model.Sale, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, usuario_id, producto_id, cantidad, total, fecha FROM ventas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select ventas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

func (s *Store) CreateSale(ctx context.Context, sale model.Sale) (model.Sale, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ventas (usuario_id, producto_id, cantidad, total, fecha) VALUES (?, ?, ?, ?, ?)`,
		sale.UsuarioID, sale.ProductoID, sale.Cantidad, sale.Total, sale.Fecha.Format(time.RFC3339))
	if err != nil {
		return model.Sale{}, fmt.Errorf("insert venta: %w", err)
	}
	sale.ID, err = res.LastInsertId()
	if err != nil {
		return model.Sale{}, fmt.Errorf("last insert id: %w", err)
	}
	return sale, nil
}

func (s *Store) UpdateSale(ctx context.Context, id int64, sale model.Sale) (model.Sale, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ventas SET usuario_id = ?, producto_id = ?, cantidad = ?, total = ?, fecha = ? WHERE id = ?`,
		sale.UsuarioID, sale.ProductoID, sale.Cantidad, sale.Total, sale.Fecha.Format(time.RFC3339), id)
	if err != nil {
		return model.Sale{}, fmt.Errorf("update venta: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Sale{}, ErrNotFound
	}
	return sale.WithID(id), nil
}

func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ventas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete venta: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSale(rows *sql.Rows) (model.Sale, error) {
	var sale model.Sale
	var fecha string
	if err := rows.Scan(&sale.ID, &sale.UsuarioID, &sale.ProductoID, &sale.Cantidad, &sale.Total, &fecha); err != nil {
		return model.Sale{}, fmt.Errorf("scan venta: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, fecha)
	if err != nil {
		return model.Sale{}, fmt.Errorf("parse fecha: %w", err)
	}
	sale.Fecha = parsed
	return sale, nil
}
