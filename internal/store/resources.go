package store

import (
	"log/slog"

	"github.com/tiendactl/tiendactl/internal/api"
	"github.com/tiendactl/tiendactl/internal/model"
)

// The three resource stores are the same machine pointed at different
// collection endpoints.
type (
	ProductStore = Store[model.Product]
	UserStore    = Store[model.User]
	SaleStore    = Store[model.Sale]
)

// NewProductStore creates the store backing /productos.
func NewProductStore(client *api.Client, session SessionResetter, logger *slog.Logger) *ProductStore {
	return newStore[model.Product](client, session, "/productos", logger)
}

// NewUserStore creates the store backing /usuarios.
func NewUserStore(client *api.Client, session SessionResetter, logger *slog.Logger) *UserStore {
	return newStore[model.User](client, session, "/usuarios", logger)
}

// NewSaleStore creates the store backing /ventas.
func NewSaleStore(client *api.Client, session SessionResetter, logger *slog.Logger) *SaleStore {
	return newStore[model.Sale](client, session, "/ventas", logger)
}
