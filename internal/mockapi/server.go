// Package mockapi implements a local stand-in for the inventory/sales REST
// service, so the console can be developed and demonstrated offline. All
// resource endpoints speak the same {"data": ...} envelope as the real
// service and enforce the same role rules.
package mockapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tiendactl/tiendactl/internal/model"
)

// devPassword is accepted for every seeded account. The mock never holds
// real credentials.
const devPassword = "demo"

type ctxKey int

const userKey ctxKey = 0

// loginRequest is the login endpoint's payload.
type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Server holds the handlers and issued tokens of the mock service.
type Server struct {
	store    *Store
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics

	mu     sync.RWMutex
	tokens map[string]model.User
}

func NewServer(store *Store, logger *slog.Logger) *Server {
	return &Server{
		store:    store,
		validate: validator.New(),
		logger:   logger.With("component", "mockapi"),
		metrics:  newMetrics(),
		tokens:   make(map[string]model.User),
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.middleware)

	r.Post("/login", s.login)
	r.Get("/healthz", s.healthCheck)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/perfil", s.perfil)

		r.Route("/productos", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.With(s.requireAdmin).Post("/", s.createProduct)
			r.With(s.requireAdmin).Put("/{id}", s.updateProduct)
			r.With(s.requireAdmin).Delete("/{id}", s.deleteProduct)
		})
		r.Route("/usuarios", func(r chi.Router) {
			r.Get("/", s.listUsers)
			r.With(s.requireAdmin).Post("/", s.createUser)
			r.With(s.requireAdmin).Put("/{id}", s.updateUser)
			r.With(s.requireAdmin).Delete("/{id}", s.deleteUser)
		})
		r.Route("/ventas", func(r chi.Router) {
			r.Get("/", s.listSales)
			r.With(s.requireAdmin).Post("/", s.createSale)
			r.With(s.requireAdmin).Put("/{id}", s.updateSale)
			r.With(s.requireAdmin).Delete("/{id}", s.deleteSale)
		})
	})
	return r
}

// authMiddleware resolves the bearer token to a user. Unknown or missing
// tokens answer 401, which the console treats as session expiry.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, s.logger, http.StatusUnauthorized, "Falta el token de autenticación")
			return
		}
		s.mu.RLock()
		user, found := s.tokens[token]
		s.mu.RUnlock()
		if !found {
			respondError(w, s.logger, http.StatusUnauthorized, "Token inválido o expirado")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r.Context(), user)))
	})
}

// requireAdmin rejects mutations from non-admin accounts with 403.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userFromContext(r.Context())
		if user.Rol != model.RoleAdmin {
			respondError(w, s.logger, http.StatusForbidden, "Acción reservada a administradores")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	var creds loginRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, mLogger, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return
	}
	if err := s.validate.Struct(creds); err != nil {
		respondError(w, mLogger, http.StatusBadRequest, "Email y contraseña son requeridos")
		return
	}
	user, err := s.store.FindUserByEmail(r.Context(), creds.Email)
	if err != nil || creds.Password != devPassword {
		respondError(w, mLogger, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = user
	s.mu.Unlock()

	mLogger.InfoContext(r.Context(), "User logged in", "user", user.Email, "rol", user.Rol)
	respondData(w, mLogger, http.StatusOK, map[string]any{"token": token, "usuario": user})
}

func (s *Server) perfil(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())
	respondData(w, s.loggerWithReqID(r), http.StatusOK, user)
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	products, err := s.store.ListProducts(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing products", "error", err)
		respondError(w, mLogger, http.StatusInternalServerError, "No se pudieron obtener los productos")
		return
	}
	respondData(w, mLogger, http.StatusOK, products)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	var product model.Product
	if !s.decodeValid(w, r, mLogger, &product) {
		return
	}
	created, err := s.store.CreateProduct(r.Context(), product)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		respondError(w, mLogger, http.StatusInternalServerError, "No se pudo crear el producto")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created", "id", created.ID)
	respondData(w, mLogger, http.StatusCreated, created)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	var product model.Product
	if !s.decodeValid(w, r, mLogger, &product) {
		return
	}
	updated, err := s.store.UpdateProduct(r.Context(), id, product)
	if err != nil {
		s.respondStoreError(w, r, mLogger, err, "No se pudo actualizar el producto")
		return
	}
	respondData(w, mLogger, http.StatusOK, updated)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		s.respondStoreError(w, r, mLogger, err, "No se pudo eliminar el producto")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing users", "error", err)
		respondError(w, mLogger, http.StatusInternalServerError, "No se pudieron obtener los usuarios")
		return
	}
	respondData(w, mLogger, http.StatusOK, users)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	var user model.User
	if !s.decodeValid(w, r, mLogger, &user) {
		return
	}
	created, err := s.store.CreateUser(r.Context(), user)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating user", "error", err)
		respondError(w, mLogger, http.StatusConflict, "No se pudo crear el usuario (¿email duplicado?)")
		return
	}
	respondData(w, mLogger, http.StatusCreated, created)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	var user model.User
	if !s.decodeValid(w, r, mLogger, &user) {
		return
	}
	updated, err := s.store.UpdateUser(r.Context(), id, user)
	if err != nil {
		s.respondStoreError(w, r, mLogger, err, "No se pudo actualizar el usuario")
		return
	}
	respondData(w, mLogger, http.StatusOK, updated)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		s.respondStoreError(w, r, mLogger, err, "No se pudo eliminar el usuario")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	sales, err := s.store.ListSales(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing sales", "error", err)
		respondError(w, mLogger, http.StatusInternalServerError, "No se pudieron obtener las ventas")
		return
	}
	respondData(w, mLogger, http.StatusOK, sales)
}

func (s *Server) createSale(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	var sale model.Sale
	if !s.decodeValid(w, r, mLogger, &sale) {
		return
	}
	created, err := s.store.CreateSale(r.Context(), sale)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating sale", "error", err)
		respondError(w, mLogger, http.StatusInternalServerError, "No se pudo crear la venta")
		return
	}
	respondData(w, mLogger, http.StatusCreated, created)
}

func (s *Server) updateSale(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	var sale model.Sale
	if !s.decodeValid(w, r, mLogger, &sale) {
		return
	}
	updated, err := s.store.UpdateSale(r.Context(), id, sale)
	if err != nil {
		s.respondStoreError(w, r, mLogger, err, "No se pudo actualizar la venta")
		return
	}
	respondData(w, mLogger, http.StatusOK, updated)
}

func (s *Server) deleteSale(w http.ResponseWriter, r *http.Request) {
	mLogger := s.loggerWithReqID(r)
	id, ok := parseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := s.store.DeleteSale(r.Context(), id); err != nil {
		s.respondStoreError(w, r, mLogger, err, "No se pudo eliminar la venta")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeValid decodes the request body and validates it, answering 400 with
// a field error map on validation failure.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		respondError(w, mLogger, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			respondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		respondError(w, mLogger, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return false
	}
	return true
}

func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, fallback string) {
	if errors.Is(err, ErrNotFound) {
		respondError(w, mLogger, http.StatusNotFound, "Registro no encontrado")
		return
	}
	mLogger.ErrorContext(r.Context(), "Store operation failed", "error", err)
	respondError(w, mLogger, http.StatusInternalServerError, fallback)
}

func parseID(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, mLogger, http.StatusBadRequest, "Identificador inválido: "+raw)
		return 0, false
	}
	return id, true
}

// loggerWithReqID creates a logger with the request ID from the context.
func (s *Server) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return s.logger.With("request_id", reqID)
}
