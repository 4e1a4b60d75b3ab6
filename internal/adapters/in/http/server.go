package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// OperatorHeader identifies the staff member acting on an order.
const OperatorHeader = "X-Operator-ID"

// Coordinator is the fulfillment entry point the API drives.
type Coordinator interface {
	Claim(ctx context.Context, orderID, operatorID string) (*order.Order, error)
	ReadyToShip(ctx context.Context, orderID, operatorID string) (*order.Order, error)
	Cancel(ctx context.Context, orderID, operatorID string) (*order.Order, error)
	ConfirmDelivery(ctx context.Context, orderID string) (*order.Order, error)
}

// Queries groups the read side handlers.
type Queries struct {
	List     queries.ListOrdersQueryHandler
	Stats    queries.GetOrderStatsQueryHandler
	Get      queries.GetOrderQueryHandler
	Attempts queries.GetFulfillmentAttemptsQueryHandler
}

// Server handles the HTTP API. It translates requests into coordinator calls,
// commands and queries and maps failures to status codes.
type Server struct {
	coordinator Coordinator
	createOrder commands.CreateOrderCommandHandler
	queries     Queries
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewServer(
	coordinator Coordinator,
	createOrder commands.CreateOrderCommandHandler,
	q Queries,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		coordinator: coordinator,
		createOrder: createOrder,
		queries:     q,
		metrics:     m,
		logger:      logger.With("component", "http_server"),
	}
}

// Echo builds the router with middleware and all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(Tracing())
	e.Use(RequestLogger(s.logger))

	s.Register(e)
	return e
}

// Register attaches the routes to e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	api := e.Group("/api/v1")
	api.GET("/orders", s.ListOrders)
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/stats", s.GetStats)
	api.GET("/orders/:id", s.GetOrder)
	api.GET("/orders/:id/attempts", s.GetAttempts)
	api.POST("/orders/:id/claim", s.Claim)
	api.POST("/orders/:id/ready-to-ship", s.ReadyToShip)
	api.POST("/orders/:id/cancel", s.Cancel)
	api.POST("/orders/:id/deliver", s.ConfirmDelivery)
}

// ListOrders handles GET /api/v1/orders?filter=&search=.
func (s *Server) ListOrders(c echo.Context) error {
	query, err := queries.NewListOrdersQuery(c.QueryParam("filter"), c.QueryParam("search"))
	if err != nil {
		return s.writeError(c, err)
	}

	orders, err := s.queries.List.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrders(orders))
}

// GetStats handles GET /api/v1/orders/stats.
func (s *Server) GetStats(c echo.Context) error {
	stats, err := s.queries.Stats.Handle(c.Request().Context(), queries.NewGetOrderStatsQuery())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toStats(stats))
}

// GetOrder handles GET /api/v1/orders/:id. The allowed intents are computed
// for the operator named in X-Operator-ID.
func (s *Server) GetOrder(c echo.Context) error {
	query, err := queries.NewGetOrderQuery(c.Param("id"), operatorFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}

	resp, err := s.queries.Get.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderDetail(resp))
}

// GetAttempts handles GET /api/v1/orders/:id/attempts.
func (s *Server) GetAttempts(c echo.Context) error {
	query, err := queries.NewGetFulfillmentAttemptsQuery(c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	attempts, err := s.queries.Attempts.Handle(c.Request().Context(), query)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAttempts(attempts))
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var body NewOrder
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cmd, err := newCreateOrderCommand(body)
	if err != nil {
		return s.writeError(c, err)
	}

	created, err := s.createOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrder(created))
}

// Claim handles POST /api/v1/orders/:id/claim.
func (s *Server) Claim(c echo.Context) error {
	return s.transition(c, s.coordinator.Claim)
}

// ReadyToShip handles POST /api/v1/orders/:id/ready-to-ship.
func (s *Server) ReadyToShip(c echo.Context) error {
	return s.transition(c, s.coordinator.ReadyToShip)
}

// Cancel handles POST /api/v1/orders/:id/cancel.
func (s *Server) Cancel(c echo.Context) error {
	return s.transition(c, s.coordinator.Cancel)
}

// ConfirmDelivery handles POST /api/v1/orders/:id/deliver.
func (s *Server) ConfirmDelivery(c echo.Context) error {
	o, err := s.coordinator.ConfirmDelivery(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrder(o))
}

type transitionFunc func(ctx context.Context, orderID, operatorID string) (*order.Order, error)

func (s *Server) transition(c echo.Context, do transitionFunc) error {
	o, err := do(c.Request().Context(), c.Param("id"), operatorFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrder(o))
}

func newCreateOrderCommand(body NewOrder) (commands.CreateOrderCommand, error) {
	customer, err := kernel.NewCustomer(body.Customer.Name, body.Customer.Email, body.Customer.Phone, body.Customer.Address)
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}

	var errList []error
	items := make([]order.Item, 0, len(body.Items))
	for i, in := range body.Items {
		price, err := kernel.MoneyFromString(in.Price)
		if err != nil {
			errList = append(errList, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		item, err := order.NewItem(in.Name, in.Quantity, price)
		if err != nil {
			errList = append(errList, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	if err := errors.Join(errList...); err != nil {
		return commands.CreateOrderCommand{}, err
	}

	return commands.NewCreateOrderCommand(body.ID, customer, items, body.PaymentMethod, body.ShippingMethod, time.Time{})
}
