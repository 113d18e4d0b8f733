package control

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/dispatchsim/dispatchsim/sim"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AutoPlayRequest is the body of POST /api/v1/autoplay.
type AutoPlayRequest struct {
	Interval string `json:"interval"`
}

// AutoPlayStatus reports the auto-player state.
type AutoPlayStatus struct {
	Running  bool   `json:"running"`
	Interval string `json:"interval,omitempty"`
}

// Server exposes a Controller over HTTP.
type Server struct {
	ctrl *Controller
	auto *AutoPlayer
	echo *echo.Echo
}

// NewServer builds the echo instance and registers every route under /api/v1.
func NewServer(ctrl *Controller, auto *AutoPlayer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{ctrl: ctrl, auto: auto, echo: e}
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	api.GET("/health", s.Health)
	api.GET("/state", s.GetState)
	api.GET("/orders", s.GetOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders", s.CreateOrder)
	api.DELETE("/orders/:id", s.CancelOrder)
	api.GET("/vehicles", s.GetVehicles)
	api.GET("/warehouses", s.GetWarehouses)
	api.GET("/events", s.GetEvents)
	api.POST("/step", s.Step)
	api.GET("/autoplay", s.GetAutoPlay)
	api.POST("/autoplay", s.StartAutoPlay)
	api.DELETE("/autoplay", s.StopAutoPlay)
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Close is called.
func (s *Server) Start(addr string) error {
	logrus.Infof("control server listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops auto-play and the listener.
func (s *Server) Close() error {
	s.auto.Stop()
	return s.echo.Close()
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, ErrorResponse{Code: code, Message: msg})
}

func orderID(c echo.Context) (sim.OrderID, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return sim.OrderID(id), nil
}

// Health handles GET /health.
func (s *Server) Health(c echo.Context) error {
	return c.String(http.StatusOK, "Healthy")
}

// GetState handles GET /api/v1/state.
func (s *Server) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ctrl.State())
}

// GetOrders handles GET /api/v1/orders.
func (s *Server) GetOrders(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ctrl.Orders())
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid order id")
	}
	o, ok := s.ctrl.Order(id)
	if !ok {
		return fail(c, http.StatusNotFound, "Order not found")
	}
	return c.JSON(http.StatusOK, o)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var req sim.OrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := s.ctrl.AddOrder(req); err != nil {
		if errors.Is(err, sim.ErrDuplicateOrder) {
			return fail(c, http.StatusConflict, err.Error())
		}
		return fail(c, http.StatusBadRequest, err.Error())
	}
	o, _ := s.ctrl.Order(req.ID)
	return c.JSON(http.StatusCreated, o)
}

// CancelOrder handles DELETE /api/v1/orders/:id. Only waiting orders can be canceled.
func (s *Server) CancelOrder(c echo.Context) error {
	id, err := orderID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid order id")
	}
	if !s.ctrl.CancelOrder(id) {
		if _, ok := s.ctrl.Order(id); !ok {
			return fail(c, http.StatusNotFound, "Order not found")
		}
		return fail(c, http.StatusConflict, "Order is not waiting")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetVehicles handles GET /api/v1/vehicles.
func (s *Server) GetVehicles(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ctrl.Vehicles())
}

// GetWarehouses handles GET /api/v1/warehouses.
func (s *Server) GetWarehouses(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ctrl.Warehouses())
}

// GetEvents handles GET /api/v1/events.
func (s *Server) GetEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ctrl.Events())
}

// Step handles POST /api/v1/step.
func (s *Server) Step(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ctrl.Step())
}

func (s *Server) GetAutoPlay(c echo.Context) error {
	return c.JSON(http.StatusOK, s.autoPlayStatus())
}

// StartAutoPlay handles POST /api/v1/autoplay with {"interval":"1s"}.
func (s *Server) StartAutoPlay(c echo.Context) error {
	var req AutoPlayRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	interval, err := time.ParseDuration(req.Interval)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid interval: "+err.Error())
	}
	if err := s.auto.Start(interval); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, s.autoPlayStatus())
}

// StopAutoPlay handles DELETE /api/v1/autoplay.
func (s *Server) StopAutoPlay(c echo.Context) error {
	s.auto.Stop()
	return c.JSON(http.StatusOK, s.autoPlayStatus())
}

func (s *Server) autoPlayStatus() AutoPlayStatus {
	running, interval := s.auto.Running()
	st := AutoPlayStatus{Running: running}
	if running {
		st.Interval = interval.String()
	}
	return st
}
