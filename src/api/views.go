package api

import (
	"net/http"
	"time"

	handlers "tracker/src/api/handlers"
	"tracker/src/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
}

func NewServer(handler *handlers.Handler, logger *logrus.Logger) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handler,
	}
	server.Router.Use(middleware.Recoverer)
	server.Router.Use(utils.RequestLogger(logger))
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Get("/", s.Handler.DashboardPage)
	s.Router.Get("/transactions", s.Handler.TransactionsPage)

	s.Router.Route("/api/trades", func(r chi.Router) {
		r.Post("/buy", s.Handler.Buy)
		r.Post("/sell", s.Handler.Sell)
	})

	s.Router.Route("/api/portfolio", func(r chi.Router) {
		r.Get("/", s.Handler.GetPositions)
		r.Get("/allocation", s.Handler.GetAllocation)
		r.Get("/allocation/chart", s.Handler.GetAllocationChart)
		r.Get("/report", s.Handler.GetPortfolioReport)
		r.Get("/{ticker}", s.Handler.GetPositionDetail)
		r.Get("/{ticker}/profit", s.Handler.GetProfit)
		r.Get("/{ticker}/history", s.Handler.GetTickerHistory)
	})

	s.Router.Get("/api/transactions", s.Handler.GetTransactions)

	s.Router.Route("/api/tickers", func(r chi.Router) {
		r.Get("/", s.Handler.GetTickers)
		r.Post("/", s.Handler.RegisterTickers)
		r.Get("/{ticker}", s.Handler.GetTicker)
		r.Delete("/{ticker}", s.Handler.DeleteTicker)
	})
}

func NewHTTPServer(server *Server, port string) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Handler:      server,
	}
	return httpServer
}
