// Package httpapi — REST-поверхность сервиса: приём заказов, статусы
// очереди, health и метрики.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/adapter/chat"
	"github.com/example/island-order-service/internal/adapter/events"
	"github.com/example/island-order-service/internal/adapter/wsapi"
	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/items"
	"github.com/example/island-order-service/internal/sprites"
	"github.com/example/island-order-service/internal/usecase"
)

// Deps — зависимости HTTP-сервера. Hub и Messenger опциональны: без
// хаба нет /ws, без мессенджера — чат-уведомлений.
type Deps struct {
	Place    usecase.PlaceOrder
	Position usecase.GetPosition
	Summary  usecase.QueueSummary
	Clear    usecase.ClearQueue

	Sinks     []domain.EventSink
	Hub       *wsapi.Hub
	Messenger domain.Messenger
	Sprites   *sprites.Composer

	IslandName string
	AdminToken string
	Log        *zap.Logger
}

type Server struct {
	Router *mux.Router
	deps   Deps
}

func NewServer(deps Deps) *Server {
	s := &Server{Router: mux.NewRouter(), deps: deps}
	s.Router.HandleFunc("/api/order", s.handlePlace).Methods(http.MethodPost)
	s.Router.HandleFunc("/api/queue/position/{userKey}", s.handlePosition).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/queue", s.handleSummary).Methods(http.MethodGet)
	s.Router.HandleFunc("/api/queue", s.handleClear).Methods(http.MethodDelete)
	s.Router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.Router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if deps.Hub != nil {
		s.Router.HandleFunc("/ws", deps.Hub.ServeWS)
	}
	return s
}

type placeOrderRequest struct {
	UserKey  string                  `json:"user_key"`
	UserName string                  `json:"user_name"`
	Items    string                  `json:"items"`
	Villager *domain.VillagerRequest `json:"villager,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	bundle, err := items.Parse(req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	// событийный канал получает все переходы; чат — только при
	// настроенном мессенджере
	notifiers := usecase.MultiNotifier{events.NewNotifier(s.deps.Sinks, s.deps.Log)}
	var chatN *chat.Notifier
	if s.deps.Messenger != nil {
		chatN = &chat.Notifier{
			Messenger: s.deps.Messenger,
			Island:    s.deps.IslandName,
			ItemList:  bundle.Describe(),
			Image:     s.deps.Sprites.ComposeGrid(bundle),
			Log:       s.deps.Log,
		}
		notifiers = append(notifiers, chatN)
	}

	res, fail, err := s.deps.Place.Execute(r.Context(), usecase.PlaceOrderRequest{
		UserKey:     req.UserKey,
		DisplayName: req.UserName,
		Payload:     bundle,
		Villager:    req.Villager,
		Notifier:    notifiers,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not deliver the confirmation message"})
		return
	}
	if fail != nil {
		writeJSON(w, http.StatusConflict, fail)
		return
	}

	if chatN != nil {
		// карточка в чат уходит уже после ответа клиенту
		go chatN.AnnounceAdmitted(res, s.deps.Place.Queue.ShowIDs())
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	userKey := mux.Vars(r)["userKey"]
	info, ok := s.deps.Position.Execute(userKey)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no live order for this user"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Summary.Execute())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if s.deps.AdminToken == "" {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin operations are disabled"})
		return
	}
	if r.Header.Get("X-Admin-Token") != s.deps.AdminToken {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid admin token"})
		return
	}
	s.deps.Clear.Execute()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
