package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
	httpinfra "autostream-dashboard/internal/infra/http"
	"autostream-dashboard/internal/usecase/botconfig"
	"autostream-dashboard/internal/usecase/queue"
)

// QueueService описывает операции над очередью задач.
type QueueService interface {
	Items(query string) []domain.ContentItem
	Select(id string) (domain.ContentItem, error)
	CreateItem(ctx context.Context, topic, nicheKey string) (domain.ContentItem, error)
	UpdateItem(ctx context.Context, id string, patch domain.ItemPatch) (domain.ContentItem, error)
	DeleteItem(ctx context.Context, id string, confirmed bool) error
	StartAutomation(ctx context.Context, id string) (domain.ContentItem, error)
	RestartAutomation(ctx context.Context, id string) (domain.ContentItem, error)
}

// ScheduleService строит ленту и список активных ботов.
type ScheduleService interface {
	Timeline(ctx context.Context, query string) []domain.TimelineEntry
	Bots(ctx context.Context) ([]domain.NicheProfile, error)
}

// BotConfigService управляет настройками ниш.
type BotConfigService interface {
	Load(ctx context.Context, nicheID string) (botconfig.Config, error)
	Save(ctx context.Context, nicheID string, settings botconfig.Settings) error
	Connections(ctx context.Context) (map[domain.Platform]string, error)
	AuthURL(platform domain.Platform) (string, error)
}

// Analytics отдаёт сводку аналитики воркера.
type Analytics interface {
	AnalyticsSummary(ctx context.Context, tf domain.TimeFrame) (domain.AnalyticsSummary, error)
}

// HealthState сообщает доступность воркера.
type HealthState interface {
	Online() bool
}

// LogSource отдаёт операционный журнал.
type LogSource interface {
	Entries() []domain.LogEntry
}

// Sessions выдаёт токены и защищает маршруты.
type Sessions interface {
	Login(password string) (httpinfra.Session, error)
	Middleware(next http.Handler) http.Handler
}

// Deps собирает зависимости API.
type Deps struct {
	Queue     QueueService
	Schedule  ScheduleService
	BotConfig BotConfigService
	Analytics Analytics
	Health    HealthState
	Logs      LogSource
	Sessions  Sessions
}

// Handler обслуживает JSON API дашборда.
type Handler struct {
	deps Deps
	log  zerolog.Logger
}

// NewHandler создаёт обработчик.
func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	return &Handler{deps: deps, log: logger}
}

// Mount регистрирует маршруты под /api/v1.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/session", h.login)

		api.Group(func(protected chi.Router) {
			protected.Use(h.deps.Sessions.Middleware)

			protected.Get("/items", h.listItems)
			protected.Post("/items", h.createItem)
			protected.Get("/items/{id}", h.getItem)
			protected.Patch("/items/{id}", h.updateItem)
			protected.Delete("/items/{id}", h.deleteItem)
			protected.Post("/items/{id}/start", h.startItem)
			protected.Post("/items/{id}/restart", h.restartItem)

			protected.Get("/schedule", h.schedule)
			protected.Get("/bots", h.bots)

			protected.Get("/niches/{id}", h.getNiche)
			protected.Put("/niches/{id}/config", h.saveNiche)
			protected.Get("/connections", h.connections)
			protected.Get("/auth/{platform}", h.authURL)

			protected.Get("/analytics", h.analytics)
			protected.Get("/logs", h.logs)
			protected.Get("/worker/health", h.workerHealth)
		})
	})
}

// itemView дополняет задачу отображаемым статусом и доступным действием.
type itemView struct {
	domain.ContentItem
	DisplayStatus domain.ContentStatus `json:"display_status"`
	StatusLabel   string               `json:"status_label"`
	Action        string               `json:"action,omitempty"`
}

func viewOf(item domain.ContentItem) itemView {
	return itemView{
		ContentItem:   item,
		DisplayStatus: domain.DisplayStatus(string(item.Status)),
		StatusLabel:   item.Status.Label(),
		Action:        domain.UserAction(item.Status),
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := h.deps.Sessions.Login(req.Password)
	if err != nil {
		httpinfra.WriteError(w, http.StatusUnauthorized, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, sess)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items := h.deps.Queue.Items(r.URL.Query().Get("q"))
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, viewOf(it))
	}
	httpinfra.WriteJSON(w, http.StatusOK, out)
}

type createItemRequest struct {
	Topic string `json:"topic"`
	Niche string `json:"niche"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.deps.Queue.CreateItem(r.Context(), req.Topic, req.Niche)
	if err != nil {
		h.fail(w, r, "create item", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, viewOf(item))
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.deps.Queue.Select(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "select item", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, viewOf(item))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var patch domain.ItemPatch
	if !decode(w, r, &patch) {
		return
	}
	item, err := h.deps.Queue.UpdateItem(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, "update item", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, viewOf(item))
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.deps.Queue.DeleteItem(r.Context(), chi.URLParam(r, "id"), confirmed); err != nil {
		h.fail(w, r, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.deps.Queue.StartAutomation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "start automation", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, viewOf(item))
}

func (h *Handler) restartItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.deps.Queue.RestartAutomation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "restart automation", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, viewOf(item))
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, h.deps.Schedule.Timeline(r.Context(), r.URL.Query().Get("q")))
}

func (h *Handler) bots(w http.ResponseWriter, r *http.Request) {
	bots, err := h.deps.Schedule.Bots(r.Context())
	if err != nil {
		h.fail(w, r, "list bots", err)
		return
	}
	if bots == nil {
		bots = []domain.NicheProfile{}
	}
	httpinfra.WriteJSON(w, http.StatusOK, bots)
}

func (h *Handler) getNiche(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.deps.BotConfig.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "load niche", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) saveNiche(w http.ResponseWriter, r *http.Request) {
	var settings botconfig.Settings
	if !decode(w, r, &settings) {
		return
	}
	if err := h.deps.BotConfig.Save(r.Context(), chi.URLParam(r, "id"), settings); err != nil {
		h.fail(w, r, "save niche", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) connections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.deps.BotConfig.Connections(r.Context())
	if err != nil {
		h.fail(w, r, "list connections", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, conns)
}

func (h *Handler) authURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.deps.BotConfig.AuthURL(domain.Platform(chi.URLParam(r, "platform")))
	if err != nil {
		h.fail(w, r, "auth url", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	tf, err := domain.ParseTimeFrame(r.URL.Query().Get("time_frame"))
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	summary, err := h.deps.Analytics.AnalyticsSummary(r.Context(), tf)
	if err != nil {
		h.fail(w, r, "analytics", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, h.deps.Logs.Entries())
}

func (h *Handler) workerHealth(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, map[string]bool{"online": h.deps.Health.Online()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

// fail логирует ошибку операции и отвечает статусом, соответствующим её виду.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	ev := h.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Err(err).Str("op", op).Str("request_id", httpinfra.RequestID(r)).Msg("api: request failed")
	httpinfra.WriteError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, queue.ErrEmptyTopic),
		errors.Is(err, queue.ErrDeleteNotConfirmed),
		errors.Is(err, botconfig.ErrInvalidVideosPerDay),
		errors.Is(err, botconfig.ErrInvalidPlatform):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrNicheNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
