package handler

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/siempreabierto/internal/domain"
	"github.com/siempreabierto/internal/metrics"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/geo"
	"github.com/siempreabierto/internal/pkg/utils"
	"github.com/siempreabierto/internal/usecase"
	"github.com/siempreabierto/internal/usecase/dto"
	"go.uber.org/zap"
)

const (
	liveRequestKey = "live_request"
	liveWriteWait  = 10 * time.Second
)

// LiveFrame - сообщение живой подписки
type LiveFrame struct {
	Type  string           `json:"type"`
	Data  interface{}      `json:"data,omitempty"`
	Total int              `json:"total"`
	At    time.Time        `json:"at"`
	Error *errors.AppError `json:"error,omitempty"`
}

type historyRequest struct {
	target domain.Target
	field  string
	limit  int
}

// LiveHandler - websocket подписки на результаты запросов.
// Каждое изменение таблиц отправляет клиенту актуальный снимок результата.
type LiveHandler struct {
	placeUC        *usecase.PlaceUseCase
	restrictionUC  *usecase.RestrictionUseCase
	contributionUC *usecase.ContributionUseCase
	logger         *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewLiveHandler создает новый экземпляр LiveHandler
func NewLiveHandler(
	placeUC *usecase.PlaceUseCase,
	restrictionUC *usecase.RestrictionUseCase,
	contributionUC *usecase.ContributionUseCase,
	logger *zap.Logger,
) *LiveHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &LiveHandler{
		placeUC:        placeUC,
		restrictionUC:  restrictionUC,
		contributionUC: contributionUC,
		logger:         logger.With(zap.String("component", "live")),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Close завершает все открытые подписки
func (h *LiveHandler) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()
}

func (h *LiveHandler) acquire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	return true
}

// Upgrade пропускает только websocket handshake
func (h *LiveHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ParseNearbyPlaces валидирует параметры до upgrade, чтобы ошибка ушла обычным HTTP ответом
func (h *LiveHandler) ParseNearbyPlaces(c *fiber.Ctx) error {
	var req dto.NearbyPlacesRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	c.Locals(liveRequestKey, req)
	return c.Next()
}

// ParseSearchPlaces - параметры текстового поиска мест
func (h *LiveHandler) ParseSearchPlaces(c *fiber.Ctx) error {
	var req dto.SearchPlacesRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	c.Locals(liveRequestKey, req)
	return c.Next()
}

// ParseNearbyRestrictions - параметры поиска ограничений рядом
func (h *LiveHandler) ParseNearbyRestrictions(c *fiber.Ctx) error {
	var req dto.NearbyRestrictionsRequest
	if err := parseQuery(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	c.Locals(liveRequestKey, req)
	return c.Next()
}

// ParseHistory - цель истории из пути
func (h *LiveHandler) ParseHistory(c *fiber.Ctx) error {
	target, err := parseTarget(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	c.Locals(liveRequestKey, historyRequest{
		target: target,
		field:  fiberutils.CopyString(c.Query("field")),
		limit:  queryLimit(c),
	})
	return c.Next()
}

// PlacesNearby godoc
// @Summary Live places near a point (websocket)
// @Tags Live
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param category query string false "Category code"
// @Success 101 {object} LiveFrame
// @Failure 426 {object} utils.ErrorResponse
// @Router /api/v1/ws/places/nearby [get]
func (h *LiveHandler) PlacesNearby(conn *websocket.Conn) {
	req, _ := conn.Locals(liveRequestKey).(dto.NearbyPlacesRequest)
	stream(h, conn, "places_nearby",
		func(ctx context.Context) (<-chan []geo.WithDistance[domain.Place], error) {
			return h.placeUC.SubscribeNearby(ctx, req)
		},
		func(p geo.WithDistance[domain.Place]) dto.PlaceResult {
			d := p.DistanceKm
			return dto.NewPlaceResult(p.Item, &d)
		})
}

// PlacesSearch godoc
// @Summary Live text search over places (websocket)
// @Tags Live
// @Param q query string true "Text to search"
// @Param category query string false "Category code"
// @Success 101 {object} LiveFrame
// @Failure 426 {object} utils.ErrorResponse
// @Router /api/v1/ws/places/search [get]
func (h *LiveHandler) PlacesSearch(conn *websocket.Conn) {
	req, _ := conn.Locals(liveRequestKey).(dto.SearchPlacesRequest)
	stream(h, conn, "places_search",
		func(ctx context.Context) (<-chan []domain.Place, error) {
			return h.placeUC.SubscribeSearch(ctx, req), nil
		},
		func(p domain.Place) dto.PlaceResult {
			return dto.NewPlaceResult(p, nil)
		})
}

// RestrictionsNearby godoc
// @Summary Live restrictions near a point (websocket)
// @Tags Live
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param type query string false "Restriction type"
// @Success 101 {object} LiveFrame
// @Failure 426 {object} utils.ErrorResponse
// @Router /api/v1/ws/restrictions/nearby [get]
func (h *LiveHandler) RestrictionsNearby(conn *websocket.Conn) {
	req, _ := conn.Locals(liveRequestKey).(dto.NearbyRestrictionsRequest)
	stream(h, conn, "restrictions_nearby",
		func(ctx context.Context) (<-chan []geo.WithDistance[domain.Restriction], error) {
			return h.restrictionUC.SubscribeNearby(ctx, req)
		},
		func(r geo.WithDistance[domain.Restriction]) dto.RestrictionResult {
			d := r.DistanceKm
			return dto.NewRestrictionResult(r.Item, &d)
		})
}

// History godoc
// @Summary Live change history of a record (websocket)
// @Tags Live
// @Param type path string true "Target type" Enums(place, restriction, route, helper)
// @Param id path int true "Target ID"
// @Param field query string false "Field name"
// @Param limit query int false "Max results"
// @Success 101 {object} LiveFrame
// @Failure 426 {object} utils.ErrorResponse
// @Router /api/v1/ws/history/{type}/{id} [get]
func (h *LiveHandler) History(conn *websocket.Conn) {
	req, _ := conn.Locals(liveRequestKey).(historyRequest)
	stream(h, conn, "history",
		func(ctx context.Context) (<-chan []domain.Contribution, error) {
			return h.contributionUC.SubscribeHistory(ctx, req.target, req.field, req.limit)
		},
		func(c domain.Contribution) domain.Contribution { return c })
}

// stream пересылает снимки подписки в websocket до закрытия соединения
// или остановки сервера
func stream[T, U any](
	h *LiveHandler,
	conn *websocket.Conn,
	name string,
	subscribe func(ctx context.Context) (<-chan []T, error),
	convert func(T) U,
) {
	if !h.acquire() {
		return
	}
	defer h.wg.Done()

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	logger := h.logger.With(zap.String("stream", name))
	metrics.LiveSubscriptions.Inc()
	defer metrics.LiveSubscriptions.Dec()

	updates, err := subscribe(ctx)
	if err != nil {
		_ = writeFrame(conn, errorFrame(err))
		return
	}

	// клиент ничего не присылает; чтение нужно только чтобы заметить закрытие
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger.Debug("Live subscription opened")
	defer logger.Debug("Live subscription closed")

	for {
		select {
		case <-ctx.Done():
			return
		case items, ok := <-updates:
			if !ok {
				return
			}
			data := make([]U, 0, len(items))
			for _, it := range items {
				data = append(data, convert(it))
			}
			frame := LiveFrame{
				Type:  "snapshot",
				Data:  data,
				Total: len(data),
				At:    time.Now().UTC(),
			}
			if err := writeFrame(conn, frame); err != nil {
				logger.Debug("Live write failed", zap.Error(err))
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame LiveFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(liveWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

func errorFrame(err error) LiveFrame {
	appErr := errors.ErrInternalServer
	var e *errors.AppError
	if stderrors.As(err, &e) {
		appErr = e
	}
	return LiveFrame{
		Type:  "error",
		At:    time.Now().UTC(),
		Error: appErr,
	}
}
