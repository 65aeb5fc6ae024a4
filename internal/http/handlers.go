package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/access-rides/internal/chat"
	"github.com/example/access-rides/internal/config"
	"github.com/example/access-rides/internal/dispatch"
	"github.com/example/access-rides/internal/eta"
	"github.com/example/access-rides/internal/geo"
	"github.com/example/access-rides/internal/ingest"
	"github.com/example/access-rides/internal/lifecycle"
	"github.com/example/access-rides/internal/match"
	"github.com/example/access-rides/internal/models"
	"github.com/example/access-rides/internal/payments"
	"github.com/example/access-rides/internal/rating"
	"github.com/example/access-rides/internal/registry"
	"github.com/example/access-rides/internal/store"
)

type Server struct {
	cfg    config.ServerConfig
	logger *slog.Logger

	Registry  *registry.Registry
	Store     store.RideStore
	GeoSearch *geo.Search
	RedisGeo  *geo.RedisIndex // optional location mirror
	Lifecycle *lifecycle.Service
	Ratings   *rating.Aggregator
	Chat      *chat.Ledger
	WSReg     *dispatch.WSRegistry

	mux *mux.Router
}

// NewServer wires the full service graph from config. Redis, Kafka, Stripe,
// OSRM, and push delivery are all optional; the core runs on the in-memory
// registry and ride store when nothing else is configured.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) *Server {
	reg := registry.New()
	if cfg.SeedDrivers {
		registry.Seed(reg)
	}

	var rideStore store.RideStore
	if cfg.PGDSN != "" {
		if ps, err := store.NewPostgresStore(cfg.PGDSN); err == nil {
			rideStore = ps
		} else {
			logger.Warn("postgres unavailable, using memory store", "error", err)
		}
	}
	if rideStore == nil {
		rideStore = store.NewMemoryStore()
	}

	var redisGeo *geo.RedisIndex
	if cfg.RedisAddr != "" {
		redisGeo = geo.NewRedisIndex(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	}

	var producer lifecycle.LocationPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer = ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	wsreg := dispatch.NewWSRegistry(logger)
	var disp dispatch.Dispatcher = wsreg
	if cfg.FCMEndpoint != "" {
		disp = dispatch.NewFCMDispatcher(cfg.FCMEndpoint, cfg.FCMKey)
	} else if cfg.PushEndpoint != "" {
		disp = dispatch.NewPushDispatcher(cfg.PushEndpoint, wsreg)
	}

	var payClient payments.Client
	if cfg.StripeAPIKey != "" {
		payClient = payments.NewStripeClient(cfg.StripeAPIKey)
	}

	engine := &match.Engine{
		Drivers:         reg,
		Policy:          cfg.MatchPolicy,
		DefaultSpeedMps: cfg.DefaultSpeedMps,
	}
	if cfg.OSRMEndpoint != "" {
		engine.ETAClient = eta.NewOSRMClient(cfg.OSRMEndpoint)
		engine.ETACache = eta.NewCache(cfg.ArrivalLeadTime)
	}

	lc := &lifecycle.Service{
		Store:           rideStore,
		Drivers:         reg,
		Matcher:         engine,
		Dispatch:        disp,
		Payments:        payClient,
		Producer:        producer,
		Logger:          logger,
		ArrivalLeadTime: cfg.ArrivalLeadTime,
		FareCurrency:    cfg.FareCurrency,
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		Registry:  reg,
		Store:     rideStore,
		GeoSearch: geo.NewSearch(reg),
		RedisGeo:  redisGeo,
		Lifecycle: lc,
		Ratings:   &rating.Aggregator{Store: rideStore, Drivers: reg, Logger: logger},
		Chat:      chat.NewLedger(rideStore),
		WSReg:     wsreg,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/rides", s.handleBookRide).Methods("POST")
	api.HandleFunc("/rides/{ride_id}", s.handleGetRide).Methods("GET")
	api.HandleFunc("/rides/{ride_id}/status", s.handleUpdateStatus).Methods("PATCH")
	api.HandleFunc("/rides/{ride_id}/cancel", s.handleCancelRide).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/rating", s.handleRateRide).Methods("POST")
	api.HandleFunc("/drivers/nearby", s.handleNearbyDrivers).Methods("GET")

	api.HandleFunc("/rides/{ride_id}/messages", s.handlePostMessage).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/messages", s.handleListMessages).Methods("GET")
	api.HandleFunc("/rides/{ride_id}/messages/read", s.handleMarkRead).Methods("POST")
	api.HandleFunc("/chat/unread", s.handleUnreadCount).Methods("GET")
	api.HandleFunc("/chat/stats", s.handleChatStats).Methods("GET")
	api.HandleFunc("/messages/{message_id}", s.handleDeleteMessage).Methods("DELETE")

	s.mux.HandleFunc("/internal/driver/locations", s.handleDriverLocation).Methods("POST")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/drivers/{driver_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleBookRide(w http.ResponseWriter, r *http.Request) {
	var req models.RideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ride, driver, err := s.Lifecycle.Create(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"ride":   ride,
		"driver": driver.PublicView(),
	})
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	ride, err := s.Store.GetRide(mux.Vars(r)["ride_id"])
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := map[string]any{"ride": ride}
	if ride.DriverID != "" {
		if d, err := s.Registry.FindByID(ride.DriverID); err == nil {
			resp["driver"] = d.PublicView()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status   models.RideStatus `json:"status"`
		Location *models.Coord     `json:"location,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ride, err := s.Lifecycle.UpdateStatus(r.Context(), mux.Vars(r)["ride_id"], body.Status, body.Location)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ride": ride})
}

func (s *Server) handleCancelRide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ride, err := s.Lifecycle.Cancel(r.Context(), mux.Vars(r)["ride_id"], body.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ride": ride})
}

func (s *Server) handleRateRide(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := s.Ratings.Rate(mux.Vars(r)["ride_id"], body.Rating, body.Feedback)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ride":          res.Ride,
		"driver_rating": res.DriverRating,
	})
}

func (s *Server) handleNearbyDrivers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, http.StatusBadRequest, "lat and lng query parameters are required")
		return
	}
	radius := s.cfg.NearbyRadiusMeters
	if v := q.Get("radius"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			writeError(w, http.StatusBadRequest, "invalid radius")
			return
		}
		radius = f
	}
	results := s.GeoSearch.Nearby(models.Coord{Lat: lat, Lng: lng}, radius)
	type entry struct {
		Driver         models.DriverSummary `json:"driver"`
		DistanceMeters float64              `json:"distance_meters"`
	}
	out := make([]entry, 0, len(results))
	for _, res := range results {
		out = append(out, entry{Driver: res.Driver.PublicView(), DistanceMeters: res.DistanceMeters})
	}
	writeJSON(w, http.StatusOK, map[string]any{"drivers": out, "count": len(out)})
}

func (s *Server) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DriverID string       `json:"driver_id"`
		Loc      models.Coord `json:"loc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.DriverID == "" {
		writeError(w, http.StatusBadRequest, "missing required field: driver_id")
		return
	}
	if err := s.Lifecycle.RecordDriverLocation(body.DriverID, body.Loc); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if s.RedisGeo != nil {
		if d, err := s.Registry.FindByID(body.DriverID); err == nil {
			loc := models.DriverLocation{DriverID: d.ID, Loc: d.Loc, Available: d.Available, Rating: d.Rating}
			if err := s.RedisGeo.Upsert(r.Context(), loc); err != nil {
				s.logger.Warn("redis geo upsert failed", "driver_id", d.ID, "error", err)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SenderID      string             `json:"sender_id"`
		SenderType    models.SenderType  `json:"sender_type"`
		Message       string             `json:"message"`
		MessageType   models.MessageType `json:"message_type"`
		AudioURL      string             `json:"audio_url"`
		Transcription string             `json:"transcription"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rideID := mux.Vars(r)["ride_id"]
	msg, err := s.Chat.Post(chat.PostInput{
		RideID:        rideID,
		SenderID:      body.SenderID,
		SenderType:    body.SenderType,
		Message:       body.Message,
		MessageType:   body.MessageType,
		AudioURL:      body.AudioURL,
		Transcription: body.Transcription,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	// best-effort live push to the driver when the passenger writes
	if body.SenderType == models.SenderPassenger {
		if ride, err := s.Store.GetRide(rideID); err == nil && ride.DriverID != "" {
			_ = s.WSReg.Message(ride.DriverID, msg)
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	msgs, total := s.Chat.List(mux.Vars(r)["ride_id"], limit, offset)
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"total":    total,
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID   string            `json:"user_id"`
		UserType models.SenderType `json:"user_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.UserID == "" || !body.UserType.Valid() {
		writeError(w, http.StatusBadRequest, "user_id and a valid user_type are required")
		return
	}
	n := s.Chat.MarkRead(mux.Vars(r)["ride_id"], body.UserID, body.UserType)
	writeJSON(w, http.StatusOK, map[string]any{"marked_read": n})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	userType := models.SenderType(q.Get("user_type"))
	if userID == "" || !userType.Valid() {
		writeError(w, http.StatusBadRequest, "user_id and a valid user_type are required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unread": s.Chat.UnreadCount(userID, userType)})
}

func (s *Server) handleChatStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"average_response_time_minutes": s.Chat.AverageResponseTimeMinutes(),
	})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.Chat.Delete(mux.Vars(r)["message_id"]); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["driver_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "upgrade failed")
		return
	}
	s.WSReg.Add(id, conn)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.WSReg.Remove(id, conn)
				_ = conn.Close()
				return
			}
		}
	}()
}

// writeDomainError maps core errors onto the API status contract.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var ve *lifecycle.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, match.ErrNoDriverAvailable):
		writeError(w, http.StatusNotFound, "no driver available for the requested accommodations")
	case errors.Is(err, store.ErrRideNotFound),
		errors.Is(err, registry.ErrDriverNotFound),
		errors.Is(err, chat.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrAlreadyTerminal),
		errors.Is(err, chat.ErrInvalidMessage),
		errors.Is(err, rating.ErrInvalidRating),
		errors.Is(err, rating.ErrRideNotCompleted),
		errors.Is(err, rating.ErrAlreadyRated):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, 499, "request cancelled")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
