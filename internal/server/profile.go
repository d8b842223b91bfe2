package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"summoner-tracker/internal/constants"
	"summoner-tracker/internal/domain"
	"summoner-tracker/internal/service"

	"github.com/rs/zerolog"
)

type ProfileProvider interface {
	GetProfile(ctx context.Context, req service.ProfileRequest) (*domain.ProfileSnapshot, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type ProfileServer struct {
	profiles ProfileProvider
	db       Pinger
	logger   zerolog.Logger
}

func NewProfileServer(profiles *service.ProfileService, db *sql.DB, logger zerolog.Logger) *ProfileServer {
	return newProfileServer(profiles, db, logger)
}

func newProfileServer(profiles ProfileProvider, db Pinger, logger zerolog.Logger) *ProfileServer {
	return &ProfileServer{profiles: profiles, db: db, logger: logger}
}

// GetProfile serves the cached snapshot unless forceUpdate=true. A client
// disconnect cancels the work.
func (s *ProfileServer) GetProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ProfileRequest{
		GameName: q.Get("gameName"),
		TagLine:  q.Get("tagLine"),
		Region:   q.Get("region"),
	}
	if raw := q.Get("forceUpdate"); raw != "" {
		force, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, &domain.ValidationError{Field: "forceUpdate", Message: "forceUpdate must be true or false"})
			return
		}
		req.ForceUpdate = force
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	snap, err := s.profiles.GetProfile(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type refreshRequest struct {
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
	Region   string `json:"region"`
}

// PostProfile always refreshes. Once started the refresh is not tied to
// the client connection.
func (s *ProfileServer) PostProfile(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, &domain.ValidationError{Field: "body", Message: "request body must be a JSON object with gameName, tagLine and region"})
		return
	}

	snap, err := s.profiles.GetProfile(context.WithoutCancel(r.Context()), service.ProfileRequest{
		GameName:    body.GameName,
		TagLine:     body.TagLine,
		Region:      body.Region,
		ForceUpdate: true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *ProfileServer) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
