package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/lobbyrisk/internal/domain/lobby"
	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/internal/domain/types"
	"github.com/okian/lobbyrisk/pkg/logger"
)

// Public error messages.
const (
	msgInvalidUsernames = "Usernames must be a non-empty array"
	msgFetchFailed      = "Failed to fetch user profiles"
)

const maxBodyBytes = 1 << 20

// Resolver computes the risk of a lobby.
type Resolver interface {
	Resolve(ctx context.Context, ids []model.Identity) (model.LobbyResult, error)
}

// ProfilesHandler handles lobby risk requests.
type ProfilesHandler struct {
	resolver Resolver
	logger   logger.Logger
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(resolver Resolver) *ProfilesHandler {
	return &ProfilesHandler{resolver: resolver, logger: logger.Get().Named("api")}
}

// HandleGetUserProfiles handles POST /getUserProfiles.
func (h *ProfilesHandler) HandleGetUserProfiles(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_user_profiles"

	var req types.ProfilesRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.reject(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validatorInstance().Struct(req); err != nil {
		h.reject(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.resolver.Resolve(r.Context(), req.Usernames)
	switch {
	case err == nil:
	case errors.Is(err, lobby.ErrInvalidRequest):
		h.reject(r.Context(), w, WrapKind(op, ErrBadRequest, err))
		return
	case errors.Is(err, lobby.ErrUnavailable):
		h.fail(r.Context(), w, WrapKind(op, ErrUnavailable, err))
		return
	default:
		h.fail(r.Context(), w, WrapKind(op, ErrInternal, err))
		return
	}

	profiles := result.Profiles
	if profiles == nil {
		profiles = map[string]float64{}
	}
	writeJSON(w, http.StatusOK, types.ProfilesResponse{Profiles: profiles, LobbyRisk: result.LobbyRisk})
}

func (h *ProfilesHandler) reject(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.Debug(ctx, "rejected lobby request", logger.Error(err))
	writeError(w, http.StatusBadRequest, msgInvalidUsernames)
}

func (h *ProfilesHandler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.Error(ctx, "lobby request failed", logger.Error(err))
	writeError(w, http.StatusInternalServerError, msgFetchFailed)
}
