package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/moviesysbackend/models"
	"github.com/camden-git/moviesysbackend/services"
	"github.com/camden-git/moviesysbackend/validation"
)

// ActorService is the part of the catalog the actor routes use.
type ActorService interface {
	CreateActor(ctx context.Context, in validation.ActorInput) (*models.Actor, error)
	ListActors(ctx context.Context) ([]models.Actor, error)
	GetActor(ctx context.Context, id uint) (*models.Actor, error)
	UpdateActor(ctx context.Context, id uint, patch models.ActorPatch) (*models.Actor, error)
	DeleteActor(ctx context.Context, id uint) error
}

type ActorHandler struct {
	Catalog ActorService
	errorWriter
}

// parseID reads the {id} path parameter. Anything that is not an unsigned
// integer cannot name a stored record.
func parseID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (ah *ActorHandler) CreateActor(w http.ResponseWriter, r *http.Request) {
	var req validation.ActorInput
	if !decodeBody(w, r, &req) {
		return
	}
	actor, err := ah.Catalog.CreateActor(r.Context(), req)
	if err != nil {
		ah.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, actor)
}

func (ah *ActorHandler) ListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := ah.Catalog.ListActors(r.Context())
	if err != nil {
		ah.write(w, r, err)
		return
	}
	if actors == nil {
		actors = []models.Actor{}
	}
	writeJSON(w, http.StatusOK, actors)
}

func (ah *ActorHandler) GetActor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		ah.write(w, r, services.ErrActorNotFound)
		return
	}
	actor, err := ah.Catalog.GetActor(r.Context(), id)
	if err != nil {
		ah.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (ah *ActorHandler) UpdateActor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		ah.write(w, r, services.ErrActorNotFound)
		return
	}
	var req models.ActorPatch
	if !decodeBody(w, r, &req) {
		return
	}
	actor, err := ah.Catalog.UpdateActor(r.Context(), id, req)
	if err != nil {
		ah.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (ah *ActorHandler) DeleteActor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		ah.write(w, r, services.ErrActorNotFound)
		return
	}
	if err := ah.Catalog.DeleteActor(r.Context(), id); err != nil {
		ah.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
