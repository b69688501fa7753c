package handlers

import (
	"context"
	"net/http"

	"github.com/camden-git/moviesysbackend/models"
	"github.com/camden-git/moviesysbackend/services"
	"github.com/camden-git/moviesysbackend/validation"
)

// MovieService is the part of the catalog the movie routes use.
type MovieService interface {
	CreateMovie(ctx context.Context, in validation.MovieInput) (*models.Movie, error)
	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, id uint) (*models.Movie, error)
	UpdateMovie(ctx context.Context, id uint, patch models.MoviePatch) (*models.Movie, error)
	DeleteMovie(ctx context.Context, id uint) error
}

type MovieHandler struct {
	Catalog MovieService
	errorWriter
}

func (mh *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var req validation.MovieInput
	if !decodeBody(w, r, &req) {
		return
	}
	movie, err := mh.Catalog.CreateMovie(r.Context(), req)
	if err != nil {
		mh.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, movie)
}

func (mh *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := mh.Catalog.ListMovies(r.Context())
	if err != nil {
		mh.write(w, r, err)
		return
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	writeJSON(w, http.StatusOK, movies)
}

func (mh *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		mh.write(w, r, services.ErrMovieNotFound)
		return
	}
	movie, err := mh.Catalog.GetMovie(r.Context(), id)
	if err != nil {
		mh.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (mh *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		mh.write(w, r, services.ErrMovieNotFound)
		return
	}
	var req models.MoviePatch
	if !decodeBody(w, r, &req) {
		return
	}
	movie, err := mh.Catalog.UpdateMovie(r.Context(), id, req)
	if err != nil {
		mh.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (mh *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		mh.write(w, r, services.ErrMovieNotFound)
		return
	}
	if err := mh.Catalog.DeleteMovie(r.Context(), id); err != nil {
		mh.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
