package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/moviesysbackend/models"
	"github.com/camden-git/moviesysbackend/repository"
	"github.com/camden-git/moviesysbackend/services"
	"github.com/camden-git/moviesysbackend/validation"
)

func newTestRouter(t *testing.T, opts ...services.Option) http.Handler {
	t.Helper()
	rules := validation.New(func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) })
	catalog := services.NewCatalogService(repository.NewMemoryStore(), rules, opts...)
	return NewRouter(RouterConfig{
		Catalog:        catalog,
		Backend:        "memory",
		Logger:         zerolog.Nop(),
		AllowedOrigins: []string{"http://localhost:5173"},
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body APIErrorResponse
	decode(t, rec, &body)
	return body.Error
}

func TestActorAndMovieScenario(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var actor models.Actor
	decode(t, rec, &actor)
	assert.Equal(t, uint(1), actor.ID)
	assert.Equal(t, "1990-01-01", actor.DateOfBirth.String())
	assert.JSONEq(t, `{"id":1,"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/movies", `{"title":"X","creationDate":"2020-01-01","actorId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"title":"X","creationDate":"2020-01-01","actorId":1}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/movies", `{"title":"Y","creationDate":"2020-01-01","actorId":999}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Actor not found", errorMessage(t, rec))

	rec = do(t, h, http.MethodPost, "/actors", `{"firstName":"Old","lastName":"Future","dateOfBirth":"2999-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "dateOfBirth cannot be in the future", errorMessage(t, rec))

	rec = do(t, h, http.MethodDelete, "/actors/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/actors/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var movies []models.Movie
	rec = do(t, h, http.MethodGet, "/movies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &movies)
	assert.Len(t, movies, 1)
}

func TestListsAreEmptyArrays(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/actors", "/movies"} {
		rec := do(t, h, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestCreateActorRejections(t *testing.T) {
	h := newTestRouter(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing fields", `{"firstName":"Jane"}`, "firstName, lastName and dateOfBirth are required"},
		{"empty name", `{"firstName":"","lastName":"Doe","dateOfBirth":"1990-01-01"}`, "firstName cannot be empty"},
		{"null is omitted", `{"firstName":"Jane","lastName":null,"dateOfBirth":"1990-01-01"}`, "firstName, lastName and dateOfBirth are required"},
		{"tomorrow", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"2024-06-16"}`, "dateOfBirth cannot be in the future"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/actors", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, errorMessage(t, rec))
		})
	}

	rec := do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"01/01/1990"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "invalid date")

	rec = do(t, h, http.MethodPost, "/actors", `{"firstName":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "Invalid request body")

	rec = do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01","extra":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestValidationErrorCarriesFields(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/movies", `{"title":"X"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body APIErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "title, creationDate and actorId are required", body.Error)
	assert.Contains(t, body.Fields, "creationDate")
	assert.Contains(t, body.Fields, "actorId")
	assert.NotContains(t, body.Fields, "title")
}

func TestUpdateActor(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`).Code)

	rec := do(t, h, http.MethodPut, "/actors/1", `{"firstName":"Janet"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"firstName":"Janet","lastName":"Doe","dateOfBirth":"1990-01-01"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/actors/1", `{"dateOfBirth":"2999-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/actors/1", `{"lastName":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/actors/2", `{"firstName":"Nobody"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/actors/1", "")
	assert.JSONEq(t, `{"id":1,"firstName":"Janet","lastName":"Doe","dateOfBirth":"1990-01-01"}`, rec.Body.String())
}

func TestUpdateMovie(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/movies", `{"title":"X","creationDate":"2020-01-01","actorId":1}`).Code)

	rec := do(t, h, http.MethodPut, "/movies/1", `{"title":"X2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"title":"X2","creationDate":"2020-01-01","actorId":1}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/movies/1", `{"actorId":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Actor not found", errorMessage(t, rec))

	rec = do(t, h, http.MethodPut, "/movies/9", `{"title":"Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Movie not found", errorMessage(t, rec))

	rec = do(t, h, http.MethodPut, "/movies/1", `{"creationDate":"2999-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "creationDate cannot be in the future", errorMessage(t, rec))
}

func TestUpdateWithoutBodyLeavesRecordUnchanged(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/movies", `{"title":"X","creationDate":"2020-01-01","actorId":1}`).Code)

	rec := do(t, h, http.MethodPut, "/actors/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/movies/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"title":"X","creationDate":"2020-01-01","actorId":1}`, rec.Body.String())

	rec = do(t, h, http.MethodPut, "/actors/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateWithoutBodyReportsRequiredFields(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/actors", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "firstName, lastName and dateOfBirth are required", errorMessage(t, rec))

	rec = do(t, h, http.MethodPost, "/movies", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title, creationDate and actorId are required", errorMessage(t, rec))
}

func TestBodyTypeErrorsNameTheField(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/movies", `{"title":"X","creationDate":"2020-01-01","actorId":-1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body APIErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "Invalid request body: actorId must be a positive integer", body.Error)
	assert.Equal(t, map[string]string{"actorId": "must be a positive integer"}, body.Fields)
	assert.NotContains(t, rec.Body.String(), "Go struct")

	rec = do(t, h, http.MethodPost, "/actors", `{"firstName":7,"lastName":"Doe","dateOfBirth":"1990-01-01"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body: firstName must be a string", errorMessage(t, rec))

	rec = do(t, h, http.MethodPost, "/actors", `[]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body: expected a JSON object", errorMessage(t, rec))
}

func TestOversizedBodyIsRejected(t *testing.T) {
	h := newTestRouter(t)
	body := `{"firstName":"` + strings.Repeat("a", maxBodyBytes) + `","lastName":"Doe","dateOfBirth":"1990-01-01"}`

	rec := do(t, h, http.MethodPost, "/actors", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Request body too large", errorMessage(t, rec))

	rec = do(t, h, http.MethodGet, "/actors", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDeleteMovie(t *testing.T) {
	h := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/movies", `{"title":"X","creationDate":"2020-01-01","actorId":1}`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/movies/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/movies/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/movies/1", "").Code)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/actors/abc", "/actors/-1", "/movies/1.5"} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/movies/x", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/actors/x", `{}`).Code)
}

func TestRestrictPolicyConflict(t *testing.T) {
	h := newTestRouter(t, services.WithDeletePolicy(services.PolicyRestrict))
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/actors", `{"firstName":"Jane","lastName":"Doe","dateOfBirth":"1990-01-01"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/movies", `{"title":"X","creationDate":"2020-01-01","actorId":1}`).Code)

	rec := do(t, h, http.MethodDelete, "/actors/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/actors/1", "").Code)
}

type brokenCatalog struct {
	Catalog
}

func (brokenCatalog) ListActors(ctx context.Context) ([]models.Actor, error) {
	return nil, &services.Error{Kind: services.KindPersistence, Message: "failed to list actors", Err: errors.New("connection refused")}
}

func (brokenCatalog) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestPersistenceErrorsHideDetailsOutsideDevelopment(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		h := NewRouter(RouterConfig{Catalog: brokenCatalog{}, Logger: zerolog.Nop(), VerboseErrors: verbose})
		rec := do(t, h, http.MethodGet, "/actors", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		if verbose {
			assert.Equal(t, "failed to list actors: connection refused", errorMessage(t, rec))
		} else {
			assert.Equal(t, "Internal Server Error", errorMessage(t, rec))
		}
	}
}

func TestStatus(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["backend"])

	h := NewRouter(RouterConfig{Catalog: brokenCatalog{}, Logger: zerolog.Nop()})
	rec = do(t, h, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rules := validation.New(nil)
	catalog := services.NewCatalogService(repository.NewMemoryStore(), rules)
	h := NewRouter(RouterConfig{
		Catalog: catalog,
		Logger:  zerolog.Nop(),
		Limiter: NewIPRateLimiter(0.001, 2),
	})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/actors", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/actors", "").Code)
	rec := do(t, h, http.MethodGet, "/actors", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", errorMessage(t, rec))
}

func TestIPRateLimiterSweep(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	l.Sweep(0)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/actors", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/directors", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", errorMessage(t, rec))
}
