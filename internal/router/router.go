// Package router exposes the user profile operations over HTTP/JSON.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/patric-chuzhbe/userprofiles/internal/gzippedhttp"
	"github.com/patric-chuzhbe/userprofiles/internal/logger"
	"github.com/patric-chuzhbe/userprofiles/internal/models"
)

type userService interface {
	CreateUser(ctx context.Context, input models.UserInput) (models.User, error)

	GetUsers(ctx context.Context) ([]models.User, error)

	FindUsersByTag(ctx context.Context, tag string) ([]models.User, error)

	SearchUsers(ctx context.Context, q string) ([]models.User, error)

	GetMostUsedTags(ctx context.Context) ([]models.TagCount, error)

	Ping(ctx context.Context) error
}

// Router holds the HTTP handlers of the service.
type Router struct {
	service userService
}

// New builds the chi router with request id, access logging, panic
// recovery, CORS and gzip middleware.
func New(service userService, allowedOrigins []string) *chi.Mux {
	r := &Router{service: service}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		logger.WithLoggingHTTPMiddleware,
		middleware.Recoverer,
		corsHandler.Handler,
		gzippedhttp.UngzipRequest,
		gzippedhttp.GzipResponse,
	)

	router.Get(`/ping`, r.GetPing)

	router.Route(`/api`, func(api chi.Router) {
		api.Post(`/users`, r.PostApiusers)
		api.Get(`/users`, r.GetApiusers)
		api.Get(`/users/search`, r.GetApiuserssearch)
		api.Get(`/users/tag/{tag}`, r.GetApiuserstag)
		api.Get(`/mostUsedTags`, r.GetApimostusedtags)
	})

	return router
}

// PostApiusers stores a new user record and answers 201 with the stored record.
func (r *Router) PostApiusers(res http.ResponseWriter, req *http.Request) {
	input, err := models.DecodeUserInput(req.Body)
	if err != nil {
		writeError(res, err)
		return
	}

	usr, err := r.service.CreateUser(req.Context(), input)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusCreated, usr)
}

// GetApiusers lists every record.
func (r *Router) GetApiusers(res http.ResponseWriter, req *http.Request) {
	users, err := r.service.GetUsers(req.Context())
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, users)
}

// GetApiuserstag lists the records having a tag that contains the path parameter.
func (r *Router) GetApiuserstag(res http.ResponseWriter, req *http.Request) {
	tag := chi.URLParam(req, "tag")

	// chi routes on RawPath when it is set, otherwise on the decoded Path.
	if req.URL.RawPath != "" {
		var err error
		tag, err = url.PathUnescape(tag)
		if err != nil {
			writeError(res, models.NewValidationError(fmt.Errorf("tag: %w", err)))
			return
		}
	}

	users, err := r.service.FindUsersByTag(req.Context(), tag)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, users)
}

// GetApiuserssearch lists the records matching the "query" parameter in the
// name, the headline or any tag. A missing parameter matches everything.
func (r *Router) GetApiuserssearch(res http.ResponseWriter, req *http.Request) {
	users, err := r.service.SearchUsers(req.Context(), req.URL.Query().Get("query"))
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, users)
}

// GetApimostusedtags returns the most frequent tags with their counts.
func (r *Router) GetApimostusedtags(res http.ResponseWriter, req *http.Request) {
	tags, err := r.service.GetMostUsedTags(req.Context())
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, tags)
}

// GetPing reports whether the storage backend is reachable.
func (r *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := r.service.Ping(req.Context()); err != nil {
		writeError(res, err)
		return
	}

	res.WriteHeader(http.StatusOK)
}

func writeJSON(res http.ResponseWriter, status int, body interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)

	if err := json.NewEncoder(res).Encode(body); err != nil {
		logger.Log.Errorln("unable to encode the response body", "error", err)
	}
}

// writeError answers 400 for validation failures and 500 for everything else.
func writeError(res http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if models.IsValidationError(err) {
		status = http.StatusBadRequest
	} else {
		logger.Log.Errorln("request failed", "error", err)
	}

	writeJSON(res, status, models.ErrorResponse{Error: err.Error()})
}
