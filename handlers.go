package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/gmllt/kanvan/board"
)

// taskServer is the remote store the board client syncs with. Each
// mutation is a load-modify-save cycle against the repository, serialized
// by mu.
type taskServer struct {
	repo  Repository
	mu    sync.Mutex
	newID func() string
}

func newTaskServer(repo Repository) *taskServer {
	return &taskServer{repo: repo, newID: uuid.NewString}
}

func (s *taskServer) routes(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler(r)
}

func (s *taskServer) listTasks(w http.ResponseWriter, r *http.Request) {
	cards, err := s.repo.Load(r.Context())
	if err != nil {
		log.WithError(err).Error("loading tasks")
		http.Error(w, "failed to load tasks", http.StatusInternalServerError)
		return
	}
	log.Debugf("tasks loaded: %d cards", len(cards))
	writeJSON(w, http.StatusOK, cards)
}

func (s *taskServer) createTask(w http.ResponseWriter, r *http.Request) {
	var card board.Card
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		log.WithError(err).Warn("decoding card")
		taskMutationsTotal.WithLabelValues("create", "invalid").Inc()
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if card.ID == "" {
		card.ID = s.newID()
	}
	card, err := board.NewCard(card.ID, card.Lane, card.Title, card.Info)
	if err != nil {
		taskMutationsTotal.WithLabelValues("create", "invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := s.load(r)
	if err != nil {
		taskMutationsTotal.WithLabelValues("create", "error").Inc()
		http.Error(w, "failed to load tasks", http.StatusInternalServerError)
		return
	}
	if _, exists := store.Get(card.ID); exists {
		taskMutationsTotal.WithLabelValues("create", "conflict").Inc()
		http.Error(w, board.ErrDuplicateID.Error(), http.StatusConflict)
		return
	}
	if err := store.Upsert(card); err != nil {
		taskMutationsTotal.WithLabelValues("create", "invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.repo.Save(r.Context(), store.All()); err != nil {
		log.WithError(err).Error("saving tasks")
		taskMutationsTotal.WithLabelValues("create", "error").Inc()
		http.Error(w, "failed to save tasks", http.StatusInternalServerError)
		return
	}
	taskMutationsTotal.WithLabelValues("create", "ok").Inc()
	log.WithFields(log.Fields{"card": card.ID, "lane": card.Lane}).Info("card created")
	writeJSON(w, http.StatusCreated, card)
}

func (s *taskServer) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	store, err := s.load(r)
	if err != nil {
		taskMutationsTotal.WithLabelValues("delete", "error").Inc()
		http.Error(w, "failed to load tasks", http.StatusInternalServerError)
		return
	}
	if !store.Remove(id) {
		log.WithField("card", id).Info("card not found for delete")
		taskMutationsTotal.WithLabelValues("delete", "not_found").Inc()
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	if err := s.repo.Save(r.Context(), store.All()); err != nil {
		log.WithError(err).Error("saving tasks")
		taskMutationsTotal.WithLabelValues("delete", "error").Inc()
		http.Error(w, "failed to save tasks", http.StatusInternalServerError)
		return
	}
	taskMutationsTotal.WithLabelValues("delete", "ok").Inc()
	log.WithField("card", id).Info("card deleted")
	w.WriteHeader(http.StatusNoContent)
}

// freshLoader is implemented by repositories that can read past a cache.
type freshLoader interface {
	LoadFresh(ctx context.Context) ([]board.Card, error)
}

// load reads the persisted sequence into a fresh store, skipping any cache.
func (s *taskServer) load(r *http.Request) (*board.Store, error) {
	read := s.repo.Load
	if fl, ok := s.repo.(freshLoader); ok {
		read = fl.LoadFresh
	}
	cards, err := read(r.Context())
	if err != nil {
		log.WithError(err).Error("loading tasks")
		return nil, err
	}
	store := board.NewStore()
	if err := store.Replace(cards); err != nil {
		log.WithError(err).Error("stored tasks are inconsistent")
		return nil, errors.Join(errors.New("stored tasks are inconsistent"), err)
	}
	return store, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encoding response")
	}
}
