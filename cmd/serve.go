package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jsphweid/bmsdex/chart"
	"github.com/jsphweid/bmsdex/config"
	"github.com/jsphweid/bmsdex/constants"
	"github.com/jsphweid/bmsdex/db"
	"github.com/jsphweid/bmsdex/file"
	"github.com/jsphweid/bmsdex/level"
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/replay"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

const requestIDHeader = "X-Request-Id"

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves chart levels and replays over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		return serve(ctx, NewServer(store, cfg))
	},
}

type Server struct {
	store  db.Store
	config config.Config
}

func NewServer(store db.Store, c config.Config) *Server {
	return &Server{store: store, config: c}
}

// Router wires the handlers behind request ids and CORS.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(requestID)
	router.HandleFunc("/chart", s.HandleChart).Methods("POST")
	router.HandleFunc("/replay", s.HandleReplay).Methods("POST")
	router.HandleFunc("/song/{sha256}", s.HandleSong).Methods("GET")
	router.HandleFunc("/songs", s.HandleSongs).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(router)
}

func serve(ctx context.Context, s *Server) error {
	logger := charmlog.FromContext(ctx)
	srv := &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestID tags every request with a fresh id and a logger carrying it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(requestIDHeader, id)
		logger := charmlog.FromContext(r.Context()).With("request_id", id)
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		ctx := context.WithValue(r.Context(), charmlog.ContextKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxUploadSize))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty request body")
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := charmlog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	} else {
		logger.Debug("request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, model.ErrorResponse{
		Error:     err.Error(),
		RequestID: w.Header().Get(requestIDHeader),
	})
}

// statusOf maps pipeline errors to HTTP statuses.
func statusOf(err error) int {
	var chartErr *chart.FormatError
	var replayErr *replay.FormatError
	var integrity *timeline.IntegrityError
	switch {
	case errors.As(err, &chartErr), errors.As(err, &replayErr):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrSongNotFound):
		return http.StatusNotFound
	case errors.As(err, &integrity),
		errors.Is(err, level.ErrNoNotes),
		errors.Is(err, replay.ErrUnsupportedOption),
		errors.Is(err, timeline.ErrBeforeChart):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// HandleChart parses the chart in the request body and rates it.
func (s *Server) HandleChart(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	c, err := chart.ParseBytes(body, s.config.ChartEncoding())
	if err != nil {
		writeError(w, r, statusOf(err), err)
		return
	}
	stats, err := level.Measure(c)
	if err != nil {
		writeError(w, r, statusOf(err), err)
		return
	}
	encoded, err := chart.MarshalJSON(c)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	warnings := c.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, model.ChartResponse{
		SHA256: file.Hash(body).SHA256,
		Level: model.LevelResult{
			Title:     c.Title,
			Artist:    c.Artist,
			Level:     stats.Level,
			Notes:     stats.Notes,
			LongNotes: stats.LongNotes,
			LengthMS:  stats.LengthMS,
		},
		Warnings: warnings,
		Chart:    encoded,
	})
}

// HandleReplay lays the replay file in the request body onto its indexed
// chart.
func (s *Server) HandleReplay(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := Reconstruct(r.Context(), s.store, s.config, body, "")
	if err != nil {
		writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) HandleSong(w http.ResponseWriter, r *http.Request) {
	song, err := s.store.Lookup(r.Context(), mux.Vars(r)["sha256"])
	if err != nil {
		writeError(w, r, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) HandleSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if songs == nil {
		songs = []model.Song{}
	}
	writeJSON(w, http.StatusOK, songs)
}
