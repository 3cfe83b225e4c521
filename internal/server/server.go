package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/config"
	"github.com/hailam/losalamos/internal/game"
	"github.com/hailam/losalamos/internal/storage"
)

// Handler serves the game API.
type Handler struct {
	games      *Manager
	log        *zap.SugaredLogger
	defaultElo int
	username   string
}

// New builds the router. defaultElo and username apply when a create request
// leaves them out.
func New(games *Manager, defaultElo int, username string, log *zap.SugaredLogger) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &Handler{games: games, log: log, defaultElo: defaultElo, username: username}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"active_games": games.Len()})
	})

	r.Route("/games", func(r chi.Router) {
		r.Post("/", h.createGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getGame)
			r.Delete("/", h.closeGame)
			r.Get("/squares/{square}", h.squareAt)
			r.Get("/squares/{square}/destinations", h.legalDestinations)
			r.Post("/moves", h.applyMove)
			r.Post("/engine-move", h.engineMove)
			r.Get("/result", h.evaluateEnd)
		})
	})

	if games.Store() != nil {
		r.Get("/stats", h.stats)
		r.Route("/archive", func(r chi.Router) {
			r.Get("/", h.listArchive)
			r.Get("/{id}", h.archivedGame)
			r.Get("/{id}/log", h.archivedLog)
		})
	}
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	s, err := h.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return s, true
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

type createRequest struct {
	UserSide string `json:"user_side"`
	Elo      int    `json:"elo"`
	StartFEN string `json:"start_fen"`
	Username string `json:"username"`
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	side := board.White
	if req.UserSide != "" {
		var err error
		if side, err = config.ParseSide(req.UserSide); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.Elo == 0 {
		req.Elo = h.defaultElo
	}
	if req.Username == "" {
		req.Username = h.username
	}

	s, err := h.games.Create(r.Context(), NewGameRequest{
		UserSide: side,
		Elo:      req.Elo,
		StartFEN: req.StartFEN,
		Username: req.Username,
	})
	if err != nil {
		h.log.Warnw("create game", "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(s))
}

func (h *Handler) getGame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s))
}

func (h *Handler) closeGame(w http.ResponseWriter, r *http.Request) {
	rec, err := h.games.Close(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrUnknownGame) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.log.Errorw("close game", "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// squareParam resolves the {square} path parameter in the game's orientation.
func squareParam(r *http.Request, s *game.Session) (board.Square, error) {
	var (
		sq  board.Square
		err error
	)
	s.View(func(p *game.Position) {
		sq, err = p.Orientation().AlgebraicToCoords(chi.URLParam(r, "square"))
	})
	return sq, err
}

func (h *Handler) squareAt(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	sq, err := squareParam(r, s)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	v := squareView{Square: chi.URLParam(r, "square")}
	s.View(func(p *game.Position) {
		var pc board.Piece
		var occupied bool
		pc, occupied, err = p.SquareAt(sq.File(), sq.Rank())
		if occupied {
			v.Piece = pc.String()
			v.Type = pc.Type.String()
			v.Color = pc.Color.String()
		}
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) legalDestinations(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	sq, err := squareParam(r, s)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	dests := []string{}
	s.View(func(p *game.Position) {
		var squares []board.Square
		if squares, err = p.LegalDestinations(sq); err != nil {
			return
		}
		for _, to := range squares {
			name, cerr := p.Orientation().CoordsToAlgebraic(to)
			if cerr != nil {
				err = cerr
				return
			}
			dests = append(dests, name)
		}
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"square":       chi.URLParam(r, "square"),
		"destinations": dests,
	})
}

type moveRequest struct {
	Move      string `json:"move"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

func (h *Handler) applyMove(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		m   board.Move
		err error
	)
	s.View(func(p *game.Position) {
		if req.Move == "" {
			req.Move = req.From + req.To + req.Promotion
		}
		m, err = board.ParseMove(board.CanonicalLAN(req.Move), p.Orientation())
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	captured, took, err := s.ApplyMove(r.Context(), m.From, m.To, m.Promotion)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	body := map[string]any{"game": viewOf(s)}
	if took {
		body["captured"] = captured.String()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) engineMove(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	lan, err := s.RequestEngineMove(r.Context())
	if err != nil {
		h.log.Warnw("engine move", "game", s.ID, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"move": lan, "game": viewOf(s)})
}

func (h *Handler) evaluateEnd(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var res game.Result
	s.View(func(p *game.Position) { res = p.EvaluateEnd() })
	writeJSON(w, http.StatusOK, resultOf(res))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.games.Store().LoadStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":    stats,
		"win_rate": stats.GetWinRate(),
	})
}

func (h *Handler) listArchive(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.Store().ListGames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if games == nil {
		games = []storage.GameRecord{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *Handler) archivedGame(w http.ResponseWriter, r *http.Request) {
	rec, err := h.games.Store().LoadGame(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) archivedLog(w http.ResponseWriter, r *http.Request) {
	rec, err := h.games.Store().LoadGame(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := storage.WriteLog(w, *rec); err != nil {
		h.log.Errorw("write game log", "game", rec.ID, "error", err)
	}
}
