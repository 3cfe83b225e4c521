package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/game"
	"github.com/hailam/losalamos/internal/rules"
	"github.com/hailam/losalamos/internal/storage"
	"github.com/hailam/losalamos/internal/uci"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

const internalErrorJSON = `{"status":500,"body":{"error":"internal server error"}}`

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(Response{Status: status, Body: body})
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(internalErrorJSON))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownGame), errors.Is(err, storage.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrInvalidCoordinate),
		errors.Is(err, board.ErrInvalidMove),
		errors.Is(err, board.ErrInvalidFEN),
		errors.Is(err, uci.ErrInvalidElo),
		errors.Is(err, game.ErrNoPiece):
		return http.StatusBadRequest
	case errors.Is(err, rules.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, game.ErrEngineNotReady),
		errors.Is(err, uci.ErrEngineUnresponsive),
		errors.Is(err, uci.ErrEngineExited),
		errors.Is(err, uci.ErrSessionClosed),
		errors.Is(err, uci.ErrNoBestMove),
		errors.Is(err, uci.ErrProtocol):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type gameView struct {
	ID         string   `json:"id"`
	FEN        string   `json:"fen"`
	SideToMove string   `json:"side_to_move"`
	UserSide   string   `json:"user_side"`
	InCheck    bool     `json:"in_check"`
	History    []string `json:"history"`
	Result     string   `json:"result"`
	Over       bool     `json:"over"`
	Board      string   `json:"board"`

	UserCaptured   []string `json:"user_captured"`
	EngineCaptured []string `json:"engine_captured"`
}

func viewOf(s *game.Session) gameView {
	v := gameView{ID: s.ID.String()}
	s.View(func(p *game.Position) {
		res := p.EvaluateEnd()
		v.FEN = p.FEN()
		v.SideToMove = p.SideToMove().String()
		v.UserSide = p.UserSide().String()
		v.InCheck = p.InCheck()
		v.History = p.History()
		v.Result = res.String()
		v.Over = res.Over()
		v.Board = p.String()
	})
	user, engine := s.Captures()
	v.UserCaptured = pieceNames(user)
	v.EngineCaptured = pieceNames(engine)
	return v
}

func pieceNames(pieces []board.Piece) []string {
	names := make([]string, len(pieces))
	for i, pc := range pieces {
		names[i] = pc.String()
	}
	return names
}

type squareView struct {
	Square string `json:"square"`
	Piece  string `json:"piece,omitempty"`
	Type   string `json:"type,omitempty"`
	Color  string `json:"color,omitempty"`
}

type resultView struct {
	Outcome string `json:"outcome"`
	Winner  string `json:"winner,omitempty"`
	Over    bool   `json:"over"`
	Text    string `json:"text"`
}

func resultOf(r game.Result) resultView {
	v := resultView{Outcome: r.Outcome.String(), Over: r.Over(), Text: r.String()}
	if r.Winner != board.NoColor {
		v.Winner = r.Winner.String()
	}
	return v
}
