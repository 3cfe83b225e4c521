package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/book"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/rules"
)

// DefaultMoveTime is used when "go" carries no limit.
const DefaultMoveTime = time.Second

// Server answers the UCI protocol for the Los Alamos variant using the
// built-in search engine.
type Server struct {
	engine   *engine.Engine
	book     *book.Book
	position *rules.Position
	log      *zap.SugaredLogger

	outMu sync.Mutex
	out   io.Writer

	variant       string
	limitStrength bool
	elo           int

	// Search state
	searching  bool
	searchDone chan struct{}
}

// NewServer creates a UCI protocol handler writing to out.
func NewServer(eng *engine.Engine, out io.Writer, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		engine:   eng,
		position: rules.NewStartPosition(),
		out:      out,
		log:      log,
		variant:  rules.Variant,
		elo:      1500,
	}
}

// SetBook makes the server answer "go" from b when the position is in it.
func (s *Server) SetBook(b *book.Book) {
	s.book = b
}

func (s *Server) printf(format string, args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format+"\n", args...)
}

// Run reads commands from in until "quit" or end of input. A search still
// running at end of input is allowed to finish.
func (s *Server) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]
		s.log.Debugw("command", "line", line)

		switch cmd {
		case "uci":
			s.handleUCI()
		case "isready":
			s.printf("readyok")
		case "ucinewgame":
			s.handleNewGame()
		case "position":
			s.waitSearch()
			s.handlePosition(args)
		case "go":
			s.waitSearch()
			s.handleGo(args)
		case "stop":
			s.handleStop()
		case "quit":
			s.handleStop()
			return nil
		case "setoption":
			s.handleSetOption(args)
		// Debug commands
		case "d":
			s.waitSearch()
			s.printf("%s", s.position.String())
			s.printf("Eval: %s", engine.ScoreToString(s.engine.Evaluate(s.position)))
		case "perft":
			s.waitSearch()
			s.handlePerft(args)
		default:
			s.printf("info string unknown command: %s", cmd)
		}
	}
	s.waitSearch()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (s *Server) handleUCI() {
	s.printf("id name Los Alamos")
	s.printf("id author losalamos")
	s.printf("")
	s.printf("option name UCI_Variant type combo default %s var %s", rules.Variant, rules.Variant)
	s.printf("option name UCI_LimitStrength type check default false")
	s.printf("option name UCI_Elo type spin default 1500 min %d max %d", engine.MinElo, engine.MaxElo)
	s.printf("uciok")
}

// handleNewGame resets the engine for a new game.
func (s *Server) handleNewGame() {
	s.handleStop()
	s.engine.Clear()
	s.position = rules.NewStartPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves b2b3 c5c4
//   - position fen <fen>
//   - position fen <fen> moves b2b3
func (s *Server) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	fenEnd, moveStart := len(args), len(args)
	for i, arg := range args {
		if arg == "moves" {
			fenEnd, moveStart = i, i+1
			break
		}
	}

	var pos *rules.Position
	switch args[0] {
	case "startpos":
		pos = rules.NewStartPosition()
	case "fen":
		fen := strings.Join(args[1:fenEnd], " ")
		p, err := rules.NewPosition(fen)
		if err != nil {
			s.printf("info string invalid fen: %v", err)
			return
		}
		pos = p
	default:
		return
	}

	for _, lan := range args[moveStart:] {
		if err := pos.PlayLAN(lan); err != nil {
			s.printf("info string invalid move %s: %v", lan, err)
			return
		}
	}
	s.position = pos
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth    int
	MoveTime time.Duration
	Infinite bool
}

func parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		}
	}
	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits, applying the
// strength limit when enabled.
func (s *Server) calculateLimits(opts GoOptions) engine.SearchLimits {
	limits := engine.SearchLimits{Depth: opts.Depth, MoveTime: opts.MoveTime}
	if limits.Depth == 0 && limits.MoveTime == 0 && !opts.Infinite {
		limits.MoveTime = DefaultMoveTime
	}
	if s.limitStrength {
		if d := engine.DepthForElo(s.elo); limits.Depth == 0 || d < limits.Depth {
			limits.Depth = d
		}
	}
	return limits
}

// handleGo starts a search in the background.
func (s *Server) handleGo(args []string) {
	opts := parseGoOptions(args)
	if !opts.Infinite {
		if m, ok := s.book.Probe(s.position); ok {
			s.printf("info string book move")
			s.printf("bestmove %s", m)
			return
		}
	}
	limits := s.calculateLimits(opts)

	// pv is only touched by the search goroutine.
	var pv []board.Move
	s.engine.OnInfo = func(info engine.SearchInfo) {
		pv = info.PV
		s.sendInfo(info)
	}

	s.engine.ClearStop()
	s.searching = true
	s.searchDone = make(chan struct{})
	pos := s.position.Copy()

	go func() {
		defer close(s.searchDone)
		move, ok := s.engine.SearchWithLimits(pos, limits)
		s.log.Debugw("search finished", "nodes", s.engine.Nodes(), "move", move, "found", ok)
		if !ok {
			s.printf("bestmove (none)")
			return
		}
		if len(pv) > 1 && pv[0] == move {
			s.printf("bestmove %s ponder %s", move, pv[1])
			return
		}
		s.printf("bestmove %s", move)
	}()
}

// sendInfo outputs search info in UCI format.
func (s *Server) sendInfo(info engine.SearchInfo) {
	parts := []string{fmt.Sprintf("depth %d", info.Depth)}

	if info.Score > engine.MateScore-100 {
		parts = append(parts, fmt.Sprintf("score mate %d", (engine.MateScore-info.Score+1)/2))
	} else if info.Score < -engine.MateScore+100 {
		parts = append(parts, fmt.Sprintf("score mate %d", -(engine.MateScore+info.Score+1)/2))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}
	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}
	s.printf("info %s", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (s *Server) handleStop() {
	if s.searching {
		s.engine.Stop()
		s.waitSearch()
	}
}

func (s *Server) waitSearch() {
	if s.searching {
		<-s.searchDone
		s.searching = false
	}
}

// handleSetOption processes "setoption name <name> value <value>".
func (s *Server) handleSetOption(args []string) {
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "uci_variant":
		if !strings.EqualFold(value, rules.Variant) {
			s.printf("info string unsupported variant %s", value)
			return
		}
		s.variant = rules.Variant
	case "uci_limitstrength":
		s.limitStrength = strings.EqualFold(value, "true")
	case "uci_elo":
		elo, err := strconv.Atoi(value)
		if err != nil || elo < engine.MinElo || elo > engine.MaxElo {
			s.printf("info string invalid UCI_Elo %s", value)
			return
		}
		s.elo = elo
	default:
		s.printf("info string unknown option %s", name)
	}
}

// handlePerft runs a perft test.
func (s *Server) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			s.printf("info string invalid perft depth %s", args[0])
			return
		}
		depth = d
	}

	start := time.Now()
	nodes := s.position.Perft(depth)
	elapsed := time.Since(start)

	s.printf("Nodes: %d", nodes)
	s.printf("Time: %v", elapsed)
}
