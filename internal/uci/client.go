package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/losalamos/internal/board"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/rules"
)

// State is the lifecycle state of a Session.
type State int32

const (
	Uninitialized State = iota
	Ready
	Thinking
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Thinking:
		return "thinking"
	default:
		return "terminated"
	}
}

const (
	defaultReadTimeout = 10 * time.Second
	defaultMoveTime    = time.Second
	closeGrace         = 2 * time.Second
	lineBuffer         = 256
)

// Config describes the engine process and its limits.
type Config struct {
	Path        string
	Args        []string
	Env         []string // appended to the current environment
	Variant     string
	MoveTime    time.Duration
	ReadTimeout time.Duration // bound on every wait for an engine reply
	Logger      *zap.SugaredLogger
}

type request struct {
	ctx     context.Context
	op      string
	send    []string
	until   string // reply prefix to wait for; empty sends only
	timeout time.Duration
	reply   chan response
}

type response struct {
	line string
	err  error
}

// Session is a client for one engine process. A single worker goroutine
// owns the process pipes; public methods submit requests to it and block on
// the reply, so commands from concurrent callers never interleave.
type Session struct {
	cfg Config
	log *zap.SugaredLogger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exited chan struct{}

	requests chan request
	quit     chan struct{}
	done     chan struct{}

	state     atomic.Int32
	elo       atomic.Int64
	closeOnce sync.Once
}

// Start launches the engine and completes the uci/uciok handshake.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Path == "" {
		return nil, &OpError{Op: "start", Err: errors.New("no engine path configured")}
	}
	if cfg.Variant == "" {
		cfg.Variant = rules.Variant
	}
	if cfg.MoveTime <= 0 {
		cfg.MoveTime = defaultMoveTime
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Env = append(os.Environ(), cfg.Env...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &OpError{Op: "start", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &OpError{Op: "start", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &OpError{Op: "start", Err: err}
	}

	s := &Session{
		cfg:      cfg,
		log:      cfg.Logger.With("engine", cfg.Path, "pid", cmd.Process.Pid),
		cmd:      cmd,
		stdin:    stdin,
		lines:    make(chan string, lineBuffer),
		exited:   make(chan struct{}),
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.state.Store(int32(Uninitialized))

	readerDone := make(chan struct{})
	go s.readLines(stdout, readerDone)
	go func() {
		<-readerDone
		err := cmd.Wait()
		s.log.Debugw("engine exited", "error", err)
		close(s.exited)
	}()
	go s.loop()

	if _, err := s.call(ctx, request{op: "handshake", send: []string{"uci"}, until: "uciok"}); err != nil {
		s.Close()
		return nil, err
	}
	s.log.Infow("engine started", "variant", cfg.Variant)
	return s, nil
}

func (s *Session) readLines(r io.Reader, done chan<- struct{}) {
	defer close(done)
	defer close(s.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.lines <- strings.TrimSpace(scanner.Text())
	}
}

// loop is the worker that owns stdin and the line stream.
func (s *Session) loop() {
	defer func() {
		close(s.done)
		// Keep the reader unblocked so the process can be reaped.
		go func() {
			for range s.lines {
			}
		}()
	}()
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.requests:
			line, err := s.handle(req)
			req.reply <- response{line: line, err: err}
			if errors.Is(err, ErrEngineUnresponsive) || errors.Is(err, ErrEngineExited) {
				s.terminate(err)
				return
			}
		}
	}
}

func (s *Session) handle(req request) (string, error) {
	for _, c := range req.send {
		s.log.Debugw("engine <", "cmd", c)
		if _, err := io.WriteString(s.stdin, c+"\n"); err != nil {
			return "", fmt.Errorf("%w: write %q: %v", ErrEngineExited, c, err)
		}
	}
	if req.until == "" {
		return "", nil
	}

	timeout := req.timeout
	if timeout <= 0 {
		timeout = s.cfg.ReadTimeout
	}
	line, err := s.await(req.ctx, req.until, timeout)
	if err == nil || req.ctx.Err() == nil || !errors.Is(err, req.ctx.Err()) {
		return line, err
	}

	// The caller gave up. Resynchronise so the stale reply is not taken as
	// the answer to the next request.
	if req.until == "bestmove" {
		io.WriteString(s.stdin, "stop\n")
	}
	if _, derr := s.await(context.Background(), req.until, s.cfg.ReadTimeout); derr != nil {
		return "", derr
	}
	return "", err
}

// await reads lines until one starts with prefix.
func (s *Session) await(ctx context.Context, prefix string, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				return "", ErrEngineExited
			}
			s.log.Debugw("engine >", "line", line)
			if line == prefix || strings.HasPrefix(line, prefix+" ") {
				return line, nil
			}
		case <-timer.C:
			return "", fmt.Errorf("%w: waiting %v for %q", ErrEngineUnresponsive, timeout, prefix)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (s *Session) terminate(cause error) {
	s.state.Store(int32(Terminated))
	s.log.Errorw("engine session terminated", "error", cause)
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
}

// call submits a request to the worker and waits for its reply.
func (s *Session) call(ctx context.Context, req request) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req.ctx = ctx
	req.reply = make(chan response, 1)

	select {
	case s.requests <- req:
	case <-s.done:
		return "", &OpError{Op: req.op, Err: ErrSessionClosed}
	case <-ctx.Done():
		return "", &OpError{Op: req.op, Err: ctx.Err()}
	}
	r := <-req.reply
	if r.err != nil {
		return "", &OpError{Op: req.op, Err: r.err}
	}
	return r.line, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Elo returns the configured strength limit, or 0 if none was set.
func (s *Session) Elo() int {
	return int(s.elo.Load())
}

// MoveTime returns the search budget used by RequestBestMove.
func (s *Session) MoveTime() time.Duration {
	return s.cfg.MoveTime
}

// NewGame resets the engine, selects the variant and sends the start position.
func (s *Session) NewGame(ctx context.Context, startFEN string) error {
	pos := "position startpos"
	if startFEN != "" && startFEN != board.StartFEN {
		pos = "position fen " + startFEN
	}
	_, err := s.call(ctx, request{op: "new game", send: []string{
		"ucinewgame",
		"setoption name UCI_Variant value " + s.cfg.Variant,
		pos,
	}})
	if err != nil {
		return err
	}
	s.state.Store(int32(Ready))
	return nil
}

// SetStrength limits the engine to the given rating.
func (s *Session) SetStrength(ctx context.Context, elo int) error {
	if elo < engine.MinElo || elo > engine.MaxElo {
		return &OpError{Op: "set strength", Err: fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidElo, elo, engine.MinElo, engine.MaxElo)}
	}
	_, err := s.call(ctx, request{op: "set strength", send: []string{
		"setoption name UCI_LimitStrength value true",
		fmt.Sprintf("setoption name UCI_Elo value %d", elo),
	}})
	if err != nil {
		return err
	}
	s.elo.Store(int64(elo))
	return nil
}

// SyncPosition sends the current position to the engine.
func (s *Session) SyncPosition(ctx context.Context, fen string) error {
	_, err := s.call(ctx, request{op: "sync position", send: []string{"position fen " + fen}})
	return err
}

// IsReady probes the engine. It reports false if the engine does not answer
// before the read timeout or has exited.
func (s *Session) IsReady(ctx context.Context) bool {
	_, err := s.call(ctx, request{op: "is ready", send: []string{"isready"}, until: "readyok"})
	if err != nil {
		s.log.Warnw("engine not ready", "error", err)
		return false
	}
	return true
}

// RequestBestMove runs a timed search and returns the engine's move in
// long-algebraic form.
func (s *Session) RequestBestMove(ctx context.Context) (string, error) {
	if !s.state.CompareAndSwap(int32(Ready), int32(Thinking)) {
		if s.State() == Terminated {
			return "", &OpError{Op: "best move", Err: ErrSessionClosed}
		}
		return "", &OpError{Op: "best move", Err: fmt.Errorf("%w: session is %v", ErrProtocol, s.State())}
	}
	line, err := s.call(ctx, request{
		op:      "best move",
		send:    []string{fmt.Sprintf("go movetime %d", s.cfg.MoveTime.Milliseconds())},
		until:   "bestmove",
		timeout: s.cfg.MoveTime + s.cfg.ReadTimeout,
	})
	s.state.CompareAndSwap(int32(Thinking), int32(Ready))
	if err != nil {
		return "", err
	}
	move, _, err := ParseBestMove(line)
	if err != nil {
		return "", &OpError{Op: "best move", Err: err}
	}
	return move, nil
}

// ParseBestMove extracts the move and optional ponder move from a line of
// the form "bestmove <move> [ponder <move>]".
func ParseBestMove(line string) (move, ponder string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return "", "", fmt.Errorf("%w: %q", ErrProtocol, line)
	}
	move = board.CanonicalLAN(fields[1])
	if move == "(none)" || move == "0000" {
		return "", "", ErrNoBestMove
	}
	if _, err := board.ParseMove(move, board.WhiteAtBottom); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if len(fields) >= 4 && fields[2] == "ponder" {
		ponder = board.CanonicalLAN(fields[3])
	}
	return move, ponder, nil
}

// Close asks the engine to quit and kills it if it does not exit promptly.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
		defer cancel()
		_, _ = s.call(ctx, request{op: "quit", send: []string{"quit"}})

		close(s.quit)
		<-s.done
		s.stdin.Close()

		select {
		case <-s.exited:
		case <-time.After(closeGrace):
			s.log.Warnw("engine ignored quit, killing")
			_ = s.cmd.Process.Kill()
			<-s.exited
		}
		s.state.Store(int32(Terminated))
	})
	return nil
}
