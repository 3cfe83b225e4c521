// Command losalamos-uci is a UCI engine for Los Alamos chess.
package main

import (
	"flag"
	"os"
	"runtime/pprof"

	"github.com/hailam/losalamos/internal/book"
	"github.com/hailam/losalamos/internal/engine"
	"github.com/hailam/losalamos/internal/logging"
	"github.com/hailam/losalamos/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	logLevel   = flag.String("log-level", "warn", "diagnostic log level (written to stderr)")
	hashSlots  = flag.Int("hash", 1<<18, "transposition table entries")
	bookPath   = flag.String("book", "", "opening book file")
)

func main() {
	flag.Parse()
	log := logging.Must(*logLevel)
	defer log.Sync()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatalw("could not create CPU profile", "error", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalw("could not start CPU profile", "error", err)
		}
		defer pprof.StopCPUProfile()
		log.Infow("CPU profiling enabled", "path", profilePath)
	}

	eng := engine.NewEngine(*hashSlots)
	protocol := uci.NewServer(eng, os.Stdout, log)
	if *bookPath != "" {
		b, err := book.Load(*bookPath)
		if err != nil {
			log.Fatalw("could not load opening book", "path", *bookPath, "error", err)
		}
		log.Infow("opening book loaded", "positions", b.Size())
		protocol.SetBook(b)
	}
	if err := protocol.Run(os.Stdin); err != nil {
		log.Errorw("reading commands", "error", err)
	}
}
