package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteLog writes rec as a flat text log: header lines followed by the
// numbered move list.
func WriteLog(w io.Writer, rec GameRecord) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "User: %s\n\n", rec.User)
	fmt.Fprintf(bw, "Date: %s\n", rec.Played.Format("02 January 2006"))
	fmt.Fprintf(bw, "Time: %s\n\n", rec.Played.Format("03:04.05 PM"))
	fmt.Fprintf(bw, "Engine ELO: %d\n\n", rec.EngineElo)
	fmt.Fprintf(bw, "White: %s\n", rec.White)
	fmt.Fprintf(bw, "Black: %s\n", rec.Black)
	fmt.Fprintf(bw, "Result: %s %s\n\n", rec.Result, rec.Reason)
	for i, m := range rec.Moves {
		fmt.Fprintf(bw, "%d. %s ", i+1, m)
	}
	return bw.Flush()
}

// ExportLog writes rec to dir as "<user><n>.txt", where n is one more than
// the number of entries already in dir. Existing files are never
// overwritten.
func ExportLog(dir string, rec GameRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("%s%d.txt", rec.User, len(entries)+1))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", err
	}
	if err := WriteLog(f, rec); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
