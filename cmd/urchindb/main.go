// urchindb-cli is a simple interactive shell for poking at an urchindb
// store file.
//
// Usage:
//
//	urchindb-cli --store <name>
//
// Commands (in REPL):
//
//	store <key> <value>   Insert or update a key
//	fetch <key>            Retrieve a key's value
//	del <key>              Delete a key
//	scan [limit]            List live keys (and their values) in bucket order
//	stats                   Show operation and frame-pool counters
//	bulk <count> [prefix]  Insert N random keys
//	seq <count> [start]    Insert N sequential keys
//	bench <count>          Benchmark store+fetch performance
//	help                    Show this help
//	exit / quit / q         Exit
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	atomicfile "github.com/natefinch/atomic"
	"github.com/peterh/liner"
	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	"urchindb"
)

// rcConfig is the optional ~/.urchindbrc file: a hujson (JSON-with-comments)
// document so operators can annotate their settings, in the spirit of the
// teacher's own willingness to take configuration in a forgiving format.
type rcConfig struct {
	HistoryFile string `json:"historyFile"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("urchindb-cli", pflag.ContinueOnError)
	storeName := fs.StringP("store", "s", "", "store name (backing file is <name>.idx)")
	rcPath := fs.String("rc", defaultRCPath(), "path to an optional hujson config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: urchindb-cli --store <name>\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *storeName == "" {
		fs.Usage()
		return errors.New("missing --store")
	}

	cfg, err := loadRC(*rcPath)
	if err != nil {
		return fmt.Errorf("loading rc file: %w", err)
	}

	db, err := urchindb.Open(*storeName)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	repl := &REPL{db: db, storeName: *storeName, cfg: cfg}
	return repl.Run()
}

// defaultRCPath returns ~/.urchindbrc, or "" if the home directory cannot
// be determined.
func defaultRCPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".urchindbrc")
}

// loadRC reads an optional hujson config file, tolerating its absence
// entirely — an rc file is a convenience, never a requirement.
func loadRC(path string) (rcConfig, error) {
	var cfg rcConfig
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := json.Unmarshal(std, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// REPL is the interactive command loop.
type REPL struct {
	db        *urchindb.DB
	storeName string
	cfg       rcConfig
	liner     *liner.State
}

// historyFile returns the path to the history file: the rc file's
// HistoryFile if set, otherwise ~/.urchindb_history.
func (r *REPL) historyFile() string {
	if r.cfg.HistoryFile != "" {
		return r.cfg.HistoryFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".urchindb_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(r.historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("urchindb - store %q\n", r.storeName)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("urchindb> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil

		case "help", "?":
			r.printHelp()

		case "store", "put", "set":
			r.cmdStore(args)

		case "fetch", "get":
			r.cmdFetch(args)

		case "del", "delete":
			r.cmdDelete(args)

		case "scan", "ls", "list":
			r.cmdScan(args)

		case "stats":
			r.cmdStats()

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		case "bulk":
			r.cmdBulk(args)

		case "seq":
			r.cmdSeq(args)

		case "bench":
			r.cmdBench(args)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

// saveHistory persists command history to disk, via an atomic replace so a
// crash mid-write never leaves a truncated history file.
func (r *REPL) saveHistory() {
	path := r.historyFile()
	if path == "" {
		return
	}

	var buf bytes.Buffer
	if _, err := r.liner.WriteHistory(&buf); err != nil {
		return
	}
	_ = atomicfile.WriteFile(path, &buf)
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"store", "put", "set", "fetch", "get", "del", "delete",
		"scan", "ls", "list", "stats", "bulk", "seq", "bench",
		"clear", "cls", "help", "exit", "quit", "q",
	}

	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  store <key> <value>    Insert or update a key")
	fmt.Println("  fetch <key>            Retrieve a key's value")
	fmt.Println("  del <key>              Delete a key")
	fmt.Println("  scan [limit]           List live keys in bucket order")
	fmt.Println("  stats                  Show operation and frame-pool counters")
	fmt.Println("  bulk <count> [prefix]  Insert N random keys")
	fmt.Println("  seq <count> [start]    Insert N sequential keys")
	fmt.Println("  bench <count>          Benchmark store+fetch performance")
	fmt.Println("  help                   Show this help")
	fmt.Println("  exit / quit / q        Exit")
	fmt.Println()
	fmt.Println("Keys and values: hex (e.g., 'deadbeef') or plain text (e.g., 'foo').")
}

// parseBytes parses a key or value from user input: hex first, plain text
// on failure, exactly as the teacher's sloty REPL does for its keys.
func parseBytes(s string) []byte {
	raw, err := hex.DecodeString(s)
	if err != nil {
		raw = []byte(s)
	}
	return raw
}

// formatBytes renders b as text if printable, otherwise as hex.
func formatBytes(b []byte) string {
	printable := true
	for _, c := range b {
		if c < 32 || c > 126 {
			printable = false
			break
		}
	}
	if printable && len(b) > 0 {
		return fmt.Sprintf("%q", string(b))
	}
	if len(b) == 0 {
		return "(empty)"
	}
	return hex.EncodeToString(b)
}

func (r *REPL) cmdStore(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: store <key> <value>")
		return
	}

	key := parseBytes(args[0])
	value := parseBytes(args[1])

	if err := r.db.Store(key, value); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: stored %s\n", formatBytes(key))
}

func (r *REPL) cmdFetch(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: fetch <key>")
		return
	}

	key := parseBytes(args[0])
	value, ok, err := r.db.Fetch(key)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("(not found)")
		return
	}
	fmt.Printf("%s\n", formatBytes(value))
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")
		return
	}

	key := parseBytes(args[0])
	err := r.db.Delete(key)
	switch {
	case err == nil:
		fmt.Printf("OK: deleted %s\n", formatBytes(key))
	case errors.Is(err, urchindb.ErrNotFound):
		fmt.Printf("%s did not exist\n", formatBytes(key))
	default:
		fmt.Printf("Error: %v\n", err)
	}
}

func (r *REPL) cmdScan(args []string) {
	limit := 20
	if len(args) >= 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Error parsing limit: %v\n", err)
			return
		}
		limit = n
	}

	r.db.Rewind()
	printed := 0
	for printed < limit {
		key, ok, err := r.db.Next()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if !ok {
			break
		}

		value, found, err := r.db.Fetch(key)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if !found {
			continue
		}

		printed++
		fmt.Printf("%3d. %s = %s\n", printed, formatBytes(key), formatBytes(value))
	}

	if printed == 0 {
		fmt.Println("(empty)")
	} else if printed == limit {
		fmt.Printf("... (showing first %d, use 'scan <limit>' for more)\n", limit)
	}
}

func (r *REPL) cmdStats() {
	s := r.db.Stats()
	fmt.Printf("Inserts:      %d\n", s.Inserts)
	fmt.Printf("Updates:      %d\n", s.Updates)
	fmt.Printf("Deletes:      %d\n", s.Deletes)
	fmt.Printf("Hits:         %d\n", s.Hits)
	fmt.Printf("Misses:       %d\n", s.Misses)
	fmt.Printf("Frame hits:   %d\n", s.FrameHits)
	fmt.Printf("Frame misses: %d\n", s.FrameMisses)
	fmt.Printf("Dirty frames: %d\n", s.DirtyFrames)
}

func (r *REPL) cmdBulk(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: bulk <count> [prefix]")
		return
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		fmt.Println("Error: count must be a positive integer")
		return
	}

	var prefix []byte
	if len(args) >= 2 {
		prefix = parseBytes(args[1])
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		key := make([]byte, len(prefix)+8)
		copy(key, prefix)
		rand.Read(key[len(prefix):])

		value := make([]byte, 8)
		binary.LittleEndian.PutUint64(value, uint64(time.Now().UnixNano()))

		if err := r.db.Store(key, value); err != nil {
			fmt.Printf("Error at entry %d: %v\n", i+1, err)
			return
		}
	}

	elapsed := time.Since(start)
	rate := float64(count) / elapsed.Seconds()
	fmt.Printf("OK: inserted %d entries in %v (%.0f ops/sec)\n", count, elapsed.Round(time.Millisecond), rate)
}

func (r *REPL) cmdSeq(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: seq <count> [start]")
		return
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		fmt.Println("Error: count must be a positive integer")
		return
	}

	startNum := uint64(1)
	if len(args) >= 2 {
		startNum, err = strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			fmt.Printf("Error parsing start: %v\n", err)
			return
		}
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, startNum+uint64(i))

		value := make([]byte, 8)
		binary.LittleEndian.PutUint64(value, startNum+uint64(i))

		if err := r.db.Store(key, value); err != nil {
			fmt.Printf("Error at entry %d: %v\n", i+1, err)
			return
		}
	}

	elapsed := time.Since(start)
	rate := float64(count) / elapsed.Seconds()
	fmt.Printf("OK: inserted %d sequential entries in %v (%.0f ops/sec)\n", count, elapsed.Round(time.Millisecond), rate)
}

func (r *REPL) cmdBench(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: bench <count>")
		return
	}

	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		fmt.Println("Error: count must be a positive integer")
		return
	}

	keys := make([][]byte, count)
	for i := range keys {
		keys[i] = make([]byte, 16)
		rand.Read(keys[i])
	}

	fmt.Printf("Benchmarking %d operations...\n", count)

	putStart := time.Now()
	for i, key := range keys {
		value := make([]byte, 8)
		binary.LittleEndian.PutUint64(value, uint64(i))
		if err := r.db.Store(key, value); err != nil {
			fmt.Printf("Error at store %d: %v\n", i+1, err)
			return
		}
	}
	putElapsed := time.Since(putStart)

	getStart := time.Now()
	hits := 0
	for _, key := range keys {
		_, found, err := r.db.Fetch(key)
		if err != nil {
			fmt.Printf("Error on fetch: %v\n", err)
			return
		}
		if found {
			hits++
		}
	}
	getElapsed := time.Since(getStart)

	fmt.Printf("\nResults:\n")
	fmt.Printf("  Stores: %d ops in %v (%.0f ops/sec)\n",
		count, putElapsed.Round(time.Millisecond), float64(count)/putElapsed.Seconds())
	fmt.Printf("  Fetches: %d ops in %v (%.0f ops/sec), %d hits\n",
		count, getElapsed.Round(time.Millisecond), float64(count)/getElapsed.Seconds(), hits)
}
