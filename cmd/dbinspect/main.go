package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/earconlabs/earcon/internal/history"
)

const prefPrefix = "pref:"

func main() {
	dataDir := os.Getenv("EARCON_DATA_DIR")
	if dataDir == "" {
		dataDir = os.ExpandEnv("$HOME/.earcon")
	}

	fmt.Println("=== Daemon State Inspection ===")
	fmt.Printf("Data dir: %s\n", dataDir)
	fmt.Println()

	inspectPreferences(filepath.Join(dataDir, "prefs"))
	fmt.Println()
	inspectLedger(filepath.Join(dataDir, "history.db"))
}

func inspectPreferences(path string) {
	fmt.Println("=== Preferences ===")

	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open preference database: %v", err)
	}
	defer db.Close()

	stored := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), prefPrefix)

			err := item.Value(func(val []byte) error {
				// Values are stored as JSON scalars; print them raw.
				fmt.Printf("  %s = %s\n", name, val)
				return nil
			})
			if err != nil {
				return err
			}
			stored++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating preferences: %v", err)
	}

	if stored == 0 {
		fmt.Println("  (no preferences stored; engine runs on defaults)")
	}
}

func inspectLedger(path string) {
	fmt.Println("=== Playback Ledger ===")

	if _, err := os.Stat(path); err != nil {
		fmt.Println("  (no ledger database)")
		return
	}

	store, err := history.Open(path, nil)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := store.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to read ledger stats: %v", err)
	}

	fmt.Printf("Total attempts: %d\n", stats.Total)
	fmt.Printf("Failures: %d\n", stats.Failures)
	for reason, count := range stats.ByReason {
		fmt.Printf("  %s: %d\n", reason, count)
	}

	records, err := store.List(ctx, history.ListParams{Limit: 10})
	if err != nil {
		log.Fatalf("Failed to list ledger records: %v", err)
	}

	if len(records) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Recent attempts:")
	for _, r := range records {
		status := "ok"
		if !r.OK {
			status = r.Reason
		}
		name := r.Name
		if r.Set != "" {
			name = r.Set + "/" + r.Name
		}
		fmt.Printf("  %s  %-28s %-18s %s\n",
			r.At.Format(time.RFC3339), name, status, r.Source)
	}
}
