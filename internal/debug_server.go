package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const defaultInspectLimit = 100

// InspectRow is one badger entry as shown by the debug endpoint.
type InspectRow struct {
	Key       string          `json:"key"`
	Namespace string          `json:"namespace"`
	EntityID  string          `json:"entity_id"`
	Size      int             `json:"size"`
	Value     json.RawMessage `json:"value,omitempty"`
}

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string         `json:"prefix"`
	Items  []InspectRow   `json:"items"`
	Stats  map[string]any `json:"stats,omitempty"`
}

// NewDebugHandler serves the entries under ?prefix= (default "agora:") as JSON.
// Values are inlined when they hold JSON, which every repository writes.
func NewDebugHandler(db *badger.DB, statsProvider StatsProvider) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "agora:"
		}
		limit := defaultInspectLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		data := PageData{Prefix: prefix, Items: []InspectRow{}}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}
		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)) && len(data.Items) < limit; it.Next() {
				item := it.Item()
				err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, toInspectRow(string(item.Key()), val))
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(data)
	})
	return mux
}

// StartDebugServer serves the debug handler until ctx is done.
func StartDebugServer(ctx context.Context, log *slog.Logger, db *badger.DB, port int, statsProvider StatsProvider) {
	srv := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           NewDebugHandler(db, statsProvider),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Starting debug server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Debug server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// toInspectRow splits keys shaped like "member:<agora>:<user>".
func toInspectRow(key string, val []byte) InspectRow {
	row := InspectRow{Key: key, Namespace: "default", EntityID: "-", Size: len(val)}
	parts := strings.Split(key, ":")
	if len(parts) >= 2 {
		row.Namespace = parts[0]
		row.EntityID = strings.TrimLeft(parts[len(parts)-1], "0")
	}
	if json.Valid(val) {
		row.Value = append(json.RawMessage{}, val...)
	}
	return row
}
