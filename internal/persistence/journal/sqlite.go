// Package journal persists the engine's audit trail: every accepted or
// refused operation and every committed-state event, in sequence order.
// Writes go through a single writer goroutine so the engine never
// stalls on disk.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/critterchain/critterchain/internal/core/events/bus"
	"github.com/critterchain/critterchain/internal/core/observability/log"
)

// OpRecord is one audited operation.
type OpRecord struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Caller    string    `json:"caller"`
	Op        string    `json:"op"`
	Params    any       `json:"params"`
	Err       string    `json:"error,omitempty"`
}

// EventRecord is one persisted bus event.
type EventRecord struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Type      string    `json:"type"`
	Payload   string    `json:"payload"`
}

type reqKind int

const (
	reqOp reqKind = iota + 1
	reqEvent
	reqSync
)

type req struct {
	kind  reqKind
	op    OpRecord
	event EventRecord
	ack   chan struct{}
}

// Journal is a SQLite-backed append-only audit log.
type Journal struct {
	db *sql.DB

	ch     chan req
	wg     sync.WaitGroup
	closed atomic.Bool
	once   sync.Once

	log log.Log
}

// Open creates or reopens the journal at path.
func Open(path string, logger log.Log) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("empty journal path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	j := &Journal{
		db:  db,
		ch:  make(chan req, 4096),
		log: logger.With(log.String("component", "journal")),
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop()
	}()
	return j, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only write pattern.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS operations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			request_id TEXT NOT NULL,
			caller TEXT NOT NULL,
			op TEXT NOT NULL,
			params TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_operations_caller ON operations(caller, seq);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			source TEXT NOT NULL,
			type TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordOp appends one operation record. Records offered after Close,
// or while the buffer is full, are dropped.
func (j *Journal) RecordOp(rec OpRecord) {
	if j.closed.Load() {
		return
	}
	select {
	case j.ch <- req{kind: reqOp, op: rec}:
	default:
		j.log.Warn("journal buffer full, op record dropped", log.String("op", rec.Op))
	}
}

// Attach subscribes the journal to every event on the bus.
func (j *Journal) Attach(b bus.EventBus) bus.Subscription {
	return b.Subscribe(bus.Wildcard, func(e bus.Event) error {
		payload, err := json.Marshal(e.Data())
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", e.Type(), err)
		}
		if j.closed.Load() {
			return nil
		}
		select {
		case j.ch <- req{kind: reqEvent, event: EventRecord{
			Timestamp: e.Timestamp(),
			Source:    e.Source(),
			Type:      e.Type(),
			Payload:   string(payload),
		}}:
		default:
			j.log.Warn("journal buffer full, event dropped", log.String("type", e.Type()))
		}
		return nil
	})
}

func (j *Journal) loop() {
	for r := range j.ch {
		var err error
		switch r.kind {
		case reqSync:
			close(r.ack)
			continue
		case reqOp:
			params, merr := json.Marshal(r.op.Params)
			if merr != nil {
				params = []byte("{}")
			}
			_, err = j.db.Exec(
				`INSERT INTO operations (ts, request_id, caller, op, params, error) VALUES (?, ?, ?, ?, ?, ?)`,
				r.op.Timestamp.Unix(), r.op.RequestID, r.op.Caller, r.op.Op, string(params), r.op.Err,
			)
		case reqEvent:
			_, err = j.db.Exec(
				`INSERT INTO events (ts, source, type, payload) VALUES (?, ?, ?, ?)`,
				r.event.Timestamp.Unix(), r.event.Source, r.event.Type, r.event.Payload,
			)
		}
		if err != nil {
			j.log.Error("journal write failed", log.Error(err))
		}
	}
}

// Flush blocks until every record accepted so far is written.
func (j *Journal) Flush() {
	if j.closed.Load() {
		return
	}
	ack := make(chan struct{})
	j.ch <- req{kind: reqSync, ack: ack}
	<-ack
}

// Close flushes and closes the journal.
func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		j.closed.Store(true)
		close(j.ch)
		j.wg.Wait()
		err = j.db.Close()
	})
	return err
}

// Ops returns the most recent operation records, newest first, up to
// limit.
func (j *Journal) Ops(limit int) ([]OpRecord, error) {
	rows, err := j.db.Query(
		`SELECT seq, ts, request_id, caller, op, params, error FROM operations ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OpRecord
	for rows.Next() {
		var rec OpRecord
		var ts int64
		var params string
		if err := rows.Scan(&rec.Seq, &ts, &rec.RequestID, &rec.Caller, &rec.Op, &params, &rec.Err); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		rec.Params = params
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Events returns persisted events of one type (or all when typ is
// empty), oldest first, up to limit.
func (j *Journal) Events(typ string, limit int) ([]EventRecord, error) {
	query := `SELECT seq, ts, source, type, payload FROM events`
	args := []any{}
	if typ != "" {
		query += ` WHERE type = ?`
		args = append(args, typ)
	}
	query += ` ORDER BY seq ASC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		var ts int64
		if err := rows.Scan(&rec.Seq, &ts, &rec.Source, &rec.Type, &rec.Payload); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
