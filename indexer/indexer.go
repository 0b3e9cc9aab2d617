// Package indexer drains the chain event log into sqlite so the CLI and
// external watchers can query history without holding the chain in memory.
package indexer

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/powergrid/powergrid-der/chain"
	"github.com/powergrid/powergrid-der/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq      INTEGER PRIMARY KEY,
	ts       INTEGER NOT NULL,
	contract TEXT    NOT NULL,
	kind     TEXT    NOT NULL,
	payload  TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
CREATE INDEX IF NOT EXISTS idx_events_contract ON events(contract);

CREATE VIEW IF NOT EXISTS transfers AS
	SELECT seq, ts,
	       json_extract(payload, '$.from')   AS sender,
	       json_extract(payload, '$.to')     AS recipient,
	       json_extract(payload, '$.amount') AS amount
	FROM events WHERE kind = 'transfer';

CREATE VIEW IF NOT EXISTS participations AS
	SELECT seq, ts, kind,
	       json_extract(payload, '$.event_id') AS event_id,
	       json_extract(payload, '$.account')  AS account
	FROM events
	WHERE kind IN ('participation_recorded', 'participation_verified',
	               'participation_rejected', 'reward_distributed');

CREATE VIEW IF NOT EXISTS proposals AS
	SELECT seq, ts, kind,
	       COALESCE(json_extract(payload, '$.proposal_id'),
	                json_extract(payload, '$.id')) AS proposal_id
	FROM events
	WHERE contract = 'governance' AND kind LIKE 'proposal_%';
`

// Row is one indexed event. Payload is the event's JSON encoding.
type Row struct {
	Seq      uint64 `json:"seq"`
	Ts       uint64 `json:"ts"`
	Contract string `json:"contract"`
	Kind     string `json:"kind"`
	Payload  string `json:"payload"`
}

type Indexer struct {
	db  *sql.DB
	log logger.Logger
}

// Open creates or opens the index database. Use ":memory:" for tests.
func Open(path string, log logger.Logger) (*Indexer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Indexer{db: db, log: log}, nil
}

func (ix *Indexer) Close() error { return ix.db.Close() }

// LastSeq returns the highest indexed sequence number, 0 when empty.
func (ix *Indexer) LastSeq() (uint64, error) {
	var seq sql.NullInt64
	if err := ix.db.QueryRow(`SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, err
	}
	return uint64(seq.Int64), nil
}

// Sync pulls every event the chain emitted after the last indexed sequence.
// Safe to call repeatedly; already-indexed events are skipped.
func (ix *Indexer) Sync(c *chain.Chain) (int, error) {
	last, err := ix.LastSeq()
	if err != nil {
		return 0, err
	}
	pending := c.EventsSince(last)
	if len(pending) == 0 {
		return 0, nil
	}

	tx, err := ix.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO events (seq, ts, contract, kind, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, e := range pending {
		payload, err := json.Marshal(e.Event)
		if err != nil {
			return 0, fmt.Errorf("encode event %d: %w", e.Seq, err)
		}
		if _, err := stmt.Exec(e.Seq, e.Ts, e.Contract, e.Kind, string(payload)); err != nil {
			return 0, fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	ix.log.Debug("index synced",
		logger.WithField("from", last+1),
		logger.WithField("count", len(pending)),
	)
	return len(pending), nil
}

// Events returns up to limit rows ordered by sequence, starting after the
// given sequence number.
func (ix *Indexer) Events(afterSeq uint64, limit int) ([]Row, error) {
	return ix.query(`SELECT seq, ts, contract, kind, payload FROM events WHERE seq > ? ORDER BY seq LIMIT ?`, afterSeq, limit)
}

// ByKind returns the most recent rows of one event kind.
func (ix *Indexer) ByKind(kind string, limit int) ([]Row, error) {
	return ix.query(`SELECT seq, ts, contract, kind, payload FROM events WHERE kind = ? ORDER BY seq DESC LIMIT ?`, kind, limit)
}

// ByContract returns the most recent rows emitted by one contract.
func (ix *Indexer) ByContract(contract string, limit int) ([]Row, error) {
	return ix.query(`SELECT seq, ts, contract, kind, payload FROM events WHERE contract = ? ORDER BY seq DESC LIMIT ?`, contract, limit)
}

// TransferRow is one row of the transfers view.
type TransferRow struct {
	Seq    uint64 `json:"seq"`
	Ts     uint64 `json:"ts"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Transfers returns the most recent token transfers, newest first.
func (ix *Indexer) Transfers(limit int) ([]TransferRow, error) {
	rows, err := ix.db.Query(`SELECT seq, ts, sender, recipient, amount FROM transfers ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransferRow
	for rows.Next() {
		var r TransferRow
		if err := rows.Scan(&r.Seq, &r.Ts, &r.From, &r.To, &r.Amount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ParticipationRow is one row of the participations view: any lifecycle step
// of one account's commitment to one event.
type ParticipationRow struct {
	Seq     uint64 `json:"seq"`
	Ts      uint64 `json:"ts"`
	Kind    string `json:"kind"`
	EventID uint64 `json:"event_id"`
	Account string `json:"account"`
}

// Participations returns an event's participation history, oldest first.
func (ix *Indexer) Participations(eventID uint64) ([]ParticipationRow, error) {
	rows, err := ix.db.Query(`SELECT seq, ts, kind, event_id, account FROM participations WHERE event_id = ? ORDER BY seq`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParticipationRow
	for rows.Next() {
		var r ParticipationRow
		if err := rows.Scan(&r.Seq, &r.Ts, &r.Kind, &r.EventID, &r.Account); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ProposalRow is one lifecycle step of a proposal.
type ProposalRow struct {
	Seq        uint64 `json:"seq"`
	Ts         uint64 `json:"ts"`
	Kind       string `json:"kind"`
	ProposalID uint64 `json:"proposal_id"`
}

// Proposals returns a proposal's lifecycle history, oldest first.
func (ix *Indexer) Proposals(proposalID uint64) ([]ProposalRow, error) {
	rows, err := ix.db.Query(`SELECT seq, ts, kind, proposal_id FROM proposals WHERE proposal_id = ? ORDER BY seq`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProposalRow
	for rows.Next() {
		var r ProposalRow
		if err := rows.Scan(&r.Seq, &r.Ts, &r.Kind, &r.ProposalID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (ix *Indexer) query(q string, args ...interface{}) ([]Row, error) {
	rows, err := ix.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Seq, &r.Ts, &r.Contract, &r.Kind, &r.Payload); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
