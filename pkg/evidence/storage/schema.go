package storage

// schema is the evidence database schema. Timestamps are stored as
// Unix milliseconds; category and verdict columns hold JSON.
const schema = `
CREATE TABLE IF NOT EXISTS turn_evidence (
	id                  TEXT PRIMARY KEY,
	turn_id             TEXT NOT NULL,
	recorded_at         INTEGER NOT NULL,
	blocked             BOOLEAN NOT NULL DEFAULT 0,
	fell_back           BOOLEAN NOT NULL DEFAULT 0,
	prompt_hash         TEXT NOT NULL DEFAULT '',
	response_hash       TEXT NOT NULL DEFAULT '',
	prompt_findings     INTEGER NOT NULL DEFAULT 0,
	response_findings   INTEGER NOT NULL DEFAULT 0,
	prompt_categories   TEXT NOT NULL DEFAULT 'null',
	response_categories TEXT NOT NULL DEFAULT 'null',
	prompt_verdicts     TEXT NOT NULL DEFAULT 'null',
	response_verdicts   TEXT NOT NULL DEFAULT 'null'
);

CREATE INDEX IF NOT EXISTS idx_turn_evidence_recorded_at ON turn_evidence(recorded_at);
CREATE INDEX IF NOT EXISTS idx_turn_evidence_turn_id ON turn_evidence(turn_id);
CREATE INDEX IF NOT EXISTS idx_turn_evidence_blocked ON turn_evidence(blocked);
`
