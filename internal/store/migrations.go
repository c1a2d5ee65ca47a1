package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                   TEXT PRIMARY KEY,
    scope                TEXT NOT NULL DEFAULT '',
    generated_at         DATETIME NOT NULL,
    total_events         INTEGER NOT NULL DEFAULT 0,
    pending_events       INTEGER NOT NULL DEFAULT 0,
    total_posts          INTEGER NOT NULL DEFAULT 0,
    top_hot_score        INTEGER NOT NULL DEFAULT 0,
    max_attractive_score INTEGER NOT NULL DEFAULT 1,
    view                 TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs(generated_at);
CREATE INDEX IF NOT EXISTS idx_runs_scope ON runs(scope);
`
