package schema

// SchemaSQL contains the full database schema initialization script
const SchemaSQL = `
-- Remote Progression Schema

-- 1. Scalar progression record, one row per identity
CREATE TABLE IF NOT EXISTS progression_records (
    identity UUID PRIMARY KEY,
    total_xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    last_active_date DATE NOT NULL,
    journey_progress DOUBLE PRECISION NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- 2. Quest completion rows, one per quest per calendar day
CREATE TABLE IF NOT EXISTS quest_completions (
    identity UUID NOT NULL REFERENCES progression_records(identity) ON DELETE CASCADE,
    quest_id VARCHAR(100) NOT NULL,
    completed_on DATE NOT NULL,
    PRIMARY KEY (identity, quest_id, completed_on)
);

CREATE INDEX IF NOT EXISTS idx_quest_completions_identity ON quest_completions(identity);

-- 3. Badge unlock rows
CREATE TABLE IF NOT EXISTS badge_unlocks (
    identity UUID NOT NULL REFERENCES progression_records(identity) ON DELETE CASCADE,
    badge_id VARCHAR(100) NOT NULL,
    unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (identity, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_badge_unlocks_identity ON badge_unlocks(identity);
`
