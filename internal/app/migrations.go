package app

import "serotonyl.ru/drum/internal/db/postgres"

// SQL-миграции встроены в код для упрощения деплоя.
var migrations = []postgres.Migration{
	{Version: 1, Name: "profiles", SQL: migration001Profiles},
	{Version: 2, Name: "chambers", SQL: migration002Chambers},
	{Version: 3, Name: "links", SQL: migration003Links},
	{Version: 4, Name: "ratings", SQL: migration004Ratings},
	{Version: 5, Name: "economy", SQL: migration005Economy},
	{Version: 6, Name: "dates_timestamptz", SQL: migration006DatesTZ},
}

var migration001Profiles = `
CREATE TABLE IF NOT EXISTS profiles (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    karma INTEGER NOT NULL DEFAULT 0,
    balance NUMERIC(8,2) NOT NULL DEFAULT 5.00,
    total_up_given INTEGER NOT NULL DEFAULT 0,
    total_down_given INTEGER NOT NULL DEFAULT 0,
    total_users_paid INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_profiles_username ON profiles(LOWER(username));
`

var migration002Chambers = `
CREATE TABLE IF NOT EXISTS chambers (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(64) UNIQUE NOT NULL,
    display_name VARCHAR(255) NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    owner_id BIGINT NOT NULL REFERENCES profiles(user_id),
    balance NUMERIC(8,2) NOT NULL DEFAULT 0,
    min_thread_balance NUMERIC(8,2) NOT NULL DEFAULT 0,
    min_comment_balance NUMERIC(8,2) NOT NULL DEFAULT 0,
    automod_can_fine BOOLEAN NOT NULL DEFAULT FALSE,
    max_fine NUMERIC(8,2) NOT NULL DEFAULT 0,
    automod_slots JSONB NOT NULL DEFAULT '[]',
    publish_date TIMESTAMP NOT NULL DEFAULT NOW(),
    rating_sum INTEGER NOT NULL DEFAULT 0,
    comments_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chambers_publish_date ON chambers(publish_date DESC);
`

var migration003Links = `
CREATE TABLE IF NOT EXISTS threads (
    id BIGSERIAL PRIMARY KEY,
    chamber VARCHAR(64) NOT NULL REFERENCES chambers(name),
    author_id BIGINT NOT NULL REFERENCES profiles(user_id),
    title VARCHAR(255) NOT NULL,
    link TEXT NOT NULL DEFAULT '',
    normalized_link TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    publish_date TIMESTAMP NOT NULL DEFAULT NOW(),
    rating_sum INTEGER NOT NULL DEFAULT 0,
    comments_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_threads_chamber_date ON threads(chamber, publish_date DESC);
CREATE INDEX IF NOT EXISTS idx_threads_author ON threads(author_id);
CREATE INDEX IF NOT EXISTS idx_threads_duplicate ON threads(chamber, normalized_link, publish_date);

CREATE TABLE IF NOT EXISTS comments (
    id BIGSERIAL PRIMARY KEY,
    thread_id BIGINT NOT NULL REFERENCES threads(id),
    chamber VARCHAR(64) NOT NULL REFERENCES chambers(name),
    author_id BIGINT NOT NULL REFERENCES profiles(user_id),
    body TEXT NOT NULL,
    submit_date TIMESTAMP NOT NULL DEFAULT NOW(),
    rating_sum INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_comments_thread ON comments(thread_id, submit_date DESC);
`

var migration004Ratings = `
CREATE TABLE IF NOT EXISTS ratings (
    id BIGSERIAL PRIMARY KEY,
    content_type VARCHAR(16) NOT NULL,
    content_id BIGINT NOT NULL,
    user_id BIGINT NOT NULL REFERENCES profiles(user_id),
    author_id BIGINT NOT NULL,
    value SMALLINT NOT NULL CHECK (value IN (-1, 1)),
    created_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (content_type, content_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_ratings_author ON ratings(author_id);

CREATE TABLE IF NOT EXISTS karma_logs (
    id BIGSERIAL PRIMARY KEY,
    from_user_id BIGINT NOT NULL,
    to_user_id BIGINT NOT NULL,
    content_type VARCHAR(16) NOT NULL,
    content_id BIGINT NOT NULL,
    event_kind VARCHAR(16) NOT NULL,
    points INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_karma_logs_to_user ON karma_logs(to_user_id, created_at DESC);
`

var migration005Economy = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    from_user_id BIGINT REFERENCES profiles(user_id),
    to_user_id BIGINT REFERENCES profiles(user_id),
    amount NUMERIC(8,2) NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_from_user ON transactions(from_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to_user ON transactions(to_user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

// Даты публикаций писались как UTC без зоны; переводим в TIMESTAMPTZ.
var migration006DatesTZ = `
ALTER TABLE chambers ALTER COLUMN publish_date TYPE TIMESTAMPTZ USING publish_date AT TIME ZONE 'UTC';
ALTER TABLE chambers ALTER COLUMN publish_date SET DEFAULT NOW();
ALTER TABLE threads ALTER COLUMN publish_date TYPE TIMESTAMPTZ USING publish_date AT TIME ZONE 'UTC';
ALTER TABLE threads ALTER COLUMN publish_date SET DEFAULT NOW();
ALTER TABLE comments ALTER COLUMN submit_date TYPE TIMESTAMPTZ USING submit_date AT TIME ZONE 'UTC';
ALTER TABLE comments ALTER COLUMN submit_date SET DEFAULT NOW();
`
