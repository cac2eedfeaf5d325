package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// migration — одна миграция схемы. Версии строго возрастают,
// применённые версии записываются в schema_migrations.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "users",
		sql: `
CREATE TABLE IF NOT EXISTS users (
	user_id         BIGINT PRIMARY KEY,
	username        VARCHAR(64),
	first_name      VARCHAR(128),
	balance         BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	virtual_balance BIGINT NOT NULL DEFAULT 0 CHECK (virtual_balance >= 0),
	total_spent     NUMERIC(12,2) NOT NULL DEFAULT 0,
	role            VARCHAR(16) NOT NULL DEFAULT 'user',
	referral_code   VARCHAR(16) UNIQUE,
	referrer_id     BIGINT REFERENCES users(user_id),
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_action     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_referrer ON users(referrer_id);
`,
	},
	{
		version: 2,
		name:    "promocodes",
		sql: `
CREATE TABLE IF NOT EXISTS promocodes (
	id               SERIAL PRIMARY KEY,
	code             VARCHAR(64) NOT NULL UNIQUE,
	discount_percent INT NOT NULL CHECK (discount_percent > 0 AND discount_percent <= 100),
	max_uses         INT NOT NULL DEFAULT 0,
	used_count       INT NOT NULL DEFAULT 0,
	expires_at       TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
-- order_id без FK: таблица orders создаётся более поздней миграцией
CREATE TABLE IF NOT EXISTS used_promocodes (
	user_id      BIGINT NOT NULL REFERENCES users(user_id),
	promocode_id INT NOT NULL REFERENCES promocodes(id),
	order_id     INT,
	used_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, promocode_id)
);
`,
	},
	{
		version: 3,
		name:    "discount_links",
		sql: `
CREATE TABLE IF NOT EXISTS discount_links (
	id         SERIAL PRIMARY KEY,
	link_code  VARCHAR(64) NOT NULL UNIQUE,
	percent    INT NOT NULL CHECK (percent > 0 AND percent <= 100),
	max_uses   INT NOT NULL DEFAULT 0,
	used_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS user_discounts (
	user_id     BIGINT NOT NULL REFERENCES users(user_id),
	source_link VARCHAR(64) NOT NULL,
	percent     INT NOT NULL,
	used        BOOLEAN NOT NULL DEFAULT FALSE,
	granted_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (user_id, source_link)
);
`,
	},
	{
		version: 4,
		name:    "orders",
		sql: `
CREATE TABLE IF NOT EXISTS orders (
	id            SERIAL PRIMARY KEY,
	user_id       BIGINT NOT NULL REFERENCES users(user_id),
	stars         BIGINT NOT NULL CHECK (stars > 0),
	price         NUMERIC(12,2) NOT NULL,
	discount_pct  INT NOT NULL DEFAULT 0,
	promocode_id  INT REFERENCES promocodes(id),
	discount      NUMERIC(12,2) NOT NULL DEFAULT 0,
	recipient     VARCHAR(64) NOT NULL,
	status        VARCHAR(16) NOT NULL DEFAULT 'pending',
	cancel_reason TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE TABLE IF NOT EXISTS purchase_history (
	id         SERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(user_id),
	order_id   INT REFERENCES orders(id),
	stars      BIGINT NOT NULL,
	price      NUMERIC(12,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_purchase_history_user ON purchase_history(user_id);
`,
	},
	{
		version: 5,
		name:    "withdrawals_exchanges",
		sql: `
CREATE TABLE IF NOT EXISTS withdrawals (
	id           UUID PRIMARY KEY,
	user_id      BIGINT NOT NULL REFERENCES users(user_id),
	amount       BIGINT NOT NULL CHECK (amount > 0),
	payout       BIGINT NOT NULL CHECK (payout > 0),
	recipient    VARCHAR(64) NOT NULL,
	status       VARCHAR(16) NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_withdrawals_one_pending
	ON withdrawals(user_id) WHERE status = 'pending';
CREATE TABLE IF NOT EXISTS exchanges (
	id           UUID PRIMARY KEY,
	user_id      BIGINT NOT NULL REFERENCES users(user_id),
	direction    VARCHAR(16) NOT NULL,
	amount       BIGINT NOT NULL CHECK (amount > 0),
	received     BIGINT NOT NULL CHECK (received > 0),
	status       VARCHAR(16) NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_exchanges_user ON exchanges(user_id);
`,
	},
	{
		version: 6,
		name:    "games",
		sql: `
CREATE TABLE IF NOT EXISTS games (
	id           SERIAL PRIMARY KEY,
	game_id      UUID NOT NULL UNIQUE,
	user_id      BIGINT NOT NULL REFERENCES users(user_id),
	game_type    VARCHAR(16) NOT NULL,
	bet          BIGINT NOT NULL CHECK (bet >= 0),
	winning_slot INT,
	won          BOOLEAN,
	payout       BIGINT NOT NULL DEFAULT 0,
	processed    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	settled_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_games_user ON games(user_id);
`,
	},
	{
		version: 7,
		name:    "referrals",
		sql: `
CREATE TABLE IF NOT EXISTS referral_rewards (
	id          SERIAL PRIMARY KEY,
	referrer_id BIGINT NOT NULL REFERENCES users(user_id),
	referred_id BIGINT NOT NULL REFERENCES users(user_id),
	purchase_id INT NOT NULL REFERENCES purchase_history(id),
	amount      BIGINT NOT NULL CHECK (amount >= 0),
	percent     INT NOT NULL,
	paid        BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (referred_id, purchase_id)
);
CREATE INDEX IF NOT EXISTS idx_referral_rewards_referrer ON referral_rewards(referrer_id);
CREATE TABLE IF NOT EXISTS referral_logs (
	id          SERIAL PRIMARY KEY,
	referrer_id BIGINT NOT NULL,
	referred_id BIGINT NOT NULL,
	event       VARCHAR(32) NOT NULL,
	details     TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
	{
		version: 8,
		name:    "actions",
		sql: `
CREATE TABLE IF NOT EXISTS processed_actions (
	action_key VARCHAR(128) PRIMARY KEY,
	user_id    BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_processed_actions_created ON processed_actions(created_at);
`,
	},
	{
		version: 9,
		name:    "moderation",
		sql: `
CREATE TABLE IF NOT EXISTS bans (
	user_id    BIGINT PRIMARY KEY REFERENCES users(user_id),
	reason     TEXT,
	banned_by  BIGINT NOT NULL,
	until      TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS freezes (
	user_id    BIGINT PRIMARY KEY REFERENCES users(user_id),
	reason     TEXT,
	frozen_by  BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS warns (
	id         SERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(user_id),
	reason     TEXT,
	warned_by  BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
	{
		version: 10,
		name:    "settings",
		sql: `
CREATE TABLE IF NOT EXISTS settings (
	key        VARCHAR(64) PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
	{
		version: 11,
		name:    "tickets",
		sql: `
CREATE TABLE IF NOT EXISTS tickets (
	id         SERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(user_id),
	subject    VARCHAR(256) NOT NULL,
	status     VARCHAR(16) NOT NULL DEFAULT 'open',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	closed_at  TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS ticket_messages (
	id         SERIAL PRIMARY KEY,
	ticket_id  INT NOT NULL REFERENCES tickets(id),
	author_id  BIGINT NOT NULL,
	text       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ticket_messages_ticket ON ticket_messages(ticket_id);
`,
	},
	{
		version: 12,
		name:    "admin",
		sql: `
CREATE TABLE IF NOT EXISTS admin_sessions (
	user_id    BIGINT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
	user_id      BIGINT PRIMARY KEY,
	attempts     INT NOT NULL DEFAULT 0,
	last_attempt TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS admin_logs (
	id         SERIAL PRIMARY KEY,
	admin_id   BIGINT NOT NULL,
	action     VARCHAR(64) NOT NULL,
	details    TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
}

// Migrate применяет все непройденные миграции последовательно.
// Каждая миграция выполняется в своей транзакции вместе с записью версии.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       VARCHAR(64) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	var current int
	err = pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("ошибка чтения версии схемы: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("миграция %d: begin: %w", m.version, err)
		}
		if _, err := tx.Exec(ctx, m.sql); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("миграция %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("миграция %d: запись версии: %w", m.version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("миграция %d: commit: %w", m.version, err)
		}
		log.WithFields(log.Fields{"version": m.version, "name": m.name}).Info("Миграция применена")
	}
	return nil
}
