// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation, and constraint errors.

# Connecting

Open picks the driver from the configured type:

	conn, err := db.Open(db.TypeSQLite, "file:oxpoll.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite uses modernc.org/sqlite (pure Go), Postgres uses lib/pq.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: question, kind, short code, lifecycle flags, owner session
  - vote: binary O/X responses, UNIQUE (poll_id, client_fingerprint)
  - short_answer: free-text responses, no uniqueness

# Relationships

	poll 1──* vote
	poll 1──* short_answer

All foreign keys use ON DELETE CASCADE.

# Constraints

Short codes are unique among active polls only (partial unique index on
poll.short_code WHERE is_active). One vote per client per binary poll is a
table constraint, so concurrent duplicate submissions cannot both land.

IsUniqueViolation recognises the violation from either driver:

	if db.IsUniqueViolation(err) {
		// conflict
	}
*/
package db
