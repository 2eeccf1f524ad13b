package database

import (
	"context"
	"database/sql"
)

type PgNaviGreatRepository struct {
	conn *sql.DB
}

func NewPgNaviGreatRepository(dsn string) (*PgNaviGreatRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgNaviGreatRepository{conn: db}, nil
}

func (db *PgNaviGreatRepository) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *PgNaviGreatRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
