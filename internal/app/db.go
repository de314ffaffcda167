package app

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tempizhere/avbv/internal/repository"
)

const createVideosTable = `
	CREATE TABLE IF NOT EXISTS videos (
		id SERIAL PRIMARY KEY,
		aid BIGINT NOT NULL,
		bvid VARCHAR(12) UNIQUE NOT NULL,
		user_id VARCHAR,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

const createUserIndex = `CREATE INDEX IF NOT EXISTS videos_user_id_idx ON videos (user_id)`

// DB представляет подключение к базе данных
type DB struct {
	conn *sql.DB
}

// NewDB открывает подключение к PostgreSQL и создаёт схему.
// Пустой DSN означает, что база не используется: возвращается nil без ошибки.
func NewDB(dsn string) (repository.Database, error) {
	if dsn == "" {
		return nil, nil
	}

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db := &DB{conn: conn}
	if err := migrate(db); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// migrate проверяет соединение и создаёт таблицу истории
func migrate(db repository.Database) error {
	if err := db.Ping(); err != nil {
		return err
	}
	if _, err := db.Exec(createVideosTable); err != nil {
		return err
	}
	_, err := db.Exec(createUserIndex)
	return err
}

// Ping проверяет соединение с базой данных
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close закрывает соединение с базой данных
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Exec выполняет SQL-запрос с аргументами
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query выполняет SQL-запрос и возвращает множество строк
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow выполняет SQL-запрос и возвращает одну строку
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Begin начинает транзакцию
func (db *DB) Begin() (*sql.Tx, error) {
	if db == nil || db.conn == nil {
		return nil, sql.ErrConnDone
	}
	return db.conn.Begin()
}
