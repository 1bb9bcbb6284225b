package database

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
)

// Dialect identifica o banco por trás da conexão
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Connection é a conexão usada pelos repositórios, com o dialeto para montar as queries
type Connection struct {
	*sql.DB
	Dialect Dialect
	schema  []string
}

// NewConnection embrulha um *sql.DB já aberto
func NewConnection(db *sql.DB, dialect Dialect, schema []string) *Connection {
	return &Connection{DB: db, Dialect: dialect, schema: schema}
}

// Builder retorna o construtor de queries com o placeholder do dialeto
func (c *Connection) Builder() squirrel.StatementBuilderType {
	if c.Dialect == DialectPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Migrate cria as tabelas da migração quando ainda não existem
func (c *Connection) Migrate(ctx context.Context) error {
	for _, stmt := range c.schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// RunInTransaction run a query in the transaction
func (c *Connection) RunInTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_ = tx.Rollback()
			panic(err)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}

	return tx.Commit()
}
