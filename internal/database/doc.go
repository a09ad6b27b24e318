// Package database manages the PostgreSQL connection pool backing the
// event archive.
package database
