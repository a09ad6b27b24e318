// Package archive persists the raw event stream to PostgreSQL.
//
// Events are buffered in memory and written in batches; a flush ticker
// bounds how long a partial batch can sit. The archive is an audit trail
// for debugging queue incidents after the fact and is entirely optional.
package archive
