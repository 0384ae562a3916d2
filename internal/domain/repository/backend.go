package repository

import "strings"

// Backend selects the store implementation.
type Backend string

const (
	BackendSQLite     Backend = "sqlite"
	BackendClickHouse Backend = "clickhouse"
)

// IsValidBackend returns true if b is a supported backend.
func IsValidBackend(b Backend) bool {
	switch b {
	case BackendSQLite, BackendClickHouse:
		return true
	default:
		return false
	}
}

// DefaultBackend returns the embedded backend.
func DefaultBackend() Backend { return BackendSQLite }

// NormalizeBackend converts a raw string to a valid backend (or default).
func NormalizeBackend(s string) Backend {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if IsValidBackend(b) {
		return b
	}
	return DefaultBackend()
}

// Transport selects how fetched snapshots reach the store.
type Transport string

const (
	TransportDirect Transport = "direct"
	TransportKafka  Transport = "kafka"
)

// NormalizeTransport converts a raw string to a valid transport (or direct).
func NormalizeTransport(s string) Transport {
	if Transport(strings.ToLower(strings.TrimSpace(s))) == TransportKafka {
		return TransportKafka
	}
	return TransportDirect
}
