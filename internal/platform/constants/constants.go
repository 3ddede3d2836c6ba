// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Cache Taxonomy: Redis key prefixes for regions, entries, and leases.
  - Library: scan worker defaults and filesystem naming.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "resona-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	//
	// Scan and merge triggers run synchronously, so this is generous.
	DefaultWriteTimeout = 120 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 120 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixEntry prefixes every cached read-model entry.
	RedisPrefixEntry = "cache:entry:"

	// RedisPrefixRegion prefixes the per-region member-key sets.
	RedisPrefixRegion = "cache:region:"

	// RedisPrefixLease prefixes the per-entity advisory lease keys.
	RedisPrefixLease = "lock:entity:"
)

// # Library

const (
	// DefaultScanWorkers bounds parallel metadata extraction within one folder scan.
	DefaultScanWorkers = 4

	// PartTitlesSeparator delimits multiple contributing artists stored as a
	// single string on a track.
	PartTitlesSeparator = "/"

	// AlternateNameSeparator delimits entries when a multi-valued field is
	// rendered as a single delimited string (legacy list imports).
	AlternateNameSeparator = "|"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldStatus  = "status"
)

// # Database Schemas

const (
	SchemaCatalog = "catalog"
)
