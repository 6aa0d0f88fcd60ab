// Package provider contains enrichment source adapters (Deezer, etc.).
//
// The Provider interface is defined in internal/enrich (enrich.Provider),
// following the Go convention of defining interfaces where they are consumed.
// Each sub-package here implements that interface for a specific service.
package provider
