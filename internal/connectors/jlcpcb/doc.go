// Package jlcpcb implements the pricing source backed by the JLCPCB
// SMT component search.
//
// The endpoint is a free-text keyword search. The client sends the catalog
// code as the keyword and keeps only the candidate whose componentCode
// equals it exactly; fuzzy matches are never used.
//
// Outcomes:
//
//   - HTTP 404: not found
//   - code != 200, no exact match, or exhausted retries: unavailable
//
// Stock and price tiers are never cached by callers; they change daily.
package jlcpcb
