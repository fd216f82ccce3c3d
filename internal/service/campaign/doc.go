// Package campaign implements the campaign dispatch engine.
//
// The service layer owns the full dispatch lifecycle: validating a composed
// message, resolving the recipient selection into a concrete contact list,
// durably recording the campaign with one pending delivery record per
// recipient, driving best-effort delivery across a bounded worker pool, and
// deriving the campaign's terminal status from the per-recipient outcomes.
// It depends on the Store and ContactSource interfaces defined in this
// package and should never import from api/.
//
// Store implementations live in repository/postgres/; tests use an
// in-memory Store.
package campaign
