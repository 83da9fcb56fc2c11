package storage

// Package storage provides a minimal persistence layer for delivery
// history.
//
// It currently supports:
//   - History appends (one entry per job outcome)
//   - Recent-history queries for the status view
