package repo

import (
	"github.com/hamed0406/portwatch/internal/domain"
)

// Ports (interfaces). Both live in memory; nothing survives a restart.

// TargetRegistry holds the active target list. Replace swaps the whole list;
// Current returns a slice the caller may iterate without locking, which no
// later Replace will modify.
type TargetRegistry interface {
	Replace(raws []domain.RawTarget) (accepted []domain.Target, rejected []Rejected)
	Current() []domain.Target
}

// Rejected is a raw target that failed to parse, kept so callers can log it.
type Rejected struct {
	URI string
	Err error
}

// StatusTable is the last-known reachability per URI. Entries are created on
// first upsert and never removed.
type StatusTable interface {
	Upsert(uri string, up bool) (previous, existed bool)
	Snapshot() []domain.StatusEntry
}
