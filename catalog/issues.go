package catalog

import "fmt"

// Issue entry kinds. An active entry is a user-added label; a tombstone
// records that a compiled-in default label was deleted, without touching
// the default table itself.
const (
	issueActive    = "active"
	issueTombstone = "tombstone"
)

// IssueEntry is one persisted issue record, a tagged variant rather than a
// sentinel-prefixed string so labels can never collide with the encoding.
type IssueEntry struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// FallbackIssueType is the default-issue bucket used for device types that
// have no dedicated default list.
const FallbackIssueType = "Andere"

// defaultIssues maps canonical device-type names to their built-in issue
// labels. The table is compiled in and never persisted or mutated; user
// deletions of these labels are recorded as tombstones instead.
var defaultIssues = map[string][]string{
	"Smartphone": {
		"Display defekt/gebrochen",
		"Akku schwach/defekt",
		"Ladebuchse defekt",
		"Wasserschaden",
		"Kamera defekt",
		"Lautsprecher/Mikrofon defekt",
		"Software-Problem",
		"Geht nicht an",
	},
	"Tablet": {
		"Display defekt/gebrochen",
		"Akku schwach/defekt",
		"Ladebuchse defekt",
		"Software-Problem",
		"Geht nicht an",
	},
	"Watch": {
		"Display defekt/gebrochen",
		"Akku schwach/defekt",
		"Armband defekt",
		"Koppelt nicht",
	},
	"Laptop": {
		"Display defekt/gebrochen",
		"Akku schwach/defekt",
		"Tastatur defekt",
		"Festplatte/SSD defekt",
		"Lüfter laut/defekt",
		"Software-Problem",
		"Geht nicht an",
	},
	"Spielekonsole": {
		"Liest keine Datenträger",
		"HDMI-Ausgang defekt",
		"Lüfter laut/defekt",
		"Controller defekt",
		"Geht nicht an",
	},
	FallbackIssueType: {
		"Defekt/Fehlfunktion",
		"Geht nicht an",
	},
}

// DefaultIssuesFor resolves the built-in issue list for a device type.
// The lookup is case-insensitive; unmatched types fall back to the
// FallbackIssueType list.
func DefaultIssuesFor(deviceType string) []string {
	for name, issues := range defaultIssues {
		if foldEqual(name, deviceType) {
			return issues
		}
	}
	return defaultIssues[FallbackIssueType]
}

// loadIssueEntries reads the persisted per-type issue entries.
func (s *Store) loadIssueEntries() map[string][]IssueEntry {
	entries := make(map[string][]IssueEntry)
	s.load(s.key(issuesKey), &entries)
	return entries
}

// AddIssue records a user-added issue label for a device type. Dedup only
// considers existing active entries; a tombstone of the same label is left
// in place and keeps suppressing the default, matching how the union view
// treats re-added defaults.
func (s *Store) AddIssue(deviceType, issue string) error {
	if issue == "" {
		return fmt.Errorf("issue must not be empty")
	}

	entries := s.loadIssueEntries()
	bucket := normalizeKey(deviceType)

	for _, entry := range entries[bucket] {
		if entry.Kind == issueActive && entry.Label == issue {
			return nil
		}
	}
	entries[bucket] = append(entries[bucket], IssueEntry{Kind: issueActive, Label: issue})
	return s.save(s.key(issuesKey), entries)
}

// IssuesFor returns the effective issue list for a device type: the
// built-in defaults plus the user's active entries, minus every tombstoned
// label, deduplicated preserving first occurrence.
func (s *Store) IssuesFor(deviceType string) []string {
	entries := s.loadIssueEntries()
	bucket := normalizeKey(deviceType)

	tombstoned := make(map[string]struct{})
	active := make([]string, 0)
	for _, entry := range entries[bucket] {
		switch entry.Kind {
		case issueTombstone:
			tombstoned[entry.Label] = struct{}{}
		case issueActive:
			active = append(active, entry.Label)
		}
	}

	seen := make(map[string]struct{})
	result := make([]string, 0)
	for _, label := range append(append([]string{}, DefaultIssuesFor(deviceType)...), active...) {
		if _, dead := tombstoned[label]; dead {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		result = append(result, label)
	}
	return result
}

// DeleteIssue removes an issue label from a device type's effective list.
// Active entries with the label are dropped, and a tombstone is appended
// unless one already exists, so even a built-in default stays suppressed
// on the next read. Deleting an already-deleted issue is a no-op.
func (s *Store) DeleteIssue(deviceType, issue string) error {
	entries := s.loadIssueEntries()
	bucket := normalizeKey(deviceType)

	list := entries[bucket]
	kept := make([]IssueEntry, 0, len(list))
	hasTombstone := false
	changed := false
	for _, entry := range list {
		if entry.Kind == issueActive && entry.Label == issue {
			changed = true
			continue
		}
		if entry.Kind == issueTombstone && entry.Label == issue {
			hasTombstone = true
		}
		kept = append(kept, entry)
	}
	if !hasTombstone {
		kept = append(kept, IssueEntry{Kind: issueTombstone, Label: issue})
		changed = true
	}
	if !changed {
		return nil
	}

	entries[bucket] = kept
	return s.save(s.key(issuesKey), entries)
}

// ClearIssues removes every persisted issue entry of this scope, silently
// reverting all device types to their unmodified default lists.
func (s *Store) ClearIssues() error {
	return s.storage.Delete(s.key(issuesKey))
}
