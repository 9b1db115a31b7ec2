package vocab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ExportVersion is the current export file format version.
const ExportVersion = 1

// exportEntry is one vocabulary record on the wire.
type exportEntry struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// exportFile is the JSON export envelope.
type exportFile struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Entries    []exportEntry `json:"entries"`
}

// Export writes the whole vocabulary as indented JSON, entries sorted by
// original for a stable file.
func Export(ctx context.Context, s Store, w io.Writer) error {
	all, err := s.All(ctx)
	if err != nil {
		return fmt.Errorf("vocab: export: %w", err)
	}

	entries := make([]exportEntry, 0, len(all))
	for original, replacement := range all {
		entries = append(entries, exportEntry{Original: original, Replacement: replacement})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Original < entries[j].Original
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportFile{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Entries:    entries,
	}); err != nil {
		return fmt.Errorf("vocab: export: %w", err)
	}
	return nil
}

// Import reads a JSON export and merges its entries into the store, one add
// per record, in file order. Records missing either side are skipped, not
// errors: exports edited by hand routinely contain incomplete lines.
// Returns the number of entries added and skipped.
func Import(ctx context.Context, s Store, r io.Reader) (added, skipped int, err error) {
	var file exportFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return 0, 0, fmt.Errorf("vocab: import: decode: %w", err)
	}
	if file.Version > ExportVersion {
		return 0, 0, fmt.Errorf("vocab: import: unsupported version %d", file.Version)
	}

	for _, e := range file.Entries {
		if strings.TrimSpace(e.Original) == "" || strings.TrimSpace(e.Replacement) == "" {
			skipped++
			continue
		}
		if err := s.Add(ctx, e.Original, e.Replacement); err != nil {
			return added, skipped, fmt.Errorf("vocab: import %q: %w", e.Original, err)
		}
		added++
	}
	return added, skipped, nil
}
