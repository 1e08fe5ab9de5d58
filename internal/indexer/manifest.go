package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

const manifestRelPath = ".deepwiki/index_status.json"

func manifestPath(repoRoot string) string {
	return filepath.Join(repoRoot, manifestRelPath)
}

// loadManifest reads the persisted IndexStatus, returning (nil, nil) when
// none exists yet (a first run), and applying schema upgrades in sequence
// when an older version is found on disk.
func loadManifest(repoRoot string) (*parsetree.IndexStatus, error) {
	path := manifestPath(repoRoot)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", deepwikierr.ErrStore, err)
	}

	var onDisk struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		return nil, fmt.Errorf("%w: parse manifest header: %v", deepwikierr.ErrStore, err)
	}

	var status parsetree.IndexStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("%w: parse manifest: %v", deepwikierr.ErrStore, err)
	}
	if err := upgradeManifest(&status, onDisk.SchemaVersion); err != nil {
		return nil, err
	}
	return &status, nil
}

// upgradeManifest applies any migration needed to bring a manifest from
// fromVersion up to parsetree.CurrentSchemaVersion. There is exactly one
// schema version so far; this is the seam future migrations hang off.
func upgradeManifest(status *parsetree.IndexStatus, fromVersion int) error {
	switch fromVersion {
	case 0:
		// Pre-versioning manifests (fromVersion defaults to zero-value
		// when the field is absent) are structurally compatible as-is.
		status.SchemaVersion = parsetree.CurrentSchemaVersion
		return nil
	case parsetree.CurrentSchemaVersion:
		return nil
	default:
		return fmt.Errorf("%w: unknown manifest schema version %d", deepwikierr.ErrStore, fromVersion)
	}
}

func saveManifest(repoRoot string, status *parsetree.IndexStatus) error {
	path := manifestPath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir for manifest: %v", deepwikierr.ErrStore, err)
	}
	status.SchemaVersion = parsetree.CurrentSchemaVersion
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal manifest: %v", deepwikierr.ErrStore, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write manifest: %v", deepwikierr.ErrStore, err)
	}
	return nil
}

// diff classifies every discovered file against the prior manifest.
type diffResult struct {
	added   []string
	changed []string
	removed []string
}

func diffManifest(prior *parsetree.IndexStatus, discovered map[string]parsetree.FileInfo) diffResult {
	var d diffResult
	if prior == nil {
		for path := range discovered {
			d.added = append(d.added, path)
		}
		return d
	}
	priorByPath := prior.ByPath()
	for path, info := range discovered {
		old, existed := priorByPath[path]
		if !existed {
			d.added = append(d.added, path)
		} else if old.ContentHash != info.ContentHash {
			d.changed = append(d.changed, path)
		}
	}
	for path := range priorByPath {
		if _, stillThere := discovered[path]; !stillThere {
			d.removed = append(d.removed, path)
		}
	}
	return d
}
