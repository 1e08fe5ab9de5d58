package wiki

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

const statusRelPath = ".deepwiki/wiki_status.json"

func statusPath(repoRoot string) string {
	return filepath.Join(repoRoot, statusRelPath)
}

// loadStatus reads the persisted GenerationStatus, returning (nil, nil) if
// none exists yet.
func loadStatus(repoRoot string) (*GenerationStatus, error) {
	data, err := os.ReadFile(statusPath(repoRoot))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read wiki status: %v", deepwikierr.ErrStore, err)
	}
	var status GenerationStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("%w: parse wiki status: %v", deepwikierr.ErrStore, err)
	}
	if status.Pages == nil {
		status.Pages = make(map[string]*PageStatus)
	}
	return &status, nil
}

func saveStatus(repoRoot string, status *GenerationStatus) error {
	status.SchemaVersion = CurrentSchemaVersion
	dir := filepath.Dir(statusPath(repoRoot))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", deepwikierr.ErrStore, dir, err)
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal wiki status: %v", deepwikierr.ErrStore, err)
	}
	if err := os.WriteFile(statusPath(repoRoot), data, 0o644); err != nil {
		return fmt.Errorf("%w: write wiki status: %v", deepwikierr.ErrStore, err)
	}
	return nil
}

// hashSources computes one content hash per source file path, derived from
// the (already content-addressed) chunk contents belonging to that file,
// in chunk order. Two runs over unchanged chunks produce identical hashes.
func hashSources(chunksByFile map[string][]string) map[string]string {
	out := make(map[string]string, len(chunksByFile))
	for path, contents := range chunksByFile {
		h := sha256.New()
		for _, c := range contents {
			h.Write([]byte(c))
			h.Write([]byte{0})
		}
		out[path] = hex.EncodeToString(h.Sum(nil))
	}
	return out
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// needsRegeneration reports whether a page must be regenerated: its
// contributing source set changed, any contributing source's hash
// changed, or the page file itself is missing.
func needsRegeneration(prior *PageStatus, pagePath string, wikiRoot string, currentHashes map[string]string) bool {
	if prior == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(wikiRoot, pagePath)); err != nil {
		return true
	}
	currentSources := make([]string, 0, len(currentHashes))
	for path := range currentHashes {
		currentSources = append(currentSources, path)
	}
	sort.Strings(currentSources)
	priorSources := append([]string(nil), prior.Sources...)
	sort.Strings(priorSources)
	if len(currentSources) != len(priorSources) {
		return true
	}
	for i, p := range currentSources {
		if p != priorSources[i] {
			return true
		}
	}
	for path, hash := range currentHashes {
		if prior.SourceHashes[path] != hash {
			return true
		}
	}
	return false
}
