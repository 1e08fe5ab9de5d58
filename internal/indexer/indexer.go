// Package indexer drives the walk-hash-diff-parse-chunk-embed-upsert
// pipeline that keeps the vector store in sync with a repository tree.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/deepwiki-go/deepwiki/internal/chunker"
	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
	"github.com/deepwiki-go/deepwiki/internal/embed"
	"github.com/deepwiki-go/deepwiki/internal/parser"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
	"github.com/deepwiki-go/deepwiki/internal/vectorstore"
)

// RunOptions controls one Indexer.Run invocation.
type RunOptions struct {
	RepoRoot            string
	ExcludePatterns     []string // defaults to DefaultExcludePatterns when nil
	ClassSplitThreshold int      // defaults to chunker.DefaultClassSplitThreshold when 0
	BatchSize           int      // files per batch; defaults to 20
	FullRebuild         bool
	Progress            ProgressFunc
}

// Progress reports file-level indexing progress.
type Progress struct {
	FilesProcessed int
	TotalFiles     int
	CurrentFile    string
}

// ProgressFunc receives Progress updates; nil disables reporting.
type ProgressFunc func(Progress)

// Stats summarizes one Run.
type Stats struct {
	FilesAdded   int
	FilesChanged int
	FilesRemoved int
	ChunksTotal  int
	FailedFiles  map[string]string
	Duration     time.Duration
}

// Indexer ties discovery, parsing, chunking, embedding, and storage
// together behind a single incremental Run.
type Indexer struct {
	Parser   *parser.Parser
	Embedder embed.Provider
	Store    vectorstore.Store
}

func New(p *parser.Parser, embedder embed.Provider, store vectorstore.Store) *Indexer {
	return &Indexer{Parser: p, Embedder: embedder, Store: store}
}

// Run performs one incremental (or full, with opts.FullRebuild) indexing
// pass over opts.RepoRoot, returning once every added/changed file's
// chunks have been embedded and upserted and the manifest has been
// persisted.
func (ix *Indexer) Run(ctx context.Context, opts RunOptions) (*Stats, error) {
	start := time.Now()

	excludes := opts.ExcludePatterns
	if excludes == nil {
		excludes = DefaultExcludePatterns
	}
	classSplit := opts.ClassSplitThreshold
	if classSplit <= 0 {
		classSplit = chunker.DefaultClassSplitThreshold
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	disc, err := newDiscovery(opts.RepoRoot, excludes)
	if err != nil {
		return nil, fmt.Errorf("%w: compile exclude patterns: %v", deepwikierr.ErrInput, err)
	}
	paths, err := disc.walk()
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", deepwikierr.ErrSourceRead, opts.RepoRoot, err)
	}

	discovered := make(map[string]parsetree.FileInfo, len(paths))
	for _, p := range paths {
		info, hashErr := hashFile(p)
		if hashErr != nil {
			continue // unreadable files surface later as parse/source-read failures
		}
		lang, _ := parser.LanguageForPath(p)
		info.Language = lang
		discovered[p] = info
	}

	var prior *parsetree.IndexStatus
	if !opts.FullRebuild {
		prior, err = loadManifest(opts.RepoRoot)
		if err != nil {
			return nil, err
		}
	}
	d := diffManifest(prior, discovered)

	stats := &Stats{FailedFiles: map[string]string{}}
	stats.FilesAdded = len(d.added)
	stats.FilesChanged = len(d.changed)
	stats.FilesRemoved = len(d.removed)

	toRemove := append(append([]string{}, d.removed...), d.changed...)
	if len(toRemove) > 0 {
		if err := ix.Store.DeleteByFile(ctx, toRemove); err != nil {
			return nil, err
		}
	}

	toIndex := append(append([]string{}, d.added...), d.changed...)
	total := len(toIndex)
	processed := 0

	finalInfo := make(map[string]parsetree.FileInfo, len(discovered))
	for path, info := range discovered {
		finalInfo[path] = info // chunk count filled in as each file is processed below
	}
	if prior != nil {
		priorByPath := prior.ByPath()
		for path, info := range finalInfo {
			if old, ok := priorByPath[path]; ok {
				info.ChunkCount = old.ChunkCount
				finalInfo[path] = info
			}
		}
	}

	totalChunks := 0

	for batchStart := 0; batchStart < total; batchStart += batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		batchEnd := batchStart + batchSize
		if batchEnd > total {
			batchEnd = total
		}
		batch := toIndex[batchStart:batchEnd]

		chunks, failed := ix.parseAndChunk(ctx, batch, classSplit)
		for path, errMsg := range failed {
			stats.FailedFiles[path] = errMsg
		}

		if len(chunks) > 0 {
			texts := make([]string, len(chunks))
			for i, c := range chunks {
				texts[i] = c.Content
			}
			vectors, embErr := ix.Embedder.Embed(ctx, texts)
			if embErr != nil {
				return stats, fmt.Errorf("%w: %v", deepwikierr.ErrEmbedding, embErr)
			}
			if err := ix.Store.Upsert(ctx, chunks, vectors); err != nil {
				return stats, err
			}
			totalChunks += len(chunks)
		}

		perFileChunks := map[string]int{}
		for _, c := range chunks {
			perFileChunks[c.FilePath]++
		}
		for _, path := range batch {
			info := finalInfo[path]
			info.ChunkCount = perFileChunks[path]
			finalInfo[path] = info
			processed++
			if opts.Progress != nil {
				opts.Progress(Progress{FilesProcessed: processed, TotalFiles: total, CurrentFile: path})
			}
		}
	}

	stats.ChunksTotal = totalChunks

	status := &parsetree.IndexStatus{
		RepoPath:        opts.RepoRoot,
		IndexedAt:       time.Now(),
		FilesByLanguage: map[string]int{},
		FailedFiles:     stats.FailedFiles,
	}
	for _, info := range finalInfo {
		status.Files = append(status.Files, info)
		status.FilesByLanguage[info.Language]++
		status.TotalChunks += info.ChunkCount
	}
	status.TotalFiles = len(status.Files)

	if err := saveManifest(opts.RepoRoot, status); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// parseAndChunk parses and chunks every path in batch, bounded to
// runtime.GOMAXPROCS(0) concurrent parses. A per-file failure is recorded
// rather than aborting the batch.
func (ix *Indexer) parseAndChunk(ctx context.Context, batch []string, classSplit int) ([]parsetree.Chunk, map[string]string) {
	type result struct {
		path   string
		chunks []parsetree.Chunk
		err    error
	}

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	results := make(chan result, len(batch))
	var wg sync.WaitGroup

	for _, path := range batch {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tree, err := ix.Parser.ParseFile(ctx, path)
			if err != nil {
				results <- result{path: path, err: err}
				return
			}
			lang, _ := parser.LanguageForPath(path)
			chunks := chunker.Chunk(tree, path, lang, classSplit)
			results <- result{path: path, chunks: chunks}
		}(path)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var allChunks []parsetree.Chunk
	failed := map[string]string{}
	for r := range results {
		if r.err != nil {
			failed[r.path] = r.err.Error()
			continue
		}
		allChunks = append(allChunks, r.chunks...)
	}
	return allChunks, failed
}

func hashFile(path string) (parsetree.FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return parsetree.FileInfo{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return parsetree.FileInfo{}, err
	}
	sum := sha256.Sum256(data)
	return parsetree.FileInfo{
		Path:         path,
		SizeBytes:    info.Size(),
		LastModified: info.ModTime(),
		ContentHash:  hex.EncodeToString(sum[:]),
	}, nil
}
