package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/cellflow/internal/ctxlog"
	"github.com/specialistvlad/cellflow/internal/output"
)

// WriteOutputs writes every processed sheet as CSV into the configured
// output directory, fanning the writes out over the configured worker
// count. Returned paths are sorted by sheet name.
func (e *Engine) WriteOutputs(ctx context.Context, result *Result) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	names := make([]string, 0, len(result.Processed))
	for name := range result.Processed {
		names = append(names, name)
	}
	sort.Strings(names)

	workers := e.cfg.Processing.Workers
	if workers > len(names) {
		workers = len(names)
	}
	if workers < 1 {
		workers = 1
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		paths    []string
		firstErr error
	)
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				path, err := output.WriteCSV(e.cfg.Output.Directory, name, result.Processed[name])
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					paths = append(paths, path)
				}
				mu.Unlock()
			}
		}()
	}

	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	sort.Strings(paths)
	logger.Info("Processed sheets written.", "directory", e.cfg.Output.Directory, "files", len(paths))
	return paths, nil
}
