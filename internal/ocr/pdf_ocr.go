package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// pdfToOCR rasterizes every page and recognizes them concurrently.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string) {
	tmpDir, err := os.MkdirTemp("", "fra-pp-*")
	if err != nil {
		return "", 0, []string{err.Error()}
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("ocr.tmpdir.cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, append(args, path, prefix)...)
	if err != nil {
		e.logger.Warn("ocr.pdftoppm.failed", "path", path, "error", err)
		return "", 0, append(nonEmpty(string(errb)), "pdftoppm: "+err.Error())
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortPages(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}
	}

	text, warnings = e.recognizePages(ctx, matches, tmpDir)
	return text, len(matches), warnings
}

// recognizePages runs tesseract over pages with bounded parallelism and joins
// the non-empty results in page order. Page failures become warnings.
func (e *Extractor) recognizePages(ctx context.Context, pages []string, workDir string) (string, []string) {
	texts := make([]string, len(pages))
	var (
		mu    sync.Mutex
		warns []string
	)
	addWarn := func(w ...string) {
		mu.Lock()
		warns = append(warns, w...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PageWorkers)
	for i, page := range pages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			src := page
			if e.cfg.Preprocess {
				cleaned := filepath.Join(workDir, fmt.Sprintf("clean-%03d.png", i+1))
				if err := cleanPage(page, cleaned); err != nil {
					addWarn(fmt.Sprintf("page %d cleanup: %v", i+1, err))
				} else {
					src = cleaned
				}
			}
			txt, w, err := e.tesseractOCR(gctx, src)
			addWarn(w...)
			if err != nil {
				addWarn(fmt.Sprintf("page %d: %v", i+1, err))
				return nil
			}
			texts[i] = txt
			return nil
		})
	}
	_ = g.Wait()

	return joinLines(texts), warns
}

// sortPages orders pdftoppm outputs numerically; its zero padding depends on the page count.
func sortPages(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.Slice(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
