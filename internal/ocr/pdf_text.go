package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textLayer reads the embedded text of a PDF. Failures are reported as
// warnings; a blank return sends the caller to the OCR fallback.
func (e *Extractor) textLayer(ctx context.Context, path string) (string, int, []string) {
	var warns []string

	if e.cfg.TextLayer != TextLayerPdftotext {
		text, pages, err := nativeText(path, e.cfg.MaxPages)
		switch {
		case err != nil:
			e.logger.Debug("ocr.native_text.failed", "path", path, "error", err)
			warns = append(warns, "native text: "+err.Error())
		case strings.TrimSpace(text) != "":
			return text, pages, warns
		}
		if e.cfg.TextLayer == TextLayerNative {
			return "", pages, warns
		}
	}

	text, pages, w, err := e.pdfToText(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		e.logger.Warn("ocr.pdftotext.failed", "path", path, "error", err)
		warns = append(warns, "pdftotext: "+err.Error())
		return "", 0, warns
	}
	return text, pages, warns
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, nonEmpty(string(errb)), err
	}
	text = strings.TrimRight(string(out), "\f")
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return strings.ReplaceAll(text, "\f", "\n"), pages, nil, nil
}

// nativeText extracts per-page text with the pure-Go reader, one line per
// baseline. The reader panics on some malformed streams, so that is turned
// into an error.
func nativeText(path string, maxPages int) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	pages = r.NumPage()
	limit := pages
	if maxPages > 0 && limit > maxPages {
		limit = maxPages
	}
	parts := make([]string, 0, limit)
	for i := 1; i <= limit; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		parts = append(parts, pageLines(p))
	}
	return joinLines(parts), pages, nil
}

func nonEmpty(s string) []string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return []string{s}
}
