package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/common"
)

// NoTextExtracted is returned as Result.Text when neither strategy recovers anything.
const NoTextExtracted = "NO_TEXT_EXTRACTED"

const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
	MethodNone     = "none"
)

// Text-layer readers for PDFs.
const (
	TextLayerAuto      = "auto"      // native reader, then pdftotext
	TextLayerNative    = "native"    // native reader only
	TextLayerPdftotext = "pdftotext" // pdftotext only
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	PageWorkers   int    // concurrent tesseract runs per document, default 2

	TessdataDir string
	TextLayer   string // auto | native | pdftotext
	Preprocess  bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Result is what one recovery call produced.
type Result struct {
	Text     string
	Pages    int
	Kind     constants.DocumentKind
	Method   string // pdf-text | pdf-ocr | image-ocr | none
	Language string
	Duration time.Duration
	Warnings []string
}

// Empty reports whether nothing was recovered.
func (r Result) Empty() bool {
	return r.Text == "" || r.Text == NoTextExtracted
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the exec-based command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PageWorkers <= 0 {
		cfg.PageWorkers = 2
	}
	if cfg.TextLayer == "" {
		cfg.TextLayer = TextLayerAuto
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ConfigFromCommon converts the environment OCR section.
func ConfigFromCommon(c common.OCRConfig) Config {
	return Config{
		Pdftotext:     c.Pdftotext,
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.Language,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		PageWorkers:   c.PageWorkers,
		TessdataDir:   c.TessdataDir,
		TextLayer:     c.TextLayer,
		Preprocess:    c.Preprocess,
	}
}

// Recover returns the text of the document at path. PDFs try the embedded text
// layer first and fall back to rasterize-and-recognize only when it is blank.
// A document neither strategy can read yields NoTextExtracted, not an error;
// errors are reserved for unusable input (missing, empty, unsupported).
func (e *Extractor) Recover(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	logger := common.LoggerFrom(ctx, e.logger)

	kind, err := e.checkInput(path, ext)
	if err != nil {
		logger.Warn("ocr.input.rejected", "path", path, "ext", ext, "error", err)
		return Result{Method: MethodNone}, err
	}
	logger.Debug("ocr.recover.start", "path", path, "kind", kind, "text_layer", e.cfg.TextLayer)

	res := Result{Kind: kind, Language: e.cfg.TesseractLang, Method: MethodNone}

	if kind == constants.PDF {
		text, pages, warns := e.textLayer(ctx, path)
		res.Warnings = append(res.Warnings, warns...)
		res.Pages = pages
		if text = Normalize(text); text != "" {
			res.Text = text
			res.Method = MethodPDFText
			res.Duration = time.Since(start)
			logger.Info("ocr.recover.done", "method", res.Method, "pages", res.Pages, "chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
			return res, nil
		}
		logger.Info("ocr.text_layer.empty", "path", path)
	}

	var (
		text   string
		pages  int
		warns  []string
		method string
	)
	if kind == constants.PDF {
		text, pages, warns = e.pdfToOCR(ctx, path)
		method = MethodPDFOCR
	} else {
		text, warns = e.imageOCR(ctx, path)
		pages, method = 1, MethodImageOCR
	}
	res.Warnings = append(res.Warnings, warns...)
	if pages > 0 {
		res.Pages = pages
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if text = Normalize(text); text != "" {
		res.Text = text
		res.Method = method
	} else {
		res.Text = NoTextExtracted
		logger.Warn("ocr.recover.no_text", "path", path, "warnings", len(res.Warnings))
	}
	res.Duration = time.Since(start)
	logger.Info("ocr.recover.done", "method", res.Method, "pages", res.Pages, "chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (e *Extractor) checkInput(path, ext string) (constants.DocumentKind, error) {
	kind := constants.KindForExt(ext)
	if kind == "" {
		return "", common.UnsupportedErrorf("unsupported document extension %q", ext)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return "", common.NewAppError("INVALID_ARGUMENT", "document unreadable", errors.Join(common.ErrInvalidInput, err))
	}
	if fi.IsDir() {
		return "", common.InvalidArgumentErrorf("document path %q is a directory", path)
	}
	if fi.Size() == 0 {
		return "", common.InvalidArgumentErrorf("document %q is empty", filepath.Base(path))
	}
	return kind, nil
}

func joinLines(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, "\n")
}
