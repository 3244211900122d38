package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

func (e *Extractor) imageOCR(ctx context.Context, path string) (string, []string) {
	if !e.cfg.Preprocess {
		return e.recognizePages(ctx, []string{path}, "")
	}
	tmpDir, err := os.MkdirTemp("", "fra-img-*")
	if err != nil {
		e.logger.Warn("ocr.tmpdir.create_failed", "error", err)
		txt, w, err := e.tesseractOCR(ctx, path)
		if err != nil {
			return "", append(w, err.Error())
		}
		return txt, w
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("ocr.tmpdir.cleanup_failed", "dir", path, "error", err)
		}
	}(tmpDir)
	return e.recognizePages(ctx, []string{path}, tmpDir)
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", nonEmpty(string(errb)), fmt.Errorf("tesseract %s: %w", filepath.Base(path), err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}
