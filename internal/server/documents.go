package server

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/ingest"
	"github.com/joseph-ayodele/fra-claims/internal/pipeline"
)

type parseResponse struct {
	*pipeline.Preview
	Filename string `json:"filename"`
}

func (s *Server) formFile(c *gin.Context) (*multipart.FileHeader, multipart.File, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, common.InvalidArgumentErrorf("multipart field \"file\" is required: %v", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, common.InvalidArgumentErrorf("open upload: %v", err)
	}
	return fh, f, nil
}

// POST /api/claims/parse
// Stages the upload and returns the extracted text and entities for review.
func (s *Server) ParseDocument(c *gin.Context) {
	ctx := c.Request.Context()
	fh, f, err := s.formFile(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	defer func(f multipart.File) {
		_ = f.Close()
	}(f)

	staged, err := s.cfg.Staging.Stage(ctx, fh.Filename, f)
	if err != nil {
		RespondError(c, err)
		return
	}
	prev, err := s.cfg.Pipeline.Preview(ctx, staged.Ref)
	if err != nil {
		_ = s.cfg.Pipeline.Discard(ctx, staged.Ref)
		RespondError(c, err)
		return
	}
	RespondOK(c, parseResponse{Preview: prev, Filename: staged.Filename})
}

// POST /api/claims/commit/:ref
func (s *Server) CommitDocument(c *gin.Context) {
	out, err := s.cfg.Pipeline.Commit(c.Request.Context(), c.Param("ref"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, out)
}

// DELETE /api/claims/staged/:ref
func (s *Server) DiscardDocument(c *gin.Context) {
	if err := s.cfg.Pipeline.Discard(c.Request.Context(), c.Param("ref")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/claims/import
func (s *Server) ImportSpreadsheet(c *gin.Context) {
	fh, f, err := s.formFile(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	defer func(f multipart.File) {
		_ = f.Close()
	}(f)

	if !ingest.AllowedExt(fh.Filename) {
		RespondError(c, common.UnsupportedErrorf("spreadsheet must be .xlsx, .xlsm or .csv, got %q", fh.Filename))
		return
	}
	res, err := s.cfg.Importer.Import(c.Request.Context(), fh.Filename, f)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, res)
}
