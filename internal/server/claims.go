package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
	"github.com/joseph-ayodele/fra-claims/internal/repository"
)

func filterFromQuery(c *gin.Context) (repository.ClaimFilter, error) {
	f := repository.ClaimFilter{
		State:    c.Query("state"),
		District: c.Query("district"),
		Village:  c.Query("village"),
		Status:   c.Query("status"),
		Q:        c.Query("q"),
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, common.InvalidArgumentErrorf("%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return f, nil
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, common.InvalidArgumentError("id must be a positive integer")
	}
	return id, nil
}

// GET /api/claims
func (s *Server) ListClaims(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	items, err := s.cfg.Claims.List(c.Request.Context(), f)
	if err != nil {
		RespondError(c, err)
		return
	}
	if items == nil {
		items = []*entity.Claim{}
	}
	RespondOK(c, gin.H{"items": items, "count": len(items)})
}

// GET /api/claims/count
// With group=village it returns the per-village tally; otherwise {"count": N} for the filter.
func (s *Server) CountClaims(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("group") == "village" {
		tally, err := s.cfg.Claims.CountByVillage(ctx)
		if err != nil {
			RespondError(c, err)
			return
		}
		RespondOK(c, gin.H{"villages": tally})
		return
	}
	f, err := filterFromQuery(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	n, err := s.cfg.Claims.Count(ctx, f)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"count": n})
}

// GET /api/claims/:id
func (s *Server) GetClaim(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	claim, err := s.cfg.Claims.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, claim)
}

// POST /api/claims
func (s *Server) CreateClaim(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		RespondError(c, common.InvalidArgumentError("request body too large or unreadable"))
		return
	}
	row, err := s.schema.decode(body)
	if err != nil {
		RespondError(c, err)
		return
	}
	out, err := s.cfg.Pipeline.CreateManual(c.Request.Context(), row)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, out)
}

// PUT /api/claims/:id
// Keys present in the body replace the stored values; null clears a field.
func (s *Server) UpdateClaim(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		RespondError(c, common.InvalidArgumentError("request body too large or unreadable"))
		return
	}
	row, err := s.schema.decodePatch(body)
	if err != nil {
		RespondError(c, err)
		return
	}
	if len(row) == 0 {
		RespondError(c, common.InvalidArgumentError("no fields to update"))
		return
	}
	out, err := s.cfg.Pipeline.Update(c.Request.Context(), id, row)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, out)
}

// DELETE /api/claims/:id
func (s *Server) DeleteClaim(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := s.cfg.Claims.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkDeleteBody struct {
	IDs []int64 `json:"ids"`
}

// DELETE /api/claims?ids=1,2,3&confirm=true
// ids may also come as a JSON body {"ids": [...]}.
func (s *Server) DeleteClaims(c *gin.Context) {
	if ok, _ := strconv.ParseBool(c.Query("confirm")); !ok {
		RespondError(c, common.InvalidArgumentError("bulk delete not confirmed; pass confirm=true"))
		return
	}

	var ids []int64
	if raw := c.Query("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				RespondError(c, common.InvalidArgumentErrorf("invalid id %q", part))
				return
			}
			ids = append(ids, id)
		}
	} else if c.Request.ContentLength != 0 {
		var body bulkDeleteBody
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondError(c, common.InvalidArgumentError("invalid ids in body"))
			return
		}
		ids = body.IDs
	}
	if len(ids) == 0 {
		RespondError(c, common.InvalidArgumentError("no ids provided for bulk delete"))
		return
	}

	n, err := s.cfg.Claims.DeleteMany(c.Request.Context(), ids)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": n})
}

// GET /api/villages?state=&district=
func (s *Server) ListVillages(c *gin.Context) {
	items, err := s.cfg.Villages.List(c.Request.Context(), c.Query("state"), c.Query("district"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if items == nil {
		items = []*entity.Location{}
	}
	RespondOK(c, gin.H{"items": items, "count": len(items)})
}

// GET /api/export/claims.xlsx
func (s *Server) ExportClaims(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	data, err := s.cfg.Exporter.ExportClaimsXLSX(c.Request.Context(), f)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="claims.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
