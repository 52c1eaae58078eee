package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dizmorall/srdhub/middleware"
	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/srd"
	"github.com/dizmorall/srdhub/utils"
)

// SRDController serves the static reference pages and their comment threads.
type SRDController struct {
	catalog *srd.Catalog
	threads *services.ThreadAssembler
}

// NewSRDController creates a new SRDController instance.
func NewSRDController(catalog *srd.Catalog, threads *services.ThreadAssembler) *SRDController {
	return &SRDController{catalog: catalog, threads: threads}
}

// ListKinds returns the page kinds with their page counts.
func (s *SRDController) ListKinds(ctx *gin.Context) {
	kinds := []gin.H{}
	for _, k := range s.catalog.Kinds() {
		kinds = append(kinds, gin.H{"kind": k, "count": len(s.catalog.List(k))})
	}
	utils.Success(ctx, gin.H{"items": kinds})
}

// ListPages returns every page of a kind.
func (s *SRDController) ListPages(ctx *gin.Context) {
	kind := models.TargetKind(srd.NormalizeSlug(ctx.Param("kind")))
	if !kind.IsPage() {
		utils.Error(ctx, http.StatusNotFound, 40410, "unknown reference kind")
		return
	}
	utils.Success(ctx, gin.H{"kind": kind, "items": s.catalog.List(kind)})
}

// GetPage returns one reference page with its comment thread.
func (s *SRDController) GetPage(ctx *gin.Context) {
	kind := models.TargetKind(srd.NormalizeSlug(ctx.Param("kind")))
	page, ok := s.catalog.Get(kind, ctx.Param("slug"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40411, "reference page not found")
		return
	}
	target := models.PageTarget(page.Kind, page.Slug)
	thread, err := s.threads.AssembleThread(ctx.Request.Context(), target)
	if err != nil {
		writeServiceError(ctx, "assemble page thread", err)
		return
	}
	middleware.MarkViewed(ctx, target)
	utils.Success(ctx, gin.H{"page": page, "thread": thread})
}
