package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/imagination-concordance/model"
)

const allCategoriesLabel = model.AllCategories

// SearchHandler runs a search for the caller's session.
// Request Body: SearchRequest
func (api *API) SearchHandler(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if validation := ValidateSearchRequest(&req, api.settings.Filters, api.settings.Features); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}

	if !api.corpus.Loaded() {
		SendCorpusNotLoadedError(c, api.status.Status().Message)
		return
	}

	result, err := api.searcher.Search(c.Request.Context(), sessionID(c), req.Criteria(api.settings.Filters))
	if err != nil {
		SendSearchError(c, err, api.status.Status().Message)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SessionHandler reports the lifecycle state of the caller's session.
func (api *API) SessionHandler(c *gin.Context) {
	info, err := api.sessions.Get(sessionID(c))
	if err != nil {
		SendInternalError(c, "session lookup", err)
		return
	}
	c.JSON(http.StatusOK, info)
}
