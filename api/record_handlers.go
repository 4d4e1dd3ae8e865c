package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
)

// StatusHandler reports the outcome of the corpus load.
func (api *API) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.status.Status())
}

// FacetsHandler returns the filter values and feature toggles of the page.
func (api *API) FacetsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"authors":        api.corpus.Authors(),
		"categories":     api.categories(),
		"all_categories": allCategoriesLabel,
		"year_min":       api.settings.Filters.YearMin,
		"year_max":       api.settings.Filters.YearMax,
		"features":       api.settings.Features,
	})
}

// GetRecordHandler returns the metadata of one record and its viewer link.
func (api *API) GetRecordHandler(c *gin.Context) {
	identifier := c.Param("identifier")
	if validation := ValidateIdentifier(identifier); validation.HasErrors() {
		SendStructuredValidationError(c, validation)
		return
	}

	if !api.corpus.Loaded() {
		SendCorpusNotLoadedError(c, api.status.Status().Message)
		return
	}

	record, err := api.corpus.Lookup(identifier)
	if err != nil {
		if errors.Is(err, internalErrors.ErrRecordNotFound) {
			SendRecordNotFoundError(c, identifier)
			return
		}
		SendInternalError(c, "record lookup", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record": record,
		"link":   fmt.Sprintf("https://%s/items/%s", api.settings.Viewer.Host, url.PathEscape(identifier)),
	})
}
