package api

import (
	"fmt"
	"net/http"

	"repairbase/catalog"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
)

// catalogForRequest opens the authenticated user's slice of the device
// catalog. Requests without a username (wiring bug rather than a normal
// case, the routes sit behind auth) land in the shared anonymous slice.
func catalogForRequest(c *gin.Context, storage catalog.Storage) *catalog.Store {
	username, ok := contextString(c, "username")
	if !ok {
		username = catalog.AnonymousUser
	}
	return catalog.New(storage, catalog.StaticPrefix(username))
}

// --- Device Types ---

// CatalogLabelRequest carries a single catalog label.
type CatalogLabelRequest struct {
	Label string `json:"label" binding:"required"`
}

// ListDeviceTypesHandler lists the caller's device types.
// @Summary      List Device Types
// @Description  Returns the caller's custom device types, e.g. Smartphone, Tablet, Spielekonsole. The list starts empty; entries are added via POST.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   string "The device types, in insertion order."
// @Router       /catalog/device-types [get]
func ListDeviceTypesHandler(c *gin.Context, storage catalog.Storage) {
	c.JSON(http.StatusOK, catalogForRequest(c, storage).DeviceTypes())
}

// AddDeviceTypeHandler adds a device type.
// @Summary      Add a Device Type
// @Description  Adds a device type to the caller's catalog. Duplicates are detected case-insensitively: adding "smartphone" when "Smartphone" exists is a no-op.
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        entry body CatalogLabelRequest true "The device type label."
// @Success      200  {array}   string "The device types after the insert."
// @Failure      400  {object}  utils.APIError "Missing label."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/device-types [post]
func AddDeviceTypeHandler(c *gin.Context, storage catalog.Storage) {
	var req CatalogLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.SaveDeviceType(req.Label); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to save device type: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.DeviceTypes())
}

// DeleteDeviceTypeHandler removes a device type.
// @Summary      Delete a Device Type
// @Description  Removes a device type (case-insensitive match). Brands, series and models recorded under it are left in place and reappear if the type is re-added.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        label path string true "The device type to remove."
// @Success      200  {array}   string "The device types after the delete."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/device-types/{label} [delete]
func DeleteDeviceTypeHandler(c *gin.Context, storage catalog.Storage) {
	store := catalogForRequest(c, storage)
	if err := store.DeleteDeviceType(c.Param("label")); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete device type: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.DeviceTypes())
}

// --- Brands ---

// BrandRequest carries a brand under a device type.
type BrandRequest struct {
	DeviceType string `json:"device_type" binding:"required"`
	Brand      string `json:"brand" binding:"required"`
}

// ListBrandsHandler lists the brands of one device type.
// @Summary      List Brands
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true "The device type to list brands for."
// @Success      200  {array}   string "The brands, in insertion order."
// @Failure      400  {object}  utils.APIError "Missing device_type."
// @Router       /catalog/brands [get]
func ListBrandsHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	if deviceType == "" {
		utils.GinBadRequest(c, "Query parameter 'device_type' is required.")
		return
	}
	c.JSON(http.StatusOK, catalogForRequest(c, storage).BrandsFor(deviceType))
}

// AddBrandHandler adds a brand under a device type.
// @Summary      Add a Brand
// @Description  Adds a brand under a device type. Unlike device types, brand duplicates are matched exactly: "Apple" and "apple" are two separate entries.
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        entry body BrandRequest true "Device type and brand."
// @Success      200  {array}   string "The device type's brands after the insert."
// @Failure      400  {object}  utils.APIError "Missing device_type or brand."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/brands [post]
func AddBrandHandler(c *gin.Context, storage catalog.Storage) {
	var req BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.SaveBrand(req.DeviceType, req.Brand); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to save brand: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.BrandsFor(req.DeviceType))
}

// DeleteBrandHandler removes a brand from a device type.
// @Summary      Delete a Brand
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true "The device type."
// @Param        brand       query string true "The brand to remove (exact match)."
// @Success      200  {array}   string "The device type's brands after the delete."
// @Failure      400  {object}  utils.APIError "Missing device_type or brand."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/brands [delete]
func DeleteBrandHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	brand := c.Query("brand")
	if deviceType == "" || brand == "" {
		utils.GinBadRequest(c, "Query parameters 'device_type' and 'brand' are required.")
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.DeleteBrand(deviceType, brand); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete brand: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.BrandsFor(deviceType))
}

// --- Series ---

// SeriesRequest carries a series under a device type and brand.
type SeriesRequest struct {
	DeviceType string `json:"device_type" binding:"required"`
	Brand      string `json:"brand" binding:"required"`
	Series     string `json:"series" binding:"required"`
}

// ListSeriesHandler lists the series of one brand.
// @Summary      List Series
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true "The device type."
// @Param        brand       query string true "The brand."
// @Success      200  {array}   string "The series, in insertion order."
// @Failure      400  {object}  utils.APIError "Missing device_type or brand."
// @Router       /catalog/series [get]
func ListSeriesHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	brand := c.Query("brand")
	if deviceType == "" || brand == "" {
		utils.GinBadRequest(c, "Query parameters 'device_type' and 'brand' are required.")
		return
	}
	c.JSON(http.StatusOK, catalogForRequest(c, storage).SeriesFor(deviceType, brand))
}

// AddSeriesHandler adds a series under a brand.
// @Summary      Add a Series
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        entry body SeriesRequest true "Device type, brand and series."
// @Success      200  {array}   string "The brand's series after the insert."
// @Failure      400  {object}  utils.APIError "Missing field."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/series [post]
func AddSeriesHandler(c *gin.Context, storage catalog.Storage) {
	var req SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.SaveSeries(req.DeviceType, req.Brand, req.Series); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to save series: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.SeriesFor(req.DeviceType, req.Brand))
}

// DeleteSeriesHandler removes a series from a brand.
// @Summary      Delete a Series
// @Description  Removes the series from the brand's series list. Models saved under the series are kept; they resurface in the grouped model view as a series that exists only through its models.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true "The device type."
// @Param        brand       query string true "The brand."
// @Param        series      query string true "The series to remove."
// @Success      200  {array}   string "The brand's series after the delete."
// @Failure      400  {object}  utils.APIError "Missing parameter."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/series [delete]
func DeleteSeriesHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	brand := c.Query("brand")
	series := c.Query("series")
	if deviceType == "" || brand == "" || series == "" {
		utils.GinBadRequest(c, "Query parameters 'device_type', 'brand' and 'series' are required.")
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.DeleteSeries(deviceType, brand, series); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete series: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.SeriesFor(deviceType, brand))
}

// --- Models ---

// ModelRequest carries a model under a device type, brand and series.
type ModelRequest struct {
	DeviceType string `json:"device_type" binding:"required"`
	Brand      string `json:"brand" binding:"required"`
	Series     string `json:"series" binding:"required"`
	Model      string `json:"model" binding:"required"`
}

// ListModelsHandler lists models.
// @Summary      List Models
// @Description  With `series` set, returns that series' model list. Without it, returns all of the brand's models grouped by series, including series that currently have no models.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true  "The device type."
// @Param        brand       query string true  "The brand."
// @Param        series      query string false "Limit to one series."
// @Success      200  {object}  any "A string array (with series) or a series-to-models map (without)."
// @Failure      400  {object}  utils.APIError "Missing device_type or brand."
// @Router       /catalog/models [get]
func ListModelsHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	brand := c.Query("brand")
	if deviceType == "" || brand == "" {
		utils.GinBadRequest(c, "Query parameters 'device_type' and 'brand' are required.")
		return
	}
	store := catalogForRequest(c, storage)
	if series := c.Query("series"); series != "" {
		c.JSON(http.StatusOK, store.ModelsFor(deviceType, brand, series))
		return
	}
	c.JSON(http.StatusOK, store.ModelsForDeviceAndBrand(deviceType, brand))
}

// AddModelHandler adds a model under a series.
// @Summary      Add a Model
// @Description  Adds a model to a series, creating the series entry as a side effect if it does not exist yet.
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        entry body ModelRequest true "Device type, brand, series and model."
// @Success      200  {array}   string "The series' models after the insert."
// @Failure      400  {object}  utils.APIError "Missing field."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/models [post]
func AddModelHandler(c *gin.Context, storage catalog.Storage) {
	var req ModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.SaveModel(req.DeviceType, req.Brand, req.Series, req.Model); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to save model: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.ModelsFor(req.DeviceType, req.Brand, req.Series))
}

// DeleteModelHandler removes a model from a series.
// @Summary      Delete a Model
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true "The device type."
// @Param        brand       query string true "The brand."
// @Param        series      query string true "The series."
// @Param        model       query string true "The model to remove."
// @Success      200  {array}   string "The series' models after the delete."
// @Failure      400  {object}  utils.APIError "Missing parameter."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/models [delete]
func DeleteModelHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	brand := c.Query("brand")
	series := c.Query("series")
	model := c.Query("model")
	if deviceType == "" || brand == "" || series == "" || model == "" {
		utils.GinBadRequest(c, "Query parameters 'device_type', 'brand', 'series' and 'model' are required.")
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.DeleteModel(deviceType, brand, series, model); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete model: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.ModelsFor(deviceType, brand, series))
}

// --- Issues ---

// IssueRequest carries an issue label for a device type.
type IssueRequest struct {
	DeviceType string `json:"device_type" binding:"required"`
	Issue      string `json:"issue" binding:"required"`
}

// ListIssuesHandler lists the effective issues of a device type.
// @Summary      List Issues
// @Description  Returns the effective issue list of a device type: the built-in defaults merged with the caller's custom additions, minus anything the caller has deleted. Device types without a default table fall back to the defaults of "Andere".
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true "The device type."
// @Success      200  {array}   string "The effective issues."
// @Failure      400  {object}  utils.APIError "Missing device_type."
// @Router       /catalog/issues [get]
func ListIssuesHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	if deviceType == "" {
		utils.GinBadRequest(c, "Query parameter 'device_type' is required.")
		return
	}
	c.JSON(http.StatusOK, catalogForRequest(c, storage).IssuesFor(deviceType))
}

// AddIssueHandler adds a custom issue to a device type.
// @Summary      Add an Issue
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        entry body IssueRequest true "Device type and issue label."
// @Success      200  {array}   string "The effective issues after the insert."
// @Failure      400  {object}  utils.APIError "Missing field."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/issues [post]
func AddIssueHandler(c *gin.Context, storage catalog.Storage) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.AddIssue(req.DeviceType, req.Issue); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to save issue: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.IssuesFor(req.DeviceType))
}

// DeleteIssueHandler removes an issue from a device type.
// @Summary      Delete an Issue
// @Description  Removes an issue from the device type's effective list. Built-in defaults cannot be truly removed, so deleting one records a suppression that survives restarts; deleting the same issue twice is a no-op.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        device_type query string true "The device type."
// @Param        issue       query string true "The issue label to remove."
// @Success      200  {array}   string "The effective issues after the delete."
// @Failure      400  {object}  utils.APIError "Missing parameter."
// @Failure      500  {object}  utils.APIError "The catalog could not be persisted."
// @Router       /catalog/issues [delete]
func DeleteIssueHandler(c *gin.Context, storage catalog.Storage) {
	deviceType := c.Query("device_type")
	issue := c.Query("issue")
	if deviceType == "" || issue == "" {
		utils.GinBadRequest(c, "Query parameters 'device_type' and 'issue' are required.")
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.DeleteIssue(deviceType, issue); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete issue: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.IssuesFor(deviceType))
}

// --- Suggestions ---

// SuggestHandler returns fuzzy-matched completions for catalog input fields.
// @Summary      Suggest Catalog Entries
// @Description  Fuzzy-matches the query against one catalog level, for type-ahead in the order form. `kind` selects the level: device_types, brands (needs device_type), series (needs device_type and brand), models (needs device_type and brand; series optional), issues (needs device_type). An empty query returns all candidates.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        kind        query string true  "device_types, brands, series, models or issues."
// @Param        device_type query string false "Context for brands, series, models and issues."
// @Param        brand       query string false "Context for series and models."
// @Param        series      query string false "Optional context for models."
// @Param        q           query string false "The typed text to match."
// @Success      200  {array}   string "Ranked suggestions, best match first."
// @Failure      400  {object}  utils.APIError "Unknown kind or missing context parameter."
// @Router       /catalog/suggest [get]
func SuggestHandler(c *gin.Context, storage catalog.Storage) {
	store := catalogForRequest(c, storage)
	suggestions, err := store.Suggest(
		c.Query("kind"),
		c.Query("device_type"),
		c.Query("brand"),
		c.Query("series"),
		c.Query("q"),
	)
	if err != nil {
		utils.GinBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// --- Reseed ---

// ReseedRequest replaces a brand's model table wholesale.
type ReseedRequest struct {
	DeviceType string              `json:"device_type" binding:"required"`
	Brand      string              `json:"brand" binding:"required"`
	Series     map[string][]string `json:"series" binding:"required"`
}

// ReseedHandler replaces one brand's series and models from a seed table.
// @Summary      Reseed a Brand's Models
// @Description  Drops everything recorded under the brand and writes the provided series-to-models table in its place. Used to load a fresh factory model list. Series are written in sorted order. The operation is not atomic: a storage failure mid-way leaves the already-written series in place, and re-running the reseed completes it.
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        seed body ReseedRequest true "Device type, brand and the full series-to-models table."
// @Success      200  {object}  map[string][]string "The brand's models after the reseed, grouped by series."
// @Failure      400  {object}  utils.APIError "Missing field."
// @Failure      500  {object}  utils.APIError "Storage failure during the reseed; re-run to complete."
// @Router       /catalog/reseed [post]
func ReseedHandler(c *gin.Context, storage catalog.Storage) {
	var req ReseedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	store := catalogForRequest(c, storage)
	if err := store.Reseed(req.DeviceType, req.Brand, req.Series); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Reseed failed: %v", err))
		return
	}
	c.JSON(http.StatusOK, store.ModelsForDeviceAndBrand(req.DeviceType, req.Brand))
}
