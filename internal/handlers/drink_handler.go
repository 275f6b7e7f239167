package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"drinklog/internal/drinkstats"
	"drinklog/internal/export"
	"drinklog/internal/logger"
	"drinklog/internal/models"
	"drinklog/internal/pagination"
	"drinklog/internal/services"
	"drinklog/internal/share"
)

// DrinkSettings are the configurable limits and defaults of drink views.
type DrinkSettings struct {
	QuickOrderLimit int
	TopStoreLimit   int
	ExportLocale    string
	ShareURL        string
}

func (s DrinkSettings) viewOptions() drinkstats.ViewOptions {
	return drinkstats.ViewOptions{
		QuickOrderLimit: s.QuickOrderLimit,
		TopStoreLimit:   s.TopStoreLimit,
	}
}

// DrinkHandler handles drink-record-related requests
type DrinkHandler struct {
	drinkService services.DrinkServicer
	userService  services.UserServicer
	auditService services.AuditServicer
	settings     DrinkSettings
}

// NewDrinkHandler creates a new DrinkHandler
func NewDrinkHandler(drinkService services.DrinkServicer, userService services.UserServicer, auditService services.AuditServicer, settings DrinkSettings) *DrinkHandler {
	if settings.QuickOrderLimit <= 0 {
		settings.QuickOrderLimit = drinkstats.DefaultQuickOrderLimit
	}
	if settings.TopStoreLimit <= 0 {
		settings.TopStoreLimit = drinkstats.DefaultTopStoreLimit
	}
	return &DrinkHandler{
		drinkService: drinkService,
		userService:  userService,
		auditService: auditService,
		settings:     settings,
	}
}

// DrinkRequest represents the create and update payload. Updates replace
// every field.
type DrinkRequest struct {
	Date  string           `json:"date" example:"2024-01-03"`
	Store string           `json:"store" binding:"max=100" example:"50嵐"`
	Item  string           `json:"item" binding:"max=100" example:"珍珠奶茶"`
	Price *decimal.Decimal `json:"price,omitempty" swaggertype:"string" example:"55"`
	Ice   string           `json:"ice" binding:"ice_level" example:"少冰"`
	Sugar string           `json:"sugar" binding:"sugar_level" example:"半糖"`
	Note  string           `json:"note" binding:"max=500"`
}

func (r DrinkRequest) input() services.DrinkInput {
	return services.DrinkInput{
		Date:  r.Date,
		Store: r.Store,
		Item:  r.Item,
		Price: r.Price,
		Ice:   r.Ice,
		Sugar: r.Sugar,
		Note:  r.Note,
	}
}

// VocabularyResponse lists the known stores and items for autocomplete.
type VocabularyResponse struct {
	Stores []string `json:"stores"`
	Items  []string `json:"items"`
}

// ShareResponse is the share message of one drink.
type ShareResponse struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	Clipboard string `json:"clipboard"`
}

// snapshot loads the caller's records, most recent first.
func (h *DrinkHandler) snapshot(c *gin.Context) (string, []models.Drink, bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", nil, false
	}
	records, err := h.drinkService.Snapshot(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return "", nil, false
	}
	return userID, records, true
}

// ListDrinks handles listing drink records
// @Summary     List drinks
// @Description Get the user's drink records, most recent first, optionally limited to a date range
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "First date (YYYY-MM-DD), inclusive"
// @Param       end_date   query string false "Last date (YYYY-MM-DD), inclusive"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Drink] "Paginated drinks"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Record store not ready"
// @Router      /drinks [get]
func (h *DrinkHandler) ListDrinks(c *gin.Context) {
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	_, records, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, pagination.Slice(drinkstats.FilterByDateRange(records, r), page))
}

// GetOverview returns everything a client renders for the current records
// @Summary     Drink overview
// @Description Filtered records plus quick orders, store and item vocabularies and top stores computed over the whole history
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "First date (YYYY-MM-DD), inclusive"
// @Param       end_date   query string false "Last date (YYYY-MM-DD), inclusive"
// @Success     200 {object} drinkstats.View "Overview"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Record store not ready"
// @Router      /drinks/overview [get]
func (h *DrinkHandler) GetOverview(c *gin.Context) {
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	_, records, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, drinkstats.BuildView(records, r, h.settings.viewOptions()))
}

// GetQuickOrders returns the most recent distinct orders
// @Summary     Quick orders
// @Description Most recent distinct store, item, ice and sugar combinations
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum number of combinations (default 6)"
// @Success     200 {array}  models.Drink "Quick orders"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /drinks/quick-orders [get]
func (h *DrinkHandler) GetQuickOrders(c *gin.Context) {
	limit, err := parseLimit(c, h.settings.QuickOrderLimit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	_, records, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, drinkstats.RecentDistinctCombos(records, limit))
}

// GetVocabulary returns the known stores and items
// @Summary     Store and item vocabulary
// @Description Distinct non-empty store and item names over the whole history
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} VocabularyResponse "Vocabulary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /drinks/vocabulary [get]
func (h *DrinkHandler) GetVocabulary(c *gin.Context) {
	_, records, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, VocabularyResponse{
		Stores: drinkstats.DistinctNonEmpty(records, drinkstats.FieldStore),
		Items:  drinkstats.DistinctNonEmpty(records, drinkstats.FieldItem),
	})
}

// GetTopStores returns chart data for the most visited stores
// @Summary     Top stores
// @Description Stores ranked by number of visits; an empty list means there is nothing to chart
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Maximum number of stores (default 5)"
// @Success     200 {array}  drinkstats.StoreCount "Top stores"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /drinks/stats/stores [get]
func (h *DrinkHandler) GetTopStores(c *gin.Context) {
	limit, err := parseLimit(c, h.settings.TopStoreLimit)
	if err != nil {
		respondWithError(c, err)
		return
	}
	_, records, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, drinkstats.TopStoresByFrequency(records, limit))
}

// ExportDrinks downloads the filtered records as a file
// @Summary     Export drinks
// @Description Download the records of the date range as an xlsx workbook or a PDF report
// @Tags        drinks
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       start_date query string false "First date (YYYY-MM-DD), inclusive"
// @Param       end_date   query string false "Last date (YYYY-MM-DD), inclusive"
// @Param       format     query string false "xlsx (default) or pdf"
// @Param       locale     query string false "zh-TW or en"
// @Success     200 {file}   file "Export file"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Nothing to export"
// @Router      /drinks/export [get]
func (h *DrinkHandler) ExportDrinks(c *gin.Context) {
	r, err := parseDateRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	locale := c.DefaultQuery("locale", h.settings.ExportLocale)

	userID, records, ok := h.snapshot(c)
	if !ok {
		return
	}

	var displayName string
	if user, err := h.userService.GetUserByID(userID); err == nil {
		displayName = user.DisplayName
	}

	file, err := export.Render(drinkstats.FilterByDateRange(records, r), format, export.Options{
		DisplayName: displayName,
		Locale:      locale,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Get().Infow("drinks exported",
		"user_id", userID,
		"format", string(format),
		"file", file.Name,
		"bytes", len(file.Data),
	)
	c.Header("Content-Disposition", export.ContentDisposition(file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// CreateDrink handles drink record creation
// @Summary     Create drink
// @Description Log a new drink. Ice and sugar must both be selected.
// @Tags        drinks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body DrinkRequest true "Drink"
// @Success     201 {object} models.Drink "Created drink"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /drinks [post]
func (h *DrinkHandler) CreateDrink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DrinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	drink, err := h.drinkService.CreateDrink(c.Request.Context(), userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreateDrink, "drink", drink.ID, c.ClientIP(),
		map[string]interface{}{"store": drink.Store, "item": drink.Item, "date": drink.Date})
	c.JSON(http.StatusCreated, drink)
}

// GetDrink returns one drink record
// @Summary     Get drink
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Drink ID"
// @Success     200 {object} models.Drink "Drink"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Drink not found"
// @Router      /drinks/{id} [get]
func (h *DrinkHandler) GetDrink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	drink, err := h.drinkService.GetDrinkByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, drink)
}

// UpdateDrink handles full replacement of a drink record
// @Summary     Update drink
// @Description Replace every field of a drink. The drink moves to the top of the list.
// @Tags        drinks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string       true "Drink ID"
// @Param       request body DrinkRequest true "Drink"
// @Success     200 {object} models.Drink "Updated drink"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Drink not found"
// @Router      /drinks/{id} [put]
func (h *DrinkHandler) UpdateDrink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DrinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	drink, err := h.drinkService.UpdateDrink(c.Request.Context(), userID, c.Param("id"), req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdateDrink, "drink", drink.ID, c.ClientIP(),
		map[string]interface{}{"store": drink.Store, "item": drink.Item, "date": drink.Date})
	c.JSON(http.StatusOK, drink)
}

// DeleteDrink handles drink record deletion
// @Summary     Delete drink
// @Description Permanently delete a drink
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Drink ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Drink not found"
// @Router      /drinks/{id} [delete]
func (h *DrinkHandler) DeleteDrink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id := c.Param("id")
	if err := h.drinkService.DeleteDrink(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteDrink, "drink", id, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Drink deleted successfully"})
}

// ShareDrink composes the share message of a drink
// @Summary     Share drink
// @Tags        drinks
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true  "Drink ID"
// @Param       locale query string false "zh-TW or en"
// @Success     200 {object} ShareResponse "Share message"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Drink not found"
// @Router      /drinks/{id}/share [get]
func (h *DrinkHandler) ShareDrink(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	drink, err := h.drinkService.GetDrinkByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	msg := share.Compose(*drink, c.DefaultQuery("locale", h.settings.ExportLocale), h.settings.ShareURL)
	c.JSON(http.StatusOK, ShareResponse{
		Title:     msg.Title,
		Text:      msg.Text,
		URL:       msg.URL,
		Clipboard: msg.Clipboard(),
	})
}
