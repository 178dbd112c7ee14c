package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

// AvailabilityChecker answers whether an item can be made right now
// from ledger stock. Implemented by availability.Resolver.
type AvailabilityChecker interface {
	RollAvailable(ctx context.Context, rollID int64, quantity int) (bool, []core.Shortfall, error)
	SetAvailable(ctx context.Context, setID int64, quantity int) (bool, []core.Shortfall, error)
}

type Handler struct {
	service *Service
	avail   AvailabilityChecker
}

func NewHandler(service *Service, avail AvailabilityChecker) *Handler {
	return &Handler{service: service, avail: avail}
}

type rollView struct {
	Roll
	IsAvailable bool `json:"is_available"`
}

type setView struct {
	Set
	IsAvailable bool `json:"is_available"`
}

// ---------------------------------------------------------------------------
// Rolls
// ---------------------------------------------------------------------------

func (h *Handler) ListRolls(c *gin.Context) {
	ctx := c.Request.Context()

	rolls, err := h.service.ListRolls(ctx)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	views := make([]rollView, 0, len(rolls))
	for _, roll := range rolls {
		ok, _, err := h.avail.RollAvailable(ctx, roll.ID, 1)
		if err != nil {
			logrus.WithError(err).WithField("roll_id", roll.ID).Warn("availability check failed")
		}
		views = append(views, rollView{Roll: roll, IsAvailable: ok})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "rolls": views})
}

func (h *Handler) GetRoll(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}
	ctx := c.Request.Context()

	roll, err := h.service.GetRoll(ctx, id)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	ok, shortfalls, err := h.avail.RollAvailable(ctx, id, 1)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"roll":                rollView{Roll: *roll, IsAvailable: ok},
		"pricing":             RollFigures(roll),
		"unavailable_reasons": shortfallReasons(shortfalls),
	})
}

type rollRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	IsPopular   bool            `json:"is_popular"`
	IsNew       bool            `json:"is_new"`
}

func (h *Handler) CreateRoll(c *gin.Context) {
	var req rollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	roll := &Roll{
		Name:        req.Name,
		Description: req.Description,
		SalePrice:   req.SalePrice,
		IsPopular:   req.IsPopular,
		IsNew:       req.IsNew,
	}
	if err := h.service.CreateRoll(c.Request.Context(), roll); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "roll": roll})
}

func (h *Handler) UpdateRoll(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}

	var req rollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ctx := c.Request.Context()

	roll, err := h.service.GetRoll(ctx, id)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	roll.Name = req.Name
	roll.Description = req.Description
	roll.SalePrice = req.SalePrice
	roll.IsPopular = req.IsPopular
	roll.IsNew = req.IsNew
	if err := h.service.UpdateRoll(ctx, roll); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "roll": roll})
}

func (h *Handler) DeleteRoll(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}

	if err := h.service.DeleteRoll(c.Request.Context(), id); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) UploadRollImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	url, err := h.service.UploadRollImage(c.Request.Context(), id, file)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "image_url": url})
}

// ---------------------------------------------------------------------------
// Recipes
// ---------------------------------------------------------------------------

func (h *Handler) Recipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}

	lines, err := h.service.Recipe(c.Request.Context(), id)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recipe": lines})
}

type recipeLineRequest struct {
	IngredientID  int64           `json:"ingredient_id"`
	AmountPerRoll decimal.Decimal `json:"amount_per_roll"`
}

func (h *Handler) AddRecipeLine(c *gin.Context) {
	rollID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}

	var req recipeLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	line := &RecipeLine{
		RollID:        rollID,
		IngredientID:  req.IngredientID,
		AmountPerRoll: req.AmountPerRoll,
	}
	if err := h.service.AddRecipeLine(c.Request.Context(), line); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "line": line})
}

func (h *Handler) UpdateRecipeLine(c *gin.Context) {
	rollID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}
	ingredientID, err := strconv.ParseInt(c.Param("ingredient_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient id"})
		return
	}

	var req struct {
		AmountPerRoll decimal.Decimal `json:"amount_per_roll"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.service.UpdateRecipeLine(c.Request.Context(), rollID, ingredientID, req.AmountPerRoll); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RemoveRecipeLine(c *gin.Context) {
	rollID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}
	ingredientID, err := strconv.ParseInt(c.Param("ingredient_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient id"})
		return
	}

	if err := h.service.RemoveRecipeLine(c.Request.Context(), rollID, ingredientID); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---------------------------------------------------------------------------
// Sets
// ---------------------------------------------------------------------------

func (h *Handler) ListSets(c *gin.Context) {
	ctx := c.Request.Context()

	sets, err := h.service.ListSets(ctx)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	views := make([]setView, 0, len(sets))
	for _, set := range sets {
		ok, _, err := h.avail.SetAvailable(ctx, set.ID, 1)
		if err != nil {
			logrus.WithError(err).WithField("set_id", set.ID).Warn("availability check failed")
		}
		views = append(views, setView{Set: set, IsAvailable: ok})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "sets": views})
}

func (h *Handler) GetSet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}
	ctx := c.Request.Context()

	set, err := h.service.GetSet(ctx, id)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	items, err := h.service.Composition(ctx, id)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	ok, shortfalls, err := h.avail.SetAvailable(ctx, id, 1)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"set":                 setView{Set: *set, IsAvailable: ok},
		"composition":         items,
		"pricing":             SetFigures(set, items),
		"unavailable_reasons": shortfallReasons(shortfalls),
	})
}

type setRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SetPrice    decimal.Decimal `json:"set_price"`
	IsPopular   bool            `json:"is_popular"`
	IsNew       bool            `json:"is_new"`
}

func (h *Handler) CreateSet(c *gin.Context) {
	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	set := &Set{
		Name:        req.Name,
		Description: req.Description,
		SetPrice:    req.SetPrice,
		IsPopular:   req.IsPopular,
		IsNew:       req.IsNew,
	}
	if err := h.service.CreateSet(c.Request.Context(), set); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "set": set})
}

func (h *Handler) UpdateSet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}

	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	ctx := c.Request.Context()

	set, err := h.service.GetSet(ctx, id)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	set.Name = req.Name
	set.Description = req.Description
	set.SetPrice = req.SetPrice
	set.IsPopular = req.IsPopular
	set.IsNew = req.IsNew
	if err := h.service.UpdateSet(ctx, set); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "set": set})
}

func (h *Handler) DeleteSet(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}

	if err := h.service.DeleteSet(c.Request.Context(), id); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) UploadSetImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	url, err := h.service.UploadSetImage(c.Request.Context(), id, file)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "image_url": url})
}

// ---------------------------------------------------------------------------
// Set composition
// ---------------------------------------------------------------------------

func (h *Handler) Composition(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}

	items, err := h.service.Composition(c.Request.Context(), id)
	if err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "composition": items})
}

type setItemRequest struct {
	RollID   int64 `json:"roll_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) AddSetItem(c *gin.Context) {
	setID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}

	var req setItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	item := &SetItem{SetID: setID, RollID: req.RollID, Quantity: req.Quantity}
	if err := h.service.AddSetItem(c.Request.Context(), item); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
}

func (h *Handler) UpdateSetItem(c *gin.Context) {
	setID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}
	rollID, err := strconv.ParseInt(c.Param("roll_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.service.UpdateSetItem(c.Request.Context(), setID, rollID, req.Quantity); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) RemoveSetItem(c *gin.Context) {
	setID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}
	rollID, err := strconv.ParseInt(c.Param("roll_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid roll id"})
		return
	}

	if err := h.service.RemoveSetItem(c.Request.Context(), setID, rollID); err != nil {
		c.JSON(core.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func shortfallReasons(shortfalls []core.Shortfall) []string {
	reasons := make([]string, 0, len(shortfalls))
	for _, sf := range shortfalls {
		reasons = append(reasons, sf.String())
	}
	return reasons
}
