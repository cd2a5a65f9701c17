package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// listCartItems handles cart listing
func (h *Handler) listCartItems(c *gin.Context) {
	claims := currentClaims(c)

	items, err := h.cart.ListItems(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// addCartItem handles adding a product to the cart
func (h *Handler) addCartItem(c *gin.Context) {
	claims := currentClaims(c)

	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.cart.AddItem(c.Request.Context(), claims.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// updateCartItem handles quantity changes on a cart line
func (h *Handler) updateCartItem(c *gin.Context) {
	claims := currentClaims(c)

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.cart.UpdateItem(c.Request.Context(), claims.UserID, c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// removeCartItem handles removing a cart line
func (h *Handler) removeCartItem(c *gin.Context) {
	claims := currentClaims(c)

	if err := h.cart.RemoveItem(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
