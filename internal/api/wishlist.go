package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listWishlist handles wishlist listing
func (h *Handler) listWishlist(c *gin.Context) {
	claims := currentClaims(c)

	items, err := h.wishlist.List(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// checkWishlistItem reports whether a product is in the user's wishlist
func (h *Handler) checkWishlistItem(c *gin.Context) {
	claims := currentClaims(c)

	ok, err := h.wishlist.Contains(c.Request.Context(), claims.UserID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"in_wishlist": ok})
}

// addWishlistItem handles saving a product to the wishlist
func (h *Handler) addWishlistItem(c *gin.Context) {
	claims := currentClaims(c)

	item, err := h.wishlist.Add(c.Request.Context(), claims.UserID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// removeWishlistItem handles removing a product from the wishlist
func (h *Handler) removeWishlistItem(c *gin.Context) {
	claims := currentClaims(c)

	if err := h.wishlist.Remove(c.Request.Context(), claims.UserID, c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
