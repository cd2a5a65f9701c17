package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// getProductReviews handles listing a product's reviews
func (h *Handler) getProductReviews(c *gin.Context) {
	result, err := h.reviews.GetProductReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// getMyReviews handles listing the authenticated user's reviews
func (h *Handler) getMyReviews(c *gin.Context) {
	claims := currentClaims(c)

	reviews, err := h.reviews.GetUserReviews(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// createReview handles review creation
func (h *Handler) createReview(c *gin.Context) {
	claims := currentClaims(c)

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), claims.UserID, c.Param("id"),
		req.Rating, req.Title, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// updateReview handles editing the user's own review
func (h *Handler) updateReview(c *gin.Context) {
	claims := currentClaims(c)

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), claims.UserID, c.Param("id"),
		req.Rating, req.Title, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// deleteReview handles removing the user's own review
func (h *Handler) deleteReview(c *gin.Context) {
	claims := currentClaims(c)

	if err := h.reviews.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// approveReview handles publishing a review (admin)
func (h *Handler) approveReview(c *gin.Context) {
	if err := h.reviews.Approve(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}
