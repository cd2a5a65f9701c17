package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shop-backend/internal/models"
	"shop-backend/internal/service"
)

// placeOrder handles checkout: the authenticated user's cart becomes an
// order in a single transaction.
func (h *Handler) placeOrder(c *gin.Context) {
	claims := currentClaims(c)

	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.checkout.PlaceOrder(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// listOrders handles listing the authenticated user's orders
func (h *Handler) listOrders(c *gin.Context) {
	claims := currentClaims(c)

	orders, err := h.orders.ListUserOrders(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// getOrder handles single order lookup, scoped to the owner
func (h *Handler) getOrder(c *gin.Context) {
	claims := currentClaims(c)

	order, err := h.orders.GetUserOrder(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateOrderStatus handles fulfillment transitions (admin)
func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
