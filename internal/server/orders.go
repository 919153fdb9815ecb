package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	"github.com/mariahavens/pos/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	CustomerID           snowflake.ID                  `json:"customer_id"`
	WaiterID             *snowflake.ID                 `json:"waiter_id"`
	Type                 string                        `json:"type"`
	TableNumber          string                        `json:"table_number"`
	RoomNumber           string                        `json:"room_number"`
	Items                []orderdomain.CreateOrderItem `json:"items"`
	SpecialInstructions  string                        `json:"special_instructions"`
	KitchenNotes         string                        `json:"kitchen_notes"`
	Priority             string                        `json:"priority"`
	EstimatedPrepMinutes int                           `json:"estimated_prep_minutes"`
	DiscountAmount       decimal.Decimal               `json:"discount_amount"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		CustomerID:           req.CustomerID,
		WaiterID:             req.WaiterID,
		ActorID:              actor,
		Type:                 orderdomain.FulfillmentType(req.Type),
		TableNumber:          strings.TrimSpace(req.TableNumber),
		RoomNumber:           strings.TrimSpace(req.RoomNumber),
		Items:                req.Items,
		SpecialInstructions:  req.SpecialInstructions,
		KitchenNotes:         req.KitchenNotes,
		Priority:             orderdomain.OrderPriority(req.Priority),
		EstimatedPrepMinutes: req.EstimatedPrepMinutes,
		DiscountAmount:       req.DiscountAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		Type       string `form:"type"`
		CustomerID string `form:"customer_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var statuses []orderdomain.OrderStatus
	for _, raw := range strings.Split(query.Status, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := orderdomain.OrderStatus(raw)
		if !orderdomain.ValidStatus(status) {
			AbortWithError(c, orderdomain.ErrInvalidStatus)
			return
		}
		statuses = append(statuses, status)
	}

	var customerID snowflake.ID
	if raw := strings.TrimSpace(query.CustomerID); raw != "" {
		id, err := parseID("customer_id", raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		customerID = id
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrdersRequest{
		Statuses:   statuses,
		Type:       orderdomain.FulfillmentType(strings.TrimSpace(query.Type)),
		CustomerID: customerID,
		Page:       query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type transitionOrderRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (s *Server) TransitionOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req transitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.Transition(c.Request.Context(), orderdomain.TransitionRequest{
		OrderID: id,
		Status:  orderdomain.OrderStatus(strings.TrimSpace(req.Status)),
		ActorID: actor,
		Note:    req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.Cancel(c.Request.Context(), orderdomain.CancelRequest{
		OrderID: id,
		ActorID: actor,
		Reason:  req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMenuItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.GetItem(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
