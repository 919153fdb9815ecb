package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	receiptdomain "github.com/mariahavens/pos/internal/receipt/domain"
)

type generateReceiptRequest struct {
	OrderID       snowflake.ID  `json:"order_id"`
	PaymentID     *snowflake.ID `json:"payment_id"`
	Type          string        `json:"type"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	CustomerPhone string        `json:"customer_phone"`
}

func (s *Server) GenerateReceipt(c *gin.Context) {
	var req generateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receiptSvc.Generate(c.Request.Context(), receiptdomain.GenerateRequest{
		OrderID:       req.OrderID,
		PaymentID:     req.PaymentID,
		Type:          receiptdomain.ReceiptType(strings.TrimSpace(req.Type)),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		ActorID:       actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReceipt(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receiptSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrderReceipts(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receiptSvc.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type voidReceiptRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) VoidReceipt(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req voidReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receiptSvc.Void(c.Request.Context(), receiptdomain.VoidRequest{
		ReceiptID: id,
		Reason:    req.Reason,
		ActorID:   actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PrintReceipt(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.receiptSvc.MarkPrinted(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
