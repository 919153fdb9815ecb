package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/mariahavens/pos/internal/payment/domain"
	"github.com/shopspring/decimal"
)

type recordPaymentRequest struct {
	OrderID        snowflake.ID     `json:"order_id"`
	Amount         decimal.Decimal  `json:"amount"`
	Method         string           `json:"method"`
	TenderedAmount *decimal.Decimal `json:"tendered_amount"`
	TransactionRef string           `json:"transaction_ref"`
	Metadata       map[string]any   `json:"metadata"`
	Notes          string           `json:"notes"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		Method:         paymentdomain.PaymentMethod(strings.TrimSpace(req.Method)),
		TenderedAmount: req.TenderedAmount,
		TransactionRef: strings.TrimSpace(req.TransactionRef),
		Metadata:       req.Metadata,
		Notes:          req.Notes,
		ActorID:        actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrderPayments(c *gin.Context) {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type processPaymentRequest struct {
	TransactionRef    string          `json:"transaction_ref"`
	GatewayRef        string          `json:"gateway_ref"`
	AuthorizationCode string          `json:"authorization_code"`
	GatewayFee        decimal.Decimal `json:"gateway_fee"`
	ProcessingFee     decimal.Decimal `json:"processing_fee"`
}

func (s *Server) ProcessPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Process(c.Request.Context(), paymentdomain.ProcessPaymentRequest{
		PaymentID:         id,
		TransactionRef:    strings.TrimSpace(req.TransactionRef),
		GatewayRef:        strings.TrimSpace(req.GatewayRef),
		AuthorizationCode: strings.TrimSpace(req.AuthorizationCode),
		GatewayFee:        req.GatewayFee,
		ProcessingFee:     req.ProcessingFee,
		ActorID:           actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type closePaymentRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) FailPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req closePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Fail(c.Request.Context(), paymentdomain.FailPaymentRequest{
		PaymentID: id,
		Reason:    req.Reason,
		ActorID:   actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req closePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Cancel(c.Request.Context(), paymentdomain.CancelPaymentRequest{
		PaymentID: id,
		Reason:    req.Reason,
		ActorID:   actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type refundPaymentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason"`
}

func (s *Server) RefundPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req refundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Refund(c.Request.Context(), paymentdomain.RefundRequest{
		PaymentID: id,
		Amount:    req.Amount,
		Reason:    req.Reason,
		ActorID:   actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type splitPaymentRequest struct {
	Splits []paymentdomain.SplitInput `json:"splits"`
}

func (s *Server) SplitPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req splitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, err := actorID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Split(c.Request.Context(), paymentdomain.SplitPaymentRequest{
		PaymentID: id,
		Splits:    req.Splits,
		ActorID:   actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
