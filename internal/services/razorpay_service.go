package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"lims-backend/internal/models"
	"lims-backend/internal/store"
	"lims-backend/internal/timeutil"
)

// RazorpayService handles online invoice payments through the Razorpay
// gateway. A captured payment is recorded on the invoice's payment
// ledger exactly once; replayed verifications return the stored
// transaction without touching the ledger again.
type RazorpayService struct {
	store         *store.Store
	ledger        *PaymentLedger
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayService(st *store.Store, ledger *PaymentLedger, keyID, keySecret, webhookSecret string) *RazorpayService {
	return &RazorpayService{
		store:         st,
		ledger:        ledger,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// IsEnabled reports whether gateway credentials are configured
func (s *RazorpayService) IsEnabled() bool {
	return s.keyID != "" && s.keySecret != ""
}

func (s *RazorpayService) client() *razorpay.Client {
	if !s.IsEnabled() {
		return nil
	}
	return razorpay.NewClient(s.keyID, s.keySecret)
}

// CreateOrder opens a gateway order for the outstanding balance of an
// invoice and stores a pending transaction record.
func (s *RazorpayService) CreateOrder(ctx context.Context, req *models.CreateOnlinePaymentRequest) (*models.CreateOrderResponse, error) {
	client := s.client()
	if client == nil {
		return nil, fmt.Errorf("online payments are not configured")
	}

	var inv *models.Invoice
	patientName := ""
	s.store.View(func(st *store.State) {
		if found, ok := st.Invoices[req.InvoiceID]; ok {
			cp := *found
			inv = &cp
			if p, ok := st.Patients[found.PatientID]; ok {
				patientName = p.Name
			}
		}
	})
	if inv == nil {
		return nil, ErrNotFound
	}

	amount := req.Amount
	if amount <= 0 {
		amount = inv.FinalAmount - inv.AmountPaid
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invoice %s has no outstanding balance", inv.InvoiceNumber)
	}

	// Razorpay amounts are in paise
	amountPaise := int(amount * 100)

	orderData := map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  fmt.Sprintf("rcpt_%d_%d", inv.ID, time.Now().Unix()),
		"notes": map[string]interface{}{
			"invoice_id":     inv.ID,
			"invoice_number": inv.InvoiceNumber,
			"patient_id":     inv.PatientID,
		},
	}
	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay order response missing id")
	}

	err = s.store.Update(func(st *store.State) error {
		tx := &models.OnlineTransaction{
			ID:              st.NextID(store.ColOnlineTx),
			RazorpayOrderID: orderID,
			InvoiceID:       inv.ID,
			InvoiceNumber:   inv.InvoiceNumber,
			PatientID:       inv.PatientID,
			PatientName:     patientName,
			Amount:          amount,
			Status:          models.OnlineTxStatusCreated,
			CreatedAt:       timeutil.Now(),
		}
		st.OnlineTx[tx.ID] = tx
		st.Touch(store.ColOnlineTx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.CreateOrderResponse{
		OrderID:       orderID,
		Amount:        amountPaise,
		Currency:      "INR",
		KeyID:         s.keyID,
		InvoiceNumber: inv.InvoiceNumber,
		PatientName:   patientName,
		Payable:       amount,
	}, nil
}

// VerifyPayment checks the checkout callback signature and, on first
// success, records the payment on the invoice ledger.
func (s *RazorpayService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.OnlineTransaction, error) {
	if !s.verifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		s.markFailed(req.RazorpayOrderID, "Invalid signature")
		return nil, fmt.Errorf("invalid payment signature")
	}

	var tx *models.OnlineTransaction
	alreadyProcessed := false
	err := s.store.Update(func(st *store.State) error {
		found := st.OnlineTxByOrderID(req.RazorpayOrderID)
		if found == nil {
			return ErrNotFound
		}
		if found.Status == models.OnlineTxStatusSuccess {
			alreadyProcessed = true
			cp := *found
			tx = &cp
			return nil
		}
		now := timeutil.Now()
		found.RazorpayPaymentID = req.RazorpayPaymentID
		found.Status = models.OnlineTxStatusSuccess
		found.Method = "online"
		found.CompletedAt = &now
		st.Touch(store.ColOnlineTx)
		cp := *found
		tx = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyProcessed {
		return tx, nil
	}

	_, err = s.ledger.RecordPayment(ctx, tx.InvoiceID, &models.RecordPaymentRequest{
		Amount: tx.Amount,
		Method: "online",
		Note:   fmt.Sprintf("Razorpay payment %s", tx.RazorpayPaymentID),
	}, 0)
	if err != nil {
		log.Printf("[Razorpay] Payment %s verified but ledger update failed: %v", tx.RazorpayPaymentID, err)
		return nil, err
	}
	return tx, nil
}

// VerifyWebhookSignature validates a webhook body against the
// configured webhook secret.
func (s *RazorpayService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(s.webhookSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ProcessWebhook handles gateway events. Captures feed the ledger like
// a checkout verification; failures mark the transaction failed.
func (s *RazorpayService) ProcessWebhook(ctx context.Context, event string, paymentData map[string]interface{}) error {
	orderID, _ := paymentData["order_id"].(string)
	paymentID, _ := paymentData["id"].(string)
	if orderID == "" {
		return fmt.Errorf("webhook payload missing order_id")
	}

	switch event {
	case "payment.captured":
		return s.handleCaptured(ctx, orderID, paymentID)
	case "payment.failed":
		reason, _ := paymentData["error_description"].(string)
		if reason == "" {
			reason = "Payment failed"
		}
		s.markFailed(orderID, reason)
		return nil
	default:
		log.Printf("[Razorpay] Ignoring webhook event %s", event)
		return nil
	}
}

func (s *RazorpayService) handleCaptured(ctx context.Context, orderID, paymentID string) error {
	var tx *models.OnlineTransaction
	alreadyProcessed := false
	err := s.store.Update(func(st *store.State) error {
		found := st.OnlineTxByOrderID(orderID)
		if found == nil {
			return ErrNotFound
		}
		if found.Status == models.OnlineTxStatusSuccess {
			alreadyProcessed = true
			return nil
		}
		now := timeutil.Now()
		found.RazorpayPaymentID = paymentID
		found.Status = models.OnlineTxStatusSuccess
		found.Method = "online"
		found.CompletedAt = &now
		st.Touch(store.ColOnlineTx)
		cp := *found
		tx = &cp
		return nil
	})
	if err != nil || alreadyProcessed {
		return err
	}

	_, err = s.ledger.RecordPayment(ctx, tx.InvoiceID, &models.RecordPaymentRequest{
		Amount: tx.Amount,
		Method: "online",
		Note:   fmt.Sprintf("Razorpay payment %s", paymentID),
	}, 0)
	return err
}

func (s *RazorpayService) markFailed(orderID, reason string) {
	err := s.store.Update(func(st *store.State) error {
		found := st.OnlineTxByOrderID(orderID)
		if found == nil {
			return nil
		}
		found.Status = models.OnlineTxStatusFailed
		found.FailureReason = reason
		st.Touch(store.ColOnlineTx)
		return nil
	})
	if err != nil {
		log.Printf("[Razorpay] Failed to mark order %s failed: %v", orderID, err)
	}
}

func (s *RazorpayService) verifySignature(orderID, paymentID, signature string) bool {
	if s.keySecret == "" {
		return false
	}
	data := orderID + "|" + paymentID
	h := hmac.New(sha256.New, []byte(s.keySecret))
	h.Write([]byte(data))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ListTransactions returns all gateway transactions, newest last
func (s *RazorpayService) ListTransactions() []*models.OnlineTransaction {
	var out []*models.OnlineTransaction
	s.store.View(func(st *store.State) {
		for _, tx := range st.OnlineTxList() {
			cp := *tx
			out = append(out, &cp)
		}
	})
	return out
}
