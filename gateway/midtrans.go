package gateway

import (
	"MedOffice/models"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/pkg/errors"
)

// Wallet statuses understood by the payment service.
const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPending  = "pending"
)

// MidtransGateway opens Snap checkouts for digital wallet payments.
type MidtransGateway struct {
	client    snap.Client
	serverKey string
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &MidtransGateway{serverKey: serverKey}
	g.client.New(serverKey, env)
	return g
}

// CreateCheckout registers a Snap transaction whose order id is the payment id.
func (g *MidtransGateway) CreateCheckout(ctx context.Context, payment *models.Payment, patient *models.Patient) (*models.WalletCheckout, error) {
	req := buildSnapRequest(payment, patient)
	resp, snapErr := g.client.CreateTransaction(req)
	if snapErr != nil {
		return nil, errors.Wrap(snapErr, "midtrans create transaction")
	}
	if resp == nil || resp.Token == "" {
		return nil, errors.New("midtrans returned an empty snap token")
	}
	return &models.WalletCheckout{PreferenceID: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func buildSnapRequest(payment *models.Payment, patient *models.Patient) *snap.Request {
	gross := payment.Amount.Round(0).IntPart()
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  payment.ID,
			GrossAmt: gross,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:       payment.ID,
			Price:    gross,
			Qty:      1,
			Name:     "Treatment " + string(payment.TreatmentType),
			Category: "healthcare",
		}},
	}
	if patient != nil {
		req.CustomerDetail = &midtrans.CustomerDetails{
			FName: patient.FirstName,
			LName: patient.LastName,
			Email: patient.Email,
			Phone: patient.Phone,
		}
	}
	return req
}

// VerifySignature checks a notification signature: SHA512(order_id + status_code + gross_amount + server key).
func (g *MidtransGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	if signature == "" {
		return false
	}
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + g.serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

// NormalizeStatus maps a Midtrans transaction status onto a wallet status.
func NormalizeStatus(transactionStatus, fraudStatus string) string {
	switch strings.ToLower(transactionStatus) {
	case "capture", "settlement", "success":
		if strings.ToLower(transactionStatus) == "capture" && strings.ToLower(fraudStatus) == "challenge" {
			return StatusPending
		}
		return StatusApproved
	case "deny", "cancel", "canceled", "expire", "expired", "failure", "failed":
		return StatusRejected
	default:
		return StatusPending
	}
}
