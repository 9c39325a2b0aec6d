package utils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	models "github.com/phillip/event-ledger-go/models"
)

type fakeClients map[primitive.ObjectID]*models.Client

func (f fakeClients) GetClient(_ context.Context, _, id primitive.ObjectID) (*models.Client, error) {
	c, ok := f[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return c, nil
}

type sentMail struct{ to, subject, body string }

type fakeSender struct{ sent []sentMail }

func (f *fakeSender) SendEmail(_ context.Context, to, _, subject, body string) error {
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeUploader struct {
	uploaded map[string][]byte
	deleted  []string
}

func (f *fakeUploader) UploadInvoiceDocument(_ context.Context, doc io.Reader, publicID string) (string, error) {
	data, err := io.ReadAll(doc)
	if err != nil {
		return "", err
	}
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[publicID] = data
	return "https://cdn.example.com/invoices/" + publicID + ".pdf", nil
}

func (f *fakeUploader) DeleteInvoiceDocument(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

func testInvoice(clientID primitive.ObjectID) *models.Invoice {
	return &models.Invoice{
		ID:             primitive.NewObjectID(),
		OrganizationID: primitive.NewObjectID(),
		ClientID:       clientID,
		InvoiceNumber:  "INV-2025-0003",
		Currency:       "INR",
		Items:          []models.LineItem{{Description: "Hall", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(2360), Amount: decimal.NewFromInt(2360)}},
		Total:          decimal.NewFromInt(2360),
		BalanceAmount:  decimal.NewFromInt(1360),
		Status:         models.InvoiceSent,
	}
}

func TestDocumentThenEmailOnInvoiceSent(t *testing.T) {
	clientID := primitive.NewObjectID()
	clients := fakeClients{clientID: {ID: clientID, Name: "Asha", Email: "asha@example.com"}}
	uploader := &fakeUploader{}
	sender := &fakeSender{}
	inv := testInvoice(clientID)

	n := &ledger.Notification{Kind: ledger.InvoiceSent, OrganizationID: inv.OrganizationID, Invoice: inv}
	docs := &DocumentNotifier{Clients: clients, Uploader: uploader}
	mail := &EmailNotifier{Clients: clients, Sender: sender, Symbol: "₹"}

	if err := docs.Notify(context.Background(), n); err != nil {
		t.Fatalf("documents: %v", err)
	}
	if err := mail.Notify(context.Background(), n); err != nil {
		t.Fatalf("email: %v", err)
	}

	publicID := inv.OrganizationID.Hex() + "/INV-2025-0003"
	if len(uploader.uploaded[publicID]) == 0 {
		t.Fatalf("no document uploaded under %s", publicID)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	m := sender.sent[0]
	if m.to != "asha@example.com" || !strings.Contains(m.body, n.DocumentURL) || !strings.Contains(m.body, "₹2360.00") {
		t.Errorf("email = %+v", m)
	}

	void := &ledger.Notification{Kind: ledger.InvoiceVoided, OrganizationID: inv.OrganizationID, Invoice: inv}
	if err := docs.Notify(context.Background(), void); err != nil {
		t.Fatalf("void: %v", err)
	}
	if len(uploader.deleted) != 1 || uploader.deleted[0] != publicID {
		t.Errorf("deleted = %v", uploader.deleted)
	}
}

func TestEmailNotifierSkipsVendorPayments(t *testing.T) {
	sender := &fakeSender{}
	mail := &EmailNotifier{Clients: fakeClients{}, Sender: sender, Symbol: "₹"}
	n := &ledger.Notification{
		Kind:    ledger.PaymentRecorded,
		Payment: &models.Payment{Type: models.VendorPayment, Title: "Florist"},
		Amount:  decimal.NewFromInt(100),
	}
	if err := mail.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("vendor payment was mailed")
	}
}

func TestEmailNotifierUnknownClient(t *testing.T) {
	mail := &EmailNotifier{Clients: fakeClients{}, Sender: &fakeSender{}, Symbol: "₹"}
	n := &ledger.Notification{Kind: ledger.InvoiceSent, Invoice: testInvoice(primitive.NewObjectID())}
	if err := mail.Notify(context.Background(), n); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestMailerSendsZeptoPayload(t *testing.T) {
	var got emailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Zoho-enczapikey secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL, "Zoho-enczapikey secret", "billing@example.com")
	if err := m.SendEmail(context.Background(), "asha@example.com", "Asha", "Invoice", "<p>hi</p>"); err != nil {
		t.Fatalf("SendEmail: %v", err)
	}
	if got.From.Address != "billing@example.com" || len(got.To) != 1 || got.To[0].Email.Address != "asha@example.com" {
		t.Errorf("payload = %+v", got)
	}

	bad := NewMailer(srv.URL, "wrong", "billing@example.com")
	if err := bad.SendEmail(context.Background(), "asha@example.com", "Asha", "Invoice", "x"); err == nil {
		t.Error("expected error on 401")
	}
	if err := (&Mailer{}).SendEmail(context.Background(), "a@b.c", "", "s", "b"); !errors.Is(err, ErrMailerNotConfigured) {
		t.Errorf("unconfigured err = %v", err)
	}
}
