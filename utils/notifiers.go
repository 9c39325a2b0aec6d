package utils

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	"github.com/phillip/event-ledger-go/logger"
	models "github.com/phillip/event-ledger-go/models"
)

// ClientLookup resolves the client a notification is addressed to.
type ClientLookup interface {
	GetClient(ctx context.Context, orgID, id primitive.ObjectID) (*models.Client, error)
}

// EmailSender is satisfied by *Mailer.
type EmailSender interface {
	SendEmail(ctx context.Context, to, toName, subject, body string) error
}

// DocumentUploader is satisfied by *DocumentStorage.
type DocumentUploader interface {
	UploadInvoiceDocument(ctx context.Context, doc io.Reader, publicID string) (string, error)
	DeleteInvoiceDocument(ctx context.Context, publicID string) error
}

// ---------------- EMAIL ----------------

// EmailNotifier mails the client when an invoice is sent or money is recorded
// against something they owe. Vendor payments are not mailed.
type EmailNotifier struct {
	Clients ClientLookup
	Sender  EmailSender
	Symbol  string
}

func (e *EmailNotifier) Notify(ctx context.Context, n *ledger.Notification) error {
	clientID, subject, body := e.compose(n)
	if clientID == nil {
		return nil
	}
	client, err := e.Clients.GetClient(ctx, n.OrganizationID, *clientID)
	if err != nil {
		return fmt.Errorf("load client %s: %w", clientID.Hex(), err)
	}
	if client.Email == "" {
		return nil
	}
	return e.Sender.SendEmail(ctx, client.Email, client.Name, subject, body)
}

func (e *EmailNotifier) compose(n *ledger.Notification) (*primitive.ObjectID, string, string) {
	switch n.Kind {
	case ledger.InvoiceSent:
		inv := n.Invoice
		body := fmt.Sprintf("<p>Invoice <b>%s</b> for %s%s has been issued.</p>",
			html.EscapeString(inv.InvoiceNumber), e.Symbol, inv.Total.StringFixed(2))
		if inv.DueDate != nil {
			body += fmt.Sprintf("<p>Payment is due by %s.</p>", inv.DueDate.Format("02 Jan 2006"))
		}
		if n.DocumentURL != "" {
			body += fmt.Sprintf(`<p><a href="%s">Download invoice</a></p>`, html.EscapeString(n.DocumentURL))
		}
		return &inv.ClientID, "Invoice " + inv.InvoiceNumber, body

	case ledger.InvoicePaymentRecorded:
		inv := n.Invoice
		body := fmt.Sprintf("<p>We received %s%s against invoice <b>%s</b>. Balance due: %s%s.</p>",
			e.Symbol, n.Amount.StringFixed(2), html.EscapeString(inv.InvoiceNumber),
			e.Symbol, inv.BalanceAmount.StringFixed(2))
		return &inv.ClientID, "Payment received for " + inv.InvoiceNumber, body

	case ledger.PaymentRecorded:
		p := n.Payment
		if p.Type != models.ClientPayment || p.ClientID == nil {
			return nil, "", ""
		}
		body := fmt.Sprintf("<p>We received %s%s for <b>%s</b>. Outstanding: %s%s.</p>",
			e.Symbol, n.Amount.StringFixed(2), html.EscapeString(p.Title),
			e.Symbol, p.OutstandingAmount.StringFixed(2))
		return p.ClientID, "Payment received", body
	}
	return nil, "", ""
}

// ---------------- DOCUMENTS ----------------

// DocumentNotifier renders and uploads the PDF when an invoice is sent and
// removes it when the invoice is voided. The URL travels on the notification
// for later notifiers; it is not written back to the invoice.
type DocumentNotifier struct {
	Clients  ClientLookup
	Uploader DocumentUploader
}

func (d *DocumentNotifier) Notify(ctx context.Context, n *ledger.Notification) error {
	if n.Invoice == nil {
		return nil
	}
	inv := n.Invoice
	publicID := inv.OrganizationID.Hex() + "/" + inv.InvoiceNumber

	switch n.Kind {
	case ledger.InvoiceSent:
		var party InvoiceParty
		if client, err := d.Clients.GetClient(ctx, inv.OrganizationID, inv.ClientID); err == nil {
			party = InvoiceParty{Name: client.Name, Email: client.Email, Phone: client.Phone}
		}
		doc, err := RenderInvoicePDF(inv, party)
		if err != nil {
			return err
		}
		url, err := d.Uploader.UploadInvoiceDocument(ctx, bytes.NewReader(doc), publicID)
		if err != nil {
			return err
		}
		n.DocumentURL = url

		log := logger.WithComponent("documents")
		log.Info().
			Str("invoice_number", inv.InvoiceNumber).
			Str("url", url).
			Msg("invoice document uploaded")
		return nil

	case ledger.InvoiceVoided:
		return d.Uploader.DeleteInvoiceDocument(ctx, publicID)
	}
	return nil
}
