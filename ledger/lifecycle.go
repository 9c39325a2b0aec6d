package ledger

import (
	models "github.com/phillip/event-ledger-go/models"
)

var invoiceTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceDraft:   {models.InvoiceSent, models.InvoiceCancelled},
	models.InvoiceSent:    {models.InvoicePartial, models.InvoicePaid, models.InvoiceOverdue, models.InvoiceCancelled},
	models.InvoicePartial: {models.InvoicePaid, models.InvoiceOverdue, models.InvoiceCancelled},
	models.InvoiceOverdue: {models.InvoicePartial, models.InvoicePaid, models.InvoiceCancelled},
	models.InvoicePaid:    {models.InvoicePartial},
}

// CheckTransition returns an InvalidStateError unless moving from -> to is
// allowed. Staying in the same status is always allowed.
func CheckTransition(from, to models.InvoiceStatus) error {
	if from == to {
		return nil
	}
	for _, target := range invoiceTransitions[from] {
		if target == to {
			return nil
		}
	}
	return NewInvalidStateError("invoice", string(from), "move to "+string(to))
}

// EnsureEditable rejects changes to items or financial terms after the draft stage.
func EnsureEditable(inv *models.Invoice) error {
	if inv.Status != models.InvoiceDraft {
		return NewInvalidStateError("invoice", string(inv.Status), "edit")
	}
	return nil
}

// EnsureVoidable rejects voiding paid or already cancelled invoices.
func EnsureVoidable(inv *models.Invoice) error {
	switch inv.Status {
	case models.InvoicePaid, models.InvoiceCancelled:
		return NewInvalidStateError("invoice", string(inv.Status), "void")
	}
	return nil
}

// EnsurePayable rejects money against invoices that were never issued or were voided.
func EnsurePayable(inv *models.Invoice) error {
	switch inv.Status {
	case models.InvoiceSent, models.InvoicePartial, models.InvoiceOverdue:
		return nil
	}
	return NewInvalidStateError("invoice", string(inv.Status), "record a payment")
}
