package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rawatinap/billing-server/internal/models"
	"github.com/rawatinap/billing-server/internal/report"
	"github.com/rawatinap/billing-server/internal/service"
	"github.com/rawatinap/billing-server/internal/utils"
)

// ListPatients shows the patient registry and the stays awaiting settlement
func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.svc.ListPatients(c.Request.Context())
	if err != nil {
		h.storeFailure(c, "list patients", err)
		h.render(c, http.StatusInternalServerError, "patients.html", nil)
		return
	}

	stays, err := h.svc.ListStays(c.Request.Context())
	if err != nil {
		h.storeFailure(c, "list stays", err)
		h.render(c, http.StatusInternalServerError, "patients.html", gin.H{"Patients": patients})
		return
	}

	h.render(c, http.StatusOK, "patients.html", gin.H{
		"Patients": patients,
		"Stays":    stays,
	})
}

func (h *Handler) PatientsReport(c *gin.Context) {
	patients, err := h.svc.ListPatients(c.Request.Context())
	if err != nil {
		h.storeFailure(c, "patients report", err)
		h.redirect(c, "/")
		return
	}

	body, err := h.exporter.Patients(patients)
	if err != nil {
		h.storeFailure(c, "patients report", err)
		h.redirect(c, "/")
		return
	}
	h.sendPDF(c, report.PatientsFilename, body)
}

// SettleStay bills a stay and sends the user to the transaction list
func (h *Handler) SettleStay(c *gin.Context) {
	stayID, ok := pathID(c)
	if !ok {
		return
	}

	tx, err := h.svc.SettleStay(c.Request.Context(), stayID)
	switch {
	case err != nil:
		h.storeFailure(c, "settle stay", err)
	case tx != nil:
		h.flash(c, models.FlashSuccess, "Transaction created. Total: "+utils.FormatRupiah(tx.Total))
	}
	h.redirect(c, "/transaksi")
}

func (h *Handler) ListTransactions(c *gin.Context) {
	txs, err := h.svc.ListTransactions(c.Request.Context())
	if err != nil {
		h.storeFailure(c, "list transactions", err)
		h.render(c, http.StatusInternalServerError, "transactions.html", nil)
		return
	}

	h.render(c, http.StatusOK, "transactions.html", gin.H{"Transactions": txs})
}

func (h *Handler) TransactionsReport(c *gin.Context) {
	txs, err := h.svc.ListTransactions(c.Request.Context())
	if err != nil {
		h.storeFailure(c, "transactions report", err)
		h.redirect(c, "/transaksi")
		return
	}

	body, err := h.exporter.Transactions(txs)
	if err != nil {
		h.storeFailure(c, "transactions report", err)
		h.redirect(c, "/transaksi")
		return
	}
	h.sendPDF(c, report.TransactionsFilename, body)
}

func (h *Handler) PatientTransactionsReport(c *gin.Context) {
	patientID, ok := pathID(c)
	if !ok {
		return
	}

	txs, err := h.svc.ListPatientTransactions(c.Request.Context(), patientID)
	if err != nil {
		h.storeFailure(c, "patient transactions report", err)
		h.redirect(c, "/transaksi")
		return
	}

	body, err := h.exporter.PatientTransactions(patientID, txs)
	if err != nil {
		h.storeFailure(c, "patient transactions report", err)
		h.redirect(c, "/transaksi")
		return
	}
	h.sendPDF(c, report.PatientTransactionsFilename(patientID), body)
}

func (h *Handler) TogglePaid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	found, err := h.svc.TogglePaid(c.Request.Context(), id)
	switch {
	case err != nil:
		h.storeFailure(c, "toggle paid", err)
	case found:
		h.flash(c, models.FlashSuccess, "Payment status updated.")
	}
	h.redirect(c, "/transaksi")
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteTransaction(c.Request.Context(), id); err != nil {
		h.storeFailure(c, "delete transaction", err)
	} else {
		h.flash(c, models.FlashSuccess, "Transaction deleted.")
	}
	h.redirect(c, "/transaksi")
}

func (h *Handler) EditTransactionPage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	tx, err := h.svc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.storeFailure(c, "get transaction", err)
		h.redirect(c, "/transaksi")
		return
	}
	if tx == nil {
		h.redirect(c, "/transaksi")
		return
	}

	h.render(c, http.StatusOK, "transaction_edit.html", gin.H{"Transaction": tx})
}

func (h *Handler) EditTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var form models.EditTransactionForm
	if err := c.ShouldBind(&form); err != nil {
		h.flash(c, models.FlashError, service.ErrInvalidInput.Error())
		h.redirect(c, fmt.Sprintf("/transaksi/edit/%d", id))
		return
	}

	found, err := h.svc.EditTransaction(c.Request.Context(), id, form)
	var userErr service.UserError
	switch {
	case errors.As(err, &userErr):
		h.flash(c, models.FlashError, userErr.Error())
		h.redirect(c, fmt.Sprintf("/transaksi/edit/%d", id))
		return
	case err != nil:
		h.storeFailure(c, "edit transaction", err)
	case found:
		h.flash(c, models.FlashSuccess, "Transaction updated.")
	}
	h.redirect(c, "/transaksi")
}

func (h *Handler) NewTransactionPage(c *gin.Context) {
	h.render(c, http.StatusOK, "transaction_new.html", gin.H{"RoomClasses": service.RoomClasses})
}

func (h *Handler) CreateTransaction(c *gin.Context) {
	var form models.ManualTransactionForm
	if err := c.ShouldBind(&form); err != nil {
		h.flash(c, models.FlashError, service.ErrAllFieldsRequired.Error())
		h.redirect(c, "/transaksi/tambah")
		return
	}

	tx, err := h.svc.CreateManualTransaction(c.Request.Context(), form)
	var userErr service.UserError
	switch {
	case errors.As(err, &userErr):
		h.flash(c, models.FlashError, userErr.Error())
		h.redirect(c, "/transaksi/tambah")
		return
	case err != nil:
		h.storeFailure(c, "create transaction", err)
		h.redirect(c, "/transaksi/tambah")
		return
	}

	h.flash(c, models.FlashSuccess, "Transaction added with ID "+utils.TransactionLabel(tx.ID)+".")
	h.redirect(c, "/transaksi")
}
