package router

import (
	"strconv"

	"github.com/iliyamo/admission-portal/internal/handler"
)

// RegisterApplication registers the form, payment and admit card screens.
// All of them require a signed-in browser except the admit card, which
// reports its own "unauthorized" message.
func RegisterApplication(e Routes, h *handler.PortalHandler) {
	auth := requireLogin()
	e.GET("/apply/:subCategoryId", h.ApplyForm, auth)
	e.POST("/apply/:subCategoryId", h.Apply, auth)

	e.GET("/submitted/:subCategoryId", h.Submitted, auth)
	e.POST("/submitted/:subCategoryId/:action", h.SubmittedAction, auth)

	e.GET("/payment/:subCategoryId", h.PaymentPage, auth)
	e.POST("/payment/:subCategoryId/method", h.SelectMethod, auth)
	e.POST("/payment/:subCategoryId/mobile-banking", h.SelectMobileBanking, auth)
	e.POST("/payment/:subCategoryId/confirm", h.ConfirmPayment, auth)

	e.GET("/admit-card/:subCategoryId", h.AdmitCard)
	e.GET("/admit-card/:subCategoryId/export", h.ExportAdmitCard)
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
