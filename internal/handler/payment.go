package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admission-portal/internal/payment"
	"github.com/iliyamo/admission-portal/internal/queue"
	"github.com/iliyamo/admission-portal/internal/workspace"
)

type paymentView struct {
	Summary       payment.Summary         `json:"summary"`
	Selection     payment.Selection       `json:"selection"`
	Ready         bool                    `json:"ready"`
	Methods       []payment.Method        `json:"methods"`
	MobileBanking []payment.MobileBanking `json:"mobile_banking_options"`
	Error         string                  `json:"error,omitempty"`
}

func (h *PortalHandler) viewPayment(c echo.Context, step *payment.Step) paymentView {
	v := paymentView{
		Selection:     step.Selection(),
		Ready:         step.Ready(),
		Methods:       []payment.Method{payment.CreditCard, payment.NetBanking},
		MobileBanking: payment.MobileBankingOptions,
	}
	sum, err := step.Summary(c.Request().Context())
	if err != nil {
		c.Logger().Warnf("[payment] %v", err)
		v.Error = "Could not load the application fee."
	}
	v.Summary = sum
	return v
}

func paymentStep(c echo.Context) (*workspace.Workspace, *payment.Step, error) {
	ws, err := workspaceOf(c)
	if err != nil {
		return nil, nil, err
	}
	sub, ok := idParam(c, "subCategoryId")
	if !ok {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid subcategory id")
	}
	return ws, ws.Payment(sub), nil
}

// PaymentPage opens the payment step with credit card preselected.
func (h *PortalHandler) PaymentPage(c echo.Context) error {
	ws, err := workspaceOf(c)
	if err != nil {
		return err
	}
	sub, ok := idParam(c, "subCategoryId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subcategory id"})
	}
	step := ws.OpenPayment(sub)
	return render(c, http.StatusOK, h.viewPayment(c, step))
}

// SelectMethod takes either method=credit-card|net-banking or the online
// banking toggle online_banking=true|false.
func (h *PortalHandler) SelectMethod(c echo.Context) error {
	_, step, err := paymentStep(c)
	if err != nil {
		return err
	}
	if raw := c.FormValue("online_banking"); raw != "" {
		on, perr := strconv.ParseBool(raw)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "online_banking must be true or false"})
		}
		step.SetOnlineBanking(on)
	} else {
		m, perr := payment.ParseMethod(c.FormValue("method"))
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Select credit card or net banking"})
		}
		_ = step.SelectMethod(m)
	}
	return render(c, http.StatusOK, h.viewPayment(c, step))
}

// SelectMobileBanking picks bkash, nagad or rocket under net banking.
func (h *PortalHandler) SelectMobileBanking(c echo.Context) error {
	_, step, err := paymentStep(c)
	if err != nil {
		return err
	}
	o, err := payment.ParseMobileBanking(c.FormValue("provider"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Select bKash, Nagad or Rocket"})
	}
	if err := step.SelectMobileBanking(o); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Select net banking first"})
	}
	return render(c, http.StatusOK, h.viewPayment(c, step))
}

// ConfirmPayment is "Make Payment": it moves on to the admit card.  Nothing
// is charged.
func (h *PortalHandler) ConfirmPayment(c echo.Context) error {
	ws, step, err := paymentStep(c)
	if err != nil {
		return err
	}
	sel, err := step.Confirm(c.Request().Context())
	if errors.Is(err, payment.ErrNotReady) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Select a mobile banking option", "selection": sel})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	h.publish(c, ws, queue.JourneyEvent{
		Type:          queue.EventPaymentConfirmed,
		SubcategoryID: step.SubcategoryID(),
		Method:        string(sel.Method),
		Provider:      string(sel.MobileBanking),
	})
	return nil
}
