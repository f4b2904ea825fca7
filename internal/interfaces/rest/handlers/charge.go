package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/application/services"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/domain"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/interfaces/rest"
	"github.com/DanielPopoola/ficmart-biller-ledger/internal/reconciliation"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type ChargeRequest struct {
	Kind                  string          `json:"kind" validate:"omitempty,oneof=charge auth rebill-update"`
	Biller                string          `json:"biller" validate:"required"`
	Settings              json.RawMessage `json:"settings" validate:"required"`
	Charge                *ChargeTerms    `json:"charge,omitempty"`
	Card                  *CardRequest    `json:"card,omitempty"`
	CardHash              string          `json:"cardHash,omitempty"`
	ThreedsVersion        int             `json:"threedsVersion,omitempty" validate:"min=0,max=2"`
	PreviousTransactionID string          `json:"previousTransactionId,omitempty"`
}

// ChargeTerms amounts decode into json.Number, so both 10.20 and "10.20" keep every
// digit the client sent.
type ChargeTerms struct {
	Amount   json.Number  `json:"amount" validate:"required"`
	Currency string       `json:"currency" validate:"required,len=3"`
	Rebill   *RebillTerms `json:"rebill,omitempty"`
	Tax      *TaxTerms    `json:"tax,omitempty"`
}

type RebillTerms struct {
	Amount    json.Number `json:"amount" validate:"required"`
	Frequency int         `json:"frequency"`
	Start     int         `json:"start"`
}

type TaxTerms struct {
	InitialBeforeTaxes string `json:"initialBeforeTaxes,omitempty"`
	InitialTaxes       string `json:"initialTaxes,omitempty"`
	InitialAfterTaxes  string `json:"initialAfterTaxes,omitempty"`
	RebillBeforeTaxes  string `json:"rebillBeforeTaxes,omitempty"`
	RebillTaxes        string `json:"rebillTaxes,omitempty"`
	RebillAfterTaxes   string `json:"rebillAfterTaxes,omitempty"`
	Name               string `json:"name,omitempty"`
	Rate               string `json:"rate,omitempty"`
	ApplicationID      string `json:"applicationId,omitempty"`
	Type               string `json:"type,omitempty"`
}

type CardRequest struct {
	Number          string `json:"number" validate:"required"`
	CVV             string `json:"cvv" validate:"required"`
	ExpirationMonth int    `json:"expirationMonth" validate:"required,min=1,max=12"`
	ExpirationYear  int    `json:"expirationYear" validate:"required"`
}

func (h *Handler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req ChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	cmd, err := toChargeCommand(req)
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}
	cmd.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)

	result, err := h.chargeService.Charge(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	rest.WriteSuccess(w, status, rest.ChargeResponse{
		Transaction: rest.ToAPITransaction(result.Transaction),
		Events:      rest.ToAPIEvents(result.Events),
		Replayed:    result.Replayed,
	})
}

// CompleteThreeDSRequest returns the cardholder's challenge result for a pending
// transaction. Settings are sent again with their secrets.
type CompleteThreeDSRequest struct {
	Biller   string          `json:"biller" validate:"required"`
	Settings json.RawMessage `json:"settings" validate:"required"`
	PaRes    string          `json:"paRes" validate:"required"`
}

func (h *Handler) CompleteThreeDS(w http.ResponseWriter, r *http.Request) {
	var req CompleteThreeDSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	settings, err := decodeSettings(req.Biller, req.Settings)
	if err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}

	result, err := h.chargeService.ContinueThreeDS(r.Context(), services.ContinueThreeDSCommand{
		TransactionID: mux.Vars(r)["id"],
		Settings:      settings,
		PaRes:         req.PaRes,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteSuccess(w, http.StatusOK, rest.ChargeResponse{
		Transaction: rest.ToAPITransaction(result.Transaction),
		Events:      rest.ToAPIEvents(result.Events),
	})
}

func toChargeCommand(req ChargeRequest) (services.ChargeCommand, error) {
	settings, err := decodeSettings(req.Biller, req.Settings)
	if err != nil {
		return services.ChargeCommand{}, err
	}

	cmd := services.ChargeCommand{
		Kind:                  domain.TransactionKind(req.Kind),
		Settings:              settings,
		CardHash:              req.CardHash,
		ThreedsVersion:        req.ThreedsVersion,
		PreviousTransactionID: req.PreviousTransactionID,
	}

	if c := req.Charge; c != nil {
		charge := domain.Charge{Amount: c.Amount.String(), Currency: c.Currency}
		if c.Rebill != nil {
			charge.Rebill = &domain.RebillTerms{
				Amount:    c.Rebill.Amount.String(),
				Frequency: c.Rebill.Frequency,
				Start:     c.Rebill.Start,
			}
		}
		if c.Tax != nil {
			charge.Tax = &domain.TaxTerms{
				InitialBeforeTaxes: c.Tax.InitialBeforeTaxes,
				InitialTaxes:       c.Tax.InitialTaxes,
				InitialAfterTaxes:  c.Tax.InitialAfterTaxes,
				RebillBeforeTaxes:  c.Tax.RebillBeforeTaxes,
				RebillTaxes:        c.Tax.RebillTaxes,
				RebillAfterTaxes:   c.Tax.RebillAfterTaxes,
				Name:               c.Tax.Name,
				Rate:               c.Tax.Rate,
				ApplicationID:      c.Tax.ApplicationID,
				Type:               c.Tax.Type,
			}
		}
		cmd.Charge = &charge
	}

	if req.Card != nil {
		cmd.Card = &application.CardData{
			Number:          req.Card.Number,
			CVV:             req.Card.CVV,
			ExpirationMonth: req.Card.ExpirationMonth,
			ExpirationYear:  req.Card.ExpirationYear,
		}
	}

	return cmd, nil
}

func decodeSettings(biller string, raw json.RawMessage) (domain.BillerSettings, error) {
	switch biller {
	case domain.BillerRocketgate:
		var s domain.RocketgateSettings
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.BillerSettings{}, fmt.Errorf("invalid rocketgate settings: %w", err)
		}
		return domain.NewRocketgateBillerSettings(s)
	case domain.BillerNetbilling:
		var s domain.NetbillingSettings
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.BillerSettings{}, fmt.Errorf("invalid netbilling settings: %w", err)
		}
		return domain.NewNetbillingBillerSettings(s)
	default:
		return domain.BillerSettings{}, fmt.Errorf("%w: %s", reconciliation.ErrUnknownBiller, biller)
	}
}
