// Package loanoffer turns an invoice into a sanctioned loan: offer lookup,
// settlement review, KYC confirmation and signing.
package loanoffer

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"

	"borrower-client/internal/app"
	"borrower-client/internal/common/errors"
	"borrower-client/internal/common/logger"
	"borrower-client/internal/common/metrics"
	"borrower-client/internal/models"

	"golang.org/x/sync/errgroup"
)

const flowName = "loan-offer"

type Service struct {
	config     *Config
	api        LoanAPI
	navigator  app.Navigator
	selection  SelectionStore
	compliance ComplianceCheck
	logger     logger.Logger

	mu        sync.Mutex
	step      Step
	invoiceID string
	offer     *models.Offer
	breakdown *Breakdown
	terms     bool
	loading   bool
	err       string
	loanID    string
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	compliance := deps.Compliance
	if compliance == nil {
		compliance = SimulatedCompliance{Delay: config.EffectiveComplianceDelay()}
	}
	return &Service{
		config:     config,
		api:        deps.API,
		navigator:  deps.Navigator,
		selection:  deps.Selection,
		compliance: compliance,
		logger:     deps.Logger,
		step:       StepReview,
	}
}

// ResolveInvoice returns explicit when set, otherwise the stored selection.
func (s *Service) ResolveInvoice(ctx context.Context, explicit string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if s.selection == nil {
		return "", nil
	}
	id, _, err := s.selection.Get(ctx, models.KeySelectedInvoiceID)
	return id, err
}

// Load finds the offer for invoiceID and resets the wizard to review.
func (s *Service) Load(ctx context.Context, invoiceID string) error {
	if invoiceID == "" {
		return s.fail(StepReview, errors.NewValidationError("invoice_id", "Select an invoice to see its offer"))
	}

	s.setLoading(true)
	offer, err := s.lookupOffer(ctx, invoiceID)
	s.setLoading(false)
	if err != nil {
		return s.fail(StepReview, err)
	}

	if s.selection != nil {
		if err := s.selection.Set(ctx, models.KeySelectedInvoiceID, invoiceID); err != nil {
			return s.fail(StepReview, err)
		}
		if err := s.selection.Set(ctx, models.KeySelectedOfferID, offer.ID); err != nil {
			return s.fail(StepReview, err)
		}
	}

	breakdown := ComputeBreakdown(offer)
	s.mu.Lock()
	s.step = StepReview
	s.invoiceID = invoiceID
	s.offer = &offer
	s.breakdown = &breakdown
	s.terms = false
	s.err = ""
	s.loanID = ""
	s.mu.Unlock()

	s.logger.Info("offer loaded", map[string]interface{}{
		"invoiceId": invoiceID,
		"offerId":   offer.ID,
		"loanType":  string(offer.LoanType),
	})
	return nil
}

// lookupOffer generates offers for the invoice. A 409 means they already
// exist, so the invoice's offer list is read instead. An empty fallback list
// surfaces the original conflict.
func (s *Service) lookupOffer(ctx context.Context, invoiceID string) (models.Offer, error) {
	offers, err := s.api.GenerateOffers(ctx, invoiceID)
	if err != nil {
		var apiErr *errors.APIError
		if !stderrors.As(err, &apiErr) || !apiErr.IsConflict() {
			return models.Offer{}, err
		}
		s.logger.Debug("offers already generated, reading existing", map[string]interface{}{"invoiceId": invoiceID})
		offers, err = s.api.ListInvoiceOffers(ctx, invoiceID)
		if err != nil {
			return models.Offer{}, err
		}
		if len(offers) == 0 {
			return models.Offer{}, errors.NewOfferConflictError(invoiceID, apiErr)
		}
	}
	return pickOffer(invoiceID, offers)
}

// pickOffer returns the first offer. More than one active offer of the same
// loan type for one invoice is refused.
func pickOffer(invoiceID string, offers []models.Offer) (models.Offer, error) {
	if len(offers) == 0 {
		return models.Offer{}, errors.NewOfferNotFoundError(invoiceID)
	}
	active := make(map[models.LoanType]int)
	for _, o := range offers {
		if o.IsActive() {
			active[o.LoanType]++
		}
	}
	for loanType, n := range active {
		if n > 1 {
			return models.Offer{}, errors.NewMultipleActiveOffersError(invoiceID, string(loanType), n)
		}
	}
	return offers[0], nil
}

// Continue runs the compliance check and moves review to kyc_confirm or
// kyc_confirm to sign.
func (s *Service) Continue(ctx context.Context) error {
	s.mu.Lock()
	from, offer := s.step, s.offer
	s.mu.Unlock()

	var to Step
	switch from {
	case StepReview:
		to = StepKYCConfirm
	case StepKYCConfirm:
		to = StepSign
	default:
		return s.fail(from, errors.NewInvalidTransitionError(flowName, string(from), "continue"))
	}
	if offer == nil {
		return s.fail(from, errors.NewValidationError("offer", "Offer not ready"))
	}

	s.setLoading(true)
	err := s.compliance.Check(ctx, from, *offer)
	s.setLoading(false)
	if err != nil {
		return s.fail(from, err)
	}
	s.advance(from, to)
	return nil
}

func (s *Service) AcceptTerms(accepted bool) {
	s.mu.Lock()
	s.terms = accepted
	s.mu.Unlock()
}

// Sign sanctions the loan. Secured financing attaches the configured collateral.
func (s *Service) Sign(ctx context.Context) error {
	s.mu.Lock()
	step, offer, terms := s.step, s.offer, s.terms
	s.mu.Unlock()

	if step != StepSign {
		return s.fail(step, errors.NewInvalidTransitionError(flowName, string(step), "sign"))
	}
	if !terms {
		return s.fail(step, errors.NewTermsNotAcceptedError())
	}

	req := models.SanctionRequest{OfferID: offer.ID}
	if s.config.FinancingMode == ModeSecured {
		value := float64(s.config.CollateralValue)
		req.AssetDescription = s.config.CollateralDescription
		req.AssetValue = &value
	}

	s.setLoading(true)
	resp, err := s.api.SanctionLoan(ctx, req)
	s.setLoading(false)
	if err != nil {
		return s.fail(step, err)
	}

	loanID := resp.SanctionedLoanID()
	if s.selection != nil {
		if loanID != "" {
			if err := s.selection.Set(ctx, models.KeySelectedLoanID, loanID); err != nil {
				s.logger.Warn("failed to store sanctioned loan", map[string]interface{}{"error": err.Error()})
			}
		}
		if err := s.selection.Delete(ctx, models.KeySelectedOfferID); err != nil {
			s.logger.Warn("failed to clear selected offer", map[string]interface{}{"error": err.Error()})
		}
	}

	s.mu.Lock()
	s.loanID = loanID
	s.mu.Unlock()
	s.advance(StepSign, StepSuccess)

	s.logger.Info("loan sanctioned", map[string]interface{}{
		"offerId": offer.ID,
		"loanId":  loanID,
		"mode":    s.config.FinancingMode,
	})
	s.navigator.NavigateAfter(app.RouteDashboard, s.config.RedirectDelay)
	return nil
}

// Next performs the primary action of the current step.
func (s *Service) Next(ctx context.Context) error {
	switch s.currentStep() {
	case StepReview, StepKYCConfirm:
		return s.Continue(ctx)
	default:
		return s.Sign(ctx)
	}
}

// Back steps to the previous screen of the wizard.
func (s *Service) Back() error {
	s.mu.Lock()
	from := s.step
	var to Step
	switch from {
	case StepKYCConfirm:
		to = StepReview
	case StepSign:
		to = StepKYCConfirm
	}
	s.mu.Unlock()
	if to == "" {
		return s.fail(from, errors.NewInvalidTransitionError(flowName, string(from), "go back"))
	}
	s.advance(from, to)
	return nil
}

// Overview fetches my offers and my loans concurrently.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		offers, err := s.api.ListMyOffers(gctx)
		if err != nil {
			return err
		}
		active := offers[:0]
		for _, o := range offers {
			if o.IsActive() {
				active = append(active, o)
			}
		}
		out.Offers = active
		return nil
	})
	g.Go(func() error {
		loans, err := s.api.ListMyLoans(gctx)
		if err != nil {
			return err
		}
		out.Loans = loans
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to load loans overview", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return &out, nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Step:          s.step,
		InvoiceID:     s.invoiceID,
		Offer:         s.offer,
		Breakdown:     s.breakdown,
		TermsAccepted: s.terms,
		Loading:       s.loading,
		Error:         s.err,
		LoanID:        s.loanID,
	}
}

func (s *Service) currentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Service) advance(from, to Step) {
	s.mu.Lock()
	s.step = to
	s.err = ""
	s.mu.Unlock()
	metrics.FlowTransitionsTotal.WithLabelValues(flowName, string(from), string(to)).Inc()
}

func (s *Service) fail(step Step, err error) error {
	s.mu.Lock()
	s.err = errors.UserMessage(err)
	s.mu.Unlock()
	metrics.FlowErrorsTotal.WithLabelValues(flowName, string(step), errors.MetricCode(err)).Inc()
	return err
}
