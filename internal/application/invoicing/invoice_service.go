package invoicing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
	"github.com/sistemita/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService registers and queries invoices and credit notes
type InvoiceService struct {
	invoiceRepo    invoicing.InvoiceRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo invoicing.InvoiceRepository, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a new invoice or credit note
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create", "number", req.Number, "type", req.Type)
	defer span.End()

	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, shared.NewValidationError(shared.CodeInvalidCurrency, err.Error())
	}
	net, err := valueobject.NewMoney(req.Net, currency)
	if err != nil {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, err.Error())
	}

	inv, err := invoicing.NewInvoice(
		invoicing.Side(strings.ToUpper(req.Side)),
		req.OwnerID,
		invoicing.InvoiceType(strings.ToUpper(req.Type)),
		req.Number,
		req.Date,
		currency,
		net,
		req.TaxRate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to save invoice", zap.String("number", inv.Number), zap.Error(err))
		return nil, err
	}

	s.publish(ctx, inv)

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ListOutstanding lists the unpaid invoices of an owner that a credit note
// can be applied to, oldest first
func (s *InvoiceService) ListOutstanding(ctx context.Context, filter OutstandingFilter) ([]InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list_outstanding", "owner_id", filter.OwnerID.String())
	defer span.End()

	side := invoicing.Side(strings.ToUpper(filter.Side))
	if !side.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "side must be CLIENT or PROVIDER")
	}
	currency := valueobject.DefaultCurrency
	if filter.Currency != "" {
		c, err := valueobject.ParseCurrency(filter.Currency)
		if err != nil {
			return nil, shared.NewValidationError(shared.CodeInvalidCurrency, err.Error())
		}
		currency = c
	}

	invoices, err := s.invoiceRepo.FindOutstanding(ctx, side, filter.OwnerID, currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceCount, len(invoices))

	responses := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = ToInvoiceResponse(inv)
	}
	return responses, nil
}

// List retrieves a paginated list of invoices
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	f := shared.DefaultFilter()
	f.OrderBy = "date"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 && filter.PageSize <= 100 {
		f.PageSize = filter.PageSize
	}
	if filter.Side != "" {
		f.Filters["side"] = strings.ToUpper(filter.Side)
	}
	if filter.OwnerID != nil {
		f.Filters["owner_id"] = *filter.OwnerID
	}
	if filter.Paid != nil {
		f.Filters["paid"] = *filter.Paid
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = ToInvoiceResponse(inv)
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

func (s *InvoiceService) publish(ctx context.Context, inv *invoicing.Invoice) {
	if s.eventPublisher == nil {
		inv.ClearDomainEvents()
		return
	}
	for _, event := range inv.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish invoice event",
				zap.String("event_type", event.EventType()),
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err))
		}
	}
	inv.ClearDomainEvents()
}
