package service

import (
	"context"
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/domain"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
	"github.com/Zeenoside1/shopify-product-addons-app/pkg/errors"
)

// HandleResolver turns a product handle into a numeric product ID for a shop
type HandleResolver interface {
	ResolveProductHandle(ctx context.Context, shop, handle string) (string, error)
}

type AddonService struct {
	repos    *repository.Repositories
	resolver HandleResolver
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAddonService creates a new add-on catalog service. resolver may be nil.
func NewAddonService(repos *repository.Repositories, resolver HandleResolver, logger *zap.Logger) *AddonService {
	return &AddonService{
		repos:    repos,
		resolver: resolver,
		validate: newValidator(),
		logger:   logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Create validates and stores a new add-on
func (s *AddonService) Create(ctx context.Context, req CreateAddonRequest) (*domain.AddonDefinition, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	kind, ok := domain.ParseAddonKind(req.Type)
	if !ok {
		return nil, errors.NewValidation("type", "must be checkbox or dropdown")
	}
	shop := shopify.NormalizeShopDomain(req.Shop)
	if !shopify.IsValidShopDomain(shop) {
		return nil, errors.NewValidation("shop", "must be a myshopify.com domain")
	}

	addon := &domain.AddonDefinition{
		Shop:      shop,
		ProductID: strings.TrimSpace(req.ProductID),
		Name:      strings.TrimSpace(req.Name),
		Kind:      kind,
		BasePrice: *req.Price,
		Required:  req.Required,
		Options:   toOptions(req.Options),
		Active:    true,
	}
	if err := normalizeAddon(addon); err != nil {
		return nil, err
	}

	s.resolveHandle(ctx, addon)

	if err := s.repos.Addon.Create(ctx, addon); err != nil {
		return nil, err
	}

	s.logger.Info("Addon created",
		zap.String("addon_id", addon.ID.String()),
		zap.String("shop", addon.Shop),
		zap.String("product_id", addon.ProductID),
	)
	return addon, nil
}

// List returns the active add-ons of a product
func (s *AddonService) List(ctx context.Context, shop, productID string) ([]*domain.AddonDefinition, error) {
	shop = shopify.NormalizeShopDomain(shop)
	if shop == "" {
		return nil, errors.NewValidation("shop", "is required")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, errors.NewValidation("productId", "is required")
	}
	return s.repos.Addon.ListActiveByProduct(ctx, shop, strings.TrimSpace(productID))
}

func (s *AddonService) Get(ctx context.Context, id uuid.UUID) (*domain.AddonDefinition, error) {
	return s.repos.Addon.GetByID(ctx, id)
}

// Update merges the non-nil fields of req into the stored add-on and re-validates the result
func (s *AddonService) Update(ctx context.Context, id uuid.UUID, req UpdateAddonRequest) (*domain.AddonDefinition, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	addon, err := s.repos.Addon.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	productChanged := false
	if req.ProductID != nil {
		productID := strings.TrimSpace(*req.ProductID)
		productChanged = productID != addon.ProductID
		addon.ProductID = productID
	}
	if req.Name != nil {
		addon.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		addon.BasePrice = *req.Price
	}
	if req.Type != nil {
		kind, ok := domain.ParseAddonKind(*req.Type)
		if !ok {
			return nil, errors.NewValidation("type", "must be checkbox or dropdown")
		}
		addon.Kind = kind
	}
	if req.Required != nil {
		addon.Required = *req.Required
	}
	if req.Options != nil {
		addon.Options = toOptions(req.Options)
	}
	if req.Active != nil {
		addon.Active = *req.Active
	}

	if err := normalizeAddon(addon); err != nil {
		return nil, err
	}
	if productChanged {
		s.resolveHandle(ctx, addon)
	}

	if err := s.repos.Addon.Update(ctx, addon); err != nil {
		return nil, err
	}
	return addon, nil
}

// SoftDelete deactivates an add-on. Deleting an inactive add-on is a no-op.
func (s *AddonService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	changed, err := s.repos.Addon.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	if changed {
		s.logger.Info("Addon deactivated", zap.String("addon_id", id.String()))
	}
	return nil
}

// resolveHandle swaps a handle for the numeric product ID when the shop is installed.
// Failures keep the handle.
func (s *AddonService) resolveHandle(ctx context.Context, addon *domain.AddonDefinition) {
	if s.resolver == nil || addon.HasNumericProductID() {
		return
	}
	id, err := s.resolver.ResolveProductHandle(ctx, addon.Shop, addon.ProductID)
	if err != nil {
		if _, notInstalled := err.(*errors.ErrNotFound); !notInstalled {
			s.logger.Warn("Failed to resolve product handle",
				zap.String("shop", addon.Shop),
				zap.String("handle", addon.ProductID),
				zap.Error(err),
			)
		}
		return
	}
	if id != "" {
		addon.ProductID = id
	}
}

func (s *AddonService) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return &errors.ErrValidation{Message: err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), reflect.TypeOf(v).Name()+".")
		fields[field] = fe.Tag()
		msgs = append(msgs, field+" failed "+fe.Tag())
	}
	return &errors.ErrValidation{Message: strings.Join(msgs, "; "), Fields: fields}
}

// normalizeAddon enforces the per-kind rules on a merged definition
func normalizeAddon(addon *domain.AddonDefinition) error {
	if addon.ProductID == "" {
		return errors.NewValidation("productId", "is required")
	}
	if addon.Name == "" {
		return errors.NewValidation("name", "is required")
	}
	if !addon.Kind.IsValid() {
		return errors.NewValidation("type", "must be checkbox or dropdown")
	}
	if addon.BasePrice.IsNegative() {
		return errors.NewValidation("price", "must be a non-negative number")
	}
	if !isCents(addon.BasePrice) {
		return errors.NewValidation("price", "must have at most two decimal places")
	}

	switch addon.Kind {
	case domain.AddonKindCheckbox:
		addon.Options = []domain.AddonOption{}
	case domain.AddonKindDropdown:
		addon.Required = false
		if len(addon.Options) == 0 {
			return errors.NewValidation("options", "dropdown needs at least one option")
		}
		seen := make(map[string]bool, len(addon.Options))
		for i := range addon.Options {
			opt := &addon.Options[i]
			if opt.Price.IsNegative() {
				return errors.NewValidation("options", "price must be a non-negative number")
			}
			if !isCents(opt.Price) {
				return errors.NewValidation("options", "price must have at most two decimal places")
			}
			if seen[opt.Value] {
				return errors.NewValidation("options", "duplicate value "+opt.Value)
			}
			seen[opt.Value] = true
		}
	}
	return nil
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func toOptions(in []AddonOptionInput) []domain.AddonOption {
	out := make([]domain.AddonOption, 0, len(in))
	for _, o := range in {
		opt := domain.AddonOption{
			Label: strings.TrimSpace(o.Label),
			Value: strings.TrimSpace(o.Value),
			Price: decimal.Zero,
		}
		if opt.Value == "" {
			opt.Value = opt.Label
		}
		if o.Price != nil {
			opt.Price = *o.Price
		}
		out = append(out, opt)
	}
	return out
}
