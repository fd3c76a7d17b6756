package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

type StaffInput struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Role      model.ProviderRole
}

type StaffService interface {
	List(ctx context.Context, caller *model.Provider, includeInactive bool) ([]model.Provider, error)
	Add(ctx context.Context, caller *model.Provider, input StaffInput) (*model.Provider, error)
	ChangeRole(ctx context.Context, caller *model.Provider, id uint, role model.ProviderRole) (*model.Provider, error)
	Deactivate(ctx context.Context, caller *model.Provider, id uint) error
}

type staffService struct {
	providerRepo repository.ProviderRepository
}

func NewStaffService(providerRepo repository.ProviderRepository) StaffService {
	return &staffService{providerRepo: providerRepo}
}

func (s *staffService) List(ctx context.Context, caller *model.Provider, includeInactive bool) ([]model.Provider, error) {
	return s.providerRepo.ListByBusiness(ctx, caller.BusinessID, includeInactive)
}

// Add links an identity-provider user to the caller's business.
func (s *staffService) Add(ctx context.Context, caller *model.Provider, input StaffInput) (*model.Provider, error) {
	if caller.ProviderRole != model.RoleOwner {
		return nil, ErrOwnerOnly
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, ErrInvalidInput.WithDetails(map[string]string{"user_id": "required"})
	}
	if input.Role == "" {
		input.Role = model.RoleProvider
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidInput.WithMessage("Unknown role %q", input.Role)
	}

	if _, err := s.providerRepo.FindActiveByUserID(ctx, input.UserID); err == nil {
		return nil, ErrAlreadyOnboarding.WithMessage("This user already belongs to a business")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	provider := &model.Provider{
		BusinessID:   caller.BusinessID,
		UserID:       input.UserID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		ProviderRole: input.Role,
		IsActive:     true,
	}
	if err := s.providerRepo.Create(ctx, provider); err != nil {
		return nil, err
	}

	logger.Info("Staff member added", map[string]interface{}{
		"business_id": caller.BusinessID,
		"provider_id": provider.ID,
		"role":        provider.ProviderRole,
	})
	return provider, nil
}

func (s *staffService) member(ctx context.Context, businessID, id uint) (*model.Provider, error) {
	provider, err := s.providerRepo.FindByID(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return provider, nil
}

// ensureOtherOwner refuses changes that would leave the business ownerless.
func (s *staffService) ensureOtherOwner(ctx context.Context, target *model.Provider) error {
	if target.ProviderRole != model.RoleOwner || !target.IsActive {
		return nil
	}
	owners, err := s.providerRepo.CountActiveOwners(ctx, target.BusinessID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

func (s *staffService) ChangeRole(ctx context.Context, caller *model.Provider, id uint, role model.ProviderRole) (*model.Provider, error) {
	if caller.ProviderRole != model.RoleOwner {
		return nil, ErrOwnerOnly
	}
	if !role.Valid() {
		return nil, ErrInvalidInput.WithMessage("Unknown role %q", role)
	}

	target, err := s.member(ctx, caller.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if target.ProviderRole == role {
		return target, nil
	}
	if err := s.ensureOtherOwner(ctx, target); err != nil {
		return nil, err
	}

	if err := s.providerRepo.UpdateRole(ctx, caller.BusinessID, id, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	logger.Info("Staff role changed", map[string]interface{}{
		"business_id": caller.BusinessID,
		"provider_id": id,
		"from":        target.ProviderRole,
		"to":          role,
	})
	return s.member(ctx, caller.BusinessID, id)
}

// Deactivate soft-removes a staff member. Callers cannot remove themselves
// and the last active owner always stays.
func (s *staffService) Deactivate(ctx context.Context, caller *model.Provider, id uint) error {
	if caller.ProviderRole != model.RoleOwner {
		return ErrOwnerOnly
	}
	if caller.ID == id {
		return ErrCannotTargetSelf
	}

	target, err := s.member(ctx, caller.BusinessID, id)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return nil
	}
	if err := s.ensureOtherOwner(ctx, target); err != nil {
		return err
	}

	if err := s.providerRepo.Deactivate(ctx, caller.BusinessID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProviderNotFound
		}
		return err
	}

	logger.Info("Staff member deactivated", map[string]interface{}{
		"business_id": caller.BusinessID,
		"provider_id": id,
	})
	return nil
}
