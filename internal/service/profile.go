package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

// ProfileService reads and edits the customer record paired with a user.
type ProfileService struct {
	customerRepo repository.CustomerRepository
	roleRepo     repository.RoleRepository
	activity     ActivityRecorder
}

func NewProfileService(customerRepo repository.CustomerRepository, roleRepo repository.RoleRepository,
	activity ActivityRecorder) *ProfileService {
	return &ProfileService{customerRepo: customerRepo, roleRepo: roleRepo, activity: activity}
}

func (s *ProfileService) authorize(ctx context.Context, actor, customerID string) error {
	if actor == customerID {
		return nil
	}
	role, err := s.roleRepo.GetRole(ctx, actor)
	if err != nil {
		return storageError("get role", err)
	}
	if role != model.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *ProfileService) Get(ctx context.Context, actor, customerID string) (*model.Customer, error) {
	if err := s.authorize(ctx, actor, customerID); err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, storageError("get customer", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *ProfileService) Update(ctx context.Context, actor, customerID string, req dto.UpdateProfileRequest) (*model.Customer, error) {
	customer, err := s.Get(ctx, actor, customerID)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		customer.CompanyName = req.CompanyName
	}
	if req.ContactName != nil {
		customer.ContactName = req.ContactName
	}
	if req.ContactTitle != nil {
		customer.ContactTitle = req.ContactTitle
	}
	if req.Address != nil {
		customer.Address = req.Address
	}
	if req.City != nil {
		customer.City = req.City
	}
	if req.Region != nil {
		customer.Region = req.Region
	}
	if req.PostalCode != nil {
		customer.PostalCode = req.PostalCode
	}
	if req.Country != nil {
		customer.Country = req.Country
	}
	if req.Phone != nil {
		customer.Phone = req.Phone
	}
	if req.Fax != nil {
		customer.Fax = req.Fax
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, storageError("update customer", err)
	}
	record(ctx, s.activity, actor, model.ActionProfileUpdate, "customer "+customerID)
	return customer, nil
}
