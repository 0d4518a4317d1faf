package backoffice

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-practice-client/api"
	"github.com/pkg/errors"
)

// OrganizationService manages CA firms. The backend only allows master admins here.
type OrganizationService struct {
	endpoint endpoint[Organization]
}

func (s *OrganizationService) List(ctx context.Context, opts ListOptions) (*Page[Organization], error) {
	return s.endpoint.list(ctx, opts)
}

func (s *OrganizationService) Get(ctx context.Context, id string) (*Organization, error) {
	return s.endpoint.get(ctx, id)
}

func (s *OrganizationService) Create(ctx context.Context, in OrganizationInput) (*Organization, error) {
	return s.endpoint.create(ctx, in)
}

func (s *OrganizationService) Update(ctx context.Context, id string, in OrganizationUpdate) (*Organization, error) {
	return s.endpoint.update(ctx, id, in)
}

func (s *OrganizationService) Delete(ctx context.Context, id string) error {
	return s.endpoint.delete(ctx, id)
}

// SetActive enables or suspends an organization.
func (s *OrganizationService) SetActive(ctx context.Context, id string, active bool) (*Organization, error) {
	p, err := s.endpoint.path(id, "status")
	if err != nil {
		return nil, errors.Wrap(err, "[OrganizationService.SetActive]")
	}
	org := &Organization{}
	err = s.endpoint.call(ctx, "SetActive", api.Request{
		Method:   http.MethodPut,
		Endpoint: p,
		Body:     api.JSON(map[string]bool{"is_active": active}),
	}, org)
	if err != nil {
		return nil, err
	}
	return org, nil
}

type UserService struct {
	endpoint endpoint[User]
}

func (s *UserService) List(ctx context.Context, opts ListOptions) (*Page[User], error) {
	return s.endpoint.list(ctx, opts)
}

func (s *UserService) Get(ctx context.Context, id string) (*User, error) {
	return s.endpoint.get(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*User, error) {
	return s.endpoint.create(ctx, in)
}

func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (*User, error) {
	return s.endpoint.update(ctx, id, in)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.endpoint.delete(ctx, id)
}
