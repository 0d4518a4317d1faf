// Package backoffice wraps the backend's resource endpoints. Every call is authenticated and
// goes through the request executor, so an expired access token is refreshed transparently.
package backoffice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-practice-client/api"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/pkg/errors"
)

// Doer performs a backend call and decodes the JSON response into out.
// *auth.Executor is the production implementation.
type Doer interface {
	Do(ctx context.Context, req api.Request, out any) error
}

// Service groups the resource services.
type Service struct {
	Organizations *OrganizationService
	Users         *UserService
	Clients       *ClientService
	Directors     *DirectorService
	BusinessTypes *CatalogService
	Services      *CatalogService
	Files         *FileService
	Templates     *TemplateService
	Schedules     *ScheduleService
}

func New(doer Doer) *Service {
	return &Service{
		Organizations: &OrganizationService{endpoint: newEndpoint[Organization](doer, "/organizations", "OrganizationService")},
		Users:         &UserService{endpoint: newEndpoint[User](doer, "/users", "UserService")},
		Clients:       &ClientService{endpoint: newEndpoint[Client](doer, "/clients", "ClientService")},
		Directors:     &DirectorService{endpoint: newEndpoint[Director](doer, "/directors", "DirectorService")},
		BusinessTypes: &CatalogService{endpoint: newEndpoint[CatalogItem](doer, "/business-types", "BusinessTypeService")},
		Services:      &CatalogService{endpoint: newEndpoint[CatalogItem](doer, "/services", "ServiceCatalog")},
		Files:         &FileService{doer: doer},
		Templates:     &TemplateService{endpoint: newEndpoint[EmailTemplate](doer, "/email-templates", "TemplateService")},
		Schedules:     &ScheduleService{endpoint: newEndpoint[MailSchedule](doer, "/mail-schedules", "ScheduleService")},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validatePayload checks v's validate tags before anything is sent.
func validatePayload(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Wrapf(apperrors.ErrInvalidPayload, "%v", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperrors.Wrapf(apperrors.ErrInvalidPayload, "%s", strings.Join(problems, ", "))
}

// endpoint implements the CRUD calls shared by every resource collection.
type endpoint[T any] struct {
	doer Doer
	base string
	name string
}

func newEndpoint[T any](doer Doer, base, name string) endpoint[T] {
	return endpoint[T]{doer: doer, base: base, name: name}
}

func (e endpoint[T]) path(id string, suffix ...string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", apperrors.Wrapf(apperrors.ErrInvalidPayload, "id is required")
	}
	p := e.base + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p, nil
}

func (e endpoint[T]) call(ctx context.Context, op string, req api.Request, out any) error {
	req.RequiresAuth = true
	if err := e.doer.Do(ctx, req, out); err != nil {
		if api.IsStatus(err, http.StatusNotFound) {
			err = fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
		}
		return errors.Wrapf(err, "[%s.%s]", e.name, op)
	}
	return nil
}

func (e endpoint[T]) list(ctx context.Context, opts ListOptions) (*Page[T], error) {
	query, err := opts.Query()
	if err != nil {
		return nil, errors.Wrapf(err, "[%s.List]", e.name)
	}
	page := &Page[T]{}
	if err := e.call(ctx, "List", api.Request{Method: http.MethodGet, Endpoint: e.base, Query: query}, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (e endpoint[T]) all(ctx context.Context) ([]T, error) {
	var items []T
	if err := e.call(ctx, "List", api.Request{Method: http.MethodGet, Endpoint: e.base}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (e endpoint[T]) get(ctx context.Context, id string) (*T, error) {
	p, err := e.path(id)
	if err != nil {
		return nil, errors.Wrapf(err, "[%s.Get]", e.name)
	}
	out := new(T)
	if err := e.call(ctx, "Get", api.Request{Method: http.MethodGet, Endpoint: p}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e endpoint[T]) create(ctx context.Context, payload any) (*T, error) {
	return e.send(ctx, "Create", http.MethodPost, e.base, payload)
}

func (e endpoint[T]) update(ctx context.Context, id string, payload any) (*T, error) {
	p, err := e.path(id)
	if err != nil {
		return nil, errors.Wrapf(err, "[%s.Update]", e.name)
	}
	return e.send(ctx, "Update", http.MethodPut, p, payload)
}

func (e endpoint[T]) send(ctx context.Context, op, method, endpoint string, payload any) (*T, error) {
	if err := validatePayload(payload); err != nil {
		return nil, errors.Wrapf(err, "[%s.%s]", e.name, op)
	}
	out := new(T)
	if err := e.call(ctx, op, api.Request{Method: method, Endpoint: endpoint, Body: api.JSON(payload)}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e endpoint[T]) delete(ctx context.Context, id string) error {
	p, err := e.path(id)
	if err != nil {
		return errors.Wrapf(err, "[%s.Delete]", e.name)
	}
	return e.call(ctx, "Delete", api.Request{Method: http.MethodDelete, Endpoint: p}, nil)
}
