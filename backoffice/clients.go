package backoffice

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-practice-client/api"
	"github.com/pkg/errors"
)

type ClientService struct {
	endpoint endpoint[Client]
}

func (s *ClientService) List(ctx context.Context, opts ListOptions) (*Page[Client], error) {
	return s.endpoint.list(ctx, opts)
}

// ListAll walks every page of the client list.
func (s *ClientService) ListAll(ctx context.Context, opts ListOptions) ([]Client, error) {
	if opts.PageSize == 0 {
		opts.PageSize = 100
	}
	opts.Page = 1

	var all []Client
	for {
		page, err := s.endpoint.list(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasNext() || len(page.Items) == 0 {
			return all, nil
		}
		opts.Page++
	}
}

func (s *ClientService) Get(ctx context.Context, id string) (*Client, error) {
	return s.endpoint.get(ctx, id)
}

func (s *ClientService) Create(ctx context.Context, in ClientInput) (*Client, error) {
	return s.endpoint.create(ctx, in)
}

func (s *ClientService) Update(ctx context.Context, id string, in ClientUpdate) (*Client, error) {
	return s.endpoint.update(ctx, id, in)
}

func (s *ClientService) Delete(ctx context.Context, id string) error {
	return s.endpoint.delete(ctx, id)
}

// DirectorService manages the directors of client companies.
type DirectorService struct {
	endpoint endpoint[Director]
}

func clientDirectorsPath(clientID string) (string, error) {
	return newEndpoint[Director](nil, "/clients", "").path(clientID, "directors")
}

func (s *DirectorService) List(ctx context.Context, clientID string) ([]Director, error) {
	p, err := clientDirectorsPath(clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[DirectorService.List]")
	}
	var directors []Director
	if err := s.endpoint.call(ctx, "List", api.Request{Method: http.MethodGet, Endpoint: p}, &directors); err != nil {
		return nil, err
	}
	return directors, nil
}

func (s *DirectorService) Create(ctx context.Context, clientID string, in DirectorInput) (*Director, error) {
	p, err := clientDirectorsPath(clientID)
	if err != nil {
		return nil, errors.Wrap(err, "[DirectorService.Create]")
	}
	return s.endpoint.send(ctx, "Create", http.MethodPost, p, in)
}

func (s *DirectorService) Update(ctx context.Context, id string, in DirectorUpdate) (*Director, error) {
	return s.endpoint.update(ctx, id, in)
}

func (s *DirectorService) Delete(ctx context.Context, id string) error {
	return s.endpoint.delete(ctx, id)
}

// CatalogService manages one of the lookup lists (business types or services).
type CatalogService struct {
	endpoint endpoint[CatalogItem]
}

func (s *CatalogService) List(ctx context.Context) ([]CatalogItem, error) {
	return s.endpoint.all(ctx)
}

func (s *CatalogService) Create(ctx context.Context, in CatalogInput) (*CatalogItem, error) {
	return s.endpoint.create(ctx, in)
}

func (s *CatalogService) Update(ctx context.Context, id string, in CatalogInput) (*CatalogItem, error) {
	return s.endpoint.update(ctx, id, in)
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.endpoint.delete(ctx, id)
}

// Search filters the catalog server side.
func (s *CatalogService) Search(ctx context.Context, term string) ([]CatalogItem, error) {
	var items []CatalogItem
	err := s.endpoint.call(ctx, "Search", api.Request{
		Method:   http.MethodGet,
		Endpoint: s.endpoint.base,
		Query:    url.Values{"search": {term}},
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}
