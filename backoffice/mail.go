package backoffice

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/go-practice-client/api"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/pkg/errors"
)

const UploadEndpoint = "/files/upload"

// FileService uploads client documents.
type FileService struct {
	doer Doer
}

// Upload sends content as the multipart field "file". fields are sent as extra form values.
func (s *FileService) Upload(ctx context.Context, filename string, content io.Reader, fields map[string]string) (*UploadedFile, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) || content == nil {
		return nil, errors.Wrap(apperrors.Wrapf(apperrors.ErrInvalidPayload, "filename and content are required"), "[FileService.Upload]")
	}
	out := &UploadedFile{}
	err := s.doer.Do(ctx, api.Request{
		Method:       http.MethodPost,
		Endpoint:     UploadEndpoint,
		Body:         api.Multipart("file", name, content, fields),
		RequiresAuth: true,
	}, out)
	if err != nil {
		return nil, errors.Wrap(err, "[FileService.Upload]")
	}
	return out, nil
}

type TemplateService struct {
	endpoint endpoint[EmailTemplate]
}

func (s *TemplateService) List(ctx context.Context, opts ListOptions) (*Page[EmailTemplate], error) {
	return s.endpoint.list(ctx, opts)
}

func (s *TemplateService) Get(ctx context.Context, id string) (*EmailTemplate, error) {
	return s.endpoint.get(ctx, id)
}

func (s *TemplateService) Create(ctx context.Context, in TemplateInput) (*EmailTemplate, error) {
	return s.endpoint.create(ctx, in)
}

func (s *TemplateService) Update(ctx context.Context, id string, in TemplateUpdate) (*EmailTemplate, error) {
	return s.endpoint.update(ctx, id, in)
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	return s.endpoint.delete(ctx, id)
}

// Preview renders a template with the given placeholder values.
func (s *TemplateService) Preview(ctx context.Context, id string, variables map[string]string) (*TemplatePreview, error) {
	p, err := s.endpoint.path(id, "preview")
	if err != nil {
		return nil, errors.Wrap(err, "[TemplateService.Preview]")
	}
	if variables == nil {
		variables = map[string]string{}
	}
	out := &TemplatePreview{}
	err = s.endpoint.call(ctx, "Preview", api.Request{
		Method:   http.MethodPost,
		Endpoint: p,
		Body:     api.JSON(map[string]any{"variables": variables}),
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleService manages scheduled mailers. Delivery and retries are the backend's concern.
type ScheduleService struct {
	endpoint endpoint[MailSchedule]
}

func (s *ScheduleService) List(ctx context.Context, opts ListOptions) (*Page[MailSchedule], error) {
	return s.endpoint.list(ctx, opts)
}

func (s *ScheduleService) Get(ctx context.Context, id string) (*MailSchedule, error) {
	return s.endpoint.get(ctx, id)
}

func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (*MailSchedule, error) {
	return s.endpoint.create(ctx, in)
}

// CreateBulk schedules a template for the listed clients, or for all clients.
func (s *ScheduleService) CreateBulk(ctx context.Context, in BulkScheduleInput) (*BulkScheduleResult, error) {
	if err := validatePayload(in); err != nil {
		return nil, errors.Wrap(err, "[ScheduleService.CreateBulk]")
	}
	out := &BulkScheduleResult{}
	err := s.endpoint.call(ctx, "CreateBulk", api.Request{
		Method:   http.MethodPost,
		Endpoint: s.endpoint.base + "/bulk",
		Body:     api.JSON(in),
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ScheduleService) Update(ctx context.Context, id string, in ScheduleUpdate) (*MailSchedule, error) {
	return s.endpoint.update(ctx, id, in)
}

func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	return s.endpoint.delete(ctx, id)
}

func (s *ScheduleService) Pause(ctx context.Context, id string) (*MailSchedule, error) {
	return s.setStatus(ctx, "Pause", id, SchedulePaused)
}

func (s *ScheduleService) Resume(ctx context.Context, id string) (*MailSchedule, error) {
	return s.setStatus(ctx, "Resume", id, ScheduleActive)
}

func (s *ScheduleService) setStatus(ctx context.Context, op, id string, status ScheduleStatus) (*MailSchedule, error) {
	p, err := s.endpoint.path(id, "status")
	if err != nil {
		return nil, errors.Wrapf(err, "[ScheduleService.%s]", op)
	}
	out := &MailSchedule{}
	err = s.endpoint.call(ctx, op, api.Request{
		Method:   http.MethodPut,
		Endpoint: p,
		Body:     api.JSON(map[string]ScheduleStatus{"status": status}),
	}, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
