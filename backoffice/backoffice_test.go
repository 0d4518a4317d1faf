package backoffice_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jrsteele09/go-practice-client/api"
	"github.com/jrsteele09/go-practice-client/auth"
	"github.com/jrsteele09/go-practice-client/backoffice"
	apperrors "github.com/jrsteele09/go-practice-client/internal/errors"
	"github.com/jrsteele09/go-practice-client/internal/fakebackend"
	"github.com/jrsteele09/go-practice-client/internal/utils"
	"github.com/jrsteele09/go-practice-client/session"
	sessionrepofake "github.com/jrsteele09/go-practice-client/session/repofake"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	backend *fakebackend.Backend
	exec    *auth.Executor
	svc     *backoffice.Service
}

// setupTestFixture signs in to a fake backend, as a master admin when masterAdmin is set.
func setupTestFixture(t *testing.T, masterAdmin bool) *testFixture {
	t.Helper()

	backend := fakebackend.New()
	backend.AddAccount(fakebackend.Account{Username: "ca@firm.test", Password: "pw", Organization: map[string]any{"id": "org-1"}})
	backend.AddAccount(fakebackend.Account{Username: "root@platform.test", Password: "pw", MasterAdmin: true})
	srv := backend.Start()
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL)
	require.NoError(t, err)
	exec := auth.NewExecutor(client, session.New(sessionrepofake.NewFakeSessionStore()))
	authn := auth.NewAuthenticator(exec)

	if masterAdmin {
		_, err = authn.MasterAdminLogin(context.Background(), "root@platform.test", "pw")
	} else {
		_, err = authn.Login(context.Background(), "ca@firm.test", "pw")
	}
	require.NoError(t, err)

	return &testFixture{backend: backend, exec: exec, svc: backoffice.New(exec)}
}

func TestClients_CRUD(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()

	created, err := f.svc.Clients.Create(ctx, backoffice.ClientInput{
		Name:  "Acme Traders",
		Email: "accounts@acme.test",
		PAN:   "ABCDE1234F",
	})
	require.NoError(t, err)
	require.Equal(t, "cli-1", created.ID)
	require.Equal(t, "ABCDE1234F", created.PAN)

	got, err := f.svc.Clients.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	updated, err := f.svc.Clients.Update(ctx, created.ID, backoffice.ClientUpdate{Phone: utils.Ptr("+91 98765 43210")})
	require.NoError(t, err)
	require.Equal(t, "+91 98765 43210", updated.Phone)
	require.Equal(t, "Acme Traders", updated.Name)

	require.NoError(t, f.svc.Clients.Delete(ctx, created.ID))
	_, err = f.svc.Clients.Get(ctx, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.True(t, api.IsStatus(err, http.StatusNotFound))
	require.Contains(t, err.Error(), "[ClientService.Get]")
}

func TestClients_ServerErrors(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Clients.Create(ctx, backoffice.ClientInput{Name: "Acme", Email: "a@acme.test"})
	require.NoError(t, err)

	_, err = f.svc.Clients.Create(ctx, backoffice.ClientInput{Name: "Acme Again", Email: "A@acme.test"})
	require.True(t, api.IsStatus(err, http.StatusConflict))
	failure, _ := api.AsFailure(err)
	require.Equal(t, "Client with this email already exists", failure.Message)
}

// TestValidation tests that invalid payloads never reach the backend
func TestValidation(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{name: "client email", field: "Email", call: func() error {
			_, err := f.svc.Clients.Create(ctx, backoffice.ClientInput{Name: "Acme", Email: "not-an-email"})
			return err
		}},
		{name: "client pan length", field: "PAN", call: func() error {
			_, err := f.svc.Clients.Create(ctx, backoffice.ClientInput{Name: "Acme", Email: "a@acme.test", PAN: "ABC"})
			return err
		}},
		{name: "template subject", field: "Subject", call: func() error {
			_, err := f.svc.Templates.Create(ctx, backoffice.TemplateInput{Name: "Reminder", Body: "Hi"})
			return err
		}},
		{name: "schedule frequency", field: "Frequency", call: func() error {
			_, err := f.svc.Schedules.Create(ctx, backoffice.ScheduleInput{ClientID: "cli-1", TemplateID: "tpl-1", Frequency: "hourly", StartDate: "2026-04-01"})
			return err
		}},
		{name: "schedule date", field: "StartDate", call: func() error {
			_, err := f.svc.Schedules.Create(ctx, backoffice.ScheduleInput{ClientID: "cli-1", TemplateID: "tpl-1", Frequency: backoffice.FrequencyMonthly, StartDate: "01/04/2026"})
			return err
		}},
		{name: "user role", field: "Role", call: func() error {
			_, err := f.svc.Users.Create(ctx, backoffice.UserInput{Email: "staff@firm.test", FirstName: "Asha", Role: "owner"})
			return err
		}},
		{name: "director din", field: "DIN", call: func() error {
			_, err := f.svc.Directors.Update(ctx, "dir-1", backoffice.DirectorUpdate{DIN: utils.Ptr("12ab")})
			return err
		}},
		{name: "page size", field: "PageSize", call: func() error {
			_, err := f.svc.Clients.List(ctx, backoffice.ListOptions{PageSize: 1000})
			return err
		}},
		{name: "missing id", field: "id", call: func() error {
			return f.svc.Clients.Delete(ctx, " ")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
			require.Contains(t, err.Error(), tt.field)
		})
	}
	require.Equal(t, 0, f.backend.Count(fakebackend.Clients))
}

func TestClients_ListPaging(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()
	for _, name := range []string{"Delta Exports", "Alpha Foods", "Charlie Steel", "Bravo Textiles", "Echo Logistics"} {
		f.backend.Seed(fakebackend.Clients, map[string]any{"name": name, "email": strings.ToLower(strings.Fields(name)[0]) + "@client.test"})
	}

	page, err := f.svc.Clients.List(ctx, backoffice.ListOptions{Page: 2, PageSize: 2, SortBy: "name", SortOrder: backoffice.SortAsc})
	require.NoError(t, err)
	require.Equal(t, 5, page.Total)
	require.Equal(t, 3, page.Pages())
	require.True(t, page.HasNext())
	require.Len(t, page.Items, 2)
	require.Equal(t, "Charlie Steel", page.Items[0].Name)
	require.Equal(t, "Delta Exports", page.Items[1].Name)

	page, err = f.svc.Clients.List(ctx, backoffice.ListOptions{Search: "steel"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	all, err := f.svc.Clients.ListAll(ctx, backoffice.ListOptions{PageSize: 2, SortBy: "name", SortOrder: backoffice.SortDesc})
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, "Echo Logistics", all[0].Name)
	require.Equal(t, 3, f.backend.Calls("GET /clients")-2)
}

func TestDirectors(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()
	ids := f.backend.Seed(fakebackend.Clients, map[string]any{"name": "Acme", "email": "a@acme.test"})

	d, err := f.svc.Directors.Create(ctx, ids[0], backoffice.DirectorInput{Name: "R. Mehta", DIN: "01234567"})
	require.NoError(t, err)
	require.Equal(t, ids[0], d.ClientID)

	directors, err := f.svc.Directors.List(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, directors, 1)

	_, err = f.svc.Directors.Update(ctx, d.ID, backoffice.DirectorUpdate{Email: utils.Ptr("r.mehta@acme.test")})
	require.NoError(t, err)
	require.NoError(t, f.svc.Directors.Delete(ctx, d.ID))

	_, err = f.svc.Directors.List(ctx, "cli-404")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalog(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()

	bt, err := f.svc.BusinessTypes.Create(ctx, backoffice.CatalogInput{Name: "Private Limited"})
	require.NoError(t, err)
	_, err = f.svc.Services.Create(ctx, backoffice.CatalogInput{Name: "GST Filing", Description: "Monthly GSTR-1 and 3B"})
	require.NoError(t, err)
	_, err = f.svc.Services.Create(ctx, backoffice.CatalogInput{Name: "Audit"})
	require.NoError(t, err)

	types, err := f.svc.BusinessTypes.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []backoffice.CatalogItem{*bt}, types)

	found, err := f.svc.Services.Search(ctx, "gst")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "GST Filing", found[0].Name)

	renamed, err := f.svc.BusinessTypes.Update(ctx, bt.ID, backoffice.CatalogInput{Name: "LLP"})
	require.NoError(t, err)
	require.Equal(t, "LLP", renamed.Name)
	require.NoError(t, f.svc.BusinessTypes.Delete(ctx, bt.ID))
}

func TestUpload(t *testing.T) {
	f := setupTestFixture(t, false)

	up, err := f.svc.Files.Upload(context.Background(), "/tmp/docs/pan-card.pdf", strings.NewReader("%PDF-1.7"), map[string]string{"client_id": "cli-1"})
	require.NoError(t, err)
	require.Equal(t, "pan-card.pdf", up.Filename)
	require.EqualValues(t, 8, up.Size)

	uploads := f.backend.Uploads()
	require.Len(t, uploads, 1)
	require.Equal(t, "%PDF-1.7", string(uploads[0].Content))
	require.Equal(t, "cli-1", uploads[0].Fields["client_id"])

	_, err = f.svc.Files.Upload(context.Background(), "", strings.NewReader("x"), nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

func TestTemplates(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()

	tpl, err := f.svc.Templates.Create(ctx, backoffice.TemplateInput{
		Name:      "GST reminder",
		Subject:   "GST return due for {{client_name}}",
		Body:      "Dear {{client_name}}, please share your invoices by {{due_date}}.",
		Variables: []string{"client_name", "due_date"},
	})
	require.NoError(t, err)

	preview, err := f.svc.Templates.Preview(ctx, tpl.ID, map[string]string{"client_name": "Acme", "due_date": "11 April"})
	require.NoError(t, err)
	require.Equal(t, "GST return due for Acme", preview.Subject)
	require.Equal(t, "Dear Acme, please share your invoices by 11 April.", preview.Body)

	updated, err := f.svc.Templates.Update(ctx, tpl.ID, backoffice.TemplateUpdate{Subject: utils.Ptr("Reminder")})
	require.NoError(t, err)
	require.Equal(t, "Reminder", updated.Subject)
	require.Equal(t, tpl.Body, updated.Body)

	page, err := f.svc.Templates.List(ctx, backoffice.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	require.NoError(t, f.svc.Templates.Delete(ctx, tpl.ID))
	_, err = f.svc.Templates.Preview(ctx, tpl.ID, nil)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

// TestSchedules tests single, bulk and status changes of mail schedules
func TestSchedules(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()
	clientIDs := f.backend.Seed(fakebackend.Clients,
		map[string]any{"name": "Acme", "email": "a@acme.test"},
		map[string]any{"name": "Bravo", "email": "b@bravo.test"},
		map[string]any{"name": "Charlie", "email": "c@charlie.test"},
	)
	tplIDs := f.backend.Seed(fakebackend.EmailTemplates, map[string]any{"name": "Reminder", "subject": "Due", "body": "Pay"})

	one, err := f.svc.Schedules.Create(ctx, backoffice.ScheduleInput{
		ClientID:   clientIDs[0],
		TemplateID: tplIDs[0],
		Frequency:  backoffice.FrequencyMonthly,
		StartDate:  "2026-04-01",
	})
	require.NoError(t, err)
	require.Equal(t, backoffice.ScheduleActive, one.Status)

	paused, err := f.svc.Schedules.Pause(ctx, one.ID)
	require.NoError(t, err)
	require.Equal(t, backoffice.SchedulePaused, paused.Status)

	resumed, err := f.svc.Schedules.Resume(ctx, one.ID)
	require.NoError(t, err)
	require.Equal(t, backoffice.ScheduleActive, resumed.Status)

	selected, err := f.svc.Schedules.CreateBulk(ctx, backoffice.BulkScheduleInput{
		TemplateID: tplIDs[0],
		ClientIDs:  clientIDs[1:],
		Frequency:  backoffice.FrequencyYearly,
		StartDate:  "2026-07-31",
	})
	require.NoError(t, err)
	require.Equal(t, 2, selected.Created)

	everyone, err := f.svc.Schedules.CreateBulk(ctx, backoffice.BulkScheduleInput{
		TemplateID: tplIDs[0],
		Frequency:  backoffice.FrequencyWeekly,
		StartDate:  "2026-04-06",
	})
	require.NoError(t, err)
	require.Equal(t, 3, everyone.Created)

	page, err := f.svc.Schedules.List(ctx, backoffice.ListOptions{PageSize: 100})
	require.NoError(t, err)
	require.Equal(t, 6, page.Total)

	_, err = f.svc.Schedules.Update(ctx, one.ID, backoffice.ScheduleUpdate{Frequency: utils.Ptr(backoffice.FrequencyDaily)})
	require.NoError(t, err)
	require.NoError(t, f.svc.Schedules.Delete(ctx, one.ID))
}

// TestOrganizations tests master admin organization management
func TestOrganizations(t *testing.T) {
	f := setupTestFixture(t, true)
	ctx := context.Background()

	org, err := f.svc.Organizations.Create(ctx, backoffice.OrganizationInput{Name: "Sharma & Co", AdminEmail: "owner@sharma.test"})
	require.NoError(t, err)

	org, err = f.svc.Organizations.SetActive(ctx, org.ID, true)
	require.NoError(t, err)
	require.True(t, org.IsActive)

	org, err = f.svc.Organizations.SetActive(ctx, org.ID, false)
	require.NoError(t, err)
	require.False(t, org.IsActive)

	page, err := f.svc.Organizations.List(ctx, backoffice.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	_, err = f.svc.Organizations.Update(ctx, org.ID, backoffice.OrganizationUpdate{Phone: utils.Ptr("022-5550101")})
	require.NoError(t, err)

	got, err := f.svc.Organizations.Get(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, "022-5550101", got.Phone)
	require.NoError(t, f.svc.Organizations.Delete(ctx, org.ID))
}

func TestUsers(t *testing.T) {
	f := setupTestFixture(t, false)
	ctx := context.Background()

	u, err := f.svc.Users.Create(ctx, backoffice.UserInput{Email: "staff@firm.test", FirstName: "Asha", Role: backoffice.RoleStaff})
	require.NoError(t, err)

	role := backoffice.RoleViewer
	u, err = f.svc.Users.Update(ctx, u.ID, backoffice.UserUpdate{Role: &role, IsActive: utils.Ptr(false)})
	require.NoError(t, err)
	require.Equal(t, backoffice.RoleViewer, u.Role)

	page, err := f.svc.Users.List(ctx, backoffice.ListOptions{Search: "asha"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	got, err := f.svc.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u, got)
	require.NoError(t, f.svc.Users.Delete(ctx, u.ID))
}

// TestSessionRecovery tests that resource calls survive an access token expiring server side
func TestSessionRecovery(t *testing.T) {
	f := setupTestFixture(t, false)
	f.backend.ExpireAccessTokens()

	page, err := f.svc.Clients.List(context.Background(), backoffice.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 0, page.Total)
	require.Equal(t, 1, f.backend.Calls("POST /auth/refresh"))

	f.backend.ExpireAccessTokens()
	f.backend.RevokeRefreshTokens()
	_, err = f.svc.Clients.List(context.Background(), backoffice.ListOptions{})
	require.ErrorIs(t, err, auth.ErrSessionExpired)

	tokens, err := f.exec.Session().Tokens(context.Background())
	require.NoError(t, err)
	require.Empty(t, tokens.RefreshToken)
}
