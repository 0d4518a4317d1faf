package backoffice

// Organization is a CA firm using the back office. Managed by master admins only.
type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	IsActive bool   `json:"is_active"`
}

type OrganizationInput struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address    string `json:"address,omitempty" validate:"omitempty,max=500"`
	AdminEmail string `json:"admin_email,omitempty" validate:"omitempty,email"` // first admin user to invite
}

// OrganizationUpdate changes only the fields that are set.
type OrganizationUpdate struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type Role string

const (
	RoleAdmin  Role = "admin"  // manages users and settings of their organization
	RoleStaff  Role = "staff"  // works on clients and mailers
	RoleViewer Role = "viewer" // read only
)

type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Role           Role   `json:"role,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	IsActive       bool   `json:"is_active"`
}

type UserInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      Role   `json:"role" validate:"required,oneof=admin staff viewer"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type UserUpdate struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      *Role   `json:"role,omitempty" validate:"omitempty,oneof=admin staff viewer"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// Client is a customer of the practice.
type Client struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone,omitempty"`
	PAN            string   `json:"pan,omitempty"`
	GSTIN          string   `json:"gstin,omitempty"`
	BusinessTypeID string   `json:"business_type_id,omitempty"`
	ServiceIDs     []string `json:"service_ids,omitempty"`
	Address        string   `json:"address,omitempty"`
	Status         string   `json:"status,omitempty"`
}

type ClientInput struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Email          string   `json:"email" validate:"required,email"`
	Phone          string   `json:"phone,omitempty" validate:"omitempty,max=20"`
	PAN            string   `json:"pan,omitempty" validate:"omitempty,len=10,alphanum"`
	GSTIN          string   `json:"gstin,omitempty" validate:"omitempty,len=15,alphanum"`
	BusinessTypeID string   `json:"business_type_id,omitempty"`
	ServiceIDs     []string `json:"service_ids,omitempty" validate:"omitempty,dive,required"`
	Address        string   `json:"address,omitempty" validate:"omitempty,max=500"`
}

type ClientUpdate struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email          *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string  `json:"phone,omitempty" validate:"omitempty,max=20"`
	PAN            *string  `json:"pan,omitempty" validate:"omitempty,len=10,alphanum"`
	GSTIN          *string  `json:"gstin,omitempty" validate:"omitempty,len=15,alphanum"`
	BusinessTypeID *string  `json:"business_type_id,omitempty"`
	ServiceIDs     []string `json:"service_ids,omitempty" validate:"omitempty,dive,required"`
	Address        *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	Status         *string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

type Director struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	DIN      string `json:"din,omitempty"` // Director Identification Number
}

type DirectorInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=20"`
	DIN   string `json:"din,omitempty" validate:"omitempty,len=8,numeric"`
}

type DirectorUpdate struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	DIN   *string `json:"din,omitempty" validate:"omitempty,len=8,numeric"`
}

// CatalogItem is a business type or a service the practice offers.
type CatalogItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CatalogInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type UploadedFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// EmailTemplate bodies use {{variable}} placeholders filled in per client.
type EmailTemplate struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Variables []string `json:"variables,omitempty"`
}

type TemplateInput struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Subject   string   `json:"subject" validate:"required,max=200"`
	Body      string   `json:"body" validate:"required"`
	Variables []string `json:"variables,omitempty" validate:"omitempty,dive,required"`
}

type TemplateUpdate struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Subject   *string  `json:"subject,omitempty" validate:"omitempty,min=1,max=200"`
	Body      *string  `json:"body,omitempty" validate:"omitempty,min=1"`
	Variables []string `json:"variables,omitempty" validate:"omitempty,dive,required"`
}

type TemplatePreview struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

type ScheduleStatus string

const (
	ScheduleActive ScheduleStatus = "active"
	SchedulePaused ScheduleStatus = "paused"
)

// MailSchedule sends a template to a client on a recurring basis. Sending happens server side.
type MailSchedule struct {
	ID         string         `json:"id"`
	ClientID   string         `json:"client_id"`
	TemplateID string         `json:"template_id"`
	Frequency  Frequency      `json:"frequency"`
	StartDate  string         `json:"start_date,omitempty"` // YYYY-MM-DD
	Status     ScheduleStatus `json:"status"`
}

type ScheduleInput struct {
	ClientID   string    `json:"client_id" validate:"required"`
	TemplateID string    `json:"template_id" validate:"required"`
	Frequency  Frequency `json:"frequency" validate:"required,oneof=once daily weekly monthly yearly"`
	StartDate  string    `json:"start_date" validate:"required,datetime=2006-01-02"`
}

type ScheduleUpdate struct {
	TemplateID *string    `json:"template_id,omitempty" validate:"omitempty,min=1"`
	Frequency  *Frequency `json:"frequency,omitempty" validate:"omitempty,oneof=once daily weekly monthly yearly"`
	StartDate  *string    `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// BulkScheduleInput schedules one template for many clients. No ClientIDs means every client.
type BulkScheduleInput struct {
	TemplateID string    `json:"template_id" validate:"required"`
	ClientIDs  []string  `json:"client_ids,omitempty" validate:"omitempty,dive,required"`
	Frequency  Frequency `json:"frequency" validate:"required,oneof=once daily weekly monthly yearly"`
	StartDate  string    `json:"start_date" validate:"required,datetime=2006-01-02"`
}

type BulkScheduleResult struct {
	Created int            `json:"created"`
	Items   []MailSchedule `json:"items"`
}
