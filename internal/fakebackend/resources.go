package fakebackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Collection names.
const (
	Organizations  = "organizations"
	Users          = "users"
	Clients        = "clients"
	Directors      = "directors"
	BusinessTypes  = "business_types"
	Services       = "services"
	EmailTemplates = "email_templates"
	MailSchedules  = "mail_schedules"
)

var requiredFields = map[string][]string{
	Organizations:  {"name"},
	Users:          {"email"},
	Clients:        {"name", "email"},
	Directors:      {"name"},
	BusinessTypes:  {"name"},
	Services:       {"name"},
	EmailTemplates: {"name", "subject"},
	MailSchedules:  {"client_id", "template_id", "frequency"},
}

var idPrefixes = map[string]string{
	Organizations:  "org",
	Users:          "usr",
	Clients:        "cli",
	Directors:      "dir",
	BusinessTypes:  "bt",
	Services:       "svc",
	EmailTemplates: "tpl",
	MailSchedules:  "sch",
}

type collection struct {
	name    string
	seq     int
	order   []string
	records map[string]map[string]any
}

func newCollection(name string) *collection {
	return &collection{name: name, records: make(map[string]map[string]any)}
}

func (c *collection) insert(rec map[string]any) map[string]any {
	c.seq++
	stored := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		stored[k] = v
	}
	id := fmt.Sprintf("%s-%d", idPrefixes[c.name], c.seq)
	stored["id"] = id
	c.records[id] = stored
	c.order = append(c.order, id)
	return copyRecord(stored)
}

func (c *collection) get(id string) (map[string]any, bool) {
	rec, ok := c.records[id]
	if !ok {
		return nil, false
	}
	return copyRecord(rec), true
}

func (c *collection) patch(id string, fields map[string]any) (map[string]any, bool) {
	rec, ok := c.records[id]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	return copyRecord(rec), true
}

func (c *collection) remove(id string) bool {
	if _, ok := c.records[id]; !ok {
		return false
	}
	delete(c.records, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *collection) all(match func(map[string]any) bool) []map[string]any {
	out := make([]map[string]any, 0, len(c.order))
	for _, id := range c.order {
		rec := c.records[id]
		if match == nil || match(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	return out
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func (b *Backend) crud(r chi.Router, base, name string, paged bool) {
	r.Get(base, b.list(name, paged))
	r.Post(base, b.create(name))
	r.Get(base+"/{id}", b.get(name))
	r.Put(base+"/{id}", b.update(name))
	r.Delete(base+"/{id}", b.remove(name))
}

func (b *Backend) list(name string, paged bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		search := strings.ToLower(strings.TrimSpace(q.Get("search")))

		b.mu.Lock()
		records := b.collections[name].all(func(rec map[string]any) bool {
			return search == "" || matches(rec, search)
		})
		b.mu.Unlock()

		if sortBy := q.Get("sort_by"); sortBy != "" {
			desc := strings.EqualFold(q.Get("sort_order"), "desc")
			sort.SliceStable(records, func(i, j int) bool {
				a, c := fmt.Sprint(records[i][sortBy]), fmt.Sprint(records[j][sortBy])
				if desc {
					return a > c
				}
				return a < c
			})
		}

		if !paged {
			writeJSON(w, http.StatusOK, records)
			return
		}

		page := queryInt(r, "page", 1)
		pageSize := queryInt(r, "page_size", 20)
		if page < 1 || pageSize < 1 || pageSize > 100 {
			writeError(w, http.StatusUnprocessableEntity, "page must be >= 1 and page_size between 1 and 100")
			return
		}
		start := (page - 1) * pageSize
		end := start + pageSize
		items := []map[string]any{}
		if start < len(records) {
			if end > len(records) {
				end = len(records)
			}
			items = records[start:end]
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":     items,
			"total":     len(records),
			"page":      page,
			"page_size": pageSize,
		})
	}
}

func (b *Backend) create(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, ok := decodeRecord(w, r, name)
		if !ok {
			return
		}
		if name == MailSchedules {
			if _, set := fields["status"]; !set {
				fields["status"] = "active"
			}
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if name == Clients && b.emailTaken(fields["email"]) {
			writeError(w, http.StatusConflict, "Client with this email already exists")
			return
		}
		writeJSON(w, http.StatusCreated, b.collections[name].insert(fields))
	}
}

// emailTaken must be called with b.mu held.
func (b *Backend) emailTaken(email any) bool {
	taken := b.collections[Clients].all(func(rec map[string]any) bool {
		return strings.EqualFold(fmt.Sprint(rec["email"]), fmt.Sprint(email))
	})
	return len(taken) > 0
}

func (b *Backend) get(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		rec, ok := b.collections[name].get(chi.URLParam(r, "id"))
		b.mu.Unlock()
		if !ok {
			writeNotFound(w, name)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (b *Backend) update(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
		b.mu.Lock()
		rec, ok := b.collections[name].patch(chi.URLParam(r, "id"), fields)
		b.mu.Unlock()
		if !ok {
			writeNotFound(w, name)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (b *Backend) remove(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		ok := b.collections[name].remove(chi.URLParam(r, "id"))
		b.mu.Unlock()
		if !ok {
			writeNotFound(w, name)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// setField updates a single field from the body {"<field>": value}.
func (b *Backend) setField(name, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
			return
		}
		value, ok := body[field]
		if !ok {
			writeValidation(w, []string{field})
			return
		}
		b.mu.Lock()
		rec, ok := b.collections[name].patch(chi.URLParam(r, "id"), map[string]any{field: value})
		b.mu.Unlock()
		if !ok {
			writeNotFound(w, name)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (b *Backend) listDirectors(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[Clients].get(clientID); !ok {
		writeNotFound(w, Clients)
		return
	}
	writeJSON(w, http.StatusOK, b.collections[Directors].all(func(rec map[string]any) bool {
		return rec["client_id"] == clientID
	}))
}

func (b *Backend) createDirector(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeRecord(w, r, Directors)
	if !ok {
		return
	}
	clientID := chi.URLParam(r, "id")
	fields["client_id"] = clientID

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[Clients].get(clientID); !ok {
		writeNotFound(w, Clients)
		return
	}
	writeJSON(w, http.StatusCreated, b.collections[Directors].insert(fields))
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidation(w, []string{"file"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	fields := make(map[string]string)
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	up := Upload{ID: uuid.NewString(), Filename: header.Filename, Content: content, Fields: fields}
	b.mu.Lock()
	b.uploads = append(b.uploads, up)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       up.ID,
		"filename": up.Filename,
		"size":     len(content),
		"url":      "/files/" + up.ID,
	})
}

func (b *Backend) previewTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Variables map[string]string `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	b.mu.Lock()
	tpl, ok := b.collections[EmailTemplates].get(chi.URLParam(r, "id"))
	b.mu.Unlock()
	if !ok {
		writeNotFound(w, EmailTemplates)
		return
	}

	render := func(s string) string {
		for k, v := range body.Variables {
			s = strings.ReplaceAll(s, "{{"+k+"}}", v)
		}
		return s
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"subject": render(fmt.Sprint(tpl["subject"])),
		"body":    render(fmt.Sprint(tpl["body"])),
	})
}

// bulkSchedule creates one schedule per listed client, or per client on file when none are listed.
func (b *Backend) bulkSchedule(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TemplateID string   `json:"template_id"`
		ClientIDs  []string `json:"client_ids"`
		Frequency  string   `json:"frequency"`
		StartDate  string   `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	var missing []string
	if body.TemplateID == "" {
		missing = append(missing, "template_id")
	}
	if body.Frequency == "" {
		missing = append(missing, "frequency")
	}
	if len(missing) > 0 {
		writeValidation(w, missing)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[EmailTemplates].get(body.TemplateID); !ok {
		writeNotFound(w, EmailTemplates)
		return
	}
	clientIDs := body.ClientIDs
	if len(clientIDs) == 0 {
		for _, rec := range b.collections[Clients].all(nil) {
			clientIDs = append(clientIDs, rec["id"].(string))
		}
	}

	created := make([]map[string]any, 0, len(clientIDs))
	for _, id := range clientIDs {
		if _, ok := b.collections[Clients].get(id); !ok {
			continue
		}
		created = append(created, b.collections[MailSchedules].insert(map[string]any{
			"client_id":   id,
			"template_id": body.TemplateID,
			"frequency":   body.Frequency,
			"start_date":  body.StartDate,
			"status":      "active",
		}))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": len(created), "items": created})
}

func decodeRecord(w http.ResponseWriter, r *http.Request, name string) (map[string]any, bool) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return nil, false
	}
	var missing []string
	for _, f := range requiredFields[name] {
		if v, ok := fields[f]; !ok || v == "" || v == nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		writeValidation(w, missing)
		return nil, false
	}
	return fields, true
}

func matches(rec map[string]any, search string) bool {
	for _, v := range rec {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), search) {
			return true
		}
	}
	return false
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Err(err).Msg("fakebackend: writeJSON encode")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeNotFound(w http.ResponseWriter, name string) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("%s record not found", strings.TrimSuffix(strings.ReplaceAll(name, "_", " "), "s")))
}

// writeValidation answers like a schema validator: a 422 with one entry per missing field.
func writeValidation(w http.ResponseWriter, missing []string) {
	detail := make([]map[string]any, 0, len(missing))
	for _, f := range missing {
		detail = append(detail, map[string]any{"loc": []string{"body", f}, "msg": fmt.Sprintf("%s: field required", f), "type": "missing"})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": detail})
}
