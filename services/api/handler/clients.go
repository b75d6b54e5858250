package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/forms"
)

func pathID(r *http.Request, param, field string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: field, Message: "invalid " + field}
	}
	return id, nil
}

// ClientRequest is the JSON body for creating and updating clients.
type ClientRequest struct {
	Name        string            `json:"nombre"`
	Type        domain.ClientType `json:"tipo"`
	CompanyName string            `json:"nombre_empresa"`
	Phone       string            `json:"telefono"`
	Email       string            `json:"email"`
	AdminEmail  string            `json:"administrador_email"`
	Description string            `json:"descripcion"`
}

func (req *ClientRequest) validate() error {
	if req.Type == "" {
		req.Type = domain.ClientIndividual
	}
	if req.Type != domain.ClientCompany && req.Type != domain.ClientIndividual {
		return &domain.ValidationError{Field: "tipo", Message: "tipo must be empresa or particular"}
	}
	form := forms.ClientForm{
		Name:        req.Name,
		Type:        req.Type,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
		Email:       req.Email,
		AdminEmail:  req.AdminEmail,
		Description: req.Description,
	}
	return form.Validate()
}

func (req *ClientRequest) apply(c *domain.Client) {
	c.Name = req.Name
	c.Type = req.Type
	c.CompanyName = req.CompanyName
	c.Phone = req.Phone
	c.Email = req.Email
	c.AdminEmail = req.AdminEmail
	c.Description = req.Description
}

// CreateClient handles POST /api/v1/clientes (admin only).
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.respondError(w, err)
		return
	}
	var client domain.Client
	req.apply(&client)
	if err := h.clients.Create(r.Context(), &client); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusCreated, client)
}

// ListClients handles GET /api/v1/clientes.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, clients)
}

// GetClient handles GET /api/v1/clientes/{id}.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "cliente_id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	client, err := h.clients.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, client)
}

// UpdateClient handles PUT /api/v1/clientes/{id} (admin only).
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "cliente_id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req ClientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.respondError(w, err)
		return
	}
	client, err := h.clients.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	req.apply(client)
	if err := h.clients.Update(r.Context(), client); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, client)
}

// DeleteClient handles DELETE /api/v1/clientes/{id} (admin only).
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "cliente_id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.clients.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"id": id})
}

// AddressRequest is the JSON body for creating and updating addresses.
type AddressRequest struct {
	Full  string `json:"direccion_completa"`
	City  string `json:"ciudad"`
	Notes string `json:"notas"`
}

func (req *AddressRequest) validate() error {
	if req.Full == "" {
		return &domain.ValidationError{Field: "direccion_completa", Message: "address is required"}
	}
	if req.City == "" {
		return &domain.ValidationError{Field: "ciudad", Message: "city is required"}
	}
	return nil
}

// CreateAddress handles POST /api/v1/clientes/{id}/direcciones (admin only).
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "id", "cliente_id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req AddressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.respondError(w, err)
		return
	}
	// The client must exist; a dangling address row helps nobody.
	if _, err := h.clients.GetByID(r.Context(), clientID); err != nil {
		h.respondError(w, err)
		return
	}

	addr := domain.Address{ClientID: clientID, Full: req.Full, City: req.City, Notes: req.Notes}
	if err := h.addresses.Create(r.Context(), &addr); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusCreated, addr)
}

// ListAddresses handles GET /api/v1/clientes/{id}/direcciones.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "id", "cliente_id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	addrs, err := h.addresses.ListByClient(r.Context(), clientID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, addrs)
}

// UpdateAddress handles PUT /api/v1/direcciones/{id} (admin only).
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "direccion_id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req AddressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.respondError(w, err)
		return
	}
	addr, err := h.addresses.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	addr.Full = req.Full
	addr.City = req.City
	addr.Notes = req.Notes
	if err := h.addresses.Update(r.Context(), addr); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, addr)
}

// DeleteAddress handles DELETE /api/v1/direcciones/{id} (admin only).
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "direccion_id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.addresses.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"id": id})
}
