package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/forms"
)

type clientPayload struct {
	Name        string            `json:"nombre"`
	Type        domain.ClientType `json:"tipo"`
	CompanyName string            `json:"nombre_empresa"`
	Phone       string            `json:"telefono"`
	Email       string            `json:"email"`
	AdminEmail  string            `json:"administrador_email"`
	Description string            `json:"descripcion"`
}

func clientPayloadFrom(form forms.ClientForm) clientPayload {
	return clientPayload{
		Name:        form.Name,
		Type:        form.Type,
		CompanyName: form.CompanyName,
		Phone:       form.Phone,
		Email:       form.Email,
		AdminEmail:  form.AdminEmail,
		Description: form.Description,
	}
}

// CreateClient validates the form and registers a client.
func (c *Client) CreateClient(ctx context.Context, form forms.ClientForm) (*domain.Client, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var out domain.Client
	if err := c.do(ctx, http.MethodPost, "/api/v1/clientes", clientPayloadFrom(form), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clients lists all clients.
func (c *Client) Clients(ctx context.Context) ([]*domain.Client, error) {
	var out []*domain.Client
	if err := c.do(ctx, http.MethodGet, "/api/v1/clientes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetClient fetches one client by id.
func (c *Client) GetClient(ctx context.Context, id int) (*domain.Client, error) {
	var out domain.Client
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d", id), nil, &out); err != nil {
		return nil, notFoundAs(err, "cliente", id)
	}
	return &out, nil
}

// UpdateClient validates the form and replaces a client's fields.
func (c *Client) UpdateClient(ctx context.Context, id int, form forms.ClientForm) (*domain.Client, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var out domain.Client
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/clientes/%d", id), clientPayloadFrom(form), &out); err != nil {
		return nil, notFoundAs(err, "cliente", id)
	}
	return &out, nil
}

// DeleteClient removes a client and its addresses. Task history keeps the
// client id.
func (c *Client) DeleteClient(ctx context.Context, id int) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/clientes/%d", id), nil, nil)
	return notFoundAs(err, "cliente", id)
}

type addressPayload struct {
	Full  string `json:"direccion_completa"`
	City  string `json:"ciudad"`
	Notes string `json:"notas"`
}

// CreateAddress adds an address to a client.
func (c *Client) CreateAddress(ctx context.Context, clientID int, full, city, notes string) (*domain.Address, error) {
	if full == "" {
		return nil, &domain.ValidationError{Field: "direccion_completa", Message: "address is required"}
	}
	var out domain.Address
	body := addressPayload{full, city, notes}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/clientes/%d/direcciones", clientID), body, &out); err != nil {
		return nil, notFoundAs(err, "cliente", clientID)
	}
	return &out, nil
}

// Addresses lists a client's addresses.
func (c *Client) Addresses(ctx context.Context, clientID int) ([]*domain.Address, error) {
	var out []*domain.Address
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d/direcciones", clientID), nil, &out); err != nil {
		return nil, notFoundAs(err, "cliente", clientID)
	}
	return out, nil
}

// UpdateAddress replaces an address's fields.
func (c *Client) UpdateAddress(ctx context.Context, id int, full, city, notes string) (*domain.Address, error) {
	if full == "" {
		return nil, &domain.ValidationError{Field: "direccion_completa", Message: "address is required"}
	}
	var out domain.Address
	body := addressPayload{full, city, notes}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/direcciones/%d", id), body, &out); err != nil {
		return nil, notFoundAs(err, "direccion", id)
	}
	return &out, nil
}

// DeleteAddress removes one address.
func (c *Client) DeleteAddress(ctx context.Context, id int) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/direcciones/%d", id), nil, nil)
	return notFoundAs(err, "direccion", id)
}

// Income is the aggregate service value of approved tasks, split by
// payment state.
type Income struct {
	Paid    float64 `json:"ingresos_pagados"`
	Pending float64 `json:"ingresos_pendientes"`
	Total   float64 `json:"ingresos_totales"`
}

// Income fetches the income aggregates. Admin only.
func (c *Client) Income(ctx context.Context) (*Income, error) {
	var out Income
	if err := c.do(ctx, http.MethodGet, "/api/v1/finanzas/ingresos", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
