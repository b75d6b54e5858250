package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// ClientRepository handles the customers tasks are performed for.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id int) error
}

// AddressRepository handles the service locations of a client.
type AddressRepository interface {
	Create(ctx context.Context, addr *domain.Address) error
	GetByID(ctx context.Context, id int) (*domain.Address, error)
	ListByClient(ctx context.Context, clientID int) ([]*domain.Address, error)
	Update(ctx context.Context, addr *domain.Address) error
	Delete(ctx context.Context, id int) error
}

type clientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository wraps a pgxpool with the ClientRepository interface.
func NewClientRepository(pool *pgxpool.Pool) ClientRepository {
	return &clientRepository{pool: pool}
}

const clientColumns = `id, nombre, tipo, COALESCE(nombre_empresa, ''), COALESCE(telefono, ''),
	COALESCE(email, ''), COALESCE(administrador_email, ''), COALESCE(descripcion, '')`

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clientes (nombre, tipo, nombre_empresa, telefono, email, administrador_email, descripcion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		client.Name, string(client.Type), client.CompanyName,
		client.Phone, client.Email, client.AdminEmail, client.Description,
	).Scan(&client.ID)
	if err != nil {
		return fmt.Errorf("create client %q: %w", client.Name, err)
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id int) (*domain.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clientes WHERE id = $1`, id)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "cliente", ID: id}
		}
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	return client, nil
}

func (r *clientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clientes ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE clientes
		SET nombre = $1, tipo = $2, nombre_empresa = $3, telefono = $4,
		    email = $5, administrador_email = $6, descripcion = $7
		WHERE id = $8
	`,
		client.Name, string(client.Type), client.CompanyName, client.Phone,
		client.Email, client.AdminEmail, client.Description, client.ID,
	)
	if err != nil {
		return fmt.Errorf("update client %d: %w", client.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "cliente", ID: client.ID}
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id int) error {
	// Addresses go with the client; tasks keep their cliente_id for history.
	tag, err := r.pool.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "cliente", ID: id}
	}
	return nil
}

func scanClient(row interface {
	Scan(...any) error
}) (*domain.Client, error) {
	var client domain.Client
	var typeStr string
	err := row.Scan(
		&client.ID, &client.Name, &typeStr, &client.CompanyName,
		&client.Phone, &client.Email, &client.AdminEmail, &client.Description,
	)
	if err != nil {
		return nil, err
	}
	client.Type = domain.ClientType(typeStr)
	return &client, nil
}

type addressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository wraps a pgxpool with the AddressRepository interface.
func NewAddressRepository(pool *pgxpool.Pool) AddressRepository {
	return &addressRepository{pool: pool}
}

const addressColumns = `id, cliente_id, direccion_completa, ciudad, COALESCE(notas, '')`

func (r *addressRepository) Create(ctx context.Context, addr *domain.Address) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO direcciones (cliente_id, direccion_completa, ciudad, notas)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, addr.ClientID, addr.Full, addr.City, addr.Notes).Scan(&addr.ID)
	if err != nil {
		return fmt.Errorf("create address for client %d: %w", addr.ClientID, err)
	}
	return nil
}

func (r *addressRepository) GetByID(ctx context.Context, id int) (*domain.Address, error) {
	var addr domain.Address
	err := r.pool.QueryRow(ctx, `SELECT `+addressColumns+` FROM direcciones WHERE id = $1`, id).
		Scan(&addr.ID, &addr.ClientID, &addr.Full, &addr.City, &addr.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "direccion", ID: id}
		}
		return nil, fmt.Errorf("get address %d: %w", id, err)
	}
	return &addr, nil
}

func (r *addressRepository) ListByClient(ctx context.Context, clientID int) ([]*domain.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM direcciones WHERE cliente_id = $1 ORDER BY id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list addresses for client %d: %w", clientID, err)
	}
	defer rows.Close()

	var addrs []*domain.Address
	for rows.Next() {
		var addr domain.Address
		if err := rows.Scan(&addr.ID, &addr.ClientID, &addr.Full, &addr.City, &addr.Notes); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addrs = append(addrs, &addr)
	}
	return addrs, rows.Err()
}

func (r *addressRepository) Update(ctx context.Context, addr *domain.Address) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE direcciones
		SET direccion_completa = $1, ciudad = $2, notas = $3
		WHERE id = $4
	`, addr.Full, addr.City, addr.Notes, addr.ID)
	if err != nil {
		return fmt.Errorf("update address %d: %w", addr.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "direccion", ID: addr.ID}
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM direcciones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete address %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "direccion", ID: id}
	}
	return nil
}
