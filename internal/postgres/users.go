package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// UserRepository handles accounts: admins and workers.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User, passwordHash string) error
	GetByID(ctx context.Context, id int) (*domain.User, error)
	// GetByUsername also returns the stored password hash, for login.
	GetByUsername(ctx context.Context, username string) (*domain.User, string, error)
	ListWorkers(ctx context.Context, activeOnly bool) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Deactivate soft-deletes: the account stops appearing in rosters but
	// its historical assignments and approved hours stay intact.
	Deactivate(ctx context.Context, id int) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository wraps a pgxpool with the UserRepository interface.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, usuario, nombre, COALESCE(descripcion, ''), COALESCE(foto_perfil, ''), tipo, activo, fecha_creacion`

func (r *userRepository) Create(ctx context.Context, user *domain.User, passwordHash string) error {
	user.CreatedAt = time.Now().UTC()
	user.Active = true
	err := r.pool.QueryRow(ctx, `
		INSERT INTO usuarios (usuario, password_hash, nombre, descripcion, foto_perfil, tipo, activo, fecha_creacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		user.Username, passwordHash, user.Name, user.Description,
		user.ProfilePhoto, string(user.Type), user.Active, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "trabajador", ID: id}
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, string, error) {
	var user domain.User
	var typeStr, hash string
	err := r.pool.QueryRow(ctx, `
		SELECT id, usuario, nombre, COALESCE(descripcion, ''), COALESCE(foto_perfil, ''),
		       tipo, activo, fecha_creacion, password_hash
		FROM usuarios WHERE usuario = $1
	`, username).Scan(
		&user.ID, &user.Username, &user.Name, &user.Description, &user.ProfilePhoto,
		&typeStr, &user.Active, &user.CreatedAt, &hash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", &domain.NotFoundError{Kind: "trabajador"}
		}
		return nil, "", fmt.Errorf("get user %q: %w", username, err)
	}
	user.Type = domain.UserType(typeStr)
	return &user, hash, nil
}

func (r *userRepository) ListWorkers(ctx context.Context, activeOnly bool) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM usuarios WHERE tipo = 'trabajador'`
	if activeOnly {
		query += ` AND activo`
	}
	query += ` ORDER BY nombre`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE usuarios
		SET nombre = $1, descripcion = $2, foto_perfil = $3, activo = $4
		WHERE id = $5
	`, user.Name, user.Description, user.ProfilePhoto, user.Active, user.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "trabajador", ID: user.ID}
	}
	return nil
}

func (r *userRepository) Deactivate(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE usuarios SET activo = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "trabajador", ID: id}
	}
	return nil
}

func scanUser(row interface {
	Scan(...any) error
}) (*domain.User, error) {
	var user domain.User
	var typeStr string
	err := row.Scan(
		&user.ID, &user.Username, &user.Name, &user.Description,
		&user.ProfilePhoto, &typeStr, &user.Active, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Type = domain.UserType(typeStr)
	return &user, nil
}
