package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

const (
	caseColumns    = `id, kind, request_type, organisation_id, first_name, last_name, email, phone, comment, status_id, assigned_to, due_date, completed_on_time, closure_comment, closed_at, created_at, updated_at`
	historyColumns = `id, case_id, organisation_id, status_id, status_name, assigned_to, assigned_to_name, updated_by, updated_by_name, comment, updated_at`
	userColumns    = `id, organisation_id, email, password_hash, first_name, last_name, role, is_active, last_login_at, created_at, updated_at`
	orgSelect      = `SELECT o.id, o.name, o.industry_id, i.name AS industry_name, o.contact_email, o.contact_phone, o.address, o.is_active, o.created_at, o.updated_at FROM organisations o JOIN industries i ON i.id = o.industry_id`
)

const pqUniqueViolation = "23505"

// PostgresStore implements Store on PostgreSQL. Inside WithTx, case reads
// take a row lock so concurrent transitions on the same case serialise.
type PostgresStore struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
	tx  *sqlx.Tx
}

// NewPostgresStore wraps db.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, ext: db}
}

var _ Store = (*PostgresStore)(nil)

// WithTx implements Store. Nested calls join the outer transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(Store) error) (err error) {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&PostgresStore{db: s.db, ext: tx, tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateCase implements CaseStore.
func (s *PostgresStore) CreateCase(ctx context.Context, c *models.Case) error {
	if c.StatusID == 0 || c.DueDate.IsZero() {
		submitted, err := s.GetStatus(ctx, models.StatusSubmitted)
		if err != nil {
			return fmt.Errorf("load submitted status: %w", err)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		if c.StatusID == 0 {
			c.StatusID = submitted.ID
		}
		if c.DueDate.IsZero() {
			c.DueDate = submitted.DueFrom(c.CreatedAt)
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt

	const query = `INSERT INTO cases (kind, request_type, organisation_id, first_name, last_name, email, phone, comment, status_id, assigned_to, due_date, completed_on_time, closure_comment, closed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id`
	row := s.ext.QueryRowxContext(ctx, query,
		c.Kind, c.RequestType, c.OrganisationID, c.FirstName, c.LastName, c.Email, c.Phone, c.Comment,
		c.StatusID, c.AssignedTo, c.DueDate, c.CompletedOnTime, c.ClosureComment, c.ClosedAt, c.CreatedAt, c.UpdatedAt)
	if err := row.Scan(&c.ID); err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

// GetCase implements CaseStore.
func (s *PostgresStore) GetCase(ctx context.Context, id int64) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	if s.tx != nil {
		query += ` FOR UPDATE`
	}
	var c models.Case
	if err := sqlx.GetContext(ctx, s.ext, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &c, nil
}

// ListCases implements CaseStore.
func (s *PostgresStore) ListCases(ctx context.Context, filter models.CaseFilter) ([]models.Case, int, error) {
	where, args := caseConditions(filter)
	baseQuery := `FROM cases WHERE 1=1` + where

	listQuery := `SELECT ` + caseColumns + ` ` + baseQuery + ` ORDER BY id ASC`
	if offset, limit := pageBounds(filter.Page, filter.PageSize); limit > 0 {
		listQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	cases := []models.Case{}
	if err := sqlx.SelectContext(ctx, s.ext, &cases, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, s.ext, &total, `SELECT COUNT(*) `+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}
	return cases, total, nil
}

func caseConditions(filter models.CaseFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OrganisationID != nil {
		conditions = append(conditions, "organisation_id = "+next(*filter.OrganisationID))
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = "+next(filter.Kind))
	}
	if filter.StatusID != nil {
		conditions = append(conditions, "status_id = "+next(*filter.StatusID))
	}
	if filter.AssignedTo != nil {
		conditions = append(conditions, "assigned_to = "+next(*filter.AssignedTo))
	}
	if filter.OpenOnly {
		conditions = append(conditions, "status_id NOT IN (SELECT id FROM statuses WHERE is_terminal)")
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		p := next("%" + strings.ToLower(q) + "%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name || ' ' || last_name) LIKE %s OR LOWER(email) LIKE %s OR phone LIKE %s OR CAST(id AS TEXT) = %s)", p, p, p, next(q)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " AND " + strings.Join(conditions, " AND "), args
}

// UpdateCase implements CaseStore. Subject and tenant columns are never rewritten.
func (s *PostgresStore) UpdateCase(ctx context.Context, c *models.Case) error {
	c.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cases SET status_id = $2, assigned_to = $3, due_date = $4, completed_on_time = $5, closure_comment = $6, closed_at = $7, updated_at = $8 WHERE id = $1`
	res, err := s.ext.ExecContext(ctx, query, c.ID, c.StatusID, c.AssignedTo, c.DueDate, c.CompletedOnTime, c.ClosureComment, c.ClosedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	return requireAffected(res)
}

// AppendHistory implements CaseStore.
func (s *PostgresStore) AppendHistory(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO case_history (case_id, organisation_id, status_id, status_name, assigned_to, assigned_to_name, updated_by, updated_by_name, comment, updated_at)
VALUES (:case_id, :organisation_id, :status_id, :status_name, :assigned_to, :assigned_to_name, :updated_by, :updated_by_name, :comment, :updated_at) RETURNING id`
	stmt, args, err := sqlx.Named(query, entry)
	if err != nil {
		return fmt.Errorf("bind history entry: %w", err)
	}
	if err := s.ext.QueryRowxContext(ctx, s.ext.Rebind(stmt), args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListHistory implements CaseStore.
func (s *PostgresStore) ListHistory(ctx context.Context, caseID int64) ([]models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM case_history WHERE case_id = $1 ORDER BY id ASC`
	entries := []models.HistoryEntry{}
	if err := sqlx.SelectContext(ctx, s.ext, &entries, query, caseID); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// ListStatuses implements ReferenceStore.
func (s *PostgresStore) ListStatuses(ctx context.Context) ([]models.Status, error) {
	statuses := []models.Status{}
	if err := sqlx.SelectContext(ctx, s.ext, &statuses, `SELECT id, name, sla_days, is_active, is_terminal FROM statuses ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// GetStatus implements ReferenceStore.
func (s *PostgresStore) GetStatus(ctx context.Context, id int64) (*models.Status, error) {
	var st models.Status
	if err := sqlx.GetContext(ctx, s.ext, &st, `SELECT id, name, sla_days, is_active, is_terminal FROM statuses WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	return &st, nil
}

// ListIndustries implements ReferenceStore.
func (s *PostgresStore) ListIndustries(ctx context.Context) ([]models.Industry, error) {
	industries := []models.Industry{}
	if err := sqlx.SelectContext(ctx, s.ext, &industries, `SELECT id, name FROM industries ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list industries: %w", err)
	}
	return industries, nil
}

// GetIndustry implements ReferenceStore.
func (s *PostgresStore) GetIndustry(ctx context.Context, id int64) (*models.Industry, error) {
	var ind models.Industry
	if err := sqlx.GetContext(ctx, s.ext, &ind, `SELECT id, name FROM industries WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get industry: %w", err)
	}
	return &ind, nil
}

// CreateOrganisation implements ReferenceStore.
func (s *PostgresStore) CreateOrganisation(ctx context.Context, org *models.Organisation) error {
	now := time.Now().UTC()
	org.CreatedAt, org.UpdatedAt = now, now
	const query = `INSERT INTO organisations (name, industry_id, contact_email, contact_phone, address, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := s.ext.QueryRowxContext(ctx, query, org.Name, org.IndustryID, org.ContactEmail, org.ContactPhone, org.Address, org.IsActive, org.CreatedAt, org.UpdatedAt).Scan(&org.ID); err != nil {
		return fmt.Errorf("insert organisation: %w", err)
	}
	return s.fillIndustryName(ctx, org)
}

// UpdateOrganisation implements ReferenceStore.
func (s *PostgresStore) UpdateOrganisation(ctx context.Context, org *models.Organisation) error {
	org.UpdatedAt = time.Now().UTC()
	const query = `UPDATE organisations SET name = $2, industry_id = $3, contact_email = $4, contact_phone = $5, address = $6, is_active = $7, updated_at = $8 WHERE id = $1`
	res, err := s.ext.ExecContext(ctx, query, org.ID, org.Name, org.IndustryID, org.ContactEmail, org.ContactPhone, org.Address, org.IsActive, org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update organisation: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return s.fillIndustryName(ctx, org)
}

func (s *PostgresStore) fillIndustryName(ctx context.Context, org *models.Organisation) error {
	ind, err := s.GetIndustry(ctx, org.IndustryID)
	if err != nil {
		return err
	}
	org.IndustryName = ind.Name
	return nil
}

// GetOrganisation implements ReferenceStore.
func (s *PostgresStore) GetOrganisation(ctx context.Context, id int64) (*models.Organisation, error) {
	var org models.Organisation
	if err := sqlx.GetContext(ctx, s.ext, &org, orgSelect+` WHERE o.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get organisation: %w", err)
	}
	return &org, nil
}

// ListOrganisations implements ReferenceStore.
func (s *PostgresStore) ListOrganisations(ctx context.Context) ([]models.Organisation, error) {
	orgs := []models.Organisation{}
	if err := sqlx.SelectContext(ctx, s.ext, &orgs, orgSelect+` ORDER BY o.id`); err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	return orgs, nil
}

// CreateUser implements ReferenceStore.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	const query = `INSERT INTO users (organisation_id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := s.ext.QueryRowxContext(ctx, query, user.OrganisationID, strings.ToLower(user.Email), user.PasswordHash, user.FirstName, user.LastName, user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUser implements ReferenceStore.
func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET password_hash = $2, first_name = $3, last_name = $4, role = $5, is_active = $6, updated_at = $7 WHERE id = $1`
	res, err := s.ext.ExecContext(ctx, query, user.ID, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.IsActive, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res)
}

// GetUser implements ReferenceStore.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := sqlx.GetContext(ctx, s.ext, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// FindUserByEmail implements ReferenceStore.
func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := sqlx.GetContext(ctx, s.ext, &user, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, strings.ToLower(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// ListUsers implements ReferenceStore.
func (s *PostgresStore) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.OrganisationID != nil {
		args = append(args, *filter.OrganisationID)
		conditions = append(conditions, fmt.Sprintf("organisation_id = $%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(first_name || ' ' || last_name) LIKE $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	listQuery := `SELECT ` + userColumns + ` ` + baseQuery + ` ORDER BY id ASC`
	if offset, limit := pageBounds(filter.Page, filter.PageSize); limit > 0 {
		listQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	users := []models.User{}
	if err := sqlx.SelectContext(ctx, s.ext, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, s.ext, &total, `SELECT COUNT(*) `+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// UpdateLastLogin implements ReferenceStore.
func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	if _, err := s.ext.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
