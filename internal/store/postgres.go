package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vouchify/deals-engine/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
// Schema: migrations/001_init.sql.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const dealColumns = `id, merchant_id, title, description, category, merchant_name, image_url,
	listing_type, base_price::TEXT, discount_kind, discount_value::TEXT, discount,
	derived_price::TEXT, loyalty_details, sold_count, is_active, created_at, updated_at`

// --- Deals ---

func (s *PostgresStore) ListActive(ctx context.Context) ([]model.Deal, error) {
	return s.queryDeals(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE is_active ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]model.Deal, error) {
	return s.queryDeals(ctx,
		`SELECT `+dealColumns+` FROM deals ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListDealsByMerchant(ctx context.Context, merchantID string) ([]model.Deal, error) {
	return s.queryDeals(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
}

func (s *PostgresStore) GetDeal(ctx context.Context, id string) (*model.Deal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id)
	d, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get deal %s: %w", id, err)
	}
	return d, nil
}

func (s *PostgresStore) CreateDeal(ctx context.Context, d *model.Deal) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO deals (id, merchant_id, title, description, category, merchant_name, image_url,
		                    listing_type, base_price, discount_kind, discount_value, discount,
		                    derived_price, loyalty_details, sold_count, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::NUMERIC, $10, $11::NUMERIC, $12,
		         $13::NUMERIC, $14, $15, $16, $17, $18)`,
		d.ID, d.MerchantID, d.Title, d.Description, d.Category, d.MerchantName, d.ImageURL,
		string(d.ListingType), numericArg(d.BasePrice), string(d.DiscountKind), numericArg(d.DiscountValue), d.Discount,
		numericArg(d.DerivedPrice), d.LoyaltyDetails, d.SoldCount, d.IsActive, d.CreatedAt, d.UpdatedAt,
	)
	return mapWriteErr(err, "create deal "+d.ID)
}

func (s *PostgresStore) UpdateDeal(ctx context.Context, d *model.Deal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE deals
		 SET title = $2, description = $3, category = $4, merchant_name = $5, image_url = $6,
		     listing_type = $7, base_price = $8::NUMERIC, discount_kind = $9,
		     discount_value = $10::NUMERIC, discount = $11, derived_price = $12::NUMERIC,
		     loyalty_details = $13, is_active = $14, updated_at = $15
		 WHERE id = $1`,
		d.ID, d.Title, d.Description, d.Category, d.MerchantName, d.ImageURL,
		string(d.ListingType), numericArg(d.BasePrice), string(d.DiscountKind),
		numericArg(d.DiscountValue), d.Discount, numericArg(d.DerivedPrice),
		d.LoyaltyDetails, d.IsActive, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update deal %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deal %s: %w", d.ID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) SetDealActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE deals SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set deal %s active: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deal %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Bookings ---

const bookingColumns = `id, deal_id, customer_name, customer_email, quantity,
	unit_price::TEXT, total::TEXT, voucher_code, status, created_at, redeemed_at`

// CreateBooking inserts the booking and bumps the deal's sold count in one
// transaction.
func (s *PostgresStore) CreateBooking(ctx context.Context, b *model.Booking) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx,
		`UPDATE deals SET sold_count = sold_count + $2 WHERE id = $1`, b.DealID, b.Quantity)
	if err != nil {
		return fmt.Errorf("bump sold count for deal %s: %w", b.DealID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deal %s: %w", b.DealID, ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (id, deal_id, customer_name, customer_email, quantity,
		                       unit_price, total, voucher_code, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9, $10)`,
		b.ID, b.DealID, b.CustomerName, b.CustomerEmail, b.Quantity,
		b.UnitPrice.String(), b.Total.String(), b.VoucherCode, b.Status, b.CreatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "create booking "+b.ID)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetBookingByVoucher(ctx context.Context, code string) (*model.Booking, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE voucher_code = $1`, code)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("voucher %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking by voucher %s: %w", code, err)
	}
	return b, nil
}

func (s *PostgresStore) ListBookingsByCustomer(ctx context.Context, email string) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE lower(customer_email) = lower($1) ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (s *PostgresStore) CountCustomerUnits(ctx context.Context, dealID, email string) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM bookings
		 WHERE deal_id = $1 AND lower(customer_email) = lower($2)`, dealID, email).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count units for %s on deal %s: %w", email, dealID, err)
	}
	return total, nil
}

func (s *PostgresStore) RedeemBooking(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET status = $2, redeemed_at = $3 WHERE id = $1 AND status = $4`,
		id, model.BookingRedeemed, at, model.BookingConfirmed)
	if err != nil {
		return fmt.Errorf("redeem booking %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either missing or not in the confirmed state.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("redeem booking %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("booking %s already redeemed: %w", id, ErrConflict)
}

// --- Merchants ---

const merchantColumns = `id, business_name, contact_name, email, phone, category, address, city, status, created_at`

func (s *PostgresStore) CreateMerchant(ctx context.Context, m *model.Merchant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO merchants (`+merchantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.BusinessName, m.ContactName, m.Email, m.Phone,
		m.Category, m.Address, m.City, string(m.Status), m.CreatedAt,
	)
	return mapWriteErr(err, "create merchant "+m.ID)
}

func (s *PostgresStore) GetMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	var m model.Merchant
	var status string
	err := s.pool.QueryRow(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id).
		Scan(&m.ID, &m.BusinessName, &m.ContactName, &m.Email, &m.Phone,
			&m.Category, &m.Address, &m.City, &status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("merchant %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get merchant %s: %w", id, err)
	}
	m.Status = model.MerchantStatus(status)
	return &m, nil
}

func (s *PostgresStore) ListMerchants(ctx context.Context, status model.MerchantStatus) ([]model.Merchant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+merchantColumns+` FROM merchants
		 WHERE $1 = '' OR status = $1 ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	merchants := []model.Merchant{}
	for rows.Next() {
		var m model.Merchant
		var st string
		if err := rows.Scan(&m.ID, &m.BusinessName, &m.ContactName, &m.Email, &m.Phone,
			&m.Category, &m.Address, &m.City, &st, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Status = model.MerchantStatus(st)
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}

func (s *PostgresStore) SetMerchantStatus(ctx context.Context, id string, status model.MerchantStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE merchants SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("set merchant %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Waitlist ---

func (s *PostgresStore) JoinWaitlist(ctx context.Context, e *model.WaitlistEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO waitlist (id, email, name, role, created_at) VALUES ($1, lower($2), $3, $4, $5)`,
		e.ID, e.Email, e.Name, e.Role, e.CreatedAt)
	return mapWriteErr(err, "join waitlist "+e.Email)
}

func (s *PostgresStore) ListWaitlist(ctx context.Context) ([]model.WaitlistEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, name, role, created_at FROM waitlist ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.WaitlistEntry{}
	for rows.Next() {
		var e model.WaitlistEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.Name, &e.Role, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Scan helpers ---

func (s *PostgresStore) queryDeals(ctx context.Context, sql string, args ...any) ([]model.Deal, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := []model.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *d)
	}
	return deals, rows.Err()
}

func scanDeal(row pgx.Row) (*model.Deal, error) {
	var d model.Deal
	var listingType, discountKind string
	var basePrice, discountValue, derivedPrice *string

	if err := row.Scan(&d.ID, &d.MerchantID, &d.Title, &d.Description, &d.Category,
		&d.MerchantName, &d.ImageURL, &listingType, &basePrice, &discountKind,
		&discountValue, &d.Discount, &derivedPrice, &d.LoyaltyDetails,
		&d.SoldCount, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}

	d.ListingType = model.ListingType(listingType)
	d.DiscountKind = model.DiscountKind(discountKind)

	var err error
	if d.BasePrice, err = parseNumeric("base_price", basePrice); err != nil {
		return nil, err
	}
	if d.DiscountValue, err = parseNumeric("discount_value", discountValue); err != nil {
		return nil, err
	}
	if d.DerivedPrice, err = parseNumeric("derived_price", derivedPrice); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	var unitPrice, total string

	if err := row.Scan(&b.ID, &b.DealID, &b.CustomerName, &b.CustomerEmail, &b.Quantity,
		&unitPrice, &total, &b.VoucherCode, &b.Status, &b.CreatedAt, &b.RedeemedAt); err != nil {
		return nil, err
	}

	var err error
	if b.UnitPrice, err = parseMoney("unit_price", unitPrice); err != nil {
		return nil, err
	}
	if b.Total, err = parseMoney("total", total); err != nil {
		return nil, err
	}
	return &b, nil
}

// numericArg passes an optional amount as NUMERIC text, or NULL.
func numericArg(v decimal.NullDecimal) any {
	if !v.Valid {
		return nil
	}
	return v.Decimal.String()
}

// parseNumeric reads a nullable NUMERIC column scanned as text. NULL is
// absent; anything unparsable is an error.
func parseNumeric(column string, s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	v, err := parseMoney(column, *s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(v), nil
}

func parseMoney(column, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("corrupt %s %q: %w", column, s, err)
	}
	return v, nil
}

func mapWriteErr(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
