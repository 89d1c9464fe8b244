package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
)

var (
	// ErrBusinessNotFound matches enrichment.ErrNotFound so the pipeline can
	// tell a vanished record from a storage failure.
	ErrBusinessNotFound = fmt.Errorf("business %w", enrichment.ErrNotFound)
	// ErrDuplicateCorporateID matches enrichment.ErrConflict.
	ErrDuplicateCorporateID = fmt.Errorf("corporate id %w", enrichment.ErrConflict)
)

// BusinessesRepository describes persistence operations for businesses.
type BusinessesRepository interface {
	Create(ctx context.Context, business *entity.Business) error
	FindByID(ctx context.Context, id uuid.UUID) (entity.Business, error)
	List(ctx context.Context, filter dto.BusinessListFilter) ([]entity.Business, int, error)
	UpdateByID(ctx context.Context, business entity.Business) (entity.Business, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkUpsert(ctx context.Context, records []entity.Business) (BulkUpsertResult, error)
	UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error
	FindEligible(ctx context.Context, q enrichment.EligibleQuery) ([]entity.Business, error)
	CountEligible(ctx context.Context, f enrichment.Filter) (int, error)
	ListLegacy(ctx context.Context, afterSeq int64, limit int) ([]entity.Business, error)
	ListAll(ctx context.Context, afterSeq int64, limit int) ([]entity.Business, error)
	Counts(ctx context.Context) (BusinessCounts, error)
}

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// BusinessCounts is the data-quality overview used by the operator report.
type BusinessCounts struct {
	Total             int
	Scraped           int
	DetailsCompleted  int
	DetailsFailed     int
	PresenceCompleted int
	PresenceFailed    int
	WithPresence      int
	Legacy            int
}

// PGXBusinessesRepository implements BusinessesRepository using pgx.
type PGXBusinessesRepository struct {
	pool pgxPool
}

// NewPGXBusinessesRepository wires a pgx backed repository.
func NewPGXBusinessesRepository(pool *pgxpool.Pool) *PGXBusinessesRepository {
	return &PGXBusinessesRepository{pool: pool}
}

const businessColumns = `
            id,
            seq,
            corporate_id,
            name,
            description,
            category,
            address,
            phone,
            mobile,
            email,
            website,
            contact_person,
            member_class,
            designation,
            hours,
            images,
            logo,
            cover_photo,
            rating,
            links,
            has_public_presence,
            social_media,
            search_result,
            detected_category,
            details_status,
            details_attempt_at,
            details_error,
            details_error_class,
            presence_status,
            presence_attempt_at,
            presence_error,
            presence_error_class,
            schema_version,
            raw,
            created_at,
            updated_at`

// scrapedPredicate selects records whose detail page yielded a contact person.
const scrapedPredicate = "(contact_person IS NOT NULL AND contact_person <> 'N/A')"

// writeArgs returns the 31 writable columns in schema order, from
// corporate_id through raw. rating is maintained by UpdateRating.
func writeArgs(b entity.Business) ([]any, error) {
	address, err := nullableJSONArg(b.Address)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	hours := b.Hours
	if hours == nil {
		hours = entity.Hours{}
	}
	hoursJSON, err := jsonArg(hours)
	if err != nil {
		return nil, fmt.Errorf("encode hours: %w", err)
	}
	social, err := jsonArg(b.SocialMedia)
	if err != nil {
		return nil, fmt.Errorf("encode social media: %w", err)
	}
	searchResult, err := nullableJSONArg(b.SearchResult)
	if err != nil {
		return nil, fmt.Errorf("encode search result: %w", err)
	}
	raw := string(b.Raw)
	if raw == "" {
		raw = "{}"
	}
	version := b.SchemaVersion
	if version == 0 {
		version = entity.SchemaVersion
	}

	return []any{
		fieldArg(b.CorporateID),
		strings.TrimSpace(b.Name),
		fieldArg(b.Description),
		fieldArg(b.Category),
		address,
		fieldArg(b.Phone),
		fieldArg(b.Mobile),
		fieldArg(b.Email),
		fieldArg(b.Website),
		fieldArg(b.ContactPerson),
		fieldArg(b.MemberClass),
		fieldArg(b.Designation),
		hoursJSON,
		stringSliceOrEmpty(b.Images),
		b.Logo,
		b.CoverPhoto,
		stringSliceOrEmpty(b.Links),
		boolOrNil(b.HasPublicPresence),
		social,
		searchResult,
		fieldArg(b.DetectedCategory),
		string(b.Details.StatusOrPending()),
		b.Details.LastAttemptAt,
		b.Details.LastError,
		b.Details.ErrorClass,
		string(b.Presence.StatusOrPending()),
		b.Presence.LastAttemptAt,
		b.Presence.LastError,
		b.Presence.ErrorClass,
		version,
		raw,
	}, nil
}

const insertBusinessSQL = `
        INSERT INTO businesses (
            corporate_id, name, description, category, address, phone, mobile, email, website,
            contact_person, member_class, designation, hours, images, logo, cover_photo, links,
            has_public_presence, social_media, search_result, detected_category,
            details_status, details_attempt_at, details_error, details_error_class,
            presence_status, presence_attempt_at, presence_error, presence_error_class,
            schema_version, raw
        ) VALUES (
            $1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9,
            $10, $11, $12, $13::jsonb, $14, $15, $16, $17,
            $18, $19::jsonb, $20::jsonb, $21,
            $22, $23, $24, $25,
            $26, $27, $28, $29,
            $30, $31::jsonb
        )
        RETURNING ` + businessColumns

// Create inserts a business and fills the generated columns.
func (r *PGXBusinessesRepository) Create(ctx context.Context, business *entity.Business) error {
	if business == nil {
		return fmt.Errorf("business payload is nil")
	}
	args, err := writeArgs(*business)
	if err != nil {
		return err
	}

	created, err := scanBusiness(r.pool.QueryRow(ctx, insertBusinessSQL, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCorporateID
		}
		return fmt.Errorf("insert business: %w", err)
	}
	*business = created
	return nil
}

// FindByID fetches one business.
func (r *PGXBusinessesRepository) FindByID(ctx context.Context, id uuid.UUID) (entity.Business, error) {
	query := "SELECT " + businessColumns + " FROM businesses WHERE id = $1"
	b, err := scanBusiness(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Business{}, ErrBusinessNotFound
		}
		return entity.Business{}, fmt.Errorf("query business by id: %w", err)
	}
	return b, nil
}

// List returns one page of businesses and the total matching the filter.
// Records with a scraped contact person come first.
func (r *PGXBusinessesRepository) List(ctx context.Context, filter dto.BusinessListFilter) ([]entity.Business, int, error) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR category ILIKE $%d OR address::text ILIKE $%d)", idx, idx, idx))
		args = append(args, pattern)
		idx++
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(category) = LOWER($%d)", idx))
		args = append(args, filter.Category)
		idx++
	}
	if filter.ScrapedOnly {
		clauses = append(clauses, scrapedPredicate)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM businesses"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count businesses: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := strings.Builder{}
	query.WriteString("SELECT " + businessColumns + " FROM businesses")
	query.WriteString(where)
	query.WriteString(" ORDER BY " + scrapedPredicate + " DESC, seq ASC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	businesses, err := scanBusinesses(rows)
	if err != nil {
		return nil, 0, err
	}
	return businesses, total, nil
}

const updateBusinessSQL = `
        UPDATE businesses SET
            corporate_id = $2,
            name = $3,
            description = $4,
            category = $5,
            address = $6::jsonb,
            phone = $7,
            mobile = $8,
            email = $9,
            website = $10,
            contact_person = $11,
            member_class = $12,
            designation = $13,
            hours = $14::jsonb,
            images = $15,
            logo = $16,
            cover_photo = $17,
            links = $18,
            has_public_presence = $19,
            social_media = $20::jsonb,
            search_result = $21::jsonb,
            detected_category = $22,
            details_status = $23,
            details_attempt_at = $24,
            details_error = $25,
            details_error_class = $26,
            presence_status = $27,
            presence_attempt_at = $28,
            presence_error = $29,
            presence_error_class = $30,
            schema_version = $31,
            raw = $32::jsonb,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + businessColumns

// UpdateByID overwrites the stored business with the given record.
func (r *PGXBusinessesRepository) UpdateByID(ctx context.Context, business entity.Business) (entity.Business, error) {
	args, err := writeArgs(business)
	if err != nil {
		return entity.Business{}, err
	}
	args = append([]any{business.ID}, args...)

	updated, err := scanBusiness(r.pool.QueryRow(ctx, updateBusinessSQL, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return entity.Business{}, ErrBusinessNotFound
		case isUniqueViolation(err):
			return entity.Business{}, ErrDuplicateCorporateID
		}
		return entity.Business{}, fmt.Errorf("update business: %w", err)
	}
	return updated, nil
}

// Delete removes a business and, through the foreign key, its reviews.
func (r *PGXBusinessesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

// UpdateRating stores the review average on the business.
func (r *PGXBusinessesRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE businesses SET rating = $2, updated_at = NOW() WHERE id = $1`, id, rating)
	if err != nil {
		return fmt.Errorf("update business rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

// bulkUpsertSQL inserts a business or, when the corporate id already exists,
// fills only the columns that are still empty or hold the placeholder.
const bulkUpsertSQL = `
        INSERT INTO businesses (
            corporate_id, name, description, category, address, phone, mobile, email, website,
            contact_person, member_class, designation, hours, images, logo, cover_photo, links,
            has_public_presence, social_media, search_result, detected_category,
            details_status, details_attempt_at, details_error, details_error_class,
            presence_status, presence_attempt_at, presence_error, presence_error_class,
            schema_version, raw
        ) VALUES (
            $1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9,
            $10, $11, $12, $13::jsonb, $14, $15, $16, $17,
            $18, $19::jsonb, $20::jsonb, $21,
            $22, $23, $24, $25,
            $26, $27, $28, $29,
            $30, $31::jsonb
        )
        ON CONFLICT (corporate_id) WHERE corporate_id IS NOT NULL AND corporate_id <> 'N/A' DO UPDATE SET
            description = CASE WHEN businesses.description IS NULL OR businesses.description = 'N/A' THEN EXCLUDED.description ELSE businesses.description END,
            category = CASE WHEN businesses.category IS NULL OR businesses.category = 'N/A' THEN EXCLUDED.category ELSE businesses.category END,
            address = CASE WHEN businesses.address IS NULL OR businesses.address = '"N/A"'::jsonb THEN EXCLUDED.address ELSE businesses.address END,
            phone = CASE WHEN businesses.phone IS NULL OR businesses.phone = 'N/A' THEN EXCLUDED.phone ELSE businesses.phone END,
            mobile = CASE WHEN businesses.mobile IS NULL OR businesses.mobile = 'N/A' THEN EXCLUDED.mobile ELSE businesses.mobile END,
            email = CASE WHEN businesses.email IS NULL OR businesses.email = 'N/A' THEN EXCLUDED.email ELSE businesses.email END,
            website = CASE WHEN businesses.website IS NULL OR businesses.website = 'N/A' THEN EXCLUDED.website ELSE businesses.website END,
            contact_person = CASE WHEN businesses.contact_person IS NULL OR businesses.contact_person = 'N/A' THEN EXCLUDED.contact_person ELSE businesses.contact_person END,
            member_class = CASE WHEN businesses.member_class IS NULL OR businesses.member_class = 'N/A' THEN EXCLUDED.member_class ELSE businesses.member_class END,
            designation = CASE WHEN businesses.designation IS NULL OR businesses.designation = 'N/A' THEN EXCLUDED.designation ELSE businesses.designation END,
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// BulkUpsert persists a batch of businesses in one transaction.
func (r *PGXBusinessesRepository) BulkUpsert(ctx context.Context, records []entity.Business) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start bulk upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		args, err := writeArgs(record)
		if err != nil {
			return result, fmt.Errorf("bulk upsert business %q: %w", record.Name, err)
		}

		var inserted bool
		if err := tx.QueryRow(ctx, bulkUpsertSQL, args...).Scan(&inserted); err != nil {
			return result, fmt.Errorf("bulk upsert business %q: %w", record.Name, err)
		}

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit bulk upsert tx: %w", err)
	}
	return result, nil
}

// eligibleClause renders the selection predicate for an enrichment target.
func eligibleClause(f enrichment.Filter, idx int) (string, []any, int, error) {
	switch f.Target {
	case entity.TargetDetails:
		clauses := []string{"details_status <> 'completed'", "website IS NOT NULL", "website <> 'N/A'"}
		var args []any
		if f.DetailURLPattern != "" {
			clauses = append(clauses, fmt.Sprintf("website ~* $%d", idx))
			args = append(args, f.DetailURLPattern)
			idx++
		}
		return strings.Join(clauses, " AND "), args, idx, nil
	case entity.TargetPresence:
		clauses := []string{"presence_status <> 'completed'", "name <> ''", "name <> 'N/A'"}
		if f.ScrapedOnly {
			clauses = append(clauses, scrapedPredicate)
		}
		return strings.Join(clauses, " AND "), nil, idx, nil
	default:
		return "", nil, idx, fmt.Errorf("unknown enrichment target %q", f.Target)
	}
}

// FindEligible returns the next page of records the target still has to
// process, in insertion order after q.AfterSeq.
func (r *PGXBusinessesRepository) FindEligible(ctx context.Context, q enrichment.EligibleQuery) ([]entity.Business, error) {
	where, args, idx, err := eligibleClause(q.Filter, 1)
	if err != nil {
		return nil, err
	}
	limit := pageLimit(q.Limit)
	query := fmt.Sprintf("SELECT %s FROM businesses WHERE %s AND seq > $%d ORDER BY seq ASC LIMIT $%d",
		businessColumns, where, idx, idx+1)
	args = append(args, q.AfterSeq, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find eligible businesses: %w", err)
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// CountEligible counts the records the target still has to process.
func (r *PGXBusinessesRepository) CountEligible(ctx context.Context, f enrichment.Filter) (int, error) {
	where, args, _, err := eligibleClause(f, 1)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM businesses WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count eligible businesses: %w", err)
	}
	return n, nil
}

// ListLegacy pages through records stored before the canonical shape.
func (r *PGXBusinessesRepository) ListLegacy(ctx context.Context, afterSeq int64, limit int) ([]entity.Business, error) {
	query := "SELECT " + businessColumns + " FROM businesses WHERE schema_version < $1 AND seq > $2 ORDER BY seq ASC LIMIT $3"
	return r.page(ctx, query, entity.SchemaVersion, afterSeq, pageLimit(limit))
}

// ListAll pages through every record in insertion order.
func (r *PGXBusinessesRepository) ListAll(ctx context.Context, afterSeq int64, limit int) ([]entity.Business, error) {
	query := "SELECT " + businessColumns + " FROM businesses WHERE seq > $1 ORDER BY seq ASC LIMIT $2"
	return r.page(ctx, query, afterSeq, pageLimit(limit))
}

func (r *PGXBusinessesRepository) page(ctx context.Context, query string, args ...any) ([]entity.Business, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("page businesses: %w", err)
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

func pageLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}

// Counts aggregates enrichment coverage.
func (r *PGXBusinessesRepository) Counts(ctx context.Context) (BusinessCounts, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE ` + scrapedPredicate + `),
            COUNT(*) FILTER (WHERE details_status = 'completed'),
            COUNT(*) FILTER (WHERE details_status = 'failed'),
            COUNT(*) FILTER (WHERE presence_status = 'completed'),
            COUNT(*) FILTER (WHERE presence_status = 'failed'),
            COUNT(*) FILTER (WHERE has_public_presence),
            COUNT(*) FILTER (WHERE schema_version < $1)
        FROM businesses
    `
	var c BusinessCounts
	err := r.pool.QueryRow(ctx, query, entity.SchemaVersion).Scan(
		&c.Total,
		&c.Scraped,
		&c.DetailsCompleted,
		&c.DetailsFailed,
		&c.PresenceCompleted,
		&c.PresenceFailed,
		&c.WithPresence,
		&c.Legacy,
	)
	if err != nil {
		return BusinessCounts{}, fmt.Errorf("count businesses: %w", err)
	}
	return c, nil
}

func scanBusinesses(rows pgx.Rows) ([]entity.Business, error) {
	var businesses []entity.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return businesses, nil
}

func scanBusiness(row pgx.Row) (entity.Business, error) {
	var (
		b                 entity.Business
		corporateID       sql.NullString
		description       sql.NullString
		category          sql.NullString
		address           []byte
		phone             sql.NullString
		mobile            sql.NullString
		email             sql.NullString
		website           sql.NullString
		contactPerson     sql.NullString
		memberClass       sql.NullString
		designation       sql.NullString
		hours             []byte
		hasPublicPresence sql.NullBool
		socialMedia       []byte
		searchResult      []byte
		detectedCategory  sql.NullString
		detailsStatus     string
		detailsAttemptAt  sql.NullTime
		presenceStatus    string
		presenceAttemptAt sql.NullTime
		raw               []byte
	)

	err := row.Scan(
		&b.ID,
		&b.Seq,
		&corporateID,
		&b.Name,
		&description,
		&category,
		&address,
		&phone,
		&mobile,
		&email,
		&website,
		&contactPerson,
		&memberClass,
		&designation,
		&hours,
		&b.Images,
		&b.Logo,
		&b.CoverPhoto,
		&b.Rating,
		&b.Links,
		&hasPublicPresence,
		&socialMedia,
		&searchResult,
		&detectedCategory,
		&detailsStatus,
		&detailsAttemptAt,
		&b.Details.LastError,
		&b.Details.ErrorClass,
		&presenceStatus,
		&presenceAttemptAt,
		&b.Presence.LastError,
		&b.Presence.ErrorClass,
		&b.SchemaVersion,
		&raw,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Business{}, err
		}
		return entity.Business{}, fmt.Errorf("scan business: %w", err)
	}

	b.CorporateID = fieldFromNull(corporateID)
	b.Description = fieldFromNull(description)
	b.Category = fieldFromNull(category)
	b.Phone = fieldFromNull(phone)
	b.Mobile = fieldFromNull(mobile)
	b.Email = fieldFromNull(email)
	b.Website = fieldFromNull(website)
	b.ContactPerson = fieldFromNull(contactPerson)
	b.MemberClass = fieldFromNull(memberClass)
	b.Designation = fieldFromNull(designation)
	b.DetectedCategory = fieldFromNull(detectedCategory)

	if err := decodeJSON("address", address, &b.Address); err != nil {
		return entity.Business{}, err
	}
	if err := decodeJSON("hours", hours, &b.Hours); err != nil {
		return entity.Business{}, err
	}
	if err := decodeJSON("social_media", socialMedia, &b.SocialMedia); err != nil {
		return entity.Business{}, err
	}
	if err := decodeJSON("search_result", searchResult, &b.SearchResult); err != nil {
		return entity.Business{}, err
	}
	if hasPublicPresence.Valid {
		present := hasPublicPresence.Bool
		b.HasPublicPresence = &present
	}
	if len(b.Hours) == 0 {
		b.Hours = nil
	}

	b.Details.Status = entity.EnrichmentStatus(detailsStatus)
	b.Details.LastAttemptAt = nullTimeToPtr(detailsAttemptAt)
	b.Presence.Status = entity.EnrichmentStatus(presenceStatus)
	b.Presence.LastAttemptAt = nullTimeToPtr(presenceAttemptAt)

	if len(raw) > 0 {
		b.Raw = append([]byte(nil), raw...)
	}
	return b, nil
}
