package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"kidsearch/internal/geo/models"
	"kidsearch/pkg/platform/sentinel"
	txcontext "kidsearch/pkg/platform/tx"
)

// PostgresStore persists the geo hierarchy in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed geo store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbSession interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session returns the context transaction when one is staged, so resolver
// reads observe this request's own uncommitted writes.
func (s *PostgresStore) session(ctx context.Context) dbSession {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// resolveQuery accumulates the conditional join chain. Each hierarchy level
// contributes a join stage only when the caller supplied a value for it, so
// a city without a region matches without one and a mismatched intermediate
// level nulls out everything below it instead of erroring.
type resolveQuery struct {
	columns []string
	joins   []string
	args    []any
}

func (rq *resolveQuery) arg(v any) string {
	rq.args = append(rq.args, v)
	return fmt.Sprintf("$%d", len(rq.args))
}

func (s *PostgresStore) Resolve(ctx context.Context, query *models.AddressQuery) (*models.ResolvedAddress, error) {
	rq := &resolveQuery{
		columns: []string{"c.id", "c.name"},
	}

	hasRegion := query.Region != nil && *query.Region != ""
	hasDistrict := hasRegion && query.District != nil && *query.District != ""
	hasCity := query.City != ""
	hasStreet := hasCity && query.Street != nil && *query.Street != ""
	hasLeaf := hasCity && (query.Building != nil || query.Adds != nil)

	if hasRegion {
		rq.columns = append(rq.columns, "r.id", "r.name", "r.country_id")
		rq.joins = append(rq.joins, fmt.Sprintf(
			"LEFT JOIN regions r ON r.country_id = c.id AND r.name = %s",
			rq.arg(*query.Region)))
	}
	if hasDistrict {
		rq.columns = append(rq.columns, "d.id", "d.name", "d.region_id")
		rq.joins = append(rq.joins, fmt.Sprintf(
			"LEFT JOIN districts d ON d.region_id = r.id AND d.name = %s",
			rq.arg(*query.District)))
	}
	if hasCity {
		rq.columns = append(rq.columns, "ci.id", "ci.name", "ci.country_id", "ci.region_id", "ci.district_id")
		join := fmt.Sprintf(
			"LEFT JOIN cities ci ON ci.country_id = c.id AND ci.name = %s",
			rq.arg(query.City))
		if hasRegion {
			join += " AND ci.region_id = r.id"
		}
		if hasDistrict {
			join += " AND ci.district_id = d.id"
		}
		rq.joins = append(rq.joins, join)
	}
	if hasStreet {
		rq.columns = append(rq.columns, "s.id", "s.name", "s.city_id")
		rq.joins = append(rq.joins, fmt.Sprintf(
			"LEFT JOIN streets s ON s.city_id = ci.id AND s.name = %s",
			rq.arg(*query.Street)))
	}
	if hasLeaf {
		rq.columns = append(rq.columns, "a.id", "a.city_id", "a.street_id", "a.building", "a.adds", "a.office")
		join := "LEFT JOIN addresses a ON a.city_id = ci.id"
		if hasStreet {
			join += " AND a.street_id = s.id"
		}
		join += fmt.Sprintf(
			" AND a.building IS NOT DISTINCT FROM %s AND a.adds IS NOT DISTINCT FROM %s AND a.office IS NOT DISTINCT FROM %s",
			rq.arg(nullString(query.Building)), rq.arg(nullString(query.Adds)), rq.arg(nullString(query.Office)))
		rq.joins = append(rq.joins, join)
	}

	stmt := fmt.Sprintf(
		"SELECT %s FROM countries c %s WHERE c.name = %s LIMIT 1",
		strings.Join(rq.columns, ", "),
		strings.Join(rq.joins, " "),
		rq.arg(query.Country),
	)

	var (
		country                         models.Country
		regionID, districtID            sql.NullInt64
		regionName, districtName        sql.NullString
		regionCountryID, districtRegID  sql.NullInt64
		cityID, cityCountryID           sql.NullInt64
		cityRegionID, cityDistrictID    sql.NullInt64
		cityName                        sql.NullString
		streetID, streetCityID          sql.NullInt64
		streetName                      sql.NullString
		addrID, addrCityID, addrStrID   sql.NullInt64
		addrBuilding, addrAdds, addrOff sql.NullString
	)

	dest := []any{&country.ID, &country.Name}
	if hasRegion {
		dest = append(dest, &regionID, &regionName, &regionCountryID)
	}
	if hasDistrict {
		dest = append(dest, &districtID, &districtName, &districtRegID)
	}
	if hasCity {
		dest = append(dest, &cityID, &cityName, &cityCountryID, &cityRegionID, &cityDistrictID)
	}
	if hasStreet {
		dest = append(dest, &streetID, &streetName, &streetCityID)
	}
	if hasLeaf {
		dest = append(dest, &addrID, &addrCityID, &addrStrID, &addrBuilding, &addrAdds, &addrOff)
	}

	err := s.session(ctx).QueryRowContext(ctx, stmt, rq.args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.ResolvedAddress{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve address: %w", err)
	}

	resolved := &models.ResolvedAddress{Country: &country}
	if regionID.Valid {
		resolved.Region = &models.Region{
			ID:        regionID.Int64,
			Name:      regionName.String,
			CountryID: nullInt(regionCountryID),
		}
	}
	if districtID.Valid {
		resolved.District = &models.District{
			ID:       districtID.Int64,
			Name:     districtName.String,
			RegionID: nullInt(districtRegID),
		}
	}
	if cityID.Valid {
		resolved.City = &models.City{
			ID:         cityID.Int64,
			Name:       cityName.String,
			CountryID:  cityCountryID.Int64,
			RegionID:   nullInt(cityRegionID),
			DistrictID: nullInt(cityDistrictID),
		}
	}
	if streetID.Valid {
		resolved.Street = &models.Street{
			ID:     streetID.Int64,
			Name:   streetName.String,
			CityID: streetCityID.Int64,
		}
	}
	if addrID.Valid {
		resolved.Address = &models.Address{
			ID:       addrID.Int64,
			CityID:   addrCityID.Int64,
			StreetID: nullInt(addrStrID),
			Building: nullStr(addrBuilding),
			Adds:     nullStr(addrAdds),
			Office:   nullStr(addrOff),
		}
	}
	return resolved, nil
}

func (s *PostgresStore) ListCountries(ctx context.Context) ([]*models.Country, error) {
	rows, err := s.session(ctx).QueryContext(ctx, "SELECT id, name FROM countries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var countries []*models.Country
	for rows.Next() {
		c := &models.Country{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (s *PostgresStore) CountCountries(ctx context.Context) (int, error) {
	var count int
	err := s.session(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM countries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count countries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CreateCountry(ctx context.Context, country *models.Country) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO countries (name) VALUES ($1) RETURNING id",
		country.Name,
	).Scan(&country.ID)
	if err != nil {
		return wrapInsertErr("create country", err)
	}
	return nil
}

func (s *PostgresStore) CreateRegion(ctx context.Context, region *models.Region) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO regions (name, country_id) VALUES ($1, $2) RETURNING id",
		region.Name, nullInt64(region.CountryID),
	).Scan(&region.ID)
	if err != nil {
		return wrapInsertErr("create region", err)
	}
	return nil
}

func (s *PostgresStore) CreateDistrict(ctx context.Context, district *models.District) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO districts (name, region_id) VALUES ($1, $2) RETURNING id",
		district.Name, nullInt64(district.RegionID),
	).Scan(&district.ID)
	if err != nil {
		return wrapInsertErr("create district", err)
	}
	return nil
}

func (s *PostgresStore) CreateCity(ctx context.Context, city *models.City) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO cities (name, country_id, region_id, district_id) VALUES ($1, $2, $3, $4) RETURNING id",
		city.Name, city.CountryID, nullInt64(city.RegionID), nullInt64(city.DistrictID),
	).Scan(&city.ID)
	if err != nil {
		return wrapInsertErr("create city", err)
	}
	return nil
}

func (s *PostgresStore) CreateStreet(ctx context.Context, street *models.Street) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO streets (name, city_id) VALUES ($1, $2) RETURNING id",
		street.Name, street.CityID,
	).Scan(&street.ID)
	if err != nil {
		return wrapInsertErr("create street", err)
	}
	return nil
}

func (s *PostgresStore) CreateAddress(ctx context.Context, address *models.Address) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO addresses (city_id, street_id, building, adds, office) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		address.CityID, nullInt64(address.StreetID),
		nullString(address.Building), nullString(address.Adds), nullString(address.Office),
	).Scan(&address.ID)
	if err != nil {
		return wrapInsertErr("create address", err)
	}
	return nil
}

func (s *PostgresStore) CreatePhone(ctx context.Context, phone *models.Phone) error {
	err := s.session(ctx).QueryRowContext(ctx,
		"INSERT INTO phones (number, address_id) VALUES ($1, $2) RETURNING id",
		phone.Number, phone.AddressID,
	).Scan(&phone.ID)
	if err != nil {
		return wrapInsertErr("create phone", err)
	}
	return nil
}

func (s *PostgresStore) PhonesInUse(ctx context.Context, numbers []int64) ([]int64, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	rows, err := s.session(ctx).QueryContext(ctx,
		"SELECT DISTINCT number FROM phones WHERE number = ANY($1)",
		pq.Array(numbers),
	)
	if err != nil {
		return nil, fmt.Errorf("check phones in use: %w", err)
	}
	defer rows.Close()

	var inUse []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan phone number: %w", err)
		}
		inUse = append(inUse, n)
	}
	return inUse, rows.Err()
}

// wrapInsertErr maps unique violations onto the conflict sentinel so the
// engine can surface concurrent duplicate creation distinctly.
func wrapInsertErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil || *v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
