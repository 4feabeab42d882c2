package zones

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ongkir/fare-service/internal/geo"
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS delivery_zones (
		name              TEXT PRIMARY KEY,
		position          INTEGER NOT NULL,
		city_keywords     TEXT[] NOT NULL DEFAULT '{}',
		district_keywords TEXT[] NOT NULL DEFAULT '{}',
		postal_prefixes   TEXT[] NOT NULL DEFAULT '{}',
		centroid_lat      DOUBLE PRECISION NOT NULL,
		centroid_lng      DOUBLE PRECISION NOT NULL,
		distance_class    TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS zone_rates (
		zone_name TEXT NOT NULL REFERENCES delivery_zones(name) ON DELETE CASCADE,
		service   TEXT NOT NULL,
		base      BIGINT NOT NULL DEFAULT 0,
		min_fare  BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (zone_name, service)
	);
`

// Store keeps the zone table in Postgres so operators can edit it without a
// redeploy. It is read once at startup.
type Store struct {
	db DB
}

// NewStore creates a store
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error creating zone tables: %w", err)
	}
	return nil
}

// Load returns the stored table in configuration order.
func (s *Store) Load(ctx context.Context) ([]DeliveryZone, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, city_keywords, district_keywords, postal_prefixes,
		       centroid_lat, centroid_lng, distance_class
		FROM delivery_zones
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying zones: %w", err)
	}

	var table []DeliveryZone
	index := make(map[string]int)
	for rows.Next() {
		var z DeliveryZone
		var class string
		var lat, lng float64
		if err := rows.Scan(&z.Name, &z.CityKeywords, &z.DistrictKeywords, &z.PostalPrefixes, &lat, &lng, &class); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning zone: %w", err)
		}
		z.Centroid = geo.Coordinate{Lat: lat, Lng: lng}
		z.DistanceClass = DistanceClass(class)
		index[z.Name] = len(table)
		table = append(table, z)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zones: %w", err)
	}

	rateRows, err := s.db.Query(ctx, `SELECT zone_name, service, base, min_fare FROM zone_rates ORDER BY zone_name, service`)
	if err != nil {
		return nil, fmt.Errorf("error querying zone rates: %w", err)
	}
	defer rateRows.Close()

	for rateRows.Next() {
		var zoneName, service string
		var r ZoneRate
		if err := rateRows.Scan(&zoneName, &service, &r.Base, &r.MinFare); err != nil {
			return nil, fmt.Errorf("error scanning zone rate: %w", err)
		}
		i, ok := index[zoneName]
		if !ok {
			continue
		}
		if table[i].Rates == nil {
			table[i].Rates = make(map[string]ZoneRate)
		}
		table[i].Rates[service] = r
	}
	if err := rateRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating zone rates: %w", err)
	}

	if err := Validate(table); err != nil {
		return nil, fmt.Errorf("stored zone table is invalid: %w", err)
	}
	return table, nil
}

// Save replaces the stored table with table in one transaction.
func (s *Store) Save(ctx context.Context, table []DeliveryZone) error {
	if err := Validate(table); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM delivery_zones`); err != nil {
		return fmt.Errorf("error clearing zones: %w", err)
	}

	batch := &pgx.Batch{}
	for i, z := range table {
		batch.Queue(`
			INSERT INTO delivery_zones (
				name, position, city_keywords, district_keywords, postal_prefixes,
				centroid_lat, centroid_lng, distance_class
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, z.Name, i, nonNil(z.CityKeywords), nonNil(z.DistrictKeywords), nonNil(z.PostalPrefixes),
			z.Centroid.Lat, z.Centroid.Lng, string(z.DistanceClass))
		for service, r := range z.Rates {
			batch.Queue(`INSERT INTO zone_rates (zone_name, service, base, min_fare) VALUES ($1, $2, $3, $4)`,
				z.Name, service, r.Base, r.MinFare)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("error inserting zones: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing zones: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
