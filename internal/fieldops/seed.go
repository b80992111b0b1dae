package fieldops

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldline/ops-backend/internal/compliance"
	"github.com/fieldline/ops-backend/internal/utils"
)

// SeedNamespace derives stable ids for seeded rows so re-running a seed
// updates rows instead of duplicating them.
var SeedNamespace = uuid.MustParse("6f1c2a8e-3d4b-5e6f-8a9b-0c1d2e3f4a5b")

func SeedJobID(key string) uuid.UUID {
	return uuid.NewSHA1(SeedNamespace, []byte("job:"+canonKey(key)))
}

func SeedPermitID(key string) uuid.UUID {
	return uuid.NewSHA1(SeedNamespace, []byte("permit:"+canonKey(key)))
}

func canonKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

// SeedData is the parsed content of a seed CSV.
type SeedData struct {
	Jobs    []Job
	Permits []Permit
}

// CSV contract
// kind,key,job_key,name,status,site_lat,site_lng,radius_meters,date
//
// kind=job: date is the start date, job_key is ignored.
// kind=permit: job_key names the owning job row, date is the expiry, the site
// columns are ignored.
var seedColumns = []string{"kind", "key", "job_key", "name", "status", "site_lat", "site_lng", "radius_meters", "date"}

// ParseSeedCSV reads jobs and permits from r. Row numbers in errors count the
// header as row 1.
func ParseSeedCSV(r io.Reader) (SeedData, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		return SeedData{}, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	for _, k := range seedColumns {
		if _, ok := idx[k]; !ok {
			return SeedData{}, fmt.Errorf("missing required column: %s", k)
		}
	}

	var data SeedData
	jobKeys := map[string]struct{}{}
	permitKeys := map[string]struct{}{}
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return SeedData{}, fmt.Errorf("csv read: %w", err)
		}
		col := func(name string) string { return strings.TrimSpace(rec[idx[name]]) }

		key := col("key")
		if key == "" {
			return SeedData{}, fmt.Errorf("row %d: key is empty", row)
		}
		date, err := optionalDate(col("date"))
		if err != nil {
			return SeedData{}, fmt.Errorf("row %d: %w", row, err)
		}

		switch utils.NormalizeStatus(col("kind")) {
		case "job":
			if _, dup := jobKeys[canonKey(key)]; dup {
				return SeedData{}, fmt.Errorf("row %d: duplicate job key %q", row, key)
			}
			jobKeys[canonKey(key)] = struct{}{}

			j := Job{ID: SeedJobID(key), Name: col("name"), Status: utils.NormalizeStatus(col("status")), StartDate: date}
			if j.Status == "" {
				j.Status = "lead"
			}
			if j.SiteLat, err = optionalFloat(col("site_lat")); err != nil {
				return SeedData{}, fmt.Errorf("row %d: site_lat: %w", row, err)
			}
			if j.SiteLng, err = optionalFloat(col("site_lng")); err != nil {
				return SeedData{}, fmt.Errorf("row %d: site_lng: %w", row, err)
			}
			if j.GeofenceRadiusMeters, err = optionalFloat(col("radius_meters")); err != nil {
				return SeedData{}, fmt.Errorf("row %d: radius_meters: %w", row, err)
			}
			if (j.SiteLat == nil) != (j.SiteLng == nil) {
				return SeedData{}, fmt.Errorf("row %d: site_lat and site_lng must be set together", row)
			}
			data.Jobs = append(data.Jobs, j)

		case "permit":
			if _, dup := permitKeys[canonKey(key)]; dup {
				return SeedData{}, fmt.Errorf("row %d: duplicate permit key %q", row, key)
			}
			permitKeys[canonKey(key)] = struct{}{}

			jobKey := col("job_key")
			if jobKey == "" {
				return SeedData{}, fmt.Errorf("row %d: permit needs a job_key", row)
			}
			status := compliance.ParseRecordStatus(col("status"))
			if status == "" {
				status = compliance.StatusRequired
			}
			data.Permits = append(data.Permits, Permit{
				ID:        SeedPermitID(key),
				JobID:     SeedJobID(jobKey),
				Name:      col("name"),
				Status:    string(status),
				ExpiresAt: date,
			})

		default:
			return SeedData{}, fmt.Errorf("row %d: unknown kind %q", row, col("kind"))
		}
	}

	for _, p := range data.Permits {
		if !hasJob(data.Jobs, p.JobID.String()) {
			return SeedData{}, fmt.Errorf("permit %q references a job not in the file", p.Name)
		}
	}
	return data, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t := compliance.ParseDate(s)
	if t == nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// Seed upserts the seed rows by id in one transaction.
func (s *GormStore) Seed(ctx context.Context, data SeedData) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(data.Jobs) > 0 {
			if err := tx.Omit("Permits").Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "status", "site_lat", "site_lng", "geofence_radius_meters", "start_date", "updated_at"}),
			}).Create(&data.Jobs).Error; err != nil {
				return fmt.Errorf("upsert jobs: %w", err)
			}
		}
		if len(data.Permits) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"job_id", "name", "status", "expires_at", "updated_at"}),
			}).Create(&data.Permits).Error; err != nil {
				return fmt.Errorf("upsert permits: %w", err)
			}
		}
		return nil
	})
}
