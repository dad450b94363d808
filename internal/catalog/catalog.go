// Package catalog records surveyed LAS files in a SQLite database whose
// schema is managed by embedded golang-migrate migrations.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/laser/internal/survey"
	"github.com/banshee-data/laser/internal/version"
	"github.com/banshee-data/laser/las"
)

// ErrNotFound is returned when no survey has the requested id.
var ErrNotFound = errors.New("survey not found")

// Catalog is a handle to the survey database.
type Catalog struct {
	*sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the catalog at path and migrates it to the
// latest schema. busyTimeout bounds how long a writer waits on a locked
// database.
func Open(path string, busyTimeout time.Duration) (*Catalog, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c := &Catalog{DB: db, now: time.Now}
	if err := c.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	Logf("[catalog] opened %s", path)
	return c, nil
}

// Survey is one catalog row.
type Survey struct {
	ID            uuid.UUID
	Path          string
	Size          int64
	ProjectID     uuid.UUID
	Version       string
	PointFormat   uint8
	PointSize     uint16
	PointCount    uint64
	PointsDecoded uint64
	SystemID      string
	Software      string
	CreationDay   uint16
	CreationYear  uint16
	Min, Max      [3]float64
	MeanZ         float64
	StdDevZ       float64
	OutOfBounds   uint64
	ToolVersion   string
	CreatedAt     time.Time

	// Classes holds the non-zero class counts.
	Classes map[las.Classification]uint64
}

// InsertSurvey stores a survey report and returns its new id. Bounds are
// the decoded extents, not the header's declared ones.
func (c *Catalog) InsertSurvey(ctx context.Context, r *survey.Report) (uuid.UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	h := r.Header
	_, err = tx.ExecContext(ctx, `INSERT INTO surveys (
			survey_id, path, size_bytes, project_id, las_version, point_format, point_size,
			point_count, points_decoded, system_id, software, creation_day, creation_year,
			min_x, min_y, min_z, max_x, max_y, max_z, mean_z, stddev_z, out_of_bounds,
			tool_version, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), r.Path, r.Size, h.ProjectID.String(), h.Version(), h.PointFormat, h.PointSize,
		int64(r.Info.PointCount), int64(r.Points), h.SystemID, h.Software, h.CreationDay, h.CreationYear,
		r.X.Min, r.Y.Min, r.Z.Min, r.X.Max, r.Y.Max, r.Z.Max, r.Z.Mean, r.Z.StdDev, int64(r.OutOfBounds),
		version.String(), c.now().UnixNano(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert survey: %w", err)
	}

	for class, n := range r.Classes {
		if n == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO survey_classes (survey_id, class, point_count) VALUES (?, ?, ?)`,
			id.String(), class, int64(n)); err != nil {
			return uuid.Nil, fmt.Errorf("insert class %d: %w", class, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

const surveyColumns = `survey_id, path, size_bytes, project_id, las_version, point_format, point_size,
	point_count, points_decoded, system_id, software, creation_day, creation_year,
	min_x, min_y, min_z, max_x, max_y, max_z, mean_z, stddev_z, out_of_bounds,
	tool_version, created_unix_nanos`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row rowScanner) (*Survey, error) {
	var (
		s                         Survey
		id, project               string
		count, decoded, oob, nano int64
	)
	err := row.Scan(&id, &s.Path, &s.Size, &project, &s.Version, &s.PointFormat, &s.PointSize,
		&count, &decoded, &s.SystemID, &s.Software, &s.CreationDay, &s.CreationYear,
		&s.Min[0], &s.Min[1], &s.Min[2], &s.Max[0], &s.Max[1], &s.Max[2], &s.MeanZ, &s.StdDevZ, &oob,
		&s.ToolVersion, &nano)
	if err != nil {
		return nil, err
	}
	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("survey id %q: %w", id, err)
	}
	if s.ProjectID, err = uuid.Parse(project); err != nil {
		return nil, fmt.Errorf("project id %q: %w", project, err)
	}
	s.PointCount, s.PointsDecoded, s.OutOfBounds = uint64(count), uint64(decoded), uint64(oob)
	s.CreatedAt = time.Unix(0, nano).UTC()
	return &s, nil
}

// GetSurvey returns the survey with the given id, or ErrNotFound.
func (c *Catalog) GetSurvey(ctx context.Context, id uuid.UUID) (*Survey, error) {
	row := c.QueryRowContext(ctx, `SELECT `+surveyColumns+` FROM surveys WHERE survey_id = ?`, id.String())
	s, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if s.Classes, err = c.classes(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSurveys returns every survey, newest first. When path is non-empty
// only surveys of that file are listed. Class counts are not loaded.
func (c *Catalog) ListSurveys(ctx context.Context, path string) ([]*Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys`
	var args []any
	if path != "" {
		query += ` WHERE path = ?`
		args = append(args, path)
	}
	query += ` ORDER BY created_unix_nanos DESC, survey_id`

	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Survey
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSurvey removes a survey and its class counts.
func (c *Catalog) DeleteSurvey(ctx context.Context, id uuid.UUID) error {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM survey_classes WHERE survey_id = ?`, id.String()); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM surveys WHERE survey_id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

func (c *Catalog) classes(ctx context.Context, id uuid.UUID) (map[las.Classification]uint64, error) {
	rows, err := c.QueryContext(ctx,
		`SELECT class, point_count FROM survey_classes WHERE survey_id = ? ORDER BY class`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[las.Classification]uint64)
	for rows.Next() {
		var class uint8
		var n int64
		if err := rows.Scan(&class, &n); err != nil {
			return nil, err
		}
		out[las.Classification(class)] = uint64(n)
	}
	return out, rows.Err()
}
