package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/laser/internal/survey"
	"github.com/banshee-data/laser/internal/testutil"
	"github.com/banshee-data/laser/internal/version"
	"github.com/banshee-data/laser/las"
)

func init() {
	SetLogger(nil)
}

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testReport(t *testing.T, path string) *survey.Report {
	t.Helper()
	pts := make([]testutil.LASPoint, 20)
	for i := range pts {
		pts[i] = testutil.LASPoint{
			X:              int32(i * 100),
			Y:              int32(i * 50),
			Z:              int32(1000 + i),
			Flags:          1 | 1<<3,
			Classification: uint8(las.ClassGround),
		}
		if i%4 == 0 {
			pts[i].Classification = uint8(las.ClassBuilding)
		}
	}
	image := testutil.LASFile{
		GUID:         [16]byte{0x78, 0x56, 0x34, 0x12, 0xbc, 0x9a, 0xf0, 0xde, 1, 2, 3, 4, 5, 6, 7, 8},
		SystemID:     "ALS70",
		Software:     "laser test",
		CreationDay:  200,
		CreationYear: 2026,
		PointFormat:  1,
		Max:          [3]float64{19, 9.5, 10.19},
		Min:          [3]float64{0, 0, 10},
		Points:       pts,
	}.Bytes()

	r, err := survey.SurveyBytes(context.Background(), image, nil)
	require.NoError(t, err)
	r.Path = path
	return r
}

func TestOpen_MigratesToLatest(t *testing.T) {
	c := openTestCatalog(t)

	v, dirty, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)

	// Reopening an up-to-date catalog is a no-op.
	path := filepath.Join(t.TempDir(), "again.db")
	c1, err := Open(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, c1.Close())
	c2, err := Open(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, c2.Close())
}

func TestMigrateDown(t *testing.T) {
	c := openTestCatalog(t)

	require.NoError(t, c.MigrateDown())
	v, _, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	var n int
	err = c.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='survey_classes'`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.MigrateUp())
	v, _, err = c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestInsertAndGetSurvey(t *testing.T) {
	c := openTestCatalog(t)
	fixed := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	r := testReport(t, "/data/tile_001.las")
	id, err := c.InsertSurvey(context.Background(), r)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	got, err := c.GetSurvey(context.Background(), id)
	require.NoError(t, err)

	want := &Survey{
		ID:            id,
		Path:          "/data/tile_001.las",
		Size:          r.Size,
		ProjectID:     uuid.MustParse("12345678-9abc-def0-0102-030405060708"),
		Version:       "1.2",
		PointFormat:   1,
		PointSize:     28,
		PointCount:    20,
		PointsDecoded: 20,
		SystemID:      "ALS70",
		Software:      "laser test",
		CreationDay:   200,
		CreationYear:  2026,
		Min:           [3]float64{r.X.Min, r.Y.Min, r.Z.Min},
		Max:           [3]float64{r.X.Max, r.Y.Max, r.Z.Max},
		MeanZ:         r.Z.Mean,
		StdDevZ:       r.Z.StdDev,
		OutOfBounds:   r.OutOfBounds,
		ToolVersion:   version.String(),
		CreatedAt:     fixed,
		Classes: map[las.Classification]uint64{
			las.ClassGround:   15,
			las.ClassBuilding: 5,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetSurvey mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSurvey_NotFound(t *testing.T) {
	c := openTestCatalog(t)
	_, err := c.GetSurvey(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSurveys(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, path := range []string{"/a.las", "/b.las", "/a.las"} {
		at := base.Add(time.Duration(i) * time.Hour)
		c.now = func() time.Time { return at }
		id, err := c.InsertSurvey(ctx, testReport(t, path))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all, err := c.ListSurveys(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})
	assert.Nil(t, all[0].Classes)

	onlyA, err := c.ListSurveys(ctx, "/a.las")
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, ids[2], onlyA[0].ID)
	assert.Equal(t, ids[0], onlyA[1].ID)

	none, err := c.ListSurveys(ctx, "/missing.las")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteSurvey(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	id, err := c.InsertSurvey(ctx, testReport(t, "/x.las"))
	require.NoError(t, err)

	require.NoError(t, c.DeleteSurvey(ctx, id))
	_, err = c.GetSurvey(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	var n int
	require.NoError(t, c.QueryRow(`SELECT COUNT(*) FROM survey_classes`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, c.DeleteSurvey(ctx, id), ErrNotFound)
}

func TestSetLogger(t *testing.T) {
	var lines []string
	SetLogger(func(format string, v ...interface{}) { lines = append(lines, format) })
	t.Cleanup(func() { SetLogger(nil) })

	openTestCatalog(t)
	assert.Contains(t, lines, "[catalog] opened %s")
}
