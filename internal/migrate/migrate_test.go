package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/business-directory/api/internal/entity"
)

func legacy(seq int64, name, raw string) entity.Business {
	return entity.Business{ID: uuid.New(), Seq: seq, Name: name, SchemaVersion: 1, Raw: []byte(raw)}
}

func TestCanonicalizeTablescraper(t *testing.T) {
	rec := legacy(1, legacyUnknownName, `{
		"tablescraper-selected-row": "SCCI-42",
		"tablescraper-selected-row 2": "Acme Traders",
		"tablescraper-selected-row 3": "021-1234567",
		"tablescraper-selected-row href": "https://scci.com.pk/member-detail?id=42"
	}`)

	got, shape, err := Canonicalize(rec)
	require.NoError(t, err)
	assert.Equal(t, ShapeTablescraper, shape)
	assert.Equal(t, "Acme Traders", got.Name)
	assert.Equal(t, "SCCI-42", got.CorporateID.String())
	assert.Equal(t, "021-1234567", got.Phone.String())
	assert.Equal(t, "https://scci.com.pk/member-detail?id=42", got.Website.String())
	assert.Equal(t, entity.SchemaVersion, got.SchemaVersion)
}

func TestCanonicalizeTablescraperMissingColumns(t *testing.T) {
	rec := legacy(1, "", `{"tablescraper-selected-row 2": "Beta Mills"}`)

	got, _, err := Canonicalize(rec)
	require.NoError(t, err)
	assert.Equal(t, "Beta Mills", got.Name)
	assert.True(t, got.CorporateID.IsUnknown())
	assert.True(t, got.Phone.IsUnknown())
	assert.True(t, got.Website.IsUnknown())
}

func TestCanonicalizeKeepsKnownValues(t *testing.T) {
	rec := legacy(1, "Acme", `{"tablescraper-selected-row 3": "000"}`)
	rec.Phone = entity.Known("+92 21 1234567")

	got, _, err := Canonicalize(rec)
	require.NoError(t, err)
	assert.Equal(t, "+92 21 1234567", got.Phone.String())
}

func TestCanonicalizeFlatAddress(t *testing.T) {
	rec := legacy(1, "Acme", `{"name":"Acme","address":"12 Main Road","city":"Karachi","country":"Pakistan"}`)
	rec.Address = entity.UnstructuredAddress("12 Main Road")

	got, shape, err := Canonicalize(rec)
	require.NoError(t, err)
	assert.Equal(t, ShapeFlatAddress, shape)
	assert.Equal(t, entity.AddressStructured, got.Address.Kind)
	assert.Equal(t, entity.AddressParts{Street: "12 Main Road", City: "Karachi", Country: "Pakistan"}, got.Address.Parts)
}

func TestCanonicalizeStructured(t *testing.T) {
	rec := legacy(1, "Acme", `{"name":"Acme"}`)
	rec.Address = entity.StructuredAddress(entity.AddressParts{City: "Lahore"})

	got, shape, err := Canonicalize(rec)
	require.NoError(t, err)
	assert.Equal(t, ShapeStructured, shape)
	assert.Equal(t, rec.Address, got.Address)
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	rec := legacy(1, legacyUnknownName, `{
		"tablescraper-selected-row 2": "Acme Traders",
		"city": "Karachi"
	}`)

	once, _, err := Canonicalize(rec)
	require.NoError(t, err)
	twice, _, err := Canonicalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCanonicalizeUnrecognised(t *testing.T) {
	for name, rec := range map[string]entity.Business{
		"array raw": legacy(1, "Acme", `["Acme"]`),
		"no name":   legacy(1, "", `{"phone":"021"}`),
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := Canonicalize(rec)
			assert.ErrorIs(t, err, ErrUnrecognised)
		})
	}
}

type memoryStore struct {
	records []entity.Business
	updated []entity.Business
	failOn  uuid.UUID
}

func (m *memoryStore) ListLegacy(_ context.Context, afterSeq int64, limit int) ([]entity.Business, error) {
	var page []entity.Business
	for _, r := range m.records {
		if r.Seq > afterSeq && r.SchemaVersion < entity.SchemaVersion {
			page = append(page, r)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (m *memoryStore) UpdateByID(_ context.Context, b entity.Business) (entity.Business, error) {
	if b.ID == m.failOn {
		return entity.Business{}, errors.New("connection reset")
	}
	for i := range m.records {
		if m.records[i].ID == b.ID {
			m.records[i] = b
		}
	}
	m.updated = append(m.updated, b)
	return b, nil
}

func TestRun(t *testing.T) {
	store := &memoryStore{records: []entity.Business{
		legacy(1, legacyUnknownName, `{"tablescraper-selected-row 2":"Acme"}`),
		legacy(2, "", `{"phone":"021"}`),
		legacy(3, "Beta", `{"name":"Beta"}`),
	}}
	log, hook := test.NewNullLogger()

	report, err := Run(context.Background(), store, log, Options{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 2, report.Migrated)
	assert.Equal(t, 1, report.Unrecognised)
	require.Len(t, report.Problems, 1)
	assert.Equal(t, store.records[1].ID, report.Problems[0].ID)
	assert.Len(t, store.updated, 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	again, err := Run(context.Background(), store, log, Options{PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Migrated)
	assert.Equal(t, 1, again.Unrecognised)
}

func TestRunDryRun(t *testing.T) {
	store := &memoryStore{records: []entity.Business{legacy(1, "Acme", `{}`)}}

	report, err := Run(context.Background(), store, logrus.New(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Migrated)
	assert.Empty(t, store.updated)
}

func TestRunStopsOnStorageError(t *testing.T) {
	rec := legacy(1, "Acme", `{}`)
	store := &memoryStore{records: []entity.Business{rec}, failOn: rec.ID}

	_, err := Run(context.Background(), store, logrus.New(), Options{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &memoryStore{}, logrus.New(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
