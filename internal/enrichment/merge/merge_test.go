package merge

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
)

var attemptAt = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func success(target entity.EnrichmentTarget) enrichment.Outcome {
	return enrichment.Outcome{Target: target, At: attemptAt}
}

func failure(target entity.EnrichmentTarget, err error) enrichment.Outcome {
	return enrichment.Outcome{Target: target, Err: err, At: attemptAt}
}

func baseRecord() entity.Business {
	present := true
	return entity.Business{
		ID:            uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"),
		Seq:           7,
		CorporateID:   entity.Known("SC-1042"),
		Name:          "Acme Traders",
		Category:      entity.Unknown(),
		Address:       entity.UnknownAddress(),
		Phone:         entity.Known("+92523550000"),
		Website:       entity.Known("https://scci.com.pk/member-detail/1042"),
		ContactPerson: entity.Unknown(),
		Links:         []string{"https://acme.com"},
		SocialMedia:   entity.SocialMedia{Facebook: "https://facebook.com/acme"},

		HasPublicPresence: &present,
	}
}

func detailPartial() enrichment.Partial {
	return enrichment.Partial{
		ContactPerson: entity.Known("Jane Doe"),
		Category:      entity.Known("Surgical Instruments"),
		Phone:         entity.Known("+92523559999"),
		Mobile:        entity.Unknown(),
		Address:       entity.Known("12 Mall Road, Sialkot"),
		MemberClass:   entity.Known("Associate"),
	}
}

func searchPartial(links ...string) enrichment.Partial {
	present := len(links) > 0
	p := enrichment.Partial{Links: links, HasPublicPresence: &present, FromSearch: true}
	if present {
		p.SearchResult = &entity.SearchResult{URL: links[0], Title: "Acme"}
	}
	return p
}

func TestMergeIsIdempotent(t *testing.T) {
	cases := map[string]struct {
		partial enrichment.Partial
		outcome enrichment.Outcome
	}{
		"details success": {detailPartial(), success(entity.TargetDetails)},
		"presence success": {
			searchPartial("https://instagram.com/acme", "https://acme.com"),
			success(entity.TargetPresence),
		},
		"failure": {enrichment.Partial{}, failure(entity.TargetDetails, &enrichment.TransportError{Kind: enrichment.Timeout})},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			once, _ := Merge(baseRecord(), tc.partial, tc.outcome)
			twice, changed := Merge(once, tc.partial, tc.outcome)

			assert.False(t, changed)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Fatalf("second merge changed the record (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestMergePlaceholderNeverWins(t *testing.T) {
	merged, changed := Merge(baseRecord(), detailPartial(), success(entity.TargetDetails))

	require.True(t, changed)
	assert.True(t, merged.ContactPerson.Equal(entity.Known("Jane Doe")))
	assert.True(t, merged.Category.Equal(entity.Known("Surgical Instruments")))
	assert.Equal(t, entity.UnstructuredAddress("12 Mall Road, Sialkot"), merged.Address)
	assert.True(t, merged.MemberClass.Equal(entity.Known("Associate")))
}

func TestMergeKeepsKnownValues(t *testing.T) {
	merged, _ := Merge(baseRecord(), detailPartial(), success(entity.TargetDetails))

	assert.True(t, merged.Phone.Equal(entity.Known("+92523550000")), "known phone must not be overwritten")
	assert.True(t, merged.Mobile.IsAbsent(), "placeholder in the partial must not replace anything")
}

func TestMergeNoRegression(t *testing.T) {
	existing := baseRecord()
	existing.ContactPerson = entity.Known("John Roe")

	merged, changed := Merge(existing, enrichment.Partial{}, success(entity.TargetDetails))

	assert.False(t, changed)
	ignoreState := cmp.FilterPath(func(p cmp.Path) bool {
		return p.String() == "Details"
	}, cmp.Ignore())
	if diff := cmp.Diff(existing, merged, ignoreState); diff != "" {
		t.Fatalf("empty partial changed data fields (-existing +merged):\n%s", diff)
	}
}

func TestMergeEmptyLinksKeepPriorDiscovery(t *testing.T) {
	existing := baseRecord()

	merged, changed := Merge(existing, searchPartial(), success(entity.TargetPresence))

	assert.False(t, changed)
	assert.Equal(t, []string{"https://acme.com"}, merged.Links)
	require.NotNil(t, merged.HasPublicPresence)
	assert.True(t, *merged.HasPublicPresence)
}

func TestMergeReplacesLinksWholesale(t *testing.T) {
	partial := searchPartial("https://instagram.com/acme", "https://acme.com")
	partial.SocialMedia = entity.SocialMedia{Instagram: "https://instagram.com/acme", Facebook: "https://facebook.com/other"}

	merged, changed := Merge(baseRecord(), partial, success(entity.TargetPresence))

	require.True(t, changed)
	assert.Equal(t, []string{"https://instagram.com/acme", "https://acme.com"}, merged.Links)
	assert.Equal(t, "https://instagram.com/acme", merged.SocialMedia.Instagram)
	assert.Equal(t, "https://facebook.com/acme", merged.SocialMedia.Facebook)
	assert.Equal(t, "https://instagram.com/acme", merged.SearchResult.URL)

	partial.Links[0] = "https://mutated.example"
	assert.Equal(t, "https://instagram.com/acme", merged.Links[0], "merged links must not alias the partial")
}

func TestMergeStatusTransitions(t *testing.T) {
	timeout := &enrichment.TransportError{Kind: enrichment.Timeout, URL: "https://scci.com.pk"}

	t.Run("success with no fields completes", func(t *testing.T) {
		merged, _ := Merge(baseRecord(), enrichment.Partial{}, success(entity.TargetDetails))
		assert.Equal(t, entity.StatusCompleted, merged.Details.Status)
		assert.Equal(t, attemptAt, *merged.Details.LastAttemptAt)
		assert.Equal(t, entity.EnrichmentState{}, merged.Presence)
	})

	t.Run("pending to failed", func(t *testing.T) {
		merged, changed := Merge(baseRecord(), enrichment.Partial{}, failure(entity.TargetDetails, timeout))
		assert.False(t, changed)
		assert.Equal(t, entity.StatusFailed, merged.Details.Status)
		assert.Equal(t, string(enrichment.ClassTimeout), merged.Details.ErrorClass)
		assert.Contains(t, merged.Details.LastError, "timeout")
		assert.Equal(t, attemptAt, *merged.Details.LastAttemptAt)
	})

	t.Run("failed to completed clears the error", func(t *testing.T) {
		existing := baseRecord()
		existing.Details = entity.EnrichmentState{Status: entity.StatusFailed, LastError: "boom", ErrorClass: "network"}
		merged, _ := Merge(existing, detailPartial(), success(entity.TargetDetails))
		assert.Equal(t, entity.EnrichmentState{Status: entity.StatusCompleted, LastAttemptAt: merged.Details.LastAttemptAt}, merged.Details)
	})

	t.Run("completed is never demoted", func(t *testing.T) {
		existing := baseRecord()
		existing.Presence = entity.EnrichmentState{Status: entity.StatusCompleted}
		merged, _ := Merge(existing, enrichment.Partial{}, failure(entity.TargetPresence, errors.New("boom")))
		assert.Equal(t, entity.StatusCompleted, merged.Presence.Status)
		assert.Equal(t, "boom", merged.Presence.LastError)
		assert.Equal(t, string(enrichment.ClassUnknown), merged.Presence.ErrorClass)
	})
}

func TestMergeDoesNotMutateExisting(t *testing.T) {
	existing := baseRecord()
	snapshot := baseRecord()

	_, _ = Merge(existing, searchPartial("https://instagram.com/acme"), success(entity.TargetPresence))

	if diff := cmp.Diff(snapshot, existing); diff != "" {
		t.Fatalf("existing record was mutated:\n%s", diff)
	}
}
