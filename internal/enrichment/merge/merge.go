// Package merge reconciles a stored business with freshly extracted fields.
package merge

import (
	"slices"

	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
)

// Merge applies partial to existing and stamps the attempt outcome on the
// target's enrichment state. A known value only fills a field that is absent
// or holds the placeholder, so known data is never overwritten or erased.
// changed reports whether any data field differs from existing.
func Merge(existing entity.Business, partial enrichment.Partial, outcome enrichment.Outcome) (entity.Business, bool) {
	merged := existing
	merged.Links = slices.Clone(existing.Links)
	changed := false

	fill := func(dst *entity.Field, src entity.Field) {
		if !src.IsKnown() || dst.IsKnown() {
			return
		}
		*dst = src
		changed = true
	}

	fill(&merged.ContactPerson, partial.ContactPerson)
	fill(&merged.MemberClass, partial.MemberClass)
	fill(&merged.Designation, partial.Designation)
	fill(&merged.Category, partial.Category)
	fill(&merged.Phone, partial.Phone)
	fill(&merged.Mobile, partial.Mobile)
	fill(&merged.Email, partial.Email)
	fill(&merged.Website, partial.Website)
	fill(&merged.CorporateID, partial.MemberID)
	fill(&merged.DetectedCategory, partial.DetectedCategory)

	if name, ok := partial.CompanyName.Get(); ok && merged.Name == "" {
		merged.Name = name
		changed = true
	}

	if text, ok := partial.Address.Get(); ok && !merged.Address.IsKnown() {
		merged.Address = entity.UnstructuredAddress(text)
		changed = true
	}

	if len(partial.Links) > 0 && !slices.Equal(merged.Links, partial.Links) {
		merged.Links = slices.Clone(partial.Links)
		changed = true
	}

	for _, network := range entity.SocialNetworks {
		link := partial.SocialMedia.Get(network)
		if link != "" && merged.SocialMedia.Get(network) == "" {
			merged.SocialMedia.Set(network, link)
			changed = true
		}
	}

	if partial.SearchResult != nil && merged.SearchResult == nil {
		sr := *partial.SearchResult
		merged.SearchResult = &sr
		changed = true
	}

	if partial.FromSearch {
		present := len(merged.Links) > 0
		if merged.HasPublicPresence == nil || *merged.HasPublicPresence != present {
			changed = true
		}
		merged.HasPublicPresence = &present
	}

	stamp(merged.State(outcome.Target), outcome)
	return merged, changed
}

// stamp records the attempt. A failure never demotes a completed target.
func stamp(state *entity.EnrichmentState, outcome enrichment.Outcome) {
	at := outcome.At
	state.LastAttemptAt = &at

	if outcome.Succeeded() {
		state.Status = entity.StatusCompleted
		state.LastError = ""
		state.ErrorClass = ""
		return
	}

	state.LastError = outcome.Err.Error()
	state.ErrorClass = string(enrichment.Classify(outcome.Err))
	if state.Status != entity.StatusCompleted {
		state.Status = entity.StatusFailed
	}
}
