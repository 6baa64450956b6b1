package validation

import (
	"fmt"
	"strings"

	"docval/internal/documents"
	"docval/pkg/normalize"
)

// partyEntry is the normalized view of one party keyed by its tax identifier.
type partyEntry struct {
	name          string
	qualification string
	kind          documents.PartyKind
}

// partyIndex keeps parties by digit-only tax id together with first-insertion
// order so that emission order is deterministic.
type partyIndex struct {
	order   []string
	entries map[string]partyEntry
}

// indexParties drops parties whose identifier has no digits. A repeated
// identifier keeps its first position but the last entry's data.
func indexParties(parties []documents.Party) partyIndex {
	idx := partyIndex{entries: make(map[string]partyEntry, len(parties))}
	for _, p := range parties {
		id := p.NormalizedTaxID()
		if id == "" {
			continue
		}
		if _, seen := idx.entries[id]; !seen {
			idx.order = append(idx.order, id)
		}
		idx.entries[id] = partyEntry{
			name:          normalize.Text(p.NameOrCompanyName),
			qualification: normalize.Text(p.Qualification),
			kind:          documents.KindOfTaxID(id),
		}
	}
	return idx
}

// checkPartners reconciles the articles shareholders with the QSA partners of
// the CNPJ card.
func checkPartners(docs Documents) []Inconsistency {
	articles := indexParties(docs.Articles.Shareholders)
	card := indexParties(docs.CNPJCard.Partners)

	var out []Inconsistency
	out = append(out, reconcileArticlesParties(articles, card)...)
	out = append(out, reconcileCardParties(articles, card)...)
	return out
}

func reconcileArticlesParties(articles, card partyIndex) []Inconsistency {
	var out []Inconsistency
	for _, id := range articles.order {
		a := articles.entries[id]
		kind := string(a.kind)

		c, ok := card.entries[id]
		if !ok {
			out = append(out, Inconsistency{
				Field:    FieldPartners,
				Message:  fmt.Sprintf("%s não encontrado no cartão CNPJ.", strings.ToUpper(kind)),
				Severity: SeverityCritical,
				Values: map[string]string{
					SourceArticles: a.name,
					kind:           id,
				},
			})
			continue
		}

		if a.name != c.name {
			out = append(out, Inconsistency{
				Field:    FieldPartners,
				Message:  "Nome do sócio divergente entre documentos.",
				Severity: SeverityCritical,
				Values: map[string]string{
					SourceArticles: a.name,
					SourceCNPJCard: c.name,
					kind:           id,
				},
			})
		}
		if a.qualification != c.qualification {
			out = append(out, Inconsistency{
				Field:    FieldPartners,
				Message:  "Qualificação do sócio divergente entre documentos.",
				Severity: SeverityWarning,
				Values: map[string]string{
					SourceArticles: a.qualification,
					SourceCNPJCard: c.qualification,
					kind:           id,
				},
			})
		}
	}
	return out
}

func reconcileCardParties(articles, card partyIndex) []Inconsistency {
	var out []Inconsistency
	for _, id := range card.order {
		if _, ok := articles.entries[id]; ok {
			continue
		}
		c := card.entries[id]
		kind := string(c.kind)
		out = append(out, Inconsistency{
			Field:    FieldPartners,
			Message:  fmt.Sprintf("%s não encontrado no contrato social.", strings.ToUpper(kind)),
			Severity: SeverityCritical,
			Values: map[string]string{
				SourceCNPJCard: c.name,
				kind:           id,
			},
		})
	}
	return out
}
