// Package documents defines the typed records extracted from the three
// supplier documents. JSON tags carry the Portuguese field names produced by
// the extraction prompts; nothing past the decoding boundary uses them.
package documents

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"docval/pkg/normalize"
)

// Kind identifies one of the three supported documents.
type Kind string

const (
	KindArticlesOfAssociation   Kind = "articles_of_association"
	KindCNPJCard                Kind = "cnpj_card"
	KindTaxClearanceCertificate Kind = "tax_clearance_certificate"
)

// Kinds lists the documents in pipeline order.
var Kinds = []Kind{KindArticlesOfAssociation, KindCNPJCard, KindTaxClearanceCertificate}

func (k Kind) String() string {
	return string(k)
}

// Address is shared by the articles head office and the CNPJ card.
type Address struct {
	Street     string  `json:"logradouro"`
	Number     string  `json:"numero"`
	Complement *string `json:"complemento"`
	District   string  `json:"bairro"`
	PostalCode string  `json:"cep"`
	City       string  `json:"cidade"`
	State      string  `json:"estado"`
}

// ComplementValue returns the complement or "" when absent.
func (a Address) ComplementValue() string {
	if a.Complement == nil {
		return ""
	}
	return *a.Complement
}

// addressFields lists the required address keys under prefix. The
// complement may be absent.
func addressFields(prefix string) []string {
	return withPrefix(prefix, "logradouro", "numero", "bairro", "cep", "cidade", "estado")
}

func partyFields(list string) []string {
	return withPrefix(list+"[]", "nome_ou_razao_social", "cpf_ou_cnpj", "qualificacao")
}

func withPrefix(prefix string, names ...string) []string {
	out := make([]string, 0, len(names)+1)
	out = append(out, prefix)
	for _, n := range names {
		out = append(out, prefix+"."+n)
	}
	return out
}

// PartyKind tells individuals (CPF) from organizations (CNPJ).
type PartyKind string

const (
	PartyKindIndividual   PartyKind = "cpf"
	PartyKindOrganization PartyKind = "cnpj"
)

// KindOfTaxID classifies a digit-only identifier. Exactly 11 digits is an
// individual; anything else is treated as an organization. No checksum is
// verified.
func KindOfTaxID(digits string) PartyKind {
	if utf8.RuneCountInString(digits) == 11 {
		return PartyKindIndividual
	}
	return PartyKindOrganization
}

// Party is a shareholder (articles) or a QSA partner (CNPJ card).
type Party struct {
	NameOrCompanyName string `json:"nome_ou_razao_social"`
	TaxID             string `json:"cpf_ou_cnpj"`
	Qualification     string `json:"qualificacao"`
}

// NormalizedTaxID returns the digit-only tax identifier.
func (p Party) NormalizedTaxID() string {
	return normalize.Digits(p.TaxID)
}

// Kind derives the party kind from the digit count of its tax identifier.
func (p Party) Kind() PartyKind {
	return KindOfTaxID(p.NormalizedTaxID())
}

type ShareCapital struct {
	TotalAmount       string `json:"valor_total"`
	Currency          string `json:"moeda"`
	TotalShares       string `json:"total_acoes"`
	NominalShareValue string `json:"valor_nominal_acao"`
}

type EntityInfo struct {
	CompanyName      string `json:"razao_social"`
	LegalNature      string `json:"natureza_juridica"`
	NIRE             string `json:"nire"`
	RegistrationDate Date   `json:"data_registro"`
	StartDate        Date   `json:"data_inicio"`
	Term             string `json:"prazo_duracao"`
}

// ArticlesOfAssociation is the contrato social.
type ArticlesOfAssociation struct {
	DocumentType    string       `json:"tipo_documento"`
	Entity          EntityInfo   `json:"informacoes_entidade"`
	HeadOffice      Address      `json:"sede"`
	BusinessPurpose []string     `json:"objeto_social"`
	ShareCapital    ShareCapital `json:"capital_social"`
	Shareholders    []Party      `json:"participacoes_societarias"`
}

// Validate rejects dates that decoded from a blank string.
func (a *ArticlesOfAssociation) Validate() error {
	var v violations
	v.requireDate("informacoes_entidade.data_registro", a.Entity.RegistrationDate)
	v.requireDate("informacoes_entidade.data_inicio", a.Entity.StartDate)
	return v.err(KindArticlesOfAssociation)
}

func (a *ArticlesOfAssociation) requiredFields() []string {
	fields := []string{"tipo_documento"}
	fields = append(fields, withPrefix("informacoes_entidade",
		"razao_social", "natureza_juridica", "nire", "data_registro", "data_inicio", "prazo_duracao")...)
	fields = append(fields, addressFields("sede")...)
	fields = append(fields, "objeto_social[]")
	fields = append(fields, withPrefix("capital_social",
		"valor_total", "moeda", "total_acoes", "valor_nominal_acao")...)
	return append(fields, partyFields("participacoes_societarias")...)
}

type Activity struct {
	Code        string `json:"codigo"`
	Description string `json:"descricao"`
}

type Activities struct {
	Main      Activity   `json:"atividade_principal"`
	Secondary []Activity `json:"atividades_secundarias"`
}

type TaxStatus struct {
	Status     string `json:"situacao"`
	StatusDate Date   `json:"data_situacao"`
}

type RegistrationInfo struct {
	TaxID        string  `json:"cnpj"`
	IsHeadOffice bool    `json:"is_matriz"`
	OpeningDate  Date    `json:"data_abertura"`
	CompanyName  string  `json:"razao_social"`
	TradeName    *string `json:"nome_fantasia"`
	Size         string  `json:"porte"`
	LegalNature  string  `json:"natureza_juridica"`
}

type EmissionInfo struct {
	IssuedAt    Timestamp `json:"emitido_em"`
	ControlCode string    `json:"codigo_controle"`
}

// CNPJCard is the cartão CNPJ issued by the federal revenue service.
type CNPJCard struct {
	DocumentType string           `json:"tipo_documento"`
	Registration RegistrationInfo `json:"informacoes_registro"`
	Activities   Activities       `json:"atividades"`
	Address      Address          `json:"endereco"`
	TaxStatus    TaxStatus        `json:"situacao_cadastral"`
	Partners     []Party          `json:"socios_qsa"`
	Emission     EmissionInfo     `json:"informacoes_emissao"`
}

// Validate rejects dates that decoded from a blank string.
func (c *CNPJCard) Validate() error {
	var v violations
	v.requireDate("informacoes_registro.data_abertura", c.Registration.OpeningDate)
	v.requireDate("situacao_cadastral.data_situacao", c.TaxStatus.StatusDate)
	if c.Emission.IssuedAt.IsZero() {
		v.add("informacoes_emissao.emitido_em")
	}
	return v.err(KindCNPJCard)
}

func (c *CNPJCard) requiredFields() []string {
	fields := []string{"tipo_documento"}
	fields = append(fields, withPrefix("informacoes_registro",
		"cnpj", "is_matriz", "data_abertura", "razao_social", "porte", "natureza_juridica")...)
	fields = append(fields, withPrefix("atividades.atividade_principal", "codigo", "descricao")...)
	fields = append(fields, withPrefix("atividades.atividades_secundarias[]", "codigo", "descricao")...)
	fields = append(fields, addressFields("endereco")...)
	fields = append(fields, withPrefix("situacao_cadastral", "situacao", "data_situacao")...)
	fields = append(fields, partyFields("socios_qsa")...)
	return append(fields, withPrefix("informacoes_emissao", "emitido_em", "codigo_controle")...)
}

// TaxClearanceCertificate is the federal certidão negativa de débitos.
type TaxClearanceCertificate struct {
	DocumentType   string `json:"tipo_documento"`
	CompanyName    string `json:"razao_social"`
	LegalNature    string `json:"natureza_juridica"`
	TaxID          string `json:"cnpj"`
	IssueDate      Date   `json:"data_emissao"`
	ExpirationDate Date   `json:"data_validade"`
	Status         string `json:"status"`
	ControlCode    string `json:"codigo_controle"`
}

// Validate rejects dates that decoded from a blank string.
func (t *TaxClearanceCertificate) Validate() error {
	var v violations
	v.requireDate("data_emissao", t.IssueDate)
	v.requireDate("data_validade", t.ExpirationDate)
	return v.err(KindTaxClearanceCertificate)
}

func (t *TaxClearanceCertificate) requiredFields() []string {
	return []string{
		"tipo_documento", "razao_social", "natureza_juridica", "cnpj",
		"data_emissao", "data_validade", "status", "codigo_controle",
	}
}

// Timestamp decodes RFC 3339 and the zone-less YYYY-MM-DDTHH:MM:SS form the
// extraction prompt asks for.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*t = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, strings.TrimSpace(*s)); err == nil {
			*t = Timestamp{Time: parsed}
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", *s)
}

// violations collects missing required fields for one document.
type violations []string

func (v *violations) add(field string) {
	*v = append(*v, field)
}

func (v *violations) requireDate(field string, d Date) {
	if d.IsZero() {
		v.add(field)
	}
}

func (v violations) err(kind Kind) error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Fields: v}
}

// ValidationError lists the required fields an extracted document is missing.
type ValidationError struct {
	Kind   Kind
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Kind, strings.Join(e.Fields, ", "))
}
