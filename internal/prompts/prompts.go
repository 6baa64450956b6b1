// Package prompts holds the LLM prompt templates. Templates carry
// __UPPER_CASE__ placeholders that BuildPrompt substitutes.
package prompts

import (
	"embed"
	"fmt"
	"strings"
)

// Name identifies a template.
type Name string

const (
	ArticlesOfAssociation     Name = "articles_of_association"
	CNPJCard                  Name = "cnpj_card"
	TaxClearanceCertificate   Name = "tax_clearance_certificate"
	BusinessPurposeValidation Name = "business_purpose_validation"
)

// Placeholder keys.
const (
	KeyDocumentText    = "document_text"
	KeyBusinessPurpose = "objeto_social"
	KeyActivities      = "atividades"
)

//go:embed templates/*.txt
var files embed.FS

var templates = mustLoad(ArticlesOfAssociation, CNPJCard, TaxClearanceCertificate, BusinessPurposeValidation)

func mustLoad(names ...Name) map[Name]string {
	out := make(map[Name]string, len(names))
	for _, name := range names {
		data, err := files.ReadFile("templates/" + string(name) + ".txt")
		if err != nil {
			panic(fmt.Sprintf("prompts: missing template %s: %v", name, err))
		}
		out[name] = strings.TrimSpace(string(data))
	}
	return out
}

// Template returns the raw template text.
func Template(name Name) (string, bool) {
	t, ok := templates[name]
	return t, ok
}

// BuildPrompt replaces each __KEY__ placeholder (key upper-cased) with its
// value. Unknown names are an error; placeholders without a replacement are
// left as they are.
func BuildPrompt(name Name, replacements map[string]string) (string, error) {
	template, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt name: %s", name)
	}
	pairs := make([]string, 0, 2*len(replacements))
	for key, value := range replacements {
		pairs = append(pairs, "__"+strings.ToUpper(key)+"__", value)
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}
