package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("substitutes the document text", func(t *testing.T) {
		got, err := BuildPrompt(CNPJCard, map[string]string{KeyDocumentText: "CARTAO DE TESTE"})
		require.NoError(t, err)
		assert.Contains(t, got, "Texto do documento:\nCARTAO DE TESTE")
		assert.NotContains(t, got, "__DOCUMENT_TEXT__")
	})

	t.Run("substitutes purpose and activities", func(t *testing.T) {
		got, err := BuildPrompt(BusinessPurposeValidation, map[string]string{
			KeyBusinessPurpose: "- Software",
			KeyActivities:      "Atividade Principal:",
		})
		require.NoError(t, err)
		assert.Contains(t, got, "Objeto Social: - Software")
		assert.Contains(t, got, "Atividades CNPJ: Atividade Principal:")
	})

	t.Run("values containing placeholders are not expanded again", func(t *testing.T) {
		got, err := BuildPrompt(TaxClearanceCertificate, map[string]string{KeyDocumentText: "__DOCUMENT_TEXT__"})
		require.NoError(t, err)
		assert.Contains(t, got, "Texto do documento:\n__DOCUMENT_TEXT__")
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := BuildPrompt("desconhecido", nil)
		assert.EqualError(t, err, "unknown prompt name: desconhecido")
	})
}

func TestTemplatesLoaded(t *testing.T) {
	for _, name := range []Name{ArticlesOfAssociation, CNPJCard, TaxClearanceCertificate, BusinessPurposeValidation} {
		tmpl, ok := Template(name)
		assert.True(t, ok, name)
		assert.NotEmpty(t, tmpl, name)
	}
}
