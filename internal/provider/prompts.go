package provider

import "fmt"

// SystemPrompt fixes the reply format so ParseVariations can read it.
const SystemPrompt = `És um copywriter de social media de alto nível.
Responde SEMPRE em JSON válido, no seguinte formato:

{
  "variations": [
    {
      "title": "string",
      "caption": "string",
      "hashtags": ["#tag1", "#tag2", "..."]
    }
  ]
}

Títulos curtos. Legendas em PT-PT, com emojis naturais.
Hashtags em minúsculas, sem acentos.`

const userPromptTemplate = `Marca: %s
Nicho: %s
Tom de voz: %s
Modo de copy: %s
Plataforma: %s

O que quero comunicar hoje:
%s

Informação extra:
%s

Gera exatamente %d variações diferentes, todas focadas em venda suave,
com CTA claro para visitar site/perfil/comprar.`

// UserPrompt renders the per-request prompt.
func UserPrompt(req Request) string {
	return fmt.Sprintf(userPromptTemplate,
		req.Brand, req.Niche, req.Tone, req.Mode, req.Platform, req.Message, req.ExtraInfo, MaxVariations)
}
