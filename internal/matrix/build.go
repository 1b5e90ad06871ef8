package matrix

import (
	"fmt"
	"regexp"
	"strings"

	"bpa/internal/extract"
)

// DefaultLabelMaxLen is the longest item label before word-boundary truncation
const DefaultLabelMaxLen = 90

// Clarity defaults: base percentage plus a fixed step per extracted fragment
const (
	DefaultClarityBase = 10
	DefaultClarityStep = 18
)

// fieldKeywords drives lexical evidence extraction per block slot
var fieldKeywords = map[string][]string{
	FieldCustomerSegments: {
		"cliente", "clientes", "público-alvo", "público", "segmento", "segmentos",
		"persona", "usuário", "usuários", "consumidor", "consumidores",
		"mercado-alvo", "B2C", "B2B", "assinantes", "prefeituras", "empresas", "festivais",
	},
	FieldValueProposition: {
		"proposta de valor", "solução", "diferencial", "benefício", "produto",
		"serviço", "vantagem", "por que nós", "conteúdo regional", "HUB Audiovisual",
		"Unidade Móvel", "infraestrutura", "coworking",
	},
	FieldChannels: {
		"canais", "distribuição", "venda", "plataforma", "marketing", "como chegar",
		"pontos de venda", "OTT", "HUB Físico", "Van 4K",
	},
	FieldCustomerRelationships: {
		"relacionamento", "suporte", "comunidade", "atendimento", "engajamento", "fidelização",
	},
	FieldRevenueStreams: {
		"receita", "receitas", "monetização", "preço", "preços", "assinatura",
		"assinantes", "faturamento", "modelo de negócio", "fontes de receita",
		"planos free", "star", "premium", "transmissão de eventos", "brand channel",
	},
	FieldKeyResources: {
		"recursos-chave", "recursos", "infraestrutura", "equipamento", "equipamentos",
		"time", "equipe", "ativos", "tecnologia", "estúdios", "ilhas de edição",
		"Van 4K", "Vodlix", "Gateways",
	},
	FieldKeyActivities: {
		"atividades-chave", "atividades", "processo", "operação", "produção",
		"fluxo de trabalho", "o que fazemos", "streaming", "VOD", "Live", "edição",
		"transmissão broadcast", "cobertura de eventos",
	},
	FieldKeyPartnerships: {
		"parceiros", "parcerias", "fornecedores", "alianças", "acordos", "terceiros",
		"produtores locais", "Vodlix", "Asaas", "Pagar.me",
	},
	FieldCostStructure: {
		"custos", "despesas", "investimento", "orçamento", "gasto", "capex", "opex",
		"estrutura de custos", "construção do HUB", "compra da Van",
	},
	FieldSwotStrengths: {
		"força", "vantagem", "diferencial", "diferenciais", "ponto forte", "exclusivo",
		"patente", "expertise", "equipe experiente", "tecnologia própria",
		"posicionamento único", "qualidade superior", "ecossistema híbrido", "foco regional",
	},
	FieldSwotWeaknesses: {
		"fraqueza", "desvantagem", "risco interno", "ponto fraco", "dificuldade",
		"gargalo", "dependência", "orçamento limitado", "falta de", "white label",
	},
	FieldSwotOpportunities: {
		"oportunidade", "oportunidades", "mercado em crescimento", "tendência",
		"demanda reprimida", "nova legislação", "parceria estratégica",
		"incentivo fiscal", "expansão", "financiar", "tracionar",
	},
	FieldSwotThreats: {
		"ameaça", "ameaças", "concorrência", "risco externo", "desafio",
		"crise econômica", "mudança regulatória", "pirataria", "novos players",
	},
}

// FieldKeywords returns the extraction keywords for a block field
func FieldKeywords(field string) []string {
	return fieldKeywords[field]
}

// Builder derives matrix blocks from a corpus. Zero values fall back to the
// package defaults so Builder{} is usable.
type Builder struct {
	MaxFragments int
	MinLen       int
	MaxLen       int
	LabelMaxLen  int
	ClarityBase  int
	ClarityStep  int
}

func (b Builder) withDefaults() Builder {
	if b.MaxFragments <= 0 {
		b.MaxFragments = extract.DefaultMaxCount
	}
	if b.MinLen <= 0 {
		b.MinLen = extract.DefaultMinLen
	}
	if b.MaxLen <= 0 {
		b.MaxLen = extract.DefaultMaxLen
	}
	if b.LabelMaxLen <= 0 {
		b.LabelMaxLen = DefaultLabelMaxLen
	}
	if b.ClarityBase <= 0 {
		b.ClarityBase = DefaultClarityBase
	}
	if b.ClarityStep <= 0 {
		b.ClarityStep = DefaultClarityStep
	}
	return b
}

// Polarity of item severity and confidence depends on the slot class: a
// canvas match is routine, a SWOT match is a signal; a missing canvas slot
// is a serious gap, a missing SWOT slot merely notable.
func itemClass(field string) (matched Item, sentinel Item) {
	if IsSwotField(field) {
		return Item{Severity: SeverityHigh, Confidence: ConfidenceMedium},
			Item{Severity: SeverityModerate, Confidence: ConfidenceLow}
	}
	return Item{Severity: SeverityModerate, Confidence: ConfidenceMedium},
		Item{Severity: SeverityHigh, Confidence: ConfidenceLow}
}

// BuildBlock extracts evidence for one field from the corpus and folds it
// into a block. When nothing matches it emits a single low-confidence
// sentinel item that names the absence, never an empty item list.
func (b Builder) BuildBlock(corpus, field string) Block {
	b = b.withDefaults()

	fragments := extract.ExtractWith(corpus, FieldKeywords(field), extract.Options{
		MinLen:   b.MinLen,
		MaxLen:   b.MaxLen,
		MaxCount: b.MaxFragments,
	})

	matched, sentinel := itemClass(field)
	var items []Item
	if len(fragments) > 0 {
		for _, fragment := range fragments {
			items = append(items, Item{
				Item:        truncateLabel(fragment, b.LabelMaxLen),
				Description: fragment,
				Severity:    matched.Severity,
				Confidence:  matched.Confidence,
			})
		}
	} else {
		items = append(items, Item{
			Item:        fmt.Sprintf("Nenhuma informação sobre %s encontrada", field),
			Description: fmt.Sprintf("Não foram encontradas menções explícitas sobre %q ou seus sinônimos nos documentos. Isso pode ser uma lacuna a ser preenchida.", field),
			Severity:    sentinel.Severity,
			Confidence:  sentinel.Confidence,
		})
	}

	clarity := b.ClarityBase + b.ClarityStep*len(fragments)
	if clarity > 100 {
		clarity = 100
	}

	return Block{
		Items:        items,
		Description:  fmt.Sprintf("Análise de %s extraída diretamente dos documentos fornecidos.", field),
		Source:       fmt.Sprintf("Diagnóstico - %s", field),
		ClarityLevel: clarity,
	}
}

var trailingWord = regexp.MustCompile(`\s\S+$`)

// truncateLabel cuts a fragment to max runes on a word boundary and marks
// the cut with an ellipsis
func truncateLabel(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := string(runes[:max])
	cut = trailingWord.ReplaceAllString(cut, "")
	return strings.TrimSpace(cut) + "..."
}
