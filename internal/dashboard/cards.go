package dashboard

import (
	"analyzeit.org/internal/predict"
)

// CardKind classifies how a metric renders on the dashboard.
type CardKind int

const (
	// CardPlaceholder marks a metric absent from the document.
	CardPlaceholder CardKind = iota
	// CardNumber renders a single numeric value.
	CardNumber
	// CardText renders a single string value or a string list.
	CardText
	// CardGraph renders official and predicted series on one chart.
	CardGraph
)

func (k CardKind) String() string {
	switch k {
	case CardPlaceholder:
		return "placeholder"
	case CardNumber:
		return "number"
	case CardText:
		return "text"
	case CardGraph:
		return "graph"
	default:
		return "unknown"
	}
}

// Card is the renderer-agnostic view of one metric. Exactly the fields
// matching Kind are populated.
type Card struct {
	Metric string
	Title  string
	Kind   CardKind

	Number float64
	Text   string
	Items  []string

	Official  []predict.SeriesPoint
	Predicted []predict.SeriesPoint
}

// defaultMetrics is the card order the dashboard presents.
var defaultMetrics = []string{
	"total_cases",
	"total_deaths",
	"cases_in_period",
	"deaths_in_period",
	"transmission_rate",
	"mortality_rate",
	"peak_date",
	"estimated_duration_days",
	"geographic_spread",
}

// BuildCards classifies the default metric set against a document.
func BuildCards(doc *predict.Document) []Card {
	cards := make([]Card, 0, len(defaultMetrics))
	for _, metric := range defaultMetrics {
		cards = append(cards, BuildCard(doc, metric))
	}
	return cards
}

// BuildCard classifies one metric. A metric present in neither section
// yields a placeholder card so the layout stays stable.
func BuildCard(doc *predict.Document, metric string) Card {
	card := Card{Metric: metric, Title: doc.Title(metric)}

	value, ok := doc.Metric(metric)
	if !ok {
		card.Kind = CardPlaceholder
		return card
	}

	switch value.Kind {
	case predict.KindScalar:
		switch v := value.Scalar.(type) {
		case float64:
			card.Kind = CardNumber
			card.Number = v
		case string:
			card.Kind = CardText
			card.Text = v
		default:
			card.Kind = CardPlaceholder
		}
	case predict.KindList:
		card.Kind = CardText
		card.Items = value.List
	case predict.KindSeries:
		card.Kind = CardGraph
		if official, ok := doc.Official[metric]; ok {
			card.Official = official.Series
		}
		if predicted, ok := doc.Predictions[metric]; ok {
			card.Predicted = predicted.Series
		}
	default:
		card.Kind = CardPlaceholder
	}
	return card
}
