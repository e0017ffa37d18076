// Package weather – advisory rule engine.
//
// This file maps a temperature and condition pair to a conversation
// suggestion for the contact's city. Classification is keyword-containment
// based (the provider answers in pt-BR, so both English and Portuguese
// condition words are recognized) and the temperature bands are fixed:
// 15 °C and below, 30 °C and above, and the open interval between them.
// The boundary values 15 and 30 belong to the outer bands.
package weather

import "strings"

// Suggestion is the human-facing advisory derived from a weather result.
type Suggestion struct {
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// sunnyWords and rainyWords classify a condition by substring containment,
// case-insensitive. "thunderstorm" counts as rainy.
var (
	sunnyWords = []string{"clear", "sun", "sol", "ensolarado", "limpo"}
	rainyWords = []string{"rain", "drizzle", "chuva", "chuvisco", "garoa", "thunderstorm"}
)

// BuildSuggestion applies the decision table to a temperature (°C) and
// condition and returns the resulting suggestion. The first matching band
// wins; within a band the condition picks the message.
func BuildSuggestion(temperature int, condition, description string) Suggestion {
	message := "Que tal entrar em contato com essa pessoa?"
	icon := "😊"

	switch {
	case temperature <= 15:
		message = "Ofereça um chocolate quente ao seu contato..."
		icon = "☕"
	case temperature >= 30:
		switch {
		case isSunny(condition):
			message = "Convide seu contato para ir à praia com esse calor!"
			icon = "🏖️"
		case isRainy(condition):
			message = "Convide seu contato para tomar um sorvete"
			icon = "🍦"
		default:
			message = "Está muito quente! Que tal um lugar com ar condicionado?"
			icon = "🥵"
		}
	default: // 15 < t < 30
		switch {
		case isSunny(condition):
			message = "Convide seu contato para fazer alguma atividade ao ar livre"
			icon = "🚶‍♂️"
		case isRainy(condition):
			message = "Convide seu contato para ver um filme"
			icon = "🎬"
		}
	}

	return Suggestion{
		Temperature: temperature,
		Condition:   condition,
		Message:     message,
		Description: description,
		Icon:        icon,
	}
}

func isSunny(condition string) bool {
	return containsAny(strings.ToLower(condition), sunnyWords)
}

func isRainy(condition string) bool {
	return containsAny(strings.ToLower(condition), rainyWords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
