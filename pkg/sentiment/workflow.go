// Package sentiment assembles the sentiment analysis workflow: detect the
// text's language, translate it to the target language unless it is already
// in it, then analyze sentiment. The graph is fixed at build time; only the
// capability clients and the target language are injected.
package sentiment

import (
	"context"
	"fmt"

	"github.com/sentimento/sentimento/pkg/capabilities"
	"github.com/sentimento/sentimento/pkg/document"
	"github.com/sentimento/sentimento/pkg/statemachine"
)

// State names of the workflow graph.
const (
	StateLanguageDetection      = "LanguageDetection"
	StateSelectDominantLanguage = "SelectDominantLanguage"
	StateTranslationDecision    = "TranslationDecision"
	StateTranslation            = "Translation"
	StateRenameTranslation      = "RenameTranslation"
	StateSentimentDetection     = "SentimentDetection"
)

// DefaultTargetLanguage is the canonical language sentiment is computed in.
const DefaultTargetLanguage = "pt"

// Capabilities bundles the three external services the workflow invokes.
type Capabilities struct {
	Identifier capabilities.LanguageIdentifier
	Translator capabilities.Translator
	Analyzer   capabilities.SentimentAnalyzer
}

// NewDefinition builds the validated workflow graph. The input document is
// expected to carry a single "txt" field; the final document is the raw
// sentiment analysis response.
func NewDefinition(caps Capabilities, targetLanguage string) (*statemachine.Definition, error) {
	if targetLanguage == "" {
		targetLanguage = DefaultTargetLanguage
	}

	states := map[string]statemachine.State{
		StateLanguageDetection: statemachine.Task{
			Capability: "language-identification",
			BuildInput: buildDetectionInput,
			Invoke:     invokeIdentifier(caps.Identifier),
			// Merge keeps txt alongside the detection response for the
			// projection that follows.
			MergeResult: mergeFields,
			Next:        StateSelectDominantLanguage,
		},
		StateSelectDominantLanguage: statemachine.Pass{
			Apply: selectDominantLanguage,
			Next:  StateTranslationDecision,
		},
		StateTranslationDecision: statemachine.Choice{
			// The two rules are complements: every detected language code
			// matches exactly one of them, so no default is needed.
			Rules: []statemachine.Rule{
				{
					When: statemachine.Predicate{Variable: "Language", Equals: targetLanguage},
					Next: StateSentimentDetection,
				},
				{
					When: statemachine.Predicate{Variable: "Language", Equals: targetLanguage, Negate: true},
					Next: StateTranslation,
				},
			},
		},
		StateTranslation: statemachine.Task{
			Capability:  "translation",
			BuildInput:  buildTranslationInput(targetLanguage),
			Invoke:      invokeTranslator(caps.Translator),
			MergeResult: mergeFields,
			Next:        StateRenameTranslation,
		},
		StateRenameTranslation: statemachine.Pass{
			Apply: renameTranslation,
			Next:  StateSentimentDetection,
		},
		StateSentimentDetection: statemachine.Task{
			Capability: "sentiment-analysis",
			BuildInput: buildSentimentInput,
			Invoke:     invokeAnalyzer(caps.Analyzer),
			// nil MergeResult: the analysis response becomes the final
			// result document.
		},
	}

	return statemachine.NewDefinition(StateLanguageDetection, states)
}

func mergeFields(base, result document.Document) document.Document {
	return base.Merge(result)
}

func buildDetectionInput(doc document.Document) (document.Document, error) {
	txt, err := doc.String("txt")
	if err != nil {
		return nil, err
	}

	return document.New(map[string]any{"Text": txt}), nil
}

func invokeIdentifier(identifier capabilities.LanguageIdentifier) statemachine.CapabilityFunc {
	return func(ctx context.Context, request document.Document) (document.Document, error) {
		text, err := request.String("Text")
		if err != nil {
			return nil, err
		}

		languages, err := identifier.IdentifyLanguage(ctx, text)
		if err != nil {
			return nil, err
		}

		entries := make([]any, 0, len(languages))
		for _, language := range languages {
			entries = append(entries, map[string]any{
				"LanguageCode": language.LanguageCode,
				"Score":        language.Score,
			})
		}

		return document.New(map[string]any{"Languages": entries}), nil
	}
}

// selectDominantLanguage sets the working Text and Language fields from the
// detection response. The detector sorts by score descending, so the dominant
// language is the first entry; an empty response is a step-output error, not
// a silent default.
func selectDominantLanguage(doc document.Document) (document.Document, error) {
	txt, err := doc.String("txt")
	if err != nil {
		return nil, err
	}

	languages, err := doc.List("Languages")
	if err != nil {
		return nil, err
	}

	if len(languages) == 0 {
		return nil, fmt.Errorf("language identification returned no languages")
	}

	first, ok := languages[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("language entry has unexpected shape %T", languages[0])
	}

	code, ok := first["LanguageCode"].(string)
	if !ok {
		return nil, fmt.Errorf("language entry has no LanguageCode")
	}

	return doc.With("Text", txt).With("Language", code), nil
}

func buildTranslationInput(targetLanguage string) func(document.Document) (document.Document, error) {
	return func(doc document.Document) (document.Document, error) {
		text, err := doc.String("Text")
		if err != nil {
			return nil, err
		}

		language, err := doc.String("Language")
		if err != nil {
			return nil, err
		}

		return document.New(map[string]any{
			"Text":               text,
			"SourceLanguageCode": language,
			"TargetLanguageCode": targetLanguage,
		}), nil
	}
}

func invokeTranslator(translator capabilities.Translator) statemachine.CapabilityFunc {
	return func(ctx context.Context, request document.Document) (document.Document, error) {
		text, err := request.String("Text")
		if err != nil {
			return nil, err
		}

		source, err := request.String("SourceLanguageCode")
		if err != nil {
			return nil, err
		}

		target, err := request.String("TargetLanguageCode")
		if err != nil {
			return nil, err
		}

		translation, err := translator.Translate(ctx, text, source, target)
		if err != nil {
			return nil, err
		}

		return document.New(map[string]any{
			"TranslatedText":     translation.TranslatedText,
			"TargetLanguageCode": translation.TargetLanguageCode,
		}), nil
	}
}

// renameTranslation promotes the translation response to the working Text and
// Language fields before sentiment analysis.
func renameTranslation(doc document.Document) (document.Document, error) {
	translated, err := doc.String("TranslatedText")
	if err != nil {
		return nil, err
	}

	target, err := doc.String("TargetLanguageCode")
	if err != nil {
		return nil, err
	}

	return doc.With("Text", translated).With("Language", target), nil
}

func buildSentimentInput(doc document.Document) (document.Document, error) {
	text, err := doc.String("Text")
	if err != nil {
		return nil, err
	}

	language, err := doc.String("Language")
	if err != nil {
		return nil, err
	}

	return document.New(map[string]any{
		"Text":         text,
		"LanguageCode": language,
	}), nil
}

func invokeAnalyzer(analyzer capabilities.SentimentAnalyzer) statemachine.CapabilityFunc {
	return func(ctx context.Context, request document.Document) (document.Document, error) {
		text, err := request.String("Text")
		if err != nil {
			return nil, err
		}

		language, err := request.String("LanguageCode")
		if err != nil {
			return nil, err
		}

		sentiment, err := analyzer.AnalyzeSentiment(ctx, text, language)
		if err != nil {
			return nil, err
		}

		return document.New(map[string]any{
			"Sentiment": sentiment.Sentiment,
			"SentimentScore": map[string]any{
				"Positive": sentiment.SentimentScore.Positive,
				"Negative": sentiment.SentimentScore.Negative,
				"Neutral":  sentiment.SentimentScore.Neutral,
				"Mixed":    sentiment.SentimentScore.Mixed,
			},
		}), nil
	}
}
