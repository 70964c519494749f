// Package model provides the catalog of chat models a roster can name.
//
// Models are referenced as "provider/id" in roster files:
//
//	m, err := model.Parse("anthropic/claude-sonnet-4-5")
//
// Catalogued models carry pricing, so callers can estimate request cost:
//
//	cost := model.ClaudeSonnet45.Cost(resp.Usage)
//
// Ids that are not catalogued still resolve for a known provider, with
// zero pricing.
package model
