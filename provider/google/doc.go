// Package google adapts the Gemini API to relay.Model.
//
//	gemini, err := google.New(ctx, os.Getenv("GOOGLE_API_KEY"),
//		google.WithModel("gemini-2.5-flash"),
//	)
//
// Errors are returned as *relay.Error carrying the HTTP status. Prompts
// refused by safety filters fail with *BlockedError, which is not retried.
package google
