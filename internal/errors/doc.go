// Package errors provides coded, actionable error messages for kvstore.
//
// Every error carries a short code (e.g. "K001") that maps to a registered
// template with a category, a one-line message and a longer explanation.
// Callers add context with the With* builders and print them with Format.
//
// # Error Categories
//
//   - runtime: misuse of the store or binding layer at run time
//   - config: problems loading or validating kvstore.json
//   - request: malformed requests to the live server
//   - cli: command line failures
//
// # Usage
//
//	err := errors.New("K020").
//	    WithDetail("No kvstore.json found in /srv/app").
//	    WithSuggestion("Run 'kvstore serve' without --config to use defaults")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR K020: Config file not found
//	//
//	//   No kvstore.json found in /srv/app
//	//
//	//   Hint: Run 'kvstore serve' without --config to use defaults
//
// Errors created from the same code match each other under errors.Is, so a
// package can export one instance as a sentinel and still return enriched
// copies.
package errors
