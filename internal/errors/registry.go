package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (K001-K019)
	// ============================================

	"K001": {
		Category: CategoryRuntime,
		Message:  "No store in context",
		Detail:   "A binding was used without a store provider. Wrap the context with bind.WithStore before creating subscribers; continuing would silently lose reactivity.",
	},

	// ============================================
	// Config Errors (K020-K039)
	// ============================================

	"K020": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "The config file (kvstore.json or kvstore.toml) could not be found.",
	},
	"K021": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file (kvstore.json or kvstore.toml) could not be read or parsed.",
	},
	"K022": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "The server port must be between 0 and 65535.",
	},
	"K023": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn or error.",
	},
	"K024": {
		Category: CategoryConfig,
		Message:  "Invalid log format",
		Detail:   "The log format must be text or json.",
	},

	// ============================================
	// Request Errors (K040-K059)
	// ============================================

	"K040": {
		Category: CategoryRequest,
		Message:  "Invalid key",
		Detail:   "The request did not name a key.",
	},
	"K041": {
		Category: CategoryRequest,
		Message:  "Invalid request body",
		Detail:   "The request body must be a single JSON value.",
	},
	"K042": {
		Category: CategoryRequest,
		Message:  "Key not found",
		Detail:   "The key has never been set or initialized, or it was deleted.",
	},

	// ============================================
	// CLI Errors (K060-K079)
	// ============================================

	"K060": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The live server stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
