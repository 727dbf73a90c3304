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
	// Runtime Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryRuntime,
		Message:  "Unknown component kind",
		Detail:   "An instance references a kind tag that is not in the component registry. The canvas shows an inert placeholder in its place.",
		DocURL:   "https://forma.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryRuntime,
		Message:  "Renderer failed",
		Detail:   "A component kind's render function panicked. The instance renders as a placeholder and the session continues.",
		DocURL:   "https://forma.dev/docs/errors/E002",
	},
	"E010": {
		Category: CategoryRuntime,
		Message:  "Session not found",
		Detail:   "The editing session ID is invalid or the session has ended.",
		DocURL:   "https://forma.dev/docs/errors/E010",
	},

	// ============================================
	// Data Source Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryData,
		Message:  "Data source fetch failed",
		Detail:   "A query or URL data source could not be resolved. The widget shows its error state until the configuration changes.",
		DocURL:   "https://forma.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryData,
		Message:  "Unknown saved query",
		Detail:   "A table references a saved query ID that is not configured.",
		DocURL:   "https://forma.dev/docs/errors/E021",
	},
	"E022": {
		Category: CategoryData,
		Message:  "Connector unreachable",
		Detail:   "The target database for a connector could not be reached.",
		DocURL:   "https://forma.dev/docs/errors/E022",
	},
	"E023": {
		Category: CategoryData,
		Message:  "Statement rejected",
		Detail:   "Only SELECT statements may feed a widget data source.",
		DocURL:   "https://forma.dev/docs/errors/E023",
	},

	// ============================================
	// Script Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryScript,
		Message:  "Handler compile failed",
		Detail:   "Stored event handler code has a syntax error. The handler is a no-op until the code is fixed.",
		DocURL:   "https://forma.dev/docs/errors/E040",
	},

	// ============================================
	// Export Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryExport,
		Message:  "Export failed",
		Detail:   "The standalone document could not be generated.",
		DocURL:   "https://forma.dev/docs/errors/E060",
	},
	"E061": {
		Category: CategoryExport,
		Message:  "Publish failed",
		Detail:   "The exported document could not be uploaded to the configured bucket.",
		DocURL:   "https://forma.dev/docs/errors/E061",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "forma.json could not be read or parsed.",
		DocURL:   "https://forma.dev/docs/errors/E120",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "The configured server port is out of range.",
		DocURL:   "https://forma.dev/docs/errors/E122",
	},

	// ============================================
	// Project Errors (E140-E159)
	// ============================================

	"E141": {
		Category: CategoryConfig,
		Message:  "No forma.json found",
		Detail:   "The working directory is not inside a forma project.",
		DocURL:   "https://forma.dev/docs/errors/E141",
	},
	"E142": {
		Category: CategoryServer,
		Message:  "Project not found",
		Detail:   "No saved project exists under the requested name.",
		DocURL:   "https://forma.dev/docs/errors/E142",
	},
}

// Register adds an error template at startup. Later registrations for
// the same code win, which lets an embedding application override the
// builtin wording.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// GetTemplate looks up a registered error template.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// GetAllCodes returns every registered code, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
