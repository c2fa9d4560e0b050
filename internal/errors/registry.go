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
	// Manifest Errors (W100-W119)
	// ============================================

	"W100": {
		Category: CategoryManifest,
		Message:  "Manifest unreadable",
		Detail:   "The route manifest could not be read. Check the path and file permissions.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W100",
	},
	"W101": {
		Category: CategoryManifest,
		Message:  "Manifest is not valid JSON",
		Detail:   "The route manifest must be a JSON object as written by the build step.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W101",
	},
	"W102": {
		Category: CategoryRoute,
		Message:  "Invalid route id",
		Detail:   "Route ids start with / and use [param], [[optional]], [...rest] and (group) segments.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W102",
	},
	"W103": {
		Category: CategoryRoute,
		Message:  "Duplicate route",
		Detail:   "Each route id may appear only once. The first declaration would always win.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W103",
	},
	"W104": {
		Category: CategoryRoute,
		Message:  "Route params do not match route id",
		Detail:   "The params listed for a route must have the names, order and flags implied by its id.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W104",
	},
	"W105": {
		Category: CategoryLoad,
		Message:  "Node index out of range",
		Detail:   "A route references a layout, error or leaf node that the manifest does not declare.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W105",
	},
	"W106": {
		Category: CategoryMatcher,
		Message:  "Unknown matcher",
		Detail:   "A route param names a matcher that is neither builtin nor declared in the manifest matchers.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W106",
	},
	"W107": {
		Category: CategoryMatcher,
		Message:  "Invalid matcher expression",
		Detail:   "Manifest matchers are Go regular expressions (RE2 syntax).",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W107",
	},
	"W108": {
		Category: CategoryManifest,
		Message:  "Invalid route target",
		Detail:   "Every route needs exactly one of page or endpoint.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W108",
	},

	// ============================================
	// Config Errors (W120-W139)
	// ============================================

	"W120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file or environment contains an invalid value.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W120",
	},
	"W121": {
		Category: CategoryConfig,
		Message:  "Unsupported module store",
		Detail:   "store.kind must be \"fs\" or \"s3\".",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W121",
	},

	// ============================================
	// CLI Errors (W140-W159)
	// ============================================

	"W140": {
		Category: CategoryCLI,
		Message:  "Invalid command usage",
		Detail:   "Run the command with --help to see its arguments and flags.",
		DocURL:   "https://waypoint.vango.dev/docs/errors/W140",
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

// Register adds a new error template to the registry. It is not safe to
// call concurrently with New.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
