package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Init errors (E001-E009)
	"E001": {
		Category:   CategoryInit,
		Message:    "Init request failed",
		Detail:     "The session init request could not be completed or the server answered with a non-2xx status.",
		Suggestion: "Check that the server is running and baseURL is correct",
	},
	"E002": {
		Category:   CategoryInit,
		Message:    "Init response is not JSON",
		Detail:     "The server answered the init request with a content type other than application/json.",
		Suggestion: "Check that baseURL points at the application root",
	},
	"E003": {
		Category: CategoryInit,
		Message:  "Init response is invalid",
		Detail:   "The init response could not be decoded or carries no appId.",
	},

	// Activation errors (E010-E019)
	"E010": {
		Category: CategoryActivation,
		Message:  "Client runtime failed",
		Detail:   "Loading, bootstrapping or initializing the client runtime returned an error.",
	},
	"E011": {
		Category:   CategoryActivation,
		Message:    "Client runtime activation timed out",
		Detail:     "At least one client kept reporting that it is initializing.",
		Suggestion: "Raise activationTimeout or check that the push endpoint is reachable",
	},
	"E012": {
		Category: CategoryActivation,
		Message:  "Imports hook failed",
		Detail:   "The application imports hook returned an error after activation.",
	},

	// Navigation errors (E020-E029)
	"E020": {
		Category:   CategoryNavigation,
		Message:    "No server bridge",
		Detail:     "The client runtime did not provide a server bridge, so views cannot be requested.",
		Suggestion: "Check that the push connection was established",
	},
	"E021": {
		Category: CategoryNavigation,
		Message:  "View rejected by server",
		Detail:   "The server could not attach a view to the placeholder element.",
	},
	"E022": {
		Category:   CategoryNavigation,
		Message:    "Timed out waiting for the server",
		Detail:     "The operation did not complete before its deadline.",
		Suggestion: "Raise navigateTimeout in shell.json",
	},

	// Protocol errors (E030-E039)
	"E030": {
		Category: CategoryProtocol,
		Message:  "Push connection closed",
		Detail:   "The push connection to the server closed while requests were pending.",
	},
	"E031": {
		Category: CategoryProtocol,
		Message:  "Push handshake rejected",
		Detail:   "The server did not accept the app id of this session.",
	},

	// Config errors (E040-E049)
	"E040": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Detail:     "shell.json contains an invalid value.",
		Suggestion: "Run 'shell init' to write a fresh configuration",
	},
	"E041": {
		Category: CategoryConfig,
		Message:  "Configuration not readable",
		Detail:   "shell.json exists but could not be read or parsed.",
	},
	"E042": {
		Category:   CategoryConfig,
		Message:    "Configuration not found",
		Detail:     "No shell.json was found.",
		Suggestion: "Run 'shell init' to create one, or pass flags instead",
	},

	// CLI errors (E050-E059)
	"E050": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
	"E051": {
		Category:   CategoryCLI,
		Message:    "Configuration already exists",
		Detail:     "Refusing to overwrite an existing shell.json.",
		Suggestion: "Pass --force to overwrite it",
	},
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
