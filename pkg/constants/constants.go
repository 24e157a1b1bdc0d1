// Package constants provides shared constants for the stewardship-forecast application.
package constants

// Threshold monitor constants
const (
	// CriticalQualityFloor is the quality score below which an alert is critical.
	CriticalQualityFloor = 0.70

	// WarningQualityFloor is the quality score below which an alert is a warning.
	WarningQualityFloor = 0.85

	// MinimumAggregateReturn is the generational floor for the summed return vector.
	MinimumAggregateReturn = 10.0

	// ReturnVectorLength is the observed number of generations (G0-G9) in a return vector.
	ReturnVectorLength = 10
)

// Projection constants
const (
	// DefaultHorizon is the number of generations projected when none is configured.
	DefaultHorizon = 5

	// DomainCount is the number of value domains in a projection.
	DomainCount = 3

	// DisplayPrecision is the scaling factor for one-decimal display rounding.
	DisplayPrecision = 10

	// WeightSumTolerance is the tolerance used when warning about weights that do not sum to 1.
	WeightSumTolerance = 1e-9
)

// Domain names in projection order.
const (
	DomainEcological = "ecological"
	DomainSocial     = "social"
	DomainFinancial  = "financial"
)

// DefaultPresetID is the preset used when an unknown preset is requested.
const DefaultPresetID = "balanced_covenant"

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultEnvFile is loaded before the configuration when present
	DefaultEnvFile = ".env"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024

	// MaxRequestHorizon caps the horizon accepted by the projection endpoint
	MaxRequestHorizon = 1000
)

// Export constants
const (
	// DefaultStewardID identifies the steward when none is supplied to an export.
	DefaultStewardID = "steward_01"

	// HealthyExportReference is the reference recorded in an export when no alert is active.
	HealthyExportReference = "Psalm 23:1"
)
